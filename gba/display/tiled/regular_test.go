package tiled

import (
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gbahal/gba/display"
)

func TestGridOffset(t *testing.T) {
	tests := []struct {
		size RegularBackgroundSize
		x, y int
		want int
	}{
		{Background32x32, 0, 0, 0},
		{Background32x32, 32, 0, 0},
		{Background32x32, 5, 33, 37},
		{Background32x32, -1, 0, 31},
		{Background64x32, 32, 0, 1024},
		{Background64x32, 64, 0, 0},
		{Background64x32, 33, 1, 1024 + 33},
		{Background32x64, 0, 32, 1024},
		{Background64x64, 32, 32, 3 * 1024},
		{Background64x64, 1, 63, 2*1024 + 31*32 + 1},
	}
	for _, tt := range tests {
		if got := tt.size.offset(pt(tt.x, tt.y)); got != tt.want {
			t.Errorf("%v (%d,%d): offset = %d, want %d", tt.size, tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSetTileWraps(t *testing.T) {
	tl, _ := newTiled(t)
	ts := tileset(4, FourBpp)

	bg := tl.NewRegularBackground(display.P0, Background32x32, FourBpp)
	bg.SetTile(pt(32, 0), ts, NewTileSetting(1, false, false, 0))
	if bg.Tile(pt(0, 0)) == 0 {
		t.Errorf("(32,0) didn't address (0,0)")
	}

	wide := tl.NewRegularBackground(display.P0, Background64x32, FourBpp)
	wide.SetTile(pt(32, 0), ts, NewTileSetting(1, false, false, 0))
	if wide.Tile(pt(0, 0)) != 0 {
		t.Errorf("(32,0) wrapped to (0,0) on a 64x32 map")
	}
	if wide.tiles[1024] == 0 {
		t.Errorf("(32,0) isn't the start of the second screenblock")
	}
}

func TestSetTile(t *testing.T) {
	tl, _ := newTiled(t)
	ts := tileset(4, FourBpp)
	bg := tl.NewRegularBackground(display.P1, Background32x32, FourBpp)
	bg.Commit()

	s := NewTileSetting(1, true, false, 3)
	bg.SetTile(pt(2, 3), ts, s)
	if !bg.IsDirty() {
		t.Errorf("not dirty after SetTile")
	}
	idx := tl.VRAM.AddTile(ts, 1)
	tl.VRAM.RemoveTile(idx)
	want := Tile(idx.Raw() | 1<<10 | 3<<12)
	if got := bg.Tile(pt(2, 3)); got != want {
		t.Errorf("tile = %04x, want %04x", got, want)
	}

	bg.Commit()
	bg.SetTile(pt(2, 3), ts, s)
	if bg.IsDirty() {
		t.Errorf("dirty after writing an unchanged cell")
	}
	if tl.VRAM.refs(idx) != 1 {
		t.Errorf("refs = %d, want 1", tl.VRAM.refs(idx))
	}

	bg.SetTile(pt(2, 3), ts, Blank)
	if bg.Tile(pt(2, 3)) != 0 {
		t.Errorf("cell not empty")
	}
	if tl.VRAM.refs(idx) != 0 {
		t.Errorf("tile still referenced")
	}

	mustPanic(t, func() { bg.SetTile(pt(0, 0), tileset(1, EightBpp), NewTileSetting(0, false, false, 0)) })
}

func TestCommitIdempotent(t *testing.T) {
	tl, c := newTiled(t)
	ts := tileset(4, FourBpp)
	bg := tl.NewRegularBackground(display.P0, Background32x32, FourBpp)
	bg.SetTile(pt(1, 1), ts, NewTileSetting(2, false, false, 0))

	bg.Commit()
	bg.Commit()
	if bg.flushes != 1 {
		t.Errorf("flushes = %d, want 1", bg.flushes)
	}
	if c.DMA.Transfers[3] != 1 {
		t.Errorf("DMA copies = %d, want 1", c.DMA.Transfers[3])
	}

	entry := c.Bus.Read16(bg.addr+2*(32+1), false)
	if entry != uint16(bg.Tile(pt(1, 1))) {
		t.Errorf("VRAM entry = %04x, want %04x", entry, bg.Tile(pt(1, 1)))
	}
}

func TestFillWith(t *testing.T) {
	tl, _ := newTiled(t)
	ts := tileset(16, FourBpp)
	bg := tl.NewRegularBackground(display.P0, Background32x32, FourBpp)

	settings := make([]TileSetting, 30*20)
	for i := range settings {
		settings[i] = NewTileSetting(uint16(1+i%15), false, false, 0)
	}
	mustPanic(t, func() { bg.FillWith(TileData{Tiles: ts, Settings: settings[:599]}) })
	mustPanic(t, func() { bg.FillWith(TileData{Tiles: tileset(1, EightBpp), Settings: settings}) })

	bg.FillWith(TileData{Tiles: ts, Settings: settings})
	for _, p := range []struct{ x, y int }{{0, 0}, {29, 0}, {0, 19}, {29, 19}, {7, 11}} {
		if bg.Tile(pt(p.x, p.y)) == 0 {
			t.Errorf("(%d,%d) empty", p.x, p.y)
		}
	}
	if bg.Tile(pt(30, 0)) != 0 || bg.Tile(pt(0, 20)) != 0 {
		t.Errorf("cells outside the screen filled")
	}
	if st := tl.VRAM.Stats(); st.References != 600 || st.Resident != 15 {
		t.Errorf("stats = %+v", st)
	}
}

func TestClearAndClose(t *testing.T) {
	tl, _ := newTiled(t)
	ts := tileset(4, FourBpp)
	bg := tl.NewRegularBackground(display.P0, Background64x64, FourBpp)
	if got := tl.Stats().Screenblocks.BlocksUsed; got != 4 {
		t.Fatalf("screenblocks used = %d, want 4", got)
	}
	for x := range 10 {
		bg.SetTile(pt(x, 0), ts, NewTileSetting(1, false, false, 0))
	}

	bg.Close()
	bg.Close()
	st := tl.Stats()
	if st.Screenblocks.BlocksUsed != 0 {
		t.Errorf("screenblocks not freed")
	}
	if st.VRAM.References != 0 {
		t.Errorf("tiles still referenced: %d", st.VRAM.References)
	}
	tl.VRAM.GC()
	if tl.VRAM.Stats().Resident != 0 {
		t.Errorf("tiles not collected")
	}
	mustPanic(t, func() { bg.Show(tl.Frame()) })
}

func TestScreenblockExhaustion(t *testing.T) {
	tl, _ := newTiled(t)
	// 8 screenblocks: two 64x64 maps
	a := tl.NewRegularBackground(display.P0, Background64x64, FourBpp)
	tl.NewRegularBackground(display.P0, Background64x64, FourBpp)
	mustPanic(t, func() { tl.NewRegularBackground(display.P0, Background32x32, FourBpp) })

	a.Close()
	tl.NewRegularBackground(display.P0, Background32x32, FourBpp)
}

func TestRegularCtrl(t *testing.T) {
	tl, _ := newTiled(t)
	tl.NewRegularBackground(display.P0, Background32x32, FourBpp)
	bg := tl.NewRegularBackground(display.P2, Background64x32, EightBpp)
	// second allocation lands in screenblock 17
	want := uint16(2 | 1<<7 | 17<<8 | 1<<14)
	if got := bg.ctrl(); got != want {
		t.Errorf("ctrl = %04x, want %04x", got, want)
	}
}

// Renders a background through the console and checks the picture.
func TestRegularRender(t *testing.T) {
	tl, c := newTiled(t)
	ts := tileset(8, FourBpp)
	var pal display.Palette16
	pal[5] = 0x001F
	tl.VRAM.SetBackgroundPalettes([]display.Palette16{pal})

	bg := tl.NewRegularBackground(display.P0, Background32x32, FourBpp)
	bg.SetTile(pt(1, 0), ts, NewTileSetting(5, false, false, 0))
	bg.SetScrollPos(pt(4, 0))
	bg.Commit()
	f := tl.Frame()
	bg.Show(f)
	f.Commit()
	c.RunFrame()

	red := color.RGBA{0xFF, 0, 0, 0xFF}
	black := color.RGBA{0, 0, 0, 0xFF}
	got := []color.RGBA{c.Screen.RGBAAt(3, 0), c.Screen.RGBAAt(4, 5), c.Screen.RGBAAt(11, 7), c.Screen.RGBAAt(12, 0)}
	want := []color.RGBA{black, red, red, black}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pixels (-want +got):\n%s", diff)
	}
	if c.LCD.BG0HOFS.Value != 4 {
		t.Errorf("HOFS = %d", c.LCD.BG0HOFS.Value)
	}
}
