package tiled

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gbahal/gba/display"
	"gbahal/hw/hwdefs"
)

func TestAddTileDedup(t *testing.T) {
	tl, _ := newTiled(t)
	ts := tileset(20, FourBpp)
	vram := tl.VRAM

	a := vram.AddTile(ts, 1)
	b := vram.AddTile(ts, 1)
	if a != b {
		t.Fatalf("same tile stored twice: %v %v", a, b)
	}
	// identical content, different id
	if c := vram.AddTile(ts, 17); c != a {
		t.Errorf("identical content at %v and %v", a, c)
	}
	if d := vram.AddTile(ts, 2); d == a {
		t.Errorf("different content shares %v", d)
	}
	if vram.refs(a) != 3 {
		t.Errorf("refs = %d, want 3", vram.refs(a))
	}

	for range 3 {
		vram.RemoveTile(a)
	}
	before := vram.Stats().Tiles.Frees
	vram.GC()
	st := vram.Stats()
	if st.Tiles.Frees-before != 1 {
		t.Errorf("GC freed %d entries, want 1", st.Tiles.Frees-before)
	}
	if st.Resident != 1 || st.References != 1 {
		t.Errorf("stats after GC: %+v", st)
	}
}

func TestIndexZeroReserved(t *testing.T) {
	tl, _ := newTiled(t)
	// tile 0 is all zeros, same content as the reserved empty tile
	for _, f := range []TileFormat{FourBpp, EightBpp} {
		idx := tl.VRAM.AddTile(tileset(1, f), 0)
		if idx.Raw() == 0 {
			t.Errorf("%v: content stored at reserved index 0", f)
		}
	}
	if got := tl.VRAM.AddTile(tileset(2, FourBpp), 1); got.Raw() != 3 {
		t.Errorf("got %v", got)
	}
}

func TestTileStoreFormats(t *testing.T) {
	tl, c := newTiled(t)
	ts8 := tileset(4, EightBpp)
	idx := tl.VRAM.AddTile(ts8, 3)
	if idx.Format() != EightBpp {
		t.Fatalf("format = %v", idx.Format())
	}
	off := int(idx.Raw()) * 64
	if !bytes.Equal(c.VRAM.Data[off:off+64], ts8.Tile(3)) {
		t.Errorf("8bpp tile not at index*64")
	}

	ts4 := tileset(4, FourBpp)
	idx = tl.VRAM.AddTile(ts4, 3)
	off = int(idx.Raw()) * 32
	if !bytes.Equal(c.VRAM.Data[off:off+32], ts4.Tile(3)) {
		t.Errorf("4bpp tile not at index*32")
	}
}

func TestRemoveTileFloor(t *testing.T) {
	tl, _ := newTiled(t)
	ts := tileset(4, FourBpp)
	idx := tl.VRAM.AddTile(ts, 1)
	tl.VRAM.RemoveTile(idx)

	t.Run("zero refs", func(t *testing.T) { mustPanic(t, func() { tl.VRAM.RemoveTile(idx) }) })
	t.Run("after gc", func(t *testing.T) {
		tl.VRAM.GC()
		mustPanic(t, func() { tl.VRAM.RemoveTile(idx) })
	})
	t.Run("reserved", func(t *testing.T) {
		mustPanic(t, func() { tl.VRAM.RemoveTile(NewTileIndex(0, FourBpp)) })
	})
	t.Run("wrong format", func(t *testing.T) {
		idx := tl.VRAM.AddTile(ts, 2)
		mustPanic(t, func() { tl.VRAM.RemoveTile(NewTileIndex(idx.Raw()/2, EightBpp)) })
	})
}

func TestDeferredReclamation(t *testing.T) {
	tl, _ := newTiled(t)
	ts := tileset(4, FourBpp)
	idx := tl.VRAM.AddTile(ts, 1)
	before := tl.VRAM.Stats().Tiles

	tl.VRAM.RemoveTile(idx)
	if again := tl.VRAM.AddTile(ts, 1); again != idx {
		t.Errorf("re-added tile moved from %v to %v", idx, again)
	}
	if diff := cmp.Diff(before, tl.VRAM.Stats().Tiles); diff != "" {
		t.Errorf("allocator churn (-before +after):\n%s", diff)
	}

	tl.VRAM.GC()
	if tl.VRAM.refs(idx) != 1 {
		t.Errorf("referenced tile collected")
	}
}

func TestReplaceTile(t *testing.T) {
	tl, c := newTiled(t)
	ts := tileset(8, FourBpp)
	idx := tl.VRAM.AddTile(ts, 0)

	tl.VRAM.ReplaceTile(ts, 0, ts, 5)
	off := int(idx.Raw()) * 32
	if !bytes.Equal(c.VRAM.Data[off:off+32], ts.Tile(5)) {
		t.Errorf("tile content not replaced")
	}
	if tl.VRAM.refs(idx) != 1 {
		t.Errorf("refs = %d, want 1", tl.VRAM.refs(idx))
	}

	// the location now stands for the new content only
	if got := tl.VRAM.AddTile(ts, 5); got != idx {
		t.Errorf("AddTile(5) after replace = %v, want %v", got, idx)
	}
	if tl.VRAM.refs(idx) != 2 {
		t.Errorf("refs = %d, want 2", tl.VRAM.refs(idx))
	}
	idx0 := tl.VRAM.AddTile(ts, 0)
	if idx0 == idx {
		t.Fatalf("AddTile(0) after replace returned the replaced location")
	}
	off0 := int(idx0.Raw()) * 32
	if !bytes.Equal(c.VRAM.Data[off0:off0+32], ts.Tile(0)) {
		t.Errorf("AddTile(0) location doesn't hold tile 0")
	}

	// chained replacements follow the content
	tl.VRAM.ReplaceTile(ts, 5, ts, 6)
	if got := tl.VRAM.AddTile(ts, 6); got != idx {
		t.Errorf("AddTile(6) after replace = %v, want %v", got, idx)
	}

	// not resident: no-op
	before := bytes.Clone(c.VRAM.Data)
	tl.VRAM.ReplaceTile(ts, 7, ts, 5)
	if !bytes.Equal(before, c.VRAM.Data) {
		t.Errorf("replace of non-resident tile wrote VRAM")
	}

	mustPanic(t, func() { tl.VRAM.ReplaceTile(ts, 0, tileset(1, EightBpp), 0) })
}

func TestReplaceTileOntoResident(t *testing.T) {
	tl, _ := newTiled(t)
	ts := tileset(8, FourBpp)
	a := tl.VRAM.AddTile(ts, 1)
	b := tl.VRAM.AddTile(ts, 2)

	// a now duplicates b's content: b keeps answering for it
	tl.VRAM.ReplaceTile(ts, 1, ts, 2)
	if got := tl.VRAM.AddTile(ts, 2); got != b {
		t.Errorf("AddTile(2) = %v, want %v", got, b)
	}

	// collecting a must not forget b
	tl.VRAM.RemoveTile(a)
	tl.VRAM.GC()
	if got := tl.VRAM.AddTile(ts, 2); got != b {
		t.Errorf("AddTile(2) after gc = %v, want %v", got, b)
	}
	if tl.VRAM.refs(b) != 3 {
		t.Errorf("refs = %d, want 3", tl.VRAM.refs(b))
	}
}

func TestOutOfTileMemory(t *testing.T) {
	tl, _ := newTiled(t)
	// 0x8000 bytes, 64 of them reserved: 511 8bpp tiles
	data := make([]byte, 512*64)
	for i := range 512 {
		data[i*64] = byte(i)
		data[i*64+1] = byte(i >> 8)
	}
	ts := NewTileSet(data, EightBpp)
	for i := range 511 {
		tl.VRAM.AddTile(ts, uint16(i))
	}
	mustPanic(t, func() { tl.VRAM.AddTile(ts, 511) })
}

func TestBackgroundPalettes(t *testing.T) {
	tl, c := newTiled(t)
	var p0, p1 display.Palette16
	p0[1] = 0x001F
	p1[15] = 0x7C00
	tl.VRAM.SetBackgroundPalettes([]display.Palette16{p0, p1})

	if got := c.Bus.Read16(hwdefs.PaletteStart+2, false); got != 0x001F {
		t.Errorf("palette 0 colour 1 = %04x", got)
	}
	if got := c.Bus.Read16(hwdefs.PaletteStart+(16+15)*2, false); got != 0x7C00 {
		t.Errorf("palette 1 colour 15 = %04x", got)
	}

	tl.VRAM.SetBackgroundPaletteRaw(255, []uint16{0x1234})
	if got := c.Bus.Read16(hwdefs.PaletteStart+255*2, false); got != 0x1234 {
		t.Errorf("colour 255 = %04x", got)
	}
	mustPanic(t, func() { tl.VRAM.SetBackgroundPaletteRaw(255, []uint16{1, 2}) })
	mustPanic(t, func() { tl.VRAM.SetBackgroundPalettes(make([]display.Palette16, 17)) })
}

func TestDynamicTile(t *testing.T) {
	tl, _ := newTiled(t)
	dt := tl.VRAM.NewDynamicTile()
	dt.SetPixel(1, 0, 0xA)
	dt.SetPixel(2, 1, 0x3)

	data := dt.Data()
	if data[0] != 0xA0 || data[5] != 0x03 {
		t.Errorf("data = % x", data[:8])
	}

	bg := tl.NewRegularBackground(display.P0, Background32x32, FourBpp)
	bg.SetTile(pt(0, 0), dt.TileSet(), dt.TileSetting())
	bg.SetTile(pt(1, 0), dt.TileSet(), dt.TileSetting().HFlip(true))
	if got := bg.Tile(pt(0, 0)).Index(FourBpp); got != dt.Index() {
		t.Errorf("cell index = %v, want %v", got, dt.Index())
	}
	if tl.VRAM.refs(dt.Index()) != 3 {
		t.Errorf("refs = %d, want 3", tl.VRAM.refs(dt.Index()))
	}
	if st := tl.VRAM.Stats(); st.Dynamic != 1 {
		t.Errorf("dynamic = %d", st.Dynamic)
	}

	tl.VRAM.RemoveDynamicTile(dt)
	tl.VRAM.GC()
	if tl.VRAM.refs(dt.Index()) != 2 {
		t.Fatalf("dynamic tile collected while in use")
	}
	bg.Clear()
	tl.VRAM.GC()
	if tl.VRAM.refs(dt.Index()) != -1 {
		t.Errorf("dynamic tile not collected")
	}
	mustPanic(t, func() { dt.SetPixel(8, 0, 1) })
}

func TestRewriteReleasedDynamicTile(t *testing.T) {
	tl, _ := newTiled(t)
	dt := tl.VRAM.NewDynamicTile()
	bg := tl.NewRegularBackground(display.P0, Background32x32, FourBpp)
	bg.SetTile(pt(3, 2), dt.TileSet(), dt.TileSetting())
	bg.Commit()
	tl.VRAM.RemoveDynamicTile(dt)

	// the cell holds the last reference: writing the same value keeps it
	bg.SetTile(pt(3, 2), dt.TileSet(), dt.TileSetting())
	if tl.VRAM.refs(dt.Index()) != 1 {
		t.Errorf("refs = %d, want 1", tl.VRAM.refs(dt.Index()))
	}
	if bg.IsDirty() {
		t.Errorf("unchanged cell marked the map dirty")
	}
	bg.Close()
}
