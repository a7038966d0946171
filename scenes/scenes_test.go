package scenes

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gbahal/asset"
	"gbahal/gba"
	"gbahal/gba/display/tiled"
	"gbahal/hw"
)

func runScene(t *testing.T, name string, opts Options, frames int) (*gba.GBA, Scene) {
	t.Helper()
	g := gba.New(hw.NewConsole())
	t.Cleanup(g.Close)
	s, err := New(name, g, opts)
	if err != nil {
		t.Fatal(err)
	}
	for range frames {
		g.Frame(s.Update)
	}
	return g, s
}

func colours(img *image.RGBA) map[color.RGBA]int {
	m := make(map[color.RGBA]int)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			m[img.RGBAAt(x, y)]++
		}
	}
	return m
}

func TestNames(t *testing.T) {
	want := []string{"affine", "dynamic", "scroll", "splash", "water", "wobble"}
	if diff := cmp.Diff(want, Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if _, err := New("nope", nil, Options{}); err == nil {
		t.Errorf("New with unknown scene should fail")
	}
}

// Every scene must display something and give back all video memory when
// closed.
func TestScenesRelease(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			g, s := runScene(t, name, Options{}, 10)
			if n := len(colours(g.Console.Screenshot())); n < 2 {
				t.Errorf("screen has %d colours", n)
			}

			s.Close()
			g.Frame(func(*tiled.Frame) {})

			st := g.Tiled.Stats()
			if st.VRAM.Resident != 0 || st.VRAM.References != 0 {
				t.Errorf("tiles left after close: %+v", st.VRAM)
			}
			if st.Screenblocks.BlocksUsed != 0 {
				t.Errorf("screenblocks left after close: %+v", st.Screenblocks)
			}
		})
	}
}

func TestWater(t *testing.T) {
	g, s := runScene(t, "water", Options{}, 3)
	defer s.Close()

	// a single tile, shared by the 600 visible cells, rewritten in place
	st := g.Tiled.VRAM.Stats()
	if st.Resident != 1 || st.References != 30*20 {
		t.Errorf("stats = %+v", st)
	}

	w := s.(*water)
	idx := w.bg.Tile(image.Pt(0, 0)).Index(tiled.FourBpp)
	got := g.Console.VRAM.Data[idx.Raw()*32 : idx.Raw()*32+32]
	if diff := cmp.Diff(w.ts.Tile(3), got); diff != "" {
		t.Errorf("tile content mismatch (-want +got):\n%s", diff)
	}
	if again := g.Tiled.VRAM.AddTile(w.ts, 3); again != idx {
		t.Errorf("current water frame not found at %v, got %v", idx, again)
	} else {
		g.Tiled.VRAM.RemoveTile(again)
	}
}

func TestSplashAsset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splash.gbt")
	if err := SplashBundle().Save(path); err != nil {
		t.Fatal(err)
	}
	g1, s1 := runScene(t, "splash", Options{}, 2)
	defer s1.Close()
	g2, s2 := runScene(t, "splash", Options{Asset: path}, 2)
	defer s2.Close()

	if diff := cmp.Diff(g1.Console.Screenshot().Pix, g2.Console.Screenshot().Pix); diff != "" {
		t.Errorf("bundle file and built-in bundle render differently")
	}

	// corners are a single flipped tile
	b := SplashBundle()
	if b.Settings[0].ID() != b.Settings[29].ID() || b.Settings[0] == b.Settings[29] {
		t.Errorf("corner settings: %+v %+v", b.Settings[0], b.Settings[29])
	}

	small := asset.New(b.TileSet(), b.Settings[:10], 10, b.Palettes)
	if err := small.Save(path); err != nil {
		t.Fatal(err)
	}
	if _, err := New("splash", gba.New(hw.NewConsole()), Options{Asset: path}); err == nil {
		t.Errorf("splash accepted a partial bundle")
	}
	if _, err := New("splash", gba.New(hw.NewConsole()), Options{Asset: path + ".missing"}); err == nil {
		t.Errorf("splash accepted a missing bundle")
	}
}

func TestScroll(t *testing.T) {
	g, s := runScene(t, "scroll", Options{}, 20)
	defer s.Close()

	sc := s.(*scroll)
	pos := sc.pos(sc.frame)
	if sc.m.Pos() != pos || sc.m.Background().ScrollPos() != pos {
		t.Fatalf("pos = %v, want %v", sc.m.Pos(), pos)
	}

	// visible cells match the virtual map
	bg := sc.m.Background()
	for y := pos.Y / 8; y < (pos.Y+159)/8+1; y++ {
		for x := pos.X / 8; x < (pos.X+239)/8+1; x++ {
			ts, want := sc.resolve(image.Pt(x, y))
			idx := g.Tiled.VRAM.AddTile(ts, want.ID())
			g.Tiled.VRAM.RemoveTile(idx)
			if got := bg.Tile(image.Pt(x, y)).Index(tiled.FourBpp); got != idx {
				t.Fatalf("cell (%d,%d) = %v, want %v", x, y, got, idx)
			}
		}
	}
}

func TestWobble(t *testing.T) {
	g, s := runScene(t, "wobble", Options{}, 1)
	defer s.Close()

	before := g.Console.DMA.Transfers[0]
	g.Frame(s.Update)
	if n := g.Console.DMA.Transfers[0] - before; n != 160 {
		t.Errorf("hblank transfers in a frame = %d, want 160", n)
	}

	// lines are shifted by different amounts
	img := g.Console.Screenshot()
	row := func(y int) []uint8 { return img.Pix[img.PixOffset(0, y):img.PixOffset(0, y+1)] }
	if cmp.Equal(row(8), row(40)) && cmp.Equal(row(8), row(24)) {
		t.Errorf("lines 8, 24 and 40 are identical")
	}
}

func TestAffineTransform(t *testing.T) {
	m, x, y := transform(0, 1)
	if m != tiled.IdentityMatrix {
		t.Errorf("matrix = %+v, want identity", m)
	}
	if x != (128-120)*256 || y != (128-80)*256 {
		t.Errorf("origin = (%d,%d)", x, y)
	}
}

func TestDynamic(t *testing.T) {
	g, s := runScene(t, "dynamic", Options{}, 10)
	defer s.Close()

	st := g.Tiled.VRAM.Stats()
	if st.Dynamic != 1 || st.References != 30*20+1 {
		t.Errorf("stats = %+v", st)
	}
	d := s.(*dynamic).tile.Data()
	// pixels 0 to 9 painted with colour 1, then 2 from the second row
	if d[0] != 0x11 || d[4] != 0x22 || d[5] != 0 {
		t.Errorf("tile data = % x", d[:8])
	}
}
