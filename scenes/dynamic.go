package scenes

import (
	"image"

	"gbahal/gba"
	"gbahal/gba/display"
	"gbahal/gba/display/tiled"
)

// dynamic paints a tile at runtime, one pixel per frame, and displays it
// all over the screen.
type dynamic struct {
	g     *gba.GBA
	tile  *tiled.DynamicTile
	bg    *tiled.RegularBackground
	frame int
}

func newDynamic(g *gba.GBA, _ Options) (Scene, error) {
	g.Tiled.VRAM.SetBackgroundPalettes([]display.Palette16{
		gradient([3]uint8{31, 31, 0}, [3]uint8{0, 12, 31}),
	})

	s := &dynamic{g: g, tile: g.Tiled.VRAM.NewDynamicTile()}
	s.bg = g.Tiled.NewRegularBackground(display.P0, tiled.Background32x32, tiled.FourBpp)
	ts, setting := s.tile.TileSet(), s.tile.TileSetting()
	for y := range 20 {
		for x := range 30 {
			s.bg.SetTile(image.Pt(x, y), ts, setting.HFlip(x%2 == 1).VFlip(y%2 == 1))
		}
	}
	s.bg.Commit()
	return s, nil
}

func (s *dynamic) Update(f *tiled.Frame) {
	// pixels are painted in raster order, in a new colour on each pass
	n := s.frame % 64
	pass := s.frame / 64
	s.tile.SetPixel(n%8, n/8, uint8(1+mod(pass+n/8, 15)))
	s.frame++
	s.bg.Show(f)
}

func (s *dynamic) Close() {
	s.bg.Close()
	s.g.Tiled.VRAM.RemoveDynamicTile(s.tile)
}
