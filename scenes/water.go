package scenes

import (
	"image"

	"gbahal/gba"
	"gbahal/gba/display"
	"gbahal/gba/display/tiled"
)

const waterFrames = 8

// water fills the screen with a single tile, animated by rewriting its
// content in place every frame.
type water struct {
	g     *gba.GBA
	ts    tiled.TileSet
	bg    *tiled.RegularBackground
	frame int
}

func waterTiles() tiled.TileSet {
	b := newTileBuilder(tiled.FourBpp)
	for i := range waterFrames {
		b.add(func(x, y int) uint8 {
			return uint8(1 + mod(x+y+i, 8)*2)
		})
	}
	return b.tileSet()
}

func newWater(g *gba.GBA, _ Options) (Scene, error) {
	s := &water{g: g, ts: waterTiles()}
	g.Tiled.VRAM.SetBackgroundPalettes([]display.Palette16{
		gradient([3]uint8{2, 6, 20}, [3]uint8{12, 24, 31}),
	})

	s.bg = g.Tiled.NewRegularBackground(display.P0, tiled.Background32x32, tiled.FourBpp)
	first := tiled.NewTileSetting(0, false, false, 0)
	for y := range 20 {
		for x := range 30 {
			s.bg.SetTile(image.Pt(x, y), s.ts, first)
		}
	}
	s.bg.Commit()
	return s, nil
}

func (s *water) Update(f *tiled.Frame) {
	prev := s.frame
	s.frame = (s.frame + 1) % waterFrames
	s.g.Tiled.VRAM.ReplaceTile(s.ts, uint16(prev), s.ts, uint16(s.frame))
	s.bg.Show(f)
}

func (s *water) Close() { s.bg.Close() }
