package scenes

import (
	"image"
	"math"

	"gbahal/gba"
	"gbahal/gba/display"
	"gbahal/gba/display/tiled"
)

const (
	scrollMapWidth  = 60
	scrollMapHeight = 40
)

// scroll moves the screen over a map larger than any hardware background,
// repeating every 60x40 tiles.
type scroll struct {
	m     *tiled.InfiniteScrolledMap
	ts    tiled.TileSet
	cells []tiled.TileSetting
	frame int
}

func scrollMap() (tiled.TileSet, []tiled.TileSetting) {
	b := newTileBuilder(tiled.FourBpp)
	sky := b.add(func(x, y int) uint8 { return 1 })
	ground := b.add(func(x, y int) uint8 { return uint8(8 + mod(x*y, 3)) })
	grass := b.add(func(x, y int) uint8 {
		if y < 3+mod(x, 2) {
			return 5
		}
		return 9
	})
	brick := b.add(func(x, y int) uint8 {
		if y == 0 || (x == 0 && y < 4) || (x == 4 && y >= 4) {
			return 14
		}
		return 12
	})

	cells := make([]tiled.TileSetting, scrollMapWidth*scrollMapHeight)
	for x := range scrollMapWidth {
		top := 24 + int(6*math.Sin(float64(x)*2*math.Pi/scrollMapWidth))
		for y := range scrollMapHeight {
			id := sky
			switch {
			case y == top:
				id = grass
			case y > top:
				id = ground
			case x%12 == 3 && y == top-5:
				id = brick
			}
			cells[y*scrollMapWidth+x] = tiled.NewTileSetting(id, false, false, 0)
		}
	}
	return b.tileSet(), cells
}

func newScroll(g *gba.GBA, _ Options) (Scene, error) {
	s := &scroll{}
	s.ts, s.cells = scrollMap()
	g.Tiled.VRAM.SetBackgroundPalettes([]display.Palette16{
		gradient([3]uint8{12, 20, 31}, [3]uint8{30, 18, 6}),
	})
	bg := g.Tiled.NewRegularBackground(display.P0, tiled.Background32x32, tiled.FourBpp)
	s.m = tiled.NewInfiniteScrolledMap(bg)
	return s, nil
}

func (s *scroll) resolve(p image.Point) (tiled.TileSet, tiled.TileSetting) {
	return s.ts, s.cells[mod(p.Y, scrollMapHeight)*scrollMapWidth+mod(p.X, scrollMapWidth)]
}

// pos returns the screen position at frame n: moving right, bobbing up and
// down.
func (s *scroll) pos(n int) image.Point {
	return image.Pt(2*n, 64+int(24*math.Sin(float64(n)/40)))
}

func (s *scroll) Update(f *tiled.Frame) {
	s.frame++
	s.m.SetPos(s.pos(s.frame), s.resolve)
	s.m.Commit()
	s.m.Show(f)
}

func (s *scroll) Close() { s.m.Close() }
