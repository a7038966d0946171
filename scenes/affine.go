package scenes

import (
	"image"
	"math"

	"gbahal/gba"
	"gbahal/gba/display"
	"gbahal/gba/display/tiled"
)

// affine rotates and zooms a checkerboard under a fixed regular layer.
type affine struct {
	fg    *tiled.RegularBackground
	rot   *tiled.AffineBackground
	frame int
}

func newAffine(g *gba.GBA, _ Options) (Scene, error) {
	// 8bpp: the first 16 colours are the regular layer's bank 0
	colours := make([]uint16, 256)
	fg := gradient([3]uint8{31, 31, 31}, [3]uint8{31, 31, 31})
	copy(colours, fg[:])
	for i := 16; i < 256; i++ {
		v := uint8(i / 8)
		colours[i] = display.RGB15(v, 31-v, 16)
	}
	g.Tiled.VRAM.SetBackgroundPaletteRaw(0, colours)

	b8 := newTileBuilder(tiled.EightBpp)
	light := b8.add(func(x, y int) uint8 { return uint8(16 + 8*x + y) })
	dark := b8.add(func(x, y int) uint8 { return uint8(200 + x + y) })
	checker := b8.tileSet()

	s := &affine{}
	s.rot = g.Tiled.NewAffineBackground(display.P1, tiled.Affine32x32, tiled.Wrap)
	for y := range 32 {
		for x := range 32 {
			id := light
			if (x/2+y/2)%2 == 1 {
				id = dark
			}
			s.rot.SetTile(image.Pt(x, y), checker, id)
		}
	}
	s.rot.Commit()

	b4 := newTileBuilder(tiled.FourBpp)
	frame := b4.add(func(x, y int) uint8 {
		if y < 2 {
			return 1
		}
		return 0
	})
	text := b4.tileSet()
	s.fg = g.Tiled.NewRegularBackground(display.P0, tiled.Background32x32, tiled.FourBpp)
	for x := range 30 {
		s.fg.SetTile(image.Pt(x, 0), text, tiled.NewTileSetting(frame, false, false, 0))
		s.fg.SetTile(image.Pt(x, 19), text, tiled.NewTileSetting(frame, false, true, 0))
	}
	s.fg.Commit()
	return s, nil
}

// transform returns the matrix rotating by angle a and scaling by zoom,
// and the map position of the screen's top-left corner keeping the map
// centre at the screen centre.
func transform(a, zoom float64) (tiled.AffineMatrix, int32, int32) {
	sin, cos := math.Sincos(a)
	m := tiled.AffineMatrix{
		A: int16(cos / zoom * 256),
		B: int16(-sin / zoom * 256),
		C: int16(sin / zoom * 256),
		D: int16(cos / zoom * 256),
	}
	// map = centre + M * (screen - screen centre)
	cx, cy := float64(display.ScreenWidth/2), float64(display.ScreenHeight/2)
	const mc = 128.0
	x := mc - (float64(m.A)*cx+float64(m.B)*cy)/256
	y := mc - (float64(m.C)*cx+float64(m.D)*cy)/256
	return m, int32(x * 256), int32(y * 256)
}

func (s *affine) Update(f *tiled.Frame) {
	s.frame++
	a := float64(s.frame) * math.Pi / 180
	zoom := 1 + 0.5*math.Sin(float64(s.frame)/50)
	m, x, y := transform(a, zoom)
	s.rot.SetTransform(m)
	s.rot.SetScrollPos(x, y)

	s.fg.Show(f)
	s.rot.Show(f)
}

func (s *affine) Close() {
	s.fg.Close()
	s.rot.Close()
}
