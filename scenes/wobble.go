package scenes

import (
	"image"
	"math"

	"gbahal/gba"
	"gbahal/gba/display"
	"gbahal/gba/display/tiled"
	"gbahal/gba/dma"
)

// wobble waves a background by changing its horizontal scroll on every
// scanline, with an hblank DMA transfer.
type wobble struct {
	g       *gba.GBA
	bg      *tiled.RegularBackground
	offsets []uint16
	xfer    *dma.TransferHandle
	frame   int
}

func newWobble(g *gba.GBA, _ Options) (Scene, error) {
	b := newTileBuilder(tiled.FourBpp)
	bar := b.add(func(x, y int) uint8 { return uint8(1 + x) })
	dot := b.add(func(x, y int) uint8 {
		if (x-3)*(x-4)+(y-3)*(y-4) < 6 {
			return 15
		}
		return 0
	})
	ts := b.tileSet()

	g.Tiled.VRAM.SetBackgroundPalettes([]display.Palette16{
		gradient([3]uint8{31, 0, 12}, [3]uint8{4, 0, 31}),
	})

	s := &wobble{g: g, offsets: make([]uint16, dma.MinHBlankValues)}
	s.bg = g.Tiled.NewRegularBackground(display.P1, tiled.Background32x32, tiled.FourBpp)
	for y := range 32 {
		for x := range 32 {
			id := dot
			if x%4 == 0 {
				id = bar
			}
			s.bg.SetTile(image.Pt(x, y), ts, tiled.NewTileSetting(id, false, y%2 == 1, 0))
		}
	}
	s.bg.Commit()
	return s, nil
}

func (s *wobble) Update(f *tiled.Frame) {
	s.frame++
	id := s.bg.Show(f)

	// line n shows the offset written at the end of line n-1
	for i := range s.offsets {
		phase := float64(i+1+s.frame*2) / 12
		s.offsets[i] = uint16(int16(12 * math.Sin(phase)))
	}
	if s.xfer != nil {
		s.xfer.Close()
	}
	s.xfer = dma.HBlankTransfer(s.g.DMA.Channel(0), id.XScrollDMA(), s.offsets)
}

func (s *wobble) Close() {
	if s.xfer != nil {
		s.xfer.Close()
	}
	s.bg.Close()
}
