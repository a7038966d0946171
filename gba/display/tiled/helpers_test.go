package tiled

import (
	"image"
	"testing"

	"gbahal/gba/alloc"
	"gbahal/gba/dma"
	"gbahal/gba/interrupt"
	"gbahal/hw"
	"gbahal/hw/hwdefs"
)

func newTiled(t *testing.T) (*Tiled, *hw.Console) {
	t.Helper()
	c := hw.NewConsole()
	irq := interrupt.NewController(c.Bus, &c.IRQ)
	mem := alloc.NewBumpAllocator(alloc.Fixed(hwdefs.EWRAMStart, hwdefs.EWRAMStart+hwdefs.EWRAMSize), irq)
	return New(c.Bus, irq, dma.NewController(c.Bus, irq, mem)), c
}

// tileset returns a tileset of n tiles, tile i being filled with colour
// i%16. Tiles 0 and 16 thus have the same content.
func tileset(n int, f TileFormat) TileSet {
	sz := f.TileSize()
	data := make([]byte, n*sz)
	for i := range n {
		c := byte(i % 16)
		b := c
		if f == FourBpp {
			b = c | c<<4
		}
		for j := range sz {
			data[i*sz+j] = b
		}
	}
	return NewTileSet(data, f)
}

func mustPanic(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic")
		}
	}()
	f()
}

func pt(x, y int) image.Point { return image.Pt(x, y) }
