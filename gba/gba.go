// Package gba is the entry point of the HAL. A GBA owns every service
// driving one console and builds them in dependency order.
package gba

import (
	"gbahal/emu/log"
	"gbahal/gba/alloc"
	"gbahal/gba/display"
	"gbahal/gba/display/tiled"
	"gbahal/gba/dma"
	"gbahal/gba/interrupt"
	"gbahal/hw"
	"gbahal/hw/hwdefs"
)

type GBA struct {
	Console *hw.Console

	IRQ    *interrupt.Controller
	VBlank *interrupt.VBlank
	EWRAM  *alloc.BumpAllocator // buffers living as long as the console
	DMA    *dma.Controller

	Display display.Control
	Tiled   *tiled.Tiled
}

// New takes control of c. There must be at most one GBA per console.
func New(c *hw.Console) *GBA {
	g := &GBA{Console: c}

	g.IRQ = interrupt.NewController(c.Bus, &c.IRQ)
	g.VBlank = g.IRQ.VBlank(c)

	// The EWRAM region is computed at first allocation, after any space
	// reserved at creation time.
	ewram := alloc.StartEnd{
		Start: func() uint32 { return hwdefs.EWRAMStart },
		End:   func() uint32 { return hwdefs.EWRAMStart + hwdefs.EWRAMSize },
	}
	g.EWRAM = alloc.NewBumpAllocator(ewram, g.IRQ)
	g.DMA = dma.NewController(c.Bus, g.IRQ, g.EWRAM)

	g.Display = display.NewControl(c.Bus)
	g.Tiled = tiled.New(c.Bus, g.IRQ, g.DMA)

	log.ModEmu.DebugZ("hal ready").End()
	return g
}

// Frame waits for the next vblank, then runs f, which usually commits the
// backgrounds for the frame about to be drawn.
func (g *GBA) Frame(f func(*tiled.Frame)) {
	g.VBlank.WaitForVBlank()
	fr := g.Tiled.Frame()
	f(fr)
	fr.Commit()
}

// Close releases the vblank interrupt.
func (g *GBA) Close() {
	g.VBlank.Close()
}
