// Package hw simulates the fixed-function side of the console: memories, the
// LCD controller with its background registers, the DMA unit and the
// interrupt registers. The HAL drives it exclusively through its bus.
package hw

import (
	"image"

	"gbahal/emu/log"
	"gbahal/hw/hwdefs"
	"gbahal/hw/hwio"
)

type Console struct {
	Bus *hwio.Table

	EWRAM   hwio.Mem `hwio:"bank=0,offset=0x0,size=0x40000"`
	IWRAM   hwio.Mem `hwio:"bank=1,offset=0x0,size=0x8000"`
	Palette hwio.Mem `hwio:"bank=2,offset=0x0,size=0x400"`
	VRAM    hwio.Mem `hwio:"bank=3,offset=0x0,size=0x18000"`

	LCD LCD
	DMA DMA
	IRQ IRQ

	// Screen holds the last rendered picture, updated one scanline at a time.
	Screen *image.RGBA

	Frame    uint64 // number of completed frames
	Scanline int    // scanline about to be drawn
}

// NewConsole powers up a console, all memories cleared.
func NewConsole() *Console {
	c := &Console{Bus: hwio.NewTable("sys")}
	hwio.MustInitRegs(c)

	c.Bus.MapBank(hwdefs.EWRAMStart, c, 0)
	c.Bus.MapBank(hwdefs.IWRAMStart, c, 1)
	c.Bus.MapBank(hwdefs.PaletteStart, c, 2)
	c.Bus.MapBank(hwdefs.VRAMStart, c, 3)

	c.LCD.init()
	c.Bus.MapBank(hwdefs.IOStart, &c.LCD, 0)
	c.DMA.init(c)
	c.Bus.MapBank(hwdefs.DMA0SAD, &c.DMA, 0)
	c.IRQ.init()
	c.Bus.MapBank(hwdefs.IE, &c.IRQ, 0)

	c.Screen = image.NewRGBA(image.Rect(0, 0, hwdefs.ScreenWidth, hwdefs.ScreenHeight))
	return c
}

// StepLine draws the current scanline (if visible) and moves to the next one,
// raising hblank, vblank and their DMA triggers on the way.
func (c *Console) StepLine() {
	if c.Scanline < hwdefs.ScreenHeight {
		c.renderLine(c.Scanline)
		c.LCD.advanceAffine()

		c.LCD.setStatus(statHBlank, true)
		c.DMA.trigger(hwdefs.DMAHBlank)
		if c.LCD.DISPSTAT.Value&statHBlankIRQ != 0 {
			c.IRQ.Raise(hwdefs.HBlank)
		}
		c.LCD.setStatus(statHBlank, false)
	}

	c.Scanline++
	if c.Scanline == hwdefs.NumScanlines {
		c.Scanline = 0
		c.Frame++
		c.LCD.setStatus(statVBlank, false)
	}
	c.LCD.VCOUNT.Value = uint16(c.Scanline)

	if c.Scanline == hwdefs.ScreenHeight {
		log.ModLCD.DebugZ("vblank").Uint64("frame", c.Frame).End()
		c.LCD.setStatus(statVBlank, true)
		c.LCD.latchAffine()
		c.DMA.trigger(hwdefs.DMAVBlank)
		if c.LCD.DISPSTAT.Value&statVBlankIRQ != 0 {
			c.IRQ.Raise(hwdefs.VBlank)
		}
	}
}

// WaitForVBlank runs the console until the beginning of the next vertical
// blank. If called during vblank, that's the one of the following frame.
func (c *Console) WaitForVBlank() {
	for {
		c.StepLine()
		if c.Scanline == hwdefs.ScreenHeight {
			return
		}
	}
}

// RunFrame runs a whole frame, from the current scanline back to this same
// scanline.
func (c *Console) RunFrame() {
	for range hwdefs.NumScanlines {
		c.StepLine()
	}
}

// Screenshot returns a copy of the current screen.
func (c *Console) Screenshot() *image.RGBA {
	img := image.NewRGBA(c.Screen.Rect)
	copy(img.Pix, c.Screen.Pix)
	return img
}

func (c *Console) AddLogContext(z *log.EntryZ) {
	z.Uint64("frame", c.Frame).Int("line", c.Scanline)
}

