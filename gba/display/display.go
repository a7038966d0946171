// Package display holds the types shared by the display backends.
package display

import (
	"fmt"

	"gbahal/hw/hwdefs"
	"gbahal/hw/hwio"
)

const (
	ScreenWidth  = hwdefs.ScreenWidth
	ScreenHeight = hwdefs.ScreenHeight
)

// Priority of a background layer. Layers with a lower value are drawn on
// top; among equal priorities, the lower layer number wins.
type Priority uint8

const (
	P0 Priority = iota
	P1
	P2
	P3
)

func (p Priority) String() string { return fmt.Sprintf("P%d", uint8(p)) }

// Palette16 is a bank of 16 colours in the console's 15-bit BGR format.
// Colour 0 is transparent in every bank but the first, where it's the
// backdrop.
type Palette16 [16]uint16

// RGB15 builds a colour from 5-bit components.
func RGB15(r, g, b uint8) uint16 {
	return uint16(r&0x1F) | uint16(g&0x1F)<<5 | uint16(b&0x1F)<<10
}

// Control is the display control register.
type Control struct {
	hwio.MMIO16
}

func NewControl(bus hwio.BankIO) Control {
	return Control{hwio.NewMMIO16(bus, hwdefs.DISPCNT)}
}

// Mode returns the current video mode.
func (c Control) Mode() uint16 { return c.Get() & hwdefs.DispModeMask }

// Enabled returns the mask of enabled background layers.
func (c Control) Enabled() uint16 { return c.Get() >> hwdefs.DispEnableShift & 0xF }

// SetForcedBlank blanks the screen, giving free access to video memory.
func (c Control) SetForcedBlank(on bool) {
	v := c.Get()
	if on {
		v |= hwdefs.DispForcedBlank
	} else {
		v &^= hwdefs.DispForcedBlank
	}
	c.Set(v)
}
