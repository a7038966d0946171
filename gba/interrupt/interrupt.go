// Package interrupt provides the two interrupt primitives the rest of the
// HAL builds on: running code with interrupts disabled, and waiting for the
// vertical blank.
package interrupt

import (
	"fmt"

	"gbahal/emu/log"
	"gbahal/hw/hwdefs"
	"gbahal/hw/hwio"
)

// CriticalSection is handed to functions running with interrupts disabled.
// Functions taking one can only be called from such a context.
type CriticalSection struct{ _ struct{} }

// Vector is where the controller installs its dispatcher.
type Vector interface {
	SetHandler(func(hwdefs.IRQSource))
}

type Controller struct {
	ime      hwio.MMIO16
	ie       hwio.MMIO16
	dispstat hwio.MMIO16

	depth    int
	handlers []*Handle
}

// NewController takes over the interrupt vector and enables the interrupt
// master switch.
func NewController(bus hwio.BankIO, vec Vector) *Controller {
	c := &Controller{
		ime:      hwio.NewMMIO16(bus, hwdefs.IME),
		ie:       hwio.NewMMIO16(bus, hwdefs.IE),
		dispstat: hwio.NewMMIO16(bus, hwdefs.DISPSTAT),
	}
	vec.SetHandler(c.dispatch)
	c.ime.Set(1)
	return c
}

// Free runs f with interrupts disabled. The previous master enable state is
// restored when f returns, or panics. Calls can be nested.
func (c *Controller) Free(f func(CriticalSection)) {
	prev := c.ime.Get()
	c.ime.Set(0)
	c.depth++
	defer func() {
		c.depth--
		c.ime.Set(prev)
	}()
	f(CriticalSection{})
}

// InCritical reports whether the caller runs with interrupts disabled, either
// inside Free or inside an interrupt handler.
func (c *Controller) InCritical() bool { return c.depth > 0 || c.ime.Get()&1 == 0 }

// Handle is an installed interrupt handler.
type Handle struct {
	c   *Controller
	src hwdefs.IRQSource
	fn  func(CriticalSection)
}

// dispstat enable bit for the sources raised by the LCD
func statBit(src hwdefs.IRQSource) uint16 {
	switch src {
	case hwdefs.VBlank:
		return 1 << 3
	case hwdefs.HBlank:
		return 1 << 4
	case hwdefs.VCounter:
		return 1 << 5
	}
	return 0
}

// Add installs fn to be called on every interrupt from src, which must be a
// single source. The source is enabled until the last handler for it is
// closed.
func (c *Controller) Add(src hwdefs.IRQSource, fn func(CriticalSection)) *Handle {
	if src == 0 || src&(src-1) != 0 {
		panic(fmt.Sprintf("interrupt: Add wants a single source, got %v", src))
	}
	h := &Handle{c: c, src: src, fn: fn}
	c.Free(func(CriticalSection) {
		c.handlers = append(c.handlers, h)
		c.ie.Set(c.ie.Get() | uint16(src))
		if bit := statBit(src); bit != 0 {
			c.dispstat.Set(c.dispstat.Get() | bit)
		}
	})
	log.ModIRQ.DebugZ("handler added").Stringer("src", src).End()
	return h
}

// Close uninstalls the handler. Closing twice is a no-op.
func (h *Handle) Close() {
	c := h.c
	if c == nil {
		return
	}
	h.c = nil
	c.Free(func(CriticalSection) {
		used := false
		for i := 0; i < len(c.handlers); i++ {
			if c.handlers[i] == h {
				c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
				i--
				continue
			}
			used = used || c.handlers[i].src == h.src
		}
		if !used {
			c.ie.Set(c.ie.Get() &^ uint16(h.src))
			if bit := statBit(h.src); bit != 0 {
				c.dispstat.Set(c.dispstat.Get() &^ bit)
			}
		}
	})
}

func (c *Controller) dispatch(src hwdefs.IRQSource) {
	c.depth++
	defer func() { c.depth-- }()
	for _, h := range c.handlers {
		if h.src&src != 0 {
			h.fn(CriticalSection{})
		}
	}
}
