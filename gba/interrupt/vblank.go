package interrupt

import (
	"gbahal/hw/hwdefs"
)

// Waiter blocks until the hardware reaches the next vertical blank.
type Waiter interface {
	WaitForVBlank()
}

// VBlank counts vertical blank interrupts and lets the caller wait for the
// next one.
type VBlank struct {
	w     Waiter
	h     *Handle
	count uint64
}

// VBlank enables the vertical blank interrupt. w is the hardware wait
// primitive.
func (c *Controller) VBlank(w Waiter) *VBlank {
	v := &VBlank{w: w}
	v.h = c.Add(hwdefs.VBlank, func(CriticalSection) { v.count++ })
	return v
}

// WaitForVBlank returns once the next vertical blank interrupt has been
// serviced. It must not be called with interrupts disabled.
func (v *VBlank) WaitForVBlank() {
	if v.h.c == nil {
		panic("interrupt: WaitForVBlank on closed VBlank")
	}
	if v.h.c.InCritical() {
		panic("interrupt: WaitForVBlank with interrupts disabled")
	}
	start := v.count
	for v.count == start {
		v.w.WaitForVBlank()
	}
}

// Count returns the number of vertical blanks serviced so far.
func (v *VBlank) Count() uint64 { return v.count }

func (v *VBlank) Close() { v.h.Close() }
