package alloc

import (
	"fmt"

	"gbahal/emu/log"
	"gbahal/gba/interrupt"
)

// BumpAllocator hands out consecutive chunks of its region and never
// reclaims them.
type BumpAllocator struct {
	region StartEnd
	crit   Critical

	cursor uint32
	inited bool
}

func NewBumpAllocator(region StartEnd, crit Critical) *BumpAllocator {
	return &BumpAllocator{region: region, crit: crit}
}

// AllocCritical allocates from within a critical section.
func (b *BumpAllocator) AllocCritical(l Layout, _ interrupt.CriticalSection) (uint32, error) {
	l.check()
	if !b.inited {
		b.cursor = b.region.Start()
		b.inited = true
	}

	addr := alignUp(b.cursor, l.Align)
	next := addr + l.Size
	if next < addr || next > b.region.End() {
		return 0, fmt.Errorf("bump alloc of %d bytes: %w", l.Size, ErrOutOfMemory)
	}
	b.cursor = next

	log.ModAlloc.DebugZ("bump alloc").
		Hex32("addr", addr).
		Uint("size", uint(l.Size)).
		End()
	return addr, nil
}

// Alloc allocates a chunk described by l.
func (b *BumpAllocator) Alloc(l Layout) (addr uint32, err error) {
	b.crit.Free(func(cs interrupt.CriticalSection) {
		addr, err = b.AllocCritical(l, cs)
	})
	return
}

// Used returns the number of bytes consumed so far, padding included.
func (b *BumpAllocator) Used() uint32 {
	if !b.inited {
		return 0
	}
	return b.cursor - b.region.Start()
}
