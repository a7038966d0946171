// Package alloc implements the fixed-region allocators used by the HAL: a
// bump allocator for allocations that live as long as the device, and a block
// allocator for storage that comes and goes.
package alloc

import (
	"errors"
	"fmt"

	"gbahal/gba/interrupt"
)

// ErrOutOfMemory is returned when a region can't satisfy a request.
var ErrOutOfMemory = errors.New("out of memory")

// Layout describes an allocation request. Align must be a power of two.
type Layout struct {
	Size  uint32
	Align uint32
}

func (l Layout) check() {
	if l.Align == 0 || l.Align&(l.Align-1) != 0 {
		panic(fmt.Sprintf("alloc: alignment %d is not a power of two", l.Align))
	}
}

// StartEnd gives the [start, end) bounds of a region. They're evaluated at
// first use, so a region can depend on state established after the
// allocator is created.
type StartEnd struct {
	Start func() uint32
	End   func() uint32
}

// Fixed returns the bounds of a region known in advance.
func Fixed(start, end uint32) StartEnd {
	return StartEnd{
		Start: func() uint32 { return start },
		End:   func() uint32 { return end },
	}
}

// Critical runs a function with interrupts disabled.
type Critical interface {
	Free(func(interrupt.CriticalSection))
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
