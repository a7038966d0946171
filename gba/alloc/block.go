package alloc

import (
	"fmt"

	"gbahal/emu/log"
	"gbahal/gba/interrupt"
	"gbahal/hw/hwio"
)

// BlockAllocator divides its region into fixed-size blocks. Allocations take
// one or more contiguous blocks and can be freed independently.
type BlockAllocator struct {
	name      string
	region    StartEnd
	blockSize uint32
	crit      Critical

	start  uint32
	used   hwio.Bitset
	inited bool

	allocs, frees int
}

func NewBlockAllocator(name string, region StartEnd, blockSize uint32, crit Critical) *BlockAllocator {
	if blockSize == 0 || blockSize&(blockSize-1) != 0 {
		panic(fmt.Sprintf("alloc: block size %d is not a power of two", blockSize))
	}
	return &BlockAllocator{name: name, region: region, blockSize: blockSize, crit: crit}
}

func (a *BlockAllocator) init() {
	if a.inited {
		return
	}
	a.start = a.region.Start()
	end := a.region.End()
	if end < a.start {
		panic(fmt.Sprintf("alloc: %s: invalid region %08x-%08x", a.name, a.start, end))
	}
	a.used = hwio.NewBitset(uint((end - a.start) / a.blockSize))
	a.inited = true
}

func (a *BlockAllocator) blocks(size uint32) uint {
	if size == 0 {
		size = 1
	}
	return uint((size + a.blockSize - 1) / a.blockSize)
}

// Alloc allocates contiguous blocks covering l.Size bytes, at an address
// aligned to l.Align. The first fitting range is used.
func (a *BlockAllocator) Alloc(l Layout) (addr uint32, err error) {
	l.check()
	a.crit.Free(func(interrupt.CriticalSection) {
		a.init()
		n := a.blocks(l.Size)
		total := a.used.Len()
		for i := uint(0); i+n <= total; i++ {
			addr = a.start + uint32(i)*a.blockSize
			if addr&(l.Align-1) != 0 {
				continue
			}
			if a.used.AnyInRange(i, i+n) {
				continue
			}
			a.used.SetRange(i, i+n)
			a.allocs++
			log.ModAlloc.DebugZ("block alloc").
				String("region", a.name).
				Hex32("addr", addr).
				Uint("blocks", n).
				End()
			return
		}
		addr = 0
		err = fmt.Errorf("%s: alloc of %d bytes: %w", a.name, l.Size, ErrOutOfMemory)
	})
	return
}

// Free releases an allocation previously returned by Alloc with the same
// layout. Freeing memory that isn't allocated panics.
func (a *BlockAllocator) Free(addr uint32, l Layout) {
	a.crit.Free(func(interrupt.CriticalSection) {
		a.init()
		n := a.blocks(l.Size)
		if addr < a.start || (addr-a.start)%a.blockSize != 0 {
			panic(fmt.Sprintf("alloc: %s: free of invalid address %08x", a.name, addr))
		}
		i := uint((addr - a.start) / a.blockSize)
		if i+n > a.used.Len() {
			panic(fmt.Sprintf("alloc: %s: free of %08x past end of region", a.name, addr))
		}
		for j := i; j < i+n; j++ {
			if !a.used.Test(j) {
				panic(fmt.Sprintf("alloc: %s: double free at %08x", a.name, addr))
			}
		}
		a.used.ClearRange(i, i+n)
		a.frees++
		log.ModAlloc.DebugZ("block free").
			String("region", a.name).
			Hex32("addr", addr).
			Uint("blocks", n).
			End()
	})
}

// BlockStats describes the state of a block allocator.
type BlockStats struct {
	Allocs, Frees int
	BlocksUsed    int
	BlocksTotal   int
}

func (a *BlockAllocator) Stats() BlockStats {
	a.init()
	return BlockStats{
		Allocs:      a.allocs,
		Frees:       a.frees,
		BlocksUsed:  a.used.Count(),
		BlocksTotal: int(a.used.Len()),
	}
}

func (a *BlockAllocator) BlockSize() uint32 { return a.blockSize }
