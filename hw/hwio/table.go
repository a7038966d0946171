package hwio

import (
	"fmt"
	"sort"

	"gbahal/emu/log"
)

// log unmapped accesses (useful for debugging but verbose since games
// routinely poke unused I/O registers)
const logUnmapped = false

// BankIO is implemented by everything that can be mapped on a bus. Addresses
// are absolute bus addresses.
type BankIO interface {
	// ReadN reads from the given address. If peek is true, the read
	// shouldn't have any side effects (debugging/tracing).
	Read8(addr uint32, peek bool) uint8
	Read16(addr uint32, peek bool) uint16
	Read32(addr uint32, peek bool) uint32
	Write8(addr uint32, val uint8)
	Write16(addr uint32, val uint16)
	Write32(addr uint32, val uint32)
}

type mapping struct {
	begin, end uint32 // inclusive
	io         BankIO
}

// Table is a bus: it dispatches accesses to the devices mapped into it.
// 16-bit and 32-bit accesses are force-aligned, as on the real hardware.
type Table struct {
	Name string

	// Unmapped, if set, receives accesses to unmapped addresses.
	Unmapped BankIO

	// Watch, if set, is called before each write with its address, size in
	// bytes and value.
	Watch func(addr uint32, size uint8, val uint32)

	maps []mapping // sorted by begin, non overlapping
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.maps = nil
}

// Map a register bank (that is, a structure containing multiple Reg* or Mem
// fields). For this function to work, registers must have a struct tag
// "hwio", containing the following fields:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specified the
//	                bank number.
func (t *Table) MapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg16:
			t.mapBus(addr+reg.offset, 2, r)
		case *Reg32:
			t.mapBus(addr+reg.offset, 4, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		begin := addr + reg.offset
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.Unmap(begin, begin+uint32(r.VSize)-1)
		case *Reg16:
			t.Unmap(begin, begin+1)
		case *Reg32:
			t.Unmap(begin, begin+3)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus(addr, size uint32, io BankIO) {
	end := addr + size - 1
	i := sort.Search(len(t.maps), func(i int) bool { return t.maps[i].end >= addr })
	if i < len(t.maps) && t.maps[i].begin <= end {
		panic(fmt.Errorf("%s: mapping [%08x-%08x] overlaps [%08x-%08x]",
			t.Name, addr, end, t.maps[i].begin, t.maps[i].end))
	}
	t.maps = append(t.maps, mapping{})
	copy(t.maps[i+1:], t.maps[i:])
	t.maps[i] = mapping{begin: addr, end: end, io: io}
}

func (t *Table) MapReg16(addr uint32, reg *Reg16) { t.mapBus(addr, 2, reg) }
func (t *Table) MapReg32(addr uint32, reg *Reg32) { t.mapBus(addr, 4, reg) }

func (t *Table) MapMem(addr uint32, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex32("addr", addr).
		Hex32("size", uint32(mem.VSize)).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	t.mapBus(addr, uint32(mem.VSize), mem.BankIO(addr))
}

// Unmap removes everything mapped in [begin, end]. Mappings partially covered
// by the range are trimmed.
func (t *Table) Unmap(begin, end uint32) {
	var kept []mapping
	for _, m := range t.maps {
		if m.end < begin || m.begin > end {
			kept = append(kept, m)
			continue
		}
		if m.begin < begin {
			kept = append(kept, mapping{begin: m.begin, end: begin - 1, io: m.io})
		}
		if m.end > end {
			kept = append(kept, mapping{begin: end + 1, end: m.end, io: m.io})
		}
	}
	t.maps = kept
}

func (t *Table) search(addr uint32) *mapping {
	i := sort.Search(len(t.maps), func(i int) bool { return t.maps[i].end >= addr })
	if i < len(t.maps) && t.maps[i].begin <= addr {
		return &t.maps[i]
	}
	return nil
}

func (t *Table) unmapped(op string, addr uint32, peek bool) {
	if logUnmapped && !peek {
		log.ModHwIo.ErrorZ("unmapped "+op).
			String("name", t.Name).
			Hex32("addr", addr).
			End()
	}
}

func (t *Table) Read8(addr uint32, peek bool) uint8 {
	m := t.search(addr)
	if m == nil {
		t.unmapped("Read8", addr, peek)
		if t.Unmapped != nil {
			return t.Unmapped.Read8(addr, peek)
		}
		return 0
	}
	return m.io.Read8(addr, peek)
}

func (t *Table) Read16(addr uint32, peek bool) uint16 {
	addr &^= 1
	m := t.search(addr)
	switch {
	case m == nil:
		t.unmapped("Read16", addr, peek)
		if t.Unmapped != nil {
			return t.Unmapped.Read16(addr, peek)
		}
		return 0
	case m.end >= addr+1:
		return m.io.Read16(addr, peek)
	}
	return uint16(t.Read8(addr, peek)) | uint16(t.Read8(addr+1, peek))<<8
}

func (t *Table) Read32(addr uint32, peek bool) uint32 {
	addr &^= 3
	m := t.search(addr)
	switch {
	case m == nil:
		t.unmapped("Read32", addr, peek)
		if t.Unmapped != nil {
			return t.Unmapped.Read32(addr, peek)
		}
		return 0
	case m.end >= addr+3:
		return m.io.Read32(addr, peek)
	}
	return uint32(t.Read16(addr, peek)) | uint32(t.Read16(addr+2, peek))<<16
}

// Peek8 is a convenience function.
func (t *Table) Peek8(addr uint32) uint8 { return t.Read8(addr, true) }

// Peek16 is a convenience function.
func (t *Table) Peek16(addr uint32) uint16 { return t.Read16(addr, true) }

func (t *Table) Write8(addr uint32, val uint8) {
	if t.Watch != nil {
		t.Watch(addr, 1, uint32(val))
	}
	t.write8(addr, val)
}

func (t *Table) Write16(addr uint32, val uint16) {
	addr &^= 1
	if t.Watch != nil {
		t.Watch(addr, 2, uint32(val))
	}
	t.write16(addr, val)
}

func (t *Table) Write32(addr uint32, val uint32) {
	addr &^= 3
	if t.Watch != nil {
		t.Watch(addr, 4, val)
	}
	m := t.search(addr)
	switch {
	case m == nil:
		t.unmapped("Write32", addr, false)
		if t.Unmapped != nil {
			t.Unmapped.Write32(addr, val)
		}
	case m.end >= addr+3:
		m.io.Write32(addr, val)
	default:
		t.write16(addr, uint16(val))
		t.write16(addr+2, uint16(val>>16))
	}
}

func (t *Table) write8(addr uint32, val uint8) {
	m := t.search(addr)
	if m == nil {
		t.unmapped("Write8", addr, false)
		if t.Unmapped != nil {
			t.Unmapped.Write8(addr, val)
		}
		return
	}
	m.io.Write8(addr, val)
}

func (t *Table) write16(addr uint32, val uint16) {
	m := t.search(addr)
	switch {
	case m == nil:
		t.unmapped("Write16", addr, false)
		if t.Unmapped != nil {
			t.Unmapped.Write16(addr, val)
		}
	case m.end >= addr+1:
		m.io.Write16(addr, val)
	default:
		t.write8(addr, uint8(val))
		t.write8(addr+1, uint8(val>>8))
	}
}
