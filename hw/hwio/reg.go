package hwio

import (
	"fmt"

	"gbahal/emu/log"
)

type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = (1 << iota)
	WriteOnlyFlag
)

// Reg16 is a 16-bit register. Bits set in RoMask are never modified by bus
// writes. Narrower accesses (8-bit) only affect the addressed byte, wider
// accesses (32-bit) only the low half, the high half belonging to the next
// register on the bus.
type Reg16 struct {
	Name   string
	Value  uint16
	RoMask uint16

	Flags   RWFlags
	ReadCb  func(val uint16) uint16
	PeekCb  func(val uint16) uint16
	WriteCb func(old uint16, val uint16)
}

func (reg Reg16) String() string {
	s := fmt.Sprintf("%s{%04x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.PeekCb != nil {
		s += ",p!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

func (reg *Reg16) write(addr uint32, val, mask uint16) {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid write to readonly reg").
			String("name", reg.Name).
			Hex32("addr", addr).
			End()
		return
	}
	old := reg.Value
	mask &^= reg.RoMask
	reg.Value = (reg.Value &^ mask) | (val & mask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

func (reg *Reg16) read(addr uint32, peek bool) uint16 {
	if peek {
		if reg.PeekCb != nil {
			return reg.PeekCb(reg.Value)
		}
		return reg.Value
	}
	if reg.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid read from writeonly reg").
			String("name", reg.Name).
			Hex32("addr", addr).
			End()
		return 0
	}
	if reg.ReadCb != nil {
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg16) Write8(addr uint32, val uint8) {
	shift := (addr & 1) * 8
	reg.write(addr, uint16(val)<<shift, 0xff<<shift)
}

func (reg *Reg16) Write16(addr uint32, val uint16) { reg.write(addr, val, 0xffff) }
func (reg *Reg16) Write32(addr uint32, val uint32) { reg.write(addr, uint16(val), 0xffff) }

func (reg *Reg16) Read8(addr uint32, peek bool) uint8 {
	return uint8(reg.read(addr, peek) >> ((addr & 1) * 8))
}

func (reg *Reg16) Read16(addr uint32, peek bool) uint16 { return reg.read(addr, peek) }
func (reg *Reg16) Read32(addr uint32, peek bool) uint32 { return uint32(reg.read(addr, peek)) }

// Reg32 is a 32-bit register, see Reg16.
type Reg32 struct {
	Name   string
	Value  uint32
	RoMask uint32

	Flags   RWFlags
	ReadCb  func(val uint32) uint32
	PeekCb  func(val uint32) uint32
	WriteCb func(old uint32, val uint32)
}

func (reg Reg32) String() string {
	s := fmt.Sprintf("%s{%08x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.PeekCb != nil {
		s += ",p!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

func (reg *Reg32) write(addr uint32, val, mask uint32) {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid write to readonly reg").
			String("name", reg.Name).
			Hex32("addr", addr).
			End()
		return
	}
	old := reg.Value
	mask &^= reg.RoMask
	reg.Value = (reg.Value &^ mask) | (val & mask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

func (reg *Reg32) read(addr uint32, peek bool) uint32 {
	if peek {
		if reg.PeekCb != nil {
			return reg.PeekCb(reg.Value)
		}
		return reg.Value
	}
	if reg.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid read from writeonly reg").
			String("name", reg.Name).
			Hex32("addr", addr).
			End()
		return 0
	}
	if reg.ReadCb != nil {
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg32) Write8(addr uint32, val uint8) {
	shift := (addr & 3) * 8
	reg.write(addr, uint32(val)<<shift, 0xff<<shift)
}

func (reg *Reg32) Write16(addr uint32, val uint16) {
	shift := (addr & 2) * 8
	reg.write(addr, uint32(val)<<shift, 0xffff<<shift)
}

func (reg *Reg32) Write32(addr uint32, val uint32) { reg.write(addr, val, 0xffffffff) }

func (reg *Reg32) Read8(addr uint32, peek bool) uint8 {
	return uint8(reg.read(addr, peek) >> ((addr & 3) * 8))
}

func (reg *Reg32) Read16(addr uint32, peek bool) uint16 {
	return uint16(reg.read(addr, peek) >> ((addr & 2) * 8))
}

func (reg *Reg32) Read32(addr uint32, peek bool) uint32 { return reg.read(addr, peek) }
