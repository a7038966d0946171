package hwio

import "encoding/binary"

// Mem is a linear memory area that can be mapped into a Table. Accesses past
// the physical size mirror the buffer, up to VSize.
type Mem struct {
	Name  string // name of the memory area (for debugging)
	Data  []byte // actual memory buffer
	VSize int    // virtual size of the memory (can be bigger than physical size)
}

// BankIO returns an adaptor implementing BankIO for the memory area mapped at
// base.
func (m *Mem) BankIO(base uint32) BankIO {
	if len(m.Data) == 0 {
		panic("memory area " + m.Name + " has no buffer")
	}
	return &mem{buf: m.Data, base: base}
}

type mem struct {
	buf  []byte
	base uint32
}

func (m *mem) off(addr uint32) uint32 {
	return (addr - m.base) % uint32(len(m.buf))
}

func (m *mem) Read8(addr uint32, _ bool) uint8 { return m.buf[m.off(addr)] }

func (m *mem) Read16(addr uint32, _ bool) uint16 {
	off := m.off(addr)
	return binary.LittleEndian.Uint16(m.buf[off : off+2])
}

func (m *mem) Read32(addr uint32, _ bool) uint32 {
	off := m.off(addr)
	return binary.LittleEndian.Uint32(m.buf[off : off+4])
}

func (m *mem) Write8(addr uint32, val uint8) { m.buf[m.off(addr)] = val }

func (m *mem) Write16(addr uint32, val uint16) {
	off := m.off(addr)
	binary.LittleEndian.PutUint16(m.buf[off:off+2], val)
}

func (m *mem) Write32(addr uint32, val uint32) {
	off := m.off(addr)
	binary.LittleEndian.PutUint32(m.buf[off:off+4], val)
}
