package hwio

// MMIO16 is a 16-bit memory-mapped register at a fixed bus address. The HAL
// accesses all I/O registers through MMIO16 and MMIO32; memory areas (video
// memory, palette) are written straight over the bus.
type MMIO16 struct {
	bus  BankIO
	addr uint32
}

func NewMMIO16(bus BankIO, addr uint32) MMIO16 {
	return MMIO16{bus: bus, addr: addr}
}

func (r MMIO16) Addr() uint32   { return r.addr }
func (r MMIO16) Get() uint16    { return r.bus.Read16(r.addr, false) }
func (r MMIO16) Set(val uint16) { r.bus.Write16(r.addr, val) }

// MMIO32 is a 32-bit memory-mapped register at a fixed bus address.
type MMIO32 struct {
	bus  BankIO
	addr uint32
}

func NewMMIO32(bus BankIO, addr uint32) MMIO32 {
	return MMIO32{bus: bus, addr: addr}
}

func (r MMIO32) Addr() uint32   { return r.addr }
func (r MMIO32) Get() uint32    { return r.bus.Read32(r.addr, false) }
func (r MMIO32) Set(val uint32) { r.bus.Write32(r.addr, val) }
