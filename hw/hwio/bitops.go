package hwio

// 16-bit operations
func GetBit16(v uint16, n uint) bool {
	return (v>>n)&0x01 != 0
}

// Bits16 extracts the bitfield of width bits starting at bit lo.
func Bits16(v uint16, lo, width uint) uint16 {
	return (v >> lo) & (1<<width - 1)
}

// 32-bit operations

// Bits32 extracts the bitfield of width bits starting at bit lo.
func Bits32(v uint32, lo, width uint) uint32 {
	return (v >> lo) & (1<<width - 1)
}
