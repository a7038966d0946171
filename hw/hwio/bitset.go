package hwio

import "fmt"

const wordSize = 64 // using 64-bit words

// Bitset is a fixed size set of bits. The zero value is an empty set with no
// capacity, use NewBitset.
type Bitset struct {
	words []uint64
	n     uint
}

// NewBitset returns a set of n bits, all cleared.
func NewBitset(n uint) Bitset {
	return Bitset{words: make([]uint64, (n+wordSize-1)/wordSize), n: n}
}

// Len returns the number of bits in the set.
func (b *Bitset) Len() uint { return b.n }

// Set sets the bit at index i.
func (b *Bitset) Set(i uint) {
	b.words[i/wordSize] |= 1 << (i % wordSize)
}

// Clear clears the bit at index i.
func (b *Bitset) Clear(i uint) {
	b.words[i/wordSize] &^= 1 << (i % wordSize)
}

// Test returns true if the bit at index i is set.
func (b *Bitset) Test(i uint) bool {
	return (b.words[i/wordSize] & (1 << (i % wordSize))) != 0
}

func (b *Bitset) checkRange(start, end uint) {
	if start >= end || end > b.n {
		panic(fmt.Sprintf("invalid range [%d, %d)", start, end))
	}
}

// SetRange sets all bits in the half-open interval [start, end).
// It panics if start >= end or end > Len().
func (b *Bitset) SetRange(start, end uint) {
	b.checkRange(start, end)
	for i := start; i < end; i++ {
		b.Set(i)
	}
}

// ClearRange clears all bits in the half-open interval [start, end).
// It panics if start >= end or end > Len().
func (b *Bitset) ClearRange(start, end uint) {
	b.checkRange(start, end)
	for i := start; i < end; i++ {
		b.Clear(i)
	}
}

// AnyInRange reports whether at least one bit is set in [start, end).
func (b *Bitset) AnyInRange(start, end uint) bool {
	b.checkRange(start, end)
	for i := start; i < end; i++ {
		if b.Test(i) {
			return true
		}
	}
	return false
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	n := 0
	for i := range b.n {
		if b.Test(i) {
			n++
		}
	}
	return n
}

// Reset clears all bits in the Bitset.
func (b *Bitset) Reset() {
	for i := range b.words {
		b.words[i] = 0
	}
}
