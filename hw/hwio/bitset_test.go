package hwio

import (
	"math/rand/v2"
	"testing"
)

const testBits = 1000

func TestBitset(t *testing.T) {
	b := NewBitset(testBits)
	if b.Len() != testBits {
		t.Fatalf("Len() = %d, want %d", b.Len(), testBits)
	}
	for i := range uint(testBits) {
		if b.Test(i) {
			t.Fatalf("Bit %d is set", i)
		}
	}

	for i := range uint(testBits) {
		b.Set(i)
		if !b.Test(i) {
			t.Fatalf("Bit %d is not set", i)
		}
		b.Clear(i)
		if b.Test(i) {
			t.Fatalf("Bit %d is set", i)
		}
	}

	b.SetRange(0, testBits)
	if b.Count() != testBits {
		t.Fatalf("Count() = %d after SetRange, want %d", b.Count(), testBits)
	}
	b.Reset()
	if b.Count() != 0 {
		t.Fatalf("Count() = %d after Reset, want 0", b.Count())
	}
}

func TestBitsetRanges(t *testing.T) {
	b := NewBitset(testBits)

	for range 1000 {
		start := rand.UintN(testBits)
		end := rand.UintN(testBits)
		if start > end {
			start, end = end, start
		}
		if start == end {
			if start == 0 {
				end++
			} else {
				start--
			}
		}

		b.Reset()
		b.SetRange(start, end)
		for i := range uint(testBits) {
			if i >= start && i < end {
				if !b.Test(i) {
					t.Fatalf("SetRange(%d, %d) but bit %d is not set", start, end, i)
				}
			} else if b.Test(i) {
				t.Fatalf("SetRange(%d, %d) but bit %d is set", start, end, i)
			}
		}
		if !b.AnyInRange(start, end) {
			t.Fatalf("AnyInRange(%d, %d) = false after SetRange", start, end)
		}

		b.ClearRange(start, end)
		if b.Count() != 0 {
			t.Fatalf("ClearRange(%d, %d) left %d bits set", start, end, b.Count())
		}
	}
}

func TestBitsetInvalidRange(t *testing.T) {
	b := NewBitset(64)
	defer func() {
		if recover() == nil {
			t.Fatal("SetRange(10, 65) should have panicked")
		}
	}()
	b.SetRange(10, 65)
}
