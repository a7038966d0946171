package hwdefs

import "testing"

func TestIRQSourceString(t *testing.T) {
	tests := []struct {
		src  IRQSource
		want string
	}{
		{0, ""},
		{VBlank, "vblank"},
		{VBlank | HBlank, "vblank|hblank"},
		{DMA0 | DMA3 | GamePak, "dma0|dma3|gamepak"},
	}
	for _, tt := range tests {
		if got := tt.src.String(); got != tt.want {
			t.Errorf("IRQSource(%#x).String() = %q, want %q", uint16(tt.src), got, tt.want)
		}
	}
}
