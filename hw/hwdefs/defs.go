// Package hwdefs holds the memory map and the fixed register addresses of the
// console. Both the simulated hardware and the HAL refer to them.
package hwdefs

import "strings"

// Memory map.
const (
	EWRAMStart   = 0x0200_0000
	EWRAMSize    = 0x4_0000
	IWRAMStart   = 0x0300_0000
	IWRAMSize    = 0x8000
	IOStart      = 0x0400_0000
	PaletteStart = 0x0500_0000
	PaletteSize  = 0x400
	VRAMStart    = 0x0600_0000
	VRAMSize     = 0x1_8000
)

// VRAM granularity.
const (
	ScreenblockSize = 0x800
	CharblockSize   = ScreenblockSize * 8
)

// Screen geometry.
const (
	ScreenWidth  = 240
	ScreenHeight = 160
	NumScanlines = 228
)

// LCD registers.
const (
	DISPCNT  = IOStart + 0x00
	DISPSTAT = IOStart + 0x04
	VCOUNT   = IOStart + 0x06
	BG0CNT   = IOStart + 0x08 // BGnCNT = BG0CNT + 2*n
	BG0HOFS  = IOStart + 0x10 // BGnHOFS = BG0HOFS + 4*n
	BG0VOFS  = IOStart + 0x12 // BGnVOFS = BG0VOFS + 4*n
	BG2PA    = IOStart + 0x20 // BG3PA = BG2PA + 0x10
	BG2X     = IOStart + 0x28 // BG3X = BG2X + 0x10
	BG2Y     = IOStart + 0x2C // BG3Y = BG2Y + 0x10
)

// DMA registers, channel n is at base + 0x0c*n.
const (
	DMA0SAD   = IOStart + 0xB0
	DMA0DAD   = IOStart + 0xB4
	DMA0CNT   = IOStart + 0xB8
	NumDMA    = 4
	DMAStride = 0x0c
)

// Interrupt registers.
const (
	IE  = IOStart + 0x200
	IF  = IOStart + 0x202
	IME = IOStart + 0x208
)

// DISPCNT bits.
const (
	DispModeMask     = 0b111
	DispForcedBlank  = 1 << 7
	DispBG0Enable    = 1 << 8
	DispEnableShift  = 8
	DispPreserveMask = 0b1111_0000_1111_1000 // bits untouched by background commits
)

// DMA control bits.
const (
	DMADstShift    = 0x15
	DMASrcShift    = 0x17
	DMARepeat      = 1 << 0x19
	DMA32Bit       = 1 << 0x1a
	DMATimingShift = 0x1c
	DMAIRQ         = 1 << 0x1e
	DMAEnable      = 1 << 0x1f
)

// DMA address control.
const (
	DMAIncrement = 0b00
	DMADecrement = 0b01
	DMAFixed     = 0b10
	DMAReload    = 0b11
)

// DMA start timing.
const (
	DMAImmediate = 0b00
	DMAVBlank    = 0b01
	DMAHBlank    = 0b10
)

type IRQSource uint16

const (
	VBlank IRQSource = 1 << iota
	HBlank
	VCounter
	Timer0
	Timer1
	Timer2
	Timer3
	Serial
	DMA0
	DMA1
	DMA2
	DMA3
	Keypad
	GamePak

	numSources = 14
)

var irqSrcNames = [numSources]string{
	"vblank", "hblank", "vcount",
	"tm0", "tm1", "tm2", "tm3",
	"serial",
	"dma0", "dma1", "dma2", "dma3",
	"keypad", "gamepak",
}

func (irq IRQSource) String() string {
	var names []string
	for i := range numSources {
		if irq&(1<<i) != 0 {
			names = append(names, irqSrcNames[i])
		}
	}
	return strings.Join(names, "|")
}
