package hw

import (
	"gbahal/emu/log"
	"gbahal/hw/hwdefs"
	"gbahal/hw/hwio"
)

// DMA is the four-channel DMA unit. Immediate transfers run as soon as the
// channel is enabled; hblank and vblank transfers run when the LCD reaches
// the corresponding point of the frame.
type DMA struct {
	console *Console

	DMA0SAD hwio.Reg32 `hwio:"offset=0x00,writeonly"`
	DMA0DAD hwio.Reg32 `hwio:"offset=0x04,writeonly"`
	DMA0CNT hwio.Reg32 `hwio:"offset=0x08,wcb"`
	DMA1SAD hwio.Reg32 `hwio:"offset=0x0C,writeonly"`
	DMA1DAD hwio.Reg32 `hwio:"offset=0x10,writeonly"`
	DMA1CNT hwio.Reg32 `hwio:"offset=0x14,wcb"`
	DMA2SAD hwio.Reg32 `hwio:"offset=0x18,writeonly"`
	DMA2DAD hwio.Reg32 `hwio:"offset=0x1C,writeonly"`
	DMA2CNT hwio.Reg32 `hwio:"offset=0x20,wcb"`
	DMA3SAD hwio.Reg32 `hwio:"offset=0x24,writeonly"`
	DMA3DAD hwio.Reg32 `hwio:"offset=0x28,writeonly"`
	DMA3CNT hwio.Reg32 `hwio:"offset=0x2C,wcb"`

	// internal address registers, latched when a channel is enabled.
	src, dst [hwdefs.NumDMA]uint32

	// Transfers counts the transfers run by each channel.
	Transfers [hwdefs.NumDMA]int
}

func (dma *DMA) init(c *Console) {
	hwio.MustInitRegs(dma)
	dma.console = c
}

func (dma *DMA) regs(ch int) (sad, dad, cnt *hwio.Reg32) {
	switch ch {
	case 0:
		return &dma.DMA0SAD, &dma.DMA0DAD, &dma.DMA0CNT
	case 1:
		return &dma.DMA1SAD, &dma.DMA1DAD, &dma.DMA1CNT
	case 2:
		return &dma.DMA2SAD, &dma.DMA2DAD, &dma.DMA2CNT
	}
	return &dma.DMA3SAD, &dma.DMA3DAD, &dma.DMA3CNT
}

func (dma *DMA) WriteDMA0CNT(old, val uint32) { dma.control(0, old, val) }
func (dma *DMA) WriteDMA1CNT(old, val uint32) { dma.control(1, old, val) }
func (dma *DMA) WriteDMA2CNT(old, val uint32) { dma.control(2, old, val) }
func (dma *DMA) WriteDMA3CNT(old, val uint32) { dma.control(3, old, val) }

func timing(cnt uint32) uint32 { return hwio.Bits32(cnt, hwdefs.DMATimingShift, 2) }

func (dma *DMA) control(ch int, old, val uint32) {
	if val&hwdefs.DMAEnable == 0 {
		if old&hwdefs.DMAEnable != 0 {
			log.ModDMA.DebugZ("channel disabled").Int("ch", ch).End()
		}
		return
	}
	if old&hwdefs.DMAEnable != 0 {
		return
	}

	sad, dad, _ := dma.regs(ch)
	dma.src[ch], dma.dst[ch] = sad.Value, dad.Value
	log.ModDMA.DebugZ("channel enabled").
		Int("ch", ch).
		Hex32("src", dma.src[ch]).
		Hex32("dst", dma.dst[ch]).
		Hex32("cnt", val).
		End()

	if timing(val) == hwdefs.DMAImmediate {
		dma.run(ch)
	}
}

// trigger runs all enabled channels waiting for the given timing, in channel
// priority order.
func (dma *DMA) trigger(t uint32) {
	for ch := range hwdefs.NumDMA {
		_, _, cnt := dma.regs(ch)
		if cnt.Value&hwdefs.DMAEnable != 0 && timing(cnt.Value) == t {
			dma.run(ch)
		}
	}
}

func step(ctl uint32, width uint32) uint32 {
	switch ctl {
	case hwdefs.DMAIncrement, hwdefs.DMAReload:
		return width
	case hwdefs.DMADecrement:
		return -width
	}
	return 0
}

func (dma *DMA) run(ch int) {
	_, dad, cnt := dma.regs(ch)
	ctl := cnt.Value

	count := hwio.Bits32(ctl, 0, 16)
	if count == 0 {
		count = 0x4000
		if ch == 3 {
			count = 0x10000
		}
	}
	width := uint32(2)
	if ctl&hwdefs.DMA32Bit != 0 {
		width = 4
	}
	dstep := step(hwio.Bits32(ctl, hwdefs.DMADstShift, 2), width)
	sstep := step(hwio.Bits32(ctl, hwdefs.DMASrcShift, 2), width)

	bus := dma.console.Bus
	src, dst := dma.src[ch], dma.dst[ch]
	for range count {
		if width == 4 {
			bus.Write32(dst, bus.Read32(src, false))
		} else {
			bus.Write16(dst, bus.Read16(src, false))
		}
		src += sstep
		dst += dstep
	}
	dma.src[ch] = src
	dma.dst[ch] = dst
	if hwio.Bits32(ctl, hwdefs.DMADstShift, 2) == hwdefs.DMAReload {
		dma.dst[ch] = dad.Value
	}
	dma.Transfers[ch]++

	if ctl&hwdefs.DMARepeat == 0 || timing(ctl) == hwdefs.DMAImmediate {
		cnt.Value &^= hwdefs.DMAEnable
	}
	if ctl&hwdefs.DMAIRQ != 0 {
		dma.console.IRQ.Raise(hwdefs.DMA0 << ch)
	}
}
