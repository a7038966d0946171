// Package dma drives the DMA channels: hblank-synchronized transfers into a
// register for per-scanline effects, and bulk copies on channel 3.
package dma

import (
	"fmt"

	"gbahal/emu/log"
	"gbahal/gba/alloc"
	"gbahal/gba/interrupt"
	"gbahal/hw/hwdefs"
	"gbahal/hw/hwio"
)

// MinHBlankValues is the minimum length of an hblank transfer: one value per
// visible scanline.
const MinHBlankValues = hwdefs.ScreenHeight

// Word is a value a DMA transfer can write.
type Word interface {
	~uint16 | ~uint32
}

// Controllable is a location that can be written by DMA, usually a
// register.
type Controllable[T Word] struct {
	addr uint32
}

func NewControllable[T Word](addr uint32) Controllable[T] {
	return Controllable[T]{addr: addr}
}

func (c Controllable[T]) Addr() uint32 { return c.addr }

// Controller owns the four DMA channels. Data transferred by DMA is first
// pinned into a per-channel buffer in console memory, taken from mem.
type Controller struct {
	bus  hwio.BankIO
	crit alloc.Critical
	mem  *alloc.BumpAllocator

	channels [hwdefs.NumDMA]Channel
}

func NewController(bus hwio.BankIO, crit alloc.Critical, mem *alloc.BumpAllocator) *Controller {
	c := &Controller{bus: bus, crit: crit, mem: mem}
	for i := range c.channels {
		base := uint32(hwdefs.DMA0SAD + i*hwdefs.DMAStride)
		c.channels[i] = Channel{
			c:   c,
			num: i,
			sad: hwio.NewMMIO32(bus, base),
			dad: hwio.NewMMIO32(bus, base+4),
			cnt: hwio.NewMMIO32(bus, base+8),
			hi:  hwio.NewMMIO16(bus, base+10),
		}
	}
	return c
}

// Channel returns DMA channel n (0 to 3).
func (c *Controller) Channel(n int) *Channel {
	if n < 0 || n >= hwdefs.NumDMA {
		panic(fmt.Sprintf("dma: invalid channel %d", n))
	}
	return &c.channels[n]
}

type Channel struct {
	c   *Controller
	num int

	sad, dad, cnt hwio.MMIO32
	hi            hwio.MMIO16 // high half of cnt

	// pinned buffer
	buf, bufcap uint32
}

func (ch *Channel) Num() int { return ch.num }

// Enabled reports whether the channel is armed.
func (ch *Channel) Enabled() bool { return ch.cnt.Get()&hwdefs.DMAEnable != 0 }

func (ch *Channel) disable() {
	ch.cnt.Set(0)
	log.ModDMA.DebugZ("disable").Int("ch", ch.num).End()
}

// width returns the size in bytes of a T.
func width[T Word]() uint32 {
	var zero T
	if uint64(^zero) > 0xFFFF {
		return 4
	}
	return 2
}

// pin copies values into the channel buffer, which is grown when too small,
// and returns its address.
func pin[T Word](ch *Channel, values []T) uint32 {
	w := width[T]()
	size := uint32(len(values)) * w
	if size > ch.bufcap {
		addr, err := ch.c.mem.Alloc(alloc.Layout{Size: size, Align: 4})
		if err != nil {
			panic(fmt.Sprintf("dma: pinning %d bytes for channel %d: %v", size, ch.num, err))
		}
		ch.buf, ch.bufcap = addr, size
	}

	for i, v := range values {
		addr := ch.buf + uint32(i)*w
		if w == 4 {
			ch.c.bus.Write32(addr, uint32(v))
		} else {
			ch.c.bus.Write16(addr, uint16(v))
		}
	}
	return ch.buf
}

// TransferHandle keeps an hblank transfer running. Closing it disables the
// channel.
type TransferHandle struct {
	ch *Channel
}

// Close stops the transfer. It's safe to call more than once.
func (h *TransferHandle) Close() {
	if h.ch == nil {
		return
	}
	h.ch.disable()
	h.ch = nil
}

// HBlankTransfer arms ch to copy one value of values into dst at the end of
// each visible scanline, starting with values[0]. values must have at least
// MinHBlankValues elements. The values are copied, the caller can reuse the
// slice right away.
func HBlankTransfer[T Word](ch *Channel, dst Controllable[T], values []T) *TransferHandle {
	if len(values) < MinHBlankValues {
		panic(fmt.Sprintf("dma: need at least %d values for an hblank transfer, got %d", MinHBlankValues, len(values)))
	}

	ch.disable()
	src := pin(ch, values)

	// one unit per scanline, a word for 32-bit targets
	ctl := uint32(hwdefs.DMAFixed<<hwdefs.DMADstShift |
		hwdefs.DMARepeat |
		hwdefs.DMAHBlank<<hwdefs.DMATimingShift |
		hwdefs.DMAEnable |
		1)
	if width[T]() == 4 {
		ctl |= hwdefs.DMA32Bit
	}

	ch.sad.Set(src)
	ch.dad.Set(dst.addr)
	ch.cnt.Set(ctl)

	log.ModDMA.DebugZ("hblank transfer").
		Int("ch", ch.num).
		Hex32("src", src).
		Hex32("dst", dst.addr).
		Int("len", len(values)).
		End()
	return &TransferHandle{ch: ch}
}

// Exclusive runs f with interrupts and DMA channels 0 to 2 disabled, so
// that channel 3 can run without being preempted. The channels are restored
// afterwards.
func (c *Controller) Exclusive(f func()) {
	c.crit.Free(func(interrupt.CriticalSection) {
		var saved [3]uint16
		for i := range saved {
			hi := c.channels[i].hi
			saved[i] = hi.Get()
			hi.Set(saved[i] &^ (1 << 15))
		}
		defer func() {
			for i := range saved {
				c.channels[i].hi.Set(saved[i])
			}
		}()
		f()
	})
}

// Copy16 copies count halfwords from src to dst with an immediate channel 3
// transfer. Both addresses are console addresses.
func (c *Controller) Copy16(dst, src uint32, count int) {
	if count <= 0 || count >= 0xFFFF {
		panic(fmt.Sprintf("dma: invalid copy count %d", count))
	}
	ch := &c.channels[3]
	ch.sad.Set(src)
	ch.dad.Set(dst)
	ch.cnt.Set(uint32(count) | hwdefs.DMAEnable)
}

// Copy writes values at dst through channel 3, without being interrupted by
// other channels.
func (c *Controller) Copy(dst uint32, values []uint16) {
	if len(values) == 0 {
		return
	}
	c.Exclusive(func() {
		src := pin(&c.channels[3], values)
		c.Copy16(dst, src, len(values))
	})
}
