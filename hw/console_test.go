package hw

import (
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gbahal/hw/hwdefs"
)

func TestDMAImmediate(t *testing.T) {
	c := NewConsole()
	for i := range 8 {
		c.Bus.Write16(hwdefs.IWRAMStart+uint32(i*2), uint16(0x1000+i))
	}

	sad := uint32(hwdefs.DMA0SAD + 3*hwdefs.DMAStride)
	c.Bus.Write32(sad, hwdefs.IWRAMStart)
	c.Bus.Write32(sad+4, hwdefs.VRAMStart+0x100)
	c.Bus.Write32(sad+8, hwdefs.DMAEnable|8)

	var got []uint16
	for i := range 8 {
		got = append(got, c.Bus.Read16(hwdefs.VRAMStart+0x100+uint32(i*2), false))
	}
	want := []uint16{0x1000, 0x1001, 0x1002, 0x1003, 0x1004, 0x1005, 0x1006, 0x1007}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("VRAM mismatch (-want +got):\n%s", diff)
	}
	if c.DMA.DMA3CNT.Value&hwdefs.DMAEnable != 0 {
		t.Errorf("immediate transfer left channel enabled")
	}
	if c.DMA.Transfers[3] != 1 {
		t.Errorf("transfers = %d, want 1", c.DMA.Transfers[3])
	}
}

func TestDMA32BitDecrement(t *testing.T) {
	c := NewConsole()
	c.Bus.Write32(hwdefs.IWRAMStart, 0x11112222)
	c.Bus.Write32(hwdefs.IWRAMStart+4, 0x33334444)

	c.DMA.DMA3SAD.Value = hwdefs.IWRAMStart + 4
	c.DMA.DMA3DAD.Value = hwdefs.EWRAMStart + 4
	cnt := uint32(hwdefs.DMAEnable | hwdefs.DMA32Bit | 2)
	cnt |= hwdefs.DMADecrement<<hwdefs.DMADstShift | hwdefs.DMADecrement<<hwdefs.DMASrcShift
	c.Bus.Write32(hwdefs.DMA0SAD+3*hwdefs.DMAStride+8, cnt)

	if got := c.Bus.Read32(hwdefs.EWRAMStart, false); got != 0x11112222 {
		t.Errorf("EWRAM[0] = %08x", got)
	}
	if got := c.Bus.Read32(hwdefs.EWRAMStart+4, false); got != 0x33334444 {
		t.Errorf("EWRAM[4] = %08x", got)
	}
}

func TestDMAHBlankRepeat(t *testing.T) {
	c := NewConsole()
	for i := range hwdefs.ScreenHeight {
		c.Bus.Write16(hwdefs.IWRAMStart+uint32(i*2), uint16(i*3))
	}

	c.Bus.Write32(hwdefs.DMA0SAD, hwdefs.IWRAMStart)
	c.Bus.Write32(hwdefs.DMA0DAD, hwdefs.BG0HOFS)
	cnt := uint32(hwdefs.DMAEnable | hwdefs.DMARepeat | 1)
	cnt |= hwdefs.DMAHBlank<<hwdefs.DMATimingShift | hwdefs.DMAFixed<<hwdefs.DMADstShift
	c.Bus.Write32(hwdefs.DMA0CNT, cnt)

	if c.DMA.Transfers[0] != 0 {
		t.Fatalf("hblank transfer ran before hblank")
	}
	for y := range hwdefs.ScreenHeight {
		c.StepLine()
		if want := uint16(y * 3); c.LCD.BG0HOFS.Value != want {
			t.Fatalf("line %d: HOFS = %d, want %d", y, c.LCD.BG0HOFS.Value, want)
		}
	}
	// none during vblank
	for range hwdefs.NumScanlines - hwdefs.ScreenHeight {
		c.StepLine()
	}
	if c.DMA.Transfers[0] != hwdefs.ScreenHeight {
		t.Errorf("transfers = %d, want %d", c.DMA.Transfers[0], hwdefs.ScreenHeight)
	}
	if c.DMA.DMA0CNT.Value&hwdefs.DMAEnable == 0 {
		t.Errorf("repeating channel was disarmed")
	}

	// Disabling stops further transfers.
	c.Bus.Write16(hwdefs.DMA0CNT+2, uint16(cnt>>16)&^0x8000)
	c.StepLine()
	if c.DMA.Transfers[0] != hwdefs.ScreenHeight {
		t.Errorf("disabled channel kept running")
	}
}

func TestIRQDelivery(t *testing.T) {
	c := NewConsole()
	var got []hwdefs.IRQSource
	c.IRQ.Handler = func(src hwdefs.IRQSource) { got = append(got, src) }

	c.Bus.Write16(hwdefs.DISPSTAT, statVBlankIRQ)
	c.Bus.Write16(hwdefs.IE, uint16(hwdefs.VBlank))
	c.WaitForVBlank()

	if len(got) != 0 {
		t.Fatalf("interrupt delivered with IME=0: %v", got)
	}
	if c.Bus.Read16(hwdefs.IF, false) != uint16(hwdefs.VBlank) {
		t.Fatalf("vblank not pending in IF")
	}

	c.Bus.Write16(hwdefs.IME, 1)
	if diff := cmp.Diff([]hwdefs.IRQSource{hwdefs.VBlank}, got); diff != "" {
		t.Errorf("deferred delivery (-want +got):\n%s", diff)
	}
	if c.Bus.Read16(hwdefs.IF, false) != 0 {
		t.Errorf("IF not acknowledged")
	}

	c.WaitForVBlank()
	if len(got) != 2 {
		t.Errorf("got %d deliveries, want 2", len(got))
	}

	// Masked in IE: stays pending.
	c.Bus.Write16(hwdefs.IE, 0)
	c.WaitForVBlank()
	if len(got) != 2 {
		t.Errorf("masked interrupt delivered")
	}
}

func TestIFAcknowledge(t *testing.T) {
	c := NewConsole()
	c.IRQ.Raise(hwdefs.VBlank | hwdefs.HBlank)
	c.Bus.Write16(hwdefs.IF, uint16(hwdefs.VBlank))
	if got := hwdefs.IRQSource(c.IRQ.IF.Value); got != hwdefs.HBlank {
		t.Errorf("IF = %v, want %v", got, hwdefs.HBlank)
	}
}

func TestVCount(t *testing.T) {
	c := NewConsole()
	c.WaitForVBlank()
	if got := c.Bus.Read16(hwdefs.VCOUNT, false); got != hwdefs.ScreenHeight {
		t.Errorf("VCOUNT = %d, want %d", got, hwdefs.ScreenHeight)
	}
	if c.LCD.DISPSTAT.Value&statVBlank == 0 {
		t.Errorf("vblank flag not set")
	}
	c.RunFrame()
	if c.Frame != 1 {
		t.Errorf("frame = %d, want 1", c.Frame)
	}
}

var (
	red   = color.RGBA{0xFF, 0, 0, 0xFF}
	green = color.RGBA{0, 0xFF, 0, 0xFF}
	black = color.RGBA{0, 0, 0, 0xFF}
)

func setupRegularBG(c *Console, bg int, sb int, tile uint16, colorIdx uint8) {
	// 4bpp tile filled with colorIdx
	for i := range 32 {
		c.VRAM.Data[int(tile)*32+i] = colorIdx<<4 | colorIdx
	}
	c.Bus.Write16(hwdefs.VRAMStart+uint32(sb*hwdefs.ScreenblockSize), tile)
	c.Bus.Write16(hwdefs.BG0CNT+uint32(bg*2), uint16(sb)<<8|uint16(bg))
}

func TestRenderRegular(t *testing.T) {
	c := NewConsole()
	c.Bus.Write16(hwdefs.PaletteStart+2, 0x001F)
	setupRegularBG(c, 0, 16, 1, 1)
	c.Bus.Write16(hwdefs.DISPCNT, hwdefs.DispBG0Enable)
	c.RunFrame()

	if got := c.Screen.RGBAAt(0, 0); got != red {
		t.Errorf("pixel(0,0) = %v, want red", got)
	}
	if got := c.Screen.RGBAAt(8, 0); got != black {
		t.Errorf("pixel(8,0) = %v, want backdrop", got)
	}

	// scrolling by 4 moves the tile left
	c.Bus.Write16(hwdefs.BG0HOFS, 4)
	c.RunFrame()
	if got := c.Screen.RGBAAt(3, 0); got != red {
		t.Errorf("scrolled pixel(3,0) = %v, want red", got)
	}
	if got := c.Screen.RGBAAt(4, 0); got != black {
		t.Errorf("scrolled pixel(4,0) = %v, want backdrop", got)
	}
}

func TestRenderPriority(t *testing.T) {
	c := NewConsole()
	c.Bus.Write16(hwdefs.PaletteStart+2, 0x001F)
	c.Bus.Write16(hwdefs.PaletteStart+4, 0x03E0)
	setupRegularBG(c, 0, 16, 1, 1)
	setupRegularBG(c, 1, 17, 2, 2)
	c.Bus.Write16(hwdefs.DISPCNT, hwdefs.DispBG0Enable|hwdefs.DispBG0Enable<<1)

	// BG0 has priority 0, BG1 priority 1
	c.RunFrame()
	if got := c.Screen.RGBAAt(0, 0); got != red {
		t.Errorf("pixel = %v, want red (BG0)", got)
	}

	// same priority: lower background number wins
	c.Bus.Write16(hwdefs.BG0CNT, 16<<8|1)
	c.RunFrame()
	if got := c.Screen.RGBAAt(0, 0); got != red {
		t.Errorf("pixel = %v, want red (BG0)", got)
	}

	c.Bus.Write16(hwdefs.BG0CNT, 16<<8|2)
	c.RunFrame()
	if got := c.Screen.RGBAAt(0, 0); got != green {
		t.Errorf("pixel = %v, want green (BG1)", got)
	}
}

func TestRenderFlip(t *testing.T) {
	c := NewConsole()
	c.Bus.Write16(hwdefs.PaletteStart+2, 0x001F)
	// tile 1: only the top-left pixel set
	c.VRAM.Data[32] = 0x01
	c.Bus.Write16(hwdefs.VRAMStart+16*hwdefs.ScreenblockSize, 1|1<<10|1<<11)
	c.Bus.Write16(hwdefs.BG0CNT, 16<<8)
	c.Bus.Write16(hwdefs.DISPCNT, hwdefs.DispBG0Enable)
	c.RunFrame()

	if got := c.Screen.RGBAAt(7, 7); got != red {
		t.Errorf("flipped pixel(7,7) = %v, want red", got)
	}
	if got := c.Screen.RGBAAt(0, 0); got != black {
		t.Errorf("pixel(0,0) = %v, want backdrop", got)
	}
}

func TestRenderAffine(t *testing.T) {
	c := NewConsole()
	c.Bus.Write16(hwdefs.PaletteStart+2*5, 0x001F)
	// 8bpp tile 1 filled with color 5
	for i := range 64 {
		c.VRAM.Data[64+i] = 5
	}
	// 16x16 tiles map in screenblock 8, entry (1,0) is tile 1
	c.VRAM.Data[8*hwdefs.ScreenblockSize+1] = 1
	c.Bus.Write16(hwdefs.BG0CNT+4, 8<<8|1<<7)
	c.Bus.Write16(hwdefs.DISPCNT, 2|hwdefs.DispBG0Enable<<2)
	c.RunFrame()

	if got := c.Screen.RGBAAt(8, 0); got != red {
		t.Errorf("pixel(8,0) = %v, want red", got)
	}
	if got := c.Screen.RGBAAt(0, 0); got != black {
		t.Errorf("pixel(0,0) = %v, want backdrop", got)
	}
	// no wrapping: past the 128 pixels map, transparent
	if got := c.Screen.RGBAAt(136, 0); got != black {
		t.Errorf("pixel(136,0) = %v, want backdrop", got)
	}

	// translate by 8 pixels (8.8 fixed point)
	c.Bus.Write32(hwdefs.BG2X, 8<<8)
	c.RunFrame()
	if got := c.Screen.RGBAAt(0, 0); got != red {
		t.Errorf("translated pixel(0,0) = %v, want red", got)
	}

	// wrapping
	c.Bus.Write16(hwdefs.BG0CNT+4, 8<<8|1<<7|1<<13)
	c.Bus.Write32(hwdefs.BG2X, 0)
	c.RunFrame()
	if got := c.Screen.RGBAAt(136, 0); got != red {
		t.Errorf("wrapped pixel(136,0) = %v, want red", got)
	}
}

func TestRGB555(t *testing.T) {
	if got := RGB555(0x7FFF); got != (color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("white = %v", got)
	}
	if got := RGB555(0x7C00); got != (color.RGBA{0, 0, 0xFF, 0xFF}) {
		t.Errorf("blue = %v", got)
	}
}
