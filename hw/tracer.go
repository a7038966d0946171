package hw

import (
	"fmt"
	"io"

	"gbahal/hw/hwdefs"
)

// tracer writes a line for each write to an I/O register:
//
//	FRAME:LINE  NAME        ADDRESS  <- VALUE
type tracer struct {
	c   *Console
	w   io.Writer
	buf []byte
}

// SetTraceOutput logs all I/O register writes to w. A nil w disables the
// trace.
func (c *Console) SetTraceOutput(w io.Writer) {
	if w == nil {
		c.Bus.Watch = nil
		return
	}
	t := &tracer{c: c, w: w}
	c.Bus.Watch = t.write
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

func (t *tracer) write(addr uint32, size uint8, val uint32) {
	if addr < hwdefs.IOStart || addr >= hwdefs.PaletteStart {
		return
	}

	buf := fmt.Appendf(t.buf[:0], "%04d:%03d  %-10s  ", t.c.Frame, t.c.Scanline, formatAddr(addr))
	var tmp [8]byte
	for i := range 4 {
		hexEncode(tmp[2*i:], byte(addr>>(24-8*i)))
	}
	buf = append(buf, tmp[:]...)
	buf = append(buf, " <- "...)
	for i := int(size) - 1; i >= 0; i-- {
		hexEncode(tmp[:], byte(val>>(8*i)))
		buf = append(buf, tmp[:2]...)
	}
	buf = append(buf, '\n')
	t.buf = buf
	t.w.Write(buf)
}

var addressLabels = map[uint32]string{
	hwdefs.DISPCNT:  "DISPCNT",
	hwdefs.DISPSTAT: "DISPSTAT",
	hwdefs.VCOUNT:   "VCOUNT",
	hwdefs.IE:       "IE",
	hwdefs.IF:       "IF",
	hwdefs.IME:      "IME",
}

func init() {
	for n := range 4 {
		addressLabels[hwdefs.BG0CNT+2*uint32(n)] = fmt.Sprintf("BG%dCNT", n)
		addressLabels[hwdefs.BG0HOFS+4*uint32(n)] = fmt.Sprintf("BG%dHOFS", n)
		addressLabels[hwdefs.BG0VOFS+4*uint32(n)] = fmt.Sprintf("BG%dVOFS", n)
	}
	for n := 2; n < 4; n++ {
		base := uint32(n-2) * 0x10
		for i, p := range []string{"PA", "PB", "PC", "PD"} {
			addressLabels[hwdefs.BG2PA+base+2*uint32(i)] = fmt.Sprintf("BG%d%s", n, p)
		}
		addressLabels[hwdefs.BG2X+base] = fmt.Sprintf("BG%dX", n)
		addressLabels[hwdefs.BG2X+base+2] = fmt.Sprintf("BG%dX_H", n)
		addressLabels[hwdefs.BG2Y+base] = fmt.Sprintf("BG%dY", n)
		addressLabels[hwdefs.BG2Y+base+2] = fmt.Sprintf("BG%dY_H", n)
	}
	for n := range hwdefs.NumDMA {
		base := uint32(n) * hwdefs.DMAStride
		addressLabels[hwdefs.DMA0SAD+base] = fmt.Sprintf("DMA%dSAD", n)
		addressLabels[hwdefs.DMA0DAD+base] = fmt.Sprintf("DMA%dDAD", n)
		addressLabels[hwdefs.DMA0CNT+base] = fmt.Sprintf("DMA%dCNT", n)
		addressLabels[hwdefs.DMA0CNT+base+2] = fmt.Sprintf("DMA%dCNT_H", n)
	}
}

func formatAddr(addr uint32) string {
	if label, ok := addressLabels[addr]; ok {
		return label
	}
	return fmt.Sprintf("$%08X", addr)
}
