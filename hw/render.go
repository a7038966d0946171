package hw

import (
	"encoding/binary"
	"image/color"
	"sort"

	"gbahal/hw/hwdefs"
	"gbahal/hw/hwio"
)

type layer struct {
	bg     int
	prio   uint16
	affine bool
}

// layers returns the backgrounds visible in the current mode, sorted by
// drawing order: lower priority value first, then lower background number.
func (c *Console) layers() []layer {
	dispcnt := c.LCD.DISPCNT.Value
	var ls []layer
	for bg := range 4 {
		if dispcnt&(hwdefs.DispBG0Enable<<bg) == 0 {
			continue
		}
		var affine bool
		switch dispcnt & hwdefs.DispModeMask {
		case 0:
		case 1:
			if bg == 3 {
				continue
			}
			affine = bg == 2
		case 2:
			if bg < 2 {
				continue
			}
			affine = true
		default:
			// bitmap modes aren't emulated
			continue
		}
		ls = append(ls, layer{bg: bg, prio: c.LCD.bgcnt(bg) & 3, affine: affine})
	}
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].prio < ls[j].prio })
	return ls
}

func (c *Console) renderLine(y int) {
	row := c.Screen.Pix[y*c.Screen.Stride : (y+1)*c.Screen.Stride]

	if c.LCD.DISPCNT.Value&hwdefs.DispForcedBlank != 0 {
		for i := range row {
			row[i] = 0xFF
		}
		return
	}

	layers := c.layers()
	for x := range hwdefs.ScreenWidth {
		var idx uint16
		for _, l := range layers {
			var i uint16
			var ok bool
			if l.affine {
				i, ok = c.affinePixel(l.bg, x)
			} else {
				i, ok = c.regularPixel(l.bg, x, y)
			}
			if ok {
				idx = i
				break
			}
		}
		rgb := RGB555(c.paletteColor(idx))
		px := row[x*4 : x*4+4]
		px[0], px[1], px[2], px[3] = rgb.R, rgb.G, rgb.B, rgb.A
	}
}

func (c *Console) vram8(off int) (uint8, bool) {
	if off < 0 || off >= len(c.VRAM.Data) {
		return 0, false
	}
	return c.VRAM.Data[off], true
}

func (c *Console) paletteColor(idx uint16) uint16 {
	return binary.LittleEndian.Uint16(c.Palette.Data[int(idx)*2:])
}

// regularPixel returns the palette index of the pixel of background bg
// visible at screen position (x,y). ok is false if the pixel is transparent.
func (c *Console) regularPixel(bg, x, y int) (idx uint16, ok bool) {
	cnt := c.LCD.bgcnt(bg)
	hofs, vofs := c.LCD.scroll(bg)

	size := hwio.Bits16(cnt, 14, 2)
	w, h := 256<<(size&1), 256<<(size>>1)
	px, py := (x+hofs)&(w-1), (y+vofs)&(h-1)
	tx, ty := px/8, py/8

	sbase := int(hwio.Bits16(cnt, 8, 5)) * hwdefs.ScreenblockSize
	sb := tx/32 + (ty/32)*(w/256)
	eoff := sbase + sb*hwdefs.ScreenblockSize + ((ty%32)*32+tx%32)*2
	if eoff+1 >= len(c.VRAM.Data) {
		return 0, false
	}
	entry := binary.LittleEndian.Uint16(c.VRAM.Data[eoff:])

	fx, fy := px%8, py%8
	if hwio.GetBit16(entry, 10) {
		fx = 7 - fx
	}
	if hwio.GetBit16(entry, 11) {
		fy = 7 - fy
	}

	cbase := int(hwio.Bits16(cnt, 2, 2)) * hwdefs.CharblockSize
	id := int(hwio.Bits16(entry, 0, 10))
	if hwio.GetBit16(cnt, 7) {
		ci, _ := c.vram8(cbase + id*64 + fy*8 + fx)
		return uint16(ci), ci != 0
	}
	b, _ := c.vram8(cbase + id*32 + fy*4 + fx/2)
	if fx&1 != 0 {
		b >>= 4
	}
	b &= 0xF
	return hwio.Bits16(entry, 12, 4)*16 + uint16(b), b != 0
}

// affinePixel returns the palette index of the pixel of affine background bg
// visible at column x of the line being drawn.
func (c *Console) affinePixel(bg, x int) (idx uint16, ok bool) {
	cnt := c.LCD.bgcnt(bg)
	pa, _, pc, _ := c.LCD.matrix(bg)
	rx, ry := c.LCD.RefPoint(bg)

	dim := 128 << hwio.Bits16(cnt, 14, 2)
	tx := int((rx + int32(pa)*int32(x)) >> 8)
	ty := int((ry + int32(pc)*int32(x)) >> 8)
	if hwio.GetBit16(cnt, 13) {
		tx &= dim - 1
		ty &= dim - 1
	} else if tx < 0 || ty < 0 || tx >= dim || ty >= dim {
		return 0, false
	}

	sbase := int(hwio.Bits16(cnt, 8, 5)) * hwdefs.ScreenblockSize
	id, ok := c.vram8(sbase + (ty/8)*(dim/8) + tx/8)
	if !ok {
		return 0, false
	}
	cbase := int(hwio.Bits16(cnt, 2, 2)) * hwdefs.CharblockSize
	ci, _ := c.vram8(cbase + int(id)*64 + (ty%8)*8 + tx%8)
	return uint16(ci), ci != 0
}

// RGB555 converts a 15-bit console color into RGBA.
func RGB555(c uint16) color.RGBA {
	expand := func(v uint16) uint8 {
		v &= 0x1F
		return uint8(v<<3 | v>>2)
	}
	return color.RGBA{R: expand(c), G: expand(c >> 5), B: expand(c >> 10), A: 0xFF}
}
