package tiled

import (
	"encoding/binary"
	"fmt"
	"image"

	"gbahal/emu/log"
	"gbahal/gba/alloc"
	"gbahal/gba/display"
	"gbahal/hw/hwdefs"
)

// AffineBackgroundSize is the size of an affine background map, in tiles.
type AffineBackgroundSize uint8

const (
	Affine16x16 AffineBackgroundSize = iota
	Affine32x32
	Affine64x64
	Affine128x128
)

// Width returns the width (and height) of the map in tiles.
func (s AffineBackgroundSize) Width() int { return 16 << s }

func (s AffineBackgroundSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width(), s.Width())
}

func (s AffineBackgroundSize) numTiles() int { return s.Width() * s.Width() }

func (s AffineBackgroundSize) layout() alloc.Layout {
	return alloc.Layout{Size: uint32(s.numTiles()), Align: hwdefs.ScreenblockSize}
}

func (s AffineBackgroundSize) offset(pos image.Point) int {
	w := s.Width()
	return (pos.Y&(w-1))*w + pos.X&(w-1)
}

// AffineWrap selects what's displayed outside of an affine map.
type AffineWrap uint8

const (
	NoWrap AffineWrap = iota // transparent
	Wrap                     // the map repeats
)

// AffineMatrix maps screen coordinates to map coordinates. Elements are
// 8.8 fixed point numbers.
type AffineMatrix struct {
	A, B, C, D int16
}

// IdentityMatrix displays the map unscaled and unrotated.
var IdentityMatrix = AffineMatrix{A: 1 << 8, D: 1 << 8}

// AffineBackground is a rotation/scaling background map. Tiles are always
// 8bpp and only the first 256 tiles of the store can be used.
type AffineBackground struct {
	t        *Tiled
	priority display.Priority
	size     AffineBackgroundSize
	wrap     AffineWrap

	tiles     []uint8
	dirty     bool
	scrollX   int32 // 24.8 fixed point
	scrollY   int32
	transform AffineMatrix
	addr      uint32
	buf       []uint16
	closed    bool
}

func (t *Tiled) NewAffineBackground(priority display.Priority, size AffineBackgroundSize, wrap AffineWrap) *AffineBackground {
	addr, err := t.screenblocks.Alloc(size.layout())
	if err != nil {
		panic(fmt.Sprintf("tiled: not enough space to allocate a %v affine background: %v", size, err))
	}
	log.ModBG.DebugZ("new affine background").
		Stringer("size", size).
		Hex32("map", addr).
		End()
	return &AffineBackground{
		t:         t,
		priority:  priority,
		size:      size,
		wrap:      wrap,
		tiles:     make([]uint8, size.numTiles()),
		dirty:     true,
		transform: IdentityMatrix,
		addr:      addr,
	}
}

func (bg *AffineBackground) Size() AffineBackgroundSize { return bg.size }

// SetScrollPos sets the map position of the top-left corner of the screen,
// in 24.8 fixed point pixels.
func (bg *AffineBackground) SetScrollPos(x, y int32)     { bg.scrollX, bg.scrollY = x, y }
func (bg *AffineBackground) ScrollPos() (x, y int32)     { return bg.scrollX, bg.scrollY }
func (bg *AffineBackground) SetTransform(m AffineMatrix) { bg.transform = m }
func (bg *AffineBackground) SetWrap(w AffineWrap)        { bg.wrap = w }

// SetTile sets the cell at pos to tile id of ts. Positions wrap around the
// map; id TransparentTileID empties the cell.
func (bg *AffineBackground) SetTile(pos image.Point, ts TileSet, id uint16) {
	if ts.format != EightBpp {
		panic(fmt.Sprintf("tiled: affine backgrounds need 8bpp tiles, got %v", ts.format))
	}
	off := bg.size.offset(pos)
	vram := bg.t.VRAM
	var tile uint8
	if id != TransparentTileID {
		idx := vram.AddTile(ts, id)
		if idx.index > 0xFF {
			vram.RemoveTile(idx)
			panic(fmt.Sprintf("tiled: tile index %d out of reach of affine backgrounds", idx.index))
		}
		tile = uint8(idx.index)
	}

	old := bg.tiles[off]
	if old != 0 {
		vram.RemoveTile(NewTileIndex(uint16(old), EightBpp))
	}
	if tile == old {
		return
	}
	bg.tiles[off] = tile
	bg.dirty = true
}

func (bg *AffineBackground) IsDirty() bool { return bg.dirty }

// Commit copies the map into video memory if it changed.
func (bg *AffineBackground) Commit() {
	if !bg.dirty {
		return
	}
	if bg.buf == nil {
		bg.buf = make([]uint16, (len(bg.tiles)+1)/2)
	}
	for i := range bg.buf {
		bg.buf[i] = binary.LittleEndian.Uint16(bg.tiles[i*2:])
	}
	bg.t.copier.Copy(bg.addr, bg.buf)
	bg.dirty = false
}

func (bg *AffineBackground) ctrl() uint16 {
	sb := uint16((bg.addr - hwdefs.VRAMStart) / hwdefs.ScreenblockSize)
	return uint16(bg.priority) | sb<<8 | uint16(bg.wrap)<<13 | uint16(bg.size)<<14
}

// Show adds the background to the layers of frame f. It takes two of the
// four hardware layers.
func (bg *AffineBackground) Show(f *Frame) AffineBackgroundID {
	if bg.closed {
		panic("tiled: Show of a closed background")
	}
	return f.showAffine(affineLayer{
		ctrl:      bg.ctrl(),
		x:         bg.scrollX,
		y:         bg.scrollY,
		transform: bg.transform,
	})
}

func (bg *AffineBackground) Clear() {
	for i, t := range bg.tiles {
		if t != 0 {
			bg.t.VRAM.RemoveTile(NewTileIndex(uint16(t), EightBpp))
		}
		bg.tiles[i] = 0
	}
	bg.dirty = true
}

func (bg *AffineBackground) Close() {
	if bg.closed {
		return
	}
	bg.Clear()
	bg.t.screenblocks.Free(bg.addr, bg.size.layout())
	bg.closed = true
}
