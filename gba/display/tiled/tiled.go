// Package tiled implements the tiled background modes: a content-addressed
// tile store in video memory, regular and affine background maps, and the
// per-frame commit of background layers into the display registers.
package tiled

import (
	"fmt"

	"gbahal/gba/alloc"
	"gbahal/gba/display"
	"gbahal/gba/dma"
	"gbahal/hw/hwdefs"
	"gbahal/hw/hwio"
)

const (
	TransparentTileID = 0xFFFF

	tileStoreStart = hwdefs.VRAMStart
	tileStoreSize  = hwdefs.CharblockSize * 2

	screenblockStart = hwdefs.VRAMStart + hwdefs.CharblockSize*2
	screenblockSize  = 0x4000
)

// TileFormat is the colour depth of tile image data.
type TileFormat uint8

const (
	FourBpp TileFormat = iota
	EightBpp
)

// TileSize returns the size in bytes of one 8x8 tile.
func (f TileFormat) TileSize() int {
	if f == EightBpp {
		return 64
	}
	return 32
}

func (f TileFormat) String() string {
	switch f {
	case FourBpp:
		return "4bpp"
	case EightBpp:
		return "8bpp"
	}
	return fmt.Sprintf("TileFormat(%d)", uint8(f))
}

// TileSet is a blob of tile image data in a single format. Tile n starts at
// byte n*TileSize.
type TileSet struct {
	data   []byte
	format TileFormat
	dyn    *DynamicTile
}

func NewTileSet(data []byte, format TileFormat) TileSet {
	if len(data)%format.TileSize() != 0 {
		panic(fmt.Sprintf("tiled: %d bytes is not a whole number of %v tiles", len(data), format))
	}
	return TileSet{data: data, format: format}
}

func (ts TileSet) Format() TileFormat { return ts.format }

// Bytes returns the image data of all tiles.
func (ts TileSet) Bytes() []byte {
	if ts.dyn != nil {
		return ts.dyn.Data()
	}
	return ts.data
}

func (ts TileSet) NumTiles() int {
	if ts.dyn != nil {
		return 1
	}
	return len(ts.data) / ts.format.TileSize()
}

// Tile returns the image bytes of tile id.
func (ts TileSet) Tile(id uint16) []byte {
	if int(id) >= ts.NumTiles() {
		panic(fmt.Sprintf("tiled: tile %d out of range (tileset has %d tiles)", id, ts.NumTiles()))
	}
	if ts.dyn != nil {
		return ts.dyn.Data()
	}
	sz := ts.format.TileSize()
	return ts.data[int(id)*sz : int(id+1)*sz]
}

// TileIndex is the location of a tile in the tile store, counted in tiles
// of its format.
type TileIndex struct {
	index  uint16
	format TileFormat
}

func NewTileIndex(index uint16, format TileFormat) TileIndex {
	return TileIndex{index: index, format: format}
}

func (i TileIndex) Raw() uint16         { return i.index }
func (i TileIndex) Format() TileFormat  { return i.format }
func (i TileIndex) String() string      { return fmt.Sprintf("%v#%d", i.format, i.index) }
func (i TileIndex) storeOffset() uint32 { return uint32(i.index) * uint32(i.format.TileSize()) }

func indexAt(off uint32, f TileFormat) TileIndex {
	return TileIndex{index: uint16(off / uint32(f.TileSize())), format: f}
}

// Attribute bits of a background map entry.
const (
	hflipBit      = 1 << 10
	vflipBit      = 1 << 11
	paletteShift  = 12
	tileIndexMask = 1<<10 - 1
)

// TileSetting is the requested content of a cell: a tile of a tileset and
// its attributes.
type TileSetting struct {
	id     uint16
	effect uint16
}

// Blank is the setting of an empty cell.
var Blank = NewTileSetting(TransparentTileID, false, false, 0)

func NewTileSetting(id uint16, hflip, vflip bool, palette uint8) TileSetting {
	var effect uint16
	if hflip {
		effect |= hflipBit
	}
	if vflip {
		effect |= vflipBit
	}
	effect |= uint16(palette) << paletteShift
	return TileSetting{id: id, effect: effect}
}

func TileSettingFromRaw(id, effect uint16) TileSetting {
	return TileSetting{id: id, effect: effect}
}

// HFlip toggles horizontal flipping if flip is true.
func (s TileSetting) HFlip(flip bool) TileSetting {
	if flip {
		s.effect ^= hflipBit
	}
	return s
}

// VFlip toggles vertical flipping if flip is true.
func (s TileSetting) VFlip(flip bool) TileSetting {
	if flip {
		s.effect ^= vflipBit
	}
	return s
}

// Palette xors the palette selector with palette.
func (s TileSetting) Palette(palette uint8) TileSetting {
	s.effect ^= uint16(palette) << paletteShift
	return s
}

func (s TileSetting) ID() uint16     { return s.id }
func (s TileSetting) Effect() uint16 { return s.effect }
func (s TileSetting) IsBlank() bool  { return s.id == TransparentTileID }

// Tile is a committed map cell, as read by the hardware: tile index in the
// low 10 bits, attributes above. The zero Tile is an empty cell: index 0 is
// the tile store's permanent transparent tile.
type Tile uint16

func newTile(idx TileIndex, s TileSetting) Tile { return Tile(idx.index | s.effect) }

func (t Tile) Index(f TileFormat) TileIndex {
	return TileIndex{index: uint16(t) & tileIndexMask, format: f}
}

// TileData is the output of the asset compiler for a full-screen image.
type TileData struct {
	Tiles    TileSet
	Settings []TileSetting
}

// BackgroundID identifies the hardware layer a regular background was
// assigned for the current frame.
type BackgroundID uint8

// XScrollDMA returns the horizontal scroll register of the layer, for use
// with hblank transfers.
func (id BackgroundID) XScrollDMA() dma.Controllable[uint16] {
	return dma.NewControllable[uint16](hwdefs.BG0HOFS + 4*uint32(id))
}

// AffineBackgroundID identifies the hardware layer (2 or 3) an affine
// background was assigned for the current frame.
type AffineBackgroundID uint8

// Copier copies halfwords into console memory.
type Copier interface {
	Copy(dst uint32, values []uint16)
}

type busCopier struct{ bus hwio.BankIO }

func (c busCopier) Copy(dst uint32, values []uint16) {
	for i, v := range values {
		c.bus.Write16(dst+uint32(i)*2, v)
	}
}

// Tiled is the tiled video mode context. It owns the tile store and the
// screenblock area where background maps live.
type Tiled struct {
	VRAM *VRAMManager

	copier       Copier
	screenblocks *alloc.BlockAllocator
	dispcnt      display.Control
	layers       *layerRegs
}

// New creates the tiled context. Background maps are copied into video
// memory with copier; if nil, they're written directly over the bus.
func New(bus hwio.BankIO, crit alloc.Critical, copier Copier) *Tiled {
	if copier == nil {
		copier = busCopier{bus}
	}
	sb := alloc.NewBlockAllocator("screenblocks",
		alloc.Fixed(screenblockStart, screenblockStart+screenblockSize),
		hwdefs.ScreenblockSize, crit)
	return &Tiled{
		VRAM:         newVRAMManager(bus, crit),
		copier:       copier,
		screenblocks: sb,
		dispcnt:      display.NewControl(bus),
		layers:       newLayerRegs(bus),
	}
}

// Frame starts collecting the layers to show in the next frame.
func (t *Tiled) Frame() *Frame {
	return &Frame{t: t}
}

type Stats struct {
	VRAM         VRAMStats
	Screenblocks alloc.BlockStats
}

func (t *Tiled) Stats() Stats {
	return Stats{VRAM: t.VRAM.Stats(), Screenblocks: t.screenblocks.Stats()}
}
