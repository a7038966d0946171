package tiled

import (
	"fmt"
	"image"

	"gbahal/emu/log"
	"gbahal/gba/alloc"
	"gbahal/gba/display"
	"gbahal/hw/hwdefs"
)

// RegularBackgroundSize is the size of a regular background map, in tiles.
type RegularBackgroundSize uint8

const (
	Background32x32 RegularBackgroundSize = iota
	Background64x32
	Background32x64
	Background64x64
)

func (s RegularBackgroundSize) Width() int {
	if s == Background64x32 || s == Background64x64 {
		return 64
	}
	return 32
}

func (s RegularBackgroundSize) Height() int {
	if s == Background32x64 || s == Background64x64 {
		return 64
	}
	return 32
}

func (s RegularBackgroundSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width(), s.Height())
}

func (s RegularBackgroundSize) numTiles() int { return s.Width() * s.Height() }

func (s RegularBackgroundSize) layout() alloc.Layout {
	return alloc.Layout{Size: uint32(s.numTiles() * 2), Align: hwdefs.ScreenblockSize}
}

// offset returns the index in the map of the cell at pos. Coordinates wrap
// around; maps wider or taller than 32 tiles are made of 32x32 screenblocks.
func (s RegularBackgroundSize) offset(pos image.Point) int {
	w, h := s.Width(), s.Height()
	x, y := pos.X&(w-1), pos.Y&(h-1)
	sb := x/32 + (y/32)*(w/32)
	return sb*32*32 + x%32 + 32*(y%32)
}

// RegularBackground is a text-mode background map: a grid of 8x8 tiles,
// each with its own flip and palette attributes.
type RegularBackground struct {
	t        *Tiled
	priority display.Priority
	size     RegularBackgroundSize
	format   TileFormat

	tiles   []Tile
	dirty   bool
	scroll  image.Point
	addr    uint32 // map location in VRAM
	buf     []uint16
	flushes int
	closed  bool
}

// NewRegularBackground creates an empty background and reserves its map
// storage in video memory. It panics if there's no room left.
func (t *Tiled) NewRegularBackground(priority display.Priority, size RegularBackgroundSize, format TileFormat) *RegularBackground {
	addr, err := t.screenblocks.Alloc(size.layout())
	if err != nil {
		panic(fmt.Sprintf("tiled: not enough space to allocate a %v background: %v", size, err))
	}
	log.ModBG.DebugZ("new regular background").
		Stringer("size", size).
		Stringer("format", format).
		Hex32("map", addr).
		End()
	return &RegularBackground{
		t:        t,
		priority: priority,
		size:     size,
		format:   format,
		tiles:    make([]Tile, size.numTiles()),
		dirty:    true,
		addr:     addr,
	}
}

func (bg *RegularBackground) Size() RegularBackgroundSize    { return bg.size }
func (bg *RegularBackground) Format() TileFormat             { return bg.format }
func (bg *RegularBackground) Priority() display.Priority     { return bg.priority }
func (bg *RegularBackground) SetPriority(p display.Priority) { bg.priority = p }

// SetScrollPos sets the position of the top-left corner of the screen in the
// map, in pixels. It's applied at the next Show.
func (bg *RegularBackground) SetScrollPos(pos image.Point) { bg.scroll = pos }
func (bg *RegularBackground) ScrollPos() image.Point       { return bg.scroll }

func (bg *RegularBackground) checkFormat(ts TileSet) {
	if ts.format != bg.format {
		panic(fmt.Sprintf("tiled: cannot set a %v tile on a %v background", ts.format, bg.format))
	}
}

// SetTile sets the cell at pos to tile s of tileset ts. Positions wrap
// around the map.
func (bg *RegularBackground) SetTile(pos image.Point, ts TileSet, s TileSetting) {
	bg.checkFormat(ts)
	bg.setTileAt(bg.size.offset(pos), ts, s)
}

// FillWith fills the visible part of the map (30x20 tiles from the origin)
// with a full-screen image.
func (bg *RegularBackground) FillWith(data TileData) {
	const cols, rows = display.ScreenWidth / 8, display.ScreenHeight / 8
	if len(data.Settings) < cols*rows {
		panic(fmt.Sprintf("tiled: FillWith needs %d tile settings, got %d", cols*rows, len(data.Settings)))
	}
	bg.checkFormat(data.Tiles)
	for y := range rows {
		for x := range cols {
			bg.setTileAt(y*32+x, data.Tiles, data.Settings[y*cols+x])
		}
	}
}

func (bg *RegularBackground) setTileAt(off int, ts TileSet, s TileSetting) {
	vram := bg.t.VRAM
	var tile Tile
	if !s.IsBlank() {
		tile = newTile(vram.AddTile(ts, s.id), s)
	}

	// take the new reference first, the old one may be the tile's last
	old := bg.tiles[off]
	if old != 0 {
		vram.RemoveTile(old.Index(bg.format))
	}
	if tile == old {
		return
	}
	bg.tiles[off] = tile
	bg.dirty = true
}

// Tile returns the committed form of the cell at pos.
func (bg *RegularBackground) Tile(pos image.Point) Tile {
	return bg.tiles[bg.size.offset(pos)]
}

func (bg *RegularBackground) IsDirty() bool { return bg.dirty }

// Commit copies the map into video memory if it changed since the last
// commit.
func (bg *RegularBackground) Commit() {
	if !bg.dirty {
		return
	}
	if bg.buf == nil {
		bg.buf = make([]uint16, len(bg.tiles))
	}
	for i, t := range bg.tiles {
		bg.buf[i] = uint16(t)
	}
	bg.t.copier.Copy(bg.addr, bg.buf)
	bg.flushes++
	bg.dirty = false
}

func (bg *RegularBackground) ctrl() uint16 {
	var colour uint16
	if bg.format == EightBpp {
		colour = 1
	}
	sb := uint16((bg.addr - hwdefs.VRAMStart) / hwdefs.ScreenblockSize)
	return uint16(bg.priority) | colour<<7 | sb<<8 | uint16(bg.size)<<14
}

// Show adds the background to the layers of frame f.
func (bg *RegularBackground) Show(f *Frame) BackgroundID {
	if bg.closed {
		panic("tiled: Show of a closed background")
	}
	return f.showRegular(regularLayer{
		ctrl:    bg.ctrl(),
		scrollX: uint16(bg.scroll.X),
		scrollY: uint16(bg.scroll.Y),
	})
}

// Clear empties all the cells, releasing their tiles.
func (bg *RegularBackground) Clear() {
	for i, t := range bg.tiles {
		if t != 0 {
			bg.t.VRAM.RemoveTile(t.Index(bg.format))
		}
		bg.tiles[i] = 0
	}
	bg.dirty = true
}

// Close clears the background and frees its map storage. The background
// can't be used afterwards. Closing twice is a no-op.
func (bg *RegularBackground) Close() {
	if bg.closed {
		return
	}
	bg.Clear()
	bg.t.screenblocks.Free(bg.addr, bg.size.layout())
	bg.closed = true
}
