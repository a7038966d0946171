package tiled

import (
	"fmt"

	"gbahal/emu/log"
	"gbahal/gba/interrupt"
)

// DynamicTile is a 4bpp tile whose pixels are written at runtime, straight
// into video memory. It isn't shared with other content.
type DynamicTile struct {
	m     *VRAMManager
	index TileIndex
}

// NewDynamicTile allocates a blank dynamic tile. It holds one reference,
// released with RemoveDynamicTile.
func (m *VRAMManager) NewDynamicTile() *DynamicTile {
	d := &DynamicTile{m: m}
	m.crit.Free(func(interrupt.CriticalSection) {
		addr, err := m.store.Alloc(layoutOf(FourBpp))
		if err != nil {
			panic(fmt.Sprintf("tiled: no room for dynamic tile: %v", err))
		}
		off := addr - tileStoreStart
		d.index = indexAt(off, FourBpp)
		m.byOff[off] = &tileEntry{index: d.index, refs: 1, dynamic: true}
		m.write(addr, make([]byte, FourBpp.TileSize()))
	})
	log.ModVRAM.DebugZ("dynamic tile").Stringer("index", d.index).End()
	return d
}

// RemoveDynamicTile releases the reference of d. Its memory is reclaimed by
// GC once no background uses it anymore.
func (m *VRAMManager) RemoveDynamicTile(d *DynamicTile) {
	m.RemoveTile(d.index)
}

func (d *DynamicTile) addr() uint32 { return tileStoreStart + d.index.storeOffset() }

func (d *DynamicTile) Index() TileIndex { return d.index }

// SetPixel sets the pixel at (x,y) to colour c of the tile's palette.
func (d *DynamicTile) SetPixel(x, y int, c uint8) {
	if x < 0 || x >= 8 || y < 0 || y >= 8 || c > 0xF {
		panic(fmt.Sprintf("tiled: invalid pixel (%d,%d)=%d", x, y, c))
	}
	off := uint32(y*4 + x/2)
	addr := d.addr() + off&^1
	v := d.m.bus.Read16(addr, false)
	shift := (off&1)*8 + uint32(x&1)*4
	v = v&^(0xF<<shift) | uint16(c)<<shift
	d.m.bus.Write16(addr, v)
}

// Fill sets all pixels to colour c.
func (d *DynamicTile) Fill(c uint8) {
	b := c&0xF | c<<4
	buf := make([]byte, FourBpp.TileSize())
	for i := range buf {
		buf[i] = b
	}
	d.m.write(d.addr(), buf)
}

// Data returns the current image bytes of the tile.
func (d *DynamicTile) Data() []byte {
	return d.m.read(d.addr(), FourBpp.TileSize())
}

// TileSet returns a one-tile tileset referring to d, for SetTile.
func (d *DynamicTile) TileSet() TileSet {
	return TileSet{format: FourBpp, dyn: d}
}

// TileSetting returns the setting to display d unflipped with palette 0.
func (d *DynamicTile) TileSetting() TileSetting {
	return TileSettingFromRaw(0, 0)
}
