package tiled

import (
	"encoding/binary"
	"fmt"

	"gbahal/emu/log"
	"gbahal/gba/alloc"
	"gbahal/gba/display"
	"gbahal/gba/interrupt"
	"gbahal/hw/hwdefs"
	"gbahal/hw/hwio"
)

// tiles are allocated in blocks of the smallest tile size
const tileBlockSize = 32

type tileKey struct {
	format TileFormat
	data   string
}

type tileEntry struct {
	key     tileKey
	index   TileIndex
	refs    int
	dynamic bool
}

// VRAMManager is the tile store: it keeps tile image data in video memory,
// storing each distinct tile content once and counting its references.
// Tiles whose count drops to zero stay resident until the next GC, so a
// tile removed and re-added within a frame keeps its location.
type VRAMManager struct {
	bus   hwio.BankIO
	crit  alloc.Critical
	store *alloc.BlockAllocator

	byKey map[tileKey]*tileEntry
	byOff map[uint32]*tileEntry // keyed by offset in the tile store
}

func newVRAMManager(bus hwio.BankIO, crit alloc.Critical) *VRAMManager {
	store := alloc.NewBlockAllocator("tiles",
		alloc.Fixed(tileStoreStart, tileStoreStart+tileStoreSize),
		tileBlockSize, crit)
	m := &VRAMManager{
		bus:   bus,
		crit:  crit,
		store: store,
		byKey: make(map[tileKey]*tileEntry),
		byOff: make(map[uint32]*tileEntry),
	}

	// The first 64 bytes hold a permanent transparent tile, index 0 in
	// both formats, so that Tile(0) always denotes an empty cell.
	addr, err := m.store.Alloc(alloc.Layout{Size: 64, Align: 64})
	if err != nil || addr != tileStoreStart {
		panic(fmt.Sprintf("tiled: can't reserve the empty tile: %08x, %v", addr, err))
	}
	m.write(addr, make([]byte, 64))
	return m
}

func (m *VRAMManager) write(addr uint32, data []byte) {
	for i := 0; i+1 < len(data); i += 2 {
		m.bus.Write16(addr+uint32(i), binary.LittleEndian.Uint16(data[i:]))
	}
}

func (m *VRAMManager) read(addr uint32, n int) []byte {
	buf := make([]byte, n)
	for i := 0; i+1 < n; i += 2 {
		binary.LittleEndian.PutUint16(buf[i:], m.bus.Read16(addr+uint32(i), true))
	}
	return buf
}

func layoutOf(f TileFormat) alloc.Layout {
	sz := uint32(f.TileSize())
	return alloc.Layout{Size: sz, Align: sz}
}

// AddTile returns the location of tile id of ts, storing its content in
// video memory unless identical content is already resident. Each call
// takes a reference, to be released with RemoveTile. Running out of video
// memory panics.
func (m *VRAMManager) AddTile(ts TileSet, id uint16) (idx TileIndex) {
	m.crit.Free(func(interrupt.CriticalSection) {
		if ts.dyn != nil {
			e := m.byOff[ts.dyn.index.storeOffset()]
			if e == nil || e.refs == 0 {
				panic("tiled: AddTile of a released dynamic tile")
			}
			e.refs++
			idx = e.index
			return
		}

		data := ts.Tile(id)
		key := tileKey{format: ts.format, data: string(data)}
		if e, ok := m.byKey[key]; ok {
			e.refs++
			idx = e.index
			return
		}

		addr, err := m.store.Alloc(layoutOf(ts.format))
		if err != nil {
			panic(fmt.Sprintf("tiled: no room for tile %d in video memory: %v", id, err))
		}
		m.write(addr, data)

		off := addr - tileStoreStart
		e := &tileEntry{key: key, index: indexAt(off, ts.format), refs: 1}
		m.byKey[key] = e
		m.byOff[off] = e
		idx = e.index

		log.ModVRAM.DebugZ("tile stored").
			Uint("id", uint(id)).
			Stringer("index", idx).
			End()
	})
	return
}

// RemoveTile releases a reference taken by AddTile. The tile stays
// resident until GC. Releasing a tile which has no references panics.
func (m *VRAMManager) RemoveTile(idx TileIndex) {
	m.crit.Free(func(interrupt.CriticalSection) {
		e := m.byOff[idx.storeOffset()]
		if e == nil || e.index.format != idx.format {
			panic(fmt.Sprintf("tiled: RemoveTile of non-resident tile %v", idx))
		}
		if e.refs == 0 {
			panic(fmt.Sprintf("tiled: RemoveTile of unreferenced tile %v", idx))
		}
		e.refs--
	})
}

// GC frees the video memory of all the tiles without references.
func (m *VRAMManager) GC() {
	m.crit.Free(func(interrupt.CriticalSection) {
		n := 0
		for off, e := range m.byOff {
			if e.refs != 0 {
				continue
			}
			m.store.Free(tileStoreStart+off, layoutOf(e.index.format))
			delete(m.byOff, off)
			if !e.dynamic && m.byKey[e.key] == e {
				delete(m.byKey, e.key)
			}
			n++
		}
		if n > 0 {
			log.ModVRAM.DebugZ("gc").Int("freed", n).End()
		}
	})
}

// ReplaceTile overwrites, in place, the resident tile holding the content of
// tile oldID of oldTS with tile newID of newTS. Its location and reference
// count are unchanged and it is now found by its new content. If the old
// content isn't resident, nothing happens.
func (m *VRAMManager) ReplaceTile(oldTS TileSet, oldID uint16, newTS TileSet, newID uint16) {
	if oldTS.format != newTS.format {
		panic(fmt.Sprintf("tiled: ReplaceTile from %v to %v tile", oldTS.format, newTS.format))
	}
	m.crit.Free(func(interrupt.CriticalSection) {
		e, ok := m.byKey[tileKey{format: oldTS.format, data: string(oldTS.Tile(oldID))}]
		if !ok {
			return
		}
		data := newTS.Tile(newID)
		key := tileKey{format: newTS.format, data: string(data)}
		if key == e.key {
			return
		}
		m.write(tileStoreStart+e.index.storeOffset(), data)

		// If another entry already holds the new content, it keeps
		// answering AddTile and this one is only reachable by index.
		delete(m.byKey, e.key)
		e.key = key
		if _, dup := m.byKey[key]; !dup {
			m.byKey[key] = e
		}
	})
}

// SetBackgroundPalettes installs palettes as the background palette banks,
// starting at bank 0.
func (m *VRAMManager) SetBackgroundPalettes(palettes []display.Palette16) {
	if len(palettes) > 16 {
		panic(fmt.Sprintf("tiled: %d palettes, at most 16 fit", len(palettes)))
	}
	for i, p := range palettes {
		m.SetBackgroundPalette(i, p)
	}
}

// SetBackgroundPalette installs p as background palette bank n.
func (m *VRAMManager) SetBackgroundPalette(n int, p display.Palette16) {
	if n < 0 || n >= 16 {
		panic(fmt.Sprintf("tiled: invalid palette bank %d", n))
	}
	m.SetBackgroundPaletteRaw(n*16, p[:])
}

// SetBackgroundPaletteRaw writes raw colours into background palette memory,
// starting at colour start.
func (m *VRAMManager) SetBackgroundPaletteRaw(start int, colours []uint16) {
	if start < 0 || start+len(colours) > 256 {
		panic(fmt.Sprintf("tiled: palette write [%d,%d) out of range", start, start+len(colours)))
	}
	for i, c := range colours {
		m.bus.Write16(hwdefs.PaletteStart+uint32(start+i)*2, c)
	}
}

// VRAMStats describes the content of the tile store.
type VRAMStats struct {
	Resident   int // entries in video memory, with or without references
	Garbage    int // entries waiting for GC
	Dynamic    int // dynamic tiles
	References int
	Tiles      alloc.BlockStats
}

func (m *VRAMManager) Stats() (st VRAMStats) {
	m.crit.Free(func(interrupt.CriticalSection) {
		for _, e := range m.byOff {
			st.Resident++
			st.References += e.refs
			if e.refs == 0 {
				st.Garbage++
			}
			if e.dynamic {
				st.Dynamic++
			}
		}
		st.Tiles = m.store.Stats()
	})
	return
}

// refs returns the reference count of the tile at idx, -1 if not resident.
func (m *VRAMManager) refs(idx TileIndex) int {
	if e := m.byOff[idx.storeOffset()]; e != nil {
		return e.refs
	}
	return -1
}
