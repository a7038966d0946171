package tiled

import (
	"fmt"
	"image"

	"gbahal/emu/log"
	"gbahal/gba/display"
)

// Resolver returns the content of the cell at tile coordinates pos of a
// virtual, unbounded map.
type Resolver func(pos image.Point) (TileSet, TileSetting)

// UpdateStatus tells what SetPos had to redraw.
type UpdateStatus uint8

const (
	Unchanged  UpdateStatus = iota // same visible cells
	EdgeRefill                     // only the cells entering the screen
	FullRefill                     // every visible cell
)

func (s UpdateStatus) String() string {
	switch s {
	case Unchanged:
		return "unchanged"
	case EdgeRefill:
		return "edge refill"
	case FullRefill:
		return "full refill"
	}
	return fmt.Sprintf("UpdateStatus(%d)", uint8(s))
}

// InfiniteScrolledMap shows a window of an unbounded map through a regular
// background. The background map is used as a ring: when the window moves,
// only the cells that become visible are resolved and written.
type InfiniteScrolledMap struct {
	bg    *RegularBackground
	pos   image.Point
	shown image.Rectangle // visible cells, in tile coordinates
	init  bool
}

// NewInfiniteScrolledMap wraps bg, which the map takes ownership of.
func NewInfiniteScrolledMap(bg *RegularBackground) *InfiniteScrolledMap {
	return &InfiniteScrolledMap{bg: bg}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// visible returns the tiles covered by the screen when its top-left corner
// is at pixel pos.
func visible(pos image.Point) image.Rectangle {
	return image.Rect(
		floorDiv(pos.X, 8), floorDiv(pos.Y, 8),
		floorDiv(pos.X+display.ScreenWidth-1, 8)+1, floorDiv(pos.Y+display.ScreenHeight-1, 8)+1,
	)
}

// SetPos moves the top-left corner of the screen to pixel pos of the virtual
// map, resolving the cells that become visible.
func (m *InfiniteScrolledMap) SetPos(pos image.Point, resolve Resolver) UpdateStatus {
	rect := visible(pos)
	m.bg.SetScrollPos(pos)
	m.pos = pos

	status := EdgeRefill
	if !m.init || !rect.Overlaps(m.shown) {
		status = FullRefill
	} else if rect == m.shown {
		return Unchanged
	}

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			p := image.Pt(x, y)
			if status == EdgeRefill && p.In(m.shown) {
				continue
			}
			ts, s := resolve(p)
			m.bg.SetTile(p, ts, s)
		}
	}
	m.shown = rect
	m.init = true
	log.ModBG.DebugZ("map scrolled").
		Point("pos", pos).
		Stringer("status", status).
		End()
	return status
}

func (m *InfiniteScrolledMap) Pos() image.Point { return m.pos }

// Background returns the underlying background.
func (m *InfiniteScrolledMap) Background() *RegularBackground { return m.bg }

func (m *InfiniteScrolledMap) Show(f *Frame) BackgroundID { return m.bg.Show(f) }
func (m *InfiniteScrolledMap) Commit()                    { m.bg.Commit() }

// Clear empties the background; the next SetPos does a full refill.
func (m *InfiniteScrolledMap) Clear() {
	m.bg.Clear()
	m.init = false
}

func (m *InfiniteScrolledMap) Close() { m.bg.Close() }
