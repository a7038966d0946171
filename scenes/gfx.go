package scenes

import (
	"gbahal/gba/display"
	"gbahal/gba/display/tiled"
)

// tileBuilder draws tiles pixel by pixel.
type tileBuilder struct {
	format tiled.TileFormat
	data   []byte
}

func newTileBuilder(format tiled.TileFormat) *tileBuilder {
	return &tileBuilder{format: format}
}

// add appends a tile whose pixel (x,y) has colour pix(x,y), and returns
// its id.
func (b *tileBuilder) add(pix func(x, y int) uint8) uint16 {
	id := uint16(len(b.data) / b.format.TileSize())
	tile := make([]byte, b.format.TileSize())
	for y := range 8 {
		for x := range 8 {
			c := pix(x, y)
			if b.format == tiled.EightBpp {
				tile[y*8+x] = c
				continue
			}
			i := (y*8 + x) / 2
			if x%2 == 0 {
				tile[i] |= c & 0xF
			} else {
				tile[i] |= (c & 0xF) << 4
			}
		}
	}
	b.data = append(b.data, tile...)
	return id
}

func (b *tileBuilder) tileSet() tiled.TileSet {
	return tiled.NewTileSet(b.data, b.format)
}

// gradient returns a palette going from colour from to colour to.
func gradient(from, to [3]uint8) display.Palette16 {
	var p display.Palette16
	for i := 1; i < 16; i++ {
		var c [3]uint8
		for j := range c {
			c[j] = uint8(int(from[j]) + (int(to[j])-int(from[j]))*(i-1)/14)
		}
		p[i] = display.RGB15(c[0], c[1], c[2])
	}
	return p
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
