// Package asset reads and writes tile bundles, the output of the asset
// compiler: a tile blob, the settings of a full background and its palettes.
package asset

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gbahal/emu/log"
	"gbahal/gba/display"
	"gbahal/gba/display/tiled"
)

const (
	Magic   = "GBT\x1a"
	Version = 1

	headerSize = 16
)

type header struct {
	raw [headerSize]byte
}

func (hdr *header) Version() uint8               { return hdr.raw[4] }
func (hdr *header) numTiles() int                { return int(binary.LittleEndian.Uint16(hdr.raw[6:])) }
func (hdr *header) numSettings() int             { return int(binary.LittleEndian.Uint16(hdr.raw[8:])) }
func (hdr *header) numPalettes() int             { return int(binary.LittleEndian.Uint16(hdr.raw[10:])) }
func (hdr *header) Width() int                   { return int(binary.LittleEndian.Uint16(hdr.raw[12:])) }
func (hdr *header) Format() tiled.TileFormat     { return tiled.TileFormat(hdr.raw[5]) }
func (hdr *header) setFormat(f tiled.TileFormat) { hdr.raw[5] = uint8(f) }

func (hdr *header) decode(p []byte) error {
	if len(p) < headerSize {
		return fmt.Errorf("too small, needs %d bytes", headerSize)
	}
	if string(p[:4]) != Magic {
		return fmt.Errorf("invalid magic number")
	}
	copy(hdr.raw[:], p[:headerSize])
	if v := hdr.Version(); v != Version {
		return fmt.Errorf("unsupported version %d", v)
	}
	if f := hdr.Format(); f != tiled.FourBpp && f != tiled.EightBpp {
		return fmt.Errorf("unknown tile format %d", f)
	}
	return nil
}

// Bundle is the content of a tile bundle file.
type Bundle struct {
	header
	Tiles    []byte              // tile data, in Format
	Settings []tiled.TileSetting // settings of a whole background, row-major
	Palettes []display.Palette16
}

// New creates a bundle from its parts. Settings are laid out in rows of
// width cells.
func New(ts tiled.TileSet, settings []tiled.TileSetting, width int, palettes []display.Palette16) *Bundle {
	b := &Bundle{
		Settings: settings,
		Palettes: palettes,
	}
	b.Tiles = ts.Bytes()
	copy(b.raw[:4], Magic)
	b.raw[4] = Version
	b.setFormat(ts.Format())
	binary.LittleEndian.PutUint16(b.raw[6:], uint16(ts.NumTiles()))
	binary.LittleEndian.PutUint16(b.raw[8:], uint16(len(settings)))
	binary.LittleEndian.PutUint16(b.raw[10:], uint16(len(palettes)))
	binary.LittleEndian.PutUint16(b.raw[12:], uint16(width))
	return b
}

// Open loads a bundle from file.
func Open(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b := new(Bundle)
	if _, err := b.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.ModAsset.DebugZ("bundle loaded").
		String("path", path).
		Stringer("format", b.Format()).
		Int("tiles", b.NumTiles()).
		Int("settings", len(b.Settings)).
		End()
	return b, nil
}

// ReadFrom implements io.ReaderFrom interface
func (b *Bundle) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	if err := b.decode(buf); err != nil {
		return 0, fmt.Errorf("failed to decode header: %w", err)
	}
	off := headerSize

	// tiles
	tilesz := b.numTiles() * b.Format().TileSize()
	if len(buf) < off+tilesz {
		return 0, fmt.Errorf("incomplete tiles section")
	}
	b.Tiles = buf[off : off+tilesz]
	off += tilesz

	// settings
	nset := b.numSettings()
	if len(buf) < off+nset*4 {
		return 0, fmt.Errorf("incomplete settings section")
	}
	b.Settings = make([]tiled.TileSetting, nset)
	for i := range b.Settings {
		id := binary.LittleEndian.Uint16(buf[off:])
		effect := binary.LittleEndian.Uint16(buf[off+2:])
		b.Settings[i] = tiled.TileSettingFromRaw(id, effect)
		off += 4
	}

	// palettes
	npal := b.numPalettes()
	if len(buf) < off+npal*32 {
		return 0, fmt.Errorf("incomplete palettes section")
	}
	b.Palettes = make([]display.Palette16, npal)
	for i := range b.Palettes {
		for j := range b.Palettes[i] {
			b.Palettes[i][j] = binary.LittleEndian.Uint16(buf[off:])
			off += 2
		}
	}

	return int64(len(buf)), nil
}

// WriteTo implements io.WriterTo interface
func (b *Bundle) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 0, headerSize+len(b.Tiles)+len(b.Settings)*4+len(b.Palettes)*32)
	buf = append(buf, b.raw[:]...)
	buf = append(buf, b.Tiles...)
	for _, s := range b.Settings {
		buf = binary.LittleEndian.AppendUint16(buf, s.ID())
		buf = binary.LittleEndian.AppendUint16(buf, s.Effect())
	}
	for _, p := range b.Palettes {
		for _, c := range p {
			buf = binary.LittleEndian.AppendUint16(buf, c)
		}
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// Save writes the bundle to file.
func (b *Bundle) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := b.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (b *Bundle) NumTiles() int { return len(b.Tiles) / b.Format().TileSize() }

// TileSet returns the bundle tiles.
func (b *Bundle) TileSet() tiled.TileSet {
	return tiled.NewTileSet(b.Tiles, b.Format())
}

// TileData returns the bundle content in a form suitable for
// RegularBackground.FillWith.
func (b *Bundle) TileData() tiled.TileData {
	return tiled.TileData{Tiles: b.TileSet(), Settings: b.Settings}
}

// PrintInfos writes a human readable summary of the bundle.
func (b *Bundle) PrintInfos(w io.Writer) {
	fmt.Fprintf(w, "version:  %d\n", b.Version())
	fmt.Fprintf(w, "format:   %v\n", b.Format())
	fmt.Fprintf(w, "tiles:    %d (%d bytes)\n", b.NumTiles(), len(b.Tiles))
	fmt.Fprintf(w, "settings: %d", len(b.Settings))
	if width := b.Width(); width != 0 {
		fmt.Fprintf(w, " (%dx%d)", width, len(b.Settings)/width)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "palettes: %d\n", len(b.Palettes))
}
