package tiled

import (
	"image/color"
	"testing"

	"gbahal/gba/display"
)

func TestAffineSetTile(t *testing.T) {
	tl, c := newTiled(t)
	ts := tileset(4, EightBpp)
	bg := tl.NewAffineBackground(display.P0, Affine16x16, NoWrap)

	mustPanic(t, func() { bg.SetTile(pt(0, 0), tileset(1, FourBpp), 0) })

	bg.SetTile(pt(17, 1), ts, 2)
	idx := tl.VRAM.AddTile(ts, 2)
	tl.VRAM.RemoveTile(idx)
	if got := bg.tiles[16+1]; got != uint8(idx.Raw()) {
		t.Errorf("cell = %d, want %d (wrapped)", got, idx.Raw())
	}

	bg.Commit()
	if bg.IsDirty() {
		t.Errorf("dirty after commit")
	}
	if got := c.VRAM.Data[bg.addr-tileStoreStart+17]; got != uint8(idx.Raw()) {
		t.Errorf("VRAM map byte = %d", got)
	}

	bg.SetTile(pt(1, 1), ts, TransparentTileID)
	if bg.tiles[17] != 0 || tl.VRAM.refs(idx) != 0 {
		t.Errorf("cell not cleared")
	}
}

func TestAffineCtrl(t *testing.T) {
	tl, _ := newTiled(t)
	bg := tl.NewAffineBackground(display.P3, Affine128x128, Wrap)
	want := uint16(3 | 16<<8 | 1<<13 | 3<<14)
	if got := bg.ctrl(); got != want {
		t.Errorf("ctrl = %04x, want %04x", got, want)
	}
	if bg.Size().Width() != 128 {
		t.Errorf("width = %d", bg.Size().Width())
	}
}

func TestAffineRender(t *testing.T) {
	tl, c := newTiled(t)
	ts := tileset(4, EightBpp)
	tl.VRAM.SetBackgroundPaletteRaw(3, []uint16{0x03E0})

	bg := tl.NewAffineBackground(display.P0, Affine16x16, NoWrap)
	bg.SetTile(pt(2, 0), ts, 3)
	bg.SetScrollPos(8<<8, 0)
	bg.Commit()
	f := tl.Frame()
	bg.Show(f)
	f.Commit()
	c.RunFrame()

	green := color.RGBA{0, 0xFF, 0, 0xFF}
	if got := c.Screen.RGBAAt(8, 0); got != green {
		t.Errorf("pixel(8,0) = %v, want green", got)
	}
	if got := c.Screen.RGBAAt(0, 0); got == green {
		t.Errorf("pixel(0,0) is green")
	}
}
