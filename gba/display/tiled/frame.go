package tiled

import (
	"fmt"

	"gbahal/emu/log"
	"gbahal/hw/hwdefs"
	"gbahal/hw/hwio"
)

// layerRegs are the registers of the four background layers. Only layers 2
// and 3 have affine registers.
type layerRegs struct {
	cnt        [4]hwio.MMIO16
	hofs, vofs [4]hwio.MMIO16
	pa, pb     [2]hwio.MMIO16
	pc, pd     [2]hwio.MMIO16
	x, y       [2]hwio.MMIO32
}

func newLayerRegs(bus hwio.BankIO) *layerRegs {
	r := &layerRegs{}
	for i := range uint32(4) {
		r.cnt[i] = hwio.NewMMIO16(bus, hwdefs.BG0CNT+i*2)
		r.hofs[i] = hwio.NewMMIO16(bus, hwdefs.BG0HOFS+i*4)
		r.vofs[i] = hwio.NewMMIO16(bus, hwdefs.BG0VOFS+i*4)
	}
	for i := range uint32(2) {
		base := hwdefs.BG2PA + i*0x10
		r.pa[i] = hwio.NewMMIO16(bus, base)
		r.pb[i] = hwio.NewMMIO16(bus, base+2)
		r.pc[i] = hwio.NewMMIO16(bus, base+4)
		r.pd[i] = hwio.NewMMIO16(bus, base+6)
		r.x[i] = hwio.NewMMIO32(bus, hwdefs.BG2X+i*0x10)
		r.y[i] = hwio.NewMMIO32(bus, hwdefs.BG2Y+i*0x10)
	}
	return r
}

type regularLayer struct {
	ctrl             uint16
	scrollX, scrollY uint16
}

type affineLayer struct {
	ctrl      uint16
	x, y      int32
	transform AffineMatrix
}

// Frame collects the backgrounds shown in a frame and writes them into the
// display registers on Commit. Regular backgrounds take layers 0 and up, in
// Show order; affine backgrounds take layers 2 and 3. Each affine background
// costs two of the four hardware layers.
type Frame struct {
	t *Tiled

	numRegular int
	regular    [4]regularLayer
	numAffine  int
	affine     [2]affineLayer
	committed  bool
}

func (f *Frame) checkOpen() {
	if f.committed {
		panic("tiled: frame already committed")
	}
}

func (f *Frame) showRegular(l regularLayer) BackgroundID {
	f.checkOpen()
	if f.numRegular+f.numAffine*2 >= 4 {
		panic(fmt.Sprintf("tiled: can only have 4 backgrounds at once, affine counts as 2. regular: %d, affine: %d",
			f.numRegular, f.numAffine))
	}
	id := f.numRegular
	f.regular[id] = l
	f.numRegular++
	return BackgroundID(id)
}

func (f *Frame) showAffine(l affineLayer) AffineBackgroundID {
	f.checkOpen()
	if f.numAffine*2+f.numRegular >= 3 {
		panic(fmt.Sprintf("tiled: can only have 4 backgrounds at once, affine counts as 2. regular: %d, affine: %d",
			f.numRegular, f.numAffine))
	}
	f.affine[f.numAffine] = l
	f.numAffine++
	return AffineBackgroundID(f.numAffine + 1)
}

// Commit writes the video mode, the enabled layers and every shown layer's
// registers, then reclaims the tiles no longer referenced. A frame can only
// be committed once.
func (f *Frame) Commit() {
	f.checkOpen()
	f.committed = true

	mode := uint16(f.numAffine)
	regular := uint16(1)<<f.numRegular - 1
	affine := uint16(1)<<f.numAffine - 1
	enabled := regular | affine<<2

	dispcnt := f.t.dispcnt.Get()
	dispcnt &= hwdefs.DispPreserveMask
	dispcnt |= mode | enabled<<hwdefs.DispEnableShift
	f.t.dispcnt.Set(dispcnt)

	regs := f.t.layers
	for i, l := range f.regular[:f.numRegular] {
		regs.cnt[i].Set(l.ctrl)
		regs.hofs[i].Set(l.scrollX)
		regs.vofs[i].Set(l.scrollY)
	}

	for i, l := range f.affine[:f.numAffine] {
		regs.cnt[i+2].Set(l.ctrl)
		regs.x[i].Set(uint32(l.x))
		regs.y[i].Set(uint32(l.y))
		regs.pa[i].Set(uint16(l.transform.A))
		regs.pb[i].Set(uint16(l.transform.B))
		regs.pc[i].Set(uint16(l.transform.C))
		regs.pd[i].Set(uint16(l.transform.D))
	}

	log.ModBG.DebugZ("frame committed").
		Int("regular", f.numRegular).
		Int("affine", f.numAffine).
		Hex16("dispcnt", dispcnt).
		End()

	f.t.VRAM.GC()
}
