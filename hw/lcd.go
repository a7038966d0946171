package hw

import (
	"gbahal/hw/hwio"
)

// DISPSTAT bits
const (
	statVBlank    = 1 << 0
	statHBlank    = 1 << 1
	statVCount    = 1 << 2
	statVBlankIRQ = 1 << 3
	statHBlankIRQ = 1 << 4
)

// LCD holds the display controller registers, mapped at the start of the I/O
// area.
type LCD struct {
	DISPCNT  hwio.Reg16 `hwio:"offset=0x00"`
	DISPSTAT hwio.Reg16 `hwio:"offset=0x04,rwmask=0xFFF8"`
	VCOUNT   hwio.Reg16 `hwio:"offset=0x06,readonly"`

	BG0CNT hwio.Reg16 `hwio:"offset=0x08"`
	BG1CNT hwio.Reg16 `hwio:"offset=0x0A"`
	BG2CNT hwio.Reg16 `hwio:"offset=0x0C"`
	BG3CNT hwio.Reg16 `hwio:"offset=0x0E"`

	BG0HOFS hwio.Reg16 `hwio:"offset=0x10,rwmask=0x1FF,writeonly"`
	BG0VOFS hwio.Reg16 `hwio:"offset=0x12,rwmask=0x1FF,writeonly"`
	BG1HOFS hwio.Reg16 `hwio:"offset=0x14,rwmask=0x1FF,writeonly"`
	BG1VOFS hwio.Reg16 `hwio:"offset=0x16,rwmask=0x1FF,writeonly"`
	BG2HOFS hwio.Reg16 `hwio:"offset=0x18,rwmask=0x1FF,writeonly"`
	BG2VOFS hwio.Reg16 `hwio:"offset=0x1A,rwmask=0x1FF,writeonly"`
	BG3HOFS hwio.Reg16 `hwio:"offset=0x1C,rwmask=0x1FF,writeonly"`
	BG3VOFS hwio.Reg16 `hwio:"offset=0x1E,rwmask=0x1FF,writeonly"`

	BG2PA hwio.Reg16 `hwio:"offset=0x20,reset=0x100,writeonly"`
	BG2PB hwio.Reg16 `hwio:"offset=0x22,writeonly"`
	BG2PC hwio.Reg16 `hwio:"offset=0x24,writeonly"`
	BG2PD hwio.Reg16 `hwio:"offset=0x26,reset=0x100,writeonly"`
	BG2X  hwio.Reg32 `hwio:"offset=0x28,rwmask=0x0FFFFFFF,writeonly,wcb"`
	BG2Y  hwio.Reg32 `hwio:"offset=0x2C,rwmask=0x0FFFFFFF,writeonly,wcb"`

	BG3PA hwio.Reg16 `hwio:"offset=0x30,reset=0x100,writeonly"`
	BG3PB hwio.Reg16 `hwio:"offset=0x32,writeonly"`
	BG3PC hwio.Reg16 `hwio:"offset=0x34,writeonly"`
	BG3PD hwio.Reg16 `hwio:"offset=0x36,reset=0x100,writeonly"`
	BG3X  hwio.Reg32 `hwio:"offset=0x38,rwmask=0x0FFFFFFF,writeonly,wcb"`
	BG3Y  hwio.Reg32 `hwio:"offset=0x3C,rwmask=0x0FFFFFFF,writeonly,wcb"`

	// internal reference points of the affine backgrounds (BG2, BG3), in
	// 20.8 fixed point. They're reloaded from BGnX/BGnY at vblank or when
	// written, and advanced by PB/PD after each drawn line.
	ref [2]struct{ x, y int32 }
}

func (l *LCD) init() {
	hwio.MustInitRegs(l)
}

func (l *LCD) setStatus(bit uint16, on bool) {
	if on {
		l.DISPSTAT.Value |= bit
	} else {
		l.DISPSTAT.Value &^= bit
	}
}

// 28-bit signed fixed point
func sext28(v uint32) int32 { return int32(v<<4) >> 4 }

func (l *LCD) WriteBG2X(_, val uint32) { l.ref[0].x = sext28(val) }
func (l *LCD) WriteBG2Y(_, val uint32) { l.ref[0].y = sext28(val) }
func (l *LCD) WriteBG3X(_, val uint32) { l.ref[1].x = sext28(val) }
func (l *LCD) WriteBG3Y(_, val uint32) { l.ref[1].y = sext28(val) }

func (l *LCD) latchAffine() {
	l.ref[0].x, l.ref[0].y = sext28(l.BG2X.Value), sext28(l.BG2Y.Value)
	l.ref[1].x, l.ref[1].y = sext28(l.BG3X.Value), sext28(l.BG3Y.Value)
}

func (l *LCD) advanceAffine() {
	for i := range l.ref {
		_, pb, _, pd := l.matrix(i + 2)
		l.ref[i].x += int32(pb)
		l.ref[i].y += int32(pd)
	}
}

func (l *LCD) bgcnt(bg int) uint16 {
	return [4]*hwio.Reg16{&l.BG0CNT, &l.BG1CNT, &l.BG2CNT, &l.BG3CNT}[bg].Value
}

func (l *LCD) scroll(bg int) (x, y int) {
	regs := [4][2]*hwio.Reg16{
		{&l.BG0HOFS, &l.BG0VOFS},
		{&l.BG1HOFS, &l.BG1VOFS},
		{&l.BG2HOFS, &l.BG2VOFS},
		{&l.BG3HOFS, &l.BG3VOFS},
	}[bg]
	return int(regs[0].Value), int(regs[1].Value)
}

// matrix returns the transform of affine background bg (2 or 3), in 8.8
// fixed point.
func (l *LCD) matrix(bg int) (pa, pb, pc, pd int16) {
	if bg == 2 {
		return int16(l.BG2PA.Value), int16(l.BG2PB.Value), int16(l.BG2PC.Value), int16(l.BG2PD.Value)
	}
	return int16(l.BG3PA.Value), int16(l.BG3PB.Value), int16(l.BG3PC.Value), int16(l.BG3PD.Value)
}

// RefPoint returns the current internal reference point of affine
// background bg (2 or 3).
func (l *LCD) RefPoint(bg int) (x, y int32) {
	r := l.ref[bg-2]
	return r.x, r.y
}
