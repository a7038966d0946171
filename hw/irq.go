package hw

import (
	"gbahal/emu/log"
	"gbahal/hw/hwdefs"
	"gbahal/hw/hwio"
)

// IRQ holds the interrupt controller registers. Requests accumulate in IF and
// are delivered to Handler when both IME and the matching IE bit are set.
type IRQ struct {
	IE  hwio.Reg16 `hwio:"offset=0x00,rwmask=0x3FFF,wcb"`
	IF  hwio.Reg16 `hwio:"offset=0x02,rwmask=0x3FFF,wcb"`
	IME hwio.Reg16 `hwio:"offset=0x08,rwmask=0x1,wcb"`

	// Handler is called with the set of sources being serviced. The
	// sources are acknowledged before the call.
	Handler func(hwdefs.IRQSource)

	servicing bool
}

func (irq *IRQ) init() {
	hwio.MustInitRegs(irq)
}

func (irq *IRQ) WriteIE(_, _ uint16) { irq.dispatch() }

// Writing a 1 to an IF bit acknowledges the request.
func (irq *IRQ) WriteIF(old, val uint16) { irq.IF.Value = old &^ val }

func (irq *IRQ) WriteIME(_, _ uint16) { irq.dispatch() }

// Raise requests the given interrupt sources.
func (irq *IRQ) Raise(src hwdefs.IRQSource) {
	irq.IF.Value |= uint16(src)
	irq.dispatch()
}

// Pending returns the requested sources that are enabled in IE.
func (irq *IRQ) Pending() hwdefs.IRQSource {
	return hwdefs.IRQSource(irq.IE.Value & irq.IF.Value)
}

func (irq *IRQ) dispatch() {
	if irq.servicing || irq.IME.Value&1 == 0 {
		return
	}
	for {
		src := irq.Pending()
		if src == 0 {
			return
		}
		irq.IF.Value &^= uint16(src)
		if irq.Handler == nil {
			log.ModIRQ.WarnZ("interrupt without handler").Stringer("src", src).End()
			continue
		}
		log.ModIRQ.DebugZ("deliver").Stringer("src", src).End()
		irq.servicing = true
		irq.Handler(src)
		irq.servicing = false
	}
}

// SetHandler installs the interrupt handler.
func (irq *IRQ) SetHandler(fn func(hwdefs.IRQSource)) { irq.Handler = fn }
