package emu

import (
	"io"

	"github.com/go-faster/jx"

	"gbahal/gba/alloc"
	"gbahal/hw/hwdefs"
)

func encodeBlockStats(e *jx.Encoder, st alloc.BlockStats) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("allocs", func(e *jx.Encoder) { e.Int(st.Allocs) })
		e.Field("frees", func(e *jx.Encoder) { e.Int(st.Frees) })
		e.Field("blocks_used", func(e *jx.Encoder) { e.Int(st.BlocksUsed) })
		e.Field("blocks_total", func(e *jx.Encoder) { e.Int(st.BlocksTotal) })
	})
}

// EncodeStats writes the state of the tile store, of the allocators and of
// the display registers as a JSON object.
func (r *Runner) EncodeStats(e *jx.Encoder) {
	st := r.GBA.Tiled.Stats()
	bus := r.GBA.Console.Bus

	e.Obj(func(e *jx.Encoder) {
		e.Field("scene", func(e *jx.Encoder) { e.Str(r.Name) })
		e.Field("frames", func(e *jx.Encoder) { e.UInt64(r.frames) })
		e.Field("vram", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("resident", func(e *jx.Encoder) { e.Int(st.VRAM.Resident) })
				e.Field("garbage", func(e *jx.Encoder) { e.Int(st.VRAM.Garbage) })
				e.Field("dynamic", func(e *jx.Encoder) { e.Int(st.VRAM.Dynamic) })
				e.Field("references", func(e *jx.Encoder) { e.Int(st.VRAM.References) })
				e.Field("tiles", func(e *jx.Encoder) { encodeBlockStats(e, st.VRAM.Tiles) })
			})
		})
		e.Field("screenblocks", func(e *jx.Encoder) { encodeBlockStats(e, st.Screenblocks) })
		e.Field("ewram_used", func(e *jx.Encoder) { e.UInt32(r.GBA.EWRAM.Used()) })
		e.Field("registers", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("dispcnt", func(e *jx.Encoder) { e.UInt16(bus.Peek16(hwdefs.DISPCNT)) })
				e.Field("bgcnt", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for i := range uint32(4) {
							e.UInt16(bus.Peek16(hwdefs.BG0CNT + 2*i))
						}
					})
				})
			})
		})
		e.Field("dma_transfers", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, n := range r.GBA.Console.DMA.Transfers {
					e.Int(n)
				}
			})
		})
	})
}

// WriteStats writes the JSON stats of r to w.
func (r *Runner) WriteStats(w io.Writer, indent bool) error {
	var e jx.Encoder
	if indent {
		e.SetIdent(2)
	}
	r.EncodeStats(&e)
	if _, err := w.Write(append(e.Bytes(), '\n')); err != nil {
		return err
	}
	return nil
}
