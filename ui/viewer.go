// Package ui shows a running scene in a window.
package ui

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"gbahal/emu"
	"gbahal/emu/log"
	"gbahal/hw/hwdefs"
)

// Viewer is the ebiten game running a scene. Keys:
//
//	P      pause
//	N      next frame, when paused
//	Tab    fast forward, while held
//	S      show tile store stats
//	F12    save a screenshot
//	Escape quit
type Viewer struct {
	r   *emu.Runner
	cfg emu.Config
	tex *ebiten.Image

	paused    bool
	fast      bool
	showStats bool
	stats     string
}

func NewViewer(r *emu.Runner, cfg emu.Config) *Viewer {
	ebiten.SetWindowTitle("gbahal - " + r.Name)
	ebiten.SetWindowSize(hwdefs.ScreenWidth*cfg.Video.Scale, hwdefs.ScreenHeight*cfg.Video.Scale)
	ebiten.SetVsyncEnabled(!cfg.Video.DisableVSync)
	return &Viewer{r: r, cfg: cfg}
}

func (v *Viewer) Run() error { return ebiten.RunGame(v) }

func (v *Viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		v.paused = !v.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		v.showStats = !v.showStats
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if err := v.saveScreenshot(); err != nil {
			log.ModEmu.Warnf("Failed to save screenshot: %v", err)
		}
	}
	v.fast = ebiten.IsKeyPressed(ebiten.KeyTab)

	switch {
	case v.paused:
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			v.r.Step()
		}
	case v.fast:
		v.r.Run(5)
	default:
		v.r.Step()
	}

	if v.showStats {
		var buf bytes.Buffer
		st := v.r.GBA.Tiled.Stats()
		fmt.Fprintf(&buf, "frame %d\n", v.r.Frames())
		fmt.Fprintf(&buf, "tiles %d (%d garbage)\n", st.VRAM.Resident, st.VRAM.Garbage)
		fmt.Fprintf(&buf, "refs  %d\n", st.VRAM.References)
		fmt.Fprintf(&buf, "sbs   %d/%d", st.Screenblocks.BlocksUsed, st.Screenblocks.BlocksTotal)
		v.stats = buf.String()
	}
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	if v.tex == nil {
		v.tex = ebiten.NewImage(hwdefs.ScreenWidth, hwdefs.ScreenHeight)
	}
	v.tex.WritePixels(v.r.Screen().Pix)
	screen.DrawImage(v.tex, nil)

	if v.showStats {
		ebitenutil.DebugPrintAt(screen, v.stats, 4, 4)
	}
}

func (v *Viewer) Layout(outW, outH int) (int, int) {
	return hwdefs.ScreenWidth, hwdefs.ScreenHeight
}

func (v *Viewer) saveScreenshot() error {
	name := fmt.Sprintf("%s_%s.png", v.r.Name, time.Now().Format("20060102_150405"))
	path := filepath.Join(v.cfg.Run.OutputDir, name)
	if err := emu.SavePNG(path, v.r.GBA.Console.Screenshot(), v.cfg.Video.Scale); err != nil {
		return err
	}
	log.ModEmu.Infof("Screenshot saved to %s", path)
	return nil
}
