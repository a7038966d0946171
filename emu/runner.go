// Package emu drives scenes on a simulated console, frame after frame.
package emu

import (
	"fmt"
	"image"

	"gbahal/emu/log"
	"gbahal/gba"
	"gbahal/hw"
	"gbahal/scenes"
)

// Runner runs a scene on its own console.
type Runner struct {
	GBA   *gba.GBA
	Scene scenes.Scene
	Name  string

	frames uint64
}

// NewRunner powers up a console and builds scene name on it.
func NewRunner(name string, opts scenes.Options) (*Runner, error) {
	console := hw.NewConsole()
	g := gba.New(console)
	s, err := scenes.New(name, g, opts)
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	log.ModEmu.InfoZ("scene started").String("scene", name).End()
	return &Runner{GBA: g, Scene: s, Name: name}, nil
}

// Step runs the scene for one frame: it waits for the next vblank, during
// which the scene updates and commits its backgrounds.
func (r *Runner) Step() {
	r.GBA.Frame(r.Scene.Update)
	r.frames++
}

// Run runs n frames.
func (r *Runner) Run(n int) {
	for range n {
		r.Step()
	}
}

// Frames returns the number of frames run so far.
func (r *Runner) Frames() uint64 { return r.frames }

// Screen returns the picture drawn by the console, which shows the state
// committed by the previous Step.
func (r *Runner) Screen() *image.RGBA { return r.GBA.Console.Screen }

// Screenshot draws the state committed by the last Step and returns a copy
// of it.
func (r *Runner) Screenshot() *image.RGBA {
	r.GBA.Console.WaitForVBlank()
	return r.GBA.Console.Screenshot()
}

// Close stops the scene.
func (r *Runner) Close() {
	r.Scene.Close()
	r.GBA.Close()
	log.ModEmu.InfoZ("scene stopped").String("scene", r.Name).Uint64("frames", r.frames).End()
}

// AddLogContext registers the console of r, so that log entries carry the
// current frame and scanline.
func (r *Runner) AddLogContext() {
	log.AddContext(r.GBA.Console)
}

func (r *Runner) RemoveLogContext() {
	log.RemoveContext(r.GBA.Console)
}
