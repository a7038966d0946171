// Package scenes holds the built-in demo programs. Each one drives the
// backgrounds of a GBA frame after frame, exercising a part of the HAL.
package scenes

import (
	"fmt"
	"slices"

	"gbahal/gba"
	"gbahal/gba/display/tiled"
)

// Scene is a program running on the HAL.
type Scene interface {
	// Update is called once per frame, during vblank. It shows the scene's
	// backgrounds in f, which is committed right after.
	Update(f *tiled.Frame)

	// Close releases the backgrounds and the video memory of the scene.
	Close()
}

// Options configures scene creation.
type Options struct {
	Asset  string // path to a tile bundle, for the scenes that display one
	Script string // path to a Lua scene
}

type Builder func(g *gba.GBA, opts Options) (Scene, error)

var builders = map[string]Builder{
	"water":   newWater,
	"splash":  newSplash,
	"scroll":  newScroll,
	"wobble":  newWobble,
	"affine":  newAffine,
	"dynamic": newDynamic,
}

// Register adds a scene. It panics if name is already taken.
func Register(name string, b Builder) {
	if _, ok := builders[name]; ok {
		panic(fmt.Sprintf("scenes: %q already registered", name))
	}
	builders[name] = b
}

// Names returns the sorted list of scene names.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New builds scene name on g.
func New(name string, g *gba.GBA, opts Options) (Scene, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q", name)
	}
	return b(g, opts)
}
