package scenes

import (
	"fmt"

	"gbahal/asset"
	"gbahal/gba"
	"gbahal/gba/display"
	"gbahal/gba/display/tiled"
)

// splash displays a full screen picture, either from a tile bundle or a
// built-in one.
type splash struct {
	bg *tiled.RegularBackground
}

// SplashBundle returns the built-in splash picture: a framed screen
// crossed by diagonal stripes.
func SplashBundle() *asset.Bundle {
	b := newTileBuilder(tiled.FourBpp)
	empty := b.add(func(x, y int) uint8 { return 0 })
	edge := b.add(func(x, y int) uint8 {
		if y < 3 {
			return 15
		}
		return 0
	})
	corner := b.add(func(x, y int) uint8 {
		if x < 3 || y < 3 {
			return 15
		}
		return 0
	})
	side := b.add(func(x, y int) uint8 {
		if x < 3 {
			return 15
		}
		return 0
	})
	stripe := b.add(func(x, y int) uint8 {
		return uint8(1 + mod(x+y, 8))
	})

	const w, h = 30, 20
	settings := make([]tiled.TileSetting, 0, w*h)
	for y := range h {
		for x := range w {
			top, bottom := y == 0, y == h-1
			left, right := x == 0, x == w-1
			var s tiled.TileSetting
			switch {
			case (top || bottom) && (left || right):
				s = tiled.NewTileSetting(corner, right, bottom, 0)
			case top || bottom:
				s = tiled.NewTileSetting(edge, false, bottom, 0)
			case left || right:
				s = tiled.NewTileSetting(side, right, false, 0)
			case mod(x-y, 6) < 2:
				s = tiled.NewTileSetting(stripe, false, false, 1)
			default:
				s = tiled.NewTileSetting(empty, false, false, 0)
			}
			settings = append(settings, s)
		}
	}

	palettes := []display.Palette16{
		gradient([3]uint8{31, 31, 31}, [3]uint8{31, 31, 31}),
		gradient([3]uint8{31, 8, 4}, [3]uint8{31, 28, 4}),
	}
	palettes[0][0] = display.RGB15(4, 4, 10)
	return asset.New(b.tileSet(), settings, w, palettes)
}

func newSplash(g *gba.GBA, opts Options) (Scene, error) {
	bundle := SplashBundle()
	if opts.Asset != "" {
		var err error
		if bundle, err = asset.Open(opts.Asset); err != nil {
			return nil, fmt.Errorf("splash: %w", err)
		}
	}
	if len(bundle.Settings) < display.ScreenWidth/8*display.ScreenHeight/8 {
		return nil, fmt.Errorf("splash: bundle has %d settings, not a full screen", len(bundle.Settings))
	}

	s := &splash{}
	s.bg = g.Tiled.NewRegularBackground(display.P3, tiled.Background32x32, bundle.Format())
	s.bg.FillWith(bundle.TileData())
	s.bg.Commit()
	g.Tiled.VRAM.SetBackgroundPalettes(bundle.Palettes)
	return s, nil
}

func (s *splash) Update(f *tiled.Frame) { s.bg.Show(f) }
func (s *splash) Close()                { s.bg.Close() }
