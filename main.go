package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"gbahal/asset"
	"gbahal/emu"
	"gbahal/emu/log"
	"gbahal/scenes"
	_ "gbahal/script"
	"gbahal/ui"
)

func main() {
	cli := parseArgs(os.Args[1:])

	path := cli.Config
	if path == "" {
		path = emu.DefaultConfigPath()
	}
	cfg := emu.LoadConfigOrDefault(path)
	log.EnableDebugModules(cfg.LogModules())

	switch cli.mode {
	case runMode:
		runMain(cli.Run, cfg)
	case screenshotMode:
		checkf(screenshotMain(cli.Screenshot, cfg), "screenshot failed")
	case statsMode:
		checkf(statsMain(cli.Stats, cfg), "stats failed")
	case assetInfosMode:
		b, err := asset.Open(cli.AssetInfos.Path)
		checkf(err, "failed to open tile bundle")
		b.PrintInfos(os.Stdout)
	case versionMode:
		printVersion()
	}
}

// sceneOptions merges the command line flags into the configuration.
func sceneOptions(f SceneFlags, cfg emu.Config) scenes.Options {
	opts := scenes.Options{Script: cfg.Run.Script, Asset: cfg.Run.Asset}
	if f.Script != "" {
		opts.Script = f.Script
	}
	if f.Asset != "" {
		opts.Asset = f.Asset
	}
	return opts
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func runMain(args Run, cfg emu.Config) {
	cfg.Video.Scale = orDefault(args.Scale, cfg.Video.Scale)
	cfg.Check()

	r, err := emu.NewRunner(orDefault(args.Scene, cfg.Run.Scene), sceneOptions(args.SceneFlags, cfg))
	checkf(err, "failed to start scene")
	r.AddLogContext()
	defer r.Close()

	if args.Trace != nil {
		defer args.Trace.Close()
		r.GBA.Console.SetTraceOutput(args.Trace)
	}

	checkf(ui.NewViewer(r, cfg).Run(), "viewer error")
}

// screenshotMain runs each scene on its own console, concurrently.
func screenshotMain(args Screenshot, cfg emu.Config) error {
	cfg.Run.Frames = orDefault(args.Frames, cfg.Run.Frames)
	cfg.Run.OutputDir = orDefault(args.Out, cfg.Run.OutputDir)
	cfg.Video.Scale = orDefault(args.Scale, cfg.Video.Scale)
	cfg.Check()

	names := args.Scenes
	if len(names) == 0 {
		for _, name := range scenes.Names() {
			if name != "script" || args.Script != "" || cfg.Run.Script != "" {
				names = append(names, name)
			}
		}
	}
	if err := os.MkdirAll(cfg.Run.OutputDir, 0755); err != nil {
		return err
	}

	opts := sceneOptions(args.SceneFlags, cfg)
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, name := range names {
		g.Go(func() error {
			r, err := emu.NewRunner(name, opts)
			if err != nil {
				return err
			}
			defer r.Close()

			r.Run(cfg.Run.Frames)
			path := filepath.Join(cfg.Run.OutputDir, name+".png")
			if err := emu.SavePNG(path, r.Screenshot(), cfg.Video.Scale); err != nil {
				return fmt.Errorf("scene %s: %w", name, err)
			}
			fmt.Println(path)
			return nil
		})
	}
	return g.Wait()
}

func statsMain(args Stats, cfg emu.Config) error {
	cfg.Run.Frames = orDefault(args.Frames, cfg.Run.Frames)
	cfg.Check()

	r, err := emu.NewRunner(orDefault(args.Scene, cfg.Run.Scene), sceneOptions(args.SceneFlags, cfg))
	if err != nil {
		return err
	}
	defer r.Close()

	if args.Trace != nil {
		defer args.Trace.Close()
		r.GBA.Console.SetTraceOutput(args.Trace)
	}
	r.Run(cfg.Run.Frames)
	return r.WriteStats(os.Stdout, args.Indent)
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Printf("gbahal %s %s/%s %s\n", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}
