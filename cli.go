package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"gbahal/emu/log"
	"gbahal/scenes"
)

type mode byte

const (
	runMode        mode = iota // Show a scene in a window
	screenshotMode             // Save scene screenshots
	statsMode                  // Print scene stats
	assetInfosMode             // Show tile bundle infos
	versionMode                // Show version
)

type (
	CLI struct {
		Run        Run        `cmd:"" help:"Show a scene in a window. (default command)" default:"withargs"`
		Screenshot Screenshot `cmd:"" help:"Run scenes and save their last frame as PNG."`
		Stats      Stats      `cmd:"" help:"Run a scene and print the tile store and register state as JSON."`
		AssetInfos AssetInfos `cmd:"" help:"Show tile bundle infos." name:"asset-infos"`
		Version    Version    `cmd:"" help:"Show version."`

		Config string     `name:"config" help:"${config_help}" type:"path"`
		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	SceneFlags struct {
		Script string `name:"script" help:"${script_help}" type:"existingfile"`
		Asset  string `name:"asset" help:"${asset_help}" type:"existingfile"`
	}

	Run struct {
		Scene string `arg:"" optional:"" help:"${scene_help}"`
		SceneFlags `embed:""`

		Scale int      `name:"scale" help:"Window scale factor."`
		Trace *outfile `name:"trace" help:"${trace_help}" placeholder:"FILE|stdout|stderr"`
	}

	Screenshot struct {
		Scenes []string `arg:"" optional:"" help:"Scenes to capture (default: all)."`
		SceneFlags `embed:""`

		Frames int    `name:"frames" help:"Number of frames to run before the capture."`
		Out    string `name:"out" help:"Output directory." type:"path"`
		Scale  int    `name:"scale" help:"Scale factor of the PNG files."`
	}

	Stats struct {
		Scene string `arg:"" optional:"" help:"${scene_help}"`
		SceneFlags `embed:""`

		Frames int      `name:"frames" help:"Number of frames to run."`
		Indent bool     `name:"indent" help:"Indent JSON output." default:"true" negatable:""`
		Trace  *outfile `name:"trace" help:"${trace_help}" placeholder:"FILE|stdout|stderr"`
	}

	AssetInfos struct {
		Path string `arg:"" name:"/path/to/bundle" type:"existingfile"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"config_help": "Configuration file (default: config.toml in the user config directory).",
	"log_help":    "Enable logging for specified modules.",
	"scene_help":  "Scene to run, one of: " + strings.Join(scenes.Names(), ", ") + ".",
	"script_help": "Lua script, for the 'script' scene.",
	"asset_help":  "Tile bundle, for the 'splash' scene.",
	"trace_help":  "Write I/O register trace log.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("gbahal"),
		kong.Description("Tiled background HAL running on a simulated handheld console."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch {
	case strings.HasPrefix(ctx.Command(), "screenshot"):
		cfg.mode = screenshotMode
	case strings.HasPrefix(ctx.Command(), "stats"):
		cfg.mode = statsMode
	case ctx.Command() == "asset-infos </path/to/bundle>":
		cfg.mode = assetInfosMode
	case ctx.Command() == "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
