package emu

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"gbahal/emu/log"
)

type Config struct {
	Video VideoConfig `toml:"video"`
	Run   RunConfig   `toml:"run"`
	Log   LogConfig   `toml:"log"`
}

type VideoConfig struct {
	Scale        int  `toml:"scale"`
	DisableVSync bool `toml:"disable_vsync"`
}

type RunConfig struct {
	Scene     string `toml:"scene"`
	Frames    int    `toml:"frames"`
	OutputDir string `toml:"output_dir"`
	Script    string `toml:"script"`
	Asset     string `toml:"asset"`
}

type LogConfig struct {
	Modules []string `toml:"modules"`
}

// DefaultConfig is used when there's no configuration file.
func DefaultConfig() Config {
	return Config{
		Video: VideoConfig{Scale: 3},
		Run:   RunConfig{Scene: "water", Frames: 60, OutputDir: "."},
	}
}

// Check replaces invalid values with their defaults.
func (cfg *Config) Check() {
	def := DefaultConfig()
	if cfg.Video.Scale < 1 || cfg.Video.Scale > 8 {
		log.ModEmu.Warnf("Invalid video scale %d, fallback to %d", cfg.Video.Scale, def.Video.Scale)
		cfg.Video.Scale = def.Video.Scale
	}
	if cfg.Run.Scene == "" {
		cfg.Run.Scene = def.Run.Scene
	}
	if cfg.Run.Frames <= 0 {
		cfg.Run.Frames = def.Run.Frames
	}
	if cfg.Run.OutputDir == "" {
		cfg.Run.OutputDir = def.Run.OutputDir
	}
}

// LogModules returns the mask of the modules listed in the configuration.
// Unknown names are reported and ignored.
func (cfg *Config) LogModules() log.ModuleMask {
	var mask log.ModuleMask
	for _, name := range cfg.Log.Modules {
		if name == "all" {
			return log.ModuleMaskAll
		}
		mod, ok := log.ModuleByName(name)
		if !ok {
			log.ModEmu.Warnf("Unknown log module %q in configuration", name)
			continue
		}
		mask |= mod.Mask()
	}
	return mask
}

var ConfigDir = sync.OnceValue(func() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	dir = filepath.Join(dir, "gbahal")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// DefaultConfigPath is the configuration file in the config directory.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), cfgFilename)
}

// LoadConfigOrDefault loads the configuration at path, or provide a default
// one.
func LoadConfigOrDefault(path string) Config {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !os.IsNotExist(err) {
			log.ModEmu.Warnf("Failed to load configuration %s: %v", path, err)
		}
		return DefaultConfig()
	}
	cfg.Check()
	return cfg
}

// SaveConfig into path.
func SaveConfig(cfg Config, path string) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
