// Package config loads the proxy's settings.
//
// Sources are layered, later ones winning: built-in defaults, TOML or YAML
// config files, SIGNAL_* environment variables, then command line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/UltraSive/p2p-signaling/internal/upstream"
)

// EnvPrefix marks environment overrides. SIGNAL_STORE__BACKEND=redis sets
// store.backend.
const EnvPrefix = "SIGNAL_"

// DefaultConfigFile is read when present and no --config is given.
const DefaultConfigFile = "config.toml"

// Config is the top level configuration.
type Config struct {
	HTTP     HTTPConfig      `koanf:"http"`
	Store    StoreConfig     `koanf:"store"`
	Cleanup  CleanupConfig   `koanf:"cleanup"`
	Upstream upstream.Config `koanf:"upstream"`
	Log      LogConfig       `koanf:"log"`

	// Files lists the config files that were loaded.
	Files []string `koanf:"-"`

	ko *koanf.Koanf
}

type HTTPConfig struct {
	Address         string        `koanf:"address"`
	Socket          string        `koanf:"socket"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StoreConfig selects the backend. Backend specific settings live under
// store.<backend> and are read with Backend.
type StoreConfig struct {
	Backend string        `koanf:"backend"`
	TTL     time.Duration `koanf:"ttl"`
}

type CleanupConfig struct {
	// Interval between background sweeps; 0 leaves sweeping to /cleanup.
	Interval time.Duration `koanf:"interval"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Flags returns the command line flag set understood by Load.
func Flags() *flag.FlagSet {
	f := flag.NewFlagSet("config", flag.ContinueOnError)
	f.StringSlice("config", nil, "Path to one or more TOML or YAML config files to load in order.")
	f.Bool("version", false, "Show build version")
	f.String("http.address", DefaultAddress, "HTTP listen address")
	f.String("http.socket", "", "Optional unix socket to also serve on")
	f.String("store.backend", DefaultBackend, "Store backend: memory|rocksdb|bolt|redis")
	f.String("log.level", DefaultLogLevel, "Log level: debug|info|warn|error")
	return f
}

// Load builds a Config from defaults, files, the environment and the
// already parsed flag set f.
func Load(f *flag.FlagSet) (*Config, error) {
	ko := koanf.New(".")

	if err := ko.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	files, _ := f.GetStringSlice("config")
	if len(files) == 0 {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			files = []string{DefaultConfigFile}
		}
	}
	for _, path := range files {
		p, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := ko.Load(file.Provider(path), p); err != nil {
			return nil, errors.Wrapf(err, "load config file %q", path)
		}
	}

	if err := ko.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env config")
	}

	if err := ko.Load(posflag.Provider(f, ".", ko), nil); err != nil {
		return nil, errors.Wrap(err, "load flags")
	}

	cfg := &Config{ko: ko, Files: files}
	if err := ko.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return cfg, nil
}

// Backend unmarshals the store.<name> section into out.
func (c *Config) Backend(name string, out any) error {
	if c.ko == nil {
		return nil
	}
	if err := c.ko.Unmarshal("store."+name, out); err != nil {
		return errors.Wrapf(err, "unmarshal store.%s", name)
	}
	return nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config file type %q", path)
	}
}
