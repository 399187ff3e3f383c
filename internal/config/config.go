package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Czaporka/PyGnuplot/internal/gnuplot"
)

// Config holds everything the pygnuplot binary needs at startup.
type Config struct {
	Port        int      `yaml:"port"`
	Term        string   `yaml:"term"`
	GnuplotPath string   `yaml:"gnuplot"`
	GnuplotArgs []string `yaml:"gnuplot_args"`
	PTY         bool     `yaml:"pty"`
	DBPath      string   `yaml:"db"`

	GatewayURL    string `yaml:"gateway_url"`
	GatewaySecret string `yaml:"gateway_secret"`
}

// Dir returns ~/.pygnuplot.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pygnuplot"), nil
}

// Default returns the built-in defaults.
func Default() Config {
	cfg := Config{
		Port:        8800,
		Term:        gnuplot.DefaultTerm,
		GnuplotPath: gnuplot.DefaultPath,
		GnuplotArgs: slices.Clone(gnuplot.DefaultArgs),
	}
	if dir, err := Dir(); err == nil {
		cfg.DBPath = filepath.Join(dir, "history.db")
	}
	return cfg
}

// LoadFile overlays the YAML file at path onto cfg. A missing file leaves
// cfg untouched.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("PYGNUPLOT_TERM"); v != "" {
		cfg.Term = v
	}
	if v := getenv("PYGNUPLOT_GNUPLOT"); v != "" {
		cfg.GnuplotPath = v
	}
	if v := getenv("SP_GATEWAY_URL"); v != "" {
		cfg.GatewayURL = v
	}
	if v := getenv("SP_GATEWAY_SECRET"); v != "" {
		cfg.GatewaySecret = v
	}
}

// Load builds a Config from defaults, the YAML file named by -config, the
// environment, and finally the remaining flags in args.
func Load(args []string) (Config, error) {
	cfg := Default()

	configPath := ""
	if dir, err := Dir(); err == nil {
		configPath = filepath.Join(dir, "config.yaml")
	}

	// -config must be known before the file can be read, so parse twice.
	pre := flag.NewFlagSet("pygnuplot", flag.ContinueOnError)
	pre.SetOutput(io.Discard)
	pre.StringVar(&configPath, "config", configPath, "")
	registerFlags(pre, &Config{})
	_ = pre.Parse(args)

	if configPath != "" {
		if err := LoadFile(&cfg, configPath); err != nil {
			return cfg, err
		}
	}
	ApplyEnv(&cfg, os.Getenv)

	fs := flag.NewFlagSet("pygnuplot", flag.ContinueOnError)
	fs.String("config", configPath, "path to YAML config file")
	registerFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func registerFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Port, "port", cfg.Port, "server port")
	fs.StringVar(&cfg.Term, "term", cfg.Term, "gnuplot terminal for new figures")
	fs.StringVar(&cfg.GnuplotPath, "gnuplot", cfg.GnuplotPath, "gnuplot executable")
	fs.BoolVar(&cfg.PTY, "pty", cfg.PTY, "run gnuplot under a pseudo-terminal and capture its output")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "command history database")
	fs.StringVar(&cfg.GatewayURL, "gateway-url", cfg.GatewayURL, "gateway tunnel URL (wss://host/tunnel)")
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Term == "" {
		return fmt.Errorf("term must not be empty")
	}
	if c.GnuplotPath == "" {
		return fmt.Errorf("gnuplot path must not be empty")
	}
	if c.GatewayURL != "" && c.GatewaySecret == "" {
		return fmt.Errorf("SP_GATEWAY_SECRET is required with a gateway URL")
	}
	return nil
}
