// Package config loads the TOML run configuration of the applylm command.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	applylm "github.com/ieee0824/applylm-go"
	"github.com/ieee0824/applylm-go/compose"
	"github.com/ieee0824/applylm-go/fst"
)

// Config holds all run configuration.
type Config struct {
	LM      LMConfig      `toml:"lm"`
	Lattice LatticeConfig `toml:"lattice"`
	Run     RunConfig     `toml:"run"`
}

type LMConfig struct {
	Path         string  `toml:"path"`
	NaturalLog   bool    `toml:"natural_log"`
	Scale        float64 `toml:"scale"`
	WordPenalty  float64 `toml:"word_penalty"`
	Epsilons     []int32 `toml:"epsilons"`
	FixedContext bool    `toml:"fixed_context"`
}

type LatticeConfig struct {
	WordMap string `toml:"wordmap"` // empty: labels are model word ids
	Format  string `toml:"format"`  // text, msgpack
}

type RunConfig struct {
	Workers  int    `toml:"workers"` // 0: one per CPU
	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		LM: LMConfig{
			NaturalLog: true,
			Scale:      1.0,
			Epsilons:   []int32{0},
		},
		Lattice: LatticeConfig{
			Format: applylm.FormatText,
		},
		Run: RunConfig{
			LogLevel: "info",
		},
	}
}

// Load reads path over the defaults. Keys the file sets replace the default
// values; unknown keys are logged and ignored.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.Warn("Unknown config key", "file", path, "key", key.String())
	}
	return cfg, nil
}

// Validate reports the first invalid setting. It normalizes the lattice
// format name.
func (c *Config) Validate() error {
	if c.LM.Path == "" {
		return errors.New("lm.path is required")
	}
	if c.LM.Scale < 0 {
		return fmt.Errorf("lm.scale must be non-negative, got %g", c.LM.Scale)
	}
	c.Lattice.Format = strings.ToLower(strings.TrimSpace(c.Lattice.Format))
	switch c.Lattice.Format {
	case applylm.FormatText, applylm.FormatMsgpack:
	default:
		return fmt.Errorf("lattice.format %q: want %s or %s", c.Lattice.Format, applylm.FormatText, applylm.FormatMsgpack)
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("run.workers must be non-negative, got %d", c.Run.Workers)
	}
	return nil
}

// Engine converts the [lm] section into engine scoring parameters.
func (c *Config) Engine() compose.Config {
	eps := make([]fst.Label, len(c.LM.Epsilons))
	for i, l := range c.LM.Epsilons {
		eps[i] = fst.Label(l)
	}
	return compose.Config{
		NaturalLog:  c.LM.NaturalLog,
		LMScale:     c.LM.Scale,
		WordPenalty: c.LM.WordPenalty,
		Epsilons:    eps,
	}
}
