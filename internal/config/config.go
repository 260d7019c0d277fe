// Package config loads settings from defaults, an optional file, and PAL_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"github.com/abhisek/pal/internal/adaptive"
	"github.com/abhisek/pal/internal/llm"
	"github.com/abhisek/pal/internal/questions"
	"github.com/abhisek/pal/internal/session"
	"github.com/abhisek/pal/internal/sim"
)

// Config is the full application configuration.
type Config struct {
	Variant   string           `mapstructure:"variant"`
	Seed      uint64           `mapstructure:"seed"`
	Log       LogConfig        `mapstructure:"log"`
	Store     StoreConfig      `mapstructure:"store"`
	Dataset   DatasetConfig    `mapstructure:"dataset"`
	Engine    adaptive.Config  `mapstructure:"engine"`
	Session   session.Config   `mapstructure:"session"`
	Sim       sim.Config       `mapstructure:"sim"`
	LLM       llm.Config       `mapstructure:"llm"`
	Questions questions.Config `mapstructure:"questions"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// StoreConfig locates the results database. An empty path uses the
// default data directory.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// DatasetConfig points at an optional question bank.
type DatasetConfig struct {
	Path     string `mapstructure:"path"`
	Segments int    `mapstructure:"segments"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Variant:   string(adaptive.VariantHybrid),
		Seed:      0,
		Log:       LogConfig{Mode: "off", Level: "info"},
		Dataset:   DatasetConfig{Segments: 5},
		Engine:    adaptive.DefaultConfig(),
		Session:   session.DefaultConfig(),
		Sim:       sim.DefaultConfig(),
		LLM:       llm.DefaultConfig(),
		Questions: questions.DefaultConfig(),
	}
}

var envBindings = map[string]string{
	"variant":         "PAL_VARIANT",
	"seed":            "PAL_SEED",
	"log.mode":        "PAL_LOG_MODE",
	"log.level":       "PAL_LOG_LEVEL",
	"store.path":      "PAL_DB",
	"dataset.path":    "PAL_DATASET",
	"llm.provider":    "PAL_LLM_PROVIDER",
	"llm.model":       "PAL_LLM_MODEL",
	"llm.api_key":     "PAL_LLM_API_KEY",
	"llm.base_url":    "PAL_LLM_BASE_URL",
	"questions.topic": "PAL_TOPIC",
}

// Load reads path (YAML, JSON, or TOML by extension) over the defaults and
// applies PAL_* environment variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	vip := viper.New()
	vip.SetEnvPrefix("PAL")
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()
	for key, env := range envBindings {
		if err := vip.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		vip.SetConfigFile(path)
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := Default()
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Sim.Variant = cfg.Variant
	cfg.Sim.Seed = cfg.Seed
	cfg.LLM = cfg.LLM.Discover()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	if _, err := adaptive.ParseVariant(c.Variant); err != nil {
		return err
	}
	if c.Sim.Runs < 1 || c.Sim.Questions < 1 {
		return fmt.Errorf("sim runs and questions must be positive (got %d, %d)", c.Sim.Runs, c.Sim.Questions)
	}
	if p := c.Sim.Learner.CorrectProb; p < 0 || p > 1 {
		return fmt.Errorf("sim.learner.correct_prob must be within [0, 1], got %v", p)
	}
	for key, n := range map[string]int{
		"engine.rl.memory_size":       c.Engine.RL.MemorySize,
		"engine.rl.decision_log_size": c.Engine.RL.DecisionLogSize,
		"engine.hybrid.history_size":  c.Engine.Hybrid.HistorySize,
	} {
		if n < 1 {
			return fmt.Errorf("%s must be positive, got %d", key, n)
		}
	}
	if c.Dataset.Segments < 1 {
		return fmt.Errorf("dataset.segments must be positive, got %d", c.Dataset.Segments)
	}
	return nil
}
