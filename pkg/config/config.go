// Package config loads the goax configuration file, ~/.goax/config.yaml by
// default. Missing keys keep their defaults; unknown keys are rejected.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/goax/pkg/query"
)

// DirEnv overrides the configuration directory. It takes priority over flags.
const DirEnv = "GOAX_CONFIG_DIR"

// FileName is the configuration file inside the configuration directory.
const FileName = "config.yaml"

// Config is the whole configuration document.
type Config struct {
	Traversal TraversalConfig `yaml:"traversal"`
	Watch     WatchConfig     `yaml:"watch"`
	Actions   ActionsConfig   `yaml:"actions"`
	Collector CollectorConfig `yaml:"collector"`
	Provider  ProviderConfig  `yaml:"provider"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Source is the file the configuration was read from, or "<defaults>".
	Source string `yaml:"-"`
}

// TraversalConfig bounds tree walks.
type TraversalConfig struct {
	MaxDepth   int  `yaml:"max_depth"`
	IncludeAll bool `yaml:"include_all"`
}

// WatchConfig tunes the poll loop.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ActionsConfig holds the inter-event delays of synthetic input.
type ActionsConfig struct {
	ClickDelay     time.Duration `yaml:"click_delay"`
	DoubleClickGap time.Duration `yaml:"double_click_gap"`
	FocusSettle    time.Duration `yaml:"focus_settle"`
}

// CollectorConfig configures training-data collection.
type CollectorConfig struct {
	Output        string   `yaml:"output"`
	Action        string   `yaml:"action"`
	AutoTemplates []string `yaml:"auto_templates"`
	AutoRefresh   bool     `yaml:"auto_refresh"`
}

// ProviderConfig selects the accessibility provider.
type ProviderConfig struct {
	// Fixture is a fixture file path or a stored fixture name. Empty uses the
	// built-in demo tree.
	Fixture string `yaml:"fixture"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultTemplates are the auto-command templates.
var DefaultTemplates = []string{
	"click ${label}",
	"click the ${label} ${role}",
	"press ${label}",
	"select ${label}",
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Traversal: TraversalConfig{MaxDepth: 10},
		Watch:     WatchConfig{Interval: 500 * time.Millisecond},
		Actions: ActionsConfig{
			ClickDelay:     10 * time.Millisecond,
			DoubleClickGap: 50 * time.Millisecond,
			FocusSettle:    100 * time.Millisecond,
		},
		Collector: CollectorConfig{
			Output:        "training_data.jsonl",
			Action:        "click",
			AutoTemplates: append([]string(nil), DefaultTemplates...),
		},
		Logging: LoggingConfig{Level: "warn", Format: "text"},
		Source:  "<defaults>",
	}
}

// ResolveDir picks the configuration directory: $GOAX_CONFIG_DIR, then flagDir,
// then ~/.goax.
func ResolveDir(flagDir string) (string, error) {
	if env := os.Getenv(DirEnv); env != "" {
		return env, nil
	}
	if flagDir != "" {
		return flagDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".goax"), nil
}

// Init creates dir and writes a default config file when none exists, then
// loads it.
func Init(dir string) (Config, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Default(), fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(path, Default()); err != nil {
			return Default(), err
		}
	}
	return Load(path)
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("open config file %q: %w", path, err)
	}

	if err := decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %q: %w", path, err)
	}
	cfg.Source = path
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate ensures configuration values are present and sensible.
func (c Config) Validate() error {
	if c.Traversal.MaxDepth <= 0 {
		return errors.New("traversal.max_depth must be positive")
	}
	if c.Watch.Interval <= 0 {
		return errors.New("watch.interval must be positive")
	}
	if c.Actions.ClickDelay < 0 || c.Actions.DoubleClickGap < 0 || c.Actions.FocusSettle < 0 {
		return errors.New("actions delays must not be negative")
	}
	if strings.TrimSpace(c.Collector.Output) == "" {
		return errors.New("collector.output must not be empty")
	}
	if len(c.Collector.AutoTemplates) == 0 {
		return errors.New("collector.auto_templates must not be empty")
	}
	r := query.NewRenderer()
	for i, tmpl := range c.Collector.AutoTemplates {
		if strings.TrimSpace(tmpl) == "" {
			return fmt.Errorf("collector.auto_templates[%d] must not be empty", i)
		}
		if err := r.Validate(tmpl); err != nil {
			return fmt.Errorf("collector.auto_templates[%d]: %w", i, err)
		}
	}
	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalize() {
	defaults := Default()
	c.Collector.Output = strings.TrimSpace(c.Collector.Output)
	c.Collector.Action = strings.TrimSpace(c.Collector.Action)
	if c.Collector.Action == "" {
		c.Collector.Action = defaults.Collector.Action
	}
	c.Provider.Fixture = strings.TrimSpace(c.Provider.Fixture)
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}
}

// NormalizeLogLevel validates and lowercases known logging levels.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "", "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes logging format identifiers.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return "json", nil
	case "", "console", "text":
		return "text", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}
