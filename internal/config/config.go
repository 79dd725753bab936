package config

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"

	"github.com/dshills/livetree/internal/config/loader"
	"github.com/dshills/livetree/internal/logging"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all livetree settings.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Journal  JournalConfig  `toml:"journal"`
	Script   ScriptConfig   `toml:"script"`
	Watch    WatchConfig    `toml:"watch"`
	Document DocumentConfig `toml:"document"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string   `toml:"level"`
	Development bool     `toml:"development"`
	Encoding    string   `toml:"encoding"`
	Output      []string `toml:"output"`
}

// JournalConfig configures the change journal.
type JournalConfig struct {
	Enabled    bool `toml:"enabled"`
	MaxChanges int  `toml:"max_changes"`
}

// ScriptConfig configures the Lua host.
type ScriptConfig struct {
	// Timeout bounds a whole script run, as a duration string.
	Timeout string `toml:"timeout"`

	// CallStackSize is the Lua call stack depth.
	CallStackSize int `toml:"call_stack_size"`

	// MaxCalls bounds livetree API calls per run. Zero means unlimited.
	MaxCalls int64 `toml:"max_calls"`
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	Debounce   string   `toml:"debounce"`
	Extensions []string `toml:"extensions"`
}

// DocumentConfig configures documents created by the CLI and scripts.
type DocumentConfig struct {
	DefaultRoot string `toml:"default_root"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
			Output:   []string{"stderr"},
		},
		Journal: JournalConfig{
			Enabled:    true,
			MaxChanges: 10000,
		},
		Script: ScriptConfig{
			Timeout:       "5s",
			CallStackSize: 256,
			MaxCalls:      1_000_000,
		},
		Watch: WatchConfig{
			Debounce:   "200ms",
			Extensions: []string{".yaml", ".yml", ".lua", ".html"},
		},
		Document: DocumentConfig{
			DefaultRoot: "main",
		},
	}
}

// Load reads the defaults, the TOML file at path (skipped when path is
// empty or missing) and the LIVETREE_ environment, then validates.
func Load(path string) (*Config, error) {
	var file loader.Loader
	if path != "" {
		file = loader.NewTOMLLoader(path)
	}
	return LoadFrom(file, loader.NewEnvLoader(loader.DefaultEnvPrefix))
}

// LoadFrom merges the given sources over the defaults and validates the
// result. Nil sources are skipped.
func LoadFrom(sources ...loader.Loader) (*Config, error) {
	merged, err := defaultsMap()
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		m, err := src.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	cfg, err := decode(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultsMap() (map[string]any, error) {
	data, err := toml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	return loader.Parse("<defaults>", data)
}

// decode round-trips the merged map through TOML so the struct tags apply.
func decode(m map[string]any) (*Config, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding merged config: %w", err)
	}
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error

	if _, lerr := logging.ParseLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, lerr))
	}
	if !slices.Contains([]string{"json", "console"}, c.Log.Encoding) {
		err = multierr.Append(err, fmt.Errorf("%w: log.encoding %q must be json or console", ErrInvalidConfig, c.Log.Encoding))
	}
	if c.Journal.MaxChanges <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: journal.max_changes must be positive, got %d", ErrInvalidConfig, c.Journal.MaxChanges))
	}
	if d, derr := time.ParseDuration(c.Script.Timeout); derr != nil || d <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: script.timeout %q must be a positive duration", ErrInvalidConfig, c.Script.Timeout))
	}
	if c.Script.CallStackSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: script.call_stack_size must be positive, got %d", ErrInvalidConfig, c.Script.CallStackSize))
	}
	if c.Script.MaxCalls < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: script.max_calls must not be negative, got %d", ErrInvalidConfig, c.Script.MaxCalls))
	}
	if d, derr := time.ParseDuration(c.Watch.Debounce); derr != nil || d < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: watch.debounce %q must be a duration", ErrInvalidConfig, c.Watch.Debounce))
	}
	if c.Document.DefaultRoot == "" {
		err = multierr.Append(err, fmt.Errorf("%w: document.default_root must not be empty", ErrInvalidConfig))
	}
	return err
}

// ScriptTimeout returns the parsed script timeout.
func (c *Config) ScriptTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Script.Timeout)
	return d
}

// WatchDebounce returns the parsed watcher debounce.
func (c *Config) WatchDebounce() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Debounce)
	return d
}

// LoggingOptions converts the log section for logging.New.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:       c.Log.Level,
		Development: c.Log.Development,
		Encoding:    c.Log.Encoding,
		OutputPaths: c.Log.Output,
	}
}
