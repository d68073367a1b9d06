// Package config handles configuration loading, validation, and hot reload
// for the vietime input method.
package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete input method configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Engine holds the typing behaviour.
	Engine EngineConfig `toml:"engine" json:"engine" yaml:"engine"`

	// Shortcuts configures the abbreviation table.
	Shortcuts ShortcutsConfig `toml:"shortcuts" json:"shortcuts" yaml:"shortcuts"`

	// Foreign configures the word list used to auto-restore foreign words.
	Foreign ForeignConfig `toml:"foreign" json:"foreign" yaml:"foreign"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Metrics configures the optional Prometheus endpoint.
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`

	// IBus configures the Linux frontend.
	IBus IBusConfig `toml:"ibus" json:"ibus" yaml:"ibus"`
}

// EngineConfig holds the settings applied to an engine through its setters.
type EngineConfig struct {
	// Scheme is "telex" or "vni".
	Scheme string `toml:"scheme" json:"scheme" yaml:"scheme"`

	// ToneStyle is "modern" (hoà) or "traditional" (hòa).
	ToneStyle string `toml:"tone_style" json:"tone_style" yaml:"tone_style"`

	// FreeTone places marks without checking syllable legality.
	FreeTone bool `toml:"free_tone" json:"free_tone" yaml:"free_tone"`

	// EscRestore makes ESC replace the word with the keys typed.
	EscRestore bool `toml:"esc_restore" json:"esc_restore" yaml:"esc_restore"`

	// AutoRestore reverts foreign words to their keys at word boundaries.
	AutoRestore bool `toml:"auto_restore" json:"auto_restore" yaml:"auto_restore"`

	// SkipWShortcut stops a bare Telex w from typing ư.
	SkipWShortcut bool `toml:"skip_w_shortcut" json:"skip_w_shortcut" yaml:"skip_w_shortcut"`

	// Enabled switches transliteration on at start.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Output is "nfc" or "nfd".
	Output string `toml:"output" json:"output" yaml:"output"`

	// Encoding is the charset committed text is converted to for legacy
	// hosts: "unicode", "tcvn3", "vni" or "cp1258".
	Encoding string `toml:"encoding" json:"encoding" yaml:"encoding"`
}

// ShortcutsConfig lists the sources the shortcut table is filled from.
type ShortcutsConfig struct {
	// LoadDefaults adds the built-in abbreviations.
	LoadDefaults bool `toml:"load_defaults" json:"load_defaults" yaml:"load_defaults"`

	// File is a JSON export to import at start.
	File string `toml:"file" json:"file" yaml:"file"`

	// UseDatabase loads the shortcuts stored in the database.
	UseDatabase bool `toml:"use_database" json:"use_database" yaml:"use_database"`

	// Entries maps triggers to replacements.
	Entries map[string]string `toml:"entries" json:"entries" yaml:"entries"`
}

// ForeignConfig lists the sources of the foreign word list.
type ForeignConfig struct {
	// WordList is a text file with one word per line.
	WordList string `toml:"word_list" json:"word_list" yaml:"word_list"`

	// UseDatabase loads the words stored in the database.
	UseDatabase bool `toml:"use_database" json:"use_database" yaml:"use_database"`

	// Words are added on top of the other sources.
	Words []string `toml:"words" json:"words" yaml:"words"`

	// Phonotactic flags words with English letter clusters (windows,
	// export) even when they are not listed.
	Phonotactic bool `toml:"phonotactic" json:"phonotactic" yaml:"phonotactic"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: text or json.
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is stdout, stderr, file or both.
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file when Output includes a file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the age after which rotated files are removed.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress gzips rotated files.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`
}

// MetricsConfig holds the metrics endpoint configuration.
type MetricsConfig struct {
	Enabled    bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	ListenAddr string `toml:"listen_addr" json:"listen_addr" yaml:"listen_addr"`
}

// IBusConfig holds settings of the IBus frontend.
type IBusConfig struct {
	// UseSurroundingText deletes text with DeleteSurroundingText when the
	// client supports it instead of forwarding BackSpace keys.
	UseSurroundingText bool `toml:"use_surrounding_text" json:"use_surrounding_text" yaml:"use_surrounding_text"`

	// ComponentDir is where the component XML is installed.
	ComponentDir string `toml:"component_dir" json:"component_dir" yaml:"component_dir"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Engine: EngineConfig{
			Scheme:      "telex",
			ToneStyle:   "modern",
			EscRestore:  true,
			AutoRestore: true,
			Enabled:     true,
			Output:      "nfc",
			Encoding:    "unicode",
		},
		Shortcuts: ShortcutsConfig{
			UseDatabase: true,
		},
		Foreign: ForeignConfig{
			UseDatabase: true,
			Phonotactic: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(PlatformLogDir(), "vietime.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
		Metrics: MetricsConfig{
			ListenAddr: "127.0.0.1:9464",
		},
		IBus: IBusConfig{
			UseSurroundingText: true,
			ComponentDir:       filepath.Join(PlatformDataDir(), "ibus", "component"),
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// DatabasePath returns the SQLite database holding shortcuts and words.
func DatabasePath() string {
	return filepath.Join(DataDir(), "vietime.db")
}

// DataDir returns the data directory. VIETIME_DATA_DIR overrides it.
func DataDir() string {
	if dir := os.Getenv("VIETIME_DATA_DIR"); dir != "" {
		return dir
	}
	return PlatformDataDir()
}

// Load reads configuration from path. A missing file yields the defaults.
// The format is chosen by extension: .toml, .json, .yaml or .yml; other
// names are auto-detected. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := decode(data, filepath.Ext(path), cfg); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	return cfg, nil
}

func decode(data []byte, ext string, cfg *Config) error {
	switch ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if err := autoDetectAndParse(data, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return nil
}

// autoDetectAndParse tries TOML, then JSON, then YAML. Each attempt starts
// from a fresh default so a failed one leaves no partial values behind.
func autoDetectAndParse(data []byte, cfg *Config) error {
	try := func(fn func(*Config) error) bool {
		c := DefaultConfig()
		if fn(c) != nil {
			return false
		}
		*cfg = *c
		return true
	}

	if try(func(c *Config) error { _, err := toml.Decode(string(data), c); return err }) {
		return nil
	}
	if try(func(c *Config) error { return json.Unmarshal(data, c) }) {
		return nil
	}
	if try(func(c *Config) error { return yaml.Unmarshal(data, c) }) {
		return nil
	}
	return fmt.Errorf("unable to parse config file (tried TOML, JSON, YAML)")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the configured files live in.
func (c *Config) EnsureDirectories() error {
	dirs := []string{DataDir()}
	if c.Logging.FilePath != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies VIETIME_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("VIETIME_SCHEME"); v != "" {
		c.Engine.Scheme = v
	}
	if v := os.Getenv("VIETIME_TONE_STYLE"); v != "" {
		c.Engine.ToneStyle = v
	}
	if v := os.Getenv("VIETIME_OUTPUT"); v != "" {
		c.Engine.Output = v
	}
	if v, ok := envBool("VIETIME_ENABLED"); ok {
		c.Engine.Enabled = v
	}
	if v := os.Getenv("VIETIME_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VIETIME_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("VIETIME_METRICS_ADDR"); v != "" {
		c.Metrics.Enabled = true
		c.Metrics.ListenAddr = v
	}
}

func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Shortcuts.Entries = maps.Clone(c.Shortcuts.Entries)
	clone.Foreign.Words = slices.Clone(c.Foreign.Words)
	return &clone
}
