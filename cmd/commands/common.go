// Package commands holds the subcommands of the vietime CLI.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vietime/internal/config"
	"vietime/internal/ime"
	"vietime/internal/store"
)

// Output formats accepted by --output.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Global flags shared by every subcommand.
var (
	configPath   string
	databasePath string
	outputFormat string
)

// AddGlobalFlags registers the persistent flags on root.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default: platform config dir)")
	root.PersistentFlags().StringVar(&databasePath, "db", "", "Shortcut and word database (default: data dir)")
	root.PersistentFlags().StringVarP(&outputFormat, "output", "o", FormatText, "Output format: text, json, yaml")
}

// configFile returns --config, else a config file in the working or
// config directory, else the default path.
func configFile() string {
	if configPath != "" {
		return configPath
	}
	if found := config.FindConfigFile(); found != "" {
		return found
	}
	return config.ConfigPath()
}

// loadConfig reads and validates the configuration file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(configFile()).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func dbPath() string {
	if databasePath != "" {
		return databasePath
	}
	return config.DatabasePath()
}

// openStore opens the database, creating it if needed.
func openStore() (*store.Store, error) {
	db, err := store.Open(dbPath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// newEngine builds an engine from the configuration and every shortcut
// and word source it names.
func newEngine(cfg *config.Config) (*ime.Engine, *ime.Sources, error) {
	var db *store.Store
	if cfg.Shortcuts.UseDatabase || cfg.Foreign.UseDatabase {
		var err error
		if db, err = openStore(); err != nil {
			return nil, nil, err
		}
		defer db.Close()
	}
	src, err := ime.LoadSources(cfg, db)
	if err != nil {
		return nil, nil, err
	}

	e := ime.NewEngine()
	if err := e.ApplyConfig(cfg.Engine); err != nil {
		return nil, nil, err
	}
	src.Seed(e)
	return e, src, nil
}

// writeResult prints data as JSON or YAML. Text output is the caller's job;
// writeResult reports false when the format is text.
func writeResult(w io.Writer, data any) (bool, error) {
	switch outputFormat {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return true, enc.Encode(data)
	case FormatYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return true, err
		}
		_, err = w.Write(out)
		return true, err
	case FormatText, "":
		return false, nil
	default:
		return true, fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

// table writes aligned columns.
type table struct {
	w *tabwriter.Writer
}

func newTable(w io.Writer, columns ...string) *table {
	t := &table{w: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	if len(columns) > 0 {
		t.row(columns...)
	}
	return t
}

func (t *table) row(values ...string) {
	fmt.Fprintln(t.w, strings.Join(values, "\t"))
}

func (t *table) flush() error { return t.w.Flush() }
