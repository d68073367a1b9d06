package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vietime/internal/config"
)

var configForce bool

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, check and create the configuration file",
	}
	cmd.AddCommand(
		newConfigShowCommand(),
		newConfigValidateCommand(),
		newConfigInitCommand(),
		newConfigPathCommand(),
	)
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults and VIETIME_* environment
overrides have been applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if handled, err := writeResult(cmd.OutOrStdout(), cfg); handled {
				return err
			}
			data, err := config.Encode(cfg, ".toml")
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("config file %s: %w", path, err)
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			problems := config.Check(cfg)
			for _, w := range problems.Warnings() {
				fmt.Fprintf(out, "warning: %s\n", w.Error())
			}
			if problems.HasErrors() {
				for _, e := range problems.Errors() {
					fmt.Fprintf(out, "error: %s\n", e.Error())
				}
				return fmt.Errorf("%s is invalid", path)
			}
			fmt.Fprintf(out, "✓ %s is valid\n", path)
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile()
			if configForce {
				if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
					return err
				}
			} else {
				_, created, err := config.LoadOrCreate(path)
				if err != nil {
					return err
				}
				if !created {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
	return cmd
}

// Paths lists the files vietime reads and writes.
type Paths struct {
	Config   string `json:"config" yaml:"config"`
	Database string `json:"database" yaml:"database"`
	Log      string `json:"log" yaml:"log"`
	DataDir  string `json:"data_dir" yaml:"data_dir"`
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the locations of vietime files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := Paths{
				Config:   configFile(),
				Database: dbPath(),
				Log:      filepath.Join(config.PlatformLogDir(), "vietime.log"),
				DataDir:  config.DataDir(),
			}
			if cfg, err := loadConfig(); err == nil && cfg.Logging.FilePath != "" {
				p.Log = cfg.Logging.FilePath
			}
			if handled, err := writeResult(cmd.OutOrStdout(), p); handled {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			t.row("config", p.Config)
			t.row("database", p.Database)
			t.row("log", p.Log)
			t.row("data", p.DataDir)
			return t.flush()
		},
	}
}
