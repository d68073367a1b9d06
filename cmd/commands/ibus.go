package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vietime/internal/ime"
)

var ibusEnginePath string

// NewIBusCommand creates the ibus command group.
func NewIBusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ibus",
		Short: "Register vietime with the IBus input method framework",
		Long: `Register vietime with IBus.

install writes the component file IBus reads at start and restarts the
daemon; the engine then appears under Vietnamese in the input source
settings. activate switches the current session to it.`,
	}
	cmd.PersistentFlags().StringVar(&ibusEnginePath, "engine-path", "", "Path of the vietime-ibus binary (default: next to this binary or on PATH)")

	cmd.AddCommand(
		newIBusActionCommand("install", "Install the IBus component", ime.Platform.Install, "✓ Installed; select Vietnamese (vietime) in your input sources"),
		newIBusActionCommand("uninstall", "Remove the IBus component", ime.Platform.Uninstall, "✓ Uninstalled"),
		newIBusActionCommand("activate", "Switch the current IBus session to vietime", ime.Platform.Activate, "✓ Activated"),
		newIBusStatusCommand(),
	)
	return cmd
}

func platform() (ime.Platform, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	pc := ime.DefaultPlatformConfig(cfg.IBus.ComponentDir)
	pc.EnginePath = ibusEnginePath
	p := ime.NewPlatform(pc)
	if !p.Available() {
		return nil, errors.New("IBus is not available on this system")
	}
	return p, nil
}

func newIBusActionCommand(use, short string, action func(ime.Platform) error, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := platform()
			if err != nil {
				return err
			}
			if err := action(p); err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), done)
			return nil
		},
	}
}

// IBusStatus is printed by ibus status.
type IBusStatus struct {
	Platform  string `json:"platform" yaml:"platform"`
	Available bool   `json:"available" yaml:"available"`
	Installed bool   `json:"installed" yaml:"installed"`
	Active    bool   `json:"active" yaml:"active"`
}

func newIBusStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether vietime is installed and active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pc := ime.DefaultPlatformConfig(cfg.IBus.ComponentDir)
			pc.EnginePath = ibusEnginePath
			p := ime.NewPlatform(pc)

			st := IBusStatus{
				Platform:  p.Name(),
				Available: p.Available(),
				Installed: p.IsInstalled(),
			}
			if st.Available {
				st.Active = p.IsActive()
			}
			if handled, err := writeResult(cmd.OutOrStdout(), st); handled {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			t.row("platform", st.Platform)
			t.row("available", yesNo(st.Available))
			t.row("installed", yesNo(st.Installed))
			t.row("active", yesNo(st.Active))
			return t.flush()
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
