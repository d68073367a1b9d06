package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the vietime command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "vietime",
		Short: "Vietnamese Telex and VNI input method",
		Long: `vietime turns Telex or VNI keystrokes into Vietnamese text.

The input method itself runs inside IBus (vietime-ibus) or links the C
library (libvietime). This tool converts text from the command line,
edits the shortcut and foreign word database, and installs the IBus
component.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	AddGlobalFlags(root)

	root.AddCommand(
		NewConvertCommand(),
		NewREPLCommand(),
		NewShortcutsCommand(),
		NewWordsCommand(),
		NewDBCommand(),
		NewConfigCommand(),
		NewIBusCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of vietime",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "vietime version %s\n", version)
			},
		},
	)
	return root
}
