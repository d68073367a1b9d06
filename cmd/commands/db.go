package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewDBCommand creates the db command group.
func NewDBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the shortcut and word database",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Summarize the database",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openStore()
				if err != nil {
					return err
				}
				defer db.Close()

				st, err := db.Stats()
				if err != nil {
					return err
				}
				if handled, err := writeResult(cmd.OutOrStdout(), st); handled {
					return err
				}
				t := newTable(cmd.OutOrStdout())
				t.row("path", dbPath())
				t.row("schema", strconv.Itoa(st.SchemaVersion))
				t.row("shortcuts", strconv.Itoa(st.Shortcuts))
				t.row("foreign words", strconv.Itoa(st.ForeignWords))
				return t.flush()
			},
		},
		&cobra.Command{
			Use:   "verify",
			Short: "Check the schema and the stored rows",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openStore()
				if err != nil {
					return err
				}
				defer db.Close()

				if err := db.Verify(); err != nil {
					return fmt.Errorf("database %s: %w", dbPath(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is consistent\n", dbPath())
				return nil
			},
		},
	)
	return cmd
}
