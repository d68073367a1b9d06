package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"vietime/internal/ime"
	"vietime/internal/shortcut"
	"vietime/internal/store"
)

var (
	shortcutMethod    string
	shortcutCondition string
	shortcutCase      string
	shortcutDisabled  bool
	shortcutForce     bool
	shortcutCopy      bool
)

// NewShortcutsCommand creates the shortcuts command group.
func NewShortcutsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "shortcuts",
		Aliases: []string{"sc"},
		Short:   "Manage the abbreviation table stored in the database",
		Long: `Manage the abbreviations the input method expands as you type.

Shortcuts are stored in the vietime database and loaded by every frontend
at start. The table holds at most 200 entries.

Examples:
  # Add an abbreviation
  vietime shortcuts add vn "Việt Nam"

  # Expand as soon as the trigger is typed
  vietime shortcuts add --condition immediate ty "thank you"

  # Share the table
  vietime shortcuts export shortcuts.json
  vietime shortcuts import shortcuts.json`,
	}

	cmd.AddCommand(
		newShortcutsListCommand(),
		newShortcutsAddCommand(),
		newShortcutsRemoveCommand(),
		newShortcutsImportCommand(),
		newShortcutsExportCommand(),
		newShortcutsClearCommand(),
	)
	return cmd
}

func newShortcutsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored shortcuts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.LoadShortcuts()
			if err != nil {
				return err
			}
			if handled, err := writeResult(cmd.OutOrStdout(), entries); handled {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No shortcuts stored.")
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "TRIGGER", "REPLACEMENT", "METHOD", "CONDITION", "CASE", "ENABLED")
			for _, sc := range entries {
				t.row(sc.Trigger, sc.Replacement, sc.Method.String(), sc.Condition.String(),
					sc.CaseMode.String(), strconv.FormatBool(sc.Enabled))
			}
			return t.flush()
		},
	}
}

func newShortcutsAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <trigger> <replacement>",
		Short: "Add or replace a shortcut",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runShortcutsAdd,
	}
	cmd.Flags().StringVar(&shortcutMethod, "method", "all", "Input scheme: all, telex, vni")
	cmd.Flags().StringVar(&shortcutCondition, "condition", "word_boundary", "When to expand: word_boundary, immediate")
	cmd.Flags().StringVar(&shortcutCase, "case", "match", "Case handling: match, exact")
	cmd.Flags().BoolVar(&shortcutDisabled, "disabled", false, "Store the shortcut disabled")
	cmd.Flags().BoolVarP(&shortcutForce, "force", "f", false, "Replace an existing shortcut")
	return cmd
}

func runShortcutsAdd(cmd *cobra.Command, args []string) error {
	sc := shortcut.New(args[0], strings.Join(args[1:], " "))
	sc.Enabled = !shortcutDisabled
	if err := errors.Join(
		sc.Method.UnmarshalText([]byte(shortcutMethod)),
		sc.Condition.UnmarshalText([]byte(shortcutCondition)),
		sc.CaseMode.UnmarshalText([]byte(shortcutCase)),
	); err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	// The stored table must still load into an engine afterwards.
	table := shortcut.NewTable()
	if _, err := db.FillTable(table); err != nil {
		return err
	}
	if _, exists := table.Get(sc.Trigger); exists {
		if !shortcutForce {
			return fmt.Errorf("shortcut %q already exists (use --force to replace it)", sc.Trigger)
		}
		if err := table.Remove(sc.Trigger); err != nil {
			return err
		}
	}
	if err := table.Add(sc); err != nil {
		return err
	}
	saved, _ := table.Get(sc.Trigger)
	if err := db.SaveShortcut(saved); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s → %s\n", saved.Trigger, saved.Replacement)
	return nil
}

func newShortcutsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <trigger>...",
		Aliases: []string{"rm"},
		Short:   "Remove shortcuts",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			var errs []error
			for _, trigger := range args {
				if err := db.DeleteShortcut(trigger); err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s\n", trigger)
			}
			return errors.Join(errs...)
		},
	}
}

// ImportSummary is printed by shortcuts import.
type ImportSummary struct {
	File     string               `json:"file" yaml:"file"`
	Added    int                  `json:"added" yaml:"added"`
	Rejected []shortcut.Rejection `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

func newShortcutsImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import shortcuts from a JSON export",
		Long: `Import shortcuts from a JSON export or a bare JSON array of
{"trigger": ..., "replacement": ...} objects.

Entries whose trigger already exists, or that are malformed, are skipped
and listed; the rest are imported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			summary, err := importShortcuts(db, data)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			summary.File = args[0]

			if handled, err := writeResult(cmd.OutOrStdout(), summary); handled {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Imported %d shortcuts from %s\n", summary.Added, args[0])
			for _, r := range summary.Rejected {
				fmt.Fprintf(out, "  skipped entry %d %q: %s\n", r.Index, r.Trigger, r.Reason)
			}
			return nil
		},
	}
}

// importShortcuts merges data into the stored table and saves the new
// entries.
func importShortcuts(db *store.Store, data []byte) (*ImportSummary, error) {
	table := shortcut.NewTable()
	if _, err := db.FillTable(table); err != nil {
		return nil, err
	}
	existing := make(map[string]bool, table.Len())
	for _, sc := range table.All() {
		existing[strings.ToLower(sc.Trigger)] = true
	}

	report, err := table.ImportJSON(data)
	if err != nil {
		return nil, err
	}
	for _, sc := range table.All() {
		if existing[strings.ToLower(sc.Trigger)] {
			continue
		}
		if err := db.SaveShortcut(sc); err != nil {
			return nil, err
		}
	}
	return &ImportSummary{Added: report.Added, Rejected: report.Rejected}, nil
}

func newShortcutsExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export shortcuts as JSON",
		Long: `Export the stored shortcuts as JSON. Without a file the document is
printed, or copied to the clipboard with --copy.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			table := shortcut.NewTable()
			if _, err := db.FillTable(table); err != nil {
				return err
			}
			data, err := table.ExportJSON()
			if err != nil {
				return err
			}

			switch {
			case len(args) == 1:
				if err := ime.SaveShortcutsFile(table, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d shortcuts to %s\n", table.Len(), args[0])
			case shortcutCopy:
				if err := clipboard.WriteAll(string(data)); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Copied %d shortcuts to clipboard\n", table.Len())
			default:
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&shortcutCopy, "copy", false, "Copy the export to the clipboard")
	return cmd
}

func newShortcutsClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored shortcut",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.ClearShortcuts(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Cleared shortcuts")
			return nil
		},
	}
}
