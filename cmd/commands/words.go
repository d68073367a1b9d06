package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"vietime/internal/oracle"
)

var wordsLength int

// NewWordsCommand creates the words command group.
func NewWordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words",
		Short: "Manage the foreign word list used by auto-restore",
		Long: `Manage the foreign words the input method leaves untouched.

When auto-restore is on and a finished word is in this list, the keys
you typed are restored instead of the Vietnamese transformation. Words
of 3 or more letters also match as prefixes while you type.

Examples:
  vietime words add window water
  vietime words import /usr/share/dict/words
  vietime words list --length 5`,
	}
	cmd.AddCommand(
		newWordsAddCommand(),
		newWordsRemoveCommand(),
		newWordsImportCommand(),
		newWordsListCommand(),
		newWordsCountCommand(),
	)
	return cmd
}

func newWordsAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <word>...",
		Short: "Add words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.AddForeignWords("cli", args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %d of %d words\n", n, len(args))
			return nil
		},
	}
}

func newWordsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <word>...",
		Aliases: []string{"rm"},
		Short:   "Remove words",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			var errs []error
			for _, w := range args {
				if err := db.RemoveForeignWord(w); err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s\n", w)
			}
			return errors.Join(errs...)
		},
	}
}

func newWordsImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a word list with one word per line",
		Long: `Import a plain text word list. Blank lines and lines starting
with # are ignored; words with characters other than ASCII letters
are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := readWords(args[0])
			if err != nil {
				return err
			}
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.AddForeignWords(filepath.Base(args[0]), words...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d new words from %s\n", n, args[0])
			return nil
		},
	}
}

func readWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wl := oracle.NewWordList()
	if _, err := wl.ReadFrom(f); err != nil {
		return nil, err
	}
	return allWords(wl), nil
}

// allWords returns the words of wl, shortest first.
func allWords(wl *oracle.WordList) []string {
	var out []string
	for n := 0; n <= oracle.MaxWordLen; n++ {
		out = append(out, wl.Words(n)...)
	}
	return out
}

func newWordsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored words",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			var words []string
			if wordsLength > 0 {
				words, err = db.ForeignWordsByLength(wordsLength)
			} else {
				var wl *oracle.WordList
				wl, err = db.LoadWordList()
				if err == nil {
					words = allWords(wl)
				}
			}
			if err != nil {
				return err
			}

			if handled, err := writeResult(cmd.OutOrStdout(), words); handled {
				return err
			}
			for _, w := range words {
				fmt.Fprintln(cmd.OutOrStdout(), w)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&wordsLength, "length", "l", 0, "Only words of this length")
	return cmd
}

func newWordsCountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count stored words by length",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.Stats()
			if err != nil {
				return err
			}
			if handled, err := writeResult(cmd.OutOrStdout(), stats.WordsByLength); handled {
				return err
			}

			lengths := make([]int, 0, len(stats.WordsByLength))
			for n := range stats.WordsByLength {
				lengths = append(lengths, n)
			}
			sort.Ints(lengths)

			t := newTable(cmd.OutOrStdout(), "LENGTH", "WORDS")
			for _, n := range lengths {
				t.row(strconv.Itoa(n), strconv.Itoa(stats.WordsByLength[n]))
			}
			t.row("total", strconv.Itoa(stats.ForeignWords))
			return t.flush()
		},
	}
}
