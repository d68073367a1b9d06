package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"vietime/internal/config"
	"vietime/internal/ime"
)

var (
	convertScheme    string
	convertToneStyle string
	convertOutput    string
	convertFreeTone  bool
	convertPlain     bool
	convertCopy      bool
)

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [keys...]",
		Short: "Type keystrokes through the engine and print the result",
		Long: `Feed text to the engine as if it were typed on a US keyboard and
print what the application would show.

Without arguments the keys are read from standard input. Control
characters work as keys: \b is backspace and ESC restores the word.

Examples:
  vietime convert "Tieesng Vieejt"
  vietime convert --scheme vni "Tie61ng Vie65t"
  echo "xin chaof" | vietime convert --copy`,
		RunE: runConvert,
	}
	cmd.Flags().StringVarP(&convertScheme, "scheme", "s", "", "Input scheme: telex, vni (default from config)")
	cmd.Flags().StringVar(&convertToneStyle, "tone-style", "", "Tone placement: modern, traditional")
	cmd.Flags().StringVar(&convertOutput, "form", "", "Unicode form: nfc, nfd")
	cmd.Flags().BoolVar(&convertFreeTone, "free-tone", false, "Place marks without checking spelling")
	cmd.Flags().BoolVar(&convertPlain, "plain", false, "Ignore stored shortcuts and foreign words")
	cmd.Flags().BoolVar(&convertCopy, "copy", false, "Copy the result to the clipboard")
	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if convertScheme != "" {
		cfg.Engine.Scheme = convertScheme
	}
	if convertToneStyle != "" {
		cfg.Engine.ToneStyle = convertToneStyle
	}
	if convertOutput != "" {
		cfg.Engine.Output = convertOutput
	}
	if cmd.Flags().Changed("free-tone") {
		cfg.Engine.FreeTone = convertFreeTone
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	input, err := convertInput(cmd, args)
	if err != nil {
		return err
	}

	e, err := convertEngine(cfg)
	if err != nil {
		return err
	}
	out := ime.Transcribe(e, input)

	if convertCopy {
		if err := clipboard.WriteAll(out); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
	}
	if handled, err := writeResult(cmd.OutOrStdout(), map[string]string{"input": input, "output": out}); handled {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func convertEngine(cfg *config.Config) (*ime.Engine, error) {
	if !convertPlain {
		e, _, err := newEngine(cfg)
		return e, err
	}
	e := ime.NewEngine()
	if err := e.ApplyConfig(cfg.Engine); err != nil {
		return nil, err
	}
	return e, nil
}

func convertInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
