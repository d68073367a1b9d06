package commands

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"vietime/internal/ime"
	"vietime/internal/keys"
	"vietime/internal/syllable"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Try the engine interactively in the terminal",
		Long: `Open an interactive line editor driven by the engine. Type Telex or
VNI keys and watch the Vietnamese text form; Enter starts a new line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, src, err := newEngine(cfg)
			if err != nil {
				return err
			}
			m := newREPLModel(e)
			m.status = fmt.Sprintf("%d shortcuts, %d foreign words", src.Shortcuts.Len(), src.Words.Len())

			p := tea.NewProgram(m, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
			_, err = p.Run()
			return err
		},
	}
}

type replKeyMap struct {
	Quit        key.Binding
	Scheme      key.Binding
	ToneStyle   key.Binding
	Enabled     key.Binding
	State       key.Binding
	Copy        key.Binding
	ToggleHelp  key.Binding
	ClearScreen key.Binding
}

func defaultREPLKeys() replKeyMap {
	return replKeyMap{
		Quit:        key.NewBinding(key.WithKeys("ctrl+c", "ctrl+d"), key.WithHelp("ctrl+c", "quit")),
		Scheme:      key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "telex/vni")),
		ToneStyle:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "tone style")),
		Enabled:     key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "on/off")),
		State:       key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "show state")),
		Copy:        key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy text")),
		ClearScreen: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		ToggleHelp:  key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "more keys")),
	}
}

func (k replKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Scheme, k.Enabled, k.ToggleHelp, k.Quit}
}

func (k replKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Scheme, k.ToneStyle, k.Enabled},
		{k.State, k.Copy, k.ClearScreen},
		{k.ToggleHelp, k.Quit},
	}
}

var (
	replTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))
	replBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("78")).
			Padding(0, 1)
	replOffStyle = replBadgeStyle.
			Background(lipgloss.Color("240"))
	replLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
	replStateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	replStatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type replModel struct {
	engine *ime.Engine
	screen *ime.Screen
	lines  []string

	keys      replKeyMap
	help      help.Model
	width     int
	showState bool
	status    string
}

func newREPLModel(e *ime.Engine) *replModel {
	return &replModel{
		engine: e,
		screen: ime.NewScreen(""),
		keys:   defaultREPLKeys(),
		help:   help.New(),
		width:  80,
	}
}

func (m *replModel) Init() tea.Cmd { return nil }

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *replModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Scheme):
		opts := m.engine.Options()
		if opts.Scheme == keys.Telex {
			m.engine.SetScheme(keys.VNI)
		} else {
			m.engine.SetScheme(keys.Telex)
		}
		return m, nil
	case key.Matches(msg, m.keys.ToneStyle):
		if m.engine.Options().Style == syllable.Modern {
			m.engine.SetToneStyle(syllable.Traditional)
		} else {
			m.engine.SetToneStyle(syllable.Modern)
		}
		return m, nil
	case key.Matches(msg, m.keys.Enabled):
		m.engine.SetEnabled(!m.engine.Enabled())
		return m, nil
	case key.Matches(msg, m.keys.State):
		m.showState = !m.showState
		return m, nil
	case key.Matches(msg, m.keys.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.ClearScreen):
		m.lines = nil
		m.screen.Reset()
		m.engine.Clear()
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		if err := clipboard.WriteAll(m.Text()); err != nil {
			m.status = "copy failed: " + err.Error()
		} else {
			m.status = "copied to clipboard"
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		m.screen.Type(m.engine, "\r")
		m.lines = append(m.lines, strings.TrimSuffix(m.screen.Text(), "\r"))
		m.screen.Reset()
	case tea.KeyBackspace:
		m.screen.Type(m.engine, "\b")
	case tea.KeyEsc:
		m.screen.Type(m.engine, "\x1b")
	case tea.KeySpace:
		m.screen.Type(m.engine, " ")
	case tea.KeyTab:
		m.screen.Type(m.engine, "\t")
	case tea.KeyRunes:
		m.screen.Type(m.engine, string(msg.Runes))
	default:
		// Cursor movement and other keys leave the word.
		m.engine.ResetWord()
	}
	return m, nil
}

// Text returns every line typed so far.
func (m *replModel) Text() string {
	return strings.Join(append(append([]string{}, m.lines...), m.screen.Text()), "\n")
}

func (m *replModel) View() string {
	var b strings.Builder

	opts := m.engine.Options()
	badge := replBadgeStyle.Render(strings.ToUpper(opts.Scheme.String()))
	if !m.engine.Enabled() {
		badge = replOffStyle.Render("OFF")
	}
	b.WriteString(replTitleStyle.Render("vietime") + " " + badge + " " +
		replStatusStyle.Render(opts.Style.String()) + "\n\n")

	wrap := max(m.width-2, 10)
	for _, line := range m.lines {
		b.WriteString(replLineStyle.Render(wordwrap.String(line, wrap)) + "\n")
	}
	b.WriteString(wordwrap.String(m.screen.Text(), wrap) + "▏\n")

	if m.showState {
		st := m.engine.State()
		b.WriteString("\n" + replStateStyle.Render(fmt.Sprintf(
			"raw %q  word %q\nforeign %t  transformed %t  history %d",
			st.Raw, st.Text, st.Foreign, st.Transformed, st.History)) + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + replStatusStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}
