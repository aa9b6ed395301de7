package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fahmaliyi/passvault/vault"
)

type viewState int

const (
	stateTable viewState = iota
	stateShowEntry
	stateFilter
)

const revealFor = 5 * time.Second

type model struct {
	shell    *Shell
	names    []string
	cursor   int
	state    viewState
	filter   textinput.Model
	selected string
	shown    *vault.Plaintext
	revealed bool
	msg      string
}

type hideSecretMsg struct{}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	msgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("0"))
)

func newModel(sh *Shell) model {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/"
	m := model{shell: sh, filter: ti}
	m.refresh()
	return m
}

// RunTUI starts the interactive browser on the shell's vault. Deletions
// made here are persisted with the rest of the session.
func RunTUI(ctx context.Context, sh *Shell) error {
	m := newModel(sh)
	p := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(model); ok {
		fm.shown.Wipe()
	}
	return err
}

func (m *model) refresh() {
	all := m.shell.Vault.ListNames()
	q := strings.ToLower(m.filter.Value())
	var names []string
	for _, n := range all {
		if q == "" || strings.Contains(strings.ToLower(n), q) {
			names = append(names, n)
		}
	}
	m.names = names
	if m.cursor >= len(m.names) {
		m.cursor = len(m.names) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// --- Tea Model interface ---
func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(hideSecretMsg); ok {
		m.revealed = false
		return m, nil
	}
	switch m.state {
	case stateShowEntry:
		return updateShowEntry(m, msg)
	case stateFilter:
		return updateFilter(m, msg)
	default:
		return updateTable(m, msg)
	}
}

func (m model) View() string {
	switch m.state {
	case stateShowEntry:
		return viewShowEntry(m)
	default:
		return viewTable(m)
	}
}

// --- Table ---
func updateTable(m model, msg tea.Msg) (model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.msg = ""
	switch key.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "/":
		m.state = stateFilter
		m.filter.Focus()
	case "enter":
		if len(m.names) == 0 {
			break
		}
		name := m.names[m.cursor]
		pt, err := m.shell.open(name)
		if err != nil {
			m.msg = describe(err)
			break
		}
		m.selected, m.shown, m.revealed = name, pt, false
		m.state = stateShowEntry
	case "d":
		if len(m.names) == 0 {
			break
		}
		name := m.names[m.cursor]
		if err := m.shell.deleteEntry(name); err != nil {
			m.msg = describe(err)
			break
		}
		m.refresh()
		m.msg = fmt.Sprintf("Deleted %s", name)
	case "c":
		if len(m.names) == 0 {
			break
		}
		m.msg = m.copySelected(m.names[m.cursor])
	}
	return m, nil
}

func (m model) copySelected(name string) string {
	pt, err := m.shell.open(name)
	if err != nil {
		return describe(err)
	}
	defer pt.Wipe()
	if err := m.shell.clip.copy(m.shell.Clipboard, string(pt.Password), m.shell.ClipboardClear); err != nil {
		return describe(err)
	}
	return fmt.Sprintf("Password copied! (clears in %s)", m.shell.ClipboardClear)
}

func viewTable(m model) string {
	s := titleStyle.Render("Vault Entries") + "\n\n"
	if m.state == stateFilter || m.filter.Value() != "" {
		s += m.filter.View() + "\n\n"
	}
	if len(m.names) == 0 {
		s += "(no entries)\n"
	}
	for i, name := range m.names {
		line := fmt.Sprintf("%-40s", name)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		s += line + "\n"
	}
	if m.msg != "" {
		s += "\n" + msgStyle.Render(m.msg)
	}
	s += "\nCommands: j/k=move, enter=show, /=filter, c=copy, d=delete, q=quit"
	return s
}

// --- Filter ---
func updateFilter(m model, msg tea.Msg) (model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter", "esc":
			if key.String() == "esc" {
				m.filter.SetValue("")
			}
			m.filter.Blur()
			m.state = stateTable
			m.refresh()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refresh()
	return m, cmd
}

// --- Show Entry ---
func updateShowEntry(m model, msg tea.Msg) (model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc", "q":
		m.shown.Wipe()
		m.shown, m.selected, m.revealed = nil, "", false
		m.state = stateTable
	case "v":
		m.revealed = true
		return m, tea.Tick(revealFor, func(time.Time) tea.Msg { return hideSecretMsg{} })
	case "c":
		m.msg = m.copySelected(m.selected)
	}
	return m, nil
}

func viewShowEntry(m model) string {
	secret := "********"
	if m.revealed {
		secret = string(m.shown.Password)
	}
	username := "(none)"
	if m.shown.Username != nil {
		username = string(m.shown.Username)
	}
	s := fmt.Sprintf("Name: %s\nUsername: %s\nPassword: %s\n", m.selected, username, secret)
	if m.msg != "" {
		s += "\n" + msgStyle.Render(m.msg)
	}
	s += "\nPress 'v' to reveal, 'c' to copy, Esc to return"
	return s
}
