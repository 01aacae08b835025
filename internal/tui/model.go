package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"portide/internal/app"
)

// Pane identifies which half of the screen has focus.
type Pane int

const (
	PaneTerminal Pane = iota
	PaneCodex
)

// drainInterval paces the poll of running subprocesses. Short enough that
// streamed output feels live, long enough to stay idle-cheap.
const drainInterval = 80 * time.Millisecond

type tickMsg time.Time

// Model is the shell's top-level bubbletea state: a terminal pane and a
// Codex pane over one shared session, plus the input line.
type Model struct {
	session *app.Session

	input     textarea.Model
	terminal  viewport.Model
	codex     viewport.Model
	focus     Pane
	keys      keyMap
	width     int
	height    int
	showHelp  bool
	statusMsg string
}

func New(session *app.Session) *Model {
	ta := textarea.New()
	ta.Placeholder = "Shell command or Codex prompt... (Tab switches pane, Enter runs)"
	ta.Focus()
	ta.CharLimit = 8000
	ta.SetWidth(60)
	ta.SetHeight(2)
	ta.Prompt = "▍ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	ta.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	return &Model{
		session:  session,
		input:    ta,
		terminal: viewport.New(50, 20),
		codex:    viewport.New(50, 20),
		focus:    PaneCodex,
		keys:     defaultKeyMap(),
		width:    100,
		height:   30,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, tick())
}

func tick() tea.Cmd {
	return tea.Tick(drainInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case tickMsg:
		if m.session.Drain() {
			m.refresh()
		}
		return m, tick()

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.SwitchPane):
		if m.focus == PaneTerminal {
			m.focus = PaneCodex
		} else {
			m.focus = PaneTerminal
		}
		m.refresh()
		return nil, true

	case key.Matches(msg, m.keys.Submit):
		m.submit()
		m.refresh()
		return nil, true

	case key.Matches(msg, m.keys.ToggleView):
		m.session.ToggleView()
		m.refresh()
		return nil, true

	case key.Matches(msg, m.keys.CycleSandbox):
		m.session.CycleSandbox()
		m.refresh()
		return nil, true

	case key.Matches(msg, m.keys.CycleApproval):
		m.session.CycleApproval()
		m.refresh()
		return nil, true

	case key.Matches(msg, m.keys.Clear):
		m.session.ClearLog()
		m.refresh()
		return nil, true

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return nil, true

	case key.Matches(msg, m.keys.ScrollUp):
		m.focusedViewport().LineUp(3)
		return nil, true

	case key.Matches(msg, m.keys.ScrollDown):
		m.focusedViewport().LineDown(3)
		return nil, true
	}
	return nil, false
}

func (m *Model) focusedViewport() *viewport.Model {
	if m.focus == PaneTerminal {
		return &m.terminal
	}
	return &m.codex
}

// submit routes the input line: slash commands first, then the focused
// pane decides between a shell command and an agent prompt.
func (m *Model) submit() {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return
	}
	m.input.Reset()
	m.statusMsg = ""

	if strings.HasPrefix(text, "/") {
		m.runCommand(text)
		return
	}

	if m.focus == PaneTerminal {
		m.session.RunShell(text)
		return
	}
	if err := m.session.RunAgent(text); err != nil {
		m.statusMsg = err.Error()
	}
}

func (m *Model) runCommand(text string) {
	cmd, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/login":
		m.session.LoginAgent()
	case "/status":
		m.session.CheckAgentStatus()
	case "/install":
		m.session.InstallAgent(true)
	case "/tools":
		list := rest
		if list == "" {
			list = m.session.Config.PythonTools
		}
		if err := m.session.InstallPythonTools(list); err != nil {
			m.statusMsg = err.Error()
		}
	case "/py":
		m.session.RunPython(rest)
	case "/package":
		if err := m.session.PackageScript(rest, true); err != nil {
			m.statusMsg = err.Error()
		}
	case "/clear":
		m.session.ClearLog()
	case "/help":
		m.showHelp = !m.showHelp
	default:
		m.statusMsg = "unknown command: " + cmd
	}
}
