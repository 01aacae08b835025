package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"portide/internal/app"
	"portide/internal/codex"
)

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3F3F46")).
			Padding(0, 1)
	paneFocusedStyle = paneStyle.
				BorderForeground(lipgloss.Color("#7C3AED"))
	paneTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A1A1AA")).
			Bold(true)
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A1A1AA"))
	statusErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171"))

	labelAssistant = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")).Bold(true)
	labelUser      = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Bold(true)
	labelAction    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true)
	textError      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
)

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	paneWidth := width/2 - 4
	if paneWidth < 20 {
		paneWidth = 20
	}
	paneHeight := height - 7
	if paneHeight < 5 {
		paneHeight = 5
	}
	m.terminal.Width = paneWidth
	m.terminal.Height = paneHeight
	m.codex.Width = paneWidth
	m.codex.Height = paneHeight
	m.input.SetWidth(width - 6)
}

// refresh re-renders both panes from the transcript and pins them to the
// bottom so streaming output stays in view.
func (m *Model) refresh() {
	m.terminal.SetContent(m.renderPane(app.TargetMain))
	m.codex.SetContent(m.renderPane(app.TargetCodex))
	m.terminal.GotoBottom()
	m.codex.GotoBottom()
}

func (m *Model) renderPane(target app.Target) string {
	width := m.terminal.Width
	var b strings.Builder
	for _, e := range m.session.Entries() {
		if e.Target != target {
			continue
		}
		if e.Label != "" {
			b.WriteString(labelStyle(e.Kind).Render(e.Label))
			b.WriteString("\n")
		}
		for _, line := range codex.WrapText(e.Text, width) {
			if e.Kind == app.EntryError {
				line = textError.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		if e.Label != "" {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func labelStyle(kind app.EntryKind) lipgloss.Style {
	switch kind {
	case app.EntryAssistant:
		return labelAssistant
	case app.EntryUser:
		return labelUser
	case app.EntryAction:
		return labelAction
	default:
		return paneTitleStyle
	}
}

func (m *Model) View() string {
	if m.showHelp {
		return m.helpView()
	}

	termStyle, codexStyle := paneStyle, paneFocusedStyle
	if m.focus == PaneTerminal {
		termStyle, codexStyle = paneFocusedStyle, paneStyle
	}

	terminal := termStyle.Render(
		paneTitleStyle.Render("Terminal") + "\n" + m.terminal.View())
	codexPane := codexStyle.Render(
		paneTitleStyle.Render("Codex") + "\n" + m.codex.View())

	panes := lipgloss.JoinHorizontal(lipgloss.Top, terminal, codexPane)

	return lipgloss.JoinVertical(lipgloss.Left,
		panes,
		m.input.View(),
		m.statusBar(),
	)
}

func (m *Model) statusBar() string {
	if m.statusMsg != "" {
		return statusErrStyle.Render(m.statusMsg)
	}
	view := "raw"
	if m.session.Compact {
		view = "compact"
	}
	busy := ""
	if m.session.Busy() {
		busy = "  •  running"
	}
	return statusBarStyle.Render(
		"sandbox: " + m.session.Sandbox.Label() +
			"  •  approvals: " + m.session.Approval.Label() +
			"  •  view: " + view + busy +
			"  •  alt+h help")
}
