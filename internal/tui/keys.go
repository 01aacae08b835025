package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type keyMap struct {
	Quit          key.Binding
	Submit        key.Binding
	SwitchPane    key.Binding
	ToggleView    key.Binding
	CycleSandbox  key.Binding
	CycleApproval key.Binding
	Clear         key.Binding
	Help          key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run"),
		),
		SwitchPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		ToggleView: key.NewBinding(
			key.WithKeys("alt+v"),
			key.WithHelp("alt+v", "compact/raw view"),
		),
		CycleSandbox: key.NewBinding(
			key.WithKeys("alt+s"),
			key.WithHelp("alt+s", "cycle sandbox"),
		),
		CycleApproval: key.NewBinding(
			key.WithKeys("alt+a"),
			key.WithHelp("alt+a", "cycle approvals"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear logs"),
		),
		Help: key.NewBinding(
			key.WithKeys("alt+h"),
			key.WithHelp("alt+h", "help"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
	}
}

var (
	helpTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E4E4E7")).
			Bold(true)
	helpSectionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#A1A1AA")).
				Bold(true)
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED"))
)

func (m *Model) helpView() string {
	var b strings.Builder

	b.WriteString(helpTitleStyle.Render("portide help"))
	b.WriteString("\n\n")

	b.WriteString(helpSectionStyle.Render("keys"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  run input in the focused pane\n", helpKeyStyle.Render("enter")))
	b.WriteString(fmt.Sprintf("  %s  switch between Terminal and Codex\n", helpKeyStyle.Render("tab")))
	b.WriteString(fmt.Sprintf("  %s  toggle compact/raw Codex view\n", helpKeyStyle.Render("alt+v")))
	b.WriteString(fmt.Sprintf("  %s  cycle sandbox mode\n", helpKeyStyle.Render("alt+s")))
	b.WriteString(fmt.Sprintf("  %s  cycle approval policy\n", helpKeyStyle.Render("alt+a")))
	b.WriteString(fmt.Sprintf("  %s  clear both panes\n", helpKeyStyle.Render("ctrl+l")))
	b.WriteString(fmt.Sprintf("  %s  quit\n", helpKeyStyle.Render("ctrl+c")))

	b.WriteString("\n")
	b.WriteString(helpSectionStyle.Render("commands"))
	b.WriteString("\n")
	b.WriteString("  /login            log in to Codex (browser or device auth)\n")
	b.WriteString("  /status           check Codex login status\n")
	b.WriteString("  /install          reinstall the Codex package\n")
	b.WriteString("  /tools [list]     pip-install Python tools into the workspace\n")
	b.WriteString("  /py <script.py>   run a Python script\n")
	b.WriteString("  /package <script> build a standalone binary with PyInstaller\n")
	b.WriteString("  /clear            clear both panes\n")

	b.WriteString("\n")
	b.WriteString("alt+h to close")

	return b.String()
}
