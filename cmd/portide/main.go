package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"portide/internal/app"
	"portide/internal/tui"
)

const version = "1.0.0"

// openSessionLog creates the JSON log file under the workspace state dir.
// The TUI owns the terminal, so diagnostics never go to stderr.
func openSessionLog(root string) (*os.File, error) {
	dir := filepath.Join(root, ".portide")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "session.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func workspaceRoot(flagValue string) (string, error) {
	if flagValue != "" {
		return filepath.Abs(flagValue)
	}
	return os.Getwd()
}

func newSession(rootFlag string) (*app.Session, func(), error) {
	root, err := workspaceRoot(rootFlag)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := app.LoadConfig(app.DefaultConfigPath())
	if err != nil {
		return nil, nil, err
	}

	logFile, err := openSessionLog(root)
	if err != nil {
		return nil, nil, err
	}
	session := app.NewSession(root, cfg, app.NewLogger(logFile))
	cleanup := func() {
		_ = app.SaveConfig(session.Config, app.DefaultConfigPath())
		_ = logFile.Close()
	}
	return session, cleanup, nil
}

func main() {
	var rootDir string

	root := &cobra.Command{
		Use:     "portide",
		Short:   "Portable IDE shell with an embedded Codex agent",
		Long:    "portide is a portable development shell: a terminal pane, a Codex agent pane, and a workspace-local toolchain (node runtime, npm-installed agent, pip-installed Python tools) that travels with the drive it runs from.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cleanup, err := newSession(rootDir)
			if err != nil {
				return err
			}
			defer cleanup()

			p := tea.NewProgram(tui.New(session), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	root.PersistentFlags().StringVar(&rootDir, "root", "", "workspace root (default: current directory)")

	runCmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Run a single Codex prompt without the TUI",
		Long:  "Run one agent prompt headless and print the conversation to stdout.\n\nExamples:\n  - portide run \"explain this repo\"\n  - portide run --root /media/usb/project \"add a test\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cleanup, err := newSession(rootDir)
			if err != nil {
				return err
			}
			defer cleanup()
			return runHeadless(session, args[0])
		},
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the Codex agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cleanup, err := newSession(rootDir)
			if err != nil {
				return err
			}
			defer cleanup()
			session.LoginAgent()
			return drainHeadless(session)
		},
	}

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install the Codex agent package into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cleanup, err := newSession(rootDir)
			if err != nil {
				return err
			}
			defer cleanup()
			session.InstallAgent(true)
			return drainHeadless(session)
		},
	}

	root.AddCommand(runCmd, loginCmd, installCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runHeadless submits one prompt and streams the transcript to stdout
// until every spawned process (status probe, exec, retries) finishes.
func runHeadless(session *app.Session, prompt string) error {
	if err := session.RunAgent(prompt); err != nil {
		return err
	}
	return drainHeadless(session)
}

func drainHeadless(session *app.Session) error {
	printed := 0
	for {
		session.Drain()
		for _, e := range session.Entries()[printed:] {
			if e.Label != "" {
				fmt.Println(e.Label + ":")
			}
			fmt.Println(e.Text)
		}
		printed = len(session.Entries())
		if !session.Busy() {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
}
