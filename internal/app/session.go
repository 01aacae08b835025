package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"portide/internal/codex"
	"portide/internal/proc"
)

// ProcessKind tells the drain loop how to route a process's output.
type ProcessKind int

const (
	ProcessShell ProcessKind = iota
	ProcessPython
	ProcessPipInstall
	ProcessPyInstaller
	ProcessCodexStatus
	ProcessCodexExec
	ProcessCodexLogin
	ProcessCodexInstall
)

// Target selects which transcript pane an entry belongs to.
type Target int

const (
	// TargetMain is the shell/python output pane.
	TargetMain Target = iota
	// TargetCodex is the agent conversation pane.
	TargetCodex
)

// EntryKind styles a transcript entry.
type EntryKind int

const (
	EntryPlain EntryKind = iota
	EntryAssistant
	EntryUser
	EntryAction
	EntryError
)

// Entry is one transcript record. Label is rendered above the text for the
// labeled kinds (Assistant/You/Action).
type Entry struct {
	Target Target
	Kind   EntryKind
	Label  string
	Text   string
}

type runningProcess struct {
	id      string
	handle  *proc.Handle
	kind    ProcessKind
	target  Target
	context string
}

// Session owns everything the UI loop orchestrates: live process handles,
// the capability state shared across agent invocations, the pending prompt
// waiting on a status check or a downgrade retry, and the transcript.
// It is single-threaded by design: all methods are called from the UI
// loop, never from reader goroutines.
type Session struct {
	RootDir string
	Config  Config

	Sandbox  codex.SandboxMode
	Approval codex.ApprovalPolicy
	Compact  bool

	logger *Logger
	caps   codex.Capabilities
	norm   *codex.Normalizer

	running []runningProcess

	pendingPrompt    string
	lastPrompt       string
	retryPending     bool
	usedFlags        codex.FlagUse
	installAttempted bool

	entries         []Entry
	lastFingerprint string
}

func NewSession(root string, cfg Config, logger *Logger) *Session {
	mode, _ := codex.ParseSandboxMode(cfg.SandboxMode)
	policy, _ := codex.ParseApprovalPolicy(cfg.ApprovalPolicy)
	return &Session{
		RootDir:  root,
		Config:   cfg,
		Sandbox:  mode,
		Approval: policy,
		Compact:  cfg.CompactView,
		logger:   logger,
		norm:     codex.NewNormalizer(cfg.CompactView),
	}
}

// Entries returns the transcript; the slice is owned by the session and
// only ever appended to.
func (s *Session) Entries() []Entry {
	return s.entries
}

// Busy reports whether any spawned process is still live.
func (s *Session) Busy() bool {
	return len(s.running) > 0
}

// ClearLog resets both transcript panes.
func (s *Session) ClearLog() {
	s.entries = nil
	s.lastFingerprint = ""
	s.pushPlain(TargetMain, "logs cleared")
}

// ToggleView flips between the compact conversation view and raw JSONL.
func (s *Session) ToggleView() {
	s.Compact = !s.Compact
	s.norm = codex.NewNormalizer(s.Compact)
	s.lastFingerprint = ""
	mode := "raw"
	if s.Compact {
		mode = "compact"
	}
	s.pushPlain(TargetCodex, "Codex view: "+mode)
}

// CycleSandbox advances the preferred sandbox mode.
func (s *Session) CycleSandbox() {
	s.Sandbox = s.Sandbox.Next()
	s.Config.SandboxMode = s.Sandbox.String()
	s.pushPlain(TargetCodex, "Codex sandbox: "+s.Sandbox.Label())
}

// CycleApproval advances the preferred approval policy.
func (s *Session) CycleApproval() {
	s.Approval = s.Approval.Next()
	s.Config.ApprovalPolicy = s.Approval.String()
	s.pushPlain(TargetCodex, "Codex approvals: "+s.Approval.Label())
}

// RunShell dispatches an ad-hoc shell command to the main pane.
func (s *Session) RunShell(command string) {
	command = strings.TrimSpace(command)
	if command == "" {
		return
	}
	s.pushPlain(TargetMain, "$ "+command)
	env := codex.ToolsEnv(s.RootDir, nil)
	s.spawn(proc.ShellArgv(command), env, "shell command", TargetMain, ProcessShell)
}

// RunPython runs a script with the configured interpreter, with the
// workspace tools prefix on PATH.
func (s *Session) RunPython(script string) {
	if strings.TrimSpace(script) == "" {
		return
	}
	env := codex.ToolsEnv(s.RootDir, nil)
	argv := proc.PythonArgv(script)
	s.pushPlain(TargetMain, "$ "+strings.Join(argv, " "))
	s.spawn(argv, env, "python run", TargetMain, ProcessPython)
}

// InstallPythonTools pip-installs the configured tool list into the
// portable prefix.
func (s *Session) InstallPythonTools(raw string) error {
	tools := codex.ParseToolList(raw)
	prefix := codex.ToolsInstallPrefix(s.RootDir)
	argv, err := codex.PipInstallArgv(prefix, tools, "", false)
	if err != nil {
		return err
	}
	env := codex.ToolsEnv(s.RootDir, nil)
	s.pushPlain(TargetMain, "$ "+strings.Join(argv, " "))
	s.spawn(argv, env, "pip install", TargetMain, ProcessPipInstall)
	return nil
}

// PackageScript builds a standalone binary out of a Python script with
// PyInstaller from the portable prefix.
func (s *Session) PackageScript(script string, onefile bool) error {
	distDir := filepath.Join(s.RootDir, "dist")
	workDir := filepath.Join(s.RootDir, "build")
	argv, err := codex.PyInstallerBuildArgv(script, distDir, onefile, workDir, s.RootDir)
	if err != nil {
		return err
	}
	env := codex.ToolsEnv(s.RootDir, nil)
	if !codex.PyInstallerAvailable(s.RootDir, nil) {
		installArgv, ierr := codex.PyInstallerInstallArgv(codex.ToolsInstallPrefix(s.RootDir), "", false)
		if ierr != nil {
			return ierr
		}
		s.pushEntry(Entry{Target: TargetMain, Kind: EntryError,
			Text: "pyinstaller not found: installing it into .portide/tools now, retry the build once it finishes."})
		s.pushPlain(TargetMain, "$ "+strings.Join(installArgv, " "))
		s.spawn(installArgv, env, "pyinstaller install", TargetMain, ProcessPipInstall)
		return nil
	}
	s.pushPlain(TargetMain, "$ "+strings.Join(argv, " "))
	s.spawn(argv, env, "pyinstaller build", TargetMain, ProcessPyInstaller)
	return nil
}

// RunAgent submits a prompt. The prompt is parked as pending while a
// login-status check (or, if the CLI is absent, an install) completes;
// the status exit handler launches the real exec invocation.
func (s *Session) RunAgent(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return codex.ErrEmptyPrompt
	}
	if s.Compact {
		s.logUser(prompt)
	}
	env := codex.Env(s.RootDir, nil)
	if !codex.Available(s.RootDir, env) {
		if s.InstallAgent(false) {
			s.pendingPrompt = prompt
		}
		return nil
	}
	s.pendingPrompt = prompt
	s.spawn(codex.StatusArgv(s.RootDir, env), env, "codex status", TargetCodex, ProcessCodexStatus)
	return nil
}

// LoginAgent starts the CLI's login flow, installing the CLI first if it
// is absent.
func (s *Session) LoginAgent() {
	env := codex.Env(s.RootDir, nil)
	if !codex.Available(s.RootDir, env) {
		if !s.InstallAgent(false) {
			return
		}
	}
	s.pushPlain(TargetCodex, "Codex login: browser or device auth depending on config.")
	if !s.Config.DeviceAuth {
		s.pushPlain(TargetCodex, "Tip: if no browser opens, set PORTIDE_DEVICE_AUTH=1 and retry login.")
	}
	argv := codex.LoginArgv(s.RootDir, env, s.Config.DeviceAuth)
	s.pushPlain(TargetCodex, "$ "+strings.Join(argv, " "))
	s.spawn(argv, env, "codex login", TargetCodex, ProcessCodexLogin)
}

// CheckAgentStatus runs the login-status probe without a pending prompt.
func (s *Session) CheckAgentStatus() {
	env := codex.Env(s.RootDir, nil)
	argv := codex.StatusArgv(s.RootDir, env)
	s.pushPlain(TargetCodex, "$ "+strings.Join(argv, " "))
	s.spawn(argv, env, "codex status", TargetCodex, ProcessCodexStatus)
}

// InstallAgent npm-installs the agent package into the workspace prefix.
// Unless forced, only one automatic attempt is made per session. Returns
// whether an install was started.
func (s *Session) InstallAgent(force bool) bool {
	if s.installAttempted && !force {
		return false
	}
	s.installAttempted = true

	prefix := codex.InstallPrefix(s.RootDir)
	env := codex.Env(s.RootDir, nil)
	argv, err := codex.InstallArgv(s.RootDir, prefix, s.Config.AgentPackage)
	switch {
	case err == codex.ErrNodeMissing:
		s.pushEntry(Entry{Target: TargetCodex, Kind: EntryError,
			Text: "Portable node runtime not found: place one under " + codex.NodeToolsDir(s.RootDir) + " (node or bin/node)."})
		return false
	case err == codex.ErrNpmMissing:
		s.pushEntry(Entry{Target: TargetCodex, Kind: EntryError,
			Text: "npm-cli.js not found next to the node runtime: use a full portable node archive, not a bare binary."})
		return false
	case err != nil:
		s.pushEntry(Entry{Target: TargetCodex, Kind: EntryError, Text: "Codex install error: " + err.Error()})
		return false
	}
	s.pushPlain(TargetCodex, fmt.Sprintf("Installing Codex package=%s prefix=%s", s.Config.AgentPackage, prefix))
	s.pushPlain(TargetCodex, "$ "+strings.Join(argv, " "))
	s.spawn(argv, env, "codex install", TargetCodex, ProcessCodexInstall)
	return true
}

func (s *Session) spawn(argv []string, env map[string]string, context string, target Target, kind ProcessKind) {
	handle, err := proc.Spawn(argv, s.RootDir, env)
	if err != nil {
		s.pushEntry(Entry{Target: target, Kind: EntryError,
			Text: fmt.Sprintf("failed to run %s: %v", context, err)})
		s.logger.Error("spawn failed", map[string]any{"context": context, "error": err.Error()})
		return
	}
	id := uuid.NewString()
	s.running = append(s.running, runningProcess{
		id:      id,
		handle:  handle,
		kind:    kind,
		target:  target,
		context: context,
	})
	s.logger.Info("process started", map[string]any{"id": id, "context": context, "argv": argv})
}

// Drain polls every live handle without blocking, routing lines and exits.
// It is called once per UI tick. Returns whether anything changed, so the
// caller knows to redraw.
func (s *Session) Drain() bool {
	if len(s.running) == 0 {
		return false
	}
	changed := false
	active := s.running
	s.running = nil
	var remaining []runningProcess

	for i := range active {
		p := &active[i]
		finished := false
		for {
			ev, ok := p.handle.TryRecv()
			if !ok {
				break
			}
			changed = true
			if ev.Kind == proc.EventLine {
				s.handleLine(p, ev.Text)
				continue
			}
			if ev.Code != nil && *ev.Code != 0 {
				s.pushEntry(Entry{Target: p.target, Kind: EntryError,
					Text: fmt.Sprintf("%s finished with an error (rc=%d).", p.context, *ev.Code)})
			}
			s.logger.Info("process exited", map[string]any{"id": p.id, "context": p.context, "code": ev.Code})
			s.handleExit(p, ev.Code)
			finished = true
			break
		}
		if finished {
			p.handle.Join()
		} else {
			remaining = append(remaining, *p)
		}
	}

	// Exit handlers may have spawned retries or follow-ups; keep them.
	s.running = append(remaining, s.running...)
	return changed
}

func (s *Session) handleLine(p *runningProcess, line string) {
	if p.kind != ProcessCodexExec {
		s.pushPlain(p.target, line)
		return
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if notice, retry := s.caps.InspectLine(trimmed, s.usedFlags); retry {
		s.retryPending = true
		if notice != "" {
			s.logAction(notice)
			s.logger.Warn("capability downgraded", map[string]any{"line": trimmed})
		}
		return
	}
	if s.retryPending {
		// The invocation is already doomed; drop its remaining noise.
		return
	}
	for _, item := range s.norm.Line(line) {
		s.emit(item)
	}
}

func (s *Session) handleExit(p *runningProcess, code *int) {
	switch p.kind {
	case ProcessCodexStatus:
		s.handleStatusExit(code)
	case ProcessCodexExec:
		for _, item := range s.norm.Flush() {
			s.emit(item)
		}
		if s.retryPending {
			s.retryPending = false
			s.launchExec(s.lastPrompt)
		}
	case ProcessCodexInstall:
		env := codex.Env(s.RootDir, nil)
		if codex.Available(s.RootDir, env) {
			s.pushPlain(TargetCodex, "Codex installed.")
			if s.pendingPrompt != "" {
				prompt := s.pendingPrompt
				s.pendingPrompt = ""
				_ = s.RunAgent(prompt)
			}
		}
	}
}

func (s *Session) handleStatusExit(code *int) {
	if s.pendingPrompt == "" {
		return
	}
	prompt := s.pendingPrompt
	s.pendingPrompt = ""
	if code == nil || *code != 0 {
		s.logAction("Codex login check failed (status returned an error).")
		s.logAction("If you are not authenticated, log in and try again.")
		s.logAction("If you are authenticated, check the install and the network.")
		if !s.Config.DeviceAuth {
			s.logAction("Tip: if no browser opens, set PORTIDE_DEVICE_AUTH=1 and retry login.")
		}
		return
	}
	s.lastPrompt = prompt
	s.launchExec(prompt)
}

// launchExec builds and spawns the real exec invocation for a prompt,
// recording which optional flags were passed so error lines can be
// attributed to them.
func (s *Session) launchExec(prompt string) {
	if prompt == "" {
		return
	}
	env := codex.Env(s.RootDir, nil)
	extra := s.caps.ExtraArgs(s.Sandbox, s.Approval)
	s.usedFlags = codex.UsedFlags(extra)
	argv, err := codex.ExecArgv(prompt, s.RootDir, env, true, extra)
	if err != nil {
		s.pushEntry(Entry{Target: TargetCodex, Kind: EntryError, Text: "Codex error: " + err.Error()})
		return
	}
	if !s.Compact {
		s.pushPlain(TargetCodex, "$ "+strings.Join(argv, " "))
	}
	s.spawn(argv, env, "codex exec", TargetCodex, ProcessCodexExec)
}

func (s *Session) emit(item codex.Item) {
	switch item.Kind {
	case codex.KindAssistant:
		s.logAssistant(item.Text)
	case codex.KindUser:
		s.logUser(item.Text)
	case codex.KindAction:
		s.logAction(item.Text)
	case codex.KindRaw:
		s.pushPlain(TargetCodex, item.Text)
	}
}

func (s *Session) logAssistant(text string) {
	s.logLabeled("Assistant", text, EntryAssistant)
}

func (s *Session) logUser(text string) {
	s.logLabeled("You", text, EntryUser)
}

func (s *Session) logAction(text string) {
	s.logLabeled("Action", text, EntryAction)
}

// logLabeled appends a labeled conversation entry, suppressing an entry
// identical to the immediately preceding one. Overlapping recognition
// rules can surface the same item from consecutive records; the
// fingerprint absorbs that.
func (s *Session) logLabeled(label, text string, kind EntryKind) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return
	}
	fingerprint := label + ":" + cleaned
	if fingerprint == s.lastFingerprint {
		return
	}
	s.lastFingerprint = fingerprint
	s.pushEntry(Entry{Target: TargetCodex, Kind: kind, Label: label, Text: text})
}

func (s *Session) pushPlain(target Target, text string) {
	s.pushEntry(Entry{Target: target, Kind: EntryPlain, Text: text})
}

func (s *Session) pushEntry(e Entry) {
	s.entries = append(s.entries, e)
}
