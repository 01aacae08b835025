package codex

import "strings"

// SandboxMode controls the filesystem access scope the agent is asked to
// run under.
type SandboxMode int

const (
	SandboxReadOnly SandboxMode = iota
	SandboxWorkspaceWrite
	SandboxDangerFullAccess
)

func (m SandboxMode) String() string {
	switch m {
	case SandboxReadOnly:
		return "read-only"
	case SandboxWorkspaceWrite:
		return "workspace-write"
	case SandboxDangerFullAccess:
		return "danger-full-access"
	}
	return "workspace-write"
}

// Label is the human-facing description shown in the status bar.
func (m SandboxMode) Label() string {
	switch m {
	case SandboxReadOnly:
		return "read only"
	case SandboxWorkspaceWrite:
		return "agent (workspace)"
	case SandboxDangerFullAccess:
		return "danger (full access)"
	}
	return "agent (workspace)"
}

// Next cycles through the modes in UI toggle order.
func (m SandboxMode) Next() SandboxMode {
	switch m {
	case SandboxReadOnly:
		return SandboxWorkspaceWrite
	case SandboxWorkspaceWrite:
		return SandboxDangerFullAccess
	default:
		return SandboxReadOnly
	}
}

// ParseSandboxMode accepts the CLI spellings plus a few shorthands.
func ParseSandboxMode(value string) (SandboxMode, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "read-only", "readonly", "ro":
		return SandboxReadOnly, true
	case "workspace-write", "workspace", "write", "agent":
		return SandboxWorkspaceWrite, true
	case "danger-full-access", "danger", "full", "full-access":
		return SandboxDangerFullAccess, true
	}
	return SandboxWorkspaceWrite, false
}

// ApprovalPolicy controls when the agent must ask before acting.
type ApprovalPolicy int

const (
	ApprovalUntrusted ApprovalPolicy = iota
	ApprovalOnFailure
	ApprovalOnRequest
	ApprovalNever
)

func (p ApprovalPolicy) String() string {
	switch p {
	case ApprovalUntrusted:
		return "untrusted"
	case ApprovalOnFailure:
		return "on-failure"
	case ApprovalOnRequest:
		return "on-request"
	case ApprovalNever:
		return "never"
	}
	return "never"
}

func (p ApprovalPolicy) Label() string {
	switch p {
	case ApprovalUntrusted:
		return "untrusted"
	case ApprovalOnFailure:
		return "on failure"
	case ApprovalOnRequest:
		return "on request"
	case ApprovalNever:
		return "never"
	}
	return "never"
}

func (p ApprovalPolicy) Next() ApprovalPolicy {
	switch p {
	case ApprovalOnRequest:
		return ApprovalOnFailure
	case ApprovalOnFailure:
		return ApprovalUntrusted
	case ApprovalUntrusted:
		return ApprovalNever
	default:
		return ApprovalOnRequest
	}
}

// ParseApprovalPolicy accepts the CLI spellings plus a few shorthands.
func ParseApprovalPolicy(value string) (ApprovalPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "untrusted":
		return ApprovalUntrusted, true
	case "on-failure", "onfailure":
		return ApprovalOnFailure, true
	case "on-request", "onrequest":
		return ApprovalOnRequest, true
	case "never", "none", "off":
		return ApprovalNever, true
	}
	return ApprovalNever, false
}
