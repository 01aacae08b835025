package codex

import "strings"

// Support is the per-flag negotiation state. A flag is assumed supported
// until an error line proves otherwise; the downgrade is one-way.
type Support int

const (
	SupportUnknown Support = iota
	SupportYes
	SupportNo
)

// FlagUse records which optional flags were actually passed on the
// invocation whose output is being inspected. Error lines only count
// against a flag that was in play.
type FlagUse struct {
	Sandbox  bool
	Approval bool
}

// Capabilities tracks, for the lifetime of the session, whether the
// installed agent version accepts the sandbox and approval flags.
type Capabilities struct {
	Sandbox  Support
	Approval Support
}

// ExtraArgs builds the optional flag pairs for the next invocation,
// omitting any flag that is known-unsupported. Order is fixed: sandbox
// pair first, approval pair second.
func (c *Capabilities) ExtraArgs(mode SandboxMode, policy ApprovalPolicy) []string {
	var args []string
	if c.Sandbox != SupportNo {
		args = append(args, "--sandbox", mode.String())
	}
	if c.Approval != SupportNo {
		args = append(args, "--ask-for-approval", policy.String())
	}
	return args
}

// UsedFlags reports which optional flags appear in a built argument list.
func UsedFlags(args []string) FlagUse {
	var used FlagUse
	for _, arg := range args {
		switch arg {
		case "--sandbox":
			used.Sandbox = true
		case "--ask-for-approval":
			used.Approval = true
		}
	}
	return used
}

func flagRejected(lower, flag string) bool {
	return strings.Contains(lower, flag) &&
		(strings.Contains(lower, "unexpected argument") ||
			strings.Contains(lower, "unknown argument") ||
			strings.Contains(lower, "unrecognized"))
}

func flagValueRejected(lower, flag string) bool {
	return strings.Contains(lower, flag) &&
		(strings.Contains(lower, "invalid value") ||
			strings.Contains(lower, "possible values"))
}

// InspectLine checks one output line for evidence that a flag which was in
// use is not accepted by this agent version. When it finds some, the flag
// is downgraded (one-way, idempotent) and retry is true: the caller should
// re-run the pending prompt once with the reduced flag set. notice is
// non-empty only on the first downgrade of a flag.
func (c *Capabilities) InspectLine(line string, used FlagUse) (notice string, retry bool) {
	lower := strings.ToLower(line)

	if used.Sandbox && (flagRejected(lower, "--sandbox") || flagValueRejected(lower, "--sandbox")) {
		if c.Sandbox != SupportNo {
			c.Sandbox = SupportNo
			notice = "The --sandbox option is not supported by this Codex version. Retrying without a sandbox (default mode)."
		}
		return notice, true
	}

	if used.Approval && (flagRejected(lower, "--ask-for-approval") || flagValueRejected(lower, "--ask-for-approval")) {
		if c.Approval != SupportNo {
			c.Approval = SupportNo
			notice = "The --ask-for-approval option is not supported by this Codex version. Retrying without approvals."
		}
		return notice, true
	}

	return "", false
}
