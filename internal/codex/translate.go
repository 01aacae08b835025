package codex

import "strings"

// TranslateLine maps the agent CLI's own human-readable diagnostics
// (argument rejection, usage banners, login/version banners) to short
// user-facing strings. Unrecognized lines pass through untranslated.
func TranslateLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}
	lower := strings.ToLower(trimmed)

	rejected := strings.Contains(lower, "unexpected argument") ||
		strings.Contains(lower, "unknown argument") ||
		strings.Contains(lower, "unrecognized")

	switch {
	case strings.Contains(lower, "--ask-for-approval") && rejected:
		return "Error: the --ask-for-approval option is not recognized by this Codex version.", true
	case strings.HasPrefix(lower, "tip:") && strings.Contains(lower, "--ask-for-approval"):
		return "Tip: to pass --ask-for-approval as a value, use -- --ask-for-approval.", true
	case strings.HasPrefix(lower, "usage: codex exec"):
		return "Usage: codex exec --json --sandbox <SANDBOX_MODE> [PROMPT].", true
	case strings.HasPrefix(lower, "for more information"), strings.Contains(lower, "try '--help'"):
		return "For more information, use --help.", true
	case strings.HasPrefix(lower, "error:"):
		if rejected {
			return "Error: unknown or invalid option. See --help.", true
		}
		return "Error: invalid Codex command. See --help.", true
	case strings.HasPrefix(lower, "logged in using"):
		return "Logged in with ChatGPT.", true
	case strings.HasPrefix(lower, "up to date in"):
		return "Already up to date.", true
	}
	return "", false
}
