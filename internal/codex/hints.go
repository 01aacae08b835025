package codex

import (
	"regexp"
	"strconv"
)

var (
	statusKeywordRe = regexp.MustCompile(`(?i)(?:unexpected status|last status[: ]+)\s*(\d{3})`)
	// Fallback on any bare 3-digit token. Known to misfire on unrelated
	// numbers (ports, line counts); kept because the agent's error strings
	// are not stable enough to match tighter.
	statusBareRe = regexp.MustCompile(`\b(\d{3})\b`)
)

// ExtractStatusCode pulls an HTTP-like status code out of an agent error
// message, preferring an explicit "status" keyword over a bare number.
func ExtractStatusCode(msg string) (int, bool) {
	if m := statusKeywordRe.FindStringSubmatch(msg); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			return code, true
		}
	}
	if m := statusBareRe.FindStringSubmatch(msg); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			return code, true
		}
	}
	return 0, false
}

// HintForStatus maps the status codes the agent is known to surface to a
// remediation hint. Unknown codes get no hint.
func HintForStatus(status int) (string, bool) {
	switch {
	case status == 401:
		return "401 = invalid authentication -> run login (Ctrl+K) or `codex logout` then log in with ChatGPT.", true
	case status == 403:
		return "403 = access denied -> check ChatGPT login (not an API key), account rights, and network.", true
	case status == 407:
		return "407 = proxy auth required -> set HTTP_PROXY/HTTPS_PROXY.", true
	case status == 429:
		return "429 = rate limited -> retry later or slow down.", true
	case status >= 500 && status <= 599:
		return "5xx = server error -> retry; possibly an incident on the provider side.", true
	}
	return "", false
}
