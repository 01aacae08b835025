package codex

import (
	"strings"
	"testing"
)

func itemTexts(items []Item, kind Kind) []string {
	var out []string
	for _, item := range items {
		if item.Kind == kind {
			out = append(out, item.Text)
		}
	}
	return out
}

func TestLineResponseItemAssistant(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(true)
	items := n.Line(`{"type":"response_item","payload":{"type":"message","role":"assistant","content":[{"type":"output_text","text":"Bonjour"}]}}`)
	texts := itemTexts(items, KindAssistant)
	if len(texts) != 1 || texts[0] != "Bonjour" {
		t.Fatalf("assistant texts = %q, want [Bonjour]", texts)
	}
}

func TestLineEventMsgAssistant(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(true)
	items := n.Line(`{"type":"event_msg","payload":{"type":"agent_message","message":"Salut"}}`)
	texts := itemTexts(items, KindAssistant)
	if len(texts) != 1 || texts[0] != "Salut" {
		t.Fatalf("assistant texts = %q, want [Salut]", texts)
	}
}

func TestLineUserEcho(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(true)
	items := n.Line(`{"type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"Bonjour"}]}}`)
	texts := itemTexts(items, KindUser)
	if len(texts) != 1 || texts[0] != "Bonjour" {
		t.Fatalf("user texts = %q, want [Bonjour]", texts)
	}
}

func TestLineToolCall(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(true)
	items := n.Line(`{"type":"tool_call","name":"list_files","arguments":{"path":"."}}`)
	texts := itemTexts(items, KindAction)
	if len(texts) != 1 {
		t.Fatalf("action texts = %q, want one entry", texts)
	}
	if !strings.Contains(texts[0], "list_files") || !strings.Contains(texts[0], `"path":"."`) {
		t.Fatalf("action = %q, want name and rendered arguments", texts[0])
	}
}

func TestLineDeltaReassembly(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(true)
	if items := n.Line(`{"type":"response.output_text.delta","delta":"Hel"}`); len(items) != 0 {
		t.Fatalf("delta emitted %q, want buffering", items)
	}
	if items := n.Line(`{"type":"response.output_text.delta","delta":"lo"}`); len(items) != 0 {
		t.Fatalf("delta emitted %q, want buffering", items)
	}
	items := n.Line(`{"type":"response.completed"}`)
	texts := itemTexts(items, KindAssistant)
	if len(texts) != 1 || texts[0] != "Hello" {
		t.Fatalf("flushed = %q, want [Hello]", texts)
	}
	if extra := n.Flush(); len(extra) != 0 {
		t.Fatalf("second flush = %q, want empty", extra)
	}
}

func TestFlushOnExitWithBufferedText(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(true)
	n.Line(`{"type":"response.output_text.delta","delta":"tail"}`)
	items := n.Flush()
	texts := itemTexts(items, KindAssistant)
	if len(texts) != 1 || texts[0] != "tail" {
		t.Fatalf("flush = %q, want [tail]", texts)
	}
}

func TestLineErrorWithStatusHint(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(true)
	items := n.Line(`{"type":"error","message":"stream error: unexpected status 401 Unauthorized"}`)
	texts := itemTexts(items, KindAction)
	if len(texts) != 2 {
		t.Fatalf("actions = %q, want failure notice plus hint", texts)
	}
	if !strings.Contains(texts[0], "401") {
		t.Fatalf("notice = %q, want the status code", texts[0])
	}
	if !strings.Contains(texts[1], "401") {
		t.Fatalf("hint = %q, want the 401 hint", texts[1])
	}
}

func TestLineTurnFailedGeneric(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(true)
	items := n.Line(`{"type":"turn.failed","error":{"message":"something odd"}}`)
	texts := itemTexts(items, KindAction)
	if len(texts) != 1 || !strings.Contains(texts[0], "Turn failed") {
		t.Fatalf("actions = %q, want one generic failure notice", texts)
	}
}

func TestLinePlainTextPassthrough(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(true)
	items := n.Line("not json at all")
	if len(items) != 1 || items[0].Kind != KindAction || items[0].Text != "not json at all" {
		t.Fatalf("items = %+v, want one Action passthrough", items)
	}
}

func TestLineDiagnosticTranslation(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(true)
	items := n.Line("Usage: codex exec --json --sandbox <SANDBOX_MODE> [PROMPT]")
	if len(items) != 1 || items[0].Kind != KindAction || !strings.Contains(items[0].Text, "Usage:") {
		t.Fatalf("items = %+v, want translated usage banner", items)
	}
}

func TestLineRawMode(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(false)
	items := n.Line(`{"type":"response_item","payload":{"type":"message","role":"assistant","content":"hi"}}`)
	if len(items) != 1 || items[0].Kind != KindRaw || !strings.HasPrefix(items[0].Text, "[response_item]") {
		t.Fatalf("items = %+v, want one [type]-prefixed raw line", items)
	}

	items = n.Line("plain diagnostics")
	if len(items) != 1 || items[0].Kind != KindRaw {
		t.Fatalf("items = %+v, want raw passthrough", items)
	}
}

func TestLineEmpty(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(true)
	if items := n.Line("   "); len(items) != 0 {
		t.Fatalf("items = %+v, want none for blank line", items)
	}
}

func TestExtractDisplayItemsNestedItem(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(true)
	items := n.Line(`{"type":"item.completed","item":{"type":"agent_message","text":"Salut"}}`)
	texts := itemTexts(items, KindAssistant)
	if len(texts) != 1 || texts[0] != "Salut" {
		t.Fatalf("assistant texts = %q, want [Salut]", texts)
	}
}

func TestExtractDisplayItemsDedupsWithinRecord(t *testing.T) {
	t.Parallel()

	// The same tool call is visible both as the payload and in a
	// tool_calls list; it must come back once.
	n := NewNormalizer(true)
	items := n.Line(`{"type":"response_item","payload":{"type":"tool_call","name":"run","arguments":"ls"},"tool_calls":[{"name":"run","arguments":"ls"}]}`)
	texts := itemTexts(items, KindAction)
	if len(texts) != 1 {
		t.Fatalf("actions = %q, want the duplicate collapsed", texts)
	}
}

func TestExtractDisplayItemsContentFilter(t *testing.T) {
	t.Parallel()

	obj := map[string]any{
		"type": "response_item",
		"payload": map[string]any{
			"type": "message",
			"role": "assistant",
			"content": []any{
				map[string]any{"type": "output_text", "text": "OK"},
				map[string]any{"type": "image", "text": "NO"},
			},
		},
	}
	got := ExtractAssistantMessages(obj)
	if len(got) != 1 || got[0] != "OK" {
		t.Fatalf("messages = %q, want [OK]", got)
	}
}

func TestFormatActionShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload map[string]any
		want    string
		ok      bool
	}{
		{
			name:    "name and object args",
			payload: map[string]any{"type": "tool_call", "name": "run", "arguments": map[string]any{"cmd": "ls"}},
			want:    `run: {"cmd":"ls"}`,
			ok:      true,
		},
		{
			name:    "name only",
			payload: map[string]any{"type": "tool_call", "name": "noop"},
			want:    "noop",
			ok:      true,
		},
		{
			name:    "args only",
			payload: map[string]any{"type": "action", "input": "make build"},
			want:    "make build",
			ok:      true,
		},
		{
			name:    "description fallback",
			payload: map[string]any{"type": "action", "description": "thinking about it"},
			want:    "thinking about it",
			ok:      true,
		},
		{
			name:    "implicit shape via name+args",
			payload: map[string]any{"tool": "grep", "args": "TODO"},
			want:    "grep: TODO",
			ok:      true,
		},
		{
			name:    "not an action",
			payload: map[string]any{"type": "other", "name": "x"},
			ok:      false,
		},
	}
	for _, tc := range cases {
		got, ok := formatAction(tc.payload)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: formatAction = %q, %v; want %q, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractStatusCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"unexpected status 401 Unauthorized", 401, true},
		{"last status: 403 Forbidden", 403, true},
		{"HTTP 429", 429, true},
		{"no code here", 0, false},
	}
	for _, tc := range cases {
		got, ok := ExtractStatusCode(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ExtractStatusCode(%q) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestHintForStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []int{401, 403, 407, 429, 500, 503} {
		hint, ok := HintForStatus(status)
		if !ok || hint == "" {
			t.Fatalf("HintForStatus(%d) = %q, %v; want a hint", status, hint, ok)
		}
	}
	if _, ok := HintForStatus(418); ok {
		t.Fatal("HintForStatus(418) should have no hint")
	}
}

func TestTranslateLineTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in       string
		contains string
	}{
		{"error: unexpected argument '--ask-for-approval' found", "--ask-for-approval"},
		{"tip: to pass '--ask-for-approval' as a value, use '-- --ask-for-approval'", "Tip:"},
		{"Usage: codex exec --json --sandbox <SANDBOX_MODE> [PROMPT]", "Usage:"},
		{"For more information, try '--help'.", "--help"},
		{"error: something else broke", "invalid Codex command"},
		{"Logged in using ChatGPT", "Logged in"},
		{"up to date in 230ms", "up to date"},
	}
	for _, tc := range cases {
		got, ok := TranslateLine(tc.in)
		if !ok || !strings.Contains(got, tc.contains) {
			t.Fatalf("TranslateLine(%q) = %q, %v; want substring %q", tc.in, got, ok, tc.contains)
		}
	}
	if _, ok := TranslateLine("just some output"); ok {
		t.Fatal("TranslateLine should pass ordinary lines through")
	}
}
