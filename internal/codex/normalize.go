package codex

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind classifies a normalized display item.
type Kind int

const (
	// KindAssistant is text spoken by the agent.
	KindAssistant Kind = iota
	// KindUser is an echo of the user's own request.
	KindUser
	// KindAction is a tool invocation or informational notice.
	KindAction
	// KindRaw is a log-only line for the raw view; it carries no label and
	// is exempt from transcript dedup.
	KindRaw
)

// Item is one normalized unit of agent output ready for rendering.
// Equality on (Kind, Text) defines dedup.
type Item struct {
	Kind Kind
	Text string
}

// Normalizer turns the agent's newline-delimited output into display
// items, one line at a time. In compact mode streamed text deltas are
// buffered and flushed as a single assistant item; in raw mode lines are
// passed through as log entries.
type Normalizer struct {
	Compact bool

	assistant strings.Builder
}

func NewNormalizer(compact bool) *Normalizer {
	return &Normalizer{Compact: compact}
}

// Line classifies one raw output line. Malformed JSON degrades to
// plain-text passthrough rather than being dropped.
func (n *Normalizer) Line(line string) []Item {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	if translated, ok := TranslateLine(trimmed); ok {
		if n.Compact {
			return []Item{{Kind: KindAction, Text: translated}}
		}
		return []Item{{Kind: KindRaw, Text: translated}}
	}

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		if n.Compact {
			return []Item{{Kind: KindAction, Text: trimmed}}
		}
		return []Item{{Kind: KindRaw, Text: trimmed}}
	}
	obj, ok := value.(map[string]any)
	if !ok {
		if n.Compact {
			return nil
		}
		return []Item{{Kind: KindRaw, Text: compactJSON(value)}}
	}

	eventType, _ := obj["type"].(string)

	if n.Compact {
		switch eventType {
		case "response.output_text.delta", "response.output_text":
			delta, _ := obj["delta"].(string)
			if delta == "" {
				delta, _ = obj["text"].(string)
			}
			n.assistant.WriteString(delta)
			return nil
		case "response.output_text.done", "response.output_item.done", "response.completed":
			if n.assistant.Len() == 0 {
				if text, _ := obj["text"].(string); text != "" {
					return []Item{{Kind: KindAssistant, Text: text}}
				}
			}
			return n.Flush()
		}
	}

	switch eventType {
	case "error":
		msg, _ := obj["message"].(string)
		return n.failureItems(msg, "Codex error")
	case "turn.failed":
		var msg string
		if errObj, ok := obj["error"].(map[string]any); ok {
			msg, _ = errObj["message"].(string)
			if msg == "" {
				msg, _ = errObj["text"].(string)
			}
		}
		return n.failureItems(msg, "Turn failed")
	}

	if n.Compact {
		return ExtractDisplayItems(obj)
	}
	if eventType != "" {
		return []Item{{Kind: KindRaw, Text: "[" + eventType + "] " + compactJSON(obj)}}
	}
	return []Item{{Kind: KindRaw, Text: compactJSON(obj)}}
}

// Flush drains the in-progress assistant buffer, emitting it as one item.
// Called on the done/completed events and again when the process exits
// with text still buffered.
func (n *Normalizer) Flush() []Item {
	if n.assistant.Len() == 0 {
		return nil
	}
	text := n.assistant.String()
	n.assistant.Reset()
	return []Item{{Kind: KindAssistant, Text: text}}
}

// failureItems renders a structured failure: a translated diagnostic if
// the embedded message matches the table, a status-code hint pair when one
// can be extracted, or a generic retry notice.
func (n *Normalizer) failureItems(msg, label string) []Item {
	if !n.Compact {
		return []Item{{Kind: KindRaw, Text: label + "."}}
	}
	if translated, ok := TranslateLine(msg); ok {
		return []Item{{Kind: KindAction, Text: translated}}
	}
	if status, ok := ExtractStatusCode(msg); ok {
		items := []Item{{Kind: KindAction, Text: label + ": HTTP " + strconv.Itoa(status) + "."}}
		if hint, ok := HintForStatus(status); ok {
			items = append(items, Item{Kind: KindAction, Text: hint})
		}
		return items
	}
	return []Item{{Kind: KindAction, Text: label + ": something went wrong. Check the log or retry."}}
}

// ExtractDisplayItems classifies one parsed JSON record into zero or more
// display items: top-level event_msg and response_item shapes, completed
// output text, nested item payloads, and tool calls found in any of the
// containers. Duplicates within the record are collapsed to their first
// occurrence.
func ExtractDisplayItems(obj map[string]any) []Item {
	var items []Item
	eventType, _ := obj["type"].(string)
	payload, _ := obj["payload"].(map[string]any)

	if eventType == "event_msg" && payload != nil {
		payloadType, _ := payload["type"].(string)
		msg := payload["message"]
		if msg == nil {
			msg = payload["text"]
		}
		switch payloadType {
		case "agent_message", "assistant_message":
			items = appendText(items, KindAssistant, msg)
		case "user_message", "user":
			items = appendText(items, KindUser, msg)
		default:
			if action, ok := formatAction(payload); ok {
				items = append(items, Item{Kind: KindAction, Text: action})
			}
		}
	}

	if eventType == "response_item" && payload != nil {
		items = append(items, itemsFromMessagePayload(payload)...)
		if action, ok := formatAction(payload); ok {
			items = append(items, Item{Kind: KindAction, Text: action})
		}
	}

	if eventType == "response.output_text.done" || eventType == "response.output_text" {
		items = appendText(items, KindAssistant, obj["text"])
	}

	item, _ := obj["item"].(map[string]any)
	if item != nil {
		items = append(items, itemsFromItemPayload(item)...)
		if action, ok := formatAction(item); ok {
			items = append(items, Item{Kind: KindAction, Text: action})
		}
	}

	// A record can itself be tool-call shaped at the top level.
	if action, ok := formatAction(obj); ok {
		items = append(items, Item{Kind: KindAction, Text: action})
	}

	for _, call := range collectToolCalls(obj, payload, item) {
		if action, ok := formatAction(call); ok {
			items = append(items, Item{Kind: KindAction, Text: action})
		}
	}

	return dedupItems(items)
}

// ExtractAssistantMessages is a convenience filter over the full
// classification, used by the headless run mode.
func ExtractAssistantMessages(obj map[string]any) []string {
	var out []string
	for _, item := range ExtractDisplayItems(obj) {
		if item.Kind == KindAssistant {
			out = append(out, item.Text)
		}
	}
	return out
}

func appendText(items []Item, kind Kind, value any) []Item {
	if text, ok := value.(string); ok && text != "" {
		items = append(items, Item{Kind: kind, Text: text})
	}
	return items
}

// textFromContent flattens a structured content field: an array of typed
// parts filtered to the text-bearing types, or a plain string.
func textFromContent(content any) []string {
	var texts []string
	switch v := content.(type) {
	case []any:
		for _, part := range v {
			switch p := part.(type) {
			case map[string]any:
				partType, _ := p["type"].(string)
				switch partType {
				case "output_text", "output_markdown", "text", "input_text":
					text, _ := p["text"].(string)
					if text == "" {
						text, _ = p["content"].(string)
					}
					if text != "" {
						texts = append(texts, text)
					}
				}
			case string:
				texts = append(texts, p)
			}
		}
	case string:
		texts = append(texts, v)
	}
	return texts
}

func itemsFromMessagePayload(payload map[string]any) []Item {
	payloadType, _ := payload["type"].(string)
	if payloadType != "message" {
		return nil
	}
	var kind Kind
	switch role, _ := payload["role"].(string); role {
	case "assistant":
		kind = KindAssistant
	case "user":
		kind = KindUser
	default:
		return nil
	}

	var items []Item
	if texts := textFromContent(payload["content"]); len(texts) > 0 {
		for _, text := range texts {
			items = append(items, Item{Kind: kind, Text: text})
		}
		return items
	}
	return appendText(items, kind, payload["message"])
}

func itemsFromItemPayload(item map[string]any) []Item {
	itemType, _ := item["type"].(string)

	switch itemType {
	case "message":
		return itemsFromMessagePayload(item)
	case "agent_message", "assistant_message":
		var items []Item
		for _, text := range textFromContent(item["content"]) {
			items = append(items, Item{Kind: KindAssistant, Text: text})
		}
		items = appendText(items, KindAssistant, item["text"])
		items = appendText(items, KindAssistant, item["message"])
		return items
	case "user_message", "user":
		var items []Item
		for _, text := range textFromContent(item["content"]) {
			items = append(items, Item{Kind: KindUser, Text: text})
		}
		items = appendText(items, KindUser, item["text"])
		items = appendText(items, KindUser, item["message"])
		return items
	}
	return nil
}

// collectToolCalls gathers tool_call objects and tool_calls/tools lists
// from each candidate container.
func collectToolCalls(containers ...map[string]any) []map[string]any {
	var calls []map[string]any
	for _, container := range containers {
		if container == nil {
			continue
		}
		if call, ok := container["tool_call"].(map[string]any); ok {
			calls = append(calls, call)
		}
		list, ok := container["tool_calls"].([]any)
		if !ok {
			list, _ = container["tools"].([]any)
		}
		for _, entry := range list {
			if call, ok := entry.(map[string]any); ok {
				calls = append(calls, call)
			}
		}
	}
	return calls
}

// formatAction renders a tool/function/action-shaped record as
// "name: arguments", just the name, or just the arguments. A record is
// action-shaped if its type tag says so or if it carries both a name-like
// and an arguments-like field. A bare message/description is used verbatim
// when there is nothing else.
func formatAction(payload map[string]any) (string, bool) {
	rawType, _ := payload["type"].(string)
	isAction := false
	switch strings.ToLower(rawType) {
	case "tool_call", "function_call", "action", "tool":
		isAction = true
	}

	name := firstField(payload, "name", "tool", "tool_name", "id")
	args := firstField(payload, "arguments", "args", "input", "parameters")

	if !isAction && (name == nil || args == nil) {
		return "", false
	}

	if desc, ok := firstField(payload, "message", "description").(string); ok {
		if trimmed := strings.TrimSpace(desc); trimmed != "" && name == nil && args == nil {
			return trimmed, true
		}
	}

	var argText string
	hasArgs := false
	if args != nil {
		hasArgs = true
		switch v := args.(type) {
		case map[string]any, []any:
			argText = compactJSON(v)
		case string:
			argText = v
		default:
			argText = compactJSON(v)
		}
	}

	var nameText string
	hasName := false
	if name != nil {
		hasName = true
		if s, ok := name.(string); ok {
			nameText = s
		} else {
			nameText = strings.Trim(compactJSON(name), `"`)
		}
	}

	switch {
	case hasName && nameText != "" && hasArgs:
		return nameText + ": " + argText, true
	case hasName && nameText != "":
		return nameText, true
	case hasArgs && argText != "":
		return argText, true
	}
	return "", false
}

func firstField(obj map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			return v
		}
	}
	return nil
}

func dedupItems(items []Item) []Item {
	if len(items) < 2 {
		return items
	}
	seen := make(map[Item]struct{}, len(items))
	uniques := items[:0]
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		uniques = append(uniques, item)
	}
	return uniques
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
