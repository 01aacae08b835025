package codex

import "strings"

// WrapText wraps plain text to width columns for the transcript pane.
// Fenced code blocks (triple-backtick delimited) are never re-wrapped on
// word boundaries; overlong lines inside a fence and words longer than the
// width are split by hard character slices. Blank lines are kept as
// paragraph breaks.
func WrapText(text string, width int) []string {
	if width < 10 {
		width = 10
	}
	var lines []string
	inFence := false
	for _, raw := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimLeft(raw, " \t"), "```") {
			inFence = !inFence
			lines = append(lines, raw)
			continue
		}
		if inFence {
			if len([]rune(raw)) <= width {
				lines = append(lines, raw)
			} else {
				lines = append(lines, HardWrap(raw, width)...)
			}
			continue
		}
		if strings.TrimSpace(raw) == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, wrapLine(raw, width)...)
	}
	return lines
}

// HardWrap splits a line into width-sized rune slices with no regard for
// word boundaries.
func HardWrap(line string, width int) []string {
	if width <= 0 {
		return []string{line}
	}
	runes := []rune(line)
	var out []string
	for start := 0; start < len(runes); start += width {
		end := start + width
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	if len(out) == 0 {
		out = append(out, "")
	}
	return out
}

func wrapLine(line string, width int) []string {
	if len([]rune(line)) <= width {
		return []string{line}
	}
	var lines []string
	var current strings.Builder
	currentLen := 0
	for _, word := range strings.Fields(line) {
		wordLen := len([]rune(word))
		if currentLen == 0 {
			if wordLen > width {
				lines = append(lines, HardWrap(word, width)...)
				continue
			}
			current.WriteString(word)
			currentLen = wordLen
			continue
		}
		if currentLen+1+wordLen <= width {
			current.WriteByte(' ')
			current.WriteString(word)
			currentLen += 1 + wordLen
			continue
		}
		lines = append(lines, current.String())
		current.Reset()
		currentLen = 0
		if wordLen > width {
			lines = append(lines, HardWrap(word, width)...)
			continue
		}
		current.WriteString(word)
		currentLen = wordLen
	}
	if currentLen > 0 {
		lines = append(lines, current.String())
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}
