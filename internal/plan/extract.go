package plan

import "strings"

// ExtractJSONBlock pulls the first balanced JSON object or array out of raw
// oracle text. The oracle wraps structured output in prose or markdown fences
// more often than not, so we strip fences first and then scan for the first
// balanced block. Returns "" when no balanced block exists.
func ExtractJSONBlock(raw string) string {
	s := stripFences(raw)

	start := -1
	for i, r := range s {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	open := rune(s[start])
	closing := '}'
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := rune(s[i])
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// stripFences removes markdown code fences, keeping their contents. A fence
// language tag like ```json is dropped with the fence line.
func stripFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
