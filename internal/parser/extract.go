package parser

import "strings"

// extractObject returns the first balanced {...} block in s at or after from.
// next is where the following search should begin when the block found here
// turns out not to be valid JSON, or when no block starting at the first
// brace ever balances.
func extractObject(s string, from int) (block string, next int, ok bool) {
	rel := strings.IndexByte(s[from:], '{')
	if rel < 0 {
		return "", len(s), false
	}
	start := from + rel

	stack := make([]byte, 0, 16)
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

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
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				return "", start + 1, false
			}
			open := stack[len(stack)-1]
			if (c == '}' && open != '{') || (c == ']' && open != '[') {
				return "", start + 1, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[start : i+1], start + 1, true
			}
		}
	}

	return "", start + 1, false
}
