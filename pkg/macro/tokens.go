package macro

import (
	"fmt"
	"strings"
)

// toTemplate rewrites {NAME} and ${NAME} tokens into template actions.
// Existing {{ }} actions are kept as they are and a lone "{" is emitted as a literal.
func toTemplate(s string) (string, error) {
	var buf strings.Builder

	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			end := strings.Index(s[i+2:], "}}")
			if end < 0 {
				return "", fmt.Errorf("unterminated action at offset %d", i)
			}
			n := 2 + end + 2
			buf.WriteString(s[i : i+n])
			i += n
		case strings.HasPrefix(s[i:], "${"):
			name, ok := scanIdent(s[i+2:])
			if !ok {
				return "", fmt.Errorf("malformed token at offset %d", i)
			}
			writeVar(&buf, name)
			i += 2 + len(name) + 1
		case s[i] == '{':
			if name, ok := scanIdent(s[i+1:]); ok {
				writeVar(&buf, name)
				i += 1 + len(name) + 1
				continue
			}
			buf.WriteString(`{{"{"}}`)
			i++
		default:
			buf.WriteByte(s[i])
			i++
		}
	}

	return buf.String(), nil
}

func writeVar(buf *strings.Builder, name string) {
	buf.WriteString("{{ .")
	buf.WriteString(name)
	buf.WriteString(" }}")
}

// scanIdent reports the identifier at the start of s when it is terminated by "}".
func scanIdent(s string) (string, bool) {
	n := 0
	for n < len(s) && isIdentChar(s[n], n == 0) {
		n++
	}
	if n == 0 || n >= len(s) || s[n] != '}' {
		return "", false
	}
	return s[:n], true
}

func isIdentChar(c byte, first bool) bool {
	switch {
	case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		return true
	case '0' <= c && c <= '9':
		return !first
	}
	return false
}
