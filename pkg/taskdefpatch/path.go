package taskdefpatch

import (
	"fmt"
	"strconv"
	"strings"
)

type segment struct {
	key     string
	index   int
	isIndex bool
}

// Path is a definite location inside a task definition document.
//
// Supported forms are $.a.b, $['a']["b"] and $.a[0]. A missing leading $ is implied.
// JSON pointers such as /a/0/b are accepted too.
type Path struct {
	expr     string
	segments []segment
}

func ParsePath(expr string) (*Path, error) {
	s := strings.TrimSpace(expr)

	invalid := func(reason string) error {
		return &InvalidPathError{Path: expr, Reason: reason}
	}

	if strings.HasPrefix(s, "/") {
		return parsePointer(expr, s)
	}

	switch {
	case strings.HasPrefix(s, "$"):
		s = s[1:]
	case strings.HasPrefix(s, "["):
	default:
		s = "." + s
	}

	var segs []segment

	for len(s) > 0 {
		switch s[0] {
		case '.':
			if strings.HasPrefix(s, "..") {
				return nil, invalid("deep scan is not supported")
			}
			s = s[1:]
			n := strings.IndexAny(s, ".[")
			if n < 0 {
				n = len(s)
			}
			name := s[:n]
			if name == "" {
				return nil, invalid("empty property name")
			}
			if name == "*" {
				return nil, invalid("wildcards are not supported")
			}
			segs = append(segs, segment{key: name})
			s = s[n:]
		case '[':
			end := closingBracket(s)
			if end < 0 {
				return nil, invalid("unterminated bracket")
			}
			inner := strings.TrimSpace(s[1:end])
			s = s[end+1:]

			switch {
			case inner == "":
				return nil, invalid("empty brackets")
			case inner[0] == '\'' || inner[0] == '"':
				key, err := unquote(inner)
				if err != nil {
					return nil, invalid(err.Error())
				}
				segs = append(segs, segment{key: key})
			default:
				i, err := strconv.Atoi(inner)
				if err != nil {
					return nil, invalid(fmt.Sprintf("unsupported selector [%s]", inner))
				}
				if i < 0 {
					return nil, invalid("negative indexes are not supported")
				}
				segs = append(segs, segment{index: i, isIndex: true})
			}
		default:
			return nil, invalid(fmt.Sprintf("unexpected character %q", s[0]))
		}
	}

	if len(segs) == 0 {
		return nil, invalid("location must point below the document root")
	}

	return &Path{expr: expr, segments: segs}, nil
}

func parsePointer(expr, s string) (*Path, error) {
	var segs []segment
	for _, tok := range strings.Split(s[1:], "/") {
		tok = strings.ReplaceAll(tok, "~1", "/")
		tok = strings.ReplaceAll(tok, "~0", "~")
		if i, err := strconv.Atoi(tok); err == nil && i >= 0 && tok == strconv.Itoa(i) {
			segs = append(segs, segment{index: i, isIndex: true})
			continue
		}
		segs = append(segs, segment{key: tok})
	}
	return &Path{expr: expr, segments: segs}, nil
}

// closingBracket returns the index of the "]" closing the bracket at s[0], skipping quoted text.
func closingBracket(s string) int {
	var quote byte
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
		case quote == 0 && c == ']':
			return i
		}
	}
	return -1
}

func unquote(s string) (string, error) {
	if len(s) < 2 || s[len(s)-1] != s[0] {
		return "", fmt.Errorf("unterminated quoted name %s", s)
	}
	if s[0] == '\'' {
		body := s[1 : len(s)-1]
		body = strings.ReplaceAll(body, `\'`, `'`)
		body = strings.ReplaceAll(body, `"`, `\"`)
		s = `"` + body + `"`
	}
	return strconv.Unquote(s)
}

func (p *Path) String() string {
	return p.expr
}

// JSONPath returns the canonical bracket notation, e.g. $["containerDefinitions"][0]["image"].
func (p *Path) JSONPath() string {
	var b strings.Builder
	b.WriteString("$")
	for _, s := range p.segments {
		b.WriteString("[")
		if s.isIndex {
			b.WriteString(strconv.Itoa(s.index))
		} else {
			b.WriteString(strconv.Quote(s.key))
		}
		b.WriteString("]")
	}
	return b.String()
}

// Pointer returns the RFC 6901 JSON pointer for the path.
func (p *Path) Pointer() string {
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteString("/")
		if s.isIndex {
			b.WriteString(strconv.Itoa(s.index))
		} else {
			k := strings.ReplaceAll(s.key, "~", "~0")
			b.WriteString(strings.ReplaceAll(k, "/", "~1"))
		}
	}
	return b.String()
}
