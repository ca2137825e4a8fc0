package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// pathSegment is one step of a dotted/indexed path. Bracketed segments
// ("a[0]") must index an array; dotted numeric segments ("a.0") index an
// array or name an object key.
type pathSegment struct {
	key     string
	bracket bool
}

// splitPath parses "a.b.0", "a[0].b" and "a.b[1][2]".
func splitPath(path string) ([]pathSegment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, newError(CodeInvalidPath, "empty path")
	}

	var segs []pathSegment
	i := 0
	expectKey := true
	for i < len(path) {
		switch c := path[i]; {
		case c == '.':
			if expectKey {
				return nil, newError(CodeInvalidPath, "%s", path)
			}
			expectKey = true
			i++
		case c == '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, newError(CodeInvalidPath, "%s", path)
			}
			idx := path[i+1 : i+end]
			if !isDigits(idx) {
				return nil, newError(CodeInvalidPath, "%s", path)
			}
			if expectKey && len(segs) > 0 {
				// "a.[0]"
				return nil, newError(CodeInvalidPath, "%s", path)
			}
			segs = append(segs, pathSegment{key: idx, bracket: true})
			expectKey = false
			i += end + 1
		default:
			if !expectKey {
				return nil, newError(CodeInvalidPath, "%s", path)
			}
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' {
				j++
			}
			if path[i:j] == "]" || strings.ContainsRune(path[i:j], ']') {
				return nil, newError(CodeInvalidPath, "%s", path)
			}
			segs = append(segs, pathSegment{key: path[i:j]})
			expectKey = false
			i = j
		}
	}
	if expectKey {
		return nil, newError(CodeInvalidPath, "%s", path)
	}
	return segs, nil
}

// resolvePath walks value along path.
func resolvePath(value any, path string) (any, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	cur := value
	for n, seg := range segs {
		walked := joinSegments(segs[:n+1])
		switch node := cur.(type) {
		case map[string]any:
			if seg.bracket {
				return nil, newError(CodeListIndexInvalid, "%s is not a list", joinSegments(segs[:n]))
			}
			next, ok := node[seg.key]
			if !ok {
				return nil, newError(CodeKeyNotFound, "%s", walked)
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg.key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, newError(CodeListIndexInvalid, "%s", walked)
			}
			cur = node[idx]
		default:
			return nil, newError(CodeInvalidPath, "%s", walked)
		}
	}
	return cur, nil
}

func joinSegments(segs []pathSegment) string {
	var b strings.Builder
	for i, s := range segs {
		if s.bracket {
			b.WriteString("[" + s.key + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.key)
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// decodeJSON decodes exactly one JSON value, keeping numbers verbatim.
func decodeJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(text)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// stringify renders a decoded JSON value as output text.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return ""
		}
		return strings.TrimRight(buf.String(), "\n")
	}
}

// pythonLiteralToJSON rewrites a Python dict/list literal ({'a': 'b',
// 'c': True}) into JSON. Models asked for JSON sometimes answer with repr()
// output. The second result is false when the text has no single-quoted
// strings or Python constants to rewrite.
func pythonLiteralToJSON(text string) (string, bool) {
	var b strings.Builder
	changed := false
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			// copy a JSON string verbatim
			b.WriteRune(r)
			for i++; i < len(runes); i++ {
				b.WriteRune(runes[i])
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
					b.WriteRune(runes[i])
					continue
				}
				if runes[i] == '"' {
					break
				}
			}
		case r == '\'':
			changed = true
			var s strings.Builder
			for i++; i < len(runes) && runes[i] != '\''; i++ {
				if runes[i] == '\\' && i+1 < len(runes) {
					i += pythonEscape(&s, runes[i+1:])
					continue
				}
				s.WriteRune(runes[i])
			}
			quoted, _ := json.Marshal(s.String())
			b.Write(quoted)
		case isIdentStart(r):
			j := i
			for j < len(runes) && isIdentStart(runes[j]) {
				j++
			}
			word := string(runes[i:j])
			switch word {
			case "True":
				word, changed = "true", true
			case "False":
				word, changed = "false", true
			case "None":
				word, changed = "null", true
			}
			b.WriteString(word)
			i = j - 1
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), changed
}

// pythonEscape decodes the escape sequence at the start of seq (the text
// after a backslash) into s and returns how many runes it consumed.
// Unknown escapes keep their backslash, as Python does.
func pythonEscape(s *strings.Builder, seq []rune) int {
	switch c := seq[0]; c {
	case '\n':
		// line continuation
		return 1
	case 'n':
		s.WriteByte('\n')
	case 't':
		s.WriteByte('\t')
	case 'r':
		s.WriteByte('\r')
	case 'a':
		s.WriteByte('\a')
	case 'b':
		s.WriteByte('\b')
	case 'f':
		s.WriteByte('\f')
	case 'v':
		s.WriteByte('\v')
	case '\\', '\'', '"':
		s.WriteRune(c)
	case 'x', 'u', 'U':
		width := map[rune]int{'x': 2, 'u': 4, 'U': 8}[c]
		if len(seq) > width {
			if n, err := strconv.ParseUint(string(seq[1:width+1]), 16, 32); err == nil && utf8.ValidRune(rune(n)) {
				s.WriteRune(rune(n))
				return width + 1
			}
		}
		s.WriteByte('\\')
		s.WriteRune(c)
	default:
		if c >= '0' && c <= '7' {
			j := 1
			for j < 3 && j < len(seq) && seq[j] >= '0' && seq[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(string(seq[:j]), 8, 32)
			s.WriteRune(rune(n))
			return j
		}
		s.WriteByte('\\')
		s.WriteRune(c)
	}
	return 1
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
