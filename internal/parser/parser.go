// Package parser recovers translated lines from raw LLM responses.
//
// A parser profile decodes into a Rule whose Type selects one of a closed set
// of strategies. An "any" rule cascades over child rules in order and returns
// the first success. Parsing is a pure function of (rule, raw text): there is
// no shared state, so retries and previews always see identical results.
package parser

import (
	"sort"
	"strconv"
	"strings"

	"github.com/valpere/transflow/internal/postprocess"
)

// Result is the outcome of a successful parse.
type Result struct {
	Text  string   `json:"text"`
	Lines []string `json:"lines"`
}

func resultFromLines(lines []string) Result {
	return Result{Text: strings.Join(lines, "\n"), Lines: lines}
}

// ScriptRunner executes a user parser script. Implementations live outside
// this package; the core only carries the script reference.
type ScriptRunner interface {
	RunScript(script, function, text string) ([]string, error)
}

// Cascade evaluates parser rules. The zero value is ready to use and fails
// python rules with CodeScriptUnavailable.
type Cascade struct {
	Scripts ScriptRunner
}

// Parse evaluates rule against raw using a zero Cascade.
func Parse(rule Rule, raw string) (Result, error) {
	return Cascade{}.Parse(rule, raw)
}

// Parse evaluates rule against raw.
func (c Cascade) Parse(rule Rule, raw string) (Result, error) {
	switch rule.Type {
	case TypePlain:
		return parsePlain(rule, raw)
	case TypeLineStrict:
		return parseLineStrict(rule, raw)
	case TypeJSONArray:
		return parseJSONArray(raw)
	case TypeJSONObject:
		return parseJSONObject(rule, raw)
	case TypeJSONL:
		return parseJSONL(rule, raw)
	case TypeTaggedLine:
		return parseTaggedLine(rule, raw)
	case TypeRegex:
		return parseRegex(rule, raw)
	case TypePython:
		return c.parsePython(rule, raw)
	case TypeAny:
		return c.parseAny(rule, raw)
	case "":
		return Result{}, newError(CodeMissingType, "")
	default:
		return Result{}, newError(CodeUnknownType, "%s", rule.Type)
	}
}

// prepare removes reasoning blocks and normalises line endings.
func prepare(raw string) string {
	text := postprocess.RemoveThinking(raw)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func trimTrailingNewlines(s string) string {
	return strings.TrimRight(s, "\n")
}

func parsePlain(rule Rule, raw string) (Result, error) {
	text := prepare(raw)
	if rule.Clean {
		text = postprocess.Clean(text)
	}
	text = trimTrailingNewlines(text)
	return Result{Text: text, Lines: strings.Split(text, "\n")}, nil
}

func parseLineStrict(rule Rule, raw string) (Result, error) {
	text := trimTrailingNewlines(prepare(raw))

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	var line string
	switch {
	case len(lines) == 0:
	case len(lines) == 1:
		line = lines[0]
	default:
		switch rule.MultiLine {
		case MultiLineFirst:
			line = lines[0]
		case MultiLineError:
			return Result{}, newError(CodeMultipleLines, "%d lines", len(lines))
		default:
			line = strings.Join(lines, " ")
		}
	}
	return Result{Text: line, Lines: []string{line}}, nil
}

// jsonCandidates lists the texts worth decoding, in order: the response as
// is, the body of a code fence, and the span between the first open and the
// last close delimiter.
func jsonCandidates(text string, open, close byte) []string {
	text = strings.TrimSpace(text)
	out := []string{text}
	if body, ok := postprocess.ExtractFenced(text); ok {
		out = append(out, body)
	}
	if i, j := strings.IndexByte(text, open), strings.LastIndexByte(text, close); i >= 0 && j > i {
		out = append(out, text[i:j+1])
	}
	return out
}

// decodeFirst returns the first candidate that decodes to a value accepted
// by want. Python literals are tried after plain JSON. decoded reports
// whether any candidate was valid JSON at all.
func decodeFirst(candidates []string, want func(any) bool) (v any, decoded, ok bool) {
	try := func(text string) bool {
		val, err := decodeJSON(text)
		if err != nil {
			return false
		}
		decoded = true
		if want(val) {
			v = val
			return true
		}
		return false
	}
	for _, c := range candidates {
		if try(c) {
			return v, true, true
		}
	}
	for _, c := range candidates {
		if converted, changed := pythonLiteralToJSON(c); changed && try(converted) {
			return v, true, true
		}
	}
	return nil, decoded, false
}

func parseJSONArray(raw string) (Result, error) {
	v, decoded, ok := decodeFirst(jsonCandidates(prepare(raw), '[', ']'), func(v any) bool {
		_, isList := v.([]any)
		return isList
	})
	switch {
	case !decoded:
		return Result{}, newError(CodeInvalidJSON, "no JSON value found")
	case !ok:
		return Result{}, newError(CodeJSONArrayExpected, "")
	}
	items := v.([]any)
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = stringify(item)
	}
	return resultFromLines(lines), nil
}

func parseJSONObject(rule Rule, raw string) (Result, error) {
	if rule.Path == "" {
		return Result{}, newError(CodeMissingPath, "")
	}
	v, _, ok := decodeFirst(jsonCandidates(prepare(raw), '{', '}'), func(v any) bool {
		_, isObject := v.(map[string]any)
		return isObject
	})
	if !ok {
		return Result{}, newError(CodeJSONObjectExpected, "")
	}
	value, err := resolvePath(v, rule.Path)
	if err != nil {
		return Result{}, err
	}
	text := trimTrailingNewlines(stringify(value))
	return Result{Text: text, Lines: strings.Split(text, "\n")}, nil
}

func parseJSONL(rule Rule, raw string) (Result, error) {
	text := trimTrailingNewlines(prepare(raw))

	var lines []string
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if postprocess.IsFenceLine(line) {
			continue
		}
		if line == "" {
			lines = append(lines, "")
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "jsonline"))

		v, err := decodeJSON(line)
		if err != nil {
			return Result{}, &Error{Code: CodeInvalidJSON, Detail: lineRef(n), Err: err}
		}

		var value any
		if rule.Path != "" {
			value, err = resolvePath(v, rule.Path)
		} else {
			value, err = defaultEntry(v)
		}
		if err != nil {
			if pe, ok := err.(*Error); ok {
				pe.Detail = lineRef(n) + ": " + pe.Detail
			}
			return Result{}, err
		}
		lines = append(lines, stringify(value))
	}
	return resultFromLines(lines), nil
}

// defaultEntry picks the translated value of a JSONL record when no path is
// configured: a bare string, the "translation" or "text" field, or the
// value of a single-key object such as {"12": "..."}.
func defaultEntry(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case map[string]any:
		for _, key := range []string{"translation", "text"} {
			if val, ok := t[key]; ok {
				return val, nil
			}
		}
		if len(t) == 1 {
			for _, val := range t {
				return val, nil
			}
		}
		return nil, newError(CodeKeyNotFound, "translation")
	default:
		return nil, newError(CodeJSONObjectExpected, "")
	}
}

func lineRef(n int) string {
	return "line " + strconv.Itoa(n+1)
}

type taggedEntry struct {
	id   string
	text string
}

func parseTaggedLine(rule Rule, raw string) (Result, error) {
	pattern := rule.Pattern
	if pattern == "" {
		pattern = DefaultTaggedPattern
	}
	re, err := Compile(pattern, rule.Flags)
	if err != nil {
		return Result{}, err
	}
	textIdx := re.SubexpIndex("text")
	if textIdx < 0 && re.NumSubexp() > 0 {
		textIdx = re.NumSubexp()
	}
	idIdx := re.SubexpIndex("id")

	var entries []taggedEntry
	for _, line := range strings.Split(prepare(raw), "\n") {
		m := re.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		var e taggedEntry
		if textIdx >= 0 {
			e.text = m[textIdx]
		} else {
			e.text = m[0]
		}
		if idIdx >= 0 {
			e.id = strings.TrimSpace(m[idIdx])
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return Result{}, newError(CodeNoTaggedLines, "")
	}

	if rule.SortByID && allHaveIDs(entries) {
		sort.SliceStable(entries, func(i, j int) bool {
			return lessID(entries[i].id, entries[j].id)
		})
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.text
	}
	return resultFromLines(lines), nil
}

func allHaveIDs(entries []taggedEntry) bool {
	for _, e := range entries {
		if e.id == "" {
			return false
		}
	}
	return true
}

// lessID orders numeric ids numerically ahead of non-numeric ids, which sort
// lexicographically. Numeric comparison works on the zero-stripped digit
// strings so ids of any length compare correctly.
func lessID(a, b string) bool {
	an, bn := isDigits(a), isDigits(b)
	switch {
	case an && bn:
		a, b = stripZeros(a), stripZeros(b)
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	case an:
		return true
	case bn:
		return false
	default:
		return a < b
	}
}

func stripZeros(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

func parseRegex(rule Rule, raw string) (Result, error) {
	if rule.Pattern == "" {
		return Result{}, newError(CodeMissingPattern, "")
	}
	re, err := Compile(rule.Pattern, rule.Flags)
	if err != nil {
		return Result{}, err
	}
	group, err := groupIndex(re.SubexpNames(), rule.Group)
	if err != nil {
		return Result{}, err
	}

	text := prepare(raw)
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return Result{}, newError(CodePatternNotMatched, "")
	}
	var value string
	if start := loc[2*group]; start >= 0 {
		value = text[start:loc[2*group+1]]
	}
	value = trimTrailingNewlines(value)
	return Result{Text: value, Lines: strings.Split(value, "\n")}, nil
}

// groupIndex resolves a numeric or named group. With no group configured
// the first capture group is used, or the whole match when there is none.
func groupIndex(names []string, group string) (int, error) {
	n := len(names) - 1
	if group == "" {
		if n >= 1 {
			return 1, nil
		}
		return 0, nil
	}
	if isDigits(group) {
		idx, err := strconv.Atoi(group)
		if err != nil || idx > n {
			return 0, newError(CodeGroupNotFound, "%s", group)
		}
		return idx, nil
	}
	for i, name := range names {
		if i > 0 && name == group {
			return i, nil
		}
	}
	return 0, newError(CodeGroupNotFound, "%s", group)
}

func (c Cascade) parsePython(rule Rule, raw string) (Result, error) {
	if rule.Script == "" {
		return Result{}, newError(CodeMissingScript, "")
	}
	if c.Scripts == nil {
		return Result{}, newError(CodeScriptUnavailable, "%s", rule.Script)
	}
	fn := rule.Function
	if fn == "" {
		fn = DefaultScriptFunction
	}
	lines, err := c.Scripts.RunScript(rule.Script, fn, prepare(raw))
	if err != nil {
		return Result{}, &Error{Code: CodeScriptFailed, Detail: rule.Script, Err: err}
	}
	return resultFromLines(lines), nil
}

func (c Cascade) parseAny(rule Rule, raw string) (Result, error) {
	if len(rule.Children) == 0 {
		return Result{}, newError(CodeMissingAnyParsers, "")
	}
	var last error
	for _, child := range rule.Children {
		res, err := c.Parse(child, raw)
		if err == nil {
			return res, nil
		}
		last = err
	}
	return Result{}, last
}
