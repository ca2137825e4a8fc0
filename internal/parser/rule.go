package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/valpere/transflow/internal/profile"
)

// Type is the closed set of parser rule types.
type Type string

const (
	TypePlain      Type = "plain"
	TypeLineStrict Type = "line_strict"
	TypeJSONArray  Type = "json_array"
	TypeJSONObject Type = "json_object"
	TypeJSONL      Type = "jsonl"
	TypeTaggedLine Type = "tagged_line"
	TypeRegex      Type = "regex"
	TypePython     Type = "python"
	TypeAny        Type = "any"
)

// Types lists every rule type.
var Types = []Type{
	TypePlain, TypeLineStrict, TypeJSONArray, TypeJSONObject, TypeJSONL,
	TypeTaggedLine, TypeRegex, TypePython, TypeAny,
}

// Valid reports whether t is a known rule type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// MultiLineMode selects how line_strict handles several non-empty lines.
type MultiLineMode string

const (
	MultiLineJoin  MultiLineMode = "join"
	MultiLineFirst MultiLineMode = "first"
	MultiLineError MultiLineMode = "error"
)

// Valid reports whether m is a known mode. The empty mode means join.
func (m MultiLineMode) Valid() bool {
	switch m {
	case "", MultiLineJoin, MultiLineFirst, MultiLineError:
		return true
	}
	return false
}

// Flags is the engine-neutral regex flag set accepted in profiles.
type Flags struct {
	Multiline  bool
	DotAll     bool
	IgnoreCase bool
}

// DefaultTaggedPattern matches "@@<id>@@<text>" lines.
const DefaultTaggedPattern = `^@@(?P<id>.+?)@@(?P<text>.*)$`

// DefaultScriptFunction is the entry point called when a python rule names
// none.
const DefaultScriptFunction = "parse"

// Rule is a decoded parser rule. Only the fields relevant to Type are used.
type Rule struct {
	Type Type

	// plain
	Clean bool
	// line_strict
	MultiLine MultiLineMode
	// json_object, jsonl
	Path string
	// regex, tagged_line
	Pattern  string
	Flags    Flags
	Group    string
	SortByID bool
	// python
	Script   string
	Function string
	// any
	Children []Rule
}

// Lookup resolves a parser profile id to its document. It must not mutate
// shared state.
type Lookup func(id string) (profile.Document, bool)

// FromDocument decodes a parser profile (or an inline rule inside an "any"
// rule) into a Rule. String children of an "any" rule are parser profile ids
// resolved through lookup, which may be nil when no references are used.
func FromDocument(doc profile.Document, lookup Lookup) (Rule, error) {
	var stack []string
	if id := profile.ID(doc); id != "" {
		stack = []string{id}
	}
	return fromDocument(doc, lookup, stack)
}

func fromDocument(doc profile.Document, lookup Lookup, stack []string) (Rule, error) {
	typeName := profile.Str(doc, "type")
	if typeName == "" {
		return Rule{}, newError(CodeMissingType, "")
	}
	rule := Rule{Type: Type(strings.ToLower(typeName))}
	if !rule.Type.Valid() {
		return Rule{}, newError(CodeUnknownType, "%s", typeName)
	}

	opt := func(key string) any {
		v, _ := profile.OptValue(doc, key)
		return v
	}
	optStr := func(keys ...string) string {
		for _, k := range keys {
			if s := profile.AsString(opt(k)); s != "" {
				return s
			}
		}
		return ""
	}
	optBool := func(key string) bool {
		b, _ := profile.Bool(opt(key))
		return b
	}

	switch rule.Type {
	case TypePlain:
		rule.Clean = optBool("clean")
	case TypeLineStrict:
		rule.MultiLine = MultiLineMode(strings.ToLower(optStr("multi_line")))
		if !rule.MultiLine.Valid() {
			return Rule{}, newError(CodeInvalidMultiLine, "%s", rule.MultiLine)
		}
	case TypeJSONObject, TypeJSONL:
		rule.Path = optStr("path", "key")
	case TypeTaggedLine, TypeRegex:
		if p, ok := opt("pattern").(string); ok {
			rule.Pattern = p
		}
		flags, err := ParseFlags(opt("flags"))
		if err != nil {
			return Rule{}, err
		}
		rule.Flags = flags
		rule.Group = optStr("group")
		rule.SortByID = optBool("sort_by_id")
	case TypePython:
		rule.Script = optStr("script", "path")
		rule.Function = optStr("function", "entry")
		if rule.Function == "" {
			rule.Function = DefaultScriptFunction
		}
	case TypeAny:
		children, err := decodeChildren(doc, lookup, stack)
		if err != nil {
			return Rule{}, err
		}
		rule.Children = children
	}
	return rule, nil
}

// ChildList returns the child list of an "any" rule document, read from
// options.parsers or options.candidates.
func ChildList(doc profile.Document) []any {
	for _, key := range []string{"parsers", "candidates"} {
		v, ok := profile.OptValue(doc, key)
		if !ok {
			continue
		}
		if list, ok := profile.List(v); ok && len(list) > 0 {
			return list
		}
	}
	return nil
}

func decodeChildren(doc profile.Document, lookup Lookup, stack []string) ([]Rule, error) {
	items := ChildList(doc)
	children := make([]Rule, 0, len(items))
	for i, item := range items {
		if m, ok := profile.Map(item); ok {
			child, err := fromDocument(m, lookup, stack)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
			continue
		}

		id := profile.AsString(item)
		if id == "" {
			return nil, newError(CodeMissingType, "child %d", i)
		}
		for _, seen := range stack {
			if seen == id {
				return nil, newError(CodeReferenceCycle, "%s", strings.Join(append(stack, id), " -> "))
			}
		}
		if lookup == nil {
			return nil, newError(CodeUnknownReference, "%s", id)
		}
		ref, ok := lookup(id)
		if !ok {
			return nil, newError(CodeUnknownReference, "%s", id)
		}
		child, err := fromDocument(ref, lookup, append(stack[:len(stack):len(stack)], id))
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// ParseFlags decodes the neutral regex flag set. It accepts a list of names
// or a string such as "ms", "multiline|dotall" or "i". A global flag is
// rejected: a rule always matches once.
func ParseFlags(v any) (Flags, error) {
	var tokens []string
	switch t := v.(type) {
	case nil:
		return Flags{}, nil
	case string:
		tokens = strings.FieldsFunc(t, func(r rune) bool {
			return r == ',' || r == '|' || r == ' ' || r == '+'
		})
	default:
		list, ok := profile.List(v)
		if !ok {
			return Flags{}, newError(CodeInvalidFlag, "%v", v)
		}
		for _, item := range list {
			tokens = append(tokens, profile.AsString(item))
		}
	}

	var f Flags
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tok), "re."))
		switch tok {
		case "":
		case "multiline":
			f.Multiline = true
		case "dotall":
			f.DotAll = true
		case "ignorecase", "ignore_case":
			f.IgnoreCase = true
		default:
			for _, c := range tok {
				switch c {
				case 'm':
					f.Multiline = true
				case 's':
					f.DotAll = true
				case 'i':
					f.IgnoreCase = true
				default:
					return Flags{}, newError(CodeInvalidFlag, "%s", tok)
				}
			}
		}
	}
	return f, nil
}

// Compile compiles pattern with the neutral flags translated to RE2 inline
// flags.
func Compile(pattern string, f Flags) (*regexp.Regexp, error) {
	var prefix string
	if f.IgnoreCase {
		prefix += "i"
	}
	if f.Multiline {
		prefix += "m"
	}
	if f.DotAll {
		prefix += "s"
	}
	if prefix != "" {
		pattern = fmt.Sprintf("(?%s)%s", prefix, pattern)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &Error{Code: CodeInvalidPattern, Err: err}
	}
	return re, nil
}
