// Package profile holds the profile data model shared by the validator, the
// parsers and the CLI: the closed set of profile kinds, id safety rules, the
// read-only id index used for cross-reference checks, and helpers to read
// loosely typed decoded documents.
package profile

import (
	"strings"
	"unicode"
)

// Kind is the kind of a profile.
type Kind string

const (
	KindAPI      Kind = "api"
	KindPrompt   Kind = "prompt"
	KindParser   Kind = "parser"
	KindPolicy   Kind = "policy"
	KindChunk    Kind = "chunk"
	KindPipeline Kind = "pipeline"
)

// Kinds lists every profile kind in dependency order.
var Kinds = []Kind{KindAPI, KindPrompt, KindParser, KindPolicy, KindChunk, KindPipeline}

// kindAliases maps directory names to kinds so profile trees such as
// profiles/parsers/*.yaml load without an explicit kind field.
var kindAliases = map[string]Kind{
	"api": KindAPI, "apis": KindAPI, "provider": KindAPI, "providers": KindAPI,
	"prompt": KindPrompt, "prompts": KindPrompt,
	"parser": KindParser, "parsers": KindParser,
	"policy": KindPolicy, "policies": KindPolicy, "line_policy": KindPolicy,
	"chunk": KindChunk, "chunks": KindChunk, "chunk_policy": KindChunk,
	"pipeline": KindPipeline, "pipelines": KindPipeline,
}

// ParseKind resolves a kind name or one of its directory aliases.
func ParseKind(s string) (Kind, bool) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	return k, ok
}

// Document is a decoded profile document.
type Document = map[string]any

// SafeID reports whether id can be used as a profile id. Ids end up as file
// names and database keys, so anything resembling a path is rejected:
// separators, "." and "..", a leading "..", and control characters.
func SafeID(id string) bool {
	if strings.TrimSpace(id) == "" || id != strings.TrimSpace(id) {
		return false
	}
	if id == "." || strings.HasPrefix(id, "..") {
		return false
	}
	if strings.ContainsAny(id, `/\:*?"<>|`) {
		return false
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// ID returns the trimmed id of doc, or "" when it has none.
func ID(doc Document) string {
	return Str(doc, "id")
}
