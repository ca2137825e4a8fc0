// Package validator checks profile documents before they are saved or used.
//
// Validate never fails: every problem is collected as a typed code in
// Result.Errors (blocking) or Result.Warnings (advisory) so a caller can
// present all of them at once and localise the messages itself. Codes appear
// in check order and never repeat, so identical input always yields an
// identical result.
package validator

import (
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"github.com/valpere/transflow/internal/chunker"
	"github.com/valpere/transflow/internal/linepolicy"
	"github.com/valpere/transflow/internal/parser"
	"github.com/valpere/transflow/internal/profile"
)

// Result lists the problems found in one document.
type Result struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether the document has no blocking errors.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// UnknownReference returns the error code for a reference that does not
// resolve in the index.
func UnknownReference(kind profile.Kind, id string) string {
	return "unknown_reference:" + string(kind) + ":" + id
}

type collector struct {
	res  Result
	seen map[string]bool
}

func newCollector() *collector {
	return &collector{
		res:  Result{Errors: []string{}, Warnings: []string{}},
		seen: map[string]bool{},
	}
}

func (c *collector) err(code string) {
	if !c.seen["e:"+code] {
		c.seen["e:"+code] = true
		c.res.Errors = append(c.res.Errors, code)
	}
}

func (c *collector) warn(code string) {
	if !c.seen["w:"+code] {
		c.seen["w:"+code] = true
		c.res.Warnings = append(c.res.Warnings, code)
	}
}

// Validate checks doc as a profile of the given kind. idx is the read-only
// snapshot of existing profiles used to resolve references.
func Validate(kind string, doc any, idx profile.Index) Result {
	d, ok := profile.Map(doc)
	if !ok || d == nil {
		return Result{Errors: []string{"invalid_document"}, Warnings: []string{}}
	}

	c := newCollector()
	k, ok := profile.ParseKind(kind)
	if !ok {
		c.err("unknown_kind")
		return c.res
	}

	checkID(c, d)
	switch k {
	case profile.KindAPI:
		checkAPI(c, d, idx)
	case profile.KindPrompt:
		checkPrompt(c, d)
	case profile.KindParser:
		checkParser(c, d, idx, profile.ID(d))
	case profile.KindPolicy:
		checkPolicy(c, d)
	case profile.KindChunk:
		checkChunk(c, d)
	case profile.KindPipeline:
		checkPipeline(c, d, idx)
	}
	return c.res
}

// ValidateEntry validates a loaded profile.
func ValidateEntry(e profile.Entry, idx profile.Index) Result {
	return Validate(string(e.Kind), e.Doc, idx)
}

func checkID(c *collector, d profile.Document) {
	raw, present := d["id"]
	if !present || profile.AsString(raw) == "" {
		c.err("missing_id")
		return
	}
	id, isString := raw.(string)
	if !isString {
		id = profile.AsString(raw)
	}
	if !profile.SafeID(id) {
		c.err("invalid_id")
	}
}

// number reads an optional numeric field. present is false when the field is
// absent; ok is false when it is present but not a finite number.
func number(d profile.Document, key string) (f float64, present, ok bool) {
	v, present := profile.OptValue(d, key)
	if !present {
		return 0, false, false
	}
	f, ok = profile.Num(v)
	return f, true, ok && profile.Finite(f)
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// --- api ---

func checkAPI(c *collector, d profile.Document, idx profile.Index) {
	typ := strings.ToLower(profile.Str(d, "type"))
	switch typ {
	case "", "openai_compat", "openai":
		checkEndpoint(c, d, true)
	case "pool":
		checkPool(c, d, idx)
	default:
		c.err("invalid_api_type")
	}

	if f, present, ok := number(d, "concurrency"); present && (!ok || !profile.IsInteger(f) || f < 0) {
		c.err("invalid_concurrency")
	}
	if f, present, ok := number(d, "rpm"); present && (!ok || !profile.IsInteger(f) || f < 1) {
		c.err("invalid_rpm")
	}
	if f, present, ok := number(d, "timeout"); present && (!ok || f <= 0) {
		c.err("invalid_timeout")
	}
}

// checkEndpoint validates base_url and model. With report set the missing
// fields are recorded; it returns whether the endpoint is usable.
func checkEndpoint(c *collector, d profile.Document, report bool) bool {
	usable := true
	base := profile.Str(d, "base_url")
	switch {
	case base == "":
		usable = false
		if report {
			c.err("missing_base_url")
		}
	case !validHTTPURL(base):
		usable = false
		c.err("invalid_base_url")
	}
	if profile.Str(d, "model") == "" {
		usable = false
		if report {
			c.err("missing_model")
		}
	}
	return usable
}

func checkPool(c *collector, d profile.Document, idx profile.Index) {
	usable := 0
	if v, ok := profile.OptValue(d, "endpoints"); ok {
		list, _ := profile.List(v)
		for _, item := range list {
			if ep, ok := profile.Map(item); ok && checkEndpoint(c, ep, false) {
				usable++
			}
		}
	}

	self := profile.ID(d)
	var members []string
	if v, ok := profile.OptValue(d, "members"); ok {
		list, _ := profile.List(v)
		for _, item := range list {
			if id := profile.AsString(item); id != "" {
				members = append(members, id)
			}
		}
	}
	for _, m := range members {
		switch {
		case m == self:
			c.err("pool_self_reference")
		case !idx.Has(profile.KindAPI, m):
			c.err(UnknownReference(profile.KindAPI, m))
		}
	}

	if usable == 0 && len(members) == 0 {
		c.err("missing_pool_endpoints")
	}
}

// --- prompt ---

// SourcePlaceholder is the template variable replaced by the source text.
const SourcePlaceholder = "{{source}}"

func checkPrompt(c *collector, d profile.Document) {
	tmpl, _ := profile.Value(d, "user_template")
	s, _ := tmpl.(string)
	switch {
	case strings.TrimSpace(s) == "":
		c.warn("missing_user_template")
	case !strings.Contains(s, SourcePlaceholder):
		c.warn("missing_source_placeholder")
	}
}

// --- parser ---

func checkParser(c *collector, d profile.Document, idx profile.Index, self string) {
	typeName := profile.Str(d, "type")
	if typeName == "" {
		c.err(string(parser.CodeMissingType))
		return
	}
	t := parser.Type(strings.ToLower(typeName))
	if !t.Valid() {
		c.err(string(parser.CodeUnknownType))
		return
	}

	optStr := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := profile.OptValue(d, k); ok {
				if s := profile.AsString(v); s != "" {
					return s
				}
			}
		}
		return ""
	}

	switch t {
	case parser.TypeRegex, parser.TypeTaggedLine:
		pattern := optStr("pattern")
		if pattern == "" && t == parser.TypeRegex {
			c.err(string(parser.CodeMissingPattern))
		}
		flagValue, _ := profile.OptValue(d, "flags")
		flags, err := parser.ParseFlags(flagValue)
		if err != nil {
			c.err(string(parser.CodeInvalidFlag))
		}
		if pattern != "" {
			if _, err := parser.Compile(pattern, flags); err != nil {
				c.err(string(parser.CodeInvalidPattern))
			}
		}
	case parser.TypeJSONObject, parser.TypeJSONL:
		if optStr("path", "key") == "" {
			c.err(string(parser.CodeMissingPath))
		}
	case parser.TypeLineStrict:
		if !parser.MultiLineMode(strings.ToLower(optStr("multi_line"))).Valid() {
			c.err(string(parser.CodeInvalidMultiLine))
		}
	case parser.TypePython:
		if optStr("script", "path") == "" {
			c.err(string(parser.CodeMissingScript))
		}
	case parser.TypeAny:
		children := parser.ChildList(d)
		if len(children) == 0 {
			c.err(string(parser.CodeMissingAnyParsers))
		}
		for _, item := range children {
			if child, ok := profile.Map(item); ok {
				checkParser(c, child, idx, self)
				continue
			}
			id := profile.AsString(item)
			switch {
			case id == "":
				c.err(string(parser.CodeMissingType))
			case id == self:
				c.err(string(parser.CodeReferenceCycle))
			case !idx.Has(profile.KindParser, id):
				c.err(UnknownReference(profile.KindParser, id))
			}
		}
	}
}

// --- policy ---

func checkPolicy(c *collector, d profile.Document) {
	switch pt := linepolicy.PolicyType(d); {
	case pt == "":
		c.warn("missing_policy_type")
	case !linepolicy.Type(strings.ToLower(pt)).Valid():
		c.warn("invalid_policy_type")
	}
	if v, ok := profile.OptValue(d, "on_mismatch"); ok {
		if !linepolicy.Action(strings.ToLower(profile.AsString(v))).Valid() {
			c.err("invalid_on_mismatch")
		}
	}
	for _, name := range linepolicy.CheckNames(d) {
		if !linepolicy.Check(strings.ToLower(name)).Known() {
			c.warn("unknown_check")
		}
	}
	if f, present, ok := number(d, "similarity_threshold"); present && (!ok || f < 0 || f > 1) {
		c.err("invalid_similarity_threshold")
	}
	if v, ok := profile.OptValue(d, "source_lang"); ok {
		if lang := profile.AsString(v); lang != "" {
			if _, err := language.Parse(lang); err != nil {
				c.warn("invalid_source_lang")
			}
		}
	}
}

// --- chunk ---

func checkChunk(c *collector, d profile.Document) {
	switch ct := profile.ChunkType(d); chunker.Mode(strings.ToLower(ct)) {
	case chunker.ModeLegacy, chunker.ModeLine:
	case "":
		c.warn("missing_chunk_type")
	default:
		c.warn("invalid_chunk_type")
	}

	target, tPresent, tOK := number(d, "target_chars")
	tOK = tOK && profile.IsInteger(target) && target >= 1
	if tPresent && !tOK {
		c.err("invalid_target_chars")
	}
	maxChars, mPresent, mOK := number(d, "max_chars")
	mOK = mOK && profile.IsInteger(maxChars) && maxChars >= 1
	if mPresent && !mOK {
		c.err("invalid_max_chars")
	}
	if f, present, ok := number(d, "balance_threshold"); present && (!ok || f < 0 || f > 1) {
		c.err("invalid_balance_threshold")
	}
	if f, present, ok := number(d, "balance_count"); present && (!ok || !profile.IsInteger(f) || f < 2) {
		c.err("invalid_balance_count")
	}

	if !tPresent {
		target, tOK = chunker.DefaultTargetChars, true
	}
	if !mPresent {
		maxChars, mOK = chunker.DefaultMaxChars, true
	}
	if tOK && mOK && maxChars < target {
		c.warn("max_chars_below_target")
	}
}

// --- pipeline ---

type reference struct {
	field    string
	kind     profile.Kind
	required bool
}

var pipelineRefs = []reference{
	{"provider", profile.KindAPI, true},
	{"prompt", profile.KindPrompt, true},
	{"parser", profile.KindParser, true},
	{"chunk_policy", profile.KindChunk, true},
	{"line_policy", profile.KindPolicy, false},
}

func checkPipeline(c *collector, d profile.Document, idx profile.Index) {
	for _, ref := range pipelineRefs {
		if ref.required && profile.Str(d, ref.field) == "" {
			c.err("missing_" + ref.field)
		}
	}

	apply := false
	if v, ok := profile.Value(d, "apply_line_policy"); ok {
		apply, _ = profile.Bool(v)
	}
	linePolicy := profile.Str(d, "line_policy")
	if apply && linePolicy == "" {
		c.err("missing_line_policy")
	}

	switch chunker.Mode(strings.ToLower(pipelineChunkType(d, idx))) {
	case chunker.ModeLegacy:
		if apply {
			c.err("legacy_chunk_with_line_policy")
		} else if linePolicy != "" {
			c.warn("line_policy_ignored")
		}
	case chunker.ModeLine:
		if linePolicy == "" {
			c.err("line_chunk_requires_line_policy")
		}
	}

	for _, ref := range pipelineRefs {
		if id := profile.Str(d, ref.field); id != "" && !idx.Has(ref.kind, id) {
			c.err(UnknownReference(ref.kind, id))
		}
	}
}

// pipelineChunkType returns the chunk_type of the referenced chunk profile,
// falling back to a chunk_type set on the pipeline itself.
func pipelineChunkType(d profile.Document, idx profile.Index) string {
	if ref := profile.Str(d, "chunk_policy"); ref != "" {
		if ct, ok := idx.ChunkType(ref); ok && ct != "" {
			return ct
		}
	}
	return profile.ChunkType(d)
}
