// Package linepolicy decides whether a translated chunk keeps the line
// structure of its source. Evaluate compares effective line counts, runs the
// enabled quality checks and, on a count mismatch, recommends or applies the
// configured action. It never mutates its inputs and never fails; "error" is
// one of the actions it can report.
package linepolicy

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/valpere/transflow/internal/profile"
)

// Type controls whether check results block acceptance.
type Type string

const (
	Strict   Type = "strict"
	Tolerant Type = "tolerant"
)

// Valid reports whether t is a known policy type.
func (t Type) Valid() bool { return t == Strict || t == Tolerant }

// Action is the reaction to a line-count mismatch.
type Action string

const (
	ActionNone     Action = ""
	ActionRetry    Action = "retry"
	ActionError    Action = "error"
	ActionPad      Action = "pad"
	ActionTruncate Action = "truncate"
	ActionAlign    Action = "align"
)

// Actions lists every configurable mismatch action.
var Actions = []Action{ActionRetry, ActionError, ActionPad, ActionTruncate, ActionAlign}

// Valid reports whether a is a configurable action.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Check names an optional quality check.
type Check string

const (
	CheckEmptyLine  Check = "empty_line"
	CheckSimilarity Check = "similarity"
	CheckKanaTrace  Check = "kana_trace"
	CheckAnchor     Check = "anchor"
)

// Checks lists every known check in evaluation order.
var Checks = []Check{CheckEmptyLine, CheckSimilarity, CheckKanaTrace, CheckAnchor}

// Known reports whether c is a known check.
func (c Check) Known() bool {
	for _, known := range Checks {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultSimilarityThreshold is the overlap ratio above which a line pair is
// considered untranslated.
const DefaultSimilarityThreshold = 0.9

// Config is a decoded line policy.
type Config struct {
	Type                Type
	OnMismatch          Action
	Checks              []Check
	Trim                bool
	SimilarityThreshold float64
	SourceLang          string
}

// DefaultConfig returns a strict policy that retries on mismatch with no
// optional checks enabled.
func DefaultConfig() Config {
	return Config{
		Type:                Strict,
		OnMismatch:          ActionRetry,
		Trim:                true,
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// Enabled reports whether check c is configured.
func (c Config) Enabled(check Check) bool {
	for _, ch := range c.Checks {
		if ch == check {
			return true
		}
	}
	return false
}

// japaneseSource reports whether the kana and similarity checks apply. An
// unset or unparsable source language is treated as Japanese.
func (c Config) japaneseSource() bool {
	if c.SourceLang == "" {
		return true
	}
	tag, err := language.Parse(c.SourceLang)
	if err != nil {
		return true
	}
	base, _ := tag.Base()
	return base.String() == "ja"
}

// PolicyType reads the policy type of a profile document. "policy_type" is
// preferred over the older "type" field.
func PolicyType(doc profile.Document) string {
	if s := profile.Str(doc, "policy_type"); s != "" {
		return s
	}
	return profile.Str(doc, "type")
}

// CheckNames returns the raw check names of a profile document. Checks may be
// a list or a comma separated string.
func CheckNames(doc profile.Document) []string {
	v, ok := profile.OptValue(doc, "checks")
	if !ok {
		return nil
	}
	var names []string
	if s, isString := v.(string); isString {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				names = append(names, part)
			}
		}
		return names
	}
	list, _ := profile.List(v)
	for _, item := range list {
		if name := strings.TrimSpace(profile.AsString(item)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ConfigFromDocument decodes a policy profile. Unknown checks are dropped and
// invalid values keep their defaults; the profile validator reports them.
func ConfigFromDocument(doc profile.Document) Config {
	c := DefaultConfig()
	if t := Type(strings.ToLower(PolicyType(doc))); t.Valid() {
		c.Type = t
	}
	if v, ok := profile.OptValue(doc, "on_mismatch"); ok {
		if a := Action(strings.ToLower(profile.AsString(v))); a.Valid() {
			c.OnMismatch = a
		}
	}
	for _, name := range CheckNames(doc) {
		if ch := Check(strings.ToLower(name)); ch.Known() && !c.Enabled(ch) {
			c.Checks = append(c.Checks, ch)
		}
	}
	if v, ok := profile.OptValue(doc, "trim"); ok {
		if b, ok := profile.Bool(v); ok {
			c.Trim = b
		}
	}
	if v, ok := profile.OptValue(doc, "similarity_threshold"); ok {
		if f, ok := profile.Num(v); ok && profile.Finite(f) && f >= 0 && f <= 1 {
			c.SimilarityThreshold = f
		}
	}
	if v, ok := profile.OptValue(doc, "source_lang"); ok {
		c.SourceLang = strings.TrimSpace(profile.AsString(v))
	}
	return c
}
