package linepolicy

import (
	"regexp"
	"strings"

	"github.com/valpere/transflow/internal/markdown"
	"github.com/valpere/transflow/internal/placeholder"
)

var (
	reASSOverride = regexp.MustCompile(`\{\\[^}]*\}`)
	reSRTIndex    = regexp.MustCompile(`^\d+$`)
	reTimecode    = regexp.MustCompile(`^(?:\d{1,2}:)?\d{2}:\d{2}(?:[,.]\d{1,3})?\s*-->\s*(?:\d{1,2}:)?\d{2}:\d{2}(?:[,.]\d{1,3})?`)
	reASSSection  = regexp.MustCompile(`^\[[^\]]+\]$`)
	reASSKey      = regexp.MustCompile(`(?i)^(?:Format|Style|ScriptType|Title|PlayRes[XY]|WrapStyle|ScaledBorderAndShadow|YCbCr Matrix|Collisions|Timer|Original Script|Synch Point|Update Details|Last Style Storage|Comment)\s*:`)
	reASSDialogue = regexp.MustCompile(`(?i)^Dialogue\s*:`)
	reFilename    = regexp.MustCompile(`(?i)^[^\s/\\]+\.(?:txt|srt|ass|ssa|vtt|epub|md|markdown|json|jsonl|docx?|html?|xml)$`)
)

// line is one content line. raw is the physical line as written, norm the
// markup-free text used by the checks.
type line struct {
	raw  string
	norm string
}

// physicalLines splits text on \n, \r\n or \r. A trailing terminator does not
// add an empty line.
func physicalLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// normalizeLine removes markup that does not count as content: tags, ASS
// override blocks and anchors. A Dialogue event is reduced to its text field.
func normalizeLine(s string) string {
	s = strings.TrimSpace(s)
	if reASSDialogue.MatchString(s) {
		s = dialogueText(s)
	}
	s = reASSOverride.ReplaceAllString(s, "")
	s = markdown.StripHTMLTags(s)
	s = placeholder.Strip(s)
	return s
}

// dialogueText returns the text of an ASS event: everything after the ninth
// comma of the field list.
func dialogueText(s string) string {
	_, fields, _ := strings.Cut(s, ":")
	parts := strings.SplitN(fields, ",", 10)
	if len(parts) < 10 {
		return ""
	}
	return strings.ReplaceAll(parts[9], `\N`, " ")
}

// structural reports whether a normalised, trimmed line carries no
// translatable content.
func structural(s string) bool {
	switch {
	case s == "":
		return true
	case strings.EqualFold(s, "WEBVTT"):
		return true
	case reSRTIndex.MatchString(s), reTimecode.MatchString(s):
		return true
	case reASSSection.MatchString(s), reASSKey.MatchString(s):
		return true
	case reFilename.MatchString(s):
		return true
	}
	return false
}

// effectiveLines returns the content lines of text. A line that only held
// markup or anchors is not content.
func effectiveLines(text string) []line {
	var out []line
	for _, raw := range physicalLines(text) {
		trimmed := strings.TrimSpace(raw)
		if structural(trimmed) {
			continue
		}
		norm := strings.TrimSpace(normalizeLine(trimmed))
		if norm == "" {
			continue
		}
		out = append(out, line{raw: raw, norm: norm})
	}
	return out
}
