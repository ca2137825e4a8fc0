package linepolicy

import (
	"strings"

	"github.com/valpere/transflow/internal/placeholder"
)

// Report is the outcome of Evaluate. Line indexes in FlaggedSimilarLines
// refer to effective (content) lines; EmptyLineMismatches refers to physical
// lines.
type Report struct {
	LineCountOK         bool     `json:"line_count_ok"`
	SourceLines         int      `json:"source_lines"`
	OutputLines         int      `json:"output_lines"`
	MismatchAction      Action   `json:"mismatch_action,omitempty"`
	FlaggedSimilarLines []int    `json:"flagged_similar_lines"`
	KanaResidueCount    int      `json:"kana_residue_count"`
	EmptyLineMismatches []int    `json:"empty_line_mismatches"`
	MissingAnchors      []string `json:"missing_anchors,omitempty"`

	// Adjusted holds the output lines mapped 1:1 onto the effective source
	// lines, when the counts already match or the action could fix them.
	Adjusted   []string `json:"adjusted,omitempty"`
	Unresolved bool     `json:"unresolved"`
	Accepted   bool     `json:"accepted"`
}

// Flagged reports whether any check raised a finding.
func (r Report) Flagged() bool {
	return len(r.FlaggedSimilarLines) > 0 ||
		r.KanaResidueCount > 0 ||
		len(r.EmptyLineMismatches) > 0 ||
		len(r.MissingAnchors) > 0
}

// Evaluate checks output against source under cfg.
func Evaluate(source, output string, cfg Config) Report {
	src := effectiveLines(source)
	out := effectiveLines(output)

	r := Report{
		LineCountOK:         len(src) == len(out),
		SourceLines:         len(src),
		OutputLines:         len(out),
		FlaggedSimilarLines: []int{},
		EmptyLineMismatches: []int{},
	}

	japanese := cfg.japaneseSource()
	for _, check := range Checks {
		if !cfg.Enabled(check) {
			continue
		}
		switch check {
		case CheckEmptyLine:
			r.EmptyLineMismatches = emptyLineMismatches(source, output)
		case CheckSimilarity:
			if japanese {
				r.FlaggedSimilarLines = similarLines(src, out, cfg.SimilarityThreshold)
			}
		case CheckKanaTrace:
			if japanese {
				for _, l := range out {
					r.KanaResidueCount += kanaResidue(l.norm)
				}
			}
		case CheckAnchor:
			r.MissingAnchors = placeholder.Missing(source, output)
		}
	}

	lines := make([]string, len(out))
	for i, l := range out {
		lines[i] = l.raw
		if cfg.Trim {
			lines[i] = strings.TrimSpace(l.raw)
		}
	}

	if r.LineCountOK {
		r.Adjusted = lines
	} else {
		r.MismatchAction = cfg.OnMismatch
		if !r.MismatchAction.Valid() {
			r.MismatchAction = ActionRetry
		}
		r.Adjusted, r.Unresolved = adjust(r.MismatchAction, lines, len(src))
	}

	r.Accepted = !r.Unresolved && (cfg.Type == Tolerant || !r.Flagged())
	return r
}

func isBlank(s string) bool {
	return strings.TrimSpace(normalizeLine(s)) == ""
}

// emptyLineMismatches returns the physical line numbers where exactly one
// side is blank.
func emptyLineMismatches(source, output string) []int {
	src, out := physicalLines(source), physicalLines(output)
	flagged := []int{}
	for i := 0; i < len(src) && i < len(out); i++ {
		if isBlank(src[i]) != isBlank(out[i]) {
			flagged = append(flagged, i)
		}
	}
	return flagged
}

func similarLines(src, out []line, threshold float64) []int {
	flagged := []int{}
	for i := 0; i < len(src) && i < len(out); i++ {
		if suspiciouslySimilar(src[i].norm, out[i].norm, threshold) {
			flagged = append(flagged, i)
		}
	}
	return flagged
}
