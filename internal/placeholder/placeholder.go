// Package placeholder recognises the anchor tokens that document loaders
// embed in source text so translated output can be stitched back in place:
// numbered markers ([PH0], [PH1], …) that stand in for protected markup, and
// the @id=N@ / @end=N@ pairs that bracket a logical block. Models sometimes
// echo the anchors in full-width form (＠ｉｄ＝１＠), so every helper folds
// them to ASCII first.
package placeholder

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var (
	// ASCII anchors after normalisation
	reAnchor = regexp.MustCompile(`\[PH\d+\]|@(?:id|end)=\d+@`)

	// block anchors in any width or case
	reWideAnchor = regexp.MustCompile(`(?i)[@＠](?:[iｉＩ][dｄＤ]|[eｅＥ][nｎＮ][dｄＤ])[=＝][0-9０-９]+[@＠]`)
)

// Normalize folds full-width or upper-case block anchors to their canonical
// ASCII form. Other text is left untouched.
func Normalize(text string) string {
	return reWideAnchor.ReplaceAllStringFunc(text, func(match string) string {
		return strings.ToLower(width.Narrow.String(match))
	})
}

// Strip removes every anchor from text.
func Strip(text string) string {
	return reAnchor.ReplaceAllString(Normalize(text), "")
}

// Anchors returns the anchors of text in order of appearance.
func Anchors(text string) []string {
	return reAnchor.FindAllString(Normalize(text), -1)
}

// Missing returns the anchors of source that output does not carry, in
// source order. Repeated anchors are counted: a source with two [PH0] and an
// output with one reports one missing [PH0].
func Missing(source, output string) []string {
	have := map[string]int{}
	for _, a := range Anchors(output) {
		have[a]++
	}
	var missing []string
	for _, a := range Anchors(source) {
		if have[a] > 0 {
			have[a]--
			continue
		}
		missing = append(missing, a)
	}
	return missing
}
