package linepolicy

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

const (
	// katakana middle dot and prolonged sound mark are punctuation in
	// translated text, not residue
	kanaMiddleDot = '・'
	kanaProlonged = 'ー'

	minMeaningfulRunes = 8
	minJapaneseRunes   = 6
)

// fold maps full- and half-width forms to their canonical width and lowers
// case, so "ＡＢＣ" and "abc" or "ｶﾅ" and "カナ" compare equal.
func fold(s string) string {
	return strings.ToLower(width.Fold.String(s))
}

func isKana(r rune) bool {
	return unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r)
}

func isJapanese(r rune) bool {
	return isKana(r) || unicode.Is(unicode.Han, r)
}

// isMeaningful reports whether r takes part in the similarity comparison:
// Latin letters, digits, Han and kana.
func isMeaningful(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case unicode.IsLetter(r) && unicode.Is(unicode.Latin, r):
		return true
	default:
		return isJapanese(r)
	}
}

// charProfile summarises the meaningful characters of a folded line.
type charProfile struct {
	set        map[rune]struct{}
	meaningful int
	japanese   int
}

func profileOf(s string) charProfile {
	p := charProfile{set: map[rune]struct{}{}}
	for _, r := range fold(s) {
		if !isMeaningful(r) {
			continue
		}
		p.meaningful++
		if isJapanese(r) {
			p.japanese++
		}
		p.set[r] = struct{}{}
	}
	return p
}

// overlap returns |src ∩ out| / |src| over distinct meaningful characters.
func overlap(src, out charProfile) float64 {
	if len(src.set) == 0 {
		return 0
	}
	shared := 0
	for r := range src.set {
		if _, ok := out.set[r]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(src.set))
}

// suspiciouslySimilar reports whether out looks like an untranslated copy of
// src. Short lines never qualify.
func suspiciouslySimilar(src, out string, threshold float64) bool {
	sp, op := profileOf(src), profileOf(out)
	if sp.meaningful < minMeaningfulRunes || op.meaningful < minMeaningfulRunes {
		return false
	}
	if sp.japanese < minJapaneseRunes || op.japanese < minJapaneseRunes {
		return false
	}
	return overlap(sp, op) > threshold
}

// kanaResidue counts Hiragana and Katakana code points left in s.
func kanaResidue(s string) int {
	n := 0
	for _, r := range width.Fold.String(s) {
		if r == kanaMiddleDot || r == kanaProlonged {
			continue
		}
		if isKana(r) {
			n++
		}
	}
	return n
}
