// Package chunker splits source documents into translation units. Legacy
// mode packs whole lines into units of roughly target_chars code points,
// breaking at sentence ends or blank lines; line mode emits one unit per
// physical line for pipelines that validate 1:1 line correspondence. It also
// extracts a sliding-window context snippet (last N words) so a translator
// can keep continuity across unit boundaries.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/valpere/transflow/internal/profile"
)

const (
	// DefaultContextWords is the default number of words extracted by
	// ExtractContext for use as a sliding-window context.
	DefaultContextWords = 25

	DefaultTargetChars      = 1000
	DefaultMaxChars         = 2000
	DefaultBalanceThreshold = 0.3
	DefaultBalanceCount     = 2
)

// Mode selects the chunking strategy.
type Mode string

const (
	ModeLegacy Mode = "legacy"
	ModeLine   Mode = "line"
)

// Policy is a decoded chunk profile. Numeric fields are assumed valid; the
// profile validator rejects bad values before a policy reaches Split.
type Policy struct {
	Mode Mode

	// legacy
	TargetChars      int
	MaxChars         int
	EnableBalance    bool
	BalanceThreshold float64
	BalanceCount     int

	// line
	Strict    bool
	KeepEmpty bool
}

// DefaultPolicy returns the legacy policy used when a profile sets nothing.
func DefaultPolicy() Policy {
	return Policy{
		Mode:             ModeLegacy,
		TargetChars:      DefaultTargetChars,
		MaxChars:         DefaultMaxChars,
		EnableBalance:    true,
		BalanceThreshold: DefaultBalanceThreshold,
		BalanceCount:     DefaultBalanceCount,
	}
}

// PolicyFromDocument decodes a chunk profile. Missing or unusable values keep
// their defaults, so the result is always splittable.
func PolicyFromDocument(doc profile.Document) Policy {
	p := DefaultPolicy()
	if Mode(strings.ToLower(profile.ChunkType(doc))) == ModeLine {
		p.Mode = ModeLine
	}

	num := func(key string) (float64, bool) {
		v, ok := profile.OptValue(doc, key)
		if !ok {
			return 0, false
		}
		f, ok := profile.Num(v)
		return f, ok && profile.Finite(f)
	}
	flag := func(key string, def bool) bool {
		v, ok := profile.OptValue(doc, key)
		if !ok {
			return def
		}
		b, ok := profile.Bool(v)
		if !ok {
			return def
		}
		return b
	}

	if f, ok := num("target_chars"); ok && f >= 1 {
		p.TargetChars = int(f)
	}
	if f, ok := num("max_chars"); ok && f >= 1 {
		p.MaxChars = int(f)
	}
	if p.MaxChars < p.TargetChars {
		p.MaxChars = p.TargetChars
	}
	if f, ok := num("balance_threshold"); ok && f >= 0 && f <= 1 {
		p.BalanceThreshold = f
	}
	if f, ok := num("balance_count"); ok && f >= 2 {
		p.BalanceCount = int(f)
	}
	p.EnableBalance = flag("enable_balance", true)
	p.Strict = flag("strict", false)
	p.KeepEmpty = flag("keep_empty", false)
	return p
}

// Unit is one translation request's worth of source text. StartLine and
// EndLine are 0-based physical line numbers, EndLine exclusive.
type Unit struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Chars returns the unit length in code points.
func (u Unit) Chars() int {
	return utf8.RuneCountInString(u.Text)
}

// Split divides text into units according to p. It never fails: an empty
// document yields no units.
func Split(p Policy, text string) []Unit {
	lines := splitLines(text)
	var units []Unit
	if p.Mode == ModeLine {
		units = splitByLine(p, lines)
	} else {
		units = splitLegacy(p, lines)
	}
	for i := range units {
		units[i].Index = i
	}
	return units
}

// splitLines splits text into physical lines, each keeping its terminator.
// A trailing terminator does not start an extra empty line.
func splitLines(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexAny(text, "\r\n")
		if i < 0 {
			lines = append(lines, text)
			break
		}
		end := i + 1
		if text[i] == '\r' && end < len(text) && text[end] == '\n' {
			end++
		}
		lines = append(lines, text[:end])
		text = text[end:]
	}
	return lines
}

func stripEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}

func splitByLine(p Policy, lines []string) []Unit {
	var units []Unit
	for i, line := range lines {
		content := stripEOL(line)
		blank := strings.TrimSpace(content) == ""
		switch {
		case p.Strict:
			if blank {
				continue
			}
		case blank:
			if !p.KeepEmpty {
				continue
			}
			content = ""
		default:
			content = strings.TrimSpace(content)
		}
		units = append(units, Unit{Text: content, StartLine: i, EndLine: i + 1})
	}
	return units
}

// safeBreaks are line endings after which a unit may be closed once it has
// reached its target size.
var safeBreaks = []string{"。", "！", "？", "…", "”", "」", "』", ".", "!", "?", "\"", "'"}

func isBreakLine(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return true
	}
	for _, p := range safeBreaks {
		if strings.HasSuffix(s, p) {
			return true
		}
	}
	return false
}

func splitLegacy(p Policy, lines []string) []Unit {
	var (
		units []Unit
		start int
		size  int
		buf   strings.Builder
	)
	flush := func(end int) {
		if end > start {
			units = append(units, Unit{Text: buf.String(), StartLine: start, EndLine: end})
		}
		buf.Reset()
		start, size = end, 0
	}

	for i, line := range lines {
		n := utf8.RuneCountInString(line)
		if size > 0 && size+n > p.MaxChars {
			flush(i)
		}
		buf.WriteString(line)
		size += n
		if size >= p.MaxChars || (size >= p.TargetChars && isBreakLine(line)) {
			flush(i + 1)
		}
	}
	flush(len(lines))

	units = mergeBlankTail(p, units)
	if p.EnableBalance {
		units = balanceTail(p, lines, units)
	}
	return units
}

// mergeBlankTail folds a whitespace-only final unit into its predecessor
// when the result still fits.
func mergeBlankTail(p Policy, units []Unit) []Unit {
	n := len(units)
	if n < 2 || strings.TrimSpace(units[n-1].Text) != "" {
		return units
	}
	last, prev := units[n-1], units[n-2]
	if prev.Chars()+last.Chars() > p.MaxChars {
		return units
	}
	prev.Text += last.Text
	prev.EndLine = last.EndLine
	units[n-2] = prev
	return units[:n-1]
}

// balanceTail redistributes the lines of the trailing BalanceCount units
// into units of near-equal size when the final unit is undersized. The new
// layout is used only if it honours MaxChars and grows the final unit.
func balanceTail(p Policy, lines []string, units []Unit) []Unit {
	k := p.BalanceCount
	if k > len(units) {
		k = len(units)
	}
	if k < 2 {
		return units
	}
	last := units[len(units)-1]
	if float64(last.Chars()) >= p.BalanceThreshold*float64(p.TargetChars) {
		return units
	}

	tail := units[len(units)-k:]
	first, end := tail[0].StartLine, last.EndLine
	sizes := make([]int, end-first)
	total := 0
	for i := range sizes {
		sizes[i] = utf8.RuneCountInString(lines[first+i])
		total += sizes[i]
	}

	// bounds[j] is the line (relative to first) where new unit j starts.
	bounds := make([]int, 0, k+1)
	bounds = append(bounds, 0)
	cum, i := 0, 0
	for j := 1; j < k; j++ {
		want := total * j / k
		for i < len(sizes) && cum < want {
			cum += sizes[i]
			i++
		}
		// leave at least one line for every remaining unit
		if i <= bounds[len(bounds)-1] || i > len(sizes)-(k-j) {
			return units
		}
		bounds = append(bounds, i)
	}
	bounds = append(bounds, len(sizes))

	rebuilt := make([]Unit, 0, k)
	for j := 0; j < k; j++ {
		s, e := first+bounds[j], first+bounds[j+1]
		u := Unit{Text: strings.Join(lines[s:e], ""), StartLine: s, EndLine: e}
		if e-s > 1 && u.Chars() > p.MaxChars {
			return units
		}
		rebuilt = append(rebuilt, u)
	}
	if rebuilt[k-1].Chars() <= last.Chars() {
		return units
	}

	return append(units[:len(units)-k:len(units)-k], rebuilt...)
}

// ExtractContext returns the last wordCount words of text, joined by a single
// space. It is intended for use as a sliding-window context snippet passed to
// LLM translators so they can maintain narrative continuity across chunks.
// If text has fewer words than wordCount, the entire text is returned.
// If wordCount ≤ 0, DefaultContextWords is used.
func ExtractContext(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultContextWords
	}
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[len(words)-wordCount:], " ")
}
