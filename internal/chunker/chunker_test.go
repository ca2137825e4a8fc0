package chunker_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/valpere/transflow/internal/chunker"
	"github.com/valpere/transflow/internal/profile"
)

func legacy(target, max int, balance bool) chunker.Policy {
	p := chunker.DefaultPolicy()
	p.TargetChars = target
	p.MaxChars = max
	p.EnableBalance = balance
	return p
}

type span struct {
	text       string
	start, end int
}

func spans(units []chunker.Unit) []span {
	out := make([]span, len(units))
	for i, u := range units {
		out[i] = span{u.Text, u.StartLine, u.EndLine}
	}
	return out
}

func assertSpans(t *testing.T, got []chunker.Unit, want []span) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d units, got %d: %+v", len(want), len(got), spans(got))
	}
	for i, u := range got {
		if u.Index != i {
			t.Errorf("unit %d has index %d", i, u.Index)
		}
		w := want[i]
		if u.Text != w.text || u.StartLine != w.start || u.EndLine != w.end {
			t.Errorf("unit %d: expected %+v, got %+v", i, w, span{u.Text, u.StartLine, u.EndLine})
		}
	}
}

// --- legacy mode ---

func TestSplit_LegacyBreaksAtSentenceEnd(t *testing.T) {
	text := "abc.\nde\nfghij.\nk\n"
	units := chunker.Split(legacy(10, 20, false), text)
	assertSpans(t, units, []span{
		{"abc.\nde\nfghij.\n", 0, 3},
		{"k\n", 3, 4},
	})
}

func TestSplit_LegacyBalancesTail(t *testing.T) {
	text := "abc.\nde\nfghij.\nk\n"
	units := chunker.Split(legacy(10, 20, true), text)
	assertSpans(t, units, []span{
		{"abc.\nde\n", 0, 2},
		{"fghij.\nk\n", 2, 4},
	})
}

func TestSplit_LegacyMaxPrecheck(t *testing.T) {
	text := "aaaaaaaa\nbbbbbbbb\n"
	units := chunker.Split(legacy(10, 12, false), text)
	assertSpans(t, units, []span{
		{"aaaaaaaa\n", 0, 1},
		{"bbbbbbbb\n", 1, 2},
	})
}

func TestSplit_LegacyOversizedLineStandsAlone(t *testing.T) {
	text := "xy\nabcdefghij\nxy\n"
	units := chunker.Split(legacy(3, 5, false), text)
	assertSpans(t, units, []span{
		{"xy\n", 0, 1},
		{"abcdefghij\n", 1, 2},
		{"xy\n", 2, 3},
	})
}

func TestSplit_LegacyMergesBlankTail(t *testing.T) {
	units := chunker.Split(legacy(5, 50, false), "hello.\n\n\n")
	assertSpans(t, units, []span{{"hello.\n\n\n", 0, 3}})
}

func TestSplit_LegacyCountsRunes(t *testing.T) {
	// six Japanese runes plus newline: 7 code points, 19 bytes
	text := "こんにちは。\nさようなら。\n"
	units := chunker.Split(legacy(7, 10, false), text)
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d: %+v", len(units), spans(units))
	}
	if units[0].Chars() != 7 {
		t.Errorf("expected 7 code points, got %d", units[0].Chars())
	}
}

func TestSplit_LegacyCRLF(t *testing.T) {
	units := chunker.Split(legacy(100, 200, false), "a\r\nb\r\nc")
	assertSpans(t, units, []span{{"a\r\nb\r\nc", 0, 3}})
}

func TestSplit_EmptyDocument(t *testing.T) {
	for _, p := range []chunker.Policy{chunker.DefaultPolicy(), {Mode: chunker.ModeLine}} {
		if units := chunker.Split(p, ""); len(units) != 0 {
			t.Errorf("mode %s: expected no units, got %+v", p.Mode, units)
		}
	}
}

// randomDoc builds a document mixing short sentences, blank lines and
// occasional lines longer than any sane max_chars.
func randomDoc(r *rand.Rand, lines int) string {
	alphabet := []rune("abcdefg hij.。！あいうえおカキク漢字")
	var b strings.Builder
	for i := 0; i < lines; i++ {
		var n int
		switch r.Intn(10) {
		case 0:
			n = 0
		case 1:
			n = 1500 + r.Intn(1500)
		default:
			n = r.Intn(300)
		}
		for j := 0; j < n; j++ {
			b.WriteRune(alphabet[r.Intn(len(alphabet))])
		}
		if r.Intn(4) == 0 {
			b.WriteString("\r\n")
		} else {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func TestSplit_LegacyMaxCharsProperty(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	p := chunker.DefaultPolicy()
	if p.MaxChars != 2000 {
		t.Fatalf("expected default max_chars 2000, got %d", p.MaxChars)
	}

	for round := 0; round < 50; round++ {
		doc := randomDoc(r, 20+r.Intn(80))
		units := chunker.Split(p, doc)

		var rebuilt strings.Builder
		next := 0
		for _, u := range units {
			if u.Chars() > p.MaxChars && u.EndLine-u.StartLine != 1 {
				t.Fatalf("round %d: unit %d spans lines %d-%d with %d chars",
					round, u.Index, u.StartLine, u.EndLine, u.Chars())
			}
			if u.StartLine != next {
				t.Fatalf("round %d: unit %d starts at line %d, expected %d", round, u.Index, u.StartLine, next)
			}
			next = u.EndLine
			rebuilt.WriteString(u.Text)
		}
		if rebuilt.String() != doc {
			t.Fatalf("round %d: units do not reassemble the document", round)
		}
	}
}

// --- line mode ---

func TestSplit_LineMode(t *testing.T) {
	text := "  a  \n\n b\r\n   \nc"
	tests := []struct {
		name   string
		policy chunker.Policy
		want   []span
	}{
		{
			name:   "drops blanks",
			policy: chunker.Policy{Mode: chunker.ModeLine},
			want:   []span{{"a", 0, 1}, {"b", 2, 3}, {"c", 4, 5}},
		},
		{
			name:   "keep empty",
			policy: chunker.Policy{Mode: chunker.ModeLine, KeepEmpty: true},
			want:   []span{{"a", 0, 1}, {"", 1, 2}, {"b", 2, 3}, {"", 3, 4}, {"c", 4, 5}},
		},
		{
			name:   "strict keeps lines verbatim",
			policy: chunker.Policy{Mode: chunker.ModeLine, Strict: true},
			want:   []span{{"  a  ", 0, 1}, {" b", 2, 3}, {"c", 4, 5}},
		},
		{
			name:   "strict ignores keep empty",
			policy: chunker.Policy{Mode: chunker.ModeLine, Strict: true, KeepEmpty: true},
			want:   []span{{"  a  ", 0, 1}, {" b", 2, 3}, {"c", 4, 5}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertSpans(t, chunker.Split(tt.policy, text), tt.want)
		})
	}
}

func TestSplit_LineModeNeverEmitsBlankUnits(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for _, strict := range []bool{false, true} {
		p := chunker.Policy{Mode: chunker.ModeLine, Strict: strict}
		for round := 0; round < 30; round++ {
			for _, u := range chunker.Split(p, randomDoc(r, 40)) {
				if strings.TrimSpace(u.Text) == "" {
					t.Fatalf("strict=%v round %d: blank unit at line %d", strict, round, u.StartLine)
				}
				if u.EndLine-u.StartLine != 1 {
					t.Fatalf("strict=%v: unit spans %d lines", strict, u.EndLine-u.StartLine)
				}
			}
		}
	}
}

// --- PolicyFromDocument ---

func TestPolicyFromDocument(t *testing.T) {
	p := chunker.PolicyFromDocument(profile.Document{
		"id":         "c-line",
		"chunk_type": "line",
		"options":    map[string]any{"strict": true, "keep_empty": "true"},
	})
	if p.Mode != chunker.ModeLine || !p.Strict || !p.KeepEmpty {
		t.Errorf("unexpected line policy: %+v", p)
	}

	p = chunker.PolicyFromDocument(profile.Document{
		"options": map[string]any{
			"target_chars":      500,
			"max_chars":         100,
			"balance_threshold": 2,
			"balance_count":     1,
			"enable_balance":    false,
		},
	})
	if p.Mode != chunker.ModeLegacy {
		t.Errorf("expected legacy mode, got %s", p.Mode)
	}
	if p.TargetChars != 500 || p.MaxChars != 500 {
		t.Errorf("expected target 500 and max clamped to 500, got %d/%d", p.TargetChars, p.MaxChars)
	}
	if p.BalanceThreshold != chunker.DefaultBalanceThreshold || p.BalanceCount != chunker.DefaultBalanceCount {
		t.Errorf("out-of-range balance options should keep defaults: %+v", p)
	}
	if p.EnableBalance {
		t.Error("enable_balance=false was ignored")
	}

	if got := chunker.PolicyFromDocument(nil); got != chunker.DefaultPolicy() {
		t.Errorf("expected default policy, got %+v", got)
	}
}

// --- ExtractContext tests ---

func TestExtractContext_FewerWordsThanLimit(t *testing.T) {
	text := "short text"
	ctx := chunker.ExtractContext(text, 25)
	if ctx != text {
		t.Errorf("expected %q, got %q", text, ctx)
	}
}

func TestExtractContext_ExactWordCount(t *testing.T) {
	words := make([]string, 25)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")
	ctx := chunker.ExtractContext(text, 25)
	if ctx != text {
		t.Errorf("expected same text back, got %q", ctx)
	}
}

func TestExtractContext_MoreWordsThanLimit(t *testing.T) {
	words := make([]string, 50)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")
	ctx := chunker.ExtractContext(text, 25)
	got := len(strings.Fields(ctx))
	if got != 25 {
		t.Errorf("expected 25 words, got %d", got)
	}
}

func TestExtractContext_DefaultWordCount(t *testing.T) {
	// wordCount ≤ 0 should use DefaultContextWords (25).
	words := make([]string, 50)
	for i := range words {
		words[i] = "w"
	}
	text := strings.Join(words, " ")
	ctx := chunker.ExtractContext(text, 0)
	got := len(strings.Fields(ctx))
	if got != chunker.DefaultContextWords {
		t.Errorf("expected %d words, got %d", chunker.DefaultContextWords, got)
	}
}

func TestExtractContext_LastWordsCorrect(t *testing.T) {
	text := "alpha beta gamma delta epsilon"
	ctx := chunker.ExtractContext(text, 3)
	if ctx != "gamma delta epsilon" {
		t.Errorf("expected last 3 words, got %q", ctx)
	}
}
