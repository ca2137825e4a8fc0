// Package report renders the outcome of a line policy check for the CLI.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/valpere/transflow/internal/detector"
	"github.com/valpere/transflow/internal/linepolicy"
	"github.com/valpere/transflow/internal/markdown"
)

type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts a format name; "md" is short for markdown.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q", name)
	}
}

// Check is one evaluated source/output pair.
type Check struct {
	Policy string            `json:"policy,omitempty"`
	Source string            `json:"source,omitempty"`
	Output string            `json:"output,omitempty"`
	Result linepolicy.Report `json:"result"`

	// Language is set when output language detection ran.
	Language      *detector.Verdict `json:"language,omitempty"`
	LanguageError string            `json:"language_error,omitempty"`
}

// Passed reports whether the policy accepted the output and language
// detection, when it ran, found no mismatch.
func (c Check) Passed() bool {
	return c.Result.Accepted && c.LanguageError == ""
}

// Write renders c to w in format f.
func Write(w io.Writer, c Check, f Format) error {
	var err error
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(c)
	case FormatMarkdown:
		_, err = io.WriteString(w, Markdown(c))
	case FormatHTML:
		_, err = io.WriteString(w, markdown.ToHTML([]byte(Markdown(c))))
	default:
		_, err = io.WriteString(w, Text(c))
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func verdict(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

func ints(list []int) string {
	if len(list) == 0 {
		return "-"
	}
	parts := make([]string, len(list))
	for i, n := range list {
		parts[i] = strconv.Itoa(n + 1)
	}
	return strings.Join(parts, ", ")
}

func strs(list []string) string {
	if len(list) == 0 {
		return "-"
	}
	return strings.Join(list, " ")
}

func mismatch(r linepolicy.Report) string {
	if r.LineCountOK {
		return "-"
	}
	s := string(r.MismatchAction)
	if r.Unresolved {
		s += " (unresolved)"
	}
	return s
}

// rows are the label/value pairs shared by the text and Markdown layouts.
// Line numbers are 1-based.
func rows(c Check) [][2]string {
	r := c.Result
	out := [][2]string{
		{"Line count", fmt.Sprintf("%d source / %d output", r.SourceLines, r.OutputLines)},
		{"Mismatch action", mismatch(r)},
		{"Similar lines", ints(r.FlaggedSimilarLines)},
		{"Kana residue", strconv.Itoa(r.KanaResidueCount)},
		{"Empty line mismatches", ints(r.EmptyLineMismatches)},
		{"Missing anchors", strs(r.MissingAnchors)},
	}
	if v := c.Language; v != nil {
		lang := v.Expected
		switch {
		case v.Skipped:
			lang += " (skipped)"
		case v.Detected != "":
			lang += " / detected " + v.Detected
		}
		out = append(out, [2]string{"Language", lang})
	}
	return out
}

// Text renders c as aligned plain text.
func Text(c Check) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", verdict(c.Passed()))
	if c.Policy != "" {
		fmt.Fprintf(&b, " policy=%s", c.Policy)
	}
	b.WriteString("\n")
	for _, row := range rows(c) {
		fmt.Fprintf(&b, "  %-22s %s\n", row[0]+":", row[1])
	}
	if c.LanguageError != "" {
		fmt.Fprintf(&b, "  %-22s %s\n", "Language error:", c.LanguageError)
	}
	return b.String()
}

// Markdown renders c as a Markdown document with a summary table.
func Markdown(c Check) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Line check: %s\n\n", verdict(c.Passed()))
	if c.Policy != "" {
		fmt.Fprintf(&b, "- Policy: `%s`\n", c.Policy)
	}
	if c.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", c.Source)
	}
	if c.Output != "" {
		fmt.Fprintf(&b, "- Output: `%s`\n", c.Output)
	}
	b.WriteString("\n| Check | Result |\n|---|---|\n")
	for _, row := range rows(c) {
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], escapeCell(row[1]))
	}
	if c.LanguageError != "" {
		fmt.Fprintf(&b, "\n> %s\n", c.LanguageError)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
