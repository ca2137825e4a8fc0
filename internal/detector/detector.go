// Package detector identifies the language of translated output. The check
// command uses it to confirm that a chunk was actually translated into the
// target language.
package detector

import (
	"fmt"
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// minVerifyLength is the minimum rune count required to attempt language
// detection. Shorter texts produce unreliable results and are accepted
// without verification.
const minVerifyLength = 20

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector over every language lingua knows. Building is
// expensive; reuse the instance.
func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// Verdict is the outcome of Verify.
type Verdict struct {
	Expected string `json:"expected"`
	Detected string `json:"detected,omitempty"`
	Skipped  bool   `json:"skipped"`
	OK       bool   `json:"ok"`
}

// Verify reports whether text appears to be written in targetLang, an ISO
// 639-1 code compared case-insensitively.
//
// An empty targetLang, a short text or an undetectable language passes with
// Skipped set. Empty text fails with an error. When the detected language
// differs from targetLang the returned error names both codes.
func (d *Detector) Verify(text, targetLang string) (Verdict, error) {
	v := Verdict{Expected: strings.ToLower(targetLang)}
	if targetLang == "" {
		v.Skipped, v.OK = true, true
		return v, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return v, fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minVerifyLength {
		v.Skipped, v.OK = true, true
		return v, nil
	}

	detected, ok := d.DetectISO(text)
	if !ok {
		v.Skipped, v.OK = true, true
		return v, nil
	}
	v.Detected = strings.ToLower(detected)

	if !strings.EqualFold(detected, targetLang) {
		return v, fmt.Errorf("expected %s but detected %s", v.Expected, v.Detected)
	}

	v.OK = true
	return v, nil
}
