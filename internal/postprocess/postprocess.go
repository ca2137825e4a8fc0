// Package postprocess removes common LLM artifacts from raw model responses.
//
// Parsers call RemoveThinking before interpreting a response so reasoning
// blocks never leak into translated lines. Clean is the heavier pass for
// free-text responses and is opt-in on the plain parser.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean removes LLM artifacts from text in three phases and returns the
// trimmed result:
//  1. Thinking / reasoning block removal
//  2. Instruction echo removal (prompt leakage)
//  3. Quote wrapping removal
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeInstructionEchoes(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// --- Phase 1: thinking blocks ---

// thinkingBlockRe matches complete <think>…</think> style blocks plus the
// line break that usually follows the closing tag. RE2 has no
// backreferences, so each tag pair is spelled out.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)(?:<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>)(?:\r?\n)?`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

// orphanCloseRe matches a closing tag whose opening tag was consumed by the
// chat template (some reasoning models only emit "…</think>").
var orphanCloseRe = regexp.MustCompile(`(?is)^.*?</think>(?:\r?\n)?`)

// RemoveThinking strips reasoning blocks from a model response without
// touching the surrounding layout, so line structure is preserved.
func RemoveThinking(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	if strings.Contains(strings.ToLower(text), "</think>") {
		text = orphanCloseRe.ReplaceAllString(text, "")
	}
	return text
}

func removeThinkingBlocks(text string) string {
	return strings.TrimSpace(RemoveThinking(text))
}

// --- Phase 2: instruction echoes ---

// echoPatterns match introductory phrases that LLMs sometimes prepend even
// when instructed not to.  Each pattern is anchored to the start of the string
// and requires a colon to reduce false positives on legitimate content.
var echoPatterns = []*regexp.Regexp{
	// "Here is / Here's [the] [refined|polished|translated] translation:"
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text)\s*:`),
	// "[The] [refined|polished] [translation|translated text]:"
	regexp.MustCompile(`(?i)^(?:the )?(?:refined |polished )?(?:translation|translated text)\s*:`),
	// "Certainly / Sure / Of course[,] here is [the] translation:"
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text)\s*:`),
	// CJK labels: "译文：", "翻译:", "翻訳：", "訳文:"
	regexp.MustCompile(`^(?:译文|翻译|翻訳|訳文)\s*[:：]`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// --- Phase 3: quote wrapping ---

// removeQuoteWrapping strips a matching pair of outer quotes when the entire
// text is wrapped in them.  Supported pairs:
//
//	"…"  '…'  «…»  “…”  ‘…’  「…」
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') ||
		(first == '「' && last == '」' && strings.Count(text, "「") == 1) {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}

// --- Code fences ---

var fenceRe = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n(.*?)\r?\n?```")

// ExtractFenced returns the body of the first Markdown code fence in text.
// The boolean is false when text contains no complete fence.
func ExtractFenced(text string) (string, bool) {
	m := fenceRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsFenceLine reports whether line is a Markdown fence delimiter such as
// "```" or "```jsonl".
func IsFenceLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}
