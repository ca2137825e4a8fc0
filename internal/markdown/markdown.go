package markdown

import (
	"bytes"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToHTML renders a Markdown report as an HTML fragment.
func ToHTML(md []byte) string {
	opts := html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	}
	renderer := html.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Attributes
	p := parser.NewWithExtensions(ext)
	doc := p.Parse(md)
	return string(markdown.Render(doc, renderer))
}

// StripHTMLTags removes markup tags from text. A '<' only opens a tag when
// it is followed by a letter, '/' or '!', so comparisons such as "a < b"
// survive.
func StripHTMLTags(text string) string {
	var result bytes.Buffer
	runes := []rune(text)
	inTag := false

	for i, ch := range runes {
		switch {
		case inTag:
			if ch == '>' {
				inTag = false
			}
		case ch == '<' && i+1 < len(runes) && opensTag(runes[i+1]):
			inTag = true
		default:
			result.WriteRune(ch)
		}
	}

	return result.String()
}

func opensTag(r rune) bool {
	return r == '/' || r == '!' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
