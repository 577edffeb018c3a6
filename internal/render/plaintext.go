package render

import (
	"regexp"
	"strings"
)

var (
	// Fenced code blocks, keeping the code itself speakable
	codeFenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\n?(.*?)```")
	// Inline code spans
	inlineCodeRe = regexp.MustCompile("`([^`]*)`")
	// Images before links so the alt text survives
	imageRe = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe  = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	// Bold/italic/strikethrough markers
	emphasisRe = regexp.MustCompile(`(\*{1,3}|_{1,3}|~~)([^*_~]+?)(\*{1,3}|_{1,3}|~~)`)
	// Leading heading, quote and list markers
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquoteRe = regexp.MustCompile(`(?m)^>\s?`)
	listMarkerRe = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+`)
	// Horizontal rules
	hrRe = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	// Collapse runs of blank lines left behind by removals
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// Plaintext strips markdown markup from content so it can be fed to speech
// synthesis. The wording is kept intact; only formatting characters are
// removed.
func Plaintext(content string) string {
	out := content

	out = codeFenceRe.ReplaceAllString(out, "$1")
	out = inlineCodeRe.ReplaceAllString(out, "$1")
	out = imageRe.ReplaceAllString(out, "$1")
	out = linkRe.ReplaceAllString(out, "$1")

	// Emphasis can nest ("***bold italic***"); run until stable
	for {
		next := emphasisRe.ReplaceAllString(out, "$2")
		if next == out {
			break
		}
		out = next
	}

	out = hrRe.ReplaceAllString(out, "")
	out = headingRe.ReplaceAllString(out, "")
	out = blockquoteRe.ReplaceAllString(out, "")
	out = listMarkerRe.ReplaceAllString(out, "")

	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
