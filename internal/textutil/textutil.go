// Package textutil holds the text normalization helpers shared by the
// document loaders: whitespace cleanup for extracted prose and markup
// unification for tabular cell values.
package textutil

import (
	"regexp"
	"strings"
)

var (
	hyphenWrapRe = regexp.MustCompile(`-\s*\n\s*`)
	newlineRe    = regexp.MustCompile(`\s*\n\s*`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)

	unicodeDashRe = regexp.MustCompile("[‒–—―]")
	mdLinkRe      = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	anchorRe      = regexp.MustCompile(`(?i)<a[^>]+href="([^"]+)"[^>]*>([^<]+)</a>`)
	htmlTagRe     = regexp.MustCompile(`</?[^>]+>`)
	bareURLRe     = regexp.MustCompile(`\(?https?://[^\s)]+`)
	tripleQuoteRe = regexp.MustCompile(`"""+`)
)

// Normalize collapses hyphenated line-wraps, turns remaining newlines into
// single spaces, squeezes whitespace runs and trims. Applying it twice
// yields the same result as applying it once.
func Normalize(text string) string {
	s := hyphenWrapRe.ReplaceAllString(text, "")
	s = newlineRe.ReplaceAllString(s, " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// UnifyDashes maps the unicode dash variants to a plain hyphen.
func UnifyDashes(s string) string {
	return unicodeDashRe.ReplaceAllString(s, "-")
}

// UnifyHyperlinks rewrites markdown links, HTML anchors and bare URLs into a
// uniform "text (url)" form, then strips any remaining HTML tags.
func UnifyHyperlinks(s string) string {
	r := mdLinkRe.ReplaceAllString(s, "$1 ($2)")
	r = anchorRe.ReplaceAllString(r, "$2 ($1)")
	r = htmlTagRe.ReplaceAllString(r, "")
	// Bare URLs get wrapped; URLs already inside parens stay put.
	r = bareURLRe.ReplaceAllStringFunc(r, func(m string) string {
		if strings.HasPrefix(m, "(") {
			return m
		}
		return "(" + m + ")"
	})
	return r
}

// SanitizeCellValue cleans one tabular cell: quote runs and line breaks go,
// dashes and hyperlinks are unified, the result is trimmed.
func SanitizeCellValue(raw string) string {
	if raw == "" {
		return ""
	}
	s := tripleQuoteRe.ReplaceAllString(raw, "")
	s = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s)
	s = UnifyDashes(s)
	s = UnifyHyperlinks(s)
	return strings.TrimSpace(s)
}

// InsertLineBreaks re-wraps text at lineLen characters without splitting
// words. Purely cosmetic: downstream chunk boundaries do not depend on it.
func InsertLineBreaks(s string, lineLen int) string {
	if s == "" {
		return ""
	}
	if lineLen <= 0 {
		lineLen = 80
	}
	words := strings.Fields(s)
	var lines []string
	var line strings.Builder
	for _, w := range words {
		if line.Len() > 0 && line.Len()+len(w)+1 > lineLen {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(w)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
