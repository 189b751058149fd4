// Package chunker splits normalized text into bounded retrieval chunks. The
// paragraph-merge pass keeps sentences that run across page boundaries in
// one block; the sentence splitter then bounds block size.
package chunker

import (
	"regexp"
	"strings"
)

// PageText is one page of already-normalized text.
type PageText struct {
	Text    string
	PageNum int
}

// TextBlock is a merged paragraph with the page span it covers.
type TextBlock struct {
	Text      string
	StartPage int
	EndPage   int
}

// MergePolicy decides whether the next page continues the open buffer.
// It is pluggable so stricter rules can be substituted without touching the
// length-bounding logic.
type MergePolicy func(buf, next string) bool

var (
	terminalPunctRe = regexp.MustCompile(`[。！？.?!]\s*$`)
	lowerStartRe    = regexp.MustCompile(`^[a-z]`)
	sentenceEndRe   = regexp.MustCompile(`[。！？.?!]`)
)

// DefaultMergePolicy continues the buffer when it does not end in terminal
// punctuation, or when the next page starts with a lowercase letter. Both
// signal a sentence cut mid-page.
func DefaultMergePolicy(buf, next string) bool {
	return !terminalPunctRe.MatchString(buf) || lowerStartRe.MatchString(next)
}

// MergePages walks pages in order and merges continuations into blocks with
// their page span. Empty pages are skipped. A nil policy uses
// DefaultMergePolicy.
func MergePages(pages []PageText, policy MergePolicy) []TextBlock {
	if policy == nil {
		policy = DefaultMergePolicy
	}
	var blocks []TextBlock
	var buf strings.Builder
	bufStart, bufEnd := 0, 0

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		blocks = append(blocks, TextBlock{
			Text:      strings.TrimSpace(buf.String()),
			StartPage: bufStart,
			EndPage:   bufEnd,
		})
		buf.Reset()
	}

	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		if buf.Len() == 0 {
			buf.WriteString(text)
			bufStart, bufEnd = p.PageNum, p.PageNum
			continue
		}
		if policy(buf.String(), text) {
			buf.WriteByte(' ')
			buf.WriteString(text)
			bufEnd = p.PageNum
			continue
		}
		flush()
		buf.WriteString(text)
		bufStart, bufEnd = p.PageNum, p.PageNum
	}
	flush()
	return blocks
}

// SplitBySentence cuts text into pieces of at most maxLen characters,
// preferring sentence boundaries: a cut happens after a sentence-terminal
// rune once the accumulated piece reaches 0.8*maxLen. Anything still over
// maxLen after that is hard-sliced at maxLen boundaries.
func SplitBySentence(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = 1500
	}
	softLimit := maxLen * 4 / 5

	var soft []string
	var current []rune
	for _, r := range text {
		current = append(current, r)
		if sentenceEndRe.MatchString(string(r)) && len(current) >= softLimit {
			if s := strings.TrimSpace(string(current)); s != "" {
				soft = append(soft, s)
			}
			current = current[:0]
		}
	}
	if s := strings.TrimSpace(string(current)); s != "" {
		soft = append(soft, s)
	}

	var out []string
	for _, c := range soft {
		runes := []rune(c)
		if len(runes) <= maxLen {
			out = append(out, c)
			continue
		}
		for i := 0; i < len(runes); i += maxLen {
			end := min(i+maxLen, len(runes))
			out = append(out, string(runes[i:end]))
		}
	}
	return out
}

// SlidingWindow cuts text into windows of maxChars advancing by
// maxChars-overlap; the last window may be shorter. An overlap at or above
// maxChars would never advance, so it is clamped to maxChars/2.
func SlidingWindow(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChars {
		overlap = maxChars / 2
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		if len(runes) == 0 {
			return nil
		}
		return []string{text}
	}
	var chunks []string
	for start := 0; start < len(runes); start += maxChars - overlap {
		end := min(start+maxChars, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
