package chunker

import (
	"strings"
	"testing"
)

func TestMergePagesContinuation(t *testing.T) {
	// Page 2 ends mid-sentence and page 3 starts lowercase: both signals
	// say the paragraph continues, so pages 2-3 merge into one block.
	pages := []PageText{
		{Text: "Chapter one ends cleanly.", PageNum: 1},
		{Text: "The levee failed because the", PageNum: 2},
		{Text: "foundation eroded over time.", PageNum: 3},
	}
	blocks := MergePages(pages, nil)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2: %+v", len(blocks), blocks)
	}
	if blocks[0].StartPage != 1 || blocks[0].EndPage != 1 {
		t.Errorf("block 0 span = %d-%d, want 1-1", blocks[0].StartPage, blocks[0].EndPage)
	}
	if blocks[1].StartPage != 2 || blocks[1].EndPage != 3 {
		t.Errorf("block 1 span = %d-%d, want 2-3", blocks[1].StartPage, blocks[1].EndPage)
	}
	want := "The levee failed because the foundation eroded over time."
	if blocks[1].Text != want {
		t.Errorf("merged text = %q, want %q", blocks[1].Text, want)
	}
}

func TestMergePagesSplitOnTerminalPunct(t *testing.T) {
	pages := []PageText{
		{Text: "First paragraph is complete.", PageNum: 1},
		{Text: "Second paragraph starts fresh.", PageNum: 2},
	}
	blocks := MergePages(pages, nil)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
}

func TestMergePagesLowercaseForcesMerge(t *testing.T) {
	// Terminal punctuation alone is not enough to split when the next page
	// starts lowercase (e.g. an abbreviation ended the page).
	pages := []PageText{
		{Text: "Costs rose to approx.", PageNum: 1},
		{Text: "ten million dollars overall.", PageNum: 2},
	}
	blocks := MergePages(pages, nil)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].StartPage != 1 || blocks[0].EndPage != 2 {
		t.Errorf("span = %d-%d, want 1-2", blocks[0].StartPage, blocks[0].EndPage)
	}
}

func TestMergePagesSkipsEmptyAndFlushesTail(t *testing.T) {
	pages := []PageText{
		{Text: "", PageNum: 1},
		{Text: "   ", PageNum: 2},
		{Text: "Only real content, never terminated", PageNum: 3},
	}
	blocks := MergePages(pages, nil)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].StartPage != 3 || blocks[0].EndPage != 3 {
		t.Errorf("span = %d-%d, want 3-3", blocks[0].StartPage, blocks[0].EndPage)
	}
}

func TestMergePagesCustomPolicy(t *testing.T) {
	never := func(buf, next string) bool { return false }
	pages := []PageText{
		{Text: "no punctuation here", PageNum: 1},
		{Text: "lowercase start", PageNum: 2},
	}
	if got := len(MergePages(pages, never)); got != 2 {
		t.Errorf("never-merge policy produced %d blocks, want 2", got)
	}
}

func TestSplitBySentenceBound(t *testing.T) {
	sentence := strings.Repeat("x", 120) + ". "
	text := strings.Repeat(sentence, 40)
	maxLen := 500
	chunks := SplitBySentence(text, maxLen)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > maxLen {
			t.Errorf("chunk %d has %d runes, over bound %d", i, len([]rune(c)), maxLen)
		}
	}
}

func TestSplitBySentencePrefersBoundary(t *testing.T) {
	// Each piece should end with a sentence terminator while soft cuts apply.
	text := strings.Repeat("A short sentence about flood planning ends here. ", 60)
	chunks := SplitBySentence(text, 400)
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c, ".") {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", i, c[len(c)-20:])
		}
	}
}

func TestSplitBySentenceHardCut(t *testing.T) {
	// No punctuation at all: one long run must still be sliced at maxLen.
	text := strings.Repeat("y", 3500)
	chunks := SplitBySentence(text, 1000)
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	if strings.Join(chunks, "") != text {
		t.Error("hard cut lost content")
	}
}

func TestSlidingWindowCoverage(t *testing.T) {
	tests := []struct {
		maxChars, overlap int
	}{
		{10, 3},
		{50, 0},
		{7, 6},
		{100, 25},
	}
	text := "The quick brown fox jumps over the lazy dog, twice around the floodplain."
	for _, tt := range tests {
		windows := SlidingWindow(text, tt.maxChars, tt.overlap)
		if len(windows) == 0 {
			t.Fatalf("maxChars=%d overlap=%d: no windows", tt.maxChars, tt.overlap)
		}
		rebuilt := windows[0]
		for _, w := range windows[1:] {
			rebuilt += string([]rune(w)[tt.overlap:])
		}
		if rebuilt != text {
			t.Errorf("maxChars=%d overlap=%d: reconstruction mismatch\n got %q\nwant %q",
				tt.maxChars, tt.overlap, rebuilt, text)
		}
	}
}

func TestSlidingWindowClampsOverlap(t *testing.T) {
	// overlap >= maxChars would never advance; it is clamped, not looped on.
	windows := SlidingWindow(strings.Repeat("z", 40), 10, 10)
	if len(windows) == 0 {
		t.Fatal("expected windows despite invalid overlap")
	}
	for _, w := range windows {
		if len(w) > 10 {
			t.Errorf("window %q over maxChars", w)
		}
	}
}

func TestSlidingWindowShortInput(t *testing.T) {
	got := SlidingWindow("tiny", 100, 10)
	if len(got) != 1 || got[0] != "tiny" {
		t.Errorf("short input should be a single window, got %v", got)
	}
	if SlidingWindow("", 100, 10) != nil {
		t.Error("empty input should produce no windows")
	}
}
