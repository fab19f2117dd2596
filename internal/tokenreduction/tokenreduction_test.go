package tokenreduction

import (
	"strings"
	"testing"

	"github.com/adverant/kreuzberg-go/internal/stopwords"
)

func TestOffModeIsIdentity(t *testing.T) {
	in := "The quick brown fox   jumps!!! over..."
	got := Reduce(in, "off", "eng", false, nil)
	if got != in {
		t.Fatalf("expected identity, got %q", got)
	}
}

func TestLightModeCollapsesWhitespaceAndPunctuationRuns(t *testing.T) {
	in := "Hello    world!!! Really??"
	got := Reduce(in, "light", "eng", false, nil)
	if strings.Contains(got, "  ") {
		t.Fatalf("expected whitespace runs collapsed, got %q", got)
	}
	if strings.Contains(got, "!!!") || strings.Contains(got, "??") {
		t.Fatalf("expected punctuation runs collapsed, got %q", got)
	}
}

func TestLightModeStripsHTMLComments(t *testing.T) {
	in := "before <!-- a comment --> after"
	got := Reduce(in, "light", "eng", false, nil)
	if strings.Contains(got, "comment") {
		t.Fatalf("expected HTML comment stripped, got %q", got)
	}
}

func TestModerateModeRemovesStopwords(t *testing.T) {
	sw := stopwords.NewManager(nil)
	in := "The quick brown fox jumps over the lazy dog"
	got := Reduce(in, "moderate", "eng", false, sw)
	if strings.Contains(strings.ToLower(got), " the ") {
		t.Fatalf("expected stopword 'the' removed, got %q", got)
	}
	if !strings.Contains(got, "quick") || !strings.Contains(got, "fox") {
		t.Fatalf("expected content words kept, got %q", got)
	}
}

func TestModerateModeKeepsAllCapsAndDigitsAndSingleChars(t *testing.T) {
	sw := stopwords.NewManager(nil)
	in := "I am THE a 1 be"
	got := Reduce(in, "moderate", "eng", false, sw)
	if !strings.Contains(got, "THE") {
		t.Fatalf("expected all-caps token kept even though lowercase is a stopword, got %q", got)
	}
	if !strings.Contains(got, "1") {
		t.Fatalf("expected digit-containing token kept, got %q", got)
	}
	if !strings.Contains(got, "I") {
		t.Fatalf("expected single-character token kept, got %q", got)
	}
}

func TestModerateModeReattachesTerminalPunctuation(t *testing.T) {
	sw := stopwords.NewManager(nil)
	in := "fox jumps over the."
	got := Reduce(in, "moderate", "eng", false, sw)
	if !strings.HasSuffix(strings.TrimSpace(got), ".") {
		t.Fatalf("expected terminal punctuation reattached to the last kept token, got %q", got)
	}
}

func TestMarkdownPreservationPassesHeadingsAndTablesVerbatim(t *testing.T) {
	sw := stopwords.NewManager(nil)
	in := "# The Heading\nThe quick brown fox over the dog\n| a | the |\n"
	got := Reduce(in, "moderate", "eng", true, sw)
	lines := strings.Split(got, "\n")
	if lines[0] != "# The Heading" {
		t.Fatalf("expected heading line passed through verbatim, got %q", lines[0])
	}
	if !strings.Contains(lines[2], "| a | the |") {
		t.Fatalf("expected table row passed through verbatim, got %q", lines[2])
	}
}

func TestFencedCodeBlockPassesThroughVerbatim(t *testing.T) {
	sw := stopwords.NewManager(nil)
	in := "```\nthe the the\n```\nthe quick fox"
	got := Reduce(in, "moderate", "eng", true, sw)
	if !strings.Contains(got, "the the the") {
		t.Fatalf("expected fenced code block content untouched, got %q", got)
	}
}

func TestGetReductionStatsZeroDivision(t *testing.T) {
	stats := GetReductionStats("", "")
	if stats.CharReductionRatio != 0 || stats.TokenReductionRatio != 0 {
		t.Fatalf("expected zero ratios for empty input, got %+v", stats)
	}
}

func TestGetReductionStatsComputesRatio(t *testing.T) {
	stats := GetReductionStats("aaaaaaaaaa", "aaaaa")
	if stats.CharReductionRatio != 0.5 {
		t.Fatalf("expected 0.5 char reduction ratio, got %v", stats.CharReductionRatio)
	}
}

func TestStreamingLargeInputSnapsChunkBoundaries(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20000; i++ {
		b.WriteString("word word word word word. ")
	}
	big := b.String()
	if len(big) <= streamThreshold {
		t.Fatalf("test input too small to exercise streaming: %d bytes", len(big))
	}
	got := Reduce(big, "light", "eng", false, nil)
	if got == "" {
		t.Fatal("expected non-empty streamed output")
	}
}
