package orchestrator

import (
	"strings"
	"testing"

	"github.com/adverant/kreuzberg-go/internal/types"
)

func TestChunkShortContentIsSingleChunk(t *testing.T) {
	chunks := Chunk("short content", types.MediaTypePlainText, 100, 10)
	if len(chunks) != 1 || chunks[0] != "short content" {
		t.Fatalf("expected a single unchanged chunk, got %v", chunks)
	}
}

func TestChunkEmptyContentReturnsNoChunks(t *testing.T) {
	chunks := Chunk("", types.MediaTypePlainText, 100, 10)
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty content, got %v", chunks)
	}
}

func TestChunkOverlapsAndCoversAllContent(t *testing.T) {
	content := strings.Repeat("abcdefghij ", 50) // 550 runes
	chunks := Chunk(content, types.MediaTypePlainText, 100, 20)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for long content, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len([]rune(c)) > 100+1 {
			t.Fatalf("expected each chunk to respect maxChars (with small boundary slack), got length %d", len([]rune(c)))
		}
	}
	joined := strings.Join(chunks, "")
	if !strings.Contains(joined, "abcdefghij") {
		t.Fatalf("expected reconstructed chunks to retain original content")
	}
}

func TestChunkSnapsToMarkdownHeaderBoundary(t *testing.T) {
	section := strings.Repeat("word ", 30)
	content := section + "\n\n# Heading\n" + section
	chunks := Chunk(content, types.MediaTypeMarkdown, len([]rune(section))+5, 0)
	if len(chunks) < 2 {
		t.Fatalf("expected content to split into multiple chunks, got %d", len(chunks))
	}
	if strings.Contains(chunks[0], "# Heading") {
		t.Fatalf("expected the first chunk to end before the heading, got %q", chunks[0])
	}
}
