package orchestrator

import (
	"github.com/adverant/kreuzberg-go/internal/types"
)

// chunkBoundarySearchWindow bounds how far Chunk looks backward for a
// natural split point before giving up and cutting mid-word, mirroring
// internal/tokenreduction's streaming boundary search.
const chunkBoundarySearchWindow = 200

// Chunk implements spec §4.4 step 7.a: an ordered list of overlapping
// substrings of content, each at most maxChars runes, consecutive
// chunks overlapping by maxOverlap runes, with the split point snapped
// to a natural boundary appropriate to mimeType rather than landing
// mid-word. There is no teacher or pack precedent for a chunker (the
// original_source's semantic_text_splitter-based chunker was not
// vendored into the filtered pack); this follows spec §4.4/§4.6's own
// described boundary-snapping technique.
func Chunk(content string, mimeType types.MediaType, maxChars, maxOverlap int) []string {
	runes := []rune(content)
	if len(runes) == 0 {
		return []string{}
	}
	if len(runes) <= maxChars {
		return []string{content}
	}

	isMarkdown := mimeType == types.MediaTypeMarkdown

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + maxChars
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = snapChunkBoundary(runes, start, end, isMarkdown)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end >= len(runes) {
			break
		}

		next := end - maxOverlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// snapChunkBoundary looks backward from end (bounded by start and the
// search window) for a natural split point: a blank line or Markdown
// header start when isMarkdown, else sentence-ending punctuation or a
// newline. Falls back to end (a mid-word cut) if none is found.
func snapChunkBoundary(runes []rune, start, end int, isMarkdown bool) int {
	limit := end - chunkBoundarySearchWindow
	if limit < start {
		limit = start
	}

	if isMarkdown {
		for i := end; i > limit; i-- {
			if i >= 2 && runes[i-1] == '\n' && runes[i-2] == '\n' {
				return i
			}
			if i < len(runes) && runes[i] == '#' && (i == 0 || runes[i-1] == '\n') {
				return i
			}
		}
	}

	for i := end; i > limit; i-- {
		switch runes[i-1] {
		case '.', '!', '?', '\n':
			return i
		}
	}
	return end
}
