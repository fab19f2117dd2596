// Package tokenreduction implements the Token Reduction transformer
// (component E, spec §4.6): off/light/moderate stopword removal with
// Markdown-structure preservation and streaming for large inputs.
//
// No teacher precedent exists for this component — the teacher's worker
// never reduces or rewrites text, only extracts it — so this package is
// built directly from spec §4.6, following the ambient style of the
// rest of this rewrite (small pure functions, KreuzbergError-free since
// spec §4.4 step 7.f says "on failure, content is left unchanged", i.e.
// this transformer has no propagating error path of its own).
package tokenreduction

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/adverant/kreuzberg-go/internal/stopwords"
)

const streamChunkSize = 100_000
const streamThreshold = 1_000_000
const boundarySearchWindow = 1_000

var runPunctuation = regexp.MustCompile(`!{2,}|\?{2,}|\.{2,}|,{2,}`)
var htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)

// Reduce applies mode to content. lang selects the stopword set for
// moderate mode; preserveMarkdown enables per-line Markdown passthrough.
func Reduce(content string, mode string, lang string, preserveMarkdown bool, sw *stopwords.Manager) string {
	switch mode {
	case "off", "":
		return content
	case "light":
		return reduceStreaming(content, func(chunk string) string { return applyLight(chunk, preserveMarkdown) })
	case "moderate":
		set := sw.Get(lang)
		return reduceStreaming(content, func(chunk string) string {
			light := applyLight(chunk, preserveMarkdown)
			return removeStopwords(light, set, preserveMarkdown)
		})
	default:
		return content
	}
}

// reduceStreaming implements spec §4.6's streaming clause: inputs above
// 1,000,000 chars are processed in ~100,000-char chunks, snapped
// backward to the nearest sentence-ending punctuation or newline within
// the preceding 1,000 chars, then rejoined with a single space and
// stripped.
func reduceStreaming(content string, transform func(string) string) string {
	if len(content) <= streamThreshold {
		return transform(content)
	}

	var parts []string
	runes := []rune(content)
	start := 0
	for start < len(runes) {
		end := start + streamChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = snapBoundary(runes, end)
		}
		parts = append(parts, transform(string(runes[start:end])))
		start = end
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// snapBoundary looks backward from pos (within boundarySearchWindow
// runes) for the nearest '.', '!', '?', or newline, and splits just
// after it. Falls back to pos if none is found.
func snapBoundary(runes []rune, pos int) int {
	limit := pos - boundarySearchWindow
	if limit < 0 {
		limit = 0
	}
	for i := pos; i > limit; i-- {
		switch runes[i-1] {
		case '.', '!', '?', '\n':
			return i
		}
	}
	return pos
}

// applyLight implements spec §4.6's `light` mode: whitespace
// normalization, punctuation-run collapsing, HTML comment stripping,
// NFC normalization. When preserveMarkdown is set, lines that match the
// Markdown-structure predicate pass through untouched.
func applyLight(content string, preserveMarkdown bool) string {
	content = htmlComment.ReplaceAllString(content, "")
	content = runPunctuation.ReplaceAllStringFunc(content, func(run string) string { return run[:1] })

	if !preserveMarkdown {
		content = normalizeWhitespace(content)
		return norm.NFC.String(content)
	}

	lines := strings.Split(content, "\n")
	structural := classifyStructuralLines(content)
	for i, line := range lines {
		if isFenceDelimiter(line) || (i < len(structural) && structural[i]) {
			continue
		}
		lines[i] = normalizeWhitespace(line)
	}
	return norm.NFC.String(strings.Join(lines, "\n"))
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	lastWasSpace := false
	newlineRun := 0
	for _, r := range s {
		if r == '\n' {
			newlineRun++
			if newlineRun <= 2 {
				b.WriteRune(r)
			}
			lastWasSpace = false
			continue
		}
		newlineRun = 0
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// isFenceDelimiter matches a fenced-code-block delimiter line.
// goldmark's FencedCodeBlock.Lines() covers the code content but not
// the delimiters themselves, so those still need this direct check.
func isFenceDelimiter(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}

// removeStopwords implements spec §4.6's word-level removal rules.
// Markdown-structural lines (and fenced code) are passed through
// verbatim, matching applyLight's line classification.
func removeStopwords(content string, stopSet map[string]struct{}, preserveMarkdown bool) string {
	if stopSet == nil {
		return content
	}
	if !preserveMarkdown {
		return removeStopwordsFromLine(content, stopSet)
	}

	lines := strings.Split(content, "\n")
	structural := classifyStructuralLines(content)
	for i, line := range lines {
		if isFenceDelimiter(line) || (i < len(structural) && structural[i]) {
			continue
		}
		lines[i] = removeStopwordsFromLine(line, stopSet)
	}
	return strings.Join(lines, "\n")
}

func removeStopwordsFromLine(line string, stopSet map[string]struct{}) string {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return line
	}

	var kept []string
	pendingPunct := ""
	for _, tok := range tokens {
		prefix, core, suffix := splitPunct(tok)

		keep := core == "" ||
			len([]rune(core)) == 1 ||
			containsDigit(core) ||
			(isAllUpper(core) && len([]rune(core)) >= 2) ||
			!isStopword(core, stopSet)

		if keep {
			if pendingPunct != "" {
				kept[len(kept)-1] = reattachPunct(kept[len(kept)-1], pendingPunct)
				pendingPunct = ""
			}
			kept = append(kept, prefix+core+suffix)
			continue
		}

		// Dropped: carry forward terminal punctuation (spec §4.6 rule 4).
		terminal := terminalPunct(suffix)
		if terminal != "" {
			pendingPunct = terminal
		}
	}

	if pendingPunct != "" && len(kept) > 0 {
		kept[len(kept)-1] = reattachPunct(kept[len(kept)-1], pendingPunct)
	}
	return strings.Join(kept, " ")
}

func isStopword(core string, stopSet map[string]struct{}) bool {
	_, ok := stopSet[strings.ToLower(core)]
	return ok
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// splitPunct extracts (prefix_punct, core, suffix_punct) using
// Unicode-aware punctuation boundaries (spec §4.6 rule 2).
func splitPunct(tok string) (prefix, core, suffix string) {
	runes := []rune(tok)
	i := 0
	for i < len(runes) && unicode.IsPunct(runes[i]) {
		i++
	}
	j := len(runes)
	for j > i && unicode.IsPunct(runes[j-1]) {
		j--
	}
	return string(runes[:i]), string(runes[i:j]), string(runes[j:])
}

func terminalPunct(suffix string) string {
	const terminals = ".,;:!?"
	for _, r := range suffix {
		if strings.ContainsRune(terminals, r) {
			return string(r)
		}
	}
	return ""
}

func reattachPunct(word, punct string) string {
	if strings.HasSuffix(word, punct) {
		return word
	}
	return word + punct
}
