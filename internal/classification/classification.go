// Package classification implements document classification (spec
// §4.5): text-mode pattern-dictionary scoring and vision-mode
// layout-aware scoring with a header-region bonus.
//
// No teacher precedent exists for this component (the teacher never
// classifies document type); built directly from spec §4.5, following
// SPEC_FULL §12's supplemented-features decision to ship a default
// built-in classifier rather than only an abstract interface, since
// original_source/kreuzberg/_document_classification.py shows the
// original ships one too.
package classification

import (
	"context"
	"strings"

	"github.com/adverant/kreuzberg-go/internal/types"
)

// headerRegionRatio is the "top 30% of page height" cutoff from spec
// §4.5's vision-mode header bonus.
const headerRegionRatio = 0.30
const headerBonusWeight = 0.5

// Translator is the optional translation collaborator spec §4.5
// describes ("the translation collaborator is called; if it fails, the
// original text is lowercased and scored"). A Capability-style
// construction (spec §9 REDESIGN FLAGS) — callers that have no
// translator simply pass nil.
type Translator interface {
	Translate(ctx context.Context, text string, targetLang string) (string, error)
}

// patternDictionary is the fixed pattern set from spec §4.5.
var patternDictionary = map[string][]string{
	"invoice":  {"invoice number", "invoice no", "bill to", "amount due", "due date", "subtotal"},
	"receipt":  {"receipt", "total paid", "change due", "cashier", "thank you for your purchase"},
	"contract": {"agreement", "party of the first part", "whereas", "hereby agree", "terms and conditions", "governing law"},
	"report":   {"executive summary", "findings", "methodology", "conclusion", "appendix"},
	"form":     {"please fill", "signature", "date of birth", "checkbox", "applicant"},
}

// Result is the outcome of a classification attempt.
type Result struct {
	DocumentType string
	Confidence   float64
	Classified   bool
}

// ClassifyText implements spec §4.5's text mode: score content against
// the fixed pattern dictionary, normalize each type's count into a
// probability over the total matches, and accept the winner only if its
// confidence clears threshold.
func ClassifyText(content string, threshold float64) Result {
	counts := scorePatterns(strings.ToLower(content), nil, 0)
	return pickWinner(counts, threshold)
}

// ClassifyVision implements spec §4.5's vision mode: score the
// translated concatenation of layout words, with a header-region bonus
// for pattern matches landing in the top 30% of page height. translator
// may be nil (or fail), in which case the original text is lowercased
// and scored instead.
func ClassifyVision(ctx context.Context, words []types.LayoutWord, translator Translator, threshold float64) Result {
	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(w.Text)
	}
	joined := b.String()

	text := strings.ToLower(joined)
	if translator != nil {
		if translated, err := translator.Translate(ctx, joined, "en"); err == nil {
			text = strings.ToLower(translated)
		}
	}

	counts := scorePatterns(text, words, headerRegionRatio)
	return pickWinner(counts, threshold)
}

// scorePatterns counts pattern matches per document type. When words is
// non-nil, a match additionally checks whether any contributing word
// falls within the header region, adding headerBonusWeight per such
// match.
func scorePatterns(text string, words []types.LayoutWord, headerRatio float64) map[string]float64 {
	counts := make(map[string]float64, len(patternDictionary))
	for docType, patterns := range patternDictionary {
		var score float64
		for _, p := range patterns {
			if !strings.Contains(text, p) {
				continue
			}
			score++
			if words != nil && headerRatio > 0 && patternInHeaderRegion(p, words, headerRatio) {
				score += headerBonusWeight
			}
		}
		counts[docType] = score
	}
	return counts
}

func patternInHeaderRegion(pattern string, words []types.LayoutWord, headerRatio float64) bool {
	patternWords := strings.Fields(pattern)
	if len(patternWords) == 0 {
		return false
	}
	first := strings.ToLower(patternWords[0])
	for _, w := range words {
		if strings.ToLower(w.Text) == first && w.PageHeightRatio <= headerRatio {
			return true
		}
	}
	return false
}

// pickWinner normalizes counts to probabilities and returns the winner
// if it clears threshold.
func pickWinner(counts map[string]float64, threshold float64) Result {
	var total float64
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return Result{}
	}

	var bestType string
	var bestScore float64
	for docType, c := range counts {
		prob := c / total
		if prob > bestScore {
			bestScore = prob
			bestType = docType
		}
	}

	if bestScore < threshold {
		return Result{}
	}
	return Result{DocumentType: bestType, Confidence: bestScore, Classified: true}
}
