package classification

import (
	"context"
	"errors"
	"testing"

	"github.com/adverant/kreuzberg-go/internal/types"
)

func TestClassifyTextPicksWinnerAboveThreshold(t *testing.T) {
	content := "Invoice Number: 12345. Bill To: Acme Corp. Amount Due: $500. Due Date: 2026-08-01."
	got := ClassifyText(content, 0.5)
	if !got.Classified || got.DocumentType != "invoice" {
		t.Fatalf("expected invoice classification, got %+v", got)
	}
}

func TestClassifyTextNoMatchesYieldsUnclassified(t *testing.T) {
	got := ClassifyText("the quick brown fox jumps over the lazy dog", 0.3)
	if got.Classified {
		t.Fatalf("expected no classification for content with zero pattern matches, got %+v", got)
	}
}

func TestClassifyTextBelowThresholdYieldsUnclassified(t *testing.T) {
	// "agreement" (contract) and "applicant" (form) each match once,
	// splitting confidence 0.5/0.5 -- neither clears a 0.9 threshold.
	content := "This agreement names the applicant."
	got := ClassifyText(content, 0.9)
	if got.Classified {
		t.Fatalf("expected no classification below threshold, got %+v", got)
	}
}

type stubTranslator struct {
	out string
	err error
}

func (s stubTranslator) Translate(ctx context.Context, text string, targetLang string) (string, error) {
	return s.out, s.err
}

func TestClassifyVisionAppliesHeaderBonus(t *testing.T) {
	words := []types.LayoutWord{
		{Text: "Receipt", Top: 5, PageHeightRatio: 0.05},
		{Text: "total", Top: 400, PageHeightRatio: 0.6},
		{Text: "paid", Top: 400, PageHeightRatio: 0.6},
		{Text: "cashier", Top: 900, PageHeightRatio: 0.95},
	}
	got := ClassifyVision(context.Background(), words, nil, 0.2)
	if !got.Classified || got.DocumentType != "receipt" {
		t.Fatalf("expected receipt classification with header bonus, got %+v", got)
	}
}

func TestClassifyVisionFallsBackToLowercaseOnTranslationFailure(t *testing.T) {
	words := []types.LayoutWord{
		{Text: "INVOICE", Top: 5, PageHeightRatio: 0.05},
		{Text: "NUMBER", Top: 5, PageHeightRatio: 0.05},
	}
	tr := stubTranslator{err: errors.New("translation service unavailable")}
	got := ClassifyVision(context.Background(), words, tr, 0.2)
	if !got.Classified || got.DocumentType != "invoice" {
		t.Fatalf("expected fallback-to-lowercase scoring to still classify invoice, got %+v", got)
	}
}

func TestClassifyVisionUsesTranslatorOutputOnSuccess(t *testing.T) {
	words := []types.LayoutWord{
		{Text: "facture", Top: 5, PageHeightRatio: 0.05},
	}
	tr := stubTranslator{out: "invoice number due date"}
	got := ClassifyVision(context.Background(), words, tr, 0.1)
	if !got.Classified || got.DocumentType != "invoice" {
		t.Fatalf("expected translated text to drive classification, got %+v", got)
	}
}
