package qdrantstore

import (
	"context"
	"testing"
)

type stubEmbedder struct{}

func (stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, vectorDimensions)
	return v, nil
}

func TestNewRejectsMissingArguments(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, "", "keywords", stubEmbedder{}); err == nil {
		t.Fatal("expected error for empty address")
	}
	if _, err := New(ctx, "localhost:6334", "", stubEmbedder{}); err == nil {
		t.Fatal("expected error for empty collection name")
	}
	if _, err := New(ctx, "localhost:6334", "keywords", nil); err == nil {
		t.Fatal("expected error for nil embedder")
	}
}

func TestNewVoyageEmbedderRejectsEmptyKey(t *testing.T) {
	if _, err := NewVoyageEmbedder("", nil); err == nil {
		t.Fatal("expected error for empty API key")
	}
}
