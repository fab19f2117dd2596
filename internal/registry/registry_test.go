package registry

import (
	"context"
	"testing"

	"github.com/adverant/kreuzberg-go/internal/config"
	"github.com/adverant/kreuzberg-go/internal/types"
)

type stubExtractor struct{ name string }

func (s *stubExtractor) Extract(ctx context.Context, data []byte, path string, mediaType types.MediaType, cfg *config.ExtractionConfig) (*types.ExtractionResult, error) {
	return &types.ExtractionResult{Content: s.name, MimeType: types.MediaTypePlainText}, nil
}

func TestExactMatchBeatsPrefix(t *testing.T) {
	r := New()
	r.RegisterPrefix("image/", &stubExtractor{name: "generic-image"})
	r.Register("image/png", &stubExtractor{name: "png"})

	e, ok := r.Lookup("image/png")
	if !ok {
		t.Fatal("expected a match for image/png")
	}
	res, _ := e.Extract(context.Background(), nil, "", "image/png", nil)
	if res.Content != "png" {
		t.Fatalf("expected the exact match to win, got %q", res.Content)
	}
}

func TestPrefixFallback(t *testing.T) {
	r := New()
	r.RegisterPrefix("image/", &stubExtractor{name: "generic-image"})

	e, ok := r.Lookup("image/tiff")
	if !ok {
		t.Fatal("expected the prefix fallback to match image/tiff")
	}
	res, _ := e.Extract(context.Background(), nil, "", "image/tiff", nil)
	if res.Content != "generic-image" {
		t.Fatalf("expected generic-image, got %q", res.Content)
	}
}

func TestLongestPrefixWins(t *testing.T) {
	r := New()
	r.RegisterPrefix("image/", &stubExtractor{name: "generic-image"})
	r.RegisterPrefix("image/svg", &stubExtractor{name: "svg-specific"})

	e, _ := r.Lookup("image/svg+xml")
	res, _ := e.Extract(context.Background(), nil, "", "image/svg+xml", nil)
	if res.Content != "svg-specific" {
		t.Fatalf("expected the longer, more specific prefix to win, got %q", res.Content)
	}
}

func TestNoMatch(t *testing.T) {
	r := New()
	if _, ok := r.Lookup("application/x-unregistered"); ok {
		t.Fatal("expected no match for an unregistered type with no prefix")
	}
}

func TestPlainTextExtractorDecodesInvalidUTF8Safely(t *testing.T) {
	e := &PlainTextExtractor{}
	invalid := []byte{0x68, 0x65, 0xff, 0x6c, 0x6c, 0x6f}
	res, err := e.Extract(context.Background(), invalid, "", types.MediaTypePlainText, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MimeType != types.MediaTypePlainText {
		t.Fatalf("expected text/plain, got %s", res.MimeType)
	}
	if res.Content == "" {
		t.Fatal("expected a non-empty, safely-decoded result")
	}
}
