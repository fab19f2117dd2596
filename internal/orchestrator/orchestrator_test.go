package orchestrator

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adverant/kreuzberg-go/internal/cache"
	"github.com/adverant/kreuzberg-go/internal/config"
	kerrors "github.com/adverant/kreuzberg-go/internal/errors"
	"github.com/adverant/kreuzberg-go/internal/registry"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// fileContentExtractor re-reads path on every call, so a test can tell
// whether the orchestrator served a stale cache entry or genuinely
// re-extracted.
type fileContentExtractor struct {
	calls int64
}

func (e *fileContentExtractor) Extract(ctx context.Context, data []byte, path string, mediaType types.MediaType, cfg *config.ExtractionConfig) (*types.ExtractionResult, error) {
	atomic.AddInt64(&e.calls, 1)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &types.ExtractionResult{Content: string(b), MimeType: types.MediaTypePlainText}, nil
}

type countingExtractor struct {
	calls    int64
	content  string
	mimeType types.MediaType
}

func (e *countingExtractor) Extract(ctx context.Context, data []byte, path string, mediaType types.MediaType, cfg *config.ExtractionConfig) (*types.ExtractionResult, error) {
	atomic.AddInt64(&e.calls, 1)
	return &types.ExtractionResult{Content: e.content, MimeType: e.mimeType}, nil
}

func newTestOrchestrator(t *testing.T, reg *registry.Registry) *Orchestrator {
	t.Helper()
	c, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error constructing cache: %v", err)
	}
	t.Cleanup(c.Close)
	return New(reg, WithCache(c))
}

// S1 — Plain text round-trip.
func TestExtractBytesPlainTextRoundTrip(t *testing.T) {
	reg := registry.New()
	reg.Register(types.MediaTypePlainText, &registry.PlainTextExtractor{})
	o := newTestOrchestrator(t, reg)

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := o.ExtractBytes(context.Background(), []byte("Hello world."), types.MediaTypePlainText, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "Hello world." {
		t.Fatalf("expected %q, got %q", "Hello world.", result.Content)
	}
	if result.MimeType != types.MediaTypePlainText {
		t.Fatalf("expected text/plain, got %s", result.MimeType)
	}
	if len(result.Chunks) != 0 {
		t.Fatalf("expected no chunks by default, got %v", result.Chunks)
	}
}

// No registered extractor and no prefix match: spec §4.4 step 3's
// UTF-8-safe-decode fallback.
func TestExtractBytesFallsBackToSafeDecodeWhenUnregistered(t *testing.T) {
	reg := registry.New()
	o := newTestOrchestrator(t, reg)

	cfg, _ := config.New()
	result, err := o.ExtractBytes(context.Background(), []byte("raw bytes"), "application/x-unregistered", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "raw bytes" {
		t.Fatalf("expected raw bytes decoded as-is, got %q", result.Content)
	}
	if result.MimeType != types.MediaTypePlainText {
		t.Fatalf("expected text/plain fallback, got %s", result.MimeType)
	}
}

// S5 — Single-flight: concurrent identical calls invoke the extractor
// exactly once.
func TestExtractBytesSingleFlight(t *testing.T) {
	reg := registry.New()
	extractor := &countingExtractor{content: "shared result", mimeType: types.MediaTypePlainText}
	reg.Register(types.MediaTypePlainText, extractor)
	o := newTestOrchestrator(t, reg)

	cfg, _ := config.New()
	content := []byte("same bytes every time")

	const concurrency = 10
	var wg sync.WaitGroup
	results := make([]*types.ExtractionResult, concurrency)
	errs := make([]error, concurrency)
	for i := 0; i < concurrency; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = o.ExtractBytes(context.Background(), content, types.MediaTypePlainText, cfg)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&extractor.calls); got != 1 {
		t.Fatalf("expected the extractor to run exactly once, got %d calls", got)
	}
	for i, err := range errs {
		if err != nil {
			t.Fatalf("unexpected error at index %d: %v", i, err)
		}
		if results[i].Content != "shared result" {
			t.Fatalf("expected all results equal, got %q at index %d", results[i].Content, i)
		}
	}
}

// S4 — Batch partial failure: a missing file among otherwise-good
// inputs does not fail the whole batch.
func TestBatchExtractFilePartialFailure(t *testing.T) {
	reg := registry.New()
	reg.Register(types.MediaTypePlainText, &registry.PlainTextExtractor{})
	o := newTestOrchestrator(t, reg)
	cfg, _ := config.New()

	goodPath := writeTempFile(t, "first file content")
	goodPath2 := writeTempFile(t, "second file content")

	results := o.BatchExtractFile(context.Background(), []string{goodPath, "/nonexistent/path/does-not-exist", goodPath2}, cfg)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Content == "" || results[2].Content == "" {
		t.Fatalf("expected successful results to carry content, got %+v / %+v", results[0], results[2])
	}
	errVal, ok := results[1].Metadata["error"]
	if !ok || errVal == "" {
		t.Fatalf("expected metadata.error set on the failing index, got %+v", results[1].Metadata)
	}
	errCtx, ok := results[1].Metadata["error_context"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected metadata.error_context to be a map, got %T", results[1].Metadata["error_context"])
	}
	if errCtx["index"] != 1 {
		t.Fatalf("expected error_context.index == 1, got %v", errCtx["index"])
	}
}

func TestBatchExtractBytesPreservesOrder(t *testing.T) {
	reg := registry.New()
	reg.Register(types.MediaTypePlainText, &registry.PlainTextExtractor{})
	o := newTestOrchestrator(t, reg)
	cfg, _ := config.New()

	inputs := []BytesInput{
		{Content: []byte("one"), MediaType: types.MediaTypePlainText},
		{Content: []byte("two"), MediaType: types.MediaTypePlainText},
		{Content: []byte("three"), MediaType: types.MediaTypePlainText},
	}
	results := o.BatchExtractBytes(context.Background(), inputs, cfg)
	want := []string{"one", "two", "three"}
	for i, w := range want {
		if results[i].Content != w {
			t.Fatalf("expected input order preserved, index %d: got %q want %q", i, results[i].Content, w)
		}
	}
}

func TestExtractFileMissingPathIsValidationError(t *testing.T) {
	reg := registry.New()
	o := newTestOrchestrator(t, reg)
	cfg, _ := config.New()

	_, err := o.ExtractFile(context.Background(), "/nonexistent/path", "", cfg)
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	ke, ok := kerrors.AsKreuzbergError(err)
	if !ok || ke.Kind != kerrors.KindValidation {
		t.Fatalf("expected a ValidationError, got %v", err)
	}
}

// Cache keys for extract_file must fold in size and mtime (spec §4.3),
// not just the path, so a file rewritten at the same path is re-extracted
// instead of silently serving a stale cached result (invariant 2).
func TestExtractFileCacheKeyInvalidatesOnContentChange(t *testing.T) {
	reg := registry.New()
	extractor := &fileContentExtractor{}
	reg.Register(types.MediaTypePlainText, extractor)
	o := newTestOrchestrator(t, reg)
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("unexpected error building config: %v", err)
	}

	path := writeTempFile(t, "version one")
	result, err := o.ExtractFile(context.Background(), path, types.MediaTypePlainText, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "version one" {
		t.Fatalf("expected %q, got %q", "version one", result.Content)
	}

	time.Sleep(10 * time.Millisecond) // ensure mtime actually advances
	if err := os.WriteFile(path, []byte("version two, now longer"), 0o644); err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}

	result, err = o.ExtractFile(context.Background(), path, types.MediaTypePlainText, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "version two, now longer" {
		t.Fatalf("stale cache hit: expected updated content, got %q", result.Content)
	}
	if calls := atomic.LoadInt64(&extractor.calls); calls != 2 {
		t.Fatalf("expected the extractor to run twice (cache miss on content change), got %d calls", calls)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := t.TempDir() + "/input.txt"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
