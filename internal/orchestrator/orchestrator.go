// Package orchestrator implements the Extraction Orchestrator (component
// F, spec §4.4): the public extract_bytes/extract_file/batch_extract_*
// surface that wires together every other component — registry lookup,
// OCR fallback, the post-processing pipeline (validators → feature
// stages → hooks), and the result cache's single-flight coordination.
//
// Grounded directly on original_source/kreuzberg/extraction.py's
// _validate_and_post_process_async/_handle_cache_async/extract_bytes/
// extract_file functions for step order and error-trapping boundaries;
// the source's async/await and anyio task groups collapse into
// context.Context plus golang.org/x/sync/errgroup, matching the
// teacher's own concurrency idiom (internal/queue's bounded worker
// goroutines) generalized to this package's batch fan-out.
package orchestrator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/adverant/kreuzberg-go/internal/cache"
	"github.com/adverant/kreuzberg-go/internal/capability"
	"github.com/adverant/kreuzberg-go/internal/classification"
	"github.com/adverant/kreuzberg-go/internal/config"
	kerrors "github.com/adverant/kreuzberg-go/internal/errors"
	"github.com/adverant/kreuzberg-go/internal/logging"
	"github.com/adverant/kreuzberg-go/internal/metrics"
	"github.com/adverant/kreuzberg-go/internal/ocr"
	"github.com/adverant/kreuzberg-go/internal/pool"
	"github.com/adverant/kreuzberg-go/internal/rasterize"
	"github.com/adverant/kreuzberg-go/internal/registry"
	"github.com/adverant/kreuzberg-go/internal/stopwords"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// Orchestrator owns every collaborator the pipeline needs and exposes
// the four public operations spec §4.4 names. Like Manager and Cache,
// it is a process-lifetime singleton callers construct once.
type Orchestrator struct {
	registry   *registry.Registry
	cache      *cache.Cache
	pool       *pool.Manager
	ocrBackend ocr.Backend
	rasterizer rasterize.PageRasterizer

	entityExtractor  capability.Capability[capability.EntityExtractor]
	keywordExtractor capability.Capability[capability.KeywordExtractor]
	languageDetector capability.Capability[capability.LanguageDetector]
	translator       capability.Capability[classification.Translator]

	stopwords *stopwords.Manager
	metrics   metrics.Registry
	logger    *logging.Logger
	device    *types.DeviceInfo
}

// Option configures an Orchestrator at construction.
type Option func(*Orchestrator)

func WithCache(c *cache.Cache) Option           { return func(o *Orchestrator) { o.cache = c } }
func WithPool(p *pool.Manager) Option           { return func(o *Orchestrator) { o.pool = p } }
func WithLogger(l *logging.Logger) Option       { return func(o *Orchestrator) { o.logger = l } }
func WithMetrics(r metrics.Registry) Option     { return func(o *Orchestrator) { o.metrics = r } }
func WithDevice(d types.DeviceInfo) Option      { return func(o *Orchestrator) { o.device = &d } }
func WithStopwords(m *stopwords.Manager) Option { return func(o *Orchestrator) { o.stopwords = m } }

// WithOCR attaches the OCR backend and page rasterizer used for the
// ParsingError-on-a-PDF fallback path (spec §4.4 step 4) and the
// per-image OCR pipeline (spec §4.7.4).
func WithOCR(backend ocr.Backend, rasterizer rasterize.PageRasterizer) Option {
	return func(o *Orchestrator) { o.ocrBackend = backend; o.rasterizer = rasterizer }
}

func WithEntityExtractor(c capability.Capability[capability.EntityExtractor]) Option {
	return func(o *Orchestrator) { o.entityExtractor = c }
}

func WithKeywordExtractor(c capability.Capability[capability.KeywordExtractor]) Option {
	return func(o *Orchestrator) { o.keywordExtractor = c }
}

func WithLanguageDetector(c capability.Capability[capability.LanguageDetector]) Option {
	return func(o *Orchestrator) { o.languageDetector = c }
}

func WithTranslator(c capability.Capability[classification.Translator]) Option {
	return func(o *Orchestrator) { o.translator = c }
}

// New constructs an Orchestrator. reg is required; every other
// collaborator defaults to an inert value (no cache, no pool, stopword
// manager with only built-in defaults, every optional Capability
// Unavailable) so a caller can opt in incrementally.
func New(reg *registry.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:  reg,
		stopwords: stopwords.NewManager(nil),
		metrics:   metrics.NoopRegistry{},
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ExtractBytes implements spec §4.4's extract_bytes.
func (o *Orchestrator) ExtractBytes(ctx context.Context, content []byte, mediaType types.MediaType, cfg *config.ExtractionConfig) (*types.ExtractionResult, error) {
	mediaType = normalizeMediaType(mediaType)

	key := ""
	if cfg.UseCache && o.cache != nil {
		key = cacheKeyForBytes(content, mediaType, cfg)
		if result, isLeader, err := o.acquireOrAwait(ctx, key); !isLeader {
			return result, err
		}
	}

	result, err := o.runExtraction(ctx, content, "", mediaType, cfg)
	if err == nil {
		result, err = o.postProcess(ctx, result, cfg, nil)
	}
	if err == nil {
		o.attachDevice(result)
	}

	if key != "" {
		o.completeCacheEntry(key, result, err)
	}
	return result, err
}

// ExtractFile implements spec §4.4's extract_file.
func (o *Orchestrator) ExtractFile(ctx context.Context, path string, mediaTypeHint types.MediaType, cfg *config.ExtractionConfig) (*types.ExtractionResult, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		return nil, kerrors.NewValidationError("the file does not exist", map[string]interface{}{"file_path": path})
	}
	mediaType := normalizeMediaType(mediaTypeHint)

	key := ""
	if cfg.UseCache && o.cache != nil {
		key = cacheKeyForFile(path, info, mediaType, cfg)
		if result, isLeader, err := o.acquireOrAwait(ctx, key); !isLeader {
			return result, err
		}
	}

	result, err := o.runExtraction(ctx, nil, path, mediaType, cfg)
	if err == nil {
		result, err = o.postProcess(ctx, result, cfg, &path)
	}
	if err == nil {
		o.attachDevice(result)
	}

	if key != "" {
		o.completeCacheEntry(key, result, err)
	}
	return result, err
}

// acquireOrAwait implements spec §4.4 step 2 and §5's single-flight
// guarantee: the first caller for key becomes the leader (continues
// producing it); every other concurrent caller awaits the leader's
// result instead of re-running extraction.
func (o *Orchestrator) acquireOrAwait(ctx context.Context, key string) (result *types.ExtractionResult, isLeader bool, err error) {
	if cached, hit := o.cache.Get(ctx, key); hit {
		return cached, false, nil
	}
	if o.cache.MarkProcessing(key) {
		return nil, true, nil
	}
	result, _, err = o.cache.Await(ctx, key)
	return result, false, err
}

func (o *Orchestrator) completeCacheEntry(key string, result *types.ExtractionResult, err error) {
	if err != nil {
		o.cache.MarkComplete(key, nil, err)
		return
	}
	o.cache.MarkComplete(key, result, nil)
}

func (o *Orchestrator) attachDevice(result *types.ExtractionResult) {
	if o.device != nil {
		result.Device = o.device
	}
}

// runExtraction implements spec §4.4 steps 3-4: registry resolution,
// extractor invocation, and the OCR-over-rasterized-pages fallback on a
// ParsingError for PDFs when an OCR backend is configured.
func (o *Orchestrator) runExtraction(ctx context.Context, data []byte, path string, mediaType types.MediaType, cfg *config.ExtractionConfig) (*types.ExtractionResult, error) {
	extractor, ok := o.registry.Lookup(mediaType)
	if !ok {
		raw := data
		if path != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, kerrors.NewParsingError("reading unregistered media type", map[string]interface{}{"path": path}, err)
			}
			raw = b
		}
		return &types.ExtractionResult{Content: registry.DecodeUTF8Safely(raw), MimeType: types.MediaTypePlainText}, nil
	}

	result, err := extractor.Extract(ctx, data, path, mediaType, cfg)
	if err == nil {
		return result, nil
	}

	ke, isKreuzberg := kerrors.AsKreuzbergError(err)
	canFallBackToOCR := isKreuzberg && ke.Kind == kerrors.KindParsing &&
		cfg.OCRBackend != config.OCRBackendNone && mediaType == "application/pdf" &&
		o.ocrBackend != nil && o.rasterizer != nil
	if !canFallBackToOCR {
		return nil, err
	}

	return o.ocrFallback(ctx, path, cfg)
}

// normalizeMediaType implements spec §4.4 step 1's mime_type
// normalization: trimmed, lowercased exact-match semantics live in
// internal/registry; here it is just a defensive pass-through so callers
// that hand in mixed-case or parameterized media types (e.g.
// "APPLICATION/PDF") still resolve.
func normalizeMediaType(mt types.MediaType) types.MediaType {
	return types.MediaType(bytes.ToLower([]byte(mt)))
}

func cacheKeyForBytes(content []byte, mediaType types.MediaType, cfg *config.ExtractionConfig) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(mediaType))
	h.Write([]byte{0})
	h.Write([]byte(cfg.ContentHash()))
	return truncatedHex(h)
}

// cacheKeyForFile implements spec §4.3's file-based cache key inputs:
// (path, size, mtime) plus the config's content hash. Folding in size
// and mtime (the same fields internal/ocr/tesseract.go's fileCacheKey
// hashes) means a cached entry invalidates automatically once the
// file on disk changes, even though its path is unchanged.
func cacheKeyForFile(path string, info os.FileInfo, mediaType types.MediaType, cfg *config.ExtractionConfig) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", info.Size())
	h.Write([]byte{0})
	h.Write([]byte(info.ModTime().String()))
	h.Write([]byte{0})
	h.Write([]byte(mediaType))
	h.Write([]byte{0})
	h.Write([]byte(cfg.ContentHash()))
	return truncatedHex(h)
}

// truncatedHex implements the Open Question resolution recorded in
// DESIGN.md: SHA-256 truncated to a 16-byte (32 hex char) prefix, which
// the cache's two-level fan-out directory layout assumes.
func truncatedHex(h interface{ Sum([]byte) []byte }) string {
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}
