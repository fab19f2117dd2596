// Package registry implements the Extractor Registry (component C, spec
// §4.2): media-type to extractor dispatch with an exact-match fast path
// and a longest-prefix-match fallback (e.g. "image/" matching every
// image codec).
//
// Per REDESIGN FLAGS (spec §9), this is an explicit compile-time
// registration table, not the original's subclass-discovery plugin
// lookup: callers build a Registry and call Register/RegisterPrefix
// themselves (typically once, at startup, from a cmd/ entrypoint), and
// Lookup never does reflection or package scanning.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/adverant/kreuzberg-go/internal/config"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// Extractor is the contract every format backend implements. Spec §4.2
// lists four operations (extract_bytes_async/sync, extract_path_async/
// sync) because the source language distinguishes sync and async
// call sites; Go's context.Context collapses that distinction into one
// method — a blocking extractor just doesn't check ctx.Done() as often.
// Path-based and bytes-based extraction also collapse into one method:
// a path-based extractor reads the file itself inside Extract when
// path != "", an in-memory one ignores path and uses data.
type Extractor interface {
	// Extract converts data (or, if path is non-empty, the file at path)
	// into an ExtractionResult. Implementations must honor contract
	// clauses from spec §4.2: mime_type is text/plain or text/markdown;
	// chunks stay empty unless the extractor pre-chunks; images are
	// populated only if cfg.ExtractImages; a genuine parse failure
	// returns a *errors.KreuzbergError (kind ParsingError) carrying file
	// context rather than a silently empty result.
	Extract(ctx context.Context, data []byte, path string, mediaType types.MediaType, cfg *config.ExtractionConfig) (*types.ExtractionResult, error)
}

type prefixEntry struct {
	prefix    string
	extractor Extractor
}

// Registry maps media types to extractors. Safe for concurrent use;
// intended as a process-lifetime singleton built once at startup.
type Registry struct {
	mu       sync.RWMutex
	exact    map[types.MediaType]Extractor
	prefixes []prefixEntry // kept sorted by descending prefix length for longest-match
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{exact: map[types.MediaType]Extractor{}}
}

// Register associates an exact media type with an extractor, overwriting
// any previous registration for that type.
func (r *Registry) Register(mediaType types.MediaType, e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[mediaType] = e
}

// RegisterPrefix associates a media-type prefix (e.g. "image/") with a
// fallback extractor used when no exact match exists.
func (r *Registry) RegisterPrefix(prefix string, e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes = append(r.prefixes, prefixEntry{prefix: prefix, extractor: e})
	sort.Slice(r.prefixes, func(i, j int) bool {
		return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix)
	})
}

// Lookup resolves a media type to an extractor: exact match first
// (O(1) map lookup), then the longest matching registered prefix. Spec
// §4.4 step 3: "if none, the result is the raw bytes safely decoded as
// UTF-8 with text/plain" — that fallback lives in the orchestrator, not
// here, since it needs no Extractor at all.
func (r *Registry) Lookup(mediaType types.MediaType) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.exact[mediaType]; ok {
		return e, true
	}
	s := string(mediaType)
	for _, pe := range r.prefixes {
		if strings.HasPrefix(s, pe.prefix) {
			return pe.extractor, true
		}
	}
	return nil, false
}

// MediaTypes returns every exactly-registered media type, sorted, for
// diagnostics and tests.
func (r *Registry) MediaTypes() []types.MediaType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.MediaType, 0, len(r.exact))
	for mt := range r.exact {
		out = append(out, mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
