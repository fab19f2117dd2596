// Package stopwords loads language-specific stopword tables for the
// token reduction transformer (component E, spec §4.6).
//
// Grounded on SPEC_FULL §12 (supplemented from original_source's
// kreuzberg/_token_reduction/_stopwords.py, which ships per-language
// JSON-ish word lists baked into the package). Go's embed.FS gives the
// same "data travels with the binary" property without a runtime asset
// loader, so the lists are embedded rather than read from a configured
// directory at startup.
package stopwords

import (
	"embed"
	"encoding/json"
	"strings"
	"sync"
)

//go:embed data/*.json
var dataFS embed.FS

// Manager owns the loaded stopword tables and any user-supplied
// overrides, matching spec §4.6's StopwordsManager / get_stopwords(lang).
type Manager struct {
	mu      sync.RWMutex
	cache   map[string]map[string]struct{}
	custom  map[string]map[string]struct{}
}

// NewManager constructs a Manager. customStopwords, if non-nil, is
// merged into each language's default set by get_stopwords (spec §4.6).
func NewManager(customStopwords map[string]map[string]struct{}) *Manager {
	return &Manager{
		cache:  map[string]map[string]struct{}{},
		custom: customStopwords,
	}
}

// Get returns the stopword set for lang (a lowercased ISO code),
// merged with any custom overrides for that language. Falls back to
// English if lang is unknown; returns nil (meaning "no filtering") if
// English itself is unavailable — per spec §4.6, "if English too is
// unavailable, return text unchanged".
func (m *Manager) Get(lang string) map[string]struct{} {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = "eng"
	}

	base := m.load(lang)
	if base == nil && lang != "eng" {
		base = m.load("eng")
	}
	if base == nil {
		return nil
	}

	custom := m.custom[lang]
	if len(custom) == 0 {
		return base
	}
	merged := make(map[string]struct{}, len(base)+len(custom))
	for w := range base {
		merged[w] = struct{}{}
	}
	for w := range custom {
		merged[w] = struct{}{}
	}
	return merged
}

func (m *Manager) load(lang string) map[string]struct{} {
	m.mu.RLock()
	set, ok := m.cache[lang]
	m.mu.RUnlock()
	if ok {
		return set
	}

	data, err := dataFS.ReadFile("data/" + lang + ".json")
	if err != nil {
		m.mu.Lock()
		m.cache[lang] = nil
		m.mu.Unlock()
		return nil
	}
	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		m.mu.Lock()
		m.cache[lang] = nil
		m.mu.Unlock()
		return nil
	}
	set = make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}

	m.mu.Lock()
	m.cache[lang] = set
	m.mu.Unlock()
	return set
}

// Languages returns the embedded languages available, for diagnostics.
func Languages() []string {
	entries, err := dataFS.ReadDir("data")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		out = append(out, strings.TrimSuffix(name, ".json"))
	}
	return out
}
