package capability

import (
	"context"
	"time"

	"github.com/adverant/kreuzberg-go/internal/logging"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// EntityExtractor is the entity-recognition collaborator spec §4.4 step
// 7.b calls optionally ("calls the entity collaborator with content,
// custom_entity_patterns. Default on failure: none").
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, content string, customPatterns map[string]string) ([]types.Entity, error)
}

// HTTPEntityExtractor is the concrete HTTP-backed implementation named
// in SPEC_FULL §11.2, built in the teacher's mageagent_client idiom.
type HTTPEntityExtractor struct {
	http httpHelper
}

type entityRequest struct {
	Content        string            `json:"content"`
	CustomPatterns map[string]string `json:"customPatterns,omitempty"`
}

type entityResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Entities []struct {
			Type  string `json:"type"`
			Text  string `json:"text"`
			Start int    `json:"start"`
			End   int    `json:"end"`
		} `json:"entities"`
	} `json:"data"`
	Message string `json:"message"`
}

// NewEntityExtractor probes baseURL's health endpoint and returns an
// Available capability on success, Unavailable otherwise.
func NewEntityExtractor(ctx context.Context, baseURL string, logger *logging.Logger) Capability[EntityExtractor] {
	h := newHTTPHelper(baseURL, "kreuzberg-entity", 30*time.Second, logger)
	client := &HTTPEntityExtractor{http: h}
	if err := h.healthCheck(ctx); err != nil {
		if logger != nil {
			logger.Warn("entity extraction capability unavailable", "baseURL", baseURL, "error", err)
		}
		return Unavailable[EntityExtractor](err.Error())
	}
	return Available[EntityExtractor](client)
}

func (c *HTTPEntityExtractor) ExtractEntities(ctx context.Context, content string, customPatterns map[string]string) ([]types.Entity, error) {
	req := entityRequest{Content: content, CustomPatterns: customPatterns}
	var resp entityResponse
	if err := c.http.postJSON(ctx, "/api/internal/nlp/extract-entities", req, &resp); err != nil {
		return nil, err
	}

	entities := make([]types.Entity, 0, len(resp.Data.Entities))
	for _, e := range resp.Data.Entities {
		entities = append(entities, types.Entity{Type: e.Type, Text: e.Text, Start: e.Start, End: e.End})
	}
	return entities, nil
}
