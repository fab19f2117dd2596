package capability

import (
	"context"
	"time"

	"github.com/adverant/kreuzberg-go/internal/logging"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// KeywordExtractor is the keyword-extraction collaborator spec §4.4
// step 7.c calls optionally.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, content string, count int) ([]types.Keyword, error)
}

// HTTPKeywordExtractor is the concrete HTTP-backed implementation named
// in SPEC_FULL §11.2.
type HTTPKeywordExtractor struct {
	http httpHelper
}

type keywordRequest struct {
	Content string `json:"content"`
	Count   int    `json:"count"`
}

type keywordResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Keywords []struct {
			Term  string  `json:"term"`
			Score float64 `json:"score"`
		} `json:"keywords"`
	} `json:"data"`
	Message string `json:"message"`
}

// NewKeywordExtractor probes baseURL's health endpoint and returns an
// Available capability on success, Unavailable otherwise.
func NewKeywordExtractor(ctx context.Context, baseURL string, logger *logging.Logger) Capability[KeywordExtractor] {
	h := newHTTPHelper(baseURL, "kreuzberg-keyword", 30*time.Second, logger)
	client := &HTTPKeywordExtractor{http: h}
	if err := h.healthCheck(ctx); err != nil {
		if logger != nil {
			logger.Warn("keyword extraction capability unavailable", "baseURL", baseURL, "error", err)
		}
		return Unavailable[KeywordExtractor](err.Error())
	}
	return Available[KeywordExtractor](client)
}

func (c *HTTPKeywordExtractor) ExtractKeywords(ctx context.Context, content string, count int) ([]types.Keyword, error) {
	req := keywordRequest{Content: content, Count: count}
	var resp keywordResponse
	if err := c.http.postJSON(ctx, "/api/internal/nlp/extract-keywords", req, &resp); err != nil {
		return nil, err
	}

	keywords := make([]types.Keyword, 0, len(resp.Data.Keywords))
	for _, k := range resp.Data.Keywords {
		keywords = append(keywords, types.Keyword{Term: k.Term, Score: k.Score})
	}
	return keywords, nil
}
