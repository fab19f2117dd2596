package capability

import (
	"context"
	"time"

	"github.com/adverant/kreuzberg-go/internal/logging"
)

// LanguageDetector is the language-detection collaborator spec §4.4
// names for the auto_detect_language post-processing stage.
type LanguageDetector interface {
	DetectLanguages(ctx context.Context, content string) ([]string, error)
}

// HTTPLanguageDetector is the concrete HTTP-backed implementation named
// in SPEC_FULL §11.2.
type HTTPLanguageDetector struct {
	http httpHelper
}

type languageRequest struct {
	Content string `json:"content"`
}

type languageResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Languages []string `json:"languages"`
	} `json:"data"`
	Message string `json:"message"`
}

// NewLanguageDetector probes baseURL's health endpoint and returns an
// Available capability on success, Unavailable otherwise.
func NewLanguageDetector(ctx context.Context, baseURL string, logger *logging.Logger) Capability[LanguageDetector] {
	h := newHTTPHelper(baseURL, "kreuzberg-language", 15*time.Second, logger)
	client := &HTTPLanguageDetector{http: h}
	if err := h.healthCheck(ctx); err != nil {
		if logger != nil {
			logger.Warn("language detection capability unavailable", "baseURL", baseURL, "error", err)
		}
		return Unavailable[LanguageDetector](err.Error())
	}
	return Available[LanguageDetector](client)
}

func (c *HTTPLanguageDetector) DetectLanguages(ctx context.Context, content string) ([]string, error) {
	req := languageRequest{Content: content}
	var resp languageResponse
	if err := c.http.postJSON(ctx, "/api/internal/nlp/detect-language", req, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Languages, nil
}
