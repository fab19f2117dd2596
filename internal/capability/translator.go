package capability

import (
	"context"
	"time"

	"github.com/adverant/kreuzberg-go/internal/classification"
	"github.com/adverant/kreuzberg-go/internal/logging"
)

// HTTPTranslator is the concrete HTTP-backed implementation of
// classification.Translator spec §4.5's vision mode calls before
// falling back to lowercasing the source text ("the translation
// collaborator is called; if it fails, the original text is lowercased
// and scored" -- spec §9 marks the translator itself as optional,
// "Unavailable when... translator is Unavailable, the classifier
// operates on lowercased source text").
type HTTPTranslator struct {
	http httpHelper
}

var _ classification.Translator = (*HTTPTranslator)(nil)

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"targetLang"`
}

type translateResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Text string `json:"text"`
	} `json:"data"`
	Message string `json:"message"`
}

// NewTranslator probes baseURL's health endpoint and returns an
// Available capability on success, Unavailable otherwise.
func NewTranslator(ctx context.Context, baseURL string, logger *logging.Logger) Capability[classification.Translator] {
	h := newHTTPHelper(baseURL, "kreuzberg-translate", 30*time.Second, logger)
	client := &HTTPTranslator{http: h}
	if err := h.healthCheck(ctx); err != nil {
		if logger != nil {
			logger.Warn("translation capability unavailable", "baseURL", baseURL, "error", err)
		}
		return Unavailable[classification.Translator](err.Error())
	}
	return Available[classification.Translator](client)
}

func (c *HTTPTranslator) Translate(ctx context.Context, text string, targetLang string) (string, error) {
	req := translateRequest{Text: text, TargetLang: targetLang}
	var resp translateResponse
	if err := c.http.postJSON(ctx, "/api/internal/nlp/translate", req, &resp); err != nil {
		return "", err
	}
	return resp.Data.Text, nil
}
