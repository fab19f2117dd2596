package qdrantstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adverant/kreuzberg-go/internal/logging"
)

// maxEmbeddingChars truncates overlong keyword text before sending it
// to the embedding API, matching the teacher's embedding.go guard.
const maxEmbeddingChars = 16000

// batchSize is VoyageAI's per-request limit, carried over from the
// teacher's GenerateEmbeddingBatch.
const batchSize = 100

// VoyageEmbedder is the default Embedder: a VoyageAI voyage-3 client
// adapted from the teacher's internal/processor/embedding.go, kept as
// the grounding for this package's "optional ML helper" HTTP idiom even
// though embeddings are themselves out of SPEC_FULL's core scope.
type VoyageEmbedder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

type voyageEmbeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type voyageBatchEmbeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type voyageEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// NewVoyageEmbedder constructs a VoyageAI embedding client.
func NewVoyageEmbedder(apiKey string, logger *logging.Logger) (*VoyageEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("VoyageAI API key is required")
	}
	return &VoyageEmbedder{
		apiKey:     apiKey,
		baseURL:    "https://api.voyageai.com/v1/embeddings",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// GenerateEmbedding produces a single 1024-dimension embedding.
func (e *VoyageEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	if len(text) > maxEmbeddingChars {
		text = text[:maxEmbeddingChars]
	}

	reqBody := voyageEmbeddingRequest{Input: text, Model: "voyage-3"}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", e.apiKey))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("VoyageAI API returned status %d: %s", resp.StatusCode, string(body))
	}

	var voyageResp voyageEmbeddingResponse
	if err := json.Unmarshal(body, &voyageResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(voyageResp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data in response")
	}

	embedding := voyageResp.Data[0].Embedding
	if len(embedding) != vectorDimensions {
		return nil, fmt.Errorf("unexpected embedding dimensions: got %d, expected %d", len(embedding), vectorDimensions)
	}
	return embedding, nil
}

// GenerateEmbeddingBatch embeds texts in batches of batchSize, falling
// back to per-item GenerateEmbedding calls if a batch request fails --
// the same fallback shape as the teacher's GenerateEmbeddingBatch.
func (e *VoyageEmbedder) GenerateEmbeddingBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		embeddings, err := e.generateBatchInternal(ctx, batch)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("batch embedding call failed, falling back to per-item requests", "range", fmt.Sprintf("%d-%d", i, end-1), "error", err)
			}
			for j, text := range batch {
				embedding, err := e.GenerateEmbedding(ctx, text)
				if err != nil {
					return nil, fmt.Errorf("failed to generate embedding for text %d (fallback): %w", i+j, err)
				}
				all = append(all, embedding)
			}
			continue
		}
		all = append(all, embeddings...)
	}
	return all, nil
}

func (e *VoyageEmbedder) generateBatchInternal(ctx context.Context, texts []string) ([][]float32, error) {
	truncated := make([]string, len(texts))
	for i, text := range texts {
		if len(text) > maxEmbeddingChars {
			text = text[:maxEmbeddingChars]
		}
		truncated[i] = text
	}

	reqBody := voyageBatchEmbeddingRequest{Input: truncated, Model: "voyage-3"}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", e.apiKey))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("batch request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("VoyageAI batch API returned status %d: %s", resp.StatusCode, string(body))
	}

	var voyageResp voyageEmbeddingResponse
	if err := json.Unmarshal(body, &voyageResp); err != nil {
		return nil, fmt.Errorf("failed to parse batch response: %w", err)
	}
	if len(voyageResp.Data) != len(texts) {
		return nil, fmt.Errorf("unexpected number of embeddings: got %d, expected %d", len(voyageResp.Data), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range voyageResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("invalid embedding index: %d", data.Index)
		}
		if len(data.Embedding) != vectorDimensions {
			return nil, fmt.Errorf("unexpected embedding dimensions for text %d: got %d, expected %d", data.Index, len(data.Embedding), vectorDimensions)
		}
		embeddings[data.Index] = data.Embedding
	}
	return embeddings, nil
}
