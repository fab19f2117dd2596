package orchestrator

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/adverant/kreuzberg-go/internal/config"
	kerrors "github.com/adverant/kreuzberg-go/internal/errors"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// BytesInput is one item of a BatchExtractBytes call.
type BytesInput struct {
	Content   []byte
	MediaType types.MediaType
}

// batchConcurrency implements spec §4.4's fan-out ceiling:
// min(len(inputs), 2*cpu_count).
func batchConcurrency(n int) int {
	ceiling := 2 * runtime.NumCPU()
	if n < ceiling {
		return n
	}
	return ceiling
}

// BatchExtractBytes implements spec §4.4's batch_extract_bytes.
// Ordering is preserved: output[i] corresponds to inputs[i]. A failing
// item never fails the batch; it is replaced by a shell
// ExtractionResult carrying metadata.error and metadata.error_context,
// per spec §7's batch_processing trapping rule.
func (o *Orchestrator) BatchExtractBytes(ctx context.Context, inputs []BytesInput, cfg *config.ExtractionConfig) []types.ExtractionResult {
	results := make([]types.ExtractionResult, len(inputs))
	if len(inputs) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency(len(inputs)))
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			result, err := o.ExtractBytes(gctx, in.Content, in.MediaType, cfg)
			if err != nil {
				if kerrors.MustBubble(err, kerrors.SiteBatchProcessing) {
					return err
				}
				results[i] = errorShell(err, i, "", string(in.MediaType))
				return nil
			}
			results[i] = *result
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// BatchExtractFile implements spec §4.4's batch_extract_file.
func (o *Orchestrator) BatchExtractFile(ctx context.Context, paths []string, cfg *config.ExtractionConfig) []types.ExtractionResult {
	results := make([]types.ExtractionResult, len(paths))
	if len(paths) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency(len(paths)))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			result, err := o.ExtractFile(gctx, path, "", cfg)
			if err != nil {
				if kerrors.MustBubble(err, kerrors.SiteBatchProcessing) {
					return err
				}
				results[i] = errorShell(err, i, path, "")
				return nil
			}
			results[i] = *result
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// errorShell builds the trapped-failure result shape spec §7 describes:
// content carries a human-readable summary, metadata.error the kind and
// message, metadata.error_context the diagnostic map.
func errorShell(err error, index int, path, mediaType string) types.ExtractionResult {
	errType := "error"
	if ke, ok := kerrors.AsKreuzbergError(err); ok {
		errType = string(ke.Kind)
	}

	result := types.ExtractionResult{
		Content:  fmt.Sprintf("Error: %s: %s", errType, err.Error()),
		MimeType: types.MediaTypePlainText,
	}
	result.EnsureMetadata()
	result.Metadata["error"] = fmt.Sprintf("%s: %s", errType, err.Error())
	errorContext := map[string]interface{}{
		"operation": "batch_extraction",
		"index":     index,
	}
	if path != "" {
		errorContext["file_path"] = path
	}
	if mediaType != "" {
		errorContext["mime_type"] = mediaType
	}
	result.Metadata["error_context"] = errorContext
	return result
}
