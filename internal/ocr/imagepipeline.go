package ocr

import (
	"context"
	"sort"

	"github.com/adverant/kreuzberg-go/internal/config"
	"github.com/adverant/kreuzberg-go/internal/types"
)

const defaultMaxImageBytes = 50 * 1024 * 1024 // 50 MiB per image (spec §4.7.4 step 1)

// ImageOCRPipelineParams carries the config knobs spec §4.7.4 reads from
// config.ExtractionConfig without importing that package's full surface
// into this file's signature.
type ImageOCRPipelineParams struct {
	AllowedFormats     map[string]struct{}
	MinWidth, MinHeight int
	MaxWidth, MaxHeight int
	Deduplicate        bool
	MaxBytesPerImage   int64
}

// RunImageOCRPipeline implements spec §4.7.4: filter → (dedupe) → OCR
// each surviving image, preserving input order and recording a
// skipped_reason for filtered-out images.
func RunImageOCRPipeline(ctx context.Context, backend Backend, images []types.ExtractedImage, cfg *config.TesseractConfig, params ImageOCRPipelineParams) []types.ImageOCRResult {
	maxBytes := params.MaxBytesPerImage
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}

	seen := map[string]struct{}{}
	out := make([]types.ImageOCRResult, 0, len(images))

	for _, img := range images {
		reason := filterReason(img, params)
		if reason == "" && params.Deduplicate {
			h := img.Hash()
			if _, dup := seen[h]; dup {
				reason = "duplicate_image"
			} else {
				seen[h] = struct{}{}
			}
		}
		if reason == "" && int64(len(img.Data)) > maxBytes {
			reason = "exceeds_memory_ceiling"
		}

		if reason != "" {
			out = append(out, types.ImageOCRResult{Image: img, SkippedReason: reason})
			continue
		}

		ocrResult, err := backend.ProcessImage(ctx, img.Data, cfg)
		result := types.ImageOCRResult{Image: img}
		if err != nil {
			result.SkippedReason = "ocr_failed: " + err.Error()
		} else {
			result.OCRResult = ocrResult
		}
		out = append(out, result)
	}
	return out
}

func filterReason(img types.ExtractedImage, params ImageOCRPipelineParams) string {
	if len(params.AllowedFormats) > 0 {
		if _, ok := params.AllowedFormats[img.Format]; !ok {
			return "unsupported_format"
		}
	}
	if img.HasDims {
		if params.MinWidth > 0 && img.Width < params.MinWidth {
			return "below_min_dimensions"
		}
		if params.MinHeight > 0 && img.Height < params.MinHeight {
			return "below_min_dimensions"
		}
		if params.MaxWidth > 0 && img.Width > params.MaxWidth {
			return "above_max_dimensions"
		}
		if params.MaxHeight > 0 && img.Height > params.MaxHeight {
			return "above_max_dimensions"
		}
	}
	return ""
}

// truncateToByteBudget implements the "list truncated from the top if
// exceeded" clause of spec §4.7.4 step 1, applied before filtering when
// callers want to bound total work up front rather than per-image.
func truncateToByteBudget(images []types.ExtractedImage, totalBudget int64) []types.ExtractedImage {
	sorted := append([]types.ExtractedImage(nil), images...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i].Data) < len(sorted[j].Data) })
	var total int64
	var out []types.ExtractedImage
	for _, img := range sorted {
		if total+int64(len(img.Data)) > totalBudget {
			break
		}
		total += int64(len(img.Data))
		out = append(out, img)
	}
	return out
}
