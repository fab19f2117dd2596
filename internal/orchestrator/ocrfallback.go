package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/adverant/kreuzberg-go/internal/config"
	kerrors "github.com/adverant/kreuzberg-go/internal/errors"
	"github.com/adverant/kreuzberg-go/internal/rasterize"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// ocrFallback implements spec §4.4 step 4's PDF-OCR-fallback path: a
// ParsingError from the registered extractor, with an OCR backend
// configured, rasterizes every page and OCRs each one, concatenating
// the per-page text with a blank line (mirroring how the Tesseract
// backend itself joins multi-image batches in spec §4.7.4).
func (o *Orchestrator) ocrFallback(ctx context.Context, path string, cfg *config.ExtractionConfig) (*types.ExtractionResult, error) {
	tesseractCfg, ok := cfg.OcrConfig.(config.TesseractConfig)
	if !ok {
		return nil, kerrors.NewMissingDependencyError(
			"PDF OCR fallback requires a tesseract ocr_config",
			map[string]interface{}{"ocr_backend": string(cfg.OCRBackend)},
		)
	}

	dpi := cfg.TargetDPI
	if dpi <= 0 {
		dpi = 150
	}

	pageCount := 1
	if counter, ok := o.rasterizer.(rasterize.PageCounter); ok {
		if n, err := counter.PageCount(ctx, path); err == nil && n > 0 {
			pageCount = n
		}
	}

	tmpDir, err := os.MkdirTemp("", "kreuzberg-ocr-fallback-*")
	if err != nil {
		return nil, kerrors.NewOCRError("creating rasterization temp dir", nil, err)
	}
	defer os.RemoveAll(tmpDir)

	var texts []string
	for page := 0; page < pageCount; page++ {
		img, err := o.rasterizer.RasterizePage(ctx, path, page, dpi)
		if err != nil {
			return nil, kerrors.NewOCRError("rasterizing page for OCR fallback", map[string]interface{}{"page": page}, err)
		}

		data, err := encodePNG(img)
		if err != nil {
			return nil, kerrors.NewOCRError("encoding rasterized page", map[string]interface{}{"page": page}, err)
		}

		pageResult, err := o.ocrBackend.ProcessImage(ctx, data, &tesseractCfg)
		if err != nil {
			return nil, kerrors.NewOCRError("OCR fallback invocation failed", map[string]interface{}{"page": page}, err)
		}
		o.metrics.IncOCRInvocation()
		texts = append(texts, pageResult.Content)
	}

	return &types.ExtractionResult{
		Content:  strings.Join(texts, "\n\n"),
		MimeType: types.MediaTypePlainText,
	}, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
