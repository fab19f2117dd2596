package orchestrator

import (
	"context"
	"testing"

	"github.com/adverant/kreuzberg-go/internal/config"
	"github.com/adverant/kreuzberg-go/internal/ocr"
	"github.com/adverant/kreuzberg-go/internal/registry"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// stubOCRBackend records every image it is asked to OCR and returns a
// fixed result, standing in for internal/ocr's Tesseract-backed Backend.
type stubOCRBackend struct {
	processed [][]byte
}

func (b *stubOCRBackend) ProcessImage(ctx context.Context, data []byte, cfg *config.TesseractConfig) (*types.ExtractionResult, error) {
	b.processed = append(b.processed, data)
	return &types.ExtractionResult{Content: "ocr text", MimeType: types.MediaTypePlainText}, nil
}

func (b *stubOCRBackend) ProcessFile(ctx context.Context, path string, cfg *config.TesseractConfig) (*types.ExtractionResult, error) {
	return &types.ExtractionResult{}, nil
}

func (b *stubOCRBackend) ProcessBatch(ctx context.Context, items []ocr.BatchItem, cfg *config.TesseractConfig) []ocr.BatchOutcome {
	return nil
}

// An extractor that populates result.Images, standing in for a real
// format extractor (e.g. PDF/DOCX) that pulls embedded images out.
type imageProducingExtractor struct {
	images []types.ExtractedImage
}

func (e *imageProducingExtractor) Extract(ctx context.Context, data []byte, path string, mediaType types.MediaType, cfg *config.ExtractionConfig) (*types.ExtractionResult, error) {
	return &types.ExtractionResult{Content: "body text", MimeType: types.MediaTypePlainText, Images: e.images}, nil
}

// Spec §4.7.4: when extract_images and ocr_extracted_images are both
// set and an OCR backend is configured, every extracted image is run
// through the OCR backend and the outcome recorded on
// result.ImageOCRResults.
func TestExtractBytesRunsImageOCRPipelineWhenEnabled(t *testing.T) {
	img := types.ExtractedImage{Data: []byte("fake-png-bytes"), Format: "png", HasDims: true, Width: 200, Height: 200}
	reg := registry.New()
	reg.Register(types.MediaTypePlainText, &imageProducingExtractor{images: []types.ExtractedImage{img}})

	backend := &stubOCRBackend{}
	o := New(reg, WithOCR(backend, nil))

	cfg, err := config.New(
		config.WithImages(true, true, false),
		config.WithOCRBackend(config.OCRBackendTesseract, config.TesseractConfig{Language: "eng"}),
	)
	if err != nil {
		t.Fatalf("unexpected error building config: %v", err)
	}

	result, err := o.ExtractBytes(context.Background(), []byte("ignored"), types.MediaTypePlainText, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ImageOCRResults) != 1 {
		t.Fatalf("expected 1 image OCR result, got %d", len(result.ImageOCRResults))
	}
	if result.ImageOCRResults[0].SkippedReason != "" {
		t.Fatalf("expected the image to be processed, got skipped reason %q", result.ImageOCRResults[0].SkippedReason)
	}
	if result.ImageOCRResults[0].OCRResult == nil || result.ImageOCRResults[0].OCRResult.Content != "ocr text" {
		t.Fatalf("expected the stub backend's OCR result to be attached, got %+v", result.ImageOCRResults[0])
	}
	if len(backend.processed) != 1 {
		t.Fatalf("expected the OCR backend to be invoked once, got %d calls", len(backend.processed))
	}
}

// When extract_images is off the pipeline must not run at all, even
// though this stand-in extractor still populates result.Images.
func TestExtractBytesSkipsImageOCRPipelineWhenDisabled(t *testing.T) {
	img := types.ExtractedImage{Data: []byte("fake-png-bytes"), Format: "png"}
	reg := registry.New()
	reg.Register(types.MediaTypePlainText, &imageProducingExtractor{images: []types.ExtractedImage{img}})

	backend := &stubOCRBackend{}
	o := New(reg, WithOCR(backend, nil))

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("unexpected error building config: %v", err)
	}

	result, err := o.ExtractBytes(context.Background(), []byte("ignored"), types.MediaTypePlainText, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ImageOCRResults) != 0 {
		t.Fatalf("expected no image OCR results when disabled, got %d", len(result.ImageOCRResults))
	}
	if len(backend.processed) != 0 {
		t.Fatalf("expected the OCR backend never to be invoked, got %d calls", len(backend.processed))
	}
}
