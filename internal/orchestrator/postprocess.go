package orchestrator

import (
	"context"
	"fmt"

	"github.com/adverant/kreuzberg-go/internal/classification"
	"github.com/adverant/kreuzberg-go/internal/config"
	kerrors "github.com/adverant/kreuzberg-go/internal/errors"
	"github.com/adverant/kreuzberg-go/internal/ocr"
	"github.com/adverant/kreuzberg-go/internal/tokenreduction"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// postProcess implements spec §4.4 steps 5-8: metadata init, fail-fast
// validators, the seven guarded feature stages, then error-isolated hooks.
// filePath is non-nil only for extract_file, since document-type vision
// mode and any path-aware hook need it.
func (o *Orchestrator) postProcess(ctx context.Context, result *types.ExtractionResult, cfg *config.ExtractionConfig, filePath *string) (*types.ExtractionResult, error) {
	result.EnsureMetadata()

	for _, v := range cfg.Validators {
		if err := v.Validate(ctx, result); err != nil {
			return nil, err
		}
	}

	o.runFeatureStages(ctx, result, cfg, filePath)

	for i, hook := range cfg.PostProcessingHooks {
		if err := hook.Run(ctx, result); err != nil {
			name := hook.Name()
			if name == "" {
				name = fmt.Sprintf("post_processing_hook_%d", i)
			}
			result.AppendProcessingError(name, "HookError", err.Error())
		}
	}

	return result, nil
}

// guard runs fn, trapping its error into metadata.processing_errors
// unless errors.MustBubble classifies it as must-bubble for the
// optional-feature site (spec §7) — in which case it propagates and the
// whole extraction fails.
func (o *Orchestrator) guard(result *types.ExtractionResult, feature string, fn func() error) error {
	defer func() {
		if r := recover(); r != nil {
			result.AppendProcessingError(feature, "PanicError", fmt.Sprintf("%v", r))
		}
	}()
	err := fn()
	if err == nil {
		return nil
	}
	if kerrors.MustBubble(err, kerrors.SiteOptionalFeature) {
		return err
	}
	result.AppendProcessingError(feature, errorType(err), err.Error())
	return nil
}

func errorType(err error) string {
	if ke, ok := kerrors.AsKreuzbergError(err); ok {
		return string(ke.Kind)
	}
	return "error"
}

func (o *Orchestrator) runFeatureStages(ctx context.Context, result *types.ExtractionResult, cfg *config.ExtractionConfig, filePath *string) {
	if cfg.ChunkContent {
		_ = o.guard(result, "chunking", func() error {
			result.Chunks = Chunk(result.Content, result.MimeType, cfg.MaxChars, cfg.MaxOverlap)
			return nil
		})
	}

	if cfg.ExtractEntities {
		_ = o.guard(result, "entity_extraction", func() error {
			extractor, ok := o.entityExtractor.Handle()
			if !ok {
				result.Entities = nil
				return nil
			}
			entities, err := extractor.ExtractEntities(ctx, result.Content, nil)
			if err != nil {
				result.Entities = nil
				return err
			}
			result.Entities = entities
			return nil
		})
	}

	if cfg.ExtractKeywords {
		_ = o.guard(result, "keyword_extraction", func() error {
			extractor, ok := o.keywordExtractor.Handle()
			if !ok {
				result.Keywords = nil
				return nil
			}
			keywords, err := extractor.ExtractKeywords(ctx, result.Content, cfg.KeywordCount)
			if err != nil {
				result.Keywords = nil
				return err
			}
			result.Keywords = keywords
			return nil
		})
	}

	if cfg.AutoDetectLanguage {
		_ = o.guard(result, "language_detection", func() error {
			detector, ok := o.languageDetector.Handle()
			if !ok {
				result.DetectedLanguages = []string{}
				return nil
			}
			langs, err := detector.DetectLanguages(ctx, result.Content)
			if err != nil {
				result.DetectedLanguages = []string{}
				return err
			}
			result.DetectedLanguages = langs
			return nil
		})
	}

	if cfg.AutoDetectDocumentType {
		_ = o.guard(result, "document_type_detection", func() error {
			return o.detectDocumentType(ctx, result, cfg, filePath)
		})
	}

	if cfg.ExtractImages && cfg.OCRExtractedImages && o.ocrBackend != nil && len(result.Images) > 0 {
		_ = o.guard(result, "image_ocr", func() error {
			return o.runImageOCR(ctx, result, cfg)
		})
	}

	if cfg.TokenReduction != nil && cfg.TokenReduction.Mode != config.TokenReductionOff {
		_ = o.guard(result, "token_reduction", func() error {
			original := result.Content
			languageHint := cfg.TokenReduction.LanguageHint
			if languageHint == "" && len(result.DetectedLanguages) > 0 {
				languageHint = result.DetectedLanguages[0]
			}
			reduced := tokenreduction.Reduce(original, string(cfg.TokenReduction.Mode), languageHint, cfg.TokenReduction.PreserveMarkdown, o.stopwords)
			stats := tokenreduction.GetReductionStats(original, reduced)
			result.Metadata["token_reduction"] = map[string]interface{}{
				"character_reduction_ratio": stats.CharReductionRatio,
				"token_reduction_ratio":     stats.TokenReductionRatio,
				"original_characters":       stats.OriginalChars,
				"reduced_characters":        stats.ReducedChars,
				"original_tokens":           stats.OriginalTokens,
				"reduced_tokens":            stats.ReducedTokens,
			}
			result.Content = reduced
			return nil
		})
	}
}

// runImageOCR implements spec §4.7.4's image-OCR pipeline, filtering
// and (optionally) deduplicating result.Images before running each
// surviving image through the OCR backend and recording the outcome
// in result.ImageOCRResults, in the same order as result.Images.
func (o *Orchestrator) runImageOCR(ctx context.Context, result *types.ExtractionResult, cfg *config.ExtractionConfig) error {
	tesseractCfg, ok := cfg.OcrConfig.(config.TesseractConfig)
	if !ok {
		return kerrors.NewMissingDependencyError(
			"image OCR requires a tesseract ocr_config",
			map[string]interface{}{"ocr_backend": string(cfg.OCRBackend)},
		)
	}

	params := ocr.ImageOCRPipelineParams{
		AllowedFormats: cfg.ImageOCRFormats,
		MinWidth:       cfg.ImageOCRMinDimensions.Width,
		MinHeight:      cfg.ImageOCRMinDimensions.Height,
		MaxWidth:       cfg.ImageOCRMaxDimensions.Width,
		MaxHeight:      cfg.ImageOCRMaxDimensions.Height,
		Deduplicate:    cfg.DeduplicateImages,
	}
	result.ImageOCRResults = ocr.RunImageOCRPipeline(ctx, o.ocrBackend, result.Images, &tesseractCfg, params)
	return nil
}

// detectDocumentType implements spec §4.5's text/vision dispatch.
func (o *Orchestrator) detectDocumentType(ctx context.Context, result *types.ExtractionResult, cfg *config.ExtractionConfig, filePath *string) error {
	var classified classification.Result

	if cfg.DocumentClassificationMode == config.ClassificationModeVision && filePath != nil && len(result.Layout) > 0 {
		translator, _ := o.translator.Handle() // nil is valid: ClassifyVision falls back to lowercasing.
		classified = classification.ClassifyVision(ctx, result.Layout, translator, cfg.DocumentTypeConfidenceThreshold)
	} else {
		classified = classification.ClassifyText(result.Content, cfg.DocumentTypeConfidenceThreshold)
	}

	if classified.Classified {
		result.DocumentType = classified.DocumentType
		confidence := classified.Confidence
		result.DocumentTypeConfidence = &confidence
	}
	return nil
}
