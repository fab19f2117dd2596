// Package config implements ExtractionConfig: an immutable value,
// validated entirely at construction time, that the orchestrator and its
// collaborators consult for every switch the pipeline honors (spec §3).
//
// Grounded on the teacher's internal/config.Config range-validated
// env loader (getEnvOrDefault / Validate(), kept in env.go for
// process-level settings) and on the pointer-optional field shape used
// by the Go kreuzberg ports surveyed in the example pack
// (picululu-kreuzberg, wrmthorne-kreuzberg): those ports model
// ExtractionConfig as all-pointer fields because they cross an FFI/JSON
// boundary. The core engine's ExtractionConfig never crosses such a
// boundary, so it is a plain struct built through functional options
// that validate eagerly. The cmd/ CLI layer does not reuse the
// pointer-optional shape either: cmd/extract's cliConfig holds plain
// fields and treats a zero value as "unset".
package config

import (
	"context"
	"fmt"
	"sort"
	"strings"

	kerrors "github.com/adverant/kreuzberg-go/internal/errors"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// OCRBackendKind selects which OCR backend handles rasterized pages and
// extracted images.
type OCRBackendKind string

const (
	OCRBackendTesseract OCRBackendKind = "tesseract"
	OCRBackendEasyOCR   OCRBackendKind = "easyocr"
	OCRBackendPaddleOCR OCRBackendKind = "paddleocr"
	OCRBackendNone      OCRBackendKind = "none"
)

// OcrConfig is the sum type named in SPEC_FULL §9/REDESIGN FLAGS:
// per-backend configuration is a distinct record type, and the
// orchestrator carries exactly one variant matching OCRBackendKind.
// Mismatch between OCRBackend and OcrConfig's variant is a
// construction-time error (enforced in New below).
type OcrConfig interface {
	Backend() OCRBackendKind
	isOcrConfig()
}

// TesseractConfig is the only fully specified OCR backend (spec §4.7.2).
type TesseractConfig struct {
	Language               string // e.g. "eng" or "eng+deu"
	PSM                    int    // 0-13, default AUTO=3
	OEM                    int    // fixed at 1 (LSTM-only) per spec
	OutputFormat           string // "text" (default), "tsv", "hocr"
	MinConfidence          float64
	EnableTableDetection   bool
	TableColumnThreshold   int     // px, default 20
	TableRowThresholdRatio float64 // default 0.5
	TimeoutSeconds         int     // 0 = no timeout
}

func (TesseractConfig) Backend() OCRBackendKind { return OCRBackendTesseract }
func (TesseractConfig) isOcrConfig()            {}

// EasyOCRConfig and PaddleOCRConfig are specified as abstract backends
// with the same operation set (spec §4.7); the core carries their
// configuration shape without a working implementation (internal/ocr
// ships only the Tesseract backend).
type EasyOCRConfig struct {
	Language string
	GPU      bool
}

func (EasyOCRConfig) Backend() OCRBackendKind { return OCRBackendEasyOCR }
func (EasyOCRConfig) isOcrConfig()            {}

type PaddleOCRConfig struct {
	Language               string
	UseAngleClassification bool
}

func (PaddleOCRConfig) Backend() OCRBackendKind { return OCRBackendPaddleOCR }
func (PaddleOCRConfig) isOcrConfig()            {}

// TokenReductionMode is one of off/light/moderate (spec §4.6).
type TokenReductionMode string

const (
	TokenReductionOff      TokenReductionMode = "off"
	TokenReductionLight    TokenReductionMode = "light"
	TokenReductionModerate TokenReductionMode = "moderate"
)

type TokenReductionConfig struct {
	Mode             TokenReductionMode
	PreserveMarkdown bool
	LanguageHint     string
	CustomStopwords  map[string]map[string]struct{}
}

// Dimensions is a (width, height) pair used for DPI and image-OCR size
// gating.
type Dimensions struct {
	Width, Height int
}

type DocumentClassificationMode string

const (
	ClassificationModeText   DocumentClassificationMode = "text"
	ClassificationModeVision DocumentClassificationMode = "vision"
)

// Validator is a fail-fast pipeline stage run before the post-processing
// stages (spec §4.4 step 6). It is named, so failures can be attributed.
type Validator interface {
	Name() string
	Validate(ctx context.Context, result *types.ExtractionResult) error
}

// PostProcessingHook runs after the feature stages (spec §4.4 step 8);
// its failures are isolated into metadata.processing_errors[i] and never
// stop the pipeline.
type PostProcessingHook interface {
	Name() string
	Run(ctx context.Context, result *types.ExtractionResult) error
}

// ExtractionConfig aggregates every switch the orchestrator honors (spec
// §3). Treat the value returned by New as immutable: nothing in this
// package exposes a setter, and callers must not mutate exported fields
// after construction.
type ExtractionConfig struct {
	// routing
	OCRBackend OCRBackendKind
	OcrConfig  OcrConfig // nil when OCRBackend == OCRBackendNone
	ForceOCR   bool

	// post-processing
	ChunkContent                   bool
	MaxChars                       int
	MaxOverlap                     int
	ExtractEntities                bool
	ExtractKeywords                bool
	KeywordCount                   int
	AutoDetectLanguage              bool
	AutoDetectDocumentType          bool
	DocumentClassificationMode      DocumentClassificationMode
	DocumentTypeConfidenceThreshold float64

	// content shaping
	TokenReduction *TokenReductionConfig

	// images/tables
	ExtractTables         bool
	ExtractImages         bool
	OCRExtractedImages    bool
	ImageOCRBackend       OCRBackendKind
	ImageOCRMinDimensions Dimensions
	ImageOCRMaxDimensions Dimensions
	ImageOCRFormats       map[string]struct{}
	DeduplicateImages     bool

	// DPI
	TargetDPI         int
	MinDPI            int
	MaxDPI            int
	AutoAdjustDPI     bool
	MaxImageDimension int

	// reliability
	UseCache     bool
	PDFPasswords []string

	// extensibility
	Validators          []Validator
	PostProcessingHooks []PostProcessingHook
}

// Option mutates a config under construction. New applies options in
// order, then validates.
type Option func(*ExtractionConfig)

func WithOCRBackend(kind OCRBackendKind, cfg OcrConfig) Option {
	return func(c *ExtractionConfig) { c.OCRBackend = kind; c.OcrConfig = cfg }
}

func WithForceOCR(v bool) Option { return func(c *ExtractionConfig) { c.ForceOCR = v } }

func WithChunking(maxChars, maxOverlap int) Option {
	return func(c *ExtractionConfig) {
		c.ChunkContent = true
		c.MaxChars = maxChars
		c.MaxOverlap = maxOverlap
	}
}

func WithEntityExtraction() Option { return func(c *ExtractionConfig) { c.ExtractEntities = true } }

func WithKeywordExtraction(count int) Option {
	return func(c *ExtractionConfig) { c.ExtractKeywords = true; c.KeywordCount = count }
}

func WithLanguageDetection() Option {
	return func(c *ExtractionConfig) { c.AutoDetectLanguage = true }
}

func WithDocumentClassification(mode DocumentClassificationMode, threshold float64) Option {
	return func(c *ExtractionConfig) {
		c.AutoDetectDocumentType = true
		c.DocumentClassificationMode = mode
		c.DocumentTypeConfidenceThreshold = threshold
	}
}

func WithTokenReduction(tr TokenReductionConfig) Option {
	return func(c *ExtractionConfig) { c.TokenReduction = &tr }
}

func WithImages(extract, ocr, dedupe bool) Option {
	return func(c *ExtractionConfig) {
		c.ExtractImages = extract
		c.OCRExtractedImages = ocr
		c.DeduplicateImages = dedupe
	}
}

func WithTables(extract bool) Option { return func(c *ExtractionConfig) { c.ExtractTables = extract } }

func WithDPI(target, min, max int, autoAdjust bool, maxDim int) Option {
	return func(c *ExtractionConfig) {
		c.TargetDPI = target
		c.MinDPI = min
		c.MaxDPI = max
		c.AutoAdjustDPI = autoAdjust
		c.MaxImageDimension = maxDim
	}
}

func WithCache(v bool) Option { return func(c *ExtractionConfig) { c.UseCache = v } }

func WithValidators(v ...Validator) Option {
	return func(c *ExtractionConfig) { c.Validators = append(c.Validators, v...) }
}

func WithPostProcessingHooks(h ...PostProcessingHook) Option {
	return func(c *ExtractionConfig) { c.PostProcessingHooks = append(c.PostProcessingHooks, h...) }
}

// defaults mirrors the spec's implied defaults: chunking disabled unless
// requested, cache on, DPI 150/72/600 with a 4000px cap.
func defaults() *ExtractionConfig {
	return &ExtractionConfig{
		OCRBackend:                      OCRBackendTesseract,
		UseCache:                        true,
		MaxChars:                        2000,
		MaxOverlap:                      200,
		KeywordCount:                    10,
		DocumentClassificationMode:      ClassificationModeText,
		DocumentTypeConfidenceThreshold: 0.6,
		TargetDPI:                       150,
		MinDPI:                          72,
		MaxDPI:                          600,
		MaxImageDimension:               4000,
		ImageOCRFormats:                 map[string]struct{}{"png": {}, "jpeg": {}, "jpg": {}, "tiff": {}, "bmp": {}},
	}
}

// New constructs an ExtractionConfig, applying opts in order and
// validating all cross-field invariants before returning. Validation
// errors are raised at construction (spec §3 invariant) as
// *errors.KreuzbergError of kind ValidationError.
func New(opts ...Option) (*ExtractionConfig, error) {
	c := defaults()
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ExtractionConfig) validate() error {
	if c.MaxChars <= 0 {
		return kerrors.NewValidationError("max_chars must be > 0", map[string]interface{}{"max_chars": c.MaxChars})
	}
	if c.MaxOverlap < 0 || c.MaxOverlap >= c.MaxChars {
		return kerrors.NewValidationError("max_overlap must be >= 0 and < max_chars", map[string]interface{}{
			"max_overlap": c.MaxOverlap, "max_chars": c.MaxChars,
		})
	}
	if c.ExtractKeywords && c.KeywordCount <= 0 {
		return kerrors.NewValidationError("keyword_count must be > 0 when extract_keywords is set", map[string]interface{}{
			"keyword_count": c.KeywordCount,
		})
	}
	if c.DocumentTypeConfidenceThreshold < 0 || c.DocumentTypeConfidenceThreshold > 1 {
		return kerrors.NewValidationError("document_type_confidence_threshold must be in [0,1]", map[string]interface{}{
			"threshold": c.DocumentTypeConfidenceThreshold,
		})
	}
	if c.MinDPI >= c.MaxDPI {
		return kerrors.NewValidationError("min_dpi must be < max_dpi", map[string]interface{}{
			"min_dpi": c.MinDPI, "max_dpi": c.MaxDPI,
		})
	}
	if c.TargetDPI < c.MinDPI || c.TargetDPI > c.MaxDPI {
		return kerrors.NewValidationError("target_dpi must be within [min_dpi, max_dpi]", map[string]interface{}{
			"target_dpi": c.TargetDPI, "min_dpi": c.MinDPI, "max_dpi": c.MaxDPI,
		})
	}
	if c.MaxImageDimension <= 0 {
		return kerrors.NewValidationError("max_image_dimension must be > 0", nil)
	}
	if c.OCRBackend != OCRBackendNone && c.OcrConfig != nil && c.OcrConfig.Backend() != c.OCRBackend {
		return kerrors.NewValidationError("ocr_config variant does not match ocr_backend", map[string]interface{}{
			"ocr_backend": c.OCRBackend, "ocr_config_backend": c.OcrConfig.Backend(),
		})
	}
	if c.OCRBackend == OCRBackendTesseract {
		if tc, ok := c.OcrConfig.(TesseractConfig); ok {
			if tc.PSM < 0 || tc.PSM > 13 {
				return kerrors.NewValidationError("tesseract psm must be in [0,13]", map[string]interface{}{"psm": tc.PSM})
			}
		}
	}
	return nil
}

// ContentHash derives a stable, deterministic key of the config for
// cache-key composition (spec §3, §4.3): the sorted, stringified
// key-value view of the fields that affect extraction output, joined
// with "|". The string is returned unhashed; the cache-key builders in
// internal/orchestrator hash it together with the input.
func (c *ExtractionConfig) ContentHash() string {
	pairs := []string{
		fmt.Sprintf("ocr_backend=%s", c.OCRBackend),
		fmt.Sprintf("ocr_config=%+v", c.OcrConfig),
		fmt.Sprintf("force_ocr=%v", c.ForceOCR),
		fmt.Sprintf("chunk_content=%v,max_chars=%d,max_overlap=%d", c.ChunkContent, c.MaxChars, c.MaxOverlap),
		fmt.Sprintf("extract_entities=%v", c.ExtractEntities),
		fmt.Sprintf("extract_keywords=%v,keyword_count=%d", c.ExtractKeywords, c.KeywordCount),
		fmt.Sprintf("auto_detect_language=%v", c.AutoDetectLanguage),
		fmt.Sprintf("auto_detect_document_type=%v,mode=%s,threshold=%f", c.AutoDetectDocumentType, c.DocumentClassificationMode, c.DocumentTypeConfidenceThreshold),
		fmt.Sprintf("extract_tables=%v,extract_images=%v,ocr_extracted_images=%v,dedupe=%v", c.ExtractTables, c.ExtractImages, c.OCRExtractedImages, c.DeduplicateImages),
		fmt.Sprintf("image_ocr_min=%v,image_ocr_max=%v,image_ocr_formats=%v", c.ImageOCRMinDimensions, c.ImageOCRMaxDimensions, c.ImageOCRFormats),
		fmt.Sprintf("dpi=%d/%d/%d,auto=%v,maxdim=%d", c.TargetDPI, c.MinDPI, c.MaxDPI, c.AutoAdjustDPI, c.MaxImageDimension),
		fmt.Sprintf("use_cache=%v", c.UseCache),
	}
	if c.TokenReduction != nil {
		pairs = append(pairs, fmt.Sprintf("token_reduction=%s,md=%v,lang=%s", c.TokenReduction.Mode, c.TokenReduction.PreserveMarkdown, c.TokenReduction.LanguageHint))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "|")
}
