// Package types defines the engine's data model: MediaType, the
// ExtractionResult and its nested artifacts (entities, tables, images,
// image OCR results), the OCR-intermediate TSVWord, and DeviceInfo.
// ExtractionConfig lives in internal/config since its construction-time
// validation is substantial enough to warrant its own package.
package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// MediaType is an opaque, case-sensitive ASCII MIME string, e.g.
// "application/pdf". Equality is exact; extractors may additionally
// match by prefix (see internal/registry).
type MediaType string

const (
	MediaTypePlainText MediaType = "text/plain"
	MediaTypeMarkdown  MediaType = "text/markdown"
)

// Entity is a named span located in ExtractionResult.Content.
type Entity struct {
	Type  string
	Text  string
	Start int
	End   int
}

// TableData is a reconstructed table, typically produced by the OCR
// TSV-to-Markdown pipeline (see internal/ocr) but also producible by
// extractors with native table support (e.g. DOCX, XLSX).
type TableData struct {
	PageNumber   int
	Text         string // Markdown rendering
	CroppedImage []byte // optional
	Grid         [][]string
}

// ExtractedImage is an image pulled out of a document during extraction.
// Its identity for deduplication purposes is the SHA-256 of Data.
type ExtractedImage struct {
	Data        []byte
	Format      string
	Filename    string
	PageNumber  *int
	Width       int
	Height      int
	HasDims     bool
	Description string
}

// Hash returns the content-addressed identity used for deduplication
// (spec §4.7.4 step 3) and for the OCR per-image cache key (§4.7.2).
func (img ExtractedImage) Hash() string {
	sum := sha256.Sum256(img.Data)
	return hex.EncodeToString(sum[:])
}

// ImageOCRResult pairs an ExtractedImage with the OCR outcome run over
// it. It is never used as a map key (it embeds an ExtractionResult,
// which is not comparable); identity for dedup purposes goes through
// Image.Hash() instead.
type ImageOCRResult struct {
	Image           ExtractedImage
	OCRResult       *ExtractionResult
	ConfidenceScore *float64
	ProcessingTime  *float64
	SkippedReason   string
}

// LayoutWord is one entry of the tabular OCR layout grid used by vision
// document classification (spec §4.5); table reconstruction works on
// TSVWord instead.
type LayoutWord struct {
	Text            string
	Left, Top       int
	Width, Height   int
	Confidence      float64
	PageHeightRatio float64 // Top / page height, used by §4.5 header-bonus scoring
}

// TSVWord is the OCR intermediate row format emitted by Tesseract's TSV
// output mode (spec §3, §4.7.2).
type TSVWord struct {
	Level, Page, Block, Par, Line, Word int
	Left, Top, Width, Height            int
	Conf                                float64
	Text                                string
}

// DeviceType enumerates the compute device an OCR/ML backend ran on.
type DeviceType string

const (
	DeviceCPU  DeviceType = "cpu"
	DeviceCUDA DeviceType = "cuda"
	DeviceMPS  DeviceType = "mps"
)

// DeviceInfo reports the accelerator a backend executed on (spec §3,
// supplemented operation per SPEC_FULL §12 from original_source's
// _utils/_device.py).
type DeviceInfo struct {
	DeviceType          DeviceType
	DeviceID            *int
	MemoryTotalGB       *float64
	MemoryAvailableGB   *float64
	Name                string
}

// ExtractionResult is mutable during the post-processing pipeline and is
// frozen (by convention — callers must not mutate it) once returned from
// the orchestrator or stored in the cache.
type ExtractionResult struct {
	Content                 string
	MimeType                MediaType
	Metadata                map[string]interface{}
	Chunks                  []string
	Entities                []Entity // nil means "not requested / unavailable", distinct from empty
	Keywords                []Keyword
	DetectedLanguages       []string
	Tables                  []TableData
	Images                  []ExtractedImage
	ImageOCRResults         []ImageOCRResult
	DocumentType            string
	DocumentTypeConfidence  *float64
	Layout                  []LayoutWord
	Device                  *DeviceInfo
}

// Keyword is a (term, score) pair produced by keyword extraction.
type Keyword struct {
	Term  string
	Score float64
}

// EnsureMetadata initializes Metadata to an empty map if absent (spec
// §4.4 step 5).
func (r *ExtractionResult) EnsureMetadata() {
	if r.Metadata == nil {
		r.Metadata = map[string]interface{}{}
	}
}

// AppendProcessingError records a guarded-invocation trap (spec §7,
// §4.4 step 7) into metadata.processing_errors.
func (r *ExtractionResult) AppendProcessingError(feature, errType, errMessage string) {
	r.EnsureMetadata()
	entry := map[string]interface{}{
		"feature":       feature,
		"error_type":    errType,
		"error_message": errMessage,
	}
	existing, _ := r.Metadata["processing_errors"].([]map[string]interface{})
	r.Metadata["processing_errors"] = append(existing, entry)
}
