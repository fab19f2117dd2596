// Package ocr implements the OCR Subsystem (component D, spec §4.7):
// subprocess-driven Tesseract invocation with PSM/OEM control,
// TSV-to-table reconstruction, image pre-processing, and the per-image
// OCR pipeline. EasyOCR and PaddleOCR are specified only as abstract
// backends with the same operation set (spec §4.7); Backend below is
// that shared contract, with Tesseract the one concrete implementation.
//
// Grounded on the teacher's internal/processor/tesseract_ocr.go for the
// overall shape (a small OCR-backend type wrapping text extraction with
// a confidence estimate), but the invocation mechanism itself is
// rebuilt: the teacher calls the cgo otiai10/gosseract binding, which
// cannot express the spec's literal subprocess argv, the --psm/--oem
// flags, the per-process memoized version gate, or TSV output mode —
// none of which a cgo library client controls. Dropped per SPEC_FULL
// §11.3; replaced with os/exec, matching the "subprocess call" the spec
// names explicitly.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adverant/kreuzberg-go/internal/cache"
	"github.com/adverant/kreuzberg-go/internal/config"
	kerrors "github.com/adverant/kreuzberg-go/internal/errors"
	"github.com/adverant/kreuzberg-go/internal/logging"
	"github.com/adverant/kreuzberg-go/internal/pool"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// Backend is the shared OCR backend contract (spec §4.7.1), collapsed
// from six operations (process_image/_sync, process_file/_sync,
// process_batch/_sync) to three context-aware methods — sync/async is a
// ctx-cancellation concern in Go, not a distinct method pair.
type Backend interface {
	ProcessImage(ctx context.Context, data []byte, cfg *config.TesseractConfig) (*types.ExtractionResult, error)
	ProcessFile(ctx context.Context, path string, cfg *config.TesseractConfig) (*types.ExtractionResult, error)
	ProcessBatch(ctx context.Context, items []BatchItem, cfg *config.TesseractConfig) []BatchOutcome
}

// BatchItem is one unit of a ProcessBatch call; exactly one of Data or
// Path should be set.
type BatchItem struct {
	Data []byte
	Path string
}

// BatchOutcome pairs a batch item's outcome, preserving input order.
type BatchOutcome struct {
	Result *types.ExtractionResult
	Err    error
}

var versionGateOnce sync.Once
var versionGateErr error

// Tesseract is the concrete backend. It shells out to the tesseract
// binary for every call; no state is retained across calls beyond the
// memoized version check and the shared cache/pool collaborators.
type Tesseract struct {
	binaryPath string
	cache      *cache.Cache
	pool       *pool.Manager
	logger     *logging.Logger
}

// New constructs a Tesseract backend. binaryPath is typically
// config.ProcessConfig.TesseractPath (env TESSERACT_CMD, default
// "tesseract"). cache and workerPool are the shared, process-lifetime
// singletons from components B and A; either may be nil to disable
// result caching or process-pool execution respectively.
func New(binaryPath string, c *cache.Cache, workerPool *pool.Manager, logger *logging.Logger) *Tesseract {
	if binaryPath == "" {
		binaryPath = "tesseract"
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Tesseract{binaryPath: binaryPath, cache: c, pool: workerPool, logger: logger}
}

var versionPattern = regexp.MustCompile(`tesseract\s+v?(\d+)\.(\d+)\.(\d+)`)

// checkVersion runs `tesseract --version` once per process (spec
// §4.7.2: "This check is memoized per process") and fails with
// MissingDependencyError if the major version is below 5.
func (t *Tesseract) checkVersion(ctx context.Context) error {
	versionGateOnce.Do(func() {
		cmd := exec.CommandContext(ctx, t.binaryPath, "--version")
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out
		if err := cmd.Run(); err != nil {
			versionGateErr = kerrors.NewMissingDependencyError(
				"tesseract binary not runnable", map[string]interface{}{"path": t.binaryPath, "error": err.Error()})
			return
		}
		m := versionPattern.FindStringSubmatch(strings.ToLower(out.String()))
		if m == nil {
			versionGateErr = kerrors.NewMissingDependencyError(
				"could not parse tesseract version", map[string]interface{}{"output": out.String()})
			return
		}
		major, _ := strconv.Atoi(m[1])
		if major < 5 {
			versionGateErr = kerrors.NewMissingDependencyError(
				"tesseract major version too old, need >= 5", map[string]interface{}{"found": m[0]})
		}
	})
	return versionGateErr
}

// validateLanguages implements spec §4.7.2 language validation.
func validateLanguages(lang string) error {
	parts := strings.Split(lang, "+")
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if _, ok := allowedLanguages[p]; !ok {
			return kerrors.NewValidationError(
				"unrecognized tesseract language code",
				map[string]interface{}{"code": p, "allowed": LanguageCodes()})
		}
	}
	return nil
}

// ProcessImage runs OCR over in-memory image bytes.
func (t *Tesseract) ProcessImage(ctx context.Context, data []byte, cfg *config.TesseractConfig) (*types.ExtractionResult, error) {
	key := imageCacheKey(data, cfg)
	return t.processCached(ctx, key, cfg, func(tmpDir string) (string, error) {
		inPath := filepath.Join(tmpDir, "input.png")
		if err := os.WriteFile(inPath, data, 0o644); err != nil {
			return "", fmt.Errorf("writing temp image: %w", err)
		}
		return inPath, nil
	})
}

// ProcessFile runs OCR over a file already on disk.
func (t *Tesseract) ProcessFile(ctx context.Context, path string, cfg *config.TesseractConfig) (*types.ExtractionResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, kerrors.NewValidationError("file not found", map[string]interface{}{"path": path})
	}
	key := fileCacheKey(path, info, cfg)
	return t.processCached(ctx, key, cfg, func(tmpDir string) (string, error) {
		return path, nil
	})
}

// ProcessBatch runs OCR over many items. Spec §4.7.2: thread-pool
// execution for small batches (<=3), process-pool (component A) for
// larger ones, to amortize worker warm-up.
func (t *Tesseract) ProcessBatch(ctx context.Context, items []BatchItem, cfg *config.TesseractConfig) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(items))
	run := func(i int) {
		item := items[i]
		var result *types.ExtractionResult
		var err error
		if item.Path != "" {
			result, err = t.ProcessFile(ctx, item.Path, cfg)
		} else {
			result, err = t.ProcessImage(ctx, item.Data, cfg)
		}
		outcomes[i] = BatchOutcome{Result: result, Err: err}
	}

	if t.pool == nil || len(items) <= 3 {
		var wg sync.WaitGroup
		for i := range items {
			i := i
			wg.Add(1)
			go func() { defer wg.Done(); run(i) }()
		}
		wg.Wait()
		return outcomes
	}

	tasks := make([]pool.Task, len(items))
	for i := range items {
		i := i
		tasks[i] = func(ctx context.Context) (interface{}, error) {
			run(i)
			return nil, outcomes[i].Err
		}
	}
	t.pool.SubmitBatch(ctx, tasks, 50, pool.OptimalWorkerCount(len(items), true), false)
	return outcomes
}

// processCached implements the single-flight cache wiring from spec
// §4.7.2's "Per-image / per-file OCR cache" clause: probe, mark
// processing, run, set, mark complete — mark_complete always fires,
// including on error, via defer.
func (t *Tesseract) processCached(ctx context.Context, key string, cfg *config.TesseractConfig, materialize func(tmpDir string) (string, error)) (result *types.ExtractionResult, err error) {
	if t.cache != nil {
		if cached, hit := t.cache.Get(ctx, key); hit {
			return cached, nil
		}
		if !t.cache.MarkProcessing(key) {
			awaited, _, aerr := t.cache.Await(ctx, key)
			return awaited, aerr
		}
		defer func() {
			if r := recover(); r != nil {
				err = kerrors.NewInternalPanicError(r)
			}
			t.cache.MarkComplete(key, result, err)
		}()
	}

	if verr := t.checkVersion(ctx); verr != nil {
		return nil, verr
	}
	if verr := validateLanguages(cfg.Language); verr != nil {
		return nil, verr
	}

	tmpDir, derr := os.MkdirTemp("", "kreuzberg-ocr-*")
	if derr != nil {
		return nil, kerrors.NewResourceError("creating temp dir for OCR", map[string]interface{}{"error": derr.Error()})
	}
	defer os.RemoveAll(tmpDir)

	inputPath, merr := materialize(tmpDir)
	if merr != nil {
		return nil, kerrors.NewResourceError("materializing OCR input", map[string]interface{}{"error": merr.Error()})
	}

	result, err = t.invoke(ctx, inputPath, tmpDir, cfg)
	return result, err
}

// invoke runs the tesseract subprocess with the literal argv from spec
// §4.7.2 and reads back its output.
func (t *Tesseract) invoke(ctx context.Context, inputPath, tmpDir string, cfg *config.TesseractConfig) (*types.ExtractionResult, error) {
	outputBase := filepath.Join(tmpDir, "output")

	wantTSV := cfg.EnableTableDetection || cfg.OutputFormat == "tsv"
	args := []string{inputPath, outputBase, "-l", cfg.Language, "--psm", strconv.Itoa(cfg.PSM), "--oem", "1", "--loglevel", "OFF"}
	switch {
	case wantTSV:
		args = append(args, "tsv")
	case cfg.OutputFormat == "hocr":
		args = append(args, "hocr")
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if cfg.TimeoutSeconds > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, t.binaryPath, args...)
	if runtime.GOOS == "linux" {
		cmd.Env = append(os.Environ(), "OMP_THREAD_LIMIT=1")
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		if runCtx.Err() != nil {
			return nil, kerrors.NewOCRError("tesseract timed out", map[string]interface{}{"timeout_seconds": cfg.TimeoutSeconds}, runCtx.Err())
		}
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			if !exitErr.ProcessState.Exited() {
				return nil, kerrors.NewOCRError("tesseract subprocess was killed by a signal", map[string]interface{}{
					"stderr": stderr.String(), "signal": exitErr.ProcessState.String(),
				}, runErr)
			}
			return nil, kerrors.NewOCRError("tesseract exited with an error", map[string]interface{}{
				"stderr": stderr.String(), "exit_code": exitErr.ExitCode(),
			}, runErr)
		}
		return nil, kerrors.NewOCRError("tesseract subprocess failed", map[string]interface{}{"stderr": stderr.String()}, runErr)
	}

	var tables []types.TableData
	var content string
	tablesDetected := 0
	sourceFormat := "text"

	switch {
	case wantTSV:
		sourceFormat = "tsv"
		tsvData, rerr := os.ReadFile(outputBase + ".tsv")
		if rerr != nil {
			return nil, kerrors.NewOCRError("reading tesseract tsv output", map[string]interface{}{"path": outputBase + ".tsv"}, rerr)
		}
		words, perr := ParseTSV(tsvData)
		if perr != nil {
			return nil, kerrors.NewOCRError("parsing tesseract tsv output", nil, perr)
		}
		table := ReconstructTable(words, cfg.MinConfidence, float64(cfg.TableColumnThreshold), cfg.TableRowThresholdRatio)
		if table != nil {
			tables = append(tables, *table)
			tablesDetected = 1
			content = table.Text
		}
	case cfg.OutputFormat == "hocr":
		sourceFormat = "hocr"
		data, rerr := os.ReadFile(outputBase + ".hocr")
		if rerr != nil {
			return nil, kerrors.NewOCRError("reading tesseract hocr output", nil, rerr)
		}
		content = normalizeWhitespace(string(data))
	default:
		data, rerr := os.ReadFile(outputBase + ".txt")
		if rerr != nil {
			return nil, kerrors.NewOCRError("reading tesseract text output", nil, rerr)
		}
		content = normalizeWhitespace(string(data))
	}

	result := &types.ExtractionResult{
		Content:  content,
		MimeType: types.MediaTypeMarkdown,
		Tables:   tables,
		Metadata: map[string]interface{}{
			"source_format":   sourceFormat,
			"tables_detected": tablesDetected,
		},
	}
	return result, nil
}

// normalizeWhitespace collapses whitespace runs to a single space and
// caps consecutive blank lines at two newlines (spec §4.7.2 "Output
// reading").
func normalizeWhitespace(s string) string {
	var b strings.Builder
	lastWasSpace := false
	newlineRun := 0
	for _, r := range s {
		if r == '\n' {
			newlineRun++
			if newlineRun <= 2 {
				b.WriteRune(r)
			}
			lastWasSpace = false
			continue
		}
		newlineRun = 0
		if r == ' ' || r == '\t' || r == '\r' {
			if !lastWasSpace {
				b.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func imageCacheKey(data []byte, cfg *config.TesseractConfig) string {
	return hashParts("image", sha256Hex(data), "tesseract", cfg.Language, strconv.Itoa(cfg.PSM))
}

func fileCacheKey(path string, info os.FileInfo, cfg *config.TesseractConfig) string {
	return hashParts("file", path, strconv.FormatInt(info.Size(), 10), info.ModTime().String(), "tesseract", cfg.Language, strconv.Itoa(cfg.PSM))
}
