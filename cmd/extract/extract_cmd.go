package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adverant/kreuzberg-go/internal/config"
	"github.com/adverant/kreuzberg-go/internal/logging"
	"github.com/adverant/kreuzberg-go/internal/types"
)

func newExtractCmd() *cobra.Command {
	var (
		mimeHint      string
		forceOCR      bool
		ocrBackend    string
		lang          string
		chunk         bool
		extractImages bool
		ocrImages     bool
		dedupeImages  bool
	)

	cmd := &cobra.Command{
		Use:   "extract <path>",
		Short: "Extract a single document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("extract")
			o, _, cleanup, err := buildOrchestrator(logger)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := []config.Option{config.WithForceOCR(forceOCR)}
			if chunk {
				opts = append(opts, config.WithChunking(2000, 200))
			}
			if ocrBackend == string(config.OCRBackendTesseract) {
				opts = append(opts, config.WithOCRBackend(config.OCRBackendTesseract, config.TesseractConfig{Language: langOrDefault(lang)}))
			} else if ocrBackend == string(config.OCRBackendNone) {
				opts = append(opts, config.WithOCRBackend(config.OCRBackendNone, nil))
			}
			if extractImages {
				opts = append(opts, config.WithImages(extractImages, ocrImages, dedupeImages))
			}

			cfg, err := config.New(opts...)
			if err != nil {
				return err
			}

			result, err := o.ExtractFile(cmd.Context(), args[0], types.MediaType(mimeHint), cfg)
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}

	cmd.Flags().StringVar(&mimeHint, "mime", "", "media type hint (skips sniffing)")
	cmd.Flags().BoolVar(&forceOCR, "force-ocr", false, "skip the text-first attempt and rasterize+OCR directly")
	cmd.Flags().StringVar(&ocrBackend, "ocr-backend", "tesseract", "OCR backend: tesseract|none (any other value keeps tesseract)")
	cmd.Flags().StringVar(&lang, "lang", "eng", "Tesseract language code(s), e.g. eng or eng+deu")
	cmd.Flags().BoolVar(&chunk, "chunk", false, "split content into overlapping chunks")
	cmd.Flags().BoolVar(&extractImages, "extract-images", false, "extract embedded images")
	cmd.Flags().BoolVar(&ocrImages, "ocr-images", false, "OCR each extracted image (requires --extract-images)")
	cmd.Flags().BoolVar(&dedupeImages, "dedupe-images", false, "skip OCR for byte-identical duplicate images")
	return cmd
}

func langOrDefault(lang string) string {
	if lang == "" {
		return "eng"
	}
	return lang
}

func printResult(result *types.ExtractionResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
