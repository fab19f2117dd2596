package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adverant/kreuzberg-go/internal/config"
	"github.com/adverant/kreuzberg-go/internal/logging"
)

func newBatchCmd() *cobra.Command {
	var forceOCR bool

	cmd := &cobra.Command{
		Use:   "batch <path> [path...]",
		Short: "Extract multiple documents concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("batch")
			o, _, cleanup, err := buildOrchestrator(logger)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg, err := config.New(config.WithForceOCR(forceOCR))
			if err != nil {
				return err
			}

			results := o.BatchExtractFile(cmd.Context(), args, cfg)
			data, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling batch results: %w", err)
			}
			fmt.Println(string(data))

			// Spec §6/§7: a batch call itself always "succeeds" at the
			// process level — per-item failures surface in metadata.error,
			// not the exit code.
			return nil
		},
	}
	cmd.Flags().BoolVar(&forceOCR, "force-ocr", false, "skip the text-first attempt and rasterize+OCR directly")
	return cmd
}
