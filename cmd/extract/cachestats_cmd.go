package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adverant/kreuzberg-go/internal/logging"
)

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache-stats",
		Short: "Report on-disk cache size and entry count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("cache-stats")
			_, c, cleanup, err := buildOrchestrator(logger)
			if err != nil {
				return err
			}
			defer cleanup()

			stats := c.Stats()
			fmt.Printf("root:        %s\n", stats.Root)
			fmt.Printf("entries:     %d\n", stats.Entries)
			fmt.Printf("total bytes: %d\n", stats.TotalBytes)
			if stats.MaxBytes > 0 {
				fmt.Printf("max bytes:   %d\n", stats.MaxBytes)
			}
			return nil
		},
	}
}
