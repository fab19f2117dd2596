// Command extract is the kreuzberg-go CLI entry point (spec §6): a thin
// cobra/viper shell around the core orchestrator, exposing extract,
// batch, and cache-stats subcommands. Config-file discovery
// (kreuzberg.toml, walking upward from the working directory) happens
// here, never in the core engine.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	kerrors "github.com/adverant/kreuzberg-go/internal/errors"
)

// Exit codes per spec §6.
const (
	exitSuccess             = 0
	exitExtractionFailure   = 1
	exitValidationFailure   = 2
	exitMissingDependency   = 3
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:          "extract",
		Short:        "Extract text, tables, and metadata from documents",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: kreuzberg.toml, discovered upward from cwd)")
	cobra.OnInitialize(initConfig)

	root.AddCommand(newExtractCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newCacheStatsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("kreuzberg")
		viper.SetConfigType("toml")
		for dir := mustGetwd(); ; {
			viper.AddConfigPath(dir)
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	viper.SetEnvPrefix("KREUZBERG")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}

func mustGetwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

// exitCodeFor maps a returned error to spec §6's exit-code contract.
func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}
	ke, ok := kerrors.AsKreuzbergError(err)
	if !ok {
		return exitExtractionFailure
	}
	switch ke.Kind {
	case kerrors.KindValidation:
		return exitValidationFailure
	case kerrors.KindMissingDependency:
		return exitMissingDependency
	default:
		return exitExtractionFailure
	}
}
