// Package hooks defines the extensibility interfaces spec §4.4's
// pipeline dispatches through (validators at step 6, fail-fast; hooks
// at step 8, error-isolated) and provides example pluggable
// implementations (hooks/postgresstore, hooks/qdrantstore) adapted from
// the teacher's external-storage clients. Neither concrete
// implementation is a core dependency of the orchestrator: both are
// wired in as Validator/Hook values a caller may opt into.
package hooks

import (
	"context"

	"github.com/adverant/kreuzberg-go/internal/config"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// Validator and Hook are aliases of config's extensibility interfaces:
// config.ExtractionConfig is where a caller actually registers them
// (WithValidators/WithPostProcessingHooks), so this package's concrete
// implementations (postgresstore, qdrantstore) implement those
// interfaces directly rather than a parallel shape.
type Validator = config.Validator
type Hook = config.PostProcessingHook

// ValidatorFunc adapts a name and a plain function to Validator.
type ValidatorFunc struct {
	FuncName string
	Fn       func(ctx context.Context, result *types.ExtractionResult) error
}

func (f ValidatorFunc) Name() string { return f.FuncName }

func (f ValidatorFunc) Validate(ctx context.Context, result *types.ExtractionResult) error {
	return f.Fn(ctx, result)
}

// HookFunc adapts a name and a plain function to Hook.
type HookFunc struct {
	FuncName string
	Fn       func(ctx context.Context, result *types.ExtractionResult) error
}

func (f HookFunc) Name() string { return f.FuncName }

func (f HookFunc) Run(ctx context.Context, result *types.ExtractionResult) error {
	return f.Fn(ctx, result)
}
