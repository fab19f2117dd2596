// Package errors implements the KreuzbergError taxonomy: a small set of
// error kinds (not Go types) distinguished by a Kind tag, each carrying a
// context map and an optional wrapped cause, plus the must_bubble
// propagation predicate that the orchestrator and batch scheduler use to
// decide whether a failure should stop the pipeline or be trapped.
package errors

import (
	"fmt"
	"time"
)

// Kind enumerates the error taxonomy. These are kinds, not distinct Go
// types: every KreuzbergError carries exactly one Kind.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindParsing           Kind = "PARSING_ERROR"
	KindOCR               Kind = "OCR_ERROR"
	KindMissingDependency Kind = "MISSING_DEPENDENCY_ERROR"
	KindResource          Kind = "RESOURCE_ERROR"
	KindInternalPanic     Kind = "INTERNAL_PANIC"
)

// Site classifies the call-site context must_bubble decides against, per
// spec §7: the same error kind bubbles or traps differently depending on
// whether it surfaced during a single extraction, a batch item, or an
// optional post-processing feature.
type Site string

const (
	SiteSingleExtraction Site = "single_extraction"
	SiteBatchProcessing  Site = "batch_processing"
	SiteOptionalFeature  Site = "optional_feature"
)

// KreuzbergError is the base error: it wraps any Kind with a context map.
type KreuzbergError struct {
	Kind      Kind
	Message   string
	Context   map[string]interface{}
	Cause     error
	Timestamp time.Time
}

func (e *KreuzbergError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *KreuzbergError) Unwrap() error {
	return e.Cause
}

// ToMap serializes the error for metadata.error / metadata.error_context
// assembly in the batch scheduler (spec §4.4, §7).
func (e *KreuzbergError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"kind":      string(e.Kind),
		"message":   e.Message,
		"timestamp": e.Timestamp,
	}
	for k, v := range e.Context {
		result[k] = v
	}
	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}
	return result
}

func new_(kind Kind, msg string, ctx map[string]interface{}, cause error) *KreuzbergError {
	return &KreuzbergError{Kind: kind, Message: msg, Context: ctx, Cause: cause, Timestamp: time.Now()}
}

func NewValidationError(msg string, ctx map[string]interface{}) *KreuzbergError {
	return new_(KindValidation, msg, ctx, nil)
}

func NewParsingError(msg string, ctx map[string]interface{}, cause error) *KreuzbergError {
	return new_(KindParsing, msg, ctx, cause)
}

func NewOCRError(msg string, ctx map[string]interface{}, cause error) *KreuzbergError {
	return new_(KindOCR, msg, ctx, cause)
}

func NewMissingDependencyError(msg string, ctx map[string]interface{}) *KreuzbergError {
	return new_(KindMissingDependency, msg, ctx, nil)
}

func NewResourceError(msg string, ctx map[string]interface{}) *KreuzbergError {
	return new_(KindResource, msg, ctx, nil)
}

func NewInternalPanicError(recovered interface{}) *KreuzbergError {
	return new_(KindInternalPanic, fmt.Sprintf("recovered panic: %v", recovered), nil, nil)
}

// AsKreuzbergError extracts a *KreuzbergError from err, if any is present
// anywhere in its Unwrap chain.
func AsKreuzbergError(err error) (*KreuzbergError, bool) {
	for err != nil {
		if ke, ok := err.(*KreuzbergError); ok {
			return ke, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}

// MustBubble implements the context-sensitive propagation predicate from
// spec §7. It decides whether a guarded stage or batch item should let err
// propagate (true) or trap it (false).
func MustBubble(err error, site Site) bool {
	if err == nil {
		return false
	}
	ke, ok := AsKreuzbergError(err)
	if !ok {
		// Unclassified errors (e.g. a recovered panic wrapped by the
		// caller, or a plain stdlib error) are treated conservatively:
		// always bubble, matching the "system-critical always bubbles"
		// rule for anything outside the known taxonomy.
		return true
	}

	switch ke.Kind {
	case KindMissingDependency:
		// A misconfigured environment deserves an operator signal,
		// regardless of site.
		return true
	case KindInternalPanic:
		return true
	case KindValidation:
		switch site {
		case SiteBatchProcessing, SiteOptionalFeature:
			return false
		default:
			return true
		}
	default: // Parsing, OCR, Resource, and the KreuzbergError base itself
		switch site {
		case SiteOptionalFeature:
			return false
		case SiteBatchProcessing:
			return false
		default:
			return true
		}
	}
}
