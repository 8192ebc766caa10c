package llm

import (
	"context"
	"errors"
	"fmt"
)

// UpstreamError wraps a failure reported by, or while talking to, a provider
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call hit its deadline
func (e *UpstreamError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Canceled reports whether the call was canceled by its parent context
func (e *UpstreamError) Canceled() bool {
	return errors.Is(e.Err, context.Canceled)
}

// newFailure wraps err for provider and normalizes context errors so callers
// can match them with errors.Is even when the SDK flattens them.
func newFailure(ctx context.Context, provider string, err error) Failure {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %v", ctxErr, err)
	}
	return Failure{Err: &UpstreamError{Provider: provider, Err: err}}
}
