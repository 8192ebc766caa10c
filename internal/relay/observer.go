package relay

import (
	"context"
)

// VersionReport is handed to observers after each version ends
type VersionReport struct {
	VersionResult
	Total    int
	Provider string
	Model    string
	Prompt   string
	Output   string
}

// Observer is notified after every version. Implementations run on the
// request goroutine and must not block.
type Observer interface {
	VersionFinished(ctx context.Context, report VersionReport)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, report VersionReport)

// VersionFinished calls f
func (f ObserverFunc) VersionFinished(ctx context.Context, report VersionReport) {
	f(ctx, report)
}
