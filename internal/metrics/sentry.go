package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/lyrics-api/internal/llm"
	"github.com/Conceptual-Machines/lyrics-api/internal/relay"
	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics records request and generation metrics as Sentry spans
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	// Create a span for API request tracking using the request context
	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordTokenUsage records token usage for one upstream call
func (m *SentryMetrics) RecordTokenUsage(ctx context.Context, provider, model string, usage llm.Usage) {
	if !m.enabled || usage.TotalTokens == 0 {
		return
	}

	// Attach totals to the request transaction too, so they show on the trace
	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("llm.provider", provider)
		transaction.SetTag("llm.model", model)
		transaction.SetData("llm.total_tokens", usage.TotalTokens)
		transaction.SetData("llm.input_tokens", usage.InputTokens)
		transaction.SetData("llm.output_tokens", usage.OutputTokens)
	}

	span := sentry.StartSpan(ctx, "llm.token_usage")
	defer span.Finish()

	span.SetTag("provider", provider)
	span.SetTag("model", model)
	span.SetTag("total_tokens", fmt.Sprintf("%d", usage.TotalTokens))

	span.SetData("total_tokens", usage.TotalTokens)
	span.SetData("input_tokens", usage.InputTokens)
	span.SetData("output_tokens", usage.OutputTokens)

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Token Usage: %s", model)
}

// RecordGenerationDuration records how long one version took and how it ended
func (m *SentryMetrics) RecordGenerationDuration(ctx context.Context, duration time.Duration, outcome string) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "generation.version")
	defer span.Finish()

	success := outcome == relay.Completed{}.String()
	span.SetTag("success", fmt.Sprintf("%t", success))
	span.SetTag("outcome", outcome)

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("outcome", outcome)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("Generation Version: %s", outcome)
}

// VersionFinished implements relay.Observer
func (m *SentryMetrics) VersionFinished(ctx context.Context, report relay.VersionReport) {
	m.RecordGenerationDuration(ctx, report.Duration, report.Outcome.String())
	m.RecordTokenUsage(ctx, report.Provider, report.Model, report.Usage)
}
