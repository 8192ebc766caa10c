package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Conceptual-Machines/lyrics-api/internal/llm"
	"github.com/Conceptual-Machines/lyrics-api/internal/logger"
	"github.com/Conceptual-Machines/lyrics-api/internal/services"
	"github.com/getsentry/sentry-go"
)

// Inline texts written to the outbound stream
const (
	Spacer           = "\n\n"
	ErrorPrefix      = "Error generating lyrics: "
	EmptyPlaceholder = "No lyrics were generated. Please try again."
)

// DefaultVersionTimeout bounds a single upstream call when none is configured
const DefaultVersionTimeout = 90 * time.Second

// ErrIncompleteStream is reported when a provider sequence ends without Done or Failure
var ErrIncompleteStream = errors.New("upstream stream ended without completing")

// Header returns the boundary marker written before version index
func Header(index int) string {
	return fmt.Sprintf("Version %d:\n", index+1)
}

// Config holds the dependencies of a Relay. Everything is fixed at startup.
type Config struct {
	Provider       llm.Provider
	Params         services.ParamsFunc
	SystemPrompt   string
	VersionTimeout time.Duration
	Observers      []Observer
}

// Relay streams one upstream generation per prompt into a single sink, in order
type Relay struct {
	provider       llm.Provider
	params         services.ParamsFunc
	systemPrompt   string
	versionTimeout time.Duration
	observers      []Observer
}

// New creates a relay from cfg
func New(cfg Config) (*Relay, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("relay: provider is required")
	}
	if cfg.Params == nil {
		return nil, fmt.Errorf("relay: params func is required")
	}
	timeout := cfg.VersionTimeout
	if timeout <= 0 {
		timeout = DefaultVersionTimeout
	}
	observers := make([]Observer, 0, len(cfg.Observers))
	for _, o := range cfg.Observers {
		if o != nil {
			observers = append(observers, o)
		}
	}
	return &Relay{
		provider:       cfg.Provider,
		params:         cfg.Params,
		systemPrompt:   cfg.SystemPrompt,
		versionTimeout: timeout,
		observers:      observers,
	}, nil
}

// Provider returns the upstream provider name
func (r *Relay) Provider() string {
	return r.provider.Name()
}

// WriteTimeout bounds a single write to the caller. A caller that accepts no
// bytes for this long is treated as gone.
func (r *Relay) WriteTimeout() time.Duration {
	return r.versionTimeout
}

// VersionResult describes how one version ended
type VersionResult struct {
	Index    int
	Outcome  Outcome
	Usage    llm.Usage
	Chars    int
	Duration time.Duration
}

// Result summarizes a relay run. It is for logging and metrics only; the
// caller learns about failures from the inline text.
type Result struct {
	Versions []VersionResult
	// Err is set when the caller went away before the relay finished
	Err error
}

// Completed reports whether every requested version ran to a terminal outcome
func (r Result) Completed(total int) bool {
	return r.Err == nil && len(r.Versions) == total
}

// Failures counts versions that ended with inline error text
func (r Result) Failures() int {
	n := 0
	for _, v := range r.Versions {
		if _, ok := v.Outcome.(UpstreamFailed); ok {
			n++
		}
	}
	return n
}

// Run relays prompts to sink, one upstream call at a time. It returns when the
// last version finishes or as soon as ctx is done or the sink stops accepting
// writes. extra observers are notified alongside the relay's own.
func (r *Relay) Run(ctx context.Context, prompts []string, sink Sink, extra ...Observer) Result {
	result := Result{Versions: make([]VersionResult, 0, len(prompts))}
	observers := r.observers
	if len(extra) > 0 {
		observers = append(append([]Observer{}, r.observers...), extra...)
	}

	for i, prompt := range prompts {
		if err := ctx.Err(); err != nil {
			logger.Warn("Caller gone before version started", logger.Fields{
				"version": i + 1,
				"error":   err.Error(),
			})
			result.Err = err
			break
		}

		vr, output := r.runVersion(ctx, i, prompt, sink)
		result.Versions = append(result.Versions, vr)
		r.notify(ctx, observers, VersionReport{
			VersionResult: vr,
			Total:         len(prompts),
			Provider:      r.provider.Name(),
			Model:         r.params(i).Model,
			Prompt:        prompt,
			Output:        output,
		})

		if gone, ok := vr.Outcome.(CallerGone); ok {
			result.Err = gone.Err
			break
		}

		if i < len(prompts)-1 {
			if err := sink.WriteFragment(Spacer); err != nil {
				logger.Warn("Caller gone while writing spacer", logger.Fields{"version": i + 1, "error": err.Error()})
				result.Err = err
				break
			}
		}
	}

	return result
}

func (r *Relay) runVersion(ctx context.Context, index int, prompt string, sink Sink) (VersionResult, string) {
	start := time.Now()
	vr := VersionResult{Index: index}

	span := sentry.StartSpan(ctx, "relay.version")
	span.SetTag("version", fmt.Sprintf("%d", index+1))
	span.SetTag("provider", r.provider.Name())
	defer span.Finish()

	if err := sink.WriteFragment(Header(index)); err != nil {
		vr.Outcome = CallerGone{Err: err}
		vr.Duration = time.Since(start)
		span.Status = sentry.SpanStatusCanceled
		return vr, ""
	}

	request := r.params(index)
	request.SystemPrompt = r.systemPrompt
	request.UserPrompt = prompt

	callCtx, cancel := context.WithTimeout(span.Context(), r.versionTimeout)
	defer cancel()

	var output strings.Builder
	var outcome Outcome

stream:
	for event := range r.provider.GenerateStream(callCtx, &request) {
		switch e := event.(type) {
		case llm.Fragment:
			if e.Text == "" {
				continue
			}
			if err := sink.WriteFragment(e.Text); err != nil {
				// Leaving the loop cancels the upstream call
				outcome = CallerGone{Err: err}
				break stream
			}
			output.WriteString(e.Text)
		case llm.Done:
			vr.Usage = e.Usage
			if output.Len() == 0 {
				outcome = Empty{}
			} else {
				outcome = Completed{}
			}
		case llm.Failure:
			outcome = classifyFailure(ctx, e.Err)
		}
	}

	if outcome == nil {
		if err := ctx.Err(); err != nil {
			outcome = CallerGone{Err: err}
		} else {
			outcome = UpstreamFailed{Err: ErrIncompleteStream}
		}
	}

	if text := r.trailer(outcome); text != "" {
		if err := sink.WriteFragment(text); err != nil {
			outcome = CallerGone{Err: err}
		}
	}

	vr.Outcome = outcome
	vr.Chars = output.Len()
	vr.Duration = time.Since(start)
	span.Status = spanStatus(outcome)
	r.logOutcome(ctx, request.Model, vr)

	return vr, output.String()
}

// classifyFailure separates a caller that went away from a failing upstream.
// parent is the request context, not the per-version one.
func classifyFailure(parent context.Context, err error) Outcome {
	if parentErr := parent.Err(); parentErr != nil {
		return CallerGone{Err: parentErr}
	}
	return UpstreamFailed{Err: err}
}

// trailer returns the inline text that closes a version
func (r *Relay) trailer(outcome Outcome) string {
	switch o := outcome.(type) {
	case Completed:
		return ""
	case Empty:
		return EmptyPlaceholder
	case UpstreamFailed:
		return ErrorPrefix + r.failureMessage(o.Err)
	case CallerGone:
		return ""
	default:
		panic(fmt.Sprintf("relay: unhandled outcome %T", outcome))
	}
}

func (r *Relay) failureMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("upstream timed out after %s", r.versionTimeout)
	}
	return err.Error()
}

func (r *Relay) logOutcome(ctx context.Context, model string, vr VersionResult) {
	fields := logger.Fields{
		"version":     vr.Index + 1,
		"provider":    r.provider.Name(),
		"outcome":     vr.Outcome.String(),
		"chars":       vr.Chars,
		"duration_ms": vr.Duration.Milliseconds(),
	}

	switch o := vr.Outcome.(type) {
	case UpstreamFailed:
		logger.Error("Version generation failed", o.Err, fields)
	case CallerGone:
		logger.Warn("Caller gone during version", fields.With(logger.Fields{"error": o.Err.Error()}))
	case Empty:
		logger.Warn("Version generated no text", fields)
	default:
		logger.LogGenerationRequest(ctx, model, vr.Duration, vr.Usage.AsMap(), fields)
	}
}

func (r *Relay) notify(ctx context.Context, observers []Observer, report VersionReport) {
	for _, o := range observers {
		o.VersionFinished(ctx, report)
	}
}

func spanStatus(outcome Outcome) sentry.SpanStatus {
	switch outcome.(type) {
	case Completed:
		return sentry.SpanStatusOK
	case Empty:
		return sentry.SpanStatusNotFound
	case CallerGone:
		return sentry.SpanStatusCanceled
	default:
		return sentry.SpanStatusInternalError
	}
}
