package observability

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/Conceptual-Machines/lyrics-api/internal/config"
	"github.com/Conceptual-Machines/lyrics-api/internal/relay"
	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"
)

// Observation levels understood by Langfuse
const (
	levelDefault = model.ObservationLevel("DEFAULT")
	levelWarning = model.ObservationLevel("WARNING")
	levelError   = model.ObservationLevel("ERROR")
)

// LangfuseClient wraps the Langfuse client with our configuration
type LangfuseClient struct {
	client  *langfuse.Langfuse
	enabled bool
	ctx     context.Context
}

// InitializeLangfuse creates the Langfuse client. The caller owns it and
// passes it to whatever needs tracing.
func InitializeLangfuse(ctx context.Context, cfg *config.Config) *LangfuseClient {
	if !cfg.LangfuseEnabled || cfg.LangfuseSecretKey == "" {
		log.Println("⚠️  Langfuse not configured (LANGFUSE_ENABLED=false or LANGFUSE_SECRET_KEY not set)")
		return &LangfuseClient{enabled: false, ctx: ctx}
	}

	// The henomis SDK reads LANGFUSE_HOST and the key pair from the environment
	lf := langfuse.New(ctx)
	client := &LangfuseClient{
		client:  lf,
		enabled: true,
		ctx:     ctx,
	}

	log.Printf("✅ Langfuse initialized (host: %s)", cfg.LangfuseHost)
	log.Printf("🔍 Langfuse: Public key set: %v, Secret key set: %v",
		os.Getenv("LANGFUSE_PUBLIC_KEY") != "",
		os.Getenv("LANGFUSE_SECRET_KEY") != "")
	return client
}

// IsEnabled returns whether Langfuse is enabled
func (c *LangfuseClient) IsEnabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// StartTrace starts a new trace in Langfuse
func (c *LangfuseClient) StartTrace(ctx context.Context, name string, metadata map[string]interface{}) *Trace {
	if !c.IsEnabled() {
		return &Trace{enabled: false, ctx: ctx}
	}

	trace, err := c.client.Trace(&model.Trace{
		Name:     name,
		Metadata: metadata,
	})
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse trace: %v", err)
		return &Trace{enabled: false, ctx: ctx}
	}

	log.Printf("🔍 Langfuse: Created trace %s (name: %s)", trace.ID, name)
	return &Trace{
		trace:   trace,
		enabled: true,
		ctx:     ctx,
		client:  c.client,
	}
}

// Trace represents a Langfuse trace. One trace covers one lyrics request.
type Trace struct {
	trace   *model.Trace
	enabled bool
	ctx     context.Context
	client  *langfuse.Langfuse
}

// Enabled reports whether the trace is recorded
func (t *Trace) Enabled() bool {
	return t != nil && t.enabled
}

// Generation creates a new generation span within the trace
func (t *Trace) Generation(name string, startTime time.Time, metadata map[string]interface{}) *Generation {
	if !t.Enabled() {
		return &Generation{enabled: false, ctx: t.ctx}
	}

	gen, err := t.client.Generation(&model.Generation{
		TraceID:   t.trace.ID,
		Name:      name,
		StartTime: &startTime,
		Metadata:  metadata,
	}, nil)
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse generation: %v", err)
		return &Generation{enabled: false, ctx: t.ctx}
	}

	return &Generation{
		generation: gen,
		enabled:    true,
		ctx:        t.ctx,
		client:     t.client,
	}
}

// VersionFinished implements relay.Observer by recording one generation per version
func (t *Trace) VersionFinished(_ context.Context, report relay.VersionReport) {
	if !t.Enabled() {
		return
	}

	metadata := versionMetadata(report)
	gen := t.Generation("lyrics_version", time.Now().Add(-report.Duration), metadata)
	gen.Input([]map[string]interface{}{{"role": "user", "content": report.Prompt}})
	if report.Output != "" {
		gen.Output(report.Output)
	}
	gen.Model(report.Model)
	gen.Usage(usageFromReport(report))
	gen.SetLevel(levelFor(report.Outcome))
	gen.Finish()
}

// Finish completes the trace and flushes data to Langfuse
func (t *Trace) Finish() {
	if t.Enabled() && t.client != nil {
		// Flush waits for all queued events to be sent
		t.client.Flush(t.ctx)
		log.Printf("🔍 Langfuse: Flush completed for trace %s", t.trace.ID)
	}
}

// Generation represents a Langfuse generation span
type Generation struct {
	generation *model.Generation
	enabled    bool
	ctx        context.Context
	client     *langfuse.Langfuse
}

// Input sets the input for the generation
func (g *Generation) Input(input interface{}) {
	if g.enabled && g.generation != nil {
		g.generation.Input = input
	}
}

// Output sets the output for the generation
func (g *Generation) Output(output interface{}) {
	if g.enabled && g.generation != nil {
		g.generation.Output = output
	}
}

// Model sets the model name for the generation
func (g *Generation) Model(name string) {
	if g.enabled && g.generation != nil {
		g.generation.Model = name
	}
}

// Usage sets the token usage for the generation
func (g *Generation) Usage(usage model.Usage) {
	if g.enabled && g.generation != nil {
		g.generation.Usage = usage
	}
}

// SetLevel sets the level of the generation
func (g *Generation) SetLevel(level model.ObservationLevel) {
	if g.enabled && g.generation != nil {
		g.generation.Level = level
	}
}

// Finish completes the generation and sends it to Langfuse
func (g *Generation) Finish() {
	if g.enabled && g.generation != nil && g.client != nil {
		now := time.Now()
		g.generation.EndTime = &now
		if _, err := g.client.GenerationEnd(g.generation); err != nil {
			log.Printf("⚠️  Failed to end Langfuse generation: %v", err)
		}
	}
}

func versionMetadata(report relay.VersionReport) map[string]interface{} {
	cost := CalculateCost(report.Model, report.Usage)
	metadata := map[string]interface{}{
		"provider":    report.Provider,
		"model":       report.Model,
		"version":     report.Index + 1,
		"total":       report.Total,
		"outcome":     report.Outcome.String(),
		"chars":       report.Chars,
		"duration_ms": report.Duration.Milliseconds(),
		"cost_usd":    cost,
		"cost":        FormatCost(cost),
	}
	switch o := report.Outcome.(type) {
	case relay.UpstreamFailed:
		metadata["error"] = o.Err.Error()
	case relay.CallerGone:
		metadata["error"] = o.Err.Error()
	}
	return metadata
}

func usageFromReport(report relay.VersionReport) model.Usage {
	return model.Usage{
		Input:     report.Usage.InputTokens,
		Output:    report.Usage.OutputTokens,
		Total:     report.Usage.TotalTokens,
		Unit:      model.ModelUsageUnitTokens,
		TotalCost: CalculateCost(report.Model, report.Usage),
	}
}

func levelFor(outcome relay.Outcome) model.ObservationLevel {
	switch outcome.(type) {
	case relay.UpstreamFailed:
		return levelError
	case relay.Empty, relay.CallerGone:
		return levelWarning
	default:
		return levelDefault
	}
}
