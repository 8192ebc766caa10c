package llm

import (
	"context"
	"iter"
)

// Provider defines the interface for upstream text generation providers
type Provider interface {
	// GenerateStream opens one streaming generation call. The returned sequence
	// yields zero or more Fragment events followed by exactly one Done or
	// Failure. Iteration is pull based: the next upstream read happens only
	// after the consumer returns from handling the previous event. Stopping
	// early cancels the upstream call.
	GenerateStream(ctx context.Context, request *GenerationRequest) iter.Seq[Event]

	// Name returns the provider name (e.g., "groq", "openai", "gemini")
	Name() string
}

// GenerationRequest contains all parameters needed for one upstream call
type GenerationRequest struct {
	Model           string
	SystemPrompt    string
	UserPrompt      string
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
}

// Usage reports token counts for a completed call, when the provider returns them
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// AsMap returns usage in the shape used by logger.LogGenerationRequest
func (u Usage) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"input_tokens":  u.InputTokens,
		"output_tokens": u.OutputTokens,
		"total_tokens":  u.TotalTokens,
	}
}

// Event is one item of a generation stream: Fragment, Done or Failure
type Event interface {
	isEvent()
}

// Fragment carries one incremental chunk of generated text
type Fragment struct {
	Text string
}

// Done marks normal end of stream
type Done struct {
	Usage Usage
}

// Failure marks abnormal end of stream
type Failure struct {
	Err error
}

func (Fragment) isEvent() {}
func (Done) isEvent()     {}
func (Failure) isEvent()  {}
