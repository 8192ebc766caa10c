package llm

import (
	"context"
	"iter"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// Provider names
	providerNameOpenAI = "openai"
	providerNameGroq   = "groq"

	// GroqBaseURL is Groq's OpenAI-compatible endpoint
	GroqBaseURL = "https://api.groq.com/openai/v1"

	// Logging limits
	maxLogEventCountOpenAI = 5
)

// OpenAIProvider implements the Provider interface using the Chat Completions
// streaming API. It also serves OpenAI-compatible backends such as Groq.
type OpenAIProvider struct {
	client       *openai.Client
	name         string
	includeUsage bool
}

// NewOpenAIProvider creates a provider for api.openai.com
func NewOpenAIProvider(apiKey string, opts ...option.RequestOption) *OpenAIProvider {
	return newOpenAICompatibleProvider(providerNameOpenAI, apiKey, "", true, opts...)
}

// NewGroqProvider creates a provider for Groq. baseURL may be empty.
func NewGroqProvider(apiKey, baseURL string, opts ...option.RequestOption) *OpenAIProvider {
	if baseURL == "" {
		baseURL = GroqBaseURL
	}
	return newOpenAICompatibleProvider(providerNameGroq, apiKey, baseURL, false, opts...)
}

func newOpenAICompatibleProvider(
	name, apiKey, baseURL string, includeUsage bool, opts ...option.RequestOption,
) *OpenAIProvider {
	// Failed calls become inline error text; retries are not ours to make
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	clientOpts = append(clientOpts, opts...)

	client := openai.NewClient(clientOpts...)
	return &OpenAIProvider{
		client:       &client,
		name:         name,
		includeUsage: includeUsage,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// buildRequestParams converts a GenerationRequest into chat completion params
func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(request.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(request.SystemPrompt),
			openai.UserMessage(request.UserPrompt),
		},
		Temperature: openai.Float(request.Temperature),
		TopP:        openai.Float(request.TopP),
	}

	if request.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(request.MaxOutputTokens))
	}

	if p.includeUsage {
		params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		}
	}

	return params
}

// GenerateStream streams text deltas as they arrive from the model
func (p *OpenAIProvider) GenerateStream(ctx context.Context, request *GenerationRequest) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		startTime := time.Now()
		log.Printf("🎵 %s STREAMING REQUEST STARTED (Model: %s)", p.name, request.Model)

		// Child span of the caller's span, if any
		span := sentry.StartSpan(ctx, "llm.generate_stream")
		span.Description = p.name + ".generate_stream"
		defer span.Finish()

		span.SetTag("model", request.Model)
		span.SetTag("provider", p.name)
		span.SetTag("streaming", "true")

		stream := p.client.Chat.Completions.NewStreaming(ctx, p.buildRequestParams(request))
		defer stream.Close()

		var usage Usage
		eventCount := 0
		charCount := 0

		for stream.Next() {
			chunk := stream.Current()
			eventCount++

			if chunk.Usage.TotalTokens > 0 {
				usage = Usage{
					InputTokens:  int(chunk.Usage.PromptTokens),
					OutputTokens: int(chunk.Usage.CompletionTokens),
					TotalTokens:  int(chunk.Usage.TotalTokens),
				}
			}

			if len(chunk.Choices) == 0 {
				continue
			}

			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}

			charCount += len(delta)
			if eventCount <= maxLogEventCountOpenAI {
				log.Printf("📥 %s chunk #%d: +%d chars (total: %d)", p.name, eventCount, len(delta), charCount)
			}

			if !yield(Fragment{Text: delta}) {
				// Consumer stopped; deferred Close aborts the HTTP stream
				span.SetTag("success", "false")
				span.SetTag("aborted", "true")
				return
			}
		}

		if err := stream.Err(); err != nil {
			log.Printf("❌ %s STREAM ERROR after %v: %v", p.name, time.Since(startTime), err)
			span.SetTag("success", "false")
			yield(newFailure(ctx, p.name, err))
			return
		}

		log.Printf("✅ %s STREAMING COMPLETE: %d events, %d chars, %v duration",
			p.name, eventCount, charCount, time.Since(startTime))
		span.SetTag("success", "true")
		yield(Done{Usage: usage})
	}
}
