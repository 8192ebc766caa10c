package llm

import (
	"context"
	"fmt"
	"iter"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	maxLogEventCount   = 5
	geminiUserRole     = "user"
)

// GeminiProvider implements the Provider interface using Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// buildGeminiContents wraps the user prompt in Gemini Content format
func (p *GeminiProvider) buildGeminiContents(request *GenerationRequest) []*genai.Content {
	return []*genai.Content{
		{
			Role:  geminiUserRole,
			Parts: []*genai.Part{{Text: request.UserPrompt}},
		},
	}
}

// buildGenerateConfig maps sampling parameters and the system instruction
func (p *GeminiProvider) buildGenerateConfig(request *GenerationRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(request.Temperature)),
		TopP:        genai.Ptr(float32(request.TopP)),
	}
	if request.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: request.SystemPrompt}},
		}
	}
	if request.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxOutputTokens)
	}
	return config
}

// GenerateStream implements streaming generation for Gemini
func (p *GeminiProvider) GenerateStream(ctx context.Context, request *GenerationRequest) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		startTime := time.Now()
		log.Printf("🎵 GEMINI STREAMING REQUEST STARTED (Model: %s)", request.Model)

		// Child span of the caller's span, if any
		span := sentry.StartSpan(ctx, "llm.generate_stream")
		span.Description = "gemini.generate_stream"
		defer span.Finish()

		span.SetTag("model", request.Model)
		span.SetTag("provider", providerNameGemini)
		span.SetTag("streaming", "true")

		stream := p.client.Models.GenerateContentStream(
			ctx, request.Model, p.buildGeminiContents(request), p.buildGenerateConfig(request),
		)

		var usage Usage
		eventCount := 0
		charCount := 0

		// Range-over-func: breaking out of the loop stops the underlying stream
		for chunk, err := range stream {
			if err != nil {
				log.Printf("❌ GEMINI STREAMING ERROR after %v: %v", time.Since(startTime), err)
				span.SetTag("success", "false")
				yield(newFailure(ctx, providerNameGemini, err))
				return
			}

			eventCount++

			if chunk.UsageMetadata != nil {
				usage = Usage{
					InputTokens:  int(chunk.UsageMetadata.PromptTokenCount),
					OutputTokens: int(chunk.UsageMetadata.CandidatesTokenCount),
					TotalTokens:  int(chunk.UsageMetadata.TotalTokenCount),
				}
			}

			text := chunkText(chunk)
			if text == "" {
				continue
			}

			charCount += len(text)
			if eventCount <= maxLogEventCount {
				log.Printf("✅ Gemini chunk #%d: +%d chars (total: %d)", eventCount, len(text), charCount)
			}

			if !yield(Fragment{Text: text}) {
				span.SetTag("success", "false")
				span.SetTag("aborted", "true")
				return
			}
		}

		log.Printf("⏱️  GEMINI STREAMING TIME: %v (%d chunks, %d chars)", time.Since(startTime), eventCount, charCount)
		span.SetTag("success", "true")
		yield(Done{Usage: usage})
	}
}

// chunkText concatenates the text parts of the first candidate
func chunkText(chunk *genai.GenerateContentResponse) string {
	if chunk == nil || len(chunk.Candidates) == 0 {
		return ""
	}
	candidate := chunk.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
