package api

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Conceptual-Machines/lyrics-api/internal/api/handlers"
	"github.com/Conceptual-Machines/lyrics-api/internal/config"
	"github.com/Conceptual-Machines/lyrics-api/internal/llm"
	"github.com/Conceptual-Machines/lyrics-api/internal/prompt"
	"github.com/Conceptual-Machines/lyrics-api/internal/relay"
	"github.com/Conceptual-Machines/lyrics-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedProvider answers each call with the next canned reply
type cannedProvider struct {
	mu      sync.Mutex
	replies [][]string
	failAt  map[int]error
	prompts []string
}

func (p *cannedProvider) Name() string { return "canned" }

func (p *cannedProvider) GenerateStream(_ context.Context, request *llm.GenerationRequest) iter.Seq[llm.Event] {
	p.mu.Lock()
	call := len(p.prompts)
	p.prompts = append(p.prompts, request.UserPrompt)
	p.mu.Unlock()

	return func(yield func(llm.Event) bool) {
		if call < len(p.replies) {
			for _, text := range p.replies[call] {
				if !yield(llm.Fragment{Text: text}) {
					return
				}
			}
		}
		if err, ok := p.failAt[call]; ok {
			yield(llm.Failure{Err: &llm.UpstreamError{Provider: "canned", Err: err}})
			return
		}
		yield(llm.Done{})
	}
}

func (p *cannedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

func setupTestRouter(t *testing.T, provider llm.Provider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	composer, err := prompt.NewComposer()
	require.NoError(t, err)

	r, err := relay.New(relay.Config{
		Provider:       provider,
		Params:         services.ParamsForModel("llama-3.1-8b-instant"),
		SystemPrompt:   composer.SystemInstruction(),
		VersionTimeout: time.Second,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		LLMProvider:     config.ProviderGroq,
		LLMModel:        "llama-3.1-8b-instant",
		MaxVersions:     5,
		UpstreamTimeout: time.Second,
		AllowedOrigins:  []string{"http://localhost:3000"},
	}

	return SetupRouter(Dependencies{Config: cfg, Composer: composer, Relay: r}, "test")
}

func postLyrics(router http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate_lyrics", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := setupTestRouter(t, &cannedProvider{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestMetrics(t *testing.T) {
	router := setupTestRouter(t, &cannedProvider{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp handlers.MetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, "groq", resp.Upstream.Provider)
	assert.Equal(t, 5, resp.Upstream.MaxVersions)
}

func TestGenerateLyrics_StreamsVersions(t *testing.T) {
	provider := &cannedProvider{replies: [][]string{
		{"Streetlights ", "hum"},
		{"Morning ", "breaks"},
	}}
	router := setupTestRouter(t, provider)

	w := postLyrics(router, `{
		"language": "English",
		"genre": "indie folk",
		"description": "leaving a small town",
		"emotions": ["wistful", "hopeful"],
		"version_count": 2
	}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no", w.Header().Get("X-Accel-Buffering"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "Version 1:\nStreetlights hum\n\nVersion 2:\nMorning breaks", w.Body.String())

	require.Equal(t, 2, provider.calls())
	assert.Contains(t, provider.prompts[0], "wistful, hopeful")
	assert.Contains(t, provider.prompts[1], "This is version 2 of 2.")
}

func TestGenerateLyrics_DefaultsToOneVersion(t *testing.T) {
	provider := &cannedProvider{replies: [][]string{{"la"}}}
	router := setupTestRouter(t, provider)

	w := postLyrics(router, `{"language":"English","genre":"pop","description":"summer"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Version 1:\nla", w.Body.String())
	assert.Equal(t, 1, provider.calls())
}

func TestGenerateLyrics_UpstreamFailureIsInline(t *testing.T) {
	provider := &cannedProvider{
		replies: [][]string{{"one"}, {"tw"}, {"three"}},
		failAt:  map[int]error{1: errors.New("rate limited")},
	}
	router := setupTestRouter(t, provider)

	w := postLyrics(router, `{"language":"English","genre":"rock","description":"x","version_count":3}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"Version 1:\none\n\nVersion 2:\ntwError generating lyrics: canned: rate limited\n\nVersion 3:\nthree",
		w.Body.String())
}

func TestGenerateLyrics_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{"zero versions", `{"language":"en","genre":"pop","description":"d","version_count":0}`, []string{"version_count"}},
		{"negative versions", `{"language":"en","genre":"pop","description":"d","version_count":-2}`, []string{"version_count"}},
		{"too many versions", `{"language":"en","genre":"pop","description":"d","version_count":6}`, []string{"version_count"}},
		{"missing fields", `{"language":"en"}`, []string{"genre", "description"}},
		{"malformed json", `{"language":`, []string{"body"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &cannedProvider{}
			router := setupTestRouter(t, provider)

			w := postLyrics(router, tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

			var resp handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.NotEmpty(t, resp.RequestID)

			var fields []string
			for _, d := range resp.Details {
				fields = append(fields, d.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
			assert.Zero(t, provider.calls(), "rejected requests must not reach the upstream")
		})
	}
}

func TestCORS(t *testing.T) {
	router := setupTestRouter(t, &cannedProvider{})

	preflight := httptest.NewRequest(http.MethodOptions, "/api/generate_lyrics", nil)
	preflight.Header.Set("Origin", "http://localhost:3000")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, preflight)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	other := httptest.NewRequest(http.MethodGet, "/health", nil)
	other.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, other)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
