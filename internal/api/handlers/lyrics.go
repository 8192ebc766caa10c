package handlers

import (
	"net/http"
	"time"

	"github.com/Conceptual-Machines/lyrics-api/internal/logger"
	"github.com/Conceptual-Machines/lyrics-api/internal/models"
	"github.com/Conceptual-Machines/lyrics-api/internal/observability"
	"github.com/Conceptual-Machines/lyrics-api/internal/prompt"
	"github.com/Conceptual-Machines/lyrics-api/internal/relay"
	"github.com/gin-gonic/gin"
)

// LyricsHandler serves POST /api/generate_lyrics
type LyricsHandler struct {
	composer    *prompt.Composer
	relay       *relay.Relay
	maxVersions int
	tracer      *observability.LangfuseClient
}

// NewLyricsHandler creates the handler. tracer may be nil.
func NewLyricsHandler(
	composer *prompt.Composer, r *relay.Relay, maxVersions int, tracer *observability.LangfuseClient,
) *LyricsHandler {
	return &LyricsHandler{
		composer:    composer,
		relay:       r,
		maxVersions: maxVersions,
		tracer:      tracer,
	}
}

// ErrorResponse is the body of a rejected request
type ErrorResponse struct {
	Error     string                    `json:"error"`
	Details   []*models.ValidationError `json:"details,omitempty"`
	RequestID string                    `json:"request_id"`
}

// GenerateLyrics validates the request, then streams every version as plain
// text. Nothing is written before validation passes.
func (h *LyricsHandler) GenerateLyrics(c *gin.Context) {
	fields := logger.WithContext(c)
	requestID := c.GetString("request_id")

	var req models.LyricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid lyrics request body", fields.With(logger.Fields{"error": err.Error()}))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "Invalid request body",
			Details:   []*models.ValidationError{{Field: "body", Message: err.Error()}},
			RequestID: requestID,
		})
		return
	}

	if err := req.Validate(h.maxVersions); err != nil {
		logger.Warn("Lyrics request rejected", fields.With(logger.Fields{"error": err.Error()}))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "Invalid lyrics request",
			Details:   models.ValidationErrors(err),
			RequestID: requestID,
		})
		return
	}

	prompts := h.composer.ComposeAll(&req)
	fields = fields.With(logger.Fields{
		"versions": len(prompts),
		"provider": h.relay.Provider(),
		"genre":    req.Genre,
		"language": req.Language,
	})
	logger.Info("Lyrics generation started", fields)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering
	c.Status(http.StatusOK)
	c.Writer.Flush()

	trace := h.tracer.StartTrace(c.Request.Context(), "lyrics_request", map[string]interface{}{
		"request_id": requestID,
		"versions":   len(prompts),
		"genre":      req.Genre,
		"language":   req.Language,
	})
	defer trace.Finish()

	start := time.Now()
	sink := relay.NewWriterSink(c.Writer, h.relay.WriteTimeout())
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Debug("Could not clear write deadline", fields.With(logger.Fields{"error": err.Error()}))
		}
	}()
	result := h.relay.Run(c.Request.Context(), prompts, sink, trace)

	done := fields.With(logger.Fields{
		"duration_ms":       time.Since(start).Milliseconds(),
		"versions_finished": len(result.Versions),
		"versions_failed":   result.Failures(),
		"caller_gone":       result.Err != nil,
	})
	if result.Err != nil {
		logger.Warn("Lyrics stream ended early", done.With(logger.Fields{"error": result.Err.Error()}))
		return
	}
	logger.Info("Lyrics generation finished", done)
}
