package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Conceptual-Machines/lyrics-api/internal/models"
)

// APIError is a non-2xx answer from the lyrics API
type APIError struct {
	StatusCode int                      `json:"-"`
	Message    string                   `json:"error"`
	Details    []models.ValidationError `json:"details"`
	RequestID  string                   `json:"request_id"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "lyrics API returned %d", e.StatusCode)
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	for _, d := range e.Details {
		fmt.Fprintf(&b, "\n  %s: %s", d.Field, d.Message)
	}
	if e.RequestID != "" {
		b.WriteString("\n  request_id: " + e.RequestID)
	}
	return b.String()
}

// Client talks to a running lyrics API server
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL. No overall timeout is set so long
// streams are not cut off; use the context instead.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// Generate posts req and copies the streamed text to out as it arrives
func (c *Client) Generate(ctx context.Context, req *models.LyricsRequest, out io.Writer) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate_lyrics", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("stream interrupted: %w", err)
	}
	return nil
}

// Health fetches the liveness payload
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid health payload: %w", err)
	}
	return payload, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
