package models

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultVersionCount is used when the request omits version_count
const DefaultVersionCount = 1

// MusicalElements carries optional arrangement hints
type MusicalElements struct {
	MelodyStyle string   `json:"melody_style"`
	HarmonyType string   `json:"harmony_type"`
	Instruments []string `json:"instruments"`
	Tempo       string   `json:"tempo"`
}

// IsEmpty reports whether no musical element was provided
func (m MusicalElements) IsEmpty() bool {
	if strings.TrimSpace(m.MelodyStyle) != "" ||
		strings.TrimSpace(m.HarmonyType) != "" ||
		strings.TrimSpace(m.Tempo) != "" {
		return false
	}
	for _, instrument := range m.Instruments {
		if strings.TrimSpace(instrument) != "" {
			return false
		}
	}
	return true
}

// LyricsRequest is the inbound songwriting request
type LyricsRequest struct {
	Language        string          `json:"language"`
	Genre           string          `json:"genre"`
	Description     string          `json:"description"`
	Emotions        []string        `json:"emotions"`
	PreviousLyrics  *string         `json:"previous_lyrics"`
	VersionCount    *int            `json:"version_count"`
	MusicalElements MusicalElements `json:"musical_elements"`
}

// Versions returns the number of versions to generate
func (r *LyricsRequest) Versions() int {
	if r.VersionCount == nil {
		return DefaultVersionCount
	}
	return *r.VersionCount
}

// HasPreviousLyrics reports whether refinement context was supplied
func (r *LyricsRequest) HasPreviousLyrics() bool {
	return r.PreviousLyrics != nil && strings.TrimSpace(*r.PreviousLyrics) != ""
}

// ValidationError describes one rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the request before any generation starts. The version count
// is rejected rather than clamped when out of range.
func (r *LyricsRequest) Validate(maxVersions int) error {
	var errs []error

	required := []struct {
		field string
		value string
	}{
		{"language", r.Language},
		{"genre", r.Genre},
		{"description", r.Description},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, &ValidationError{Field: f.field, Message: "is required"})
		}
	}

	switch n := r.Versions(); {
	case n < 1:
		errs = append(errs, &ValidationError{Field: "version_count", Message: fmt.Sprintf("must be at least 1, got %d", n)})
	case maxVersions > 0 && n > maxVersions:
		errs = append(errs, &ValidationError{Field: "version_count", Message: fmt.Sprintf("must be at most %d, got %d", maxVersions, n)})
	}

	return errors.Join(errs...)
}

// ValidationErrors flattens an error returned by Validate into its field errors
func ValidationErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}

	var out []*ValidationError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, ValidationErrors(e)...)
		}
		return out
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		out = append(out, ve)
	}
	return out
}
