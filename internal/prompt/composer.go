package prompt

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/lyrics-api/internal/models"
)

const neutralTone = "neutral"

// variationHints steer each version toward a different take. Wording only;
// sampling parameters are handled by services.GenerationParams.
var variationHints = []string{
	"Stay close to the description and favour a clear, memorable hook.",
	"Explore a different emotional angle on the same theme.",
	"Take more creative risks with imagery and rhyme scheme.",
	"Tell the story from an unexpected perspective while keeping the core theme.",
	"Lean into bolder, more experimental phrasing.",
}

// Composer renders lyrics requests into upstream prompts
type Composer struct {
	systemInstruction string
	outputStructure   string
}

// NewComposer creates a composer backed by the embedded templates
func NewComposer() (*Composer, error) {
	loader := NewPromptLoader()

	system, err := loader.GetSystemPrompt()
	if err != nil {
		return nil, fmt.Errorf("failed to load system prompt: %w", err)
	}
	structure, err := loader.GetOutputStructure()
	if err != nil {
		return nil, fmt.Errorf("failed to load output structure: %w", err)
	}

	return &Composer{
		systemInstruction: system,
		outputStructure:   structure,
	}, nil
}

// SystemInstruction returns the fixed songwriter persona sent with every call
func (c *Composer) SystemInstruction() string {
	return c.systemInstruction
}

// ComposeAll returns one prompt per requested version, in version order
func (c *Composer) ComposeAll(req *models.LyricsRequest) []string {
	total := req.Versions()
	prompts := make([]string, 0, total)
	for i := 0; i < total; i++ {
		prompts = append(prompts, c.Compose(req, i, total))
	}
	return prompts
}

// Compose builds the prompt for version index (0-based) out of total.
// The request must already be validated.
func (c *Composer) Compose(req *models.LyricsRequest, index, total int) string {
	var sections []string

	sections = append(sections, strings.Join([]string{
		"Create song lyrics with the following specifications:",
		"Language: " + req.Language,
		"Genre: " + req.Genre,
		"Emotional tone: " + EmotionalTone(req.Emotions),
		"Description: " + req.Description,
	}, "\n"))

	if block := musicalElementsBlock(req.MusicalElements); block != "" {
		sections = append(sections, block)
	}

	if req.HasPreviousLyrics() {
		sections = append(sections, "Previous version to refine:\n"+strings.TrimSpace(*req.PreviousLyrics))
	}

	if total > 1 {
		sections = append(sections, "Variation: "+variationHints[index%len(variationHints)])
	}

	sections = append(sections, c.outputStructure)

	if total > 1 {
		sections = append(sections, fmt.Sprintf("This is version %d of %d.", index+1, total))
	}

	return strings.Join(sections, "\n\n")
}

// EmotionalTone joins emotions in order, falling back to a neutral tone
func EmotionalTone(emotions []string) string {
	var kept []string
	for _, e := range emotions {
		if e = strings.TrimSpace(e); e != "" {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return neutralTone
	}
	return strings.Join(kept, ", ")
}

// musicalElementsBlock lists only the provided sub-fields; empty when none are set
func musicalElementsBlock(m models.MusicalElements) string {
	if m.IsEmpty() {
		return ""
	}

	lines := []string{"Musical elements to incorporate:"}
	if v := strings.TrimSpace(m.MelodyStyle); v != "" {
		lines = append(lines, "Melody style: "+v)
	}
	if v := strings.TrimSpace(m.HarmonyType); v != "" {
		lines = append(lines, "Harmony type: "+v)
	}

	var instruments []string
	for _, inst := range m.Instruments {
		if inst = strings.TrimSpace(inst); inst != "" {
			instruments = append(instruments, inst)
		}
	}
	if len(instruments) > 0 {
		lines = append(lines, "Instruments: "+strings.Join(instruments, ", "))
	}

	if v := strings.TrimSpace(m.Tempo); v != "" {
		lines = append(lines, "Tempo: "+v)
	}

	return strings.Join(lines, "\n")
}
