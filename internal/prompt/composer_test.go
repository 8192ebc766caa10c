package prompt

import (
	"strings"
	"testing"

	"github.com/Conceptual-Machines/lyrics-api/internal/models"
)

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	c, err := NewComposer()
	if err != nil {
		t.Fatalf("NewComposer() returned error: %v", err)
	}
	return c
}

func baseRequest() *models.LyricsRequest {
	return &models.LyricsRequest{
		Language:    "English",
		Genre:       "Synthwave",
		Description: "Neon city at midnight",
	}
}

func versions(n int) *int { return &n }

func TestNewComposer(t *testing.T) {
	c := newTestComposer(t)
	if c.SystemInstruction() == "" {
		t.Fatal("SystemInstruction() is empty")
	}
	if !strings.Contains(c.SystemInstruction(), "professional songwriter") {
		t.Error("SystemInstruction() does not describe the songwriter persona")
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	c := newTestComposer(t)
	req := baseRequest()
	req.Emotions = []string{"wistful"}
	req.VersionCount = versions(3)
	req.MusicalElements.Tempo = "110 bpm"

	first := c.ComposeAll(req)
	for i := 0; i < 5; i++ {
		again := c.ComposeAll(req)
		for v := range first {
			if first[v] != again[v] {
				t.Fatalf("version %d prompt changed between calls", v+1)
			}
		}
	}
}

func TestComposeContainsRequestFields(t *testing.T) {
	c := newTestComposer(t)
	prompt := c.Compose(baseRequest(), 0, 1)

	for _, want := range []string{
		"Language: English",
		"Genre: Synthwave",
		"Description: Neon city at midnight",
		"[Musical Arrangement]",
		"[Lyrics]",
		"(Verse 1)",
		"(Chorus)",
		"(Verse 2)",
		"(Bridge)",
		"(Final Chorus)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	arrangement := strings.Index(prompt, "[Musical Arrangement]")
	lyrics := strings.Index(prompt, "[Lyrics]")
	if arrangement > lyrics {
		t.Error("arrangement summary must come before the lyrics section")
	}
}

func TestEmotionalTone(t *testing.T) {
	tests := []struct {
		name     string
		emotions []string
		want     string
	}{
		{"nil", nil, "neutral"},
		{"empty", []string{}, "neutral"},
		{"blanks only", []string{" ", ""}, "neutral"},
		{"single", []string{"joyful"}, "joyful"},
		{"ordered pair", []string{"joyful", "defiant"}, "joyful, defiant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EmotionalTone(tt.emotions); got != tt.want {
				t.Errorf("EmotionalTone(%v) = %q, want %q", tt.emotions, got, tt.want)
			}
		})
	}

	c := newTestComposer(t)
	req := baseRequest()
	if !strings.Contains(c.Compose(req, 0, 1), "Emotional tone: neutral") {
		t.Error("empty emotions should render the neutral tone")
	}
	req.Emotions = []string{"joyful", "defiant"}
	if !strings.Contains(c.Compose(req, 0, 1), "Emotional tone: joyful, defiant") {
		t.Error("emotions should be comma-joined in order")
	}
}

func TestMusicalElementsBlock(t *testing.T) {
	c := newTestComposer(t)
	const header = "Musical elements to incorporate:"

	req := baseRequest()
	req.MusicalElements = models.MusicalElements{Instruments: []string{}}
	prompt := c.Compose(req, 0, 1)
	if strings.Contains(prompt, header) {
		t.Error("all-empty musical elements must not render a block")
	}
	if block := musicalElementsBlock(req.MusicalElements); block != "" {
		t.Errorf("all-empty musical elements rendered %q", block)
	}

	req.MusicalElements = models.MusicalElements{
		HarmonyType: "modal interchange",
		Instruments: []string{"analog synth", "", "drum machine"},
	}
	prompt = c.Compose(req, 0, 1)
	if strings.Count(prompt, header) != 1 {
		t.Fatalf("expected exactly one musical elements block, got %d", strings.Count(prompt, header))
	}
	if !strings.Contains(prompt, "Harmony type: modal interchange") {
		t.Error("provided harmony type missing")
	}
	if !strings.Contains(prompt, "Instruments: analog synth, drum machine") {
		t.Error("instruments should skip blanks and be comma-joined")
	}
	// The output structure always carries a Tempo line, so check the block alone
	block := musicalElementsBlock(req.MusicalElements)
	if strings.Contains(block, "Melody style:") || strings.Contains(block, "Tempo:") {
		t.Errorf("block must list only provided sub-fields, got %q", block)
	}
	if !strings.Contains(prompt, block) {
		t.Error("composed prompt should embed the musical elements block")
	}
}

func TestRefinementBlock(t *testing.T) {
	c := newTestComposer(t)
	req := baseRequest()

	if strings.Contains(c.Compose(req, 0, 1), "Previous version to refine") {
		t.Error("refinement block rendered without previous lyrics")
	}

	previous := "  City lights are calling me home  "
	req.PreviousLyrics = &previous
	prompt := c.Compose(req, 0, 1)
	if !strings.Contains(prompt, "Previous version to refine:\nCity lights are calling me home") {
		t.Error("refinement block missing previous lyrics")
	}
}

func TestVersionTrailer(t *testing.T) {
	c := newTestComposer(t)
	req := baseRequest()

	single := c.Compose(req, 0, 1)
	if strings.Contains(single, "This is version") {
		t.Error("single version prompt should not carry a version trailer")
	}
	if strings.Contains(single, "Variation:") {
		t.Error("single version prompt should not carry a variation hint")
	}

	req.VersionCount = versions(3)
	prompts := c.ComposeAll(req)
	if len(prompts) != 3 {
		t.Fatalf("ComposeAll() returned %d prompts, want 3", len(prompts))
	}
	for i, p := range prompts {
		want := "This is version " + string(rune('1'+i)) + " of 3."
		if !strings.HasSuffix(p, want) {
			t.Errorf("prompt %d does not end with %q", i, want)
		}
	}
	if prompts[0] == prompts[1] {
		t.Error("versions should carry different variation wording")
	}
}
