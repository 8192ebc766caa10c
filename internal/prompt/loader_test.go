package prompt

import (
	"strings"
	"testing"
)

func TestNewPromptLoader(t *testing.T) {
	loader := NewPromptLoader()
	if loader == nil {
		t.Fatal("NewPromptLoader() returned nil")
	}
}

func TestGetSystemPrompt(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetSystemPrompt()

	if err != nil {
		t.Fatalf("GetSystemPrompt() returned error: %v", err)
	}

	if content == "" {
		t.Error("GetSystemPrompt() returned empty string")
	}

	if !strings.Contains(strings.ToLower(content), "songwriter") {
		t.Error("GetSystemPrompt() does not describe the songwriter persona")
	}
}

func TestGetOutputStructure(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetOutputStructure()

	if err != nil {
		t.Fatalf("GetOutputStructure() returned error: %v", err)
	}

	arrangement := strings.Index(content, "[Musical Arrangement]")
	lyrics := strings.Index(content, "[Lyrics]")
	if arrangement < 0 || lyrics < 0 {
		t.Fatalf("GetOutputStructure() is missing a section header:\n%s", content)
	}
	if arrangement > lyrics {
		t.Error("GetOutputStructure() must list the arrangement before the lyrics")
	}

	for _, part := range []string{"Verse 1", "Chorus", "Verse 2", "Bridge", "Final Chorus"} {
		if !strings.Contains(content, part) {
			t.Errorf("GetOutputStructure() does not contain %q", part)
		}
	}
}

func TestNoExcessiveWhitespace(t *testing.T) {
	loader := NewPromptLoader()

	loaders := map[string]func() (string, error){
		"GetSystemPrompt":    loader.GetSystemPrompt,
		"GetOutputStructure": loader.GetOutputStructure,
	}

	for name, fn := range loaders {
		content, err := fn()
		if err != nil {
			t.Fatalf("%s() returned error: %v", name, err)
		}
		if content != strings.TrimSpace(content) {
			t.Errorf("%s() has leading or trailing whitespace", name)
		}
		if strings.Contains(content, "\n\n\n\n") {
			t.Errorf("%s() has excessive blank lines", name)
		}
	}
}
