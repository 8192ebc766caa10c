package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/lyrics-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the songwriter persona instruction
func (l *Loader) GetSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.SystemPromptTxt)), nil
}

// GetOutputStructure loads the fixed arrangement + lyrics layout template
func (l *Loader) GetOutputStructure() (string, error) {
	return strings.TrimSpace(string(embedded.OutputStructureTxt)), nil
}
