package embedded

import (
	_ "embed"
)

// Embed prompt text assets
//
//go:embed data/lyrics/system_prompt.txt
var SystemPromptTxt []byte

//go:embed data/lyrics/output_structure.txt
var OutputStructureTxt []byte
