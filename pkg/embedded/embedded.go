package embedded

import (
	_ "embed"
)

// Embed all prompt data files
//
//go:embed data/prompts/system_prompt.txt
var SystemPromptTxt []byte

//go:embed data/prompts/emotion_prompt.txt
var EmotionPromptTxt []byte

//go:embed data/prompts/melody_prompt.txt
var MelodyPromptTxt []byte

//go:embed data/prompts/melody_corrective_suffix.txt
var MelodyCorrectiveSuffixTxt []byte
