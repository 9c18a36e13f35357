package coach

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

// FallbackInstructions is used when no instruction document can be loaded.
const FallbackInstructions = "You are an expert fitness coach specializing in calisthenics and weighted training."

//go:embed prompts/system_prompt.md
var bundledInstructions string

// LoadInstructions reads the instruction document at path, or the bundled one
// when path is empty. On failure it returns FallbackInstructions together with
// the error so the caller can log it and carry on.
func LoadInstructions(path string) (string, error) {
	text := bundledInstructions
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return FallbackInstructions, fmt.Errorf("failed to read instructions: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return FallbackInstructions, fmt.Errorf("instruction document %q is empty", path)
	}
	return text, nil
}
