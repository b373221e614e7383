package relay

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed persona.txt
var defaultSystemPrompt string

// primingAck is the canned model reply that follows the persona prompt.
// Gemini has no system role here, so the persona goes in as a user turn and
// this acknowledgement keeps the user/model alternation intact.
const primingAck = "Entendido. Sou Jeff Wu, seu professor de trading. Como posso te ajudar hoje?"

// DefaultSystemPrompt returns the built in persona prompt.
func DefaultSystemPrompt() string {
	return strings.TrimSpace(defaultSystemPrompt)
}

// LoadSystemPrompt reads a persona prompt from path.
func LoadSystemPrompt(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read system prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(b))
	if prompt == "" {
		return "", fmt.Errorf("system prompt file %s is empty", path)
	}
	return prompt, nil
}
