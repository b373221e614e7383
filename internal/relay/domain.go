package relay

import (
	"google.golang.org/genai"
)

// Roles a caller may use on a ConversationTurn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one message of the chat as the browser sends it.
type ConversationTurn struct {
	// Role is "user" or "assistant". Anything else is treated as "user".
	Role string `json:"role"`
	// Content is the message text.
	Content string `json:"content"`
}

// GenerateContentRequest is the body of a Gemini streamGenerateContent call.
type GenerateContentRequest struct {
	Contents         []*genai.Content        `json:"contents"`
	GenerationConfig *genai.GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings   []*genai.SafetySetting  `json:"safetySettings,omitempty"`
}

// chunkEvent is the payload of every SSE event sent to the browser.
type chunkEvent struct {
	Content string `json:"content"`
}

// providerRole maps a caller role onto the two roles Gemini accepts.
func providerRole(role string) string {
	if role == RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}

// BuildContents turns the caller's turns into Gemini contents, prefixed with
// the persona prompt and the canned acknowledgement. Order is preserved.
func BuildContents(systemPrompt string, turns []ConversationTurn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns)+2)
	contents = append(contents,
		textContent(genai.RoleUser, systemPrompt),
		textContent(genai.RoleModel, primingAck),
	)
	for _, turn := range turns {
		contents = append(contents, textContent(providerRole(turn.Role), turn.Content))
	}
	return contents
}

// BuildRequest assembles the full upstream request body.
func BuildRequest(systemPrompt string, turns []ConversationTurn, gen *genai.GenerationConfig) *GenerateContentRequest {
	return &GenerateContentRequest{
		Contents:         BuildContents(systemPrompt, turns),
		GenerationConfig: gen,
		SafetySettings:   SafetySettings(),
	}
}

func textContent(role, text string) *genai.Content {
	return &genai.Content{
		Role:  role,
		Parts: []*genai.Part{{Text: text}},
	}
}

// DefaultGenerationConfig is the sampling setup the course chat runs with.
func DefaultGenerationConfig() *genai.GenerationConfig {
	return NewGenerationConfig(0.8, 2048, 0.95, 40)
}

// NewGenerationConfig builds a generation config from plain values.
func NewGenerationConfig(temperature float32, maxOutputTokens int32, topP, topK float32) *genai.GenerationConfig {
	return &genai.GenerationConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: maxOutputTokens,
		TopP:            genai.Ptr(topP),
		TopK:            genai.Ptr(topK),
	}
}

// SafetySettings disables blocking for every harm category the API lets us configure.
func SafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}

	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	return settings
}
