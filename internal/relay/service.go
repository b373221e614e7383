package relay

//go:generate mockgen -destination=./service_mock_test.go -package=relay -source=service.go

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Service defines the business logic of the chat relay.
type Service interface {
	// Relay forwards the conversation to Gemini and returns the streamed answer.
	// Nothing is sent upstream when validation or configuration fails.
	Relay(ctx context.Context, turns []ConversationTurn) (TextStream, error)
}

// TextStream is a streamed model answer.
type TextStream interface {
	// Next returns the next text fragment, or io.EOF when the answer is complete.
	Next() (string, error)
	// Close releases the upstream connection.
	Close() error
}

// APIKeyFunc resolves the provider key for one request.
type APIKeyFunc func() string

// Option customises a Service.
type Option func(*service)

// WithSystemPrompt replaces the persona prompt sent as the first turn.
func WithSystemPrompt(prompt string) Option {
	return func(s *service) {
		s.systemPrompt = prompt
	}
}

// WithGenerationConfig replaces the sampling settings.
func WithGenerationConfig(gen *genai.GenerationConfig) Option {
	return func(s *service) {
		s.generation = gen
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// service is the concrete implementation of the Service interface.
type service struct {
	gemini       GeminiClient
	apiKey       APIKeyFunc
	systemPrompt string
	generation   *genai.GenerationConfig
	logger       *zap.Logger
}

// NewService is the constructor for the relay service.
func NewService(gemini GeminiClient, apiKey APIKeyFunc, opts ...Option) Service {
	s := &service{
		gemini:       gemini,
		apiKey:       apiKey,
		systemPrompt: DefaultSystemPrompt(),
		generation:   DefaultGenerationConfig(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Relay implements the Service interface.
func (s *service) Relay(ctx context.Context, turns []ConversationTurn) (TextStream, error) {
	if turns == nil {
		return nil, ErrInvalidInput
	}

	// The key is resolved per request so a missing key fails here and not at startup.
	apiKey := s.apiKey()
	if apiKey == "" {
		s.logger.Error("gemini api key not found in environment")
		return nil, ErrMissingAPIKey
	}

	s.logger.Info("processing chat request", zap.Int("messages", len(turns)))

	req := BuildRequest(s.systemPrompt, turns, s.generation)
	body, err := s.gemini.StreamGenerateContent(ctx, apiKey, req)
	if err != nil {
		return nil, fmt.Errorf("gemini client failed: %w", err)
	}

	return newGeminiStream(body, s.logger), nil
}
