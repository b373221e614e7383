package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cryptocourse/internal/httpx"
	"cryptocourse/internal/sse"
)

// ChatPath is where the relay is mounted.
const ChatPath = "/api/chat"

// corsPolicy is attached to every relay response, errors and streams included.
var corsPolicy = httpx.CORSPolicy{
	AllowOrigin:  "*",
	AllowMethods: []string{http.MethodPost, http.MethodOptions},
	AllowHeaders: []string{"Content-Type"},
}

// Handler is the HTTP API layer for the chat relay.
type Handler struct {
	service Service
	logger  *zap.Logger
	// strictValidation answers bad payloads with 400 instead of the historical 500.
	strictValidation bool
}

// NewHandler creates a new handler injecting the service.
func NewHandler(s Service, logger *zap.Logger, strictValidation bool) *Handler {
	return &Handler{
		service:          s,
		logger:           logger,
		strictValidation: strictValidation,
	}
}

// RegisterRoutes attaches the relay endpoint to the router.
// Every method is routed here so unsupported ones get the relay's own 405 body and CORS headers.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(httpx.CORS(corsPolicy)).HandleFunc(ChatPath, h.handleChat)
}

// chatRequest is the DTO the browser sends.
type chatRequest struct {
	Messages json.RawMessage `json:"messages"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		h.logger.Warn("chat api rejected request", zap.String("method", r.Method), zap.Error(ErrMethodNotAllowed))
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	turns, err := decodeTurns(r.Body)
	if err != nil {
		h.writeRelayError(w, err)
		return
	}

	stream, err := h.service.Relay(r.Context(), turns)
	if err != nil {
		h.writeRelayError(w, err)
		return
	}
	defer stream.Close()

	h.streamEvents(w, stream)
}

// decodeTurns reads the body and requires "messages" to be a json array.
func decodeTurns(body io.Reader) ([]ConversationTurn, error) {
	var req chatRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	raw := bytes.TrimSpace(req.Messages)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrInvalidInput
	}

	turns := []ConversationTurn{}
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return turns, nil
}

// streamEvents copies the model answer to the client as SSE.
// A read failure after the first byte can't change the status any more, so the
// connection is aborted and the client never sees the [DONE] sentinel.
func (h *Handler) streamEvents(w http.ResponseWriter, stream TextStream) {
	sse.SetHeaders(w.Header())
	w.WriteHeader(http.StatusOK)

	events := sse.NewWriter(w)
	sent := 0
	for {
		text, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.logger.Error("stream error", zap.Error(err), zap.Int("events", sent))
			panic(http.ErrAbortHandler)
		}

		if err := events.WriteJSON(chunkEvent{Content: text}); err != nil {
			// The client went away; nobody is left to read the rest.
			h.logger.Warn("could not write event to client", zap.Error(err), zap.Int("events", sent))
			return
		}
		sent++
	}

	if err := events.WriteDone(); err != nil {
		h.logger.Warn("could not write done event", zap.Error(err))
		return
	}
	h.logger.Debug("stream completed", zap.Int("events", sent))
}

// writeRelayError maps relay errors onto the single {error, details} shape.
func (h *Handler) writeRelayError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	var upstreamErr *UpstreamError
	switch {
	case errors.Is(err, ErrInvalidInput):
		message = "Invalid messages format"
		if h.strictValidation {
			status = http.StatusBadRequest
		}
	case errors.Is(err, ErrMissingAPIKey):
		message = "Gemini API key not configured"
	case errors.As(err, &upstreamErr):
		message = upstreamErr.Error()
	}

	h.logger.Error("chat api error", zap.Int("status", status), zap.Error(err))
	httpx.WriteErrorDetails(w, status, message, err.Error())
}
