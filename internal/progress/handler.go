package progress

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cryptocourse/internal/auth"
	"cryptocourse/internal/httpx"
)

// Handler is the HTTP API layer for the progress service.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler is the constructor for the Handler.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
	}
}

// RegisterRoutes attaches the history and progress endpoints to the router.
// All of them need an authenticated user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)

		r.Get("/lessons/{day}/messages", h.handleListMessages)
		r.Post("/lessons/{day}/messages", h.handleCreateMessage)

		r.Get("/progress", h.handleGetProgress)
		r.Put("/progress/{day}", h.handleCompleteLesson)
	})
}

// createMessageRequest is the DTO for POST /lessons/{day}/messages.
type createMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	userID, day, ok := h.userAndDay(w, r)
	if !ok {
		return
	}

	messages, err := h.service.History(r.Context(), userID, day)
	if err != nil {
		h.writeServiceError(w, err, "Could not load messages")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messages)
}

func (h *Handler) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	userID, day, ok := h.userAndDay(w, r)
	if !ok {
		return
	}

	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := h.service.RecordMessage(r.Context(), userID, day, req.Role, req.Content)
	if err != nil {
		h.writeServiceError(w, err, "Could not save message")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err, "Could not load progress")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	userID, day, ok := h.userAndDay(w, r)
	if !ok {
		return
	}

	progress, err := h.service.CompleteLesson(r.Context(), userID, day)
	if err != nil {
		h.writeServiceError(w, err, "Could not update progress")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, progress)
}

// userAndDay reads the caller and the {day} url param, writing the error response itself.
func (h *Handler) userAndDay(w http.ResponseWriter, r *http.Request) (userID uuid.UUID, day int, ok bool) {
	id, err := auth.GetUserID(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return id, 0, false
	}

	day, err = strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid lesson day")
		return id, 0, false
	}

	return id, day, true
}

// writeServiceError maps validation errors to 400 and everything else to 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, ErrInvalidLessonDay):
		httpx.WriteError(w, http.StatusBadRequest, "Invalid lesson day")
	case errors.Is(err, ErrInvalidRole):
		httpx.WriteError(w, http.StatusBadRequest, "Role must be user or assistant")
	default:
		h.logger.Error("progress api error", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, message)
	}
}
