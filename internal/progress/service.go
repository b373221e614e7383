package progress

//go:generate mockgen -destination=./service_mock_test.go -package=progress -source=service.go Service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"cryptocourse/internal/domain" // Shared domain models

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidLessonDay is returned for days outside 1..domain.TotalLessons.
	ErrInvalidLessonDay = errors.New("invalid lesson day")
	// ErrInvalidRole is returned for chat turns that are neither user nor assistant.
	ErrInvalidRole = errors.New("invalid message role")
)

// welcomeMessage opens the very first lesson when the student has no history yet.
const welcomeMessage = `Seja bem-vindo! Serei seu professor nesses próximos dias e eu mesmo vou garantir que você aprenda tudo e consiga operar e lucrar consistentemente no mercado que mais cresce no mundo.

Nosso treinamento será por aqui, e começamos com o básico sobre cripto para os leigos. Me diga se você já entende o básico, caso já saiba, podemos pular a primeira parte.`

// lessonIntro opens any other lesson without history.
func lessonIntro(day int) string {
	return fmt.Sprintf("Bem-vindo à aula %d!\n\nEstou aqui para te guiar nesta etapa. Vamos começar?", day)
}

// RecordResult is what storing a chat turn produced.
type RecordResult struct {
	Message *domain.ChatMessage `json:"message"`
	// CompletedLesson is set when the turn announced the end of a lesson.
	CompletedLesson *int `json:"completed_lesson,omitempty"`
}

// Summary is a student's standing in the course.
type Summary struct {
	Lessons       []domain.LessonProgress `json:"lessons"`
	CompletedDays []int                   `json:"completed_days"`
	// TotalProgress is the completed share of the course in percent.
	TotalProgress int `json:"total_progress"`
}

// Service defines the interface for the progress service's business logic.
type Service interface {
	// History returns the turns of a lesson, or the tutor's opening message when there are none.
	History(ctx context.Context, userID uuid.UUID, lessonDay int) ([]domain.ChatMessage, error)
	// RecordMessage stores a chat turn and marks a lesson complete when an assistant turn says so.
	RecordMessage(ctx context.Context, userID uuid.UUID, lessonDay int, role, content string) (*RecordResult, error)
	// Summary returns the student's progress rows and totals.
	Summary(ctx context.Context, userID uuid.UUID) (*Summary, error)
	// CompleteLesson marks a lesson complete.
	CompleteLesson(ctx context.Context, userID uuid.UUID, lessonDay int) (*domain.LessonProgress, error)
}

// service is the concrete implementation of the Service interface.
type service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService is the constructor for the service injecting the repository.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *service) History(ctx context.Context, userID uuid.UUID, lessonDay int) ([]domain.ChatMessage, error) {
	if !domain.ValidLessonDay(lessonDay) {
		return nil, ErrInvalidLessonDay
	}

	messages, err := s.repo.ListMessages(ctx, userID, lessonDay)
	if err != nil {
		return nil, fmt.Errorf("service could not load history: %w", err)
	}
	if len(messages) > 0 {
		return messages, nil
	}

	// The opening message is shown but never stored.
	opening := lessonIntro(lessonDay)
	if lessonDay == 1 {
		opening = welcomeMessage
	}
	return []domain.ChatMessage{{
		UserID:    userID,
		LessonDay: lessonDay,
		Role:      domain.RoleAssistant,
		Content:   opening,
	}}, nil
}

func (s *service) RecordMessage(ctx context.Context, userID uuid.UUID, lessonDay int, role, content string) (*RecordResult, error) {
	if !domain.ValidLessonDay(lessonDay) {
		return nil, ErrInvalidLessonDay
	}
	if role != domain.RoleUser && role != domain.RoleAssistant {
		return nil, ErrInvalidRole
	}

	msg := &domain.ChatMessage{
		UserID:    userID,
		LessonDay: lessonDay,
		Role:      role,
		Content:   content,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("service could not store message: %w", err)
	}

	result := &RecordResult{Message: msg}
	if role != domain.RoleAssistant {
		return result, nil
	}

	// The announced day may differ from the day the conversation is filed under.
	day, ok := DetectCompletion(content)
	if !ok {
		return result, nil
	}
	// The turn is already stored, so a failed completion is logged and not returned.
	if _, err := s.CompleteLesson(ctx, userID, day); err != nil {
		s.logger.Error("could not record lesson completion",
			zap.String("user_id", userID.String()),
			zap.Int("lesson_day", day),
			zap.Error(err),
		)
		return result, nil
	}
	s.logger.Info("lesson completed",
		zap.String("user_id", userID.String()),
		zap.Int("lesson_day", day),
	)
	result.CompletedLesson = &day

	return result, nil
}

func (s *service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	lessons, err := s.repo.ListProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service could not load progress: %w", err)
	}

	completed := []int{}
	for _, l := range lessons {
		if l.Completed && domain.ValidLessonDay(l.LessonDay) {
			completed = append(completed, l.LessonDay)
		}
	}

	return &Summary{
		Lessons:       lessons,
		CompletedDays: completed,
		TotalProgress: TotalProgress(len(completed)),
	}, nil
}

func (s *service) CompleteLesson(ctx context.Context, userID uuid.UUID, lessonDay int) (*domain.LessonProgress, error) {
	if !domain.ValidLessonDay(lessonDay) {
		return nil, ErrInvalidLessonDay
	}

	completedAt := s.now().UTC()
	progress := &domain.LessonProgress{
		UserID:      userID,
		LessonDay:   lessonDay,
		Completed:   true,
		CompletedAt: &completedAt,
	}
	if err := s.repo.UpsertProgress(ctx, progress); err != nil {
		return nil, fmt.Errorf("service could not complete lesson: %w", err)
	}

	return progress, nil
}

// TotalProgress converts a number of completed lessons to a rounded percentage of the course.
func TotalProgress(completed int) int {
	if completed <= 0 {
		return 0
	}
	if completed >= domain.TotalLessons {
		return 100
	}
	return int(math.Round(float64(completed) * 100 / domain.TotalLessons))
}
