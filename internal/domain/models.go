package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles a stored chat turn can have.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TotalLessons is the length of the course in days.
const TotalLessons = 20

type ChatMessage struct {
	MessageID uuid.UUID `json:"message_id" db:"message_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	LessonDay int       `json:"lesson_day" db:"lesson_day"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type LessonProgress struct {
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	LessonDay   int        `json:"lesson_day" db:"lesson_day"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ValidLessonDay reports whether day is inside the course.
func ValidLessonDay(day int) bool {
	return day >= 1 && day <= TotalLessons
}
