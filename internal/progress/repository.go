package progress

//go:generate mockgen -destination=./repository_mock_test.go -package=progress -source=repository.go Repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"cryptocourse/internal/domain" // Shared domain models

	"github.com/google/uuid"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the tables the repository needs if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("could not apply schema: %w", err)
	}
	return nil
}

// Repository is the interface for the chat history and lesson progress tables.
type Repository interface {
	// CreateMessage inserts a chat turn and fills in its id and creation time.
	CreateMessage(ctx context.Context, msg *domain.ChatMessage) error
	// ListMessages returns a user's turns for one lesson day, oldest first.
	ListMessages(ctx context.Context, userID uuid.UUID, lessonDay int) ([]domain.ChatMessage, error)
	// UpsertProgress marks a lesson complete, overwriting any earlier completion time.
	UpsertProgress(ctx context.Context, progress *domain.LessonProgress) error
	// ListProgress returns every progress row of a user ordered by lesson day.
	ListProgress(ctx context.Context, userID uuid.UUID) ([]domain.LessonProgress, error)
}

// postgresRepository is the concrete implementation of the Repository that uses a Postgres database
type postgresRepository struct {
	db *sql.DB // The database connection pool.
}

// NewPostgresRepository is the constructor for the repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{
		db: db,
	}
}

// CreateMessage inserts a new row into the chat_messages table.
func (pr *postgresRepository) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	msg.MessageID = uuid.New()

	query := `
		INSERT INTO chat_messages (message_id, user_id, lesson_day, role, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := pr.db.QueryRowContext(ctx, query,
		msg.MessageID,
		msg.UserID,
		msg.LessonDay,
		msg.Role,
		msg.Content,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not insert chat message: %w", err)
	}

	return nil
}

func (pr *postgresRepository) ListMessages(ctx context.Context, userID uuid.UUID, lessonDay int) ([]domain.ChatMessage, error) {
	query := `
		SELECT message_id, user_id, lesson_day, role, content, created_at
		FROM chat_messages
		WHERE user_id = $1 AND lesson_day = $2
		ORDER BY created_at ASC
	`

	rows, err := pr.db.QueryContext(ctx, query, userID, lessonDay)
	if err != nil {
		return nil, fmt.Errorf("could not query chat messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.ChatMessage{}
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.MessageID, &m.UserID, &m.LessonDay, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read chat messages: %w", err)
	}

	return messages, nil
}

func (pr *postgresRepository) UpsertProgress(ctx context.Context, progress *domain.LessonProgress) error {
	query := `
		INSERT INTO lesson_progress (user_id, lesson_day, completed, completed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, lesson_day)
		DO UPDATE SET completed = EXCLUDED.completed, completed_at = EXCLUDED.completed_at
	`

	_, err := pr.db.ExecContext(ctx, query,
		progress.UserID,
		progress.LessonDay,
		progress.Completed,
		progress.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("could not upsert lesson progress: %w", err)
	}

	return nil
}

func (pr *postgresRepository) ListProgress(ctx context.Context, userID uuid.UUID) ([]domain.LessonProgress, error) {
	query := `
		SELECT user_id, lesson_day, completed, completed_at
		FROM lesson_progress
		WHERE user_id = $1
		ORDER BY lesson_day ASC
	`

	rows, err := pr.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("could not query lesson progress: %w", err)
	}
	defer rows.Close()

	lessons := []domain.LessonProgress{}
	for rows.Next() {
		var p domain.LessonProgress
		// completed_at is nullable; scanning into **time.Time leaves it nil.
		if err := rows.Scan(&p.UserID, &p.LessonDay, &p.Completed, &p.CompletedAt); err != nil {
			return nil, fmt.Errorf("could not scan lesson progress: %w", err)
		}
		lessons = append(lessons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read lesson progress: %w", err)
	}

	return lessons, nil
}
