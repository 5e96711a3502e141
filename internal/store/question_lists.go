// Package store persists question lists that seed a session's question
// sequence from outside the real-time core.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/youclicker/backend/internal/model"
)

// listIDPattern is the name-safe form a question list id must take.
var listIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidListID reports whether id is a name-safe slug.
func ValidListID(id string) bool {
	return listIDPattern.MatchString(id)
}

// QuestionListRepository provides data access for question lists.
type QuestionListRepository struct {
	db *sql.DB
}

// NewQuestionListRepository creates a new QuestionListRepository.
func NewQuestionListRepository(db *sql.DB) *QuestionListRepository {
	return &QuestionListRepository{db: db}
}

// Upsert inserts a question list or replaces the one stored under the same
// id, refreshing updated_at either way.
func (r *QuestionListRepository) Upsert(ctx context.Context, list *model.QuestionList) error {
	if !ValidListID(list.ID) {
		return model.ErrInvalidListID
	}
	if list.Name == "" {
		return model.ErrNameRequired
	}

	questionsJSON, err := list.QuestionsToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize questions: %w", err)
	}

	now := time.Now()
	if list.CreatedAt.IsZero() {
		list.CreatedAt = now
	}
	list.UpdatedAt = now

	query := `
		INSERT INTO question_lists (id, name, questions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			questions = excluded.questions,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		list.ID,
		list.Name,
		questionsJSON,
		list.CreatedAt,
		list.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert question list: %w", err)
	}

	return nil
}

// GetByID retrieves a question list by its id.
func (r *QuestionListRepository) GetByID(ctx context.Context, id string) (*model.QuestionList, error) {
	query := `
		SELECT id, name, questions, created_at, updated_at
		FROM question_lists
		WHERE id = ?
	`

	list := &model.QuestionList{}
	var questionsJSON sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&list.ID,
		&list.Name,
		&questionsJSON,
		&list.CreatedAt,
		&list.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question list: %w", err)
	}

	if questionsJSON.Valid {
		if err := list.QuestionsFromJSON(questionsJSON.String); err != nil {
			return nil, fmt.Errorf("failed to parse questions: %w", err)
		}
	}

	return list, nil
}

// List retrieves all question lists, most recently updated first.
func (r *QuestionListRepository) List(ctx context.Context) ([]*model.QuestionList, error) {
	query := `
		SELECT id, name, questions, created_at, updated_at
		FROM question_lists
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list question lists: %w", err)
	}
	defer rows.Close()

	var lists []*model.QuestionList
	for rows.Next() {
		list := &model.QuestionList{}
		var questionsJSON sql.NullString

		err := rows.Scan(
			&list.ID,
			&list.Name,
			&questionsJSON,
			&list.CreatedAt,
			&list.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question list: %w", err)
		}

		if questionsJSON.Valid {
			if err := list.QuestionsFromJSON(questionsJSON.String); err != nil {
				return nil, fmt.Errorf("failed to parse questions: %w", err)
			}
		}

		lists = append(lists, list)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question lists: %w", err)
	}

	return lists, nil
}

// Delete removes a question list.
func (r *QuestionListRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM question_lists WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete question list: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrListNotFound
	}

	return nil
}
