package repository

import (
	"context"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizRepository handles quiz data access.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

const quizColumns = `id, course_id, title, passing_score, duration_minutes, created_at, updated_at`

// Create inserts a new quiz.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (course_id, title, passing_score, duration_minutes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		q.CourseID, q.Title, q.PassingScore, q.DurationMinutes,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// GetByID retrieves a quiz by ID.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id,
	).Scan(&q.ID, &q.CourseID, &q.Title, &q.PassingScore, &q.DurationMinutes, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListByCourse retrieves all quizzes of a course.
func (r *QuizRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes
		 WHERE course_id = $1
		 ORDER BY created_at`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.CourseID, &q.Title, &q.PassingScore,
			&q.DurationMinutes, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// Update persists the mutable fields of a quiz.
func (r *QuizRepository) Update(ctx context.Context, q *model.Quiz) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quizzes
		 SET title = $1, passing_score = $2, duration_minutes = $3, updated_at = NOW()
		 WHERE id = $4`,
		q.Title, q.PassingScore, q.DurationMinutes, q.ID)
	return err
}

// Delete removes a quiz and cascades to its questions and attempts.
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	return err
}
