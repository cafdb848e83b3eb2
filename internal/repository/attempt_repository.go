package repository

import (
	"context"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository handles quiz attempt data access. Answers are stored
// as a JSONB map of question ID → chosen option.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// GetByQuizAndStudent retrieves the attempt for a (quiz, student) pair.
func (r *AttemptRepository) GetByQuizAndStudent(ctx context.Context, quizID uuid.UUID, studentID int) (*model.QuizAttempt, error) {
	a := &model.QuizAttempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, quiz_id, student_id, answers, score, started_at, ended_at
		 FROM quiz_attempts
		 WHERE quiz_id = $1 AND student_id = $2`, quizID, studentID,
	).Scan(&a.ID, &a.QuizID, &a.StudentID, &a.Answers, &a.Score, &a.StartedAt, &a.EndedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new attempt. The unique (quiz_id, student_id)
// constraint backs the one-attempt invariant; a conflicting insert
// surfaces as a constraint violation.
func (r *AttemptRepository) Create(ctx context.Context, a *model.QuizAttempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quiz_attempts (quiz_id, student_id, answers, score, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		a.QuizID, a.StudentID, a.Answers, a.Score, a.StartedAt, a.EndedAt,
	).Scan(&a.ID)
}

// ListByStudent retrieves all attempts of one student.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.QuizAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, student_id, answers, score, started_at, ended_at
		 FROM quiz_attempts
		 WHERE student_id = $1
		 ORDER BY ended_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.QuizAttempt
	for rows.Next() {
		var a model.QuizAttempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.Answers, &a.Score, &a.StartedAt, &a.EndedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
