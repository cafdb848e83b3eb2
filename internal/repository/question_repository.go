package repository

import (
	"context"
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByQuiz retrieves all questions for a given quiz, ordered by order_num.
func (r *QuestionRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, question_text, options, correct_option, order_num
		 FROM questions WHERE quiz_id = $1
		 ORDER BY order_num`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.QuestionText, &q.Options, &q.CorrectOption, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (quiz_id, question_text, options, correct_option, order_num)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		q.QuizID, q.QuestionText, q.Options, q.CorrectOption, q.OrderNum,
	).Scan(&q.ID)
}

// ReplaceAll atomically swaps the full question set of a quiz.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, quizID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE quiz_id = $1`, quizID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}

	for i := range questions {
		q := &questions[i]
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (quiz_id, question_text, options, correct_option, order_num)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			quizID, q.QuestionText, q.Options, q.CorrectOption, q.OrderNum,
		).Scan(&q.ID)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
