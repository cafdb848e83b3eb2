package repository

import (
	"context"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentRepository handles payment data access.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `id, student_id, course_id, amount, status, method, created_at, completed_at`

// Create inserts a new pending payment.
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO payments (student_id, course_id, amount, status, method)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		p.StudentID, p.CourseID, p.Amount, model.PaymentStatusPending, p.Method,
	).Scan(&p.ID, &p.CreatedAt)
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	p := &model.Payment{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id,
	).Scan(&p.ID, &p.StudentID, &p.CourseID, &p.Amount, &p.Status, &p.Method, &p.CreatedAt, &p.CompletedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Complete marks a pending payment completed. Returns false when the
// payment was not pending (the transition is guarded in SQL).
func (r *PaymentRepository) Complete(ctx context.Context, id uuid.UUID) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`UPDATE payments
		 SET status = $1, completed_at = NOW()
		 WHERE id = $2 AND status = $3`,
		model.PaymentStatusCompleted, id, model.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// ListByStudent retrieves all payments of one student.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE student_id = $1
		 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.StudentID, &p.CourseID, &p.Amount, &p.Status, &p.Method, &p.CreatedAt, &p.CompletedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// HasCompletedPayment reports whether a student has a completed payment
// for a course.
func (r *PaymentRepository) HasCompletedPayment(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM payments
			WHERE student_id = $1 AND course_id = $2 AND status = $3
		)`, studentID, courseID, model.PaymentStatusCompleted,
	).Scan(&exists)
	return exists, err
}
