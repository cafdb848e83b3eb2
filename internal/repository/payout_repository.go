package repository

import (
	"context"
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PayoutRepository handles payout data access.
type PayoutRepository struct {
	pool *pgxpool.Pool
}

// NewPayoutRepository creates a new PayoutRepository.
func NewPayoutRepository(pool *pgxpool.Pool) *PayoutRepository {
	return &PayoutRepository{pool: pool}
}

const payoutColumns = `id, instructor_id, amount, status, method, request_date, payout_date`

// payoutLockKey namespaces the per-instructor advisory lock that
// serializes payout requests against the balance check.
const payoutLockKey = 7321

const earningsBalanceQuery = `
	SELECT
		COALESCE((SELECT SUM(p.amount) FROM payments p
		   JOIN courses c ON p.course_id = c.id
		  WHERE c.instructor_id = $1 AND p.status = 'COMPLETED'), 0)
		-
		COALESCE((SELECT SUM(amount) FROM payouts
		  WHERE instructor_id = $1 AND status <> 'REJECTED'), 0)`

// CreateWithinBalance inserts a pending payout only if the instructor's
// withdrawable balance covers the amount. The balance check and the
// insert run in one transaction under a per-instructor advisory lock,
// so two concurrent requests cannot both reserve the same funds.
// Returns false, nil when the balance does not cover the amount.
func (r *PayoutRepository) CreateWithinBalance(ctx context.Context, p *model.Payout) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock($1, $2)`, payoutLockKey, p.InstructorID); err != nil {
		return false, err
	}

	var balance float64
	if err := tx.QueryRow(ctx, earningsBalanceQuery, p.InstructorID).Scan(&balance); err != nil {
		return false, err
	}
	if p.Amount > balance {
		return false, nil
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO payouts (instructor_id, amount, status, method)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, request_date`,
		p.InstructorID, p.Amount, model.PayoutStatusPending, p.Method,
	).Scan(&p.ID, &p.RequestDate); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

// GetByID retrieves a payout by ID.
func (r *PayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payout, error) {
	p := &model.Payout{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+payoutColumns+` FROM payouts WHERE id = $1`, id,
	).Scan(&p.ID, &p.InstructorID, &p.Amount, &p.Status, &p.Method, &p.RequestDate, &p.PayoutDate)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateStatus transitions a payout. PayoutDate is stamped when the
// payout reaches PAID.
func (r *PayoutRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PayoutStatus) error {
	if status == model.PayoutStatusPaid {
		_, err := r.pool.Exec(ctx,
			`UPDATE payouts SET status = $1, payout_date = NOW() WHERE id = $2`, status, id)
		return err
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE payouts SET status = $1 WHERE id = $2`, status, id)
	return err
}

// ListByInstructor retrieves all payouts of one instructor.
func (r *PayoutRepository) ListByInstructor(ctx context.Context, instructorID int) ([]model.Payout, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+payoutColumns+` FROM payouts
		 WHERE instructor_id = $1
		 ORDER BY request_date DESC`, instructorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayouts(rows)
}

// ListAll retrieves every payout, optionally filtered by status.
func (r *PayoutRepository) ListAll(ctx context.Context, status string) ([]model.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts`
	args := []any{}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	query += ` ORDER BY request_date DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayouts(rows)
}

// EarningsBalance computes an instructor's withdrawable balance:
// completed payments for their courses minus payouts that are not
// rejected (pending and approved requests reserve funds).
func (r *PayoutRepository) EarningsBalance(ctx context.Context, instructorID int) (float64, error) {
	var balance float64
	err := r.pool.QueryRow(ctx, earningsBalanceQuery, instructorID).Scan(&balance)
	return balance, err
}

func scanPayouts(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]model.Payout, error) {
	var payouts []model.Payout
	for rows.Next() {
		var p model.Payout
		if err := rows.Scan(&p.ID, &p.InstructorID, &p.Amount, &p.Status, &p.Method, &p.RequestDate, &p.PayoutDate); err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}
