package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PayoutStore is the data access needed by PayoutService.
// CreateWithinBalance atomically checks the instructor's balance and
// inserts the pending payout, returning false when the balance does
// not cover the amount.
type PayoutStore interface {
	CreateWithinBalance(ctx context.Context, p *model.Payout) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Payout, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PayoutStatus) error
	ListByInstructor(ctx context.Context, instructorID int) ([]model.Payout, error)
	ListAll(ctx context.Context, status string) ([]model.Payout, error)
	EarningsBalance(ctx context.Context, instructorID int) (float64, error)
}

// payoutCSVHeader pins the export column order. Fields are joined with
// plain commas, no quoting — the upstream consumer expects the values
// verbatim.
const payoutCSVHeader = "Id,InstructorId,Amount,Status,RequestDate,PayoutDate,Method"

// PayoutService handles instructor payout requests and the admin
// lifecycle around them.
type PayoutService struct {
	payouts  PayoutStore
	notifier Notifier
}

// NewPayoutService creates a new PayoutService.
func NewPayoutService(payouts PayoutStore, notifier Notifier) *PayoutService {
	return &PayoutService{payouts: payouts, notifier: notifier}
}

// Request opens a pending payout if the instructor's balance covers the
// amount. Pending and approved requests already reserve funds; the
// store performs the balance check and the insert as one atomic
// operation, so concurrent requests cannot over-reserve.
func (s *PayoutService) Request(ctx context.Context, instructorID int, req *model.RequestPayoutRequest) (*model.Payout, error) {
	payout := &model.Payout{
		InstructorID: instructorID,
		Amount:       req.Amount,
		Status:       model.PayoutStatusPending,
		Method:       req.Method,
	}
	ok, err := s.payouts.CreateWithinBalance(ctx, payout)
	if err != nil {
		return nil, fmt.Errorf("create payout: %w", err)
	}
	if !ok {
		return nil, ErrInsufficientBalance
	}
	return payout, nil
}

// Balance reports the instructor's withdrawable earnings.
func (s *PayoutService) Balance(ctx context.Context, instructorID int) (float64, error) {
	return s.payouts.EarningsBalance(ctx, instructorID)
}

// ListOwn retrieves the instructor's payout history.
func (s *PayoutService) ListOwn(ctx context.Context, instructorID int) ([]model.Payout, error) {
	payouts, err := s.payouts.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	return payouts, nil
}

// ListAll retrieves every payout, optionally filtered by status (admin).
func (s *PayoutService) ListAll(ctx context.Context, status string) ([]model.Payout, error) {
	payouts, err := s.payouts.ListAll(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	return payouts, nil
}

// UpdateStatus transitions a payout through its lifecycle (admin).
// Invalid transitions are rejected; the instructor is notified.
func (s *PayoutService) UpdateStatus(ctx context.Context, id uuid.UUID, next model.PayoutStatus) (*model.Payout, error) {
	payout, err := s.payouts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payout: %w", err)
	}

	if !payout.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	if err := s.payouts.UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("update payout status: %w", err)
	}

	s.notifier.Notify(ctx, payout.InstructorID, model.NotificationPayoutStatus,
		"Payout update", fmt.Sprintf("Your payout of %.2f is now %s.", payout.Amount, next))

	return s.payouts.GetByID(ctx, id)
}

// ExportCSV renders payouts as comma-separated text in a fixed column
// order. Zero rows yields just the header line.
func (s *PayoutService) ExportCSV(ctx context.Context, status string) (string, error) {
	payouts, err := s.payouts.ListAll(ctx, status)
	if err != nil {
		return "", fmt.Errorf("list payouts: %w", err)
	}
	return renderPayoutCSV(payouts), nil
}

func renderPayoutCSV(payouts []model.Payout) string {
	var b strings.Builder
	b.WriteString(payoutCSVHeader)
	b.WriteByte('\n')

	for _, p := range payouts {
		payoutDate := ""
		if p.PayoutDate != nil {
			payoutDate = p.PayoutDate.UTC().Format(time.RFC3339)
		}
		b.WriteString(strings.Join([]string{
			p.ID.String(),
			strconv.Itoa(p.InstructorID),
			strconv.FormatFloat(p.Amount, 'f', 2, 64),
			string(p.Status),
			p.RequestDate.UTC().Format(time.RFC3339),
			payoutDate,
			p.Method,
		}, ","))
		b.WriteByte('\n')
	}
	return b.String()
}
