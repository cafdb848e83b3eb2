package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type fakePayoutStore struct {
	payouts map[uuid.UUID]*model.Payout
	balance float64
}

func newFakePayoutStore(balance float64) *fakePayoutStore {
	return &fakePayoutStore{payouts: make(map[uuid.UUID]*model.Payout), balance: balance}
}

// CreateWithinBalance mirrors the real store: the balance check and the
// insert are one operation, and a stored payout reserves its amount.
func (s *fakePayoutStore) CreateWithinBalance(ctx context.Context, p *model.Payout) (bool, error) {
	if p.Amount > s.balance {
		return false, nil
	}
	s.balance -= p.Amount
	p.ID = uuid.New()
	p.RequestDate = time.Now().UTC()
	s.payouts[p.ID] = p
	return true, nil
}

func (s *fakePayoutStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Payout, error) {
	p, ok := s.payouts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (s *fakePayoutStore) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PayoutStatus) error {
	p := s.payouts[id]
	p.Status = status
	if status == model.PayoutStatusPaid {
		now := time.Now().UTC()
		p.PayoutDate = &now
	}
	return nil
}

func (s *fakePayoutStore) ListByInstructor(ctx context.Context, instructorID int) ([]model.Payout, error) {
	var out []model.Payout
	for _, p := range s.payouts {
		if p.InstructorID == instructorID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakePayoutStore) ListAll(ctx context.Context, status string) ([]model.Payout, error) {
	var out []model.Payout
	for _, p := range s.payouts {
		if status == "" || string(p.Status) == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakePayoutStore) EarningsBalance(ctx context.Context, instructorID int) (float64, error) {
	return s.balance, nil
}

func TestRequestPayoutWithinBalance(t *testing.T) {
	store := newFakePayoutStore(500)
	svc := NewPayoutService(store, &fakeNotifier{})

	payout, err := svc.Request(context.Background(), 1, &model.RequestPayoutRequest{Amount: 300, Method: "bank_transfer"})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if payout.Status != model.PayoutStatusPending {
		t.Fatalf("status = %q, want PENDING", payout.Status)
	}
}

func TestRequestPayoutExceedsBalance(t *testing.T) {
	store := newFakePayoutStore(100)
	svc := NewPayoutService(store, &fakeNotifier{})

	_, err := svc.Request(context.Background(), 1, &model.RequestPayoutRequest{Amount: 100.01, Method: "bank_transfer"})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("error = %v, want ErrInsufficientBalance", err)
	}
}

func TestRequestPayoutReservesFunds(t *testing.T) {
	store := newFakePayoutStore(100)
	svc := NewPayoutService(store, &fakeNotifier{})
	ctx := context.Background()

	if _, err := svc.Request(ctx, 1, &model.RequestPayoutRequest{Amount: 60, Method: "paypal"}); err != nil {
		t.Fatalf("first Request failed: %v", err)
	}

	// The pending payout reserves its amount, so a second request for
	// more than the remainder is rejected rather than over-reserving.
	if _, err := svc.Request(ctx, 1, &model.RequestPayoutRequest{Amount: 60, Method: "paypal"}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("second Request error = %v, want ErrInsufficientBalance", err)
	}
	if len(store.payouts) != 1 {
		t.Fatalf("persisted payouts = %d, want 1", len(store.payouts))
	}

	if _, err := svc.Request(ctx, 1, &model.RequestPayoutRequest{Amount: 40, Method: "paypal"}); err != nil {
		t.Fatalf("Request for the remainder failed: %v", err)
	}
}

func TestUpdateStatusLifecycle(t *testing.T) {
	store := newFakePayoutStore(1000)
	notifier := &fakeNotifier{}
	svc := NewPayoutService(store, notifier)
	ctx := context.Background()

	payout, err := svc.Request(ctx, 1, &model.RequestPayoutRequest{Amount: 200, Method: "paypal"})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	// Pending cannot jump straight to Paid.
	if _, err := svc.UpdateStatus(ctx, payout.ID, model.PayoutStatusPaid); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending→paid error = %v, want ErrInvalidTransition", err)
	}

	approved, err := svc.UpdateStatus(ctx, payout.ID, model.PayoutStatusApproved)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != model.PayoutStatusApproved {
		t.Fatalf("status = %q, want APPROVED", approved.Status)
	}

	paid, err := svc.UpdateStatus(ctx, payout.ID, model.PayoutStatusPaid)
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if paid.PayoutDate == nil {
		t.Fatalf("paid payout has no payout date")
	}

	// Paid is final.
	if _, err := svc.UpdateStatus(ctx, payout.ID, model.PayoutStatusRejected); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("paid→rejected error = %v, want ErrInvalidTransition", err)
	}

	if len(notifier.sent) != 2 {
		t.Fatalf("notifications sent = %d, want 2", len(notifier.sent))
	}
}

func TestUpdateStatusUnknownPayout(t *testing.T) {
	svc := NewPayoutService(newFakePayoutStore(0), &fakeNotifier{})

	if _, err := svc.UpdateStatus(context.Background(), uuid.New(), model.PayoutStatusApproved); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

// ─── CSV export ─────────────────────────────────────────────────────────────

func TestRenderPayoutCSVEmpty(t *testing.T) {
	got := renderPayoutCSV(nil)
	want := "Id,InstructorId,Amount,Status,RequestDate,PayoutDate,Method\n"
	if got != want {
		t.Fatalf("empty CSV = %q, want %q", got, want)
	}
}

func TestRenderPayoutCSVRow(t *testing.T) {
	id := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000001")
	requested := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	paid := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	payouts := []model.Payout{
		{
			ID:           id,
			InstructorID: 7,
			Amount:       149.5,
			Status:       model.PayoutStatusPaid,
			Method:       "bank_transfer",
			RequestDate:  requested,
			PayoutDate:   &paid,
		},
	}

	got := renderPayoutCSV(payouts)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}

	wantRow := "a1b2c3d4-0000-0000-0000-000000000001,7,149.50,PAID,2026-03-14T09:30:00Z,2026-03-20T12:00:00Z,bank_transfer"
	if lines[1] != wantRow {
		t.Fatalf("row = %q, want %q", lines[1], wantRow)
	}
}

func TestRenderPayoutCSVPendingHasEmptyPayoutDate(t *testing.T) {
	payouts := []model.Payout{
		{
			ID:           uuid.New(),
			InstructorID: 3,
			Amount:       20,
			Status:       model.PayoutStatusPending,
			Method:       "paypal",
			RequestDate:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}

	got := renderPayoutCSV(payouts)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	fields := strings.Split(lines[1], ",")
	if len(fields) != 7 {
		t.Fatalf("field count = %d, want 7", len(fields))
	}
	if fields[5] != "" {
		t.Fatalf("PayoutDate field = %q, want empty", fields[5])
	}
	if fields[2] != "20.00" {
		t.Fatalf("Amount field = %q, want 20.00", fields[2])
	}
}
