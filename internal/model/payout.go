package model

import (
	"time"

	"github.com/google/uuid"
)

// PayoutStatus enumerates payout lifecycle states.
type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "PENDING"
	PayoutStatusApproved PayoutStatus = "APPROVED"
	PayoutStatusPaid     PayoutStatus = "PAID"
	PayoutStatusRejected PayoutStatus = "REJECTED"
)

// CanTransitionTo reports whether a payout may move from s to next.
// Pending → Approved/Rejected, Approved → Paid; everything else is final.
func (s PayoutStatus) CanTransitionTo(next PayoutStatus) bool {
	switch s {
	case PayoutStatusPending:
		return next == PayoutStatusApproved || next == PayoutStatusRejected
	case PayoutStatusApproved:
		return next == PayoutStatusPaid
	}
	return false
}

// Payout is an instructor's requested transfer of accumulated earnings.
type Payout struct {
	ID           uuid.UUID    `json:"id"`
	InstructorID int          `json:"instructor_id"`
	Amount       float64      `json:"amount"`
	Status       PayoutStatus `json:"status"`
	Method       string       `json:"method"`
	RequestDate  time.Time    `json:"request_date"`
	PayoutDate   *time.Time   `json:"payout_date,omitempty"`
}

// RequestPayoutRequest is the payload for requesting a payout.
type RequestPayoutRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required,oneof=bank_transfer paypal"`
}

// UpdatePayoutStatusRequest is the admin payload for a status transition.
type UpdatePayoutStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=APPROVED PAID REJECTED"`
}
