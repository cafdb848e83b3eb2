package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus enumerates payment lifecycle states.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment is a student's purchase of one course. Amount is copied from
// the course price at creation time.
type Payment struct {
	ID          uuid.UUID     `json:"id"`
	StudentID   int           `json:"student_id"`
	CourseID    uuid.UUID     `json:"course_id"`
	Amount      float64       `json:"amount"`
	Status      PaymentStatus `json:"status"`
	Method      string        `json:"method"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// CreatePaymentRequest is the payload for starting a course purchase.
type CreatePaymentRequest struct {
	CourseID uuid.UUID `json:"course_id" binding:"required"`
	Method   string    `json:"method" binding:"required,oneof=card bank_transfer wallet"`
}
