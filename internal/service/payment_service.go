package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/authz"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentService handles course purchase business logic. There is no
// real payment gateway; completing a payment is an explicit call that a
// gateway webhook would normally make.
type PaymentService struct {
	paymentRepo       *repository.PaymentRepository
	courseService     *CourseService
	enrollmentService *EnrollmentService
	notifier          Notifier
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	paymentRepo *repository.PaymentRepository,
	courseService *CourseService,
	enrollmentService *EnrollmentService,
	notifier Notifier,
) *PaymentService {
	return &PaymentService{
		paymentRepo:       paymentRepo,
		courseService:     courseService,
		enrollmentService: enrollmentService,
		notifier:          notifier,
	}
}

// Create opens a pending payment for a published course. The amount is
// copied from the course price at creation time.
func (s *PaymentService) Create(ctx context.Context, studentID int, req *model.CreatePaymentRequest) (*model.Payment, error) {
	course, err := s.courseService.getByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !course.Published {
		return nil, ErrNotFound
	}

	payment := &model.Payment{
		StudentID: studentID,
		CourseID:  course.ID,
		Amount:    course.Price,
		Status:    model.PaymentStatusPending,
		Method:    req.Method,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return payment, nil
}

// Complete marks a pending payment completed and enrolls the student.
// Only the paying student (or an admin) may complete it.
func (s *PaymentService) Complete(ctx context.Context, actor authz.Actor, paymentID uuid.UUID) (*model.Payment, error) {
	payment, err := s.getByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(actor, payment.StudentID); err != nil {
		return nil, err
	}

	ok, err := s.paymentRepo.Complete(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("complete payment: %w", err)
	}
	if !ok {
		return nil, ErrPaymentNotPending
	}

	// Enroll on successful payment. Already-enrolled is fine here: the
	// payment simply settles.
	if _, err := s.enrollmentService.Enroll(ctx, payment.StudentID, payment.CourseID); err != nil && !errors.Is(err, ErrAlreadyEnrolled) {
		return nil, fmt.Errorf("enroll after payment: %w", err)
	}

	s.notifier.Notify(ctx, payment.StudentID, model.NotificationPayment,
		"Payment completed", fmt.Sprintf("Your payment of %.2f was received.", payment.Amount))

	return s.getByID(ctx, paymentID)
}

// ListOwn retrieves the caller's payments.
func (s *PaymentService) ListOwn(ctx context.Context, studentID int) ([]model.Payment, error) {
	payments, err := s.paymentRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (s *PaymentService) getByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return payment, nil
}
