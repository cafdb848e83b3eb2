package service

import "errors"

// Sentinel errors shared by the domain services. Handlers map these to
// HTTP statuses and typed response codes; raw database errors never
// reach a caller.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("refresh token missing, unknown, or expired")
	ErrAlreadyEnrolled     = errors.New("student already enrolled in course")
	ErrNotEnrolled         = errors.New("student not enrolled in course")
	ErrAlreadySubmitted    = errors.New("quiz already submitted by student")
	ErrNoQuestions         = errors.New("quiz has no questions")
	ErrPaymentRequired     = errors.New("completed payment required for paid course")
	ErrPaymentNotPending   = errors.New("payment is not pending")
	ErrInsufficientBalance = errors.New("payout amount exceeds available balance")
	ErrInvalidTransition   = errors.New("status transition not allowed")
)
