package model

import "time"

// NotificationType enumerates the domain events that produce notifications.
type NotificationType string

const (
	NotificationEnrollment   NotificationType = "ENROLLMENT"
	NotificationPayment      NotificationType = "PAYMENT_COMPLETED"
	NotificationPayoutStatus NotificationType = "PAYOUT_STATUS"
	NotificationQuizGraded   NotificationType = "QUIZ_GRADED"
)

// NotificationMessage is the queue/pubsub payload a notification is
// dispatched as before it is persisted.
type NotificationMessage struct {
	AccountID int              `json:"account_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
}

// Notification is a persisted message addressed to one account.
type Notification struct {
	ID        int              `json:"id"`
	AccountID int              `json:"account_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
