package repository

import (
	"context"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRepository handles notification data access.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Insert persists one notification.
func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO notifications (account_id, type, title, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		n.AccountID, n.Type, n.Title, n.Body,
	).Scan(&n.ID, &n.CreatedAt)
}

// InsertBatch persists a batch of notifications in one statement using
// UNNEST, the bulk idiom used by the background worker.
func (r *NotificationRepository) InsertBatch(ctx context.Context, batch []model.Notification) error {
	n := len(batch)
	accountIDs := make([]int, 0, n)
	types := make([]string, 0, n)
	titles := make([]string, 0, n)
	bodies := make([]string, 0, n)

	for _, item := range batch {
		accountIDs = append(accountIDs, item.AccountID)
		types = append(types, string(item.Type))
		titles = append(titles, item.Title)
		bodies = append(bodies, item.Body)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (account_id, type, title, body)
		 SELECT * FROM UNNEST($1::int[], $2::text[], $3::text[], $4::text[])`,
		accountIDs, types, titles, bodies)
	return err
}

// ListByAccount retrieves notifications for one account, newest first.
func (r *NotificationRepository) ListByAccount(ctx context.Context, accountID, page, perPage int) ([]model.Notification, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE account_id = $1`, accountID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, account_id, type, title, body, read, created_at
		 FROM notifications
		 WHERE account_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Type, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}
	return notifications, total, rows.Err()
}

// MarkRead flags one notification read. Scoped to the owning account so
// callers cannot flag someone else's rows.
func (r *NotificationRepository) MarkRead(ctx context.Context, accountID, notificationID int) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE
		 WHERE id = $1 AND account_id = $2`, notificationID, accountID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// MarkAllRead flags every notification of an account read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, accountID int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE
		 WHERE account_id = $1 AND read = FALSE`, accountID)
	return err
}
