package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/repository"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NotificationService dispatches and reads notifications. Dispatch is
// asynchronous: messages are pushed onto a Redis queue that the
// notification worker drains into Postgres, and published to the
// recipient's PubSub channel for live WebSocket delivery.
type NotificationService struct {
	rdb              *redis.Client
	notificationRepo *repository.NotificationRepository
	log              zerolog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(rdb *redis.Client, notificationRepo *repository.NotificationRepository, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		rdb:              rdb,
		notificationRepo: notificationRepo,
		log:              log.With().Str("component", "notification_service").Logger(),
	}
}

// Notify queues a notification for persistence and publishes it live.
// Best-effort: a dispatch failure is logged, never propagated, so
// domain operations cannot fail on notification plumbing.
func (s *NotificationService) Notify(ctx context.Context, accountID int, t model.NotificationType, title, body string) {
	msg := model.NotificationMessage{
		AccountID: accountID,
		Type:      t,
		Title:     title,
		Body:      body,
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal notification")
		return
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.NotificationQueue, raw).Err(); err != nil {
		s.log.Error().Err(err).Int("account_id", accountID).Msg("queue notification")
	}

	if err := s.rdb.Publish(ctx, config.CacheKey.NotificationChannel(accountID), raw).Err(); err != nil {
		s.log.Warn().Err(err).Int("account_id", accountID).Msg("publish notification")
	}
}

// List retrieves the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, accountID, page, perPage int) ([]model.Notification, *response.Pagination, error) {
	notifications, total, err := s.notificationRepo.ListByAccount(ctx, accountID, page, perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, buildPagination(page, perPage, total), nil
}

// MarkRead flags one of the caller's notifications read.
func (s *NotificationService) MarkRead(ctx context.Context, accountID, notificationID int) error {
	ok, err := s.notificationRepo.MarkRead(ctx, accountID, notificationID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flags every notification of the caller read.
func (s *NotificationService) MarkAllRead(ctx context.Context, accountID int) error {
	if err := s.notificationRepo.MarkAllRead(ctx, accountID); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}
