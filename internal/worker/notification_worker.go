package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	NotifyBatchSize    = 50
	NotifyBatchTimeout = 2 * time.Second
	NotifyPollTimeout  = 1 * time.Second
)

// NotificationWorker drains the Redis notification queue into Postgres.
// Writes are batched; a failed batch falls back to single inserts and
// requeues whatever still cannot be written.
type NotificationWorker struct {
	repo *repository.NotificationRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewNotificationWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *NotificationWorker {
	return &NotificationWorker{
		repo: repository.NewNotificationRepository(pool),
		rdb:  rdb,
		log:  log.With().Str("component", "notification_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *NotificationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("NotificationWorker started")

	batch := make([]model.Notification, 0, NotifyBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= NotifyBatchSize || time.Since(lastFlush) >= NotifyBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, NotifyPollTimeout, config.WorkerKey.NotificationQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var msg model.NotificationMessage
			if err := json.Unmarshal([]byte(item[1]), &msg); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, model.Notification{
				AccountID: msg.AccountID,
				Type:      msg.Type,
				Title:     msg.Title,
				Body:      msg.Body,
			})
		}
	}
}

// ----------------------------------------------------------------
// Batch insert wrapper
// ----------------------------------------------------------------

func (w *NotificationWorker) flushSafe(ctx context.Context, batch []model.Notification) {
	if len(batch) == 0 {
		return
	}

	if err := w.repo.InsertBatch(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk notification insert failed, using fallback")

		for i := range batch {
			n := batch[i]
			if err := w.repo.Insert(ctx, &n); err != nil {
				w.log.Error().Err(err).Msg("single insert failed — requeueing")
				raw, _ := json.Marshal(model.NotificationMessage{
					AccountID: n.AccountID,
					Type:      n.Type,
					Title:     n.Title,
					Body:      n.Body,
				})
				w.rdb.RPush(ctx, config.WorkerKey.NotificationQueue, raw)
			}
		}
	}
}
