package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abisalde/storefront-auth/internal/auth/service"
	"github.com/abisalde/storefront-auth/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	defaultBlock   = 5 * time.Second
	defaultBatch   = 50
	retryDelay     = time.Second
	defaultMinIdle = time.Minute
	reclaimEvery   = 30 * time.Second
)

type LastLoginRecorder interface {
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
}

// LastLoginWorker drains the login stream through a consumer group, so
// several service instances share the work without double writes. An event
// is acked only once it is recorded; entries left pending by a failed write
// or a dead consumer are claimed again once idle for minIdle.
type LastLoginWorker struct {
	redisClient  *redis.Client
	recorder     LastLoginRecorder
	log          logger.Logger
	consumer     string
	block        time.Duration
	batch        int64
	minIdle      time.Duration
	reclaimEvery time.Duration
}

func NewLastLoginWorker(redisClient *redis.Client, recorder LastLoginRecorder, log logger.Logger) *LastLoginWorker {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "auth"
	}

	return &LastLoginWorker{
		redisClient:  redisClient,
		recorder:     recorder,
		log:          log,
		consumer:     fmt.Sprintf("%s-%d", host, os.Getpid()),
		block:        defaultBlock,
		batch:        defaultBatch,
		minIdle:      defaultMinIdle,
		reclaimEvery: reclaimEvery,
	}
}

// Start blocks until ctx is cancelled.
func (w *LastLoginWorker) Start(ctx context.Context) error {
	if err := w.ensureGroup(ctx); err != nil {
		return err
	}

	w.reclaim(ctx)
	lastReclaim := time.Now()

	for {
		if ctx.Err() != nil {
			w.log.Info(context.Background(), "login event consumer shutting down")
			return nil
		}

		if time.Since(lastReclaim) >= w.reclaimEvery {
			w.reclaim(ctx)
			lastReclaim = time.Now()
		}

		streams, err := w.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    service.LoginGroup,
			Consumer: w.consumer,
			Streams:  []string{service.LoginStreamKey, ">"},
			Count:    w.batch,
			Block:    w.block,
		}).Result()

		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.Error(ctx, "failed to read login events", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
			continue
		}

		for _, stream := range streams {
			w.process(ctx, stream.Messages)
		}
	}
}

// reclaim takes over entries that have sat unacknowledged for minIdle,
// whichever consumer they were delivered to.
func (w *LastLoginWorker) reclaim(ctx context.Context) {
	start := "0-0"
	for {
		msgs, next, err := w.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   service.LoginStreamKey,
			Group:    service.LoginGroup,
			Consumer: w.consumer,
			MinIdle:  w.minIdle,
			Start:    start,
			Count:    w.batch,
		}).Result()
		if err != nil {
			if ctx.Err() == nil {
				w.log.Warn(ctx, "failed to reclaim login events", "error", err)
			}
			return
		}

		w.process(ctx, msgs)
		if next == "" || next == "0-0" {
			return
		}
		start = next
	}
}

func (w *LastLoginWorker) process(ctx context.Context, msgs []redis.XMessage) {
	for _, msg := range msgs {
		if err := w.handle(ctx, msg); err != nil {
			w.log.Error(ctx, "failed to record login event", "id", msg.ID, "error", err)
			continue
		}
		if err := w.redisClient.XAck(ctx, service.LoginStreamKey, service.LoginGroup, msg.ID).Err(); err != nil {
			w.log.Warn(ctx, "failed to ack login event", "id", msg.ID, "error", err)
		}
	}
}

func (w *LastLoginWorker) ensureGroup(ctx context.Context) error {
	err := w.redisClient.XGroupCreateMkStream(ctx, service.LoginStreamKey, service.LoginGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create login consumer group: %w", err)
	}
	return nil
}

// handle records one event. Malformed events are logged and dropped; only a
// failed write is returned, which leaves the entry pending.
func (w *LastLoginWorker) handle(ctx context.Context, msg redis.XMessage) error {
	raw, ok := msg.Values["event"].(string)
	if !ok {
		w.log.Warn(ctx, "login event without payload", "id", msg.ID)
		return nil
	}

	var event service.LoginEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		w.log.Warn(ctx, "failed to unmarshal login event", "id", msg.ID, "error", err)
		return nil
	}
	if event.EventType != "user_last_login" || event.UserID == "" {
		return nil
	}

	if err := w.recorder.UpdateLastLogin(ctx, event.UserID, event.Timestamp); err != nil {
		return fmt.Errorf("update last login for %s: %w", event.UserID, err)
	}
	return nil
}
