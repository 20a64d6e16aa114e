package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abisalde/storefront-auth/internal/auth/service"
	"github.com/abisalde/storefront-auth/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderFunc func(ctx context.Context, userID string, at time.Time) error

func (f recorderFunc) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	return f(ctx, userID, at)
}

func publish(t *testing.T, client *redis.Client, values map[string]interface{}) {
	t.Helper()
	require.NoError(t, client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: service.LoginStreamKey,
		Values: values,
	}).Err())
}

func TestLastLoginWorker_RecordsEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var (
		mu   sync.Mutex
		seen = map[string]time.Time{}
	)
	w := NewLastLoginWorker(client, recorderFunc(func(_ context.Context, userID string, at time.Time) error {
		mu.Lock()
		defer mu.Unlock()
		seen[userID] = at
		return nil
	}), logger.Nop())
	w.block = 50 * time.Millisecond

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	event, err := json.Marshal(service.LoginEvent{UserID: "user-1", Timestamp: at, EventType: "user_last_login"})
	require.NoError(t, err)

	publish(t, client, map[string]interface{}{"event": event})
	publish(t, client, map[string]interface{}{"event": "{broken"})
	publish(t, client, map[string]interface{}{"other": "field"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, 2*time.Second, 20*time.Millisecond)

	second, err := json.Marshal(service.LoginEvent{UserID: "user-2", Timestamp: at, EventType: "user_last_login"})
	require.NoError(t, err)
	publish(t, client, map[string]interface{}{"event": second})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, seen["user-1"].Equal(at))

	pending, err := client.XPending(context.Background(), service.LoginStreamKey, service.LoginGroup).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending.Count)
}

func runWorker(t *testing.T, w *LastLoginWorker) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("worker did not stop after cancel")
		}
	})
}

func loginEvent(t *testing.T, userID string) map[string]interface{} {
	t.Helper()
	event, err := json.Marshal(service.LoginEvent{UserID: userID, Timestamp: time.Now().UTC(), EventType: "user_last_login"})
	require.NoError(t, err)
	return map[string]interface{}{"event": event}
}

func TestLastLoginWorker_RetriesFailedWrites(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var (
		mu       sync.Mutex
		calls    int
		recorded bool
	)
	w := NewLastLoginWorker(client, recorderFunc(func(context.Context, string, time.Time) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return errors.New("database unavailable")
		}
		recorded = true
		return nil
	}), logger.Nop())
	w.block = 50 * time.Millisecond
	w.minIdle = 0
	w.reclaimEvery = 50 * time.Millisecond

	publish(t, client, loginEvent(t, "user-1"))
	runWorker(t, w)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return recorded
	}, 2*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		pending, err := client.XPending(context.Background(), service.LoginStreamKey, service.LoginGroup).Result()
		return err == nil && pending.Count == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLastLoginWorker_ClaimsEntriesOfDeadConsumer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	require.NoError(t, client.XGroupCreateMkStream(ctx, service.LoginStreamKey, service.LoginGroup, "0").Err())
	publish(t, client, loginEvent(t, "user-1"))

	// delivered to an instance that died before acking
	_, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    service.LoginGroup,
		Consumer: "crashed-1",
		Streams:  []string{service.LoginStreamKey, ">"},
		Count:    10,
	}).Result()
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen []string
	)
	w := NewLastLoginWorker(client, recorderFunc(func(_ context.Context, userID string, _ time.Time) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, userID)
		return nil
	}), logger.Nop())
	w.block = 50 * time.Millisecond
	w.minIdle = 0

	runWorker(t, w)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1 && seen[0] == "user-1"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLastLoginWorker_ReusesExistingGroup(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	w := NewLastLoginWorker(client, recorderFunc(func(context.Context, string, time.Time) error { return nil }), logger.Nop())
	require.NoError(t, w.ensureGroup(context.Background()))
	require.NoError(t, w.ensureGroup(context.Background()))
}
