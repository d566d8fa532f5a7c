package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	MaxFailedAttempts = 5
	LockoutWindow     = 10 * time.Minute
)

// AttemptGuard counts failed code submissions per user
type AttemptGuard interface {
	Locked(ctx context.Context, userID uuid.UUID) (bool, error)
	Fail(ctx context.Context, userID uuid.UUID) error
	Reset(ctx context.Context, userID uuid.UUID) error
}

type attemptWindow struct {
	count int
	start time.Time
}

// MemoryGuard is an in-process AttemptGuard. Counts are lost on restart and
// not shared between replicas.
type MemoryGuard struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*attemptWindow
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewMemoryGuard creates a guard that locks after max failures within window
func NewMemoryGuard(max int, window time.Duration) *MemoryGuard {
	return &MemoryGuard{
		entries: make(map[uuid.UUID]*attemptWindow),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

// current returns the live window for the user, dropping an expired one.
// Caller holds mu.
func (g *MemoryGuard) current(userID uuid.UUID) *attemptWindow {
	w, ok := g.entries[userID]
	if !ok {
		return nil
	}
	if g.now().Sub(w.start) >= g.window {
		delete(g.entries, userID)
		return nil
	}
	return w
}

func (g *MemoryGuard) Locked(_ context.Context, userID uuid.UUID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	w := g.current(userID)
	return w != nil && w.count >= g.max, nil
}

func (g *MemoryGuard) Fail(_ context.Context, userID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if w := g.current(userID); w != nil {
		w.count++
		return nil
	}
	g.entries[userID] = &attemptWindow{count: 1, start: g.now()}
	return nil
}

func (g *MemoryGuard) Reset(_ context.Context, userID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, userID)
	return nil
}

// RedisGuard keeps the counters in Redis so every replica sees them
type RedisGuard struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewRedisGuard creates a guard that locks after max failures within window
func NewRedisGuard(client *redis.Client, max int, window time.Duration) *RedisGuard {
	return &RedisGuard{client: client, max: max, window: window}
}

func attemptsKey(userID uuid.UUID) string {
	return "otp:attempts:" + userID.String()
}

func (g *RedisGuard) Locked(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := g.client.Get(ctx, attemptsKey(userID)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read attempts: %w", err)
	}
	return n >= g.max, nil
}

// failScript increments the counter and arms the window expiry in one step.
// A counter left without a TTL gets one on the next failure.
var failScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Fail increments the counter; the first failure starts the window
func (g *RedisGuard) Fail(ctx context.Context, userID uuid.UUID) error {
	err := failScript.Run(ctx, g.client, []string{attemptsKey(userID)}, g.window.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("count attempt: %w", err)
	}
	return nil
}

func (g *RedisGuard) Reset(ctx context.Context, userID uuid.UUID) error {
	if err := g.client.Del(ctx, attemptsKey(userID)).Err(); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}
