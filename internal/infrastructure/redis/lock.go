package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrLeaseLost is returned when the lease expired or was taken over.
var ErrLeaseLost = errors.New("device lease lost")

var (
	// Lua script for safe release (only the owner can release)
	releaseLeaseScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	// Lua script for renewal
	renewLeaseScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
)

// DeviceLease makes one engine instance the owner of a device bridge. Two
// instances driving the same handset would interleave USSD sessions.
type DeviceLease struct {
	client *redis.Client
	key    string
	owner  string
	ttl    time.Duration

	mu   sync.Mutex
	held bool
}

// NewDeviceLease creates a lease on device. owner identifies this instance
// in the stored value.
func NewDeviceLease(client *redis.Client, device, owner string, ttl time.Duration) *DeviceLease {
	return &DeviceLease{
		client: client,
		key:    fmt.Sprintf("lease:device:%s", device),
		owner:  fmt.Sprintf("%s:%s", owner, uuid.New().String()),
		ttl:    ttl,
	}
}

// Acquire takes the lease if nobody holds it.
func (l *DeviceLease) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease: %w", err)
	}

	l.mu.Lock()
	l.held = ok
	l.mu.Unlock()
	return ok, nil
}

// AcquireWithRetry polls until the lease is free or maxRetries is reached.
func (l *DeviceLease) AcquireWithRetry(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		acquired, err := l.Acquire(ctx)
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return fmt.Errorf("device %s is owned by another instance", l.key)
}

// Renew pushes the expiry out by one ttl.
func (l *DeviceLease) Renew(ctx context.Context) error {
	if !l.Held() {
		return ErrLeaseLost
	}

	result, err := renewLeaseScript.Run(ctx, l.client, []string{l.key}, l.owner, l.ttl.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("failed to renew lease: %w", err)
	}

	if val, ok := result.(int64); !ok || val == 0 {
		l.mu.Lock()
		l.held = false
		l.mu.Unlock()
		return ErrLeaseLost
	}
	return nil
}

// Keep renews the lease every ttl/3 until ctx ends or the lease is lost.
// Other renew errors are logged and retried on the next tick.
func (l *DeviceLease) Keep(ctx context.Context, logger zerolog.Logger) error {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := l.Renew(ctx); err != nil {
			if errors.Is(err, ErrLeaseLost) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn().Err(err).
				Str("lease", l.key).
				Dur("ttl", l.ttl).
				Msg("Failed to renew device lease")
		}
	}
}

// Release gives the lease up if this instance still holds it.
func (l *DeviceLease) Release(ctx context.Context) error {
	if !l.Held() {
		return nil
	}

	result, err := releaseLeaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Result()
	if err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}

	l.mu.Lock()
	l.held = false
	l.mu.Unlock()

	if val, ok := result.(int64); !ok || val == 0 {
		return ErrLeaseLost
	}
	return nil
}

func (l *DeviceLease) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}
