package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MinLockTTL is the shortest lock lifetime Keep can refresh reliably.
const MinLockTTL = time.Second

var (
	// ErrLockHeld is returned when another collector owns the lock.
	ErrLockHeld = errors.New("collector lock is held by another process")
	// ErrLockTTL is returned for a lock lifetime below MinLockTTL.
	ErrLockTTL = errors.New("collector lock ttl is too short")
)

var (
	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// Lock guarantees a single collector writes to one database.
type Lock struct {
	client *redis.Client
	key    string
	owner  string
	ttl    time.Duration
}

// NewLock creates a lock on key held as owner.
func NewLock(client *redis.Client, key, owner string, ttl time.Duration) *Lock {
	return &Lock{
		client: client,
		key:    key,
		owner:  owner,
		ttl:    ttl,
	}
}

// Acquire takes the lock or returns ErrLockHeld.
func (l *Lock) Acquire(ctx context.Context) error {
	if err := l.validate(); err != nil {
		return err
	}

	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockHeld
	}

	return nil
}

// Refresh extends the lock. It returns ErrLockHeld if the lock expired and
// was taken by someone else.
func (l *Lock) Refresh(ctx context.Context) error {
	n, err := refreshScript.Run(ctx, l.client, []string{l.key}, l.owner, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockHeld
	}

	return nil
}

// Keep refreshes the lock until ctx is done. It returns an error only when
// the lock is lost.
func (l *Lock) Keep(ctx context.Context) error {
	if err := l.validate(); err != nil {
		return err
	}

	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.Refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// Release drops the lock if it is still owned.
func (l *Lock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Err()
}

func (l *Lock) validate() error {
	if l.ttl < MinLockTTL {
		return fmt.Errorf("%w: %s, minimum is %s", ErrLockTTL, l.ttl, MinLockTTL)
	}

	return nil
}
