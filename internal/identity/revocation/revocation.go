// Package revocation tracks logged-out token IDs until their natural expiry.
// Entries carry a TTL equal to the token's remaining lifetime, so the set
// never grows beyond tokens that would otherwise still validate.
package revocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked_jti:"

// Redis stores revoked token IDs in Redis so revocation survives restarts
// and is shared across replicas.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // token already expired, nothing to revoke
	}
	if err := r.client.Set(ctx, keyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *Redis) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}

// InMemory is the single-process fallback when Redis is not configured.
type InMemory struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{revoked: make(map[string]time.Time)}
}

func (r *InMemory) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = time.Now().Add(ttl)
	return nil
}

func (r *InMemory) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.RLock()
	expiry, ok := r.revoked[jti]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		r.mu.Lock()
		delete(r.revoked, jti)
		r.mu.Unlock()
		return false, nil
	}
	return true, nil
}
