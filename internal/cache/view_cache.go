package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewCache stores rendered read models (dashboards, job pages, applicant lists) and drops
// them when the underlying rows change. Readers treat any cache error as a miss.
type ViewCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Keys builds cache keys under a common prefix.
type Keys struct {
	Prefix string
}

// Dashboard is the per-user dashboard key.
func (k Keys) Dashboard(userID string) string {
	return fmt.Sprintf("%s:view:dashboard:%s", k.Prefix, userID)
}

// Job is the public job detail key.
func (k Keys) Job(jobID string) string {
	return fmt.Sprintf("%s:view:job:%s", k.Prefix, jobID)
}

// Applicants is the owner's applicant list key for a job.
func (k Keys) Applicants(jobID string) string {
	return fmt.Sprintf("%s:view:applicants:%s", k.Prefix, jobID)
}

type redisViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisViewCache returns a ViewCache backed by client. A nil client yields a cache that
// always misses and never fails.
func NewRedisViewCache(client *redis.Client, ttl time.Duration) ViewCache {
	return &redisViewCache{client: client, ttl: ttl}
}

func (c *redisViewCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// a corrupt entry is dropped rather than served
		_ = c.client.Del(ctx, key).Err()
		return false, err
	}
	return true, nil
}

func (c *redisViewCache) SetJSON(ctx context.Context, key string, value any) error {
	if c.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

func (c *redisViewCache) Invalidate(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Nop is a ViewCache that stores nothing.
type Nop struct{}

func (Nop) GetJSON(context.Context, string, any) (bool, error) { return false, nil }
func (Nop) SetJSON(context.Context, string, any) error         { return nil }
func (Nop) Invalidate(context.Context, ...string) error        { return nil }
