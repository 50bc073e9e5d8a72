package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream    = "audit:events"
	defaultMaxStream = 100_000
)

// RedisRepo appends events to a capped Redis stream.
type RedisRepo struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewRedisRepo(rdb *redis.Client, stream string) *RedisRepo {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisRepo{rdb: rdb, stream: stream, maxLen: defaultMaxStream}
}

func (r *RedisRepo) Append(ctx context.Context, e Event) error {
	err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]any{
			"id":         e.ID,
			"type":       string(e.Type),
			"identity":   e.Identity,
			"room":       e.Room,
			"path":       e.Path,
			"ip_address": e.IPAddress,
			"request_id": e.RequestID,
			"message":    e.Message,
			"created_at": e.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("audit: redis xadd: %w", err)
	}
	return nil
}
