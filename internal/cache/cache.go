package cache

import (
	"context"
	"time"
)

// BytesCache is a shared cache tier for serialized values.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
