// Package cache описывает кэш байтовых значений с TTL.
package cache

import (
	"context"
	"time"
)

// BytesCache описывает кэш, которым пользуется поиск отслеживания.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
