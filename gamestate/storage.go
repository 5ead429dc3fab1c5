package gamestate

import (
	"context"
)

// PrimitiveStorage is the durable layer underneath a Store. Implementations return ErrNotFound (possibly wrapped)
// for missing keys.
type PrimitiveStorage interface {
	GetUInt64(ctx context.Context, key string) (uint64, error)
	Set(ctx context.Context, key string, value any) error
	HGet(ctx context.Context, key, field string) ([]byte, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key, field string, value any) error
	HDel(ctx context.Context, key string, fields ...string) error
	StartTransaction(ctx context.Context) (Transaction, error)
	EndTransaction(ctx context.Context) error
}

// Transaction queues writes until EndTransaction applies them atomically. Reads are not supported while queued.
type Transaction = PrimitiveStorage
