package gamestate

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

var _ PrimitiveStorage = &RedisStorage{}

type RedisStorage struct {
	currentClient redis.Cmdable
}

func NewRedisPrimitiveStorage(client redis.Cmdable) *RedisStorage {
	return &RedisStorage{
		currentClient: client,
	}
}

// wrapNil converts redis.Nil into ErrNotFound so callers never depend on redis specific errors.
func wrapNil(err error) error {
	if eris.Is(err, redis.Nil) {
		return eris.Wrap(ErrNotFound, "")
	}
	return eris.Wrap(err, "")
}

func (r *RedisStorage) GetUInt64(ctx context.Context, key string) (uint64, error) {
	res, err := r.currentClient.Get(ctx, key).Uint64()
	if err != nil {
		return 0, wrapNil(err)
	}
	return res, nil
}

func (r *RedisStorage) Set(ctx context.Context, key string, value any) error {
	return eris.Wrap(r.currentClient.Set(ctx, key, value, 0).Err(), "")
}

func (r *RedisStorage) HGet(ctx context.Context, key, field string) ([]byte, error) {
	bz, err := r.currentClient.HGet(ctx, key, field).Bytes()
	if err != nil {
		return nil, wrapNil(err)
	}
	return bz, nil
}

func (r *RedisStorage) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	res, err := r.currentClient.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, eris.Wrap(err, "")
	}
	return res, nil
}

func (r *RedisStorage) HSet(ctx context.Context, key, field string, value any) error {
	return eris.Wrap(r.currentClient.HSet(ctx, key, field, value).Err(), "")
}

func (r *RedisStorage) HDel(ctx context.Context, key string, fields ...string) error {
	return eris.Wrap(r.currentClient.HDel(ctx, key, fields...).Err(), "")
}

func (r *RedisStorage) StartTransaction(_ context.Context) (Transaction, error) {
	pipeline := r.currentClient.TxPipeline()
	return NewRedisPrimitiveStorage(pipeline), nil
}

func (r *RedisStorage) EndTransaction(ctx context.Context) error {
	pipeline, ok := r.currentClient.(redis.Pipeliner)
	if !ok {
		return eris.New("current redis storage is not a pipeline/transaction")
	}
	if _, err := pipeline.Exec(ctx); err != nil {
		return eris.Wrap(err, "failed to execute redis transaction")
	}
	return nil
}
