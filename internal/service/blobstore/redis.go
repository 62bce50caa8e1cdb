package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"zkmsg/internal/errs"

	"github.com/redis/go-redis/v9"
)

const blobKeyPrefix = "blob:"

// RedisStore is content addressed: the blob id is the hex SHA-256 of the
// data, so storing the same envelope twice yields the same id.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (r *RedisStore) Put(ctx context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	id := hex.EncodeToString(sum[:])

	if err := r.rdb.SetNX(ctx, blobKeyPrefix+id, data, 0).Err(); err != nil {
		return "", errs.Wrap(errs.ErrBackendUnavailable, err, "redis put blob")
	}
	return id, nil
}

func (r *RedisStore) Get(ctx context.Context, blobID string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, blobKeyPrefix+blobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: blob %s", errs.ErrNotFound, blobID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrBackendUnavailable, err, "redis get blob")
	}
	return data, nil
}
