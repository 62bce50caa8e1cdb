// Package redis keeps notifications for participants that are offline until
// they next connect.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"zkmsg/internal/errs"
	"zkmsg/internal/model"
	"zkmsg/internal/utils/log"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type (
	// Queue is a per-participant FIFO of pending notifications. Drain returns
	// and removes everything queued for the participant.
	Queue interface {
		Push(ctx context.Context, participant string, n ...*model.Notification) error
		Drain(ctx context.Context, participant string) ([]*model.Notification, error)
	}

	RedisService struct {
		rdb *redis.Client
	}

	MemoryQueue struct {
		mu     sync.Mutex
		queues map[string][]*model.Notification
	}
)

func NewRedis(rdb *redis.Client) *RedisService {
	return &RedisService{
		rdb: rdb,
	}
}

func queueKey(participant string) string {
	return fmt.Sprintf("to: %s", participant)
}

func (r *RedisService) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisService) Push(ctx context.Context, participant string, n ...*model.Notification) error {
	if len(n) == 0 {
		return nil
	}
	vals := make([]any, 0, len(n))
	for _, m := range n {
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		vals = append(vals, data)
	}

	if err := r.rdb.RPush(ctx, queueKey(participant), vals...).Err(); err != nil {
		return errs.Wrap(errs.ErrBackendUnavailable, err, "queue notification")
	}
	return nil
}

// Drain reads and deletes the list in one transaction so a concurrent Push is
// either drained now or kept for the next connect.
func (r *RedisService) Drain(ctx context.Context, participant string) ([]*model.Notification, error) {
	key := queueKey(participant)

	var lrange *redis.StringSliceCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrBackendUnavailable, err, "drain notifications")
	}

	var res []*model.Notification
	for _, v := range lrange.Val() {
		var m model.Notification
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			log.Warn("drop undecodable queued notification", zap.String("participant", participant), zap.Error(err))
			continue
		}
		res = append(res, &m)
	}
	return res, nil
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{queues: make(map[string][]*model.Notification)}
}

func (q *MemoryQueue) Push(_ context.Context, participant string, n ...*model.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queues[participant] = append(q.queues[participant], n...)
	return nil
}

func (q *MemoryQueue) Drain(_ context.Context, participant string) ([]*model.Notification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	res := q.queues[participant]
	delete(q.queues, participant)
	return res, nil
}
