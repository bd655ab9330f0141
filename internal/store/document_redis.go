package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisDocumentStore keeps documents as plain redis strings without expiry.
type RedisDocumentStore struct {
	rdb    *redis.Client
	addr   string
	prefix string
}

var _ DocumentStore = (*RedisDocumentStore)(nil)

func NewRedisDocumentStore(addr, password string, db int, prefix string) (*RedisDocumentStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisDocumentStore{rdb: rdb, addr: addr, prefix: prefix}, nil
}

func (s *RedisDocumentStore) key(jobID uuid.UUID) string {
	return s.prefix + jobID.String()
}

func (s *RedisDocumentStore) Put(ctx context.Context, jobID uuid.UUID, data []byte) (string, error) {
	key := s.key(jobID)
	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return "", errors.Wrapf(err, "failed to store document %s", jobID)
	}
	return fmt.Sprintf("redis://%s/%s", s.addr, key), nil
}

func (s *RedisDocumentStore) Get(ctx context.Context, jobID uuid.UUID) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.key(jobID)).Bytes()
	if err == redis.Nil {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read document %s", jobID)
	}
	return data, nil
}

func (s *RedisDocumentStore) Type() string {
	return "redis"
}

func (s *RedisDocumentStore) Close() error {
	return s.rdb.Close()
}
