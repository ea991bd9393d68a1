package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CheckpointStore keeps the identifiers of seeds that completed without
// failures so an interrupted run can skip them on restart.
type CheckpointStore interface {
	LoadSeed(ctx context.Context, seedURL string) ([]string, bool, error)
	SaveSeed(ctx context.Context, seedURL string, ids []string) error
}

type redisCheckpointStore struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

// NewRedisCheckpointStore stores checkpoints under bestsellers:checkpoint:<seed>.
// A zero ttl keeps them forever.
func NewRedisCheckpointStore(redisClient *redis.Client, ttl time.Duration) CheckpointStore {
	return &redisCheckpointStore{
		redisClient: redisClient,
		keyPrefix:   "bestsellers:checkpoint:",
		ttl:         ttl,
	}
}

func (s *redisCheckpointStore) LoadSeed(ctx context.Context, seedURL string) ([]string, bool, error) {
	val, err := s.redisClient.Get(ctx, s.keyPrefix+seedURL).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load checkpoint for seed %s: %w", seedURL, err)
	}

	return decodeIdentifiers(val), true, nil
}

func (s *redisCheckpointStore) SaveSeed(ctx context.Context, seedURL string, ids []string) error {
	err := s.redisClient.Set(ctx, s.keyPrefix+seedURL, encodeIdentifiers(ids), s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to save checkpoint for seed %s: %w", seedURL, err)
	}
	return nil
}

func encodeIdentifiers(ids []string) string {
	return strings.Join(ids, "\n")
}

func decodeIdentifiers(val string) []string {
	if val == "" {
		return []string{}
	}
	return strings.Split(val, "\n")
}

// noopCheckpointStore is used when Redis is disabled.
type noopCheckpointStore struct{}

func NewNoopCheckpointStore() CheckpointStore {
	return noopCheckpointStore{}
}

func (noopCheckpointStore) LoadSeed(context.Context, string) ([]string, bool, error) {
	return nil, false, nil
}

func (noopCheckpointStore) SaveSeed(context.Context, string, []string) error {
	return nil
}
