package mediaindex

import (
	"context"
	"errors"
	"fmt"

	"custodia/internal/domain"

	"github.com/redis/go-redis/v9"
)

const knownSetKey = "custodia:media:known"

type Redis struct {
	client *redis.Client
}

func NewRedis(addr, password string, db int) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: client}, nil
}

func (r *Redis) Add(ctx context.Context, mediaID string) error {
	if err := r.client.SAdd(ctx, knownSetKey, mediaID).Err(); err != nil {
		return fmt.Errorf("%w: media index add: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, mediaID string) error {
	if err := r.client.SRem(ctx, knownSetKey, mediaID).Err(); err != nil {
		return fmt.Errorf("%w: media index remove: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *Redis) IsKnown(ctx context.Context, mediaID string) (bool, error) {
	known, err := r.client.SIsMember(ctx, knownSetKey, mediaID).Result()
	if err != nil {
		return false, fmt.Errorf("%w: media index lookup: %v", domain.ErrStorageUnavailable, err)
	}
	return known, nil
}
