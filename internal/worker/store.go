package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrNoBuild is returned when no build has been recorded yet
var ErrNoBuild = errors.New("no build recorded")

// Store keeps the report of the most recent build in Redis
type Store struct {
	client *redis.Client
	key    string
}

// NewStore creates a store writing under key
func NewStore(client *redis.Client, key string) *Store {
	return &Store{client: client, key: key}
}

// SaveLast replaces the recorded report
func (s *Store) SaveLast(ctx context.Context, report []byte) error {
	if err := s.client.Set(ctx, s.key, report, 0).Err(); err != nil {
		return fmt.Errorf("failed to save build report: %w", err)
	}
	return nil
}

// Last returns the recorded report
func (s *Store) Last(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoBuild
		}
		return nil, fmt.Errorf("failed to load build report: %w", err)
	}
	return data, nil
}
