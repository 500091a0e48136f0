package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("blob not found")

// Store keeps slot content in Redis strings.
// Reference = keyPrefix + "{kind}/{slot}".
type Store struct {
	rdb       *redis.Client
	keyPrefix string
}

func New(rdb *redis.Client, keyPrefix string) *Store {
	return &Store{rdb: rdb, keyPrefix: keyPrefix}
}

func (s *Store) Locate(key string) string { return s.keyPrefix + key }

func (s *Store) own(ref string) error {
	if ref == "" || !strings.HasPrefix(ref, s.keyPrefix) || ref == s.keyPrefix {
		return fmt.Errorf("reference %q is outside prefix %q", ref, s.keyPrefix)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, key string, data []byte) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	ref := s.Locate(key)
	if err := s.rdb.Set(ctx, ref, data, 0).Err(); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *Store) Read(ctx context.Context, ref string) ([]byte, error) {
	if err := s.own(ref); err != nil {
		return nil, err
	}
	b, err := s.rdb.Get(ctx, ref).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return b, err
}

// Delete is idempotent: DEL on a missing key is not an error.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := s.own(ref); err != nil {
		return err
	}
	return s.rdb.Del(ctx, ref).Err()
}

func (s *Store) Exists(ctx context.Context, ref string) (bool, error) {
	if err := s.own(ref); err != nil {
		return false, err
	}
	n, err := s.rdb.Exists(ctx, ref).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
