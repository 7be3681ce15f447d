package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV stores artifacts as plain string values: SET {key} {json} [EX ttl].
// Keys are enumerated with SCAN MATCH {prefix}* so listing never blocks the server.
type KV struct {
	client    *redis.Client
	ttl       time.Duration
	scanCount int64
}

func NewKV(client *redis.Client, ttl time.Duration) *KV {
	return &KV{
		client:    client,
		ttl:       ttl,
		scanCount: 100,
	}
}

func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes the value; a zero ttl keeps the key until evicted.
func (s *KV) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *KV) Keys(ctx context.Context, prefix string) ([]string, error) {
	seen := make(map[string]struct{})
	iter := s.client.Scan(ctx, 0, matchPrefix(prefix), s.scanCount).Iterator()
	for iter.Next(ctx) {
		seen[iter.Val()] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}

	// SCAN may return a key more than once and in any order.
	keys := make([]string, 0, len(seen))
	for key := range seen {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

func matchPrefix(prefix string) string {
	return globEscaper.Replace(prefix) + "*"
}
