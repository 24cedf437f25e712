package tokenstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix     = "tillway:revoked:"
	redisSignalChannel = "tillway:session:signal"
)

// RedisStore keeps revocation markers in Redis and broadcasts signals over a
// pub/sub channel.
type RedisStore struct {
	client *redis.Client

	mu     sync.Mutex
	subs   []*redis.PubSub
	closed bool
}

// NewRedisStore verifies connectivity and returns a RedisStore.
func NewRedisStore(ctx context.Context, client *redis.Client) (*RedisStore, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("tokenstore: redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Revoke marks the fingerprint revoked for ttl.
func (s *RedisStore) Revoke(ctx context.Context, fingerprint string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultRevocationTTL
	}
	if err := s.client.Set(ctx, redisKeyPrefix+fingerprint, "1", ttl).Err(); err != nil {
		return fmt.Errorf("tokenstore: revoke: %w", err)
	}
	return nil
}

// IsRevoked reports whether a revocation marker exists for the fingerprint.
func (s *RedisStore) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+fingerprint).Result()
	if err != nil {
		return false, fmt.Errorf("tokenstore: lookup: %w", err)
	}
	return n > 0, nil
}

// Announce publishes a change signal for the fingerprint.
func (s *RedisStore) Announce(ctx context.Context, fingerprint string) error {
	payload := fmt.Sprintf("%s|%d", fingerprint, time.Now().UnixMilli())
	if err := s.client.Publish(ctx, redisSignalChannel, payload).Err(); err != nil {
		return fmt.Errorf("tokenstore: announce: %w", err)
	}
	return nil
}

// Watch subscribes to the signal channel.
func (s *RedisStore) Watch(ctx context.Context) (<-chan Signal, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("tokenstore: store closed")
	}
	sub := s.client.Subscribe(ctx, redisSignalChannel)
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	// Force the subscription to be established before returning so a
	// signal announced right after Watch is not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("tokenstore: subscribe: %w", err)
	}

	out := make(chan Signal, 8)
	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				sig := parseSignal(msg.Payload)
				select {
				case out <- sig:
				case <-ctx.Done():
					_ = sub.Close()
					return
				}
			}
		}
	}()
	return out, nil
}

// Close shuts down all subscriptions. The underlying client is owned by the
// caller.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, sub := range s.subs {
		_ = sub.Close()
	}
	s.subs = nil
	return nil
}

func parseSignal(payload string) Signal {
	sig := Signal{At: time.Now()}
	parts := strings.SplitN(payload, "|", 2)
	sig.Fingerprint = parts[0]
	if len(parts) == 2 {
		var millis int64
		if _, err := fmt.Sscanf(parts[1], "%d", &millis); err == nil {
			sig.At = time.UnixMilli(millis)
		}
	}
	return sig
}
