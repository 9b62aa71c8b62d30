package credstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisKey = "bookstore:credentials"
	changedSuffix   = ":changed"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	ConnectionURL  string        `env:"BOOKSTORE_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	ConnectTimeout time.Duration `env:"BOOKSTORE_REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// RedisStore implements Store on a Redis hash shared by every client process.
// Each mutation publishes on a pub/sub channel, which is how clients on other
// machines or in other processes learn that the credentials changed.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisKey overrides the hash key the credentials live under. The change
// channel is derived from it.
func WithRedisKey(key string) RedisOption {
	return func(r *RedisStore) {
		if key != "" {
			r.key = key
		}
	}
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	r := &RedisStore{
		client: client,
		key:    defaultRedisKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ConnectRedis establishes a Redis connection from config and returns a store
// over it. The connection is verified with a ping before use.
func ConnectRedis(ctx context.Context, cfg RedisConfig, opts ...RedisOption) (*RedisStore, error) {
	connOpt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrRedisConnString, err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client := redis.NewClient(connOpt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrRedisNotReady, err)
	}

	return NewRedisStore(client, opts...), nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	v, err := r.client.HGet(ctx, r.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := r.client.HSet(ctx, r.key, key, value).Err(); err != nil {
		return err
	}
	return r.client.Publish(ctx, r.key+changedSuffix, key).Err()
}

func (r *RedisStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	removed, err := r.client.HDel(ctx, r.key, key).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return nil
	}
	return r.client.Publish(ctx, r.key+changedSuffix, key).Err()
}

func (r *RedisStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	sub := r.client.Subscribe(ctx, r.key+changedSuffix)
	// Force the subscription onto the wire before returning so callers never
	// miss a mutation made right after Watch.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

// Close closes the underlying Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
