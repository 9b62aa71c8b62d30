package credstore

import "errors"

var (
	// ErrNotFound indicates the key has no stored value.
	ErrNotFound = errors.New("credstore.not_found")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("credstore.closed")

	// ErrEmptyKey indicates an empty key was passed to a store operation.
	ErrEmptyKey = errors.New("credstore.empty_key")

	// ErrRedisConnString indicates the Redis connection URL could not be parsed.
	ErrRedisConnString = errors.New("credstore.invalid_redis_conn_string")

	// ErrRedisNotReady indicates the Redis server did not answer the ping.
	ErrRedisNotReady = errors.New("credstore.redis_not_ready")
)
