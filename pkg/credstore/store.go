package credstore

import "context"

// Well-known keys. Token and user are written and cleared together; a store
// where only one of the two exists is treated as unauthenticated by readers.
const (
	KeyToken         = "token"
	KeyUser          = "user"
	KeyRememberEmail = "remembered_email"
)

// Store is durable key/value storage for client credentials.
//
// Implementations must be safe for concurrent use. Get returns ErrNotFound
// when the key has no value.
type Store interface {
	Get(ctx context.Context, key string) (string, error)

	Set(ctx context.Context, key, value string) error

	Remove(ctx context.Context, key string) error

	// Watch returns a coalesced change signal. One signal may cover several
	// mutations; receivers re-read the store rather than relying on a count.
	// The channel is closed when ctx is cancelled or the store is closed.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// SaveCredentials writes the token and user entries. Readers that observe
// only one of the two treat the store as unauthenticated, so a failure
// between the writes degrades to logged-out rather than a broken session.
func SaveCredentials(ctx context.Context, s Store, token, user string) error {
	if err := s.Set(ctx, KeyToken, token); err != nil {
		return err
	}
	return s.Set(ctx, KeyUser, user)
}

// ClearCredentials removes the token and user entries. The remembered email
// survives a logout.
func ClearCredentials(ctx context.Context, s Store) error {
	if err := s.Remove(ctx, KeyToken); err != nil {
		return err
	}
	return s.Remove(ctx, KeyUser)
}
