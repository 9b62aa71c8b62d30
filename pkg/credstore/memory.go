package credstore

import (
	"context"
	"sync"

	"github.com/sebrinamusbah/bookstore-client/pkg/broadcast"
)

// MemoryStore implements Store with an in-memory map. It is the backend for
// tests and for callers who do not want credentials to outlive the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	hub    *broadcast.Hub[broadcast.Signal]
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
		hub:    broadcast.NewHub[broadcast.Signal](1),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrClosed
	}
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.values[key] = value
	m.mu.Unlock()

	m.hub.Publish(broadcast.Signal{})
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	_, existed := m.values[key]
	delete(m.values, key)
	m.mu.Unlock()

	if existed {
		m.hub.Publish(broadcast.Signal{})
	}
	return nil
}

func (m *MemoryStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	sub := m.hub.Subscribe(ctx)
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for range sub.C() {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out, nil
}

// Close releases watchers. Subsequent operations return ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.hub.Close()
	return nil
}
