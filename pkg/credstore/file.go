package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sebrinamusbah/bookstore-client/pkg/broadcast"
)

const credentialsFile = "credentials.json"

// FileStore implements Store with a JSON file, the durable single-machine
// backend. Writes go through a temp file and rename so readers never observe
// a partial file. External writers (another process sharing the same
// directory) are detected by polling the file's modification time.
type FileStore struct {
	path     string
	interval time.Duration

	mu     sync.Mutex
	hub    *broadcast.Hub[broadcast.Signal]
	done   chan struct{}
	closed bool

	lastMod time.Time
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithPollInterval sets how often the store checks for external writes.
// The default is one second.
func WithPollInterval(d time.Duration) FileOption {
	return func(f *FileStore) {
		if d > 0 {
			f.interval = d
		}
	}
}

// NewFileStore creates a store persisting to dir/credentials.json. The
// directory is created if missing.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	f := &FileStore{
		path:     filepath.Join(dir, credentialsFile),
		interval: time.Second,
		hub:      broadcast.NewHub[broadcast.Signal](1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}

	if info, err := os.Stat(f.path); err == nil {
		f.lastMod = info.ModTime()
	}

	go f.pollLoop()
	return f, nil
}

func (f *FileStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return "", ErrClosed
	}

	values, err := f.read()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}

	values, err := f.read()
	if err != nil {
		f.mu.Unlock()
		return err
	}
	values[key] = value
	err = f.write(values)
	f.mu.Unlock()

	if err != nil {
		return err
	}
	f.hub.Publish(broadcast.Signal{})
	return nil
}

func (f *FileStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}

	values, err := f.read()
	if err != nil {
		f.mu.Unlock()
		return err
	}
	_, existed := values[key]
	if !existed {
		f.mu.Unlock()
		return nil
	}
	delete(values, key)
	err = f.write(values)
	f.mu.Unlock()

	if err != nil {
		return err
	}
	f.hub.Publish(broadcast.Signal{})
	return nil
}

func (f *FileStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	sub := f.hub.Subscribe(ctx)
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

// Close stops the poll loop and releases watchers.
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	close(f.done)
	f.hub.Close()
	return nil
}

// read loads the file. A missing file is an empty store. Callers hold f.mu.
func (f *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			// A corrupt file reads as empty; the next write replaces it.
			return make(map[string]string), nil
		}
	}
	return values, nil
}

// write persists values atomically via temp file + rename. Callers hold f.mu.
func (f *FileStore) write(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), credentialsFile+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return err
	}

	if info, err := os.Stat(f.path); err == nil {
		f.lastMod = info.ModTime()
	}
	return nil
}

func (f *FileStore) pollLoop() {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
		}

		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return
		}
		changed := false
		if info, err := os.Stat(f.path); err == nil {
			if info.ModTime().After(f.lastMod) {
				f.lastMod = info.ModTime()
				changed = true
			}
		}
		f.mu.Unlock()

		if changed {
			f.hub.Publish(broadcast.Signal{})
		}
	}
}
