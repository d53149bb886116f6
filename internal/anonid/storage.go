package anonid

import (
	"context"
	"sync"
)

// Storage is the small key-value persistence a Generator writes through.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// StorageFactory returns the Storage scoped to one device.
type StorageFactory func(deviceID string) Storage

// MemoryStorage is a process-local Storage.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// NewMemoryStorageFactory returns a factory handing out one MemoryStorage per
// device for the life of the process.
func NewMemoryStorageFactory() StorageFactory {
	var mu sync.Mutex
	devices := make(map[string]*MemoryStorage)
	return func(deviceID string) Storage {
		mu.Lock()
		defer mu.Unlock()
		s, ok := devices[deviceID]
		if !ok {
			s = NewMemoryStorage()
			devices[deviceID] = s
		}
		return s
	}
}
