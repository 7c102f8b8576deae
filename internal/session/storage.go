package session

import (
	"errors"
	"sync"
)

// Storage keys.
const (
	UserDataKey            = "userData"
	AuthTokenKey           = "authToken"
	IntendedDestinationKey = "intendedDestination"
)

// ErrQuotaExceeded is returned by a Storage that is out of space.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Storage is a string key/value store. Local storage survives restarts;
// session storage is cleared on logout.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryStorage keeps values in memory. A positive Quota caps the total
// size of keys and values in bytes.
type MemoryStorage struct {
	mu    sync.RWMutex
	data  map[string]string
	Quota int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Quota > 0 {
		used := len(key) + len(value)
		for k, v := range m.data {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used > m.Quota {
			return ErrQuotaExceeded
		}
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
