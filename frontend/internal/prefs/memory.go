package prefs

import (
	"errors"
	"sync"
)

// ErrQuotaExceeded mimics a browser refusing to store more data.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// MemoryBackend keeps values for the lifetime of the value itself.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
	// WriteErr, when set, is returned by every Set.
	WriteErr error
	// ReadErr, when set, is returned by every Get.
	ReadErr error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return "", false, m.ReadErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.values[key] = value
	return nil
}
