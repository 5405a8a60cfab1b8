package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

var _ ObjectStore = (*MemoryStore)(nil)

// MemoryStore is an in-process ObjectStore used by tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailPuts makes every Put return an error, for exercising the
	// storage-failure-aborts-upload path.
	FailPuts bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if m.FailPuts {
		return "", fmt.Errorf("put object %s: storage unavailable", key)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "memory://" + key, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStore) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("presign get %s: not found", key)
	}
	return "memory://" + key + "?signed", nil
}

// Object returns the stored bytes, for assertions.
func (m *MemoryStore) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

// Keys returns every stored key.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
