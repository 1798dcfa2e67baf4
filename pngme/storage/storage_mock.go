package storage

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// MockStorage is a simple in-memory Storage implementation for tests.
type MockStorage struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMockStorage constructs an empty MockStorage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files: make(map[string][]byte),
	}
}

// ReadFile returns a copy of the stored file.
func (m *MockStorage) ReadFile(ctx context.Context, name string, progress ProgressCallback) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("mock storage: %s: %w", name, os.ErrNotExist)
	}
	if progress != nil {
		progress(int64(len(data)), int64(len(data)))
	}
	return newFile(name, append([]byte(nil), data...)), nil
}

// WriteFile stores a copy of data under name.
func (m *MockStorage) WriteFile(ctx context.Context, name string, data []byte, progress ProgressCallback) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[name] = append([]byte(nil), data...)
	if progress != nil {
		progress(int64(len(data)), int64(len(data)))
	}
	return newFile(name, data), nil
}

// AddFile seeds the mock storage with file content.
func (m *MockStorage) AddFile(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[name] = append([]byte(nil), data...)
}
