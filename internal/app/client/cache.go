package client

import (
	"errors"
	"sync"
)

// ErrCache ошибка локального хранилища. Только она пробрасывается из путей записи и чтения.
var ErrCache = errors.New("local cache failure")

// Cache долговременное локальное хранилище строк по ключу.
type Cache interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// MemoryCache хранилище в памяти, используется если SQLite недоступен.
type MemoryCache struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		values: make(map[string]string),
	}
}

func (m *MemoryCache) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryCache) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *MemoryCache) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *MemoryCache) Close() error {
	return nil
}
