package store

import (
	"context"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryBackend 进程内存储, 主要用于测试和一次性会话
type MemoryBackend struct {
	mu sync.Mutex // makes multi-key Delete atomic
	c  *gocache.Cache
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		c: gocache.New(gocache.NoExpiration, 0),
	}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	val, found := m.c.Get(key)
	if !found {
		return "", false, nil
	}
	s, _ := val.(string)
	return s, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.c.Set(key, value, gocache.NoExpiration)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		m.c.Delete(k)
	}
	return nil
}

// Len reports how many keys are stored.
func (m *MemoryBackend) Len() int {
	return m.c.ItemCount()
}
