package blob

import (
	"context"
	"sort"
	"sync"
)

// Memory is a Store backed by process memory, for tests and local runs.
type Memory struct {
	mu   sync.RWMutex
	objs map[string]Object
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{objs: make(map[string]Object)} }

// Driver returns "memory".
func (m *Memory) Driver() string { return "memory" }

// Put stores a copy of obj.
func (m *Memory) Put(_ context.Context, obj Object) error {
	stored := Object{
		Key:         obj.Key,
		Body:        append([]byte(nil), obj.Body...),
		ContentType: obj.ContentType,
		Metadata:    cloneMetadata(obj.Metadata),
	}
	m.mu.Lock()
	m.objs[obj.Key] = stored
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the object at key.
func (m *Memory) Get(_ context.Context, key string) (Object, error) {
	m.mu.RLock()
	obj, ok := m.objs[key]
	m.mu.RUnlock()
	if !ok {
		return Object{}, ErrNotFound
	}
	obj.Body = append([]byte(nil), obj.Body...)
	obj.Metadata = cloneMetadata(obj.Metadata)
	return obj, nil
}

// Keys lists the stored keys in order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objs))
	for k := range m.objs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
