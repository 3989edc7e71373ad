// Package session defines the per-visitor key/value store that replaces
// browser local storage on the server side.
package session

import "sync"

// Keys persisted in the visitor store.
const (
	KeyExpandedNodes       = "nav.expanded"
	KeyAuthToken           = "auth.token"
	KeyAuthRole            = "auth.role"
	KeyPendingTestimonials = "testimonials.pending"
)

// Store is a string key/value store scoped to one visitor. Writes are visible
// to the next Get immediately; the last writer wins.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	// Clear removes the given keys, or every key when none are given.
	Clear(keys ...string)
}

// Memory is an in-process Store used by tests and tooling.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
}

func (m *Memory) Clear(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(keys) == 0 {
		m.values = map[string]string{}
		return
	}
	for _, k := range keys {
		delete(m.values, k)
	}
}

// Len reports the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
