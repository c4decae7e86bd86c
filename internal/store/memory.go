package store

import (
    "context"
    "sync"
    "time"
)

// Memory is an in-process KV backend.  It serves two purposes: tests, and
// graceful degradation when Redis is unreachable at startup (sessions then
// survive only as long as the process, which beats refusing logins).
type Memory struct {
    mu    sync.RWMutex
    items map[string]memItem
    now   func() time.Time
}

type memItem struct {
    val []byte
    exp time.Time // zero means no expiry
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
    return &Memory{items: make(map[string]memItem), now: time.Now}
}

// Get returns the value for key, honoring expiry lazily: an expired entry
// is removed on first read past its deadline.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
    m.mu.RLock()
    it, ok := m.items[key]
    m.mu.RUnlock()
    if !ok {
        return nil, false, nil
    }
    if !it.exp.IsZero() && m.now().After(it.exp) {
        m.mu.Lock()
        delete(m.items, key)
        m.mu.Unlock()
        return nil, false, nil
    }
    return it.val, true, nil
}

// Set stores val under key.  A zero ttl stores without expiry.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
    it := memItem{val: append([]byte(nil), val...)}
    if ttl > 0 {
        it.exp = m.now().Add(ttl)
    }
    m.mu.Lock()
    m.items[key] = it
    m.mu.Unlock()
    return nil
}

// Del removes the given keys; missing keys are not an error.
func (m *Memory) Del(_ context.Context, keys ...string) error {
    m.mu.Lock()
    for _, k := range keys {
        delete(m.items, k)
    }
    m.mu.Unlock()
    return nil
}
