package snapshot

import (
	"context"
	"sync"
)

// MemoryStore mantém o snapshot em memória (desenvolvimento local e testes)
type MemoryStore struct {
	mu  sync.RWMutex
	doc []byte
	ok  bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(context.Context) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ok {
		return nil, false, nil
	}
	return append([]byte(nil), m.doc...), true, nil
}

func (m *MemoryStore) Save(_ context.Context, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = append([]byte(nil), doc...)
	m.ok = true
	return nil
}

func (m *MemoryStore) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc, m.ok = nil, false
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
