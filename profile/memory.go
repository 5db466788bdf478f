package profile

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and the headless mode.
type Memory struct {
	mu   sync.Mutex
	recs map[string]Record
}

func NewMemory() *Memory {
	return &Memory{recs: make(map[string]Record)}
}

func (m *Memory) Get(_ context.Context, uid string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[uid]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec
	return &out, nil
}

func (m *Memory) Put(_ context.Context, uid string, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[uid] = *rec
	return nil
}
