package storage

import (
	"context"
	"sync"
)

// Memory is an in-process KV with the same hash semantics as the redis
// driver. It backs tests and the "memory" store driver for local runs.
type Memory struct {
	mu     sync.RWMutex
	hashes map[string]*memHash
}

type memHash struct {
	fields map[string]string
	order  []string // insertion order, keeps HVals deterministic
}

func NewMemory() *Memory {
	return &Memory{hashes: make(map[string]*memHash)}
}

func (m *Memory) HGet(_ context.Context, key, field string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hashes[key]
	if !ok {
		return "", ErrNotFound
	}
	v, ok := h.fields[field]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) HSet(_ context.Context, key, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.hashes[key]
	if !ok {
		h = &memHash{fields: make(map[string]string)}
		m.hashes[key] = h
	}
	if _, exists := h.fields[field]; !exists {
		h.order = append(h.order, field)
	}
	h.fields[field] = value
	return nil
}

func (m *Memory) HVals(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hashes[key]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(h.order))
	for _, f := range h.order {
		out = append(out, h.fields[f])
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
