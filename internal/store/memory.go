package store

import (
	"context"
	"errors"
	"sync"
)

// Memory keeps records in process. It backs dry runs and tests.
type Memory struct {
	mu      sync.Mutex
	records map[string]Record
	order   []string
	docs    []any
	writes  int
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

func (m *Memory) EnsureIndexes(context.Context) error { return nil }

func (m *Memory) Exists(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[username]
	return ok, nil
}

func (m *Memory) Upsert(_ context.Context, rec Record) error {
	if rec.Username == "" {
		return errors.New("record username is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.Username]; !ok {
		m.order = append(m.order, rec.Username)
	}
	m.records[rec.Username] = rec
	m.writes++
	return nil
}

func (m *Memory) InsertMany(_ context.Context, docs []any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
	return len(docs), nil
}

func (m *Memory) Close(context.Context) error { return nil }

// Get returns the stored record for username.
func (m *Memory) Get(username string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[username]
	return rec, ok
}

// Records returns stored records in first-write order.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.order))
	for _, username := range m.order {
		out = append(out, m.records[username])
	}
	return out
}

// Writes counts every Upsert call, including overwrites.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Documents returns everything passed to InsertMany.
func (m *Memory) Documents() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.docs))
	copy(out, m.docs)
	return out
}
