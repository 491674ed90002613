package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory keeps documents in process. It is the default driver and backs the
// service tests.
type Memory struct {
	mu   sync.Mutex
	docs map[string]Document
	hub  *hub
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{docs: map[string]Document{}, hub: newHub(), now: time.Now}
}

func (m *Memory) Create(_ context.Context, code string, data []byte, createdAt time.Time) (Document, error) {
	m.mu.Lock()
	if _, ok := m.docs[code]; ok {
		m.mu.Unlock()
		return Document{}, ErrExists
	}
	doc := Document{Code: code, Version: 1, Data: cloneBytes(data), CreatedAt: createdAt, UpdatedAt: m.now()}
	m.docs[code] = doc
	m.hub.publish(doc)
	m.mu.Unlock()
	return doc, nil
}

func (m *Memory) Get(_ context.Context, code string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[code]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (m *Memory) Put(_ context.Context, code string, expectedVersion int64, data []byte) (Document, error) {
	m.mu.Lock()
	cur, ok := m.docs[code]
	if !ok {
		m.mu.Unlock()
		return Document{}, ErrNotFound
	}
	if cur.Version != expectedVersion {
		m.mu.Unlock()
		return Document{}, ErrConflict
	}
	cur.Version++
	cur.Data = cloneBytes(data)
	cur.UpdatedAt = m.now()
	m.docs[code] = cur
	// publish while holding mu so subscribers observe versions in order
	m.hub.publish(cur)
	m.mu.Unlock()
	return cur, nil
}

func (m *Memory) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[code]; !ok {
		return ErrNotFound
	}
	delete(m.docs, code)
	m.hub.drop(code)
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, code string) (<-chan Document, func(), error) {
	return m.hub.subscribe(ctx, code)
}

func (m *Memory) ListCreatedBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for code, doc := range m.docs {
		if doc.CreatedAt.Before(cutoff) {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {
	m.hub.close()
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}
