package stats

import (
	"sync"
	"time"
)

// Store tracks connection statistics plus process readiness. The relay
// reports through ConnOpened/ConnClosed/Failure; the metrics endpoints read
// snapshots and readiness.
type Store interface {
	ConnOpened()
	ConnClosed(fromClient, fromBackend int64)
	Failure(stage string)
	Snapshot() Stats
	SetReady(bool)
	SetClosing(bool)
	Ready() bool
	Closing() bool
}

// Stats is the JSON form served by the state endpoint.
type Stats struct {
	Active           int64  `json:"active"`
	Total            int64  `json:"total"`
	Failures         int64  `json:"failures"`
	Timeouts         int64  `json:"timeouts"`
	BytesFromClient  int64  `json:"bytes_from_client"`
	BytesFromBackend int64  `json:"bytes_from_backend"`
	Now              string `json:"now"`
}

// memoryStore is the default single-instance implementation.
type memoryStore struct {
	mu               sync.Mutex
	active           int64
	total            int64
	failures         int64
	timeouts         int64
	bytesFromClient  int64
	bytesFromBackend int64
	ready            bool
	closing          bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

var _ Store = (*memoryStore)(nil)

func (m *memoryStore) ConnOpened() {
	m.mu.Lock()
	m.active++
	m.total++
	m.mu.Unlock()
}

func (m *memoryStore) ConnClosed(fromClient, fromBackend int64) {
	m.mu.Lock()
	m.active--
	m.bytesFromClient += fromClient
	m.bytesFromBackend += fromBackend
	m.mu.Unlock()
}

func (m *memoryStore) Failure(stage string) {
	m.mu.Lock()
	m.failures++
	if stage == "connect_timeout" {
		m.timeouts++
	}
	m.mu.Unlock()
}

func (m *memoryStore) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Active:           m.active,
		Total:            m.total,
		Failures:         m.failures,
		Timeouts:         m.timeouts,
		BytesFromClient:  m.bytesFromClient,
		BytesFromBackend: m.bytesFromBackend,
		Now:              time.Now().UTC().Format(time.RFC3339),
	}
}

func (m *memoryStore) SetReady(v bool)   { m.mu.Lock(); m.ready = v; m.mu.Unlock() }
func (m *memoryStore) SetClosing(v bool) { m.mu.Lock(); m.closing = v; m.mu.Unlock() }
func (m *memoryStore) Ready() bool       { m.mu.Lock(); defer m.mu.Unlock(); return m.ready }
func (m *memoryStore) Closing() bool     { m.mu.Lock(); defer m.mu.Unlock(); return m.closing }
