package stats

import "testing"

func TestMemoryStoreCounters(t *testing.T) {
	m := newMemoryStore()

	m.ConnOpened()
	m.ConnOpened()
	m.ConnClosed(100, 250)

	s := m.Snapshot()
	if s.Active != 1 {
		t.Errorf("Expected 1 active connection, got %d", s.Active)
	}
	if s.Total != 2 {
		t.Errorf("Expected 2 total connections, got %d", s.Total)
	}
	if s.BytesFromClient != 100 || s.BytesFromBackend != 250 {
		t.Errorf("Expected byte counters 100/250, got %d/%d", s.BytesFromClient, s.BytesFromBackend)
	}
}

func TestMemoryStoreFailures(t *testing.T) {
	m := newMemoryStore()

	m.Failure("dial")
	m.Failure("connect_timeout")
	m.Failure("inbound_handshake")

	s := m.Snapshot()
	if s.Failures != 3 {
		t.Errorf("Expected 3 failures, got %d", s.Failures)
	}
	if s.Timeouts != 1 {
		t.Errorf("Expected 1 timeout, got %d", s.Timeouts)
	}
}

func TestMemoryStoreReadiness(t *testing.T) {
	m := newMemoryStore()

	if m.Ready() {
		t.Error("Expected store to start not ready")
	}
	m.SetReady(true)
	if !m.Ready() {
		t.Error("Expected store to be ready after SetReady")
	}
	m.SetClosing(true)
	if !m.Closing() {
		t.Error("Expected store to be closing after SetClosing")
	}
}
