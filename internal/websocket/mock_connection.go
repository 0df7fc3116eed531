package websocket

import (
	"errors"
	"sync"
	"time"
)

// MockConnection is an in-memory Connection implementation for tests.
type MockConnection struct {
	mu sync.Mutex

	// Written holds every payload passed to WriteMessage
	Written [][]byte

	// Incoming feeds ReadMessage; close it to end the read loop
	Incoming chan []byte

	closed     bool
	writeErr   error
	remoteAddr string
}

// NewMockConnection creates a mock connection
func NewMockConnection() *MockConnection {
	return &MockConnection{
		Incoming:   make(chan []byte, 16),
		remoteAddr: "127.0.0.1:12345",
	}
}

// FailWrites makes subsequent WriteMessage calls return err
func (m *MockConnection) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("connection closed")
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.Written = append(m.Written, cp)
	return nil
}

func (m *MockConnection) ReadMessage() (int, []byte, error) {
	data, ok := <-m.Incoming
	if !ok {
		return 0, nil, errors.New("connection closed")
	}
	return 1, data, nil
}

func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called
func (m *MockConnection) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// WrittenMessages returns a copy of everything written so far
func (m *MockConnection) WrittenMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.Written))
	copy(out, m.Written)
	return out
}

func (m *MockConnection) SetReadDeadline(t time.Time) error  { return nil }
func (m *MockConnection) SetWriteDeadline(t time.Time) error { return nil }
func (m *MockConnection) SetReadLimit(limit int64)           {}
func (m *MockConnection) SetPongHandler(h func(string) error) {}

func (m *MockConnection) RemoteAddr() string { return m.remoteAddr }
