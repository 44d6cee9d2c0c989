package serialdmx

import (
	"bytes"
	"errors"
	"sync"
)

// MockPort implements Port with configurable behaviour for testing.
type MockPort struct {
	mu sync.Mutex

	// WriteBuffer captures data written to the port.
	WriteBuffer bytes.Buffer

	// WriteError is returned by every Write call if set.
	WriteError error

	// BlockWrites causes Write to block until Close is called, simulating a
	// hung serial driver.
	BlockWrites bool

	// Closed indicates whether Close was called.
	Closed bool

	// WriteCalls records the number of Write calls.
	WriteCalls int

	closeCond *sync.Cond
}

// NewMockPort creates a MockPort.
func NewMockPort() *MockPort {
	m := &MockPort{}
	m.closeCond = sync.NewCond(&m.mu)
	return m
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCalls++

	for m.BlockWrites && !m.Closed {
		m.closeCond.Wait()
	}
	if m.Closed {
		return 0, errors.New("port closed")
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	return m.WriteBuffer.Write(p)
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	m.closeCond.Broadcast()
	return nil
}

// Writes returns a copy of everything written so far.
func (m *MockPort) Writes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, m.WriteBuffer.Len())
	copy(out, m.WriteBuffer.Bytes())
	return out
}

// CallCount returns the number of Write calls so far.
func (m *MockPort) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.WriteCalls
}
