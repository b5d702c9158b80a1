// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package streamdock

import (
	"sync"
	"time"
)

// Transport is the only layer that touches the physical device handle.
// Implementations must not retry internally; retry policy belongs to the
// connection supervisor in the polling package.
type Transport interface {
	// Write sends one report: the 0x00 report-id byte followed by exactly
	// ReportSize payload bytes.
	Write(payload []byte) error

	// ReadWithTimeout blocks for at most the given duration waiting for an
	// inbound report. A nil slice with a nil error signals a timeout with
	// no data, which is not an error condition.
	ReadWithTimeout(timeout time.Duration) ([]byte, error)

	// Close releases the handle. Idempotent.
	Close() error

	// IsConnected returns true if the transport holds a usable handle.
	IsConnected() bool

	// Type returns the transport type.
	Type() TransportType
}

// TransportType represents the type of transport.
type TransportType string

const (
	// TransportHID represents USB HID transport.
	TransportHID TransportType = "hid"
	// TransportMock represents a mock transport for testing.
	TransportMock TransportType = "mock"
)

// MockTransport provides a mock implementation of Transport for testing.
// Written reports are recorded; inbound reports and read errors are
// scripted with QueueRead / QueueReadError.
type MockTransport struct {
	mu        sync.Mutex
	written   [][]byte
	reads     []mockRead
	writeErr  error
	failAfter int // fail writes once this many have succeeded; -1 = never
	connected bool
}

type mockRead struct {
	data []byte
	err  error
}

// NewMockTransport creates a new mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		connected: true,
		failAfter: -1,
	}
}

// Write records the payload, or returns the scripted error.
func (m *MockTransport) Write(payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return NewTransportError("Write", "mock", ErrTransportClosed, ErrorTypePermanent)
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.failAfter >= 0 && len(m.written) >= m.failAfter {
		return NewTransportError("Write", "mock", ErrTransportWrite, ErrorTypePermanent)
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)
	m.written = append(m.written, buf)
	return nil
}

// ReadWithTimeout pops the next scripted read, or reports a timeout.
func (m *MockTransport) ReadWithTimeout(_ time.Duration) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil, NewTransportError("Read", "mock", ErrTransportClosed, ErrorTypePermanent)
	}
	if len(m.reads) == 0 {
		return nil, nil
	}

	next := m.reads[0]
	m.reads = m.reads[1:]
	return next.data, next.err
}

// Close marks the transport disconnected.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// IsConnected returns true until Close is called.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Type returns the transport type.
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// QueueRead schedules an inbound report for a future read.
func (m *MockTransport) QueueRead(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.reads = append(m.reads, mockRead{data: buf})
}

// QueueReadError schedules a read failure.
func (m *MockTransport) QueueReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, mockRead{err: err})
}

// SetWriteError makes every subsequent write fail with err.
func (m *MockTransport) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// FailWriteAfter makes writes fail once n have succeeded. Used to abort an
// upload mid-sequence.
func (m *MockTransport) FailWriteAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
}

// Written returns the recorded report payloads in write order.
func (m *MockTransport) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.written))
	copy(out, m.written)
	return out
}

// Reset clears recorded writes and scripted reads, and reconnects.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = nil
	m.reads = nil
	m.writeErr = nil
	m.failAfter = -1
	m.connected = true
}
