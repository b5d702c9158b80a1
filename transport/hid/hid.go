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

// Package hid implements the streamdock.Transport interface on top of the
// hidapi bindings in github.com/sstallion/go-hid.
package hid

import (
	"fmt"
	"sync"
	"time"

	streamdock "github.com/ZaparooProject/go-streamdock"
	hidapi "github.com/sstallion/go-hid"
)

// USB identifiers for the Stream Dock 293.
const (
	DefaultVendorID  uint16 = 0x5500
	DefaultProductID uint16 = 0x1001
)

var initOnce sync.Once

// Transport implements streamdock.Transport for a USB HID connection.
type Transport struct {
	device *hidapi.Device
	ident  string
	mu     sync.Mutex
	closed bool
}

// Open opens the first HID device matching the given vendor and product
// ids. Returns streamdock.ErrDeviceNotFound (wrapped) when no such device
// is attached; the supervisor retries indefinitely on that condition.
func Open(vendorID, productID uint16) (*Transport, error) {
	initOnce.Do(func() {
		_ = hidapi.Init()
	})

	ident := fmt.Sprintf("%04x:%04x", vendorID, productID)
	device, err := hidapi.OpenFirst(vendorID, productID)
	if err != nil {
		return nil, streamdock.NewTransportError("Open", ident,
			fmt.Errorf("%w: %w", streamdock.ErrDeviceNotFound, err),
			streamdock.ErrorTypePermanent)
	}

	return &Transport{device: device, ident: ident}, nil
}

// Write sends the 0x00 report-id byte followed by exactly ReportSize
// payload bytes. Never retries; a failed write means the link is gone.
func (t *Transport) Write(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return streamdock.NewTransportError("Write", t.ident,
			streamdock.ErrTransportClosed, streamdock.ErrorTypePermanent)
	}

	buf := make([]byte, 1+streamdock.ReportSize)
	buf[0] = streamdock.ReportID
	copy(buf[1:], payload)

	n, err := t.device.Write(buf)
	if err != nil {
		return streamdock.NewTransportError("Write", t.ident,
			fmt.Errorf("%w: %w", streamdock.ErrTransportWrite, err),
			streamdock.ErrorTypePermanent)
	}
	if n != len(buf) {
		return streamdock.NewTransportError("Write", t.ident,
			fmt.Errorf("%w: short write %d/%d", streamdock.ErrTransportWrite, n, len(buf)),
			streamdock.ErrorTypePermanent)
	}
	return nil
}

// ReadWithTimeout blocks for at most timeout waiting for an inbound
// report. A timeout yields (nil, nil); any hidapi failure is treated as
// link loss.
func (t *Transport) ReadWithTimeout(timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, streamdock.NewTransportError("Read", t.ident,
			streamdock.ErrTransportClosed, streamdock.ErrorTypePermanent)
	}

	buf := make([]byte, streamdock.ReportSize)
	n, err := t.device.ReadWithTimeout(buf, timeout)
	if err != nil {
		return nil, streamdock.NewTransportError("Read", t.ident,
			fmt.Errorf("%w: %w", streamdock.ErrTransportRead, err),
			streamdock.ErrorTypePermanent)
	}
	if n == 0 {
		return nil, nil
	}
	return buf[:n], nil
}

// Close releases the device handle. Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.device.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.ident, err)
	}
	return nil
}

// IsConnected returns true while the handle is open.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Type returns the transport type.
func (*Transport) Type() streamdock.TransportType {
	return streamdock.TransportHID
}
