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
	"fmt"
	"time"

	"github.com/ZaparooProject/go-streamdock/internal/syncutil"
)

// slotCount is the number of addressable image/config slots. Slots 1-15
// are the physical keys; the rest are reserved background/overlay regions
// whose exact firmware semantics are unconfirmed.
const slotCount = 256

// DefaultBackgroundSlot is the slot used for full-screen background
// uploads. Observed working on Stream Dock 293 firmware; not a confirmed
// contract, hence overridable via WithBackgroundSlot.
const DefaultBackgroundSlot byte = 0

// Device represents a Stream Dock panel reached through a Transport. It is
// the transport's exclusive owner: every outbound command sequence and
// every read goes through it. An internal mutex serializes multi-report
// sequences, so a header-chunks-commit upload never interleaves with
// another command even when callers run on separate goroutines.
type Device struct {
	transport      Transport
	backgroundSlot byte
	mu             syncutil.Mutex
}

// Option configures a Device.
type Option func(*Device) error

// WithBackgroundSlot overrides the slot addressed by SetBackground.
func WithBackgroundSlot(slot byte) Option {
	return func(d *Device) error {
		d.backgroundSlot = slot
		return nil
	}
}

// New creates a Device on the given transport.
func New(transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport:      transport,
		backgroundSlot: DefaultBackgroundSlot,
	}
	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}
	return device, nil
}

// Transport returns the underlying transport.
func (d *Device) Transport() Transport {
	return d.transport
}

// Close releases the transport handle.
func (d *Device) Close() error {
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	return nil
}

// writeCommand builds and sends a single command header report.
// Callers must hold d.mu.
func (d *Device) writeCommand(op Opcode, size uint32, slot byte) error {
	report, err := BuildCommand(op, size, slot)
	if err != nil {
		return err
	}
	if err := d.transport.Write(report); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// commit sends the header-only commit report that latches a completed
// transfer onto the display. Callers must hold d.mu.
func (d *Device) commit() error {
	return d.writeCommand(OpCommit, 0, 0)
}

// upload sequences a full image transfer: one command header announcing
// the payload size, ceil(len/ReportSize) data chunks in order, then the
// commit report. Chunk boundaries are not self-describing; the device
// infers the end of data from the announced size, so chunks must never be
// reordered or skipped. Any transport failure aborts the sequence and
// surfaces to the caller; a half-sent image stays invisible or garbled
// until the next successful full upload.
func (d *Device) upload(op Opcode, slot byte, img []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeCommand(op, uint32(len(img)), slot); err != nil {
		return err
	}

	for off := 0; off < len(img); off += ReportSize {
		end := off + ReportSize
		if end > len(img) {
			end = len(img)
		}
		if err := d.transport.Write(BuildRaw(img[off:end])); err != nil {
			return fmt.Errorf("%s chunk %d/%d: %w", op, off/ReportSize+1, chunkCount(len(img)), err)
		}
	}

	return d.commit()
}

// SetKeyImage uploads a pre-rendered image to a physical key slot (1-15).
// The payload is treated as opaque bytes; rendering and format are the
// icon renderer's concern.
func (d *Device) SetKeyImage(key int, img []byte) error {
	if key < 1 || key > KeyCount {
		return fmt.Errorf("%w: key %d not in 1-%d", ErrInvalidSlot, key, KeyCount)
	}
	return d.upload(OpKeyImage, byte(key), img)
}

// SetBackground uploads a full-screen background image.
func (d *Device) SetBackground(img []byte) error {
	return d.upload(OpBackground, d.backgroundSlot, img)
}

// SetBrightness sets panel brightness, 0-100. Level 0 additionally sweeps
// a zero-brightness command across all 256 slots in order: the firmware
// retains per-slot brightness state that the global command alone does not
// reliably override.
func (d *Device) SetBrightness(level int) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("%w: brightness %d not in 0-100", ErrInvalidParameter, level)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeCommand(OpBrightness, uint32(level), 0); err != nil {
		return err
	}
	if level != 0 {
		return nil
	}
	for slot := 0; slot < slotCount; slot++ {
		if err := d.writeCommand(OpBrightness, 0, byte(slot)); err != nil {
			return err
		}
	}
	return nil
}

// ClearScreen blanks the display.
func (d *Device) ClearScreen() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeCommand(OpClear, 0, 0); err != nil {
		return err
	}
	return d.commit()
}

// DeepClean wipes image and brightness state from all 256 slots, then
// clears the screen. Used on cold start and reconnect, not on the hot
// path: the firmware has no persistent-state guarantee across a physical
// reconnect and stale per-slot state has been observed to survive a plain
// clear.
func (d *Device) DeepClean() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for slot := 0; slot < slotCount; slot++ {
		if err := d.writeCommand(OpDeleteSlot, 0, byte(slot)); err != nil {
			return err
		}
		if err := d.writeCommand(OpBrightness, 0, byte(slot)); err != nil {
			return err
		}
	}
	if err := d.writeCommand(OpClear, 0, 0); err != nil {
		return err
	}
	return d.commit()
}

// Reset restores the device to its power-on state.
func (d *Device) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeCommand(OpReset, 0, 0)
}

// ReadKeyEvent waits up to timeout for an inbound report and decodes it.
// Returns ErrNoEvent when the read times out or the report is an
// idle/status frame. A decoded event with an unrecognized state byte is
// returned together with ErrUnknownKeyState.
func (d *Device) ReadKeyEvent(timeout time.Duration) (*KeyEvent, error) {
	data, err := d.transport.ReadWithTimeout(timeout)
	if err != nil {
		return nil, fmt.Errorf("read key event: %w", err)
	}
	if data == nil {
		return nil, ErrNoEvent
	}

	event, err := ParseKeyEvent(data)
	if event == nil {
		return nil, ErrNoEvent
	}
	return event, err
}
