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
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T, opts ...Option) (*Device, *MockTransport) {
	t.Helper()
	mock := NewMockTransport()
	device, err := New(mock, opts...)
	require.NoError(t, err)
	return device, mock
}

// requireHeader asserts one written report is a command header with the
// given opcode, size, and slot.
func requireHeader(t *testing.T, report []byte, op Opcode, size uint32, slot byte) {
	t.Helper()
	require.Len(t, report, ReportSize)
	assert.Equal(t, []byte{'C', 'R', 'T', 0x00, 0x00}, report[:5])
	assert.Equal(t, []byte(op), report[5:5+len(op)])
	if op != OpCommit {
		assert.Equal(t, size, binary.BigEndian.Uint32(report[8:12]))
		assert.Equal(t, slot, report[12])
	}
}

func TestSetKeyImageSequence(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	// 1050 bytes needs three 512-byte chunks.
	img := make([]byte, 1050)
	for i := range img {
		img[i] = byte(i)
	}
	require.NoError(t, device.SetKeyImage(3, img))

	written := mock.Written()
	require.Len(t, written, 5, "header, three chunks, commit")

	requireHeader(t, written[0], OpKeyImage, 1050, 3)
	requireHeader(t, written[4], OpCommit, 0, 0)

	// The chunks, concatenated, reconstruct the image; the tail of the
	// final chunk is zero padding.
	var chunks []byte
	for _, chunk := range written[1:4] {
		require.Len(t, chunk, ReportSize)
		chunks = append(chunks, chunk...)
	}
	assert.Equal(t, img, chunks[:len(img)])
	for _, b := range chunks[len(img):] {
		require.Zero(t, b)
	}
}

func TestSetKeyImageExactMultiple(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	img := make([]byte, ReportSize)
	require.NoError(t, device.SetKeyImage(1, img))

	written := mock.Written()
	require.Len(t, written, 3, "header, one chunk, commit")
	requireHeader(t, written[0], OpKeyImage, ReportSize, 1)
	requireHeader(t, written[2], OpCommit, 0, 0)
}

func TestSetKeyImageInvalidKey(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	for _, key := range []int{0, -1, 16, 255} {
		err := device.SetKeyImage(key, []byte{0x01})
		require.ErrorIs(t, err, ErrInvalidSlot, "key %d", key)
	}
	assert.Empty(t, mock.Written(), "invalid keys must be rejected before any write")
}

func TestSetKeyImageAbortMidSequence(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	mock.FailWriteAfter(2)

	img := make([]byte, 1050)
	err := device.SetKeyImage(2, img)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTransportWrite)

	// Header and first chunk went out; the sequence stopped there and no
	// commit was sent.
	written := mock.Written()
	require.Len(t, written, 2)
	requireHeader(t, written[0], OpKeyImage, 1050, 2)
}

func TestSetBackground(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	img := make([]byte, 600)
	require.NoError(t, device.SetBackground(img))

	written := mock.Written()
	require.Len(t, written, 4, "header, two chunks, commit")
	requireHeader(t, written[0], OpBackground, 600, DefaultBackgroundSlot)
	requireHeader(t, written[3], OpCommit, 0, 0)
}

func TestSetBackgroundCustomSlot(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t, WithBackgroundSlot(0x40))

	require.NoError(t, device.SetBackground([]byte{0x01}))
	written := mock.Written()
	require.NotEmpty(t, written)
	requireHeader(t, written[0], OpBackground, 1, 0x40)
}

func TestSetBrightness(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	require.NoError(t, device.SetBrightness(80))

	written := mock.Written()
	require.Len(t, written, 1, "nonzero level needs only the global command")
	requireHeader(t, written[0], OpBrightness, 80, 0)
}

func TestSetBrightnessZeroSweepsAllSlots(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	require.NoError(t, device.SetBrightness(0))

	written := mock.Written()
	require.Len(t, written, 1+256, "global command plus one per slot")

	requireHeader(t, written[0], OpBrightness, 0, 0)
	for slot := 0; slot < 256; slot++ {
		requireHeader(t, written[1+slot], OpBrightness, 0, byte(slot))
	}
}

func TestSetBrightnessRange(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	for _, level := range []int{-1, 101, 255} {
		err := device.SetBrightness(level)
		require.ErrorIs(t, err, ErrInvalidParameter, "level %d", level)
	}
	assert.Empty(t, mock.Written())
}

func TestClearScreen(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	require.NoError(t, device.ClearScreen())

	written := mock.Written()
	require.Len(t, written, 2)
	requireHeader(t, written[0], OpClear, 0, 0)
	requireHeader(t, written[1], OpCommit, 0, 0)
}

func TestDeepClean(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	require.NoError(t, device.DeepClean())

	// Per-slot delete and brightness-zero pairs for all 256 slots, then a
	// committed clear.
	written := mock.Written()
	require.Len(t, written, 256*2+2)

	for slot := 0; slot < 256; slot++ {
		requireHeader(t, written[slot*2], OpDeleteSlot, 0, byte(slot))
		requireHeader(t, written[slot*2+1], OpBrightness, 0, byte(slot))
	}
	requireHeader(t, written[512], OpClear, 0, 0)
	requireHeader(t, written[513], OpCommit, 0, 0)
}

func TestReset(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	require.NoError(t, device.Reset())

	written := mock.Written()
	require.Len(t, written, 1)
	requireHeader(t, written[0], OpReset, 0, 0)
}

func TestReadKeyEvent(t *testing.T) {
	t.Parallel()

	t.Run("timeout yields no event", func(t *testing.T) {
		t.Parallel()
		device, _ := newTestDevice(t)

		event, err := device.ReadKeyEvent(10 * time.Millisecond)
		require.ErrorIs(t, err, ErrNoEvent)
		assert.Nil(t, event)
	})

	t.Run("idle frame yields no event", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.QueueRead(keyReport(0x00, 0x00))

		event, err := device.ReadKeyEvent(10 * time.Millisecond)
		require.ErrorIs(t, err, ErrNoEvent)
		assert.Nil(t, event)
	})

	t.Run("press decodes", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.QueueRead(keyReport(0x0B, 0x01))

		event, err := device.ReadKeyEvent(10 * time.Millisecond)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, byte(0x0B), event.RawCode)
		assert.Equal(t, byte(1), event.Key)
		assert.Equal(t, KeyPressed, event.State)
	})

	t.Run("unknown state surfaces event and error", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.QueueRead(keyReport(0x0B, 0x09))

		event, err := device.ReadKeyEvent(10 * time.Millisecond)
		require.ErrorIs(t, err, ErrUnknownKeyState)
		require.NotNil(t, event)
		assert.Equal(t, byte(1), event.Key)
	})

	t.Run("read failure wraps transport error", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.QueueReadError(NewTransportError("Read", "mock", ErrTransportRead, ErrorTypePermanent))

		event, err := device.ReadKeyEvent(10 * time.Millisecond)
		require.Error(t, err)
		assert.True(t, IsFatal(err))
		assert.Nil(t, event)
	})
}

func TestDeviceClose(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	require.NoError(t, device.Close())
	assert.False(t, mock.IsConnected())

	err := device.SetBrightness(50)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}
