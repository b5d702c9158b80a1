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

import "fmt"

// KeyCount is the number of physical keys on the panel.
const KeyCount = 15

// KeyState is the edge reported for a key in an inbound report.
type KeyState byte

const (
	// KeyPressed is the press edge.
	KeyPressed KeyState = 0x01
	// KeyReleased is the release edge.
	KeyReleased KeyState = 0x02
)

// String returns the state name for logging.
func (s KeyState) String() string {
	switch s {
	case KeyPressed:
		return "pressed"
	case KeyReleased:
		return "released"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(s))
	}
}

// KeyEvent is a single decoded key edge. Events are constructed per inbound
// report and consumed immediately; they are never persisted.
type KeyEvent struct {
	// RawCode is the physical scan code as reported by the device.
	RawCode byte
	// Key is the logical key number (1-15 for known scan codes, otherwise
	// equal to RawCode).
	Key byte
	// State is the press/release edge.
	State KeyState
}

// Inbound report layout: byte 9 carries the scan code, byte 10 the state.
const (
	scanCodeOffset = 9
	keyStateOffset = 10
	minKeyReport   = 11

	scanIdle   = 0x00
	scanStatus = 0xFF
)

// scanCodeMap resolves physical scan codes to logical key numbers. The
// panel reports its three rows of five keys bottom row first.
var scanCodeMap = map[byte]byte{
	0x0B: 1, 0x0C: 2, 0x0D: 3, 0x0E: 4, 0x0F: 5,
	0x06: 6, 0x07: 7, 0x08: 8, 0x09: 9, 0x0A: 10,
	0x01: 11, 0x02: 12, 0x03: 13, 0x04: 14, 0x05: 15,
}

// LogicalKey resolves a physical scan code to its logical key number.
// Unrecognized codes map to themselves.
func LogicalKey(scanCode byte) byte {
	if key, ok := scanCodeMap[scanCode]; ok {
		return key
	}
	return scanCode
}

// ParseKeyEvent decodes an inbound report. It returns (nil, nil) for
// reports too short to carry a key event and for idle/status frames
// (scan code 0x00 or 0xFF). A state byte other than press or release
// yields the event together with ErrUnknownKeyState; callers should log
// it and move on, the condition is not fatal.
func ParseKeyEvent(report []byte) (*KeyEvent, error) {
	if len(report) < minKeyReport {
		return nil, nil
	}

	code := report[scanCodeOffset]
	if code == scanIdle || code == scanStatus {
		return nil, nil
	}

	event := &KeyEvent{
		RawCode: code,
		Key:     LogicalKey(code),
		State:   KeyState(report[keyStateOffset]),
	}
	if event.State != KeyPressed && event.State != KeyReleased {
		return event, fmt.Errorf("%w: 0x%02X on key %d",
			ErrUnknownKeyState, report[keyStateOffset], event.Key)
	}
	return event, nil
}
