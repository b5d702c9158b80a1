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
	"fmt"
)

// ReportSize is the payload length of every report exchanged with the
// device. On the wire each report is preceded by a single 0x00 report-id
// byte, giving 513 bytes total.
const ReportSize = 512

// ReportID is the HID report id used for all output reports.
const ReportID byte = 0x00

// magicPrefix is the 5-byte command magic that opens every command header.
var magicPrefix = []byte{'C', 'R', 'T', 0x00, 0x00}

// Opcode is a vendor command mnemonic carried in a command header.
type Opcode string

// Known device opcodes.
const (
	// OpKeyImage uploads an image to a key slot.
	OpKeyImage Opcode = "BAT"
	// OpBackground uploads an image to the background region.
	OpBackground Opcode = "WPA"
	// OpCommit latches a completed upload onto the display. Header-only:
	// the opcode field is 5 bytes wide and carries no size or slot.
	OpCommit Opcode = "STP"
	// OpBrightness sets panel brightness. The size field carries the level,
	// the slot field addresses a single slot (0 = global).
	OpBrightness Opcode = "LIG"
	// OpClear blanks the display.
	OpClear Opcode = "CLE"
	// OpDeleteSlot discards the stored image for one slot.
	OpDeleteSlot Opcode = "DEL"
	// OpReset restores the device to its power-on state.
	OpReset Opcode = "INT"
)

// opcodeSpec describes the fixed header layout for one opcode.
type opcodeSpec struct {
	// width is the opcode field width; the mnemonic is NUL-padded to it.
	width int
	// sized is true when the header carries size and slot fields.
	sized bool
}

var opcodes = map[Opcode]opcodeSpec{
	OpKeyImage:   {width: 3, sized: true},
	OpBackground: {width: 3, sized: true},
	OpBrightness: {width: 3, sized: true},
	OpClear:      {width: 3, sized: true},
	OpDeleteSlot: {width: 3, sized: true},
	OpReset:      {width: 3, sized: true},
	OpCommit:     {width: 5, sized: false},
}

// BuildCommand builds a command header report: magic prefix, NUL-padded
// opcode field, big-endian size, slot, zero-padded to ReportSize.
// Malformed opcodes are rejected before any write is attempted.
func BuildCommand(op Opcode, size uint32, slot byte) ([]byte, error) {
	spec, ok := opcodes[op]
	if !ok {
		return nil, fmt.Errorf("%w: unknown opcode %q", ErrInvalidParameter, string(op))
	}
	if !spec.sized && (size != 0 || slot != 0) {
		return nil, fmt.Errorf("%w: opcode %q carries no size or slot", ErrInvalidParameter, string(op))
	}

	header := make([]byte, 0, len(magicPrefix)+spec.width+5)
	header = append(header, magicPrefix...)
	field := make([]byte, spec.width)
	copy(field, op)
	header = append(header, field...)
	if spec.sized {
		header = binary.BigEndian.AppendUint32(header, size)
		header = append(header, slot)
	}
	return BuildRaw(header), nil
}

// BuildRaw pads or truncates p to exactly ReportSize bytes. Data chunks of
// an image upload carry no header and go through this directly. Truncation
// of an oversized payload is a caller bug, not a protocol adaptation; the
// chunking in Device never produces one.
func BuildRaw(p []byte) []byte {
	report := make([]byte, ReportSize)
	copy(report, p)
	return report
}

// chunkCount returns the number of data reports needed to carry n payload
// bytes.
func chunkCount(n int) int {
	return (n + ReportSize - 1) / ReportSize
}
