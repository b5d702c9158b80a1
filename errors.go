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
	"errors"
	"fmt"
	"io"
	"runtime"
	"syscall"
)

// Error categories for link supervision and retry decisions.
var (
	// Transport errors.
	ErrDeviceNotFound   = errors.New("device not found")
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportClosed  = errors.New("transport is closed")

	// Protocol misuse - rejected before any write is attempted.
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidSlot      = errors.New("slot out of range")

	// Decoder conditions.
	ErrUnknownKeyState = errors.New("unrecognized key state")

	// ErrNoEvent indicates a read cycle produced no key event: a timeout
	// with no data, or an idle/status frame. Not an error condition.
	ErrNoEvent = errors.New("no key event")
)

// ErrorType represents the category of a transport error for the
// connection supervisor.
type ErrorType int

const (
	// ErrorTypeTransient indicates a condition a later attempt may clear.
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates the link is gone and the handle must be
	// discarded.
	ErrorTypePermanent
	// ErrorTypeTimeout indicates a bounded read expired with no data.
	ErrorTypeTimeout
)

// TransportError wraps transport-level errors with operation context.
type TransportError struct {
	Err       error     // Underlying error
	Op        string    // Operation that failed
	Device    string    // Device identifier (vid:pid or path)
	Type      ErrorType // Error category
	Retryable bool      // Whether the operation may be retried
}

func (e *TransportError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Device, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport error with consistent formatting.
func NewTransportError(op, device string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Device:    device,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a timeout error for transport operations.
func NewTimeoutError(op, device string) *TransportError {
	return NewTransportError(op, device, ErrTransportTimeout, ErrorTypeTimeout)
}

// IsTransient returns true if the error is a timeout or another condition
// that does not require discarding the device handle.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type == ErrorTypeTransient || te.Type == ErrorTypeTimeout
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrNoEvent):
		return true
	default:
		return false
	}
}

// IsFatal returns true if the error indicates the device link is gone and
// the supervisor must discard the handle and reconnect. This is distinct
// from IsTransient, which covers conditions the next read cycle may clear.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type == ErrorTypePermanent
	}

	if isDeviceGoneError(err) {
		return true
	}

	switch {
	case errors.Is(err, ErrTransportClosed),
		errors.Is(err, ErrDeviceNotFound),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// Windows error codes for device disconnection detection. Defined here
// because they are not available on non-Windows platforms.
const (
	errAccessDenied syscall.Errno = 5   // ERROR_ACCESS_DENIED
	errGenFailure   syscall.Errno = 31  // ERROR_GEN_FAILURE
	errNoSuchDevice syscall.Errno = 433 // ERROR_NO_SUCH_DEVICE
)

// isDeviceGoneError checks for OS-level errors indicating device
// disconnection. These occur when the panel is unplugged mid-operation.
func isDeviceGoneError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		//nolint:exhaustive // Only checking specific device-gone errors
		switch errno {
		case syscall.EIO, syscall.ENXIO, syscall.ENODEV, syscall.EPIPE:
			return true
		}

		if runtime.GOOS == "windows" {
			//nolint:exhaustive // Only checking specific device-gone errors
			switch errno {
			case errAccessDenied, errGenFailure, errNoSuchDevice:
				return true
			}
		}
	}

	return false
}
