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

// Package polling drives a Stream Dock device: it supervises the
// connection state machine, keeps the link alive across transient USB
// failures, and dispatches decoded key events to caller callbacks.
package polling

import (
	"context"
	"errors"
	"fmt"
	"time"

	streamdock "github.com/ZaparooProject/go-streamdock"
	"github.com/ZaparooProject/go-streamdock/internal/syncutil"
)

// OpenFunc opens a fresh device handle. Called for the initial connect and
// every reconnect attempt.
type OpenFunc func() (*streamdock.Device, error)

// ReplayFunc re-applies the full device configuration (brightness, then
// background and per-key images) to a freshly opened device. The device
// has no persistent-state guarantee across a physical reconnect, so the
// supervisor runs this on every Closed -> Open edge before key-event
// dispatch resumes.
type ReplayFunc func(*streamdock.Device) error

// Session supervises one device connection and runs the polling loop.
// The loop is single-threaded; all transport access funnels through the
// Device, whose internal mutex serializes command sequences from other
// goroutines (e.g. a bound action toggling brightness).
type Session struct {
	// OnKeyPressed is invoked exactly once per press edge.
	OnKeyPressed func(streamdock.KeyEvent)
	// OnKeyReleased is invoked per release edge. Releases are observed
	// only; bound actions trigger on press.
	OnKeyReleased func(streamdock.KeyEvent)
	// OnStateChange is invoked on every supervisor state transition.
	OnStateChange func(State)
	// OnError receives link errors: throttled open failures and fatal I/O
	// errors that trigger reconnection. No error delivered here stops the
	// session.
	OnError func(error)

	open   OpenFunc
	replay ReplayFunc
	config *Config

	device       *streamdock.Device
	state        State
	stateMutex   syncutil.RWMutex
	openFailures int
}

// NewSession creates a session. open must not be nil; replay may be nil
// when the caller has no configuration to restore.
func NewSession(open OpenFunc, replay ReplayFunc, config *Config) *Session {
	if config == nil {
		config = DefaultConfig()
	}
	return &Session{
		open:   open,
		replay: replay,
		config: config,
		state:  StateClosed,
	}
}

// State returns the current supervisor state.
func (s *Session) State() State {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.state
}

// Device returns the current device handle, or nil while the link is
// down. The handle serializes its own command sequences, so callers may
// use it from other goroutines.
func (s *Session) Device() *streamdock.Device {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.device
}

// Start runs the polling loop until ctx is cancelled. No link error
// terminates the loop; the supervisor degrades and retries indefinitely.
func (s *Session) Start(ctx context.Context) error {
	defer s.teardown()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.tick(ctx)
	}
}

// tick runs exactly one supervisor iteration.
func (s *Session) tick(ctx context.Context) {
	switch s.State() {
	case StateClosed, StateReconnecting:
		s.tickClosed(ctx)
	case StateOpen:
		s.tickOpen(ctx)
	case StateDegraded:
		s.setState(StateClosed)
	}
}

// tickClosed attempts to open the device. On success it replays the full
// configuration before key-event dispatch resumes; on failure it reports
// (throttled) and backs off one retry interval.
func (s *Session) tickClosed(ctx context.Context) {
	s.setState(StateReconnecting)

	device, err := s.open()
	if err != nil {
		s.setState(StateClosed)
		s.reportOpenFailure(err)
		s.sleep(ctx, s.config.OpenRetryInterval)
		return
	}
	s.openFailures = 0

	if s.replay != nil {
		if err := s.replay(device); err != nil {
			if streamdock.IsFatal(err) {
				_ = device.Close()
				s.emitError(fmt.Errorf("configuration replay: %w", err))
				s.setState(StateDegraded)
				return
			}
			// Non-fatal replay problems (e.g. a single image upload
			// rejected) leave the link usable.
			s.emitError(fmt.Errorf("configuration replay: %w", err))
		}
	}

	s.stateMutex.Lock()
	s.device = device
	s.stateMutex.Unlock()
	s.setState(StateOpen)
}

// tickOpen performs one read/dispatch cycle.
func (s *Session) tickOpen(ctx context.Context) {
	device := s.Device()
	event, err := device.ReadKeyEvent(s.config.ReadTimeout)

	switch {
	case errors.Is(err, streamdock.ErrNoEvent):
		// Idle; fall through to the fixed sleep.
	case errors.Is(err, streamdock.ErrUnknownKeyState):
		streamdock.Debugf("ignoring key event: %v", err)
	case err != nil && streamdock.IsFatal(err):
		s.emitError(err)
		s.dropDevice()
		s.setState(StateDegraded)
		return
	case err != nil:
		streamdock.Debugf("transient read error: %v", err)
	default:
		s.dispatch(*event)
	}

	s.sleep(ctx, s.config.IdleSleep)
}

// dispatch routes a decoded key event. Press edges invoke the handler
// exactly once; release edges are observed but never trigger actions.
func (s *Session) dispatch(event streamdock.KeyEvent) {
	switch event.State {
	case streamdock.KeyPressed:
		streamdock.Debugf("key %d pressed (scan 0x%02X)", event.Key, event.RawCode)
		if s.OnKeyPressed != nil {
			s.OnKeyPressed(event)
		}
	case streamdock.KeyReleased:
		streamdock.Debugf("key %d released", event.Key)
		if s.OnKeyReleased != nil {
			s.OnKeyReleased(event)
		}
	}
}

// dropDevice discards the handle after a fatal I/O error.
func (s *Session) dropDevice() {
	s.stateMutex.Lock()
	device := s.device
	s.device = nil
	s.stateMutex.Unlock()
	if device != nil {
		_ = device.Close()
	}
}

// setState updates the supervisor state and notifies the observer.
func (s *Session) setState(next State) {
	s.stateMutex.Lock()
	if s.state == next {
		s.stateMutex.Unlock()
		return
	}
	s.state = next
	callback := s.OnStateChange
	s.stateMutex.Unlock()

	if callback != nil {
		callback(next)
	}
}

// reportOpenFailure reports a failed open attempt at reduced frequency:
// the first failure, then every Nth while the device stays absent.
func (s *Session) reportOpenFailure(err error) {
	s.openFailures++
	every := s.config.NotFoundReportEvery
	if every <= 0 {
		every = 1
	}
	if s.openFailures == 1 || s.openFailures%every == 0 {
		s.emitError(fmt.Errorf("open attempt %d: %w", s.openFailures, err))
	}
}

func (s *Session) emitError(err error) {
	if s.OnError != nil {
		s.OnError(err)
	}
}

// sleep waits for d or until ctx is cancelled.
func (*Session) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// teardown releases the device handle on shutdown.
func (s *Session) teardown() {
	s.dropDevice()
	s.setState(StateClosed)
}
