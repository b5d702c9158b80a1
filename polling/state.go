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

package polling

// State is the connection supervisor state. It is owned exclusively by the
// Session and transitions only on I/O outcomes, never on a timer alone.
type State int

const (
	// StateClosed means no device handle is held.
	StateClosed State = iota
	// StateReconnecting means an open attempt is in progress.
	StateReconnecting
	// StateOpen means the link is operational.
	StateOpen
	// StateDegraded means the link was just lost; the handle has been
	// discarded and the next tick moves to StateClosed. The state exists
	// so observers can distinguish "just lost the link" from "still
	// absent".
	StateDegraded
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateReconnecting:
		return "reconnecting"
	case StateOpen:
		return "open"
	case StateDegraded:
		return "degraded"
	default:
		return "invalid"
	}
}
