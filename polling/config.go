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

import "time"

// Config holds polling configuration options.
type Config struct {
	// ReadTimeout bounds each blocking read. Tens of milliseconds: short
	// enough for responsive key dispatch, long enough to avoid a busy
	// spin.
	ReadTimeout time.Duration

	// IdleSleep is the fixed sleep at the end of each loop iteration,
	// bounding CPU usage when the device is idle.
	IdleSleep time.Duration

	// OpenRetryInterval is the delay after a failed open attempt. The
	// supervisor retries indefinitely; this keeps it from spinning while
	// the device is absent.
	OpenRetryInterval time.Duration

	// NotFoundReportEvery throttles device-absent reporting: the first
	// failed open attempt is reported, then every Nth. Avoids flooding
	// logs while a device stays unplugged.
	NotFoundReportEvery int
}

// DefaultConfig returns the default polling configuration.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout:         50 * time.Millisecond,
		IdleSleep:           10 * time.Millisecond,
		OpenRetryInterval:   time.Second,
		NotFoundReportEvery: 30,
	}
}
