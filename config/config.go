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

// Package config loads launcher configuration from a JSON file: device
// settings plus key bindings. The package only reads configuration; it
// never mutates the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	streamdock "github.com/ZaparooProject/go-streamdock"
	"github.com/ZaparooProject/go-streamdock/action"
)

// DefaultBrightness applies when the file does not set one.
const DefaultBrightness = 80

// Config is the launcher configuration.
type Config struct {
	Device DeviceConfig   `json:"device"`
	Keys   map[string]Key `json:"keys"`

	path     string
	bindings map[int]Key
}

// DeviceConfig holds panel-wide settings.
type DeviceConfig struct {
	// Brightness is 0-100; nil means DefaultBrightness.
	Brightness *int `json:"brightness"`
	// Background names a background image, or empty for none.
	Background string `json:"background"`
}

// Key is one key binding.
type Key struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	// Icon is a file path, an "auto:<app-name>" system icon lookup, or
	// empty for a generated label tile.
	Icon   string      `json:"icon"`
	Action action.Spec `json:"action"`
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{path: path}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.buildBindings()
	return cfg, nil
}

// Reload re-reads the file this configuration was loaded from.
func (c *Config) Reload() (*Config, error) {
	return Load(c.path)
}

// Brightness returns the configured brightness, defaulted.
func (c *Config) Brightness() int {
	if c.Device.Brightness == nil {
		return DefaultBrightness
	}
	return *c.Device.Brightness
}

// Binding returns the binding for a logical key, if configured.
func (c *Config) Binding(key int) (Key, bool) {
	binding, ok := c.bindings[key]
	return binding, ok
}

// Bindings returns all configured bindings keyed by logical key number.
func (c *Config) Bindings() map[int]Key {
	return c.bindings
}

// validate performs declarative validation only; it must not mutate the
// configuration.
func (c *Config) validate() error {
	if b := c.Device.Brightness; b != nil && (*b < 0 || *b > 100) {
		return fmt.Errorf("brightness %d not in 0-100", *b)
	}

	for keyStr, binding := range c.Keys {
		key, err := strconv.Atoi(keyStr)
		if err != nil {
			return fmt.Errorf("key %q: not a number", keyStr)
		}
		if key < 1 || key > streamdock.KeyCount {
			return fmt.Errorf("key %d not in 1-%d", key, streamdock.KeyCount)
		}
		if t := binding.Action.Type; t != "" && !action.KnownType(t) {
			return fmt.Errorf("key %d: unknown action type %q", key, string(t))
		}
	}
	return nil
}

func (c *Config) buildBindings() {
	c.bindings = make(map[int]Key, len(c.Keys))
	for keyStr, binding := range c.Keys {
		key, _ := strconv.Atoi(keyStr)
		if binding.Name == "" {
			binding.Name = fmt.Sprintf("Key %d", key)
		}
		c.bindings[key] = binding
	}
}
