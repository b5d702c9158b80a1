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

// Command streamdock-launcher binds a Stream Dock button panel to
// configured actions: it renders key icons, keeps the panel configured
// across unplugs, and launches the bound action on each key press.
// SIGHUP reloads the configuration in place.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	streamdock "github.com/ZaparooProject/go-streamdock"
	"github.com/ZaparooProject/go-streamdock/action"
	"github.com/ZaparooProject/go-streamdock/config"
	"github.com/ZaparooProject/go-streamdock/icon"
	"github.com/ZaparooProject/go-streamdock/polling"
	"github.com/ZaparooProject/go-streamdock/transport/hid"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "configuration file")
	debug := flag.Bool("debug", false, "enable debug output")
	flag.Parse()

	if *debug {
		streamdock.SetDebugEnabled(true)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(*debug),
	}))

	if err := run(*configPath, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("launcher failed", "error", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/streamdock/config.json"
	}
	return "config.json"
}

func logLevel(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func run(configPath string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Info("configuration loaded", "path", configPath, "bindings", len(cfg.Bindings()))

	launcher := &launcher{
		logger:   logger,
		config:   cfg,
		renderer: icon.NewRenderer(),
	}

	session := polling.NewSession(launcher.openDevice, launcher.replay, nil)
	launcher.session = session

	actions, err := buildActions(cfg, launcher)
	if err != nil {
		return err
	}
	launcher.actions = actions

	session.OnKeyPressed = launcher.handlePress
	session.OnKeyReleased = func(event streamdock.KeyEvent) {
		logger.Debug("key released", "key", event.Key)
	}
	session.OnStateChange = func(state polling.State) {
		logger.Info("link state changed", "state", state.String())
	}
	session.OnError = func(err error) {
		logger.Warn("link error", "error", err)
	}

	go launcher.watchReload(ctx)

	logger.Info("polling started")
	return session.Start(ctx)
}

// buildActions constructs one action per configured binding. Construction
// errors are surfaced whole so a broken configuration never half-works.
func buildActions(cfg *config.Config, display action.DisplayToggler) (map[int]action.Action, error) {
	actions := make(map[int]action.Action, len(cfg.Bindings()))
	for key, binding := range cfg.Bindings() {
		act, err := action.New(binding.Name, binding.Action, display)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", key, err)
		}
		actions[key] = act
	}
	return actions, nil
}

// launcher wires configuration, icon rendering, and actions to one
// polling session.
type launcher struct {
	logger   *slog.Logger
	renderer *icon.Renderer
	session  *polling.Session

	// mu guards config and actions, which a SIGHUP reload swaps while the
	// polling loop keeps dispatching.
	mu      sync.RWMutex
	config  *config.Config
	actions map[int]action.Action

	// displayOff tracks the toggle_display state across presses.
	displayMu  sync.Mutex
	displayOff bool
}

func (l *launcher) currentConfig() *config.Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// openDevice opens the panel over HID.
func (l *launcher) openDevice() (*streamdock.Device, error) {
	transport, err := hid.Open(hid.DefaultVendorID, hid.DefaultProductID)
	if err != nil {
		return nil, err
	}
	return streamdock.New(transport)
}

// replay applies the full configuration to a freshly opened device:
// a deep clean, brightness, background, then per-key icons. Runs on every
// reconnect because the panel keeps no reliable state across unplugs.
func (l *launcher) replay(device *streamdock.Device) error {
	cfg := l.currentConfig()

	if err := device.DeepClean(); err != nil {
		return err
	}
	if err := device.SetBrightness(cfg.Brightness()); err != nil {
		return err
	}
	if bg := cfg.Device.Background; bg != "" {
		if err := device.SetBackground(l.renderer.Background(bg)); err != nil {
			return err
		}
	}
	for key, binding := range cfg.Bindings() {
		img := l.renderer.KeyIcon(binding.Icon, binding.Name)
		if err := device.SetKeyImage(key, img); err != nil {
			return fmt.Errorf("key %d icon: %w", key, err)
		}
	}

	l.displayMu.Lock()
	l.displayOff = false
	l.displayMu.Unlock()

	l.logger.Info("device configured",
		"brightness", cfg.Brightness(),
		"keys", len(cfg.Bindings()))
	return nil
}

// watchReload reloads the configuration on SIGHUP. A reload that fails to
// parse or validate leaves the running configuration untouched.
func (l *launcher) watchReload(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			l.reload()
		}
	}
}

func (l *launcher) reload() {
	fresh, err := l.currentConfig().Reload()
	if err != nil {
		l.logger.Error("configuration reload failed", "error", err)
		return
	}
	actions, err := buildActions(fresh, l)
	if err != nil {
		l.logger.Error("configuration reload failed", "error", err)
		return
	}

	l.mu.Lock()
	l.config = fresh
	l.actions = actions
	l.mu.Unlock()
	l.logger.Info("configuration reloaded", "bindings", len(fresh.Bindings()))

	if device := l.session.Device(); device != nil {
		if err := l.replay(device); err != nil {
			l.logger.Warn("reapplying configuration failed", "error", err)
		}
	}
}

// handlePress runs the bound action for a press edge. Actions run on
// their own goroutine so a slow foreground command never stalls polling.
func (l *launcher) handlePress(event streamdock.KeyEvent) {
	l.mu.RLock()
	act, ok := l.actions[int(event.Key)]
	l.mu.RUnlock()
	if !ok {
		l.logger.Debug("unbound key pressed", "key", event.Key)
		return
	}

	l.logger.Info("executing action", "key", event.Key, "action", act.Name(), "type", string(act.Type()))
	go func() {
		if err := act.Execute(context.Background()); err != nil {
			l.logger.Error("action failed", "action", act.Name(), "error", err)
		}
	}()
}

// ToggleDisplay flips the panel between its configured brightness and
// fully dark. Implements action.DisplayToggler.
func (l *launcher) ToggleDisplay() error {
	device := l.session.Device()
	if device == nil {
		return streamdock.ErrDeviceNotFound
	}

	l.displayMu.Lock()
	defer l.displayMu.Unlock()

	if l.displayOff {
		if err := device.SetBrightness(l.currentConfig().Brightness()); err != nil {
			return err
		}
		l.displayOff = false
		return nil
	}
	if err := device.SetBrightness(0); err != nil {
		return err
	}
	l.displayOff = true
	return nil
}
