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

// Package action defines the closed set of behaviors that can be bound to
// a key: launch an application, run a script, run a shell command, toggle
// the display, or nothing. No action type is added at runtime, so the set
// is modeled as a sealed interface with one concrete type per variant.
package action

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Type identifies one action variant.
type Type string

const (
	TypeLaunchApp     Type = "launch_app"
	TypeRunScript     Type = "run_script"
	TypeRunCommand    Type = "run_command"
	TypeToggleDisplay Type = "toggle_display"
	TypeNone          Type = "none"
)

// KnownType reports whether t names a defined action variant.
func KnownType(t Type) bool {
	switch t {
	case TypeLaunchApp, TypeRunScript, TypeRunCommand, TypeToggleDisplay, TypeNone:
		return true
	default:
		return false
	}
}

// Spec is the serialized form of an action in the configuration file.
// Which fields apply depends on Type.
type Spec struct {
	Type       Type     `json:"type"`
	Command    string   `json:"command"`
	Script     string   `json:"script"`
	Args       []string `json:"args"`
	WorkingDir string   `json:"working_dir"`
	Shell      bool     `json:"shell"`
	Detach     *bool    `json:"detach"`
}

// DisplayToggler is the capability handed to toggle_display actions at
// construction time. It is passed in up front rather than patched in
// later, so a constructed action is always complete.
type DisplayToggler interface {
	ToggleDisplay() error
}

// Action is a single executable key behavior.
type Action interface {
	// Name returns the binding name, for logging.
	Name() string
	// Type returns the action variant.
	Type() Type
	// Execute performs the action. Detached variants return once the
	// process has started.
	Execute(ctx context.Context) error

	sealed()
}

// Sentinel errors for construction and execution.
var (
	ErrUnknownType     = errors.New("unknown action type")
	ErrMissingCommand  = errors.New("action requires a command")
	ErrMissingScript   = errors.New("action requires a script path")
	ErrNoDisplayToggle = errors.New("no display toggler available")
)

// New constructs an action from its spec. toggle_display actions receive
// the display capability here; display may be nil for all other types.
func New(name string, spec Spec, display DisplayToggler) (Action, error) {
	switch spec.Type {
	case TypeLaunchApp:
		if spec.Command == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingCommand, name)
		}
		return &launchApp{
			name:    name,
			command: spec.Command,
			args:    spec.Args,
			detach:  detachDefault(spec.Detach, true),
		}, nil
	case TypeRunScript:
		if spec.Script == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingScript, name)
		}
		return &runScript{
			name:       name,
			script:     expandPath(spec.Script),
			args:       spec.Args,
			workingDir: spec.WorkingDir,
			detach:     detachDefault(spec.Detach, false),
		}, nil
	case TypeRunCommand:
		if spec.Command == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingCommand, name)
		}
		return &runCommand{
			name:       name,
			command:    spec.Command,
			workingDir: spec.WorkingDir,
			detach:     detachDefault(spec.Detach, false),
		}, nil
	case TypeToggleDisplay:
		if display == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoDisplayToggle, name)
		}
		return &toggleDisplay{name: name, display: display}, nil
	case TypeNone, "":
		return &noAction{name: name}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(spec.Type))
	}
}

func detachDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// expandPath expands ~ and environment variables in a path.
func expandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// startDetached starts cmd in the background and releases the process so
// it outlives the launcher.
func startDetached(cmd *exec.Cmd) error {
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("release %s: %w", cmd.Path, err)
	}
	return nil
}

// runForeground runs cmd to completion and surfaces a non-zero exit.
func runForeground(cmd *exec.Cmd) error {
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("run %s: %w: %s", cmd.Path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// launchApp starts a desktop application.
type launchApp struct {
	name    string
	command string
	args    []string
	detach  bool
}

func (a *launchApp) Name() string { return a.name }
func (*launchApp) Type() Type     { return TypeLaunchApp }
func (*launchApp) sealed()        {}

func (a *launchApp) Execute(ctx context.Context) error {
	if a.detach {
		return startDetached(exec.Command(a.command, a.args...))
	}
	return runForeground(exec.CommandContext(ctx, a.command, a.args...))
}

// runScript executes a script file.
type runScript struct {
	name       string
	script     string
	args       []string
	workingDir string
	detach     bool
}

func (a *runScript) Name() string { return a.name }
func (*runScript) Type() Type     { return TypeRunScript }
func (*runScript) sealed()        {}

func (a *runScript) Execute(ctx context.Context) error {
	if _, err := os.Stat(a.script); err != nil {
		return fmt.Errorf("script %s: %w", a.script, err)
	}
	if a.detach {
		cmd := exec.Command(a.script, a.args...)
		cmd.Dir = a.workingDir
		return startDetached(cmd)
	}
	cmd := exec.CommandContext(ctx, a.script, a.args...)
	cmd.Dir = a.workingDir
	return runForeground(cmd)
}

// runCommand executes an arbitrary shell command line.
type runCommand struct {
	name       string
	command    string
	workingDir string
	detach     bool
}

func (a *runCommand) Name() string { return a.name }
func (*runCommand) Type() Type     { return TypeRunCommand }
func (*runCommand) sealed()        {}

func (a *runCommand) Execute(ctx context.Context) error {
	if a.detach {
		cmd := exec.Command("/bin/sh", "-c", a.command)
		cmd.Dir = a.workingDir
		return startDetached(cmd)
	}
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", a.command)
	cmd.Dir = a.workingDir
	return runForeground(cmd)
}

// toggleDisplay flips the panel display on or off through the capability
// provided at construction.
type toggleDisplay struct {
	name    string
	display DisplayToggler
}

func (a *toggleDisplay) Name() string { return a.name }
func (*toggleDisplay) Type() Type     { return TypeToggleDisplay }
func (*toggleDisplay) sealed()        {}

func (a *toggleDisplay) Execute(context.Context) error {
	return a.display.ToggleDisplay()
}

// noAction is the placeholder for unbound keys.
type noAction struct {
	name string
}

func (a *noAction) Name() string { return a.name }
func (*noAction) Type() Type     { return TypeNone }
func (*noAction) sealed()        {}

func (*noAction) Execute(context.Context) error { return nil }
