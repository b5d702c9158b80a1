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

package icon

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeJPEG decodes a rendered payload and asserts its geometry.
func decodeJPEG(t *testing.T, payload []byte, want image.Point) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, want.X, img.Bounds().Dx())
	assert.Equal(t, want.Y, img.Bounds().Dy())
	return img
}

// writePNG writes a solid-color PNG fixture.
func writePNG(t *testing.T, size image.Point, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rectangle{Max: size})
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "fixture.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestKeyIconPlaceholder(t *testing.T) {
	t.Parallel()

	renderer := NewRenderer()
	payload := renderer.KeyIcon("", "Terminal")
	require.NotEmpty(t, payload)
	decodeJPEG(t, payload, defaultKeySize)
}

func TestKeyIconFromFile(t *testing.T) {
	t.Parallel()

	path := writePNG(t, image.Point{X: 300, Y: 200}, color.RGBA{R: 0xFF, A: 0xFF})

	renderer := NewRenderer()
	payload := renderer.KeyIcon(path, "")
	decodeJPEG(t, payload, defaultKeySize)
}

func TestKeyIconMissingFileFallsBack(t *testing.T) {
	t.Parallel()

	renderer := NewRenderer()
	payload := renderer.KeyIcon(filepath.Join(t.TempDir(), "absent.png"), "Files")
	require.NotEmpty(t, payload)
	decodeJPEG(t, payload, defaultKeySize)
}

func TestKeyIconUndecodableFileFallsBack(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	renderer := NewRenderer()
	payload := renderer.KeyIcon(path, "Broken")
	require.NotEmpty(t, payload)
	decodeJPEG(t, payload, defaultKeySize)
}

func TestKeyIconCache(t *testing.T) {
	t.Parallel()

	renderer := NewRenderer()
	first := renderer.KeyIcon("", "Terminal")
	second := renderer.KeyIcon("", "Terminal")
	assert.Equal(t, first, second)

	other := renderer.KeyIcon("", "Files")
	assert.NotEqual(t, first, other, "different labels must render differently")
}

func TestKeyIconCustomSize(t *testing.T) {
	t.Parallel()

	size := image.Point{X: 64, Y: 64}
	renderer := NewRenderer(WithKeySize(size))
	decodeJPEG(t, renderer.KeyIcon("", "X"), size)
}

func TestBackground(t *testing.T) {
	t.Parallel()

	path := writePNG(t, image.Point{X: 800, Y: 600}, color.RGBA{B: 0xFF, A: 0xFF})

	renderer := NewRenderer()
	decodeJPEG(t, renderer.Background(path), defaultBackgroundSize)
}

func TestBackgroundMissingFileFallsBack(t *testing.T) {
	t.Parallel()

	renderer := NewRenderer()
	payload := renderer.Background("/nonexistent/bg.png")
	require.NotEmpty(t, payload)
	decodeJPEG(t, payload, defaultBackgroundSize)
}

func TestWrapLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		label string
		width int
		want  []string
	}{
		{name: "empty", label: "", width: 90, want: nil},
		{name: "single word", label: "Terminal", width: 90, want: []string{"Terminal"}},
		{name: "fits one line", label: "My App", width: 90, want: []string{"My App"}},
		{name: "wraps", label: "Password Manager", width: 70, want: []string{"Password", "Manager"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, wrapLabel(tt.label, tt.width))
		})
	}
}

func TestFindSystemIconAbsent(t *testing.T) {
	t.Parallel()

	_, ok := FindSystemIcon("definitely-not-an-installed-app-xyz")
	assert.False(t, ok)
}
