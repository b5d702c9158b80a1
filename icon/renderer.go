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

// Package icon prepares ready-to-upload key and background images:
// loading, resizing, labeling, and placeholder generation. The renderer
// never fails; any input problem falls back to a generated tile so a key
// always has something to display.
package icon

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // background/icon decoding
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Default geometry for the Stream Dock 293.
var (
	defaultKeySize        = image.Point{X: 100, Y: 100}
	defaultBackgroundSize = image.Point{X: 480, Y: 272}
)

const (
	jpegQuality = 95
	labelStripH = 20
	maxLabelLen = 12
)

var (
	tileColor   = color.RGBA{R: 0x2A, G: 0x2A, B: 0x2A, A: 0xFF}
	borderColor = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xFF}
	textColor   = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// Renderer produces JPEG payloads sized for the panel. Safe for
// concurrent use.
type Renderer struct {
	keySize        image.Point
	backgroundSize image.Point

	mu    sync.Mutex
	cache map[string][]byte
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithKeySize overrides the key tile geometry.
func WithKeySize(size image.Point) Option {
	return func(r *Renderer) { r.keySize = size }
}

// WithBackgroundSize overrides the background geometry.
func WithBackgroundSize(size image.Point) Option {
	return func(r *Renderer) { r.backgroundSize = size }
}

// NewRenderer creates a renderer with Stream Dock 293 defaults.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		keySize:        defaultKeySize,
		backgroundSize: defaultBackgroundSize,
		cache:          make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// KeyIcon renders the image for one key. iconSpec is a file path, an
// "auto:<app-name>" system icon lookup, or empty; label is overlaid on a
// bottom strip, or becomes the tile text when no icon resolves. The
// result is cached by (iconSpec, label).
func (r *Renderer) KeyIcon(iconSpec, label string) []byte {
	cacheKey := iconSpec + "\x00" + label

	r.mu.Lock()
	if cached, ok := r.cache[cacheKey]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	var src image.Image
	if path := r.resolveIconPath(iconSpec); path != "" {
		src = loadImage(path)
	}

	var tile *image.RGBA
	if src != nil {
		tile = scaleTo(src, r.keySize)
		if label != "" {
			drawLabelStrip(tile, label)
		}
	} else {
		tile = r.placeholder(label)
	}

	encoded := encodeJPEG(tile)

	r.mu.Lock()
	r.cache[cacheKey] = encoded
	r.mu.Unlock()
	return encoded
}

// Background renders a full-screen background from a file path. A missing
// or undecodable file yields a plain dark background.
func (r *Renderer) Background(path string) []byte {
	if src := loadImage(expandPath(path)); src != nil {
		return encodeJPEG(scaleTo(src, r.backgroundSize))
	}

	tile := image.NewRGBA(image.Rectangle{Max: r.backgroundSize})
	fill(tile, tileColor)
	return encodeJPEG(tile)
}

// resolveIconPath turns an icon spec into a readable file path, or ""
// when nothing resolves.
func (r *Renderer) resolveIconPath(spec string) string {
	if spec == "" {
		return ""
	}
	if name, ok := strings.CutPrefix(spec, "auto:"); ok {
		path, _ := FindSystemIcon(name)
		return path
	}
	path := expandPath(spec)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// placeholder generates a labeled tile for keys without an icon file.
func (r *Renderer) placeholder(label string) *image.RGBA {
	tile := image.NewRGBA(image.Rectangle{Max: r.keySize})
	fill(tile, tileColor)
	drawBorder(tile, borderColor, 2)

	if label != "" {
		lines := wrapLabel(label, r.keySize.X-10)
		face := basicfont.Face7x13
		lineH := face.Metrics().Height.Ceil() + 2
		y := (r.keySize.Y - len(lines)*lineH) / 2 + face.Metrics().Ascent.Ceil()
		for _, line := range lines {
			drawCenteredText(tile, line, y, r.keySize.X)
			y += lineH
		}
	}
	return tile
}

// drawLabelStrip overlays a darkened strip with the label along the
// bottom edge.
func drawLabelStrip(tile *image.RGBA, label string) {
	bounds := tile.Bounds()
	strip := image.Rect(bounds.Min.X, bounds.Max.Y-labelStripH, bounds.Max.X, bounds.Max.Y)
	overlay := image.NewUniform(color.RGBA{A: 0xB4})
	draw.DrawMask(tile, strip, image.NewUniform(color.Black), image.Point{}, overlay, image.Point{}, draw.Over)

	if len(label) > maxLabelLen {
		label = label[:maxLabelLen-2] + ".."
	}
	face := basicfont.Face7x13
	y := bounds.Max.Y - labelStripH + face.Metrics().Ascent.Ceil() + 2
	drawCenteredText(tile, label, y, bounds.Dx())
}

func drawCenteredText(dst *image.RGBA, text string, baselineY, width int) {
	face := basicfont.Face7x13
	textW := font.MeasureString(face, text).Ceil()
	x := (width - textW) / 2
	if x < 0 {
		x = 0
	}
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(x, baselineY),
	}
	drawer.DrawString(text)
}

// wrapLabel breaks a label into lines that fit maxWidth pixels.
func wrapLabel(label string, maxWidth int) []string {
	face := basicfont.Face7x13
	words := strings.Fields(label)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate).Ceil() > maxWidth {
			lines = append(lines, current)
			current = word
		} else {
			current = candidate
		}
	}
	return append(lines, current)
}

func fill(dst *image.RGBA, c color.Color) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func drawBorder(dst *image.RGBA, c color.Color, width int) {
	bounds := dst.Bounds()
	uniform := image.NewUniform(c)
	draw.Draw(dst, image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+width), uniform, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(bounds.Min.X, bounds.Max.Y-width, bounds.Max.X, bounds.Max.Y), uniform, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+width, bounds.Max.Y), uniform, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(bounds.Max.X-width, bounds.Min.Y, bounds.Max.X, bounds.Max.Y), uniform, image.Point{}, draw.Src)
}

// scaleTo resizes src to exactly size using Catmull-Rom resampling.
func scaleTo(src image.Image, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// loadImage decodes an image file, or returns nil.
func loadImage(path string) image.Image {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil
	}
	return img
}

// encodeJPEG encodes the tile; encoding to a buffer cannot fail, but a
// solid fallback covers the degenerate case anyway.
func encodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		buf.Reset()
		_ = jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1)), nil)
	}
	return buf.Bytes()
}

// systemIconDirs are searched by FindSystemIcon, larger sizes first.
var (
	systemIconDirs  = []string{"/usr/share/icons/hicolor", "/usr/share/pixmaps", "~/.local/share/icons"}
	systemIconSizes = []string{"256x256", "128x128", "96x96", "72x72", "64x64", "48x48"}
)

// FindSystemIcon looks up an application icon by name across the common
// icon directories. Only raster formats the renderer can decode are
// considered.
func FindSystemIcon(appName string) (string, bool) {
	for _, dir := range systemIconDirs {
		dir = expandPath(dir)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		for _, size := range systemIconSizes {
			candidate := filepath.Join(dir, size, "apps", appName+".png")
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true
			}
		}
		candidate := filepath.Join(dir, appName+".png")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
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
