/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Text measurement and line breaking for text layers.
// All measurement goes through a Provider so tests stay deterministic and a
// host can plug in real font faces.

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font. Size is in scene pixels and
// LineHeight is a unitless multiplier of Size.
type FontSpec struct {
	Family     int
	Size       float64
	LineHeight float64
}

// DefaultLineHeight is used when a spec carries no line height.
const DefaultLineHeight = 1.25

// LineHeightPx returns the distance between baselines of consecutive lines.
func (s FontSpec) LineHeightPx() float64 {
	lh := s.LineHeight
	if lh <= 0 {
		lh = DefaultLineHeight
	}
	return s.Size * lh
}

// Provider maps FontSpec to a concrete font.Face and the factor converting
// the face's pixel advances to scene pixels.
type Provider interface {
	Resolve(FontSpec) (face font.Face, scale float64)
}

// BasicProvider uses x/image/basicfont Face7x13 scaled to the requested size.
type BasicProvider struct{}

func (BasicProvider) Resolve(spec FontSpec) (font.Face, float64) {
	f := basicfont.Face7x13
	h := float64(f.Metrics().Height.Round())
	if spec.Size <= 0 || h == 0 {
		return f, 1
	}
	return f, spec.Size / h
}

// Line is a single laid out line.
type Line struct {
	Text  string
	Width float64
}

// TextBox is the result of laying out text into a box width.
type TextBox struct {
	Lines  []Line
	Width  float64
	Height float64
}

// Text joins the laid out lines with newlines.
func (b TextBox) Text() string {
	parts := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// Layouter performs line-breaking and measurement.
type Layouter interface {
	Layout(text string, spec FontSpec, maxWidth float64) TextBox
}

// WordWrapLayouter breaks on spaces and hard newlines. Words wider than the
// box are split by characters. It does not perform shaping or hyphenation.
type WordWrapLayouter struct{ Provider Provider }

func NewWordWrap(provider Provider) *WordWrapLayouter { return &WordWrapLayouter{Provider: provider} }

// Layout wraps text to maxWidth. A maxWidth <= 0 disables wrapping.
func (l *WordWrapLayouter) Layout(text string, spec FontSpec, maxWidth float64) TextBox {
	if l.Provider == nil {
		l.Provider = BasicProvider{}
	}
	face, scale := l.Provider.Resolve(spec)
	drawer := &font.Drawer{Face: face}
	width := func(s string) float64 { return advance(drawer, s) * scale }

	var box TextBox
	addLine := func(s string) {
		w := width(s)
		box.Lines = append(box.Lines, Line{Text: s, Width: w})
		if w > box.Width {
			box.Width = w
		}
	}
	for _, para := range strings.Split(text, "\n") {
		if maxWidth <= 0 || width(para) <= maxWidth {
			addLine(para)
			continue
		}
		cur := ""
		for _, word := range strings.Split(para, " ") {
			cand := word
			if cur != "" {
				cand = cur + " " + word
			}
			if width(cand) <= maxWidth {
				cur = cand
				continue
			}
			if cur != "" {
				addLine(cur)
				cur = ""
			}
			// word alone exceeds maxWidth: break it by runes
			for width(word) > maxWidth {
				n := fitRunes(word, maxWidth, width)
				addLine(word[:n])
				word = word[n:]
			}
			cur = word
		}
		addLine(cur)
	}
	box.Height = float64(len(box.Lines)) * spec.LineHeightPx()
	return box
}

// fitRunes returns the byte length of the longest prefix of s (at least one
// rune) whose width fits max.
func fitRunes(s string, max float64, width func(string) float64) int {
	n := 0
	for i, r := range s {
		end := i + len(string(r))
		if n > 0 && width(s[:end]) > max {
			break
		}
		n = end
	}
	return n
}

func advance(d *font.Drawer, s string) float64 {
	return float64(d.MeasureString(s) >> 6) // fixed.Int26_6 to px
}

// Measure returns the size of text without wrapping: the widest line and the
// total height of all lines.
func Measure(provider Provider, text string, spec FontSpec) (w, h float64) {
	box := NewWordWrap(provider).Layout(text, spec, 0)
	return box.Width, box.Height
}

// Wrap returns text with newlines inserted so no line exceeds maxWidth.
func Wrap(provider Provider, text string, spec FontSpec, maxWidth float64) string {
	return NewWordWrap(provider).Layout(text, spec, maxWidth).Text()
}
