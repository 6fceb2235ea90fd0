/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"math"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/textlayout"
	"github.com/storiny/web-sub007/internal/vector"
)

// BoundTextPadding is the gap kept between a container outline and its text.
const BoundTextPadding = 5

// BoundTextMaxWidth is the widest line a container can hold.
func BoundTextMaxWidth(c *domain.Layer) float64 {
	w := math.Abs(c.Width)
	switch c.Type {
	case domain.TypeEllipse:
		return math.Round(w/2*math.Sqrt2) - 2*BoundTextPadding
	case domain.TypeDiamond:
		return math.Round(w/2) - 2*BoundTextPadding
	}
	return w - 2*BoundTextPadding
}

// BoundTextMaxHeight is the tallest text a container can hold.
func BoundTextMaxHeight(c *domain.Layer) float64 {
	h := math.Abs(c.Height)
	switch c.Type {
	case domain.TypeEllipse:
		return math.Round(h/2*math.Sqrt2) - 2*BoundTextPadding
	case domain.TypeDiamond:
		return math.Round(h/2) - 2*BoundTextPadding
	}
	return h - 2*BoundTextPadding
}

// ContainerDimForText is the container extent needed to hold a text extent.
func ContainerDimForText(dim float64, t domain.LayerType) float64 {
	pad := 2.0 * BoundTextPadding
	switch t {
	case domain.TypeEllipse:
		return math.Round((dim + pad) / math.Sqrt2 * 2)
	case domain.TypeDiamond:
		return 2 * (dim + pad)
	}
	return dim + pad
}

// RedrawBoundText rewraps the text bound to containerID, grows the container
// when the text no longer fits and positions the text by its alignment.
func (s *Store) RedrawBoundText(containerID string) bool {
	c := s.GetLive(containerID)
	if c == nil || !c.IsTextContainer() {
		return false
	}
	t := s.GetLive(c.BoundTextID())
	if t == nil {
		return false
	}
	src := t.OriginalText
	if src == "" {
		src = t.Text
	}
	spec := textlayout.FontSpec{Family: t.FontFamily, Size: t.FontSize, LineHeight: t.LineHeight}
	box := textlayout.NewWordWrap(s.text).Layout(src, spec, math.Max(BoundTextMaxWidth(c), 1))

	if box.Height > BoundTextMaxHeight(c) {
		h := ContainerDimForText(box.Height, c.Type)
		s.Mutate(c.ID, func(l *domain.Layer) { l.Height = h }, WithoutReflow())
	}
	r := vector.R(c.X, c.Y, c.Width, c.Height).Normalize()
	maxW, maxH := BoundTextMaxWidth(c), BoundTextMaxHeight(c)

	var x, y float64
	switch t.TextAlign {
	case domain.AlignLeft:
		x = r.X + (r.W-maxW)/2
	case domain.AlignRight:
		x = r.X + (r.W+maxW)/2 - box.Width
	default:
		x = r.X + (r.W-box.Width)/2
	}
	switch t.VerticalAlign {
	case domain.VAlignTop:
		y = r.Y + (r.H-maxH)/2
	case domain.VAlignBottom:
		y = r.Y + (r.H+maxH)/2 - box.Height
	default:
		y = r.Y + (r.H-box.Height)/2
	}
	wrapped := box.Text()
	s.Mutate(t.ID, func(l *domain.Layer) {
		l.Text = wrapped
		l.OriginalText = src
		l.Width = box.Width
		l.Height = box.Height
		l.X = x
		l.Y = y
		l.Angle = c.Angle
	}, WithoutReflow())
	return true
}
