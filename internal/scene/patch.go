/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"math/rand"
	"reflect"
	"time"

	"github.com/storiny/web-sub007/internal/domain"
)

// Patch edits a layer in place. It must keep the layer id.
type Patch func(l *domain.Layer)

type mutateOptions struct {
	skipReflow bool
}

// MutateOption tunes a single Mutate call.
type MutateOption func(*mutateOptions)

// WithoutReflow leaves bound text untouched; used when the caller redraws the
// bound text itself right after.
func WithoutReflow() MutateOption { return func(o *mutateOptions) { o.skipReflow = true } }

// Mutate applies patch to the layer with id in place. When anything changed
// the version is bumped, the relation index is updated and, for containers,
// the bound text is reflowed. An unknown id is a no-op returning false.
func (s *Store) Mutate(id string, patch Patch, opts ...MutateOption) bool {
	l := s.byID[id]
	if l == nil || patch == nil {
		return false
	}
	var o mutateOptions
	for _, fn := range opts {
		fn(&o)
	}
	before := l.Clone()
	patch(l)
	l.ID = before.ID
	if reflect.DeepEqual(before, l) {
		return true
	}
	bumpVersion(l, s.now())
	s.rel.update(before, l)
	s.invalidate()
	if !o.skipReflow && l.IsTextContainer() && l.BoundTextID() != "" && geometryChanged(before, l) {
		s.RedrawBoundText(l.ID)
	}
	return true
}

// NewLayerWith returns a patched copy of l, leaving l untouched. The copy
// keeps the id and carries a bumped version when the patch changed anything.
func NewLayerWith(l *domain.Layer, patch Patch) *domain.Layer {
	c := l.Clone()
	if patch == nil {
		return c
	}
	patch(c)
	c.ID = l.ID
	if !reflect.DeepEqual(l, c) {
		bumpVersion(c, time.Now())
	}
	return c
}

func bumpVersion(l *domain.Layer, now time.Time) {
	l.Version++
	l.VersionNonce = RandomSeed()
	l.Updated = now.UnixMilli()
}

func geometryChanged(a, b *domain.Layer) bool {
	return a.X != b.X || a.Y != b.Y || a.Width != b.Width || a.Height != b.Height ||
		a.Angle != b.Angle || a.IsDeleted != b.IsDeleted || len(a.BoundLayers) != len(b.BoundLayers)
}

// RandomSeed returns a positive seed for a layer's roughness generator.
func RandomSeed() int64 { return rand.Int63n(1<<31-1) + 1 }

// Common patches.

// MoveBy translates a layer.
func MoveBy(dx, dy float64) Patch {
	return func(l *domain.Layer) {
		l.X += dx
		l.Y += dy
	}
}

// SetDeleted sets the tombstone flag.
func SetDeleted(v bool) Patch { return func(l *domain.Layer) { l.IsDeleted = v } }

// SetBounds sets position and size.
func SetBounds(x, y, w, h float64) Patch {
	return func(l *domain.Layer) {
		l.X, l.Y, l.Width, l.Height = x, y, w, h
	}
}

// ApplyStyle copies style attributes onto a layer. Text attributes only apply
// to text layers and arrowheads only to arrows.
func ApplyStyle(st domain.StyleSet) Patch {
	return func(l *domain.Layer) {
		l.StrokeColor = st.StrokeColor
		l.BackgroundColor = st.BackgroundColor
		l.FillStyle = st.FillStyle
		l.StrokeStyle = st.StrokeStyle
		l.StrokeWidth = st.StrokeWidth
		l.Roughness = st.Roughness
		l.Opacity = st.Opacity
		if l.Type == domain.TypeText {
			if st.FontSize > 0 {
				l.FontSize = st.FontSize
			}
			if st.FontFamily > 0 {
				l.FontFamily = st.FontFamily
			}
			if l.ContainerID == "" && st.TextAlign != "" {
				l.TextAlign = st.TextAlign
			}
		}
		if l.Type == domain.TypeArrow {
			l.StartArrowhead = st.StartArrowhead
			l.EndArrowhead = st.EndArrowhead
		}
	}
}
