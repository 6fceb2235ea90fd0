/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package binding keeps text bound inside containers and linear endpoints
// bound to shapes. Every function takes the scene Store and edits it through
// Store.Mutate so versions and the relation index stay in step.
package binding

import (
	"sync"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/textlayout"
)

// CacheEntry is what binding a text records about its container.
type CacheEntry struct {
	Height        float64
	TextAlign     domain.TextAlign
	VerticalAlign domain.VerticalAlign
}

// HeightCache remembers container heights at bind time so unbinding can
// restore them after the container grew to fit its text. One cache lives per
// editor session. It is safe for concurrent use.
type HeightCache struct {
	mu sync.Mutex
	m  map[string]CacheEntry
}

func NewHeightCache() *HeightCache { return &HeightCache{m: map[string]CacheEntry{}} }

func (c *HeightCache) Set(containerID string, e CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[containerID] = e
}

func (c *HeightCache) Get(containerID string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[containerID]
	return e, ok
}

func (c *HeightCache) Delete(containerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, containerID)
}

// CanBindText reports whether the pair can be bound: a live text container
// without bound text and a free-standing live text layer.
func CanBindText(s *scene.Store, containerID, textID string) bool {
	c := s.GetLive(containerID)
	t := s.GetLive(textID)
	if c == nil || t == nil || c.Locked || t.Locked {
		return false
	}
	if !c.IsTextContainer() || t.Type != domain.TypeText {
		return false
	}
	return c.BoundTextID() == "" && t.ContainerID == ""
}

// PairFromSelection picks the container and text out of a two-layer selection.
func PairFromSelection(selected []*domain.Layer) (containerID, textID string, ok bool) {
	if len(selected) != 2 {
		return "", "", false
	}
	a, b := selected[0], selected[1]
	if a.Type == domain.TypeText {
		a, b = b, a
	}
	if b.Type != domain.TypeText || !a.IsTextContainer() {
		return "", "", false
	}
	return a.ID, b.ID, true
}

// BindText binds textID into containerID. The container height and the
// text alignment are cached so UnbindText can restore them. Returns false
// without changes when CanBindText rejects the pair.
func BindText(s *scene.Store, containerID, textID string, cache *HeightCache) bool {
	if !CanBindText(s, containerID, textID) {
		return false
	}
	c := s.Get(containerID)
	t := s.Get(textID)
	cache.Set(containerID, CacheEntry{Height: c.Height, TextAlign: t.TextAlign, VerticalAlign: t.VerticalAlign})

	s.Mutate(textID, func(l *domain.Layer) {
		l.ContainerID = containerID
		l.TextAlign = domain.AlignCenter
		l.VerticalAlign = domain.VAlignMiddle
		if l.OriginalText == "" {
			l.OriginalText = l.Text
		}
		l.GroupIDs = append(make([]string, 0, len(c.GroupIDs)), c.GroupIDs...)
		l.FrameID = c.FrameID
	})
	s.Mutate(containerID, func(l *domain.Layer) {
		l.BoundLayers = append(l.BoundLayers, domain.BoundLayer{ID: textID, Type: domain.TypeText})
	}, scene.WithoutReflow())
	s.RedrawBoundText(containerID)
	EnsureTextAfterContainer(s, containerID)
	return true
}

// UnbindText releases the text bound to containerID, restoring the text to
// its unwrapped size and the container to its cached height.
func UnbindText(s *scene.Store, containerID string, cache *HeightCache) bool {
	c := s.GetLive(containerID)
	if c == nil {
		return false
	}
	textID := c.BoundTextID()
	t := s.Get(textID)
	if t == nil {
		return false
	}
	entry, cached := cache.Get(containerID)
	cache.Delete(containerID)

	src := t.OriginalText
	if src == "" {
		src = t.Text
	}
	w, h := textlayout.Measure(s.TextProvider(), src, textlayout.FontSpec{Family: t.FontFamily, Size: t.FontSize, LineHeight: t.LineHeight})
	s.Mutate(textID, func(l *domain.Layer) {
		l.ContainerID = ""
		l.Text = src
		l.Width = w
		l.Height = h
		if cached {
			l.TextAlign = entry.TextAlign
			l.VerticalAlign = entry.VerticalAlign
		} else {
			l.TextAlign = domain.AlignLeft
			l.VerticalAlign = domain.VAlignTop
		}
	})
	s.Mutate(containerID, func(l *domain.Layer) {
		l.BoundLayers = removeBound(l.BoundLayers, textID)
		if cached {
			l.Height = entry.Height
		}
	}, scene.WithoutReflow())
	return true
}

// RedrawBoundText reflows the bound text of a container after a resize.
func RedrawBoundText(s *scene.Store, containerID string) bool { return s.RedrawBoundText(containerID) }

// EnsureTextAfterContainer restores the z-order invariant for one container:
// its bound text sits directly above it. When the text is already above the
// container the container is pushed up beneath the text, otherwise the text
// is moved up to sit above the container.
func EnsureTextAfterContainer(s *scene.Store, containerID string) {
	c := s.Get(containerID)
	if c == nil {
		return
	}
	textID := c.BoundTextID()
	ci, ti := s.IndexOf(containerID), s.IndexOf(textID)
	if ci < 0 || ti < 0 || ti == ci+1 {
		return
	}
	layers := s.Layers()
	t := layers[ti]
	if ti > ci {
		// container moves up to sit just below the text
		layers = append(layers[:ci], layers[ci+1:]...)
		ti--
		layers = insertAt(layers, ti, c)
	} else {
		layers = append(layers[:ti], layers[ti+1:]...)
		ci--
		layers = insertAt(layers, ci+1, t)
	}
	s.ReplaceAll(layers)
}

// FixTextOrder applies EnsureTextAfterContainer to every container.
func FixTextOrder(s *scene.Store) {
	for _, l := range s.Layers() {
		if l.IsTextContainer() && l.BoundTextID() != "" {
			EnsureTextAfterContainer(s, l.ID)
		}
	}
}

func insertAt(layers []*domain.Layer, i int, l *domain.Layer) []*domain.Layer {
	layers = append(layers, nil)
	copy(layers[i+1:], layers[i:])
	layers[i] = l
	return layers
}

func removeBound(list []domain.BoundLayer, id string) []domain.BoundLayer {
	out := list[:0:0]
	for _, b := range list {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
