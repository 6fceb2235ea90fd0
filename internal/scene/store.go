/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene owns the layer records of one document. Layers are kept in
// z-order; callers hold ids and go through the Store to read or change them.
// A Store is not safe for concurrent use; the editor serializes access.
package scene

import (
	"time"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/textlayout"
)

// Store is the ordered layer collection with a cached non-deleted view and a
// relation index over weak references.
type Store struct {
	layers     []*domain.Layer
	byID       map[string]*domain.Layer
	nonDeleted []*domain.Layer
	rel        *RelationIndex
	nonce      uint64

	text textlayout.Provider
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTextProvider sets the font provider used for bound text reflow.
func WithTextProvider(p textlayout.Provider) Option { return func(s *Store) { s.text = p } }

// WithClock overrides the time source used for Updated stamps.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func NewStore(opts ...Option) *Store {
	s := &Store{byID: map[string]*domain.Layer{}, rel: newRelationIndex(), text: textlayout.BasicProvider{}, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TextProvider returns the font provider used for measurement.
func (s *Store) TextProvider() textlayout.Provider { return s.text }

// ReplaceAll takes ownership of layers as the new scene content.
func (s *Store) ReplaceAll(layers []*domain.Layer) {
	s.layers = make([]*domain.Layer, 0, len(layers))
	s.byID = make(map[string]*domain.Layer, len(layers))
	for _, l := range layers {
		if l == nil {
			continue
		}
		if _, dup := s.byID[l.ID]; dup {
			continue
		}
		s.layers = append(s.layers, l)
		s.byID[l.ID] = l
	}
	s.rel.rebuild(s.layers)
	s.invalidate()
}

// Layers returns all layers including tombstones, in z-order. The slice is a
// copy; the records are shared with the store.
func (s *Store) Layers() []*domain.Layer {
	return append([]*domain.Layer(nil), s.layers...)
}

// NonDeleted returns the cached view without tombstones. Callers must not
// modify the returned slice.
func (s *Store) NonDeleted() []*domain.Layer {
	if s.nonDeleted == nil {
		out := make([]*domain.Layer, 0, len(s.layers))
		for _, l := range s.layers {
			if !l.IsDeleted {
				out = append(out, l)
			}
		}
		s.nonDeleted = out
	}
	return s.nonDeleted
}

// Get returns the layer with id, including tombstones, or nil.
func (s *Store) Get(id string) *domain.Layer {
	if id == "" {
		return nil
	}
	return s.byID[id]
}

// GetLive returns the layer with id unless it is missing or deleted.
func (s *Store) GetLive(id string) *domain.Layer {
	l := s.Get(id)
	if l == nil || l.IsDeleted {
		return nil
	}
	return l
}

// IndexOf returns the z-index of id or -1.
func (s *Store) IndexOf(id string) int {
	for i, l := range s.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Len returns the number of layers including tombstones.
func (s *Store) Len() int { return len(s.layers) }

// Nonce changes whenever the scene content changes.
func (s *Store) Nonce() uint64 { return s.nonce }

// Insert appends l on top of the scene. Layers with a known id are ignored.
func (s *Store) Insert(l *domain.Layer) bool { return s.InsertAt(len(s.layers), l) }

// InsertAt places l at z-index i, clamped to the valid range.
func (s *Store) InsertAt(i int, l *domain.Layer) bool {
	if l == nil || s.byID[l.ID] != nil {
		return false
	}
	if i < 0 {
		i = 0
	}
	if i > len(s.layers) {
		i = len(s.layers)
	}
	s.layers = append(s.layers, nil)
	copy(s.layers[i+1:], s.layers[i:])
	s.layers[i] = l
	s.byID[l.ID] = l
	s.rel.add(l)
	s.invalidate()
	return true
}

// Fork returns an independent deep copy of the store sharing its options.
func (s *Store) Fork() *Store {
	f := &Store{byID: map[string]*domain.Layer{}, rel: newRelationIndex(), text: s.text, now: s.now, nonce: s.nonce}
	f.ReplaceAll(s.Snapshot())
	f.nonce = s.nonce
	return f
}

// Snapshot deep-copies all layers in z-order.
func (s *Store) Snapshot() []*domain.Layer {
	out := make([]*domain.Layer, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.Clone()
	}
	return out
}

// Relations exposes the relation index.
func (s *Store) Relations() *RelationIndex { return s.rel }

func (s *Store) invalidate() {
	s.nonDeleted = nil
	s.nonce++
}
