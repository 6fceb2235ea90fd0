/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"sort"

	"github.com/storiny/web-sub007/internal/domain"
)

// Relation kinds recorded by the index.
type Relation uint8

const (
	RelContainer Relation = iota // text -> container
	RelStartBinding
	RelEndBinding
	RelFrame // child -> frame
)

// Ref is one weak reference held by a dependent layer.
type Ref struct {
	From string
	Kind Relation
}

// RelationIndex maps a layer id to the layers referencing it through
// containerId, startBinding, endBinding or frameId. The Store keeps it in
// step with every insert, mutation and replacement.
type RelationIndex struct {
	deps map[string]map[Ref]struct{}
}

func newRelationIndex() *RelationIndex {
	return &RelationIndex{deps: map[string]map[Ref]struct{}{}}
}

// Dependents returns the references pointing at id, sorted by layer id.
func (ix *RelationIndex) Dependents(id string) []Ref {
	set := ix.deps[id]
	out := make([]Ref, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// DependentIDs returns the distinct ids of layers referencing id.
func (ix *RelationIndex) DependentIDs(id string) []string {
	refs := ix.Dependents(id)
	out := make([]string, 0, len(refs))
	for i, r := range refs {
		if i > 0 && refs[i-1].From == r.From {
			continue
		}
		out = append(out, r.From)
	}
	return out
}

func (ix *RelationIndex) rebuild(layers []*domain.Layer) {
	ix.deps = map[string]map[Ref]struct{}{}
	for _, l := range layers {
		ix.add(l)
	}
}

func (ix *RelationIndex) add(l *domain.Layer) {
	forEachRef(l, func(target string, kind Relation) {
		set := ix.deps[target]
		if set == nil {
			set = map[Ref]struct{}{}
			ix.deps[target] = set
		}
		set[Ref{From: l.ID, Kind: kind}] = struct{}{}
	})
}

func (ix *RelationIndex) remove(l *domain.Layer) {
	forEachRef(l, func(target string, kind Relation) {
		set := ix.deps[target]
		delete(set, Ref{From: l.ID, Kind: kind})
		if len(set) == 0 {
			delete(ix.deps, target)
		}
	})
}

func (ix *RelationIndex) update(before, after *domain.Layer) {
	ix.remove(before)
	ix.add(after)
}

func forEachRef(l *domain.Layer, fn func(target string, kind Relation)) {
	if l.ContainerID != "" {
		fn(l.ContainerID, RelContainer)
	}
	if l.StartBinding != nil && l.StartBinding.LayerID != "" {
		fn(l.StartBinding.LayerID, RelStartBinding)
	}
	if l.EndBinding != nil && l.EndBinding.LayerID != "" {
		fn(l.EndBinding.LayerID, RelEndBinding)
	}
	if l.FrameID != "" {
		fn(l.FrameID, RelFrame)
	}
}
