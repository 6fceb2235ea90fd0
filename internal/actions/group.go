/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package actions

import (
	"github.com/storiny/web-sub007/internal/binding"
	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/selection"
)

// groupable returns the selected layers that group by themselves, i.e.
// without bound text.
func groupable(s *scene.Store, app *domain.AppState) []*domain.Layer {
	var out []*domain.Layer
	for _, l := range selectedUnlocked(s, app) {
		if l.ContainerID == "" {
			out = append(out, l)
		}
	}
	return out
}

// alreadyOneGroup reports whether layers are exactly the members of a
// single group.
func alreadyOneGroup(s *scene.Store, layers []*domain.Layer) bool {
	if len(layers) == 0 || len(layers[0].GroupIDs) == 0 {
		return false
	}
	g := layers[0].GroupIDs[0]
	for _, l := range layers {
		if len(l.GroupIDs) == 0 || l.GroupIDs[0] != g {
			return false
		}
	}
	members := 0
	for _, m := range selection.LayersInGroup(s.NonDeleted(), g) {
		if m.ContainerID == "" {
			members++
		}
	}
	return members == len(layers)
}

// Group puts the selection into a new group nested directly outside the
// group being edited. Members are made contiguous below the topmost one.
var Group = &Action{
	Name:       "group",
	TrackEvent: "layer",
	Chords:     []domain.KeyEvent{ctrl("g")},
	Predicate: func(s *scene.Store, app *domain.AppState, _ *Env) bool {
		sel := groupable(s, app)
		return len(sel) >= 2 && !alreadyOneGroup(s, sel)
	},
	Perform: func(s *scene.Store, app *domain.AppState, _ any, _ *Env) Result {
		sel := groupable(s, app)
		if len(sel) < 2 || alreadyOneGroup(s, sel) {
			return Result{}
		}
		gid := scene.NewID()
		members := selectedUnlocked(s, app)
		for _, l := range members {
			s.Mutate(l.ID, func(x *domain.Layer) {
				x.GroupIDs = selection.AddToGroup(x.GroupIDs, gid, app.EditingGroupID)
			}, scene.WithoutReflow())
		}
		gatherBelowTop(s, idSet(members))
		next := app.Clone()
		next.SelectedGroupIDs = map[string]bool{gid: true}
		next = selection.SelectGroupsForSelectedLayers(s.NonDeleted(), next)
		return changed(s, next, true)
	},
}

// gatherBelowTop moves the layers in ids next to each other, ending at the
// position of the topmost one.
func gatherBelowTop(s *scene.Store, ids map[string]bool) {
	all := s.Layers()
	top := -1
	for i, l := range all {
		if ids[l.ID] {
			top = i
		}
	}
	if top < 0 {
		return
	}
	var before, group, after []*domain.Layer
	for i, l := range all {
		switch {
		case ids[l.ID]:
			group = append(group, l)
		case i < top:
			before = append(before, l)
		default:
			after = append(after, l)
		}
	}
	out := append(append(before, group...), after...)
	s.ReplaceAll(out)
	binding.FixTextOrder(s)
}

// Ungroup dissolves the selected groups.
var Ungroup = &Action{
	Name:       "ungroup",
	TrackEvent: "layer",
	Chords:     []domain.KeyEvent{ctrlShift("g")},
	Predicate: func(_ *scene.Store, app *domain.AppState, _ *Env) bool {
		return len(app.SelectedGroupIDs) > 0
	},
	Perform: func(s *scene.Store, app *domain.AppState, _ any, _ *Env) Result {
		drop := map[string]bool{}
		for g, ok := range app.SelectedGroupIDs {
			if ok {
				drop[g] = true
			}
		}
		if len(drop) == 0 {
			return Result{}
		}
		for _, l := range s.NonDeleted() {
			if !selection.IsSelectedViaGroup(l, app) {
				continue
			}
			s.Mutate(l.ID, func(x *domain.Layer) {
				x.GroupIDs = selection.RemoveFromGroups(x.GroupIDs, drop)
			}, scene.WithoutReflow())
		}
		next := app.Clone()
		next.SelectedGroupIDs = map[string]bool{}
		if drop[next.EditingGroupID] {
			next.EditingGroupID = ""
		}
		next = selection.SelectGroupsForSelectedLayers(s.NonDeleted(), next)
		return changed(s, next, true)
	},
}
