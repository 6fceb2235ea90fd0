/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"slices"

	"github.com/storiny/web-sub007/internal/domain"
)

// LayersInGroup returns the live layers that carry groupID.
func LayersInGroup(layers []*domain.Layer, groupID string) []*domain.Layer {
	var out []*domain.Layer
	for _, l := range layers {
		if !l.IsDeleted && slices.Contains(l.GroupIDs, groupID) {
			out = append(out, l)
		}
	}
	return out
}

// GroupFor returns the group selecting l implies: its innermost group, or
// "" when l sits inside the group being edited or in no group at all.
func GroupFor(l *domain.Layer, editingGroupID string) string {
	if len(l.GroupIDs) == 0 {
		return ""
	}
	if editingGroupID != "" && slices.Contains(l.GroupIDs, editingGroupID) {
		return ""
	}
	return l.GroupIDs[0]
}

// SelectGroupsForSelectedLayers expands the selection to whole groups and
// records the selected group ids. The input state is not modified.
func SelectGroupsForSelectedLayers(layers []*domain.Layer, app *domain.AppState) *domain.AppState {
	next := app.Clone()
	next.SelectedGroupIDs = map[string]bool{}
	for _, l := range GetSelectedLayers(layers, app, Options{}) {
		if g := GroupFor(l, app.EditingGroupID); g != "" {
			next.SelectedGroupIDs[g] = true
		}
	}
	for g := range next.SelectedGroupIDs {
		for _, m := range LayersInGroup(layers, g) {
			next.SelectedLayerIDs[m.ID] = true
		}
	}
	return next
}

// IsSelectedViaGroup reports whether l is selected through one of its groups.
func IsSelectedViaGroup(l *domain.Layer, app *domain.AppState) bool {
	for _, g := range l.GroupIDs {
		if app.SelectedGroupIDs[g] {
			return true
		}
	}
	return false
}

// FixEditingGroupAfterDeletion moves the edit-group scope out of a group that
// no longer has live members: to its parent group when that one still has
// members, otherwise the scope is cleared. Returns app unchanged when the
// scope is still valid.
func FixEditingGroupAfterDeletion(layers []*domain.Layer, app *domain.AppState) *domain.AppState {
	g := app.EditingGroupID
	if g == "" || len(LayersInGroup(layers, g)) > 0 {
		return app
	}
	next := app.Clone()
	next.EditingGroupID = ""
	for _, l := range layers {
		i := slices.Index(l.GroupIDs, g)
		if i < 0 || i+1 >= len(l.GroupIDs) {
			continue
		}
		parent := l.GroupIDs[i+1]
		if len(LayersInGroup(layers, parent)) > 0 {
			next.EditingGroupID = parent
			break
		}
	}
	return next
}

// AddToGroup returns groupIDs with newGroupID inserted directly outside of
// editingGroupID, or appended as the outermost group.
func AddToGroup(groupIDs []string, newGroupID, editingGroupID string) []string {
	out := append(make([]string, 0, len(groupIDs)+1), groupIDs...)
	if i := slices.Index(out, editingGroupID); editingGroupID != "" && i >= 0 {
		return slices.Insert(out, i, newGroupID)
	}
	return append(out, newGroupID)
}

// RemoveFromGroups drops the given groups from groupIDs.
func RemoveFromGroups(groupIDs []string, drop map[string]bool) []string {
	out := make([]string, 0, len(groupIDs))
	for _, g := range groupIDs {
		if !drop[g] {
			out = append(out, g)
		}
	}
	return out
}
