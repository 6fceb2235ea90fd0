/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package actions

import (
	"strings"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/selection"
)

func key(k string) domain.KeyEvent       { return domain.KeyEvent{Key: k} }
func ctrl(k string) domain.KeyEvent      { return domain.KeyEvent{Key: k, Ctrl: true} }
func shift(k string) domain.KeyEvent     { return domain.KeyEvent{Key: strings.ToUpper(k), Shift: true} }
func ctrlShift(k string) domain.KeyEvent { return domain.KeyEvent{Key: k, Ctrl: true, Shift: true} }
func ctrlAlt(k string) domain.KeyEvent   { return domain.KeyEvent{Key: k, Ctrl: true, Alt: true} }

// changed returns the fork's layers and app as a result.
func changed(s *scene.Store, app *domain.AppState, commit bool) Result {
	return Result{Layers: s.Layers(), AppState: app, CommitToHistory: commit}
}

// selected returns the selection including bound text.
func selected(s *scene.Store, app *domain.AppState) []*domain.Layer {
	return selection.GetSelectedLayers(s.NonDeleted(), app, selection.Options{IncludeBoundTextLayer: true})
}

// selectedUnlocked drops locked layers and the bound text of locked containers.
func selectedUnlocked(s *scene.Store, app *domain.AppState) []*domain.Layer {
	var out []*domain.Layer
	for _, l := range selected(s, app) {
		if l.Locked {
			continue
		}
		if c := s.Get(l.ContainerID); c != nil && c.Locked {
			continue
		}
		out = append(out, l)
	}
	return out
}

func hasSelection(s *scene.Store, app *domain.AppState, _ *Env) bool {
	return len(selectedUnlocked(s, app)) > 0
}

func idSet(layers []*domain.Layer) map[string]bool {
	out := make(map[string]bool, len(layers))
	for _, l := range layers {
		out[l.ID] = true
	}
	return out
}

// withError surfaces a failure without touching the scene.
func withError(app *domain.AppState, msg string) Result {
	next := app.Clone()
	next.ErrorMessage = msg
	return Result{AppState: next}
}

// withToast shows a transient notice.
func withToast(app *domain.AppState, msg string) *domain.AppState {
	next := app.Clone()
	next.Toast = &domain.Toast{Message: msg}
	return next
}

// selectOnly selects layers (their bound text stays implicit) and expands
// the selection to their groups.
func selectOnly(s *scene.Store, app *domain.AppState, layers []*domain.Layer) *domain.AppState {
	next := app.Clone()
	next.SelectedLayerIDs = map[string]bool{}
	next.SelectedGroupIDs = map[string]bool{}
	for _, l := range layers {
		if l.ContainerID != "" && s.GetLive(l.ContainerID) != nil {
			continue
		}
		next.SelectedLayerIDs[l.ID] = true
	}
	return selection.SelectGroupsForSelectedLayers(s.NonDeleted(), next)
}
