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

func bindPair(s *scene.Store, app *domain.AppState) (string, string, bool) {
	c, t, ok := binding.PairFromSelection(selection.GetSelectedLayers(s.NonDeleted(), app, selection.Options{}))
	if !ok || !binding.CanBindText(s, c, t) {
		return "", "", false
	}
	return c, t, true
}

// BindText binds a selected text layer into a selected container.
var BindText = &Action{
	Name:       "bindText",
	TrackEvent: "layer",
	Predicate: func(s *scene.Store, app *domain.AppState, _ *Env) bool {
		_, _, ok := bindPair(s, app)
		return ok
	},
	Perform: func(s *scene.Store, app *domain.AppState, _ any, env *Env) Result {
		c, t, ok := bindPair(s, app)
		if !ok || !binding.BindText(s, c, t, env.Heights) {
			return Result{}
		}
		next := app.Clone()
		next.SelectedLayerIDs = domain.IDSet(c)
		return changed(s, next, true)
	},
}

func boundContainers(s *scene.Store, app *domain.AppState) []*domain.Layer {
	var out []*domain.Layer
	for _, l := range selection.GetSelectedLayers(s.NonDeleted(), app, selection.Options{}) {
		if l.IsTextContainer() && !l.Locked && s.GetLive(l.BoundTextID()) != nil {
			out = append(out, l)
		}
	}
	return out
}

// UnbindText releases the bound text of the selected containers.
var UnbindText = &Action{
	Name:       "unbindText",
	TrackEvent: "layer",
	Predicate: func(s *scene.Store, app *domain.AppState, _ *Env) bool {
		return len(boundContainers(s, app)) > 0
	},
	Perform: func(s *scene.Store, app *domain.AppState, _ any, env *Env) Result {
		containers := boundContainers(s, app)
		if len(containers) == 0 {
			return Result{}
		}
		next := app.Clone()
		for _, c := range containers {
			textID := c.BoundTextID()
			if binding.UnbindText(s, c.ID, env.Heights) {
				next.SelectedLayerIDs[textID] = true
			}
		}
		return changed(s, next, true)
	},
}
