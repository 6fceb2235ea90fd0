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
	"github.com/storiny/web-sub007/internal/linear"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/selection"
)

// DeleteSelected tombstones the selection, or the selected points while a
// linear layer is being edited.
var DeleteSelected = &Action{
	Name:       "deleteSelectedLayers",
	TrackEvent: "layer",
	Chords:     []domain.KeyEvent{key(domain.KeyBackspace), key(domain.KeyDelete)},
	KeyTest: func(_ domain.KeyEvent, app *domain.AppState, _ *scene.Store) bool {
		return app.EditingTextLayerID == ""
	},
	Predicate: func(s *scene.Store, app *domain.AppState, env *Env) bool {
		if sess := app.EditingLinearLayer; sess != nil {
			return len(sess.SelectedPointsIndices) > 0
		}
		return hasSelection(s, app, env)
	},
	Perform: func(s *scene.Store, app *domain.AppState, _ any, env *Env) Result {
		if sess := app.EditingLinearLayer; sess != nil {
			if len(sess.SelectedPointsIndices) == 0 {
				return Result{}
			}
			return changed(s, env.Linear.DeletePoints(s, app), true)
		}
		return deleteLayers(s, app, env)
	},
}

func deleteLayers(s *scene.Store, app *domain.AppState, env *Env) Result {
	targets := selectedUnlocked(s, app)
	for _, l := range selection.GetSelectedLayers(s.NonDeleted(), app, selection.Options{IncludeLayersInFrames: true}) {
		if l.FrameID != "" && app.SelectedLayerIDs[l.FrameID] && !l.Locked {
			targets = append(targets, l)
		}
	}
	if len(targets) == 0 {
		return Result{}
	}
	ids := make([]string, 0, len(targets))
	seen := map[string]bool{}
	for _, l := range targets {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		ids = append(ids, l.ID)
		s.Mutate(l.ID, scene.SetDeleted(true), scene.WithoutReflow())
		if env != nil && env.Heights != nil {
			env.Heights.Delete(l.ID)
		}
	}
	binding.FixBindingsAfterDeletion(s, ids)
	next := app.Clone()
	next.SelectedLayerIDs = map[string]bool{}
	next.SelectedGroupIDs = map[string]bool{}
	if seen[next.MultiLayerID] {
		next.MultiLayerID = ""
	}
	next.ShowHyperlinkPopup = ""
	next = selection.FixEditingGroupAfterDeletion(s.Layers(), next)
	return changed(s, next, true)
}

// Finalize ends multi-point drawing or the linear editing session.
var Finalize = &Action{
	Name:   "finalize",
	Chords: []domain.KeyEvent{key(domain.KeyEscape), key(domain.KeyEnter)},
	KeyTest: func(_ domain.KeyEvent, app *domain.AppState, _ *scene.Store) bool {
		return app.EditingLinearLayer != nil || app.MultiLayerID != ""
	},
	Predicate: func(_ *scene.Store, app *domain.AppState, _ *Env) bool {
		return app.EditingLinearLayer != nil || app.MultiLayerID != ""
	},
	Perform: func(s *scene.Store, app *domain.AppState, _ any, env *Env) Result {
		if app.EditingLinearLayer != nil {
			return changed(s, env.Linear.Exit(s, app), true)
		}
		return finalizeMulti(s, app, env)
	},
}

// finalizeMulti drops the point trailing the cursor, tombstones layers left
// with fewer than two points and commits the endpoint bindings.
func finalizeMulti(s *scene.Store, app *domain.AppState, env *Env) Result {
	next := app.Clone()
	next.MultiLayerID = ""
	next.SuggestedBindings = nil
	if !app.ActiveTool.Locked {
		next.ActiveTool = domain.Tool{Type: domain.ToolSelection}
	}
	l := s.GetLive(app.MultiLayerID)
	if l == nil {
		return Result{AppState: next}
	}
	if n := len(l.Points); n > linear.MinPoints && l.LastCommittedPoint != nil && l.Points[n-1] != *l.LastCommittedPoint {
		s.Mutate(l.ID, func(x *domain.Layer) {
			x.Points = x.Points[:len(x.Points)-1]
			scene.SyncLinearDims(x)
		})
	}
	if len(l.Points) < linear.MinPoints {
		s.Mutate(l.ID, scene.SetDeleted(true))
		binding.FixBindingsAfterDeletion(s, []string{l.ID})
		delete(next.SelectedLayerIDs, l.ID)
		return changed(s, next, true)
	}
	sess := env.Linear.Enter(s, next, l.ID)
	if sess.EditingLinearLayer != nil {
		sess.EditingLinearLayer.StartBindingLayer = ""
		sess.EditingLinearLayer.EndBindingLayer = ""
	}
	next = env.Linear.Exit(s, sess)
	next.SelectedLayerIDs = domain.IDSet(l.ID)
	return changed(s, next, true)
}

// ToggleLinearEditor enters or leaves the point editor for the selected
// linear layer.
var ToggleLinearEditor = &Action{
	Name:       "toggleLinearEditor",
	TrackEvent: "layer",
	Chords:     []domain.KeyEvent{ctrl(domain.KeyEnter)},
	Predicate: func(s *scene.Store, app *domain.AppState, _ *Env) bool {
		return app.EditingLinearLayer != nil || linear.Eligible(s, app) != nil
	},
	Perform: func(s *scene.Store, app *domain.AppState, _ any, env *Env) Result {
		exiting := app.EditingLinearLayer != nil
		return changed(s, env.Linear.Toggle(s, app), exiting)
	},
	Checked: func(app *domain.AppState) bool { return app.EditingLinearLayer != nil },
}

// SelectAll selects every unlocked layer that is not bound inside a container.
var SelectAll = &Action{
	Name:       "selectAll",
	TrackEvent: "canvas",
	Chords:     []domain.KeyEvent{ctrl("a")},
	Perform: func(s *scene.Store, app *domain.AppState, _ any, env *Env) Result {
		base := app
		if app.EditingLinearLayer != nil {
			base = env.Linear.Exit(s, app)
		}
		next := base.Clone()
		next.SelectedLayerIDs = map[string]bool{}
		next.EditingGroupID = ""
		next.MultiLayerID = ""
		for _, l := range s.NonDeleted() {
			if l.Locked || l.ContainerID != "" || l.Type == domain.TypeSelection {
				continue
			}
			next.SelectedLayerIDs[l.ID] = true
		}
		next = selection.SelectGroupsForSelectedLayers(s.NonDeleted(), next)
		if base != app {
			return changed(s, next, true)
		}
		return Result{AppState: next}
	},
}

// Hyperlink opens the link editor for a single selected layer. A string
// value sets the link directly.
var Hyperlink = &Action{
	Name:       "hyperlink",
	TrackEvent: "hyperlink",
	Chords:     []domain.KeyEvent{ctrl("k")},
	Predicate: func(s *scene.Store, app *domain.AppState, _ *Env) bool {
		return len(selection.GetSelectedLayers(s.NonDeleted(), app, selection.Options{})) == 1
	},
	Perform: func(s *scene.Store, app *domain.AppState, value any, _ *Env) Result {
		sel := selection.GetSelectedLayers(s.NonDeleted(), app, selection.Options{})
		if len(sel) != 1 {
			return Result{}
		}
		next := app.Clone()
		if link, ok := value.(string); ok {
			s.Mutate(sel[0].ID, func(l *domain.Layer) { l.Link = link })
			next.ShowHyperlinkPopup = domain.HyperlinkInfo
			return changed(s, next, true)
		}
		if app.ShowHyperlinkPopup == domain.HyperlinkEditor {
			next.ShowHyperlinkPopup = ""
		} else {
			next.ShowHyperlinkPopup = domain.HyperlinkEditor
		}
		return Result{AppState: next}
	},
	Checked: func(app *domain.AppState) bool { return app.ShowHyperlinkPopup == domain.HyperlinkEditor },
}

// toolToggle switches to t, or back to the previous tool when t is active.
func toolToggle(name string, t domain.ToolType, chord string) *Action {
	return &Action{
		Name:       name,
		TrackEvent: "toolbar",
		Chords:     []domain.KeyEvent{key(chord)},
		Perform: func(s *scene.Store, app *domain.AppState, _ any, env *Env) Result {
			base := app
			if app.EditingLinearLayer != nil {
				base = env.Linear.Exit(s, app)
			}
			next := base.Clone()
			if app.ActiveTool.Type == t {
				prev := app.ActiveTool.LastActiveTool
				if prev == "" || prev == t {
					prev = domain.ToolSelection
				}
				next.ActiveTool = domain.Tool{Type: prev}
			} else {
				next.ActiveTool = domain.Tool{Type: t, LastActiveTool: app.ActiveTool.Type}
				next.SelectedLayerIDs = map[string]bool{}
				next.SelectedGroupIDs = map[string]bool{}
			}
			if base != app {
				return changed(s, next, true)
			}
			return Result{AppState: next}
		},
		Checked: func(app *domain.AppState) bool { return app.ActiveTool.Type == t },
	}
}

var (
	Eraser = toolToggle("eraser", domain.ToolEraser, "e")
	Hand   = toolToggle("hand", domain.ToolHand, "h")
)
