/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package actions

import (
	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/vector"
	"github.com/storiny/web-sub007/internal/viewport"
)

// zoomTo builds a zoom action. A vector.Pt value is the screen anchor that
// stays fixed; the default anchor is the viewport origin.
func zoomTo(name string, chords []domain.KeyEvent, next func(z float64) float64) *Action {
	return &Action{
		Name:       name,
		TrackEvent: "canvas",
		Chords:     chords,
		Perform: func(_ *scene.Store, app *domain.AppState, value any, _ *Env) Result {
			anchor, _ := value.(vector.Pt)
			v := viewport.FromAppState(app)
			z := next(v.Zoom)
			if z == v.Zoom {
				return Result{}
			}
			return Result{AppState: viewport.ZoomAt(v, z, anchor).ApplyTo(app)}
		},
	}
}

var (
	ZoomIn = zoomTo("zoomIn", []domain.KeyEvent{ctrl(domain.KeyEqual), ctrl(domain.KeyPlus), ctrlShift(domain.KeyPlus)},
		func(z float64) float64 { return viewport.Step(z, 1) })
	ZoomOut = zoomTo("zoomOut", []domain.KeyEvent{ctrl(domain.KeyMinus)},
		func(z float64) float64 { return viewport.Step(z, -1) })
	ResetZoom = zoomTo("resetZoom", []domain.KeyEvent{ctrl(domain.KeyZero)},
		func(float64) float64 { return 1 })
)

// Undo and Redo restore history checkpoints. They never create one.
var (
	Undo = &Action{
		Name:       "undo",
		TrackEvent: "history",
		Chords:     []domain.KeyEvent{ctrl("z")},
		Predicate: func(_ *scene.Store, _ *domain.AppState, env *Env) bool {
			return env != nil && env.History != nil && env.History.CanUndo()
		},
		Perform: func(_ *scene.Store, app *domain.AppState, _ any, env *Env) Result {
			layers, next, ok := env.History.Undo(app)
			if !ok {
				return Result{}
			}
			return Result{Layers: layers, AppState: next}
		},
	}
	Redo = &Action{
		Name:       "redo",
		TrackEvent: "history",
		Chords:     []domain.KeyEvent{ctrlShift("z"), ctrl("y")},
		Predicate: func(_ *scene.Store, _ *domain.AppState, env *Env) bool {
			return env != nil && env.History != nil && env.History.CanRedo()
		},
		Perform: func(_ *scene.Store, app *domain.AppState, _ any, env *Env) Result {
			layers, next, ok := env.History.Redo(app)
			if !ok {
				return Result{}
			}
			return Result{Layers: layers, AppState: next}
		},
	}
)
