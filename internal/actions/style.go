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
	"github.com/storiny/web-sub007/internal/selection"
)

// CopyStyles remembers the style of the first selected layer. Font
// attributes come from its bound text when it has one.
var CopyStyles = &Action{
	Name:       "copyStyles",
	TrackEvent: "layer",
	Chords:     []domain.KeyEvent{ctrlAlt("c")},
	Predicate: func(s *scene.Store, app *domain.AppState, _ *Env) bool {
		return len(selection.GetSelectedLayers(s.NonDeleted(), app, selection.Options{})) > 0
	},
	Perform: func(s *scene.Store, app *domain.AppState, _ any, env *Env) Result {
		sel := selection.GetSelectedLayers(s.NonDeleted(), app, selection.Options{})
		if len(sel) == 0 {
			return Result{}
		}
		st := sel[0].Style()
		if t := s.GetLive(sel[0].BoundTextID()); t != nil {
			st.FontSize = t.FontSize
			st.FontFamily = t.FontFamily
			st.TextAlign = t.TextAlign
			st.VerticalAlign = t.VerticalAlign
		}
		env.Styles.Set(st)
		return Result{AppState: withToast(app, "Copied styles.")}
	},
}

// PasteStyles applies the copied style to the selection, bound text included.
var PasteStyles = &Action{
	Name:       "pasteStyles",
	TrackEvent: "layer",
	Chords:     []domain.KeyEvent{ctrlAlt("v")},
	Predicate: func(s *scene.Store, app *domain.AppState, env *Env) bool {
		if env == nil || env.Styles == nil {
			return false
		}
		_, ok := env.Styles.Get()
		return ok && hasSelection(s, app, env)
	},
	Perform: func(s *scene.Store, app *domain.AppState, _ any, env *Env) Result {
		st, ok := env.Styles.Get()
		if !ok {
			return Result{}
		}
		targets := selectedUnlocked(s, app)
		if len(targets) == 0 {
			return Result{}
		}
		for _, l := range targets {
			s.Mutate(l.ID, scene.ApplyStyle(st), scene.WithoutReflow())
		}
		for _, l := range targets {
			if l.IsTextContainer() && l.BoundTextID() != "" {
				s.RedrawBoundText(l.ID)
			}
		}
		return changed(s, app, true)
	},
}
