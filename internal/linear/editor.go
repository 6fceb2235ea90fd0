/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package linear implements the point editing session for lines, arrows and
// freedraw layers. The session lives in AppState.EditingLinearLayer; every
// operation returns the next app state and edits the scene in place.
package linear

import (
	"slices"
	"sort"

	"github.com/storiny/web-sub007/internal/binding"
	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/selection"
	"github.com/storiny/web-sub007/internal/vector"
)

// MinPoints is the smallest point count a linear layer can exist with.
const MinPoints = 2

// Config holds the screen-space distances used by the editor.
type Config struct {
	BindingThreshold float64
	LoopCloseEpsilon float64
}

// Editor runs linear editing sessions.
type Editor struct {
	cfg Config
}

func NewEditor(cfg Config) *Editor {
	if cfg.BindingThreshold <= 0 {
		cfg.BindingThreshold = binding.DefaultThreshold
	}
	if cfg.LoopCloseEpsilon <= 0 {
		cfg.LoopCloseEpsilon = 15
	}
	return &Editor{cfg: cfg}
}

// Eligible returns the single selected linear layer, or nil.
func Eligible(s *scene.Store, app *domain.AppState) *domain.Layer {
	sel := selection.GetSelectedLayers(s.NonDeleted(), app, selection.Options{})
	if len(sel) != 1 || !sel[0].IsLinear() || sel[0].Locked {
		return nil
	}
	return sel[0]
}

// Toggle exits the session when it edits the selected layer, otherwise it
// commits any running session and enters one for the selected layer.
func (e *Editor) Toggle(s *scene.Store, app *domain.AppState) *domain.AppState {
	target := Eligible(s, app)
	if sess := app.EditingLinearLayer; sess != nil {
		next := e.Exit(s, app)
		if target == nil || target.ID == sess.LayerID {
			return next
		}
		return e.Enter(s, next, target.ID)
	}
	if target == nil {
		return app
	}
	return e.Enter(s, app, target.ID)
}

// Enter starts a session on id. Existing endpoint bindings are kept unless
// the endpoints move.
func (e *Editor) Enter(s *scene.Store, app *domain.AppState, id string) *domain.AppState {
	l := s.GetLive(id)
	if l == nil || !l.IsLinear() {
		return app
	}
	next := app.Clone()
	next.EditingLinearLayer = &domain.LinearSession{
		LayerID:           id,
		StartBindingLayer: domain.KeepBinding,
		EndBindingLayer:   domain.KeepBinding,
		PointerDownState:  domain.PointerDownState{LastClickedPoint: -1},
	}
	next.SelectedLayerIDs = domain.IDSet(id)
	next.SelectedGroupIDs = map[string]bool{}
	return next
}

// Exit commits the session: closes loops whose ends meet, writes the
// endpoint bindings and clears the session.
func (e *Editor) Exit(s *scene.Store, app *domain.AppState) *domain.AppState {
	sess := app.EditingLinearLayer
	if sess == nil {
		return app
	}
	next := app.Clone()
	next.EditingLinearLayer = nil
	next.SuggestedBindings = nil
	l := s.GetLive(sess.LayerID)
	if l == nil {
		return next
	}
	e.closeLoop(s, l, app.Zoom)
	if binding.IsBindingLayer(l) {
		start, end := sess.StartBindingLayer, sess.EndBindingLayer
		hs, he := binding.Targets(s, l.ID, binding.Threshold(e.cfg.BindingThreshold, app.Zoom))
		if start != domain.KeepBinding {
			start = hs
		}
		if end != domain.KeepBinding {
			end = he
		}
		binding.BindOrUnbindLinear(s, l.ID, start, end)
	}
	s.Mutate(l.ID, func(x *domain.Layer) { x.LastCommittedPoint = nil })
	return next
}

// closeLoop snaps the last point onto the first when they lie within the
// zoom-scaled epsilon. Arrows never close.
func (e *Editor) closeLoop(s *scene.Store, l *domain.Layer, zoom float64) {
	if l.Type == domain.TypeArrow || len(l.Points) < 3 {
		return
	}
	first, last := l.Points[0], l.Points[len(l.Points)-1]
	eps := binding.Threshold(e.cfg.LoopCloseEpsilon, zoom)
	d := vector.Pt{X: first.X, Y: first.Y}.Dist(vector.Pt{X: last.X, Y: last.Y})
	if d == 0 || d > eps {
		return
	}
	s.Mutate(l.ID, func(x *domain.Layer) {
		x.Points[len(x.Points)-1] = x.Points[0]
		scene.SyncLinearDims(x)
	})
}

// IsLoop reports whether the first and last points coincide.
func IsLoop(l *domain.Layer) bool {
	n := len(l.Points)
	return n >= 3 && l.Points[0] == l.Points[n-1]
}

// SelectPoints replaces the selected point indices.
func SelectPoints(app *domain.AppState, indices []int) *domain.AppState {
	if app.EditingLinearLayer == nil {
		return app
	}
	next := app.Clone()
	next.EditingLinearLayer.SelectedPointsIndices = normalize(indices)
	return next
}

// AddPoint appends the absolute scene point p and selects it.
func (e *Editor) AddPoint(s *scene.Store, app *domain.AppState, p vector.Pt) *domain.AppState {
	l := sessionLayer(s, app)
	if l == nil {
		return app
	}
	rel := toLocal(l, p)
	s.Mutate(l.ID, func(x *domain.Layer) {
		x.Points = append(x.Points, rel)
		x.LastCommittedPoint = &rel
		scene.SyncLinearDims(x)
	})
	next := app.Clone()
	idx := len(l.Points) - 1
	next.EditingLinearLayer.SelectedPointsIndices = []int{idx}
	next.EditingLinearLayer.PointerDownState.LastClickedPoint = idx
	if binding.IsBindingLayer(l) {
		next.EditingLinearLayer.EndBindingLayer = e.hovered(s, l, binding.End, app.Zoom)
		next.SuggestedBindings = binding.SuggestedBindings(s, l.ID, binding.Threshold(e.cfg.BindingThreshold, app.Zoom))
	}
	return next
}

// MovePoints drags the selected points by the scene delta (dx, dy). Moving
// an endpoint replaces the session's binding target for that end with the
// currently hovered bindable; nothing is bound until Exit.
func (e *Editor) MovePoints(s *scene.Store, app *domain.AppState, dx, dy float64) *domain.AppState {
	l := sessionLayer(s, app)
	if l == nil {
		return app
	}
	sel := app.EditingLinearLayer.SelectedPointsIndices
	if len(sel) == 0 {
		return app
	}
	// deltas are applied in the unrotated point space
	d := vector.RotatePoint(vector.Pt{X: dx, Y: dy}, vector.Pt{}, -l.Angle)
	s.Mutate(l.ID, func(x *domain.Layer) {
		for _, i := range sel {
			if i >= 0 && i < len(x.Points) {
				x.Points[i].X += d.X
				x.Points[i].Y += d.Y
			}
		}
		scene.SyncLinearDims(x)
	})
	next := app.Clone()
	next.EditingLinearLayer.IsDragging = true
	if binding.IsBindingLayer(l) {
		if slices.Contains(sel, 0) {
			next.EditingLinearLayer.StartBindingLayer = e.hovered(s, l, binding.Start, app.Zoom)
		}
		if slices.Contains(sel, len(l.Points)-1) {
			next.EditingLinearLayer.EndBindingLayer = e.hovered(s, l, binding.End, app.Zoom)
		}
		next.SuggestedBindings = binding.SuggestedBindings(s, l.ID, binding.Threshold(e.cfg.BindingThreshold, app.Zoom))
	}
	return next
}

// DeletePoints removes the selected points. When fewer than MinPoints would
// remain the whole layer is tombstoned and the session ends.
func (e *Editor) DeletePoints(s *scene.Store, app *domain.AppState) *domain.AppState {
	l := sessionLayer(s, app)
	if l == nil {
		return app
	}
	sel := inRange(normalize(app.EditingLinearLayer.SelectedPointsIndices), len(l.Points))
	if len(sel) == 0 {
		return app
	}
	if len(l.Points)-len(sel) < MinPoints {
		s.Mutate(l.ID, scene.SetDeleted(true))
		binding.FixBindingsAfterDeletion(s, []string{l.ID})
		next := app.Clone()
		next.EditingLinearLayer = nil
		next.SuggestedBindings = nil
		delete(next.SelectedLayerIDs, l.ID)
		return next
	}
	n := len(l.Points)
	startGone := slices.Contains(sel, 0)
	endGone := slices.Contains(sel, n-1)
	s.Mutate(l.ID, func(x *domain.Layer) {
		kept := make([]domain.Point, 0, n-len(sel))
		for i, p := range x.Points {
			if !slices.Contains(sel, i) {
				kept = append(kept, p)
			}
		}
		x.Points = kept
		scene.SyncLinearDims(x)
	})
	next := app.Clone()
	next.EditingLinearLayer.SelectedPointsIndices = nil
	if binding.IsBindingLayer(l) {
		if startGone {
			next.EditingLinearLayer.StartBindingLayer = e.hovered(s, l, binding.Start, app.Zoom)
		}
		if endGone {
			next.EditingLinearLayer.EndBindingLayer = e.hovered(s, l, binding.End, app.Zoom)
		}
	}
	return next
}

// InsertMidpoint adds a point halfway along segment i (between points i and
// i+1) and selects it.
func (e *Editor) InsertMidpoint(s *scene.Store, app *domain.AppState, segment int) *domain.AppState {
	l := sessionLayer(s, app)
	if l == nil || segment < 0 || segment+1 >= len(l.Points) {
		return app
	}
	a, b := l.Points[segment], l.Points[segment+1]
	mid := domain.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	s.Mutate(l.ID, func(x *domain.Layer) {
		x.Points = slices.Insert(x.Points, segment+1, mid)
	})
	next := app.Clone()
	next.EditingLinearLayer.SelectedPointsIndices = []int{segment + 1}
	return next
}

func (e *Editor) hovered(s *scene.Store, l *domain.Layer, end binding.Endpoint, zoom float64) string {
	p, ok := binding.EndpointPos(l, end)
	if !ok {
		return ""
	}
	h := binding.HoveredBindable(s, p, binding.Threshold(e.cfg.BindingThreshold, zoom), l.ID)
	if h == nil {
		return ""
	}
	return h.ID
}

func sessionLayer(s *scene.Store, app *domain.AppState) *domain.Layer {
	if app.EditingLinearLayer == nil {
		return nil
	}
	return s.GetLive(app.EditingLinearLayer.LayerID)
}

// toLocal converts an absolute scene point to l's point space.
func toLocal(l *domain.Layer, p vector.Pt) domain.Point {
	q := vector.RotatePoint(p, scene.Center(l), -l.Angle)
	return domain.Point{X: q.X - l.X, Y: q.Y - l.Y}
}

func normalize(indices []int) []int {
	out := append([]int(nil), indices...)
	sort.Ints(out)
	return slices.Compact(out)
}

// inRange drops indices that do not address one of n points.
func inRange(sorted []int, n int) []int {
	return slices.DeleteFunc(sorted, func(i int) bool { return i < 0 || i >= n })
}
