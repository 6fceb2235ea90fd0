/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package linear

import (
	"testing"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/vector"
)

func setup(t *testing.T, l *domain.Layer, others ...*domain.Layer) (*scene.Store, *domain.AppState, *Editor) {
	t.Helper()
	s := scene.NewStore()
	s.ReplaceAll(append(others, l))
	app := domain.DefaultAppState()
	app.SelectedLayerIDs = domain.IDSet(l.ID)
	return s, app, NewEditor(Config{})
}

func line(pts ...domain.Point) *domain.Layer {
	return scene.NewLinear(domain.TypeLine, 0, 0, pts, domain.StyleSet{})
}

func TestToggleEntersAndExits(t *testing.T) {
	l := line(domain.Point{}, domain.Point{X: 100})
	s, app, e := setup(t, l)
	app = e.Toggle(s, app)
	if app.EditingLinearLayer == nil || app.EditingLinearLayer.LayerID != l.ID {
		t.Fatalf("expected active session, got %+v", app.EditingLinearLayer)
	}
	app = e.Toggle(s, app)
	if app.EditingLinearLayer != nil {
		t.Fatalf("toggle on the same layer must exit")
	}
	app.SelectedLayerIDs = map[string]bool{}
	if got := e.Toggle(s, app); got.EditingLinearLayer != nil {
		t.Fatalf("nothing eligible, no session expected")
	}
}

func TestToggleSwitchesToOtherLayer(t *testing.T) {
	a := line(domain.Point{}, domain.Point{X: 100})
	b := line(domain.Point{}, domain.Point{Y: 100})
	s, app, e := setup(t, a, b)
	app = e.Toggle(s, app)
	app.SelectedLayerIDs = domain.IDSet(b.ID)
	app = e.Toggle(s, app)
	if app.EditingLinearLayer == nil || app.EditingLinearLayer.LayerID != b.ID {
		t.Fatalf("expected session on b, got %+v", app.EditingLinearLayer)
	}
}

func TestDeletingPointOfTwoPointLineDeletesLayer(t *testing.T) {
	l := line(domain.Point{}, domain.Point{X: 100})
	s, app, e := setup(t, l)
	app = e.Enter(s, app, l.ID)
	app = SelectPoints(app, []int{1})
	app = e.DeletePoints(s, app)
	if !l.IsDeleted {
		t.Fatalf("layer must be tombstoned")
	}
	if app.EditingLinearLayer != nil || app.SelectedLayerIDs[l.ID] {
		t.Fatalf("session and selection must be cleared")
	}
	if s.Get(l.ID) == nil {
		t.Fatalf("tombstone must stay in the store")
	}
}

func TestDeleteIgnoresStalePointIndices(t *testing.T) {
	l := line(domain.Point{}, domain.Point{X: 100})
	s, app, e := setup(t, l)
	app = e.Enter(s, app, l.ID)
	app = SelectPoints(app, []int{7, -1})
	got := e.DeletePoints(s, app)
	if l.IsDeleted || len(l.Points) != 2 {
		t.Fatalf("no existing point was selected, layer changed: deleted=%v points=%v", l.IsDeleted, l.Points)
	}
	if got != app {
		t.Fatalf("app state must be returned unchanged")
	}

	// valid and stale indices mixed: only the valid one counts
	l3 := line(domain.Point{}, domain.Point{X: 10}, domain.Point{X: 20})
	s, app, e = setup(t, l3)
	app = e.Enter(s, app, l3.ID)
	app = SelectPoints(app, []int{1, 9})
	e.DeletePoints(s, app)
	if l3.IsDeleted || len(l3.Points) != 2 {
		t.Fatalf("expected one point removed, deleted=%v points=%v", l3.IsDeleted, l3.Points)
	}
}

func TestDeleteMiddlePointKeepsOrder(t *testing.T) {
	l := line(domain.Point{}, domain.Point{X: 10}, domain.Point{X: 20, Y: 5}, domain.Point{X: 30})
	s, app, e := setup(t, l)
	app = e.Enter(s, app, l.ID)
	app = SelectPoints(app, []int{1})
	e.DeletePoints(s, app)
	want := []domain.Point{{}, {X: 20, Y: 5}, {X: 30}}
	if len(l.Points) != len(want) {
		t.Fatalf("points = %v", l.Points)
	}
	for i := range want {
		if l.Points[i] != want[i] {
			t.Fatalf("points = %v, want %v", l.Points, want)
		}
	}
}

func TestLoopClosesOnCommitOnly(t *testing.T) {
	l := line(domain.Point{}, domain.Point{X: 100}, domain.Point{X: 100, Y: 100}, domain.Point{X: 30, Y: 30})
	s, app, e := setup(t, l)
	app = e.Enter(s, app, l.ID)
	app = SelectPoints(app, []int{3})
	app = e.MovePoints(s, app, -25, -25)
	if IsLoop(l) {
		t.Fatalf("dragging must not snap the loop")
	}
	e.Exit(s, app)
	if !IsLoop(l) {
		t.Fatalf("expected closed loop after commit, points %v", l.Points)
	}
}

func TestEndpointBindsOnExit(t *testing.T) {
	r := scene.NewShape(domain.TypeRectangle, 0, 0, 100, 100, domain.StyleSet{})
	a := scene.NewLinear(domain.TypeArrow, 200, 50, []domain.Point{{}, {X: 100}}, domain.StyleSet{})
	s, app, e := setup(t, a, r)
	app = e.Enter(s, app, a.ID)
	app = SelectPoints(app, []int{1})
	app = e.MovePoints(s, app, -195, 0)
	if app.EditingLinearLayer.EndBindingLayer != r.ID || len(app.SuggestedBindings) != 1 {
		t.Fatalf("expected suggestion for %s, got %+v", r.ID, app.EditingLinearLayer)
	}
	if a.EndBinding != nil {
		t.Fatalf("nothing is bound while dragging")
	}
	app = e.Exit(s, app)
	if a.EndBinding == nil || a.EndBinding.LayerID != r.ID || !r.HasBoundLayer(a.ID) {
		t.Fatalf("end must bind on commit: %+v", a.EndBinding)
	}
	if app.SuggestedBindings != nil {
		t.Fatalf("suggestions must clear on exit")
	}
}

func TestAddPointAndInsertMidpoint(t *testing.T) {
	l := line(domain.Point{}, domain.Point{X: 100})
	s, app, e := setup(t, l)
	app = e.Enter(s, app, l.ID)
	app = e.AddPoint(s, app, vector.Pt{X: 100, Y: 100})
	if len(l.Points) != 3 || app.EditingLinearLayer.SelectedPointsIndices[0] != 2 {
		t.Fatalf("add point: %v %v", l.Points, app.EditingLinearLayer.SelectedPointsIndices)
	}
	app = e.InsertMidpoint(s, app, 0)
	if len(l.Points) != 4 || l.Points[1] != (domain.Point{X: 50}) {
		t.Fatalf("midpoint: %v", l.Points)
	}
	if app.EditingLinearLayer.SelectedPointsIndices[0] != 1 {
		t.Fatalf("midpoint should be selected")
	}
}
