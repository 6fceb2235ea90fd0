/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package actions

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/storiny/web-sub007/internal/binding"
	"github.com/storiny/web-sub007/internal/clipboard"
	"github.com/storiny/web-sub007/internal/config"
	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/library"
	"github.com/storiny/web-sub007/internal/scene"
)

func style() domain.StyleSet { return domain.DefaultAppState().CurrentItem }

func newScene(layers ...*domain.Layer) *scene.Store {
	s := scene.NewStore()
	s.ReplaceAll(layers)
	return s
}

func testEnv() *Env { return NewEnv(config.Defaults().Editor) }

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	return r
}

// apply mirrors what the editor does with a result.
func apply(s *scene.Store, app *domain.AppState, res Result) *domain.AppState {
	if res.Layers != nil {
		s.ReplaceAll(res.Layers)
	}
	if res.AppState != nil {
		return res.AppState
	}
	return app
}

func selectIDs(ids ...string) *domain.AppState {
	app := domain.DefaultAppState()
	app.SelectedLayerIDs = domain.IDSet(ids...)
	return app
}

func TestBuiltinChordsAreUnique(t *testing.T) {
	owner := map[string]string{}
	for _, a := range Builtins() {
		for _, c := range a.Chords {
			k := chordKey(c)
			if prev, ok := owner[k]; ok {
				t.Fatalf("chord %s bound to %s and %s", k, prev, a.Name)
			}
			owner[k] = a.Name
		}
	}
	mustRegistry(t)
}

func TestBuildRejectsChordConflict(t *testing.T) {
	b := NewBuilder()
	noop := func(*scene.Store, *domain.AppState, any, *Env) Result { return Result{} }
	b.Register(&Action{Name: "a", Chords: []domain.KeyEvent{ctrl("k")}, Perform: noop})
	// Cmd+K is the same chord as Ctrl+K
	b.Register(&Action{Name: "b", Chords: []domain.KeyEvent{{Key: "K", Meta: true}}, Perform: noop})
	if _, err := b.Build(); !errors.Is(err, ErrChordConflict) {
		t.Fatalf("expected ErrChordConflict, got %v", err)
	}
}

func TestBuildRejectsDuplicateName(t *testing.T) {
	b := NewBuilder()
	noop := func(*scene.Store, *domain.AppState, any, *Env) Result { return Result{} }
	a := b.Register(&Action{Name: "x", Perform: noop})
	if a == nil || a.Name != "x" {
		t.Fatalf("Register must return the action unchanged")
	}
	b.Register(&Action{Name: "x", Perform: noop})
	if _, err := b.Build(); !errors.Is(err, ErrDuplicateAction) {
		t.Fatalf("expected ErrDuplicateAction, got %v", err)
	}
}

func TestDispatchMatchesChords(t *testing.T) {
	r := mustRegistry(t)
	env := testEnv()
	rect := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	s := newScene(rect)
	app := selectIDs(rect.ID)

	_, a, ok := r.Dispatch(domain.KeyEvent{Key: "H", Code: "KeyH", Shift: true}, s, app, env)
	if !ok || a.Name != "flipHorizontal" {
		t.Fatalf("Shift+H should flip, got %v", a)
	}
	res, a, ok := r.Dispatch(domain.KeyEvent{Key: "h", Code: "KeyH"}, s, app, env)
	if !ok || a.Name != "hand" || res.AppState.ActiveTool.Type != domain.ToolHand {
		t.Fatalf("H should select the hand tool, got %v", a)
	}
	if !a.IsChecked(res.AppState) {
		t.Fatalf("hand should report checked")
	}
	if _, a, ok := r.Dispatch(domain.KeyEvent{Key: "k", Meta: true}, s, app, env); !ok || a.Name != "hyperlink" {
		t.Fatalf("Cmd+K should open the hyperlink editor, got %v", a)
	}
	// Escape without a drawing session matches nothing
	if _, _, ok := r.Dispatch(key(domain.KeyEscape), s, app, env); ok {
		t.Fatalf("Escape should not match without a session")
	}
}

func TestDispatchDoesNotTouchStore(t *testing.T) {
	r := mustRegistry(t)
	rect := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	s := newScene(rect)
	res, _, ok := r.Dispatch(key(domain.KeyDelete), s, selectIDs(rect.ID), testEnv())
	if !ok || !res.CommitToHistory {
		t.Fatalf("delete should commit")
	}
	if rect.IsDeleted {
		t.Fatalf("dispatch must work on a fork")
	}
}

func TestExecuteUnknownAndDisabled(t *testing.T) {
	r := mustRegistry(t)
	s := newScene()
	if _, err := r.Execute("nope", s, domain.DefaultAppState(), nil, testEnv()); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if _, err := r.Execute("group", s, domain.DefaultAppState(), nil, testEnv()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestDeleteClearsArrowBinding(t *testing.T) {
	r := mustRegistry(t)
	box := scene.NewShape(domain.TypeRectangle, 200, 0, 100, 100, style())
	arrow := scene.NewLinear(domain.TypeArrow, 0, 50, []domain.Point{{X: 0, Y: 0}, {X: 195, Y: 0}}, style())
	s := newScene(box, arrow)
	binding.BindOrUnbindLinear(s, arrow.ID, "", box.ID)
	if arrow.EndBinding == nil {
		t.Fatalf("setup: arrow not bound")
	}
	app := selectIDs(box.ID)
	res, err := r.Execute("deleteSelectedLayers", s, app, nil, testEnv())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	app = apply(s, app, res)
	if !s.Get(box.ID).IsDeleted {
		t.Fatalf("box not deleted")
	}
	if s.Get(arrow.ID).EndBinding != nil {
		t.Fatalf("arrow still bound to deleted box")
	}
	if len(app.SelectedLayerIDs) != 0 {
		t.Fatalf("selection not cleared")
	}
}

func TestDeleteLastGroupMemberClearsEditingGroup(t *testing.T) {
	r := mustRegistry(t)
	a := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	a.GroupIDs = []string{"g1"}
	s := newScene(a)
	app := selectIDs(a.ID)
	app.EditingGroupID = "g1"
	res, err := r.Execute("deleteSelectedLayers", s, app, nil, testEnv())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.AppState.EditingGroupID != "" {
		t.Fatalf("editing group should be cleared, got %q", res.AppState.EditingGroupID)
	}
}

func TestFlipPreservesCommonBounds(t *testing.T) {
	r := mustRegistry(t)
	a := scene.NewShape(domain.TypeRectangle, 0, 0, 50, 20, style())
	b := scene.NewShape(domain.TypeEllipse, 100, 40, 30, 30, style())
	l := scene.NewLinear(domain.TypeLine, 10, 80, []domain.Point{{X: 0, Y: 0}, {X: 40, Y: 10}}, style())
	s := newScene(a, b, l)
	before := scene.CommonBounds(s.NonDeleted())
	app := selectIDs(a.ID, b.ID, l.ID)
	for _, name := range []string{"flipHorizontal", "flipVertical"} {
		res, err := r.Execute(name, s, app, nil, testEnv())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		app = apply(s, app, res)
		after := scene.CommonBounds(s.NonDeleted())
		if math.Abs(after.X-before.X) > 1e-9 || math.Abs(after.Y-before.Y) > 1e-9 ||
			math.Abs(after.W-before.W) > 1e-9 || math.Abs(after.H-before.H) > 1e-9 {
			t.Fatalf("%s changed bounds: %+v -> %+v", name, before, after)
		}
	}
	// horizontal flip moves a from the left edge to the right edge
	if got := s.Get(a.ID).X; math.Abs(got-80) > 1e-9 {
		t.Fatalf("rectangle x after flip = %v, want 80", got)
	}
}

func TestFlipUnbindsArrowThatNoLongerTouches(t *testing.T) {
	r := mustRegistry(t)
	box := scene.NewShape(domain.TypeRectangle, 200, 0, 100, 100, style())
	arrow := scene.NewLinear(domain.TypeArrow, 0, 50, []domain.Point{{X: 0, Y: 0}, {X: 195, Y: 0}}, style())
	s := newScene(box, arrow)
	binding.BindOrUnbindLinear(s, arrow.ID, "", box.ID)
	app := selectIDs(arrow.ID)
	res, err := r.Execute("flipHorizontal", s, app, nil, testEnv())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	apply(s, app, res)
	if s.Get(arrow.ID).EndBinding != nil {
		t.Fatalf("flipped arrow end left the box and must unbind")
	}
	if s.Get(box.ID).HasBoundLayer(arrow.ID) {
		t.Fatalf("box still lists the arrow")
	}
}

func TestGroupAndUngroup(t *testing.T) {
	r := mustRegistry(t)
	a := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	mid := scene.NewShape(domain.TypeRectangle, 50, 0, 10, 10, style())
	b := scene.NewShape(domain.TypeRectangle, 100, 0, 10, 10, style())
	s := newScene(a, mid, b)
	app := selectIDs(a.ID, b.ID)
	env := testEnv()

	res, err := r.Execute("group", s, app, nil, env)
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	app = apply(s, app, res)
	ga, gb := s.Get(a.ID).GroupIDs, s.Get(b.ID).GroupIDs
	if len(ga) != 1 || len(gb) != 1 || ga[0] != gb[0] || !app.SelectedGroupIDs[ga[0]] {
		t.Fatalf("group not formed: %v %v %v", ga, gb, app.SelectedGroupIDs)
	}
	if s.IndexOf(a.ID)+1 != s.IndexOf(b.ID) {
		t.Fatalf("group members should be contiguous")
	}
	// grouping the same group again is rejected
	if Group.Enabled(s, app, env) {
		t.Fatalf("regrouping a single group should be disabled")
	}
	res, err = r.Execute("ungroup", s, app, nil, env)
	if err != nil {
		t.Fatalf("ungroup: %v", err)
	}
	app = apply(s, app, res)
	if len(s.Get(a.ID).GroupIDs) != 0 || len(app.SelectedGroupIDs) != 0 {
		t.Fatalf("ungroup incomplete")
	}
}

func TestBindUnbindTextActions(t *testing.T) {
	r := mustRegistry(t)
	env := testEnv()
	c := scene.NewShape(domain.TypeRectangle, 0, 0, 100, 100, style())
	txt := scene.NewText(300, 300, "Hello", style(), nil)
	s := newScene(txt, c)
	app := selectIDs(c.ID, txt.ID)
	res, err := r.Execute("bindText", s, app, nil, env)
	if err != nil {
		t.Fatalf("bindText: %v", err)
	}
	app = apply(s, app, res)
	if err := binding.Verify(s); err != nil {
		t.Fatalf("verify after bind: %v", err)
	}
	if s.Get(txt.ID).ContainerID != c.ID {
		t.Fatalf("text not bound")
	}
	// a second text cannot bind to the same container
	other := scene.NewText(0, 300, "x", style(), nil)
	s.Insert(other)
	if BindText.Enabled(s, selectIDs(c.ID, other.ID), env) {
		t.Fatalf("second text must be rejected by the predicate")
	}
	res, err = r.Execute("unbindText", s, app, nil, env)
	if err != nil {
		t.Fatalf("unbindText: %v", err)
	}
	apply(s, app, res)
	if s.Get(txt.ID).ContainerID != "" || s.Get(c.ID).Height != 100 {
		t.Fatalf("unbind did not restore: %+v", s.Get(c.ID))
	}
}

func TestBringForwardAndSendBackward(t *testing.T) {
	r := mustRegistry(t)
	a := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	b := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	gone := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	gone.IsDeleted = true
	c := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	s := newScene(a, b, gone, c)
	app := selectIDs(a.ID)
	res, err := r.Execute("bringForward", s, app, nil, testEnv())
	if err != nil {
		t.Fatalf("bringForward: %v", err)
	}
	apply(s, app, res)
	if s.IndexOf(a.ID) != 1 || s.IndexOf(b.ID) != 0 {
		t.Fatalf("a should move above b")
	}
	app = selectIDs(c.ID)
	res, _ = r.Execute("sendBackward", s, app, nil, testEnv())
	apply(s, app, res)
	// c skips the tombstone and passes a
	if s.IndexOf(c.ID) >= s.IndexOf(a.ID) {
		t.Fatalf("c should move below a, order a=%d c=%d", s.IndexOf(a.ID), s.IndexOf(c.ID))
	}
}

func TestCopyPasteStyles(t *testing.T) {
	r := mustRegistry(t)
	env := testEnv()
	src := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	src.StrokeColor = "#ff0000"
	dst := scene.NewShape(domain.TypeEllipse, 0, 0, 10, 10, style())
	s := newScene(src, dst)
	if PasteStyles.Enabled(s, selectIDs(dst.ID), env) {
		t.Fatalf("pasteStyles needs copied styles")
	}
	res, err := r.Execute("copyStyles", s, selectIDs(src.ID), nil, env)
	if err != nil || res.AppState == nil || res.AppState.Toast == nil {
		t.Fatalf("copyStyles: %v", err)
	}
	res, err = r.Execute("pasteStyles", s, selectIDs(dst.ID), nil, env)
	if err != nil {
		t.Fatalf("pasteStyles: %v", err)
	}
	apply(s, domain.DefaultAppState(), res)
	if s.Get(dst.ID).StrokeColor != "#ff0000" {
		t.Fatalf("style not pasted: %q", s.Get(dst.ID).StrokeColor)
	}
	// the cache belongs to the env, a fresh session starts empty
	if _, ok := testEnv().Styles.Get(); ok {
		t.Fatalf("style cache leaked across sessions")
	}
}

func TestZoomActions(t *testing.T) {
	r := mustRegistry(t)
	s := newScene()
	app := domain.DefaultAppState()
	res, _, ok := r.Dispatch(ctrl(domain.KeyEqual), s, app, testEnv())
	if !ok || math.Abs(res.AppState.Zoom-1.1) > 1e-9 || res.CommitToHistory {
		t.Fatalf("zoomIn: %+v", res.AppState)
	}
	res, _, _ = r.Dispatch(ctrl(domain.KeyZero), s, res.AppState, testEnv())
	if res.AppState.Zoom != 1 {
		t.Fatalf("resetZoom: %v", res.AppState.Zoom)
	}
}

type fakeHistory struct {
	layers []*domain.Layer
	undone int
}

func (h *fakeHistory) CanUndo() bool { return true }
func (h *fakeHistory) CanRedo() bool { return false }
func (h *fakeHistory) Undo(cur *domain.AppState) ([]*domain.Layer, *domain.AppState, bool) {
	h.undone++
	return h.layers, cur.Clone(), true
}
func (h *fakeHistory) Redo(*domain.AppState) ([]*domain.Layer, *domain.AppState, bool) {
	return nil, nil, false
}

func TestUndoRedoUseHistory(t *testing.T) {
	r := mustRegistry(t)
	env := testEnv()
	prev := scene.NewShape(domain.TypeRectangle, 0, 0, 1, 1, style())
	h := &fakeHistory{layers: []*domain.Layer{prev}}
	env.History = h
	s := newScene()
	res, _, ok := r.Dispatch(ctrl("z"), s, domain.DefaultAppState(), env)
	if !ok || h.undone != 1 || len(res.Layers) != 1 || res.CommitToHistory {
		t.Fatalf("undo not routed to history: %+v", res)
	}
	if _, _, ok := r.Dispatch(ctrlShift("z"), s, domain.DefaultAppState(), env); ok {
		t.Fatalf("redo should be disabled when history cannot redo")
	}
}

func TestFinalizeDropsTrailingPointAndCommits(t *testing.T) {
	r := mustRegistry(t)
	l := scene.NewLinear(domain.TypeLine, 0, 0, []domain.Point{{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 60, Y: 30}}, style())
	committed := domain.Point{X: 50, Y: 0}
	l.LastCommittedPoint = &committed
	s := newScene(l)
	app := domain.DefaultAppState()
	app.MultiLayerID = l.ID
	app.ActiveTool = domain.Tool{Type: domain.ToolLine}
	res, a, ok := r.Dispatch(key(domain.KeyEnter), s, app, testEnv())
	if !ok || a.Name != "finalize" {
		t.Fatalf("Enter should finalize, got %v", a)
	}
	app = apply(s, app, res)
	if got := len(s.Get(l.ID).Points); got != 2 {
		t.Fatalf("expected trailing point dropped, have %d points", got)
	}
	if app.MultiLayerID != "" || app.ActiveTool.Type != domain.ToolSelection || !app.SelectedLayerIDs[l.ID] {
		t.Fatalf("unexpected state after finalize: %+v", app)
	}
}

func TestToggleLinearEditorAndDeletePoint(t *testing.T) {
	r := mustRegistry(t)
	env := testEnv()
	l := scene.NewLinear(domain.TypeLine, 0, 0, []domain.Point{{X: 0, Y: 0}, {X: 50, Y: 0}}, style())
	s := newScene(l)
	app := selectIDs(l.ID)
	res, err := r.Execute("toggleLinearEditor", s, app, nil, env)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	app = apply(s, app, res)
	if app.EditingLinearLayer == nil || !ToggleLinearEditor.IsChecked(app) {
		t.Fatalf("session not started")
	}
	app.EditingLinearLayer.SelectedPointsIndices = []int{1}
	res, a, ok := r.Dispatch(key(domain.KeyBackspace), s, app, env)
	if !ok || a.Name != "deleteSelectedLayers" {
		t.Fatalf("Backspace should delete points, got %v", a)
	}
	app = apply(s, app, res)
	if !s.Get(l.ID).IsDeleted || app.EditingLinearLayer != nil {
		t.Fatalf("deleting a point of a 2-point line must delete the layer")
	}
}

func TestSelectAllSkipsBoundTextAndLocked(t *testing.T) {
	r := mustRegistry(t)
	env := testEnv()
	c := scene.NewShape(domain.TypeRectangle, 0, 0, 100, 100, style())
	txt := scene.NewText(0, 0, "hi", style(), nil)
	locked := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	locked.Locked = true
	s := newScene(c, txt, locked)
	binding.BindText(s, c.ID, txt.ID, env.Heights)
	res, _, ok := r.Dispatch(ctrl("a"), s, domain.DefaultAppState(), env)
	if !ok {
		t.Fatalf("Ctrl+A not handled")
	}
	sel := res.AppState.SelectedLayerIDs
	if !sel[c.ID] || sel[txt.ID] || sel[locked.ID] {
		t.Fatalf("unexpected selection %v", sel)
	}
}

func TestHyperlinkSetsLink(t *testing.T) {
	r := mustRegistry(t)
	rect := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	s := newScene(rect)
	app := selectIDs(rect.ID)
	res, err := r.Execute("hyperlink", s, app, "https://example.com", testEnv())
	if err != nil {
		t.Fatalf("hyperlink: %v", err)
	}
	apply(s, app, res)
	if s.Get(rect.ID).Link != "https://example.com" {
		t.Fatalf("link not set")
	}
}

func TestCopyPasteAssignsFreshIDs(t *testing.T) {
	r := mustRegistry(t)
	env := testEnv()
	rect := scene.NewShape(domain.TypeRectangle, 10, 10, 20, 20, style())
	s := newScene(rect)
	app := selectIDs(rect.ID)
	if _, err := r.Execute("copy", s, app, nil, env); err != nil {
		t.Fatalf("copy: %v", err)
	}
	res, err := r.Execute("paste", s, app, PasteValue{}, env)
	if err != nil {
		t.Fatalf("paste: %v", err)
	}
	app = apply(s, app, res)
	live := s.NonDeleted()
	if len(live) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(live))
	}
	pasted := live[1]
	if pasted.ID == rect.ID || pasted.Seed == rect.Seed {
		t.Fatalf("paste must regenerate id and seed")
	}
	if !app.SelectedLayerIDs[pasted.ID] || app.SelectedLayerIDs[rect.ID] {
		t.Fatalf("selection should move to the pasted layer")
	}

	// shift-paste keeps ids and replaces the record in place
	res, err = r.Execute("paste", s, app, PasteValue{PreserveIDs: true}, env)
	if err != nil {
		t.Fatalf("paste: %v", err)
	}
	apply(s, app, res)
	if len(s.Layers()) != 2 || s.Get(rect.ID) == nil {
		t.Fatalf("shift-paste should not duplicate preserved ids, have %d", len(s.Layers()))
	}
}

func TestCutDeletesSelection(t *testing.T) {
	r := mustRegistry(t)
	env := testEnv()
	rect := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	s := newScene(rect)
	res, err := r.Execute("cut", s, selectIDs(rect.ID), nil, env)
	if err != nil {
		t.Fatalf("cut: %v", err)
	}
	apply(s, domain.DefaultAppState(), res)
	if !s.Get(rect.ID).IsDeleted || env.Clipboard.AppClipboard() == "" {
		t.Fatalf("cut should copy and tombstone")
	}
}

func TestPasteTextSplitLines(t *testing.T) {
	r := mustRegistry(t)
	ev := &clipboard.PasteEvent{Text: "one\ntwo\n\nthree"}
	for _, tc := range []struct {
		split bool
		want  int
	}{{false, 1}, {true, 3}} {
		s := newScene()
		res, err := r.Execute("paste", s, domain.DefaultAppState(), PasteValue{Event: ev, SplitLines: tc.split}, testEnv())
		if err != nil {
			t.Fatalf("paste: %v", err)
		}
		app := apply(s, domain.DefaultAppState(), res)
		if got := len(s.NonDeleted()); got != tc.want {
			t.Fatalf("split=%v: want %d text layers, got %d", tc.split, tc.want, got)
		}
		if len(app.SelectedLayerIDs) != tc.want {
			t.Fatalf("pasted text should be selected")
		}
	}
}

type fakeLibrary struct {
	got []*domain.Layer
	err error
}

func (f *fakeLibrary) Add(_ context.Context, layers []*domain.Layer) (library.Item, error) {
	f.got = layers
	return library.Item{ID: "item-1", Layers: layers}, f.err
}

func TestAddToLibraryReportsOnCurrentState(t *testing.T) {
	r := mustRegistry(t)
	env := testEnv()
	lib := &fakeLibrary{}
	env.Library = lib
	var pending func(context.Context) Continuation
	env.Async = func(task func(context.Context) Continuation) { pending = task }

	rect := scene.NewShape(domain.TypeRectangle, 0, 0, 10, 10, style())
	s := newScene(rect)
	res, err := r.Execute("addToLibrary", s, selectIDs(rect.ID), nil, env)
	if err != nil {
		t.Fatalf("addToLibrary: %v", err)
	}
	if res.Changed() || pending == nil {
		t.Fatalf("work should be deferred")
	}

	// the user moves on before the store answers
	s.Mutate(rect.ID, scene.MoveBy(50, 0))
	cur := domain.DefaultAppState()
	cur.ActiveTool = domain.Tool{Type: domain.ToolHand}
	out := pending(context.Background())(s, cur)
	if out.AppState == nil || out.AppState.Toast == nil || out.AppState.ActiveTool.Type != domain.ToolHand {
		t.Fatalf("continuation should toast on the current state: %+v", out.AppState)
	}
	if len(lib.got) != 1 || lib.got[0].X != 0 {
		t.Fatalf("library should receive the selection as it was")
	}

	lib.err = errors.New("disk full")
	r.Execute("addToLibrary", s, selectIDs(rect.ID), nil, env)
	out = pending(context.Background())(s, cur)
	if out.AppState == nil || out.AppState.ErrorMessage == "" {
		t.Fatalf("failure should surface as an error message")
	}
}
