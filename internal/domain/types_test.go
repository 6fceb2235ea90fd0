/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"testing"
)

func TestLayerJSONRoundTrip(t *testing.T) {
	l := Layer{
		ID:           "a1",
		Type:         TypeArrow,
		X:            10,
		Y:            20,
		Width:        100,
		Height:       50,
		GroupIDs:     []string{"g1"},
		Points:       []Point{{0, 0}, {100, 50}},
		StartBinding: &PointBinding{LayerID: "r1", Focus: 0.5, Gap: 4},
	}
	b, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	pts, ok := raw["points"].([]any)
	if !ok || len(pts) != 2 {
		t.Fatalf("points should encode as arrays: %s", b)
	}
	var got Layer
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != l.ID || got.Type != l.Type || len(got.Points) != 2 || got.Points[1] != (Point{100, 50}) {
		t.Fatalf("unexpected layer after round trip: %+v", got)
	}
	if got.StartBinding == nil || got.StartBinding.LayerID != "r1" {
		t.Fatalf("binding lost: %+v", got.StartBinding)
	}
}

func TestPointRejectsWrongArity(t *testing.T) {
	var p Point
	if err := json.Unmarshal([]byte(`[1,2,3]`), &p); err == nil {
		t.Fatalf("expected error for 3 coordinates")
	}
}

func TestLayerCloneIsDeep(t *testing.T) {
	l := &Layer{ID: "x", GroupIDs: []string{"g"}, BoundLayers: []BoundLayer{{ID: "t", Type: TypeText}},
		Points: []Point{{1, 1}}, EndBinding: &PointBinding{LayerID: "y"}}
	c := l.Clone()
	c.GroupIDs[0] = "changed"
	c.BoundLayers[0].ID = "changed"
	c.Points[0].X = 99
	c.EndBinding.LayerID = "changed"
	if l.GroupIDs[0] != "g" || l.BoundLayers[0].ID != "t" || l.Points[0].X != 1 || l.EndBinding.LayerID != "y" {
		t.Fatalf("clone aliases original: %+v", l)
	}
	if l.BoundTextID() != "t" {
		t.Fatalf("bound text id = %q", l.BoundTextID())
	}
}

func TestLayerPredicates(t *testing.T) {
	if !(&Layer{Type: TypeFreedraw}).IsLinear() || (&Layer{Type: TypeRectangle}).IsLinear() {
		t.Fatalf("IsLinear mismatch")
	}
	if (&Layer{Type: TypeText, ContainerID: "c"}).IsBindable() {
		t.Fatalf("bound text must not be bindable")
	}
	if !(&Layer{Type: TypeDiamond}).IsTextContainer() || (&Layer{Type: TypeArrow}).IsTextContainer() {
		t.Fatalf("IsTextContainer mismatch")
	}
}

func TestAppStateCloneIsDeep(t *testing.T) {
	s := DefaultAppState()
	s.SelectedLayerIDs["a"] = true
	s.EditingLinearLayer = &LinearSession{LayerID: "l", SelectedPointsIndices: []int{0}}
	c := s.Clone()
	c.SelectedLayerIDs["b"] = true
	c.EditingLinearLayer.SelectedPointsIndices[0] = 5
	if s.SelectedLayerIDs["b"] || s.EditingLinearLayer.SelectedPointsIndices[0] != 0 {
		t.Fatalf("clone aliases original")
	}
	if s.Zoom != 1 || s.ExportPadding != DefaultExportPadding {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestKeyEventLetterAndString(t *testing.T) {
	e := KeyEvent{Key: "H", Code: "KeyH", Shift: true}
	if e.Letter() != "h" {
		t.Fatalf("letter = %q", e.Letter())
	}
	if got := e.String(); got != "Shift+H" {
		t.Fatalf("string = %q", got)
	}
	if got := (KeyEvent{Key: "0", Ctrl: true}).String(); got != "Ctrl+0" {
		t.Fatalf("string = %q", got)
	}
	if !(KeyEvent{Key: "k", Meta: true}).CtrlOrCmd() {
		t.Fatalf("meta should count as cmd")
	}
}
