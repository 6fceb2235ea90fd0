/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"

	"github.com/storiny/web-sub007/internal/domain"
)

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerScene: 10, MinInterval: 10 * time.Millisecond})
	sc := "s1"
	t0 := time.Now()
	m.PushSnapshot(Snapshot{Scene: sc, Blob: []byte("base"), TS: t0})
	m.PushSnapshot(Snapshot{Scene: sc, Blob: []byte("a"), TS: t0.Add(20 * time.Millisecond)})
	m.PushSnapshot(Snapshot{Scene: sc, Blob: []byte("b"), TS: t0.Add(40 * time.Millisecond)})
	if _, scenes, total := m.Stats(); scenes != 1 || total != 3 {
		t.Fatalf("expected 1 scene and 3 snapshots, got scenes=%d total=%d", scenes, total)
	}
	s, ok := m.Undo(sc)
	if !ok || string(s.Blob) != "a" {
		t.Fatalf("undo expected 'a', got ok=%v blob=%q", ok, string(s.Blob))
	}
	if !m.CanRedo(sc) {
		t.Fatalf("expected redo to be available")
	}
	s, ok = m.Redo(sc)
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("redo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	if cur, _ := m.Current(sc); string(cur.Blob) != "b" {
		t.Fatalf("current = %q", cur.Blob)
	}
}

func TestUndoStopsAtBaseline(t *testing.T) {
	m := NewManager(Config{})
	m.PushSnapshot(Snapshot{Scene: "s", Blob: []byte("base"), TS: time.Now()})
	if m.CanUndo("s") {
		t.Fatalf("baseline alone must not be undoable")
	}
	if _, ok := m.Undo("s"); ok {
		t.Fatalf("undo past baseline")
	}
}

func TestCoalesce(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerScene: 10, MinInterval: 50 * time.Millisecond})
	sc := "s2"
	t0 := time.Now()
	m.PushSnapshot(Snapshot{Scene: sc, Blob: []byte("0"), TS: t0})
	m.PushSnapshot(Snapshot{Scene: sc, Blob: []byte("1"), TS: t0.Add(10 * time.Millisecond)}) // baseline kept
	m.PushSnapshot(Snapshot{Scene: sc, Blob: []byte("2"), TS: t0.Add(20 * time.Millisecond)}) // coalesce
	_, _, total := m.Stats()
	if total != 2 {
		t.Fatalf("expected coalesced to 2 snapshots, got %d", total)
	}
	if cur, _ := m.Current(sc); string(cur.Blob) != "2" {
		t.Fatalf("expected coalesced snapshot '2', got %q", cur.Blob)
	}
	s, ok := m.Undo(sc)
	if !ok || string(s.Blob) != "0" {
		t.Fatalf("expected baseline after undo, got ok=%v blob=%q", ok, string(s.Blob))
	}
}

func TestNewChangeDropsRedo(t *testing.T) {
	m := NewManager(Config{})
	t0 := time.Now()
	m.PushSnapshot(Snapshot{Scene: "s", Blob: []byte("0"), TS: t0})
	m.PushSnapshot(Snapshot{Scene: "s", Blob: []byte("1"), TS: t0.Add(time.Second)})
	m.Undo("s")
	m.PushSnapshot(Snapshot{Scene: "s", Blob: []byte("2"), TS: t0.Add(2 * time.Second)})
	if m.CanRedo("s") {
		t.Fatalf("redo should be cleared by a new change")
	}
	if tb, _, _ := m.Stats(); tb != 2 {
		t.Fatalf("byte accounting = %d, want 2", tb)
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{MaxBytes: 20, MaxPerScene: 2, MinInterval: 1 * time.Millisecond})
	sc := "s3"
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		m.PushSnapshot(Snapshot{Scene: sc, Blob: []byte("xxxxx"), TS: t0.Add(time.Duration(i) * time.Second)})
	}
	_, _, total := m.Stats()
	if total > 2 {
		t.Fatalf("expected MaxPerScene cap to limit to 2, got %d", total)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	l := &domain.Layer{
		ID: "r1", Type: domain.TypeRectangle, Width: 10, Height: 20, Version: 3,
		GroupIDs:    []string{"g1"},
		BoundLayers: []domain.BoundLayer{{ID: "t1", Type: domain.TypeText}},
	}
	arrow := &domain.Layer{
		ID: "a1", Type: domain.TypeArrow,
		Points:       []domain.Point{{X: 0, Y: 0}, {X: 5, Y: 5}},
		StartBinding: &domain.PointBinding{LayerID: "r1", Focus: 0.5, Gap: 4},
	}
	app := domain.DefaultAppState()
	app.SelectedLayerIDs = domain.IDSet("r1")
	app.EditingGroupID = "g1"

	snap, err := NewSnapshot("s", CheckpointOf([]*domain.Layer{l, arrow}, app), time.Now())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	cp, err := Decode(snap.Blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cp.Layers) != 2 || cp.Layers[0].BoundLayers[0].ID != "t1" || cp.Layers[1].StartBinding.Gap != 4 {
		t.Fatalf("layers not restored: %+v", cp.Layers)
	}
	if cp.Layers[1].Points[1].X != 5 {
		t.Fatalf("points not restored")
	}

	restored := cp.Apply(domain.DefaultAppState())
	if !restored.SelectedLayerIDs["r1"] || restored.EditingGroupID != "g1" {
		t.Fatalf("selection not restored: %+v", restored.SelectedLayerIDs)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not zstd")); err == nil {
		t.Fatalf("expected error")
	}
}
