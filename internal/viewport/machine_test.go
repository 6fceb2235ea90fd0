/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"math"
	"testing"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/vector"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPanWithMiddleButton(t *testing.T) {
	var entered, exited []State
	m := New(View{Zoom: 2},
		OnEnter(StatePanning, func(from, to State, v View) { entered = append(entered, to) }),
		OnExit(StatePanning, func(from, to State, v View) { exited = append(exited, from) }),
	)
	m.Handle(Event{Type: PointerDown, X: 10, Y: 10, Button: ButtonMiddle})
	if m.State() != StatePanning {
		t.Fatalf("state = %s, want panning", m.State())
	}
	v := m.Handle(Event{Type: PointerMove, X: 30, Y: 50})
	if !near(v.ScrollX, 10) || !near(v.ScrollY, 20) {
		t.Fatalf("scroll = %v,%v", v.ScrollX, v.ScrollY)
	}
	m.Handle(Event{Type: PointerUp})
	if m.State() != StateIdle {
		t.Fatalf("state after up = %s", m.State())
	}
	if len(entered) != 1 || len(exited) != 1 {
		t.Fatalf("effects entered=%v exited=%v", entered, exited)
	}
}

func TestPrimaryButtonDoesNotPanUnlessPanMode(t *testing.T) {
	m := New(View{Zoom: 1})
	m.Handle(Event{Type: PointerDown, Button: ButtonPrimary})
	if m.State() != StateIdle {
		t.Fatalf("primary click must not pan")
	}
	m.Handle(Event{Type: PointerDown, Button: ButtonPrimary, PanMode: true})
	if m.State() != StatePanning {
		t.Fatalf("hand tool should pan")
	}
	m.Handle(Event{Type: Cancel})
	if m.State() != StateIdle {
		t.Fatalf("cancel should return to idle")
	}
}

func TestIgnoredEventsKeepState(t *testing.T) {
	m := New(View{Zoom: 1})
	v := m.Handle(Event{Type: PointerMove, X: 100})
	if m.State() != StateIdle || v.ScrollX != 0 {
		t.Fatalf("move in idle must be ignored")
	}
	m.Handle(Event{Type: PinchStart, Distance: 100})
	m.Handle(Event{Type: PointerDown, Button: ButtonMiddle})
	if m.State() != StateZooming {
		t.Fatalf("pointer down while zooming must be ignored")
	}
}

func TestPinchZoomKeepsCenterFixed(t *testing.T) {
	m := New(View{Zoom: 1})
	center := vector.Pt{X: 200, Y: 100}
	before := m.View().ToScene(center)
	m.Handle(Event{Type: PinchStart, X: center.X, Y: center.Y, Distance: 100})
	v := m.Handle(Event{Type: PinchMove, X: center.X, Y: center.Y, Distance: 200})
	if !near(v.Zoom, 2) {
		t.Fatalf("zoom = %v", v.Zoom)
	}
	after := v.ToScene(center)
	if !near(before.X, after.X) || !near(before.Y, after.Y) {
		t.Fatalf("anchor moved from %v to %v", before, after)
	}
	m.Handle(Event{Type: PinchEnd})
	if m.State() != StateIdle {
		t.Fatalf("state = %s", m.State())
	}
}

func TestCtrlWheelZoomsAndWheelScrolls(t *testing.T) {
	m := New(View{Zoom: 1})
	v := m.Handle(Event{Type: Wheel, Ctrl: true, DeltaY: -1})
	if !near(v.Zoom, 1.1) {
		t.Fatalf("zoom = %v", v.Zoom)
	}
	v = m.Handle(Event{Type: Wheel, DeltaY: 11})
	if !near(v.ScrollY, -10) {
		t.Fatalf("scrollY = %v", v.ScrollY)
	}
}

func TestClampAndStep(t *testing.T) {
	if ClampZoom(100) != domain.MaxZoom || ClampZoom(0.01) != domain.MinZoom || ClampZoom(0) != 1 {
		t.Fatalf("clamp failed")
	}
	if !near(Step(1, 1), 1.1) || !near(Step(1, -1), 0.9) {
		t.Fatalf("step failed")
	}
	if Step(domain.MinZoom, -1) != domain.MinZoom {
		t.Fatalf("step must clamp")
	}
}

func TestAppStateRoundTrip(t *testing.T) {
	app := domain.DefaultAppState()
	app.Zoom = 2
	app.ScrollX = 5
	v := FromAppState(app)
	next := (View{Zoom: 3, ScrollX: 1, ScrollY: 2}).ApplyTo(app)
	if v.Zoom != 2 || v.ScrollX != 5 {
		t.Fatalf("from app = %+v", v)
	}
	if next.Zoom != 3 || app.Zoom != 2 {
		t.Fatalf("ApplyTo must copy")
	}
	p := vector.Pt{X: 7, Y: 9}
	if q := v.ToScene(v.ToScreen(p)); !near(q.X, p.X) || !near(q.Y, p.Y) {
		t.Fatalf("screen round trip %v", q)
	}
}
