/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport tracks canvas zoom and scroll through an explicit state
// machine. Screen coordinates relate to scene coordinates by
// screen = (scene + scroll) * zoom.
package viewport

import (
	"math"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/vector"
)

// State names a viewport interaction state.
type State string

const (
	StateIdle    State = "idle"
	StatePanning State = "panning"
	StateZooming State = "zooming"
)

// EventType enumerates the inputs the machine reacts to.
type EventType uint8

const (
	PointerDown EventType = iota + 1
	PointerMove
	PointerUp
	PinchStart
	PinchMove
	PinchEnd
	Wheel
	Cancel
)

// Button identifies the pointer button of a PointerDown.
type Button uint8

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// Event is a pointer, pinch or wheel input in screen coordinates.
// PanMode is set when the hand tool is active or space is held.
type Event struct {
	Type     EventType
	X, Y     float64
	Button   Button
	PanMode  bool
	DeltaX   float64
	DeltaY   float64
	Ctrl     bool
	Distance float64
}

func (e Event) point() vector.Pt { return vector.Pt{X: e.X, Y: e.Y} }

// View is the zoom and scroll of the canvas.
type View struct {
	Zoom    float64
	ScrollX float64
	ScrollY float64
}

// FromAppState extracts the view from app.
func FromAppState(app *domain.AppState) View {
	return View{Zoom: ClampZoom(app.Zoom), ScrollX: app.ScrollX, ScrollY: app.ScrollY}
}

// ApplyTo returns a copy of app showing v.
func (v View) ApplyTo(app *domain.AppState) *domain.AppState {
	next := app.Clone()
	next.Zoom = v.Zoom
	next.ScrollX = v.ScrollX
	next.ScrollY = v.ScrollY
	return next
}

// ToScene converts a screen point to scene coordinates.
func (v View) ToScene(p vector.Pt) vector.Pt {
	return vector.Pt{X: p.X/v.Zoom - v.ScrollX, Y: p.Y/v.Zoom - v.ScrollY}
}

// ToScreen converts a scene point to screen coordinates.
func (v View) ToScreen(p vector.Pt) vector.Pt {
	return vector.Pt{X: (p.X + v.ScrollX) * v.Zoom, Y: (p.Y + v.ScrollY) * v.Zoom}
}

// ZoomStep is the increment used by the zoom actions and ctrl+wheel.
const ZoomStep = 0.1

// ClampZoom keeps zoom within the supported range.
func ClampZoom(z float64) float64 {
	if z <= 0 || math.IsNaN(z) {
		return 1
	}
	return math.Max(domain.MinZoom, math.Min(domain.MaxZoom, z))
}

// ZoomAt changes zoom while keeping the scene point under the screen point
// anchor fixed.
func ZoomAt(v View, zoom float64, anchor vector.Pt) View {
	zoom = ClampZoom(zoom)
	return View{
		Zoom:    zoom,
		ScrollX: v.ScrollX + anchor.X/zoom - anchor.X/v.Zoom,
		ScrollY: v.ScrollY + anchor.Y/zoom - anchor.Y/v.Zoom,
	}
}

// Step returns the next zoom level in direction dir (+1 or -1), rounded to
// the step grid.
func Step(zoom float64, dir int) float64 {
	next := math.Round((zoom+float64(dir)*ZoomStep)*10) / 10
	return math.Max(domain.MinZoom, math.Min(domain.MaxZoom, next))
}

// Effect runs when the machine enters or exits a state.
type Effect func(from, to State, v View)

// Option configures a Machine.
type Option func(*Machine)

// OnEnter registers fn to run when s is entered.
func OnEnter(s State, fn Effect) Option {
	return func(m *Machine) { m.enter[s] = append(m.enter[s], fn) }
}

// OnExit registers fn to run when s is left.
func OnExit(s State, fn Effect) Option {
	return func(m *Machine) { m.exit[s] = append(m.exit[s], fn) }
}

type handler func(m *Machine, ev Event) State

// Machine is the zoom/pan state machine. It is not safe for concurrent use;
// the editor serializes input.
type Machine struct {
	state State
	view  View
	enter map[State][]Effect
	exit  map[State][]Effect

	// gesture origin
	anchor    vector.Pt
	startView View
	startDist float64
}

// transitions maps each state to the events it accepts. Events missing from
// a state's table are ignored.
var transitions = map[State]map[EventType]handler{
	StateIdle: {
		PointerDown: (*Machine).beginPan,
		PinchStart:  (*Machine).beginPinch,
		Wheel:       (*Machine).wheel,
	},
	StatePanning: {
		PointerMove: (*Machine).pan,
		PointerUp:   toIdle,
		Cancel:      toIdle,
	},
	StateZooming: {
		PinchMove: (*Machine).pinch,
		PinchEnd:  toIdle,
		Cancel:    toIdle,
	},
}

// New returns a machine in the idle state showing v.
func New(v View, opts ...Option) *Machine {
	v.Zoom = ClampZoom(v.Zoom)
	m := &Machine{state: StateIdle, view: v, enter: map[State][]Effect{}, exit: map[State][]Effect{}}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Machine) State() State { return m.state }
func (m *Machine) View() View   { return m.view }

// SetView replaces the view, e.g. after a zoom action or undo.
func (m *Machine) SetView(v View) {
	v.Zoom = ClampZoom(v.Zoom)
	m.view = v
}

// Handle feeds one event to the machine and returns the resulting view.
func (m *Machine) Handle(ev Event) View {
	h, ok := transitions[m.state][ev.Type]
	if !ok {
		return m.view
	}
	if next := h(m, ev); next != m.state {
		m.transition(next)
	}
	return m.view
}

func (m *Machine) transition(next State) {
	from := m.state
	for _, fn := range m.exit[from] {
		fn(from, next, m.view)
	}
	m.state = next
	for _, fn := range m.enter[next] {
		fn(from, next, m.view)
	}
}

func (m *Machine) beginPan(ev Event) State {
	if ev.Button != ButtonMiddle && !ev.PanMode {
		return StateIdle
	}
	m.anchor = ev.point()
	m.startView = m.view
	return StatePanning
}

func (m *Machine) pan(ev Event) State {
	d := ev.point().Sub(m.anchor)
	m.view = View{
		Zoom:    m.startView.Zoom,
		ScrollX: m.startView.ScrollX + d.X/m.startView.Zoom,
		ScrollY: m.startView.ScrollY + d.Y/m.startView.Zoom,
	}
	return StatePanning
}

func (m *Machine) beginPinch(ev Event) State {
	if ev.Distance <= 0 {
		return StateIdle
	}
	m.anchor = ev.point()
	m.startView = m.view
	m.startDist = ev.Distance
	return StateZooming
}

func (m *Machine) pinch(ev Event) State {
	if ev.Distance <= 0 {
		return StateZooming
	}
	zoom := m.startView.Zoom * ev.Distance / m.startDist
	v := ZoomAt(m.startView, zoom, m.anchor)
	// the pinch center may drift while zooming
	d := ev.point().Sub(m.anchor)
	v.ScrollX += d.X / v.Zoom
	v.ScrollY += d.Y / v.Zoom
	m.view = v
	return StateZooming
}

func (m *Machine) wheel(ev Event) State {
	if ev.Ctrl {
		dir := 1
		if ev.DeltaY > 0 {
			dir = -1
		}
		m.view = ZoomAt(m.view, Step(m.view.Zoom, dir), ev.point())
		return StateIdle
	}
	m.view.ScrollX -= ev.DeltaX / m.view.Zoom
	m.view.ScrollY -= ev.DeltaY / m.view.Zoom
	return StateIdle
}

func toIdle(*Machine, Event) State { return StateIdle }
