/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package binding

import (
	"math"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/vector"
)

// DefaultThreshold is the binding distance in screen pixels at zoom 1.
const DefaultThreshold = 15.0

// Threshold converts a screen-space binding distance to scene units.
func Threshold(base, zoom float64) float64 {
	if base <= 0 {
		base = DefaultThreshold
	}
	if zoom <= 0 {
		zoom = 1
	}
	return base / zoom
}

// Endpoint selects one end of a linear layer.
type Endpoint int

const (
	Start Endpoint = iota
	End
)

// IsBindingLayer reports whether l is a linear layer whose ends can bind.
func IsBindingLayer(l *domain.Layer) bool {
	return l != nil && (l.Type == domain.TypeArrow || l.Type == domain.TypeLine)
}

// HoveredBindable returns the topmost bindable layer within threshold of p,
// skipping the ids in exclude. threshold is already in scene units.
func HoveredBindable(s *scene.Store, p vector.Pt, threshold float64, exclude ...string) *domain.Layer {
	live := s.NonDeleted()
	for i := len(live) - 1; i >= 0; i-- {
		l := live[i]
		if !l.IsBindable() || contains(exclude, l.ID) {
			continue
		}
		if vector.Hit(scene.ShapeOf(l), scene.UnrotatedRect(l), l.Angle, p, threshold) {
			return l
		}
	}
	return nil
}

// EndpointPos returns the absolute position of an end of a linear layer.
func EndpointPos(l *domain.Layer, end Endpoint) (vector.Pt, bool) {
	if len(l.Points) < 2 {
		return vector.Pt{}, false
	}
	pts := scene.AbsolutePoints(l)
	if end == Start {
		return pts[0], true
	}
	return pts[len(pts)-1], true
}

// Targets returns the ids the two ends of linearID would bind to at commit.
func Targets(s *scene.Store, linearID string, threshold float64) (start, end string) {
	l := s.GetLive(linearID)
	if !IsBindingLayer(l) {
		return "", ""
	}
	for _, e := range []Endpoint{Start, End} {
		p, ok := EndpointPos(l, e)
		if !ok {
			continue
		}
		if h := HoveredBindable(s, p, threshold, linearID); h != nil {
			if e == Start {
				start = h.ID
			} else {
				end = h.ID
			}
		}
	}
	return start, end
}

// SuggestedBindings lists the layers the ends of linearID hover while
// dragging. Nothing is written to the scene.
func SuggestedBindings(s *scene.Store, linearID string, threshold float64) []string {
	start, end := Targets(s, linearID, threshold)
	var out []string
	if start != "" {
		out = append(out, start)
	}
	if end != "" && end != start {
		out = append(out, end)
	}
	return out
}

// BindOrUnbindLinear commits the bindings of a linear layer. Each target is a
// layer id to bind to, "" to unbind, or domain.KeepBinding to leave the end
// as it is.
func BindOrUnbindLinear(s *scene.Store, linearID, startTarget, endTarget string) {
	l := s.GetLive(linearID)
	if !IsBindingLayer(l) {
		return
	}
	apply := func(end Endpoint, target string) {
		switch target {
		case domain.KeepBinding:
		case "":
			unbindEnd(s, linearID, end)
		default:
			bindEnd(s, linearID, target, end)
		}
	}
	apply(Start, startTarget)
	apply(End, endTarget)
}

func bindEnd(s *scene.Store, linearID, targetID string, end Endpoint) {
	l := s.GetLive(linearID)
	t := s.GetLive(targetID)
	if l == nil || t == nil || !t.IsBindable() || targetID == linearID {
		return
	}
	if cur := endBinding(l, end); cur != nil && cur.LayerID != targetID {
		unbindEnd(s, linearID, end)
	}
	b := computeBinding(l, t, end)
	s.Mutate(linearID, func(x *domain.Layer) {
		if end == Start {
			x.StartBinding = &b
		} else {
			x.EndBinding = &b
		}
	})
	if !t.HasBoundLayer(linearID) {
		s.Mutate(targetID, func(x *domain.Layer) {
			x.BoundLayers = append(x.BoundLayers, domain.BoundLayer{ID: linearID, Type: domain.TypeArrow})
		}, scene.WithoutReflow())
	}
}

func unbindEnd(s *scene.Store, linearID string, end Endpoint) {
	l := s.Get(linearID)
	if l == nil {
		return
	}
	cur := endBinding(l, end)
	if cur == nil {
		return
	}
	target := cur.LayerID
	s.Mutate(linearID, func(x *domain.Layer) {
		if end == Start {
			x.StartBinding = nil
		} else {
			x.EndBinding = nil
		}
	})
	// the other end may still hold the same target
	if other := endBinding(l, 1-end); other != nil && other.LayerID == target {
		return
	}
	s.Mutate(target, func(x *domain.Layer) { x.BoundLayers = removeBound(x.BoundLayers, linearID) }, scene.WithoutReflow())
}

func endBinding(l *domain.Layer, end Endpoint) *domain.PointBinding {
	if end == Start {
		return l.StartBinding
	}
	return l.EndBinding
}

// computeBinding derives focus and gap for an end of l resting near t. Focus
// is the signed offset of t's center from the end segment, normalized by
// half of t's diagonal.
func computeBinding(l, t *domain.Layer, end Endpoint) domain.PointBinding {
	pts := scene.AbsolutePoints(l)
	p, adj := pts[0], pts[1]
	if end == End {
		p, adj = pts[len(pts)-1], pts[len(pts)-2]
	}
	r := scene.UnrotatedRect(t)
	c := r.Center()
	gap := 0.0
	if !vector.Hit(scene.ShapeOf(t), r, t.Angle, p, 0) {
		gap = vector.DistanceToOutline(scene.ShapeOf(t), r, t.Angle, p)
	}
	dir := p.Sub(adj)
	n := math.Hypot(dir.X, dir.Y)
	half := math.Hypot(r.W, r.H) / 2
	focus := 0.0
	if n > 0 && half > 0 {
		ac := c.Sub(adj)
		cross := (ac.X*dir.Y - ac.Y*dir.X) / n
		focus = math.Max(-1, math.Min(1, cross/half))
	}
	return domain.PointBinding{LayerID: t.ID, Focus: vector.FloatRound(focus, 6), Gap: vector.FloatRound(gap, 6)}
}

// UpdateBoundArrows moves the bound ends of every linear layer attached to
// shapeID so they keep resting on the shape after it moved or resized.
func UpdateBoundArrows(s *scene.Store, shapeID string) {
	t := s.GetLive(shapeID)
	if t == nil {
		return
	}
	for _, ref := range s.Relations().Dependents(shapeID) {
		if ref.Kind != scene.RelStartBinding && ref.Kind != scene.RelEndBinding {
			continue
		}
		l := s.GetLive(ref.From)
		if l == nil || len(l.Points) < 2 {
			continue
		}
		end := Start
		if ref.Kind == scene.RelEndBinding {
			end = End
		}
		b := endBinding(l, end)
		if b == nil {
			continue
		}
		p := restingPoint(l, t, end, *b)
		moveEndTo(s, l.ID, end, p)
	}
}

// restingPoint finds where an end bound to t should sit: on the ray from the
// adjacent point towards t's focus point, at distance gap from the outline.
func restingPoint(l, t *domain.Layer, end Endpoint, b domain.PointBinding) vector.Pt {
	pts := scene.AbsolutePoints(l)
	adj := pts[1]
	if end == End {
		adj = pts[len(pts)-2]
	}
	r := scene.UnrotatedRect(t)
	c := r.Center()
	half := math.Hypot(r.W, r.H) / 2
	dir := c.Sub(adj)
	n := math.Hypot(dir.X, dir.Y)
	if n == 0 {
		return c
	}
	perp := vector.Pt{X: -dir.Y / n, Y: dir.X / n}
	target := c.Add(perp.Scale(b.Focus * half))
	shape := scene.ShapeOf(t)
	if vector.Hit(shape, r, t.Angle, adj, b.Gap) {
		return target
	}
	// bisect the segment adj..target for the first point within gap
	lo, hi := 0.0, 1.0
	seg := target.Sub(adj)
	for i := 0; i < 40; i++ {
		mid := (lo + hi) / 2
		if vector.Hit(shape, r, t.Angle, adj.Add(seg.Scale(mid)), b.Gap) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return adj.Add(seg.Scale(hi))
}

// moveEndTo places one end of l at the absolute point p.
func moveEndTo(s *scene.Store, id string, end Endpoint, p vector.Pt) {
	l := s.Get(id)
	c := scene.Center(l)
	// undo the layer rotation to get back into point space
	local := vector.RotatePoint(p, c, -l.Angle)
	rel := domain.Point{X: local.X - l.X, Y: local.Y - l.Y}
	s.Mutate(id, func(x *domain.Layer) {
		if end == Start {
			x.Points[0] = rel
		} else {
			x.Points[len(x.Points)-1] = rel
		}
		scene.SyncLinearDims(x)
	})
}

// FixBindingsAfterDeletion removes references to the deleted ids from the
// surviving layers: endpoint bindings pointing at them are cleared, they are
// dropped from containers' BoundLayers, frame children are released and
// text bound inside a deleted container is tombstoned with it.
func FixBindingsAfterDeletion(s *scene.Store, deletedIDs []string) {
	deleted := make(map[string]bool, len(deletedIDs))
	for _, id := range deletedIDs {
		deleted[id] = true
	}
	for _, id := range deletedIDs {
		for _, ref := range s.Relations().Dependents(id) {
			if deleted[ref.From] {
				continue
			}
			switch ref.Kind {
			case scene.RelStartBinding:
				s.Mutate(ref.From, func(l *domain.Layer) { l.StartBinding = nil })
			case scene.RelEndBinding:
				s.Mutate(ref.From, func(l *domain.Layer) { l.EndBinding = nil })
			case scene.RelFrame:
				s.Mutate(ref.From, func(l *domain.Layer) { l.FrameID = "" })
			case scene.RelContainer:
				s.Mutate(ref.From, scene.SetDeleted(true))
			}
		}
		d := s.Get(id)
		if d == nil {
			continue
		}
		for _, target := range []string{d.ContainerID, bindingTarget(d.StartBinding), bindingTarget(d.EndBinding)} {
			if target == "" || deleted[target] {
				continue
			}
			s.Mutate(target, func(l *domain.Layer) { l.BoundLayers = removeBound(l.BoundLayers, id) }, scene.WithoutReflow())
		}
	}
}

func bindingTarget(b *domain.PointBinding) string {
	if b == nil {
		return ""
	}
	return b.LayerID
}

// RebindAfterFlip re-evaluates the bindings touched by a flip of ids. Bound
// ends of flipped linear layers rebind to whatever they now rest on, or
// unbind. Arrows bound to flipped shapes follow their targets.
func RebindAfterFlip(s *scene.Store, ids []string, threshold float64) {
	flipped := make(map[string]bool, len(ids))
	for _, id := range ids {
		flipped[id] = true
	}
	for _, id := range ids {
		l := s.GetLive(id)
		if l == nil {
			continue
		}
		if IsBindingLayer(l) {
			if l.StartBinding == nil && l.EndBinding == nil {
				continue
			}
			start, end := Targets(s, id, threshold)
			if l.StartBinding == nil {
				start = domain.KeepBinding
			}
			if l.EndBinding == nil {
				end = domain.KeepBinding
			}
			BindOrUnbindLinear(s, id, start, end)
			continue
		}
		for _, ref := range s.Relations().Dependents(id) {
			if (ref.Kind == scene.RelStartBinding || ref.Kind == scene.RelEndBinding) && !flipped[ref.From] {
				UpdateBoundArrows(s, id)
				break
			}
		}
	}
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
