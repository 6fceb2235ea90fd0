/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// Shape selects the outline used by hit-testing.
type Shape uint8

const (
	ShapeRect Shape = iota
	ShapeEllipse
	ShapeDiamond
)

// Hit reports whether p lies inside the shape inscribed in r after the shape
// is rotated by angle around the rect center. tolerance grows the outline
// outward so that points near the edge still hit.
func Hit(shape Shape, r Rect, angle float64, p Pt, tolerance float64) bool {
	r = r.Normalize()
	// inverse-rotate p into the shape's unrotated frame
	q := RotatePoint(p, r.Center(), -angle)
	grown := r.Inset(-tolerance, -tolerance)
	if !grown.Contains(q) {
		return false
	}
	switch shape {
	case ShapeEllipse:
		// point-in-ellipse: ((x-cx)/rx)^2 + ((y-cy)/ry)^2 <= 1
		c := r.Center()
		rx := r.W/2 + tolerance
		ry := r.H/2 + tolerance
		if rx <= 0 || ry <= 0 {
			return false
		}
		dx := (q.X - c.X) / rx
		dy := (q.Y - c.Y) / ry
		return dx*dx+dy*dy <= 1
	case ShapeDiamond:
		// |x-cx|/hw + |y-cy|/hh <= 1
		c := r.Center()
		hw := r.W/2 + tolerance
		hh := r.H/2 + tolerance
		if hw <= 0 || hh <= 0 {
			return false
		}
		return math.Abs(q.X-c.X)/hw+math.Abs(q.Y-c.Y)/hh <= 1
	default:
		return true
	}
}

// DistanceToOutline approximates the distance from p to the outline of the
// shape. Points inside the shape report the distance to the nearest edge.
func DistanceToOutline(shape Shape, r Rect, angle float64, p Pt) float64 {
	r = r.Normalize()
	q := RotatePoint(p, r.Center(), -angle)
	switch shape {
	case ShapeEllipse:
		c := r.Center()
		rx, ry := r.W/2, r.H/2
		if rx == 0 || ry == 0 {
			return q.Dist(c)
		}
		// scale into unit circle space, measure, scale back by the mean radius
		d := Pt{(q.X - c.X) / rx, (q.Y - c.Y) / ry}
		n := math.Hypot(d.X, d.Y)
		return math.Abs(n-1) * (rx + ry) / 2
	case ShapeDiamond:
		c := r.Center()
		top := Pt{c.X, r.Y}
		right := Pt{r.X + r.W, c.Y}
		bottom := Pt{c.X, r.Y + r.H}
		left := Pt{r.X, c.Y}
		return minOf(
			DistanceToSegment(q, top, right),
			DistanceToSegment(q, right, bottom),
			DistanceToSegment(q, bottom, left),
			DistanceToSegment(q, left, top),
		)
	default:
		tl, tr := r.Min(), Pt{r.X + r.W, r.Y}
		br, bl := r.Max(), Pt{r.X, r.Y + r.H}
		return minOf(
			DistanceToSegment(q, tl, tr),
			DistanceToSegment(q, tr, br),
			DistanceToSegment(q, br, bl),
			DistanceToSegment(q, bl, tl),
		)
	}
}

// DistanceToSegment returns the distance from p to the segment a-b.
func DistanceToSegment(p, a, b Pt) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(a.Add(ab.Scale(t)))
}

func minOf(v float64, rest ...float64) float64 {
	for _, r := range rest {
		if r < v {
			v = r
		}
	}
	return v
}
