/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"math"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/vector"
)

// ShapeOf returns the hit-test outline of a layer.
func ShapeOf(l *domain.Layer) vector.Shape {
	switch l.Type {
	case domain.TypeEllipse:
		return vector.ShapeEllipse
	case domain.TypeDiamond:
		return vector.ShapeDiamond
	}
	return vector.ShapeRect
}

// UnrotatedRect returns the layer box before rotation. For linear layers it
// is the bounding box of the points.
func UnrotatedRect(l *domain.Layer) vector.Rect {
	if l.IsLinear() && len(l.Points) > 0 {
		pts := make([]vector.Pt, len(l.Points))
		for i, p := range l.Points {
			pts[i] = vector.Pt{X: l.X + p.X, Y: l.Y + p.Y}
		}
		return vector.BoundsOf(pts)
	}
	return vector.R(l.X, l.Y, l.Width, l.Height).Normalize()
}

// Center returns the rotation center of a layer.
func Center(l *domain.Layer) vector.Pt { return UnrotatedRect(l).Center() }

// AbsolutePoints returns the scene coordinates of a linear layer's points with
// rotation applied.
func AbsolutePoints(l *domain.Layer) []vector.Pt {
	c := Center(l)
	out := make([]vector.Pt, len(l.Points))
	for i, p := range l.Points {
		out[i] = vector.RotatePoint(vector.Pt{X: l.X + p.X, Y: l.Y + p.Y}, c, l.Angle)
	}
	return out
}

// LayerBounds returns the axis-aligned bounds of a layer after rotation.
func LayerBounds(l *domain.Layer) vector.Rect {
	r := UnrotatedRect(l)
	if l.Angle == 0 {
		return r
	}
	if l.IsLinear() && len(l.Points) > 0 {
		return vector.BoundsOf(AbsolutePoints(l))
	}
	c := r.Center()
	if l.Type == domain.TypeEllipse {
		a, b := r.W/2, r.H/2
		cos, sin := math.Cos(l.Angle), math.Sin(l.Angle)
		hw := math.Sqrt(a*a*cos*cos + b*b*sin*sin)
		hh := math.Sqrt(a*a*sin*sin + b*b*cos*cos)
		return vector.R(c.X-hw, c.Y-hh, 2*hw, 2*hh)
	}
	corners := []vector.Pt{r.Min(), {X: r.X + r.W, Y: r.Y}, r.Max(), {X: r.X, Y: r.Y + r.H}}
	if l.Type == domain.TypeDiamond {
		corners = []vector.Pt{{X: c.X, Y: r.Y}, {X: r.X + r.W, Y: c.Y}, {X: c.X, Y: r.Y + r.H}, {X: r.X, Y: c.Y}}
	}
	for i, p := range corners {
		corners[i] = vector.RotatePoint(p, c, l.Angle)
	}
	return vector.BoundsOf(corners)
}

// CommonBounds returns the union of the bounds of layers, or the zero rect.
func CommonBounds(layers []*domain.Layer) vector.Rect {
	var out vector.Rect
	for i, l := range layers {
		b := LayerBounds(l)
		if i == 0 {
			out = b
			continue
		}
		out = out.Union(b)
	}
	return out
}

// SyncLinearDims rebases a linear layer so its first point sits at the
// origin and Width/Height match the point extents.
func SyncLinearDims(l *domain.Layer) {
	if len(l.Points) == 0 {
		return
	}
	off := l.Points[0]
	if off.X != 0 || off.Y != 0 {
		for i := range l.Points {
			l.Points[i].X -= off.X
			l.Points[i].Y -= off.Y
		}
		l.X += off.X
		l.Y += off.Y
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range l.Points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	l.Width = maxX - minX
	l.Height = maxY - minY
}
