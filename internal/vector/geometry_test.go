/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestRectNormalizeNegativeSize(t *testing.T) {
	r := R(100, 100, -40, -20).Normalize()
	if r.X != 60 || r.Y != 80 || r.W != 40 || r.H != 20 {
		t.Fatalf("unexpected normalized rect: %+v", r)
	}
}

func TestAffineBasicAndInvert(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 { // (1*2+10, 1*3+5)
		t.Fatalf("unexpected transform result: %+v", p)
	}
	back := m.Invert().Apply(p)
	if !back.Eq(Pt{1, 1}, 1e-9) {
		t.Fatalf("inverse did not round trip: %+v", back)
	}
}

func TestRotatePointAroundCenter(t *testing.T) {
	p := RotatePoint(Pt{2, 1}, Pt{1, 1}, math.Pi/2)
	if !p.Eq(Pt{1, 2}, 1e-9) {
		t.Fatalf("unexpected rotated point: %+v", p)
	}
}

func TestUnionAndBoundsOf(t *testing.T) {
	u := R(0, 0, 10, 10).Union(R(5, -5, 5, 10))
	if u.X != 0 || u.Y != -5 || u.W != 10 || u.H != 15 {
		t.Fatalf("unexpected union: %+v", u)
	}
	b := BoundsOf([]Pt{{3, 4}, {-1, 2}, {5, -6}})
	if b.X != -1 || b.Y != -6 || b.W != 6 || b.H != 10 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	if FloatRound(1.23456, 2) != 1.23 {
		t.Fatalf("float round fail")
	}
}

func TestHitShapes(t *testing.T) {
	r := R(0, 0, 100, 100)
	if !Hit(ShapeEllipse, r, 0, Pt{50, 50}, 0) {
		t.Fatalf("ellipse center should hit")
	}
	if Hit(ShapeEllipse, r, 0, Pt{2, 2}, 0) {
		t.Fatalf("ellipse corner should miss")
	}
	if Hit(ShapeDiamond, r, 0, Pt{10, 10}, 0) {
		t.Fatalf("diamond corner should miss")
	}
	if !Hit(ShapeRect, r, 0, Pt{105, 50}, 10) {
		t.Fatalf("rect should hit within tolerance")
	}
	if Hit(ShapeRect, r, 0, Pt{130, 50}, 10) {
		t.Fatalf("rect should miss outside tolerance")
	}
}

func TestDistanceToOutline(t *testing.T) {
	r := R(0, 0, 100, 100)
	if d := DistanceToOutline(ShapeRect, r, 0, Pt{120, 50}); math.Abs(d-20) > 1e-9 {
		t.Fatalf("rect distance = %v, want 20", d)
	}
	if d := DistanceToOutline(ShapeRect, r, 0, Pt{50, 10}); math.Abs(d-10) > 1e-9 {
		t.Fatalf("inner rect distance = %v, want 10", d)
	}
	if d := DistanceToSegment(Pt{5, 5}, Pt{0, 0}, Pt{10, 0}); d != 5 {
		t.Fatalf("segment distance = %v", d)
	}
}
