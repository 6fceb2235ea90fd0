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
	"testing"

	"github.com/storiny/web-sub007/internal/domain"
)

func containerWithText(t *testing.T) (*Store, *domain.Layer, *domain.Layer) {
	t.Helper()
	st := domain.DefaultAppState().CurrentItem
	c := NewShape(domain.TypeRectangle, 0, 0, 100, 100, st)
	txt := NewText(0, 0, "Hello", st, nil)
	txt.ContainerID = c.ID
	txt.TextAlign = domain.AlignCenter
	txt.VerticalAlign = domain.VAlignMiddle
	c.BoundLayers = []domain.BoundLayer{{ID: txt.ID, Type: domain.TypeText}}
	s := NewStore()
	s.ReplaceAll([]*domain.Layer{c, txt})
	s.RedrawBoundText(c.ID)
	return s, c, txt
}

func TestMutateUnknownIDIsNoop(t *testing.T) {
	s := NewStore()
	before := s.Nonce()
	if s.Mutate("missing", MoveBy(1, 1)) {
		t.Fatalf("mutating an unknown id must report false")
	}
	if s.Nonce() != before {
		t.Fatalf("nonce changed on no-op")
	}
}

func TestMutateBumpsVersionOnlyOnChange(t *testing.T) {
	l := NewShape(domain.TypeRectangle, 0, 0, 10, 10, domain.StyleSet{})
	s := NewStore()
	s.Insert(l)
	v := l.Version
	s.Mutate(l.ID, func(l *domain.Layer) { l.X = 0 })
	if l.Version != v {
		t.Fatalf("version bumped without change: %d -> %d", v, l.Version)
	}
	s.Mutate(l.ID, MoveBy(5, 0))
	if l.Version != v+1 || l.X != 5 {
		t.Fatalf("expected bump and move, got version %d x %v", l.Version, l.X)
	}
	s.Mutate(l.ID, func(l *domain.Layer) { l.ID = "hijack" })
	if s.Get(l.ID) == nil || l.ID == "hijack" {
		t.Fatalf("patch must not change the id")
	}
}

func TestMutateReflowsBoundText(t *testing.T) {
	s, c, txt := containerWithText(t)
	if math.Abs((txt.X+txt.Width/2)-50) > 1e-9 || math.Abs((txt.Y+txt.Height/2)-50) > 1e-9 {
		t.Fatalf("text not centered: %+v", txt)
	}
	s.Mutate(c.ID, func(l *domain.Layer) { l.Width = 200 })
	if math.Abs((txt.X+txt.Width/2)-100) > 1e-9 {
		t.Fatalf("text not recentered after resize: x=%v w=%v", txt.X, txt.Width)
	}
	x := txt.X
	s.Mutate(c.ID, MoveBy(50, 0), WithoutReflow())
	if txt.X != x {
		t.Fatalf("WithoutReflow must leave bound text alone")
	}
}

func TestRedrawBoundTextGrowsContainer(t *testing.T) {
	s, c, txt := containerWithText(t)
	s.Mutate(txt.ID, func(l *domain.Layer) { l.OriginalText = "one two three four five six seven eight nine ten" })
	s.RedrawBoundText(c.ID)
	if txt.Height <= 25 {
		t.Fatalf("expected wrapped text, height %v", txt.Height)
	}
	if c.Height < txt.Height+2*BoundTextPadding {
		t.Fatalf("container did not grow: %v for text %v", c.Height, txt.Height)
	}
}

func TestNewLayerWithLeavesOriginal(t *testing.T) {
	l := NewShape(domain.TypeEllipse, 1, 2, 3, 4, domain.StyleSet{})
	c := NewLayerWith(l, MoveBy(10, 0))
	if l.X != 1 || c.X != 11 || c.ID != l.ID || c.Version != l.Version+1 {
		t.Fatalf("unexpected copy-on-write result: orig=%+v copy=%+v", l, c)
	}
}

func TestNonDeletedCacheInvalidation(t *testing.T) {
	a := NewShape(domain.TypeRectangle, 0, 0, 1, 1, domain.StyleSet{})
	b := NewShape(domain.TypeRectangle, 0, 0, 1, 1, domain.StyleSet{})
	s := NewStore()
	s.ReplaceAll([]*domain.Layer{a, b})
	if len(s.NonDeleted()) != 2 {
		t.Fatalf("expected 2 live layers")
	}
	s.Mutate(a.ID, SetDeleted(true))
	if got := s.NonDeleted(); len(got) != 1 || got[0] != b {
		t.Fatalf("cache not invalidated: %v", got)
	}
	if s.Get(a.ID) == nil || s.GetLive(a.ID) != nil || s.Len() != 2 {
		t.Fatalf("tombstone must stay in the store")
	}
}

func TestRelationIndexFollowsMutations(t *testing.T) {
	r := NewShape(domain.TypeRectangle, 0, 0, 10, 10, domain.StyleSet{})
	a := NewLinear(domain.TypeArrow, 20, 0, []domain.Point{{X: 0, Y: 0}, {X: 50, Y: 0}}, domain.StyleSet{})
	a.StartBinding = &domain.PointBinding{LayerID: r.ID}
	s := NewStore()
	s.ReplaceAll([]*domain.Layer{r, a})
	if ids := s.Relations().DependentIDs(r.ID); len(ids) != 1 || ids[0] != a.ID {
		t.Fatalf("expected arrow as dependent, got %v", ids)
	}
	s.Mutate(a.ID, func(l *domain.Layer) { l.StartBinding = nil })
	if ids := s.Relations().DependentIDs(r.ID); len(ids) != 0 {
		t.Fatalf("index not updated: %v", ids)
	}
}

func TestSnapshotAndForkAreIndependent(t *testing.T) {
	l := NewShape(domain.TypeRectangle, 0, 0, 10, 10, domain.StyleSet{})
	s := NewStore()
	s.Insert(l)
	snap := s.Snapshot()
	f := s.Fork()
	f.Mutate(l.ID, MoveBy(3, 3))
	if l.X != 0 || snap[0].X != 0 || f.Get(l.ID).X != 3 {
		t.Fatalf("fork or snapshot aliases the store")
	}
}

func TestInsertAtAndIndexOf(t *testing.T) {
	a := NewShape(domain.TypeRectangle, 0, 0, 1, 1, domain.StyleSet{})
	b := NewShape(domain.TypeRectangle, 0, 0, 1, 1, domain.StyleSet{})
	s := NewStore()
	s.Insert(a)
	s.InsertAt(0, b)
	if s.IndexOf(b.ID) != 0 || s.IndexOf(a.ID) != 1 {
		t.Fatalf("unexpected order")
	}
	if s.Insert(a) {
		t.Fatalf("duplicate id must be rejected")
	}
}

func TestBoundsAndLinearDims(t *testing.T) {
	l := NewLinear(domain.TypeLine, 10, 10, []domain.Point{{X: 5, Y: 5}, {X: 25, Y: -5}}, domain.StyleSet{})
	if l.X != 15 || l.Y != 15 || l.Points[0] != (domain.Point{}) {
		t.Fatalf("points not rebased: %+v", l)
	}
	if l.Width != 20 || l.Height != 10 {
		t.Fatalf("dims = %v x %v", l.Width, l.Height)
	}
	sq := NewShape(domain.TypeRectangle, 0, 0, 10, 10, domain.StyleSet{})
	sq.Angle = math.Pi / 4
	b := LayerBounds(sq)
	d := 10 * math.Sqrt2
	if math.Abs(b.W-d) > 1e-9 || math.Abs(b.H-d) > 1e-9 {
		t.Fatalf("rotated bounds = %+v", b)
	}
	all := CommonBounds([]*domain.Layer{NewShape(domain.TypeRectangle, 0, 0, 10, 10, domain.StyleSet{}), NewShape(domain.TypeEllipse, 20, 5, 10, 20, domain.StyleSet{})})
	if all.X != 0 || all.Y != 0 || all.W != 30 || all.H != 25 {
		t.Fatalf("common bounds = %+v", all)
	}
}
