/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package actions

import (
	"math"

	"github.com/storiny/web-sub007/internal/binding"
	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
)

// FlipAxis selects the mirror direction.
type FlipAxis int

const (
	FlipHorizontal FlipAxis = iota
	FlipVertical
)

// Flip mirrors layers inside their common bounding box, which stays where
// it is. Bound text follows its container; bindings are re-evaluated.
func Flip(s *scene.Store, layers []*domain.Layer, axis FlipAxis, threshold float64) {
	var targets []*domain.Layer
	in := idSet(layers)
	for _, l := range layers {
		if l.ContainerID != "" && in[l.ContainerID] {
			continue
		}
		targets = append(targets, l)
	}
	if len(targets) == 0 {
		return
	}
	b := scene.CommonBounds(targets)
	sumX, sumY := 2*b.X+b.W, 2*b.Y+b.H
	ids := make([]string, 0, len(targets))
	for _, l := range targets {
		ids = append(ids, l.ID)
		s.Mutate(l.ID, func(x *domain.Layer) {
			// mirror the center, the size is unchanged
			if x.IsLinear() {
				flipPoints(x, axis, sumX, sumY)
				return
			}
			cx, cy := x.X+x.Width/2, x.Y+x.Height/2
			if axis == FlipHorizontal {
				x.X = sumX - cx - x.Width/2
			} else {
				x.Y = sumY - cy - x.Height/2
			}
			x.Angle = normalizeAngle(-x.Angle)
		})
	}
	binding.RebindAfterFlip(s, ids, threshold)
}

func flipPoints(x *domain.Layer, axis FlipAxis, sumX, sumY float64) {
	// work in absolute coordinates so rotation is honoured
	pts := scene.AbsolutePoints(x)
	abs := make([]domain.Point, len(pts))
	for i, p := range pts {
		if axis == FlipHorizontal {
			abs[i] = domain.Point{X: sumX - p.X, Y: p.Y}
		} else {
			abs[i] = domain.Point{X: p.X, Y: sumY - p.Y}
		}
	}
	x.Angle = 0
	x.X, x.Y = abs[0].X, abs[0].Y
	for i := range abs {
		abs[i].X -= x.X
		abs[i].Y -= x.Y
	}
	x.Points = abs
	scene.SyncLinearDims(x)
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func flipAction(name string, chord domain.KeyEvent, axis FlipAxis) *Action {
	return &Action{
		Name:       name,
		TrackEvent: "layer",
		Chords:     []domain.KeyEvent{chord},
		Predicate:  hasSelection,
		Perform: func(s *scene.Store, app *domain.AppState, _ any, env *Env) Result {
			sel := selectedUnlocked(s, app)
			if len(sel) == 0 {
				return Result{}
			}
			Flip(s, sel, axis, env.threshold(app.Zoom))
			return changed(s, app, true)
		},
	}
}

var (
	FlipH = flipAction("flipHorizontal", shift("h"), FlipHorizontal)
	FlipV = flipAction("flipVertical", shift("v"), FlipVertical)
)
