/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package actions

import (
	"github.com/storiny/web-sub007/internal/binding"
	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
)

// moveOne shifts every selected layer one live layer up (dir > 0) or down,
// skipping over tombstones. Selected runs move as a block.
func moveOne(layers []*domain.Layer, sel map[string]bool, dir int) ([]*domain.Layer, bool) {
	out := append([]*domain.Layer(nil), layers...)
	n := len(out)
	moved := false
	if dir > 0 {
		for i := n - 1; i >= 0; i-- {
			if !sel[out[i].ID] {
				continue
			}
			j := i + 1
			for j < n && out[j].IsDeleted && !sel[out[j].ID] {
				j++
			}
			if j >= n || sel[out[j].ID] {
				continue
			}
			l := out[i]
			copy(out[i:j], out[i+1:j+1])
			out[j] = l
			moved = true
		}
		return out, moved
	}
	for i := 0; i < n; i++ {
		if !sel[out[i].ID] {
			continue
		}
		j := i - 1
		for j >= 0 && out[j].IsDeleted && !sel[out[j].ID] {
			j--
		}
		if j < 0 || sel[out[j].ID] {
			continue
		}
		l := out[i]
		copy(out[j+1:i+1], out[j:i])
		out[j] = l
		moved = true
	}
	return out, moved
}

func reorder(name string, chord domain.KeyEvent, dir int) *Action {
	return &Action{
		Name:       name,
		TrackEvent: "layer",
		Chords:     []domain.KeyEvent{chord},
		Predicate:  hasSelection,
		Perform: func(s *scene.Store, app *domain.AppState, _ any, _ *Env) Result {
			sel := idSet(selectedUnlocked(s, app))
			if len(sel) == 0 {
				return Result{}
			}
			out, moved := moveOne(s.Layers(), sel, dir)
			if !moved {
				return Result{}
			}
			s.ReplaceAll(out)
			binding.FixTextOrder(s)
			return changed(s, app, true)
		},
	}
}

var (
	BringForward = reorder("bringForward", ctrl(domain.KeyBracketRight), 1)
	SendBackward = reorder("sendBackward", ctrl(domain.KeyBracketLeft), -1)
)
