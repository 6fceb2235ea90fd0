/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package actions

import (
	"context"
	"log/slog"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
)

// AddToLibrary stores a copy of the selection as a library item. The copy is
// taken when the action runs; the outcome is reported on whatever state the
// editor holds once the store answers.
var AddToLibrary = &Action{
	Name:       "addToLibrary",
	TrackEvent: "layer",
	Predicate: func(s *scene.Store, app *domain.AppState, env *Env) bool {
		return env != nil && env.Library != nil && len(selected(s, app)) > 0
	},
	Perform: func(s *scene.Store, app *domain.AppState, _ any, env *Env) Result {
		sel := selected(s, app)
		if len(sel) == 0 || env.Library == nil {
			return Result{}
		}
		snapshot := make([]*domain.Layer, len(sel))
		for i, l := range sel {
			snapshot[i] = l.Clone()
		}
		lib := env.Library
		log := env.logger()
		return env.async(s, app, func(ctx context.Context) Continuation {
			item, err := lib.Add(ctx, snapshot)
			return func(_ *scene.Store, cur *domain.AppState) Result {
				if err != nil {
					log.Warn("add to library failed", slog.Any("err", err))
					return withError(cur, "Couldn't add to library: "+err.Error())
				}
				log.Debug("added to library", slog.String("item", item.ID))
				return Result{AppState: withToast(cur, "Added to library")}
			}
		})
	},
}
