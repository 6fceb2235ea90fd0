/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package selection derives the working set of layers from the app state:
// selected ids, groups, frames and the edit-group scope.
package selection

import "github.com/storiny/web-sub007/internal/domain"

// Options widens GetSelectedLayers beyond the explicitly selected ids.
type Options struct {
	// IncludeBoundTextLayer adds the bound text of selected containers.
	IncludeBoundTextLayer bool
	// IncludeLayersInFrames adds the children of selected frames.
	IncludeLayersInFrames bool
}

// GetSelectedLayers returns the live layers selected in app, in z-order.
func GetSelectedLayers(layers []*domain.Layer, app *domain.AppState, opts Options) []*domain.Layer {
	sel := app.SelectedLayerIDs
	if len(sel) == 0 {
		return nil
	}
	var out []*domain.Layer
	for _, l := range layers {
		if l.IsDeleted {
			continue
		}
		switch {
		case sel[l.ID]:
		case opts.IncludeBoundTextLayer && l.ContainerID != "" && sel[l.ContainerID]:
		case opts.IncludeLayersInFrames && l.FrameID != "" && sel[l.FrameID]:
		default:
			continue
		}
		out = append(out, l)
	}
	return out
}

// IsSomeLayerSelected reports whether any live layer is selected.
func IsSomeLayerSelected(layers []*domain.Layer, app *domain.AppState) bool {
	for _, l := range layers {
		if !l.IsDeleted && app.SelectedLayerIDs[l.ID] {
			return true
		}
	}
	return false
}

// GetTargetLayers returns what an action should operate on: the layer being
// edited as text or as a linear layer, else the selection with bound text.
func GetTargetLayers(layers []*domain.Layer, app *domain.AppState) []*domain.Layer {
	editing := app.EditingTextLayerID
	if editing == "" && app.EditingLinearLayer != nil {
		editing = app.EditingLinearLayer.LayerID
	}
	if editing != "" {
		for _, l := range layers {
			if l.ID == editing && !l.IsDeleted {
				return []*domain.Layer{l}
			}
		}
	}
	return GetSelectedLayers(layers, app, Options{IncludeBoundTextLayer: true})
}

// IDs returns the ids of layers.
func IDs(layers []*domain.Layer) []string {
	out := make([]string, len(layers))
	for i, l := range layers {
		out[i] = l.ID
	}
	return out
}

// LayersInFrame returns the live children of a frame.
func LayersInFrame(layers []*domain.Layer, frameID string) []*domain.Layer {
	var out []*domain.Layer
	for _, l := range layers {
		if !l.IsDeleted && l.FrameID == frameID {
			out = append(out, l)
		}
	}
	return out
}
