/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// ToolType names the active pointer tool.
type ToolType string

const (
	ToolSelection ToolType = "selection"
	ToolRectangle ToolType = "rectangle"
	ToolEllipse   ToolType = "ellipse"
	ToolDiamond   ToolType = "diamond"
	ToolArrow     ToolType = "arrow"
	ToolLine      ToolType = "line"
	ToolFreedraw  ToolType = "freedraw"
	ToolText      ToolType = "text"
	ToolImage     ToolType = "image"
	ToolFrame     ToolType = "frame"
	ToolEraser    ToolType = "eraser"
	ToolHand      ToolType = "hand"
)

// Tool is the active tool plus the tool to return to after a temporary one.
type Tool struct {
	Type           ToolType `json:"type"`
	Locked         bool     `json:"locked"`
	LastActiveTool ToolType `json:"lastActiveTool,omitempty"`
}

// KeepBinding marks a session endpoint whose existing binding survives commit.
const KeepBinding = "keep"

// PointerDownState is the linear editor's record of the last pointer press.
type PointerDownState struct {
	PrevSelectedPointsIndices []int  `json:"prevSelectedPointsIndices,omitempty"`
	LastClickedPoint          int    `json:"lastClickedPoint"`
	Origin                    *Point `json:"origin,omitempty"`
}

// LinearSession is the state of an active linear layer editing session.
// StartBindingLayer and EndBindingLayer hold a layer id, KeepBinding, or ""
// (unbind on commit).
type LinearSession struct {
	LayerID               string           `json:"layerId"`
	SelectedPointsIndices []int            `json:"selectedPointsIndices,omitempty"`
	StartBindingLayer     string           `json:"startBindingLayer"`
	EndBindingLayer       string           `json:"endBindingLayer"`
	PointerDownState      PointerDownState `json:"pointerDownState"`
	IsDragging            bool             `json:"isDragging"`
}

func (s *LinearSession) Clone() *LinearSession {
	if s == nil {
		return nil
	}
	c := *s
	c.SelectedPointsIndices = append([]int(nil), s.SelectedPointsIndices...)
	c.PointerDownState.PrevSelectedPointsIndices = append([]int(nil), s.PointerDownState.PrevSelectedPointsIndices...)
	if s.PointerDownState.Origin != nil {
		o := *s.PointerDownState.Origin
		c.PointerDownState.Origin = &o
	}
	return &c
}

// Toast is a transient user-visible notice.
type Toast struct {
	Message  string `json:"message"`
	Closable bool   `json:"closable"`
}

// Hyperlink popup modes.
const (
	HyperlinkInfo   = "info"
	HyperlinkEditor = "editor"
)

// AppState is the transient editing state. It is replaced, never mutated in
// place, when an action result is applied.
type AppState struct {
	ActiveTool         Tool            `json:"activeTool"`
	SelectedLayerIDs   map[string]bool `json:"selectedLayerIds"`
	SelectedGroupIDs   map[string]bool `json:"selectedGroupIds"`
	EditingGroupID     string          `json:"editingGroupId,omitempty"`
	EditingLinearLayer *LinearSession  `json:"editingLinearLayer,omitempty"`
	EditingTextLayerID string          `json:"editingTextLayerId,omitempty"`
	MultiLayerID       string          `json:"multiLayerId,omitempty"`

	Zoom    float64 `json:"zoom"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`

	ErrorMessage       string   `json:"errorMessage,omitempty"`
	Toast              *Toast   `json:"toast,omitempty"`
	SuggestedBindings  []string `json:"suggestedBindings,omitempty"`
	ShowHyperlinkPopup string   `json:"showHyperlinkPopup,omitempty"`

	ViewBackgroundColor string  `json:"viewBackgroundColor"`
	ExportBackground    bool    `json:"exportBackground"`
	ExportWithDarkMode  bool    `json:"exportWithDarkMode"`
	ExportScale         float64 `json:"exportScale"`
	ExportPadding       float64 `json:"exportPadding"`

	// CurrentItem is the style applied to newly created layers.
	CurrentItem StyleSet `json:"currentItem"`
}

// Zoom bounds.
const (
	MinZoom = 0.1
	MaxZoom = 30.0
)

// DefaultExportPadding is the padding around exported content in pixels.
const DefaultExportPadding = 10

// DefaultAppState returns the state of a freshly mounted editor.
func DefaultAppState() *AppState {
	return &AppState{
		ActiveTool:          Tool{Type: ToolSelection},
		SelectedLayerIDs:    map[string]bool{},
		SelectedGroupIDs:    map[string]bool{},
		Zoom:                1,
		ViewBackgroundColor: "#ffffff",
		ExportBackground:    true,
		ExportScale:         1,
		ExportPadding:       DefaultExportPadding,
		CurrentItem: StyleSet{
			StrokeColor:     "#1e1e1e",
			BackgroundColor: "transparent",
			FillStyle:       "hachure",
			StrokeStyle:     "solid",
			StrokeWidth:     1,
			Roughness:       1,
			Opacity:         100,
			FontSize:        20,
			FontFamily:      1,
			TextAlign:       AlignLeft,
			VerticalAlign:   VAlignTop,
			EndArrowhead:    "arrow",
		},
	}
}

// Clone returns a deep copy so results can be built without aliasing.
func (s *AppState) Clone() *AppState {
	if s == nil {
		return nil
	}
	c := *s
	c.SelectedLayerIDs = cloneSet(s.SelectedLayerIDs)
	c.SelectedGroupIDs = cloneSet(s.SelectedGroupIDs)
	c.EditingLinearLayer = s.EditingLinearLayer.Clone()
	if s.Toast != nil {
		t := *s.Toast
		c.Toast = &t
	}
	c.SuggestedBindings = append([]string(nil), s.SuggestedBindings...)
	return &c
}

// SelectedIDs returns ids selected in the state, in no particular order.
func (s *AppState) SelectedIDs() []string {
	out := make([]string, 0, len(s.SelectedLayerIDs))
	for id, ok := range s.SelectedLayerIDs {
		if ok {
			out = append(out, id)
		}
	}
	return out
}

func cloneSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		if v {
			out[k] = v
		}
	}
	return out
}

// IDSet builds a selection map from ids.
func IDSet(ids ...string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
