/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"time"

	"github.com/google/uuid"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/textlayout"
)

// NewID returns a fresh layer or group id.
func NewID() string { return uuid.NewString() }

func newBase(t domain.LayerType, x, y, w, h float64, st domain.StyleSet) *domain.Layer {
	return &domain.Layer{
		ID:              NewID(),
		Type:            t,
		X:               x,
		Y:               y,
		Width:           w,
		Height:          h,
		StrokeColor:     st.StrokeColor,
		BackgroundColor: st.BackgroundColor,
		FillStyle:       st.FillStyle,
		StrokeStyle:     st.StrokeStyle,
		StrokeWidth:     st.StrokeWidth,
		Roughness:       st.Roughness,
		Opacity:         st.Opacity,
		GroupIDs:        []string{},
		Seed:            RandomSeed(),
		Version:         1,
		VersionNonce:    RandomSeed(),
		Updated:         time.Now().UnixMilli(),
	}
}

// NewShape creates a rectangle, ellipse or diamond.
func NewShape(t domain.LayerType, x, y, w, h float64, st domain.StyleSet) *domain.Layer {
	return newBase(t, x, y, w, h, st)
}

// NewText creates a free-standing text layer sized to its content.
func NewText(x, y float64, text string, st domain.StyleSet, p textlayout.Provider) *domain.Layer {
	size := st.FontSize
	if size <= 0 {
		size = 20
	}
	spec := textlayout.FontSpec{Family: st.FontFamily, Size: size, LineHeight: textlayout.DefaultLineHeight}
	w, h := textlayout.Measure(p, text, spec)
	l := newBase(domain.TypeText, x, y, w, h, st)
	l.Text = text
	l.OriginalText = text
	l.FontSize = size
	l.FontFamily = st.FontFamily
	l.LineHeight = textlayout.DefaultLineHeight
	l.TextAlign = st.TextAlign
	if l.TextAlign == "" {
		l.TextAlign = domain.AlignLeft
	}
	l.VerticalAlign = domain.VAlignTop
	return l
}

// NewLinear creates a line, arrow or freedraw layer from points relative to
// (x, y).
func NewLinear(t domain.LayerType, x, y float64, pts []domain.Point, st domain.StyleSet) *domain.Layer {
	l := newBase(t, x, y, 0, 0, st)
	l.Points = append([]domain.Point(nil), pts...)
	if t == domain.TypeArrow {
		l.StartArrowhead = st.StartArrowhead
		l.EndArrowhead = st.EndArrowhead
	}
	SyncLinearDims(l)
	return l
}

// NewImage creates an image layer referencing fileID.
func NewImage(x, y, w, h float64, fileID string, st domain.StyleSet) *domain.Layer {
	l := newBase(domain.TypeImage, x, y, w, h, st)
	l.FileID = fileID
	l.Status = "pending"
	l.Scale = &domain.Point{X: 1, Y: 1}
	return l
}

// NewFrame creates a frame layer.
func NewFrame(x, y, w, h float64, name string) *domain.Layer {
	l := newBase(domain.TypeFrame, x, y, w, h, domain.StyleSet{StrokeColor: "#bbb", BackgroundColor: "transparent", FillStyle: "solid", StrokeStyle: "solid", StrokeWidth: 2, Opacity: 100})
	l.Name = name
	return l
}
