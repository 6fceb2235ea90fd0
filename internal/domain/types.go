/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the layer record and the transient editor state shared by
// every engine package. JSON names follow the clipboard envelope so layers can
// be written to and read from it without an intermediate representation.

import (
	"encoding/json"
	"fmt"
)

// LayerType tags the variant of a layer.
type LayerType string

const (
	TypeRectangle LayerType = "rectangle"
	TypeEllipse   LayerType = "ellipse"
	TypeDiamond   LayerType = "diamond"
	TypeArrow     LayerType = "arrow"
	TypeLine      LayerType = "line"
	TypeFreedraw  LayerType = "freedraw"
	TypeText      LayerType = "text"
	TypeImage     LayerType = "image"
	TypeFrame     LayerType = "frame"
	TypeSelection LayerType = "selection"
)

// Valid reports whether t is one of the known layer types.
func (t LayerType) Valid() bool {
	switch t {
	case TypeRectangle, TypeEllipse, TypeDiamond, TypeArrow, TypeLine,
		TypeFreedraw, TypeText, TypeImage, TypeFrame, TypeSelection:
		return true
	}
	return false
}

type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

type VerticalAlign string

const (
	VAlignTop    VerticalAlign = "top"
	VAlignMiddle VerticalAlign = "middle"
	VAlignBottom VerticalAlign = "bottom"
)

// Point is a layer-relative coordinate. It serializes as a two element array.
type Point struct{ X, Y float64 }

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var v []float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if len(v) != 2 {
		return fmt.Errorf("point: want 2 coordinates, got %d", len(v))
	}
	p.X, p.Y = v[0], v[1]
	return nil
}

// BoundLayer is a weak reference from a layer to a layer bound to it.
// Type is TypeText for bound text and TypeArrow for arrow endpoints.
type BoundLayer struct {
	ID   string    `json:"id"`
	Type LayerType `json:"type"`
}

// PointBinding anchors a linear layer endpoint to a bindable layer.
// Focus is in [-1, 1] and Gap is the distance kept from the outline.
type PointBinding struct {
	LayerID string  `json:"layerId"`
	Focus   float64 `json:"focus"`
	Gap     float64 `json:"gap"`
}

// Layer is a single drawable scene record.
type Layer struct {
	ID     string    `json:"id"`
	Type   LayerType `json:"type"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Angle  float64   `json:"angle"`

	StrokeColor     string  `json:"strokeColor"`
	BackgroundColor string  `json:"backgroundColor"`
	FillStyle       string  `json:"fillStyle"`   // hachure, cross-hatch, solid
	StrokeStyle     string  `json:"strokeStyle"` // solid, dashed, dotted
	StrokeWidth     float64 `json:"strokeWidth"`
	Roughness       int     `json:"roughness"`
	Opacity         float64 `json:"opacity"` // 0..100

	GroupIDs    []string     `json:"groupIds"` // innermost first
	FrameID     string       `json:"frameId,omitempty"`
	BoundLayers []BoundLayer `json:"boundLayers,omitempty"`
	ContainerID string       `json:"containerId,omitempty"`
	IsDeleted   bool         `json:"isDeleted"`

	Seed         int64 `json:"seed"`
	Version      int   `json:"version"`
	VersionNonce int64 `json:"versionNonce"`
	Updated      int64 `json:"updated"` // unix millis

	Link   string `json:"link,omitempty"`
	Locked bool   `json:"locked"`

	// text
	Text          string        `json:"text,omitempty"`
	OriginalText  string        `json:"originalText,omitempty"`
	FontSize      float64       `json:"fontSize,omitempty"`
	FontFamily    int           `json:"fontFamily,omitempty"`
	TextAlign     TextAlign     `json:"textAlign,omitempty"`
	VerticalAlign VerticalAlign `json:"verticalAlign,omitempty"`
	LineHeight    float64       `json:"lineHeight,omitempty"`

	// linear
	Points             []Point       `json:"points,omitempty"`
	StartBinding       *PointBinding `json:"startBinding,omitempty"`
	EndBinding         *PointBinding `json:"endBinding,omitempty"`
	StartArrowhead     string        `json:"startArrowhead,omitempty"`
	EndArrowhead       string        `json:"endArrowhead,omitempty"`
	LastCommittedPoint *Point        `json:"lastCommittedPoint,omitempty"`

	// image
	FileID string `json:"fileId,omitempty"`
	Status string `json:"status,omitempty"` // pending, saved, error
	Scale  *Point `json:"scale,omitempty"`

	// frame
	Name string `json:"name,omitempty"`
}

// IsLinear reports whether the layer is defined by a point list.
func (l *Layer) IsLinear() bool {
	return l.Type == TypeArrow || l.Type == TypeLine || l.Type == TypeFreedraw
}

// IsTextContainer reports whether the layer can host a bound text.
func (l *Layer) IsTextContainer() bool {
	return l.Type == TypeRectangle || l.Type == TypeEllipse || l.Type == TypeDiamond
}

// IsBindable reports whether linear endpoints may bind to the layer.
// Text inside a container is not bindable on its own.
func (l *Layer) IsBindable() bool {
	switch l.Type {
	case TypeRectangle, TypeEllipse, TypeDiamond, TypeImage, TypeFrame:
		return true
	case TypeText:
		return l.ContainerID == ""
	}
	return false
}

// BoundTextID returns the id of the text bound to this container, if any.
func (l *Layer) BoundTextID() string {
	for _, b := range l.BoundLayers {
		if b.Type == TypeText {
			return b.ID
		}
	}
	return ""
}

// HasBoundLayer reports whether id is listed in BoundLayers.
func (l *Layer) HasBoundLayer(id string) bool {
	for _, b := range l.BoundLayers {
		if b.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	if l == nil {
		return nil
	}
	c := *l
	if l.GroupIDs != nil {
		c.GroupIDs = append(make([]string, 0, len(l.GroupIDs)), l.GroupIDs...)
	}
	if l.BoundLayers != nil {
		c.BoundLayers = append(make([]BoundLayer, 0, len(l.BoundLayers)), l.BoundLayers...)
	}
	if l.Points != nil {
		c.Points = append(make([]Point, 0, len(l.Points)), l.Points...)
	}
	if l.StartBinding != nil {
		b := *l.StartBinding
		c.StartBinding = &b
	}
	if l.EndBinding != nil {
		b := *l.EndBinding
		c.EndBinding = &b
	}
	if l.LastCommittedPoint != nil {
		p := *l.LastCommittedPoint
		c.LastCommittedPoint = &p
	}
	if l.Scale != nil {
		s := *l.Scale
		c.Scale = &s
	}
	return &c
}

// StyleSet holds the visual attributes copied by copyStyles.
type StyleSet struct {
	StrokeColor     string        `json:"strokeColor"`
	BackgroundColor string        `json:"backgroundColor"`
	FillStyle       string        `json:"fillStyle"`
	StrokeStyle     string        `json:"strokeStyle"`
	StrokeWidth     float64       `json:"strokeWidth"`
	Roughness       int           `json:"roughness"`
	Opacity         float64       `json:"opacity"`
	FontSize        float64       `json:"fontSize,omitempty"`
	FontFamily      int           `json:"fontFamily,omitempty"`
	TextAlign       TextAlign     `json:"textAlign,omitempty"`
	VerticalAlign   VerticalAlign `json:"verticalAlign,omitempty"`
	StartArrowhead  string        `json:"startArrowhead,omitempty"`
	EndArrowhead    string        `json:"endArrowhead,omitempty"`
}

// Style extracts the style attributes of l.
func (l *Layer) Style() StyleSet {
	return StyleSet{
		StrokeColor:     l.StrokeColor,
		BackgroundColor: l.BackgroundColor,
		FillStyle:       l.FillStyle,
		StrokeStyle:     l.StrokeStyle,
		StrokeWidth:     l.StrokeWidth,
		Roughness:       l.Roughness,
		Opacity:         l.Opacity,
		FontSize:        l.FontSize,
		FontFamily:      l.FontFamily,
		TextAlign:       l.TextAlign,
		VerticalAlign:   l.VerticalAlign,
		StartArrowhead:  l.StartArrowhead,
		EndArrowhead:    l.EndArrowhead,
	}
}

// BinaryFile is an image payload referenced by image layers through FileID.
type BinaryFile struct {
	ID       string `json:"id"`
	MimeType string `json:"mimeType"`
	DataURL  string `json:"dataURL"`
	Created  int64  `json:"created"`
}

// Files maps file ids to their payloads.
type Files map[string]BinaryFile
