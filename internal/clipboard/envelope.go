/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package clipboard converts layer subsets to and from the transferable JSON
// envelope and moves them through the system clipboard, falling back to an
// in-process copy when the system clipboard is unavailable.
package clipboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"github.com/storiny/web-sub007/internal/domain"
)

// Envelope type tags.
const (
	TypeClipboard = "excalidraw/clipboard"
	TypeScene     = "excalidraw"
)

// SVGSourceMarker is embedded in exported SVG documents. Clipboard text
// carrying it is an export, not a layer envelope.
const SVGSourceMarker = "<!-- svg-source:excalidraw -->"

// ErrInvalidEnvelope is returned by Decode for payloads that are not a
// layer envelope.
var ErrInvalidEnvelope = errors.New("invalid clipboard envelope")

// Envelope is the clipboard payload.
type Envelope struct {
	Type   string          `json:"type"`
	Layers []*domain.Layer `json:"layers"`
	Files  domain.Files    `json:"files,omitempty"`
}

// BuildEnvelope wraps the live layers. Files are restricted to those
// referenced by image layers of the set.
func BuildEnvelope(layers []*domain.Layer, files domain.Files) Envelope {
	env := Envelope{Type: TypeClipboard, Layers: make([]*domain.Layer, 0, len(layers))}
	for _, l := range layers {
		if l == nil || l.IsDeleted {
			continue
		}
		env.Layers = append(env.Layers, l)
		if l.Type != domain.TypeImage || l.FileID == "" {
			continue
		}
		if f, ok := files[l.FileID]; ok {
			if env.Files == nil {
				env.Files = domain.Files{}
			}
			env.Files[l.FileID] = f
		}
	}
	return env
}

// Encode serializes the envelope.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

const envelopeSchema = `{
  "type": "object",
  "required": ["type", "layers"],
  "properties": {
    "type": {"enum": ["excalidraw/clipboard", "excalidraw"]},
    "layers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "x", "y"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"enum": ["rectangle", "ellipse", "diamond", "arrow", "line", "freedraw", "text", "image", "frame", "selection"]},
          "x": {"type": "number"},
          "y": {"type": "number"},
          "width": {"type": "number"},
          "height": {"type": "number"},
          "points": {"type": "array", "items": {"type": "array", "minItems": 2, "maxItems": 2, "items": {"type": "number"}}}
        }
      }
    },
    "files": {"type": "object"}
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	})
	return schema, schemaErr
}

// Validate checks data against the envelope schema.
func Validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile envelope schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidEnvelope, strings.Join(msgs, "; "))
	}
	return nil
}

// Decode validates and parses an envelope.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := Validate(data); err != nil {
		return env, err
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return env, nil
}
