/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package clipboard

import (
	"strings"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/textlayout"
	"github.com/storiny/web-sub007/internal/vector"
)

// LineGap is the extra space between text layers created from pasted lines.
const LineGap = 10

// PasteOptions controls how pasted layers are prepared.
type PasteOptions struct {
	// PreserveIDs keeps ids and seeds of the envelope (shift-paste).
	PreserveIDs bool
	// At, when set, centers the pasted content on this scene point.
	At *vector.Pt
}

// PrepareLayers clones pasted layers for insertion. Unless PreserveIDs is set,
// every layer gets a fresh id and seed and group ids are regenerated, with
// container, bound layer, binding and frame references remapped. References
// to layers outside the pasted set are dropped either way.
func PrepareLayers(in []*domain.Layer, opts PasteOptions) []*domain.Layer {
	ids := make(map[string]string, len(in))
	groups := map[string]string{}
	out := make([]*domain.Layer, 0, len(in))
	for _, l := range in {
		if l == nil || l.IsDeleted || !l.Type.Valid() || l.Type == domain.TypeSelection {
			continue
		}
		c := l.Clone()
		if opts.PreserveIDs {
			ids[l.ID] = l.ID
		} else {
			c.ID = scene.NewID()
			c.Seed = scene.RandomSeed()
			c.VersionNonce = scene.RandomSeed()
			ids[l.ID] = c.ID
		}
		out = append(out, c)
	}
	remap := func(id string) string { return ids[id] }
	for _, c := range out {
		if c.GroupIDs == nil {
			c.GroupIDs = []string{}
		}
		if !opts.PreserveIDs {
			for i, g := range c.GroupIDs {
				ng, ok := groups[g]
				if !ok {
					ng = scene.NewID()
					groups[g] = ng
				}
				c.GroupIDs[i] = ng
			}
		}
		c.ContainerID = remap(c.ContainerID)
		c.FrameID = remap(c.FrameID)
		c.StartBinding = remapBinding(c.StartBinding, remap)
		c.EndBinding = remapBinding(c.EndBinding, remap)
		bound := c.BoundLayers[:0:0]
		for _, b := range c.BoundLayers {
			if nid := remap(b.ID); nid != "" {
				bound = append(bound, domain.BoundLayer{ID: nid, Type: b.Type})
			}
		}
		c.BoundLayers = bound
		if c.Type == domain.TypeText && c.ContainerID == "" && c.OriginalText != "" {
			c.Text = c.OriginalText
		}
	}
	if opts.At != nil && len(out) > 0 {
		center := scene.CommonBounds(out).Center()
		dx, dy := opts.At.X-center.X, opts.At.Y-center.Y
		for _, c := range out {
			c.X += dx
			c.Y += dy
		}
	}
	return out
}

func remapBinding(b *domain.PointBinding, remap func(string) string) *domain.PointBinding {
	if b == nil {
		return nil
	}
	id := remap(b.LayerID)
	if id == "" {
		return nil
	}
	nb := *b
	nb.LayerID = id
	return &nb
}

// TextLayers turns pasted text into text layers at (x, y). With splitLines
// every non-empty line becomes its own layer, stacked by the line height in
// pixels plus LineGap; a run of empty lines adds a single paragraph gap.
// Otherwise one layer holds the whole text.
func TextLayers(text string, x, y float64, st domain.StyleSet, p textlayout.Provider, splitLines bool) []*domain.Layer {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if !splitLines {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []*domain.Layer{scene.NewText(x, y, text, st, p)}
	}
	spec := textlayout.FontSpec{Size: st.FontSize, LineHeight: textlayout.DefaultLineHeight}
	if spec.Size <= 0 {
		spec.Size = 20
	}
	var out []*domain.Layer
	cur := y
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			l := scene.NewText(x, cur, line, st, p)
			out = append(out, l)
			cur += l.Height + LineGap
			continue
		}
		if i > 0 && strings.TrimSpace(lines[i-1]) != "" {
			cur += spec.LineHeightPx() + LineGap
		}
	}
	return out
}
