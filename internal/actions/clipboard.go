/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package actions

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/storiny/web-sub007/internal/binding"
	"github.com/storiny/web-sub007/internal/clipboard"
	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/selection"
	"github.com/storiny/web-sub007/internal/vector"
)

// PasteValue is the value passed to the paste action.
type PasteValue struct {
	// Event carries the pasted text; nil reads the clipboard.
	Event *clipboard.PasteEvent
	// PreserveIDs keeps ids and seeds (shift-paste).
	PreserveIDs bool
	// PlainText skips spreadsheet detection and accepts exported SVG as layers.
	PlainText bool
	// SplitLines makes one text layer per non-empty line.
	SplitLines bool
	// At is the scene point to paste at; nil uses the viewport origin.
	At *vector.Pt
}

func copyLayers(s *scene.Store, app *domain.AppState) []*domain.Layer {
	return selection.GetSelectedLayers(s.NonDeleted(), app, selection.Options{IncludeBoundTextLayer: true, IncludeLayersInFrames: true})
}

// Copy writes the selection to the clipboard.
var Copy = &Action{
	Name:       "copy",
	TrackEvent: "layer",
	Predicate:  func(s *scene.Store, app *domain.AppState, _ *Env) bool { return len(copyLayers(s, app)) > 0 },
	Perform: func(s *scene.Store, app *domain.AppState, _ any, env *Env) Result {
		layers := copyLayers(s, app)
		if len(layers) == 0 {
			return Result{}
		}
		if _, err := env.Clipboard.CopyToClipboard(layers, env.Files); err != nil {
			env.logger().Warn("copy failed", slog.Any("err", err))
			return withError(app, "Couldn't copy to clipboard")
		}
		return Result{}
	},
}

// Cut copies the selection and deletes it.
var Cut = &Action{
	Name:       "cut",
	TrackEvent: "layer",
	Predicate:  func(s *scene.Store, app *domain.AppState, env *Env) bool { return hasSelection(s, app, env) },
	Perform: func(s *scene.Store, app *domain.AppState, value any, env *Env) Result {
		if res := Copy.Perform(s, app, value, env); res.AppState != nil {
			return res
		}
		return deleteLayers(s, app, env)
	},
}

// Paste inserts clipboard content. Layer envelopes become layers, tabular
// data and plain text become text layers.
var Paste = &Action{
	Name:       "paste",
	TrackEvent: "layer",
	Perform: func(s *scene.Store, app *domain.AppState, value any, env *Env) Result {
		var pv PasteValue
		switch v := value.(type) {
		case PasteValue:
			pv = v
		case *PasteValue:
			if v != nil {
				pv = *v
			}
		}
		at := vector.Pt{X: -app.ScrollX, Y: -app.ScrollY}
		if pv.At != nil {
			at = *pv.At
		}
		data := env.Clipboard.ParseClipboard(pv.Event, pv.PlainText)
		switch {
		case len(data.Layers) > 0:
			return pasteLayers(s, app, data, pv, at)
		case data.Spreadsheet != nil:
			return pasteText(s, app, spreadsheetText(data.Spreadsheet), at, true)
		case data.Text != "":
			return pasteText(s, app, data.Text, at, pv.SplitLines)
		}
		return Result{}
	},
}

func pasteLayers(s *scene.Store, app *domain.AppState, data clipboard.Data, pv PasteValue, at vector.Pt) Result {
	opts := clipboard.PasteOptions{PreserveIDs: pv.PreserveIDs}
	if pv.At != nil {
		opts.At = &at
	}
	pasted := clipboard.PrepareLayers(data.Layers, opts)
	if len(pasted) == 0 {
		return Result{}
	}
	// preserved ids replace existing records in place
	layers := s.Layers()
	for _, l := range pasted {
		if i := s.IndexOf(l.ID); i >= 0 {
			layers[i] = l
			continue
		}
		layers = append(layers, l)
	}
	s.ReplaceAll(layers)
	binding.FixTextOrder(s)

	var files domain.Files
	for _, l := range pasted {
		if l.Type != domain.TypeImage || l.FileID == "" {
			continue
		}
		if f, ok := data.Files[l.FileID]; ok {
			if files == nil {
				files = domain.Files{}
			}
			files[l.FileID] = f
		}
	}
	next := selectOnly(s, app, pasted)
	next.EditingGroupID = ""
	res := changed(s, next, true)
	res.Files = files
	return res
}

func pasteText(s *scene.Store, app *domain.AppState, text string, at vector.Pt, split bool) Result {
	layers := clipboard.TextLayers(text, at.X, at.Y, app.CurrentItem, s.TextProvider(), split)
	if len(layers) == 0 {
		return Result{}
	}
	for _, l := range layers {
		s.Insert(l)
	}
	return changed(s, selectOnly(s, app, layers), true)
}

func spreadsheetText(sp *clipboard.Spreadsheet) string {
	var b strings.Builder
	if sp.Title != "" {
		b.WriteString(sp.Title)
		b.WriteByte('\n')
	}
	for i, v := range sp.Values {
		if i < len(sp.Labels) && sp.Labels[i] != "" {
			fmt.Fprintf(&b, "%s: ", sp.Labels[i])
		}
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		b.WriteByte('\n')
	}
	return b.String()
}
