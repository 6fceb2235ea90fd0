/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package clipboard

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/storiny/web-sub007/internal/domain"
)

// PasteEvent carries clipboard text delivered with a paste event. A nil
// event makes ParseClipboard read the system clipboard.
type PasteEvent struct {
	Text string
}

// Data is the interpretation of a paste. Exactly one of Layers,
// Spreadsheet and Text is set, or none for an empty clipboard.
type Data struct {
	Layers      []*domain.Layer
	Files       domain.Files
	Spreadsheet *Spreadsheet
	Text        string
}

// Empty reports whether nothing can be pasted.
func (d Data) Empty() bool {
	return len(d.Layers) == 0 && d.Spreadsheet == nil && d.Text == ""
}

// ParseClipboard interprets clipboard content, trying in order a layer
// envelope (skipped for exported SVG unless isPlainPaste), a spreadsheet
// (skipped for plain paste) and finally plain text. It never fails: content
// that does not parse degrades to the next interpretation.
//
// After a failed system write the in-app copy is newer than whatever the
// system clipboard holds, so a paste without event data returns it first.
func (m *Manager) ParseClipboard(ev *PasteEvent, isPlainPaste bool) Data {
	var text string
	if ev != nil {
		text = ev.Text
	} else {
		if m.PreferAppClipboard() {
			if d := m.appData(); !d.Empty() {
				return d
			}
		}
		text = m.readSystem()
	}
	if strings.TrimSpace(text) == "" {
		return m.appData()
	}
	if isPlainPaste || !strings.Contains(text, SVGSourceMarker) {
		env, err := Decode([]byte(text))
		if err == nil && len(env.Layers) > 0 {
			return Data{Layers: env.Layers, Files: env.Files}
		}
		if looksLikeJSON(text) {
			m.log.Debug("clipboard envelope rejected, degrading", slog.Any("err", err))
		}
	} else if d := m.appData(); !d.Empty() {
		return d
	}
	if !isPlainPaste {
		if sp, ok := ParseSpreadsheet(text); ok {
			return Data{Spreadsheet: sp}
		}
	}
	if m.PreferAppClipboard() {
		if d := m.appData(); !d.Empty() {
			return d
		}
	}
	return Data{Text: text}
}

func (m *Manager) appData() Data {
	app := m.AppClipboard()
	if app == "" {
		return Data{}
	}
	env, err := Decode([]byte(app))
	if err != nil {
		return Data{}
	}
	return Data{Layers: env.Layers, Files: env.Files}
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// Spreadsheet is tabular clipboard content usable as chart data.
type Spreadsheet struct {
	Title  string
	Labels []string
	Values []float64
}

// ParseSpreadsheet detects one or two column tabular text separated by tabs
// or commas. The value column must be numeric; a non-numeric first row is
// taken as the header. At least two values are required.
func ParseSpreadsheet(text string) (*Spreadsheet, bool) {
	rows := splitRows(text, "\t")
	if len(rows) > 0 && len(rows[0]) != 2 {
		if alt := splitRows(text, ","); len(alt) > 0 && len(alt[0]) == 2 {
			rows = alt
		}
	}
	if len(rows) == 0 {
		return nil, false
	}
	cols := len(rows[0])
	if cols < 1 || cols > 2 {
		return nil, false
	}
	for _, r := range rows {
		if len(r) != cols {
			return nil, false
		}
	}
	valueCol := cols - 1
	if cols == 2 && columnNumeric(rows[1:], 0) && !columnNumeric(rows[1:], 1) {
		valueCol = 0
	}
	sp := &Spreadsheet{}
	body := rows
	if _, ok := number(rows[0][valueCol]); !ok {
		sp.Title = rows[0][valueCol]
		body = rows[1:]
	}
	if len(body) < 2 || !columnNumeric(body, valueCol) {
		return nil, false
	}
	for _, r := range body {
		v, _ := number(r[valueCol])
		sp.Values = append(sp.Values, v)
		if cols == 2 {
			sp.Labels = append(sp.Labels, r[1-valueCol])
		}
	}
	return sp, true
}

func splitRows(text, sep string) [][]string {
	var out [][]string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cells := strings.Split(line, sep)
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		out = append(out, cells)
	}
	return out
}

func columnNumeric(rows [][]string, col int) bool {
	if len(rows) == 0 {
		return false
	}
	for _, r := range rows {
		if _, ok := number(r[col]); !ok {
			return false
		}
	}
	return true
}

func number(s string) (float64, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
