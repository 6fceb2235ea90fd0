/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "strings"

// Key names as reported by the host keyboard layer.
const (
	KeyBackspace    = "Backspace"
	KeyDelete       = "Delete"
	KeyEscape       = "Escape"
	KeyEnter        = "Enter"
	KeyBracketLeft  = "["
	KeyBracketRight = "]"
	KeyEqual        = "="
	KeyPlus         = "+"
	KeyMinus        = "-"
	KeyZero         = "0"
)

// KeyEvent is a keyboard chord. Key holds the produced character or the key
// name; Code holds the physical key, e.g. "KeyH".
type KeyEvent struct {
	Key   string `json:"key"`
	Code  string `json:"code,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
}

// CtrlOrCmd reports whether the platform command modifier is held.
func (e KeyEvent) CtrlOrCmd() bool { return e.Ctrl || e.Meta }

// NoModifiers reports whether no modifier key is held.
func (e KeyEvent) NoModifiers() bool { return !e.Ctrl && !e.Meta && !e.Shift && !e.Alt }

// Letter returns the lower-cased letter of the chord, taken from Code when
// present so that Shift and layout do not change the match.
func (e KeyEvent) Letter() string {
	var c byte
	switch {
	case len(e.Code) == 4 && e.Code[:3] == "Key":
		c = e.Code[3]
	case len(e.Key) == 1:
		c = e.Key[0]
	default:
		return ""
	}
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	if c < 'a' || c > 'z' {
		return ""
	}
	return string(c)
}

// String renders the chord, e.g. "Ctrl+Shift+G".
func (e KeyEvent) String() string {
	s := ""
	if e.Ctrl {
		s += "Ctrl+"
	}
	if e.Meta {
		s += "Cmd+"
	}
	if e.Alt {
		s += "Alt+"
	}
	if e.Shift {
		s += "Shift+"
	}
	if l := e.Letter(); l != "" {
		return s + strings.ToUpper(l)
	}
	return s + e.Key
}
