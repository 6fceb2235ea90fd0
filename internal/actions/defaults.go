/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package actions

// Builtins lists the built-in actions in registration order.
func Builtins() []*Action {
	return []*Action{
		DeleteSelected,
		Finalize,
		FlipH,
		FlipV,
		Hyperlink,
		Eraser,
		Hand,
		SelectAll,
		Copy,
		Cut,
		Paste,
		CopyStyles,
		PasteStyles,
		Group,
		Ungroup,
		BindText,
		UnbindText,
		ToggleLinearEditor,
		BringForward,
		SendBackward,
		ZoomIn,
		ZoomOut,
		ResetZoom,
		Undo,
		Redo,
		AddToLibrary,
	}
}

// RegisterBuiltins adds the built-in actions to b.
func RegisterBuiltins(b *Builder) {
	for _, a := range Builtins() {
		b.Register(a)
	}
}

// Default builds the registry of built-in actions.
func Default() (*Registry, error) {
	b := NewBuilder()
	RegisterBuiltins(b)
	return b.Build()
}
