/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// Snapshot represents a reversible state blob for a scene.
// Blob content is opaque to the manager; size is estimated as len(Blob).
// TS is when the snapshot was captured.
type Snapshot struct {
	Scene string
	Blob  []byte
	TS    time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerScene limits number of snapshots per scene kept in memory (0 means unlimited).
	MaxPerScene int
	// MinInterval coalesces snapshots captured within the interval for the same scene,
	// replacing the previous one instead of pushing a new entry.
	MinInterval time.Duration
}

// Manager provides an in-memory undo/redo stack per scene with performance safeguards.
// Each entry is the state after a committed change; the top of the undo
// stack is the current state and the bottom is the baseline captured at load.
// It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per-scene stacks
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	// Set conservative defaults if not provided
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// PushSnapshot records a snapshot for a scene. If within MinInterval from the last
// snapshot on the same scene, it replaces the last one. The baseline is never
// coalesced away. Clears the redo stack for that scene.
func (m *Manager) PushSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[s.Scene]
	if n := len(stack); n > 1 {
		last := stack[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			// Coalesce: adjust accounting and replace
			m.totalBytes -= len(last.Blob)
			m.totalBytes += len(s.Blob)
			stack[n-1] = s
			m.undo[s.Scene] = stack
			m.dropRedoLocked(s.Scene)
			m.enforceCapsLocked(s.Scene)
			return
		}
	}
	// Push new
	stack = append(stack, s)
	m.undo[s.Scene] = stack
	m.totalBytes += len(s.Blob)
	// Any new change invalidates redo for the scene
	m.dropRedoLocked(s.Scene)
	m.enforceCapsLocked(s.Scene)
}

// Reset drops history for a scene and records s as its new baseline.
func (m *Manager) Reset(s Snapshot) {
	m.Clear(s.Scene)
	m.PushSnapshot(s)
}

// Undo moves the current state to the redo stack and returns the state that
// becomes current. It reports false when only the baseline is left.
func (m *Manager) Undo(scene string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[scene]
	if len(stack) < 2 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[scene] = stack[:len(stack)-1]
	m.redo[scene] = append(m.redo[scene], s)
	return stack[len(stack)-2], true
}

// Redo pops from redo and pushes back to undo, returning the restored state.
func (m *Manager) Redo(scene string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[scene]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[scene] = r[:len(r)-1]
	m.undo[scene] = append(m.undo[scene], s)
	m.enforceCapsLocked(scene)
	return s, true
}

// Current returns the newest snapshot of a scene without changing the stacks.
func (m *Manager) Current(scene string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[scene]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	return stack[len(stack)-1], true
}

// CanUndo and CanRedo back the toolbar state of the history actions.
func (m *Manager) CanUndo(scene string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[scene]) > 1
}

func (m *Manager) CanRedo(scene string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[scene]) > 0
}

// Clear clears undo/redo stacks for a scene to free memory.
func (m *Manager) Clear(scene string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[scene] {
		m.totalBytes -= len(s.Blob)
	}
	m.dropRedoLocked(scene)
	delete(m.undo, scene)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, scenes int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scenes = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, scenes, totalSnapshots
}

func (m *Manager) dropRedoLocked(scene string) {
	for _, s := range m.redo[scene] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.redo, scene)
}

func (m *Manager) enforceCapsLocked(scene string) {
	// Per-scene depth cap
	if m.cfg.MaxPerScene > 0 {
		stack := m.undo[scene]
		if len(stack) > m.cfg.MaxPerScene {
			// drop the oldest extras
			toDrop := len(stack) - m.cfg.MaxPerScene
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[scene] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all scenes, keeping each
	// scene's current state.
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestScene := ""
		found := false
		var oldestTS time.Time
		for name, stack := range m.undo {
			if len(stack) < 2 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestScene = name
				found = true
				oldestTS = stack[0].TS
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldestScene]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldestScene] = stack[1:]
	}
}
