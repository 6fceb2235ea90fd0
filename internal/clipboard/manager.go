/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package clipboard

import (
	"errors"
	"log/slog"
	"sync"

	sysclip "github.com/atotto/clipboard"

	"github.com/storiny/web-sub007/internal/domain"
	applog "github.com/storiny/web-sub007/internal/log"
)

// ErrUnsupported is returned when no system clipboard is available.
var ErrUnsupported = errors.New("system clipboard unsupported")

// SystemClipboard is the host clipboard.
type SystemClipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type osClipboard struct{}

func (osClipboard) ReadAll() (string, error) {
	if sysclip.Unsupported {
		return "", ErrUnsupported
	}
	return sysclip.ReadAll()
}

func (osClipboard) WriteAll(text string) error {
	if sysclip.Unsupported {
		return ErrUnsupported
	}
	return sysclip.WriteAll(text)
}

// System returns the OS clipboard.
func System() SystemClipboard { return osClipboard{} }

// Manager holds the in-app clipboard of one editor session next to the
// system clipboard. It is safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	sys       SystemClipboard
	app       string
	preferApp bool
	log       *slog.Logger
}

// NewManager returns a manager writing through sys. A nil sys keeps all
// copies in process.
func NewManager(sys SystemClipboard, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = applog.WithComponent("clipboard")
	}
	return &Manager{sys: sys, log: logger}
}

// PreferAppClipboard reports whether the last system write failed, so the
// in-app copy is fresher than whatever the system clipboard holds.
func (m *Manager) PreferAppClipboard() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preferApp
}

// CopyToClipboard serializes the envelope of layers and files, keeps it as
// the in-app copy and writes it to the system clipboard. A failed system
// write is not an error: the in-app copy is preferred from then on.
func (m *Manager) CopyToClipboard(layers []*domain.Layer, files domain.Files) (string, error) {
	data, err := BuildEnvelope(layers, files).Encode()
	if err != nil {
		return "", err
	}
	text := string(data)
	m.mu.Lock()
	m.app = text
	m.preferApp = false
	sys := m.sys
	m.mu.Unlock()

	if sys == nil {
		m.setPreferApp(true)
		return text, nil
	}
	if err := sys.WriteAll(text); err != nil {
		m.log.Warn("system clipboard write failed, using in-app clipboard", slog.Any("err", err))
		m.setPreferApp(true)
	}
	return text, nil
}

// CopyText writes plain text, e.g. an exported SVG document.
func (m *Manager) CopyText(text string) error {
	m.mu.Lock()
	sys := m.sys
	m.mu.Unlock()
	if sys == nil {
		return ErrUnsupported
	}
	return sys.WriteAll(text)
}

// AppClipboard returns the in-app copy.
func (m *Manager) AppClipboard() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.app
}

// readSystem returns the system clipboard text or "" when unavailable.
func (m *Manager) readSystem() string {
	m.mu.Lock()
	sys := m.sys
	m.mu.Unlock()
	if sys == nil {
		return ""
	}
	text, err := sys.ReadAll()
	if err != nil {
		m.log.Debug("system clipboard read failed", slog.Any("err", err))
		return ""
	}
	return text
}

func (m *Manager) setPreferApp(v bool) {
	m.mu.Lock()
	m.preferApp = v
	m.mu.Unlock()
}
