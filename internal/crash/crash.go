/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns panics into a crash report and a scene autosave.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "github.com/storiny/web-sub007/internal/log"
	"github.com/storiny/web-sub007/internal/storage"
	"github.com/storiny/web-sub007/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Source supplies the live document to autosave, e.g. an editor session.
type Source interface {
	Document() storage.Document
}

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file, and attempts a crash-safe autosave
// of the scene (if a handle is provided). When src is set its document
// replaces the handle's before saving.
//
// Usage: defer crash.Recover(h, session)
func Recover(h *storage.SceneHandle, src Source) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(h, r, stack)
		if h != nil && h.Path != "" {
			autosave(l, h, src)
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

func autosave(l *slog.Logger, h *storage.SceneHandle, src Source) {
	snap := *h
	if src != nil {
		// the source may be what panicked
		func() {
			defer func() {
				if r := recover(); r != nil {
					l.Error("crash source unusable, saving last loaded document", slog.Any("panic", r))
				}
			}()
			snap.Doc = src.Document()
		}()
	}
	path, err := storage.AutosaveCrashSnapshot(&snap)
	if err != nil {
		l.Error("autosave crash snapshot failed", slog.Any("err", err))
		return
	}
	l.Info("autosave crash snapshot written", slog.String("path", path))
}

func writeReport(h *storage.SceneHandle, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if h != nil && h.Path != "" {
		dir = filepath.Join(filepath.Dir(h.Path), storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	fname := fmt.Sprintf("crash-%s.log", stamp)
	path := filepath.Join(dir, fname)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Sketchcore Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if h != nil {
		_, _ = fmt.Fprintf(&buf, "Scene: %s\n", h.Path)
		_, _ = fmt.Fprintf(&buf, "Layers: %d\n", len(h.Doc.Layers))
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
