/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestInitAndStructuredLoggingToFile verifies that Init with a file handler writes JSON logs
// and that static and contextual attributes are present.
func TestInitAndStructuredLoggingToFile(t *testing.T) {
	// Use a file in the system temp dir to avoid Windows deleting a still-open handle
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("sketch_log_%d.json", time.Now().UnixNano()))

	Init(Options{Level: "debug", Format: "json", File: fpath})

	l := WithComponent("testcomp")
	l = WithOperation(l, "op1")
	l = WithAction(l, "flipHorizontal")
	l.Info("hello world", slog.String("k", "v"))

	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	last := lastLine(t, b)
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	if m["app"] != "sketchcore" {
		t.Fatalf("missing app attr: %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "testcomp" || m["op"] != "op1" || m["action"] != "flipHorizontal" {
		t.Fatalf("context attrs mismatch: %v", m)
	}
	if m["msg"] != "hello world" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
}

func TestSessionFromContextIsAttached(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: "json"}, &buf)
	ctx := ContextWithSession(context.Background(), "sess-1")
	l.InfoContext(ctx, "dispatch")

	var m map[string]any
	if err := json.Unmarshal([]byte(lastLine(t, buf.Bytes())), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["session"] != "sess-1" {
		t.Fatalf("expected session attr, got %v", m["session"])
	}
}

func TestPrettyHandlerLevelsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn"}, &buf)
	l.Info("hidden")
	l.WithGroup("scene").Warn("shown", slog.Int("layers", 3), slog.Bool("dirty", true))
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "WRN shown") || !strings.Contains(out, "scene.layers=3") || !strings.Contains(out, "scene.dirty=true") {
		t.Fatalf("unexpected console output: %q", out)
	}
}

func TestConsoleHandlerComponentAndGroupScope(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelInfo, true)
	l := slog.New(h).With(slog.String("component", "editor"), slog.String("scene", "s1"))
	l.WithGroup("undo").Info("pushed", slog.Int("depth", 2), slog.Group("mem", slog.Int("bytes", 10)))
	out := buf.String()
	if !strings.Contains(out, "INF [editor] pushed") {
		t.Fatalf("component tag missing: %q", out)
	}
	if !strings.Contains(out, " scene=s1") || strings.Contains(out, "undo.scene") {
		t.Fatalf("attrs set before the group must stay unqualified: %q", out)
	}
	if !strings.Contains(out, "undo.depth=2") || !strings.Contains(out, "undo.mem.bytes=10") {
		t.Fatalf("group attrs not qualified: %q", out)
	}
	if !strings.Contains(out, "src=logger_test.go:") {
		t.Fatalf("source position missing: %q", out)
	}

	buf.Reset()
	rec := slog.NewRecord(time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local), slog.LevelWarn, "late", 0)
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "03:04:05.000 WRN late") {
		t.Fatalf("record time not used: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in).Level(); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func lastLine(t *testing.T, b []byte) string {
	t.Helper()
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	return last
}
