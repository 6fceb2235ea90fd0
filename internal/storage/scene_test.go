/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storiny/web-sub007/internal/domain"
)

func sampleDoc() Document {
	rect := &domain.Layer{ID: "r1", Type: domain.TypeRectangle, X: 10, Y: 20, Width: 100, Height: 50, Opacity: 100, GroupIDs: []string{}}
	img := &domain.Layer{ID: "i1", Type: domain.TypeImage, Width: 10, Height: 10, FileID: "f1", GroupIDs: []string{}}
	gone := &domain.Layer{ID: "i2", Type: domain.TypeImage, FileID: "f2", IsDeleted: true, GroupIDs: []string{}}
	files := domain.Files{
		"f1": {ID: "f1", MimeType: "image/png", DataURL: "data:image/png;base64,AAAA"},
		"f2": {ID: "f2", MimeType: "image/png", DataURL: "data:image/png;base64,BBBB"},
		"f3": {ID: "f3", MimeType: "image/png", DataURL: "data:image/png;base64,CCCC"},
	}
	return NewDocument([]*domain.Layer{rect, img, gone}, domain.DefaultAppState(), files)
}

func TestNewDocumentKeepsOnlyReferencedFiles(t *testing.T) {
	doc := sampleDoc()
	if doc.Type != DocumentType || doc.Version != DocumentVersion {
		t.Fatalf("unexpected header: %q v%d", doc.Type, doc.Version)
	}
	if len(doc.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(doc.Files))
	}
	if _, ok := doc.Files["f1"]; !ok {
		t.Fatalf("expected f1 to be kept")
	}
}

func TestCreateOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawings", "board.excalidraw")
	h, err := Create(path, sampleDoc())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h.Path != path {
		t.Fatalf("path mismatch: %q", h.Path)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.Recovered {
		t.Fatalf("fresh file should not be recovered")
	}
	if len(got.Doc.Layers) != 3 || got.Doc.Layers[0].ID != "r1" || got.Doc.Layers[0].Width != 100 {
		t.Fatalf("layers not round-tripped: %+v", got.Doc.Layers)
	}
	app := got.Doc.AppStateOrDefault()
	if !app.ExportBackground || app.ExportPadding != domain.DefaultExportPadding {
		t.Fatalf("export settings lost: %+v", app)
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.excalidraw")
	h, err := Create(path, sampleDoc())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	h.Doc.Layers[0].X = 99
	if err := Save(h); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ents, err := os.ReadDir(filepath.Join(dir, BackupsDirName))
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	var bak int
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), "b.excalidraw.") && strings.HasSuffix(e.Name(), ".bak") {
			bak++
		}
	}
	if bak == 0 {
		t.Fatalf("expected at least one backup file")
	}
}

func TestOpenFallsBackToLatestBackupOnCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.excalidraw")
	h, err := Create(path, sampleDoc())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// second save produces a backup of the first
	if err := Save(h); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !got.Recovered || len(got.Doc.Layers) != 3 {
		t.Fatalf("expected recovery from backup, got %+v", got)
	}
}

func TestOpenWithoutBackupFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.excalidraw")
	if _, err := Open(path); err == nil {
		t.Fatalf("expected error for missing scene without backups")
	}
}

func TestSaveAsMovesHandle(t *testing.T) {
	dir := t.TempDir()
	h, err := Create(filepath.Join(dir, "a.excalidraw"), sampleDoc())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	np := filepath.Join(dir, "other", "a2.excalidraw")
	if err := SaveAs(h, np); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if h.Path != np {
		t.Fatalf("handle path not updated: %q", h.Path)
	}
	if _, err := os.Stat(np); err != nil {
		t.Fatalf("new file missing: %v", err)
	}
	if err := SaveAs(h, ""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestValidateDocumentRejectsWrongType(t *testing.T) {
	bad := []byte(`{"type":"comic","version":2,"layers":[]}`)
	err := ValidateDocument(bad)
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	missing := []byte(`{"type":"excalidraw","version":2,"layers":[{"type":"rectangle","x":0,"y":0}]}`)
	if err := ValidateDocument(missing); err == nil {
		t.Fatalf("expected layer without id to be rejected")
	}
}

func TestEncodedDocumentConformsToSchema(t *testing.T) {
	data, err := EncodeDocument(sampleDoc())
	if err != nil {
		t.Fatalf("EncodeDocument: %v", err)
	}
	if err := ValidateDocument(data); err != nil {
		t.Fatalf("encoded document should validate: %v", err)
	}
}

func TestAppStateOrDefaultWithoutState(t *testing.T) {
	doc := Document{Type: DocumentType, Version: DocumentVersion}
	app := doc.AppStateOrDefault()
	if app.Zoom != 1 || app.ViewBackgroundColor != "#ffffff" {
		t.Fatalf("expected defaults, got zoom=%v bg=%q", app.Zoom, app.ViewBackgroundColor)
	}
	off := false
	pad := 0.0
	doc.AppState = &DocumentAppState{Zoom: 2, ExportBackground: &off, ExportPadding: &pad}
	app = doc.AppStateOrDefault()
	if app.Zoom != 2 || app.ExportBackground || app.ExportPadding != 0 {
		t.Fatalf("persisted values not applied: %+v", app)
	}
}
