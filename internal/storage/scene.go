/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"github.com/storiny/web-sub007/internal/domain"
)

const (
	DocumentType    = "excalidraw"
	DocumentVersion = 2
	BackupsDirName  = "backups"
)

// ErrInvalidDocument is returned when a scene file fails schema validation.
var ErrInvalidDocument = errors.New("storage: invalid scene document")

//go:embed scene.schema.json
var sceneSchema string

// DocumentAppState is the persisted subset of AppState. Selection, edit
// sessions and messages are transient and never written.
type DocumentAppState struct {
	ViewBackgroundColor string           `json:"viewBackgroundColor,omitempty"`
	Zoom                float64          `json:"zoom,omitempty"`
	ScrollX             float64          `json:"scrollX"`
	ScrollY             float64          `json:"scrollY"`
	ExportBackground    *bool            `json:"exportBackground,omitempty"`
	ExportWithDarkMode  bool             `json:"exportWithDarkMode,omitempty"`
	ExportScale         float64          `json:"exportScale,omitempty"`
	ExportPadding       *float64         `json:"exportPadding,omitempty"`
	CurrentItem         *domain.StyleSet `json:"currentItem,omitempty"`
}

// Document is the on-disk scene file.
type Document struct {
	Type     string            `json:"type"`
	Version  int               `json:"version"`
	Source   string            `json:"source,omitempty"`
	Layers   []*domain.Layer   `json:"layers"`
	AppState *DocumentAppState `json:"appState,omitempty"`
	Files    domain.Files      `json:"files,omitempty"`
}

// NewDocument builds a document from editor state. Only files referenced by
// non-deleted image layers are kept.
func NewDocument(layers []*domain.Layer, app *domain.AppState, files domain.Files) Document {
	if layers == nil {
		layers = []*domain.Layer{}
	}
	doc := Document{Type: DocumentType, Version: DocumentVersion, Source: "sketchcore", Layers: layers}
	if app != nil {
		bg := app.ExportBackground
		pad := app.ExportPadding
		item := app.CurrentItem
		doc.AppState = &DocumentAppState{
			ViewBackgroundColor: app.ViewBackgroundColor,
			Zoom:                app.Zoom,
			ScrollX:             app.ScrollX,
			ScrollY:             app.ScrollY,
			ExportBackground:    &bg,
			ExportWithDarkMode:  app.ExportWithDarkMode,
			ExportScale:         app.ExportScale,
			ExportPadding:       &pad,
			CurrentItem:         &item,
		}
	}
	for _, l := range layers {
		if l.Type != domain.TypeImage || l.IsDeleted || l.FileID == "" {
			continue
		}
		if f, ok := files[l.FileID]; ok {
			if doc.Files == nil {
				doc.Files = domain.Files{}
			}
			doc.Files[l.FileID] = f
		}
	}
	return doc
}

// AppStateOrDefault restores an AppState from the document, filling gaps with the
// defaults of a fresh editor.
func (d Document) AppStateOrDefault() *domain.AppState {
	app := domain.DefaultAppState()
	s := d.AppState
	if s == nil {
		return app
	}
	if s.ViewBackgroundColor != "" {
		app.ViewBackgroundColor = s.ViewBackgroundColor
	}
	if s.Zoom > 0 {
		app.Zoom = s.Zoom
	}
	app.ScrollX, app.ScrollY = s.ScrollX, s.ScrollY
	if s.ExportBackground != nil {
		app.ExportBackground = *s.ExportBackground
	}
	app.ExportWithDarkMode = s.ExportWithDarkMode
	if s.ExportScale > 0 {
		app.ExportScale = s.ExportScale
	}
	if s.ExportPadding != nil {
		app.ExportPadding = *s.ExportPadding
	}
	if s.CurrentItem != nil {
		app.CurrentItem = *s.CurrentItem
	}
	return app
}

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

// ValidateDocument checks raw JSON against the scene document schema.
func ValidateDocument(data []byte) error {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(sceneSchema))
	})
	if schemaErr != nil {
		return fmt.Errorf("compile scene schema: %w", schemaErr)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}
	return nil
}

// DecodeDocument validates and parses a scene document.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := ValidateDocument(data); err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

// EncodeDocument serializes a document in human-readable form.
func EncodeDocument(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scene: %w", err)
	}
	return append(data, '\n'), nil
}

// SceneHandle keeps track of a scene file loaded/saved from disk.
// Path is the scene file; backups go to a backups folder next to it.
type SceneHandle struct {
	Path string
	Doc  Document
	// Recovered is set when Open fell back to a backup.
	Recovered bool
}

func (h *SceneHandle) backupsDir() string {
	return filepath.Join(filepath.Dir(h.Path), BackupsDirName)
}

// Create writes doc to path (creating parent folders) and returns its handle.
func Create(path string, doc Document) (*SceneHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("scene path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create scene dir: %w", err)
	}
	h := &SceneHandle{Path: path, Doc: doc}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads a scene file. If it cannot be read, parsed or validated, the
// latest backup is used instead.
func Open(path string) (*SceneHandle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		doc, berr := openFromLatestBackup(path)
		if berr != nil {
			return nil, fmt.Errorf("open scene: %w; backup attempt: %v", err, berr)
		}
		return &SceneHandle{Path: path, Doc: *doc, Recovered: true}, nil
	}
	doc, derr := DecodeDocument(b)
	if derr != nil {
		bdoc, berr := openFromLatestBackup(path)
		if berr != nil {
			return nil, fmt.Errorf("parse scene: %w; backup attempt: %v", derr, berr)
		}
		return &SceneHandle{Path: path, Doc: *bdoc, Recovered: true}, nil
	}
	return &SceneHandle{Path: path, Doc: doc}, nil
}

// Save writes the handle's document to disk with transactional semantics
// and a timestamped backup of the previous file (if present).
func Save(h *SceneHandle) error {
	if h == nil {
		return errors.New("nil SceneHandle")
	}
	if h.Path == "" {
		return errors.New("invalid SceneHandle: missing path")
	}
	if h.Doc.Type == "" {
		h.Doc.Type = DocumentType
	}
	if h.Doc.Version == 0 {
		h.Doc.Version = DocumentVersion
	}
	data, err := EncodeDocument(h.Doc)
	if err != nil {
		return err
	}

	bdir := h.backupsDir()
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current file exists, copy it to a timestamped backup before replacing
	base := filepath.Base(h.Path)
	if _, statErr := os.Stat(h.Path); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", base, stamp))
		if cerr := copyFile(h.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current scene: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	temp := filepath.Join(filepath.Dir(h.Path), fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp scene: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(h.Path); err == nil {
		_ = os.Remove(h.Path)
	}
	if rerr := os.Rename(temp, h.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace scene: %w", rerr)
	}
	return nil
}

// SaveAs writes the document to a new path and updates the handle.
func SaveAs(h *SceneHandle, newPath string) error {
	if h == nil {
		return errors.New("nil SceneHandle")
	}
	if newPath == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("create new dir: %w", err)
	}
	h.Path = newPath
	return Save(h)
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup tries to open the latest timestamped backup of path.
func openFromLatestBackup(path string) (*Document, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	doc, err := DecodeDocument(b)
	if err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return &doc, nil
}

// AutosaveCrashSnapshot writes the handle's document next to the backups
// as <name>.crash-<stamp>.json without touching the scene file.
func AutosaveCrashSnapshot(h *SceneHandle) (string, error) {
	if h == nil || h.Path == "" {
		return "", errors.New("invalid SceneHandle")
	}
	data, err := EncodeDocument(h.Doc)
	if err != nil {
		return "", err
	}
	bdir := h.backupsDir()
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", filepath.Base(h.Path), stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}
