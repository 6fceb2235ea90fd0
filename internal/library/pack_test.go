/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/storiny/web-sub007/internal/domain"
)

func TestExportAndInstallPack(t *testing.T) {
	ctx := context.Background()
	src := openTestStore(t)
	a, err := src.Add(ctx, []*domain.Layer{rect("a")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := src.Rename(ctx, a.ID, "box"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := src.Add(ctx, []*domain.Layer{rect("b"), rect("c")}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	zipPath := filepath.Join(t.TempDir(), "packs", "out.zip")
	if err := ExportPack(ctx, src, zipPath); err != nil {
		t.Fatalf("ExportPack: %v", err)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	_ = r.Close()
	if !names[packManifest] || !names[packDocument] {
		t.Fatalf("pack entries = %v", names)
	}

	dst := openTestStore(t)
	n, err := InstallPack(ctx, dst, zipPath)
	if err != nil {
		t.Fatalf("InstallPack: %v", err)
	}
	if n != 2 {
		t.Fatalf("installed %d, want 2", n)
	}
	got, err := dst.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "box" || got.Created != a.Created || len(got.Layers) != 1 {
		t.Fatalf("item not preserved: %+v", got)
	}

	// installing again skips what is already there
	n, err = InstallPack(ctx, dst, zipPath)
	if err != nil || n != 0 {
		t.Fatalf("reinstall: n=%d err=%v", n, err)
	}
}

func TestExportEmptyLibraryStillWritesPack(t *testing.T) {
	ctx := context.Background()
	zipPath := filepath.Join(t.TempDir(), "empty.zip")
	if err := ExportPack(ctx, openTestStore(t), zipPath); err != nil {
		t.Fatalf("ExportPack: %v", err)
	}
	n, err := InstallPack(ctx, openTestStore(t), zipPath)
	if err != nil || n != 0 {
		t.Fatalf("install empty: n=%d err=%v", n, err)
	}
}

func TestInstallPackRejectsForeignDocument(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "bad.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("x.excalidrawlib")
	_, _ = w.Write([]byte(`{"type":"excalidraw","libraryItems":[]}`))
	_ = zw.Close()
	_ = f.Close()
	if _, err := InstallPack(context.Background(), openTestStore(t), zipPath); err == nil {
		t.Fatalf("expected error for a scene document")
	}
	if _, err := InstallPack(context.Background(), openTestStore(t), ""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
