/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	applog "github.com/storiny/web-sub007/internal/log"
)

// Pack layout: a manifest for humans plus one library document.
const (
	packManifest = "library.manifest.txt"
	packDocument = "library.excalidrawlib"
	packExt      = ".excalidrawlib"
)

// ExportPack zips every item of st into destZipPath as a library document.
// The archive is written even when the library is empty.
func ExportPack(ctx context.Context, st *Store, destZipPath string) (err error) {
	l := applog.WithOperation(applog.WithComponent("library"), "export").With(slog.String("zip", destZipPath))
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	items, err := st.List(ctx)
	if err != nil {
		return err
	}
	if items == nil {
		items = []Item{}
	}
	doc, err := json.MarshalIndent(Payload{Type: "excalidrawlib", Version: 2, Source: "sketchcore", LibraryItems: items}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode library: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() {
		if cerr := zf.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("Sketchcore Library Pack\nCreated: %s\nItems: %d\n", time.Now().Format(time.RFC3339), len(items))
	for _, entry := range []struct {
		name string
		data []byte
	}{{packManifest, []byte(manifest)}, {packDocument, doc}} {
		w, err := zw.Create(entry.name)
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("add %s: %w", entry.name, err)
		}
		if _, err := w.Write(entry.data); err != nil {
			_ = zw.Close()
			return fmt.Errorf("write %s: %w", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	l.Info("library pack exported", slog.Int("items", len(items)))
	return nil
}

// InstallPack adds the items of every library document inside packZipPath
// to st. Items whose id is already present are skipped. Returns the count
// of items installed.
func InstallPack(ctx context.Context, st *Store, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("library"), "install").With(slog.String("zip", packZipPath))
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(path.Ext(f.Name), packExt) {
			continue
		}
		p, err := readPayload(f)
		if err != nil {
			return installed, fmt.Errorf("%s: %w", f.Name, err)
		}
		for _, it := range p.LibraryItems {
			ok, err := st.Put(ctx, it)
			if errors.Is(err, ErrEmptySelection) {
				l.Warn("skip empty item", slog.String("id", it.ID))
				continue
			}
			if err != nil {
				return installed, err
			}
			if !ok {
				l.Warn("skip existing item", slog.String("id", it.ID))
				continue
			}
			installed++
		}
	}
	l.Info("library pack installed", slog.Int("items", installed))
	return installed, nil
}

func readPayload(f *zip.File) (Payload, error) {
	rc, err := f.Open()
	if err != nil {
		return Payload{}, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return Payload{}, err
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("decode library: %w", err)
	}
	if p.Type != "" && p.Type != "excalidrawlib" {
		return Payload{}, fmt.Errorf("not a library document: %q", p.Type)
	}
	return p, nil
}
