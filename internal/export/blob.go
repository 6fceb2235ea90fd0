/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/storiny/web-sub007/internal/domain"
)

// Format names an export encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
)

// ErrUnknownFormat is returned for formats ExportToBlob cannot produce.
var ErrUnknownFormat = errors.New("export: unknown format")

// ParseFormat normalizes a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatSVG, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// MimeType returns the content type of encoded output.
func (f Format) MimeType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// ExportToBlob encodes layers in the requested format.
func ExportToBlob(layers []*domain.Layer, opt Options, files domain.Files, format Format) ([]byte, error) {
	switch format {
	case FormatPNG:
		return EncodePNG(layers, opt, files)
	case FormatSVG:
		return ExportToSVG(layers, opt, files)
	case FormatPDF:
		return EncodePDF(layers, opt, files)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls writing one scene in several formats at once.
//
// Path semantics:
//   - Files are named <Base>.<format> inside OutDir, which is created if missing.
//   - Formats empty means the preset defaults.
type BatchOptions struct {
	Preset  PresetName
	Formats []Format
	OutDir  string
	Base    string
	Options Options
}

// BatchExport writes the scene once per format and returns the written paths.
func BatchExport(layers []*domain.Layer, files domain.Files, opt BatchOptions) ([]string, error) {
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	base := opt.Base
	if base == "" {
		base = "scene"
	}
	if err := os.MkdirAll(opt.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	eo := presetOptions(opt.Preset, opt.Options)

	var written []string
	for _, f := range formats {
		data, err := ExportToBlob(layers, eo, files, f)
		if err != nil {
			return written, fmt.Errorf("%s: %w", f, err)
		}
		name := filepath.Join(opt.OutDir, base+"."+string(f))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", f, err)
		}
		written = append(written, name)
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []Format {
	switch p {
	case PresetWeb:
		return []Format{FormatPNG, FormatSVG}
	case PresetPrint:
		return []Format{FormatPDF, FormatPNG}
	default:
		return []Format{FormatPNG}
	}
}

// presetOptions raises the raster scale for print unless one was chosen.
func presetOptions(p PresetName, o Options) Options {
	if p == PresetPrint && o.Scale <= 1 {
		o.Scale = 3
	}
	return o
}
