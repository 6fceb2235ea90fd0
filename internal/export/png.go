/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/textlayout"
	"github.com/storiny/web-sub007/internal/vector"
)

// ExportToCanvas rasterizes layers onto a surface sized to their common
// bounds plus padding on every side, multiplied by the export scale.
func ExportToCanvas(layers []*domain.Layer, opt Options, files domain.Files) *image.RGBA {
	opt = opt.normalized()
	visible := Exportable(layers)
	fr := newFrame(visible, opt)
	pixW, pixH := fr.PixelSize()

	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	if opt.Background {
		if bg, ok := opt.paint(opt.BackgroundColor, 100); ok {
			draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
		}
	}

	provider := textlayout.BasicProvider{}
	for _, l := range visible {
		switch {
		case l.IsLinear():
			rasterLinear(img, fr, opt, l)
		case l.Type == domain.TypeText:
			rasterText(img, fr, opt, l, provider)
		case l.Type == domain.TypeImage:
			if src, ok := imageFor(l, files); ok {
				dst := fr.pixelRect(scene.UnrotatedRect(l))
				xdraw.CatmullRom.Scale(img, dst, src, src.Bounds(), xdraw.Over, nil)
			} else {
				rasterShape(img, fr, opt, l)
			}
		default:
			rasterShape(img, fr, opt, l)
		}
	}
	return img
}

// EncodePNG rasterizes layers and encodes the result as PNG.
func EncodePNG(layers []*domain.Layer, opt Options, files domain.Files) ([]byte, error) {
	img := ExportToCanvas(layers, opt, files)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func rasterShape(img *image.RGBA, fr frame, opt Options, l *domain.Layer) {
	r := scene.UnrotatedRect(l)
	stroke, hasStroke := opt.paint(l.StrokeColor, l.Opacity)
	fill, hasFill := opt.paint(l.BackgroundColor, l.Opacity)
	half := math.Max(l.StrokeWidth/2, 0.5/fr.scale)
	if l.Type == domain.TypeFrame {
		hasFill = false
	}

	// axis-aligned rectangles take the cheap path
	if l.Angle == 0 && scene.ShapeOf(l) == vector.ShapeRect {
		pr := fr.pixelRect(r)
		if hasFill {
			fillRect(img, pr.Min.X, pr.Min.Y, pr.Max.X-1, pr.Max.Y-1, fill)
		}
		if hasStroke {
			w := max(int(math.Round(l.StrokeWidth*fr.scale)), 1)
			for i := 0; i < w; i++ {
				strokeRect(img, pr.Min.X+i, pr.Min.Y+i, pr.Max.X-1-i, pr.Max.Y-1-i, stroke)
			}
		}
		return
	}

	shape := scene.ShapeOf(l)
	area := fr.pixelRect(scene.LayerBounds(l).Inset(-half, -half)).Intersect(img.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			p := fr.world(x, y)
			if hasStroke && vector.DistanceToOutline(shape, r, l.Angle, p) <= half {
				blend(img, x, y, stroke)
				continue
			}
			if hasFill && vector.Hit(shape, r, l.Angle, p, 0) {
				blend(img, x, y, fill)
			}
		}
	}
}

func rasterLinear(img *image.RGBA, fr frame, opt Options, l *domain.Layer) {
	stroke, ok := opt.paint(l.StrokeColor, l.Opacity)
	if !ok {
		return
	}
	segs := strokeSegments(l)
	if len(segs) == 0 {
		return
	}
	half := math.Max(l.StrokeWidth/2, 0.5/fr.scale)
	var pts []vector.Pt
	for _, s := range segs {
		pts = append(pts, s[0], s[1])
	}
	area := fr.pixelRect(vector.BoundsOf(pts).Inset(-half, -half)).Intersect(img.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			p := fr.world(x, y)
			for _, s := range segs {
				if vector.DistanceToSegment(p, s[0], s[1]) <= half {
					blend(img, x, y, stroke)
					break
				}
			}
		}
	}
}

// rasterText draws each line with the provider face at its native size and
// scales it into place. Rotation of text is not rendered.
func rasterText(img *image.RGBA, fr frame, opt Options, l *domain.Layer, p textlayout.Provider) {
	col, ok := opt.paint(l.StrokeColor, l.Opacity)
	if !ok {
		return
	}
	spec := textlayout.FontSpec{Family: l.FontFamily, Size: l.FontSize, LineHeight: l.LineHeight}
	face, k := p.Resolve(spec)
	m := face.Metrics()
	lineH := spec.LineHeightPx()
	for i, line := range textLines(l) {
		if line == "" {
			continue
		}
		adv := font.MeasureString(face, line)
		nw, nh := adv.Ceil(), m.Height.Ceil()
		if nw <= 0 || nh <= 0 {
			continue
		}
		glyphs := image.NewRGBA(image.Rect(0, 0, nw, nh))
		d := &font.Drawer{Dst: glyphs, Src: image.NewUniform(col), Face: face, Dot: fixed.Point26_6{Y: m.Ascent}}
		d.DrawString(line)

		w := float64(nw) * k
		top := l.Y + float64(i)*lineH + (lineH-float64(nh)*k)/2
		dst := fr.pixelRect(vector.R(l.X+lineX(l, w), top, w, float64(nh)*k))
		xdraw.ApproxBiLinear.Scale(img, dst, glyphs, glyphs.Bounds(), xdraw.Over, nil)
	}
}

// blend composites a premultiplied color over the pixel at x,y.
func blend(img *image.RGBA, x, y int, c color.RGBA) {
	if c.A == 255 {
		img.SetRGBA(x, y, c)
		return
	}
	d := img.RGBAAt(x, y)
	inv := 255 - uint32(c.A)
	img.SetRGBA(x, y, color.RGBA{
		R: uint8(uint32(c.R) + uint32(d.R)*inv/255),
		G: uint8(uint32(c.G) + uint32(d.G)*inv/255),
		B: uint8(uint32(c.B) + uint32(d.B)*inv/255),
		A: uint8(uint32(c.A) + uint32(d.A)*inv/255),
	})
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 || y1 < y0 {
		return
	}
	// top and bottom
	for x := x0; x <= x1; x++ {
		blend(img, x, y0, col)
		if y1 != y0 {
			blend(img, x, y1, col)
		}
	}
	// left and right
	for y := y0 + 1; y < y1; y++ {
		blend(img, x0, y, col)
		if x1 != x0 {
			blend(img, x1, y, col)
		}
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			blend(img, x, y, col)
		}
	}
}
