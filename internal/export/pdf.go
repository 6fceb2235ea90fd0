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
	"image/color"
	"math"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/textlayout"
)

// EncodePDF renders layers onto a single PDF page sized like the canvas
// export. Units are points with one scene pixel per point before scaling.
// Text uses the built-in Helvetica so no font is embedded.
func EncodePDF(layers []*domain.Layer, opt Options, files domain.Files) ([]byte, error) {
	opt = opt.normalized()
	visible := Exportable(layers)
	fr := newFrame(visible, opt)
	k := fr.scale
	pageW, pageH := fr.W*k, fr.H*k

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("sketchcore", false)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: pageW, Ht: pageH})
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	if opt.Background {
		if bg, ok := opt.paint(opt.BackgroundColor, 100); ok {
			setFillColor(pdf, bg)
			pdf.Rect(0, 0, pageW, pageH, "F")
		}
	}

	imgN := 0
	for _, l := range visible {
		stroke, hasStroke := opt.paint(l.StrokeColor, 100)
		fill, hasFill := opt.paint(l.BackgroundColor, 100)
		if l.Type == domain.TypeFrame {
			hasFill = false
		}
		style := drawStyle(hasStroke, hasFill)
		if hasStroke {
			setDrawColor(pdf, stroke)
		}
		if hasFill {
			setFillColor(pdf, fill)
		}
		pdf.SetLineWidth(math.Max(l.StrokeWidth*k, 0.1))
		pdf.SetAlpha(layerAlpha(l), "Normal")

		r := scene.UnrotatedRect(l)
		o := fr.local(r.Min())
		c := fr.local(r.Center())
		rotated := l.Angle != 0 && !l.IsLinear() && l.Type != domain.TypeDiamond
		if rotated {
			pdf.TransformBegin()
			// gofpdf rotates counter-clockwise
			pdf.TransformRotate(-l.Angle*180/math.Pi, c.X*k, c.Y*k)
		}

		switch {
		case l.IsLinear():
			if hasStroke {
				for _, s := range strokeSegments(l) {
					a, b := fr.local(s[0]), fr.local(s[1])
					pdf.Line(a.X*k, a.Y*k, b.X*k, b.Y*k)
				}
			}
		case l.Type == domain.TypeText:
			if hasStroke {
				r, g, b, _ := straight(stroke)
				pdf.SetTextColor(r, g, b)
				pdf.SetFont("Helvetica", "", l.FontSize*k)
				spec := textlayout.FontSpec{Family: l.FontFamily, Size: l.FontSize, LineHeight: l.LineHeight}
				for i, line := range textLines(l) {
					if line == "" {
						continue
					}
					w := pdf.GetStringWidth(line) / k
					pdf.Text((o.X+lineX(l, w))*k, (o.Y+float64(i)*spec.LineHeightPx()+l.FontSize)*k, line)
				}
			}
		case l.Type == domain.TypeImage:
			if f, ok := files[l.FileID]; ok {
				if mime, data, err := decodeDataURL(f.DataURL); err == nil && imageType(mime) != "" {
					imgN++
					name := fmt.Sprintf("img%d", imgN)
					iopt := gofpdf.ImageOptions{ImageType: imageType(mime)}
					pdf.RegisterImageOptionsReader(name, iopt, bytes.NewReader(data))
					pdf.ImageOptions(name, o.X*k, o.Y*k, r.W*k, r.H*k, false, iopt, 0, "")
					break
				}
			}
			if style != "" {
				pdf.Rect(o.X*k, o.Y*k, r.W*k, r.H*k, style)
			}
		case l.Type == domain.TypeEllipse:
			if style != "" {
				pdf.Ellipse(c.X*k, c.Y*k, r.W/2*k, r.H/2*k, 0, style)
			}
		case l.Type == domain.TypeDiamond:
			if style != "" {
				pts := diamondPoints(l)
				poly := make([]gofpdf.PointType, len(pts))
				for i, p := range pts {
					q := fr.local(p)
					poly[i] = gofpdf.PointType{X: q.X * k, Y: q.Y * k}
				}
				pdf.Polygon(poly, style)
			}
		default:
			if style != "" {
				pdf.Rect(o.X*k, o.Y*k, r.W*k, r.H*k, style)
			}
		}

		if rotated {
			pdf.TransformEnd()
		}
	}
	pdf.SetAlpha(1, "Normal")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawStyle(stroke, fill bool) string {
	switch {
	case stroke && fill:
		return "FD"
	case fill:
		return "F"
	case stroke:
		return "D"
	}
	return ""
}

func layerAlpha(l *domain.Layer) float64 {
	if l.Opacity < 0 || l.Opacity >= 100 {
		return 1
	}
	return l.Opacity / 100
}

func imageType(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return "PNG"
	case "image/jpeg", "image/jpg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}
	return ""
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	r, g, b, _ := straight(c)
	pdf.SetDrawColor(r, g, b)
}

func setFillColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	r, g, b, _ := straight(c)
	pdf.SetFillColor(r, g, b)
}
