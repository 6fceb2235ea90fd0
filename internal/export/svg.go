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
	"math"
	"strings"

	"github.com/storiny/web-sub007/internal/clipboard"
	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/textlayout"
	"github.com/storiny/web-sub007/internal/vector"
)

// ExportToSVG renders layers into a standalone SVG document. The viewBox
// covers the common bounds plus padding; width and height apply the scale.
func ExportToSVG(layers []*domain.Layer, opt Options, files domain.Files) ([]byte, error) {
	opt = opt.normalized()
	visible := Exportable(layers)
	fr := newFrame(visible, opt)
	pxW, pxH := fr.PixelSize()

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %g %g\">\n", pxW, pxH, fr.W, fr.H)
	wf("  %s\n", clipboard.SVGSourceMarker)
	if opt.Background {
		if bg, ok := opt.paint(opt.BackgroundColor, 100); ok {
			wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", fr.W, fr.H, svgColor(bg))
		}
	}

	for _, l := range visible {
		stroke, hasStroke := opt.paint(l.StrokeColor, 100)
		fill, hasFill := opt.paint(l.BackgroundColor, 100)
		strokeAttr, fillAttr := "none", "none"
		if hasStroke {
			strokeAttr = svgColor(stroke)
		}
		if hasFill && l.Type != domain.TypeFrame {
			fillAttr = svgColor(fill)
		}
		common := fmt.Sprintf("stroke=\"%s\" stroke-width=\"%g\"%s%s", strokeAttr, l.StrokeWidth, opacityAttr(l), dashAttr(l))

		r := scene.UnrotatedRect(l)
		o := fr.local(r.Min())
		c := fr.local(r.Center())
		rot := rotateAttr(l.Angle, c)

		switch {
		case l.IsLinear():
			segs := strokeSegments(l)
			if len(segs) == 0 {
				continue
			}
			pts := scene.AbsolutePoints(l)
			wf("  <polyline points=\"%s\" fill=\"none\" %s stroke-linecap=\"round\" stroke-linejoin=\"round\"/>\n", pointList(fr, pts), common)
			for _, s := range segs[len(pts)-1:] {
				a, b := fr.local(s[0]), fr.local(s[1])
				wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" %s stroke-linecap=\"round\"/>\n", a.X, a.Y, b.X, b.Y, common)
			}
		case l.Type == domain.TypeText:
			col := "none"
			if hasStroke {
				col = svgColor(stroke)
			}
			spec := textlayout.FontSpec{Family: l.FontFamily, Size: l.FontSize, LineHeight: l.LineHeight}
			lineH := spec.LineHeightPx()
			anchor, ax := "start", 0.0
			switch l.TextAlign {
			case domain.AlignCenter:
				anchor, ax = "middle", l.Width/2
			case domain.AlignRight:
				anchor, ax = "end", l.Width
			}
			wf("  <g%s%s>\n", rot, opacityAttr(l))
			for i, line := range textLines(l) {
				if line == "" {
					continue
				}
				wf("    <text x=\"%g\" y=\"%g\" font-family=\"%s\" font-size=\"%g\" fill=\"%s\" text-anchor=\"%s\" dominant-baseline=\"alphabetic\">%s</text>\n",
					o.X+ax, o.Y+float64(i)*lineH+spec.Size, escAttr(fontFamilyName(l.FontFamily)), l.FontSize, col, anchor, escText(line))
			}
			wf("  </g>\n")
		case l.Type == domain.TypeImage:
			if f, ok := files[l.FileID]; ok && l.FileID != "" {
				wf("  <image x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" href=\"%s\" preserveAspectRatio=\"none\"%s%s/>\n", o.X, o.Y, r.W, r.H, escAttr(f.DataURL), rot, opacityAttr(l))
				continue
			}
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" %s%s/>\n", o.X, o.Y, r.W, r.H, fillAttr, common, rot)
		case l.Type == domain.TypeEllipse:
			wf("  <ellipse cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\" fill=\"%s\" %s%s/>\n", c.X, c.Y, r.W/2, r.H/2, fillAttr, common, rot)
		case l.Type == domain.TypeDiamond:
			wf("  <polygon points=\"%s\" fill=\"%s\" %s/>\n", pointList(fr, diamondPoints(l)), fillAttr, common)
		default:
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" %s%s/>\n", o.X, o.Y, r.W, r.H, fillAttr, common, rot)
			if l.Type == domain.TypeFrame && l.Name != "" {
				wf("  <text x=\"%g\" y=\"%g\" font-family=\"%s\" font-size=\"14\" fill=\"%s\">%s</text>\n", o.X, o.Y-6, escAttr(fontFamilyName(2)), strokeAttr, escText(l.Name))
			}
		}
	}

	wf("</svg>\n")
	if werr != nil {
		return nil, fmt.Errorf("build svg: %w", werr)
	}
	return buf.Bytes(), nil
}

func pointList(fr frame, pts []vector.Pt) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		q := fr.local(p)
		parts[i] = fmt.Sprintf("%g,%g", vector.FloatRound(q.X, 3), vector.FloatRound(q.Y, 3))
	}
	return strings.Join(parts, " ")
}

func rotateAttr(angle float64, c vector.Pt) string {
	if angle == 0 {
		return ""
	}
	return fmt.Sprintf(" transform=\"rotate(%g %g %g)\"", vector.FloatRound(angle*180/math.Pi, 4), c.X, c.Y)
}

func opacityAttr(l *domain.Layer) string {
	if l.Opacity >= 100 || l.Opacity < 0 {
		return ""
	}
	return fmt.Sprintf(" opacity=\"%g\"", l.Opacity/100)
}

func dashAttr(l *domain.Layer) string {
	switch l.StrokeStyle {
	case "dashed":
		return fmt.Sprintf(" stroke-dasharray=\"%g %g\"", 8+l.StrokeWidth, 8+l.StrokeWidth)
	case "dotted":
		return fmt.Sprintf(" stroke-dasharray=\"%g %g\"", 1.5, 6+l.StrokeWidth)
	}
	return ""
}

func escAttr(s string) string {
	// naive escaping sufficient for our simple usage
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, '&', 'q', 'u', 'o', 't', ';')
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
