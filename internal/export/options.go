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
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // decoder for jpeg data URLs
	"math"
	"strconv"
	"strings"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/vector"
)

// ErrBadDataURL is returned for image payloads that are not base64 data URLs.
var ErrBadDataURL = errors.New("export: malformed data URL")

// Options is the subset of editor state an export reads. It is decoupled
// from the live AppState so exports never observe in-flight edits.
type Options struct {
	Padding         float64
	Background      bool
	BackgroundColor string
	DarkMode        bool
	Scale           float64
}

// FromAppState copies the export fields out of app.
func FromAppState(app *domain.AppState) Options {
	if app == nil {
		return Options{}.normalized()
	}
	return Options{
		Padding:         app.ExportPadding,
		Background:      app.ExportBackground,
		BackgroundColor: app.ViewBackgroundColor,
		DarkMode:        app.ExportWithDarkMode,
		Scale:           app.ExportScale,
	}.normalized()
}

func (o Options) normalized() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	if o.BackgroundColor == "" {
		o.BackgroundColor = "#ffffff"
	}
	return o
}

// Exportable filters layers down to what an export draws: non-deleted
// layers other than the transient selection box.
func Exportable(layers []*domain.Layer) []*domain.Layer {
	out := make([]*domain.Layer, 0, len(layers))
	for _, l := range layers {
		if l == nil || l.IsDeleted || l.Type == domain.TypeSelection {
			continue
		}
		out = append(out, l)
	}
	return out
}

// frame maps scene coordinates onto the export surface.
type frame struct {
	bounds vector.Rect
	pad    float64
	scale  float64
	// W and H are the unscaled surface size
	W, H float64
}

func newFrame(layers []*domain.Layer, o Options) frame {
	b := scene.CommonBounds(layers)
	return frame{
		bounds: b,
		pad:    o.Padding,
		scale:  o.Scale,
		W:      b.W + 2*o.Padding,
		H:      b.H + 2*o.Padding,
	}
}

// PixelSize returns the surface size in output pixels.
func (f frame) PixelSize() (int, int) {
	w := int(math.Round(f.W * f.scale))
	h := int(math.Round(f.H * f.scale))
	return max(w, 1), max(h, 1)
}

// local maps a scene point to unscaled surface coordinates.
func (f frame) local(p vector.Pt) vector.Pt {
	return vector.Pt{X: p.X - f.bounds.X + f.pad, Y: p.Y - f.bounds.Y + f.pad}
}

// world maps a pixel center back to scene coordinates.
func (f frame) world(px, py int) vector.Pt {
	return vector.Pt{
		X: (float64(px)+0.5)/f.scale + f.bounds.X - f.pad,
		Y: (float64(py)+0.5)/f.scale + f.bounds.Y - f.pad,
	}
}

// pixelRect returns the pixel rectangle covering the scene rect r.
func (f frame) pixelRect(r vector.Rect) image.Rectangle {
	a := f.local(r.Min())
	b := f.local(r.Max())
	return image.Rect(
		int(math.Floor(a.X*f.scale)), int(math.Floor(a.Y*f.scale)),
		int(math.Ceil(b.X*f.scale)), int(math.Ceil(b.Y*f.scale)),
	)
}

// paint resolves a CSS color with the layer opacity applied and the dark
// mode filter when requested. The result is premultiplied.
func (o Options) paint(css string, opacity float64) (color.RGBA, bool) {
	c, ok := parseColor(css)
	if !ok || c.A == 0 {
		return color.RGBA{}, false
	}
	if o.DarkMode {
		c = darken(c)
	}
	a := float64(c.A) / 255
	if opacity >= 0 && opacity < 100 {
		a *= opacity / 100
	}
	if a <= 0 {
		return color.RGBA{}, false
	}
	return color.RGBA{
		R: uint8(math.Round(float64(c.R) * a)),
		G: uint8(math.Round(float64(c.G) * a)),
		B: uint8(math.Round(float64(c.B) * a)),
		A: uint8(math.Round(a * 255)),
	}, true
}

// parseColor understands #rgb, #rrggbb, #rrggbbaa, transparent and a few
// named colors. The returned color is not premultiplied.
func parseColor(s string) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "transparent", "none":
		return color.RGBA{}, true
	case "black":
		return color.RGBA{A: 255}, true
	case "white":
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}, true
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

// darken approximates the invert(93%) hue-rotate(180deg) filter used for
// dark exports.
func darken(c color.RGBA) color.RGBA {
	inv := func(v uint8) float64 { return 0.93*255 + float64(v)*(1-2*0.93) }
	r, g, b := inv(c.R), inv(c.G), inv(c.B)
	clamp := func(v float64) uint8 { return uint8(math.Round(math.Max(0, math.Min(255, v)))) }
	return color.RGBA{
		R: clamp(-0.574*r + 1.43*g + 0.144*b),
		G: clamp(0.426*r + 0.43*g + 0.144*b),
		B: clamp(0.426*r + 1.43*g - 0.856*b),
		A: c.A,
	}
}

func svgColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// straight undoes premultiplication for outputs that take alpha separately.
func straight(c color.RGBA) (r, g, b int, a float64) {
	if c.A == 0 {
		return 0, 0, 0, 0
	}
	a = float64(c.A) / 255
	return int(math.Round(float64(c.R) / a)), int(math.Round(float64(c.G) / a)), int(math.Round(float64(c.B) / a)), a
}

// decodeDataURL returns the mime type and raw bytes of a base64 data URL.
func decodeDataURL(u string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, ErrBadDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return strings.TrimSuffix(meta, ";base64"), data, nil
}

// imageFor decodes the bitmap referenced by an image layer.
func imageFor(l *domain.Layer, files domain.Files) (image.Image, bool) {
	if l.Type != domain.TypeImage || l.FileID == "" {
		return nil, false
	}
	f, ok := files[l.FileID]
	if !ok {
		return nil, false
	}
	_, data, err := decodeDataURL(f.DataURL)
	if err != nil {
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	return img, true
}

// arrowhead returns the two barbs of an arrowhead at tip pointing away from
// from.
func arrowhead(tip, from vector.Pt, strokeWidth float64) [2]vector.Pt {
	seg := tip.Dist(from)
	size := math.Min(15+strokeWidth*2, seg/2)
	ang := math.Atan2(tip.Y-from.Y, tip.X-from.X)
	spread := 25 * math.Pi / 180
	return [2]vector.Pt{
		{X: tip.X - size*math.Cos(ang-spread), Y: tip.Y - size*math.Sin(ang-spread)},
		{X: tip.X - size*math.Cos(ang+spread), Y: tip.Y - size*math.Sin(ang+spread)},
	}
}

// strokeSegments returns the polyline segments of a linear layer including
// arrowhead barbs.
func strokeSegments(l *domain.Layer) [][2]vector.Pt {
	pts := scene.AbsolutePoints(l)
	var segs [][2]vector.Pt
	for i := 1; i < len(pts); i++ {
		segs = append(segs, [2]vector.Pt{pts[i-1], pts[i]})
	}
	if len(pts) < 2 {
		return segs
	}
	if l.EndArrowhead != "" {
		n := len(pts)
		for _, b := range arrowhead(pts[n-1], pts[n-2], l.StrokeWidth) {
			segs = append(segs, [2]vector.Pt{pts[n-1], b})
		}
	}
	if l.StartArrowhead != "" {
		for _, b := range arrowhead(pts[0], pts[1], l.StrokeWidth) {
			segs = append(segs, [2]vector.Pt{pts[0], b})
		}
	}
	return segs
}

// diamondPoints returns the corners of a diamond layer in scene space.
func diamondPoints(l *domain.Layer) []vector.Pt {
	r := scene.UnrotatedRect(l)
	c := r.Center()
	pts := []vector.Pt{{X: c.X, Y: r.Y}, {X: r.X + r.W, Y: c.Y}, {X: c.X, Y: r.Y + r.H}, {X: r.X, Y: c.Y}}
	for i, p := range pts {
		pts[i] = vector.RotatePoint(p, c, l.Angle)
	}
	return pts
}

func fontFamilyName(f int) string {
	switch f {
	case 2:
		return "Helvetica, Arial, sans-serif"
	case 3:
		return "Cascadia, monospace"
	default:
		return "Virgil, Segoe UI Emoji, sans-serif"
	}
}

func textLines(l *domain.Layer) []string {
	return strings.Split(l.Text, "\n")
}

// lineX returns the x offset of a line of width w inside a text layer.
func lineX(l *domain.Layer, w float64) float64 {
	switch l.TextAlign {
	case domain.AlignCenter:
		return (l.Width - w) / 2
	case domain.AlignRight:
		return l.Width - w
	}
	return 0
}
