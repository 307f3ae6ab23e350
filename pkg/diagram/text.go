package diagram

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// The geometry rasterizer skips <text>, so labels are drawn in a second
// pass with Go Regular.

var (
	regularOnce sync.Once
	regularFont *opentype.Font
	regularErr  error
)

func goRegular() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = opentype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// affine is a 2D transform {a b c d e f}: x' = a*x + c*y + e, y' = b*x + d*y + f.
type affine [6]float64

var identity = affine{1, 0, 0, 1, 0, 0}

// mul returns m then n applied as one transform (n in m's space).
func (m affine) mul(n affine) affine {
	return affine{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

func (m affine) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// scale is the mean linear scale factor of m.
func (m affine) scale() float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

// parseTransform reads an SVG transform list. Unknown or malformed
// entries are ignored.
func parseTransform(s string) affine {
	m := identity
	for {
		s = strings.TrimLeft(s, " ,\t\n")
		open := strings.IndexByte(s, '(')
		if open < 0 {
			return m
		}
		end := strings.IndexByte(s[open:], ')')
		if end < 0 {
			return m
		}
		name := strings.TrimSpace(s[:open])
		args := parseNumbers(s[open+1 : open+end])
		s = s[open+end+1:]

		var t affine
		switch {
		case name == "translate" && len(args) >= 1:
			ty := 0.0
			if len(args) > 1 {
				ty = args[1]
			}
			t = affine{1, 0, 0, 1, args[0], ty}
		case name == "scale" && len(args) >= 1:
			sy := args[0]
			if len(args) > 1 {
				sy = args[1]
			}
			t = affine{args[0], 0, 0, sy, 0, 0}
		case name == "rotate" && len(args) >= 1:
			rad := args[0] * math.Pi / 180
			cos, sin := math.Cos(rad), math.Sin(rad)
			t = affine{cos, sin, -sin, cos, 0, 0}
			if len(args) >= 3 {
				cx, cy := args[1], args[2]
				t = affine{1, 0, 0, 1, cx, cy}.mul(t).mul(affine{1, 0, 0, 1, -cx, -cy})
			}
		case name == "matrix" && len(args) == 6:
			copy(t[:], args)
		case name == "skewX" && len(args) == 1:
			t = affine{1, 0, math.Tan(args[0] * math.Pi / 180), 1, 0, 0}
		case name == "skewY" && len(args) == 1:
			t = affine{1, math.Tan(args[0] * math.Pi / 180), 0, 1, 0, 0}
		default:
			continue
		}
		m = m.mul(t)
	}
}

func parseNumbers(s string) []float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}

// textStyle is the inherited presentation state at one element.
type textStyle struct {
	transform affine
	fontSize  float64
	anchor    string
	fill      color.Color
	hidden    bool
}

func (s textStyle) with(attrs []xml.Attr) textStyle {
	for _, a := range attrs {
		switch a.Name.Local {
		case "transform":
			s.transform = s.transform.mul(parseTransform(a.Value))
		case "font-size":
			if v, ok := parseLength(a.Value); ok && v > 0 {
				s.fontSize = v
			}
		case "text-anchor":
			s.anchor = strings.TrimSpace(a.Value)
		case "fill":
			if c, ok := parseColor(a.Value); ok {
				s.fill = c
			} else if strings.TrimSpace(a.Value) == "none" {
				s.hidden = true
			}
		case "style":
			for _, decl := range strings.Split(a.Value, ";") {
				k, v, ok := strings.Cut(decl, ":")
				if !ok {
					continue
				}
				s = s.with([]xml.Attr{{Name: xml.Name{Local: strings.TrimSpace(k)}, Value: strings.TrimSpace(v)}})
			}
		}
	}
	return s
}

// textRun is a <text> element ready to draw.
type textRun struct {
	x, y  float64
	style textStyle
	text  strings.Builder
}

// drawText draws every <text> element of an SVG onto dst, which the view
// transform maps user space onto.
func drawText(dst *image.RGBA, svg []byte, view affine) error {
	var runs []*textRun

	dec := xml.NewDecoder(bytes.NewReader(svg))
	dec.Strict = false
	stack := []textStyle{{transform: view, fontSize: 14, anchor: "start", fill: color.Black}}
	var current *textRun

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read svg text: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			style := stack[len(stack)-1].with(t.Attr)
			stack = append(stack, style)
			if t.Name.Local == "text" && current == nil {
				current = &textRun{style: style}
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "x":
						current.x, _ = firstNumber(a.Value)
					case "y":
						current.y, _ = firstNumber(a.Value)
					}
				}
			}
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			if t.Name.Local == "text" && current != nil {
				runs = append(runs, current)
				current = nil
			}
		case xml.CharData:
			if current != nil {
				current.text.Write(t)
			}
		}
	}

	if len(runs) == 0 {
		return nil
	}

	fnt, err := goRegular()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	faces := make(map[float64]font.Face)
	defer func() {
		for _, f := range faces {
			f.Close()
		}
	}()

	for _, run := range runs {
		s := strings.Join(strings.Fields(run.text.String()), " ")
		if s == "" || run.style.hidden {
			continue
		}

		size := math.Round(run.style.fontSize*run.style.transform.scale()*4) / 4
		if size < 1 {
			continue
		}
		face, ok := faces[size]
		if !ok {
			face, err = opentype.NewFace(fnt, &opentype.FaceOptions{
				Size:    size,
				DPI:     72,
				Hinting: font.HintingNone,
			})
			if err != nil {
				return fmt.Errorf("font face: %w", err)
			}
			faces[size] = face
		}

		x, y := run.style.transform.apply(run.x, run.y)
		width := float64(font.MeasureString(face, s)) / 64
		switch run.style.anchor {
		case "middle":
			x -= width / 2
		case "end":
			x -= width
		}

		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(run.style.fill),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
		}
		d.DrawString(s)
	}
	return nil
}

func firstNumber(s string) (float64, bool) {
	nums := parseNumbers(s)
	if len(nums) == 0 {
		return 0, false
	}
	return nums[0], true
}

var namedColors = map[string]color.RGBA{
	"black": {0, 0, 0, 255},
	"white": {255, 255, 255, 255},
	"red":   {255, 0, 0, 255},
	"green": {0, 128, 0, 255},
	"blue":  {0, 0, 255, 255},
	"gray":  {128, 128, 128, 255},
	"grey":  {128, 128, 128, 255},
}

// parseColor handles #rgb, #rrggbb and a few names.
func parseColor(s string) (color.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if !strings.HasPrefix(s, "#") {
		return nil, false
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, false
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, true
}
