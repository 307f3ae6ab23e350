package diagram

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// VectorImage is a rendered diagram in SVG form. Width and Height are the
// intrinsic size in pixels, as declared by the SVG root.
type VectorImage struct {
	SVG    []byte
	Width  float64
	Height float64
}

// Renderer lays out graph text and draws it as a vector image.
type Renderer interface {
	RenderToVector(ctx context.Context, g GraphText) (VectorImage, error)
}

// Engine names accepted by NewRenderer.
const (
	EngineAuto     = "auto"
	EngineGraphviz = "graphviz"
	EngineNative   = "native"
)

// NewRenderer returns the renderer for the named engine. dotPath is the
// Graphviz binary to run; empty means "dot" looked up on PATH.
func NewRenderer(engine, dotPath string, opts SVGOptions) (Renderer, error) {
	gv := GraphvizEngine{Path: dotPath}
	native := NativeEngine{Options: opts}

	switch strings.ToLower(engine) {
	case "", EngineAuto:
		return AutoEngine{Graphviz: gv, Native: native}, nil
	case EngineGraphviz, "dot":
		return gv, nil
	case EngineNative, "builtin":
		return native, nil
	default:
		return nil, fmt.Errorf("unknown diagram engine %q", engine)
	}
}

// GraphvizEngine renders through the external Graphviz dot binary.
type GraphvizEngine struct {
	Path string // defaults to "dot"
}

func (e GraphvizEngine) binary() string {
	if e.Path != "" {
		return e.Path
	}
	return "dot"
}

// Available reports whether the dot binary can be found.
func (e GraphvizEngine) Available() bool {
	_, err := exec.LookPath(e.binary())
	return err == nil
}

// RenderToVector runs dot -Tsvg with the graph on stdin.
func (e GraphvizEngine) RenderToVector(ctx context.Context, g GraphText) (VectorImage, error) {
	cmd := exec.CommandContext(ctx, e.binary(), "-Tsvg")
	cmd.Stdin = strings.NewReader(string(g))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return VectorImage{}, &RenderError{Engine: EngineGraphviz, Unavailable: true, Err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return VectorImage{}, &RenderError{Engine: EngineGraphviz, Err: ctxErr}
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return VectorImage{}, &RenderError{Engine: EngineGraphviz, Err: err}
		}
		return VectorImage{}, &RenderError{Engine: EngineGraphviz, Err: fmt.Errorf("%w: %s", err, msg)}
	}

	if stdout.Len() == 0 {
		return VectorImage{}, &RenderError{Engine: EngineGraphviz, Err: errors.New("dot produced no output")}
	}

	return newVectorImage(EngineGraphviz, stdout.Bytes())
}

// AutoEngine prefers Graphviz and falls back to the native engine when the
// dot binary is not installed. A Graphviz failure on a present binary is
// returned as is.
type AutoEngine struct {
	Graphviz GraphvizEngine
	Native   NativeEngine
}

func (e AutoEngine) RenderToVector(ctx context.Context, g GraphText) (VectorImage, error) {
	if e.Graphviz.Available() {
		return e.Graphviz.RenderToVector(ctx, g)
	}
	return e.Native.RenderToVector(ctx, g)
}

func newVectorImage(engine string, svg []byte) (VectorImage, error) {
	w, h, err := intrinsicSize(svg)
	if err != nil {
		return VectorImage{}, &RenderError{Engine: engine, Err: err}
	}
	return VectorImage{SVG: svg, Width: w, Height: h}, nil
}

// svgRoot holds the sizing attributes of an <svg> element.
type svgRoot struct {
	Width   string
	Height  string
	ViewBox [4]float64
	HasView bool
}

// readSVGRoot scans to the first <svg> start element.
func readSVGRoot(data []byte) (svgRoot, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return svgRoot{}, errors.New("no <svg> element")
			}
			return svgRoot{}, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != "svg" {
			return svgRoot{}, fmt.Errorf("root element is <%s>, not <svg>", se.Name.Local)
		}
		var root svgRoot
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "width":
				root.Width = a.Value
			case "height":
				root.Height = a.Value
			case "viewBox":
				fields := strings.FieldsFunc(a.Value, func(r rune) bool { return r == ' ' || r == ',' })
				if len(fields) == 4 {
					ok := true
					for i, f := range fields {
						v, err := strconv.ParseFloat(f, 64)
						if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
							ok = false
							break
						}
						root.ViewBox[i] = v
					}
					root.HasView = ok
				}
			}
		}
		return root, nil
	}
}

// intrinsicSize returns the pixel size an SVG declares for itself.
// Lengths in pt are converted at 96 dpi, the way browsers size an <img>;
// a missing width or height falls back to the viewBox.
func intrinsicSize(data []byte) (float64, float64, error) {
	root, err := readSVGRoot(data)
	if err != nil {
		return 0, 0, err
	}

	w, wok := parseLength(root.Width)
	h, hok := parseLength(root.Height)
	if !wok && root.HasView {
		w, wok = root.ViewBox[2], true
	}
	if !hok && root.HasView {
		h, hok = root.ViewBox[3], true
	}
	if !wok || !hok || !usableLength(w) || !usableLength(h) {
		return 0, 0, fmt.Errorf("svg has no usable size (width=%q height=%q)", root.Width, root.Height)
	}
	return w, h, nil
}

// parseLength converts an SVG length to pixels.
func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "%") {
		return 0, false
	}

	scale := 1.0
	units := []struct {
		suffix string
		px     float64
	}{
		{"px", 1},
		{"pt", 96.0 / 72.0},
		{"pc", 16},
		{"in", 96},
		{"cm", 96 / 2.54},
		{"mm", 96 / 25.4},
	}
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSuffix(s, u.suffix)
			scale = u.px
			break
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	v *= scale
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// usableLength reports whether v can size a canvas.
func usableLength(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
