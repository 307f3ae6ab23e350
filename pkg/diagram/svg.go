package diagram

import (
	"encoding/xml"
	"fmt"
	"math"
	"strings"
)

// SVGOptions controls the native engine's layout and drawing.
type SVGOptions struct {
	FontSize     float64 // state labels
	LabelSize    float64 // transition labels (0 = FontSize - 2)
	FontFamily   string
	NodeHeight   float64 // ellipse height
	MinNodeWidth float64
	NodeSep      float64 // horizontal gap between nodes in a layer
	RankSep      float64 // vertical gap between layers
	Margin       float64
	TopSpace     float64 // room above the first layer for self loops
	Stroke       string
	Fill         string
}

// DefaultSVGOptions returns the options used when none are configured.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		FontSize:     14,
		LabelSize:    0, // FontSize - 2
		FontFamily:   "sans-serif",
		NodeHeight:   36,
		MinNodeWidth: 54,
		NodeSep:      40,
		RankSep:      60,
		Margin:       20,
		TopSpace:     30,
		Stroke:       "#000000",
		Fill:         "#ffffff",
	}
}

// withDefaults fills zero fields from DefaultSVGOptions.
func (o SVGOptions) withDefaults() SVGOptions {
	d := DefaultSVGOptions()
	if o.FontSize <= 0 {
		o.FontSize = d.FontSize
	}
	if o.LabelSize <= 0 {
		o.LabelSize = math.Max(6, o.FontSize-2)
	}
	if o.FontFamily == "" {
		o.FontFamily = d.FontFamily
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.MinNodeWidth <= 0 {
		o.MinNodeWidth = d.MinNodeWidth
	}
	if o.NodeSep <= 0 {
		o.NodeSep = d.NodeSep
	}
	if o.RankSep <= 0 {
		o.RankSep = d.RankSep
	}
	if o.Margin <= 0 {
		o.Margin = d.Margin
	}
	if o.TopSpace < 0 {
		o.TopSpace = 0
	}
	if o.Stroke == "" {
		o.Stroke = d.Stroke
	}
	if o.Fill == "" {
		o.Fill = d.Fill
	}
	return o
}

// edgeGroup is every edge between one ordered pair of nodes.
type edgeGroup struct {
	from, to string
	labels   []string
}

func (g *edgeGroup) label() string {
	return strings.Join(g.labels, ", ")
}

// groupEdges merges parallel edges, keeping first-appearance order.
func groupEdges(edges []Edge) []*edgeGroup {
	var groups []*edgeGroup
	index := make(map[[2]string]*edgeGroup)
	for _, e := range edges {
		key := [2]string{e.From, e.To}
		g, ok := index[key]
		if !ok {
			g = &edgeGroup{from: e.From, to: e.To}
			index[key] = g
			groups = append(groups, g)
		}
		if e.Label != "" {
			g.labels = append(g.labels, e.Label)
		}
	}
	return groups
}

// WriteSVG draws a laid-out graph. All styling is inline: no CSS, no
// markers, so the output rasterizes the same everywhere.
func WriteSVG(g *Graph, lay *Layout, opts SVGOptions) string {
	opts = opts.withDefaults()

	width := int(math.Ceil(lay.Width))
	height := int(math.Ceil(lay.Height))

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		width, height, width, height))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="#ffffff"/>`+"\n", width, height))

	d := &svgDrawer{sb: &sb, opts: opts, centreX: lay.Width / 2, centreY: lay.Height / 2}

	groups := groupEdges(g.Edges)
	pairs := make(map[[2]string]*edgeGroup, len(groups))
	for _, eg := range groups {
		pairs[[2]string{eg.from, eg.to}] = eg
	}

	drawn := make(map[*edgeGroup]bool)
	for _, eg := range groups {
		if drawn[eg] {
			continue
		}
		drawn[eg] = true

		from, fok := lay.Nodes[eg.from]
		to, tok := lay.Nodes[eg.to]
		if !fok || !tok {
			continue
		}

		if eg.from == eg.to {
			d.selfLoop(from, eg.label())
			continue
		}
		if rev, ok := pairs[[2]string{eg.to, eg.from}]; ok && !drawn[rev] {
			drawn[rev] = true
			d.bidiTransition(from, to, eg.label(), rev.label())
			continue
		}
		d.transition(from, to, eg.label())
	}

	// Nodes last so they sit over edge ends.
	for _, name := range g.Nodes {
		box, ok := lay.Nodes[name]
		if !ok {
			continue
		}
		d.node(name, box)
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

type svgDrawer struct {
	sb               *strings.Builder
	opts             SVGOptions
	centreX, centreY float64
}

func (d *svgDrawer) node(name string, box NodeBox) {
	d.sb.WriteString(fmt.Sprintf(`<ellipse cx="%.1f" cy="%.1f" rx="%.1f" ry="%.1f" fill="%s" stroke="%s" stroke-width="1"/>`+"\n",
		box.X, box.Y, box.W/2, box.H/2, d.opts.Fill, d.opts.Stroke))
	d.text(box.X, box.Y+d.opts.FontSize*0.35, d.opts.FontSize, name)
}

func (d *svgDrawer) text(x, y, size float64, s string) {
	if s == "" {
		return
	}
	d.sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-family="%s" font-size="%.1f" fill="%s" text-anchor="middle">%s</text>`+"\n",
		x, y, xmlText(d.opts.FontFamily), size, d.opts.Stroke, xmlText(s)))
}

// xmlText escapes s for character data or an attribute value. Runes XML
// cannot carry, such as control characters, become U+FFFD.
func xmlText(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

func (d *svgDrawer) path(p string) {
	d.sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="1"/>`+"\n", p, d.opts.Stroke))
}

// arrowHead draws a filled head with its tip at (x, y), pointing along (dx, dy).
func (d *svgDrawer) arrowHead(x, y, dx, dy float64) {
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	dx, dy = dx/l, dy/l
	const length, half = 10.0, 3.5
	bx, by := x-dx*length, y-dy*length
	d.sb.WriteString(fmt.Sprintf(`<polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="%s" stroke="%s" stroke-width="1"/>`+"\n",
		x, y, bx-dy*half, by+dx*half, bx+dy*half, by-dx*half, d.opts.Stroke, d.opts.Stroke))
}

// boundary returns the point where a ray from the centre of box in
// direction (nx, ny) leaves its ellipse.
func boundary(box NodeBox, nx, ny float64) (float64, float64) {
	rx, ry := box.W/2, box.H/2
	t := 1 / math.Sqrt((nx*nx)/(rx*rx)+(ny*ny)/(ry*ry))
	return box.X + nx*t, box.Y + ny*t
}

func (d *svgDrawer) transition(from, to NodeBox, label string) {
	dx, dy := to.X-from.X, to.Y-from.Y
	dist := math.Hypot(dx, dy)
	if dist < 1 {
		return
	}
	nx, ny := dx/dist, dy/dist

	skip := to.Layer-from.Layer > 1
	back := to.Layer <= from.Layer && from.Layer != to.Layer
	sideways := from.Layer == to.Layer

	if !(skip || back || sideways) {
		sx, sy := boundary(from, nx, ny)
		ex, ey := boundary(to, -nx, -ny)
		d.path(fmt.Sprintf("M%.1f,%.1f L%.1f,%.1f", sx, sy, ex, ey))
		d.arrowHead(ex, ey, nx, ny)

		mx, my := (sx+ex)/2, (sy+ey)/2
		d.text(mx-ny*12+6, my+nx*12, d.opts.LabelSize, label)
		return
	}

	// Curve away from the centre of the drawing so long and back edges
	// run round the outside instead of through other nodes.
	midX, midY := (from.X+to.X)/2, (from.Y+to.Y)/2
	perpX, perpY := -ny, nx
	if perpX*(midX-d.centreX)+perpY*(midY-d.centreY) < 0 {
		perpX, perpY = ny, -nx
	}
	if sideways {
		// Same layer: bow upwards unless on the top row.
		perpX, perpY = 0, -1
		if from.Layer == 0 {
			perpY = 1
		}
	}

	bend := dist * 0.2
	if back {
		bend = dist * 0.35
	}
	cx, cy := midX+perpX*bend, midY+perpY*bend

	sdx, sdy := unit(cx-from.X, cy-from.Y)
	edx, edy := unit(cx-to.X, cy-to.Y)
	sx, sy := boundary(from, sdx, sdy)
	ex, ey := boundary(to, edx, edy)

	d.path(fmt.Sprintf("M%.1f,%.1f Q%.1f,%.1f %.1f,%.1f", sx, sy, cx, cy, ex, ey))
	d.arrowHead(ex, ey, ex-cx, ey-cy)

	// The curve passes halfway between its chord midpoint and the control point.
	lx := (midX+cx)/2 + perpX*10
	ly := (midY+cy)/2 + perpY*10
	d.text(lx, ly, d.opts.LabelSize, label)
}

func (d *svgDrawer) bidiTransition(a, b NodeBox, forward, reverse string) {
	dx, dy := b.X-a.X, b.Y-a.Y
	dist := math.Hypot(dx, dy)
	if dist < 1 {
		return
	}
	nx, ny := dx/dist, dy/dist
	px, py := -ny*20, nx*20

	curve := func(from, to NodeBox, ox, oy float64, label string, labelDy float64) {
		cx := (from.X+to.X)/2 + ox
		cy := (from.Y+to.Y)/2 + oy
		sdx, sdy := unit(cx-from.X, cy-from.Y)
		edx, edy := unit(cx-to.X, cy-to.Y)
		sx, sy := boundary(from, sdx, sdy)
		ex, ey := boundary(to, edx, edy)
		d.path(fmt.Sprintf("M%.1f,%.1f Q%.1f,%.1f %.1f,%.1f", sx, sy, cx, cy, ex, ey))
		d.arrowHead(ex, ey, ex-cx, ey-cy)
		d.text(cx, cy+labelDy, d.opts.LabelSize, label)
	}

	curve(a, b, px, py, forward, -5)
	curve(b, a, -px, -py, reverse, 12)
}

func (d *svgDrawer) selfLoop(box NodeBox, label string) {
	rx, ry := box.W/2, box.H/2
	loop := ry * 1.2

	sx, sy := box.X-rx*0.4, box.Y-ry*0.9
	ex, ey := box.X+rx*0.4, box.Y-ry*0.9
	c1x, c1y := box.X-rx*0.8, box.Y-ry-loop
	c2x, c2y := box.X+rx*0.8, box.Y-ry-loop

	d.path(fmt.Sprintf("M%.1f,%.1f C%.1f,%.1f %.1f,%.1f %.1f,%.1f", sx, sy, c1x, c1y, c2x, c2y, ex, ey))
	d.arrowHead(ex, ey, ex-c2x, ey-c2y)
	d.text(box.X, box.Y-ry-loop*0.75-4, d.opts.LabelSize, label)
}

func unit(dx, dy float64) (float64, float64) {
	l := math.Hypot(dx, dy)
	if l == 0 {
		return 0, 1
	}
	return dx / l, dy / l
}
