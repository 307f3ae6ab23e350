package diagram

import (
	"math"
	"sort"
)

// LayeredLayout places the nodes of g in horizontal layers, top to bottom,
// in the manner of Sugiyama's method (and Graphviz's dot):
//
//  1. Layer assignment - BFS from each unvisited node in first-appearance order
//  2. Crossing reduction - barycentre sweeps down and up the layers
//  3. Coordinates - nodes packed left to right, each layer centred
func LayeredLayout(g *Graph, opts SVGOptions) *Layout {
	opts = opts.withDefaults()
	lay := &Layout{Nodes: make(map[string]NodeBox)}
	if len(g.Nodes) == 0 {
		lay.Width = 2 * opts.Margin
		lay.Height = 2 * opts.Margin
		return lay
	}

	adj := buildAdjacency(g)
	layers := assignLayers(adj)
	best, bestCrossings := layers, totalCrossings(layers, adj)
	for i := 0; i < 4 && bestCrossings > 0; i++ {
		layers = reduceCrossings(layers, adj)
		if c := totalCrossings(layers, adj); c < bestCrossings {
			best, bestCrossings = layers, c
		}
	}
	lay.Layers = best

	assignCoordinates(lay, opts)
	return lay
}

// Layout is the result of LayeredLayout. Coordinates are node centres.
type Layout struct {
	Width  float64
	Height float64
	Nodes  map[string]NodeBox
	Layers [][]string
}

// NodeBox is the placed extent of one node.
type NodeBox struct {
	X, Y  float64 // centre
	W, H  float64
	Layer int
	Order int // position within its layer
}

// adjacency is the deduplicated edge structure of a graph.
type adjacency struct {
	nodes    []string
	forward  map[string][]string
	backward map[string][]string
}

func buildAdjacency(g *Graph) *adjacency {
	a := &adjacency{
		nodes:    append([]string(nil), g.Nodes...),
		forward:  make(map[string][]string),
		backward: make(map[string][]string),
	}

	seen := make(map[[2]string]bool)
	for _, e := range g.Edges {
		if e.From == e.To {
			continue
		}
		key := [2]string{e.From, e.To}
		if seen[key] {
			continue
		}
		seen[key] = true
		a.forward[e.From] = append(a.forward[e.From], e.To)
		a.backward[e.To] = append(a.backward[e.To], e.From)
	}
	return a
}

// assignLayers gives every node the BFS distance from the root of the
// search that first reached it. Back edges therefore point upwards.
func assignLayers(a *adjacency) [][]string {
	layerOf := make(map[string]int)
	maxLayer := 0

	for _, root := range a.nodes {
		if _, done := layerOf[root]; done {
			continue
		}
		layerOf[root] = 0
		queue := []string{root}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range a.forward[cur] {
				if _, visited := layerOf[next]; visited {
					continue
				}
				layerOf[next] = layerOf[cur] + 1
				if layerOf[next] > maxLayer {
					maxLayer = layerOf[next]
				}
				queue = append(queue, next)
			}
		}
	}

	layers := make([][]string, maxLayer+1)
	for _, name := range a.nodes {
		l := layerOf[name]
		layers[l] = append(layers[l], name)
	}
	return layers
}

// reduceCrossings reorders each layer by the mean position of its
// neighbours in the previous layer (downward sweep), then the next layer
// (upward sweep). Ties keep their current order.
func reduceCrossings(layers [][]string, a *adjacency) [][]string {
	if len(layers) <= 1 {
		return layers
	}

	result := make([][]string, len(layers))
	for i := range layers {
		result[i] = append([]string(nil), layers[i]...)
	}

	pos := make(map[string]float64)
	for _, layer := range result {
		for i, name := range layer {
			pos[name] = float64(i)
		}
	}

	sortLayer := func(layer []string, neighbours map[string][]string) {
		bary := make(map[string]float64, len(layer))
		for _, name := range layer {
			sum, count := 0.0, 0
			for _, n := range neighbours[name] {
				if p, ok := pos[n]; ok {
					sum += p
					count++
				}
			}
			if count > 0 {
				bary[name] = sum / float64(count)
			} else {
				bary[name] = pos[name]
			}
		}
		sort.SliceStable(layer, func(i, j int) bool {
			return bary[layer[i]] < bary[layer[j]]
		})
		for i, name := range layer {
			pos[name] = float64(i)
		}
	}

	for l := 1; l < len(result); l++ {
		sortLayer(result[l], a.backward)
	}
	for l := len(result) - 2; l >= 0; l-- {
		sortLayer(result[l], a.forward)
	}

	return result
}

func totalCrossings(layers [][]string, a *adjacency) int {
	total := 0
	for l := 0; l+1 < len(layers); l++ {
		total += countCrossings(layers[l], layers[l+1], a)
	}
	return total
}

// countCrossings counts edge crossings between two adjacent layers.
func countCrossings(upper, lower []string, a *adjacency) int {
	lowerPos := make(map[string]int, len(lower))
	for i, name := range lower {
		lowerPos[name] = i
	}

	type seg struct{ u, l int }
	var segs []seg
	for i, name := range upper {
		for _, next := range a.forward[name] {
			if j, ok := lowerPos[next]; ok {
				segs = append(segs, seg{i, j})
			}
		}
	}

	crossings := 0
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			if (segs[i].u < segs[j].u && segs[i].l > segs[j].l) ||
				(segs[i].u > segs[j].u && segs[i].l < segs[j].l) {
				crossings++
			}
		}
	}
	return crossings
}

// nodeSize estimates the ellipse that fits a label, using the same average
// glyph width the SVG writer assumes.
func nodeSize(label string, opts SVGOptions) (float64, float64) {
	textWidth := float64(len([]rune(label))) * opts.FontSize * 0.6
	w := math.Max(opts.MinNodeWidth, textWidth+opts.FontSize*2)
	return w, opts.NodeHeight
}

func assignCoordinates(lay *Layout, opts SVGOptions) {
	layerWidths := make([]float64, len(lay.Layers))
	widest := 0.0
	for l, layer := range lay.Layers {
		total := 0.0
		for i, name := range layer {
			w, _ := nodeSize(name, opts)
			total += w
			if i > 0 {
				total += opts.NodeSep
			}
		}
		layerWidths[l] = total
		widest = math.Max(widest, total)
	}

	for l, layer := range lay.Layers {
		x := opts.Margin + (widest-layerWidths[l])/2
		y := opts.Margin + opts.TopSpace + float64(l)*(opts.NodeHeight+opts.RankSep) + opts.NodeHeight/2
		for i, name := range layer {
			w, h := nodeSize(name, opts)
			lay.Nodes[name] = NodeBox{X: x + w/2, Y: y, W: w, H: h, Layer: l, Order: i}
			x += w + opts.NodeSep
		}
	}

	lay.Width = widest + 2*opts.Margin
	lay.Height = float64(len(lay.Layers))*opts.NodeHeight +
		float64(len(lay.Layers)-1)*opts.RankSep + 2*opts.Margin + opts.TopSpace
}
