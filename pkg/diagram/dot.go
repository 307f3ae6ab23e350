// Package diagram turns a state table into a picture: DOT graph text, an SVG
// vector image rendered by a layout engine, and finally a PNG bitmap.
package diagram

import (
	"fmt"
	"strings"

	"github.com/awalterschulze/gographviz"

	"github.com/ha1tch/designdoc/pkg/design"
)

// GraphText is directed-graph source in Graphviz DOT syntax.
type GraphText string

// BuildGraph converts a state table to DOT. Each transition becomes one
// labelled edge, emitted in input order:
//
//	digraph G {
//	  "START" -> "PARSE" [label="parse_arguments"];
//	}
func BuildGraph(transitions []design.Transition) GraphText {
	var sb strings.Builder

	sb.WriteString("digraph G {\n")
	for _, t := range transitions {
		sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\"];\n",
			escapeDOT(t.From), escapeDOT(t.To), escapeDOT(t.Function)))
	}
	sb.WriteString("}")

	return GraphText(sb.String())
}

// escapeDOT makes s safe inside a double-quoted DOT string.
func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\n")
	return s
}

// unescapeDOT reverses escapeDOT on an ID or attribute value as returned by
// the parser, quotes included. Unquoted IDs come back unchanged.
func unescapeDOT(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case '\\':
			sb.WriteByte('\\')
		case '"':
			sb.WriteByte('"')
		case 'n':
			sb.WriteByte('\n')
		case '\n':
			// line continuation
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// Edge is one parsed edge statement.
type Edge struct {
	From  string
	To    string
	Label string
}

// Graph is the parsed form of a GraphText.
type Graph struct {
	Nodes []string // first-appearance order
	Edges []Edge   // statement order
}

// ParseGraph parses DOT text. Node names and labels are returned unescaped,
// so ParseGraph(BuildGraph(ts)) reproduces the labels of ts.
func ParseGraph(text GraphText) (*Graph, error) {
	gv, err := gographviz.Read([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("parse graph: %w", err)
	}
	if !gv.Directed {
		return nil, fmt.Errorf("parse graph: %s is not a digraph", gv.Name)
	}

	g := &Graph{}
	seen := make(map[string]bool)
	addNode := func(name string) {
		if !seen[name] {
			seen[name] = true
			g.Nodes = append(g.Nodes, name)
		}
	}

	for _, e := range gv.Edges.Edges {
		edge := Edge{
			From:  unescapeDOT(e.Src),
			To:    unescapeDOT(e.Dst),
			Label: unescapeDOT(e.Attrs["label"]),
		}
		addNode(edge.From)
		addNode(edge.To)
		g.Edges = append(g.Edges, edge)
	}
	// Standalone node statements come after everything reached by an edge.
	for _, n := range gv.Nodes.Nodes {
		addNode(unescapeDOT(n.Name))
	}

	return g, nil
}
