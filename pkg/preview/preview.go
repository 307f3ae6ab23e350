// Package preview renders an assembled document's outline as Markdown
// and, for terminals, through glamour.
package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/ha1tch/designdoc/pkg/docx"
)

// DiagramPlaceholder stands in for the embedded picture.
const DiagramPlaceholder = "*[state transition diagram]*"

var escaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "#", `\#`, "|", `\|`,
)

func escape(s string) string {
	s = escaper.Replace(s)
	// A line opening with a list or quote marker would change block type.
	if s != "" && strings.ContainsRune("-+", rune(s[0])) {
		s = `\` + s
	}
	return s
}

// Markdown turns outline sections into Markdown. Headings keep their
// level, bold lead-ins stay bold and line breaks become hard breaks.
func Markdown(sections []docx.Section) string {
	var sb strings.Builder
	for _, s := range sections {
		switch s.Type {
		case "heading":
			level := min(max(s.Level, 1), 6)
			sb.WriteString(strings.Repeat("#", level) + " " + escape(strings.ReplaceAll(s.Text, "\n", " ")) + "\n\n")
		case "image":
			sb.WriteString(DiagramPlaceholder + "\n\n")
		default:
			sb.WriteString(paragraph(s) + "\n\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func paragraph(s docx.Section) string {
	text := strings.ReplaceAll(s.Text, "\t", "    ")
	var lead string
	if b := strings.TrimSpace(s.Bold); b != "" && !strings.Contains(b, "\n") && strings.HasPrefix(text, b) {
		lead, text = b, text[len(b):]
	}

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = escape(l)
	}
	if lead != "" {
		lines[0] = "**" + escaper.Replace(lead) + "**" + lines[0]
	}
	return strings.Join(lines, "  \n")
}

// Options control terminal rendering.
type Options struct {
	Style string // glamour style name; empty picks by terminal background
	Width int    // word wrap column, 0 for glamour's default
}

// Render renders Markdown for a terminal.
func Render(markdown string, opts Options) (string, error) {
	ropts := []glamour.TermRendererOption{}
	if opts.Style == "" {
		ropts = append(ropts, glamour.WithAutoStyle())
	} else {
		ropts = append(ropts, glamour.WithStandardStyle(opts.Style))
	}
	if opts.Width > 0 {
		ropts = append(ropts, glamour.WithWordWrap(opts.Width))
	}
	r, err := glamour.NewTermRenderer(ropts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// Document reads a DOCX package and returns its Markdown outline.
func Document(data []byte) (string, error) {
	sections, err := docx.ReadOutline(data)
	if err != nil {
		return "", err
	}
	return Markdown(sections), nil
}
