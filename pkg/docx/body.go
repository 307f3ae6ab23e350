package docx

import "github.com/ha1tch/designdoc/pkg/design"

// Paragraph styles defined in styles.xml.
const (
	styleTitle    = "Title"
	styleHeading1 = "Heading1"
	styleHeading2 = "Heading2"
)

// run is a span of text. Newlines in text become line breaks.
type run struct {
	text string
	bold bool
}

type paragraph struct {
	style        string
	runs         []run
	spacingAfter int // twentieths of a point
	picture      bool
}

func heading(style, text string) paragraph {
	return paragraph{style: style, runs: []run{{text: text}}}
}

func plain(text string) paragraph {
	return paragraph{runs: []run{{text: text}}}
}

// item is one list entry: a bold label line then one line per field.
func item(label, value string, fields ...[2]string) paragraph {
	p := paragraph{runs: []run{{text: label + " " + value, bold: true}}}
	for _, f := range fields {
		p.runs = append(p.runs, run{text: "\n" + f[0] + " " + f[1]})
	}
	return p
}

func field(label, value string) [2]string {
	return [2]string{label, value}
}

// buildBody lays out every section in document order.
func buildBody(doc design.Document, h Header, withDiagram bool) []paragraph {
	body := []paragraph{
		heading(styleTitle, h.Title),
		heading(styleHeading1, h.Course),
		heading(styleHeading1, h.Assignment),
		heading(styleHeading2, h.Subtitle),
		{runs: []run{{text: h.Author + "\n" + h.StudentID + "\n" + h.Date}}, spacingAfter: 200},
	}

	purpose := doc.Purpose
	if purpose == "" {
		purpose = "N/A"
	}
	body = append(body,
		heading(styleHeading1, "Purpose"),
		plain(purpose),
		heading(styleHeading1, "Data Types"),
		heading(styleHeading2, "Arguments"),
	)
	for _, a := range doc.Arguments {
		body = append(body, item("Field:", a.Field,
			field("Type:", a.Type),
			field("Description:", a.Description)))
	}

	body = append(body, heading(styleHeading1, "Settings"))
	for _, s := range doc.Settings {
		body = append(body, item("Field:", s.Field,
			field("Type:", s.Type),
			field("Description:", s.Description)))
	}

	body = append(body, heading(styleHeading1, "Functions"))
	for _, f := range doc.Functions {
		body = append(body, item("Function Name:", f.Name,
			field("Description:", f.Description),
			field("Parameters:", f.Parameters),
			field("Return:", f.Returns)))
	}

	body = append(body, heading(styleHeading1, "States"))
	for _, s := range doc.States {
		body = append(body, item("State:", s.Name,
			field("Description:", s.Description)))
	}

	body = append(body, heading(styleHeading1, "State Table"))
	for _, t := range doc.Transitions {
		body = append(body, item("From:", t.From,
			field("To:", t.To),
			field("Function:", t.Function)))
	}

	if withDiagram {
		body = append(body,
			heading(styleHeading1, "State Transition Diagram"),
			paragraph{picture: true})
	}

	body = append(body, heading(styleHeading1, "Pseudocode"))
	for _, p := range doc.Pseudocode {
		body = append(body, item("Function:", p.Function,
			field("Code:", p.Code)))
	}

	return body
}
