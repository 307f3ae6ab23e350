package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Section is one paragraph of a document body as read back by ReadOutline.
type Section struct {
	Type  string // "heading", "paragraph" or "image"
	Style string // paragraph style id, empty for Normal
	Level int    // heading level, 0 for body paragraphs
	Text  string // line breaks as "\n", tabs as "\t"
	Bold  string // text of the bold runs
}

// ReadOutline parses word/document.xml out of a DOCX package and returns
// its paragraphs in order. Empty paragraphs are skipped.
func ReadOutline(data []byte) ([]Section, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, errors.New("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		sections []Section
		text     strings.Builder
		bold     strings.Builder
		style    string
		inPara   bool
		inRun    bool
		inText   bool
		runBold  bool
		picture  bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				text.Reset()
				bold.Reset()
				style = ""
				picture = false
			case "pStyle":
				if inPara {
					style = attr(t, "val")
				}
			case "r":
				inRun = true
				runBold = false
			case "b":
				runBold = true
			case "t":
				inText = true
			case "br":
				if inPara {
					text.WriteByte('\n')
				}
			case "tab":
				if inRun {
					text.WriteByte('\t')
				}
			case "drawing":
				picture = true
			}

		case xml.CharData:
			if inText {
				text.Write(t)
				if runBold {
					bold.Write(t)
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				inRun = false
			case "p":
				if !inPara {
					continue
				}
				inPara = false
				s := Section{Style: style, Text: text.String(), Bold: bold.String()}
				switch {
				case picture:
					s.Type = "image"
				case headingLevel(style) > 0:
					s.Type = "heading"
					s.Level = headingLevel(style)
				default:
					if strings.TrimSpace(s.Text) == "" {
						continue
					}
					s.Type = "paragraph"
				}
				sections = append(sections, s)
			}
		}
	}

	return sections, nil
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// headingLevel maps a paragraph style id to an outline level:
// "Title" is 1, "HeadingN" is N+1.
func headingLevel(style string) int {
	lower := strings.ToLower(style)
	if lower == "title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(lower, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0]-'0') + 1
	}
	return 0
}
