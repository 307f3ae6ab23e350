// Package docx assembles a design document into a Word (OOXML) package.
//
// The package is written directly with archive/zip: a fixed set of parts,
// one inline picture at most, and three paragraph styles.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/ha1tch/designdoc/pkg/design"
	"github.com/ha1tch/designdoc/pkg/diagram"
)

// DefaultName is the file name given to an assembled document.
const DefaultName = "assignment_design.docx"

// MediaType is the MIME type of an assembled document.
const MediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Header is the title block at the top of the document.
type Header struct {
	Title      string `yaml:"title"`
	Course     string `yaml:"course"`
	Assignment string `yaml:"assignment"`
	Subtitle   string `yaml:"subtitle"`
	Author     string `yaml:"author"`
	StudentID  string `yaml:"student_id"`
	Date       string `yaml:"date"`
}

// DefaultHeader returns placeholder values for every header line.
func DefaultHeader() Header {
	return Header{
		Title:      "Assignment Design Document",
		Course:     "COMP 1234",
		Assignment: "Assignment 1",
		Subtitle:   "Design",
		Author:     "Pat Doe",
		StudentID:  "A00000000",
		Date:       "Feb 30th, 2020",
	}
}

// Options controls assembly.
type Options struct {
	Header Header
	Name   string

	// Display size of the diagram in the document, in pixels at 96 dpi.
	// The bitmap is scaled to fit regardless of its own size.
	DiagramWidth  int
	DiagramHeight int

	// Created is stamped into the document properties when set.
	Created time.Time
}

// DefaultOptions returns the default header, name and a 600x300 diagram.
func DefaultOptions() Options {
	return Options{
		Header:        DefaultHeader(),
		Name:          DefaultName,
		DiagramWidth:  600,
		DiagramHeight: 300,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Header == (Header{}) {
		o.Header = d.Header
	}
	if o.Name == "" {
		o.Name = d.Name
	}
	if o.DiagramWidth <= 0 {
		o.DiagramWidth = d.DiagramWidth
	}
	if o.DiagramHeight <= 0 {
		o.DiagramHeight = d.DiagramHeight
	}
	return o
}

// Document is an assembled DOCX package.
type Document struct {
	Name string
	Data []byte
}

// AssemblyError reports a document that could not be built.
type AssemblyError struct {
	Op  string
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble document: %s: %v", e.Op, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// ErrNotPNG is wrapped by the AssemblyError for a bitmap that is not a PNG.
var ErrNotPNG = errors.New("diagram is not a PNG image")

// Assembler builds documents with fixed options.
type Assembler struct {
	Options Options
}

// Assemble builds a document with DefaultOptions.
func Assemble(ctx context.Context, doc design.Document, bitmap *diagram.Bitmap) (Document, error) {
	return Assembler{}.Assemble(ctx, doc, bitmap)
}

// Assemble lays out doc as a Word document. A nil bitmap omits the
// State Transition Diagram section entirely.
func (a Assembler) Assemble(ctx context.Context, doc design.Document, bitmap *diagram.Bitmap) (Document, error) {
	opts := a.Options.withDefaults()

	if bitmap != nil {
		if len(bitmap.PNG) == 0 {
			return Document{}, &AssemblyError{Op: "embed diagram", Err: errors.New("diagram bitmap is empty")}
		}
		if _, err := png.DecodeConfig(bytes.NewReader(bitmap.PNG)); err != nil {
			return Document{}, &AssemblyError{Op: "embed diagram", Err: fmt.Errorf("%w: %v", ErrNotPNG, err)}
		}
	}

	body := buildBody(doc, opts.Header, bitmap != nil)

	if err := ctx.Err(); err != nil {
		return Document{}, &AssemblyError{Op: "package", Err: err}
	}

	var buf bytes.Buffer
	if err := writePackage(&buf, body, opts, bitmap); err != nil {
		return Document{}, &AssemblyError{Op: "package", Err: err}
	}

	return Document{Name: opts.Name, Data: buf.Bytes()}, nil
}

// part is one file inside the package.
type part struct {
	name string
	data []byte
}

func writePackage(w *bytes.Buffer, body []paragraph, opts Options, bitmap *diagram.Bitmap) error {
	parts := []part{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"docProps/core.xml", corePropsXML(opts.Header, opts.Created)},
		{"word/document.xml", documentXML(body, opts)},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/_rels/document.xml.rels", documentRelsXML(bitmap != nil)},
	}
	if bitmap != nil {
		parts = append(parts, part{mediaPath, bitmap.PNG})
	}

	zw := zip.NewWriter(w)
	for _, p := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate})
		if err != nil {
			return err
		}
		if _, err := fw.Write(p.data); err != nil {
			return err
		}
	}
	return zw.Close()
}
