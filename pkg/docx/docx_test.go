package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/designdoc/pkg/design"
	"github.com/ha1tch/designdoc/pkg/diagram"
)

func sampleDocument() design.Document {
	return design.Document{
		Purpose:   "Display a message",
		Arguments: []design.Argument{{Field: "argc", Type: "int", Description: "count"}},
		Settings:  []design.Setting{{Field: "count", Type: "uint", Description: "times"}},
		Functions: []design.Function{{Name: "parse", Description: "d", Parameters: "p", Returns: "r"}},
		States:    []design.State{{Name: "START", Description: "initial"}},
		Transitions: []design.Transition{
			{From: "START", To: "END", Function: "parse"},
		},
		Pseudocode: []design.Pseudocode{{Function: "parse", Code: "line one\nline two"}},
	}
}

func testBitmap(t *testing.T) *diagram.Bitmap {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &diagram.Bitmap{PNG: buf.Bytes(), Width: 4, Height: 3}
}

func headings(sections []Section) []string {
	var out []string
	for _, s := range sections {
		if s.Type == "heading" {
			out = append(out, s.Text)
		}
	}
	return out
}

func partNames(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	parts := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = b
	}
	return parts
}

func TestAssembleSectionOrder(t *testing.T) {
	out, err := Assemble(context.Background(), sampleDocument(), testBitmap(t))
	require.NoError(t, err)
	assert.Equal(t, DefaultName, out.Name)

	sections, err := ReadOutline(out.Data)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Assignment Design Document", "COMP 1234", "Assignment 1", "Design",
		"Purpose", "Data Types", "Arguments", "Settings", "Functions", "States",
		"State Table", "State Transition Diagram", "Pseudocode",
	}, headings(sections))

	var images int
	for i, s := range sections {
		if s.Type == "image" {
			images++
			assert.Equal(t, "State Transition Diagram", sections[i-1].Text)
		}
	}
	assert.Equal(t, 1, images)
}

func TestAssembleWithoutDiagram(t *testing.T) {
	out, err := Assemble(context.Background(), sampleDocument(), nil)
	require.NoError(t, err)

	sections, err := ReadOutline(out.Data)
	require.NoError(t, err)
	assert.NotContains(t, headings(sections), "State Transition Diagram")
	for _, s := range sections {
		assert.NotEqual(t, "image", s.Type)
	}

	parts := partNames(t, out.Data)
	assert.NotContains(t, parts, "word/media/diagram1.png")
	assert.NotContains(t, string(parts["word/_rels/document.xml.rels"]), "image")
}

func TestAssemblePackageParts(t *testing.T) {
	bm := testBitmap(t)
	out, err := Assemble(context.Background(), sampleDocument(), bm)
	require.NoError(t, err)

	parts := partNames(t, out.Data)
	for _, name := range []string{
		"[Content_Types].xml", "_rels/.rels", "docProps/core.xml",
		"word/document.xml", "word/styles.xml", "word/_rels/document.xml.rels",
		"word/media/diagram1.png",
	} {
		assert.Contains(t, parts, name)
	}
	assert.Equal(t, bm.PNG, parts["word/media/diagram1.png"])

	doc := string(parts["word/document.xml"])
	assert.Contains(t, doc, `<wp:extent cx="5715000" cy="2857500"/>`)
}

func TestAssembleDisplaySizeIsConfigurable(t *testing.T) {
	a := Assembler{Options: Options{DiagramWidth: 100, DiagramHeight: 50, Name: "x.docx"}}
	out, err := a.Assemble(context.Background(), sampleDocument(), testBitmap(t))
	require.NoError(t, err)
	assert.Equal(t, "x.docx", out.Name)

	doc := string(partNames(t, out.Data)["word/document.xml"])
	assert.Contains(t, doc, `<wp:extent cx="952500" cy="476250"/>`)
}

func TestAssembleItemParagraphs(t *testing.T) {
	doc := design.Document{
		Functions: []design.Function{{Name: "f", Description: "d", Parameters: "p", Returns: "r"}},
	}
	out, err := Assemble(context.Background(), doc, nil)
	require.NoError(t, err)

	sections, err := ReadOutline(out.Data)
	require.NoError(t, err)

	var after []Section
	for i, s := range sections {
		if s.Type == "heading" && s.Text == "Functions" {
			for _, n := range sections[i+1:] {
				if n.Type == "heading" {
					break
				}
				after = append(after, n)
			}
		}
	}
	require.Len(t, after, 1)
	assert.Equal(t, "Function Name: f\nDescription: d\nParameters: p\nReturn: r", after[0].Text)
	assert.Equal(t, "Function Name: f", after[0].Bold)
}

func TestAssemblePurposeDefaultsToNA(t *testing.T) {
	out, err := Assemble(context.Background(), design.Document{}, nil)
	require.NoError(t, err)

	sections, err := ReadOutline(out.Data)
	require.NoError(t, err)
	for i, s := range sections {
		if s.Text == "Purpose" {
			assert.Equal(t, "N/A", sections[i+1].Text)
			return
		}
	}
	t.Fatal("no Purpose heading")
}

func TestAssembleHeaderBlock(t *testing.T) {
	out, err := Assemble(context.Background(), design.Document{}, nil)
	require.NoError(t, err)

	sections, err := ReadOutline(out.Data)
	require.NoError(t, err)
	require.True(t, len(sections) > 4)
	assert.Equal(t, "Title", sections[0].Style)
	assert.Equal(t, "Pat Doe\nA00000000\nFeb 30th, 2020", sections[4].Text)
}

func TestAssemblePreservesOrderAndLines(t *testing.T) {
	doc := design.Document{
		States: []design.State{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		Pseudocode: []design.Pseudocode{
			{Function: "f", Code: "one\n\ttwo\nthree"},
		},
	}
	out, err := Assemble(context.Background(), doc, nil)
	require.NoError(t, err)

	sections, err := ReadOutline(out.Data)
	require.NoError(t, err)

	var states []string
	var code string
	for _, s := range sections {
		if strings.HasPrefix(s.Text, "State: ") {
			states = append(states, s.Bold)
		}
		if strings.HasPrefix(s.Text, "Function: f") {
			code = s.Text
		}
	}
	assert.Equal(t, []string{"State: A", "State: B", "State: C"}, states)
	assert.Equal(t, "Function: f\nCode: one\n\ttwo\nthree", code)
}

func TestAssembleArbitraryStrings(t *testing.T) {
	doc := design.Document{
		Purpose: `<tag attr="x"> & ]]> ' ` + "ctrl\x01\x1fchars ￾ ünïcødé",
		States:  []design.State{{}},
		Transitions: []design.Transition{
			{From: "", To: "", Function: ""},
		},
	}
	out, err := Assemble(context.Background(), doc, nil)
	require.NoError(t, err)

	sections, err := ReadOutline(out.Data)
	require.NoError(t, err)

	for i, s := range sections {
		if s.Text == "Purpose" {
			got := sections[i+1].Text
			assert.True(t, strings.HasPrefix(got, `<tag attr="x"> & ]]> '`), got)
			assert.Contains(t, got, "ünïcødé")
			assert.NotContains(t, got, "\x01")
		}
	}
}

func TestAssembleRejectsBadBitmap(t *testing.T) {
	tests := []struct {
		name string
		bm   *diagram.Bitmap
	}{
		{"empty", &diagram.Bitmap{}},
		{"not png", &diagram.Bitmap{PNG: []byte("GIF89a not a png"), Width: 1, Height: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(context.Background(), sampleDocument(), tt.bm)
			var aerr *AssemblyError
			require.True(t, errors.As(err, &aerr), "got %v", err)
		})
	}

	_, err := Assemble(context.Background(), sampleDocument(), &diagram.Bitmap{PNG: []byte("nope")})
	assert.ErrorIs(t, err, ErrNotPNG)
}

func TestAssembleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Assemble(ctx, sampleDocument(), nil)
	var aerr *AssemblyError
	require.True(t, errors.As(err, &aerr))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCorePropertiesCreated(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out, err := Assembler{Options: Options{Created: stamp}}.Assemble(context.Background(), design.Document{}, nil)
	require.NoError(t, err)

	core := string(partNames(t, out.Data)["docProps/core.xml"])
	assert.Contains(t, core, "2024-03-01T12:00:00Z")
	assert.Contains(t, core, "<dc:title>Assignment Design Document</dc:title>")
}

func TestReadOutlineRejectsNonZip(t *testing.T) {
	_, err := ReadOutline([]byte("plain text"))
	assert.Error(t, err)
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 1, headingLevel("Title"))
	assert.Equal(t, 2, headingLevel("Heading1"))
	assert.Equal(t, 3, headingLevel("heading2"))
	assert.Equal(t, 0, headingLevel(""))
	assert.Equal(t, 0, headingLevel("Heading12"))
}
