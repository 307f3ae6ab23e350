package preview

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/designdoc/pkg/design"
	"github.com/ha1tch/designdoc/pkg/docx"
)

func TestMarkdown(t *testing.T) {
	sections := []docx.Section{
		{Type: "heading", Level: 1, Text: "Title"},
		{Type: "heading", Level: 2, Text: "Purpose"},
		{Type: "paragraph", Text: "Field: x_y\nType: int", Bold: "Field: x_y"},
		{Type: "image"},
		{Type: "paragraph", Text: "- a\tb"},
	}

	want := "# Title\n\n" +
		"## Purpose\n\n" +
		"**Field: x\\_y**  \nType: int\n\n" +
		DiagramPlaceholder + "\n\n" +
		"\\- a    b\n"
	assert.Equal(t, want, Markdown(sections))
}

func TestMarkdownClampsHeadingLevel(t *testing.T) {
	out := Markdown([]docx.Section{
		{Type: "heading", Level: 0, Text: "zero"},
		{Type: "heading", Level: 9, Text: "deep"},
	})
	assert.Equal(t, "# zero\n\n###### deep\n", out)
}

func TestMarkdownIgnoresBoldThatIsNotALeadIn(t *testing.T) {
	out := Markdown([]docx.Section{{Type: "paragraph", Text: "plain then bold", Bold: "bold"}})
	assert.Equal(t, "plain then bold\n", out)
}

func TestDocument(t *testing.T) {
	doc := design.Document{
		Purpose:   "Count *words*",
		Functions: []design.Function{{Name: "count", Description: "counts", Parameters: "text", Returns: "n"}},
	}
	out, err := docx.Assemble(context.Background(), doc, nil)
	require.NoError(t, err)

	md, err := Document(out.Data)
	require.NoError(t, err)

	assert.Contains(t, md, "# Purpose\n\nCount \\*words\\*\n")
	assert.Contains(t, md, "**Function Name: count**  \nDescription: counts  \nParameters: text  \nReturn: n\n")
	assert.NotContains(t, md, DiagramPlaceholder)
	assert.Less(t, strings.Index(md, "Functions"), strings.Index(md, "Pseudocode"))
}

func TestDocumentRejectsGarbage(t *testing.T) {
	_, err := Document([]byte("not a zip"))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	out, err := Render("# Purpose\n\nType: int\n", Options{Style: "notty", Width: 60})
	require.NoError(t, err)
	assert.Contains(t, out, "Purpose")
	assert.Contains(t, out, "Type: int")
}
