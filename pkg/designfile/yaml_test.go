package designfile

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/designdoc/pkg/design"
)

func sampleDocument() design.Document {
	return design.Document{
		Purpose: "Display a message a number of times",
		Arguments: []design.Argument{
			{Field: "argc", Type: "integer", Description: "The number of arguments"},
			{Field: "argv", Type: "string array", Description: "The arguments"},
		},
		Settings: []design.Setting{
			{Field: "count", Type: "unsigned integer", Description: "Number of times to display the message"},
		},
		Functions: []design.Function{
			{Name: "parse_arguments", Description: "Parse the command-line arguments", Parameters: "ctx (Context)", Returns: "HANDLE_ARGS"},
		},
		States: []design.State{
			{Name: "START", Description: "Initial state"},
			{Name: "PARSE_ARGS", Description: "Parse command-line arguments"},
		},
		Transitions: []design.Transition{
			{From: "START", To: "PARSE_ARGS", Function: "parse_arguments"},
		},
		Pseudocode: []design.Pseudocode{
			{Function: "parse_arguments", Code: "for each arg:\n    if arg == \"-c\":\n        count = next"},
		},
	}
}

func TestSerializeKeys(t *testing.T) {
	text, err := Serialize(sampleDocument())
	require.NoError(t, err)

	for _, key := range []string{"purpose:", "data_types:", "arguments:", "settings:", "functions:",
		"states:", "state_table:", "pseudocode:", "return: HANDLE_ARGS"} {
		assert.Contains(t, text, key)
	}
	assert.True(t, strings.HasPrefix(text, "purpose: "), "purpose must be the first key")
}

func TestSerializeEmptyCollections(t *testing.T) {
	text, err := Serialize(design.Document{})
	require.NoError(t, err)

	assert.Contains(t, text, "settings: []")
	assert.Contains(t, text, "arguments: []")
	assert.Contains(t, text, "state_table: []")
}

func TestSerializeIsStable(t *testing.T) {
	a, err := Serialize(sampleDocument())
	require.NoError(t, err)
	b, err := Serialize(sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  design.Document
	}{
		{"empty", design.Document{}},
		{"sample", sampleDocument()},
		{"empty strings", design.Document{
			Arguments:   []design.Argument{{}},
			Transitions: []design.Transition{{}, {From: "A"}},
		}},
		{"special characters", design.Document{
			Purpose: `quotes "double" and 'single': colon # hash`,
			Arguments: []design.Argument{
				{Field: "- dash", Type: "[list]", Description: "{map}"},
				{Field: "null", Type: "true", Description: "~"},
				{Field: "0x1F", Type: "1e3", Description: "@at & *star !bang %pct |pipe >gt"},
			},
			States: []design.State{{Name: "ÉTAT→✓", Description: "tab\tinside"}},
			Transitions: []design.Transition{
				{From: `say "hi"`, To: `back\slash`, Function: "a: b"},
			},
			Pseudocode: []design.Pseudocode{
				{Function: "f", Code: "line one\n  indented  \nline three"},
				{Function: "g", Code: "ctrl\x01char"},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Serialize(tt.doc)
			require.NoError(t, err)

			got, err := Deserialize(text)
			require.NoError(t, err, text)
			assert.True(t, tt.doc.Equal(got), "round trip mismatch:\n%s\nwant %+v\ngot  %+v", text, tt.doc, got)
		})
	}
}

func TestSerializePreservesOrder(t *testing.T) {
	doc := design.Document{Arguments: []design.Argument{{Field: "A"}, {Field: "B"}, {Field: "C"}}}
	text, err := Serialize(doc)
	require.NoError(t, err)

	a := strings.Index(text, "field: A")
	b := strings.Index(text, "field: B")
	c := strings.Index(text, "field: C")
	require.True(t, a >= 0 && b >= 0 && c >= 0, text)
	assert.True(t, a < b && b < c, "arguments out of order:\n%s", text)

	got, err := Deserialize(text)
	require.NoError(t, err)
	assert.Equal(t, doc.Arguments, got.Arguments)
}

func TestDeserializeMissingKeys(t *testing.T) {
	got, err := Deserialize("purpose: only this\n")
	require.NoError(t, err)
	assert.Equal(t, "only this", got.Purpose)
	assert.Nil(t, got.Functions)
}

func TestDeserializeTrims(t *testing.T) {
	got, err := Deserialize("purpose: \"  padded  \"\nstates:\n  - name: \" S \"\n")
	require.NoError(t, err)
	assert.Equal(t, "padded", got.Purpose)
	assert.Equal(t, "S", got.States[0].Name)
}

func TestDeserializeErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"blank", "  \n\t\n"},
		{"comment only", "# nothing here\n"},
		{"syntax", "purpose: [unclosed\n"},
		{"unknown key", "purpose: x\ncolour: blue\n"},
		{"wrong kind", "purpose: x\nfunctions: not-a-list\n"},
		{"not a mapping", "- just\n- a list\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize(tt.text)
			require.Error(t, err)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr), "want *ParseError, got %T", err)
		})
	}
}

func TestDeserializeEmptyWrapsErrEmpty(t *testing.T) {
	_, err := Deserialize("")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParseErrorLine(t *testing.T) {
	_, err := Deserialize("purpose: x\nsettings: []\nbogus: 1\n")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 3, perr.Line)
	assert.Contains(t, perr.Error(), "line 3")
}

func TestEndToEndScenarioText(t *testing.T) {
	doc := design.Document{
		Purpose:   "demo",
		Functions: []design.Function{{Name: "f", Description: "d", Parameters: "p", Returns: "r"}},
	}
	text, err := Serialize(doc)
	require.NoError(t, err)

	assert.Contains(t, text, "purpose: demo")
	got, err := Deserialize(text)
	require.NoError(t, err)
	assert.Len(t, got.Functions, 1)
}
