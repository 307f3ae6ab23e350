package design

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// FromForm builds a Document from raw form values, typically a decoded JSON
// payload posted by the form. Keys follow the model: purpose, arguments,
// settings, functions, states, transitions and pseudocode.
//
// Missing or empty input is never an error; the result is simply empty.
// Scalars are weakly typed (a number becomes its decimal string) and every
// string is trimmed. Only structural mismatches, such as a string where a
// list is expected, fail.
func FromForm(values map[string]any) (Document, error) {
	var doc Document
	if len(values) == 0 {
		return doc, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       trimStrings,
		WeaklyTypedInput: true,
		Result:           &doc,
	})
	if err != nil {
		return Document{}, fmt.Errorf("form decoder: %w", err)
	}
	if err := dec.Decode(values); err != nil {
		return Document{}, fmt.Errorf("decode form: %w", err)
	}

	return doc.Trimmed(), nil
}

// trimStrings trims string inputs before they are assigned.
func trimStrings(from, to reflect.Kind, data any) (any, error) {
	if from == reflect.String {
		return strings.TrimSpace(reflect.ValueOf(data).String()), nil
	}
	return data, nil
}
