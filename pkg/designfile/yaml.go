// Package designfile reads and writes the canonical text form of a design
// document.
package designfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ha1tch/designdoc/pkg/design"
)

// yamlDocument is the canonical YAML layout. Field order here is the
// order keys are written in.
type yamlDocument struct {
	Purpose    string           `yaml:"purpose"`
	DataTypes  yamlDataTypes    `yaml:"data_types"`
	Settings   []yamlSetting    `yaml:"settings"`
	Functions  []yamlFunction   `yaml:"functions"`
	States     []yamlState      `yaml:"states"`
	StateTable []yamlTransition `yaml:"state_table"`
	Pseudocode []yamlPseudocode `yaml:"pseudocode"`
}

type yamlDataTypes struct {
	Arguments []yamlArgument `yaml:"arguments"`
}

type yamlArgument struct {
	Field       string `yaml:"field"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

type yamlSetting struct {
	Field       string `yaml:"field"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

type yamlFunction struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Parameters  string `yaml:"parameters"`
	Return      string `yaml:"return"`
}

type yamlState struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type yamlTransition struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Function string `yaml:"function"`
}

type yamlPseudocode struct {
	Function string `yaml:"function"`
	Code     string `yaml:"code"`
}

// ParseError reports canonical text that is not a well-formed design document.
type ParseError struct {
	Line int // 1-based, 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse design document: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse design document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrEmpty is wrapped by the ParseError returned for blank input.
var ErrEmpty = errors.New("no design document in input")

// Serialize encodes doc as canonical YAML with two-space indentation.
// Empty collections are written as [] so every key is always present, and
// multi-line values come out as literal blocks.
func Serialize(doc design.Document) (string, error) {
	y := toYAML(doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&y); err != nil {
		return "", fmt.Errorf("encode design document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode design document: %w", err)
	}
	return buf.String(), nil
}

// Deserialize parses canonical YAML back into a document. Missing keys
// decode as empty; unknown keys and mistyped values are a ParseError.
// Strings are trimmed on the way in.
func Deserialize(text string) (design.Document, error) {
	if strings.TrimSpace(text) == "" {
		return design.Document{}, &ParseError{Err: ErrEmpty}
	}

	dec := yaml.NewDecoder(strings.NewReader(text))
	dec.KnownFields(true)

	var y yamlDocument
	if err := dec.Decode(&y); err != nil {
		if errors.Is(err, io.EOF) {
			return design.Document{}, &ParseError{Err: ErrEmpty}
		}
		return design.Document{}, &ParseError{Line: errorLine(err), Err: err}
	}

	return fromYAML(y).Trimmed(), nil
}

func toYAML(d design.Document) yamlDocument {
	y := yamlDocument{
		Purpose:    d.Purpose,
		DataTypes:  yamlDataTypes{Arguments: make([]yamlArgument, 0, len(d.Arguments))},
		Settings:   make([]yamlSetting, 0, len(d.Settings)),
		Functions:  make([]yamlFunction, 0, len(d.Functions)),
		States:     make([]yamlState, 0, len(d.States)),
		StateTable: make([]yamlTransition, 0, len(d.Transitions)),
		Pseudocode: make([]yamlPseudocode, 0, len(d.Pseudocode)),
	}
	for _, a := range d.Arguments {
		y.DataTypes.Arguments = append(y.DataTypes.Arguments, yamlArgument(a))
	}
	for _, s := range d.Settings {
		y.Settings = append(y.Settings, yamlSetting(s))
	}
	for _, f := range d.Functions {
		y.Functions = append(y.Functions, yamlFunction{
			Name:        f.Name,
			Description: f.Description,
			Parameters:  f.Parameters,
			Return:      f.Returns,
		})
	}
	for _, s := range d.States {
		y.States = append(y.States, yamlState(s))
	}
	for _, t := range d.Transitions {
		y.StateTable = append(y.StateTable, yamlTransition(t))
	}
	for _, p := range d.Pseudocode {
		y.Pseudocode = append(y.Pseudocode, yamlPseudocode(p))
	}
	return y
}

func fromYAML(y yamlDocument) design.Document {
	d := design.Document{Purpose: y.Purpose}
	for _, a := range y.DataTypes.Arguments {
		d.Arguments = append(d.Arguments, design.Argument(a))
	}
	for _, s := range y.Settings {
		d.Settings = append(d.Settings, design.Setting(s))
	}
	for _, f := range y.Functions {
		d.Functions = append(d.Functions, design.Function{
			Name:        f.Name,
			Description: f.Description,
			Parameters:  f.Parameters,
			Returns:     f.Return,
		})
	}
	for _, s := range y.States {
		d.States = append(d.States, design.State(s))
	}
	for _, t := range y.StateTable {
		d.Transitions = append(d.Transitions, design.Transition(t))
	}
	for _, p := range y.Pseudocode {
		d.Pseudocode = append(d.Pseudocode, design.Pseudocode(p))
	}
	return d
}

// errorLine pulls the first "line N" out of a yaml.v3 error message.
func errorLine(err error) int {
	var typeErr *yaml.TypeError
	msg := err.Error()
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		msg = typeErr.Errors[0]
	}
	idx := strings.Index(msg, "line ")
	if idx < 0 {
		return 0
	}
	n := 0
	for _, r := range msg[idx+len("line "):] {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
