// Package design provides the design document model shared by every stage
// of the export pipeline.
package design

import (
	"slices"
	"strings"
)

// Argument is one entry of the argument list (the "data types" section).
type Argument struct {
	Field       string `mapstructure:"field"`
	Type        string `mapstructure:"type"`
	Description string `mapstructure:"description"`
}

// Setting is one configurable value of the program being designed.
type Setting struct {
	Field       string `mapstructure:"field"`
	Type        string `mapstructure:"type"`
	Description string `mapstructure:"description"`
}

// Function describes one function of the program being designed.
type Function struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Parameters  string `mapstructure:"parameters"`
	Returns     string `mapstructure:"returns"`
}

// State is a named state of the program's state machine.
type State struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// Transition is one row of the state table. From and To are free-form
// labels; they are not required to name a declared State.
type Transition struct {
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
	Function string `mapstructure:"function"`
}

// Pseudocode holds the pseudocode written for one function.
type Pseudocode struct {
	Function string `mapstructure:"function"`
	Code     string `mapstructure:"code"`
}

// Document is the root value flowing through the pipeline. It is treated as
// immutable once built: stages derive new values and never modify it.
type Document struct {
	Purpose     string       `mapstructure:"purpose"`
	Arguments   []Argument   `mapstructure:"arguments"`
	Settings    []Setting    `mapstructure:"settings"`
	Functions   []Function   `mapstructure:"functions"`
	States      []State      `mapstructure:"states"`
	Transitions []Transition `mapstructure:"transitions"`
	Pseudocode  []Pseudocode `mapstructure:"pseudocode"`
}

// HasTransitions reports whether the state table has at least one row.
func (d Document) HasTransitions() bool {
	return len(d.Transitions) > 0
}

// Trimmed returns a copy of d with every string field whitespace-trimmed.
// Empty collections come back as nil.
func (d Document) Trimmed() Document {
	out := Document{Purpose: strings.TrimSpace(d.Purpose)}

	out.Arguments = mapSlice(d.Arguments, func(a Argument) Argument {
		return Argument{Field: trim(a.Field), Type: trim(a.Type), Description: trim(a.Description)}
	})
	out.Settings = mapSlice(d.Settings, func(s Setting) Setting {
		return Setting{Field: trim(s.Field), Type: trim(s.Type), Description: trim(s.Description)}
	})
	out.Functions = mapSlice(d.Functions, func(f Function) Function {
		return Function{
			Name:        trim(f.Name),
			Description: trim(f.Description),
			Parameters:  trim(f.Parameters),
			Returns:     trim(f.Returns),
		}
	})
	out.States = mapSlice(d.States, func(s State) State {
		return State{Name: trim(s.Name), Description: trim(s.Description)}
	})
	out.Transitions = mapSlice(d.Transitions, func(t Transition) Transition {
		return Transition{From: trim(t.From), To: trim(t.To), Function: trim(t.Function)}
	})
	out.Pseudocode = mapSlice(d.Pseudocode, func(p Pseudocode) Pseudocode {
		return Pseudocode{Function: trim(p.Function), Code: trim(p.Code)}
	})

	return out
}

// Equal reports field-for-field equality. A nil collection equals an empty one.
func (d Document) Equal(o Document) bool {
	return d.Purpose == o.Purpose &&
		slices.Equal(d.Arguments, o.Arguments) &&
		slices.Equal(d.Settings, o.Settings) &&
		slices.Equal(d.Functions, o.Functions) &&
		slices.Equal(d.States, o.States) &&
		slices.Equal(d.Transitions, o.Transitions) &&
		slices.Equal(d.Pseudocode, o.Pseudocode)
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func mapSlice[T any](in []T, fn func(T) T) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
