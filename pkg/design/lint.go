package design

import "fmt"

// Warning is an advisory finding about a document. Warnings never block an
// export: labels in the state table are free text by contract.
type Warning struct {
	Type    string // e.g. "undeclared_state"
	Message string
	Index   int // row in the relevant collection, -1 when not applicable
}

// Lint runs advisory checks over d. Reference checks only run when the
// referenced collection has been filled in at all, so a document that
// declares no states does not warn about every transition.
func Lint(d Document) []Warning {
	var warnings []Warning

	states := make(map[string]bool)
	for i, s := range d.States {
		if s.Name == "" {
			continue
		}
		if states[s.Name] {
			warnings = append(warnings, Warning{
				Type:    "duplicate_state",
				Message: fmt.Sprintf("state %q declared more than once", s.Name),
				Index:   i,
			})
		}
		states[s.Name] = true
	}

	functions := make(map[string]bool)
	for i, f := range d.Functions {
		if f.Name == "" {
			continue
		}
		if functions[f.Name] {
			warnings = append(warnings, Warning{
				Type:    "duplicate_function",
				Message: fmt.Sprintf("function %q declared more than once", f.Name),
				Index:   i,
			})
		}
		functions[f.Name] = true
	}

	used := make(map[string]bool)
	for i, t := range d.Transitions {
		for _, name := range []string{t.From, t.To} {
			used[name] = true
			if len(states) > 0 && name != "" && !states[name] {
				warnings = append(warnings, Warning{
					Type:    "undeclared_state",
					Message: fmt.Sprintf("transition %d: state %q not in states", i, name),
					Index:   i,
				})
			}
		}
		if len(functions) > 0 && t.Function != "" && !functions[t.Function] {
			warnings = append(warnings, Warning{
				Type:    "undeclared_function",
				Message: fmt.Sprintf("transition %d: function %q not in functions", i, t.Function),
				Index:   i,
			})
		}
	}

	for i, p := range d.Pseudocode {
		if len(functions) > 0 && p.Function != "" && !functions[p.Function] {
			warnings = append(warnings, Warning{
				Type:    "undeclared_function",
				Message: fmt.Sprintf("pseudocode %d: function %q not in functions", i, p.Function),
				Index:   i,
			})
		}
	}

	if len(d.Transitions) > 0 {
		for i, s := range d.States {
			if s.Name != "" && !used[s.Name] {
				warnings = append(warnings, Warning{
					Type:    "unused_state",
					Message: fmt.Sprintf("state %q does not appear in the state table", s.Name),
					Index:   i,
				})
			}
		}
	}

	return warnings
}
