package codegen

import (
	"fmt"
	"strings"

	"github.com/ha1tch/designdoc/pkg/design"
)

var pythonKeywords = keywords("and", "as", "assert", "async", "await", "break", "class", "continue",
	"def", "del", "elif", "else", "except", "finally", "for", "from", "global", "if", "import", "in",
	"is", "lambda", "nonlocal", "not", "or", "pass", "raise", "return", "try", "while", "with",
	"yield", "match", "case", "type", "self")

// pythonMember returns the annotation and default of a dataclass field.
func pythonMember(k valueKind) (string, string) {
	switch k {
	case kindInt, kindUint:
		return "int", "0"
	case kindFloat:
		return "float", "0.0"
	case kindBool:
		return "bool", "False"
	case kindString:
		return "str", `""`
	case kindStrings:
		return "List[str]", "field(default_factory=list)"
	default:
		return "Any", "None"
	}
}

func pythonQuote(s string) string {
	return quoteWith(s, func(r rune) string { return fmt.Sprintf(`\u%04x`, r) })
}

// writeDocstring writes text as a docstring at indent.
func writeDocstring(sb *strings.Builder, indent, text string) {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, `"""`, `\"\"\"`)
	lines := commentLines(text)
	if len(lines) == 1 {
		if strings.HasSuffix(lines[0], `"`) {
			lines[0] = strings.TrimSuffix(lines[0], `"`) + `\"`
		}
		sb.WriteString(indent + `"""` + lines[0] + `"""` + "\n")
		return
	}
	sb.WriteString(indent + `"""` + lines[0] + "\n")
	for _, l := range lines[1:] {
		if l == "" {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(indent + l + "\n")
	}
	sb.WriteString(indent + `"""` + "\n")
}

// GeneratePython generates a Python 3 module skeleton for the document.
func GeneratePython(doc design.Document, name string) string {
	m := buildMachine(doc, name)

	states := newNamer(toUpperSnake)
	fields := newNamer(toSnakeCase, pythonKeywords, keywords("field"))
	funcs := newNamer(toSnakeCase, pythonKeywords,
		keywords("step", "run", "field", "dataclass", "annotations"))

	var sb strings.Builder

	// Header
	header := "Code skeleton generated from a design document."
	if m.purpose != "" {
		header += "\n\n" + m.purpose
	}
	writeDocstring(&sb, "", header)
	sb.WriteString(`
from dataclasses import dataclass, field
from enum import Enum
from typing import Any, Callable, List, Optional


`)

	// States
	sb.WriteString("class State(Enum):\n")
	for _, s := range m.states {
		sb.WriteString(fmt.Sprintf("    %s = %s\n", states.name(s), pythonQuote(s)))
	}
	sb.WriteString("\n\n")

	// Context
	sb.WriteString("@dataclass\n")
	sb.WriteString("class Context:\n")
	sb.WriteString("    \"\"\"Program arguments and settings.\"\"\"\n")
	if len(m.fields) == 0 {
		sb.WriteString("\n    pass\n")
	}
	for i, f := range m.fields {
		if i == 0 {
			sb.WriteString("\n")
		}
		if c := f.comment(); c != "" {
			writeComment(&sb, "    ", "# ", c)
		}
		typ, def := pythonMember(f.kind)
		sb.WriteString(fmt.Sprintf("    %s: %s = %s\n", fields.name(f.name), typ, def))
	}
	sb.WriteString("\n\n")

	// Functions
	for _, f := range m.functions {
		id := funcs.name(f.name)
		sb.WriteString(fmt.Sprintf("def %s(ctx: Context) -> State:\n", id))
		doc := strings.TrimSpace(strings.Join([]string{f.description, f.signature()}, "\n\n"))
		if doc != "" {
			writeDocstring(&sb, "    ", doc)
		}
		for _, block := range f.pseudocode {
			writeComment(&sb, "    ", "# ", block)
		}
		sb.WriteString(fmt.Sprintf("    return State.%s\n\n\n", states.name(f.next)))
	}

	// Transition table
	sb.WriteString(`@dataclass(frozen=True)
class Transition:
    """One row of the state table. A func of None moves straight to to_state."""

    from_state: State
    to_state: State
    func: Optional[Callable[[Context], State]] = None


`)
	sb.WriteString("TRANSITIONS: List[Transition] = [\n")
	for _, t := range m.transitions {
		if t.From == "" || t.To == "" {
			continue
		}
		fn := "None"
		if t.Function != "" {
			fn = funcs.name(t.Function)
		}
		sb.WriteString(fmt.Sprintf("    Transition(State.%s, State.%s, %s),\n", states.name(t.From), states.name(t.To), fn))
	}
	sb.WriteString("]\n\n\n")

	sb.WriteString(`def step(ctx: Context, from_state: State) -> State:
    """Takes the first transition leaving from_state. The state its function
    returns must be one the table allows from there.
    """
    leaving = [t for t in TRANSITIONS if t.from_state is from_state]
    if not leaving:
        raise ValueError(f"no transition from {from_state.value}")
    chosen = leaving[0]
    if chosen.func is None:
        return chosen.to_state
    next_state = chosen.func(ctx)
    if all(t.to_state is not next_state for t in leaving):
        raise ValueError(
            f"transition {from_state.value} -> {next_state.value} is not in the state table"
        )
    return next_state


def run(ctx: Context, limit: int) -> State:
    """Steps from the first state until no transition leaves the current
    state or limit steps have been taken.
    """
`)
	sb.WriteString(fmt.Sprintf("    state = State.%s\n", states.name(m.states[0])))
	sb.WriteString(`    for _ in range(limit):
        if not any(t.from_state is state for t in TRANSITIONS):
            break
        state = step(ctx, state)
    return state
`)

	return sb.String()
}
