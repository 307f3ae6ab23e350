package codegen

import (
	"fmt"
	"strings"

	"github.com/ha1tch/designdoc/pkg/design"
)

var goKeywords = keywords("break", "case", "chan", "const", "continue", "default", "defer", "else",
	"fallthrough", "for", "func", "go", "goto", "if", "import", "interface", "map", "package",
	"range", "return", "select", "struct", "switch", "type", "var")

func goType(k valueKind) string {
	switch k {
	case kindInt:
		return "int"
	case kindUint:
		return "uint"
	case kindFloat:
		return "float64"
	case kindBool:
		return "bool"
	case kindString:
		return "string"
	case kindStrings:
		return "[]string"
	default:
		return "any"
	}
}

// GenerateGo generates a Go skeleton for the document.
func GenerateGo(doc design.Document, packageName string) string {
	m := buildMachine(doc, packageName)

	pkg := strings.ToLower(strings.ReplaceAll(toSnakeCase(m.name), "_", ""))
	if pkg == "" || goKeywords[pkg] {
		pkg = "design"
	}

	states := newNamer(func(s string) string { return "State" + toPascalCase(s) })
	fields := newNamer(toPascalCase)

	var sb strings.Builder

	// Header
	sb.WriteString("// Code skeleton generated from a design document.\n")
	if m.purpose != "" {
		sb.WriteString("//\n")
		writeComment(&sb, "", "// ", m.purpose)
	}
	sb.WriteString(fmt.Sprintf("\npackage %s\n\nimport \"fmt\"\n\n", pkg))

	// States
	sb.WriteString("// State is a machine state.\n")
	sb.WriteString("type State int\n\n")
	sb.WriteString("const (\n")
	for i, s := range m.states {
		if i == 0 {
			sb.WriteString(fmt.Sprintf("\t%s State = iota\n", states.name(s)))
		} else {
			sb.WriteString(fmt.Sprintf("\t%s\n", states.name(s)))
		}
	}
	sb.WriteString(")\n\n")

	funcs := newNamer(toPascalCase, keywords("Step", "Run", "Transition", "Transitions", "Context", "State"), states.used)

	sb.WriteString("var stateNames = [...]string{\n")
	for _, s := range m.states {
		sb.WriteString(fmt.Sprintf("\t%q,\n", s))
	}
	sb.WriteString("}\n\n")

	sb.WriteString("func (s State) String() string {\n")
	sb.WriteString("\tif s >= 0 && int(s) < len(stateNames) {\n")
	sb.WriteString("\t\treturn stateNames[s]\n")
	sb.WriteString("\t}\n")
	sb.WriteString("\treturn fmt.Sprintf(\"State(%d)\", int(s))\n")
	sb.WriteString("}\n\n")

	// Context
	sb.WriteString("// Context holds the program arguments and settings.\n")
	sb.WriteString("type Context struct {\n")
	for _, f := range m.fields {
		comment := f.description
		if f.kind == kindUnknown && f.typ != "" {
			comment = strings.TrimSpace(f.typ + ". " + comment)
		}
		if comment != "" {
			writeComment(&sb, "\t", "// ", comment)
		}
		sb.WriteString(fmt.Sprintf("\t%s %s\n", fields.name(f.name), goType(f.kind)))
	}
	sb.WriteString("}\n\n")

	// Functions
	for _, f := range m.functions {
		id := funcs.name(f.name)
		if f.description != "" {
			writeComment(&sb, "", "// ", id+": "+f.description)
		} else {
			sb.WriteString(fmt.Sprintf("// %s is called on a transition.\n", id))
		}
		if f.parameters != "" || f.returns != "" {
			sb.WriteString("//\n")
			if f.parameters != "" {
				writeComment(&sb, "", "// Parameters: ", f.parameters)
			}
			if f.returns != "" {
				writeComment(&sb, "", "// Returns: ", f.returns)
			}
		}
		sb.WriteString(fmt.Sprintf("func %s(ctx *Context) State {\n", id))
		for _, block := range f.pseudocode {
			writeComment(&sb, "\t", "// ", block)
		}
		sb.WriteString(fmt.Sprintf("\treturn %s\n", states.name(f.next)))
		sb.WriteString("}\n\n")
	}

	// Transition table
	sb.WriteString("// Transition is one row of the state table. A nil Func moves straight to To.\n")
	sb.WriteString("type Transition struct {\n")
	sb.WriteString("\tFrom State\n")
	sb.WriteString("\tTo   State\n")
	sb.WriteString("\tFunc func(*Context) State\n")
	sb.WriteString("}\n\n")

	sb.WriteString("// Transitions is the state table in declaration order.\n")
	sb.WriteString("var Transitions = []Transition{\n")
	for _, t := range m.transitions {
		from, to := t.From, t.To
		if from == "" || to == "" {
			continue
		}
		fn := "nil"
		if t.Function != "" {
			fn = funcs.name(t.Function)
		}
		sb.WriteString(fmt.Sprintf("\t{From: %s, To: %s, Func: %s},\n", states.name(from), states.name(to), fn))
	}
	sb.WriteString("}\n\n")

	// Step and Run
	sb.WriteString(`// Step takes the first transition leaving from. The state its function
// returns must be one the table allows from there.
func Step(ctx *Context, from State) (State, error) {
	var chosen *Transition
	allowed := make(map[State]bool)
	for i := range Transitions {
		t := &Transitions[i]
		if t.From != from {
			continue
		}
		if chosen == nil {
			chosen = t
		}
		allowed[t.To] = true
	}
	if chosen == nil {
		return from, fmt.Errorf("no transition from %s", from)
	}
	if chosen.Func == nil {
		return chosen.To, nil
	}
	next := chosen.Func(ctx)
	if !allowed[next] {
		return from, fmt.Errorf("transition %s -> %s is not in the state table", from, next)
	}
	return next, nil
}

// Run steps from the first state until no transition leaves the current
// state or limit steps have been taken.
func Run(ctx *Context, limit int) (State, error) {
`)
	sb.WriteString(fmt.Sprintf("\tstate := %s\n", states.name(m.states[0])))
	sb.WriteString(`	for i := 0; i < limit; i++ {
		leaves := false
		for _, t := range Transitions {
			if t.From == state {
				leaves = true
				break
			}
		}
		if !leaves {
			return state, nil
		}
		next, err := Step(ctx, state)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}
`)

	return sb.String()
}
