package codegen

import (
	"fmt"
	"strings"

	"github.com/ha1tch/designdoc/pkg/design"
)

var rustKeywords = keywords("as", "async", "await", "break", "const", "continue", "crate", "dyn",
	"else", "enum", "extern", "false", "fn", "for", "if", "impl", "in", "let", "loop", "match",
	"mod", "move", "mut", "pub", "ref", "return", "self", "Self", "static", "struct", "super",
	"trait", "true", "type", "unsafe", "use", "where", "while", "abstract", "become", "box", "do",
	"final", "macro", "override", "priv", "typeof", "unsized", "virtual", "yield", "try")

func rustType(k valueKind) string {
	switch k {
	case kindInt:
		return "i64"
	case kindUint:
		return "u64"
	case kindFloat:
		return "f64"
	case kindBool:
		return "bool"
	case kindString:
		return "String"
	case kindStrings:
		return "Vec<String>"
	default:
		return "Option<Box<dyn std::any::Any>>"
	}
}

// rustQuote writes s as a Rust string literal.
func rustQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '\\' || r == '"':
			sb.WriteRune('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			sb.WriteString(fmt.Sprintf(`\u{%x}`, r))
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// GenerateRust generates a Rust module skeleton for the document.
func GenerateRust(doc design.Document, name string) string {
	m := buildMachine(doc, name)

	states := newNamer(toPascalCase, keywords("Self"))
	fields := newNamer(toSnakeCase, rustKeywords)
	funcs := newNamer(toSnakeCase, rustKeywords, keywords("step", "run"))

	var sb strings.Builder

	// Header
	sb.WriteString("//! Code skeleton generated from a design document.\n")
	if m.purpose != "" {
		sb.WriteString("//!\n")
		writeComment(&sb, "", "//! ", m.purpose)
	}
	sb.WriteString("\n")

	// States
	sb.WriteString("#[derive(Debug, Clone, Copy, PartialEq, Eq, Hash)]\n")
	sb.WriteString("#[repr(u16)]\n")
	sb.WriteString("pub enum State {\n")
	for _, s := range m.states {
		sb.WriteString(fmt.Sprintf("    %s,\n", states.name(s)))
	}
	sb.WriteString("}\n\n")

	sb.WriteString("impl State {\n")
	sb.WriteString("    pub fn name(self) -> &'static str {\n")
	sb.WriteString("        match self {\n")
	for _, s := range m.states {
		sb.WriteString(fmt.Sprintf("            State::%s => %s,\n", states.name(s), rustQuote(s)))
	}
	sb.WriteString("        }\n")
	sb.WriteString("    }\n")
	sb.WriteString("}\n\n")

	// Context
	sb.WriteString("/// Program arguments and settings.\n")
	sb.WriteString("#[derive(Default)]\n")
	sb.WriteString("pub struct Context {\n")
	for _, f := range m.fields {
		comment := f.description
		if f.kind == kindUnknown && f.typ != "" {
			comment = strings.TrimSpace(f.typ + ". " + comment)
		}
		if comment != "" {
			writeComment(&sb, "    ", "/// ", comment)
		}
		sb.WriteString(fmt.Sprintf("    pub %s: %s,\n", fields.name(f.name), rustType(f.kind)))
	}
	sb.WriteString("}\n\n")

	// Functions
	for _, f := range m.functions {
		id := funcs.name(f.name)
		if f.description != "" {
			writeComment(&sb, "", "/// ", f.description)
		}
		if f.parameters != "" || f.returns != "" {
			if f.description != "" {
				sb.WriteString("///\n")
			}
			if f.parameters != "" {
				writeComment(&sb, "", "/// Parameters: ", f.parameters)
			}
			if f.returns != "" {
				writeComment(&sb, "", "/// Returns: ", f.returns)
			}
		}
		sb.WriteString(fmt.Sprintf("pub fn %s(_ctx: &mut Context) -> State {\n", id))
		for _, block := range f.pseudocode {
			writeComment(&sb, "    ", "// ", block)
		}
		sb.WriteString(fmt.Sprintf("    State::%s\n", states.name(f.next)))
		sb.WriteString("}\n\n")
	}

	// Transition table
	sb.WriteString("/// One row of the state table. `None` moves straight to `to`.\n")
	sb.WriteString("pub struct Transition {\n")
	sb.WriteString("    pub from: State,\n")
	sb.WriteString("    pub to: State,\n")
	sb.WriteString("    pub func: Option<fn(&mut Context) -> State>,\n")
	sb.WriteString("}\n\n")

	sb.WriteString("pub const TRANSITIONS: &[Transition] = &[\n")
	for _, t := range m.transitions {
		if t.From == "" || t.To == "" {
			continue
		}
		fn := "None"
		if t.Function != "" {
			fn = fmt.Sprintf("Some(%s)", funcs.name(t.Function))
		}
		sb.WriteString(fmt.Sprintf("    Transition { from: State::%s, to: State::%s, func: %s },\n",
			states.name(t.From), states.name(t.To), fn))
	}
	sb.WriteString("];\n\n")

	sb.WriteString(`/// Takes the first transition leaving ` + "`from`" + `. The state its function
/// returns must be one the table allows from there.
pub fn step(ctx: &mut Context, from: State) -> Result<State, String> {
    let chosen = TRANSITIONS
        .iter()
        .find(|t| t.from == from)
        .ok_or_else(|| format!("no transition from {}", from.name()))?;
    let next = match chosen.func {
        Some(f) => f(ctx),
        None => return Ok(chosen.to),
    };
    if TRANSITIONS.iter().any(|t| t.from == from && t.to == next) {
        Ok(next)
    } else {
        Err(format!("transition {} -> {} is not in the state table", from.name(), next.name()))
    }
}

/// Steps from the first state until no transition leaves the current
/// state or ` + "`limit`" + ` steps have been taken.
pub fn run(ctx: &mut Context, limit: usize) -> Result<State, String> {
`)
	sb.WriteString(fmt.Sprintf("    let mut state = State::%s;\n", states.name(m.states[0])))
	sb.WriteString(`    for _ in 0..limit {
        if !TRANSITIONS.iter().any(|t| t.from == state) {
            break;
        }
        state = step(ctx, state)?;
    }
    Ok(state)
}
`)

	return sb.String()
}
