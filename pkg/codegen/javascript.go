package codegen

import (
	"fmt"
	"strings"

	"github.com/ha1tch/designdoc/pkg/design"
)

var jsKeywords = keywords("await", "break", "case", "catch", "class", "const", "continue", "debugger",
	"default", "delete", "do", "else", "enum", "export", "extends", "false", "finally", "for",
	"function", "if", "implements", "import", "in", "instanceof", "interface", "let", "new", "null",
	"package", "private", "protected", "public", "return", "static", "super", "switch", "this",
	"throw", "true", "try", "typeof", "var", "void", "while", "with", "yield", "arguments", "eval",
	"undefined")

// jsMember returns the JSDoc type and initial value of a context property.
func jsMember(k valueKind) (string, string) {
	switch k {
	case kindInt, kindUint, kindFloat:
		return "number", "0"
	case kindBool:
		return "boolean", "false"
	case kindString:
		return "string", `""`
	case kindStrings:
		return "string[]", "[]"
	default:
		return "*", "undefined"
	}
}

func jsQuote(s string) string {
	return quoteWith(s, func(r rune) string { return fmt.Sprintf(`\u%04x`, r) })
}

// GenerateJavaScript generates an ES module skeleton for the document.
func GenerateJavaScript(doc design.Document, name string) string {
	m := buildMachine(doc, name)

	states := newNamer(toUpperSnake)
	fields := newNamer(toCamelCase, jsKeywords)
	funcs := newNamer(toCamelCase, jsKeywords, keywords("step", "run"))

	var sb strings.Builder

	// Header
	sb.WriteString("// Code skeleton generated from a design document.\n")
	if m.purpose != "" {
		sb.WriteString("//\n")
		writeComment(&sb, "", "// ", m.purpose)
	}
	sb.WriteString("\n")

	// States
	sb.WriteString("/** Machine states, keyed and valued by name. */\n")
	sb.WriteString("export const State = Object.freeze({\n")
	for _, s := range m.states {
		sb.WriteString(fmt.Sprintf("  %s: %s,\n", states.name(s), jsQuote(s)))
	}
	sb.WriteString("});\n\n")

	// Context
	sb.WriteString("/** Program arguments and settings. */\n")
	sb.WriteString("export class Context {\n")
	sb.WriteString("  constructor() {\n")
	for _, f := range m.fields {
		typ, init := jsMember(f.kind)
		writeDocBlock(&sb, "    ", f.comment(), fmt.Sprintf("@type {%s}", typ))
		sb.WriteString(fmt.Sprintf("    this.%s = %s;\n", fields.name(f.name), init))
	}
	sb.WriteString("  }\n")
	sb.WriteString("}\n\n")

	// Functions
	for _, f := range m.functions {
		id := funcs.name(f.name)
		writeDocBlock(&sb, "", f.description, f.signature(), "@param {Context} ctx\n@returns {string}")
		sb.WriteString(fmt.Sprintf("export function %s(ctx) {\n", id))
		for _, block := range f.pseudocode {
			writeComment(&sb, "  ", "// ", block)
		}
		sb.WriteString(fmt.Sprintf("  return State.%s;\n", states.name(f.next)))
		sb.WriteString("}\n\n")
	}

	// Transition table
	sb.WriteString("/**\n")
	sb.WriteString(" * The state table in declaration order. A null func moves straight to `to`.\n")
	sb.WriteString(" * @type {ReadonlyArray<{from: string, to: string, func: ?function(Context): string}>}\n")
	sb.WriteString(" */\n")
	sb.WriteString("export const TRANSITIONS = Object.freeze([\n")
	for _, t := range m.transitions {
		if t.From == "" || t.To == "" {
			continue
		}
		fn := "null"
		if t.Function != "" {
			fn = funcs.name(t.Function)
		}
		sb.WriteString(fmt.Sprintf("  { from: State.%s, to: State.%s, func: %s },\n", states.name(t.From), states.name(t.To), fn))
	}
	sb.WriteString("]);\n\n")

	sb.WriteString(`/**
 * Takes the first transition leaving from. The state its function
 * returns must be one the table allows from there.
 * @param {Context} ctx
 * @param {string} from
 * @returns {string}
 */
export function step(ctx, from) {
  const leaving = TRANSITIONS.filter((t) => t.from === from);
  if (leaving.length === 0) {
    throw new Error("no transition from " + from);
  }
  const chosen = leaving[0];
  if (chosen.func === null) {
    return chosen.to;
  }
  const next = chosen.func(ctx);
  if (!leaving.some((t) => t.to === next)) {
    throw new Error("transition " + from + " -> " + next + " is not in the state table");
  }
  return next;
}

/**
 * Steps from the first state until no transition leaves the current
 * state or limit steps have been taken.
 * @param {Context} ctx
 * @param {number} limit
 * @returns {string}
 */
export function run(ctx, limit) {
`)
	sb.WriteString(fmt.Sprintf("  let state = State.%s;\n", states.name(m.states[0])))
	sb.WriteString(`  for (let i = 0; i < limit; i++) {
    if (!TRANSITIONS.some((t) => t.from === state)) {
      break;
    }
    state = step(ctx, state);
  }
  return state;
}
`)

	return sb.String()
}
