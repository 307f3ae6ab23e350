package codegen

import (
	"fmt"
	"strings"

	"github.com/ha1tch/designdoc/pkg/design"
)

var cKeywords = keywords("auto", "break", "case", "char", "const", "continue", "default", "do",
	"double", "else", "enum", "extern", "float", "for", "goto", "if", "inline", "int", "long",
	"register", "restrict", "return", "short", "signed", "sizeof", "static", "struct", "switch",
	"typedef", "union", "unsigned", "void", "volatile", "while", "bool", "true", "false")

func cType(k valueKind) string {
	switch k {
	case kindInt:
		return "int"
	case kindUint:
		return "unsigned int"
	case kindFloat:
		return "double"
	case kindBool:
		return "bool"
	case kindString:
		return "const char *"
	case kindStrings:
		return "const char **"
	default:
		return "void *"
	}
}

// cQuote writes s as a C string literal. Bytes outside printable ASCII
// become octal escapes.
func cQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' || c == '"':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '?':
			sb.WriteString(`\?`) // no trigraphs
		case c < 0x20 || c >= 0x7f:
			sb.WriteString(fmt.Sprintf("\\%03o", c))
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// GenerateC generates a single-header C skeleton. Function bodies are
// compiled where <NAME>_IMPLEMENTATION is defined before inclusion.
func GenerateC(doc design.Document, name string) string {
	m := buildMachine(doc, name)
	prefix := toSnakeCase(m.name)
	PREFIX := strings.ToUpper(prefix)

	states := newNamer(func(s string) string { return PREFIX + "_STATE_" + toUpperSnake(s) })
	fields := newNamer(toSnakeCase, cKeywords)
	funcs := newNamer(func(s string) string { return prefix + "_" + toSnakeCase(s) },
		keywords(prefix+"_step", prefix+"_run", prefix+"_state_name"))

	var sb strings.Builder

	// Header
	sb.WriteString("// Code skeleton generated from a design document.\n")
	if m.purpose != "" {
		sb.WriteString("//\n")
		writeComment(&sb, "", "// ", m.purpose)
	}
	sb.WriteString(fmt.Sprintf(`
#ifndef %s_H
#define %s_H

#include <stdbool.h>
#include <stddef.h>

`, PREFIX, PREFIX))

	// States
	sb.WriteString("typedef enum {\n")
	for _, s := range m.states {
		sb.WriteString(fmt.Sprintf("    %s,\n", states.name(s)))
	}
	sb.WriteString(fmt.Sprintf("    %s_STATE_COUNT\n", PREFIX))
	sb.WriteString(fmt.Sprintf("} %s_state_t;\n\n", prefix))

	// Context
	sb.WriteString("// Program arguments and settings.\n")
	sb.WriteString("typedef struct {\n")
	if len(m.fields) == 0 {
		sb.WriteString("    int unused;\n")
	}
	for _, f := range m.fields {
		comment := f.description
		if f.kind == kindUnknown && f.typ != "" {
			comment = strings.TrimSpace(f.typ + ". " + comment)
		}
		if comment != "" {
			writeComment(&sb, "    ", "// ", comment)
		}
		id := fields.name(f.name)
		typ := cType(f.kind)
		if !strings.HasSuffix(typ, "*") {
			typ += " "
		}
		sb.WriteString(fmt.Sprintf("    %s%s;\n", typ, id))
		if f.kind == kindStrings {
			sb.WriteString(fmt.Sprintf("    size_t %s_len;\n", id))
		}
	}
	sb.WriteString(fmt.Sprintf("} %s_context_t;\n\n", prefix))

	sb.WriteString(fmt.Sprintf("typedef %s_state_t (*%s_func_t)(%s_context_t *ctx);\n\n", prefix, prefix, prefix))

	// Declarations
	for _, f := range m.functions {
		id := funcs.name(f.name)
		if f.description != "" {
			writeComment(&sb, "", "// ", f.description)
		}
		if f.parameters != "" {
			writeComment(&sb, "", "// Parameters: ", f.parameters)
		}
		if f.returns != "" {
			writeComment(&sb, "", "// Returns: ", f.returns)
		}
		sb.WriteString(fmt.Sprintf("%s_state_t %s(%s_context_t *ctx);\n\n", prefix, id, prefix))
	}

	sb.WriteString(fmt.Sprintf("const char *%s_state_name(%s_state_t s);\n", prefix, prefix))
	sb.WriteString("// Returns false when no transition leaves from, or when the function\n// picks a state the table does not allow.\n")
	sb.WriteString(fmt.Sprintf("bool %s_step(%s_context_t *ctx, %s_state_t from, %s_state_t *next);\n", prefix, prefix, prefix, prefix))
	sb.WriteString(fmt.Sprintf("%s_state_t %s_run(%s_context_t *ctx, int limit);\n\n", prefix, prefix, prefix))

	// Implementation
	sb.WriteString(fmt.Sprintf("#ifdef %s_IMPLEMENTATION\n\n", PREFIX))

	sb.WriteString(fmt.Sprintf("static const char *const %s_state_names[] = {\n", prefix))
	for _, s := range m.states {
		sb.WriteString(fmt.Sprintf("    %s,\n", cQuote(s)))
	}
	sb.WriteString("};\n\n")

	sb.WriteString(fmt.Sprintf("const char *%s_state_name(%s_state_t s) {\n", prefix, prefix))
	sb.WriteString(fmt.Sprintf("    if (s >= 0 && s < %s_STATE_COUNT) {\n", PREFIX))
	sb.WriteString(fmt.Sprintf("        return %s_state_names[s];\n", prefix))
	sb.WriteString("    }\n")
	sb.WriteString("    return \"unknown\";\n")
	sb.WriteString("}\n\n")

	for _, f := range m.functions {
		sb.WriteString(fmt.Sprintf("%s_state_t %s(%s_context_t *ctx) {\n", prefix, funcs.name(f.name), prefix))
		sb.WriteString("    (void)ctx;\n")
		for _, block := range f.pseudocode {
			writeComment(&sb, "    ", "// ", block)
		}
		sb.WriteString(fmt.Sprintf("    return %s;\n", states.name(f.next)))
		sb.WriteString("}\n\n")
	}

	// Transition table
	sb.WriteString("static const struct {\n")
	sb.WriteString(fmt.Sprintf("    %s_state_t from;\n", prefix))
	sb.WriteString(fmt.Sprintf("    %s_state_t to;\n", prefix))
	sb.WriteString(fmt.Sprintf("    %s_func_t func;\n", prefix))
	sb.WriteString(fmt.Sprintf("} %s_transitions[] = {\n", prefix))
	rows := 0
	for _, t := range m.transitions {
		if t.From == "" || t.To == "" {
			continue
		}
		fn := "NULL"
		if t.Function != "" {
			fn = funcs.name(t.Function)
		}
		sb.WriteString(fmt.Sprintf("    {%s, %s, %s},\n", states.name(t.From), states.name(t.To), fn))
		rows++
	}
	if rows == 0 {
		// ISO C forbids empty initializers.
		sb.WriteString(fmt.Sprintf("    {%s_STATE_COUNT, %s_STATE_COUNT, NULL},\n", PREFIX, PREFIX))
	}
	sb.WriteString("};\n\n")
	sb.WriteString(fmt.Sprintf("#define %s_TRANSITION_COUNT (sizeof %s_transitions / sizeof %s_transitions[0])\n\n", PREFIX, prefix, prefix))

	sb.WriteString(strings.NewReplacer("PFX", prefix, "UPFX", PREFIX).Replace(`bool PFX_step(PFX_context_t *ctx, PFX_state_t from, PFX_state_t *next) {
    size_t i;
    int chosen = -1;
    for (i = 0; i < UPFX_TRANSITION_COUNT; i++) {
        if (PFX_transitions[i].from == from) {
            chosen = (int)i;
            break;
        }
    }
    if (chosen < 0) {
        return false;
    }
    if (PFX_transitions[chosen].func == NULL) {
        *next = PFX_transitions[chosen].to;
        return true;
    }
    PFX_state_t picked = PFX_transitions[chosen].func(ctx);
    for (i = 0; i < UPFX_TRANSITION_COUNT; i++) {
        if (PFX_transitions[i].from == from && PFX_transitions[i].to == picked) {
            *next = picked;
            return true;
        }
    }
    return false;
}

PFX_state_t PFX_run(PFX_context_t *ctx, int limit) {
    PFX_state_t state = (PFX_state_t)0;
    int i;
    for (i = 0; i < limit; i++) {
        PFX_state_t next;
        if (!PFX_step(ctx, state, &next)) {
            break;
        }
        state = next;
    }
    return state;
}

`))

	sb.WriteString(fmt.Sprintf("#endif // %s_IMPLEMENTATION\n\n", PREFIX))
	sb.WriteString(fmt.Sprintf("#endif // %s_H\n", PREFIX))

	return sb.String()
}
