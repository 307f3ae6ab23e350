package codegen

import (
	"fmt"
	"strings"

	"github.com/ha1tch/designdoc/pkg/design"
)

var cppKeywords = keywords("alignas", "alignof", "and", "and_eq", "asm", "auto", "bitand", "bitor",
	"bool", "break", "case", "catch", "char", "char8_t", "char16_t", "char32_t", "class", "compl",
	"concept", "const", "consteval", "constexpr", "constinit", "const_cast", "continue", "co_await",
	"co_return", "co_yield", "decltype", "default", "delete", "do", "double", "dynamic_cast", "else",
	"enum", "explicit", "export", "extern", "false", "float", "for", "friend", "goto", "if", "inline",
	"int", "long", "mutable", "namespace", "new", "noexcept", "not", "not_eq", "nullptr", "operator",
	"or", "or_eq", "private", "protected", "public", "register", "reinterpret_cast", "requires",
	"return", "short", "signed", "sizeof", "static", "static_assert", "static_cast", "struct",
	"switch", "template", "this", "thread_local", "throw", "true", "try", "typedef", "typeid",
	"typename", "union", "unsigned", "using", "virtual", "void", "volatile", "wchar_t", "while",
	"xor", "xor_eq", "std")

// cppMember returns the member type and its initializer.
func cppMember(k valueKind) (string, string) {
	switch k {
	case kindInt:
		return "std::int64_t", " = 0"
	case kindUint:
		return "std::uint64_t", " = 0"
	case kindFloat:
		return "double", " = 0.0"
	case kindBool:
		return "bool", " = false"
	case kindString:
		return "std::string", ""
	case kindStrings:
		return "std::vector<std::string>", ""
	default:
		return "std::any", ""
	}
}

// GenerateCpp generates a header-only C++17 skeleton in its own namespace.
func GenerateCpp(doc design.Document, name string) string {
	m := buildMachine(doc, name)

	ns := toSnakeCase(m.name)
	if cppKeywords[ns] || strings.HasPrefix(ns, "_") {
		ns = "design_" + strings.TrimLeft(ns, "_")
	}

	states := newNamer(toPascalCase)
	fields := newNamer(toSnakeCase, cppKeywords)
	funcs := newNamer(toSnakeCase, cppKeywords, keywords("step", "run", "state_name", "transitions"))

	var sb strings.Builder

	// Header
	sb.WriteString("// Code skeleton generated from a design document.\n")
	if m.purpose != "" {
		sb.WriteString("//\n")
		writeComment(&sb, "", "// ", m.purpose)
	}
	sb.WriteString(`
#pragma once

#include <any>
#include <cstddef>
#include <cstdint>
#include <stdexcept>
#include <string>
#include <string_view>
#include <vector>

`)
	sb.WriteString(fmt.Sprintf("namespace %s {\n\n", ns))

	// States
	sb.WriteString("enum class State {\n")
	for _, s := range m.states {
		sb.WriteString(fmt.Sprintf("    %s,\n", states.name(s)))
	}
	sb.WriteString("};\n\n")

	sb.WriteString("inline std::string_view state_name(State s) {\n")
	sb.WriteString("    switch (s) {\n")
	for _, s := range m.states {
		sb.WriteString(fmt.Sprintf("    case State::%s:\n        return %s;\n", states.name(s), cQuote(s)))
	}
	sb.WriteString("    }\n")
	sb.WriteString("    return \"?\";\n")
	sb.WriteString("}\n\n")

	// Context
	sb.WriteString("// Program arguments and settings.\n")
	sb.WriteString("struct Context {\n")
	for _, f := range m.fields {
		if c := f.comment(); c != "" {
			writeComment(&sb, "    ", "// ", c)
		}
		typ, init := cppMember(f.kind)
		sb.WriteString(fmt.Sprintf("    %s %s%s;\n", typ, fields.name(f.name), init))
	}
	sb.WriteString("};\n\n")

	// Functions
	for _, f := range m.functions {
		id := funcs.name(f.name)
		if f.description != "" {
			writeComment(&sb, "", "// ", f.description)
		}
		if sig := f.signature(); sig != "" {
			if f.description != "" {
				sb.WriteString("//\n")
			}
			writeComment(&sb, "", "// ", sig)
		}
		sb.WriteString(fmt.Sprintf("inline State %s([[maybe_unused]] Context& ctx) {\n", id))
		for _, block := range f.pseudocode {
			writeComment(&sb, "    ", "// ", block)
		}
		sb.WriteString(fmt.Sprintf("    return State::%s;\n", states.name(f.next)))
		sb.WriteString("}\n\n")
	}

	// Transition table
	sb.WriteString("// One row of the state table. A null func moves straight to `to`.\n")
	sb.WriteString("struct Transition {\n")
	sb.WriteString("    State from;\n")
	sb.WriteString("    State to;\n")
	sb.WriteString("    State (*func)(Context&);\n")
	sb.WriteString("};\n\n")

	sb.WriteString("inline const std::vector<Transition> transitions = {\n")
	for _, t := range m.transitions {
		if t.From == "" || t.To == "" {
			continue
		}
		fn := "nullptr"
		if t.Function != "" {
			fn = funcs.name(t.Function)
		}
		sb.WriteString(fmt.Sprintf("    {State::%s, State::%s, %s},\n", states.name(t.From), states.name(t.To), fn))
	}
	sb.WriteString("};\n\n")

	sb.WriteString(`// Takes the first transition leaving from. The state its function
// returns must be one the table allows from there.
inline State step(Context& ctx, State from) {
    const Transition* chosen = nullptr;
    for (const auto& t : transitions) {
        if (t.from == from) {
            chosen = &t;
            break;
        }
    }
    if (chosen == nullptr) {
        throw std::runtime_error("no transition from " + std::string(state_name(from)));
    }
    if (chosen->func == nullptr) {
        return chosen->to;
    }
    const State next = chosen->func(ctx);
    for (const auto& t : transitions) {
        if (t.from == from && t.to == next) {
            return next;
        }
    }
    throw std::runtime_error("transition " + std::string(state_name(from)) + " -> " +
                             std::string(state_name(next)) + " is not in the state table");
}

// Steps from the first state until no transition leaves the current
// state or limit steps have been taken.
inline State run(Context& ctx, std::size_t limit) {
`)
	sb.WriteString(fmt.Sprintf("    State state = State::%s;\n", states.name(m.states[0])))
	sb.WriteString(`    for (std::size_t i = 0; i < limit; ++i) {
        bool leaves = false;
        for (const auto& t : transitions) {
            if (t.from == state) {
                leaves = true;
                break;
            }
        }
        if (!leaves) {
            break;
        }
        state = step(ctx, state);
    }
    return state;
}

`)
	sb.WriteString(fmt.Sprintf("}  // namespace %s\n", ns))

	return sb.String()
}
