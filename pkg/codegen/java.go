package codegen

import (
	"fmt"
	"strings"

	"github.com/ha1tch/designdoc/pkg/design"
)

var javaKeywords = keywords("abstract", "assert", "boolean", "break", "byte", "case", "catch", "char",
	"class", "const", "continue", "default", "do", "double", "else", "enum", "extends", "final",
	"finally", "float", "for", "goto", "if", "implements", "import", "instanceof", "int", "interface",
	"long", "native", "new", "package", "private", "protected", "public", "return", "short", "static",
	"strictfp", "super", "switch", "synchronized", "this", "throw", "throws", "transient", "try",
	"void", "volatile", "while", "true", "false", "null", "var", "yield", "record", "sealed",
	"permits", "_")

// javaMember returns the field type and initializer.
func javaMember(k valueKind) (string, string) {
	switch k {
	case kindInt, kindUint:
		return "long", ""
	case kindFloat:
		return "double", ""
	case kindBool:
		return "boolean", ""
	case kindString:
		return "String", ` = ""`
	case kindStrings:
		return "List<String>", " = List.of()"
	default:
		return "Object", ""
	}
}

// javaQuote writes s as a Java string literal. Control characters use
// three-digit octal escapes, never \u, which the compiler would expand
// before lexing.
func javaQuote(s string) string {
	return quoteWith(s, func(r rune) string {
		if r > 0xff {
			return string(r)
		}
		return fmt.Sprintf(`\%03o`, r)
	})
}

// javaText doubles backslashes so comment text cannot form a \u escape.
func javaText(s string) string {
	return strings.ReplaceAll(s, `\`, `\\`)
}

// GenerateJava generates a single Java 16+ source file. The class is
// named after the machine, so the file should be too.
func GenerateJava(doc design.Document, name string) string {
	m := buildMachine(doc, name)

	class := toPascalCase(m.name)
	switch class {
	case "State", "Context", "Transition", "List", "Set", "EnumSet", "Function", "String", "Object":
		class += "Machine"
	}

	states := newNamer(toUpperSnake)
	fields := newNamer(toCamelCase, javaKeywords)
	funcs := newNamer(toCamelCase, javaKeywords, keywords("step", "run"))

	var sb strings.Builder

	// Header
	sb.WriteString("// Code skeleton generated from a design document.\n")
	if m.purpose != "" {
		sb.WriteString("//\n")
		writeComment(&sb, "", "// ", javaText(m.purpose))
	}
	sb.WriteString(`
import java.util.EnumSet;
import java.util.List;
import java.util.Set;
import java.util.function.Function;

`)
	sb.WriteString(fmt.Sprintf("public final class %s {\n", class))
	sb.WriteString(fmt.Sprintf("    private %s() {}\n\n", class))

	// States
	sb.WriteString("    /** Machine states. */\n")
	sb.WriteString("    public enum State {\n")
	for i, s := range m.states {
		sep := ","
		if i == len(m.states)-1 {
			sep = ";"
		}
		sb.WriteString(fmt.Sprintf("        %s(%s)%s\n", states.name(s), javaQuote(s), sep))
	}
	sb.WriteString(`
        private final String label;

        State(String label) {
            this.label = label;
        }

        @Override
        public String toString() {
            return label;
        }
    }

`)

	// Context
	sb.WriteString("    /** Program arguments and settings. */\n")
	sb.WriteString("    public static final class Context {\n")
	for _, f := range m.fields {
		writeDocBlock(&sb, "        ", javaText(f.comment()))
		typ, init := javaMember(f.kind)
		sb.WriteString(fmt.Sprintf("        public %s %s%s;\n", typ, fields.name(f.name), init))
	}
	sb.WriteString("    }\n\n")

	// Functions
	for _, f := range m.functions {
		id := funcs.name(f.name)
		writeDocBlock(&sb, "    ", javaText(f.description), javaText(f.signature()))
		sb.WriteString(fmt.Sprintf("    public static State %s(Context ctx) {\n", id))
		for _, block := range f.pseudocode {
			writeComment(&sb, "        ", "// ", javaText(block))
		}
		sb.WriteString(fmt.Sprintf("        return State.%s;\n", states.name(f.next)))
		sb.WriteString("    }\n\n")
	}

	// Transition table
	sb.WriteString("    /** One row of the state table. A null func moves straight to {@code to}. */\n")
	sb.WriteString("    public record Transition(State from, State to, Function<Context, State> func) {}\n\n")

	var rows []string
	for _, t := range m.transitions {
		if t.From == "" || t.To == "" {
			continue
		}
		fn := "null"
		if t.Function != "" {
			fn = class + "::" + funcs.name(t.Function)
		}
		rows = append(rows, fmt.Sprintf("            new Transition(State.%s, State.%s, %s)", states.name(t.From), states.name(t.To), fn))
	}
	sb.WriteString("    /** The state table in declaration order. */\n")
	if len(rows) == 0 {
		sb.WriteString("    public static final List<Transition> TRANSITIONS = List.of();\n\n")
	} else {
		sb.WriteString("    public static final List<Transition> TRANSITIONS = List.of(\n")
		sb.WriteString(strings.Join(rows, ",\n"))
		sb.WriteString(");\n\n")
	}

	sb.WriteString(`    /**
     * Takes the first transition leaving from. The state its function
     * returns must be one the table allows from there.
     */
    public static State step(Context ctx, State from) {
        Transition chosen = null;
        Set<State> allowed = EnumSet.noneOf(State.class);
        for (Transition t : TRANSITIONS) {
            if (t.from() != from) {
                continue;
            }
            if (chosen == null) {
                chosen = t;
            }
            allowed.add(t.to());
        }
        if (chosen == null) {
            throw new IllegalStateException("no transition from " + from);
        }
        if (chosen.func() == null) {
            return chosen.to();
        }
        State next = chosen.func().apply(ctx);
        if (!allowed.contains(next)) {
            throw new IllegalStateException("transition " + from + " -> " + next + " is not in the state table");
        }
        return next;
    }

    /**
     * Steps from the first state until no transition leaves the current
     * state or limit steps have been taken.
     */
    public static State run(Context ctx, int limit) {
`)
	sb.WriteString(fmt.Sprintf("        State state = State.%s;\n", states.name(m.states[0])))
	sb.WriteString(`        for (int i = 0; i < limit; i++) {
            final State current = state;
            if (TRANSITIONS.stream().noneMatch(t -> t.from() == current)) {
                break;
            }
            state = step(ctx, state);
        }
        return state;
    }
}
`)

	return sb.String()
}
