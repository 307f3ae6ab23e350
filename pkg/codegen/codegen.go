// Package codegen generates code skeletons from design documents.
//
// Each skeleton declares the states, a context holding the arguments and
// settings, one stub per function with its pseudocode as comments, and a
// transition table with a step function driving it.
package codegen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ha1tch/designdoc/pkg/design"
)

// Generate returns the skeleton for lang (see Languages). name is the
// machine name, used for the package, namespace, class or header guard.
func Generate(lang string, doc design.Document, name string) (string, error) {
	switch strings.ToLower(lang) {
	case "c", "h":
		return GenerateC(doc, name), nil
	case "cpp", "c++", "cc", "cxx", "hpp":
		return GenerateCpp(doc, name), nil
	case "go", "golang":
		return GenerateGo(doc, name), nil
	case "java":
		return GenerateJava(doc, name), nil
	case "javascript", "js", "mjs":
		return GenerateJavaScript(doc, name), nil
	case "python", "py":
		return GeneratePython(doc, name), nil
	case "rust", "rs":
		return GenerateRust(doc, name), nil
	default:
		return "", fmt.Errorf("unsupported language: %s", lang)
	}
}

// Languages lists the names Generate accepts, one per language.
func Languages() []string {
	return []string{"c", "cpp", "go", "java", "javascript", "python", "rust"}
}

// Extension returns the usual file extension for lang.
func Extension(lang string) string {
	switch strings.ToLower(lang) {
	case "c", "h":
		return ".h"
	case "cpp", "c++", "cc", "cxx", "hpp":
		return ".hpp"
	case "java":
		return ".java"
	case "javascript", "js", "mjs":
		return ".js"
	case "python", "py":
		return ".py"
	case "rust", "rs":
		return ".rs"
	default:
		return ".go"
	}
}

// valueKind is the portable meaning of a free-text type such as
// "unsigned integer" or "string array".
type valueKind int

const (
	kindUnknown valueKind = iota
	kindInt
	kindUint
	kindFloat
	kindBool
	kindString
	kindStrings
)

func classify(typ string) valueKind {
	t := strings.ToLower(strings.TrimSpace(typ))
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(t, w) {
				return true
			}
		}
		return false
	}

	switch {
	case t == "":
		return kindUnknown
	case has("string", "char*", "char *", "text") && has("array", "list", "[]", "**", "vec"):
		return kindStrings
	case has("string", "char*", "char *", "text"):
		return kindString
	case has("bool", "flag"):
		return kindBool
	case has("float", "double", "real", "decimal"):
		return kindFloat
	case has("unsigned", "uint", "size_t", "natural"):
		return kindUint
	case has("int", "long", "short", "number", "count"):
		return kindInt
	default:
		return kindUnknown
	}
}

// field is one member of the generated context.
type field struct {
	name        string
	typ         string
	kind        valueKind
	description string
	setting     bool
}

// function is one generated stub.
type function struct {
	name        string
	description string
	parameters  string
	returns     string
	pseudocode  []string // one entry per pseudocode block
	next        string   // state returned by the stub
}

// machine is the language-neutral view of a document.
type machine struct {
	name        string
	purpose     string
	states      []string
	fields      []field
	functions   []function
	transitions []design.Transition
}

// buildMachine collects states and functions in declaration order and
// appends any that are only referenced by the state table.
func buildMachine(doc design.Document, name string) *machine {
	doc = doc.Trimmed()
	m := &machine{name: name, purpose: doc.Purpose, transitions: doc.Transitions}
	if m.name == "" {
		m.name = "design"
	}

	seenState := make(map[string]bool)
	addState := func(s string) {
		if s != "" && !seenState[s] {
			seenState[s] = true
			m.states = append(m.states, s)
		}
	}
	for _, s := range doc.States {
		addState(s.Name)
	}
	for _, t := range doc.Transitions {
		addState(t.From)
		addState(t.To)
	}
	if len(m.states) == 0 {
		addState("INITIAL")
	}

	for _, a := range doc.Arguments {
		m.fields = append(m.fields, field{name: a.Field, typ: a.Type, kind: classify(a.Type), description: a.Description})
	}
	for _, s := range doc.Settings {
		m.fields = append(m.fields, field{name: s.Field, typ: s.Type, kind: classify(s.Type), description: s.Description, setting: true})
	}

	code := make(map[string][]string)
	for _, p := range doc.Pseudocode {
		code[p.Function] = append(code[p.Function], p.Code)
	}
	next := make(map[string]string)
	for _, t := range doc.Transitions {
		if _, ok := next[t.Function]; !ok && t.To != "" {
			next[t.Function] = t.To
		}
	}

	seenFunc := make(map[string]bool)
	addFunc := func(f function) {
		if f.name == "" || seenFunc[f.name] {
			return
		}
		seenFunc[f.name] = true
		f.pseudocode = code[f.name]
		f.next = next[f.name]
		if f.next == "" {
			f.next = m.states[0]
		}
		m.functions = append(m.functions, f)
	}
	for _, f := range doc.Functions {
		addFunc(function{name: f.Name, description: f.Description, parameters: f.Parameters, returns: f.Returns})
	}
	for _, t := range doc.Transitions {
		addFunc(function{name: t.Function})
	}

	return m
}

// namer maps source names to unique identifiers in one namespace.
type namer struct {
	convert  func(string) string
	reserved map[string]bool
	used     map[string]bool
	names    map[string]string
}

func newNamer(convert func(string) string, reserved ...map[string]bool) *namer {
	n := &namer{convert: convert, reserved: make(map[string]bool), used: make(map[string]bool), names: make(map[string]string)}
	for _, r := range reserved {
		for k := range r {
			n.reserved[k] = true
		}
	}
	return n
}

func (n *namer) name(src string) string {
	if id, ok := n.names[src]; ok {
		return id
	}
	base := n.convert(src)
	if n.reserved[base] {
		base += "_"
	}
	id := base
	for i := 2; n.used[id]; i++ {
		id = fmt.Sprintf("%s%d", base, i)
	}
	n.used[id] = true
	n.names[src] = id
	return id
}

// commentLines splits text for line comments, dropping trailing blanks.
func commentLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(text, "\n "), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return lines
}

func writeComment(sb *strings.Builder, indent, prefix, text string) {
	for _, line := range commentLines(text) {
		if line == "" {
			sb.WriteString(strings.TrimRight(indent+prefix, " ") + "\n")
			continue
		}
		sb.WriteString(indent + prefix + line + "\n")
	}
}

// writeDocBlock writes paragraphs as a /** */ block. A "*/" in the text
// is broken up so it cannot end the block early.
func writeDocBlock(sb *strings.Builder, indent string, paras ...string) {
	var lines []string
	for _, p := range paras {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, commentLines(strings.ReplaceAll(p, "*/", `*\/`))...)
	}
	switch len(lines) {
	case 0:
		return
	case 1:
		sb.WriteString(indent + "/** " + lines[0] + " */\n")
		return
	}
	sb.WriteString(indent + "/**\n")
	for _, l := range lines {
		if l == "" {
			sb.WriteString(indent + " *\n")
			continue
		}
		sb.WriteString(indent + " * " + l + "\n")
	}
	sb.WriteString(indent + " */\n")
}

// signature joins the parameters and returns notes of f, one per line.
func (f function) signature() string {
	var lines []string
	if f.parameters != "" {
		lines = append(lines, "Parameters: "+f.parameters)
	}
	if f.returns != "" {
		lines = append(lines, "Returns: "+f.returns)
	}
	return strings.Join(lines, "\n")
}

// comment is the description of f, led by its free-text type when
// that type has no mapping.
func (f field) comment() string {
	if f.kind == kindUnknown && f.typ != "" {
		return strings.TrimSpace(f.typ + ". " + f.description)
	}
	return f.description
}

// quoteWith writes s as a double-quoted literal. Backslash, quote, newline
// and tab use their usual escapes; ctrl spells the other control runes.
func quoteWith(s string, ctrl func(rune) string) string {
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
		case r < 0x20 || r == 0x7f || r == 0x2028 || r == 0x2029:
			sb.WriteString(ctrl(r))
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Helper functions

func sanitizeName(s string) string {
	if s == "" {
		return "unnamed"
	}
	var result strings.Builder
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
			result.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '/':
			result.WriteRune('_')
		}
	}
	name := result.String()
	if strings.Trim(name, "_") == "" {
		return "unnamed"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "_" + name
	}
	return name
}

// splitWords breaks on separators and on lower-to-upper case changes.
func splitWords(s string) []string {
	var words []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	for _, r := range sanitizeName(s) {
		if r == '_' {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(current) > 0 && unicode.IsLower(current[len(current)-1]) {
			flush()
		}
		current = append(current, r)
	}
	flush()
	return words
}

func toPascalCase(s string) string {
	var result strings.Builder
	for _, word := range splitWords(s) {
		result.WriteString(strings.ToUpper(word[:1]))
		result.WriteString(strings.ToLower(word[1:]))
	}
	name := result.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return "X" + name
	}
	return name
}

func toCamelCase(s string) string {
	var result strings.Builder
	for i, word := range splitWords(s) {
		if i == 0 {
			result.WriteString(strings.ToLower(word))
			continue
		}
		result.WriteString(strings.ToUpper(word[:1]))
		result.WriteString(strings.ToLower(word[1:]))
	}
	name := result.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return "_" + name
	}
	return name
}

func toSnakeCase(s string) string {
	words := splitWords(s)
	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	name := strings.Join(words, "_")
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return "_" + name
	}
	return name
}

func toUpperSnake(s string) string {
	return strings.ToUpper(toSnakeCase(s))
}

func keywords(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
