package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/designdoc/pkg/design"
)

func wordCount() design.Document {
	return design.Document{
		Purpose: "Count words",
		Arguments: []design.Argument{
			{Field: "input path", Type: "string", Description: "file to read"},
			{Field: "type", Type: "unsigned integer"},
		},
		Settings:  []design.Setting{{Field: "verbose", Type: "boolean"}},
		Functions: []design.Function{{Name: "read file", Description: "Reads it", Parameters: "path", Returns: "next state"}},
		States:    []design.State{{Name: "START"}, {Name: "READING"}},
		Transitions: []design.Transition{
			{From: "START", To: "READING", Function: "read file"},
			{From: "READING", To: "DONE", Function: "finish"},
		},
		Pseudocode: []design.Pseudocode{{Function: "read file", Code: "open path\nread lines"}},
	}
}

func TestBuildMachine(t *testing.T) {
	m := buildMachine(wordCount(), "")
	assert.Equal(t, "design", m.name)
	assert.Equal(t, []string{"START", "READING", "DONE"}, m.states)

	require.Len(t, m.functions, 2)
	assert.Equal(t, "read file", m.functions[0].name)
	assert.Equal(t, "READING", m.functions[0].next)
	assert.Equal(t, []string{"open path\nread lines"}, m.functions[0].pseudocode)
	assert.Equal(t, "finish", m.functions[1].name)
	assert.Equal(t, "DONE", m.functions[1].next)

	require.Len(t, m.fields, 3)
	assert.True(t, m.fields[2].setting)
}

func TestBuildMachineEmptyDocument(t *testing.T) {
	m := buildMachine(design.Document{}, "x")
	assert.Equal(t, []string{"INITIAL"}, m.states)
	assert.Empty(t, m.functions)
}

func TestClassify(t *testing.T) {
	tests := map[string]valueKind{
		"":                 kindUnknown,
		"string":           kindString,
		"char *":           kindString,
		"list of strings":  kindStrings,
		"boolean":          kindBool,
		"double":           kindFloat,
		"unsigned integer": kindUint,
		"size_t":           kindUint,
		"Integer":          kindInt,
		"file handle":      kindUnknown,
	}
	for typ, want := range tests {
		assert.Equal(t, want, classify(typ), typ)
	}
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "ReadFile", toPascalCase("read file"))
	assert.Equal(t, "ReadFile", toPascalCase("readFile"))
	assert.Equal(t, "read_file", toSnakeCase("read-file"))
	assert.Equal(t, "X2nd", toPascalCase("2nd"))
	assert.Equal(t, "READ_FILE", toUpperSnake("ReadFile"))
	assert.Equal(t, "readFile", toCamelCase("Read File"))
	assert.Equal(t, "_2nd", toCamelCase("2nd"))
	assert.Equal(t, "unnamed", sanitizeName("!!!"))

	n := newNamer(toPascalCase, keywords("Step"))
	assert.Equal(t, "AB", n.name("a b"))
	assert.Equal(t, "AB2", n.name("a-b"))
	assert.Equal(t, "AB", n.name("a b"), "stable for the same source")
	assert.Equal(t, "Step_", n.name("step"))
}

func TestGenerateGo(t *testing.T) {
	out := GenerateGo(wordCount(), "word count")

	assert.True(t, strings.HasPrefix(out, "// Code skeleton generated from a design document.\n//\n// Count words\n"))
	assert.Contains(t, out, "package wordcount\n")
	assert.Contains(t, out, "\tStateStart State = iota\n\tStateReading\n\tStateDone\n")
	assert.Contains(t, out, "\t// file to read\n\tInputPath string\n")
	assert.Contains(t, out, "\tType uint\n")
	assert.Contains(t, out, "\tVerbose bool\n")
	assert.Contains(t, out, "// ReadFile: Reads it\n//\n// Parameters: path\n// Returns: next state\n")
	assert.Contains(t, out, "func ReadFile(ctx *Context) State {\n\t// open path\n\t// read lines\n\treturn StateReading\n}\n")
	assert.Contains(t, out, "func Finish(ctx *Context) State {\n\treturn StateDone\n}\n")
	assert.Contains(t, out, "\t{From: StateStart, To: StateReading, Func: ReadFile},\n")
	assert.Contains(t, out, "\t{From: StateReading, To: StateDone, Func: Finish},\n")
	assert.Contains(t, out, "\tstate := StateStart\n")
}

func TestGenerateGoAvoidsCollisions(t *testing.T) {
	doc := design.Document{
		States:    []design.State{{Name: "start"}},
		Functions: []design.Function{{Name: "step"}, {Name: "state start"}},
	}
	out := GenerateGo(doc, "func")

	assert.Contains(t, out, "package design\n")
	assert.Contains(t, out, "func Step_(ctx *Context) State {")
	assert.Contains(t, out, "func StateStart_(ctx *Context) State {")
	assert.Equal(t, 1, strings.Count(out, "func Step("))
}

func TestGenerateGoEmptyDocument(t *testing.T) {
	out := GenerateGo(design.Document{}, "")
	assert.Contains(t, out, "\tStateInitial State = iota\n")
	assert.Contains(t, out, "var Transitions = []Transition{\n}\n")
	assert.NotContains(t, out, "// Code skeleton generated from a design document.\n//\n")
}

func TestGenerateC(t *testing.T) {
	out := GenerateC(wordCount(), "word count")

	assert.Contains(t, out, "#ifndef WORD_COUNT_H\n#define WORD_COUNT_H\n")
	assert.Contains(t, out, "    WORD_COUNT_STATE_START,\n    WORD_COUNT_STATE_READING,\n    WORD_COUNT_STATE_DONE,\n    WORD_COUNT_STATE_COUNT\n} word_count_state_t;")
	assert.Contains(t, out, "    const char *input_path;\n")
	assert.Contains(t, out, "    unsigned int type;\n")
	assert.Contains(t, out, "    bool verbose;\n")
	assert.Contains(t, out, "word_count_state_t word_count_read_file(word_count_context_t *ctx);\n")
	assert.Contains(t, out, "    // open path\n    // read lines\n    return WORD_COUNT_STATE_READING;\n")
	assert.Contains(t, out, "    {WORD_COUNT_STATE_START, WORD_COUNT_STATE_READING, word_count_read_file},\n")
	assert.Contains(t, out, "bool word_count_step(word_count_context_t *ctx, word_count_state_t from, word_count_state_t *next) {")
	assert.Contains(t, out, "#ifdef WORD_COUNT_IMPLEMENTATION\n")
	assert.True(t, strings.HasSuffix(out, "#endif // WORD_COUNT_H\n"))
	assert.NotContains(t, out, "PFX")
}

func TestGenerateCEscapesKeywordsAndEmptyTable(t *testing.T) {
	doc := design.Document{Arguments: []design.Argument{{Field: "int", Type: "int"}}}
	out := GenerateC(doc, "m")
	assert.Contains(t, out, "    int int_;\n")
	assert.Contains(t, out, "    {M_STATE_COUNT, M_STATE_COUNT, NULL},\n")
}

func TestCQuote(t *testing.T) {
	assert.Equal(t, `"say \"hi\"\?"`, cQuote(`say "hi"?`))
	assert.Equal(t, `"a\nb\\"`, cQuote("a\nb\\"))
	assert.Equal(t, `"caf\303\251"`, cQuote("café"))
}

func TestGenerateRust(t *testing.T) {
	out := GenerateRust(wordCount(), "word count")

	assert.True(t, strings.HasPrefix(out, "//! Code skeleton generated from a design document.\n//!\n//! Count words\n"))
	assert.Contains(t, out, "pub enum State {\n    Start,\n    Reading,\n    Done,\n}\n")
	assert.Contains(t, out, "            State::Start => \"START\",\n")
	assert.Contains(t, out, "    pub input_path: String,\n")
	assert.Contains(t, out, "    pub type_: u64,\n")
	assert.Contains(t, out, "/// Reads it\n///\n/// Parameters: path\n/// Returns: next state\n")
	assert.Contains(t, out, "pub fn read_file(_ctx: &mut Context) -> State {\n    // open path\n    // read lines\n    State::Reading\n}\n")
	assert.Contains(t, out, "    Transition { from: State::Start, to: State::Reading, func: Some(read_file) },\n")
	assert.Contains(t, out, "    let mut state = State::Start;\n")
}

func TestRustQuote(t *testing.T) {
	assert.Equal(t, `"a\"b\\c\n"`, rustQuote("a\"b\\c\n"))
	assert.Equal(t, `"\u{1}"`, rustQuote("\x01"))
}

func TestGenerate(t *testing.T) {
	for _, lang := range Languages() {
		out, err := Generate(lang, wordCount(), "wc")
		require.NoError(t, err, lang)
		assert.NotEmpty(t, out)
	}

	_, err := Generate("cobol", wordCount(), "wc")
	assert.EqualError(t, err, "unsupported language: cobol")

	assert.Equal(t, ".h", Extension("C"))
	assert.Equal(t, ".hpp", Extension("c++"))
	assert.Equal(t, ".java", Extension("java"))
	assert.Equal(t, ".js", Extension("js"))
	assert.Equal(t, ".py", Extension("python"))
	assert.Equal(t, ".rs", Extension("rust"))
	assert.Equal(t, ".go", Extension("go"))

	for alias, lang := range map[string]string{"c++": "cpp", "py": "python", "js": "javascript", "rs": "rust", "h": "c"} {
		a, err := Generate(alias, wordCount(), "wc")
		require.NoError(t, err, alias)
		b, err := Generate(lang, wordCount(), "wc")
		require.NoError(t, err, lang)
		assert.Equal(t, b, a, alias)
	}
}

func TestGenerateEmptyDocument(t *testing.T) {
	for _, lang := range Languages() {
		out, err := Generate(lang, design.Document{}, "empty")
		require.NoError(t, err, lang)
		assert.Contains(t, out, "INITIAL", lang)
	}
	assert.Contains(t, GenerateJava(design.Document{}, "empty"), "TRANSITIONS = List.of();\n")
	assert.Contains(t, GeneratePython(design.Document{}, "empty"), "class Context:\n    \"\"\"Program arguments and settings.\"\"\"\n\n    pass\n")
}

func TestGenerateCpp(t *testing.T) {
	out := GenerateCpp(wordCount(), "word count")

	assert.True(t, strings.HasPrefix(out, "// Code skeleton generated from a design document.\n//\n// Count words\n\n#pragma once\n"))
	assert.Contains(t, out, "namespace word_count {\n")
	assert.Contains(t, out, "enum class State {\n    Start,\n    Reading,\n    Done,\n};\n")
	assert.Contains(t, out, "    case State::Start:\n        return \"START\";\n")
	assert.Contains(t, out, "    // file to read\n    std::string input_path;\n")
	assert.Contains(t, out, "    std::uint64_t type = 0;\n")
	assert.Contains(t, out, "    bool verbose = false;\n")
	assert.Contains(t, out, "// Reads it\n//\n// Parameters: path\n// Returns: next state\n"+
		"inline State read_file([[maybe_unused]] Context& ctx) {\n    // open path\n    // read lines\n    return State::Reading;\n}\n")
	assert.Contains(t, out, "    {State::Start, State::Reading, read_file},\n")
	assert.Contains(t, out, "    State state = State::Start;\n")
	assert.True(t, strings.HasSuffix(out, "}  // namespace word_count\n"))
}

func TestGenerateCppNamespace(t *testing.T) {
	assert.Contains(t, GenerateCpp(wordCount(), "new"), "namespace design_new {\n")
	assert.Contains(t, GenerateCpp(wordCount(), "2pass"), "namespace design_2pass {\n")
}

func TestGeneratePython(t *testing.T) {
	out := GeneratePython(wordCount(), "word count")

	assert.True(t, strings.HasPrefix(out, "\"\"\"Code skeleton generated from a design document.\n\nCount words\n\"\"\"\n"))
	assert.Contains(t, out, "class State(Enum):\n    START = \"START\"\n    READING = \"READING\"\n    DONE = \"DONE\"\n")
	assert.Contains(t, out, "    # file to read\n    input_path: str = \"\"\n")
	assert.Contains(t, out, "    type_: int = 0\n")
	assert.Contains(t, out, "    verbose: bool = False\n")
	assert.Contains(t, out, "def read_file(ctx: Context) -> State:\n"+
		"    \"\"\"Reads it\n\n    Parameters: path\n    Returns: next state\n    \"\"\"\n"+
		"    # open path\n    # read lines\n    return State.READING\n")
	assert.Contains(t, out, "def finish(ctx: Context) -> State:\n    return State.DONE\n")
	assert.Contains(t, out, "    Transition(State.START, State.READING, read_file),\n")
	assert.Contains(t, out, "    state = State.START\n")
}

func TestGeneratePythonDocstringEscapes(t *testing.T) {
	doc := design.Document{Functions: []design.Function{{Name: "f", Description: `say """hi""" to C:\tmp`}}}
	out := GeneratePython(doc, "x")
	assert.Contains(t, out, `    """say \"\"\"hi\"\"\" to C:\\tmp"""`+"\n")

	doc.Functions[0].Description = `quoted "x"`
	assert.Contains(t, GeneratePython(doc, "x"), `    """quoted "x\""""`+"\n")
}

func TestGenerateJavaScript(t *testing.T) {
	out := GenerateJavaScript(wordCount(), "word count")

	assert.True(t, strings.HasPrefix(out, "// Code skeleton generated from a design document.\n//\n// Count words\n"))
	assert.Contains(t, out, "export const State = Object.freeze({\n  START: \"START\",\n  READING: \"READING\",\n  DONE: \"DONE\",\n});\n")
	assert.Contains(t, out, "    /**\n     * file to read\n     *\n     * @type {string}\n     */\n    this.inputPath = \"\";\n")
	assert.Contains(t, out, "    /** @type {number} */\n    this.type = 0;\n")
	assert.Contains(t, out, "    /** @type {boolean} */\n    this.verbose = false;\n")
	assert.Contains(t, out, "/**\n * Reads it\n *\n * Parameters: path\n * Returns: next state\n *\n * @param {Context} ctx\n * @returns {string}\n */\n"+
		"export function readFile(ctx) {\n  // open path\n  // read lines\n  return State.READING;\n}\n")
	assert.Contains(t, out, "  { from: State.START, to: State.READING, func: readFile },\n")
	assert.Contains(t, out, "  let state = State.START;\n")
}

func TestGenerateJava(t *testing.T) {
	out := GenerateJava(wordCount(), "word count")

	assert.Contains(t, out, "public final class WordCount {\n    private WordCount() {}\n")
	assert.Contains(t, out, "        START(\"START\"),\n        READING(\"READING\"),\n        DONE(\"DONE\");\n")
	assert.Contains(t, out, "        /** file to read */\n        public String inputPath = \"\";\n")
	assert.Contains(t, out, "        public long type;\n")
	assert.Contains(t, out, "        public boolean verbose;\n")
	assert.Contains(t, out, "    /**\n     * Reads it\n     *\n     * Parameters: path\n     * Returns: next state\n     */\n"+
		"    public static State readFile(Context ctx) {\n        // open path\n        // read lines\n        return State.READING;\n    }\n")
	assert.Contains(t, out, "            new Transition(State.START, State.READING, WordCount::readFile),\n"+
		"            new Transition(State.READING, State.DONE, WordCount::finish));\n")
	assert.Contains(t, out, "        State state = State.START;\n")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestGenerateJavaCommentsCannotFormUnicodeEscapes(t *testing.T) {
	doc := wordCount()
	doc.Purpose = `ends with \u000a`
	doc.Functions[0].Description = "closes */ early"
	out := GenerateJava(doc, "State")

	assert.Contains(t, out, `// ends with \\u000a`+"\n")
	assert.Contains(t, out, `closes *\/ early`)
	assert.Contains(t, out, "public final class StateMachine {\n")
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"a\"b\\c\n"`, javaQuote("a\"b\\c\n"))
	assert.Equal(t, `"\001x"`, javaQuote("\x01x"))
	assert.Equal(t, `"\u2028"`, jsQuote("\u2028"))
	assert.Equal(t, `"\u007f"`, pythonQuote("\x7f"))
	assert.Equal(t, `"tab\there"`, pythonQuote("tab\there"))
}

func TestWriteDocBlock(t *testing.T) {
	var sb strings.Builder
	writeDocBlock(&sb, "", "", "  ")
	assert.Empty(t, sb.String())

	writeDocBlock(&sb, "  ", "one */ two")
	assert.Equal(t, "  /** one *\\/ two */\n", sb.String())
}
