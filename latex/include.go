package latex

import (
	"strings"

	"github.com/texdown/latex/internal/include"
	"github.com/texdown/latex/internal/respath"
)

var includeLoader = include.NewLoader()

// includeExtensions is tried, in order, when a bare \include{chapters/intro}
// target is missing its extension.
var includeExtensions = []string{"", ".tex"}

// includeHandler implements \include/\input/\subfile (§4.5): a
// comma-separated `{files}` argument, each resolved against TEXINPUTS,
// loaded via the include service (deduped, cycle-checked), tokenized, and
// spliced into the live token stream at the cursor so the rest of the
// current parse continues seamlessly into the included material.
func includeHandler(st *parserState, name string, pos Position) Node {
	toks, _ := st.argValue()
	raw := rawText(trimBraces(toks))
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			st.spliceIncludedFile(f, pos)
		}
	}
	return nil
}

func usepackageHandler(st *parserState, name string, pos Position) Node {
	st.bracketed()
	st.argValue()
	return nil
}

// lstinputlistingHandler reads a file as a CodeBlock, honoring `language`
// and `firstline`/`lastline` options (§4.5).
func lstinputlistingHandler(st *parserState, name string, pos Position) Node {
	kvs := parseKeyVals(st)
	toks, _ := st.argValue()
	path := rawText(trimBraces(toks))

	resolved, ok := respath.Resolve(st.searchDirs(), path, includeExtensions)
	if !ok {
		st.log(ErrorTypeCouldNotLoadInclude, "could not locate \\lstinputlisting file: "+path, pos, nil)
		return CodeBlock{Pos: pos}
	}
	data, err := includeLoader.Load(resolved, st.opts.ReadFile)
	if err != nil {
		st.log(ErrorTypeCouldNotLoadInclude, "could not read \\lstinputlisting file: "+path, pos, err)
		return CodeBlock{Pos: pos}
	}
	text := normalizeLineEndings(string(data))
	attr := Attr{}
	firstLine, lastLine := 1, -1
	for _, kv := range kvs {
		switch kv[0] {
		case "language":
			attr.Classes = append(attr.Classes, kv[1])
		case "firstline":
			firstLine = atoiSafe(kv[1])
		case "lastline":
			lastLine = atoiSafe(kv[1])
		default:
			attr.KeyVals = append(attr.KeyVals, kv)
		}
	}
	text = sliceLines(text, firstLine, lastLine)
	return CodeBlock{Attr: attr, Text: text, Pos: pos}
}

func sliceLines(text string, first, last int) string {
	if first <= 1 && last < 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if first < 1 {
		first = 1
	}
	if last < 0 || last > len(lines) {
		last = len(lines)
	}
	if first > len(lines) {
		return ""
	}
	return strings.Join(lines[first-1:last], "\n")
}

// searchDirs combines the reader's configured TexInputs with any
// \graphicspath directories accumulated so far.
func (st *parserState) searchDirs() []string {
	dirs := append([]string{}, st.opts.TexInputs...)
	dirs = append(dirs, st.resourcePath...)
	return dirs
}

// spliceIncludedFile resolves, loads, tokenizes, and splices name's
// contents into the live token stream at the cursor (§4.5, §5). Cycle
// detection uses the parser state's include stack; a cycle or load failure
// degrades to a logged warning rather than aborting the parse, except that
// a detected cycle is surfaced as a ParseError per §7's "delegated to the
// external include service, which returns an error propagated as
// ParseError".
func (st *parserState) spliceIncludedFile(name string, pos Position) {
	resolved, ok := respath.Resolve(st.searchDirs(), name, includeExtensions)
	if !ok {
		st.log(ErrorTypeCouldNotLoadInclude, "could not locate include file: "+name, pos, nil)
		return
	}
	if err := include.CheckCycle(st.includeStackPaths(), resolved); err != nil {
		st.addError(ErrorTypeIncludeCycle, "include cycle", pos, Token{}, err)
		return
	}
	data, err := includeLoader.Load(resolved, st.opts.ReadFile)
	if err != nil {
		st.log(ErrorTypeCouldNotLoadInclude, "could not read include file: "+name, pos, err)
		return
	}

	included := tokenize(normalizeLineEndings(string(data)))

	tail := append([]Token{}, st.tokens[st.pos:]...)
	st.tokens = st.tokens[:st.pos]
	st.tokens = append(st.tokens, included...)
	st.tokens = append(st.tokens, tail...)

	// every currently open frame's content shifted forward by the splice.
	for i := range st.includeFrames {
		st.includeFrames[i].end += len(included)
	}
	st.includeFrames = append(st.includeFrames, includeFrame{path: resolved, end: st.pos + len(included)})
}
