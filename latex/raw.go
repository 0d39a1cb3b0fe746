package latex

// Raw-LaTeX Escape Hatches (§4.9): re-entrant parsers exposed to a host
// reader (e.g. a Markdown or Org parser) that wants to delegate an embedded
// LaTeX fragment to this engine without owning a whole Document. The host
// supplies whatever macros it already knows about; newly learned macros are
// merged into the HostMacros passed in, so a later call in the same host
// parse sees them too.

// HostMacros is the opaque macro-table handle a host threads between
// RawLaTeXBlock/RawLaTeXInline/ApplyMacros calls within one host parse
// (§4.9, §9's "polymorphic parser monad over host state", concretized here
// as an adapter over the core's own macro map).
type HostMacros struct {
	macros map[string]*Macro
}

// NewHostMacros returns an empty macro table for a fresh host parse.
func NewHostMacros() *HostMacros { return &HostMacros{macros: map[string]*Macro{}} }

func (h *HostMacros) state(o *Options) *parserState {
	st := newParserState(o, "")
	if h != nil {
		for k, v := range h.macros {
			st.macros[k] = v
		}
	}
	return st
}

func (h *HostMacros) merge(st *parserState) {
	if h == nil {
		return
	}
	if h.macros == nil {
		h.macros = map[string]*Macro{}
	}
	for k, v := range st.macros {
		if _, exists := h.macros[k]; !exists {
			h.macros[k] = v
		}
	}
}

// RawLaTeXBlock tries to parse one block-level construct (environment,
// macro definition, or block command) at the start of input. On success it
// returns the resulting Node, the number of raw characters consumed from
// input, and true; on failure it returns false and input is untouched.
func RawLaTeXBlock(o *Options, host *HostMacros, input string) (Node, int, bool) {
	st := host.state(o)
	st.tokens = tokenize(input)

	start := st.pos
	n, ok := st.parseOneBlock(stopAtEOF)
	if !ok && !st.atEnd() && st.peek().Kind == TokControlSeq {
		if _, isDef := blockCommands[st.peek().Name]; isDef {
			ok = true
		}
	}
	if !ok || st.pos == start {
		return nil, 0, false
	}
	host.merge(st)
	consumed := rawLen(st.tokens[start:st.pos])
	return n, consumed, true
}

// RawLaTeXInline is RawLaTeXBlock's inline counterpart: one inline command,
// citation, or math span at the start of input.
func RawLaTeXInline(o *Options, host *HostMacros, input string) (Node, int, bool) {
	st := host.state(o)
	st.tokens = tokenize(input)
	if st.atEnd() {
		return nil, 0, false
	}
	if h := st.peek(); h.Kind != TokControlSeq && !(h.Kind == TokSymbol && h.Raw == "$") && !(h.Kind == TokWord && h.Raw == "$$") {
		return nil, 0, false
	}

	start := st.pos
	n, ok := st.parseOneInline(stopAtEOF)
	if !ok || st.pos == start {
		return nil, 0, false
	}
	host.merge(st)
	return n, rawLen(st.tokens[start:st.pos]), true
}

// ApplyMacros tokenizes s, expands macro invocations to fixpoint (bounded
// by maxExpansionDepth, §4.3), and re-emits the resulting token stream as a
// string. A no-op when the latex_macros extension is disabled (§4.9).
func ApplyMacros(o *Options, host *HostMacros, s string) string {
	if !o.Extensions.LatexMacros {
		return s
	}
	st := host.state(o)
	st.tokens = tokenize(s)
	budget := (len(st.tokens) + 1) * maxExpansionDepth
	for !st.atEnd() && budget > 0 {
		budget--
		lenBefore := len(st.tokens)
		st.tryExpandMacroAtCursor()
		if len(st.tokens) == lenBefore {
			st.pos++
		}
	}
	host.merge(st)
	return rawText(st.tokens)
}

func rawLen(toks []Token) int {
	n := 0
	for _, t := range toks {
		n += len([]rune(t.Raw))
	}
	return n
}
