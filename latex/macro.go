package latex

// maxExpansionDepth bounds nested macro expansion (§4.3, §5, §8 Fixpoint).
const maxExpansionDepth = 20

// ArgSpecKind enumerates a Pattern macro's argument-consumption modes (§3.2).
type ArgSpecKind int

const (
	ArgNaked ArgSpecKind = iota
	ArgBraced
	ArgBracketed
	ArgDelimited
)

// ArgSpec describes how one #n in a \def pattern consumes its argument at
// invocation time (§3.2). ArgDelimited's Delim is the literal token run
// (possibly several tokens, e.g. \def\pair#1,#2.{...} delimits #1 by a
// single "," but could equally delimit by a longer literal sequence) that
// the argument runs up to; it is consumed and discarded.
type ArgSpec struct {
	Kind  ArgSpecKind
	Delim []Token
}

// Macro is either FixedArity or Pattern (§3.2). Exactly one of the two
// shapes is populated; IsPattern distinguishes them.
type Macro struct {
	IsPattern bool

	// FixedArity fields (\newcommand, \def without argspecs, \def-compiled
	// \newenvironment halves).
	Arity         int
	HasDefault    bool
	Default       []Token
	FixedBody     []Token

	// Pattern fields (\def with argument specifiers, §3.2/§4.3).
	Specs       []ArgSpec
	PatternBody []Token
}

// tryExpandMacroAtCursor looks at the head of the stream and, as long as it
// names a macro and we're not in verbatim mode, consumes the invocation,
// gathers its arguments, substitutes them into the replacement body
// (rewriting positions to the invocation site, §9), splices the result
// back at the cursor, and re-checks the new head (§4.3: "prepend to input
// stream and re-run expansion" — expansion continues until the head is no
// longer a macro, i.e. to a fixpoint). Each iteration counts against
// expansionDepth, so a macro that expands to itself (directly or through a
// chain of other macros) hits maxExpansionDepth and panics via
// panicMacroLoop instead of looping forever or under-expanding.
func (st *parserState) tryExpandMacroAtCursor() {
	depthAtEntry := st.expansionDepth
	defer func() { st.expansionDepth = depthAtEntry }()

	for {
		if st.verbatim || !st.opts.Extensions.LatexMacros {
			return
		}
		t := st.peek()
		if t.Kind != TokControlSeq {
			return
		}
		name := t.Name
		if st.peekIsBeginEnv() {
			envName, ok := st.peekEnvName()
			if ok {
				name = envName
			}
		} else if name == "end" {
			if envName, ok := st.peekEnvNameAfter("end"); ok {
				name = "end" + envName
			}
		}
		m, ok := st.macros[name]
		if !ok {
			return
		}

		st.expansionDepth++
		if st.expansionDepth > maxExpansionDepth {
			panicMacroLoop(name, t.Pos)
		}

		invokePos := t.Pos
		start := st.pos
		st.pos++ // consume the \name (or \begin{name}/\end{name} handled below)
		if name != t.Name {
			// \begin{name} or \end{name}: consume the {name} group too.
			st.braced()
		}

		var expansion []Token
		if m.IsPattern {
			expansion = st.expandPattern(m, invokePos)
		} else {
			expansion = st.expandFixedArity(m, invokePos)
		}

		// splice expansion at the cursor, replacing the consumed invocation,
		// then loop back to check whether the new head is itself a macro.
		tail := append([]Token{}, st.tokens[st.pos:]...)
		st.tokens = st.tokens[:start]
		st.tokens = append(st.tokens, expansion...)
		st.tokens = append(st.tokens, tail...)
		st.pos = start
	}
}

func (st *parserState) peekIsBeginEnv() bool {
	return st.peek().IsControlSeq("begin")
}

func (st *parserState) peekEnvName() (string, bool) {
	save := st.pos
	st.pos++ // \begin
	if st.atEnd() || !(st.tokens[st.pos].Kind == TokSymbol && st.tokens[st.pos].Raw == "{") {
		st.pos = save
		return "", false
	}
	toks, ok := st.braced()
	st.pos = save
	if !ok {
		return "", false
	}
	return tokensAsWord(toks), true
}

func (st *parserState) peekEnvNameAfter(ctrl string) (string, bool) {
	save := st.pos
	st.pos++ // \end
	if st.atEnd() || !(st.tokens[st.pos].Kind == TokSymbol && st.tokens[st.pos].Raw == "{") {
		st.pos = save
		return "", false
	}
	toks, ok := st.braced()
	st.pos = save
	if !ok {
		return "", false
	}
	return tokensAsWord(toks), true
}

func tokensAsWord(toks []Token) string {
	var out []byte
	for _, t := range toks {
		out = append(out, t.Raw...)
	}
	return string(out)
}

// expandFixedArity consumes FixedArity's n arguments and substitutes
// Arg(i) placeholders, per §4.3.
func (st *parserState) expandFixedArity(m *Macro, invokePos Position) []Token {
	args := make([][]Token, 0, m.Arity)
	if m.HasDefault {
		if toks, ok := st.bracketed(); ok {
			args = append(args, toks)
		} else {
			args = append(args, m.Default)
		}
		for len(args) < m.Arity {
			toks, _ := st.argValue()
			args = append(args, toks)
		}
	} else {
		for len(args) < m.Arity {
			toks, _ := st.argValue()
			args = append(args, toks)
		}
	}
	return substituteArgs(m.FixedBody, args, invokePos)
}

// expandPattern consumes a Pattern macro's argument specs in order (§3.2,
// §4.3) and substitutes the result.
func (st *parserState) expandPattern(m *Macro, invokePos Position) []Token {
	args := make([][]Token, len(m.Specs))
	for i, spec := range m.Specs {
		switch spec.Kind {
		case ArgBraced:
			toks, _ := st.braced()
			args[i] = toks
		case ArgBracketed:
			toks, _ := st.bracketed()
			args[i] = toks
		case ArgNaked:
			st.skipSpaces()
			if !st.atEnd() {
				t := st.tokens[st.pos]
				st.pos++
				args[i] = []Token{t}
			}
		case ArgDelimited:
			var collected []Token
			for !st.atEnd() && !matchesTokenRun(st.tokens, st.pos, spec.Delim) {
				collected = append(collected, st.tokens[st.pos])
				st.pos++
			}
			if !st.atEnd() {
				st.pos += len(spec.Delim) // consume the delimiter run
			}
			args[i] = collected
		}
	}
	return substituteArgs(m.PatternBody, args, invokePos)
}

// matchesTokenRun reports whether run occurs at toks[at:] (compared by
// kind/name/raw, ignoring position), used to find a \def pattern's literal
// delimiter at the argument-collection cursor (§3.2).
func matchesTokenRun(toks []Token, at int, run []Token) bool {
	if len(run) == 0 || at+len(run) > len(toks) {
		return false
	}
	for i, want := range run {
		got := toks[at+i]
		if got.Kind != want.Kind || got.Name != want.Name || got.Raw != want.Raw {
			return false
		}
	}
	return true
}

// substituteArgs replaces each Arg(i) placeholder in body with args[i-1],
// rewriting every substituted token's position to invokePos (§9: "every
// substituted token inherits the invocation-site position").
func substituteArgs(body []Token, args [][]Token, invokePos Position) []Token {
	var out []Token
	for _, t := range body {
		if t.Kind == TokArg && t.ArgNum >= 1 && t.ArgNum <= len(args) {
			for _, at := range args[t.ArgNum-1] {
				rewritten := at
				rewritten.Pos = invokePos
				out = append(out, rewritten)
			}
			continue
		}
		rewritten := t
		rewritten.Pos = invokePos
		out = append(out, rewritten)
	}
	return out
}

// defineFixedArity installs a FixedArity macro, honoring \newcommand's
// "already defined" check (§4.3) when mode == "new".
func (st *parserState) defineFixedArity(mode, name string, arity int, hasDefault bool, def, body []Token, pos Position) {
	if mode == "new" {
		if _, exists := st.macros[name]; exists {
			st.addError(ErrorTypeMacroAlreadyDefined, "macro already defined: \\"+name, pos, Token{}, nil)
		}
	}
	if !st.opts.Extensions.LatexMacros {
		return
	}
	st.macros[name] = &Macro{Arity: arity, HasDefault: hasDefault, Default: def, FixedBody: body}
}

func (st *parserState) definePattern(name string, specs []ArgSpec, body []Token) {
	if !st.opts.Extensions.LatexMacros {
		return
	}
	st.macros[name] = &Macro{IsPattern: true, Specs: specs, PatternBody: body}
}
