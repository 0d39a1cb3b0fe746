package latex

// Token Parser Primitives (§4.2): positioned token matchers, grouping,
// look-ahead, and raw-capture, all operating on st.tokens/st.pos. These are
// the re-entrant building blocks every higher-level parser (inline, block,
// table, macro-argument) is built from.

// atEnd reports whether the cursor has exhausted the token stream.
func (st *parserState) atEnd() bool { return st.pos >= len(st.tokens) }

// peek returns the token at the cursor without consuming it, or the zero
// Token with Kind TokEOF if the stream is exhausted.
func (st *parserState) peek() Token {
	if st.atEnd() {
		return Token{Kind: TokEOF}
	}
	return st.tokens[st.pos]
}

// peekAt returns the token n positions ahead of the cursor (0 = peek()).
func (st *parserState) peekAt(n int) Token {
	i := st.pos + n
	if i < 0 || i >= len(st.tokens) {
		return Token{Kind: TokEOF}
	}
	return st.tokens[i]
}

// satisfy consumes the next token if pred holds, then — unless verbatim
// mode is set — attempts macro expansion on the new head of the stream
// (§4.2). Returns the consumed token and true on success.
func (st *parserState) satisfy(pred func(Token) bool) (Token, bool) {
	if st.atEnd() || !pred(st.tokens[st.pos]) {
		return Token{}, false
	}
	t := st.tokens[st.pos]
	st.pos++
	if !st.verbatim {
		st.tryExpandMacroAtCursor()
	}
	return t, true
}

// skipSpaces consumes a run of TokSpaces, if present.
func (st *parserState) skipSpaces() {
	for !st.atEnd() && st.tokens[st.pos].Kind == TokSpaces {
		st.pos++
	}
}

// skipSpacesAndNewlines additionally consumes newline tokens, including
// runs of them that form a paragraph break. No parser in this package
// calls it.
func (st *parserState) skipSpacesAndNewlines() {
	for !st.atEnd() && (st.tokens[st.pos].Kind == TokSpaces || st.tokens[st.pos].Kind == TokNewline) {
		st.pos++
	}
}

func isBgroup(t Token) bool {
	return t.Kind == TokSymbol && t.Raw == "{" ||
		t.IsControlSeq("bgroup") || t.IsControlSeq("begingroup")
}

func isEgroup(t Token) bool {
	return t.Kind == TokSymbol && t.Raw == "}" ||
		t.IsControlSeq("egroup") || t.IsControlSeq("endgroup")
}

// braced consumes a balanced {...} group (also matching \bgroup/\begingroup
// and \egroup/\endgroup per §4.2) and returns the inner token list. Missing
// closing braces are tolerated: an UnexpectedEndOfDocument warning is
// logged and an empty Spaces token is synthesized so callers keep working
// on a well-formed (if short) slice.
func (st *parserState) braced() ([]Token, bool) {
	if st.atEnd() || !isBgroup(st.tokens[st.pos]) {
		return nil, false
	}
	openPos := st.tokens[st.pos].Pos
	st.pos++
	depth := 1
	start := st.pos
	for !st.atEnd() {
		t := st.tokens[st.pos]
		if isBgroup(t) {
			depth++
		} else if isEgroup(t) {
			depth--
			if depth == 0 {
				inner := st.tokens[start:st.pos]
				st.pos++
				if !st.verbatim {
					st.tryExpandMacroAtCursor()
				}
				return inner, true
			}
		}
		st.pos++
	}
	st.addError(ErrorTypeUnexpectedEndOfDoc, "missing closing brace", openPos, Token{}, nil)
	inner := st.tokens[start:st.pos]
	st.tokens = append(st.tokens, Token{Kind: TokSpaces, Raw: "", Pos: openPos})
	return inner, true
}

// bracketed consumes a balanced [...] group and returns the inner tokens.
func (st *parserState) bracketed() ([]Token, bool) {
	if st.atEnd() || !(st.tokens[st.pos].Kind == TokSymbol && st.tokens[st.pos].Raw == "[") {
		return nil, false
	}
	st.pos++
	depth := 1
	start := st.pos
	for !st.atEnd() {
		t := st.tokens[st.pos]
		if t.Kind == TokSymbol && t.Raw == "[" {
			depth++
		} else if t.Kind == TokSymbol && t.Raw == "]" {
			depth--
			if depth == 0 {
				inner := st.tokens[start:st.pos]
				st.pos++
				return inner, true
			}
		}
		st.pos++
	}
	st.pos = start
	return nil, false
}

// groupedTokens reads a brace-delimited sequence and "unwraps" a single
// redundant extra layer, so `{{a,b}}` parses identically to `{a,b}` (§4.2).
func groupedTokens(inner []Token) []Token {
	toks := inner
	for {
		// strip leading/trailing spaces before checking for a single nested group
		trimmed := trimSpacesSeq(toks)
		if len(trimmed) >= 2 && isBgroup(trimmed[0]) && isEgroup(trimmed[len(trimmed)-1]) && matchesOuterGroup(trimmed) {
			toks = trimmed[1 : len(trimmed)-1]
			continue
		}
		break
	}
	return toks
}

func trimSpacesSeq(toks []Token) []Token {
	i, j := 0, len(toks)
	for i < j && (toks[i].Kind == TokSpaces || toks[i].Kind == TokNewline) {
		i++
	}
	for j > i && (toks[j-1].Kind == TokSpaces || toks[j-1].Kind == TokNewline) {
		j--
	}
	return toks[i:j]
}

// matchesOuterGroup reports whether toks[0] (a bgroup) is closed exactly by
// toks[len-1] (its matching egroup), i.e. the whole slice is one group.
func matchesOuterGroup(toks []Token) bool {
	depth := 0
	for i, t := range toks {
		if isBgroup(t) {
			depth++
		} else if isEgroup(t) {
			depth--
			if depth == 0 {
				return i == len(toks)-1
			}
		}
	}
	return false
}

// withRaw runs fn (which must advance st.pos) and returns the literal
// tokens it consumed alongside fn's result.
func withRaw[T any](st *parserState, fn func() T) ([]Token, T) {
	start := st.pos
	result := fn()
	return st.tokens[start:st.pos], result
}

// argValue consumes one macro/command argument: optional spaces, then
// either a braced group or a single token (§4.3: "spaces + (braced-or-
// single-token)").
func (st *parserState) argValue() ([]Token, bool) {
	st.skipSpaces()
	if toks, ok := st.braced(); ok {
		return toks, true
	}
	if st.atEnd() {
		return nil, false
	}
	t := st.tokens[st.pos]
	st.pos++
	return []Token{t}, true
}
