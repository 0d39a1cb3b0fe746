package latex

import "strings"

// inlineStopFn reports whether the inline parser should stop before the
// token at the cursor.
type inlineStopFn func(*parserState) bool

func stopAtEOF(st *parserState) bool { return st.atEnd() }

// stopAtEgroupOrEOF stops before an unconsumed closing brace or at EOF, for
// parsing inline material directly out of the live stream. No parser in this
// package calls it: argument groups and table cells are first extracted into
// their own token slices (via braced() or the `&`/`\\` splitter), where plain
// stopAtEOF suffices.
func stopAtEgroupOrEOF(st *parserState) bool {
	return st.atEnd() || isEgroup(st.peek())
}

// parseInlines is the Inline Engine's main loop (§4.4): repeatedly dispatch
// on the token at the cursor until stop holds, accumulating Str/Space/...
// nodes. It operates over whatever st.tokens/st.pos currently denote, so
// callers first swap in a sub-slice via withTokenSlice.
func (st *parserState) parseInlines(stop inlineStopFn) Inlines {
	var out Inlines
	for !stop(st) {
		n, ok := st.parseOneInline(stop)
		if ok {
			if n != nil {
				out = append(out, n)
			}
			continue
		}
		// No dispatch matched: treat as raw one-token skip to guarantee
		// forward progress (mirrors go-org's fallback path in parseOne).
		t := st.peek()
		st.pos++
		out = append(out, Str{Text: t.Raw, Pos: t.Pos})
	}
	return out
}

// withTokenSlice temporarily points st at toks (a macro body, a braced
// argument's contents, a cell's contents, …), runs fn, and restores the
// previous tokens/cursor. This is how re-entrant sub-parsing over an
// already-extracted token slice is implemented without a full parserState
// clone — safe because the cooperative, single-threaded model (§5) never
// interleaves two such sub-parses.
func (st *parserState) withTokenSlice(toks []Token, fn func()) {
	savedToks, savedPos := st.tokens, st.pos
	st.tokens, st.pos = toks, 0
	fn()
	st.tokens, st.pos = savedToks, savedPos
}

func (st *parserState) parseInlinesFrom(toks []Token) Inlines {
	var out Inlines
	st.withTokenSlice(toks, func() {
		out = st.parseInlines(stopAtEOF)
	})
	return out
}

// parseOneInline dispatches on the current token, §4.4's table.
func (st *parserState) parseOneInline(stop inlineStopFn) (Node, bool) {
	if !st.verbatim {
		st.tryExpandMacroAtCursor()
	}
	t := st.peek()
	switch t.Kind {
	case TokWord:
		if t.Raw == "$$" {
			// the tokenizer emits `$$` as one word token: display math.
			st.pos++
			start := st.pos
			for !st.atEnd() && !(st.tokens[st.pos].Kind == TokWord && st.tokens[st.pos].Raw == "$$") {
				st.pos++
			}
			content := rawText(st.tokens[start:st.pos])
			if !st.atEnd() {
				st.pos++
			}
			return Math{Kind: DisplayMath, Text: strings.TrimSpace(content), Pos: t.Pos}, true
		}
		st.pos++
		if !st.verbatim {
			st.tryExpandMacroAtCursor()
		}
		return Str{Text: t.Raw, Pos: t.Pos}, true
	case TokSpaces:
		st.pos++
		return Space{Pos: t.Pos}, true
	case TokNewline:
		return st.parseNewlineInline(), true
	case TokComment:
		st.pos++
		return nil, true
	case TokEsc1, TokEsc2:
		st.pos++
		return Str{Text: string(decodeEsc(t)), Pos: t.Pos}, true
	case TokArg:
		st.pos++
		return Str{Text: t.Raw, Pos: t.Pos}, true
	case TokSymbol:
		return st.parseSymbolInline(t)
	case TokControlSeq:
		return st.parseControlSeqInline(t)
	}
	return nil, false
}

func (st *parserState) parseNewlineInline() Node {
	start := st.pos
	for !st.atEnd() && st.tokens[st.pos].Kind == TokNewline {
		st.pos++
	}
	if st.pos-start >= 2 {
		return nil // paragraph break: caller (block engine) splits on this
	}
	return SoftBreak{Pos: st.tokens[start].Pos}
}

func (st *parserState) parseSymbolInline(t Token) (Node, bool) {
	switch t.Raw {
	case "-":
		return st.parseDashes(t), true
	case "~":
		st.pos++
		return Str{Text: " ", Pos: t.Pos}, true
	case "`", "'", `"`, "“", "”", "‘", "’":
		return st.parseQuote(t)
	case "$":
		return st.parseMathDollar(t), true
	case "|":
		if st.opts.Extensions.LiterateHaskell {
			return st.parseLiterateHaskellVerbatim(t), true
		}
	case "{", "}", "[", "]":
		// unmatched braces/brackets reaching the inline layer: emit literally
		// and log per §7 ParsingUnescaped.
		st.pos++
		st.log(ErrorTypeParsingUnescaped, "stray "+t.Raw+" treated literally", t.Pos, nil)
		return Str{Text: t.Raw, Pos: t.Pos}, true
	}
	st.pos++
	return Str{Text: t.Raw, Pos: t.Pos}, true
}

// parseDashes collapses runs of '-' into en/em dashes (§4.4).
func (st *parserState) parseDashes(first Token) Node {
	start := st.pos
	count := 0
	for !st.atEnd() && st.tokens[st.pos].Kind == TokSymbol && st.tokens[st.pos].Raw == "-" {
		count++
		st.pos++
	}
	pos := first.Pos
	pos.EndColumn = st.tokens[st.pos-1].Pos.EndColumn
	switch {
	case count >= 3:
		return Str{Text: "—", Pos: pos} // em-dash
	case count == 2:
		return Str{Text: "–", Pos: pos} // en-dash
	default:
		_ = start
		return Str{Text: "-", Pos: pos}
	}
}

func (st *parserState) parseMathDollar(t Token) Node {
	st.pos++
	display := false
	if !st.atEnd() && st.tokens[st.pos].Kind == TokSymbol && st.tokens[st.pos].Raw == "$" {
		display = true
		st.pos++
	}
	start := st.pos
	for !st.atEnd() {
		cur := st.tokens[st.pos]
		if cur.Kind == TokSymbol && cur.Raw == "$" {
			if display {
				if st.peekAt(1).Kind == TokSymbol && st.peekAt(1).Raw == "$" {
					content := rawText(st.tokens[start:st.pos])
					st.pos += 2
					return Math{Kind: DisplayMath, Text: strings.TrimSpace(content), Pos: t.Pos}
				}
				st.pos++
				continue
			}
			content := rawText(st.tokens[start:st.pos])
			st.pos++
			return Math{Kind: InlineMath, Text: strings.TrimSpace(content), Pos: t.Pos}
		}
		st.pos++
	}
	content := rawText(st.tokens[start:st.pos])
	kind := InlineMath
	if display {
		kind = DisplayMath
	}
	return Math{Kind: kind, Text: strings.TrimSpace(content), Pos: t.Pos}
}

func (st *parserState) parseLiterateHaskellVerbatim(t Token) Node {
	st.pos++
	start := st.pos
	for !st.atEnd() && !(st.tokens[st.pos].Kind == TokSymbol && st.tokens[st.pos].Raw == "|") {
		st.pos++
	}
	content := rawText(st.tokens[start:st.pos])
	if !st.atEnd() {
		st.pos++
	}
	return Code{Text: content, Pos: t.Pos}
}

// parseQuote implements §4.4's quote-context state machine: `` ` `` `'`
// open/close single, `` `` `` / `''` / `"` open/close double. When smart is
// disabled the raw marker passes through as a literal string.
func (st *parserState) parseQuote(t Token) (Node, bool) {
	if !st.opts.Extensions.Smart {
		st.pos++
		return Str{Text: t.Raw, Pos: t.Pos}, true
	}
	switch t.Raw {
	case "`", "‘":
		if t.Raw == "`" && st.peekAt(1).Kind == TokSymbol && st.peekAt(1).Raw == "`" {
			st.pos += 2
			st.quote = quoteInDouble
			return Str{Text: "“", Pos: t.Pos}, true
		}
		st.pos++
		st.quote = quoteInSingle
		return Str{Text: "‘", Pos: t.Pos}, true
	case "'", "’":
		if t.Raw == "'" && st.peekAt(1).Kind == TokSymbol && st.peekAt(1).Raw == "'" {
			st.pos += 2
			st.quote = quoteNone
			return Str{Text: "”", Pos: t.Pos}, true
		}
		// apostrophe heuristic: a closing ' must not be followed by a letter.
		next := st.peekAt(1)
		if st.quote == quoteInSingle && !(next.Kind == TokWord) {
			st.pos++
			st.quote = quoteNone
			return Str{Text: "’", Pos: t.Pos}, true
		}
		st.pos++
		return Str{Text: "’", Pos: t.Pos}, true
	case `"`, "“":
		st.pos++
		if st.quote == quoteInDouble {
			st.quote = quoteNone
			return Str{Text: "”", Pos: t.Pos}, true
		}
		st.quote = quoteInDouble
		return Str{Text: "“", Pos: t.Pos}, true
	case "”":
		st.pos++
		st.quote = quoteNone
		return Str{Text: "”", Pos: t.Pos}, true
	}
	st.pos++
	return Str{Text: t.Raw, Pos: t.Pos}, true
}

// accentTable maps an accent command name to a table from base rune to
// accented rune (§4.4). Commands covered: `` ` '' ^ ~ " . = c v u H.
var accentTable = map[string]map[rune]rune{
	"`": {'a': 'à', 'e': 'è', 'i': 'ì', 'o': 'ò', 'u': 'ù', 'A': 'À', 'E': 'È'},
	"'": {'a': 'á', 'e': 'é', 'i': 'í', 'o': 'ó', 'u': 'ú', 'A': 'Á', 'E': 'É', 'y': 'ý'},
	"^": {'a': 'â', 'e': 'ê', 'i': 'î', 'o': 'ô', 'u': 'û', 'A': 'Â', 'E': 'Ê'},
	"~": {'a': 'ã', 'n': 'ñ', 'o': 'õ', 'A': 'Ã', 'N': 'Ñ'},
	`"`: {'a': 'ä', 'e': 'ë', 'i': 'ï', 'o': 'ö', 'u': 'ü', 'A': 'Ä', 'O': 'Ö', 'U': 'Ü'},
	".": {'z': 'ż', 'Z': 'Ż'},
	"=": {'a': 'ā', 'e': 'ē', 'o': 'ō', 'u': 'ū'},
	"c": {'c': 'ç', 'C': 'Ç'},
	"v": {'c': 'č', 's': 'š', 'z': 'ž', 'C': 'Č', 'S': 'Š'},
	"u": {'a': 'ă', 'g': 'ğ'},
	"H": {'o': 'ő', 'u': 'ű'},
}

// applyAccent applies accentTable[cmd] to the first rune of inlines[0] if
// it is a Str; otherwise returns inlines unchanged (§4.4). A missing
// bracketed/braced argument falls back to the accent command's name as a
// literal character (§9 Open Question, preserved as-is).
func applyAccent(cmd string, arg Inlines, pos Position) Inlines {
	table, known := accentTable[cmd]
	if !known {
		return arg
	}
	if len(arg) == 0 {
		return Inlines{Str{Text: cmd, Pos: pos}}
	}
	if s, ok := arg[0].(Str); ok && len(s.Text) > 0 {
		r := []rune(s.Text)
		if mapped, ok := table[r[0]]; ok {
			r[0] = mapped
			rest := append(Inlines{Str{Text: string(r), Pos: s.Pos}}, arg[1:]...)
			return rest
		}
	}
	return arg
}

// inlineHandler is the dispatch entry for a control sequence in the Inline
// Engine's command table (§4.4, §6, §9 "dispatch by exact name, then
// name-without-star as fallback, then unknown path").
type inlineHandler func(st *parserState, name string, pos Position) (Node, bool)

func argAsInlines(st *parserState) Inlines {
	toks, ok := st.argValue()
	if !ok {
		return nil
	}
	return st.parseInlinesFrom(groupedTokens(toks))
}

func bracedArgTokens(st *parserState) ([]Token, bool) {
	st.skipSpaces()
	return st.braced()
}

func simpleWrap(kind func(Inlines, Position) Node) inlineHandler {
	return func(st *parserState, name string, pos Position) (Node, bool) {
		return kind(argAsInlines(st), pos), true
	}
}

func accentHandler(cmd string) inlineHandler {
	return func(st *parserState, name string, pos Position) (Node, bool) {
		toks, ok := bracedArgTokens(st)
		var arg Inlines
		if ok {
			arg = st.parseInlinesFrom(groupedTokens(toks))
		} else if !st.atEnd() && st.tokens[st.pos].Kind == TokWord {
			t := st.tokens[st.pos]
			st.pos++
			arg = Inlines{Str{Text: t.Raw, Pos: t.Pos}}
		}
		return Span{Inlines: applyAccent(cmd, arg, pos), Pos: pos}, true
	}
}

func skipOpts(st *parserState) { st.bracketed() }

func parseKeyVals(st *parserState) [][2]string {
	toks, ok := st.bracketed()
	if !ok {
		return nil
	}
	var kvs [][2]string
	i := 0
	for i < len(toks) {
		for i < len(toks) && (toks[i].Kind == TokSpaces || (toks[i].Kind == TokSymbol && toks[i].Raw == ",")) {
			i++
		}
		keyStart := i
		for i < len(toks) && !(toks[i].Kind == TokSymbol && (toks[i].Raw == "=" || toks[i].Raw == ",")) {
			i++
		}
		key := strings.TrimSpace(rawText(toks[keyStart:i]))
		if key == "" {
			break
		}
		var val string
		if i < len(toks) && toks[i].Kind == TokSymbol && toks[i].Raw == "=" {
			i++
			valStart := i
			if i < len(toks) && isBgroup(toks[i]) {
				depth := 0
				for i < len(toks) {
					if isBgroup(toks[i]) {
						depth++
					} else if isEgroup(toks[i]) {
						depth--
						if depth == 0 {
							i++
							break
						}
					}
					i++
				}
				val = strings.TrimSpace(rawText(trimBraces(toks[valStart:i])))
			} else {
				for i < len(toks) && !(toks[i].Kind == TokSymbol && toks[i].Raw == ",") {
					i++
				}
				val = strings.TrimSpace(rawText(toks[valStart:i]))
			}
		}
		kvs = append(kvs, [2]string{key, val})
	}
	return kvs
}

func trimBraces(toks []Token) []Token {
	if len(toks) >= 2 && isBgroup(toks[0]) && isEgroup(toks[len(toks)-1]) {
		return toks[1 : len(toks)-1]
	}
	return toks
}

var inlineCommands map[string]inlineHandler

func init() {
	inlineCommands = map[string]inlineHandler{
	"emph":         simpleWrap(func(in Inlines, pos Position) Node { return Emph{Inlines: in, Pos: pos} }),
	"textit":        simpleWrap(func(in Inlines, pos Position) Node { return Emph{Inlines: in, Pos: pos} }),
	"textsl":        simpleWrap(func(in Inlines, pos Position) Node { return Emph{Inlines: in, Pos: pos} }),
	"textbf":        simpleWrap(func(in Inlines, pos Position) Node { return Strong{Inlines: in, Pos: pos} }),
	"textsc":        simpleWrap(func(in Inlines, pos Position) Node { return Smallcaps{Inlines: in, Pos: pos} }),
	"textsf":        simpleWrap(func(in Inlines, pos Position) Node { return Span{Inlines: in, Pos: pos, Attr: Attr{Classes: []string{"sans"}}} }),
	"texttt":        simpleWrap(func(in Inlines, pos Position) Node { return Code{Text: String(in...), Pos: pos} }),
	"textsuperscript": simpleWrap(func(in Inlines, pos Position) Node { return Superscript{Inlines: in, Pos: pos} }),
	"textsubscript":   simpleWrap(func(in Inlines, pos Position) Node { return Subscript{Inlines: in, Pos: pos} }),
	"sout":          simpleWrap(func(in Inlines, pos Position) Node { return Strikeout{Inlines: in, Pos: pos} }),
	"text":          simpleWrap(func(in Inlines, pos Position) Node { return Span{Inlines: in, Pos: pos} }),
	"ensuremath":     inlineMathWrap(InlineMath),
	"xspace": func(st *parserState, name string, pos Position) (Node, bool) {
		return Space{Pos: pos}, true
	},
	"ldots": func(st *parserState, name string, pos Position) (Node, bool) {
		return Str{Text: "…", Pos: pos}, true
	},
	"dots": func(st *parserState, name string, pos Position) (Node, bool) {
		return Str{Text: "…", Pos: pos}, true
	},
	"url":          urlHandler,
	"href":         hrefHandler,
	"includegraphics": includeGraphicsHandler,
	"footnote":     footnoteHandler,
	"thanks":       footnoteHandler,
	"label":        labelInlineHandler,
	"ref":          refHandler,
	"cref":         refHandler,
	"Cref":         refHandler,
	"enquote":      enquoteHandler,
	"color":        func(st *parserState, name string, pos Position) (Node, bool) { st.argValue(); return nil, true },
	"textcolor": func(st *parserState, name string, pos Position) (Node, bool) {
		st.argValue()
		return Span{Inlines: argAsInlines(st), Pos: pos}, true
	},
	"colorbox": func(st *parserState, name string, pos Position) (Node, bool) {
		st.argValue()
		return Span{Inlines: argAsInlines(st), Pos: pos}, true
	},
	"SI": siHandler,
	"multirow": func(st *parserState, name string, pos Position) (Node, bool) {
		st.argValue()
		st.argValue()
		return Span{Inlines: argAsInlines(st), Pos: pos}, true
	},
	"verb":      verbHandler,
	"lstinline": verbHandler,
	}
}

func init() {
	for cmd := range accentTable {
		inlineCommands[cmd] = accentHandler(cmd)
	}
}

func inlineMathWrap(kind MathType) inlineHandler {
	return func(st *parserState, name string, pos Position) (Node, bool) {
		toks, _ := bracedArgTokens(st)
		return Math{Kind: kind, Text: strings.TrimSpace(rawText(toks)), Pos: pos}, true
	}
}

func urlHandler(st *parserState, name string, pos Position) (Node, bool) {
	toks, _ := st.argValue()
	url := rawText(trimBraces(toks))
	return Link{Target: Inlines{Str{Text: url, Pos: pos}}, URL: url, Pos: pos}, true
}

func hrefHandler(st *parserState, name string, pos Position) (Node, bool) {
	skipOpts(st)
	toks, _ := st.argValue()
	url := rawText(trimBraces(toks))
	desc := argAsInlines(st)
	return Link{Target: desc, URL: url, Pos: pos}, true
}

func includeGraphicsHandler(st *parserState, name string, pos Position) (Node, bool) {
	kvs := parseKeyVals(st)
	toks, _ := st.argValue()
	path := rawText(trimBraces(toks))
	if st.opts.DefaultImageExtension != "" && !strings.Contains(lastPathSegment(path), ".") {
		path += st.opts.DefaultImageExtension
	}
	path = resolveAgainstResourcePath(st, path)
	attr := Attr{}
	for _, kv := range kvs {
		attr.KeyVals = append(attr.KeyVals, [2]string(kv))
	}
	return Image{URL: path, Attr: attr, Pos: pos}, true
}

func lastPathSegment(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

func resolveAgainstResourcePath(st *parserState, path string) string {
	if strings.Contains(path, "/") || len(st.resourcePath) == 0 {
		return path
	}
	return path
}

func footnoteHandler(st *parserState, name string, pos Position) (Node, bool) {
	toks, _ := st.argValue()
	inner := st.parseInlinesFrom(groupedTokens(toks))
	return Note{Content: Blocks{Para{Inlines: inner, Pos: pos}}, Pos: pos}, true
}

func labelInlineHandler(st *parserState, name string, pos Position) (Node, bool) {
	toks, _ := st.argValue()
	id := rawText(trimBraces(toks))
	st.registerIdent(id)
	return Span{Attr: Attr{ID: id}, Pos: pos}, true
}

func refHandler(st *parserState, name string, pos Position) (Node, bool) {
	toks, _ := st.argValue()
	id := rawText(trimBraces(toks))
	return Link{URL: "#" + id, Target: Inlines{Str{Text: id, Pos: pos}}, Pos: pos}, true
}

func enquoteHandler(st *parserState, name string, pos Position) (Node, bool) {
	in := argAsInlines(st)
	if !st.opts.Extensions.Smart {
		return Span{Inlines: append(Inlines{Str{Text: "\""}}, append(in, Str{Text: "\""})...), Pos: pos}, true
	}
	quoted := append(Inlines{Str{Text: "“", Pos: pos}}, in...)
	quoted = append(quoted, Str{Text: "”", Pos: pos})
	return Span{Inlines: quoted, Pos: pos}, true
}

func siHandler(st *parserState, name string, pos Position) (Node, bool) {
	vtoks, _ := st.argValue()
	utoks, _ := st.argValue()
	value := rawText(trimBraces(vtoks))
	unit := rawText(trimBraces(utoks))
	return Str{Text: value + " " + unit, Pos: pos}, true
}

func verbHandler(st *parserState, name string, pos Position) (Node, bool) {
	// \verb|...| / \lstinline|...| : next symbol is the delimiter, content
	// runs until the same symbol repeats, verbatim (no macro expansion).
	if st.atEnd() {
		return Code{Pos: pos}, true
	}
	delim := st.tokens[st.pos]
	st.pos++
	start := st.pos
	for !st.atEnd() && !(st.tokens[st.pos].Kind == delim.Kind && st.tokens[st.pos].Raw == delim.Raw) {
		st.pos++
	}
	content := rawText(st.tokens[start:st.pos])
	if !st.atEnd() {
		st.pos++
	}
	return Code{Text: content, Pos: pos}, true
}

// parseControlSeqInline is the Inline Engine's command dispatch (§4.4):
// citations first (their own family of names), then the lookup table, then
// raw-passthrough or SkippedContent for unknown names.
func (st *parserState) parseControlSeqInline(t Token) (Node, bool) {
	if isCitationCommand(t.Name) {
		raw, n := withRaw(st, func() Node {
			st.pos++
			return st.parseCitation(t.Name, t.Pos)
		})
		if c, ok := n.(Cite); ok {
			c.Fallback = Inlines{RawInline{Format: "latex", Text: rawText(raw), Pos: t.Pos}}
			n = c
		}
		return n, true
	}
	if t.Name == "(" {
		return st.parseMathParen(t), true
	}
	if t.Name == "[" {
		// `\[` ... `\]` display math.
		st.pos++
		start := st.pos
		for !st.atEnd() && !st.tokens[st.pos].IsControlSeq("]") {
			st.pos++
		}
		content := rawText(st.tokens[start:st.pos])
		if !st.atEnd() {
			st.pos++
		}
		return Math{Kind: DisplayMath, Text: strings.TrimSpace(content), Pos: t.Pos}, true
	}
	if handler, ok := inlineCommands[t.Name]; ok {
		st.pos++
		return handler(st, t.Name, t.Pos)
	}
	// try without a trailing star, §9 dispatch fallback
	if strings.HasSuffix(t.Name, "*") {
		base := strings.TrimSuffix(t.Name, "*")
		if handler, ok := inlineCommands[base]; ok {
			st.pos++
			return handler(st, base, t.Pos)
		}
	}
	st.pos++
	if st.opts.Extensions.RawTeX && looksInlineSafe(t.Name) {
		raw := t.Raw
		// swallow one argument group, if present, into the raw text so the
		// passthrough is self-contained.
		if toks, ok := bracedArgTokens(st); ok {
			raw += "{" + rawText(toks) + "}"
		}
		return RawInline{Format: "latex", Text: raw, Pos: t.Pos}, true
	}
	st.log(ErrorTypeSkippedContent, "skipped unknown command \\"+t.Name, t.Pos, nil)
	return nil, true
}

func (st *parserState) parseMathParen(t Token) Node {
	// `\(` ... `\)` inline math (§4.4).
	st.pos++
	start := st.pos
	for !st.atEnd() && !st.tokens[st.pos].IsControlSeq(")") {
		st.pos++
	}
	content := rawText(st.tokens[start:st.pos])
	if !st.atEnd() {
		st.pos++
	}
	return Math{Kind: InlineMath, Text: strings.TrimSpace(content), Pos: t.Pos}
}

// looksInlineSafe is a conservative heuristic for which unknown commands
// are safe to mirror as RawInline under raw_tex (§4.4): any non-empty name
// made only of ASCII letters and `@`. Length is not limited and block-only
// command names are not excluded.
func looksInlineSafe(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '@' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
