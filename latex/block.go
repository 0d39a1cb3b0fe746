package latex

import "strings"

// blockStopFn reports whether the Block Engine's main loop should stop
// before the token at the cursor, mirroring inlineStopFn (§4.5).
type blockStopFn func(*parserState) bool

func stopAtEndEnv(name string) blockStopFn {
	return func(st *parserState) bool {
		return st.atEnd() || st.peekEndEnvIs(name)
	}
}

func (st *parserState) peekEndEnvIs(name string) bool {
	if !st.peek().IsControlSeq("end") {
		return false
	}
	save := st.pos
	st.pos++
	toks, ok := st.braced()
	st.pos = save
	return ok && tokensAsWord(toks) == name
}

// parsePreambleAndBody is the Block Engine's top-level entry (§4.10):
// consume preamble commands (class, packages, macro definitions, meta)
// until `\begin{document}`, then parse the body until `\end{document}` or
// EOF. Content outside any document environment (a common tolerance for
// fragment inputs, e.g. \input'd partial files) is parsed as body too.
func (st *parserState) parsePreambleAndBody(d *Document) Blocks {
	hasDocument := false
	for i := 0; i+3 < len(st.tokens); i++ {
		if st.tokens[i].IsControlSeq("begin") && st.tokens[i+1].Raw == "{" &&
			st.tokens[i+2].Raw == "document" && st.tokens[i+3].Raw == "}" {
			hasDocument = true
			break
		}
	}
	if hasDocument {
		st.parsePreamble()
	}
	if st.peekIsBeginEnv() {
		if name, ok := st.peekEnvName(); ok && name == "document" {
			st.pos++ // \begin
			st.braced()
			body := st.parseBlocks(stopAtEndEnv("document"))
			if st.peekEndEnvIs("document") {
				st.pos++
				st.braced()
			}
			return body
		}
	}
	return st.parseBlocks(stopAtEOF)
}

// parsePreamble consumes everything before \begin{document}: doc class,
// packages, macro definitions, and any meta commands that may legally
// appear before the document body (§4.10).
func (st *parserState) parsePreamble() {
	for !st.atEnd() {
		if st.peekIsBeginEnv() {
			if name, ok := st.peekEnvName(); ok && name == "document" {
				return
			}
		}
		st.tryExpandMacroAtCursor()
		t := st.peek()
		switch t.Kind {
		case TokSpaces, TokNewline, TokComment:
			st.pos++
			continue
		case TokControlSeq:
			if st.tryParsePreambleCommand(t.Name) {
				continue
			}
			if h, ok := blockCommands[t.Name]; ok {
				st.pos++
				h(st, t.Name, t.Pos)
				continue
			}
		}
		// Unknown preamble content: skip one token, it cannot start the
		// document body from here.
		st.pos++
	}
}

// tryParsePreambleCommand handles the small set of commands meaningful
// before \begin{document}: class/package declarations, macro defs, and
// \graphicspath. Returns false if name isn't one of these (caller treats
// it as arbitrary skippable preamble noise).
func (st *parserState) tryParsePreambleCommand(name string) bool {
	switch name {
	case "documentclass", "usepackage", "RequirePackage":
		st.pos++
		st.bracketed()
		st.argValue()
		return true
	case "graphicspath":
		st.pos++
		toks, _ := st.argValue()
		for _, p := range splitGroupList(toks) {
			st.resourcePath = append(st.resourcePath, p)
		}
		return true
	case "newcommand", "renewcommand", "providecommand",
		"newenvironment", "renewenvironment", "provideenvironment",
		"def":
		st.parseMacroDefinition(name)
		return true
	}
	return false
}

// splitGroupList splits a `{a}{b}{c}`-style token sequence (as produced for
// \graphicspath's single argument, itself `{{a/}{b/}}`) into its component
// strings.
func splitGroupList(toks []Token) []string {
	inner := trimBraces(toks)
	var out []string
	i := 0
	for i < len(inner) {
		if isBgroup(inner[i]) {
			depth := 0
			start := i
			for i < len(inner) {
				if isBgroup(inner[i]) {
					depth++
				} else if isEgroup(inner[i]) {
					depth--
					if depth == 0 {
						i++
						break
					}
				}
				i++
			}
			out = append(out, rawText(trimBraces(inner[start:i])))
			continue
		}
		i++
	}
	return out
}

// parseMacroDefinition parses one \newcommand/\def-family invocation and
// installs the macro (§4.3, §4.10). \def with argument specifiers installs
// a Pattern macro; everything else installs FixedArity.
func (st *parserState) parseMacroDefinition(kind string) {
	pos := st.peek().Pos
	st.pos++ // consume the defining command itself

	mode := "new"
	if strings.HasPrefix(kind, "renew") {
		mode = "renew"
	} else if strings.HasPrefix(kind, "provide") {
		mode = "provide"
	}

	if kind == "def" {
		st.parseDefStyle(pos)
		return
	}

	isEnv := strings.Contains(kind, "environment")
	st.skipSpaces()
	var name string
	if isEnv {
		toks, _ := st.argValue()
		name = strings.TrimSpace(rawText(trimBraces(toks)))
	} else {
		if t := st.peek(); t.Kind == TokControlSeq {
			name = t.Name
			st.pos++
		} else {
			toks, _ := st.argValue()
			name = strings.TrimSpace(rawText(trimBraces(toks)))
			name = strings.TrimPrefix(name, `\`)
		}
	}

	arity := 0
	hasDefault := false
	var def []Token
	if toks, ok := st.bracketed(); ok {
		arity = atoiSafe(rawText(toks))
		if dtoks, ok := st.bracketed(); ok {
			hasDefault = true
			def = dtoks
		}
	}

	if mode == "provide" {
		if _, exists := st.macros[name]; exists {
			st.skipBalancedArg()
			if isEnv {
				st.skipBalancedArg()
			}
			return
		}
	}

	if isEnv {
		beginBody, _ := st.argValue()
		endBody, _ := st.argValue()
		st.defineFixedArity(mode, name, arity, hasDefault, def, beginBody, pos)
		st.defineFixedArity(mode, "end"+name, 0, false, nil, endBody, pos)
		return
	}

	body, _ := st.argValue()
	st.defineFixedArity(mode, name, arity, hasDefault, def, body, pos)
}

func (st *parserState) skipBalancedArg() { st.argValue() }

// parseDefStyle parses TeX-primitive \def\name<pattern>{body}, where
// <pattern> is a sequence of naked tokens, #n placeholders, and delimiter
// tokens/control sequences the argument runs up to (§3.2, §4.3).
func (st *parserState) parseDefStyle(pos Position) {
	st.skipSpaces()
	if st.peek().Kind != TokControlSeq {
		return
	}
	name := st.peek().Name
	st.pos++

	var specs []ArgSpec
	for !st.atEnd() && !isBgroup(st.peek()) {
		t := st.peek()
		if t.Kind != TokArg {
			// A delimiter run not immediately following a #n (rare but
			// legal, e.g. a literal prefix before the first #n): skip it.
			// The pattern keeps no record of it, so an invocation neither
			// matches nor consumes that literal text.
			st.pos++
			continue
		}
		st.pos++ // consume #n
		switch {
		case !st.atEnd() && isBgroup(st.peek()):
			specs = append(specs, ArgSpec{Kind: ArgBraced})
		case !st.atEnd() && st.peek().Kind == TokSymbol && st.peek().Raw == "[":
			specs = append(specs, ArgSpec{Kind: ArgBracketed})
		default:
			var delim []Token
			for !st.atEnd() && !isBgroup(st.peek()) && st.peek().Kind != TokArg {
				delim = append(delim, st.peek())
				st.pos++
			}
			if len(delim) == 0 {
				specs = append(specs, ArgSpec{Kind: ArgNaked})
			} else {
				specs = append(specs, ArgSpec{Kind: ArgDelimited, Delim: delim})
			}
		}
	}

	body, _ := st.braced()
	if len(specs) == 0 {
		st.defineFixedArity("new", name, 0, false, nil, body, pos)
		return
	}
	st.definePattern(name, specs, body)
}

func atoiSafe(s string) int {
	s = strings.TrimSpace(s)
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// parseBlocks is the Block Engine's main loop (§4.5): repeatedly dispatch
// on the token at the cursor, accumulating Block nodes, splitting
// paragraphs on blank lines.
func (st *parserState) parseBlocks(stop blockStopFn) Blocks {
	var out Blocks
	for !stop(st) {
		st.skipBlankBlockSeparators()
		if stop(st) {
			break
		}
		n, ok := st.parseOneBlock(stop)
		if ok {
			if n != nil {
				out = append(out, n)
			}
			continue
		}
		if p := st.parseParagraph(stop); p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (st *parserState) skipBlankBlockSeparators() {
	for !st.atEnd() {
		t := st.tokens[st.pos]
		if t.Kind == TokSpaces || t.Kind == TokNewline || t.Kind == TokComment {
			st.pos++
			continue
		}
		break
	}
}

// parseOneBlock recognizes constructs that are unambiguously block-level:
// sectioning, environments, list items (outside a list, tolerated as a
// plain paragraph with no bullet), includes, and meta
// commands. Returns ok=false to fall through to paragraph accumulation.
func (st *parserState) parseOneBlock(stop blockStopFn) (Node, bool) {
	if !st.verbatim {
		st.tryExpandMacroAtCursor()
	}
	t := st.peek()
	if t.Kind != TokControlSeq {
		return nil, false
	}

	if lvl, unnumbered, ok := sectionLevel(t.Name); ok {
		return st.parseSection(t, lvl, unnumbered), true
	}

	if t.IsControlSeq("begin") {
		if name, ok := st.peekEnvName(); ok {
			return st.parseEnvironment(name), true
		}
	}

	if handler, ok := blockCommands[t.Name]; ok {
		st.pos++
		return handler(st, t.Name, t.Pos), true
	}

	if t.Name == "newcommand" || t.Name == "renewcommand" || t.Name == "providecommand" ||
		t.Name == "newenvironment" || t.Name == "renewenvironment" || t.Name == "provideenvironment" ||
		t.Name == "def" {
		st.parseMacroDefinition(t.Name)
		return nil, true
	}

	return nil, false
}

// sectionLevel maps a sectioning command (including its starred,
// unnumbered variant) to its own Header level (§4.5): part=-1, chapter=0,
// section=1, subsection=2, subsubsection=3, paragraph=4, subparagraph=5.
// normalizeHeaderLevels lifts the whole document if the minimum level
// present (e.g. a lone \part) falls below 1.
func sectionLevel(name string) (level int, unnumbered bool, ok bool) {
	base := name
	if strings.HasSuffix(name, "*") {
		base = strings.TrimSuffix(name, "*")
		unnumbered = true
	}
	switch base {
	case "part":
		return -1, unnumbered, true
	case "chapter":
		return 0, unnumbered, true
	case "section":
		return 1, unnumbered, true
	case "subsection":
		return 2, unnumbered, true
	case "subsubsection":
		return 3, unnumbered, true
	case "paragraph":
		return 4, unnumbered, true
	case "subparagraph":
		return 5, unnumbered, true
	}
	return 0, false, false
}

func (st *parserState) parseSection(t Token, level int, unnumbered bool) Node {
	st.pos++
	// The tokenizer emits a trailing `*` as its own symbol token.
	if p := st.peek(); p.Kind == TokSymbol && p.Raw == "*" {
		st.pos++
		unnumbered = true
	}
	st.bracketed() // short-title optional arg, discarded
	toks, _ := st.argValue()
	inlines := st.parseInlinesFrom(groupedTokens(toks))

	id := ""
	save := st.pos
	st.skipBlankBlockSeparators()
	if st.peek().IsControlSeq("label") {
		st.pos++
		if ltoks, ok := st.argValue(); ok {
			id = rawText(trimBraces(ltoks))
		}
	} else {
		st.pos = save
	}
	if id == "" {
		id = slugify(String(inlines...))
	}
	if !unnumbered {
		id = st.registerIdent(id)
	}
	return Header{Level: level, Attr: Attr{ID: id}, Inlines: inlines, Pos: t.Pos}
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// parseParagraph accumulates inline content up to a paragraph break (two+
// consecutive newlines), the next block-starting construct, or stop, and
// wraps it as a Para (§4.5). A Para with no inlines (e.g. just consumed
// comments) collapses to nil.
func (st *parserState) parseParagraph(stop blockStopFn) Node {
	start := st.peek().Pos
	var inlines Inlines
	for !stop(st) && !st.atParagraphBreak() && !st.atBlockStart() {
		n, ok := st.parseOneInline(inlineStopFn(stop))
		if !ok {
			t := st.peek()
			st.pos++
			n = Str{Text: t.Raw, Pos: t.Pos}
		}
		if n != nil {
			inlines = append(inlines, n)
		}
	}
	inlines = trimTrailingSpace(inlines)
	if len(inlines) == 0 {
		return nil
	}
	return Para{Inlines: inlines, Pos: start}
}

func trimTrailingSpace(in Inlines) Inlines {
	for len(in) > 0 {
		switch in[len(in)-1].(type) {
		case Space, SoftBreak:
			in = in[:len(in)-1]
			continue
		}
		break
	}
	for len(in) > 0 {
		switch in[0].(type) {
		case Space, SoftBreak:
			in = in[1:]
			continue
		}
		break
	}
	return in
}

func (st *parserState) atParagraphBreak() bool {
	if st.atEnd() || st.tokens[st.pos].Kind != TokNewline {
		return false
	}
	i := st.pos
	count := 0
	for i < len(st.tokens) && st.tokens[i].Kind == TokNewline {
		count++
		i++
	}
	return count >= 2
}

func (st *parserState) atBlockStart() bool {
	if st.peekIsBeginEnv() || st.peek().IsControlSeq("end") {
		return true
	}
	if st.peek().Kind != TokControlSeq {
		return false
	}
	if _, _, ok := sectionLevel(st.peek().Name); ok {
		return true
	}
	_, isBlockCmd := blockCommands[st.peek().Name]
	return isBlockCmd
}
