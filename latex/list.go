package latex

import "strings"

// itemizeHandler parses an `itemize` body into a BulletList (§4.5): each
// `\item` starts a new item, consuming blocks up to the next `\item` or
// `\end`.
func itemizeHandler(st *parserState, name string, pos Position) Node {
	items := st.parseItems(name)
	bl := make([]Blocks, len(items))
	for i, it := range items {
		bl[i] = it.body
	}
	return BulletList{Items: bl, Pos: pos}
}

// enumerateHandler honors `[marker]` style overrides per §4.5, producing an
// OrderedList. Start is always 1: `\setcounter` is not consulted.
func enumerateHandler(st *parserState, name string, pos Position) Node {
	items := st.parseItems(name)
	start := 1
	style, delim := Decimal, Period
	for _, it := range items {
		if it.marker != "" {
			style, delim = styleDelimFromMarker(it.marker)
			break
		}
	}
	bl := make([]Blocks, len(items))
	for i, it := range items {
		bl[i] = it.body
	}
	return OrderedList{Start: start, Style: style, Delim: delim, Items: bl, Pos: pos}
}

// styleDelimFromMarker interprets an enumitem-style `[label]` override by
// inspecting the marker's characters: `(` plus `)` gives TwoParens, a
// trailing `)` gives OneParen, anything else Period. The style comes only
// from an \alph, \Alph, \roman or \Roman command in the marker; literal
// labels such as `a.` or `i)` keep the Decimal style.
func styleDelimFromMarker(marker string) (ListNumberStyle, ListNumberDelim) {
	style := Decimal
	delim := Period
	trimmed := strings.Trim(marker, "\\arabicromnalphAI{}")
	if strings.Contains(marker, "(") && strings.Contains(marker, ")") {
		delim = TwoParens
	} else if strings.HasSuffix(marker, ")") {
		delim = OneParen
	}
	switch {
	case strings.Contains(marker, "Alph"):
		style = UpperAlpha
	case strings.Contains(marker, "alph"):
		style = LowerAlpha
	case strings.Contains(marker, "Roman"):
		style = UpperRoman
	case strings.Contains(marker, "roman"):
		style = LowerRoman
	}
	_ = trimmed
	return style, delim
}

// descriptionHandler parses a `description` environment into a
// DefinitionList: term comes from `\item[term]`, body from the following
// blocks (§4.5).
func descriptionHandler(st *parserState, name string, pos Position) Node {
	items := st.parseItems(name)
	out := make([]DefinitionItem, len(items))
	for i, it := range items {
		out[i] = DefinitionItem{Term: it.term, Definition: []Blocks{it.body}}
	}
	return DefinitionList{Items: out, Pos: pos}
}

type listItem struct {
	marker string
	term   Inlines
	body   Blocks
}

// parseItems splits a list environment's body on `\item`, gathering each
// item's optional `[marker-or-term]` and its block content (§4.5). The
// in-list-item flag is set while parsing each item's body.
func (st *parserState) parseItems(envName string) []listItem {
	var items []listItem
	prevInList := st.inListItem
	for !st.atEnd() && !st.peekEndEnvIs(envName) {
		st.skipBlankBlockSeparators()
		if st.atEnd() || st.peekEndEnvIs(envName) {
			break
		}
		if !st.peek().IsControlSeq("item") {
			// stray content before the first \item: skip defensively.
			st.pos++
			continue
		}
		st.pos++
		var marker string
		var term Inlines
		if toks, ok := st.bracketed(); ok {
			marker = rawText(toks)
			term = st.parseInlinesFrom(groupedTokens(toks))
		}
		st.inListItem = true
		body := st.parseBlocks(func(s *parserState) bool {
			return s.atEnd() || s.peekEndEnvIs(envName) || s.peek().IsControlSeq("item")
		})
		st.inListItem = prevInList
		items = append(items, listItem{marker: marker, term: term, body: body})
	}
	return items
}
