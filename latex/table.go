package latex

// hlineNames are the row-separator commands recognized between rows (§4.6):
// they consume an optional trailing `[dim]` and otherwise carry no content.
var hlineNames = map[string]bool{
	"hline": true, "toprule": true, "midrule": true, "bottomrule": true,
	"endhead": true, "endfirsthead": true, "cline": true,
}

func tableEnvHandler(st *parserState, name string, pos Position) Node {
	st.bracketed() // placement spec
	prevCaption, prevHas := st.captionSlot, st.hasCaption
	st.captionSlot, st.hasCaption = nil, false
	blocks := st.parseBlocks(stopAtEndEnv(name))
	cp := captionPending{kind: "table", body: blocks, caption: st.captionSlot, hasCaption: st.hasCaption, pos: pos}
	st.captionSlot, st.hasCaption = prevCaption, prevHas
	return cp
}

// tabularHandler parses one `tabular`-family environment body (§4.6): an
// alignment spec argument, then rows split on `\\`/`\tabularnewline`, cells
// split on `&`, with hline-family tokens recognized as row separators used
// only for header detection.
func tabularHandler(st *parserState, name string, pos Position) Node {
	if name == "tabularx" || name == "tabulary" {
		st.argValue() // total width
	}
	aligns := st.parseAlignSpec()

	start := st.pos
	depth := 0
	for !st.atEnd() {
		if st.peekIsBeginEnv() {
			depth++
		} else if st.peek().IsControlSeq("end") {
			if depth == 0 && st.peekEndEnvIs(name) {
				break
			}
			depth--
		}
		st.pos++
	}
	body := st.tokens[start:st.pos]

	rows, hlineAfterFirst := splitTableRows(body)

	var header []Cell
	bodyRows := make([][]Cell, 0, len(rows))
	for i, row := range rows {
		cells := make([]Cell, 0, len(row))
		for _, cellToks := range row {
			inlines := st.parseInlinesFrom(groupedTokens(cellToks))
			cells = append(cells, Cell{Blocks: Blocks{Plain{Inlines: inlines, Pos: pos}}})
		}
		if i == 0 && hlineAfterFirst {
			header = padCells(cells, len(aligns))
			continue
		}
		bodyRows = append(bodyRows, padCells(cells, len(aligns)))
	}
	if header == nil {
		header = padCells(nil, len(aligns))
	}

	t := Table{Aligns: aligns, Widths: make([]float64, len(aligns)), Header: header, Rows: bodyRows, Pos: pos}
	if st.hasCaption {
		t.Caption = st.captionSlot
		st.captionSlot, st.hasCaption = nil, false
	}
	return t
}

func padCells(cells []Cell, width int) []Cell {
	for len(cells) < width {
		cells = append(cells, Cell{})
	}
	return cells
}

// splitTableRows splits a tabular body into rows of raw cell-token slices,
// honoring brace depth so `\\` inside a `{...}` cell argument doesn't split
// prematurely, and reports whether at least one hline-family separator
// followed the first content row (header detection, §4.6).
func splitTableRows(toks []Token) ([][][]Token, bool) {
	var rows [][][]Token
	var curRow [][]Token
	var curCell []Token
	depth := 0
	hlineAfterFirst := false

	flushCell := func() {
		curRow = append(curRow, curCell)
		curCell = nil
	}
	flushRow := func() {
		flushCell()
		if len(curRow) > 0 && !isBlankRow(curRow) {
			rows = append(rows, curRow)
		}
		curRow = nil
	}

	i := 0
	for i < len(toks) {
		t := toks[i]
		switch {
		case isBgroup(t):
			depth++
			curCell = append(curCell, t)
		case isEgroup(t):
			depth--
			curCell = append(curCell, t)
		case depth == 0 && t.Kind == TokControlSeq && t.Name == `\`:
			flushRow()
		case depth == 0 && t.IsControlSeq("tabularnewline"):
			flushRow()
		case depth == 0 && t.Kind == TokControlSeq && hlineNames[t.Name]:
			i++
			for i < len(toks) && (toks[i].Kind == TokSpaces || toks[i].Kind == TokNewline) {
				i++
			}
			if i < len(toks) && toks[i].Kind == TokSymbol && toks[i].Raw == "[" {
				j := i + 1
				for j < len(toks) && !(toks[j].Kind == TokSymbol && toks[j].Raw == "]") {
					j++
				}
				i = j
			}
			if len(rows) == 1 {
				hlineAfterFirst = true
			}
			i++
			continue
		case depth == 0 && t.Kind == TokSymbol && t.Raw == "&":
			flushCell()
		default:
			curCell = append(curCell, t)
		}
		i++
	}
	if len(curCell) > 0 || len(curRow) > 0 {
		flushRow()
	}
	return rows, hlineAfterFirst
}

func sawContentRowAfterFirst(rows [][][]Token) bool { return len(rows) > 1 }

func isBlankRow(row [][]Token) bool {
	for _, cell := range row {
		if len(trimSpacesSeq(cell)) > 0 {
			return false
		}
	}
	return true
}

// parseAlignSpec reads the `{aligns}` argument and produces the column
// Alignment list (§4.6): c/l/r map directly, most other letters approximate
// to Left, `*{n}{spec}` expands, and `|`, `@{...}`, `>{...}`, `<{...}`, `:`,
// whitespace are discarded separators.
func (st *parserState) parseAlignSpec() []Alignment {
	toks, ok := st.argValue()
	if !ok {
		return nil
	}
	return parseAlignTokens(trimBraces(toks))
}

func parseAlignTokens(toks []Token) []Alignment {
	var out []Alignment
	i := 0
	for i < len(toks) {
		t := toks[i]
		switch {
		case t.Kind == TokSpaces || t.Kind == TokNewline:
			i++
		case t.Kind == TokSymbol && t.Raw == "|":
			i++
		case t.Kind == TokSymbol && t.Raw == ":":
			i++
		case t.Kind == TokSymbol && (t.Raw == "@" || t.Raw == ">" || t.Raw == "<") && i+1 < len(toks) && isBgroup(toks[i+1]):
			i++
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
		case t.Kind == TokWord && t.Raw == "*" || t.Kind == TokSymbol && t.Raw == "*":
			i++
			for i < len(toks) && (toks[i].Kind == TokSpaces) {
				i++
			}
			if i >= len(toks) || !isBgroup(toks[i]) {
				continue
			}
			countToks := captureGroup(toks, &i)
			count := atoiSafe(rawText(countToks))
			for i < len(toks) && toks[i].Kind == TokSpaces {
				i++
			}
			if i >= len(toks) || !isBgroup(toks[i]) {
				continue
			}
			specToks := captureGroup(toks, &i)
			sub := parseAlignTokens(specToks)
			for n := 0; n < count; n++ {
				out = append(out, sub...)
			}
		case t.Kind == TokWord:
			for _, r := range t.Raw {
				out = append(out, alignmentForLetter(r))
			}
			i++
		default:
			i++
		}
	}
	return out
}

func captureGroup(toks []Token, i *int) []Token {
	start := *i + 1
	depth := 0
	j := *i
	for j < len(toks) {
		if isBgroup(toks[j]) {
			depth++
		} else if isEgroup(toks[j]) {
			depth--
			if depth == 0 {
				j++
				break
			}
		}
		j++
	}
	inner := toks[start : j-1]
	*i = j
	return inner
}

func alignmentForLetter(r rune) Alignment {
	switch r {
	case 'c', 'C':
		return AlignCenter
	case 'l', 'L':
		return AlignLeft
	case 'r', 'R':
		return AlignRight
	default:
		return AlignLeft
	}
}
