package latex

import "strings"

// captionPending is an internal marker node produced by figure/table
// environment handlers (§4.7): its body is fully parsed, but whether a
// `\caption{…}` was seen (and, for figures, a trailing `\label{…}`) is only
// known once the environment closes, and for `table` floats the caption
// command commonly follows the nested `tabular`'s `\end`. The rewriter pass
// resolves every captionPending into its final Div/Table node. It is never
// exposed outside this package's own parse/rewrite cycle.
type captionPending struct {
	kind       string // "figure" or "table"
	body       Blocks
	caption    Inlines
	hasCaption bool
	labelID    string
	pos        Position
}

func (n captionPending) String() string          { return String(n.body...) }
func (n captionPending) Copy() Node              { return n }
func (n captionPending) Range(f func(Node) bool) { rangeChildren(n.body, f) }
func (n captionPending) Position() Position       { return n.pos }

// runRewriters is the Rewriters component (§4.7, §4.8, §4.10): resolve
// every pending figure/table caption marker, then normalize header levels
// so the minimum observed level is ≥ 1.
func runRewriters(st *parserState, d *Document, nodes Blocks) Blocks {
	nodes = transformBlocks(nodes, resolveOneCaptionPending)
	nodes = normalizeHeaderLevels(nodes)
	return nodes
}

// transformBlocks walks blocks post-order (children before parents),
// rebuilding every container type the Block Engine can produce, and
// applies f to each node after its children (if any) have already been
// transformed.
func transformBlocks(blocks Blocks, f func(Node) Node) Blocks {
	if blocks == nil {
		return nil
	}
	out := make(Blocks, len(blocks))
	for i, n := range blocks {
		out[i] = transformOne(n, f)
	}
	return out
}

func transformOne(n Node, f func(Node) Node) Node {
	switch v := n.(type) {
	case captionPending:
		v.body = transformBlocks(v.body, f)
		return f(v)
	case Div:
		v.Blocks = transformBlocks(v.Blocks, f)
		return f(v)
	case BlockQuote:
		v.Blocks = transformBlocks(v.Blocks, f)
		return f(v)
	case BulletList:
		items := make([]Blocks, len(v.Items))
		for i, it := range v.Items {
			items[i] = transformBlocks(it, f)
		}
		v.Items = items
		return f(v)
	case OrderedList:
		items := make([]Blocks, len(v.Items))
		for i, it := range v.Items {
			items[i] = transformBlocks(it, f)
		}
		v.Items = items
		return f(v)
	case DefinitionList:
		items := make([]DefinitionItem, len(v.Items))
		for i, it := range v.Items {
			defs := make([]Blocks, len(it.Definition))
			for j, def := range it.Definition {
				defs[j] = transformBlocks(def, f)
			}
			items[i] = DefinitionItem{Term: it.Term, Definition: defs}
		}
		v.Items = items
		return f(v)
	case Table:
		v.Header = transformCells(v.Header, f)
		rows := make([][]Cell, len(v.Rows))
		for i, row := range v.Rows {
			rows[i] = transformCells(row, f)
		}
		v.Rows = rows
		return f(v)
	default:
		return f(n)
	}
}

func transformCells(cells []Cell, f func(Node) Node) []Cell {
	out := make([]Cell, len(cells))
	for i, c := range cells {
		out[i] = Cell{Blocks: transformBlocks(c.Blocks, f)}
	}
	return out
}

// resolveOneCaptionPending implements the image-rewriter and tikz-rewriter
// of §4.7: given a figure/table body, attach the pending caption (and, for
// figures, the trailing label) to the first Image or tikzpicture RawBlock
// found; for bare `table` floats, attach to the first nested Table instead.
func resolveOneCaptionPending(n Node) Node {
	cp, ok := n.(captionPending)
	if !ok {
		return n
	}
	if !cp.hasCaption {
		if cp.kind == "table" && len(cp.body) == 1 {
			if _, ok := cp.body[0].(Table); ok {
				return cp.body[0]
			}
		}
		return Div{Attr: Attr{Classes: []string{cp.kind}}, Blocks: cp.body, Pos: cp.pos}
	}

	if cp.kind == "table" {
		if body, replaced := replaceFirstTable(cp.body, cp.caption); replaced {
			if len(body) == 1 {
				return body[0]
			}
			return Div{Attr: Attr{Classes: []string{"table-float"}}, Blocks: body, Pos: cp.pos}
		}
		return Div{Attr: Attr{Classes: []string{"table-float"}}, Blocks: append(cp.body, Para{Inlines: cp.caption, Pos: cp.pos}), Pos: cp.pos}
	}

	if body, replaced := replaceFirstImage(cp.body, cp.caption, cp.labelID, cp.pos); replaced {
		if len(body) == 1 {
			return body[0]
		}
		return Div{Attr: Attr{Classes: []string{"figure"}}, Blocks: body, Pos: cp.pos}
	}
	if body, replaced := replaceFirstTikz(cp.body, cp.caption, cp.pos); replaced {
		return Div{Attr: Attr{Classes: []string{"figure"}}, Blocks: body, Pos: cp.pos}
	}
	return Div{Attr: Attr{Classes: []string{"figure"}}, Blocks: append(cp.body, Para{Inlines: cp.caption, Pos: cp.pos}), Pos: cp.pos}
}

// replaceFirstImage finds the first Image inlined anywhere in body (inside
// Para/Plain) whose title doesn't already carry the `fig:` prefix, and
// rewrites its alt text to caption (plus a trailing label Span) and
// prefixes its title with `fig:` (§4.7).
func replaceFirstImage(body Blocks, caption Inlines, labelID string, pos Position) (Blocks, bool) {
	done := false
	out := make(Blocks, len(body))
	for i, b := range body {
		out[i] = b
		if done {
			continue
		}
		switch blk := b.(type) {
		case Para:
			if ins, ok := replaceFirstImageInline(blk.Inlines, caption, labelID, pos); ok {
				out[i] = Para{Inlines: ins, Pos: blk.Pos}
				done = true
			}
		case Plain:
			if ins, ok := replaceFirstImageInline(blk.Inlines, caption, labelID, pos); ok {
				out[i] = Plain{Inlines: ins, Pos: blk.Pos}
				done = true
			}
		}
	}
	return out, done
}

func replaceFirstImageInline(inlines Inlines, caption Inlines, labelID string, pos Position) (Inlines, bool) {
	for i, n := range inlines {
		img, ok := n.(Image)
		if !ok || strings.HasPrefix(img.Title, "fig:") {
			continue
		}
		target := append(Inlines{}, caption...)
		if labelID != "" {
			target = append(target, Span{Attr: Attr{KeyVals: [][2]string{{"data-label", labelID}}}, Pos: pos})
		}
		img.Target = target
		img.Title = "fig:" + img.Title
		out := append(Inlines{}, inlines...)
		out[i] = img
		return out, true
	}
	return inlines, false
}

func replaceFirstTikz(body Blocks, caption Inlines, pos Position) (Blocks, bool) {
	done := false
	out := make(Blocks, len(body))
	for i, b := range body {
		out[i] = b
		if done {
			continue
		}
		if rb, ok := b.(RawBlock); ok && rb.Format == "tikz" {
			out[i] = Div{
				Attr:   Attr{Classes: []string{"tikzpicture"}},
				Blocks: Blocks{rb, Para{Inlines: caption, Pos: pos}},
				Pos:    pos,
			}
			done = true
		}
	}
	return out, done
}

func replaceFirstTable(body Blocks, caption Inlines) (Blocks, bool) {
	done := false
	out := make(Blocks, len(body))
	for i, b := range body {
		out[i] = b
		if done {
			continue
		}
		if t, ok := b.(Table); ok {
			t.Caption = caption
			out[i] = t
			done = true
		}
	}
	return out, done
}

// normalizeHeaderLevels implements §4.10's final adjustment: find the
// minimum Header level present and, if below 1, shift every header by
// `1 - min`.
func normalizeHeaderLevels(nodes Blocks) Blocks {
	min := 0
	found := false
	walkHeaders(nodes, func(h Header) {
		if !found || h.Level < min {
			min = h.Level
			found = true
		}
	})
	if !found || min >= 1 {
		return nodes
	}
	delta := 1 - min
	return transformBlocks(nodes, func(n Node) Node {
		if h, ok := n.(Header); ok {
			h.Level += delta
			return h
		}
		return n
	})
}

func walkHeaders(blocks Blocks, visit func(Header)) {
	for _, b := range blocks {
		switch v := b.(type) {
		case Header:
			visit(v)
		case Div:
			walkHeaders(v.Blocks, visit)
		case BlockQuote:
			walkHeaders(v.Blocks, visit)
		case BulletList:
			for _, it := range v.Items {
				walkHeaders(it, visit)
			}
		case OrderedList:
			for _, it := range v.Items {
				walkHeaders(it, visit)
			}
		case DefinitionList:
			for _, it := range v.Items {
				for _, def := range it.Definition {
					walkHeaders(def, visit)
				}
			}
		case Table:
			for _, c := range v.Header {
				walkHeaders(c.Blocks, visit)
			}
			for _, row := range v.Rows {
				for _, c := range row {
					walkHeaders(c.Blocks, visit)
				}
			}
		}
	}
}
