package latex

import "strings"

// envHandler parses one environment's body (the cursor sits just after
// `\begin{name}` has been consumed) and returns the resulting Node. The
// caller consumes the matching `\end{name}`.
type envHandler func(st *parserState, name string, pos Position) Node

// environmentCommands is the Block Engine's environment dispatch table
// (§4.5, §6). Unknown names fall through to genericEnvironment.
var environmentCommands map[string]envHandler

func init() {
	environmentCommands = map[string]envHandler{
	"document":func(st *parserState, name string, pos Position) Node {
		return blocksToDiv(st.parseBlocks(stopAtEndEnv(name)), Attr{}, pos)
	},
	"abstract": func(st *parserState, name string, pos Position) Node {
		st.meta.Abstract = st.parseBlocks(stopAtEndEnv(name))
		return nil
	},
	"letter":   genericDiv(""),
	"center":   genericDiv("center"),
	"minipage": minipageHandler,
	"quote":      blockQuoteHandler,
	"quotation":  blockQuoteHandler,
	"verse":      blockQuoteHandler,
	"figure":     figureHandler,
	"figure*":    figureHandler,
	"wrapfigure": figureHandler,
	"subfigure":  figureHandler,
	"figwindow":  figureHandler,
	"table":      tableEnvHandler,
	"table*":     tableEnvHandler,
	"tabular":       tabularHandler,
	"tabular*":      tabularHandler,
	"tabularx":      tabularHandler,
	"tabu":          tabularHandler,
	"tabulary":      tabularHandler,
	"TAB":           tabularHandler,
	"longtable":     tabularHandler,
	"adjustbox":     genericDiv(""),
	"itemize":       itemizeHandler,
	"enumerate":     enumerateHandler,
	"description":   descriptionHandler,
	"alltt":         verbatimHandler,
	"verbatim":      verbatimHandler,
	"Verbatim":      verbatimHandler,
	"BVerbatim":     verbatimHandler,
	"lstlisting":    codeEnvHandler,
	"minted":        codeEnvHandler,
	"comment":       commentEnvHandler,
	"code":          codeEnvHandler,
	"obeylines":     genericDiv(""),
	"CJK":           genericDiv(""),
	"CJK*":          genericDiv(""),
	"displaymath":   mathEnvHandler,
	"equation":      mathEnvHandler,
	"equation*":     mathEnvHandler,
	"gather":        mathEnvHandler,
	"gather*":       mathEnvHandler,
	"multline":      mathEnvHandler,
	"multline*":     mathEnvHandler,
	"eqnarray":      mathEnvHandler,
	"eqnarray*":     mathEnvHandler,
	"align":         mathEnvHandler,
	"align*":        mathEnvHandler,
	"alignat":       mathEnvHandler,
	"alignat*":      mathEnvHandler,
	"empheq":        mathEnvHandler,
	"flalign":       mathEnvHandler,
	"flalign*":      mathEnvHandler,
	"proof":         genericDiv("proof"),
	"algorithm":     genericDiv("algorithm"),
	"tikzpicture":   tikzHandler,
	"icmlauthorlist": icmlAuthorListHandler,
	"thebibliography": thebibliographyHandler,
	"IEEEbiography":   genericDiv("biography"),
	}
}

// parseEnvironment consumes `\begin{name}` (the cursor sits on it), looks up
// the dispatch table, runs the handler, and consumes the matching
// `\end{name}`, logging UnexpectedEndOfDocument if it's missing at EOF
// (§4.5, §7).
func (st *parserState) parseEnvironment(name string) Node {
	beginPos := st.peek().Pos
	st.pos++ // \begin
	st.braced()

	handler, ok := environmentCommands[name]
	if !ok {
		n := st.genericEnvironment(name, beginPos)
		st.consumeEndEnv(name, beginPos)
		return n
	}
	n := handler(st, name, beginPos)
	st.consumeEndEnv(name, beginPos)
	return n
}

func (st *parserState) consumeEndEnv(name string, beginPos Position) {
	if st.peekEndEnvIs(name) {
		st.pos++
		st.braced()
		return
	}
	st.log(ErrorTypeUnexpectedEndOfDoc, "missing \\end{"+name+"}", beginPos, nil)
}

// genericEnvironment is §4.5's passthrough fallback for unrecognized
// environment names: parsed as blocks, wrapped raw under raw_tex.
func (st *parserState) genericEnvironment(name string, pos Position) Node {
	start := st.pos
	blocks := st.parseBlocks(stopAtEndEnv(name))
	if st.opts.Extensions.RawTeX {
		raw := "\\begin{" + name + "}" + rawText(st.tokens[start:st.pos])
		if st.peekEndEnvIs(name) {
			raw += "\\end{" + name + "}"
		}
		return RawBlock{Format: "latex", Text: raw, Pos: pos}
	}
	st.log(ErrorTypeSkippedContent, "unknown environment \\"+name+" (inner content kept)", pos, nil)
	return blocksToDiv(blocks, Attr{}, pos)
}

func blocksToDiv(blocks Blocks, attr Attr, pos Position) Node {
	return Div{Attr: attr, Blocks: blocks, Pos: pos}
}

func genericDiv(class string) envHandler {
	return func(st *parserState, name string, pos Position) Node {
		attr := Attr{}
		if class != "" {
			attr.Classes = []string{class}
		} else {
			attr.Classes = []string{name}
		}
		return blocksToDiv(st.parseBlocks(stopAtEndEnv(name)), attr, pos)
	}
}

func minipageHandler(st *parserState, name string, pos Position) Node {
	st.bracketed()
	st.argValue()
	return blocksToDiv(st.parseBlocks(stopAtEndEnv(name)), Attr{Classes: []string{"minipage"}}, pos)
}

func blockQuoteHandler(st *parserState, name string, pos Position) Node {
	return BlockQuote{Blocks: st.parseBlocks(stopAtEndEnv(name)), Pos: pos}
}

// figureHandler resets the caption slot on entry (§4.7), parses the body,
// and defers caption/label attachment to the rewriter pass via a
// captionPending marker, since a trailing \label commonly follows \caption
// and both must be known before the Image can be rewritten.
func figureHandler(st *parserState, name string, pos Position) Node {
	st.bracketed() // placement spec [htbp]
	prevCaption, prevHas := st.captionSlot, st.hasCaption
	st.captionSlot, st.hasCaption = nil, false
	blocks := st.parseBlocks(stopAtEndEnv(name))
	body, labelID := extractPendingLabel(blocks)
	cp := captionPending{kind: "figure", body: body, caption: st.captionSlot, hasCaption: st.hasCaption, labelID: labelID, pos: pos}
	st.captionSlot, st.hasCaption = prevCaption, prevHas
	return cp
}

// extractPendingLabel pulls the first bare label-Div (produced by the
// block-level \label handler: an ID-only Div with no content) out of body,
// returning the remaining blocks and the label id found, if any.
func extractPendingLabel(body Blocks) (Blocks, string) {
	var id string
	out := make(Blocks, 0, len(body))
	for _, b := range body {
		if d, ok := b.(Div); ok && d.Attr.ID != "" && len(d.Blocks) == 0 && id == "" {
			id = d.Attr.ID
			continue
		}
		out = append(out, b)
	}
	return out, id
}

func tikzHandler(st *parserState, name string, pos Position) Node {
	start := st.pos
	// tikzpicture content is effectively opaque: consume tokens to \end
	// without block-parsing them (§4.7 tikz-rewriter wraps the raw body).
	depth := 0
	for !st.atEnd() {
		if st.peekIsBeginEnv() {
			depth++
		} else if st.peek().IsControlSeq("end") && depth > 0 {
			depth--
		} else if st.peekEndEnvIs(name) {
			break
		}
		st.pos++
	}
	raw := rawText(st.tokens[start:st.pos])
	return RawBlock{Format: "tikz", Text: raw, Pos: pos}
}

func commentEnvHandler(st *parserState, name string, pos Position) Node {
	start := st.pos
	for !st.atEnd() && !st.peekEndEnvIs(name) {
		st.pos++
	}
	_ = rawText(st.tokens[start:st.pos])
	return nil
}

func verbatimHandler(st *parserState, name string, pos Position) Node {
	start := st.pos
	prevVerbatim := st.verbatim
	st.verbatim = true
	for !st.atEnd() && !st.peekEndEnvIs(name) {
		st.pos++
	}
	st.verbatim = prevVerbatim
	text := rawText(st.tokens[start:st.pos])
	return CodeBlock{Text: strings.TrimPrefix(text, "\n"), Pos: pos}
}

func codeEnvHandler(st *parserState, name string, pos Position) Node {
	kvs := parseKeyVals(st)
	st.bracketed()
	start := st.pos
	prevVerbatim := st.verbatim
	st.verbatim = true
	for !st.atEnd() && !st.peekEndEnvIs(name) {
		st.pos++
	}
	st.verbatim = prevVerbatim
	text := strings.TrimPrefix(rawText(st.tokens[start:st.pos]), "\n")
	attr := Attr{}
	for _, kv := range kvs {
		if kv[0] == "language" {
			attr.Classes = append(attr.Classes, kv[1])
		} else {
			attr.KeyVals = append(attr.KeyVals, kv)
		}
	}
	return CodeBlock{Attr: attr, Text: text, Pos: pos}
}

func mathEnvHandler(st *parserState, name string, pos Position) Node {
	start := st.pos
	for !st.atEnd() && !st.peekEndEnvIs(name) {
		st.pos++
	}
	text := strings.TrimSpace(rawText(st.tokens[start:st.pos]))
	return Para{Inlines: Inlines{Math{Kind: DisplayMath, Text: text, Pos: pos}}, Pos: pos}
}

func icmlAuthorListHandler(st *parserState, name string, pos Position) Node {
	blocks := st.parseBlocks(stopAtEndEnv(name))
	return blocksToDiv(blocks, Attr{Classes: []string{"icmlauthorlist"}}, pos)
}

func thebibliographyHandler(st *parserState, name string, pos Position) Node {
	st.argValue() // widest-label placeholder
	items := st.parseBibItems(name)
	return Div{Attr: Attr{Classes: []string{"thebibliography"}}, Blocks: items, Pos: pos}
}

// parseBibItems splits a thebibliography body on \bibitem, per §4.5's
// "bibliography-bbl" block alternative.
func (st *parserState) parseBibItems(envName string) Blocks {
	var out Blocks
	for !st.atEnd() && !st.peekEndEnvIs(envName) {
		t := st.peek()
		if t.IsControlSeq("bibitem") {
			st.pos++
			st.bracketed()
			toks, _ := st.argValue()
			key := rawText(trimBraces(toks))
			body := st.parseBlocks(func(s *parserState) bool {
				return s.atEnd() || s.peekEndEnvIs(envName) || s.peek().IsControlSeq("bibitem")
			})
			out = append(out, Div{Attr: Attr{ID: "bib-" + key}, Blocks: body, Pos: t.Pos})
			continue
		}
		st.skipBlankBlockSeparators()
		if st.atEnd() || st.peekEndEnvIs(envName) {
			break
		}
		if st.peek().IsControlSeq("bibitem") {
			continue
		}
		st.pos++
	}
	return out
}
