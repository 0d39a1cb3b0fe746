package latex

import (
	"strconv"
	"strings"
)

// blockHandler is the dispatch entry for a block-level command (§4.5, §6).
// The command token itself has already been consumed by the caller.
type blockHandler func(st *parserState, name string, pos Position) Node

var blockCommands = map[string]blockHandler{
	"title":      metaInlineScalar(func(m *Meta, v Inlines) { m.Title = v }),
	"subtitle":   metaInlineScalar(func(m *Meta, v Inlines) { m.Subtitle = v }),
	"date":       metaInlineScalar(func(m *Meta, v Inlines) { m.Date = v }),
	"dedication": metaInlineScalar(func(m *Meta, v Inlines) { m.Dedication = v }),
	"address":    metaInlineScalar(func(m *Meta, v Inlines) { m.Address = v }),

	"author":          authorHandler,
	"institute":        instituteHandler,
	"icmlauthor":       authorHandler,
	"icmlaffiliation":  instituteHandler,

	"bibliography":    bibliographyHandler,
	"addbibresource":  bibliographyHandler,
	"nocite":          nociteHandler,

	"item": func(st *parserState, name string, pos Position) Node {
		// an \item reached outside any list context: degrade to a Plain
		// paragraph with no bullet rather than dropping the content (defensive,
		// mirrors the tolerant-fallback style used for unknown environments).
		st.bracketed()
		inlines := st.parseInlines(func(s *parserState) bool {
			return s.atEnd() || s.atParagraphBreak() || s.peek().IsControlSeq("item") || s.peek().IsControlSeq("end")
		})
		return Plain{Inlines: inlines, Pos: pos}
	},

	"caption": func(st *parserState, name string, pos Position) Node {
		st.bracketed()
		st.captionSlot = argAsInlines(st)
		st.hasCaption = true
		return nil
	},

	"label": func(st *parserState, name string, pos Position) Node {
		toks, _ := st.argValue()
		id := rawText(trimBraces(toks))
		st.registerIdent(id)
		return Div{Attr: Attr{ID: id}, Pos: pos}
	},

	"hypertarget": func(st *parserState, name string, pos Position) Node {
		toks, _ := st.argValue()
		id := rawText(trimBraces(toks))
		inlines := argAsInlines(st)
		return Para{Inlines: append(Inlines{Span{Attr: Attr{ID: id}, Pos: pos}}, inlines...), Pos: pos}
	},

	"hrule": func(st *parserState, name string, pos Position) Node { return HorizontalRule{Pos: pos} },
	"rule": func(st *parserState, name string, pos Position) Node {
		st.bracketed()
		st.argValue()
		st.argValue()
		return HorizontalRule{Pos: pos}
	},

	"centerline": func(st *parserState, name string, pos Position) Node {
		return Para{Inlines: argAsInlines(st), Pos: pos}
	},

	"opening": func(st *parserState, name string, pos Position) Node {
		return Para{Inlines: argAsInlines(st), Pos: pos}
	},
	"closing": func(st *parserState, name string, pos Position) Node {
		return Para{Inlines: argAsInlines(st), Pos: pos}
	},
	"frametitle": func(st *parserState, name string, pos Position) Node {
		inlines := argAsInlines(st)
		id := st.registerIdent(slugify(String(inlines...)))
		return Header{Level: 2, Attr: Attr{ID: id}, Inlines: inlines, Pos: pos}
	},

	"icmltitle": func(st *parserState, name string, pos Position) Node {
		inlines := argAsInlines(st)
		st.meta.Title = inlines
		return nil
	},

	"maketitle":     func(st *parserState, name string, pos Position) Node { return nil },
	"tableofcontents": func(st *parserState, name string, pos Position) Node { return nil },
	"appendix":      func(st *parserState, name string, pos Position) Node { return nil },
	"newpage":       func(st *parserState, name string, pos Position) Node { return nil },
	"clearpage":     func(st *parserState, name string, pos Position) Node { return nil },
	"setcounter": func(st *parserState, name string, pos Position) Node {
		st.argValue()
		st.argValue()
		return nil
	},

	"include":        includeHandler,
	"input":          includeHandler,
	"subfile":        includeHandler,
	"usepackage":     usepackageHandler,
	"lstinputlisting": lstinputlistingHandler,
	"graphicspath": func(st *parserState, name string, pos Position) Node {
		toks, _ := st.argValue()
		st.resourcePath = append(st.resourcePath, splitGroupList(toks)...)
		return nil
	},
}

func metaInlineScalar(set func(*Meta, Inlines)) blockHandler {
	return func(st *parserState, name string, pos Position) Node {
		set(&st.meta, argAsInlines(st))
		return nil
	}
}

// authorHandler parses `\author{A \and B \inst{1} \and C}` (§4.8): parts
// separated by `\and`, each optionally tagged with `\inst{abbrev}` which
// becomes an `affiliation-abbrev` attribute on a wrapping Span so the
// institute-rewriter can later match it.
func authorHandler(st *parserState, name string, pos Position) Node {
	toks, _ := st.argValue()
	parts := splitOnAndCommand(groupedTokens(toks))
	for _, part := range parts {
		body, abbrevs := extractInstRefs(part)
		inlines := st.parseInlinesFrom(body)
		if len(abbrevs) > 0 {
			inlines = append(inlines, Span{Attr: Attr{Classes: []string{"affiliation-abbrev"}, KeyVals: [][2]string{{"affiliation-abbrev", strings.Join(abbrevs, ",")}}}, Pos: pos})
		}
		st.meta.appendAuthor(inlines)
	}
	return nil
}

// instituteHandler parses the parallel `\and`-separated affiliation list
// (§4.8, §9's reversed-then-zipped observable order): parts are walked from
// last to first, each numbered by its declaration position, so the
// first-declared affiliation carries superscript 1 (Meta.Affiliations
// therefore lists the last-declared one first). A numeric superscript is
// attached to each author's existing inlines wherever an
// `affiliation-abbrev` match for that position is found.
func instituteHandler(st *parserState, name string, pos Position) Node {
	toks, _ := st.argValue()
	parts := splitOnAndCommand(groupedTokens(toks))

	n := len(parts)
	for i := n - 1; i >= 0; i-- {
		num := i + 1
		abbrev := strconv.Itoa(i + 1)
		inlines := st.parseInlinesFrom(parts[i])
		st.meta.appendAffiliation(append(Inlines{Str{Text: strconv.Itoa(num) + " ", Pos: pos}}, inlines...))
		for ai, author := range st.meta.Authors {
			st.meta.Authors[ai] = attachAffiliationSuperscript(author, abbrev, num, pos)
		}
	}
	return nil
}

// attachAffiliationSuperscript appends a Superscript(num) to author if its
// trailing affiliation-abbrev span lists abbrev (§4.8).
func attachAffiliationSuperscript(author Inlines, abbrev string, num int, pos Position) Inlines {
	if len(author) == 0 {
		return author
	}
	last, ok := author[len(author)-1].(Span)
	if !ok {
		return author
	}
	list, _ := last.Attr.Get("affiliation-abbrev")
	for _, a := range strings.Split(list, ",") {
		if a == abbrev {
			return append(author[:len(author)-1], Superscript{Inlines: Inlines{Str{Text: strconv.Itoa(num)}}, Pos: pos})
		}
	}
	return author
}

// splitOnAndCommand splits a token slice on top-level `\and` control
// sequences (§4.8).
func splitOnAndCommand(toks []Token) [][]Token {
	var parts [][]Token
	var cur []Token
	depth := 0
	for _, t := range toks {
		if isBgroup(t) {
			depth++
			cur = append(cur, t)
			continue
		}
		if isEgroup(t) {
			depth--
			cur = append(cur, t)
			continue
		}
		if depth == 0 && t.IsControlSeq("and") {
			parts = append(parts, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	parts = append(parts, cur)
	return parts
}

// extractInstRefs pulls every trailing `\inst{abbrev}` out of an author
// part, returning the remaining inline tokens plus the collected abbrevs.
func extractInstRefs(toks []Token) ([]Token, []string) {
	var body []Token
	var abbrevs []string
	i := 0
	for i < len(toks) {
		if toks[i].IsControlSeq("inst") && i+1 < len(toks) && isBgroup(toks[i+1]) {
			depth := 0
			j := i + 1
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
			abbrevs = append(abbrevs, strings.TrimSpace(rawText(trimBraces(toks[i+1:j]))))
			i = j
			continue
		}
		body = append(body, toks[i])
		i++
	}
	return body, abbrevs
}

// bibliographyHandler splits a comma-separated `{files}` argument into
// filename strings appended to meta (§4.8).
func bibliographyHandler(st *parserState, name string, pos Position) Node {
	toks, _ := st.argValue()
	raw := rawText(trimBraces(toks))
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			st.meta.appendBibliography(f)
		}
	}
	return nil
}

func nociteHandler(st *parserState, name string, pos Position) Node {
	toks, _ := st.argValue()
	raw := rawText(trimBraces(toks))
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keys = append(keys, k)
		}
	}
	st.meta.appendNocite(keys)
	return nil
}
