package latex

import "strings"

// citationKind classifies a \cite-family command name (via citationCommands)
// by its CitationMode and whether the author is suppressed/forced in-text
// (§4.4). textcite/citet
// put the author in the running text; citep/parencite/autocite parenthesize
// the whole citation; citeyear/citeauthor render only one part.
type citationKind int

const (
	citeParenthetical citationKind = iota
	citeTextual
	citeYearOnly
	citeAuthorOnly
	citeText // \citetext: free-form, no key lookup
)

type citationSpec struct {
	kind     citationKind
	multi    bool // supports multiple comma-separated keys (all but natbib singular forms do)
}

var citationCommands = map[string]citationSpec{
	"cite":        {kind: citeParenthetical, multi: true},
	"citep":       {kind: citeParenthetical, multi: true},
	"citep*":      {kind: citeParenthetical, multi: true},
	"parencite":   {kind: citeParenthetical, multi: true},
	"parencite*":  {kind: citeParenthetical, multi: true},
	"autocite":    {kind: citeParenthetical, multi: true},
	"autocite*":   {kind: citeParenthetical, multi: true},
	"Autocite":    {kind: citeParenthetical, multi: true},
	"footcite":    {kind: citeParenthetical, multi: true},
	"footcitetext": {kind: citeParenthetical, multi: true},
	"citet":       {kind: citeTextual, multi: true},
	"citet*":      {kind: citeTextual, multi: true},
	"textcite":    {kind: citeTextual, multi: true},
	"Textcite":    {kind: citeTextual, multi: true},
	"citeyear":    {kind: citeYearOnly, multi: false},
	"citeyearpar": {kind: citeYearOnly, multi: false},
	"citeauthor":  {kind: citeAuthorOnly, multi: false},
	"Citeauthor":  {kind: citeAuthorOnly, multi: false},
	"citeauthor*": {kind: citeAuthorOnly, multi: false},
	"citetext":    {kind: citeText, multi: false},
}

func isCitationCommand(name string) bool {
	_, ok := citationCommands[name]
	return ok
}

// parseCitation dispatches one citation command invocation (§4.4). The
// control sequence itself has already been consumed by the caller; the
// cursor sits at the first optional/mandatory argument. For \citetext the
// parsed argument is stored as Fallback; for the other commands Fallback is
// left unset. Either way the caller (parseControlSeqInline) replaces it with
// a RawInline mirror of the whole invocation it captured via withRaw, for
// round-trip fidelity.
func (st *parserState) parseCitation(name string, pos Position) Node {
	spec := citationCommands[name]
	if spec.kind == citeText {
		inner := argAsInlines(st)
		return Cite{Fallback: inner, Pos: pos}
	}

	var prefix, suffix Inlines
	if toks, ok := st.bracketed(); ok {
		if toks2, ok2 := st.bracketed(); ok2 {
			prefix = st.parseInlinesFrom(groupedTokens(toks))
			suffix = st.parseInlinesFrom(groupedTokens(toks2))
		} else {
			suffix = st.parseInlinesFrom(groupedTokens(toks))
		}
	}

	keyToks, _ := st.argValue()
	keysRaw := rawText(trimBraces(keyToks))
	var keys []string
	if spec.multi {
		for _, k := range strings.Split(keysRaw, ",") {
			k = strings.TrimSpace(k)
			if k != "" {
				keys = append(keys, k)
			}
		}
	} else if k := strings.TrimSpace(keysRaw); k != "" {
		keys = []string{k}
	}

	mode := NormalCitation
	switch spec.kind {
	case citeTextual:
		mode = AuthorInText
	case citeYearOnly, citeAuthorOnly:
		mode = SuppressAuthor
	}

	cites := make([]Citation, 0, len(keys))
	for i, k := range keys {
		c := Citation{ID: k, Mode: mode}
		if i == 0 {
			c.Prefix = prefix
		}
		if i == len(keys)-1 {
			c.Suffix = suffix
		}
		if st.opts.BibliographyCache != nil {
			if resolved, ok := st.lookupBibEntry(k); ok {
				c.Suffix = append(append(Inlines{}, c.Suffix...), Str{Text: " " + resolved, Pos: pos})
			}
		}
		cites = append(cites, c)
	}

	return Cite{Citations: cites, Pos: pos}
}

// lookupBibEntry consults the configured BibCache (if any) for a resolved
// citation display string, against every declared \bibliography/
// \addbibresource file in turn (§4.8 meta, DOMAIN STACK).
func (st *parserState) lookupBibEntry(key string) (string, bool) {
	if st.opts.BibliographyCache == nil {
		return "", false
	}
	for _, bib := range st.meta.Bibliography {
		if resolved, ok := st.opts.BibliographyCache.Lookup(bib, key); ok {
			return resolved, true
		}
	}
	return "", false
}
