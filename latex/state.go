package latex

import "strconv"

// quoteContext is the parser's current quote nesting (§3.3).
type quoteContext int

const (
	quoteNone quoteContext = iota
	quoteInSingle
	quoteInDouble
)

// Meta holds document-level metadata (§3.3, §4.8). Scalar keys (title,
// date, subtitle, …) are overwritten by later assignments; list-typed keys
// (author, bibliography, nocite) are appended to instead (§5 Ordering).
type Meta struct {
	Title        Inlines
	Subtitle     Inlines
	Date         Inlines
	Abstract     Blocks
	Dedication   Inlines
	Address      Inlines
	Authors      []Inlines
	Affiliations []Inlines
	Bibliography []string
	Nocite       []string
}

func (m *Meta) appendAuthor(a Inlines)       { m.Authors = append(m.Authors, a) }
func (m *Meta) appendAffiliation(a Inlines)  { m.Affiliations = append(m.Affiliations, a) }
func (m *Meta) appendBibliography(f string)  { m.Bibliography = append(m.Bibliography, f) }
func (m *Meta) appendNocite(keys []string)   { m.Nocite = append(m.Nocite, keys...) }

// parserState is the Parser State of §3.3: the single mutable value
// threaded through every parse function. Sub-parses do not clone it:
// included files are spliced into the token stream, arguments and table
// cells are parsed in place via withTokenSlice, and the raw-LaTeX entry
// points build a fresh state from the host's macros and merge them back.
type parserState struct {
	opts *Options
	path string

	tokens []Token
	pos    int

	macros map[string]*Macro

	quote       quoteContext
	verbatim    bool
	captionSlot Inlines
	hasCaption  bool
	inListItem  bool
	inTableCell bool

	idents map[string]bool

	// includeFrames tracks files whose spliced-in tokens have not yet all
	// been consumed by the cursor, keyed by the stream position their
	// content ends at (§4.5 cycle detection). A flat token splice has no
	// Go call-stack frame to bound a "currently inside this include"
	// window, so the window is tracked explicitly here instead and popped
	// as the cursor passes each frame's end.
	includeFrames []includeFrame

	meta Meta

	errors []*ParseError

	expansionDepth int

	resourcePath []string

	// rawLatexCharBudget is not read or written by any parse function.
	rawLatexCharBudget int
}

func newParserState(o *Options, path string) *parserState {
	return &parserState{
		opts:         o,
		path:         path,
		macros:       map[string]*Macro{},
		idents:       map[string]bool{},
		resourcePath: append([]string{}, o.ResourcePath...),
	}
}

// clone produces an independent snapshot of st. No parse path calls it (see
// parserState for how sub-parses are run). The macro table is copied so definitions
// made inside the sub-parse do not leak unless explicitly merged back via
// mergeMacrosFrom.
func (st *parserState) clone() *parserState {
	macros := make(map[string]*Macro, len(st.macros))
	for k, v := range st.macros {
		macros[k] = v
	}
	idents := st.idents // identifier set is shared, so ids stay unique across the document (§5)
	return &parserState{
		opts:          st.opts,
		path:          st.path,
		macros:        macros,
		idents:        idents,
		includeFrames: append([]includeFrame{}, st.includeFrames...),
		resourcePath:  append([]string{}, st.resourcePath...),
		quote:         st.quote,
		verbatim:      st.verbatim,
	}
}

// includeFrame is one entry of includeFrames: the resolved path of a
// spliced-in include and the stream position where its content ends.
type includeFrame struct {
	path string
	end  int
}

// includeStackPaths pops any frames whose content the cursor has already
// passed and returns the paths of the frames still open, outermost first,
// for cycle-checking against a newly requested include target.
func (st *parserState) includeStackPaths() []string {
	for len(st.includeFrames) > 0 && st.pos > st.includeFrames[len(st.includeFrames)-1].end {
		st.includeFrames = st.includeFrames[:len(st.includeFrames)-1]
	}
	paths := make([]string, len(st.includeFrames))
	for i, f := range st.includeFrames {
		paths[i] = f.path
	}
	return paths
}

// mergeMacrosFrom installs every macro defined in child (not already
// present in st) back into st, per §4.9's explicit post-merge step.
func (st *parserState) mergeMacrosFrom(child *parserState) {
	for name, m := range child.macros {
		if _, exists := st.macros[name]; !exists {
			st.macros[name] = m
		}
	}
}

func (st *parserState) log(typ ErrorType, message string, pos Position, cause error) {
	st.addError(typ, message, pos, Token{}, cause)
	if st.opts != nil && st.opts.Log != nil {
		st.opts.Log.Printf("%d:%d: %s", pos.StartLine, pos.StartColumn, message)
	}
}

// registerIdent uniquifies id against the identifier set (§4.5
// registerHeader, §8 Identifier uniqueness). Not idempotent: the first
// registration of an id returns it unchanged, and each later registration
// of the same id returns a fresh suffixed variant (id-1, id-2, ...).
func (st *parserState) registerIdent(id string) string {
	if id == "" {
		id = "section"
	}
	if !st.idents[id] {
		st.idents[id] = true
		return id
	}
	for n := 1; ; n++ {
		candidate := id + "-" + strconv.Itoa(n)
		if !st.idents[candidate] {
			st.idents[candidate] = true
			return candidate
		}
	}
}
