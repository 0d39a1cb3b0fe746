// Package latex implements the core of a LaTeX reader: a tokenizer,
// macro-expanding parser, and LaTeX-semantics engine that turns raw LaTeX
// source into a document tree (Node) plus accumulated Meta, logs, and
// errors. It does not render math, resolve bibliography styles, or write
// any output format — those are downstream concerns.
//
// You probably want to start with something like this:
//
//	opts := latex.New()
//	doc := opts.Parse(strings.NewReader(src), "./paper.tex")
//	if doc.HasErrors() {
//	    log.Fatal(doc.Errors[0])
//	}
//	fmt.Println(latex.String(doc.Nodes...))
package latex

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Position represents the location of a node in the source text as 1-based
// line and column numbers; the column restarts at 1 after each newline.
type Position struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// Extensions is the reader's recognized extension flag set (§6).
type Extensions struct {
	RawTeX          bool
	LatexMacros     bool
	Smart           bool
	LiterateHaskell bool
}

// DefaultExtensions matches a typical pandoc-style LaTeX reader invocation:
// macros and smart quotes on, raw passthrough and literate Haskell off.
func DefaultExtensions() Extensions {
	return Extensions{LatexMacros: true, Smart: true}
}

// Options is the reader's Configuration (§3.3, §6): everything the host
// supplies before parsing. Like go-org's Configuration, external
// collaborators (file IO, link/citation resolution) are injected funcs so
// this package never performs its own path resolution or network IO.
type Options struct {
	Extensions Extensions

	// DefaultImageExtension is appended to \includegraphics targets missing
	// an extension (§6).
	DefaultImageExtension string

	// InputSources lists the host's input paths; the first entry's
	// directory is used to locate a sibling .bbl for \bibliography (§6).
	InputSources []string

	// ResourcePath is searched, after TexInputs, for \input/\include/
	// \lstinputlisting targets, and is appended to by \graphicspath (§4.5).
	// \includegraphics targets are not resolved against it: the Image URL
	// is the path as written (plus DefaultImageExtension).
	ResourcePath []string

	// ReadFile reads an include/graphics/bibliography target. Defaults to
	// os.ReadFile; tests substitute an in-memory map.
	ReadFile func(path string) ([]byte, error)

	// TexInputs seeds the include search path (§6); if empty, read from
	// the TEXINPUTS environment variable, defaulting to ".".
	TexInputs []string

	// Log receives warnings during parsing (§7); defaults to stderr.
	Log *log.Logger

	// BibliographyCache, when non-nil, memoizes \cite key resolution
	// against a bibliography database (see internal/bibcache).
	BibliographyCache BibCache
}

// BibCache is the citation-resolution cache capability consumed by the
// inline engine's citation dispatch (§4.4, DOMAIN STACK in SPEC_FULL.md).
// It is satisfied by *bibcache.Cache; kept as an interface here so the core
// reader does not import gorm/sqlite directly.
type BibCache interface {
	Lookup(bibPath, key string) (string, bool)
	Store(bibPath, key, resolved string) error
}

// New returns Options with sane defaults, mirroring go-org's New().
func New() *Options {
	texinputs := []string{"."}
	if v := os.Getenv("TEXINPUTS"); v != "" {
		texinputs = strings.Split(v, ":")
	}
	return &Options{
		Extensions:            DefaultExtensions(),
		DefaultImageExtension: "",
		ReadFile:              os.ReadFile,
		TexInputs:             texinputs,
		Log:                   log.New(os.Stderr, "latex: ", 0),
	}
}

// Silent disables all logging of warnings during parsing.
func (o *Options) Silent() *Options {
	o.Log = log.New(io.Discard, "", 0)
	return o
}

// Document is the result of a parse: the tree, accumulated metadata, and
// any structured errors/log messages gathered along the way. Mirrors
// go-org's Document shape (Nodes, Errors, Path) but adds the LaTeX-specific
// Meta.
type Document struct {
	*Options
	Path    string
	Nodes   Blocks
	Meta    Meta
	Errors  []*ParseError
	Pos     Position
	state   *parserState
	idents  map[string]bool
}

// Parse tokenizes and parses input into a Document. Like go-org, errors are
// accumulated on the returned Document rather than returned directly, so
// callers can chain: latex.New().Parse(r, path).
func (o *Options) Parse(input io.Reader, path string) (d *Document) {
	raw, err := io.ReadAll(input)
	if err != nil {
		d = &Document{Options: o, Path: path}
		d.AddError(ErrorTypeIO, "could not read input", Position{}, Token{}, err)
		return d
	}
	src := normalizeLineEndings(string(raw))

	st := newParserState(o, path)
	d = &Document{
		Options: o,
		Path:    path,
		Meta:    Meta{},
		state:   st,
		idents:  st.idents,
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			if me, ok := recovered.(macroLoopPanic); ok {
				d.AddError(ErrorTypeMacroLoop, "macro expansion exceeded recursion limit", me.pos, Token{}, fmt.Errorf("macro loop in \\%s", me.name))
				return
			}
			d.AddError(ErrorTypeInvalidStructure, "parse panic", d.Pos, Token{}, fmt.Errorf("recovered from panic: %v", recovered))
		}
	}()

	toks := tokenize(src)
	st.tokens = toks

	nodes := st.parsePreambleAndBody(d)
	nodes = runRewriters(st, d, nodes)
	d.Nodes = nodes
	d.Meta = st.meta
	d.Errors = st.errors
	return d
}

// normalizeLineEndings converts \r\n to \n per §6 input format.
func normalizeLineEndings(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
