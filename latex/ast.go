package latex

import (
	"strconv"
	"strings"
)

// Node is implemented by every element of the document tree, inline or
// block. The shape mirrors go-org's Node interface: a node can stringify
// itself (for debugging / round-trip tests), deep-copy itself, range over
// its direct children, and report its source Position.
type Node interface {
	String() string
	Copy() Node
	Range(func(Node) bool)
	Position() Position
}

// Inlines and Blocks are just Node slices; the aliases exist so call sites
// read the way the spec does (§3.4) rather than as bare [][]Node soup.
type Inlines = []Node
type Blocks = []Node

// Attr is the pandoc-style (id, classes, key=value) attribute triple
// attached to Span, Div, Header, Image, CodeBlock, Link.
type Attr struct {
	ID      string
	Classes []string
	KeyVals [][2]string
}

func (a Attr) Get(key string) (string, bool) {
	for _, kv := range a.KeyVals {
		if kv[0] == key {
			return kv[1], true
		}
	}
	return "", false
}

func (a Attr) With(key, value string) Attr {
	out := Attr{ID: a.ID, Classes: append([]string{}, a.Classes...)}
	replaced := false
	for _, kv := range a.KeyVals {
		if kv[0] == key {
			out.KeyVals = append(out.KeyVals, [2]string{key, value})
			replaced = true
		} else {
			out.KeyVals = append(out.KeyVals, kv)
		}
	}
	if !replaced {
		out.KeyVals = append(out.KeyVals, [2]string{key, value})
	}
	return out
}

func (a Attr) copy() Attr {
	return Attr{ID: a.ID, Classes: append([]string{}, a.Classes...), KeyVals: append([][2]string{}, a.KeyVals...)}
}

// Alignment is a table column alignment, §4.6.
type Alignment int

const (
	AlignDefault Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// ListNumberStyle/ListNumberDelim describe an OrderedList's counter
// rendering, taken from the enumerate `[marker]` spec (§4.5).
type ListNumberStyle int

const (
	DefaultStyle ListNumberStyle = iota
	Decimal
	LowerAlpha
	UpperAlpha
	LowerRoman
	UpperRoman
)

type ListNumberDelim int

const (
	DefaultDelim ListNumberDelim = iota
	Period
	OneParen
	TwoParens
)

// CitationMode is §4.4's {Normal, AuthorInText, SuppressAuthor}.
type CitationMode int

const (
	NormalCitation CitationMode = iota
	AuthorInText
	SuppressAuthor
)

// Citation is one `{key}` slot inside a Cite inline, carrying the
// prefix/suffix inline material gathered from the `[prefix][suffix]` optional
// arguments described in §4.4.
type Citation struct {
	ID      string
	Prefix  Inlines
	Suffix  Inlines
	Mode    CitationMode
	NoteNum int
	Hash    int
}

// ---- Inline nodes ----

type Str struct {
	Text string
	Pos  Position
}

type Space struct{ Pos Position }
type SoftBreak struct{ Pos Position }
type LineBreak struct{ Pos Position }

type Emph struct {
	Inlines Inlines
	Pos     Position
}

type Strong struct {
	Inlines Inlines
	Pos     Position
}

type Smallcaps struct {
	Inlines Inlines
	Pos     Position
}

type Strikeout struct {
	Inlines Inlines
	Pos     Position
}

type Subscript struct {
	Inlines Inlines
	Pos     Position
}

type Superscript struct {
	Inlines Inlines
	Pos     Position
}

type Code struct {
	Text string
	Pos  Position
}

// MathType distinguishes `$...$` from `\[...\]`/`$$...$$` (§4.4).
type MathType int

const (
	InlineMath MathType = iota
	DisplayMath
)

type Math struct {
	Kind MathType
	Text string
	Pos  Position
}

type Link struct {
	Attr   Attr
	Target Inlines
	URL    string
	Title  string
	Pos    Position
}

type Image struct {
	Attr   Attr
	Target Inlines
	URL    string
	Title  string
	Pos    Position
}

type Cite struct {
	Citations []Citation
	Fallback  Inlines // RawInline-mirror of the original command, §4.4
	Pos       Position
}

type Note struct {
	Content Blocks
	Pos     Position
}

type RawInline struct {
	Format string
	Text   string
	Pos    Position
}

type Span struct {
	Attr    Attr
	Inlines Inlines
	Pos     Position
}

// ---- Block nodes ----

type Para struct {
	Inlines Inlines
	Pos     Position
}

type Plain struct {
	Inlines Inlines
	Pos     Position
}

type Header struct {
	Level   int
	Attr    Attr
	Inlines Inlines
	Pos     Position
}

type BulletList struct {
	Items []Blocks
	Pos   Position
}

type OrderedList struct {
	Start int
	Style ListNumberStyle
	Delim ListNumberDelim
	Items []Blocks
	Pos   Position
}

type DefinitionItem struct {
	Term       Inlines
	Definition []Blocks
}

type DefinitionList struct {
	Items []DefinitionItem
	Pos   Position
}

type CodeBlock struct {
	Attr Attr
	Text string
	Pos  Position
}

type BlockQuote struct {
	Blocks Blocks
	Pos    Position
}

type HorizontalRule struct{ Pos Position }

type Cell struct {
	Blocks Blocks
}

type Table struct {
	Caption Inlines
	Aligns  []Alignment
	Widths  []float64
	Header  []Cell
	Rows    [][]Cell
	Pos     Position
}

type Div struct {
	Attr   Attr
	Blocks Blocks
	Pos    Position
}

type RawBlock struct {
	Format string
	Text   string
	Pos    Position
}

// copyNodes deep-copies a Node slice, mirroring go-org's CopyNodes.
func copyNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Copy()
	}
	return out
}

func copyCells(cells []Cell) []Cell {
	out := make([]Cell, len(cells))
	for i, c := range cells {
		out[i] = Cell{Blocks: copyNodes(c.Blocks)}
	}
	return out
}

func rangeChildren(nodes []Node, f func(Node) bool) {
	for _, n := range nodes {
		if !f(n) {
			return
		}
	}
}

// String renders a debug/round-trip form of the given nodes. It is
// deliberately simple — enough to support the package's own table-driven
// tests, not a full Writer (that lives downstream per §1 out-of-scope).
func String(nodes ...Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.String())
	}
	return b.String()
}

// String (a markup-like debug form)/Copy/Range/Position implementations.

func (n Str) String() string          { return n.Text }
func (n Str) Copy() Node              { return n }
func (n Str) Range(f func(Node) bool) {}
func (n Str) Position() Position      { return n.Pos }

func (n Space) String() string          { return " " }
func (n Space) Copy() Node              { return n }
func (n Space) Range(f func(Node) bool) {}
func (n Space) Position() Position      { return n.Pos }

func (n SoftBreak) String() string          { return "\n" }
func (n SoftBreak) Copy() Node              { return n }
func (n SoftBreak) Range(f func(Node) bool) {}
func (n SoftBreak) Position() Position      { return n.Pos }

func (n LineBreak) String() string          { return "\\\\\n" }
func (n LineBreak) Copy() Node              { return n }
func (n LineBreak) Range(f func(Node) bool) {}
func (n LineBreak) Position() Position      { return n.Pos }

func (n Emph) String() string              { return "*" + String(n.Inlines...) + "*" }
func (n Emph) Copy() Node                  { return Emph{Inlines: copyNodes(n.Inlines), Pos: n.Pos} }
func (n Emph) Range(f func(Node) bool)     { rangeChildren(n.Inlines, f) }
func (n Emph) Position() Position          { return n.Pos }

func (n Strong) String() string          { return "**" + String(n.Inlines...) + "**" }
func (n Strong) Copy() Node              { return Strong{Inlines: copyNodes(n.Inlines), Pos: n.Pos} }
func (n Strong) Range(f func(Node) bool) { rangeChildren(n.Inlines, f) }
func (n Strong) Position() Position      { return n.Pos }

func (n Smallcaps) String() string          { return String(n.Inlines...) }
func (n Smallcaps) Copy() Node              { return Smallcaps{Inlines: copyNodes(n.Inlines), Pos: n.Pos} }
func (n Smallcaps) Range(f func(Node) bool) { rangeChildren(n.Inlines, f) }
func (n Smallcaps) Position() Position      { return n.Pos }

func (n Strikeout) String() string          { return "~~" + String(n.Inlines...) + "~~" }
func (n Strikeout) Copy() Node              { return Strikeout{Inlines: copyNodes(n.Inlines), Pos: n.Pos} }
func (n Strikeout) Range(f func(Node) bool) { rangeChildren(n.Inlines, f) }
func (n Strikeout) Position() Position      { return n.Pos }

func (n Subscript) String() string          { return "_{" + String(n.Inlines...) + "}" }
func (n Subscript) Copy() Node              { return Subscript{Inlines: copyNodes(n.Inlines), Pos: n.Pos} }
func (n Subscript) Range(f func(Node) bool) { rangeChildren(n.Inlines, f) }
func (n Subscript) Position() Position      { return n.Pos }

func (n Superscript) String() string          { return "^{" + String(n.Inlines...) + "}" }
func (n Superscript) Copy() Node              { return Superscript{Inlines: copyNodes(n.Inlines), Pos: n.Pos} }
func (n Superscript) Range(f func(Node) bool) { rangeChildren(n.Inlines, f) }
func (n Superscript) Position() Position      { return n.Pos }

func (n Code) String() string          { return "`" + n.Text + "`" }
func (n Code) Copy() Node              { return n }
func (n Code) Range(f func(Node) bool) {}
func (n Code) Position() Position      { return n.Pos }

func (n Math) String() string {
	if n.Kind == DisplayMath {
		return "\\[" + n.Text + "\\]"
	}
	return "$" + n.Text + "$"
}
func (n Math) Copy() Node              { return n }
func (n Math) Range(f func(Node) bool) {}
func (n Math) Position() Position      { return n.Pos }

func (n Link) String() string { return "[" + String(n.Target...) + "](" + n.URL + ")" }
func (n Link) Copy() Node {
	return Link{Attr: n.Attr.copy(), Target: copyNodes(n.Target), URL: n.URL, Title: n.Title, Pos: n.Pos}
}
func (n Link) Range(f func(Node) bool) { rangeChildren(n.Target, f) }
func (n Link) Position() Position      { return n.Pos }

func (n Image) String() string { return "![" + String(n.Target...) + "](" + n.URL + ")" }
func (n Image) Copy() Node {
	return Image{Attr: n.Attr.copy(), Target: copyNodes(n.Target), URL: n.URL, Title: n.Title, Pos: n.Pos}
}
func (n Image) Range(f func(Node) bool) { rangeChildren(n.Target, f) }
func (n Image) Position() Position      { return n.Pos }

func (n Cite) String() string { return String(n.Fallback...) }
func (n Cite) Copy() Node {
	cites := make([]Citation, len(n.Citations))
	for i, c := range n.Citations {
		cites[i] = Citation{ID: c.ID, Prefix: copyNodes(c.Prefix), Suffix: copyNodes(c.Suffix), Mode: c.Mode, NoteNum: c.NoteNum, Hash: c.Hash}
	}
	return Cite{Citations: cites, Fallback: copyNodes(n.Fallback), Pos: n.Pos}
}
func (n Cite) Range(f func(Node) bool) { rangeChildren(n.Fallback, f) }
func (n Cite) Position() Position      { return n.Pos }

func (n Note) String() string { return String(n.Content...) }
func (n Note) Copy() Node     { return Note{Content: copyNodes(n.Content), Pos: n.Pos} }
func (n Note) Range(f func(Node) bool) { rangeChildren(n.Content, f) }
func (n Note) Position() Position      { return n.Pos }

func (n RawInline) String() string          { return n.Text }
func (n RawInline) Copy() Node              { return n }
func (n RawInline) Range(f func(Node) bool) {}
func (n RawInline) Position() Position      { return n.Pos }

func (n Span) String() string { return String(n.Inlines...) }
func (n Span) Copy() Node     { return Span{Attr: n.Attr.copy(), Inlines: copyNodes(n.Inlines), Pos: n.Pos} }
func (n Span) Range(f func(Node) bool) { rangeChildren(n.Inlines, f) }
func (n Span) Position() Position      { return n.Pos }

func (n Para) String() string          { return String(n.Inlines...) + "\n\n" }
func (n Para) Copy() Node              { return Para{Inlines: copyNodes(n.Inlines), Pos: n.Pos} }
func (n Para) Range(f func(Node) bool) { rangeChildren(n.Inlines, f) }
func (n Para) Position() Position      { return n.Pos }

func (n Plain) String() string          { return String(n.Inlines...) }
func (n Plain) Copy() Node              { return Plain{Inlines: copyNodes(n.Inlines), Pos: n.Pos} }
func (n Plain) Range(f func(Node) bool) { rangeChildren(n.Inlines, f) }
func (n Plain) Position() Position      { return n.Pos }

func (n Header) String() string {
	return strings.Repeat("#", n.Level) + " " + String(n.Inlines...) + "\n\n"
}
func (n Header) Copy() Node {
	return Header{Level: n.Level, Attr: n.Attr.copy(), Inlines: copyNodes(n.Inlines), Pos: n.Pos}
}
func (n Header) Range(f func(Node) bool) { rangeChildren(n.Inlines, f) }
func (n Header) Position() Position      { return n.Pos }

func (n BulletList) String() string {
	var b strings.Builder
	for _, item := range n.Items {
		b.WriteString("- " + String(item...) + "\n")
	}
	return b.String()
}
func (n BulletList) Copy() Node {
	items := make([]Blocks, len(n.Items))
	for i, it := range n.Items {
		items[i] = copyNodes(it)
	}
	return BulletList{Items: items, Pos: n.Pos}
}
func (n BulletList) Range(f func(Node) bool) {
	for _, item := range n.Items {
		rangeChildren(item, f)
	}
}
func (n BulletList) Position() Position { return n.Pos }

func (n OrderedList) String() string {
	var b strings.Builder
	for i, item := range n.Items {
		b.WriteString(strconv.Itoa(n.Start+i) + ". " + String(item...) + "\n")
	}
	return b.String()
}
func (n OrderedList) Copy() Node {
	items := make([]Blocks, len(n.Items))
	for i, it := range n.Items {
		items[i] = copyNodes(it)
	}
	return OrderedList{Start: n.Start, Style: n.Style, Delim: n.Delim, Items: items, Pos: n.Pos}
}
func (n OrderedList) Range(f func(Node) bool) {
	for _, item := range n.Items {
		rangeChildren(item, f)
	}
}
func (n OrderedList) Position() Position { return n.Pos }

func (n DefinitionList) String() string {
	var b strings.Builder
	for _, item := range n.Items {
		b.WriteString(String(item.Term...) + "\n")
		for _, def := range item.Definition {
			b.WriteString(String(def...) + "\n")
		}
	}
	return b.String()
}
func (n DefinitionList) Copy() Node {
	items := make([]DefinitionItem, len(n.Items))
	for i, it := range n.Items {
		defs := make([]Blocks, len(it.Definition))
		for j, d := range it.Definition {
			defs[j] = copyNodes(d)
		}
		items[i] = DefinitionItem{Term: copyNodes(it.Term), Definition: defs}
	}
	return DefinitionList{Items: items, Pos: n.Pos}
}
func (n DefinitionList) Range(f func(Node) bool) {
	for _, item := range n.Items {
		rangeChildren(item.Term, f)
		for _, def := range item.Definition {
			rangeChildren(def, f)
		}
	}
}
func (n DefinitionList) Position() Position { return n.Pos }

func (n CodeBlock) String() string { return "```\n" + n.Text + "\n```\n" }
func (n CodeBlock) Copy() Node     { return CodeBlock{Attr: n.Attr.copy(), Text: n.Text, Pos: n.Pos} }
func (n CodeBlock) Range(f func(Node) bool) {}
func (n CodeBlock) Position() Position      { return n.Pos }

func (n BlockQuote) String() string          { return String(n.Blocks...) }
func (n BlockQuote) Copy() Node              { return BlockQuote{Blocks: copyNodes(n.Blocks), Pos: n.Pos} }
func (n BlockQuote) Range(f func(Node) bool) { rangeChildren(n.Blocks, f) }
func (n BlockQuote) Position() Position      { return n.Pos }

func (n HorizontalRule) String() string          { return "---\n" }
func (n HorizontalRule) Copy() Node              { return n }
func (n HorizontalRule) Range(f func(Node) bool) {}
func (n HorizontalRule) Position() Position      { return n.Pos }

func (n Table) String() string { return String(n.Caption...) }
func (n Table) Copy() Node {
	return Table{
		Caption: copyNodes(n.Caption),
		Aligns:  append([]Alignment{}, n.Aligns...),
		Widths:  append([]float64{}, n.Widths...),
		Header:  copyCells(n.Header),
		Rows: func() [][]Cell {
			rows := make([][]Cell, len(n.Rows))
			for i, r := range n.Rows {
				rows[i] = copyCells(r)
			}
			return rows
		}(),
		Pos: n.Pos,
	}
}
func (n Table) Range(f func(Node) bool) {
	rangeChildren(n.Caption, f)
	for _, c := range n.Header {
		rangeChildren(c.Blocks, f)
	}
	for _, row := range n.Rows {
		for _, c := range row {
			rangeChildren(c.Blocks, f)
		}
	}
}
func (n Table) Position() Position { return n.Pos }

func (n Div) String() string          { return String(n.Blocks...) }
func (n Div) Copy() Node              { return Div{Attr: n.Attr.copy(), Blocks: copyNodes(n.Blocks), Pos: n.Pos} }
func (n Div) Range(f func(Node) bool) { rangeChildren(n.Blocks, f) }
func (n Div) Position() Position      { return n.Pos }

func (n RawBlock) String() string          { return n.Text }
func (n RawBlock) Copy() Node              { return n }
func (n RawBlock) Range(f func(Node) bool) {}
func (n RawBlock) Position() Position      { return n.Pos }
