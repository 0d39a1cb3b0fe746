package latex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseString(t *testing.T, src string) *Document {
	t.Helper()
	d := New().Silent().Parse(strings.NewReader(src), "test.tex")
	require.False(t, d.HasErrors(), "unexpected errors: %v", d.Errors)
	return d
}

func TestParseSimpleParagraph(t *testing.T) {
	d := parseString(t, `Hello \textbf{world}.`)
	require.Len(t, d.Nodes, 1)
	para, ok := d.Nodes[0].(Para)
	require.True(t, ok)
	assert.Equal(t, "Hello **world**.", String(para.Inlines...))
}

func TestParseSectionRegistersIdent(t *testing.T) {
	d := parseString(t, `\section{Intro}\section{Intro}`)
	require.Len(t, d.Nodes, 2)
	h1 := d.Nodes[0].(Header)
	h2 := d.Nodes[1].(Header)
	assert.Equal(t, "intro", h1.Attr.ID)
	assert.Equal(t, "intro-1", h2.Attr.ID)
	assert.Equal(t, 1, h1.Level)
}

func TestMacroFixedArityExpansion(t *testing.T) {
	d := parseString(t, `\newcommand{\greet}[1]{Hello, #1!}\greet{Ada}`)
	require.Len(t, d.Nodes, 1)
	assert.Equal(t, "Hello, Ada!", String(d.Nodes[0].(Para).Inlines...))
}

func TestMacroFixedArityDefaultArg(t *testing.T) {
	d := parseString(t, `\newcommand{\greet}[1][World]{Hello, #1!}\greet`)
	assert.Equal(t, "Hello, World!", String(d.Nodes[0].(Para).Inlines...))
}

func TestMacroFixedArityOverriddenDefaultArg(t *testing.T) {
	d := parseString(t, `\newcommand{\greet}[1][World]{Hello, #1!}\greet[Ada]`)
	assert.Equal(t, "Hello, Ada!", String(d.Nodes[0].(Para).Inlines...))
}

func TestMacroPatternDefSimpleBraced(t *testing.T) {
	d := parseString(t, `\def\dup#1{#1#1}\dup{hi}`)
	assert.Equal(t, "hihi", String(d.Nodes[0].(Para).Inlines...))
}

func TestMacroPatternDefDelimitedArgs(t *testing.T) {
	d := parseString(t, `\def\pair#1,#2.{(#1 and #2)}\pair x,y.`)
	assert.Contains(t, String(d.Nodes[0].(Para).Inlines...), "x and y")
}

// TestMacroRecursionBoundTriggersFatalError covers a macro expanding to a
// self-invocation directly (§8 scenario 7): tryExpandMacroAtCursor re-checks
// the spliced head after every expansion, so \a's repeated re-expansion to
// \a is caught by the same expansionDepth bound as genuine nested recursion.
func TestMacroRecursionBoundTriggersFatalError(t *testing.T) {
	d := New().Silent().Parse(strings.NewReader(`\newcommand{\a}{\a}\a`), "test.tex")
	require.True(t, d.HasErrors())
	errs := d.GetErrorByType(ErrorTypeMacroLoop)
	require.Len(t, errs, 1)
}

// TestMacroExpansionContinuesWhenBodyStartsWithAnotherMacro covers a macro
// body that begins with an invocation of a different macro: the fixpoint
// loop in tryExpandMacroAtCursor must keep re-expanding the spliced head
// instead of leaving \bar at the cursor to be dispatched as an unknown
// command.
func TestMacroExpansionContinuesWhenBodyStartsWithAnotherMacro(t *testing.T) {
	d := parseString(t, `\newcommand\foo{\bar}\newcommand\bar{hi}\foo`)
	require.Len(t, d.Nodes, 1)
	assert.Equal(t, "hi", String(d.Nodes[0].(Para).Inlines...))
}

func TestMacroAlreadyDefinedError(t *testing.T) {
	d := New().Silent().Parse(strings.NewReader(`\newcommand{\x}{a}\newcommand{\x}{b}`), "test.tex")
	errs := d.GetErrorByType(ErrorTypeMacroAlreadyDefined)
	assert.Len(t, errs, 1)
}

func TestEnvironmentMacroDefinition(t *testing.T) {
	d := parseString(t, `\newenvironment{note}{[}{]}\begin{note}hi\end{note}`)
	require.Len(t, d.Nodes, 1)
	assert.Contains(t, String(d.Nodes...), "hi")
}

func TestListItemize(t *testing.T) {
	d := parseString(t, `\begin{itemize}\item one\item two\end{itemize}`)
	require.Len(t, d.Nodes, 1)
	list, ok := d.Nodes[0].(BulletList)
	require.True(t, ok)
	require.Len(t, list.Items, 2)
}

func TestSectionIsHeaderLevelOne(t *testing.T) {
	d := parseString(t, `\section{Intro}`)
	require.Len(t, d.Nodes, 1)
	h := d.Nodes[0].(Header)
	assert.Equal(t, 1, h.Level)
}

func TestChapterAndSectionAreDistinctLevels(t *testing.T) {
	d := parseString(t, `\chapter{One}\section{Two}`)
	require.Len(t, d.Nodes, 2)
	assert.Equal(t, 1, d.Nodes[0].(Header).Level)
	assert.Equal(t, 2, d.Nodes[1].(Header).Level)
}

func TestHeaderLevelNormalizationLiftsNegativePartLevel(t *testing.T) {
	d := parseString(t, `\part{Only}`)
	require.Len(t, d.Nodes, 1)
	h := d.Nodes[0].(Header)
	assert.Equal(t, 1, h.Level)
}

func TestSubsectionAloneIsNotLiftedToOne(t *testing.T) {
	// normalizeHeaderLevels only lifts levels that dip below 1 (e.g. a
	// lone \part); a document whose outermost sectioning happens to be
	// \subsection keeps its own level and is not compressed.
	d := parseString(t, `\subsection{Only}`)
	require.Len(t, d.Nodes, 1)
	h := d.Nodes[0].(Header)
	assert.Equal(t, 2, h.Level)
}

func TestPreambleMacroVisibleInBody(t *testing.T) {
	d := parseString(t, "\\documentclass{article}\n\\newcommand{\\x}{Y}\n\\begin{document}\n\\x\n\\end{document}")
	require.Len(t, d.Nodes, 1)
	assert.Equal(t, "Y", String(d.Nodes[0].(Para).Inlines...))
}

func TestCitationParsing(t *testing.T) {
	d := parseString(t, `See \citep{foo,bar}.`)
	para := d.Nodes[0].(Para)
	var found bool
	for _, n := range para.Inlines {
		if c, ok := n.(Cite); ok {
			found = true
			require.Len(t, c.Citations, 2)
			assert.Equal(t, "foo", c.Citations[0].ID)
			assert.Equal(t, "bar", c.Citations[1].ID)
		}
	}
	assert.True(t, found, "expected a Cite node")
}

func TestTableCaptionDeferredResolution(t *testing.T) {
	src := `\begin{table}
\begin{tabular}{cc}
\hline
a & b \\
1 & 2 \\
\end{tabular}
\caption{A caption}
\label{tab:x}
\end{table}`
	d := parseString(t, src)
	require.Len(t, d.Nodes, 1)
	div, ok := d.Nodes[0].(Div)
	require.True(t, ok, "expected rewritten Div, got %T", d.Nodes[0])
	var tbl Table
	var sawTable, sawLabel bool
	for _, n := range div.Blocks {
		switch v := n.(type) {
		case Table:
			tbl = v
			sawTable = true
		case Div:
			if v.Attr.ID == "tab:x" {
				sawLabel = true
			}
		}
	}
	require.True(t, sawTable)
	require.True(t, sawLabel, "expected a bare label Div for tab:x")
	assert.Equal(t, "A caption", String(tbl.Caption...))
}

func TestAffiliationSuperscriptsAttachToMatchingInstRef(t *testing.T) {
	src := `\author{Alice \inst{1} \and Bob \inst{2}}\institute{First \and Second}`
	d := parseString(t, src)
	require.Len(t, d.Meta.Authors, 2)
	require.Len(t, d.Meta.Affiliations, 2)

	alice := String(d.Meta.Authors[0]...)
	bob := String(d.Meta.Authors[1]...)
	// affiliations are numbered by declaration position, so the institute
	// declared first (First, \inst abbrev "1") is numbered 1 and the one
	// declared last (Second, \inst abbrev "2") is numbered 2.
	assert.Contains(t, alice, "1")
	assert.Contains(t, bob, "2")
	allAffils := String(d.Meta.Affiliations[0]...) + String(d.Meta.Affiliations[1]...)
	assert.Contains(t, allAffils, "First")
	assert.Contains(t, allAffils, "Second")
}
