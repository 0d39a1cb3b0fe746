package latex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerbatimEnvironmentPreservesRawText(t *testing.T) {
	d := parseString(t, "\\begin{verbatim}\\textbf{not a command}\\end{verbatim}")
	require.Len(t, d.Nodes, 1)
	cb, ok := d.Nodes[0].(CodeBlock)
	require.True(t, ok)
	assert.Equal(t, `\textbf{not a command}`, cb.Text)
}

func TestMathEnvironmentProducesDisplayMath(t *testing.T) {
	d := parseString(t, `\begin{equation}x = y\end{equation}`)
	require.Len(t, d.Nodes, 1)
	para, ok := d.Nodes[0].(Para)
	require.True(t, ok)
	require.Len(t, para.Inlines, 1)
	m, ok := para.Inlines[0].(Math)
	require.True(t, ok)
	assert.Equal(t, DisplayMath, m.Kind)
	assert.Equal(t, "x = y", m.Text)
}

func TestUnknownEnvironmentFallsThroughToGenericDiv(t *testing.T) {
	o := New()
	o.Extensions.RawTeX = false
	d := o.Silent().Parse(strings.NewReader(`\begin{somethingnobodyknows}hi\end{somethingnobodyknows}`), "test.tex")
	require.Len(t, d.Nodes, 1)
	div, ok := d.Nodes[0].(Div)
	require.True(t, ok)
	assert.Contains(t, String(div.Blocks...), "hi")
	errs := d.GetErrorByType(ErrorTypeSkippedContent)
	assert.Len(t, errs, 1)
}

func TestUnknownEnvironmentRawTeXPassthrough(t *testing.T) {
	o := New()
	o.Extensions.RawTeX = true
	d := o.Silent().Parse(strings.NewReader(`\begin{somethingnobodyknows}hi\end{somethingnobodyknows}`), "test.tex")
	require.Len(t, d.Nodes, 1)
	rb, ok := d.Nodes[0].(RawBlock)
	require.True(t, ok)
	assert.Contains(t, rb.Text, "somethingnobodyknows")
}

func TestThebibliographySplitsOnBibitem(t *testing.T) {
	src := `\begin{thebibliography}{99}
\bibitem{knuth74} Donald Knuth. Some book.
\bibitem{turing36} Alan Turing. Some paper.
\end{thebibliography}`
	d := parseString(t, src)
	require.Len(t, d.Nodes, 1)
	div, ok := d.Nodes[0].(Div)
	require.True(t, ok)
	require.Len(t, div.Blocks, 2)
	first, ok := div.Blocks[0].(Div)
	require.True(t, ok)
	assert.Equal(t, "bib-knuth74", first.Attr.ID)
	second, ok := div.Blocks[1].(Div)
	require.True(t, ok)
	assert.Equal(t, "bib-turing36", second.Attr.ID)
}

func TestTikzEnvironmentKeptAsRawBlock(t *testing.T) {
	d := parseString(t, `\begin{tikzpicture}\draw (0,0) -- (1,1);\end{tikzpicture}`)
	require.Len(t, d.Nodes, 1)
	rb, ok := d.Nodes[0].(RawBlock)
	require.True(t, ok)
	assert.Equal(t, "tikz", rb.Format)
	assert.Contains(t, rb.Text, "draw")
}
