package latex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawLaTeXInlineParsesOneCommand(t *testing.T) {
	o := New()
	host := NewHostMacros()
	n, consumed, ok := RawLaTeXInline(o, host, `\textbf{bold} trailing`)
	require.True(t, ok)
	assert.Equal(t, len(`\textbf{bold}`), consumed)
	strong, ok := n.(Strong)
	require.True(t, ok)
	assert.Equal(t, "bold", String(strong.Inlines...))
}

func TestRawLaTeXInlineFailsOnPlainText(t *testing.T) {
	o := New()
	host := NewHostMacros()
	_, _, ok := RawLaTeXInline(o, host, `just plain text`)
	assert.False(t, ok)
}

func TestRawLaTeXBlockParsesMacroDefinitionAndMergesIntoHost(t *testing.T) {
	o := New()
	host := NewHostMacros()
	_, _, ok := RawLaTeXBlock(o, host, `\newcommand{\greet}[1]{Hello, #1!}`)
	require.True(t, ok)

	out := ApplyMacros(o, host, `\greet{Ada}`)
	assert.Equal(t, "Hello, Ada!", out)
}

func TestApplyMacrosIsNoOpWhenExtensionDisabled(t *testing.T) {
	o := New()
	o.Extensions.LatexMacros = false
	host := NewHostMacros()
	out := ApplyMacros(o, host, `\greet{Ada}`)
	assert.Equal(t, `\greet{Ada}`, out)
}
