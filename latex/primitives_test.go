package latex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(src string) *parserState {
	st := newParserState(New(), "test.tex")
	st.tokens = tokenize(src)
	return st
}

func TestBracedConsumesBalancedGroup(t *testing.T) {
	st := newTestState(`{a{b}c}tail`)
	toks, ok := st.braced()
	require.True(t, ok)
	assert.Equal(t, "a{b}c", rawText(toks))
	assert.Equal(t, "tail", rawText(st.tokens[st.pos:]))
}

func TestBracedMissingClosingBraceLogsError(t *testing.T) {
	st := newTestState(`{unterminated`)
	_, ok := st.braced()
	require.True(t, ok)
	require.Len(t, st.errors, 1)
	assert.Equal(t, ErrorTypeUnexpectedEndOfDoc, st.errors[0].Type)
}

func TestBracketedConsumesBalancedGroup(t *testing.T) {
	st := newTestState(`[htbp]rest`)
	toks, ok := st.bracketed()
	require.True(t, ok)
	assert.Equal(t, "htbp", rawText(toks))
}

func TestBracketedFailsWithoutOpeningBracket(t *testing.T) {
	st := newTestState(`no brackets here`)
	_, ok := st.bracketed()
	assert.False(t, ok)
	assert.Equal(t, 0, st.pos)
}

func TestGroupedTokensUnwrapsRedundantNesting(t *testing.T) {
	toks := tokenize(`{{a,b}}`)
	inner := groupedTokens(toks)
	assert.Equal(t, "a,b", rawText(inner))
}

func TestArgValuePrefersOneBracedGroupOverSingleToken(t *testing.T) {
	st := newTestState(`{hello} x`)
	toks, ok := st.argValue()
	require.True(t, ok)
	assert.Equal(t, "hello", rawText(toks))
}

func TestArgValueFallsBackToSingleToken(t *testing.T) {
	st := newTestState(`x rest`)
	toks, ok := st.argValue()
	require.True(t, ok)
	assert.Equal(t, "x", rawText(toks))
}
