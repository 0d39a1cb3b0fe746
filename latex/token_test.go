package latex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeRoundTrip(t *testing.T) {
	inputs := []string{
		`\textbf{hello world}`,
		"a % a comment\nb",
		`\emph{nested \textbf{bold}} plain`,
		"100% not a comment is wrong but #1 is an arg",
		`\, \# \\`,
	}
	for _, in := range inputs {
		toks := tokenize(in)
		assert.Equal(t, in, rawText(toks), "round trip for %q", in)
	}
}

func TestTokenizeControlSeqName(t *testing.T) {
	toks := tokenize(`\textbf{x}`)
	assert.Equal(t, TokControlSeq, toks[0].Kind)
	assert.Equal(t, "textbf", toks[0].Name)
	assert.True(t, toks[0].IsControlSeq("textbf"))
}

func TestTokenizeControlSymbolSingleChar(t *testing.T) {
	toks := tokenize(`\#`)
	assert.Equal(t, TokControlSeq, toks[0].Kind)
	assert.Equal(t, "#", toks[0].Name)
}

func TestTokenizeArgToken(t *testing.T) {
	toks := tokenize(`#1#23`)
	assert.Equal(t, TokArg, toks[0].Kind)
	assert.Equal(t, 1, toks[0].ArgNum)
	assert.Equal(t, TokArg, toks[1].Kind)
	assert.Equal(t, 23, toks[1].ArgNum)
}

func TestTokenizeEscapes(t *testing.T) {
	toks := tokenize(`^^4d^^@`)
	assert.Equal(t, TokEsc2, toks[0].Kind)
	assert.Equal(t, 'M', decodeEsc(toks[0]))
	assert.Equal(t, TokEsc1, toks[1].Kind)
	assert.Equal(t, '@'-64, decodeEsc(toks[1]))
}

func TestTokenizeCommentConsumesToNewline(t *testing.T) {
	toks := tokenize("foo % trailing comment\nbar")
	var comment Token
	for _, tok := range toks {
		if tok.Kind == TokComment {
			comment = tok
			break
		}
	}
	assert.Equal(t, "% trailing comment", comment.Raw)
}

func TestTokenizeTrailingBackslashIsSymbol(t *testing.T) {
	toks := tokenize(`\`)
	assert.Len(t, toks, 1)
	assert.Equal(t, TokSymbol, toks[0].Kind)
	assert.Equal(t, `\`, toks[0].Raw)
}
