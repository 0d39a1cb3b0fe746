package latex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterIdentDisambiguatesCollisions(t *testing.T) {
	st := newParserState(New(), "test.tex")
	assert.Equal(t, "intro", st.registerIdent("intro"))
	assert.Equal(t, "intro-1", st.registerIdent("intro"))
	assert.Equal(t, "intro-2", st.registerIdent("intro"))
}

func TestRegisterIdentDefaultsEmptyIDToSection(t *testing.T) {
	st := newParserState(New(), "test.tex")
	assert.Equal(t, "section", st.registerIdent(""))
}

func TestCloneCopiesMacrosIndependently(t *testing.T) {
	st := newParserState(New(), "test.tex")
	st.macros["x"] = &Macro{Arity: 0, FixedBody: []Token{{Kind: TokWord, Raw: "a"}}}

	child := st.clone()
	child.macros["y"] = &Macro{Arity: 0, FixedBody: []Token{{Kind: TokWord, Raw: "b"}}}

	_, stHasY := st.macros["y"]
	assert.False(t, stHasY, "defining a macro in a clone must not leak back without an explicit merge")

	st.mergeMacrosFrom(child)
	_, stHasYAfterMerge := st.macros["y"]
	assert.True(t, stHasYAfterMerge)
}

func TestMergeMacrosFromDoesNotOverwriteExisting(t *testing.T) {
	st := newParserState(New(), "test.tex")
	original := &Macro{Arity: 1}
	st.macros["x"] = original

	child := st.clone()
	child.macros["x"] = &Macro{Arity: 2}

	st.mergeMacrosFrom(child)
	assert.Same(t, original, st.macros["x"])
}
