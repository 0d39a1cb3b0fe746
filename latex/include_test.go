package latex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncludeSplicesFileContentsIntoStream(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chapter.tex"), []byte(`included text`), 0o644))

	o := New()
	o.TexInputs = []string{dir}
	d := o.Silent().Parse(strings.NewReader(`before \include{chapter} after`), "main.tex")
	require.False(t, d.HasErrors())
	assert.Contains(t, String(d.Nodes...), "included text")
}

func TestIncludeCycleIsDetected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.tex"), []byte(`\include{b}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.tex"), []byte(`\include{a}`), 0o644))

	o := New()
	o.TexInputs = []string{dir}
	d := o.Silent().Parse(strings.NewReader(`\include{a}`), "main.tex")
	errs := d.GetErrorByType(ErrorTypeIncludeCycle)
	assert.Len(t, errs, 1)
}

func TestLstinputlistingSlicesLineRange(t *testing.T) {
	dir := t.TempDir()
	content := "line1\nline2\nline3\nline4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "code.py"), []byte(content), 0o644))

	o := New()
	o.TexInputs = []string{dir}
	d := o.Silent().Parse(strings.NewReader(`\lstinputlisting[firstline=2,lastline=3]{code.py}`), "main.tex")
	require.False(t, d.HasErrors())
	require.Len(t, d.Nodes, 1)
	cb, ok := d.Nodes[0].(CodeBlock)
	require.True(t, ok)
	assert.Equal(t, "line2\nline3", cb.Text)
}
