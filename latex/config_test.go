package latex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOptionsYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reader.yaml")
	content := `
extensions:
  raw_tex: true
  latex_macros: false
  smart: false
default_image_extension: .png
tex_inputs:
  - figures
  - chapters
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	o, err := LoadOptionsYAML(path)
	require.NoError(t, err)
	assert.True(t, o.Extensions.RawTeX)
	assert.False(t, o.Extensions.LatexMacros)
	assert.False(t, o.Extensions.Smart)
	assert.Equal(t, ".png", o.DefaultImageExtension)
	assert.Equal(t, []string{"figures", "chapters"}, o.TexInputs)
	assert.NotNil(t, o.ReadFile, "injected funcs keep New()'s defaults")
}

func TestLoadOptionsYAMLMissingFile(t *testing.T) {
	_, err := LoadOptionsYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
