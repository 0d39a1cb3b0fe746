package latex

import (
	"os"

	"gopkg.in/yaml.v3"
)

// optionsFile is the on-disk shape of a reader config, loaded via
// LoadOptionsYAML (DOMAIN STACK: gopkg.in/yaml.v3). It only covers the
// plain-data fields of Options; the injected funcs (ReadFile, Log,
// BibliographyCache) keep their New() defaults.
type optionsFile struct {
	Extensions struct {
		RawTeX          bool `yaml:"raw_tex"`
		LatexMacros     bool `yaml:"latex_macros"`
		Smart           bool `yaml:"smart"`
		LiterateHaskell bool `yaml:"literate_haskell"`
	} `yaml:"extensions"`
	DefaultImageExtension string   `yaml:"default_image_extension"`
	InputSources          []string `yaml:"input_sources"`
	ResourcePath          []string `yaml:"resource_path"`
	TexInputs             []string `yaml:"tex_inputs"`
}

// LoadOptionsYAML reads a YAML config file at path and applies it on top of
// New()'s defaults, mirroring how a host pipeline would configure the
// reader before a batch of Parse calls.
func LoadOptionsYAML(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f optionsFile
	// seed the extension flags so keys absent from the file keep New()'s defaults.
	d := DefaultExtensions()
	f.Extensions.RawTeX, f.Extensions.LatexMacros = d.RawTeX, d.LatexMacros
	f.Extensions.Smart, f.Extensions.LiterateHaskell = d.Smart, d.LiterateHaskell
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	o := New()
	o.Extensions = Extensions{
		RawTeX:          f.Extensions.RawTeX,
		LatexMacros:     f.Extensions.LatexMacros,
		Smart:           f.Extensions.Smart,
		LiterateHaskell: f.Extensions.LiterateHaskell,
	}
	if f.DefaultImageExtension != "" {
		o.DefaultImageExtension = f.DefaultImageExtension
	}
	if len(f.InputSources) > 0 {
		o.InputSources = f.InputSources
	}
	if len(f.ResourcePath) > 0 {
		o.ResourcePath = f.ResourcePath
	}
	if len(f.TexInputs) > 0 {
		o.TexInputs = f.TexInputs
	}
	return o, nil
}
