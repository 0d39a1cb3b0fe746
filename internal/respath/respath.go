// Package respath resolves \include/\input/\lstinputlisting targets
// against a TEXINPUTS-style search path, with doublestar glob support for
// patterns like \graphicspath{{figures/**/}}.
package respath

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Resolve searches dirs in order for name, trying each of the supplied
// extensions in turn when name itself doesn't exist. name may contain a
// doublestar glob (`**`); the first match, in dir order then lexical glob
// order, wins.
func Resolve(dirs []string, name string, extensions []string) (string, bool) {
	candidates := append([]string{name}, withExtensions(name, extensions)...)
	for _, dir := range dirs {
		for _, cand := range candidates {
			full := filepath.Join(dir, cand)
			if containsGlobMeta(full) {
				matches, err := doublestar.FilepathGlob(full)
				if err == nil && len(matches) > 0 {
					return matches[0], true
				}
				continue
			}
			if info, err := os.Stat(full); err == nil && !info.IsDir() {
				return full, true
			}
		}
	}
	return "", false
}

func withExtensions(name string, extensions []string) []string {
	out := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		out = append(out, name+ext)
	}
	return out
}

func containsGlobMeta(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '*', '?', '[':
			return true
		}
	}
	return false
}
