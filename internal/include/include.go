// Package include implements the "insertIncludedFile" service: it loads an
// include/input/subfile/lstinputlisting target's bytes, deduplicating
// concurrent requests for the same resolved path with singleflight, and
// checks a caller-supplied include stack for cycles (§4.5, §5).
package include

import (
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Loader merges concurrent reads of the same resolved path: calls that
// arrive while a read of that path is in flight share its result. Calls
// that do not overlap each read the file again; nothing is cached. A
// document's include-file stack (parserState in the latex package) owns
// cycle detection; Loader only owns the in-flight read merging.
type Loader struct {
	group singleflight.Group
}

func NewLoader() *Loader { return &Loader{} }

// Load runs read() for path; calls for the same path made while one is in
// flight wait for it and share its result.
func (l *Loader) Load(path string, read func(string) ([]byte, error)) ([]byte, error) {
	v, err, _ := l.group.Do(path, func() (interface{}, error) {
		return read(path)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// CycleError is returned when the requested path is already present in the
// caller-supplied include stack.
type CycleError struct {
	Path  string
	Stack []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("include cycle detected: %s already present in stack %v", e.Path, e.Stack)
}

// CheckCycle reports a CycleError if path already appears in stack.
func CheckCycle(stack []string, path string) error {
	for _, p := range stack {
		if p == path {
			return &CycleError{Path: path, Stack: append([]string{}, stack...)}
		}
	}
	return nil
}
