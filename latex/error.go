package latex

import (
	"fmt"
	"io"
)

// ErrorType classifies a ParseError, per §7's taxonomy of recoverable
// warnings and unrecoverable failures.
type ErrorType string

const (
	ErrorTypeInvalidSyntax         ErrorType = "invalid_syntax"
	ErrorTypeUnexpectedToken       ErrorType = "unexpected_token"
	ErrorTypeInvalidStructure      ErrorType = "invalid_structure"
	ErrorTypeValidation            ErrorType = "validation_error"
	ErrorTypeTokenization          ErrorType = "tokenization_error"
	ErrorTypeIO                    ErrorType = "io_error"
	ErrorTypeMacroLoop             ErrorType = "macro_loop"
	ErrorTypeSkippedContent        ErrorType = "skipped_content"
	ErrorTypeMacroAlreadyDefined   ErrorType = "macro_already_defined"
	ErrorTypeUnexpectedEndOfDoc    ErrorType = "unexpected_end_of_document"
	ErrorTypeCouldNotLoadInclude   ErrorType = "could_not_load_include_file"
	ErrorTypeParsingUnescaped      ErrorType = "parsing_unescaped"
	ErrorTypeIncludeCycle          ErrorType = "include_cycle"
)

// ParseError is a structured error with detailed position information,
// following the shape of go-org's error.go almost verbatim.
type ParseError struct {
	Type    ErrorType
	Message string
	File    string

	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int

	Token   Token
	Context string

	Cause error
}

func (e *ParseError) Error() string {
	location := e.locationString()
	msg := e.Message
	if location != "" {
		msg = location + ": " + msg
	}
	if e.Context != "" {
		msg += " (hint: " + e.Context + ")"
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Cause }

func (e *ParseError) locationString() string {
	var loc string
	if e.File != "" {
		loc = e.File + ":"
	}
	if e.StartLine == e.EndLine {
		if e.StartCol == e.EndCol {
			loc += fmt.Sprintf("%d:%d", e.StartLine, e.StartCol)
		} else {
			loc += fmt.Sprintf("%d:%d-%d", e.StartLine, e.StartCol, e.EndCol)
		}
	} else {
		loc += fmt.Sprintf("%d:%d-%d:%d", e.StartLine, e.StartCol, e.EndLine, e.EndCol)
	}
	return loc
}

func (e *ParseError) String() string {
	s := fmt.Sprintf("%s (type: %s)", e.Error(), e.Type)
	if e.Cause != nil {
		s += fmt.Sprintf("\n  caused by: %v", e.Cause)
	}
	return s
}

func newParseError(typ ErrorType, message, file string, pos Position, tok Token, cause error) *ParseError {
	return &ParseError{
		Type:      typ,
		Message:   message,
		File:      file,
		StartLine: pos.StartLine,
		EndLine:   pos.EndLine,
		StartCol:  pos.StartColumn,
		EndCol:    pos.EndColumn,
		Token:     tok,
		Cause:     cause,
	}
}

// AddError appends a structured error to the document. Used both directly
// on *Document (before a parserState exists, e.g. a top-level IO failure)
// and internally by *parserState via addError below.
func (d *Document) AddError(typ ErrorType, message string, pos Position, tok Token, cause error) {
	d.Errors = append(d.Errors, newParseError(typ, message, d.Path, pos, tok, cause))
}

func (d *Document) HasErrors() bool { return len(d.Errors) > 0 }

func (d *Document) ErrorCount() int { return len(d.Errors) }

func (d *Document) GetErrorByType(typ ErrorType) []*ParseError {
	result := make([]*ParseError, 0)
	for _, err := range d.Errors {
		if err.Type == typ {
			result = append(result, err)
		}
	}
	return result
}

// WriteErrors writes all document errors to the provided writer, one per line.
func (d *Document) WriteErrors(w io.Writer) error {
	for _, err := range d.Errors {
		if _, writeErr := fmt.Fprintln(w, err.Error()); writeErr != nil {
			return writeErr
		}
	}
	return nil
}

// addError is the parserState-side sink used throughout tokenization and
// parsing, before results are copied into the exported Document.Errors
// (§3.3: "ordered list of log messages").
func (st *parserState) addError(typ ErrorType, message string, pos Position, tok Token, cause error) {
	st.errors = append(st.errors, newParseError(typ, message, st.path, pos, tok, cause))
}

// macroLoopPanic is thrown by the macro engine when expansion exceeds the
// recursion bound (§4.3, §5) and caught in Options.Parse's recover, turning
// it into an ErrorTypeMacroLoop ParseError that aborts the parse (§7:
// MacroLoop is unrecoverable).
type macroLoopPanic struct {
	name string
	pos  Position
}

func panicMacroLoop(name string, pos Position) {
	panic(macroLoopPanic{name: name, pos: pos})
}
