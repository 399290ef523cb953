package jregex

import (
	"errors"
	"fmt"
)

// PatternError is returned for every pattern that cannot be compiled, be it
// a textual syntax error or an invalid pattern tree.
type PatternError struct {
	// Pattern is the pattern text. It is empty for errors returned by
	// CompileTree.
	Pattern string
	Msg     string
	// Err is the underlying *syntax.Error, if any.
	Err error
}

func (e *PatternError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Pattern == "" {
		return "jregex: " + msg
	}
	return fmt.Sprintf("jregex: %s in pattern %q", msg, e.Pattern)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

var _ error = (*PatternError)(nil)

func newPatternError(msg string) *PatternError {
	return &PatternError{Msg: msg}
}

// ErrTimeout is wrapped by the error a search returns when it runs out of
// its step or time budget. See Limits.
var ErrTimeout = errors.New("jregex: search budget exceeded")

// TemplateError reports an invalid replacement template.
type TemplateError struct {
	Template string
	Pos      int
	Msg      string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("jregex: replacement %q at index %d: %s", e.Template, e.Pos, e.Msg)
}

var _ error = (*TemplateError)(nil)

func newTemplateError(tmpl string, pos int, msg string) *TemplateError {
	return &TemplateError{Template: tmpl, Pos: pos, Msg: msg}
}
