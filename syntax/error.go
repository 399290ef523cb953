package syntax

import "fmt"

// Error describes a problem in pattern text.
type Error struct {
	// Pos is the index, in code points, where the problem was detected.
	Pos int
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s near index %d", e.Msg, e.Pos)
}

var _ error = (*Error)(nil)

func (p *parser) errorf(format string, args ...any) *Error {
	return &Error{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}
