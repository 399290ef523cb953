// Package jregex is a backtracking regular expression engine with the
// semantics of java.util.regex: leftmost-first alternation, greedy, lazy and
// possessive quantifiers, atomic groups, look-ahead and look-behind,
// backreferences, \G and character class set algebra.
//
// Patterns are compiled either from text (Compile) or from a tree built
// with package syntax (CompileTree). Input is a Go string; all reported
// offsets are byte offsets into it.
package jregex

import (
	"time"
	"unicode/utf8"

	"github.com/auvred/jregex/syntax"
)

// Flag is a bitmask of pattern options.
// The zero value corresponds to Pattern.compile(pattern) with no flags.
// Combine flags with bitwise OR, e.g. FlagCaseInsensitive|FlagMultiline.
type Flag uint16

const (
	// Case-insensitive matching (CASE_INSENSITIVE, "i").
	FlagCaseInsensitive Flag = 1 << iota

	// "^" and "$" match at line boundaries (MULTILINE, "m").
	FlagMultiline

	// "." matches line terminators (DOTALL, "s").
	FlagDotAll

	// Whitespace and "#" comments are ignored (COMMENTS, "x").
	FlagComments

	// The pattern text is matched literally (LITERAL).
	FlagLiteral

	// Reject look-behind bodies without a finite maximum length, as
	// java.util.regex does. Without it look-behind bodies of any length are
	// matched right to left.
	FlagBoundedLookbehind
)

func (f Flag) syntaxFlags() syntax.Flags {
	var sf syntax.Flags
	if f&FlagCaseInsensitive != 0 {
		sf |= syntax.CaseInsensitive
	}
	if f&FlagMultiline != 0 {
		sf |= syntax.Multiline
	}
	if f&FlagDotAll != 0 {
		sf |= syntax.DotAll
	}
	if f&FlagComments != 0 {
		sf |= syntax.Comments
	}
	return sf
}

// Limits bounds the work a single search may do. A zero field means no
// limit. A search that exceeds its budget returns an error wrapping
// ErrTimeout.
type Limits struct {
	// MaxSteps caps the number of machine instructions executed.
	MaxSteps int64
	// Timeout caps the wall-clock time of one search.
	Timeout time.Duration
}

// Regexp is a compiled pattern.
// It is safe for concurrent use by multiple goroutines.
// All methods on Regexp do not mutate internal state.
type Regexp struct {
	expr   string
	flags  Flag
	prog   *program
	limits Limits
}

// Compile parses a pattern written in java.util.regex syntax and returns a
// Regexp that can be applied against UTF-8 input.
//
// Every failure is reported as a *PatternError; textual problems wrap a
// *syntax.Error.
func Compile(pattern string, flags Flag) (*Regexp, error) {
	var root syntax.Node
	if flags&FlagLiteral != 0 {
		root = &syntax.Literal{Runes: []rune(pattern), FoldCase: flags&FlagCaseInsensitive != 0}
	} else {
		var err error
		root, err = syntax.Parse(pattern, flags.syntaxFlags())
		if err != nil {
			return nil, &PatternError{Pattern: pattern, Msg: "syntax error", Err: err}
		}
	}
	prog, err := compile(root, flags)
	if err != nil {
		if pe, ok := err.(*PatternError); ok {
			pe.Pattern = pattern
		}
		return nil, err
	}
	return &Regexp{expr: pattern, flags: flags, prog: prog}, nil
}

// MustCompile is like [Compile] but panics if the pattern cannot be compiled.
// It simplifies safe initialization of global variables holding compiled
// patterns.
func MustCompile(pattern string, flags Flag) *Regexp {
	re, err := Compile(pattern, flags)
	if err != nil {
		panic("jregex: MustCompile: " + err.Error())
	}
	return re
}

// CompileTree compiles a pattern tree built with package syntax. Only
// FlagBoundedLookbehind affects it; case-insensitivity, multiline anchors
// and the meaning of "." are already encoded in the nodes.
func CompileTree(root syntax.Node, flags Flag) (*Regexp, error) {
	prog, err := compile(root, flags)
	if err != nil {
		return nil, err
	}
	return &Regexp{expr: syntax.String(root), flags: flags, prog: prog}, nil
}

// String returns the source text used to compile the pattern. For a
// pattern compiled with CompileTree it is the tree rendered as text.
func (re *Regexp) String() string {
	return re.expr
}

// Flags returns the flags the pattern was compiled with.
func (re *Regexp) Flags() Flag {
	return re.flags
}

// NumGroups returns the number of capturing groups, not counting the
// whole match.
func (re *Regexp) NumGroups() int {
	return re.prog.numCaptures - 1
}

// GroupNames returns the names of the groups indexed by group number.
// Unnamed groups, and group 0, have the name "".
func (re *Regexp) GroupNames() []string {
	return append([]string(nil), re.prog.names...)
}

// GroupIndex returns the number of the group with the given name, or -1.
func (re *Regexp) GroupIndex(name string) int {
	if name == "" {
		return -1
	}
	for i, n := range re.prog.names {
		if n == name {
			return i
		}
	}
	return -1
}

// WithLimits returns a copy of re that applies l to every search. The copy
// shares the compiled program with re.
func (re *Regexp) WithLimits(l Limits) *Regexp {
	cp := *re
	cp.limits = l
	return &cp
}

// Limits returns the search budget of re.
func (re *Regexp) Limits() Limits {
	return re.limits
}

// run executes one search and reports how many instructions it took.
func (re *Regexp) run(input string, start, prevEnd int, mode searchMode) (*Match, int64, error) {
	return re.runState(re.prog.prefilter.newState(input), input, start, prevEnd, mode)
}

// runState is run with a prefilter state owned by the caller, so that a
// sequence of searches over one input converts and scans it only once.
// pf must have been made for input and may be nil.
func (re *Regexp) runState(pf *prefilterState, input string, start, prevEnd int, mode searchMode) (*Match, int64, error) {
	vm := newMachine(re.prog, input, start, prevEnd, mode)
	vm.prefilter = pf
	vm.maxSteps = re.limits.MaxSteps
	if re.limits.Timeout > 0 {
		vm.deadline = time.Now().Add(re.limits.Timeout)
	}
	vm.eval()
	if vm.err != nil {
		return nil, vm.steps, vm.err
	}
	if vm.notMatched {
		return nil, vm.steps, nil
	}
	return newMatch(input, vm.captures, re.prog.names), vm.steps, nil
}

func (re *Regexp) search(input string, start, prevEnd int, mode searchMode) (*Match, error) {
	m, _, err := re.run(input, start, prevEnd, mode)
	return m, err
}

func (re *Regexp) searchState(pf *prefilterState, input string, start, prevEnd int, mode searchMode) (*Match, error) {
	m, _, err := re.runState(pf, input, start, prevEnd, mode)
	return m, err
}

// alignStart moves pos back to the start of the code point it points into.
func alignStart(input string, pos int) int {
	for i := 0; i < utf8.UTFMax-1 && pos > 0 && pos < len(input); i++ {
		if utf8.RuneStart(input[pos]) {
			break
		}
		pos--
	}
	return pos
}

// nextStart returns the offset one code point after pos, or -1 at the end
// of input.
func nextStart(input string, pos int) int {
	if pos >= len(input) {
		return -1
	}
	_, size := utf8.DecodeRuneInString(input[pos:])
	return pos + size
}

// FindMatch returns the leftmost match of re in input.
// If no match is found, it returns nil and a nil error.
func (re *Regexp) FindMatch(input string) (*Match, error) {
	return re.search(input, 0, 0, searchUnanchored)
}

// FindMatchStartingAt returns the first match found at or after pos, where
// pos is a byte offset into input. \G matches at pos. If pos is out of
// range or no match is found, it returns nil.
func (re *Regexp) FindMatchStartingAt(input string, pos int) (*Match, error) {
	if pos < 0 || pos > len(input) {
		return nil, nil
	}
	pos = alignStart(input, pos)
	return re.search(input, pos, pos, searchUnanchored)
}

// FindNextMatch searches for the next match of re in the same input as a
// previously returned match.
//
// The search begins at the end of match, which is also where \G matches. If
// match was empty, the search starts one code point later so that the same
// empty match is not returned again.
//
// If match is nil, or if no further match is found, FindNextMatch returns nil.
func (re *Regexp) FindNextMatch(match *Match) (*Match, error) {
	if match == nil {
		return nil, nil
	}
	input := match.input
	start := match.End()
	if match.Start() == match.End() {
		start = nextStart(input, start)
		if start == -1 {
			return nil, nil
		}
	}
	return re.search(input, start, match.End(), searchUnanchored)
}

// MatchesFully reports whether the entire input matches re, as
// Matcher.matches does. Backtracking continues until a way through the
// pattern ends exactly at the end of input.
func (re *Regexp) MatchesFully(input string) (bool, error) {
	m, err := re.search(input, 0, 0, searchFull)
	return m != nil, err
}

// MatchFully is like MatchesFully but returns the match, so that its groups
// can be inspected.
func (re *Regexp) MatchFully(input string) (*Match, error) {
	return re.search(input, 0, 0, searchFull)
}

// MatchesPrefix reports whether a prefix of input matches re, as
// Matcher.lookingAt does.
func (re *Regexp) MatchesPrefix(input string) (bool, error) {
	m, err := re.search(input, 0, 0, searchAnchored)
	return m != nil, err
}

// MatchPrefix is like MatchesPrefix but returns the match.
func (re *Regexp) MatchPrefix(input string) (*Match, error) {
	return re.search(input, 0, 0, searchAnchored)
}
