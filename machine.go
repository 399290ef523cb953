package jregex

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/auvred/jregex/syntax"
)

type patternDirection = int

const (
	patternDirectionForward  patternDirection = 1
	patternDirectionBackward patternDirection = -1
)

type searchMode uint8

const (
	// Try every start offset from the search start onwards (Matcher.find).
	searchUnanchored searchMode = iota
	// The match must start at the search start (Matcher.lookingAt).
	searchAnchored
	// The match must start at the search start and end at the end of input
	// (Matcher.matches).
	searchFull
)

type backtrackingFrame struct {
	pc                   int
	pos                  int
	capStart, capLen     int
	stackStart, stackLen int
}

type stack[T any] []T

func (s *stack[T]) push(v T) { *s = append(*s, v) }

func (s *stack[T]) inc() { var z T; *s = append(*s, z) }

func (s *stack[T]) peekPtr() *T { return &(*s)[len(*s)-1] }

func (s *stack[T]) pop() T {
	i := len(*s) - 1
	v := (*s)[i]
	*s = (*s)[:i]
	return v
}

func (s *stack[T]) truncate(n int) { *s = (*s)[:n] }

type capture struct {
	start int
	end   int
}

type machine struct {
	byteCode []func(vm *machine)
	mode     searchMode

	// Program Counter. Index of current machine instruction
	pc    int
	input string
	pos   int
	// Where the previous match of the same find sequence ended; \G matches
	// only here.
	prevEnd int

	backtrackingStack stack[backtrackingFrame]
	capturesStack     []capture
	stacksStack       []int

	// Loop counters, saved positions, open group starts and commit markers
	// (heights of backtrackingStack)
	stack stack[int]

	captures []capture

	prefilter *prefilterState

	notMatched bool

	steps    int64
	maxSteps int64
	deadline time.Time
	err      error
}

func newMachine(p *program, input string, pos, prevEnd int, mode searchMode) *machine {
	vm := &machine{
		byteCode: p.byteCode,
		mode:     mode,
		input:    input,
		pos:      pos,
		prevEnd:  prevEnd,
		captures: make([]capture, p.numCaptures),
	}
	for i := range vm.captures {
		vm.captures[i].start = -1
		vm.captures[i].end = -1
	}
	return vm
}

func (vm *machine) atEnd() bool {
	return vm.pos >= len(vm.input)
}

// peek returns the code point next to pos in the given direction without
// moving. It returns false at the boundary of the input.
func (vm *machine) peek(direction patternDirection) (rune, bool) {
	if direction == patternDirectionForward {
		if vm.pos >= len(vm.input) {
			return 0, false
		}
		r, _ := utf8.DecodeRuneInString(vm.input[vm.pos:])
		return r, true
	}
	if vm.pos == 0 {
		return 0, false
	}
	r, _ := utf8.DecodeLastRuneInString(vm.input[:vm.pos])
	return r, true
}

func (vm *machine) move(direction patternDirection) (rune, bool) {
	if direction == patternDirectionForward {
		if vm.pos >= len(vm.input) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(vm.input[vm.pos:])
		vm.pos += size
		return r, true
	}
	if vm.pos == 0 {
		return 0, false
	}
	r, size := utf8.DecodeLastRuneInString(vm.input[:vm.pos])
	vm.pos -= size
	return r, true
}

func (vm *machine) moveSP(direction patternDirection) (rune, bool) {
	r, moved := vm.move(direction)
	if !moved {
		vm.noMatch()
	}
	return r, moved
}

func (vm *machine) pushBacktrackingFrame(pc int) {
	vm.backtrackingStack.inc()
	frame := vm.backtrackingStack.peekPtr()
	frame.pc = pc
	frame.pos = vm.pos
	frame.capStart = len(vm.capturesStack)
	frame.capLen = len(vm.captures)
	vm.capturesStack = append(vm.capturesStack, vm.captures...)
	frame.stackStart = len(vm.stacksStack)
	frame.stackLen = len(vm.stack)
	vm.stacksStack = append(vm.stacksStack, vm.stack...)
}

// commit drops every backtracking frame above height n, together with the
// snapshots they own. Choices made after the frame stack had height n are
// never revisited.
func (vm *machine) commit(n int) {
	if n >= len(vm.backtrackingStack) {
		return
	}
	frame := vm.backtrackingStack[n]
	vm.capturesStack = vm.capturesStack[:frame.capStart]
	vm.stacksStack = vm.stacksStack[:frame.stackStart]
	vm.backtrackingStack.truncate(n)
}

func (vm *machine) noMatch() {
	if len(vm.backtrackingStack) == 0 {
		vm.notMatched = true
		return
	}

	frame := vm.backtrackingStack.pop()
	vm.pc = frame.pc
	vm.pos = frame.pos
	copy(vm.captures, vm.capturesStack[frame.capStart:frame.capStart+frame.capLen])
	vm.capturesStack = vm.capturesStack[:frame.capStart]
	vm.stack = vm.stack[:frame.stackLen]
	copy(vm.stack, vm.stacksStack[frame.stackStart:frame.stackStart+frame.stackLen])
	vm.stacksStack = vm.stacksStack[:frame.stackStart]
}

// The clock is consulted once per this many steps.
const deadlineCheckInterval = 1 << 10

func (vm *machine) eval() {
	checkDeadline := !vm.deadline.IsZero()
	for vm.pc < len(vm.byteCode) && !vm.notMatched {
		vm.steps++
		if vm.maxSteps > 0 && vm.steps > vm.maxSteps {
			vm.err = fmt.Errorf("%w: gave up after %d steps", ErrTimeout, vm.maxSteps)
			return
		}
		if checkDeadline && vm.steps%deadlineCheckInterval == 0 && time.Now().After(vm.deadline) {
			vm.err = fmt.Errorf("%w: deadline passed after %d steps", ErrTimeout, vm.steps)
			return
		}
		vm.byteCode[vm.pc](vm)
	}
}

// Anchor predicates

// atLineEnd implements '$'. A line terminator only ends a line when it is not
// the '\n' of a "\r\n" pair. Without multiline only the terminator that ends
// the input counts.
func (vm *machine) atLineEnd(multiline bool) bool {
	if vm.atEnd() {
		return true
	}
	r, size := utf8.DecodeRuneInString(vm.input[vm.pos:])
	if !syntax.IsLineTerminator(r) {
		return false
	}
	if r == '\n' && vm.pos > 0 && vm.input[vm.pos-1] == '\r' {
		return false
	}
	if multiline {
		return true
	}
	rest := vm.pos + size
	if r == '\r' && rest < len(vm.input) && vm.input[rest] == '\n' {
		rest++
	}
	return rest == len(vm.input)
}

// atLineStart implements multiline '^', which never matches after a line
// terminator that ends the input.
func (vm *machine) atLineStart() bool {
	if vm.pos == 0 {
		return true
	}
	if vm.atEnd() {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(vm.input[:vm.pos])
	if !syntax.IsLineTerminator(prev) {
		return false
	}
	return prev != '\r' || vm.input[vm.pos] != '\n'
}

func (vm *machine) atWordBoundary() bool {
	prev, okPrev := vm.peek(patternDirectionBackward)
	next, okNext := vm.peek(patternDirectionForward)
	return (okPrev && syntax.IsWordRune(prev)) != (okNext && syntax.IsWordRune(next))
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}

// matchesCapture consumes the text last captured by group captureIndex.
// A group that has not participated never matches.
func (vm *machine) matchesCapture(direction patternDirection, captureIndex int, fold bool) bool {
	c := vm.captures[captureIndex]
	if c.start == -1 || c.end == -1 {
		return false
	}
	captured := vm.input[c.start:c.end]
	if !fold {
		if direction == patternDirectionForward {
			if len(vm.input)-vm.pos < len(captured) || vm.input[vm.pos:vm.pos+len(captured)] != captured {
				return false
			}
			vm.pos += len(captured)
			return true
		}
		if vm.pos < len(captured) || vm.input[vm.pos-len(captured):vm.pos] != captured {
			return false
		}
		vm.pos -= len(captured)
		return true
	}

	i := 0
	if direction == patternDirectionBackward {
		i = len(captured)
	}
	for {
		var expected rune
		var size int
		if direction == patternDirectionForward {
			if i >= len(captured) {
				return true
			}
			expected, size = utf8.DecodeRuneInString(captured[i:])
			i += size
		} else {
			if i <= 0 {
				return true
			}
			expected, size = utf8.DecodeLastRuneInString(captured[:i])
			i -= size
		}
		actual, moved := vm.move(direction)
		if !moved || !equalFold(expected, actual) {
			return false
		}
	}
}
