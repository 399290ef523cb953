package jregex

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/auvred/jregex/syntax"
)

// program is the compiled form of a pattern. It is never mutated after
// compile returns.
type program struct {
	byteCode []func(vm *machine)
	// Capturing groups, group 0 included
	numCaptures int
	// Group names by index, "" for unnamed groups
	names     []string
	prefilter *prefilter
}

type compiler struct {
	byteCode  []func(vm *machine)
	flags     Flag
	direction patternDirection

	captureIndices map[*syntax.Group]int
	names          map[string]int
	numCaptures    int
}

// Returns the position of inserted instruction
func (c *compiler) emit(v func(vm *machine)) int {
	pos := len(c.byteCode)
	c.byteCode = append(c.byteCode, v)
	return pos
}

// compileSub compiles n into a detached slice so that the caller can wrap or
// repeat it. Jumps are pc-relative, so the slice can be placed anywhere.
func (c *compiler) compileSub(n syntax.Node) ([]func(vm *machine), error) {
	outer := c.byteCode
	c.byteCode = nil
	err := c.compileNode(n)
	body := c.byteCode
	c.byteCode = outer
	return body, err
}

func compile(root syntax.Node, flags Flag) (*program, error) {
	c := &compiler{
		flags:          flags,
		direction:      patternDirectionForward,
		captureIndices: map[*syntax.Group]int{},
		names:          map[string]int{},
		numCaptures:    1,
	}
	if err := c.scan(root); err != nil {
		return nil, err
	}
	if err := c.check(root); err != nil {
		return nil, err
	}

	c.emit(func(vm *machine) {
		if vm.prefilter != nil && !vm.prefilter.possible(vm.pos) {
			vm.noMatch()
			return
		}
		if vm.mode == searchUnanchored {
			vm.pushBacktrackingFrame(vm.pc + 1)
		}
		vm.pc += 2
	})
	// Reached only by backtracking into the frame pushed above: retry one
	// code point further.
	c.emit(func(vm *machine) {
		vm.pc--
		vm.moveSP(patternDirectionForward)
	})
	c.emit(func(vm *machine) {
		vm.pc++
		vm.stack.push(vm.pos)
	})
	if err := c.compileNode(root); err != nil {
		return nil, err
	}
	c.emit(func(vm *machine) {
		vm.pc++
		if vm.mode == searchFull && !vm.atEnd() {
			vm.noMatch()
		}
	})
	c.emit(func(vm *machine) {
		vm.pc++
		vm.captures[0] = capture{start: vm.stack.pop(), end: vm.pos}
	})

	p := &program{
		byteCode:    c.byteCode,
		numCaptures: c.numCaptures,
		names:       make([]string, c.numCaptures),
		prefilter:   newPrefilter(root),
	}
	for name, i := range c.names {
		p.names[i] = name
	}
	return p, nil
}

func isNilNode(n syntax.Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// scan rejects nil nodes and invalid quantifier bounds, and numbers the
// capturing groups in the order their opening markers appear.
func (c *compiler) scan(n syntax.Node) error {
	if isNilNode(n) {
		return newPatternError("nil node in pattern tree")
	}
	switch n := n.(type) {
	case *syntax.Sequence:
		for _, child := range n.Children {
			if err := c.scan(child); err != nil {
				return err
			}
		}
	case *syntax.Alternation:
		for _, b := range n.Branches {
			if err := c.scan(b); err != nil {
				return err
			}
		}
	case *syntax.Group:
		if n.Kind == syntax.Capturing {
			if _, ok := c.captureIndices[n]; !ok {
				c.captureIndices[n] = c.numCaptures
				c.numCaptures++
			}
			if n.Name != "" {
				if _, ok := c.names[n.Name]; ok {
					return newPatternError(fmt.Sprintf("named capturing group <%s> is already defined", n.Name))
				}
				c.names[n.Name] = c.captureIndices[n]
			}
		}
		return c.scan(n.Child)
	case *syntax.Quantifier:
		switch {
		case n.Min < 0:
			return newPatternError(fmt.Sprintf("illegal repetition minimum %d", n.Min))
		case n.Max != syntax.Unbounded && n.Max < 0:
			return newPatternError(fmt.Sprintf("illegal repetition maximum %d", n.Max))
		case n.Max != syntax.Unbounded && n.Min > n.Max:
			return newPatternError(fmt.Sprintf("illegal repetition range {%d,%d}", n.Min, n.Max))
		}
		return c.scan(n.Child)
	case *syntax.Lookaround:
		return c.scan(n.Child)
	}
	return nil
}

// check validates what can only be judged once every group is known.
func (c *compiler) check(root syntax.Node) error {
	var err error
	syntax.Walk(root, func(n syntax.Node) bool {
		if err != nil {
			return false
		}
		switch n := n.(type) {
		case *syntax.Backreference:
			_, err = c.backreferenceIndex(n)
		case *syntax.Lookaround:
			if n.Kind == syntax.Behind && c.flags&FlagBoundedLookbehind != 0 {
				if _, _, bounded := syntax.Width(n.Child); !bounded {
					err = newPatternError("look-behind group does not have an obvious maximum length")
				}
			}
		}
		return err == nil
	})
	return err
}

func (c *compiler) backreferenceIndex(n *syntax.Backreference) (int, error) {
	if n.Name != "" {
		i, ok := c.names[n.Name]
		if !ok {
			return 0, newPatternError(fmt.Sprintf("named capturing group <%s> does not exist", n.Name))
		}
		return i, nil
	}
	if n.Index < 1 || n.Index >= c.numCaptures {
		return 0, newPatternError(fmt.Sprintf("reference to non-existent group %d", n.Index))
	}
	return n.Index, nil
}

func (c *compiler) compileNode(n syntax.Node) error {
	direction := c.direction

	switch n := n.(type) {
	case *syntax.Literal:
		if len(n.Runes) == 0 {
			return nil
		}
		runes := slices.Clone(n.Runes)
		if direction == patternDirectionBackward {
			slices.Reverse(runes)
		}
		fold := n.FoldCase
		c.emit(func(vm *machine) {
			vm.pc++
			for _, expected := range runes {
				r, matched := vm.moveSP(direction)
				if !matched {
					return
				}
				if r != expected && (!fold || !equalFold(r, expected)) {
					vm.noMatch()
					return
				}
			}
		})
	case *syntax.Class:
		set := n.Set
		fold := n.FoldCase
		c.emit(func(vm *machine) {
			vm.pc++
			r, matched := vm.moveSP(direction)
			if !matched {
				return
			}
			if fold {
				if !set.ContainsFold(r) {
					vm.noMatch()
				}
				return
			}
			if !set.Contains(r) {
				vm.noMatch()
			}
		})
	case *syntax.Sequence:
		for i := range n.Children {
			child := n.Children[i]
			if direction == patternDirectionBackward {
				child = n.Children[len(n.Children)-1-i]
			}
			if err := c.compileNode(child); err != nil {
				return err
			}
		}
	case *syntax.Alternation:
		return c.compileAlternation(n)
	case *syntax.Group:
		return c.compileGroup(n)
	case *syntax.Quantifier:
		return c.compileQuantifier(n)
	case *syntax.Anchor:
		return c.compileAnchor(n)
	case *syntax.Lookaround:
		return c.compileLookaround(n)
	case *syntax.Backreference:
		captureIndex, err := c.backreferenceIndex(n)
		if err != nil {
			return err
		}
		fold := n.FoldCase
		c.emit(func(vm *machine) {
			vm.pc++
			if !vm.matchesCapture(direction, captureIndex, fold) {
				vm.noMatch()
			}
		})
	default:
		return newPatternError(fmt.Sprintf("unknown node kind %T", n))
	}
	return nil
}

func (c *compiler) compileAlternation(n *syntax.Alternation) error {
	if len(n.Branches) == 0 {
		c.emit(func(vm *machine) {
			vm.noMatch()
		})
		return nil
	}
	bodies := make([][]func(vm *machine), len(n.Branches))
	for i, b := range n.Branches {
		body, err := c.compileSub(b)
		if err != nil {
			return err
		}
		bodies[i] = body
	}

	var gotoOps []int
	for i, body := range bodies {
		last := i == len(bodies)-1
		if !last {
			splitOffset := len(body) + 1
			c.emit(func(vm *machine) {
				vm.pc++
				vm.pushBacktrackingFrame(vm.pc + splitOffset)
			})
		}
		c.byteCode = append(c.byteCode, body...)
		if !last {
			gotoOps = append(gotoOps, c.emit(nil))
		}
	}
	for _, gotoOpPos := range gotoOps {
		gotoOffset := len(c.byteCode) - gotoOpPos - 1
		c.byteCode[gotoOpPos] = func(vm *machine) {
			vm.pc += 1 + gotoOffset
		}
	}
	return nil
}

func (c *compiler) compileGroup(n *syntax.Group) error {
	switch n.Kind {
	case syntax.NonCapturing:
		return c.compileNode(n.Child)
	case syntax.Atomic:
		c.emitCommitStart()
		if err := c.compileNode(n.Child); err != nil {
			return err
		}
		c.emitCommitEnd()
		return nil
	case syntax.Capturing:
	default:
		return newPatternError(fmt.Sprintf("unknown group kind %d", n.Kind))
	}

	captureIndex := c.captureIndices[n]
	direction := c.direction
	// The capture keeps its previous value until the group closes again, so
	// a backreference inside the group sees the last completed iteration.
	c.emit(func(vm *machine) {
		vm.pc++
		vm.stack.push(vm.pos)
	})
	if err := c.compileNode(n.Child); err != nil {
		return err
	}
	c.emit(func(vm *machine) {
		vm.pc++
		opened := vm.stack.pop()
		if direction == patternDirectionForward {
			vm.captures[captureIndex] = capture{start: opened, end: vm.pos}
		} else {
			vm.captures[captureIndex] = capture{start: vm.pos, end: opened}
		}
	})
	return nil
}

func (c *compiler) emitCommitStart() {
	c.emit(func(vm *machine) {
		vm.pc++
		vm.stack.push(len(vm.backtrackingStack))
	})
}

func (c *compiler) emitCommitEnd() {
	c.emit(func(vm *machine) {
		vm.pc++
		vm.commit(vm.stack.pop())
	})
}

func splitInstruction(greedy bool, skip int) func(vm *machine) {
	if greedy {
		return func(vm *machine) {
			vm.pc++
			vm.pushBacktrackingFrame(vm.pc + skip)
		}
	}
	return func(vm *machine) {
		vm.pc++
		vm.pushBacktrackingFrame(vm.pc)
		vm.pc += skip
	}
}

func (c *compiler) compileQuantifier(q *syntax.Quantifier) error {
	if q.Max == 0 {
		return nil
	}
	body, err := c.compileSub(q.Child)
	if err != nil {
		return err
	}
	bodyLen := len(body)
	greedy := q.Mode != syntax.Lazy

	if q.Mode == syntax.Possessive {
		c.emitCommitStart()
	}

	// Mandatory iterations
	switch {
	case q.Min == 1:
		c.byteCode = append(c.byteCode, body...)
	case q.Min > 1:
		quantMin := q.Min
		c.emit(func(vm *machine) {
			vm.pc++
			vm.stack.push(quantMin)
		})
		c.byteCode = append(c.byteCode, body...)
		c.emit(func(vm *machine) {
			vm.pc++
			loopsLeft := vm.stack.peekPtr()
			(*loopsLeft)--
			if *loopsLeft != 0 {
				vm.pc -= bodyLen + 1
				return
			}
			vm.stack.pop()
		})
	}

	// Optional iterations. An optional iteration that consumes nothing
	// ends the loop and keeps what it captured.
	if q.Max == syntax.Unbounded {
		splitOffset := bodyLen + 2
		c.emit(splitInstruction(greedy, splitOffset))
		c.emit(func(vm *machine) {
			vm.pc++
			vm.stack.push(vm.pos)
		})
		c.byteCode = append(c.byteCode, body...)
		c.emit(func(vm *machine) {
			vm.pc++
			if vm.pos == vm.stack.pop() {
				return
			}
			vm.pc -= splitOffset + 1
		})
	} else if extraReps := q.Max - q.Min; extraReps > 0 {
		loopOffset := bodyLen + 2
		c.emit(func(vm *machine) {
			vm.pc++
			vm.stack.push(extraReps)
		})
		c.emit(splitInstruction(greedy, loopOffset))
		c.emit(func(vm *machine) {
			vm.pc++
			vm.stack.push(vm.pos)
		})
		c.byteCode = append(c.byteCode, body...)
		c.emit(func(vm *machine) {
			vm.pc++
			if vm.pos == vm.stack.pop() {
				return
			}
			loopsLeft := vm.stack.peekPtr()
			(*loopsLeft)--
			if *loopsLeft != 0 {
				vm.pc -= loopOffset + 1
			}
		})
		c.emit(func(vm *machine) {
			vm.pc++
			vm.stack.pop()
		})
	}

	if q.Mode == syntax.Possessive {
		c.emitCommitEnd()
	}
	return nil
}

func (c *compiler) compileAnchor(n *syntax.Anchor) error {
	var test func(vm *machine) bool
	switch n.Kind {
	case syntax.StartOfInput:
		test = func(vm *machine) bool { return vm.pos == 0 }
	case syntax.EndOfInput:
		test = (*machine).atEnd
	case syntax.EndOfInputOrFinalTerminator:
		test = func(vm *machine) bool { return vm.atLineEnd(false) }
	case syntax.StartOfLine:
		test = (*machine).atLineStart
	case syntax.EndOfLine:
		test = func(vm *machine) bool { return vm.atLineEnd(true) }
	case syntax.EndOfPreviousMatch:
		test = func(vm *machine) bool { return vm.pos == vm.prevEnd }
	case syntax.WordBoundary:
		test = (*machine).atWordBoundary
	case syntax.NonWordBoundary:
		test = func(vm *machine) bool { return !vm.atWordBoundary() }
	default:
		return newPatternError(fmt.Sprintf("unknown anchor kind %d", n.Kind))
	}
	c.emit(func(vm *machine) {
		vm.pc++
		if !test(vm) {
			vm.noMatch()
		}
	})
	return nil
}

// Lookarounds are atomic: once the child has matched, the frames it pushed
// are dropped. A look-behind runs its child right to left, ending at the
// current position.
func (c *compiler) compileLookaround(n *syntax.Lookaround) error {
	direction := patternDirectionForward
	if n.Kind == syntax.Behind {
		direction = patternDirectionBackward
	}
	prevDir := c.direction
	c.direction = direction
	body, err := c.compileSub(n.Child)
	c.direction = prevDir
	if err != nil {
		return err
	}

	if !n.Negated {
		c.emit(func(vm *machine) {
			vm.pc++
			vm.stack.push(vm.pos)
			vm.stack.push(len(vm.backtrackingStack))
		})
		c.byteCode = append(c.byteCode, body...)
		c.emit(func(vm *machine) {
			vm.pc++
			vm.commit(vm.stack.pop())
			vm.pos = vm.stack.pop()
		})
		return nil
	}

	bodyLen := len(body)
	c.emit(func(vm *machine) {
		vm.pc++
		vm.pushBacktrackingFrame(vm.pc + bodyLen + 1)
		vm.stack.push(len(vm.backtrackingStack) - 1)
	})
	c.byteCode = append(c.byteCode, body...)
	c.emit(func(vm *machine) {
		vm.commit(vm.stack.pop())
		vm.noMatch()
	})
	return nil
}
