// Package syntax holds the pattern tree consumed by the jregex compiler, the
// character class algebra it is built from, and a parser for Java-style
// pattern text.
package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is a node of a pattern tree. The set of node kinds is closed: it is
// exactly the pointer types declared in this file.
type Node interface {
	node()
}

// Unbounded is the Max of a quantifier without an upper bound.
const Unbounded = -1

// Literal matches its runes in order.
type Literal struct {
	Runes    []rune
	FoldCase bool
}

// Class matches one code point that is a member of Set.
type Class struct {
	Set      *CharClass
	FoldCase bool
}

// Sequence matches its children one after another.
type Sequence struct {
	Children []Node
}

// Alternation tries its branches in order; the first branch that lets the
// rest of the pattern succeed wins.
type Alternation struct {
	Branches []Node
}

type GroupKind uint8

const (
	Capturing GroupKind = iota
	NonCapturing
	// Once the child has matched, the choices made inside it are never
	// revisited.
	Atomic
)

// Group wraps Child. Name is only meaningful for capturing groups.
type Group struct {
	Kind  GroupKind
	Name  string
	Child Node
}

type QuantifierMode uint8

const (
	Greedy QuantifierMode = iota
	Lazy
	Possessive
)

// Quantifier repeats Child between Min and Max times (Max may be Unbounded).
type Quantifier struct {
	Child Node
	Min   int
	Max   int
	Mode  QuantifierMode
}

type AnchorKind uint8

const (
	StartOfInput AnchorKind = iota
	EndOfInput
	// End of input, or before a line terminator that ends the input.
	EndOfInputOrFinalTerminator
	StartOfLine
	EndOfLine
	// The position where the previous match of the same find sequence ended.
	EndOfPreviousMatch
	WordBoundary
	NonWordBoundary
)

// Anchor is a zero-width position test.
type Anchor struct {
	Kind AnchorKind
}

type LookaroundKind uint8

const (
	Ahead LookaroundKind = iota
	Behind
)

// Lookaround tests Child at the current position without consuming input.
type Lookaround struct {
	Kind    LookaroundKind
	Negated bool
	Child   Node
}

// Backreference matches the text last captured by a group, referred to by
// Index, or by Name when Name is not empty.
type Backreference struct {
	Index    int
	Name     string
	FoldCase bool
}

func (*Literal) node()       {}
func (*Class) node()         {}
func (*Sequence) node()      {}
func (*Alternation) node()   {}
func (*Group) node()         {}
func (*Quantifier) node()    {}
func (*Anchor) node()        {}
func (*Lookaround) node()    {}
func (*Backreference) node() {}

// Walk calls fn for n and its descendants in preorder, the order in which
// their opening markers appear in the pattern text. Walk stops descending
// into a node's children when fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Sequence:
		for _, c := range n.Children {
			Walk(c, fn)
		}
	case *Alternation:
		for _, b := range n.Branches {
			Walk(b, fn)
		}
	case *Group:
		Walk(n.Child, fn)
	case *Quantifier:
		Walk(n.Child, fn)
	case *Lookaround:
		Walk(n.Child, fn)
	}
}

// Width returns the minimum number of code points n consumes and the
// maximum, with bounded false when there is no finite maximum.
// Backreferences are treated as unbounded.
func Width(n Node) (minWidth, maxWidth int, bounded bool) {
	switch n := n.(type) {
	case *Literal:
		return len(n.Runes), len(n.Runes), true
	case *Class:
		return 1, 1, true
	case *Sequence:
		bounded = true
		for _, c := range n.Children {
			lo, hi, b := Width(c)
			minWidth += lo
			maxWidth += hi
			bounded = bounded && b
		}
		return minWidth, maxWidth, bounded
	case *Alternation:
		if len(n.Branches) == 0 {
			return 0, 0, true
		}
		minWidth, maxWidth, bounded = Width(n.Branches[0])
		for _, b := range n.Branches[1:] {
			lo, hi, ok := Width(b)
			minWidth = min(minWidth, lo)
			maxWidth = max(maxWidth, hi)
			bounded = bounded && ok
		}
		return minWidth, maxWidth, bounded
	case *Group:
		return Width(n.Child)
	case *Quantifier:
		lo, hi, ok := Width(n.Child)
		if n.Max == Unbounded {
			return lo * n.Min, 0, hi == 0 && ok
		}
		return lo * n.Min, hi * n.Max, ok
	case *Backreference:
		return 0, 0, false
	}
	return 0, 0, true
}

// String returns the tree in pattern syntax. It is meant for diagnostics;
// parsing the result yields an equivalent tree.
func String(n Node) string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		b.WriteString("(?:)")
	case *Literal:
		if n.FoldCase {
			b.WriteString("(?i:")
		}
		for _, r := range n.Runes {
			if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		if n.FoldCase {
			b.WriteByte(')')
		}
	case *Class:
		if n.FoldCase {
			b.WriteString("(?i:")
		}
		b.WriteString(n.Set.String())
		if n.FoldCase {
			b.WriteByte(')')
		}
	case *Sequence:
		b.WriteString("(?:")
		for _, c := range n.Children {
			writeNode(b, c)
		}
		b.WriteByte(')')
	case *Alternation:
		if len(n.Branches) == 0 {
			b.WriteString(Empty().String())
			return
		}
		b.WriteString("(?:")
		for i, br := range n.Branches {
			if i > 0 {
				b.WriteByte('|')
			}
			writeNode(b, br)
		}
		b.WriteByte(')')
	case *Group:
		switch {
		case n.Kind == Atomic:
			b.WriteString("(?>")
		case n.Kind == NonCapturing:
			b.WriteString("(?:")
		case n.Name != "":
			b.WriteString("(?<" + n.Name + ">")
		default:
			b.WriteByte('(')
		}
		writeNode(b, n.Child)
		b.WriteByte(')')
	case *Quantifier:
		b.WriteString("(?:")
		writeNode(b, n.Child)
		b.WriteByte(')')
		switch {
		case n.Min == 0 && n.Max == Unbounded:
			b.WriteByte('*')
		case n.Min == 1 && n.Max == Unbounded:
			b.WriteByte('+')
		case n.Min == 0 && n.Max == 1:
			b.WriteByte('?')
		case n.Max == Unbounded:
			fmt.Fprintf(b, "{%d,}", n.Min)
		case n.Min == n.Max:
			fmt.Fprintf(b, "{%d}", n.Min)
		default:
			fmt.Fprintf(b, "{%d,%d}", n.Min, n.Max)
		}
		switch n.Mode {
		case Lazy:
			b.WriteByte('?')
		case Possessive:
			b.WriteByte('+')
		}
	case *Anchor:
		b.WriteString([...]string{`\A`, `\z`, `\Z`, `(?m:^)`, `(?m:$)`, `\G`, `\b`, `\B`}[n.Kind])
	case *Lookaround:
		b.WriteString("(?")
		if n.Kind == Behind {
			b.WriteByte('<')
		}
		if n.Negated {
			b.WriteByte('!')
		} else {
			b.WriteByte('=')
		}
		writeNode(b, n.Child)
		b.WriteByte(')')
	case *Backreference:
		if n.FoldCase {
			b.WriteString("(?i:")
		}
		if n.Name != "" {
			b.WriteString(`\k<` + n.Name + `>`)
		} else {
			// (?:) keeps a following digit from extending the group number
			b.WriteString(`\` + strconv.Itoa(n.Index) + `(?:)`)
		}
		if n.FoldCase {
			b.WriteByte(')')
		}
	}
}
