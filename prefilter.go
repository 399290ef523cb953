package jregex

import (
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/auvred/jregex/syntax"
)

// prefilter rejects a search early when none of the literals that every
// match must contain occurs in the rest of the input.
type prefilter struct {
	auto *ahocorasick.Automaton
}

func newPrefilter(root syntax.Node) *prefilter {
	lits, ok := requiredLiterals(root)
	if !ok {
		return nil
	}
	builder := ahocorasick.NewBuilder()
	for _, lit := range lits {
		builder.AddPattern([]byte(lit))
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &prefilter{auto: auto}
}

// requiredLiterals returns a set of strings one of which occurs inside every
// match of n. Case-insensitive literals and anything inside a lookaround are
// never used.
func requiredLiterals(n syntax.Node) ([]string, bool) {
	switch n := n.(type) {
	case *syntax.Literal:
		if n.FoldCase || len(n.Runes) == 0 || containsRuneError(n.Runes) {
			return nil, false
		}
		return []string{string(n.Runes)}, true
	case *syntax.Group:
		return requiredLiterals(n.Child)
	case *syntax.Quantifier:
		if n.Min < 1 {
			return nil, false
		}
		return requiredLiterals(n.Child)
	case *syntax.Sequence:
		for _, child := range n.Children {
			if lits, ok := requiredLiterals(child); ok {
				return lits, true
			}
		}
	case *syntax.Alternation:
		if len(n.Branches) == 0 {
			return nil, false
		}
		var all []string
		for _, b := range n.Branches {
			lits, ok := requiredLiterals(b)
			if !ok {
				return nil, false
			}
			all = append(all, lits...)
		}
		return all, true
	}
	return nil, false
}

func containsRuneError(rs []rune) bool {
	for _, r := range rs {
		if r == utf8.RuneError {
			return true
		}
	}
	return false
}

// prefilterState is the per-search view of a prefilter. It remembers the
// last occurrence found so that retries at later offsets do not rescan the
// input.
type prefilterState struct {
	pf       *prefilter
	haystack []byte
	// Start of the first occurrence at or after the last queried offset,
	// -1 when there is none.
	found   int
	queried int
}

func (p *prefilter) newState(input string) *prefilterState {
	if p == nil {
		return nil
	}
	return &prefilterState{
		pf:       p,
		haystack: []byte(input),
		found:    -2,
		queried:  -1,
	}
}

// possible reports whether a literal occurrence starts at or after pos.
func (s *prefilterState) possible(pos int) bool {
	if s.found == -1 && pos >= s.queried {
		return false
	}
	if s.found >= pos && pos >= s.queried {
		return true
	}
	s.queried = pos
	s.found = -1
	if pos < len(s.haystack) {
		if m := s.pf.auto.Find(s.haystack, pos); m != nil {
			s.found = m.Start
		}
	}
	return s.found != -1
}
