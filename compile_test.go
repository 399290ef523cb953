package jregex

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/auvred/jregex/syntax"
)

func lit(s string) *syntax.Literal {
	return &syntax.Literal{Runes: []rune(s)}
}

func TestCompileTree(t *testing.T) {
	tree := &syntax.Sequence{Children: []syntax.Node{
		&syntax.Group{Kind: syntax.Capturing, Name: "key", Child: &syntax.Quantifier{
			Child: &syntax.Class{Set: syntax.FromRange('a', 'z')},
			Min:   1,
			Max:   syntax.Unbounded,
		}},
		lit("="),
		&syntax.Group{Kind: syntax.Capturing, Child: &syntax.Quantifier{
			Child: &syntax.Class{Set: syntax.FromRange('0', '9')},
			Min:   1,
			Max:   3,
			Mode:  syntax.Lazy,
		}},
	}}
	re, err := CompileTree(tree, 0)
	assert.NilError(t, err)
	assert.Equal(t, re.String(), syntax.String(tree))
	assert.Equal(t, re.NumGroups(), 2)
	assert.DeepEqual(t, re.GroupNames(), []string{"", "key", ""})

	match, err := re.FindMatch("x key=1234")
	assert.NilError(t, err)
	assert.DeepEqual(t, groupTexts(match), []string{"key=1", "key", "1"})

	ok, err := re.MatchesFully("key=123")
	assert.NilError(t, err)
	assert.Assert(t, ok)
	ok, err = re.MatchesFully("key=1234")
	assert.NilError(t, err)
	assert.Assert(t, !ok)
}

func TestCompileTreeNodes(t *testing.T) {
	for _, tc := range []struct {
		name    string
		tree    syntax.Node
		input   string
		matches []string
	}{
		{
			name:    "empty sequence",
			tree:    &syntax.Sequence{},
			input:   "ab",
			matches: []string{"", "", ""},
		},
		{
			name:  "empty alternation",
			tree:  &syntax.Alternation{},
			input: "ab",
		},
		{
			name:    "empty literal",
			tree:    lit(""),
			input:   "a",
			matches: []string{"", ""},
		},
		{
			name:    "fold case literal",
			tree:    &syntax.Literal{Runes: []rune("ab"), FoldCase: true},
			input:   "AbaBx",
			matches: []string{"Ab", "aB"},
		},
		{
			name:    "fold case class",
			tree:    &syntax.Class{Set: syntax.FromRunes('k'), FoldCase: true},
			input:   "kKK",
			matches: []string{"k", "K", "K"},
		},
		{
			name: "alternation order",
			tree: &syntax.Alternation{Branches: []syntax.Node{
				lit("a"), lit("ab"),
			}},
			input:   "abab",
			matches: []string{"a", "a"},
		},
		{
			name: "possessive",
			tree: &syntax.Sequence{Children: []syntax.Node{
				&syntax.Quantifier{Child: lit("a"), Min: 0, Max: syntax.Unbounded, Mode: syntax.Possessive},
				lit("b"),
			}},
			input:   "aab b",
			matches: []string{"aab", "b"},
		},
		{
			name: "atomic",
			tree: &syntax.Sequence{Children: []syntax.Node{
				&syntax.Group{Kind: syntax.Atomic, Child: &syntax.Alternation{Branches: []syntax.Node{
					lit("a"), lit("ab"),
				}}},
				lit("c"),
			}},
			input:   "abc ac",
			matches: []string{"ac"},
		},
		{
			name: "anchors",
			tree: &syntax.Sequence{Children: []syntax.Node{
				&syntax.Anchor{Kind: syntax.StartOfLine},
				lit("x"),
				&syntax.Anchor{Kind: syntax.EndOfLine},
			}},
			input:   "x\nyx\nx",
			matches: []string{"x", "x"},
		},
		{
			name: "negative look-behind",
			tree: &syntax.Sequence{Children: []syntax.Node{
				&syntax.Lookaround{Kind: syntax.Behind, Negated: true, Child: lit("-")},
				&syntax.Class{Set: syntax.FromRange('0', '9')},
			}},
			input:   "1-2 3",
			matches: []string{"1", "3"},
		},
		{
			name: "named backreference",
			tree: &syntax.Sequence{Children: []syntax.Node{
				&syntax.Group{Kind: syntax.Capturing, Name: "c", Child: &syntax.Class{Set: syntax.Any()}},
				&syntax.Backreference{Name: "c"},
			}},
			input:   "abbcdd",
			matches: []string{"bb", "dd"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			re, err := CompileTree(tc.tree, 0)
			assert.NilError(t, err)
			ms, err := re.FindAll(tc.input, -1)
			assert.NilError(t, err)
			var texts []string
			for _, m := range ms {
				texts = append(texts, m.String())
			}
			assert.DeepEqual(t, texts, tc.matches)
		})
	}
}

func TestCompileTreeErrors(t *testing.T) {
	group := func(name string, child syntax.Node) *syntax.Group {
		return &syntax.Group{Kind: syntax.Capturing, Name: name, Child: child}
	}
	unbounded := &syntax.Quantifier{Child: lit("a"), Min: 1, Max: syntax.Unbounded}

	for _, tc := range []struct {
		name  string
		tree  syntax.Node
		flags Flag
		err   string
	}{
		{"nil root", nil, 0, "nil node in pattern tree"},
		{"nil child", group("", nil), 0, "nil node in pattern tree"},
		{"typed nil", &syntax.Sequence{Children: []syntax.Node{(*syntax.Literal)(nil)}}, 0, "nil node in pattern tree"},
		{"min above max", &syntax.Quantifier{Child: lit("a"), Min: 3, Max: 2}, 0, "illegal repetition range {3,2}"},
		{"negative min", &syntax.Quantifier{Child: lit("a"), Min: -1, Max: 2}, 0, "illegal repetition minimum -1"},
		{"negative max", &syntax.Quantifier{Child: lit("a"), Min: 0, Max: -5}, 0, "illegal repetition maximum -5"},
		{"missing group", &syntax.Sequence{Children: []syntax.Node{group("", lit("a")), &syntax.Backreference{Index: 2}}}, 0, "reference to non-existent group 2"},
		{"group zero", &syntax.Backreference{Index: 0}, 0, "reference to non-existent group 0"},
		{"missing name", &syntax.Backreference{Name: "x"}, 0, "named capturing group <x> does not exist"},
		{"duplicate name", &syntax.Sequence{Children: []syntax.Node{group("x", lit("a")), group("x", lit("b"))}}, 0, "named capturing group <x> is already defined"},
		{"unbounded look-behind", &syntax.Lookaround{Kind: syntax.Behind, Child: unbounded}, FlagBoundedLookbehind, "look-behind group does not have an obvious maximum length"},
		{"group kind", &syntax.Group{Kind: syntax.GroupKind(9), Child: lit("a")}, 0, "unknown group kind 9"},
		{"anchor kind", &syntax.Anchor{Kind: syntax.AnchorKind(99)}, 0, "unknown anchor kind 99"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CompileTree(tc.tree, tc.flags)
			var pe *PatternError
			assert.Assert(t, errors.As(err, &pe))
			assert.Equal(t, pe.Msg, tc.err)
			assert.Equal(t, err.Error(), "jregex: "+tc.err)
		})
	}

	// Without the flag the same look-behind is accepted.
	_, err := CompileTree(&syntax.Lookaround{Kind: syntax.Behind, Child: unbounded}, 0)
	assert.NilError(t, err)
}

// Whole-input acceptance of hand-built trees agrees with the standard
// library reading of their rendering.
func TestTreeAgainstStdlib(t *testing.T) {
	class := func(rs ...rune) *syntax.Class { return &syntax.Class{Set: syntax.FromRunes(rs...)} }
	trees := []syntax.Node{
		lit("ab"),
		class('a', 'b'),
		&syntax.Sequence{Children: []syntax.Node{
			class('a'),
			&syntax.Quantifier{Child: lit("b"), Min: 0, Max: syntax.Unbounded},
		}},
		&syntax.Alternation{Branches: []syntax.Node{lit("a"), lit("ab"), &syntax.Sequence{}}},
		&syntax.Group{Kind: syntax.Capturing, Child: &syntax.Quantifier{
			Child: class('a', 'b'), Min: 1, Max: 2, Mode: syntax.Lazy,
		}},
		&syntax.Group{Kind: syntax.NonCapturing, Child: &syntax.Alternation{Branches: []syntax.Node{
			lit("b"),
			&syntax.Quantifier{Child: lit("a"), Min: 2, Max: syntax.Unbounded},
		}}},
		&syntax.Quantifier{
			Child: &syntax.Group{Kind: syntax.Capturing, Name: "x", Child: &syntax.Alternation{Branches: []syntax.Node{
				lit("a"), lit("bb"),
			}}},
			Min: 0,
			Max: 3,
		},
		&syntax.Sequence{Children: []syntax.Node{
			&syntax.Anchor{Kind: syntax.StartOfInput},
			&syntax.Quantifier{Child: class('a'), Min: 1, Max: syntax.Unbounded, Mode: syntax.Lazy},
			&syntax.Anchor{Kind: syntax.WordBoundary},
		}},
	}

	var inputs []string
	var gen func(prefix string)
	gen = func(prefix string) {
		inputs = append(inputs, prefix)
		if len(prefix) == 4 {
			return
		}
		gen(prefix + "a")
		gen(prefix + "b")
	}
	gen("")

	for _, tree := range trees {
		rendered := syntax.String(tree)
		t.Run(rendered, func(t *testing.T) {
			std := regexp.MustCompile(`^(?:` + rendered + `)\z`)
			re, err := CompileTree(tree, 0)
			assert.NilError(t, err)
			for _, input := range inputs {
				ok, err := re.MatchesFully(input)
				assert.NilError(t, err)
				assert.Equal(t, ok, std.MatchString(input), "input %q", input)
			}
		})
	}
}

// Leftmost-first semantics agree with the standard library for patterns
// without empty loop iterations, backreferences or lookarounds.
func TestAgainstStdlib(t *testing.T) {
	patterns := []string{
		"a*b",
		"(a|ab)(b*)",
		"(ab|a)(b*)",
		"(a+)(b+)?",
		"(a|b)*b",
		"a{2,3}",
		"(ab|a)+?b",
		"[ab]{1,2}?a",
		"(?:a|b)+?",
		"(a*)(b*)",
		"b+|a+",
		"(?:ab)*a",
		"a(?:b|a)*?b",
		"(?:a{2}b){1,2}",
		"(a|b)(a|b)?(a|b)??",
		"^(a+)b",
		"(b)?(a)",
	}

	var inputs []string
	var gen func(prefix string)
	gen = func(prefix string) {
		inputs = append(inputs, prefix)
		if len(prefix) == 5 {
			return
		}
		gen(prefix + "a")
		gen(prefix + "b")
	}
	gen("")

	for _, p := range patterns {
		t.Run(p, func(t *testing.T) {
			std := regexp.MustCompile(p)
			stdFull := regexp.MustCompile(`^(?:` + p + `)\z`)
			re := MustCompile(p, 0)
			for _, input := range inputs {
				expected := std.FindStringSubmatchIndex(input)
				match, err := re.FindMatch(input)
				assert.NilError(t, err)
				var actual []int
				if match != nil {
					for _, g := range match.Groups {
						actual = append(actual, g.Start, g.End)
					}
				}
				assert.DeepEqual(t, actual, expected)

				ok, err := re.MatchesFully(input)
				assert.NilError(t, err)
				assert.Equal(t, ok, stdFull.MatchString(input), "input %q", input)
			}
		})
	}
}

func catastrophic(n int) (*Regexp, string) {
	input := strings.Repeat("a", n)
	return MustCompile("^"+strings.Repeat("a?", n)+input+"$", 0), input
}

func TestCatastrophicBacktracking(t *testing.T) {
	var prev int64
	for n := 4; n <= 14; n += 2 {
		re, input := catastrophic(n)
		match, steps, err := re.run(input, 0, 0, searchFull)
		assert.NilError(t, err)
		assert.Assert(t, match != nil)
		assert.Assert(t, steps > 2*prev, "n=%d: %d steps after %d", n, steps, prev)
		prev = steps
	}
}

func TestLimits(t *testing.T) {
	re, input := catastrophic(25)

	_, err := re.WithLimits(Limits{MaxSteps: 1000}).MatchesFully(input)
	assert.Assert(t, errors.Is(err, ErrTimeout))
	assert.ErrorContains(t, err, "gave up after 1000 steps")

	_, err = re.WithLimits(Limits{Timeout: time.Millisecond}).MatchesFully(input)
	assert.Assert(t, errors.Is(err, ErrTimeout))

	_, err = re.WithLimits(Limits{MaxSteps: 1000}).FindAll(input, -1)
	assert.Assert(t, errors.Is(err, ErrTimeout))

	small, input := catastrophic(3)
	ok, err := small.WithLimits(Limits{MaxSteps: 1_000_000, Timeout: time.Minute}).MatchesFully(input)
	assert.NilError(t, err)
	assert.Assert(t, ok)
}
