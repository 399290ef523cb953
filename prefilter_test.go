package jregex

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"

	"github.com/auvred/jregex/syntax"
)

func TestRequiredLiterals(t *testing.T) {
	for _, tc := range []struct {
		pattern string
		lits    []string
	}{
		{"foo(bar)?baz", []string{"foo"}},
		{"(?i)foo", nil},
		{"a|b", []string{"a", "b"}},
		{"a*", nil},
		{"(?=abc)x", []string{"x"}},
		{`\d+x`, []string{"x"}},
		{"(?:ab){2}", []string{"ab"}},
		{"a|[bc]", nil},
	} {
		t.Run(tc.pattern, func(t *testing.T) {
			root, err := syntax.Parse(tc.pattern, 0)
			assert.NilError(t, err)
			lits, ok := requiredLiterals(root)
			assert.Equal(t, ok, tc.lits != nil)
			assert.Assert(t, cmp.Equal(lits, tc.lits), cmp.Diff(lits, tc.lits))
		})
	}
}

func TestPrefilterState(t *testing.T) {
	root, err := syntax.Parse("abc", 0)
	assert.NilError(t, err)
	state := newPrefilter(root).newState("xxabcxx")
	assert.Assert(t, state.possible(0))
	assert.Assert(t, state.possible(2))
	assert.Assert(t, !state.possible(3))
	assert.Assert(t, !state.possible(5))
	// Going back rescans.
	assert.Assert(t, state.possible(1))

	var none *prefilter
	assert.Assert(t, none.newState("abc") == nil)
}

func TestPrefilterSkipsHopelessSearches(t *testing.T) {
	re := MustCompile(`(\d+\d+)+foo`, 0)
	input := strings.Repeat("1", 40)
	match, steps, err := re.run(input, 0, 0, searchUnanchored)
	assert.NilError(t, err)
	assert.Assert(t, match == nil)
	assert.Equal(t, steps, int64(1))
}

func TestFinderSharesPrefilterState(t *testing.T) {
	re := MustCompile("ab", 0)
	input := strings.Repeat("ab", 2000)
	f := re.Finder(input)
	state := f.pf
	assert.Assert(t, state != nil)
	count := 0
	for {
		m, err := f.Next()
		assert.NilError(t, err)
		if m == nil {
			break
		}
		count++
	}
	assert.Equal(t, count, 2000)
	assert.Assert(t, f.pf == state)
	assert.Equal(t, state.queried, len(input))
	assert.Equal(t, state.found, -1)

	s := NewScanner("a,b,,c", MustCompile(",", 0))
	assert.Assert(t, s.pf != nil)
	var tokens []string
	for s.Scan() {
		tokens = append(tokens, s.Text())
	}
	assert.NilError(t, s.Err())
	assert.DeepEqual(t, tokens, []string{"a", "b", "c"})
}

func BenchmarkFindAllLiteral(b *testing.B) {
	re := MustCompile("ab", 0)
	input := strings.Repeat("ab", 1<<14)
	b.ResetTimer()
	for range b.N {
		if _, err := re.FindAll(input, -1); err != nil {
			b.Fatal(err)
		}
	}
}
