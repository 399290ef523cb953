package jregex

import (
	"errors"
	"sync"
	"testing"

	"gotest.tools/v3/assert"
)

func TestCache(t *testing.T) {
	c := NewCache(2)

	a, err := c.Compile("a+", 0)
	assert.NilError(t, err)
	again, err := c.Compile("a+", 0)
	assert.NilError(t, err)
	assert.Assert(t, a == again)

	// Flags are part of the key.
	ai, err := c.Compile("a+", FlagCaseInsensitive)
	assert.NilError(t, err)
	assert.Assert(t, a != ai)
	assert.Equal(t, c.Len(), 2)

	// a+ was used before (?i)a+, so it goes first.
	_, err = c.Compile("b", 0)
	assert.NilError(t, err)
	assert.Equal(t, c.Len(), 2)
	evicted, err := c.Compile("a+", 0)
	assert.NilError(t, err)
	assert.Assert(t, evicted != a)

	_, err = c.Compile("(", 0)
	var pe *PatternError
	assert.Assert(t, errors.As(err, &pe))
	assert.Equal(t, c.Len(), 2)

	c.Clear()
	assert.Equal(t, c.Len(), 0)
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache(0)
	first, err := c.Compile("x", 0)
	assert.NilError(t, err)
	second, err := c.Compile("x", 0)
	assert.NilError(t, err)
	assert.Assert(t, first != second)
	assert.Equal(t, c.Len(), 0)
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache(4)
	patterns := []string{`\d+`, `\w+`, `[a-c]`, `x|y`, `(?i)q`, `.`}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				re, err := c.Compile(patterns[(g+i)%len(patterns)], 0)
				if err != nil {
					t.Error(err)
					return
				}
				if _, err := re.FindMatch("abc 123"); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.Assert(t, c.Len() <= 4)
}

func TestPackageHelpers(t *testing.T) {
	ClearCache()

	ok, err := Matches(`\d{3}-\d{4}`, "555-1234")
	assert.NilError(t, err)
	assert.Assert(t, ok)
	ok, err = Matches(`\d{3}`, "5555")
	assert.NilError(t, err)
	assert.Assert(t, !ok)

	s, err := ReplaceAllString("a-b_c", `[-_]`, "+")
	assert.NilError(t, err)
	assert.Equal(t, s, "a+b+c")

	pieces, err := SplitString("boo:and:foo", ":", 2)
	assert.NilError(t, err)
	assert.DeepEqual(t, pieces, []string{"boo", "and:foo"})

	_, err = Matches("[", "")
	assert.ErrorContains(t, err, "unclosed character class")
}
