package jregex

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"
)

func scanAll(t *testing.T, s *Scanner) []string {
	t.Helper()
	var tokens []string
	for s.Scan() {
		tokens = append(tokens, s.Text())
	}
	assert.NilError(t, s.Err())
	return tokens
}

func TestScanner(t *testing.T) {
	for _, tc := range []struct {
		name   string
		input  string
		delim  string
		tokens []string
	}{
		{"punctuation", "London:Rome#Paris::Munich///Moscow", `\p{Punct}+`, []string{"London", "Rome", "Paris", "Munich", "Moscow"}},
		{"leading and trailing", "--a--b--", `-`, []string{"a", "b"}},
		{"empty input", "", `,`, nil},
		{"only delimiters", ",,,", `,`, nil},
		{"no delimiter", "abc", `,`, []string{"abc"}},
		{"zero-width", "abc", `(?=b)`, []string{"a", "bc"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := NewScanner(tc.input, MustCompile(tc.delim, 0))
			assert.DeepEqual(t, scanAll(t, s), tc.tokens)
		})
	}
}

func TestScannerWhitespace(t *testing.T) {
	s := NewScanner("  one two\tthree\n four ", nil)
	assert.DeepEqual(t, scanAll(t, s), []string{"one", "two", "three", "four"})
	assert.Equal(t, s.Text(), "")
}

func TestScannerNextMatches(t *testing.T) {
	number := MustCompile(`\d+`, 0)
	s := NewScanner("12 ab 7", nil)

	ok, err := s.NextMatches(number)
	assert.NilError(t, err)
	assert.Assert(t, ok)
	// Peeking does not consume.
	ok, err = s.NextMatches(number)
	assert.NilError(t, err)
	assert.Assert(t, ok)

	assert.Assert(t, s.Scan())
	assert.Equal(t, s.Text(), "12")
	ok, err = s.NextMatches(number)
	assert.NilError(t, err)
	assert.Assert(t, !ok)

	assert.Assert(t, s.Scan())
	assert.Assert(t, s.Scan())
	assert.Equal(t, s.Text(), "7")
	ok, err = s.NextMatches(number)
	assert.NilError(t, err)
	assert.Assert(t, !ok)
	assert.Assert(t, !s.Scan())
}

func TestScannerError(t *testing.T) {
	delim := MustCompile(`(x+x+)+y`, 0).WithLimits(Limits{MaxSteps: 500})
	s := NewScanner("y a xxxxxxxxxxxxxxxxxxxxxxxx b", delim)
	assert.Assert(t, !s.Scan())
	assert.Assert(t, errors.Is(s.Err(), ErrTimeout))
	_, err := s.NextMatches(delim)
	assert.Assert(t, errors.Is(err, ErrTimeout))
}
