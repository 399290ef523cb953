package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"gotest.tools/v3/assert"

	"github.com/auvred/jregex"
)

func newTestEnv() (*env, *bytes.Buffer) {
	color.NoColor = true
	out := &bytes.Buffer{}
	return &env{
		cache: jregex.NewCache(4),
		out:   out,
	}, out
}

func TestMatchCmd(t *testing.T) {
	e, out := newTestEnv()
	cmd := &matchCmd{Pattern: `(?<key>\w+)=(\d+)?`, Inputs: []string{"a=1", "b=", "c=1x"}}
	assert.NilError(t, cmd.Run(e))
	assert.Equal(t, out.String(), `"a=1": true
  1<key>: "a" [0,1)
  2: "1" [2,3)
"b=": true
  1<key>: "b" [0,1)
  2: (no match)
"c=1x": false
`)

	out.Reset()
	cmd = &matchCmd{Prefix: true, Pattern: `\d+`, Inputs: []string{"12ab"}}
	assert.NilError(t, cmd.Run(e))
	assert.Equal(t, out.String(), "\"12ab\": true\n")
}

func TestFindCmd(t *testing.T) {
	e, out := newTestEnv()
	cmd := &findCmd{Pattern: `\d+`, Inputs: []string{"no digits", "a1b22"}}
	assert.NilError(t, cmd.Run(e))
	assert.Equal(t, out.String(), "2:a1b22\n")

	for _, tc := range []struct{ pattern, input string }{
		{`a(?=(bc))`, "abc"},
		{`(?<=(a))b`, "ab"},
		{`a(?=b(c))(b)`, "abc"},
	} {
		e, out := newTestEnv()
		cmd := &findCmd{Pattern: tc.pattern, Inputs: []string{tc.input}}
		assert.NilError(t, cmd.Run(e))
		assert.Equal(t, out.String(), "1:"+tc.input+"\n")
	}
}

func TestReplaceCmd(t *testing.T) {
	e, out := newTestEnv()
	cmd := &replaceCmd{Pattern: `(\w+)@(\w+)`, Template: "$2/$1", Inputs: []string{"me@host x@y"}}
	assert.NilError(t, cmd.Run(e))
	assert.Equal(t, out.String(), "host/me y/x\n")

	cmd = &replaceCmd{Pattern: `a`, Template: "$7", Inputs: []string{"a"}}
	assert.ErrorContains(t, cmd.Run(e), "no group 7")
}

func TestSplitCmd(t *testing.T) {
	e, out := newTestEnv()
	cmd := &splitCmd{Pattern: ":", Inputs: []string{"boo:and:foo"}}
	assert.NilError(t, cmd.Run(e))
	assert.Equal(t, out.String(), "\"boo\"\n\"and\"\n\"foo\"\n")
}

func TestBacktrackCmdStopsAtLimit(t *testing.T) {
	e, out := newTestEnv()
	e.limits = jregex.Limits{MaxSteps: 5000}
	cmd := &backtrackCmd{Max: 30}
	assert.NilError(t, cmd.Run(e))
	assert.Assert(t, bytes.Contains(out.Bytes(), []byte("gave up after")))
}

func TestCompileErrorsAreReported(t *testing.T) {
	e, _ := newTestEnv()
	cmd := &matchCmd{Pattern: "(", Inputs: []string{"x"}}
	assert.ErrorContains(t, cmd.Run(e), "unclosed group")
}
