package jregex

import (
	"iter"
	"strings"
)

// Group represents a single captured substring of a match.
// It is safe for concurrent use by multiple goroutines.
type Group struct {
	src string
	// Start is the inclusive start byte offset of the captured substring,
	// or -1 if the group did not participate in the match.
	Start int
	// End is the exclusive end byte offset of the captured substring,
	// or -1 if the group did not participate in the match.
	End int
	// Name is the group name if defined, otherwise empty.
	Name string
}

// Matched reports whether the group participated in the match.
func (g Group) Matched() bool {
	return g.Start != -1
}

// Text returns the captured substring.
// If the group did not participate in the match, it returns "".
func (g Group) Text() string {
	if g.Start == -1 {
		return ""
	}
	return g.src[g.Start:g.End]
}

// Match holds the result of a successful match. It is an immutable snapshot
// and is safe for concurrent use by multiple goroutines.
type Match struct {
	input string
	// Groups is the ordered list of captures.
	// Groups[0] is the full match; subsequent entries correspond to
	// the capturing groups in the pattern.
	Groups []Group
	// NamedGroups maps a group name to its captured group.
	NamedGroups map[string]Group
}

func newMatch(input string, captures []capture, names []string) *Match {
	m := &Match{
		input:  input,
		Groups: make([]Group, len(captures)),
	}
	for i, c := range captures {
		m.Groups[i] = Group{
			src:   input,
			Start: c.start,
			End:   c.end,
			Name:  names[i],
		}
		if names[i] != "" {
			if m.NamedGroups == nil {
				m.NamedGroups = map[string]Group{}
			}
			m.NamedGroups[names[i]] = m.Groups[i]
		}
	}
	return m
}

// Group returns group i. It returns false if the pattern has no such group.
func (m *Match) Group(i int) (Group, bool) {
	if i < 0 || i >= len(m.Groups) {
		return Group{Start: -1, End: -1}, false
	}
	return m.Groups[i], true
}

// Text returns the text captured by group i. It returns false if there is no
// such group or the group did not participate in the match.
func (m *Match) Text(i int) (string, bool) {
	g, ok := m.Group(i)
	if !ok || !g.Matched() {
		return "", false
	}
	return g.Text(), true
}

// Span returns the byte offsets of group i.
func (m *Match) Span(i int) (start, end int, ok bool) {
	g, ok := m.Group(i)
	if !ok || !g.Matched() {
		return -1, -1, false
	}
	return g.Start, g.End, true
}

// Named returns the group with the given name.
func (m *Match) Named(name string) (Group, bool) {
	g, ok := m.NamedGroups[name]
	return g, ok
}

// Start returns the start offset of the whole match.
func (m *Match) Start() int {
	return m.Groups[0].Start
}

// End returns the end offset of the whole match.
func (m *Match) End() int {
	return m.Groups[0].End
}

// String returns the matched text.
func (m *Match) String() string {
	return m.Groups[0].Text()
}

// Input returns the string the match was found in.
func (m *Match) Input() string {
	return m.input
}

// Finder iterates over successive matches of a pattern in one input, the
// way repeated calls to Matcher.find do. \G matches where the previous match
// ended. A Finder is not safe for concurrent use.
type Finder struct {
	re      *Regexp
	input   string
	pf      *prefilterState
	next    int
	prevEnd int
	done    bool
}

// Finder returns a Finder positioned at the start of input.
func (re *Regexp) Finder(input string) *Finder {
	return &Finder{re: re, input: input, pf: re.prog.prefilter.newState(input)}
}

// Reset rewinds f to the start of its input.
func (f *Finder) Reset() {
	f.next = 0
	f.prevEnd = 0
	f.done = false
}

// Next returns the next match, or nil once there are no more matches.
// After an empty match the search resumes one code point later.
func (f *Finder) Next() (*Match, error) {
	if f.done {
		return nil, nil
	}
	m, err := f.re.searchState(f.pf, f.input, f.next, f.prevEnd, searchUnanchored)
	if err != nil || m == nil {
		f.done = true
		return nil, err
	}
	f.prevEnd = m.End()
	f.next = m.End()
	if m.Start() == m.End() {
		f.next = nextStart(f.input, f.next)
		f.done = f.next == -1
	}
	return m, nil
}

// All returns an iterator over the successive matches of re in input. The
// iteration stops after the first error, which is yielded with a nil match.
func (re *Regexp) All(input string) iter.Seq2[*Match, error] {
	return func(yield func(*Match, error) bool) {
		f := re.Finder(input)
		for {
			m, err := f.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			if m == nil || !yield(m, nil) {
				return
			}
		}
	}
}

// FindAll returns up to n successive matches of re in input; n < 0 means
// all of them. A pattern that only matches the empty string yields
// len(input)+1 matches for ASCII input.
func (re *Regexp) FindAll(input string, n int) ([]*Match, error) {
	var ms []*Match
	for m, err := range re.All(input) {
		if err != nil {
			return nil, err
		}
		if n >= 0 && len(ms) == n {
			break
		}
		ms = append(ms, m)
	}
	return ms, nil
}

// ReplaceAll replaces every match of re in input with the expansion of
// template, as Matcher.replaceAll does. In template, $n and ${name} refer
// to groups and a backslash escapes the next character; see
// QuoteReplacement.
func (re *Regexp) ReplaceAll(input, template string) (string, error) {
	t, err := parseTemplate(template, re)
	if err != nil {
		return "", err
	}
	return re.replace(input, -1, t.expand)
}

// ReplaceFirst is like ReplaceAll but replaces only the first match.
func (re *Regexp) ReplaceFirst(input, template string) (string, error) {
	t, err := parseTemplate(template, re)
	if err != nil {
		return "", err
	}
	return re.replace(input, 1, t.expand)
}

// ReplaceAllFunc replaces every match of re in input with the return value
// of repl, which is inserted literally.
func (re *Regexp) ReplaceAllFunc(input string, repl func(*Match) string) (string, error) {
	return re.replace(input, -1, func(b *strings.Builder, m *Match) {
		b.WriteString(repl(m))
	})
}

func (re *Regexp) replace(input string, n int, expand func(*strings.Builder, *Match)) (string, error) {
	var b strings.Builder
	last := 0
	count := 0
	for m, err := range re.All(input) {
		if err != nil {
			return "", err
		}
		if n >= 0 && count == n {
			break
		}
		b.WriteString(input[last:m.Start()])
		expand(&b, m)
		last = m.End()
		count++
	}
	if count == 0 {
		return input, nil
	}
	b.WriteString(input[last:])
	return b.String(), nil
}

// Split slices input around the matches of re, as String.split does.
//
// If limit > 0, at most limit pieces are returned and the last piece holds
// the unsplit remainder. If limit == 0, trailing empty strings are removed.
// If limit < 0, all pieces are returned. A zero-width match at the start of
// input never produces a leading empty string. When re does not match,
// the result is a slice holding input.
func (re *Regexp) Split(input string, limit int) ([]string, error) {
	var pieces []string
	index := 0
	for m, err := range re.All(input) {
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(pieces) >= limit-1 {
			break
		}
		if index == 0 && m.Start() == 0 && m.End() == 0 {
			continue
		}
		pieces = append(pieces, input[index:m.Start()])
		index = m.End()
	}
	if index == 0 {
		return []string{input}, nil
	}
	pieces = append(pieces, input[index:])
	if limit == 0 {
		for len(pieces) > 0 && pieces[len(pieces)-1] == "" {
			pieces = pieces[:len(pieces)-1]
		}
	}
	return pieces, nil
}

// Quote returns a pattern that matches s literally, as Pattern.quote does.
func Quote(s string) string {
	if !strings.Contains(s, `\E`) {
		return `\Q` + s + `\E`
	}
	return `\Q` + strings.ReplaceAll(s, `\E`, `\E\\E\Q`) + `\E`
}

// QuoteReplacement returns a replacement template that inserts s literally,
// as Matcher.quoteReplacement does.
func QuoteReplacement(s string) string {
	if !strings.ContainsAny(s, `\$`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r == '\\' || r == '$' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
