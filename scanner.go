package jregex

var defaultDelimiter = MustCompile(`\p{javaWhitespace}+`, 0)

// Scanner splits its input into tokens separated by matches of a delimiter
// pattern, like java.util.Scanner. Leading delimiters are skipped and tokens
// are never empty. A Scanner is not safe for concurrent use.
type Scanner struct {
	input string
	delim *Regexp
	pf    *prefilterState
	pos   int
	token string
	err   error
}

// NewScanner returns a Scanner over input. A nil delim separates tokens by
// whitespace.
func NewScanner(input string, delim *Regexp) *Scanner {
	if delim == nil {
		delim = defaultDelimiter
	}
	return &Scanner{input: input, delim: delim, pf: delim.prog.prefilter.newState(input)}
}

// Scan advances to the next token, which is then available through Text.
// It returns false when the input is exhausted or a search failed.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	start, end, ok, err := s.peek()
	if err != nil {
		s.err = err
		return false
	}
	if !ok {
		s.token = ""
		return false
	}
	s.token = s.input[start:end]
	s.pos = end
	return true
}

// Text returns the token found by the last call to Scan.
func (s *Scanner) Text() string {
	return s.token
}

// Err returns the first search error met by Scan.
func (s *Scanner) Err() error {
	return s.err
}

// NextMatches reports whether the next token exists and matches re
// entirely, without consuming it.
func (s *Scanner) NextMatches(re *Regexp) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	start, end, ok, err := s.peek()
	if err != nil || !ok {
		return false, err
	}
	return re.MatchesFully(s.input[start:end])
}

// peek locates the next token without consuming it.
func (s *Scanner) peek() (start, end int, ok bool, err error) {
	pos := s.pos
	for pos < len(s.input) {
		m, err := s.delim.searchState(s.pf, s.input, pos, pos, searchAnchored)
		if err != nil {
			return 0, 0, false, err
		}
		if m == nil || m.End() == pos {
			break
		}
		pos = m.End()
	}
	if pos >= len(s.input) {
		return 0, 0, false, nil
	}

	end = len(s.input)
	from := pos
	for {
		m, err := s.delim.searchState(s.pf, s.input, from, pos, searchUnanchored)
		if err != nil {
			return 0, 0, false, err
		}
		if m == nil {
			break
		}
		if m.Start() > pos {
			end = m.Start()
			break
		}
		// A delimiter match at the token start cannot end the token.
		if from = nextStart(s.input, m.Start()); from == -1 {
			break
		}
	}
	return pos, end, true, nil
}
