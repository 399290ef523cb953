package syntax

import (
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Flags alter how pattern text is parsed.
type Flags uint8

const (
	// Letters match regardless of case ("i" flag).
	CaseInsensitive Flags = 1 << iota

	// "^" and "$" match at line boundaries ("m" flag).
	Multiline

	// "." matches line terminators ("s" flag).
	DotAll

	// Whitespace and "#" comments outside classes are ignored ("x" flag).
	Comments
)

type parser struct {
	src   []rune
	pos   int
	flags Flags
	// Capturing groups opened so far; a backreference such as \12 only
	// takes its second digit when group 12 has been opened already.
	groups int
}

// Parse parses pattern text written in java.util.regex syntax.
// Named classes are resolved while parsing, so the returned tree only
// holds CharClass values.
func Parse(pattern string, flags Flags) (Node, error) {
	p := &parser{
		src:   []rune(pattern),
		flags: flags,
	}
	n, err := p.parseAlternation()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		// Only an unmatched ')' stops the top-level alternation early.
		return nil, p.errorf("unmatched closing ')'")
	}
	return n, nil
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.src)
}

// If the pattern is ended, returns 0, true
func (p *parser) peek() (rune, bool) {
	return p.peekNth(0)
}

func (p *parser) peekNth(n int) (rune, bool) {
	if p.pos+n >= len(p.src) {
		return 0, true
	}
	return p.src[p.pos+n], false
}

func (p *parser) consume(expected rune) bool {
	if r, ended := p.peek(); ended || r != expected {
		return false
	}
	p.pos++
	return true
}

func (p *parser) hasPrefix(s string) bool {
	for i, r := range []rune(s) {
		if got, ended := p.peekNth(i); ended || got != r {
			return false
		}
	}
	return true
}

func (p *parser) foldCase() bool {
	return p.flags&CaseInsensitive != 0
}

// negate complements c. Under case folding the complement is taken of the
// fold closure, so the result holds no case variant of a member of c.
func (p *parser) negate(c *CharClass) *CharClass {
	if p.foldCase() {
		c = FoldClosure(c)
	}
	return Negate(c)
}

// skipComments skips whitespace and "#" comments in comments mode.
func (p *parser) skipComments() {
	if p.flags&Comments == 0 {
		return
	}
	for !p.atEnd() {
		r := p.src[p.pos]
		switch {
		case unicode.IsSpace(r):
			p.pos++
		case r == '#':
			for !p.atEnd() && !IsLineTerminator(p.src[p.pos]) {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *parser) parseAlternation() (Node, error) {
	first, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if !p.consume('|') {
		return first, nil
	}
	alt := &Alternation{Branches: []Node{first}}
	for {
		b, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		alt.Branches = append(alt.Branches, b)
		if !p.consume('|') {
			return alt, nil
		}
	}
}

func (p *parser) parseSequence() (Node, error) {
	var terms []Node
	for {
		p.skipComments()
		r, ended := p.peek()
		if ended || r == '|' || r == ')' {
			break
		}
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		if atom == nil {
			// flag group such as (?i)
			continue
		}
		atom, err = p.parseQuantifier(atom)
		if err != nil {
			return nil, err
		}
		terms = appendTerm(terms, atom)
	}
	switch len(terms) {
	case 0:
		return &Sequence{}, nil
	case 1:
		return terms[0], nil
	}
	return &Sequence{Children: terms}, nil
}

// appendTerm merges runs of unquantified literals.
func appendTerm(terms []Node, n Node) []Node {
	lit, ok := n.(*Literal)
	if !ok || len(terms) == 0 {
		return append(terms, n)
	}
	prev, ok := terms[len(terms)-1].(*Literal)
	if !ok || prev.FoldCase != lit.FoldCase {
		return append(terms, n)
	}
	prev.Runes = append(prev.Runes, lit.Runes...)
	return terms
}

func (p *parser) parseQuantifier(atom Node) (Node, error) {
	p.skipComments()
	r, ended := p.peek()
	if ended {
		return atom, nil
	}
	start := p.pos
	q := &Quantifier{Child: atom}
	switch r {
	case '*':
		p.pos++
		q.Min, q.Max = 0, Unbounded
	case '+':
		p.pos++
		q.Min, q.Max = 1, Unbounded
	case '?':
		p.pos++
		q.Min, q.Max = 0, 1
	case '{':
		p.pos++
		n, ok := p.parseDecimal()
		if !ok {
			p.pos = start
			return nil, p.errorf("illegal repetition")
		}
		q.Min, q.Max = n, n
		if p.consume(',') {
			q.Max = Unbounded
			if m, ok := p.parseDecimal(); ok {
				q.Max = m
			}
		}
		if !p.consume('}') {
			return nil, p.errorf("unclosed counted closure")
		}
		if q.Max != Unbounded && q.Min > q.Max {
			return nil, p.errorf("illegal repetition range")
		}
	default:
		return atom, nil
	}
	switch {
	case p.consume('?'):
		q.Mode = Lazy
	case p.consume('+'):
		q.Mode = Possessive
	}
	// A literal run only repeats its last rune: ab* is a(b*).
	if lit, ok := atom.(*Literal); ok && len(lit.Runes) > 1 {
		n := len(lit.Runes) - 1
		q.Child = &Literal{Runes: []rune{lit.Runes[n]}, FoldCase: lit.FoldCase}
		head := &Literal{Runes: slices.Clip(lit.Runes[:n]), FoldCase: lit.FoldCase}
		return &Sequence{Children: []Node{head, q}}, nil
	}
	return q, nil
}

// If there are no digits, returns 0, false
func (p *parser) parseDecimal() (int, bool) {
	start := p.pos
	n := 0
	for !p.atEnd() && '0' <= p.src[p.pos] && p.src[p.pos] <= '9' {
		if n > (1<<31-1)/10 {
			return 0, false
		}
		n = n*10 + int(p.src[p.pos]-'0')
		p.pos++
	}
	return n, p.pos > start
}

func (p *parser) parseAtom() (Node, error) {
	r := p.src[p.pos]
	switch r {
	case '(':
		p.pos++
		return p.parseGroup()
	case '[':
		p.pos++
		set, err := p.parseClass()
		if err != nil {
			return nil, err
		}
		return &Class{Set: set, FoldCase: p.foldCase()}, nil
	case '.':
		p.pos++
		if p.flags&DotAll != 0 {
			return &Class{Set: Any()}, nil
		}
		return &Class{Set: Negate(lineTerminators)}, nil
	case '^':
		p.pos++
		if p.flags&Multiline != 0 {
			return &Anchor{Kind: StartOfLine}, nil
		}
		return &Anchor{Kind: StartOfInput}, nil
	case '$':
		p.pos++
		if p.flags&Multiline != 0 {
			return &Anchor{Kind: EndOfLine}, nil
		}
		return &Anchor{Kind: EndOfInputOrFinalTerminator}, nil
	case '\\':
		p.pos++
		return p.parseEscape()
	case '*', '+', '?':
		return nil, p.errorf("dangling meta character '%c'", r)
	case '{':
		return nil, p.errorf("illegal repetition")
	}
	p.pos++
	return &Literal{Runes: []rune{r}, FoldCase: p.foldCase()}, nil
}

// parseGroup parses everything after '('. It returns a nil node for a flag
// group without a body, such as (?i).
func (p *parser) parseGroup() (Node, error) {
	saved := p.flags
	defer func() { p.flags = saved }()

	if !p.consume('?') {
		p.groups++
		return p.parseGroupBody(func(child Node) Node {
			return &Group{Kind: Capturing, Child: child}
		})
	}

	r, ended := p.peek()
	if ended {
		return nil, p.errorf("unknown inline modifier")
	}
	switch {
	case r == ':':
		p.pos++
		return p.parseGroupBody(func(child Node) Node {
			return &Group{Kind: NonCapturing, Child: child}
		})
	case r == '>':
		p.pos++
		return p.parseGroupBody(func(child Node) Node {
			return &Group{Kind: Atomic, Child: child}
		})
	case r == '=' || r == '!':
		p.pos++
		return p.parseGroupBody(func(child Node) Node {
			return &Lookaround{Kind: Ahead, Negated: r == '!', Child: child}
		})
	case p.hasPrefix("<=") || p.hasPrefix("<!"):
		negated := p.src[p.pos+1] == '!'
		p.pos += 2
		return p.parseGroupBody(func(child Node) Node {
			return &Lookaround{Kind: Behind, Negated: negated, Child: child}
		})
	case r == '<':
		p.pos++
		name, err := p.parseGroupName()
		if err != nil {
			return nil, err
		}
		p.groups++
		return p.parseGroupBody(func(child Node) Node {
			return &Group{Kind: Capturing, Name: name, Child: child}
		})
	}

	flags, err := p.parseInlineFlags()
	if err != nil {
		return nil, err
	}
	if p.consume(')') {
		// Applies until the end of the enclosing group.
		saved = flags
		return nil, nil
	}
	if !p.consume(':') {
		return nil, p.errorf("unknown inline modifier")
	}
	p.flags = flags
	return p.parseGroupBody(func(child Node) Node {
		return &Group{Kind: NonCapturing, Child: child}
	})
}

func (p *parser) parseGroupBody(wrap func(Node) Node) (Node, error) {
	child, err := p.parseAlternation()
	if err != nil {
		return nil, err
	}
	if !p.consume(')') {
		return nil, p.errorf("unclosed group")
	}
	return wrap(child), nil
}

func (p *parser) parseInlineFlags() (Flags, error) {
	flags := p.flags
	negate := false
	for {
		r, ended := p.peek()
		if ended {
			return 0, p.errorf("unclosed group")
		}
		var f Flags
		switch r {
		case 'i':
			f = CaseInsensitive
		case 'm':
			f = Multiline
		case 's':
			f = DotAll
		case 'x':
			f = Comments
		case 'u', 'd', 'U':
			// accepted for compatibility, no effect
		case '-':
			if negate {
				return 0, p.errorf("unknown inline modifier")
			}
			negate = true
		case ')', ':':
			return flags, nil
		default:
			return 0, p.errorf("unknown inline modifier")
		}
		p.pos++
		if negate {
			flags &^= f
		} else {
			flags |= f
		}
	}
}

func (p *parser) parseGroupName() (string, error) {
	start := p.pos
	for !p.atEnd() && p.src[p.pos] != '>' {
		r := p.src[p.pos]
		isLetter := 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
		isDigit := '0' <= r && r <= '9'
		if !isLetter && !(isDigit && p.pos > start) {
			return "", p.errorf("named capturing group is missing trailing '>'")
		}
		p.pos++
	}
	if p.atEnd() {
		return "", p.errorf("named capturing group is missing trailing '>'")
	}
	if p.pos == start {
		return "", p.errorf("named capturing group has 0 length name")
	}
	name := string(p.src[start:p.pos])
	p.pos++
	return name, nil
}

// parseEscape parses everything after '\' outside of a class.
func (p *parser) parseEscape() (Node, error) {
	r, ended := p.peek()
	if ended {
		return nil, p.errorf("unexpected internal error")
	}
	switch r {
	case 'A':
		p.pos++
		return &Anchor{Kind: StartOfInput}, nil
	case 'z':
		p.pos++
		return &Anchor{Kind: EndOfInput}, nil
	case 'Z':
		p.pos++
		return &Anchor{Kind: EndOfInputOrFinalTerminator}, nil
	case 'G':
		p.pos++
		return &Anchor{Kind: EndOfPreviousMatch}, nil
	case 'b':
		p.pos++
		return &Anchor{Kind: WordBoundary}, nil
	case 'B':
		p.pos++
		return &Anchor{Kind: NonWordBoundary}, nil
	case 'Q':
		p.pos++
		start := p.pos
		for !p.atEnd() && !p.hasPrefix(`\E`) {
			p.pos++
		}
		runes := append([]rune(nil), p.src[start:p.pos]...)
		if !p.atEnd() {
			p.pos += 2
		}
		if len(runes) == 0 {
			return &Sequence{}, nil
		}
		return &Literal{Runes: runes, FoldCase: p.foldCase()}, nil
	case 'E':
		// \E without \Q is ignored
		p.pos++
		return &Sequence{}, nil
	case 'k':
		p.pos++
		if !p.consume('<') {
			return nil, p.errorf("\\k is not followed by '<' for named capturing group")
		}
		name, err := p.parseGroupName()
		if err != nil {
			return nil, err
		}
		return &Backreference{Name: name, FoldCase: p.foldCase()}, nil
	case 'R':
		p.pos++
		return &Group{Kind: Atomic, Child: &Alternation{Branches: []Node{
			&Literal{Runes: []rune("\r\n")},
			&Class{Set: FromRanges(Range{Lo: '\n', Hi: '\r'}, Range{Lo: 0x85, Hi: 0x85}, Range{Lo: 0x2028, Hi: 0x2029})},
		}}}, nil
	}
	if '1' <= r && r <= '9' {
		return p.parseBackreference(), nil
	}
	set, c, err := p.parseCharEscape()
	if err != nil {
		return nil, err
	}
	if set != nil {
		return &Class{Set: set, FoldCase: p.foldCase()}, nil
	}
	return &Literal{Runes: []rune{c}, FoldCase: p.foldCase()}, nil
}

// parseBackreference reads the longest group number that names a group
// opened so far. The first digit is always taken.
func (p *parser) parseBackreference() Node {
	n := int(p.src[p.pos] - '0')
	p.pos++
	for !p.atEnd() {
		d := p.src[p.pos]
		if d < '0' || d > '9' {
			break
		}
		next := n*10 + int(d-'0')
		if next > p.groups {
			break
		}
		n = next
		p.pos++
	}
	return &Backreference{Index: n, FoldCase: p.foldCase()}
}

// parseCharEscape parses an escape valid both inside and outside classes
// (the character after '\'). It returns either a set or a single code point.
func (p *parser) parseCharEscape() (*CharClass, rune, error) {
	r := p.src[p.pos]
	p.pos++
	switch r {
	case 'd':
		return digitClass, 0, nil
	case 'D':
		return p.negate(digitClass), 0, nil
	case 'w':
		return wordClass, 0, nil
	case 'W':
		return p.negate(wordClass), 0, nil
	case 's':
		return spaceClass, 0, nil
	case 'S':
		return p.negate(spaceClass), 0, nil
	case 'h':
		return horizontalSpace, 0, nil
	case 'H':
		return p.negate(horizontalSpace), 0, nil
	case 'v':
		return verticalSpace, 0, nil
	case 'V':
		return p.negate(verticalSpace), 0, nil
	case 'p', 'P':
		set, err := p.parseProperty()
		if err != nil {
			return nil, 0, err
		}
		if r == 'P' {
			set = p.negate(set)
		}
		return set, 0, nil
	case 't':
		return nil, '\t', nil
	case 'n':
		return nil, '\n', nil
	case 'r':
		return nil, '\r', nil
	case 'f':
		return nil, '\f', nil
	case 'a':
		return nil, '\a', nil
	case 'e':
		return nil, '\x1B', nil
	case '0':
		c, err := p.parseOctal()
		return nil, c, err
	case 'x':
		c, err := p.parseHex()
		return nil, c, err
	case 'u':
		c, ok := p.parseHexDigits(4)
		if !ok {
			return nil, 0, p.errorf("illegal Unicode escape sequence")
		}
		return nil, c, nil
	case 'c':
		if p.atEnd() {
			return nil, 0, p.errorf("illegal control escape sequence")
		}
		c := p.src[p.pos]
		p.pos++
		return nil, c ^ 64, nil
	}
	if r < 0x80 && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
		p.pos--
		return nil, 0, p.errorf("illegal/unsupported escape sequence")
	}
	return nil, r, nil
}

func (p *parser) parseProperty() (*CharClass, error) {
	var name string
	if p.consume('{') {
		start := p.pos
		for !p.atEnd() && p.src[p.pos] != '}' {
			p.pos++
		}
		if p.atEnd() {
			return nil, p.errorf("unclosed character family")
		}
		name = string(p.src[start:p.pos])
		p.pos++
	} else {
		if p.atEnd() {
			return nil, p.errorf("illegal character family")
		}
		name = string(p.src[p.pos])
		p.pos++
	}
	set, ok := Named(name)
	if !ok {
		return nil, p.errorf("unknown character property name {%s}", name)
	}
	return set, nil
}

// \0n, \0nn or \0mnn with m <= 3
func (p *parser) parseOctal() (rune, error) {
	var digits []rune
	for len(digits) < 3 && !p.atEnd() && '0' <= p.src[p.pos] && p.src[p.pos] <= '7' {
		if len(digits) == 2 && digits[0] > '3' {
			break
		}
		digits = append(digits, p.src[p.pos])
		p.pos++
	}
	if len(digits) == 0 {
		return 0, p.errorf("illegal octal escape sequence")
	}
	n, _ := strconv.ParseInt(string(digits), 8, 32)
	return rune(n), nil
}

func (p *parser) parseHex() (rune, error) {
	if !p.consume('{') {
		c, ok := p.parseHexDigits(2)
		if !ok {
			return 0, p.errorf("illegal hexadecimal escape sequence")
		}
		return c, nil
	}
	start := p.pos
	for !p.atEnd() && p.src[p.pos] != '}' {
		p.pos++
	}
	if p.atEnd() || p.pos == start {
		return 0, p.errorf("unclosed hexadecimal escape sequence")
	}
	n, err := strconv.ParseUint(string(p.src[start:p.pos]), 16, 32)
	if err != nil || n > unicode.MaxRune {
		return 0, p.errorf("hexadecimal codepoint is too big")
	}
	p.pos++
	return rune(n), nil
}

func (p *parser) parseHexDigits(n int) (rune, bool) {
	if p.pos+n > len(p.src) {
		return 0, false
	}
	v, err := strconv.ParseUint(string(p.src[p.pos:p.pos+n]), 16, 32)
	if err != nil {
		return 0, false
	}
	p.pos += n
	return rune(v), true
}

// parseClass parses everything after '[' up to and including the matching
// ']'. Negation applies to the whole class, after all intersections.
func (p *parser) parseClass() (*CharClass, error) {
	negated := p.consume('^')
	var set *CharClass
	first := true
	for {
		operand, err := p.parseClassUnion(first)
		if err != nil {
			return nil, err
		}
		switch {
		case set == nil:
			set = operand
		case operand != nil:
			set = Intersect(set, operand)
		}
		first = false
		if p.hasPrefix("&&") {
			p.pos += 2
			continue
		}
		if !p.consume(']') {
			return nil, p.errorf("unclosed character class")
		}
		break
	}
	if set == nil {
		set = Empty()
	}
	if negated {
		// [^a] under (?i) must not match 'A' either.
		set = p.negate(set)
	}
	return set, nil
}

// parseClassUnion parses class items up to "&&" or ']'. It returns nil when
// there are no items at all.
func (p *parser) parseClassUnion(first bool) (*CharClass, error) {
	var set *CharClass
	add := func(c *CharClass) {
		if set == nil {
			set = c
			return
		}
		set = Union(set, c)
	}
	for {
		if p.flags&Comments != 0 {
			for !p.atEnd() && unicode.IsSpace(p.src[p.pos]) {
				p.pos++
			}
		}
		r, ended := p.peek()
		if ended {
			return nil, p.errorf("unclosed character class")
		}
		switch {
		case r == ']' && !first:
			return set, nil
		case r == '&' && p.hasPrefix("&&"):
			return set, nil
		case r == '[':
			p.pos++
			nested, err := p.parseClass()
			if err != nil {
				return nil, err
			}
			add(nested)
			first = false
			continue
		}
		first = false

		lo, loSet, err := p.parseClassAtom()
		if err != nil {
			return nil, err
		}
		if loSet != nil {
			add(loSet)
			continue
		}
		if !p.isRangeDash() {
			add(FromRunes(lo))
			continue
		}
		p.pos++
		hi, hiSet, err := p.parseClassAtom()
		if err != nil {
			return nil, err
		}
		if hiSet != nil || hi < lo {
			return nil, p.errorf("illegal character range")
		}
		add(FromRange(lo, hi))
	}
}

// isRangeDash reports whether the next '-' joins two class atoms.
// A '-' before ']' or '[' is a literal.
func (p *parser) isRangeDash() bool {
	if r, ended := p.peek(); ended || r != '-' {
		return false
	}
	next, ended := p.peekNth(1)
	return !ended && next != ']' && next != '['
}

func (p *parser) parseClassAtom() (rune, *CharClass, error) {
	r := p.src[p.pos]
	p.pos++
	if r != '\\' {
		return r, nil, nil
	}
	if p.atEnd() {
		return 0, nil, p.errorf("unclosed character class")
	}
	if p.src[p.pos] == 'Q' {
		p.pos++
		start := p.pos
		for !p.atEnd() && !p.hasPrefix(`\E`) {
			p.pos++
		}
		quoted := FromRunes(p.src[start:p.pos]...)
		if !p.atEnd() {
			p.pos += 2
		}
		return 0, quoted, nil
	}
	set, c, err := p.parseCharEscape()
	return c, set, err
}

// QuoteMeta returns s with every metacharacter escaped, so that it can be
// embedded in a pattern and match itself literally.
func QuoteMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$#&-`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
