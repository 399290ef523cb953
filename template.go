package jregex

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type templatePiece struct {
	literal string
	// Group to insert, or -1 for a literal piece
	group int
}

// template is a parsed replacement string.
type template struct {
	pieces []templatePiece
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isASCIILetterOrDigit(c byte) bool {
	return isASCIIDigit(c) || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

// parseTemplate parses a replacement in Matcher.appendReplacement syntax.
// Group references are checked against re once, up front.
func parseTemplate(tmpl string, re *Regexp) (*template, error) {
	t := &template{}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.pieces = append(t.pieces, templatePiece{literal: lit.String(), group: -1})
			lit.Reset()
		}
	}
	numGroups := re.NumGroups()

	for i := 0; i < len(tmpl); {
		switch tmpl[i] {
		case '\\':
			i++
			if i >= len(tmpl) {
				return nil, newTemplateError(tmpl, i, "character to be escaped is missing")
			}
			r, size := utf8.DecodeRuneInString(tmpl[i:])
			lit.WriteRune(r)
			i += size
		case '$':
			i++
			if i >= len(tmpl) {
				return nil, newTemplateError(tmpl, i, "illegal group reference: group index is missing")
			}
			var group int
			if tmpl[i] == '{' {
				i++
				start := i
				for i < len(tmpl) && isASCIILetterOrDigit(tmpl[i]) {
					i++
				}
				if i == start {
					return nil, newTemplateError(tmpl, i, "named capturing group has 0 length name")
				}
				if i >= len(tmpl) || tmpl[i] != '}' {
					return nil, newTemplateError(tmpl, i, "named capturing group is missing trailing '}'")
				}
				name := tmpl[start:i]
				i++
				if isASCIIDigit(name[0]) {
					return nil, newTemplateError(tmpl, start, fmt.Sprintf("capturing group name {%s} starts with digit character", name))
				}
				group = re.GroupIndex(name)
				if group == -1 {
					return nil, newTemplateError(tmpl, start, fmt.Sprintf("no group with name {%s}", name))
				}
			} else {
				if !isASCIIDigit(tmpl[i]) {
					return nil, newTemplateError(tmpl, i, "illegal group reference")
				}
				group = int(tmpl[i] - '0')
				if group > numGroups {
					return nil, newTemplateError(tmpl, i, fmt.Sprintf("no group %d", group))
				}
				i++
				// Take more digits only while they still name a group.
				for i < len(tmpl) && isASCIIDigit(tmpl[i]) {
					next := group*10 + int(tmpl[i]-'0')
					if next > numGroups {
						break
					}
					group = next
					i++
				}
			}
			flush()
			t.pieces = append(t.pieces, templatePiece{group: group})
		default:
			lit.WriteByte(tmpl[i])
			i++
		}
	}
	flush()
	return t, nil
}

// expand appends the replacement for m to b. A group that did not
// participate expands to nothing.
func (t *template) expand(b *strings.Builder, m *Match) {
	for _, p := range t.pieces {
		if p.group == -1 {
			b.WriteString(p.literal)
			continue
		}
		b.WriteString(m.Groups[p.group].Text())
	}
}
