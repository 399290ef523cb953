package syntax

import (
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Range is an inclusive range of code points.
type Range struct {
	Lo rune
	Hi rune
}

// CharClass is an immutable set of code points.
// The zero value and nil are both the empty class.
//
// Classes are built with FromRunes, FromRange and Named, and composed with
// Negate, Union, Intersect and Subtract. Every combinator returns a new class
// computed from its operands exactly in the order it was called, so nested
// intersections and subtractions keep the meaning of the pattern they came
// from.
type CharClass struct {
	// Non-overlapping, non-adjacent ranges sorted in ascending order
	ranges []Range
}

// Empty returns a class that matches nothing.
func Empty() *CharClass {
	return &CharClass{}
}

// Any returns a class that matches every code point.
func Any() *CharClass {
	return &CharClass{ranges: []Range{{Lo: 0, Hi: unicode.MaxRune}}}
}

// FromRunes returns the class of the given code points.
func FromRunes(rs ...rune) *CharClass {
	c := &CharClass{}
	for _, r := range rs {
		c.addRune(r)
	}
	return c
}

// FromRange returns the class of code points in [lo, hi].
// It returns the empty class when lo > hi.
func FromRange(lo, hi rune) *CharClass {
	if lo > hi {
		return Empty()
	}
	return &CharClass{ranges: []Range{{Lo: lo, Hi: hi}}}
}

// FromRanges returns the union of the given ranges. Ranges may overlap and
// need not be sorted.
func FromRanges(rs ...Range) *CharClass {
	sorted := slices.Clone(rs)
	slices.SortFunc(sorted, func(a, b Range) int { return int(a.Lo - b.Lo) })
	c := &CharClass{}
	for _, r := range sorted {
		if r.Lo > r.Hi {
			continue
		}
		if n := len(c.ranges); n > 0 && r.Lo <= c.ranges[n-1].Hi+1 {
			c.ranges[n-1].Hi = max(c.ranges[n-1].Hi, r.Hi)
			continue
		}
		c.ranges = append(c.ranges, r)
	}
	return c
}

// FromTable converts a unicode.RangeTable into a class.
func FromTable(t *unicode.RangeTable) *CharClass {
	var rs []Range
	for _, r := range t.R16 {
		rs = appendStrided(rs, rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	for _, r := range t.R32 {
		rs = appendStrided(rs, rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	return FromRanges(rs...)
}

func appendStrided(rs []Range, lo, hi, stride rune) []Range {
	if stride == 1 {
		return append(rs, Range{Lo: lo, Hi: hi})
	}
	for r := lo; r <= hi; r += stride {
		rs = append(rs, Range{Lo: r, Hi: r})
	}
	return rs
}

func (c *CharClass) addRune(r rune) {
	i, found := slices.BinarySearchFunc(c.ranges, r, func(rg Range, r rune) int {
		switch {
		case rg.Hi < r:
			return -1
		case rg.Lo > r:
			return 1
		}
		return 0
	})
	if found {
		return
	}
	mergeLeft := i > 0 && c.ranges[i-1].Hi+1 == r
	mergeRight := i < len(c.ranges) && c.ranges[i].Lo-1 == r
	switch {
	case mergeLeft && mergeRight:
		c.ranges[i-1].Hi = c.ranges[i].Hi
		c.ranges = slices.Delete(c.ranges, i, i+1)
	case mergeLeft:
		c.ranges[i-1].Hi = r
	case mergeRight:
		c.ranges[i].Lo = r
	default:
		c.ranges = slices.Insert(c.ranges, i, Range{Lo: r, Hi: r})
	}
}

// Ranges returns a copy of the ranges of c in ascending order.
func (c *CharClass) Ranges() []Range {
	if c == nil {
		return nil
	}
	return slices.Clone(c.ranges)
}

// IsEmpty reports whether c matches nothing.
func (c *CharClass) IsEmpty() bool {
	return c == nil || len(c.ranges) == 0
}

// Contains reports whether r is a member of c.
func (c *CharClass) Contains(r rune) bool {
	if c == nil {
		return false
	}
	lo := 0
	hi := len(c.ranges)
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		rg := c.ranges[m]
		if rg.Lo <= r && r <= rg.Hi {
			return true
		}
		if r < rg.Lo {
			hi = m
		} else {
			lo = m + 1
		}
	}
	return false
}

// ContainsFold reports whether r or any rune in its simple case-folding
// orbit is a member of c.
func (c *CharClass) ContainsFold(r rune) bool {
	if c.Contains(r) {
		return true
	}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if c.Contains(f) {
			return true
		}
	}
	return false
}

// FoldClosure returns c extended with every rune in the simple case-folding
// orbit of its members.
func FoldClosure(c *CharClass) *CharClass {
	res := &CharClass{ranges: c.Ranges()}
	if c.IsEmpty() {
		return res
	}
	for _, rg := range c.ranges {
		for r := rg.Lo; r <= rg.Hi; r++ {
			for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
				res.addRune(f)
			}
		}
	}
	return res
}

// Negate returns the complement of c over all code points.
func Negate(c *CharClass) *CharClass {
	if c.IsEmpty() {
		return Any()
	}
	res := &CharClass{ranges: make([]Range, 0, len(c.ranges)+1)}
	next := rune(0)
	for _, rg := range c.ranges {
		if rg.Lo > next {
			res.ranges = append(res.ranges, Range{Lo: next, Hi: rg.Lo - 1})
		}
		next = rg.Hi + 1
	}
	if next <= unicode.MaxRune {
		res.ranges = append(res.ranges, Range{Lo: next, Hi: unicode.MaxRune})
	}
	return res
}

// Union returns the code points that are in a or in b.
func Union(a, b *CharClass) *CharClass {
	if a.IsEmpty() {
		return &CharClass{ranges: b.Ranges()}
	}
	if b.IsEmpty() {
		return &CharClass{ranges: a.Ranges()}
	}
	res := &CharClass{ranges: make([]Range, 0, len(a.ranges)+len(b.ranges))}
	i, j := 0, 0
	for {
		var next Range
		if i < len(a.ranges) && (j >= len(b.ranges) || a.ranges[i].Lo < b.ranges[j].Lo) {
			next = a.ranges[i]
			i++
		} else if j < len(b.ranges) {
			next = b.ranges[j]
			j++
		} else {
			break
		}
		if len(res.ranges) == 0 {
			res.ranges = append(res.ranges, next)
			continue
		}
		last := &res.ranges[len(res.ranges)-1]
		if next.Hi <= last.Hi {
			continue
		}
		if next.Lo <= last.Hi+1 {
			last.Hi = next.Hi
			continue
		}
		res.ranges = append(res.ranges, next)
	}
	return res
}

// Intersect returns the code points that are in both a and b.
func Intersect(a, b *CharClass) *CharClass {
	res := &CharClass{}
	if a.IsEmpty() || b.IsEmpty() {
		return res
	}
	i, j := 0, 0
	for i < len(a.ranges) && j < len(b.ranges) {
		x := a.ranges[i]
		y := b.ranges[j]
		lo := max(x.Lo, y.Lo)
		hi := min(x.Hi, y.Hi)
		if lo <= hi {
			res.ranges = append(res.ranges, Range{Lo: lo, Hi: hi})
		}
		if x.Hi < y.Hi {
			i++
		} else {
			j++
		}
	}
	return res
}

// Subtract returns the code points of a that are not in b.
func Subtract(a, b *CharClass) *CharClass {
	if a.IsEmpty() {
		return &CharClass{}
	}
	if b.IsEmpty() {
		return &CharClass{ranges: a.Ranges()}
	}
	res := &CharClass{}
	j := 0
	for _, rg := range a.ranges {
		for j < len(b.ranges) && b.ranges[j].Hi < rg.Lo {
			j++
		}
		for k := j; k < len(b.ranges); k++ {
			o := b.ranges[k]
			if o.Lo > rg.Hi {
				break
			}
			if o.Lo > rg.Lo {
				res.ranges = append(res.ranges, Range{Lo: rg.Lo, Hi: o.Lo - 1})
			}
			if o.Hi >= rg.Hi {
				rg.Lo = rg.Hi + 1
				break
			}
			rg.Lo = o.Hi + 1
		}
		if rg.Lo <= rg.Hi {
			res.ranges = append(res.ranges, rg)
		}
	}
	return res
}

// String returns the class in bracket notation, e.g. [0-9A-F_].
func (c *CharClass) String() string {
	if c.IsEmpty() {
		// "[]" does not parse.
		return `[^\x00-\x{10ffff}]`
	}
	var b strings.Builder
	b.WriteByte('[')
	for _, rg := range c.ranges {
		writeClassRune(&b, rg.Lo)
		if rg.Hi != rg.Lo {
			if rg.Hi > rg.Lo+1 {
				b.WriteByte('-')
			}
			writeClassRune(&b, rg.Hi)
		}
	}
	b.WriteByte(']')
	return b.String()
}

func writeClassRune(b *strings.Builder, r rune) {
	switch {
	case r == '\\' || r == ']' || r == '[' || r == '-' || r == '^' || r == '&':
		b.WriteByte('\\')
		b.WriteRune(r)
	case unicode.IsPrint(r) && r != ' ':
		b.WriteRune(r)
	case r <= 0xFF:
		b.WriteString(`\x`)
		b.WriteString(leftPad(strconv.FormatInt(int64(r), 16), 2))
	default:
		b.WriteString(`\x{`)
		b.WriteString(strconv.FormatInt(int64(r), 16))
		b.WriteByte('}')
	}
}

func leftPad(s string, n int) string {
	for len(s) < n {
		s = "0" + s
	}
	return s
}
