package syntax

import (
	"strings"
	"sync"
	"unicode"
)

var (
	digitClass = FromRange('0', '9')
	wordClass  = FromRanges(
		Range{Lo: '0', Hi: '9'},
		Range{Lo: 'A', Hi: 'Z'},
		Range{Lo: '_', Hi: '_'},
		Range{Lo: 'a', Hi: 'z'},
	)
	spaceClass      = FromRunes(' ', '\t', '\n', '\x0B', '\f', '\r')
	horizontalSpace = FromRanges(
		Range{Lo: ' ', Hi: ' '},
		Range{Lo: '\t', Hi: '\t'},
		Range{Lo: 0xA0, Hi: 0xA0},
		Range{Lo: 0x1680, Hi: 0x1680},
		Range{Lo: 0x180E, Hi: 0x180E},
		Range{Lo: 0x2000, Hi: 0x200A},
		Range{Lo: 0x202F, Hi: 0x202F},
		Range{Lo: 0x205F, Hi: 0x205F},
		Range{Lo: 0x3000, Hi: 0x3000},
	)
	verticalSpace = FromRanges(
		Range{Lo: '\n', Hi: '\r'},
		Range{Lo: 0x85, Hi: 0x85},
		Range{Lo: 0x2028, Hi: 0x2029},
	)
	// Line terminators as far as '.', '^' and '$' are concerned.
	lineTerminators = FromRunes('\n', '\r', 0x85, 0x2028, 0x2029)
)

// IsLineTerminator reports whether r ends a line.
func IsLineTerminator(r rune) bool {
	return lineTerminators.Contains(r)
}

// IsWordRune reports whether r counts as a word character for \b and \B:
// a letter, a digit or '_'.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

var posixClasses = map[string]*CharClass{
	"Lower":  FromRange('a', 'z'),
	"Upper":  FromRange('A', 'Z'),
	"ASCII":  FromRange(0, 0x7F),
	"Alpha":  FromRanges(Range{Lo: 'a', Hi: 'z'}, Range{Lo: 'A', Hi: 'Z'}),
	"Digit":  digitClass,
	"Alnum":  FromRanges(Range{Lo: 'a', Hi: 'z'}, Range{Lo: 'A', Hi: 'Z'}, Range{Lo: '0', Hi: '9'}),
	"Punct":  FromRunes([]rune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~")...),
	"Graph":  FromRange(0x21, 0x7E),
	"Print":  FromRange(0x20, 0x7E),
	"Blank":  FromRunes(' ', '\t'),
	"Cntrl":  FromRanges(Range{Lo: 0, Hi: 0x1F}, Range{Lo: 0x7F, Hi: 0x7F}),
	"XDigit": FromRanges(Range{Lo: '0', Hi: '9'}, Range{Lo: 'a', Hi: 'f'}, Range{Lo: 'A', Hi: 'F'}),
	"Space":  spaceClass,
}

var javaClasses = map[string]*unicode.RangeTable{
	"javaLowerCase":     unicode.Lower,
	"javaUpperCase":     unicode.Upper,
	"javaWhitespace":    unicode.White_Space,
	"javaLetter":        unicode.Letter,
	"javaDigit":         unicode.Digit,
	"javaLetterOrDigit": nil,
}

var binaryProperties = map[string]*unicode.RangeTable{
	"alphabetic":  nil,
	"letter":      unicode.Letter,
	"digit":       unicode.Digit,
	"uppercase":   unicode.Upper,
	"lowercase":   unicode.Lower,
	"whitespace":  unicode.White_Space,
	"punctuation": unicode.Punct,
	"control":     unicode.Cc,
	"hexdigit":    unicode.ASCII_Hex_Digit,
}

// Only the blocks below are known; block names are compared after
// normalizeName.
var blocks = map[string]Range{
	"basiclatin":                 {Lo: 0x0000, Hi: 0x007F},
	"latin1supplement":           {Lo: 0x0080, Hi: 0x00FF},
	"latinextendeda":             {Lo: 0x0100, Hi: 0x017F},
	"latinextendedb":             {Lo: 0x0180, Hi: 0x024F},
	"ipaextensions":              {Lo: 0x0250, Hi: 0x02AF},
	"combiningdiacriticalmarks":  {Lo: 0x0300, Hi: 0x036F},
	"greek":                      {Lo: 0x0370, Hi: 0x03FF},
	"greekandcoptic":             {Lo: 0x0370, Hi: 0x03FF},
	"cyrillic":                   {Lo: 0x0400, Hi: 0x04FF},
	"armenian":                   {Lo: 0x0530, Hi: 0x058F},
	"hebrew":                     {Lo: 0x0590, Hi: 0x05FF},
	"arabic":                     {Lo: 0x0600, Hi: 0x06FF},
	"devanagari":                 {Lo: 0x0900, Hi: 0x097F},
	"thai":                       {Lo: 0x0E00, Hi: 0x0E7F},
	"georgian":                   {Lo: 0x10A0, Hi: 0x10FF},
	"hanguljamo":                 {Lo: 0x1100, Hi: 0x11FF},
	"greekextended":              {Lo: 0x1F00, Hi: 0x1FFF},
	"generalpunctuation":         {Lo: 0x2000, Hi: 0x206F},
	"currencysymbols":            {Lo: 0x20A0, Hi: 0x20CF},
	"arrows":                     {Lo: 0x2190, Hi: 0x21FF},
	"mathematicaloperators":      {Lo: 0x2200, Hi: 0x22FF},
	"boxdrawing":                 {Lo: 0x2500, Hi: 0x257F},
	"cjksymbolsandpunctuation":   {Lo: 0x3000, Hi: 0x303F},
	"hiragana":                   {Lo: 0x3040, Hi: 0x309F},
	"katakana":                   {Lo: 0x30A0, Hi: 0x30FF},
	"cjkunifiedideographs":       {Lo: 0x4E00, Hi: 0x9FFF},
	"hangulsyllables":            {Lo: 0xAC00, Hi: 0xD7AF},
	"privateusearea":             {Lo: 0xE000, Hi: 0xF8FF},
	"halfwidthandfullwidthforms": {Lo: 0xFF00, Hi: 0xFFEF},
	"emoticons":                  {Lo: 0x1F600, Hi: 0x1F64F},
}

// Conversions of unicode tables are cached; the tables themselves are
// read-only, so the cache is safe to share.
var tableClasses sync.Map // map[*unicode.RangeTable]*CharClass

func tableClass(t *unicode.RangeTable) *CharClass {
	if c, ok := tableClasses.Load(t); ok {
		return c.(*CharClass)
	}
	c, _ := tableClasses.LoadOrStore(t, FromTable(t))
	return c.(*CharClass)
}

func normalizeName(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name)
}

// Named resolves a character property name the way \p{name} does:
//
//   - POSIX names (Lower, Punct, XDigit, ...), restricted to US-ASCII
//   - java.lang.Character names (javaLowerCase, javaWhitespace, ...)
//   - blocks with the In prefix or block=/blk= (InGreek)
//   - scripts with the Is prefix, script=/sc=, or bare (IsGreek, Greek)
//   - general categories, bare or with Is, general_category=/gc= (Lu, IsL)
//   - binary properties with the Is prefix (IsAlphabetic, IsPunctuation)
//
// The returned class must not be modified.
func Named(name string) (*CharClass, bool) {
	if c, ok := posixClasses[name]; ok {
		return c, true
	}
	if t, ok := javaClasses[name]; ok {
		if t == nil {
			return Union(tableClass(unicode.Letter), tableClass(unicode.Digit)), true
		}
		return tableClass(t), true
	}
	if key, value, ok := strings.Cut(name, "="); ok {
		switch strings.ToLower(key) {
		case "general_category", "gc":
			return category(value)
		case "script", "sc":
			return script(value)
		case "block", "blk":
			return block(value)
		}
		return nil, false
	}
	if rest, ok := strings.CutPrefix(name, "In"); ok {
		if c, ok := block(rest); ok {
			return c, true
		}
	}
	if rest, ok := strings.CutPrefix(name, "Is"); ok {
		if c, ok := category(rest); ok {
			return c, true
		}
		if c, ok := script(rest); ok {
			return c, true
		}
		if c, ok := binaryProperty(rest); ok {
			return c, true
		}
	}
	if c, ok := category(name); ok {
		return c, true
	}
	return script(name)
}

func category(name string) (*CharClass, bool) {
	if name == "LC" {
		return Union(Union(tableClass(unicode.Lu), tableClass(unicode.Ll)), tableClass(unicode.Lt)), true
	}
	t, ok := unicode.Categories[name]
	if !ok {
		return nil, false
	}
	return tableClass(t), true
}

func script(name string) (*CharClass, bool) {
	if t, ok := unicode.Scripts[name]; ok {
		return tableClass(t), true
	}
	want := normalizeName(name)
	for k, t := range unicode.Scripts {
		if normalizeName(k) == want {
			return tableClass(t), true
		}
	}
	return nil, false
}

func block(name string) (*CharClass, bool) {
	rg, ok := blocks[normalizeName(name)]
	if !ok {
		return nil, false
	}
	return FromRange(rg.Lo, rg.Hi), true
}

func binaryProperty(name string) (*CharClass, bool) {
	t, ok := binaryProperties[normalizeName(name)]
	if !ok {
		return nil, false
	}
	if t == nil {
		// Alphabetic = Letter + Nl + Other_Alphabetic
		return Union(Union(tableClass(unicode.Letter), tableClass(unicode.Nl)), tableClass(unicode.Other_Alphabetic)), true
	}
	return tableClass(t), true
}
