package jregex

import lru "github.com/hashicorp/golang-lru/v2"

// DefaultCacheSize is the capacity of the cache behind Matches,
// ReplaceAllString and SplitString.
const DefaultCacheSize = 64

type cacheKey struct {
	pattern string
	flags   Flag
}

// Cache holds recently compiled patterns and evicts the least recently
// used one once it is full. Patterns that fail to compile are not cached.
// It is safe for concurrent use by multiple goroutines.
type Cache struct {
	// nil when caching is disabled
	entries *lru.Cache[cacheKey, *Regexp]
}

// NewCache returns a cache holding up to capacity patterns. A capacity below
// one disables caching.
func NewCache(capacity int) *Cache {
	c := &Cache{}
	if capacity > 0 {
		// lru.New only fails for a non-positive size.
		c.entries, _ = lru.New[cacheKey, *Regexp](capacity)
	}
	return c
}

// Compile returns the cached pattern for pattern and flags, compiling and
// caching it on a miss.
func (c *Cache) Compile(pattern string, flags Flag) (*Regexp, error) {
	if c.entries == nil {
		return Compile(pattern, flags)
	}
	key := cacheKey{pattern: pattern, flags: flags}
	if re, ok := c.entries.Get(key); ok {
		return re, nil
	}

	// Compiled without holding the cache; when two goroutines race on the
	// same key, the first one stored wins.
	re, err := Compile(pattern, flags)
	if err != nil {
		return nil, err
	}
	if prev, ok, _ := c.entries.PeekOrAdd(key, re); ok {
		return prev, nil
	}
	return re, nil
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	if c.entries == nil {
		return 0
	}
	return c.entries.Len()
}

// Clear drops every cached pattern.
func (c *Cache) Clear() {
	if c.entries != nil {
		c.entries.Purge()
	}
}

var defaultCache = NewCache(DefaultCacheSize)

// ClearCache empties the cache used by the package-level helpers.
func ClearCache() {
	defaultCache.Clear()
}

// Matches reports whether the whole of input matches pattern, as
// String.matches does. The compiled pattern is cached.
func Matches(pattern, input string) (bool, error) {
	re, err := defaultCache.Compile(pattern, 0)
	if err != nil {
		return false, err
	}
	return re.MatchesFully(input)
}

// ReplaceAllString replaces every match of pattern in input, as
// String.replaceAll does. The compiled pattern is cached.
func ReplaceAllString(input, pattern, template string) (string, error) {
	re, err := defaultCache.Compile(pattern, 0)
	if err != nil {
		return "", err
	}
	return re.ReplaceAll(input, template)
}

// SplitString splits input around the matches of pattern, as String.split
// does. The compiled pattern is cached.
func SplitString(input, pattern string, limit int) ([]string, error) {
	re, err := defaultCache.Compile(pattern, 0)
	if err != nil {
		return nil, err
	}
	return re.Split(input, limit)
}
