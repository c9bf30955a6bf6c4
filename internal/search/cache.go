package search

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultQueryCacheSize is the number of compiled queries kept by default.
const DefaultQueryCacheSize = 128

// QueryCache keeps recently compiled queries so repeated searches with the
// same term and flags skip recompilation. Safe for concurrent use.
type QueryCache struct {
	cache *lru.Cache[string, *Query]
}

// NewQueryCache creates a cache holding up to size queries.
// A size <= 0 uses DefaultQueryCacheSize.
func NewQueryCache(size int) *QueryCache {
	if size <= 0 {
		size = DefaultQueryCacheSize
	}
	cache, _ := lru.New[string, *Query](size)
	return &QueryCache{cache: cache}
}

// Get returns the compiled query for (text, caseSensitive, regex),
// compiling and caching it on a miss. Invalid queries are cached too.
func (c *QueryCache) Get(text string, caseSensitive, regex bool) *Query {
	key := cacheKey(text, caseSensitive, regex)
	if q, ok := c.cache.Get(key); ok {
		return q
	}
	q := NewQuery(text, caseSensitive, regex)
	c.cache.Add(key, q)
	return q
}

// Len returns the number of cached queries.
func (c *QueryCache) Len() int {
	return c.cache.Len()
}

func cacheKey(text string, caseSensitive, regex bool) string {
	return strconv.FormatBool(caseSensitive) + "\x00" + strconv.FormatBool(regex) + "\x00" + text
}
