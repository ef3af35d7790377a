// Package search ranks company connections for the connections table and the
// company pickers.
package search

import (
	"strings"

	"access-console/internal/models"
)

// AutoShowLimit is the list size from which an empty query shows nothing.
const AutoShowLimit = 100

type tier int

const (
	noMatch tier = iota
	substringMatch
	prefixMatch
	exactMatch
)

func matchTier(field, q string) tier {
	f := strings.ToLower(strings.TrimSpace(field))
	switch {
	case f == q:
		return exactMatch
	case strings.HasPrefix(f, q):
		return prefixMatch
	case strings.Contains(f, q):
		return substringMatch
	}
	return noMatch
}

// Companies filters and ranks conns for query. Matching is case-insensitive
// on the company name or the access type; exact matches come first, then
// prefix matches, then substring matches, each keeping input order. An empty
// query returns every connection only while the list is shorter than
// AutoShowLimit.
func Companies(conns []models.Connection, query string) []models.Connection {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		if len(conns) < AutoShowLimit {
			return append([]models.Connection{}, conns...)
		}
		return []models.Connection{}
	}

	var buckets [exactMatch + 1][]models.Connection
	for _, c := range conns {
		t := matchTier(c.Company, q)
		if at := matchTier(c.AccessType, q); at > t {
			t = at
		}
		if t != noMatch {
			buckets[t] = append(buckets[t], c)
		}
	}

	out := make([]models.Connection, 0, len(buckets[exactMatch])+len(buckets[prefixMatch])+len(buckets[substringMatch]))
	out = append(out, buckets[exactMatch]...)
	out = append(out, buckets[prefixMatch]...)
	out = append(out, buckets[substringMatch]...)
	return out
}
