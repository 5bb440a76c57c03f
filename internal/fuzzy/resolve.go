package fuzzy

import (
	"strings"
	"unicode/utf8"
)

// Candidate pairs an item with the title it is matched by.
type Candidate[T any] struct {
	Item  T
	Title string
}

// minContainedQuery is the shortest query (in runes) accepted by the
// title-contains-query fallback.
const minContainedQuery = 4

// Resolve picks the candidate that best matches query:
//
//  1. a title equal to query (case-insensitive) wins outright;
//  2. otherwise the highest Ratio wins if it reaches threshold, the first
//     candidate winning ties;
//  3. otherwise a title containing query (query longer than 3 runes), then
//     a title contained in query.
//
// A threshold above 1 disables step 2.
func Resolve[T any](query string, candidates []Candidate[T], threshold float64) (T, bool) {
	var zero T
	q := normalize(query)
	if q == "" {
		return zero, false
	}

	for _, c := range candidates {
		if normalize(c.Title) == q {
			return c.Item, true
		}
	}

	best, bestScore := -1, 0.0
	for i, c := range candidates {
		if score := Ratio(q, normalize(c.Title)); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore >= threshold {
		return candidates[best].Item, true
	}

	if utf8.RuneCountInString(q) >= minContainedQuery {
		for _, c := range candidates {
			if strings.Contains(normalize(c.Title), q) {
				return c.Item, true
			}
		}
	}
	for _, c := range candidates {
		if t := normalize(c.Title); t != "" && strings.Contains(q, t) {
			return c.Item, true
		}
	}
	return zero, false
}

// ExactOrContained resolves without similarity scoring: exact title first,
// then substring containment either way.
func ExactOrContained[T any](query string, candidates []Candidate[T]) (T, bool) {
	return Resolve(query, candidates, 2)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
