// Package fuzzy matches noisy spoken fragments against known task titles.
package fuzzy

import "strings"

// Ratio returns the Ratcliff/Obershelp similarity of a and b in [0, 1]:
// twice the number of runes in matching blocks over the combined length.
// Matching blocks are found by taking the longest common block and
// recursing on the unmatched pieces to its left and right.
// Comparison is case-insensitive; an empty side scores 0.
func Ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	m := newMatcher(ra, rb).matchingRunes()
	return 2 * float64(m) / float64(len(ra)+len(rb))
}

type matcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newMatcher(a, b []rune) *matcher {
	b2j := make(map[rune][]int)
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	return &matcher{a: a, b: b, b2j: b2j}
}

type span struct{ alo, ahi, blo, bhi int }

func (m *matcher) matchingRunes() int {
	total := 0
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := m.longest(s)
		if k == 0 {
			continue
		}
		total += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return total
}

// longest finds the longest block a[i:i+k] == b[j:j+k] inside s. Among
// equally long blocks it keeps the one starting earliest in a, then in b.
func (m *matcher) longest(s span) (besti, bestj, bestk int) {
	besti, bestj = s.alo, s.blo
	j2len := map[int]int{}
	for i := s.alo; i < s.ahi; i++ {
		next := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < s.blo {
				continue
			}
			if j >= s.bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestk
}
