package tokenizer

import (
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/bpetok/bpetok/internal/vocab"
)

// Pair is an ordered pair of adjacent tokens. (a, b) and (b, a) are different pairs.
type Pair struct {
	Left  vocab.TokenID
	Right vocab.TokenID
}

// PairCount is one row of the pair-frequency table.
type PairCount struct {
	Pair  Pair
	Count int
}

// pairTable counts adjacent pairs of one token stream. It is rebuilt from scratch on every
// merge iteration and never outlives it.
// Invariants we maintain:
//   - counts iterates in the order pairs were first seen while scanning the stream.
//   - best is the first pair whose running count went strictly above every count seen
//     before it, so ties on the final maximum go to the pair that reached it first.
type pairTable struct {
	counts    *orderedmap.OrderedMap[Pair, int]
	best      Pair
	bestCount int
}

func countPairs(tokens []vocab.TokenID) *pairTable {
	t := &pairTable{counts: orderedmap.New[Pair, int]()}

	for i := 0; i+1 < len(tokens); i++ {
		p := Pair{tokens[i], tokens[i+1]}

		var c int
		if entry := t.counts.GetPair(p); entry != nil {
			entry.Value++
			c = entry.Value
		} else {
			t.counts.Set(p, 1)
			c = 1
		}

		if c > t.bestCount {
			t.best = p
			t.bestCount = c
		}
	}

	return t
}

// Len is the number of distinct pairs.
func (t *pairTable) Len() int {
	return t.counts.Len()
}

// Best returns the winning pair and its count. Only meaningful when Len() > 0.
func (t *pairTable) Best() (Pair, int) {
	return t.best, t.bestCount
}

// rows returns the table in first-seen order.
func (t *pairTable) rows() []PairCount {
	out := make([]PairCount, 0, t.counts.Len())
	for entry := t.counts.Oldest(); entry != nil; entry = entry.Next() {
		out = append(out, PairCount{Pair: entry.Key, Count: entry.Value})
	}
	return out
}

// TopPairs returns the n most frequent adjacent pairs of tokens, most frequent first.
// Pairs with equal counts keep the order in which they first appear. n <= 0 returns all.
func TopPairs(tokens []vocab.TokenID, n int) []PairCount {
	rows := countPairs(tokens).rows()
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})

	if n > 0 && n < len(rows) {
		rows = rows[:n]
	}
	return rows
}
