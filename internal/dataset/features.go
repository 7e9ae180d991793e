package dataset

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/bpetok/bpetok/internal/vocab"
)

// PadOrTruncate returns a size-wide input vector: the first size tokens as float32, zero
// filled when tokens is shorter.
func PadOrTruncate(tokens []vocab.TokenID, size int) []float32 {
	out := make([]float32, size)
	for i := range min(len(tokens), size) {
		out[i] = float32(tokens[i])
	}
	return out
}

// VocabularySize counts the distinct token IDs used across records.
func VocabularySize(records []Record) int {
	seen := make(map[vocab.TokenID]struct{})
	for _, r := range records {
		for _, t := range r.Tokens {
			seen[t] = struct{}{}
		}
	}
	return len(seen)
}

// FeatureScore is the chi-square score of one token ID.
type FeatureScore struct {
	Token vocab.TokenID
	Score float64
}

// SelectFeaturesChiSquare ranks token IDs by how strongly their presence in a record
// depends on its label. Each token gets the chi-square statistic of its 2x2
// presence/label contingency table; a table with an empty row or column scores 0. The
// topN highest scores are returned, ties broken by lower ID. topN <= 0 returns every token.
func SelectFeaturesChiSquare(records []Record, topN int) []FeatureScore {
	type counts struct{ spam, ham float64 }

	var totalSpam, totalHam float64
	present := make(map[vocab.TokenID]*counts)
	for _, r := range records {
		if r.Label == Spam {
			totalSpam++
		} else {
			totalHam++
		}

		seen := make(map[vocab.TokenID]struct{}, len(r.Tokens))
		for _, t := range r.Tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}

			c := present[t]
			if c == nil {
				c = &counts{}
				present[t] = c
			}
			if r.Label == Spam {
				c.spam++
			} else {
				c.ham++
			}
		}
	}

	n := totalSpam + totalHam
	scores := make([]FeatureScore, 0, len(present))
	for t, c := range present {
		withTok := c.spam + c.ham
		without := n - withTok

		obs := []float64{c.spam, c.ham, totalSpam - c.spam, totalHam - c.ham}
		exp := []float64{
			withTok * totalSpam / n,
			withTok * totalHam / n,
			without * totalSpam / n,
			without * totalHam / n,
		}

		score := 0.0
		if exp[0] > 0 && exp[1] > 0 && exp[2] > 0 && exp[3] > 0 {
			score = stat.ChiSquare(obs, exp)
		}
		scores = append(scores, FeatureScore{Token: t, Score: score})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Token < scores[j].Token
	})

	if topN > 0 && topN < len(scores) {
		scores = scores[:topN]
	}
	return scores
}

// Vectors pads every record to size and returns the inputs with their targets, 1 for spam
// and 0 for ham.
func Vectors(records []Record, size int) ([][]float32, []float64) {
	xs := make([][]float32, len(records))
	ys := make([]float64, len(records))
	for i, r := range records {
		xs[i] = PadOrTruncate(r.Tokens, size)
		if r.Label == Spam {
			ys[i] = 1
		}
	}
	return xs, ys
}
