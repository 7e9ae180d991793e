package dataset

import (
	"log/slog"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/bpetok/bpetok/internal/vocab"
)

// DefaultImbalanceThreshold is the minority/majority ratio below which a set counts as
// imbalanced.
const DefaultImbalanceThreshold = 0.3

// Partition is the result of Split.
type Partition struct {
	Train []Record
	Test  []Record
	Valid []Record
}

// Split shuffles the records with rng and cuts them into train, test and validation sets
// of the given fractions, each rounded down. Records left over by rounding are dropped.
func (d *Dataset) Split(rng *rand.Rand, train, test, valid float64) (*Partition, error) {
	if train < 0 || test < 0 || valid < 0 || train+test+valid > 1+1e-9 {
		return nil, errors.Errorf("invalid split fractions %v/%v/%v", train, test, valid)
	}

	n := len(d.Records)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	nTrain := int(float64(n) * train)
	nTest := int(float64(n) * test)
	nValid := int(float64(n) * valid)

	pick := func(from, to int) []Record {
		out := make([]Record, 0, to-from)
		for _, i := range idx[from:to] {
			out = append(out, d.Records[i])
		}
		return out
	}

	p := &Partition{
		Train: pick(0, nTrain),
		Test:  pick(nTrain, nTrain+nTest),
		Valid: pick(nTrain+nTest, nTrain+nTest+nValid),
	}
	slog.Info("split dataset", "train", len(p.Train), "test", len(p.Test), "valid", len(p.Valid))
	return p, nil
}

// ClassCounts returns the number of ham and spam records.
func ClassCounts(records []Record) (ham, spam int) {
	for _, r := range records {
		if r.Label == Spam {
			spam++
		} else {
			ham++
		}
	}
	return ham, spam
}

// IsImbalanced reports whether the smaller class has fewer than threshold times the records
// of the larger one.
func IsImbalanced(records []Record, threshold float64) bool {
	ham, spam := ClassCounts(records)
	slog.Info("class distribution", "ham", ham, "spam", spam)

	minority, majority := min(ham, spam), max(ham, spam)
	return float64(minority) < threshold*float64(majority)
}

// BalanceSMOTE appends synthetic spam records to records until spam reaches half the ham
// count. Each synthetic vector mixes two randomly chosen spam vectors token by token, up
// to the shorter length, and is zero padded to the length of the first. The input slice is
// not modified.
func BalanceSMOTE(records []Record, rng *rand.Rand) []Record {
	var spam []Record
	for _, r := range records {
		if r.Label == Spam {
			spam = append(spam, r)
		}
	}

	ham := len(records) - len(spam)
	target := ham / 2
	if len(spam) == 0 || len(spam) >= target {
		return records
	}
	needed := target - len(spam)

	out := make([]Record, len(records), len(records)+needed)
	copy(out, records)
	for range needed {
		a := spam[rng.IntN(len(spam))].Tokens
		b := spam[rng.IntN(len(spam))].Tokens

		mixed := make([]vocab.TokenID, len(a))
		for j := range min(len(a), len(b)) {
			if rng.IntN(2) == 0 {
				mixed[j] = a[j]
			} else {
				mixed[j] = b[j]
			}
		}
		out = append(out, Record{Label: Spam, Tokens: mixed})
	}

	slog.Debug("generated synthetic spam", "count", needed)
	return out
}
