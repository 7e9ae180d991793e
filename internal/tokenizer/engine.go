package tokenizer

import (
	"context"
	"log/slog"

	"github.com/bpetok/bpetok/internal/vocab"
)

// DefaultMinPairCount is the smallest pair count worth merging. A pair seen only once
// cannot shrink the stream, so the default stops as soon as the best count drops to 1.
const DefaultMinPairCount = 2

// StopReason records why the merge loop ended. Every reason except StopCanceled is a
// successful run.
type StopReason int

const (
	// StopExhausted means fewer than two tokens remained, so there were no pairs to count.
	StopExhausted StopReason = iota
	// StopUnprofitable means the most frequent pair fell below Options.MinPairCount.
	StopUnprofitable
	// StopMergeLimit means Options.MaxMerges merges were performed.
	StopMergeLimit
	// StopCanceled means the context ended before the loop finished.
	StopCanceled
)

func (s StopReason) String() string {
	switch s {
	case StopExhausted:
		return "exhausted"
	case StopUnprofitable:
		return "unprofitable"
	case StopMergeLimit:
		return "merge limit"
	case StopCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Options tunes the merge loop. The zero value behaves like DefaultOptions.
type Options struct {
	// MinPairCount is the smallest count a pair needs to be merged. Values below 1 mean
	// DefaultMinPairCount.
	MinPairCount int
	// MaxMerges caps the number of merges. 0 means no cap.
	MaxMerges int
}

// DefaultOptions returns the classic stop rule: merge until no pair occurs more than once.
func DefaultOptions() Options {
	return Options{MinPairCount: DefaultMinPairCount}
}

// Result is the output of one merge-engine run. The vocabulary is frozen: nothing appends
// to it after the run returns.
type Result struct {
	Vocabulary *vocab.Vocabulary
	Tokens     []vocab.TokenID
	Merges     int
	Stop       StopReason
}

// Run compresses text with the default options. It cannot fail: the empty input yields an
// empty stream and the 256 seed entries.
func Run(text []byte) *Result {
	return RunWithOptions(text, DefaultOptions())
}

// RunWithOptions is Run with a custom stop rule.
func RunWithOptions(text []byte, opts Options) *Result {
	res, _ := RunContext(context.Background(), text, opts)
	return res
}

// RunContext runs the merge loop, checking ctx at the top of every iteration. When ctx ends
// it returns the partial result, with Stop set to StopCanceled, together with ctx.Err().
//
// Each iteration rebuilds the pair-frequency table, merges the most frequent pair into a
// new token and rewrites the stream, so the cost is O(iterations × stream length).
func RunContext(ctx context.Context, text []byte, opts Options) (*Result, error) {
	minCount := opts.MinPairCount
	if minCount < 1 {
		minCount = DefaultMinPairCount
	}

	v := vocab.New()
	v.SeedBytes()

	tokens := make([]vocab.TokenID, len(text))
	for i, b := range text {
		tokens[i] = vocab.TokenID(b)
	}
	next := make([]vocab.TokenID, 0, len(tokens))

	res := &Result{Vocabulary: v}
	for {
		if err := ctx.Err(); err != nil {
			res.Tokens = tokens
			res.Stop = StopCanceled
			return res, err
		}

		if opts.MaxMerges > 0 && res.Merges >= opts.MaxMerges {
			res.Stop = StopMergeLimit
			break
		}

		table := countPairs(tokens)
		if table.Len() == 0 {
			res.Stop = StopExhausted
			break
		}

		best, count := table.Best()
		if count < minCount {
			res.Stop = StopUnprofitable
			break
		}

		id := v.AddPair(best.Left, best.Right)
		slog.Debug("merged most frequent pair", "tokens", len(tokens), "left", best.Left, "right", best.Right, "count", count, "id", id)

		next = replacePair(next[:0], tokens, best, id)
		tokens, next = next, tokens
		res.Merges++
	}

	res.Tokens = tokens
	slog.Debug("bpe finished", "input", len(text), "tokens", len(tokens), "merges", res.Merges, "stop", res.Stop)
	return res, nil
}

// replacePair appends src to dst with every non-overlapping occurrence of p, scanned left to
// right, replaced by id. A token consumed by one match is never part of the next.
func replacePair(dst, src []vocab.TokenID, p Pair, id vocab.TokenID) []vocab.TokenID {
	for i := 0; i < len(src); {
		if i+1 < len(src) && src[i] == p.Left && src[i+1] == p.Right {
			dst = append(dst, id)
			i += 2
			continue
		}

		dst = append(dst, src[i])
		i++
	}
	return dst
}
