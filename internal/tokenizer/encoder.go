package tokenizer

import (
	"github.com/bpetok/bpetok/internal/utils"
	"github.com/bpetok/bpetok/internal/vocab"
)

// heapRatio is how many merges per input byte a vocabulary needs before Encode switches
// from the bucket queue, whose setup is proportional to the vocabulary, to the heap.
const heapRatio = 64

// Encode applies the tokenizer's merges to input in creation order. For the text a
// vocabulary was trained on this reproduces the merge engine's token stream exactly,
// without recounting pairs.
func (t *Tokenizer) Encode(input []byte) []vocab.TokenID {
	return t.encode(input, t.newQueue(len(input)))
}

func (t *Tokenizer) newQueue(n int) utils.MergeQueue {
	if t.maxRank > heapRatio*n {
		return utils.NewMergeHeap(n)
	}
	return utils.NewBucketQueue(t.maxRank)
}

func (t *Tokenizer) encode(input []byte, q utils.MergeQueue) []vocab.TokenID {
	n := len(input)
	if n == 0 {
		return nil
	}

	// convert the input to tokens, where each token currently represents a single byte
	tokens := make([]vocab.TokenID, n)
	for i, b := range input {
		tokens[i] = vocab.TokenID(b)
	}

	// doubly linked-list
	prev := make([]int, n)
	next := make([]int, n)
	for i := 0; i < n; i++ {
		prev[i] = i - 1
		next[i] = i + 1
	}

	// edge elements
	prev[0] = -1
	next[n-1] = -1

	// per-slot versioning to invalidate queued candidates
	liveVersion := make([]int, n)

	pushIfMergeable := func(i int) {
		if i == -1 {
			return
		}
		j := next[i]
		if j == -1 {
			return
		}

		a := tokens[i]
		b := tokens[j]

		if id, ok := t.pairToken[Pair{a, b}]; ok {
			q.Push(utils.MergeCand{
				Rank:  int(id) - vocab.NumBytes,
				Pos:   i,
				Left:  a,
				Right: b,
				VerL:  liveVersion[i],
				VerR:  liveVersion[j],
			})
		}
	}

	// seed the queue with all initial adjacent pairs
	for i := 0; i != -1 && next[i] != -1; i = next[i] {
		pushIfMergeable(i)
	}

	// leftmost index (never dies; we always merge into the left slot)
	head := 0

	for {
		c, ok := q.Pop()
		if !ok {
			break
		}

		i := c.Pos
		j := next[i]
		if j == -1 {
			continue // no right neighbour anymore
		}

		// stale entry since at least one version did not match
		if liveVersion[i] != c.VerL || liveVersion[j] != c.VerR {
			continue
		}

		a := tokens[i]
		b := tokens[j]
		if a != c.Left || b != c.Right {
			continue
		}

		tokens[i] = t.pairToken[Pair{a, b}] // collapse into slot i

		nj := next[j]
		next[i] = nj
		if nj != -1 {
			prev[nj] = i
		}

		// mark other pointers as dead
		prev[j], next[j] = -1, -1

		liveVersion[i]++
		liveVersion[j]++ // j died; invalidate anything mentioning it

		// the new token may pair with its left neighbour ...
		if pi := prev[i]; pi != -1 {
			pushIfMergeable(pi)
		}

		// ... and with its right neighbour
		pushIfMergeable(i)
	}

	out := make([]vocab.TokenID, 0, n)
	for i := head; i != -1; i = next[i] {
		out = append(out, tokens[i])
	}

	return out
}
