package utils

import "slices"

// MergeCand is a pending merge of the tokens at slot Pos and its right neighbour.
type MergeCand struct {
	Rank  int    // lower wins
	Pos   int    // left slot; lower wins on tie to enforce leftmost
	Left  uint32 // token at Pos when the candidate was pushed
	Right uint32 // token at the right neighbour when the candidate was pushed
	VerL  int
	VerR  int
}

// MergeQueue yields merge candidates lowest rank first, leftmost first within a rank.
type MergeQueue interface {
	Push(c MergeCand)
	Pop() (MergeCand, bool)
	Len() int
	Reset()
}

// BucketQueue is a MergeQueue for dense ranks: one bucket per rank, each bucket kept
// sorted by Pos. A cursor tracks the lowest rank that may be non-empty.
type BucketQueue struct {
	buckets    [][]MergeCand
	current    int
	totalCount int
}

var _ MergeQueue = (*BucketQueue)(nil)

// NewBucketQueue returns a queue with buckets preallocated for ranks 0..maxRank.
func NewBucketQueue(maxRank int) *BucketQueue {
	if maxRank < 0 {
		maxRank = 0
	}
	return &BucketQueue{
		buckets: make([][]MergeCand, maxRank+1),
	}
}

func (bq *BucketQueue) Len() int {
	return bq.totalCount
}

// Push files c into the bucket for its rank, after any candidate with a lower or equal Pos.
// A rank below the last popped one rewinds the cursor.
func (bq *BucketQueue) Push(c MergeCand) {
	if c.Rank >= len(bq.buckets) {
		bq.buckets = append(bq.buckets, make([][]MergeCand, c.Rank+1-len(bq.buckets))...)
	}
	bq.current = min(bq.current, c.Rank)

	bucket := bq.buckets[c.Rank]
	at, _ := slices.BinarySearchFunc(bucket, c, afterPos)
	bq.buckets[c.Rank] = slices.Insert(bucket, at, c)
	bq.totalCount++
}

// Pop removes the leftmost candidate of the lowest non-empty rank.
func (bq *BucketQueue) Pop() (MergeCand, bool) {
	if bq.totalCount == 0 {
		return MergeCand{}, false
	}
	for len(bq.buckets[bq.current]) == 0 {
		bq.current++
	}

	bucket := bq.buckets[bq.current]
	bq.buckets[bq.current] = bucket[1:]
	bq.totalCount--
	return bucket[0], true
}

// afterPos orders m before c when m.Pos <= c.Pos, so equal positions keep push order.
func afterPos(m, c MergeCand) int {
	if m.Pos <= c.Pos {
		return -1
	}
	return 1
}

// Reset empties the queue, keeping the bucket slots for reuse.
func (bq *BucketQueue) Reset() {
	for i := range bq.buckets {
		bq.buckets[i] = bq.buckets[i][:0]
	}
	bq.current = 0
	bq.totalCount = 0
}
