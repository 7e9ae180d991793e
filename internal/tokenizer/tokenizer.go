package tokenizer

import (
	"github.com/pkg/errors"

	"github.com/bpetok/bpetok/internal/vocab"
)

// Encoder turns raw bytes into token IDs using a frozen vocabulary.
type Encoder interface {
	Encode(text []byte) []vocab.TokenID
}

// Decoder turns token IDs back into the bytes they stand for.
type Decoder interface {
	Decode(tokens []vocab.TokenID) ([]byte, error)
}

// ErrNotByteLevel is returned by New when IDs 0..255 are not the byte leaves in order.
var ErrNotByteLevel = errors.New("vocabulary does not start with the 256 byte leaves")

// Tokenizer holds a frozen vocabulary and is safe for concurrent use.
// Invariants we maintain:
//   - vocab entries 0..255 are Leaf(0)..Leaf(255).
//   - If pairToken[Pair{A,B}] = C then vocab entry C is Pair(A, B), and C is also the merge
//     rank: merges are applied in the order they were created.
type Tokenizer struct {
	vocab *vocab.Vocabulary
	// given two adjacent tokens (A,B), what's the merged token C
	pairToken map[Pair]vocab.TokenID
	maxRank   int
}

var (
	_ Encoder = (*Tokenizer)(nil)
	_ Decoder = (*Tokenizer)(nil)
)

// New builds a tokenizer over v. Holes are tolerated and simply never produced by Encode,
// but a pair that references an ID not below its own is rejected.
func New(v *vocab.Vocabulary) (*Tokenizer, error) {
	if v.Len() < vocab.NumBytes {
		return nil, errors.Wrapf(ErrNotByteLevel, "only %d entries", v.Len())
	}

	t := &Tokenizer{
		vocab:     v,
		pairToken: make(map[Pair]vocab.TokenID, v.Len()-vocab.NumBytes),
	}

	for id, e := range v.Entries() {
		switch {
		case id < vocab.NumBytes:
			if e != vocab.Leaf(byte(id)) {
				return nil, errors.Wrapf(ErrNotByteLevel, "id %d is %s", id, e)
			}
		case e.Kind == vocab.KindPair:
			if int(e.Left) >= id || int(e.Right) >= id {
				return nil, errors.Wrapf(vocab.ErrCorrupt, "pair %d references [%d, %d]", id, e.Left, e.Right)
			}

			p := Pair{e.Left, e.Right}
			if _, dup := t.pairToken[p]; dup {
				// the earlier merge always wins, the later one can never fire
				continue
			}
			t.pairToken[p] = vocab.TokenID(id)
			t.maxRank = id - vocab.NumBytes
		}
	}

	return t, nil
}

// Vocabulary returns the frozen vocabulary the tokenizer was built from.
func (t *Tokenizer) Vocabulary() *vocab.Vocabulary {
	return t.vocab
}

// Train runs the merge engine over text and returns a tokenizer for the resulting
// vocabulary, along with the token stream of text itself.
func Train(text []byte, opts Options) (*Tokenizer, []vocab.TokenID, error) {
	res := RunWithOptions(text, opts)
	t, err := New(res.Vocabulary)
	if err != nil {
		return nil, nil, err
	}
	return t, res.Tokens, nil
}

// Decode expands tokens with the tokenizer's vocabulary.
func (t *Tokenizer) Decode(tokens []vocab.TokenID) ([]byte, error) {
	return Decode(t.vocab, tokens)
}
