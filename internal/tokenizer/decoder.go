package tokenizer

import (
	"github.com/pkg/errors"

	"github.com/bpetok/bpetok/internal/vocab"
)

// Decode concatenates the expansion of every token, in order. Unknown IDs fail with
// vocab.ErrOutOfRange; damaged vocabularies surface vocab.ErrHole or vocab.ErrCorrupt.
func Decode(v *vocab.Vocabulary, tokens []vocab.TokenID) ([]byte, error) {
	out := make([]byte, 0, len(tokens))
	for pos, id := range tokens {
		var err error
		out, err = v.AppendExpand(out, id)
		if err != nil {
			return nil, errors.Wrapf(err, "decode token at position %d", pos)
		}
	}
	return out, nil
}
