package vocab

import "github.com/pkg/errors"

// Expand returns the raw bytes id stands for.
func (v *Vocabulary) Expand(id TokenID) ([]byte, error) {
	return v.AppendExpand(nil, id)
}

// AppendExpand appends the bytes of id to dst: a leaf contributes its byte, a pair the
// expansion of its left child followed by its right child.
//
// Recursion depth is at most the vocabulary size, reached by a chain where every merge
// nests the previous one. Pairs whose children are not strictly below their own ID are
// reported as ErrCorrupt before recursing.
func (v *Vocabulary) AppendExpand(dst []byte, id TokenID) ([]byte, error) {
	e, err := v.Resolve(id)
	if err != nil {
		return dst, err
	}

	switch e.Kind {
	case KindLeaf:
		return append(dst, e.Byte), nil
	case KindPair:
		if e.Left >= id || e.Right >= id {
			return dst, errors.Wrapf(ErrCorrupt, "pair %d references [%d, %d]", id, e.Left, e.Right)
		}

		dst, err = v.AppendExpand(dst, e.Left)
		if err != nil {
			return dst, err
		}
		return v.AppendExpand(dst, e.Right)
	default:
		return dst, errors.Wrapf(ErrHole, "id %d", id)
	}
}

// TokenLen is the number of bytes id expands to.
func (v *Vocabulary) TokenLen(id TokenID) (int, error) {
	e, err := v.Resolve(id)
	if err != nil {
		return 0, err
	}

	switch e.Kind {
	case KindLeaf:
		return 1, nil
	case KindPair:
		if e.Left >= id || e.Right >= id {
			return 0, errors.Wrapf(ErrCorrupt, "pair %d references [%d, %d]", id, e.Left, e.Right)
		}

		l, err := v.TokenLen(e.Left)
		if err != nil {
			return 0, err
		}
		r, err := v.TokenLen(e.Right)
		if err != nil {
			return 0, err
		}
		return l + r, nil
	default:
		return 0, errors.Wrapf(ErrHole, "id %d", id)
	}
}
