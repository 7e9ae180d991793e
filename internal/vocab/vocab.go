package vocab

import (
	"fmt"

	"github.com/pkg/errors"
)

// NumBytes is the number of leaf tokens; IDs below it are raw byte values.
const NumBytes = 256

// TokenID identifies a token: 0..255 are raw bytes, everything above is a merge in creation order.
type TokenID = uint32

var (
	// ErrOutOfRange is returned for IDs at or beyond the vocabulary length.
	ErrOutOfRange = errors.New("token id out of range")
	// ErrHole is returned when an ID exists but no record was ever loaded for it.
	ErrHole = errors.New("token id has no entry")
	// ErrCorrupt is returned when a pair references an ID that is not below its own.
	ErrCorrupt = errors.New("corrupt vocabulary entry")
)

// Kind tags a vocabulary entry.
type Kind uint8

const (
	// KindHole is the zero value: the slot exists but was never filled.
	KindHole Kind = iota
	KindLeaf
	KindPair
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindPair:
		return "pair"
	default:
		return "hole"
	}
}

// Entry is what a single token ID stands for. Byte is set for leaves, Left and Right for pairs.
type Entry struct {
	Kind  Kind
	Byte  byte
	Left  TokenID
	Right TokenID
}

// Leaf returns a leaf entry for b.
func Leaf(b byte) Entry {
	return Entry{Kind: KindLeaf, Byte: b}
}

// Pair returns a merged entry for (left, right).
func Pair(left, right TokenID) Entry {
	return Entry{Kind: KindPair, Left: left, Right: right}
}

func (e Entry) String() string {
	switch e.Kind {
	case KindLeaf:
		return fmt.Sprintf("leaf(0x%02X)", e.Byte)
	case KindPair:
		return fmt.Sprintf("pair(%d, %d)", e.Left, e.Right)
	default:
		return "hole"
	}
}

// Vocabulary is the append-only table of every token ever created.
// Invariants we maintain:
//   - entries[id] is never modified after it is appended.
//   - for every pair at id, Left < id and Right < id, so expansion always terminates.
//
// A Vocabulary is not safe for concurrent mutation, but once the merge engine
// returns it is only read and can be shared freely.
type Vocabulary struct {
	entries []Entry
}

// New returns an empty vocabulary. Call SeedBytes before any merge.
func New() *Vocabulary {
	return &Vocabulary{}
}

// FromEntries builds a vocabulary from already-placed entries, typically read back from a
// lookup table. Holes are allowed; they surface as ErrHole on access.
func FromEntries(entries []Entry) *Vocabulary {
	v := &Vocabulary{entries: make([]Entry, len(entries))}
	copy(v.entries, entries)
	return v
}

// SeedBytes fills IDs 0..255 with the byte leaves. It must run exactly once, on an empty vocabulary.
func (v *Vocabulary) SeedBytes() {
	if len(v.entries) != 0 {
		panic("vocab: SeedBytes called on a non-empty vocabulary")
	}

	v.entries = make([]Entry, NumBytes, 2*NumBytes)
	for i := 0; i < NumBytes; i++ {
		v.entries[i] = Leaf(byte(i))
	}
}

// AddPair appends Pair(left, right) and returns its ID (the previous length).
// The caller guarantees left and right are already known.
func (v *Vocabulary) AddPair(left, right TokenID) TokenID {
	id := TokenID(len(v.entries))
	v.entries = append(v.entries, Pair(left, right))
	return id
}

// Len is the number of IDs, holes included.
func (v *Vocabulary) Len() int {
	return len(v.entries)
}

// Merges counts the pair entries.
func (v *Vocabulary) Merges() int {
	n := 0
	for _, e := range v.entries {
		if e.Kind == KindPair {
			n++
		}
	}
	return n
}

// Holes lists the IDs that have no entry.
func (v *Vocabulary) Holes() []TokenID {
	var out []TokenID
	for id, e := range v.entries {
		if e.Kind == KindHole {
			out = append(out, TokenID(id))
		}
	}
	return out
}

// Entries returns a copy of the table in ID order.
func (v *Vocabulary) Entries() []Entry {
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// Resolve returns the entry for id.
func (v *Vocabulary) Resolve(id TokenID) (Entry, error) {
	if uint64(id) >= uint64(len(v.entries)) {
		return Entry{}, errors.Wrapf(ErrOutOfRange, "id %d, vocabulary size %d", id, len(v.entries))
	}
	return v.entries[id], nil
}
