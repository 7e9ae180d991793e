// Package bpetok compresses byte strings with byte pair encoding and stores the learned
// merges in a plain-text lookup table.
package bpetok

import (
	"context"
	"io"

	"github.com/bpetok/bpetok/internal/lookuptable"
	"github.com/bpetok/bpetok/internal/tokenizer"
	"github.com/bpetok/bpetok/internal/vocab"
)

type (
	TokenID    = vocab.TokenID
	Vocabulary = vocab.Vocabulary
	Options    = tokenizer.Options
	Result     = tokenizer.Result
	Table      = lookuptable.Table
)

var (
	ErrOutOfRange      = vocab.ErrOutOfRange
	ErrMalformedRecord = lookuptable.ErrMalformedRecord
)

// Encoder turns bytes into token IDs. The returned slice belongs to the caller.
type Encoder interface {
	Encode(text []byte) []TokenID
}

// Decoder expands token IDs back into the bytes they stand for.
type Decoder interface {
	Decode(tokens []TokenID) ([]byte, error)
}

// Tokenizer encodes with a frozen vocabulary.
type Tokenizer = tokenizer.Tokenizer

var (
	_ Encoder = (*Tokenizer)(nil)
	_ Decoder = (*Tokenizer)(nil)
)

// Compress runs the merge loop over text until no pair occurs twice.
func Compress(text []byte) *Result {
	return tokenizer.Run(text)
}

// CompressContext is Compress with custom options and cancellation.
func CompressContext(ctx context.Context, text []byte, opts Options) (*Result, error) {
	return tokenizer.RunContext(ctx, text, opts)
}

// Decode expands tokens with v.
func Decode(v *Vocabulary, tokens []TokenID) ([]byte, error) {
	return tokenizer.Decode(v, tokens)
}

// LoadTokenizer reads a lookup table and builds a Tokenizer from it. Malformed lines are
// skipped; they are reported in the returned Table.
func LoadTokenizer(r io.Reader) (*Tokenizer, *Table, error) {
	table, err := lookuptable.Read(r)
	if err != nil {
		return nil, nil, err
	}

	tok, err := tokenizer.New(table.Vocabulary)
	if err != nil {
		return nil, table, err
	}
	return tok, table, nil
}

// WriteTable writes v as a lookup table.
func WriteTable(w io.Writer, v *Vocabulary) error {
	return lookuptable.Write(w, v)
}
