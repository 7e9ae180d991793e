package tokenizer

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/bpetok/bpetok/internal/vocab"
)

// Readable renders a token stream for humans: leaves print as their raw byte, merged
// tokens as "[id]".
func Readable(v *vocab.Vocabulary, tokens []vocab.TokenID) (string, error) {
	var sb strings.Builder
	for _, id := range tokens {
		e, err := v.Resolve(id)
		if err != nil {
			return "", err
		}

		if e.Kind == vocab.KindLeaf {
			sb.WriteByte(e.Byte)
			continue
		}
		sb.WriteByte('[')
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
		sb.WriteByte(']')
	}
	return sb.String(), nil
}

// FormatTokens writes the IDs space separated.
func FormatTokens(tokens []vocab.TokenID) string {
	buf := make([]byte, 0, len(tokens)*4)
	for i, id := range tokens {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendUint(buf, uint64(id), 10)
	}
	return string(buf)
}

// ParseTokens reads IDs separated by whitespace or commas, the inverse of FormatTokens.
func ParseTokens(s string) ([]vocab.TokenID, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	out := make([]vocab.TokenID, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "parse token id %q", f)
		}
		out = append(out, vocab.TokenID(n))
	}
	return out, nil
}
