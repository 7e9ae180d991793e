package lookuptable

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/bpetok/bpetok/internal/vocab"
)

// Write serializes v, one "<id>: <payload>" record per line in ID order. Holes are skipped so
// a table read back from a damaged file writes out the same way.
func Write(w io.Writer, v *vocab.Vocabulary) error {
	bw := bufio.NewWriter(w)

	var line []byte
	for id, e := range v.Entries() {
		if e.Kind == vocab.KindHole {
			continue
		}

		line = appendRecord(line[:0], vocab.TokenID(id), e)
		if _, err := bw.Write(line); err != nil {
			return &IOError{Op: "write", Err: errors.WithStack(err)}
		}
	}

	if err := bw.Flush(); err != nil {
		return &IOError{Op: "write", Err: errors.WithStack(err)}
	}
	return nil
}

// WriteFile writes v to path, replacing any existing file.
func WriteFile(path string, v *vocab.Vocabulary) error {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: errors.WithStack(err)}
	}

	if err := Write(f, v); err != nil {
		f.Close()
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			ioErr.Path = path
		}
		return err
	}

	if err := f.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: errors.WithStack(err)}
	}
	return nil
}

// appendRecord renders one record with its trailing newline.
//
//	leaf, printable ASCII except '[':  97: 'a'
//	leaf, anything else:               10: 0x0A
//	pair:                              256: [97, 97]
func appendRecord(dst []byte, id vocab.TokenID, e vocab.Entry) []byte {
	dst = strconv.AppendUint(dst, uint64(id), 10)
	dst = append(dst, ':', ' ')

	switch e.Kind {
	case vocab.KindLeaf:
		if printable(e.Byte) {
			dst = append(dst, '\'', e.Byte, '\'')
		} else {
			const hexDigits = "0123456789ABCDEF"
			dst = append(dst, '0', 'x', hexDigits[e.Byte>>4], hexDigits[e.Byte&0x0F])
		}
	case vocab.KindPair:
		dst = append(dst, '[')
		dst = strconv.AppendUint(dst, uint64(e.Left), 10)
		dst = append(dst, ',', ' ')
		dst = strconv.AppendUint(dst, uint64(e.Right), 10)
		dst = append(dst, ']')
	}

	return append(dst, '\n')
}

// printable reports whether b is written quoted. '[' is excluded so a leaf payload can never
// be mistaken for a pair.
func printable(b byte) bool {
	return b >= 32 && b <= 126 && b != '['
}
