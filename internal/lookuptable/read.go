package lookuptable

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/bpetok/bpetok/internal/vocab"
)

// maxRecordID bounds the IDs we accept; the vocabulary is sized to the highest one, so an
// absurd ID on a corrupt line must not turn into a multi-gigabyte allocation.
const maxRecordID = 1<<24 - 1

// payloadPattern matches the part of a record after the colon.
var payloadPattern = regexp2.MustCompile(
	`^(?:'(?<char>.)'|0x(?<hex>[0-9A-Fa-f]{1,2})|\[\s*(?<left>\d+)\s*,\s*(?<right>\d+)\s*\])$`,
	regexp2.Singleline)

// Table is the result of loading a lookup table.
type Table struct {
	// Vocabulary is sized to the highest accepted ID; IDs with no accepted record are holes.
	Vocabulary *vocab.Vocabulary
	// Malformed holds one *RecordError per skipped line, in file order.
	Malformed []*RecordError
}

// maxLineLen bounds a single record line. Longer lines are drained and reported as
// malformed instead of being buffered.
const maxLineLen = 1 << 20

// Read loads a lookup table. Malformed lines are logged, collected in Table.Malformed and
// skipped; only a failure of r itself is returned as an error.
func Read(r io.Reader) (*Table, error) {
	tr := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	br := bufio.NewReader(transform.NewReader(r, tr))

	var entries []vocab.Entry
	t := &Table{}

	lineNo := 0
	for {
		raw, tooLong, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &IOError{Op: "read", Err: errors.WithStack(err)}
		}
		lineNo++
		line := string(raw)

		var id vocab.TokenID
		var e vocab.Entry
		switch {
		case tooLong:
			err = malformed("line longer than %d bytes", maxLineLen)
		case strings.TrimSpace(line) == "":
			continue
		default:
			id, e, err = parseRecord(line)
			if err == nil && int(id) < len(entries) && entries[id].Kind != vocab.KindHole {
				err = malformed("duplicate id %d", id)
			}
		}
		if err != nil {
			rerr := &RecordError{Line: lineNo, Text: line, Err: err}
			slog.Warn("skipping malformed lookup table record", "line", lineNo, "text", line, "error", err)
			t.Malformed = append(t.Malformed, rerr)
			continue
		}

		for len(entries) <= int(id) {
			entries = append(entries, vocab.Entry{})
		}
		entries[id] = e
	}

	t.Vocabulary = vocab.FromEntries(entries)
	return t, nil
}

// readLine returns the next line without its terminator, or io.EOF once r is exhausted.
// A line over maxLineLen is consumed through its newline and returned with tooLong set,
// keeping only its first bytes for error reporting.
func readLine(br *bufio.Reader) (line []byte, tooLong bool, err error) {
	const keep = 64

	started := false
	for {
		chunk, more, err := br.ReadLine()
		if err != nil {
			if err == io.EOF && started {
				return line, tooLong, nil
			}
			return nil, false, err
		}
		started = true

		if !tooLong {
			if len(line)+len(chunk) > maxLineLen {
				tooLong = true
				line = line[:min(len(line), keep)]
			} else {
				line = append(line, chunk...)
			}
		}
		if tooLong && len(line) < keep {
			line = append(line, chunk[:min(len(chunk), keep-len(line))]...)
		}

		if !more {
			return line, tooLong, nil
		}
	}
}

// ReadFile loads the lookup table stored at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: errors.WithStack(err)}
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			ioErr.Path = path
		}
		return nil, err
	}
	return t, nil
}

func parseRecord(line string) (vocab.TokenID, vocab.Entry, error) {
	head, payload, ok := strings.Cut(line, ":")
	if !ok {
		return 0, vocab.Entry{}, malformed("missing colon")
	}

	n, err := strconv.ParseUint(strings.TrimSpace(head), 10, 32)
	if err != nil {
		return 0, vocab.Entry{}, malformed("bad id %q", strings.TrimSpace(head))
	}
	if n > maxRecordID {
		return 0, vocab.Entry{}, malformed("id %d above limit %d", n, maxRecordID)
	}
	id := vocab.TokenID(n)

	e, err := parsePayload(id, strings.TrimSpace(payload))
	if err != nil {
		return 0, vocab.Entry{}, err
	}
	return id, e, nil
}

func parsePayload(id vocab.TokenID, payload string) (vocab.Entry, error) {
	m, err := payloadPattern.FindStringMatch(payload)
	if err != nil {
		return vocab.Entry{}, errors.Wrapf(ErrMalformedRecord, "match payload: %v", err)
	}
	if m == nil {
		return vocab.Entry{}, malformed("unrecognized payload %q", payload)
	}

	if g := m.GroupByName("char"); len(g.Captures) > 0 {
		c := g.String()
		if len(c) != 1 || c[0] < 32 || c[0] > 126 {
			return vocab.Entry{}, malformed("quoted leaf %q is not printable ASCII", c)
		}
		return leafAt(id, c[0])
	}

	if g := m.GroupByName("hex"); len(g.Captures) > 0 {
		b, err := strconv.ParseUint(g.String(), 16, 8)
		if err != nil {
			return vocab.Entry{}, malformed("bad hex leaf %q", g.String())
		}
		return leafAt(id, byte(b))
	}

	if id < vocab.NumBytes {
		return vocab.Entry{}, malformed("pair at byte id %d", id)
	}

	left, err := strconv.ParseUint(m.GroupByName("left").String(), 10, 32)
	if err != nil {
		return vocab.Entry{}, malformed("bad left id %q", m.GroupByName("left").String())
	}
	right, err := strconv.ParseUint(m.GroupByName("right").String(), 10, 32)
	if err != nil {
		return vocab.Entry{}, malformed("bad right id %q", m.GroupByName("right").String())
	}
	if left >= uint64(id) || right >= uint64(id) {
		return vocab.Entry{}, malformed("pair %d references [%d, %d], not below its own id", id, left, right)
	}

	return vocab.Pair(vocab.TokenID(left), vocab.TokenID(right)), nil
}

// leafAt returns Leaf(b) if it may sit at id: leaves live at 0..255, each at its own byte.
func leafAt(id vocab.TokenID, b byte) (vocab.Entry, error) {
	if id >= vocab.NumBytes {
		return vocab.Entry{}, malformed("leaf at merged id %d", id)
	}
	if vocab.TokenID(b) != id {
		return vocab.Entry{}, malformed("leaf 0x%02X at id %d", b, id)
	}
	return vocab.Leaf(b), nil
}
