package lookuptable

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpetok/bpetok/internal/tokenizer"
	"github.com/bpetok/bpetok/internal/vocab"
)

func classicVocabulary(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	return tokenizer.Run([]byte("aaabdaaabac")).Vocabulary
}

func writeString(t *testing.T, v *vocab.Vocabulary) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, v))
	return buf.String()
}

func TestWriteMatchesGoldenFile(t *testing.T) {
	want, err := os.ReadFile(filepath.Join("testdata", "classic.txt"))
	require.NoError(t, err)

	assert.Equal(t, string(want), writeString(t, classicVocabulary(t)))
}

func TestWriteRecordFormats(t *testing.T) {
	out := writeString(t, classicVocabulary(t))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 259)

	cases := map[int]string{
		0:   "0: 0x00",
		10:  "10: 0x0A",
		31:  "31: 0x1F",
		32:  "32: ' '",
		39:  "39: '''",
		91:  "91: 0x5B",
		93:  "93: ']'",
		97:  "97: 'a'",
		126: "126: '~'",
		127: "127: 0x7F",
		255: "255: 0xFF",
		256: "256: [97, 97]",
		258: "258: [257, 98]",
	}
	for id, want := range cases {
		assert.Equal(t, want, lines[id], "id %d", id)
	}
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestRoundTrip(t *testing.T) {
	// control bytes, '[' and printable bytes all take part in merges here
	text := []byte("[\x00a[\x00a[\x00a\tb\tb\tb]]]")
	res := tokenizer.Run(text)
	require.Greater(t, res.Merges, 0)

	table, err := Read(strings.NewReader(writeString(t, res.Vocabulary)))
	require.NoError(t, err)
	assert.Empty(t, table.Malformed)

	if diff := cmp.Diff(res.Vocabulary.Entries(), table.Vocabulary.Entries()); diff != "" {
		t.Fatalf("vocabulary mismatch (-want +got):\n%s", diff)
	}

	out, err := tokenizer.Decode(table.Vocabulary, res.Tokens)
	require.NoError(t, err)
	assert.Equal(t, text, out)
}

func TestReadMalformedLineTolerance(t *testing.T) {
	table, err := ReadFile(filepath.Join("testdata", "corrupted.txt"))
	require.NoError(t, err)

	require.Len(t, table.Malformed, 1)
	rerr := table.Malformed[0]
	assert.Equal(t, 258, rerr.Line)
	assert.Equal(t, "257 [256, 97]", rerr.Text)
	assert.True(t, errors.Is(rerr, ErrMalformedRecord))

	v := table.Vocabulary
	assert.Equal(t, 259, v.Len())
	assert.Equal(t, []vocab.TokenID{257}, v.Holes())

	got, err := v.Expand(256)
	require.NoError(t, err)
	assert.Equal(t, "aa", string(got))

	_, err = v.Expand(258)
	assert.True(t, errors.Is(err, vocab.ErrHole), "corruption must be detectable through expansion")
}

func TestReadMalformedKinds(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"no colon", "97 'a'"},
		{"bad id", "x7: 'a'"},
		{"negative id", "-1: 'a'"},
		{"huge id", "99999999999: 'a'"},
		{"id above limit", "20000000: 'a'"},
		{"empty payload", "97:"},
		{"truncated pair", "300: [97, 98"},
		{"pair missing right", "300: [97, ]"},
		{"pair with words", "300: [a, b]"},
		{"pair child overflow", "300: [97, 99999999999]"},
		{"pair not below id", "300: [300, 97]"},
		{"unquoted char", "97: a"},
		{"long hex", "97: 0x123"},
		{"non-ascii quoted", "97: 'é'"},
		{"two quoted chars", "97: 'ab'"},
		{"pair at byte id", "5: [1, 2]"},
		{"leaf byte differs from id", "97: 'b'"},
		{"hex leaf byte differs from id", "98: 0x61"},
		{"quoted leaf at merged id", "300: 'a'"},
		{"hex leaf at merged id", "300: 0x41"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := "0: 0x00\n" + tc.line + "\n1: 0x01\n"
			table, err := Read(strings.NewReader(input))
			require.NoError(t, err)

			require.Len(t, table.Malformed, 1)
			assert.Equal(t, 2, table.Malformed[0].Line)
			assert.True(t, errors.Is(table.Malformed[0], ErrMalformedRecord))
			assert.Equal(t, 2, table.Vocabulary.Len())
		})
	}
}

func TestReadDuplicateIDKeepsFirst(t *testing.T) {
	table, err := Read(strings.NewReader("97: 'a'\n97: 0x61\n256: [97, 97]\n256: [98, 98]\n"))
	require.NoError(t, err)

	require.Len(t, table.Malformed, 2)
	assert.Equal(t, 2, table.Malformed[0].Line)
	assert.Equal(t, 4, table.Malformed[1].Line)

	e, err := table.Vocabulary.Resolve(256)
	require.NoError(t, err)
	assert.Equal(t, vocab.Pair(97, 97), e)
}

func TestReadOverlongLine(t *testing.T) {
	long := strings.Repeat("x", 2<<20)
	input := "0: 0x00\n" + long + "\n1: 0x01\n"

	table, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, table.Malformed, 1)
	rerr := table.Malformed[0]
	assert.Equal(t, 2, rerr.Line)
	assert.True(t, errors.Is(rerr, ErrMalformedRecord))
	assert.Less(t, len(rerr.Text), 1024)
	assert.True(t, strings.HasPrefix(rerr.Text, "xxxx"))

	assert.Equal(t, 2, table.Vocabulary.Len())
	e, err := table.Vocabulary.Resolve(1)
	require.NoError(t, err)
	assert.Equal(t, vocab.Leaf(1), e)
}

func TestReadLastLineWithoutNewline(t *testing.T) {
	table, err := Read(strings.NewReader("0: 0x00\n1: 0x01"))
	require.NoError(t, err)
	assert.Empty(t, table.Malformed)
	assert.Equal(t, 2, table.Vocabulary.Len())
}

func TestReadLenientSpellings(t *testing.T) {
	input := "\ufeff" + // byte order mark
		"10: 0xa\r\n" +
		"\n" +
		"  98 :   'b'  \n" +
		"256: [10,98]\n" +
		"257: [ 256 , 256 ]\n"

	table, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, table.Malformed)

	v := table.Vocabulary
	require.Equal(t, 258, v.Len())

	e, err := v.Resolve(10)
	require.NoError(t, err)
	assert.Equal(t, vocab.Leaf(0x0A), e)

	e, err = v.Resolve(257)
	require.NoError(t, err)
	assert.Equal(t, vocab.Pair(256, 256), e)

	got, err := v.Expand(257)
	require.NoError(t, err)
	assert.Equal(t, "\nb\nb", string(got))
}

func TestReadSizesToHighestID(t *testing.T) {
	table, err := Read(strings.NewReader("5: 0x05\n2: 0x02\n"))
	require.NoError(t, err)

	v := table.Vocabulary
	assert.Equal(t, 6, v.Len())
	assert.Equal(t, []vocab.TokenID{0, 1, 3, 4}, v.Holes())
}

func TestReadEmpty(t *testing.T) {
	table, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Vocabulary.Len())
	assert.Empty(t, table.Malformed)
}

func TestWriteSkipsHoles(t *testing.T) {
	v := vocab.FromEntries([]vocab.Entry{vocab.Leaf('a'), {}, vocab.Pair(0, 0)})
	assert.Equal(t, "0: 'a'\n2: [0, 0]\n", writeString(t, v))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestIOFailures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt"))
		require.Error(t, err)

		var ioErr *IOError
		require.True(t, errors.As(err, &ioErr))
		assert.Equal(t, "open", ioErr.Op)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("reader error", func(t *testing.T) {
		_, err := Read(failingReader{})
		var ioErr *IOError
		require.True(t, errors.As(err, &ioErr))
		assert.Equal(t, "read", ioErr.Op)
		assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	})

	t.Run("writer error", func(t *testing.T) {
		err := Write(failingWriter{}, classicVocabulary(t))
		var ioErr *IOError
		require.True(t, errors.As(err, &ioErr))
		assert.True(t, errors.Is(err, io.ErrClosedPipe))
	})

	t.Run("unwritable path", func(t *testing.T) {
		err := WriteFile(filepath.Join(t.TempDir(), "missing", "table.txt"), classicVocabulary(t))
		var ioErr *IOError
		require.True(t, errors.As(err, &ioErr))
		assert.Equal(t, "create", ioErr.Op)
	})
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookup_table.txt")
	v := classicVocabulary(t)

	require.NoError(t, WriteFile(path, v))
	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, table.Malformed)

	if diff := cmp.Diff(v.Entries(), table.Vocabulary.Entries()); diff != "" {
		t.Fatalf("vocabulary mismatch (-want +got):\n%s", diff)
	}
}
