package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpetok/bpetok/internal/lookuptable"
	"github.com/bpetok/bpetok/internal/vocab"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewCLI()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func trainClassic(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lookup_table.txt")
	out, err := execute(t, "aaabdaaabac", "train", "--table", path)
	require.NoError(t, err)
	assert.Equal(t, "258 100 258 97 99\n", out)
	return path
}

func TestTrainWritesLookupTable(t *testing.T) {
	path := trainClassic(t)

	table, err := lookuptable.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, table.Malformed)
	assert.Equal(t, 259, table.Vocabulary.Len())

	e, err := table.Vocabulary.Resolve(258)
	require.NoError(t, err)
	assert.Equal(t, vocab.Pair(257, 98), e)
}

func TestTrainFromFileWithOptions(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(input, []byte("aaabdaaabac"), 0o644))

	out, err := execute(t, "", "train", input,
		"--table", filepath.Join(dir, "table.txt"),
		"--max-merges", "1",
		"--readable")
	require.NoError(t, err)
	assert.Equal(t, "256 97 98 100 256 97 98 97 99\n[256]abd[256]abac\n", out)
}

func TestDecode(t *testing.T) {
	path := trainClassic(t)

	out, err := execute(t, "", "decode", "--table", path, "258", "100", "258", "97", "99")
	require.NoError(t, err)
	assert.Equal(t, "aaabdaaabac", out)

	out, err = execute(t, "258 100\n258 97 99\n", "decode", "--table", path)
	require.NoError(t, err)
	assert.Equal(t, "aaabdaaabac", out)

	_, err = execute(t, "", "decode", "--table", path, "259")
	assert.ErrorIs(t, err, vocab.ErrOutOfRange)

	_, err = execute(t, "", "decode", "--table", path, "abc")
	assert.Error(t, err)

	_, err = execute(t, "", "decode", "--table", filepath.Join(t.TempDir(), "missing.txt"), "1")
	var ioErr *lookuptable.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestEncode(t *testing.T) {
	path := trainClassic(t)

	out, err := execute(t, "aaabdaaabac", "encode", "--table", path)
	require.NoError(t, err)
	assert.Equal(t, "258 100 258 97 99\n", out)

	out, err = execute(t, "aaab", "encode", "--table", path, "--readable")
	require.NoError(t, err)
	assert.Equal(t, "258\n[258]\n", out)

	// no pair of "ba" was ever merged, so it stays as raw bytes
	out, err = execute(t, "baba", "encode", "--table", path)
	require.NoError(t, err)
	assert.Equal(t, "98 97 98 97\n", out)

	_, err = execute(t, "a", "encode", "--table", filepath.Join(t.TempDir(), "missing.txt"))
	var ioErr *lookuptable.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestInspect(t *testing.T) {
	path := trainClassic(t)

	out, err := execute(t, "", "inspect", "--table", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"aaab"`)
	assert.Contains(t, out, "257, 98")
	assert.NotContains(t, out, "leaf")
	assert.Contains(t, out, "259 entries, 3 merges, 0 holes, 0 malformed lines")

	out, err = execute(t, "", "inspect", "--all", "--table", path)
	require.NoError(t, err)
	assert.Contains(t, out, "leaf")
}

func TestPairs(t *testing.T) {
	out, err := execute(t, "aaabdaaabac", "pairs", "--top", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"97", "97", "4"}, strings.Fields(lines[1]))

	out, err = execute(t, strings.Repeat("ab", 8), "pairs", "--compressed")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 1, "a fully merged stream has no pairs left")
}

func TestDataset(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "..", "internal", "dataset", "testdata", "sms.tsv"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sms.tsv")
	require.NoError(t, os.WriteFile(path, src, 0o644))

	out, err := execute(t, "", "dataset", path, "--input-size", "8", "--features", "3", "--epochs", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "records: 12")
	assert.Contains(t, out, "input size: 8")
	assert.Contains(t, out, "CHI2")
	assert.Contains(t, out, "first training vector")
	assert.Contains(t, out, "ACCURACY")
	assert.Contains(t, out, "PRECISION")
	assert.Regexp(t, `test\s+\d+\.\d{2}%`, out)

	_, err = execute(t, "", "dataset")
	assert.Error(t, err)
}
