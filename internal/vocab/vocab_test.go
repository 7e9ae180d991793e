package vocab

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Vocabulary {
	t.Helper()
	v := New()
	v.SeedBytes()
	return v
}

func TestSeedBytesCoverage(t *testing.T) {
	v := seeded(t)
	require.Equal(t, NumBytes, v.Len())
	assert.Equal(t, 0, v.Merges())
	assert.Empty(t, v.Holes())

	for b := 0; b < NumBytes; b++ {
		e, err := v.Resolve(TokenID(b))
		require.NoError(t, err)
		assert.Equal(t, Leaf(byte(b)), e, "byte 0x%02x", b)

		out, err := v.Expand(TokenID(b))
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(b)}, out)
	}
}

func TestSeedBytesTwicePanics(t *testing.T) {
	v := seeded(t)
	assert.Panics(t, v.SeedBytes)
}

func TestAddPairAssignsSequentialIDs(t *testing.T) {
	v := seeded(t)

	ab := v.AddPair('a', 'b')
	abc := v.AddPair(ab, 'c')
	abab := v.AddPair(ab, ab)

	assert.Equal(t, TokenID(256), ab)
	assert.Equal(t, TokenID(257), abc)
	assert.Equal(t, TokenID(258), abab)
	assert.Equal(t, NumBytes+3, v.Len())
	assert.Equal(t, 3, v.Merges())

	e, err := v.Resolve(abc)
	require.NoError(t, err)
	assert.Equal(t, Pair(ab, 'c'), e)
}

func TestExpandNested(t *testing.T) {
	v := seeded(t)
	ab := v.AddPair('a', 'b')
	abab := v.AddPair(ab, ab)
	ababc := v.AddPair(abab, 'c')

	cases := []struct {
		id   TokenID
		want string
	}{
		{'x', "x"},
		{ab, "ab"},
		{abab, "abab"},
		{ababc, "ababc"},
	}
	for _, tc := range cases {
		got, err := v.Expand(tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(got))

		n, err := v.TokenLen(tc.id)
		require.NoError(t, err)
		assert.Equal(t, len(tc.want), n)
	}
}

func TestAppendExpandKeepsPrefix(t *testing.T) {
	v := seeded(t)
	ab := v.AddPair('a', 'b')

	out, err := v.AppendExpand([]byte("xy"), ab)
	require.NoError(t, err)
	assert.Equal(t, "xyab", string(out))
}

func TestResolveOutOfRange(t *testing.T) {
	v := seeded(t)

	_, err := v.Resolve(NumBytes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = v.Expand(^TokenID(0))
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = New().Resolve(0)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestExpandDetectsHolesAndCorruption(t *testing.T) {
	entries := make([]Entry, NumBytes+3)
	for i := 0; i < NumBytes; i++ {
		entries[i] = Leaf(byte(i))
	}
	// 256 stays a hole
	entries[257] = Pair(256, 'a')
	entries[258] = Pair(258, 'a')

	v := FromEntries(entries)
	assert.Equal(t, []TokenID{256}, v.Holes())

	_, err := v.Expand(256)
	assert.True(t, errors.Is(err, ErrHole))

	_, err = v.Expand(257)
	assert.True(t, errors.Is(err, ErrHole), "hole must surface through the parent")

	_, err = v.Expand(258)
	assert.True(t, errors.Is(err, ErrCorrupt))

	_, err = v.TokenLen(258)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestFromEntriesCopies(t *testing.T) {
	entries := []Entry{Leaf('a'), Leaf('b'), Pair(0, 1)}
	v := FromEntries(entries)
	entries[0] = Leaf('z')

	e, err := v.Resolve(0)
	require.NoError(t, err)
	assert.Equal(t, Leaf('a'), e)

	got := v.Entries()
	got[1] = Leaf('z')
	e, err = v.Resolve(1)
	require.NoError(t, err)
	assert.Equal(t, Leaf('b'), e)
}

func TestEntryString(t *testing.T) {
	assert.Equal(t, "leaf(0x41)", Leaf('A').String())
	assert.Equal(t, "pair(1, 2)", Pair(1, 2).String())
	assert.Equal(t, "hole", Entry{}.String())
	assert.Equal(t, "pair", KindPair.String())
}

func BenchmarkExpandDeepChain(b *testing.B) {
	v := New()
	v.SeedBytes()
	id := TokenID('a')
	for i := 0; i < 4096; i++ {
		id = v.AddPair(id, 'a')
	}

	b.SetBytes(4097)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Expand(id); err != nil {
			b.Fatal(err)
		}
	}
}
