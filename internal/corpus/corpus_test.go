package corpus

import (
	"bytes"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCorpus(t *testing.T, seqs map[string]string, order []string) *Corpus {
	t.Helper()
	b := NewBuilder(0)
	for i, h := range order {
		id := b.Add(h, []byte(seqs[h]))
		require.Equal(t, i, id)
	}
	return b.Finish()
}

func TestBuilder_Layout(t *testing.T) {
	seqs := map[string]string{
		"tx1 gene=A": "ACGT",
		"tx2\tdesc":  "GGC",
		"tx3":        "TTTTA",
	}
	c := buildCorpus(t, seqs, []string{"tx1 gene=A", "tx2\tdesc", "tx3"})

	assert.Equal(t, "ACGT$GGC$TTTTA$", string(c.Text))
	assert.Equal(t, []string{"tx1", "tx2", "tx3"}, c.Names)
	assert.Equal(t, []int64{0, 5, 9}, c.Starts)
	require.Equal(t, 3, c.NumSequences())
	assert.Equal(t, uint64(3), c.Boundaries.Count())

	for id, h := range []string{"tx1 gene=A", "tx2\tdesc", "tx3"} {
		want := seqs[h]
		assert.Equal(t, int64(len(want)), c.SequenceLen(id))
		assert.Equal(t, want, string(c.Sequence(id)))
		last := uint64(c.Starts[id]) + uint64(len(want)) - 1
		assert.True(t, c.Boundaries.Test(last))
		assert.Equal(t, uint64(id+1), c.Boundaries.Rank(last))
	}
}

func TestBoundaries_Locate(t *testing.T) {
	c := buildCorpus(t, map[string]string{"a": "ACG", "b": "TAG", "c": "CCT"}, []string{"a", "b", "c"})
	// A C G $ T A G $ C C T $
	want := []int{0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3}
	for off, id := range want {
		assert.Equal(t, id, c.Boundaries.Locate(uint64(off)), "off=%d", off)
	}
	end, ok := c.Boundaries.End(5)
	require.True(t, ok)
	assert.Equal(t, uint64(6), end)
	_, ok = c.Boundaries.End(11)
	assert.False(t, ok)
}

func TestBoundaries_RoundTrip(t *testing.T) {
	bits := bitset.New(130)
	for _, p := range []uint{2, 5, 64, 127} {
		bits.Set(p)
	}
	b := NewBoundaries(bits)

	var buf bytes.Buffer
	_, err := b.WriteTo(&buf)
	require.NoError(t, err)

	got, err := ReadBoundaries(&buf)
	require.NoError(t, err)
	assert.True(t, b.Equal(got))
	assert.Equal(t, uint64(4), got.Count())
	assert.Equal(t, uint64(3), got.Rank(100))
}

func TestName(t *testing.T) {
	assert.Equal(t, "ENST0001.1", Name("ENST0001.1 cdna chromosome:1"))
	assert.Equal(t, "x", Name("x\ty"))
	assert.Equal(t, "plain", Name("plain"))
}

func TestBoundaries_Between(t *testing.T) {
	bits := bitset.New(9)
	for _, p := range []uint{2, 5, 8} {
		bits.Set(p)
	}
	b := NewBoundaries(bits)
	assert.Equal(t, uint64(0), b.Between(0, 2))
	assert.Equal(t, uint64(1), b.Between(0, 3))
	assert.Equal(t, uint64(2), b.Between(2, 6))
	assert.Equal(t, uint64(3), b.Between(0, 100))
	assert.Equal(t, uint64(0), b.Between(4, 4))
	assert.Equal(t, uint64(0), b.Between(6, 3))
}
