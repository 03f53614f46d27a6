package search

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/saidx/internal/corpus"
	"github.com/hupe1980/saidx/internal/interval"
	"github.com/hupe1980/saidx/internal/suffixarray"
	"github.com/hupe1980/saidx/kmer"
)

func rawEngine(t *testing.T, text string, ends ...uint) *Engine[int32] {
	t.Helper()
	sa, err := suffixarray.Build[int32]([]byte(text), nil)
	require.NoError(t, err)
	bits := bitset.New(uint(len(text)))
	for _, e := range ends {
		bits.Set(e)
	}
	return New([]byte(text), sa, corpus.NewBoundaries(bits), nil, kmer.Codec{})
}

func TestRange_BoundaryScenarios(t *testing.T) {
	split := rawEngine(t, "ACGTAGCCT", 2, 5, 8)
	whole := rawEngine(t, "ACGTAGCCT", 8)
	repeats := rawEngine(t, "ACTGACTACTTACT", 6, 13)

	tests := []struct {
		name      string
		engine    *Engine[int32]
		pattern   string
		wantCount int64
		wantLeft  int64
	}{
		{"AC", split, "AC", 1, 0},
		{"CG", split, "CG", 1, 3},
		{"TA", split, "TA", 1, 8},
		{"AG", split, "AG", 1, 1},
		{"CC", split, "CC", 1, 2},
		{"CT", split, "CT", 1, 4},
		{"ACG", split, "ACG", 1, 0},
		{"TAG", split, "TAG", 1, 8},
		{"CCT", split, "CCT", 1, 2},
		{"CGT crosses", split, "CGT", 0, 0},
		{"AGC crosses", split, "AGC", 0, 0},
		{"CTT absent", split, "CTT", 0, 0},
		{"AAC absent", split, "AAC", 0, 0},
		{"GTA crosses", split, "GTA", 0, 0},
		{"GCC crosses", split, "GCC", 0, 0},
		{"whole text split", split, "ACGTAGCCT", 0, 0},
		{"CGTA crosses", split, "CGTA", 0, 0},
		{"CGTAGCC crosses", split, "CGTAGCC", 0, 0},
		{"whole text single sequence", whole, "ACGTAGCCT", 1, 0},
		{"ACT repeats", repeats, "ACT", 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, count := tt.engine.Range([]byte(tt.pattern))
			assert.Equal(t, tt.wantCount, count)
			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantLeft, left)
			}
		})
	}
}

func TestRange_ScenarioOffsets(t *testing.T) {
	e := rawEngine(t, "ACGTAGCCT", 2, 5, 8)
	left, count := e.Range([]byte("AG"))
	require.Equal(t, int64(1), count)
	assert.Equal(t, int64(4), e.Offset(left))

	e = rawEngine(t, "ACGTAGCCT", 8)
	left, count = e.Range([]byte("ACGTAGCCT"))
	require.Equal(t, int64(1), count)
	assert.Equal(t, int64(0), e.Offset(left))
}

func TestRange_NoBoundaries(t *testing.T) {
	text := []byte("ACGTAGCCT")
	sa, err := suffixarray.Build[int64](text, nil)
	require.NoError(t, err)
	e := New(text, sa, nil, nil, kmer.Codec{})

	_, count := e.Range([]byte("CGT"))
	assert.Equal(t, int64(1), count)
	_, count = e.Range(nil)
	assert.Equal(t, int64(len(text)), count)
	_, count = e.Range([]byte("ACGTAGCCTA"))
	assert.Equal(t, int64(0), count)
}

func TestRange_SeparatorsNeverMatch(t *testing.T) {
	e := rawEngine(t, "ACGT$AGCCT$", 3, 9)

	for _, p := range []string{"$", "$AG", "T$", "T$A", "GT$AG"} {
		_, count := e.Range([]byte(p))
		assert.Zero(t, count, p)
	}
	left, count := e.Range([]byte("AG"))
	require.Equal(t, int64(1), count)
	assert.Equal(t, int64(5), e.Offset(left))

	_, count = e.Range([]byte("ACGT"))
	assert.Equal(t, int64(1), count)
}

func naiveCount(seqs [][]byte, pattern []byte) int64 {
	var n int64
	for _, s := range seqs {
		for i := 0; i+len(pattern) <= len(s); i++ {
			if bytes.Equal(s[i:i+len(pattern)], pattern) {
				n++
			}
		}
	}
	return n
}

func TestFind_MatchesRangeAndNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	codec := kmer.MustCodec(5)

	b := corpus.NewBuilder(0)
	var seqs [][]byte
	for i := range 40 {
		s := make([]byte, 5+rng.Intn(80))
		for j := range s {
			s[j] = kmer.Bases[rng.Intn(4)]
		}
		seqs = append(seqs, s)
		b.Add(string(rune('a'+i%26)), s)
	}
	c := b.Finish()
	sa, err := suffixarray.Build[int32](c.Text, nil)
	require.NoError(t, err)

	for _, strategy := range []interval.Strategy{interval.StrategyDense, interval.StrategyPerfect} {
		idx, err := interval.Build(context.Background(), codec, c.Text, sa, interval.Options{Strategy: strategy})
		require.NoError(t, err)
		e := New(c.Text, sa, c.Boundaries, idx, codec)

		for trial := range 300 {
			var pattern []byte
			if trial%2 == 0 {
				s := seqs[rng.Intn(len(seqs))]
				i := rng.Intn(len(s))
				pattern = s[i:min(len(s), i+1+rng.Intn(12))]
			} else {
				pattern = make([]byte, 1+rng.Intn(9))
				for j := range pattern {
					pattern[j] = kmer.Bases[rng.Intn(4)]
				}
			}
			want := naiveCount(seqs, pattern)

			rl, rc := e.Range(pattern)
			fl, fc := e.Find(pattern)
			require.Equal(t, want, rc, "Range(%s)", pattern)
			require.Equal(t, want, fc, "Find(%s)", pattern)
			if want > 0 {
				require.Equal(t, rl, fl)
				for i := rl; i < rl+rc; i++ {
					p := e.Offset(i)
					require.True(t, bytes.HasPrefix(c.Text[p:], pattern))
				}
			}
		}
	}
}

func TestLookup(t *testing.T) {
	b := corpus.NewBuilder(0)
	b.Add("s1", []byte("ACGTACGT"))
	b.Add("s2", []byte("TTACG"))
	c := b.Finish()
	sa, err := suffixarray.Build[int64](c.Text, nil)
	require.NoError(t, err)
	codec := kmer.MustCodec(3)
	idx, err := interval.Build(context.Background(), codec, c.Text, sa, interval.Options{})
	require.NoError(t, err)
	e := New(c.Text, sa, c.Boundaries, idx, codec)

	code, _ := codec.EncodeString("ACG")
	iv, ok := e.Lookup(code)
	require.True(t, ok)
	assert.Equal(t, int64(3), iv.Len())

	left, count := e.Range([]byte("ACG"))
	assert.Equal(t, interval.Interval[int64]{Start: left, Stop: left + count}, iv)

	code, _ = codec.EncodeString("GGG")
	_, ok = e.Lookup(code)
	assert.False(t, ok)

	_, count = e.Find([]byte("GGGT"))
	assert.Equal(t, int64(0), count)

	bare := New(c.Text, sa, c.Boundaries, nil, codec)
	_, ok = bare.Lookup(code)
	assert.False(t, ok)
	_, count = bare.Find([]byte("TACG"))
	assert.Equal(t, int64(2), count)
}
