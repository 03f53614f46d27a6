package fasta

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `ignored preamble
>tx1 first transcript
ACGT
acgt

>tx2
GGGG
>  tx3 padded  
TT
`

func collect(t *testing.T, r io.Reader) []Record {
	t.Helper()
	var out []Record
	require.NoError(t, Parse(context.Background(), r, func(rec Record) error {
		out = append(out, rec)
		return nil
	}))
	return out
}

func TestParse(t *testing.T) {
	recs := collect(t, strings.NewReader(sample))
	require.Len(t, recs, 3)
	assert.Equal(t, "tx1 first transcript", recs[0].Header)
	assert.Equal(t, "ACGTacgt", string(recs[0].Residues))
	assert.Equal(t, "tx2", recs[1].Header)
	assert.Equal(t, "GGGG", string(recs[1].Residues))
	assert.Equal(t, "tx3 padded", recs[2].Header)
	assert.Equal(t, "TT", string(recs[2].Residues))
}

func TestParse_EmptyRecordAndEmitError(t *testing.T) {
	recs := collect(t, strings.NewReader(">empty\n>x\nA\n"))
	require.Len(t, recs, 2)
	assert.Empty(t, recs[0].Residues)

	stop := errors.New("stop")
	err := Parse(context.Background(), strings.NewReader(sample), func(Record) error { return stop })
	require.ErrorIs(t, err, stop)
}

func TestParse_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Parse(ctx, strings.NewReader(sample), func(Record) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func writeFile(t *testing.T, path string, wrap func(io.Writer) io.WriteCloser) {
	t.Helper()
	var buf bytes.Buffer
	w := wrap(&buf)
	_, err := io.WriteString(w, sample)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func TestOpen_Formats(t *testing.T) {
	dir := t.TempDir()
	formats := map[string]func(io.Writer) io.WriteCloser{
		"plain.fa": func(w io.Writer) io.WriteCloser { return nopWriteCloser{w} },
		"gz.fa.gz": func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) },
		"zs.fa.zst": func(w io.Writer) io.WriteCloser {
			enc, err := zstd.NewWriter(w)
			require.NoError(t, err)
			return enc
		},
		"lz.fa.lz4": func(w io.Writer) io.WriteCloser { return lz4.NewWriter(w) },
	}
	for name, wrap := range formats {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			writeFile(t, path, wrap)

			rc, err := Open(path)
			require.NoError(t, err)
			defer rc.Close()
			recs := collect(t, rc)
			require.Len(t, recs, 3)
			assert.Equal(t, "GGGG", string(recs[1].Residues))
		})
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.fa"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func drain(t *testing.T, src Source) []Record {
	t.Helper()
	var out []Record
	for {
		b, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		require.NotEmpty(t, b)
		out = append(out, b...)
	}
}

func TestPool_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for f := range 5 {
		var sb strings.Builder
		for r := range 7 {
			fmt.Fprintf(&sb, ">f%d_r%d\nACGT\n", f, r)
		}
		path := filepath.Join(dir, fmt.Sprintf("in%d.fa", f))
		require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
		paths = append(paths, path)
	}

	p := NewPool(context.Background(), paths, PoolOptions{Readers: 3, BatchSize: 3})
	recs := drain(t, p)
	require.NoError(t, p.Close())
	require.Len(t, recs, 35)

	// Per-file order is preserved.
	last := map[string]int{}
	var headers []string
	for _, r := range recs {
		var f, n int
		_, err := fmt.Sscanf(r.Header, "f%d_r%d", &f, &n)
		require.NoError(t, err)
		key := fmt.Sprint(f)
		if prev, ok := last[key]; ok {
			assert.Greater(t, n, prev)
		}
		last[key] = n
		headers = append(headers, r.Header)
	}
	sort.Strings(headers)
	assert.Equal(t, "f0_r0", headers[0])
}

func TestPool_MissingFile(t *testing.T) {
	p := NewPool(context.Background(), []string{filepath.Join(t.TempDir(), "missing.fa")}, PoolOptions{})
	defer p.Close()
	var err error
	for err == nil {
		_, err = p.Next(context.Background())
	}
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPool_CloseEarly(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	for r := range 1000 {
		fmt.Fprintf(&sb, ">r%d\nACGT\n", r)
	}
	path := filepath.Join(dir, "big.fa")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))

	p := NewPool(context.Background(), []string{path, path}, PoolOptions{Readers: 2, BatchSize: 10})
	_, err := p.Next(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestSliceSource(t *testing.T) {
	recs := []Record{{Header: "a"}, {Header: "b"}, {Header: "c"}}
	src := NewSliceSource(recs, 2)
	b, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, b, 2)
	b, err = src.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, b, 1)
	_, err = src.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
}
