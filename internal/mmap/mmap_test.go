package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sa.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestOpen_ReadAt(t *testing.T) {
	content := []byte("ACGTACGT$GATTACA$")
	m, err := Open(writeFile(t, content))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Len())
	assert.Equal(t, content, m.Bytes())

	buf := make([]byte, 7)
	n, err := m.ReadAt(buf, 9)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "GATTACA", string(buf))

	n, err = m.ReadAt(make([]byte, 10), 100)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	partial := make([]byte, 10)
	n, err = m.ReadAt(partial, 9)
	assert.Equal(t, 8, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "GATTACA$", string(partial[:n]))

	_, err = m.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrRange)
}

func TestAdvise(t *testing.T) {
	content := make([]byte, 3*pageSize+17)
	m, err := Open(writeFile(t, content))
	require.NoError(t, err)
	defer m.Close()

	for _, a := range []Advice{Normal, Sequential, Random, WillNeed, DontNeed} {
		require.NoError(t, m.Advise(a))
	}
	require.NoError(t, m.AdviseRange(pageSize+5, pageSize, Sequential))
	require.NoError(t, m.AdviseRange(len(content)-1, 1, Random))
	require.NoError(t, m.AdviseRange(10, 0, Random))

	assert.ErrorIs(t, m.AdviseRange(-1, 2, Random), ErrRange)
	assert.ErrorIs(t, m.AdviseRange(len(content), 1, Random), ErrRange)
}

func TestAlignRange(t *testing.T) {
	tests := []struct {
		off, n, size   int
		wantLo, wantHi int
	}{
		{0, 1, 100, 0, 16},
		{5, 10, 100, 0, 16},
		{17, 16, 100, 16, 48},
		{90, 10, 100, 80, 100},
		{32, 16, 100, 32, 48},
	}
	for _, tt := range tests {
		lo, hi := alignRange(tt.off, tt.n, tt.size, 16)
		assert.Equal(t, tt.wantLo, lo, "off=%d n=%d", tt.off, tt.n)
		assert.Equal(t, tt.wantHi, hi, "off=%d n=%d", tt.off, tt.n)
	}
}

func TestOpen_EmptyFile(t *testing.T) {
	m, err := Open(writeFile(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Bytes())
	assert.NoError(t, m.Advise(Sequential))
}

func TestOpen_NotRegular(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRegular)

	_, err = Open(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClose(t *testing.T) {
	m, err := Open(writeFile(t, []byte("data")))
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(Random), ErrClosed)
	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}
