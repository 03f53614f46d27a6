package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// testStoreLifecycle runs the behavior every BlobStore must share.
func testStoreLifecycle(t *testing.T, store BlobStore) {
	t.Helper()
	ctx := context.Background()

	blobName := "sa.bin"
	data := []byte("ACGTACGT$GATTACA$ this is a test blob")

	w, err := store.Create(ctx, blobName)
	require.NoError(t, err)

	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, names, "blob visible before Close")

	require.NoError(t, w.Close())

	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 7)
	n, err = blob.ReadAt(ctx, buf, 9)
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.Equal(t, "GATTACA", string(buf))

	rangeReader, err := blob.ReadRange(ctx, 18, 4)
	require.NoError(t, err)
	rangeContent, err := io.ReadAll(rangeReader)
	require.NoError(t, err)
	require.NoError(t, rangeReader.Close())
	require.Equal(t, "this", string(rangeContent))

	all, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	require.Equal(t, data, all)

	require.NoError(t, store.Put(ctx, "rsd.bin", []byte("0123456789")))
	require.NoError(t, store.Put(ctx, "header.json", []byte("{}")))

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"header.json", "rsd.bin", "sa.bin"}, names)

	names, err = store.List(ctx, "r")
	require.NoError(t, err)
	require.Equal(t, []string{"rsd.bin"}, names)

	r, err := store.Open(ctx, "rsd.bin")
	require.NoError(t, err)
	rc, err := r.ReadRange(ctx, 8, 5)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "89", string(content))
	_, err = r.ReadRange(ctx, 20, 5)
	require.ErrorIs(t, err, io.EOF)
	require.NoError(t, r.Close())

	aborted, err := store.Create(ctx, "hash.bin")
	require.NoError(t, err)
	_, err = aborted.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, Abort(aborted))
	_, err = store.Open(ctx, "hash.bin")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "rsd.bin"))
	require.NoError(t, store.Delete(ctx, "rsd.bin"))
	_, err = store.Open(ctx, "rsd.bin")
	require.ErrorIs(t, err, ErrNotFound)
}

func testCopy(t *testing.T, src, dst BlobStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, src.Put(ctx, "txpInfo.bin", []byte("tx1 tx2")))
	require.NoError(t, src.Put(ctx, "empty.bin", nil))

	var wrapped int
	n, err := Copy(ctx, src, dst, "txpInfo.bin", func(w io.Writer) io.Writer {
		wrapped++
		return w
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
	require.Equal(t, 1, wrapped)

	_, err = Copy(ctx, src, dst, "empty.bin", nil)
	require.NoError(t, err)

	b, err := dst.Open(ctx, "txpInfo.bin")
	require.NoError(t, err)
	defer b.Close()
	got, err := ReadAll(ctx, b)
	require.NoError(t, err)
	require.Equal(t, "tx1 tx2", string(got))

	e, err := dst.Open(ctx, "empty.bin")
	require.NoError(t, err)
	require.Equal(t, int64(0), e.Size())
	require.NoError(t, e.Close())

	_, err = Copy(ctx, src, dst, "missing.bin", nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	testStoreLifecycle(t, NewMemoryStore())
}

func TestMemoryStore_Mappable(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	w, err := store.Create(ctx, "sa.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("ACGT$"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("X"))
	require.Error(t, err)

	b, err := store.Open(ctx, "sa.bin")
	require.NoError(t, err)
	m, ok := b.(Mappable)
	require.True(t, ok)
	data, err := m.Bytes()
	require.NoError(t, err)
	require.Equal(t, "ACGT$", string(data))
	require.Equal(t, int64(5), store.Size())
}

func TestMemoryStore_Copy(t *testing.T) {
	testCopy(t, NewMemoryStore(), NewMemoryStore())
}
