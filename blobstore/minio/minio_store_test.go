package minio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/saidx"
	"github.com/hupe1980/saidx/blobstore"
	"github.com/hupe1980/saidx/testutil"
)

// dialTest connects to MINIO_ENDPOINT, or skips.
func dialTest(t *testing.T) *Store {
	t.Helper()
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}
	cfg := ConfigFromEnv(endpoint, "saidx-test", fmt.Sprintf("run-%d/", time.Now().UnixNano()))
	if cfg.AccessKey == "" {
		cfg.AccessKey, cfg.SecretKey = "minioadmin", "minioadmin"
	}
	store, err := Dial(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	exists, err := store.client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		t.Skipf("MinIO not reachable: %v", err)
	}
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}))
	}
	return store
}

func TestStore_Blobs(t *testing.T) {
	store := dialTest(t)
	ctx := context.Background()

	data := []byte("ACGTACGT$GATTACA$")
	require.NoError(t, store.Put(ctx, "txpInfo.bin", data))

	b, err := store.Open(ctx, "txpInfo.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), b.Size())

	buf := make([]byte, 7)
	n, err := b.ReadAt(ctx, buf, 9)
	require.NoError(t, err)
	assert.Equal(t, "GATTACA", string(buf[:n]))

	rc, err := b.ReadRange(ctx, 0, 4)
	require.NoError(t, err)
	head, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "ACGT", string(head))
	require.NoError(t, b.Close())

	w, err := store.Create(ctx, "sa.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, blobstore.Abort(w))
	_, err = store.Open(ctx, "sa.bin")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"txpInfo.bin"}, names)

	require.NoError(t, store.Delete(ctx, "txpInfo.bin"))
	require.NoError(t, store.Delete(ctx, "txpInfo.bin"))
}

func TestStore_BuildAndOpen(t *testing.T) {
	store := dialTest(t)
	ctx := context.Background()

	rng := testutil.NewRNG(7)
	txs := rng.Transcripts(6, 50, 80)
	in := filepath.Join(t.TempDir(), "tx.fa")
	require.NoError(t, os.WriteFile(in, []byte(testutil.FASTA(txs, 60)), 0o644))

	cfg := saidx.DefaultBuildConfig()
	cfg.Inputs = []string{in}
	cfg.K = 11
	cfg.ClipPolyA = false
	_, err := saidx.Build(ctx, cfg, saidx.WithStore(store))
	require.NoError(t, err)

	ix, err := saidx.Open(ctx, store)
	require.NoError(t, err)
	defer ix.Close()

	pattern := txs[2].Residues[10:30]
	m, err := ix.Find(ctx, pattern)
	require.NoError(t, err)
	assert.Equal(t, testutil.CountOccurrences(residuesOf(txs), pattern), m.Count)
}

func residuesOf(txs []testutil.Transcript) [][]byte {
	out := make([][]byte, len(txs))
	for i, tx := range txs {
		out[i] = tx.Residues
	}
	return out
}

func TestRelName(t *testing.T) {
	tests := []struct {
		prefix, key, want string
		ok                bool
	}{
		{"", "sa.bin", "sa.bin", true},
		{"idx/", "idx/sa.bin", "sa.bin", true},
		{"idx", "idx/sa.bin", "sa.bin", true},
		{"idx", "idx2/sa.bin", "", false},
		{"idx", "idx/", "", false},
	}
	for _, tt := range tests {
		got, ok := relName(tt.prefix, tt.key)
		assert.Equal(t, tt.ok, ok, "%s %s", tt.prefix, tt.key)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestPutOptions(t *testing.T) {
	s := NewStore(nil, "b", "p/")
	assert.Equal(t, "application/json", s.putOptions("header.json").ContentType)
	o := s.putOptions("sa.bin")
	assert.Equal(t, "application/octet-stream", o.ContentType)
	assert.Equal(t, "sa.bin", o.UserMetadata["saidx-artifact"])
	assert.Equal(t, uint64(defaultPartSize), o.PartSize)
	assert.Equal(t, "p/sa.bin", s.key("sa.bin"))

	_, err := Dial(Config{})
	assert.Error(t, err)
}
