package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/saidx"
)

const fasta = ">a first\nACGTACGGT\n>b\nttgacca\n"

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func buildIndex(t *testing.T, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "tx.fa")
	require.NoError(t, os.WriteFile(in, []byte(fasta), 0o644))
	out := filepath.Join(dir, "index")

	args := append([]string{"index", "-t", in, "-i", out, "-k", "3", "-q", "-seed", "7"}, extra...)
	code, stdout, stderr := run(t, args...)
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "sequences\t2\n")
	return out
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := run(t)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "Usage:")

	code, _, stderr = run(t, "frobnicate")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)

	code, stdout, _ := run(t, "help")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "saidx index")

	code, _, _ = run(t, "index", "-bogus")
	assert.Equal(t, ExitUsage, code)

	code, _, stderr = run(t, "index", "-i", t.TempDir())
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "-t")

	code, _, _ = run(t, "index", "-t", "x.fa", "-i", t.TempDir(), "-k", "40")
	assert.Equal(t, ExitUsage, code)

	code, _, stderr = run(t, "index", "-t", "x.fa", "-i", t.TempDir(), "-k", "4")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "odd")

	code, _, _ = run(t, "search", "ACG")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = run(t, "publish", "-i", t.TempDir())
	assert.Equal(t, ExitUsage, code)
}

func TestIndexAndSearch(t *testing.T) {
	for _, perfect := range []bool{false, true} {
		args := []string{}
		if perfect {
			args = append(args, "-p", "-x", "2")
		}
		index := buildIndex(t, args...)

		code, stdout, stderr := run(t, "search", "-i", index, "-q", "ACG", "TGA", "GGG")
		require.Equal(t, ExitOK, code, stderr)
		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		require.Len(t, lines, 3)
		assert.Regexp(t, `^ACG\t\d+\t2\t1$`, lines[0])
		assert.Regexp(t, `^TGA\t\d+\t1\t1$`, lines[1])
		assert.Regexp(t, `^GGG\t\d+\t0\t0$`, lines[2])
	}
}

func TestIndex_Codec(t *testing.T) {
	index := buildIndex(t, "-codec", "json")
	raw, err := os.ReadFile(filepath.Join(index, "header.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"codec": "json"`)

	code, stdout, stderr := run(t, "search", "-i", index, "-q", "ACG")
	require.Equal(t, ExitOK, code, stderr)
	assert.Regexp(t, `^ACG\t\d+\t2\t1\n$`, stdout)

	code, _, stderr = run(t, "index", "-t", "x.fa", "-i", t.TempDir(), "-codec", "xml")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, `unknown codec "xml"`)
}

func TestSearch_JSONHits(t *testing.T) {
	index := buildIndex(t)

	patterns := filepath.Join(t.TempDir(), "patterns.txt")
	require.NoError(t, os.WriteFile(patterns, []byte("# comment\nACG\n\nACCA\n"), 0o644))

	code, stdout, stderr := run(t, "search", "-i", index, "-q", "-json", "-hits", "-1", "-f", patterns)
	require.Equal(t, ExitOK, code, stderr)

	dec := gojson.NewDecoder(strings.NewReader(stdout))
	var acg, acca searchResult
	require.NoError(t, dec.Decode(&acg))
	require.NoError(t, dec.Decode(&acca))

	assert.Equal(t, "ACG", acg.Pattern)
	assert.Equal(t, int64(2), acg.Count)
	assert.Equal(t, []uint32{0}, acg.Sequences)
	assert.ElementsMatch(t, []saidx.Hit{
		{SequenceID: 0, Name: "a", Position: 0},
		{SequenceID: 0, Name: "a", Position: 4},
	}, acg.Hits)

	assert.Equal(t, "ACCA", acca.Pattern)
	assert.Equal(t, int64(1), acca.Count)
	assert.Equal(t, []saidx.Hit{{SequenceID: 1, Name: "b", Position: 3}}, acca.Hits)
}

func TestSearch_RangeMatchesFind(t *testing.T) {
	index := buildIndex(t)

	_, find, _ := run(t, "search", "-i", index, "-q", "GTACG", "CC")
	code, rng, stderr := run(t, "search", "-i", index, "-q", "-range", "GTACG", "CC")
	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, find, rng)
}

func TestSearch_MissingIndex(t *testing.T) {
	code, _, stderr := run(t, "search", "-i", filepath.Join(t.TempDir(), "none"), "ACG")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "incomplete")
}

func TestPublish_LocalToLocal(t *testing.T) {
	index := buildIndex(t)
	dst := filepath.Join(t.TempDir(), "copy")

	code, stdout, stderr := run(t, "publish", "-i", index, "-o", dst, "-j", "2", "-q")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "artifacts\t5\n")

	code, stdout, stderr = run(t, "search", "-i", dst, "-q", "ACG")
	require.Equal(t, ExitOK, code, stderr)
	assert.Regexp(t, `^ACG\t\d+\t2\t1\n$`, stdout)
}

func TestParseLocation(t *testing.T) {
	loc, err := parseLocation("/tmp/idx")
	require.NoError(t, err)
	assert.True(t, loc.local())
	assert.Equal(t, "/tmp/idx", loc.path)

	loc, err = parseLocation("s3://bucket/a/b")
	require.NoError(t, err)
	assert.Equal(t, location{scheme: "s3", bucket: "bucket", prefix: "a/b"}, loc)

	loc, err = parseLocation("minio://localhost:9000/bucket")
	require.NoError(t, err)
	assert.Equal(t, location{scheme: "minio", host: "localhost:9000", bucket: "bucket"}, loc)

	for _, bad := range []string{"s3://", "minio://host", "minio:///bucket", "gs://bucket"} {
		_, err := parseLocation(bad)
		assert.Error(t, err, bad)
	}

	assert.Equal(t, "", withSlash(""))
	assert.Equal(t, "a/", withSlash("a"))
	assert.Equal(t, "a/", withSlash("a/"))
}

func TestStringSlice(t *testing.T) {
	var s stringSlice
	require.NoError(t, s.Set("a"))
	require.NoError(t, s.Set("b"))
	assert.Equal(t, "a,b", s.String())
}
