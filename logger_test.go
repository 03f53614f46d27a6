package saidx_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/saidx"
	"github.com/hupe1980/saidx/testutil"
)

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := gojson.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		out = append(out, rec)
	}
	return out
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	log := saidx.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})).WithK(15)
	ctx := context.Background()

	log.LogStage(ctx, saidx.StageSort, time.Second, nil)
	log.LogStage(ctx, saidx.StageIntervals, time.Second, errors.New("boom"))
	log.LogArtifact(ctx, "sa.bin", 128, nil)
	log.LogCorpus(ctx, saidx.BuildStats{Sequences: 3, Discarded: 1})
	log.LogSearch(ctx, 20, 4, nil)
	log.LogOpen(ctx, 15, true, nil)

	recs := decodeRecords(t, &buf)
	require.Len(t, recs, 6)
	for _, r := range recs {
		assert.Equal(t, float64(15), r["k"])
	}

	assert.Equal(t, "INFO", recs[0]["level"])
	assert.Equal(t, "sort", recs[0]["stage"])
	assert.Equal(t, "ERROR", recs[1]["level"])
	assert.Equal(t, "intervals", recs[1]["stage"])
	assert.Equal(t, "boom", recs[1]["error"])
	assert.Equal(t, "sa.bin", recs[2]["artifact"])
	assert.Equal(t, "WARN", recs[3]["level"])
	assert.Equal(t, float64(4), recs[4]["count"])
	assert.Equal(t, true, recs[5]["large"])
}

func TestLogger_Build(t *testing.T) {
	var buf bytes.Buffer
	log := saidx.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	rng := testutil.NewRNG(41)
	_, err := saidx.Build(context.Background(), testConfig(t, rng.Transcripts(4, 40, 60), 9), saidx.WithLogger(log))
	require.NoError(t, err)

	var stages []string
	for _, r := range decodeRecords(t, &buf) {
		if r["msg"] == "stage completed" {
			stages = append(stages, r["stage"].(string))
		}
	}
	assert.Equal(t, []string{"read", "sort", "intervals", "header"}, stages)
}

func TestNoopLogger(t *testing.T) {
	log := saidx.NoopLogger()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
