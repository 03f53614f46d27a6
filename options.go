package saidx

import (
	"log/slog"
	"math/rand"

	"github.com/hupe1980/saidx/blobstore"
	"github.com/hupe1980/saidx/codec"
	"github.com/hupe1980/saidx/internal/resource"
	"github.com/hupe1980/saidx/internal/suffixarray"
)

// Sorter computes the suffix array of a text. The returned status is zero on
// success; any other value aborts the build with a *SortError.
type Sorter = suffixarray.Sorter

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	store            blobstore.BlobStore
	sorter           Sorter
	rng              *rand.Rand
	verifyChecksums  bool
	validateSA       bool
	limits           resource.Config
}

// Option configures Build, Open and Publish.
type Option func(*options)

// WithCodec configures the codec used for header.json.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &saidx.BasicMetricsCollector{}
//	stats, _ := saidx.Build(ctx, cfg, saidx.WithMetricsCollector(metrics))
//	fmt.Printf("stages: %d, avg %dns\n", metrics.GetStats().StageCount, metrics.GetStats().StageAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := saidx.NewJSONLogger(slog.LevelInfo)
//	stats, _ := saidx.Build(ctx, cfg, saidx.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithStore makes Build write to store instead of BuildConfig.Output.
func WithStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithSorter replaces the SA-IS suffix sorter.
func WithSorter(s Sorter) Option {
	return func(o *options) {
		o.sorter = s
	}
}

// WithRand sets the source of the bases that replace non-ACGT residues.
// Builds with the same source and input are byte-identical.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// WithVerifyChecksums controls CRC32C verification when opening an index.
// Enabled by default.
func WithVerifyChecksums(verify bool) Option {
	return func(o *options) {
		o.verifyChecksums = verify
	}
}

// WithValidateSuffixArray checks the sorted suffix array before it is used.
// The check is linear in the text length and allocates one byte per suffix.
func WithValidateSuffixArray(validate bool) Option {
	return func(o *options) {
		o.validateSA = validate
	}
}

// WithIOLimit caps artifact write throughput in bytes per second.
// Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.limits.IOLimitBytesPerSec = bytesPerSec
	}
}

// WithMemoryLimit bounds the bytes reserved for the text, the suffix array
// and the k-mer table. A build that does not fit fails before allocating.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.limits.MemoryLimitBytes = bytes
	}
}

// WithMaxTransfers sets how many artifacts Publish copies at once.
func WithMaxTransfers(n int) Option {
	return func(o *options) {
		o.limits.MaxTransfers = int64(n)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		sorter:           suffixarray.SAIS,
		verifyChecksums:  true,
		limits:           resource.Config{MaxTransfers: 4},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
