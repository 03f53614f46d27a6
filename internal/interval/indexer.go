package interval

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/hupe1980/saidx/internal/suffixarray"
	"github.com/hupe1980/saidx/kmer"
)

const (
	// DefaultProgressEvery is the scan progress logging period in SA positions.
	DefaultProgressEvery = 1_000_000

	diagnosticWidth = 64
)

// DuplicateKmerError reports a k-mer emitted for two separate runs of the
// suffix array. It can only happen if the array is not sorted or the codec
// is broken, so it is never a user input error.
type DuplicateKmerError struct {
	Code     uint64
	Kmer     string
	Existing Interval[int64]
	Conflict Interval[int64]
	// Member suffixes of both runs, cut at diagnosticWidth bytes.
	ExistingSuffixes []string
	ConflictSuffixes []string
}

func (e *DuplicateKmerError) Error() string {
	return fmt.Sprintf("interval: k-mer %s (code %d) emitted twice: existing %v, conflicting %v",
		e.Kmer, e.Code, e.Existing, e.Conflict)
}

// Options configure Build.
type Options struct {
	Strategy Strategy
	// Threads is passed to the perfect hash builder. Zero means GOMAXPROCS.
	Threads       int
	ProgressEvery int
	Logger        *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Threads <= 0 {
		o.Threads = runtime.GOMAXPROCS(0)
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// maxDenseHint caps the initial dense table at 4M k-mers (about 128 MiB of
// slots for 64-bit offsets). Larger tables grow by rehashing.
const maxDenseHint = 1 << 22

// denseHint guesses the distinct k-mer count of n suffixes. There are at most
// 4^k distinct k-mers, and transcriptomes repeat enough that n/16 is rarely
// exceeded.
func denseHint(k, n int) int {
	hint := min(n/16, maxDenseHint)
	if k < 16 {
		hint = min(hint, 1<<(2*k))
	}
	return hint
}

type inserter[T suffixarray.Offset] interface {
	Insert(code uint64, iv Interval[T]) (existing Interval[T], dup bool, err error)
}

// Build scans sa once and records, for every k-mer that starts at least one
// suffix without crossing a sentinel, the run of SA positions it covers.
func Build[T suffixarray.Offset](ctx context.Context, codec kmer.Codec, text []byte, sa []T, opts Options) (Index[T], error) {
	opts = opts.withDefaults()
	log := opts.Logger.With("k", codec.K(), "strategy", opts.Strategy.String())

	switch opts.Strategy {
	case StrategyDense:
		d := NewDense[T](denseHint(codec.K(), len(sa)))
		if err := scan(ctx, codec, text, sa, d, opts.ProgressEvery, log); err != nil {
			return nil, err
		}
		log.Debug("interval table built", "kmers", d.Len())
		return d, nil
	case StrategyPerfect:
		b := newPerfectBuilder[T]()
		if err := scan(ctx, codec, text, sa, b, opts.ProgressEvery, log); err != nil {
			return nil, err
		}
		log.Debug("building perfect hash", "kmers", len(b.keys), "threads", opts.Threads)
		return b.build(ctx, opts.Threads)
	default:
		return nil, fmt.Errorf("interval: unknown strategy %v", opts.Strategy)
	}
}

// scan partitions sa into maximal runs of equal k-byte prefixes and passes
// each valid run to dst. A prefix is valid when it is k bases long and
// holds no sentinel.
func scan[T suffixarray.Offset](ctx context.Context, codec kmer.Codec, text []byte, sa []T, dst inserter[T], progressEvery int, log *slog.Logger) error {
	k := int64(codec.K())
	n := len(sa)

	var (
		current      []byte
		currentCode  uint64
		currentValid bool
		start        int
	)

	emit := func(stop int) error {
		iv := Interval[T]{Start: T(start), Stop: T(stop)}
		existing, dup, err := dst.Insert(currentCode, iv)
		if err != nil {
			return err
		}
		if dup {
			return duplicate(codec, text, sa, currentCode, existing, iv, log)
		}
		return nil
	}

	for stop := 0; stop < n; stop++ {
		if stop > 0 && stop%progressEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			log.Debug("scanning suffix array", "position", stop, "total", n)
		}

		p := int64(sa[stop])
		candidate := text[p:min(p+k, int64(len(text)))]

		if stop == 0 || !bytes.Equal(candidate, current) {
			if currentValid {
				if err := emit(stop); err != nil {
					return err
				}
			}
			current = candidate
			currentCode, currentValid = codec.Encode(candidate)
			start = stop
		}
	}
	if currentValid {
		return emit(n)
	}
	return nil
}

func duplicate[T suffixarray.Offset](codec kmer.Codec, text []byte, sa []T, code uint64, existing, conflict Interval[T], log *slog.Logger) error {
	err := &DuplicateKmerError{
		Code:             code,
		Kmer:             codec.Decode(code),
		Existing:         existing.Widen(),
		Conflict:         conflict.Widen(),
		ExistingSuffixes: memberSuffixes(text, sa, existing),
		ConflictSuffixes: memberSuffixes(text, sa, conflict),
	}
	log.Error("duplicate k-mer in interval scan",
		"kmer", err.Kmer,
		"code", err.Code,
		"existing", err.Existing.String(),
		"conflict", err.Conflict.String(),
		"existing_suffixes", err.ExistingSuffixes,
		"conflict_suffixes", err.ConflictSuffixes,
	)
	return err
}

func memberSuffixes[T suffixarray.Offset](text []byte, sa []T, iv Interval[T]) []string {
	out := make([]string, 0, iv.Len())
	for i := int64(iv.Start); i < int64(iv.Stop) && i < int64(len(sa)); i++ {
		p := int64(sa[i])
		out = append(out, string(text[p:min(p+diagnosticWidth, int64(len(text)))]))
	}
	return out
}
