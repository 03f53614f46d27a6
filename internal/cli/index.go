package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/hupe1980/saidx"
	"github.com/hupe1980/saidx/codec"
)

type indexOptions struct {
	inputs      stringSlice
	output      string
	k           int
	noClip      bool
	perfectHash bool
	threads     int
	readers     int
	seed        int64
	validate    bool
	ioLimit     int64
	memLimit    int64
	codec       string
	log         logFlags
}

func registerIndex(fs *flag.FlagSet, o *indexOptions) {
	def := saidx.DefaultBuildConfig()
	fs.Var(&o.inputs, "t", "transcript FASTA file, optionally compressed (repeatable, '-' for stdin)")
	fs.Var(&o.inputs, "transcripts", "alias of -t")
	fs.StringVar(&o.output, "i", "", "index location")
	fs.StringVar(&o.output, "index", "", "alias of -i")
	fs.IntVar(&o.k, "k", def.K, "k-mer length of the lookup table, odd, 1 to 31")
	fs.BoolVar(&o.noClip, "n", false, "do not clip poly-A tails")
	fs.BoolVar(&o.noClip, "noClip", false, "alias of -n")
	fs.BoolVar(&o.perfectHash, "p", false, "use a minimal perfect hash for the k-mer table")
	fs.BoolVar(&o.perfectHash, "perfectHash", false, "alias of -p")
	fs.IntVar(&o.threads, "x", def.HashThreads, "threads for the perfect hash build")
	fs.IntVar(&o.threads, "numThreads", def.HashThreads, "alias of -x")
	fs.IntVar(&o.readers, "r", def.Readers, "input files read concurrently")
	fs.Int64Var(&o.seed, "seed", 0, "seed for replacing non-ACGT residues (0 = random)")
	fs.BoolVar(&o.validate, "validate", false, "verify the suffix array after sorting")
	fs.Int64Var(&o.ioLimit, "io-limit", 0, "artifact write limit in bytes/s (0 = unlimited)")
	fs.Int64Var(&o.memLimit, "mem-limit", 0, "memory budget for text, suffix array and table in bytes (0 = unlimited)")
	fs.StringVar(&o.codec, "codec", codec.Default.Name(), "header.json codec ("+strings.Join(codec.Names(), ", ")+")")
	o.log.register(fs)
}

func runIndex(ctx context.Context, argv []string, stdout, stderr io.Writer) error {
	var o indexOptions
	fs := newFlagSet("index", stderr)
	registerIndex(fs, &o)
	if err := parse(fs, argv); err != nil {
		return err
	}
	if len(o.inputs) == 0 {
		return usagef("at least one -t input is required")
	}
	if o.output == "" {
		return usagef("-i is required")
	}
	loc, err := parseLocation(o.output)
	if err != nil {
		return usagef("-i: %v", err)
	}

	cfg := saidx.DefaultBuildConfig()
	cfg.Inputs = o.inputs
	cfg.K = o.k
	cfg.ClipPolyA = !o.noClip
	cfg.PerfectHash = o.perfectHash
	cfg.HashThreads = o.threads
	cfg.Readers = o.readers
	if err := cfg.Validate(); err != nil {
		return &usageError{err: err}
	}

	hc, ok := codec.ByName(o.codec)
	if !ok {
		return usagef("unknown codec %q", o.codec)
	}

	logger := o.log.logger(stderr)
	opts := []saidx.Option{
		saidx.WithLogger(logger),
		saidx.WithCodec(hc),
		saidx.WithValidateSuffixArray(o.validate),
		saidx.WithIOLimit(o.ioLimit),
		saidx.WithMemoryLimit(o.memLimit),
	}
	if o.seed != 0 {
		opts = append(opts, saidx.WithRand(rand.New(rand.NewSource(o.seed))))
	}
	if loc.local() {
		cfg.Output = loc.path
	} else {
		store, err := openStore(ctx, loc)
		if err != nil {
			return err
		}
		opts = append(opts, saidx.WithStore(store))
	}

	start := time.Now()
	stats, err := saidx.Build(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "sequences\t%d\ndiscarded\t%d\nreplaced\t%d\nclipped\t%d\ntext_length\t%d\nkmers\t%d\nlarge_index\t%t\nbytes\t%d\npeak_memory\t%d\nelapsed\t%s\n",
		stats.Sequences, stats.Discarded, stats.Replaced, stats.Clipped,
		stats.TextLength, stats.NumKmers, stats.LargeIndex, stats.Bytes, stats.PeakMemory,
		time.Since(start).Round(time.Millisecond))
	return nil
}
