package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/saidx"
)

type searchOptions struct {
	index     string
	file      string
	hits      int
	json      bool
	rangeOnly bool
	noVerify  bool
	log       logFlags
}

// searchResult is one line of -json output.
type searchResult struct {
	Pattern   string      `json:"pattern"`
	Left      int64       `json:"left"`
	Count     int64       `json:"count"`
	Sequences []uint32    `json:"sequences"`
	Hits      []saidx.Hit `json:"hits,omitempty"`
}

func runSearch(ctx context.Context, argv []string, stdout, stderr io.Writer) error {
	var o searchOptions
	fs := newFlagSet("search", stderr)
	fs.StringVar(&o.index, "i", "", "index location")
	fs.StringVar(&o.index, "index", "", "alias of -i")
	fs.StringVar(&o.file, "f", "", "file with one pattern per line ('-' for stdin)")
	fs.IntVar(&o.hits, "hits", 0, "report up to N occurrences per pattern (-1 = all)")
	fs.BoolVar(&o.json, "json", false, "write one JSON object per pattern")
	fs.BoolVar(&o.rangeOnly, "range", false, "use plain binary search instead of the k-mer table")
	fs.BoolVar(&o.noVerify, "no-verify", false, "skip artifact checksum verification")
	o.log.register(fs)
	if err := parse(fs, argv); err != nil {
		return err
	}
	if o.index == "" {
		return usagef("-i is required")
	}
	patterns := fs.Args()
	if o.file != "" {
		more, err := readPatterns(o.file)
		if err != nil {
			return err
		}
		patterns = append(patterns, more...)
	}
	if len(patterns) == 0 {
		return usagef("no patterns given")
	}

	ix, err := openIndex(ctx, o.index,
		saidx.WithLogger(o.log.logger(stderr)),
		saidx.WithVerifyChecksums(!o.noVerify))
	if err != nil {
		return err
	}
	defer ix.Close()

	w := bufio.NewWriter(stdout)
	defer w.Flush()
	enc := gojson.NewEncoder(w)
	for _, p := range patterns {
		query := ix.Find
		if o.rangeOnly {
			query = ix.Range
		}
		m, err := query(ctx, []byte(p))
		if err != nil {
			return err
		}
		seqs, err := ix.Sequences(m)
		if err != nil {
			return err
		}
		res := searchResult{Pattern: p, Left: m.Left, Count: m.Count, Sequences: seqs.ToArray()}
		if o.hits != 0 {
			for h := range ix.Hits(m) {
				if o.hits > 0 && len(res.Hits) == o.hits {
					break
				}
				res.Hits = append(res.Hits, h)
			}
		}

		if o.json {
			if err := enc.Encode(res); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", p, m.Left, m.Count, len(res.Sequences))
		for _, h := range res.Hits {
			fmt.Fprintf(w, "\t%d\t%s\t%d\n", h.SequenceID, h.Name, h.Position)
		}
	}
	return w.Flush()
}

func openIndex(ctx context.Context, s string, opts ...saidx.Option) (*saidx.Index, error) {
	loc, err := parseLocation(s)
	if err != nil {
		return nil, usagef("-i: %v", err)
	}
	if loc.local() {
		return saidx.OpenDir(ctx, loc.path, opts...)
	}
	store, err := openStore(ctx, loc)
	if err != nil {
		return nil, err
	}
	return saidx.Open(ctx, store, opts...)
}

func readPatterns(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<26)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
