package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/saidx"
	"github.com/hupe1980/saidx/blobstore"
)

func runPublish(ctx context.Context, argv []string, stdout, stderr io.Writer) error {
	var (
		src, dst  string
		transfers int
		ioLimit   int64
		log       logFlags
	)
	fs := newFlagSet("publish", stderr)
	fs.StringVar(&src, "i", "", "source index location")
	fs.StringVar(&dst, "o", "", "destination location")
	fs.IntVar(&transfers, "j", 4, "concurrent artifact transfers")
	fs.Int64Var(&ioLimit, "io-limit", 0, "write limit in bytes/s (0 = unlimited)")
	log.register(fs)
	if err := parse(fs, argv); err != nil {
		return err
	}
	if src == "" || dst == "" {
		return usagef("-i and -o are required")
	}
	if transfers < 1 {
		return usagef("-j must be positive")
	}

	from, err := storeAt(ctx, src)
	if err != nil {
		return err
	}
	to, err := storeAt(ctx, dst)
	if err != nil {
		return err
	}

	stats, err := saidx.Publish(ctx, from, to,
		saidx.WithLogger(log.logger(stderr)),
		saidx.WithMaxTransfers(transfers),
		saidx.WithIOLimit(ioLimit))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "artifacts\t%d\nbytes\t%d\n", stats.Artifacts, stats.Bytes)
	return nil
}

func storeAt(ctx context.Context, s string) (blobstore.BlobStore, error) {
	loc, err := parseLocation(s)
	if err != nil {
		return nil, usagef("%v", err)
	}
	return openStore(ctx, loc)
}
