package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/saidx/blobstore"
	"github.com/hupe1980/saidx/blobstore/minio"
	"github.com/hupe1980/saidx/blobstore/s3"
)

// location is a parsed index location.
type location struct {
	scheme string // "", "s3" or "minio"
	host   string // minio endpoint
	bucket string
	prefix string
	path   string // local directory
}

func parseLocation(s string) (location, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return location{path: s}, nil
	}
	switch scheme {
	case "s3":
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return location{}, fmt.Errorf("missing bucket in %q", s)
		}
		return location{scheme: scheme, bucket: bucket, prefix: prefix}, nil
	case "minio":
		parts := strings.SplitN(rest, "/", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return location{}, fmt.Errorf("want minio://host:port/bucket[/prefix], got %q", s)
		}
		loc := location{scheme: scheme, host: parts[0], bucket: parts[1]}
		if len(parts) == 3 {
			loc.prefix = parts[2]
		}
		return loc, nil
	default:
		return location{}, fmt.Errorf("unsupported scheme %q", scheme)
	}
}

func (l location) local() bool { return l.scheme == "" }

// withSlash makes a non-empty prefix end in "/" so blobs land below it.
func withSlash(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

// openStore connects to the store at l. Local directories are created.
func openStore(ctx context.Context, l location) (blobstore.BlobStore, error) {
	switch l.scheme {
	case "s3":
		return s3.New(ctx, l.bucket, s3.WithPrefix(withSlash(l.prefix)))
	case "minio":
		return minio.Dial(minio.ConfigFromEnv(l.host, l.bucket, withSlash(l.prefix)))
	default:
		return blobstore.NewLocalStore(l.path)
	}
}
