package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/saidx/blobstore"
)

// defaultPartSize keeps multipart buffers small; suffix arrays of large
// transcriptomes still fit in well under the 10,000 part limit.
const defaultPartSize = 64 << 20

// Config describes a MinIO or other S3-compatible endpoint.
type Config struct {
	Endpoint  string // host:port
	AccessKey string
	SecretKey string
	Region    string
	Insecure  bool // plain HTTP
	Bucket    string
	Prefix    string // key prefix, e.g. "indexes/gencode/"
	PartSize  uint64
}

// ConfigFromEnv fills credentials from MINIO_ACCESS_KEY, MINIO_SECRET_KEY,
// MINIO_REGION and MINIO_INSECURE.
func ConfigFromEnv(endpoint, bucket, prefix string) Config {
	return Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		Region:    os.Getenv("MINIO_REGION"),
		Insecure:  os.Getenv("MINIO_INSECURE") != "",
		Bucket:    bucket,
		Prefix:    prefix,
	}
}

// Store keeps index artifacts as objects under a prefix.
type Store struct {
	client   *minio.Client
	bucket   string
	prefix   string
	partSize uint64
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewStore wraps an existing client.
func NewStore(client *minio.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix, partSize: defaultPartSize}
}

// Dial creates a client for cfg.
func Dial(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio: endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	s := NewStore(client, cfg.Bucket, cfg.Prefix)
	if cfg.PartSize > 0 {
		s.partSize = cfg.PartSize
	}
	return s, nil
}

func (s *Store) key(name string) string { return path.Join(s.prefix, name) }

// putOptions labels artifacts so a bucket listing shows what each object is.
func (s *Store) putOptions(name string) minio.PutObjectOptions {
	ct := "application/octet-stream"
	if strings.HasSuffix(name, ".json") {
		ct = "application/json"
	}
	return minio.PutObjectOptions{
		ContentType:  ct,
		PartSize:     s.partSize,
		UserMetadata: map[string]string{"saidx-artifact": name},
	}
}

func notFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if notFound(err) {
		return nil, fmt.Errorf("minio: %s: %w", key, blobstore.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &object{client: s.client, bucket: s.bucket, key: key, size: info.Size}, nil
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), s.putOptions(name))
	return err
}

// Create streams through a pipe into one PutObject call. The object only
// exists once Close returns nil.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(ctx)
	u := &upload{pw: pw, cancel: cancel, done: make(chan error, 1)}
	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, s.key(name), pr, -1, s.putOptions(name))
		_ = pr.CloseWithError(err)
		u.done <- err
	}()
	return u, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !notFound(err) {
		return err
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	opts := minio.ListObjectsOptions{Prefix: s.key(prefix), Recursive: true}
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name, ok := relName(s.prefix, obj.Key); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// relName strips the store prefix from key.
func relName(prefix, key string) (string, bool) {
	root := strings.TrimSuffix(prefix, "/")
	if root == "" {
		return key, key != ""
	}
	name, ok := strings.CutPrefix(key, root+"/")
	return name, ok && name != ""
}

type object struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (o *object) Size() int64  { return o.size }
func (o *object) Close() error { return nil }

// get fetches the inclusive byte range [first, last].
func (o *object) get(ctx context.Context, first, last int64) (*minio.Object, error) {
	var opts minio.GetObjectOptions
	if err := opts.SetRange(first, last); err != nil {
		return nil, err
	}
	return o.client.GetObject(ctx, o.bucket, o.key, opts)
}

func (o *object) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off >= o.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	last := min(off+int64(len(p)), o.size) - 1
	r, err := o.get(ctx, off, last)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := io.ReadFull(r, p[:last-off+1])
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (o *object) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= o.size {
		return nil, io.EOF
	}
	return o.get(ctx, off, min(off+length, o.size)-1)
}

type upload struct {
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan error
	once   sync.Once
	err    error
}

func (u *upload) Write(p []byte) (int, error) { return u.pw.Write(p) }
func (u *upload) Sync() error                 { return nil }

func (u *upload) finish(abort bool) error {
	u.once.Do(func() {
		defer u.cancel()
		if abort {
			u.cancel()
			_ = u.pw.CloseWithError(errors.New("minio: upload aborted"))
			<-u.done
			return
		}
		_ = u.pw.Close()
		u.err = <-u.done
	})
	return u.err
}

func (u *upload) Close() error { return u.finish(false) }

// Abort cancels the upload so no object is created.
func (u *upload) Abort() error {
	_ = u.finish(true)
	return nil
}
