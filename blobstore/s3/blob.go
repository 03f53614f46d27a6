package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Blob reads an object with ranged GETs.
type s3Blob struct {
	client Client
	bucket string
	key    string
	size   int64
}

func (b *s3Blob) Size() int64  { return b.size }
func (b *s3Blob) Close() error { return nil }

// fetch opens [off, off+n) clipped to the object size. It reports io.EOF when
// off is past the end.
func (b *s3Blob) fetch(ctx context.Context, off, n int64) (io.ReadCloser, int64, error) {
	if off >= b.size {
		return nil, 0, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	n = min(n, b.size-off)
	if n <= 0 {
		return io.NopCloser(bytes.NewReader(nil)), 0, nil
	}
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+n-1)),
	})
	if err != nil {
		return nil, 0, err
	}
	return out.Body, n, nil
}

func (b *s3Blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 && off < b.size {
		return 0, nil
	}
	body, n, err := b.fetch(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer body.Close()

	got, err := io.ReadFull(body, p[:n])
	if err == nil && got < len(p) {
		err = io.EOF
	}
	return got, err
}

func (b *s3Blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	body, _, err := b.fetch(ctx, off, length)
	return body, err
}
