package s3

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/saidx/internal/hash"
)

var errAborted = errors.New("s3: upload aborted")

// UploadConfig tunes multipart uploads.
type UploadConfig struct {
	// PartSize is the multipart part size. Suffix arrays are written once
	// and can reach several gigabytes, so parts are larger than the SDK's.
	PartSize int64
	// Concurrency is the number of parts in flight per upload.
	Concurrency int
	// EnableChecksum asks S3 to verify CRC32C on every upload.
	EnableChecksum bool
	// LeavePartsOnError keeps parts of a failed upload for inspection.
	LeavePartsOnError bool
}

// DefaultUploadConfig uses 16 MiB parts, 5 in flight, with checksums.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{PartSize: 16 << 20, Concurrency: 5, EnableChecksum: true}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}

// crc32cBase64 is the x-amz-checksum-crc32c value: big-endian, base64.
func crc32cBase64(data []byte) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], hash.CRC32C(data))
	return base64.StdEncoding.EncodeToString(b[:])
}

// upload feeds writes through a pipe into a background uploader.
type upload struct {
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan error

	mu     sync.Mutex
	closed bool
	err    error
}

func startUpload(ctx context.Context, uploader *manager.Uploader, in *s3.PutObjectInput) *upload {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(ctx)
	u := &upload{pw: pw, cancel: cancel, done: make(chan error, 1)}
	in.Body = pr
	go func() {
		_, err := uploader.Upload(ctx, in)
		_ = pr.CloseWithError(err)
		u.done <- err
	}()
	return u
}

func (u *upload) Write(p []byte) (int, error) {
	u.mu.Lock()
	closed := u.closed
	u.mu.Unlock()
	if closed {
		return 0, io.ErrClosedPipe
	}
	return u.pw.Write(p)
}

// Sync is a no-op; data is committed on Close.
func (u *upload) Sync() error { return nil }

// Close signals EOF and waits for the upload to complete.
func (u *upload) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return u.err
	}
	u.closed = true
	defer u.cancel()

	if err := u.pw.Close(); err != nil {
		u.err = err
		return err
	}
	u.err = <-u.done
	return u.err
}

// Abort cancels the upload. The uploader removes any parts already sent
// unless LeavePartsOnError is set.
func (u *upload) Abort() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true
	u.cancel()
	_ = u.pw.CloseWithError(errAborted)
	<-u.done
	u.err = errAborted
	return nil
}
