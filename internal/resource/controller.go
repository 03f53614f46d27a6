package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation does not fit the budget.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// maxIOBurst caps the token bucket so one Write never reserves more than 1 GiB.
const maxIOBurst = 1 << 30

// Config holds the limits of one run. Zero values mean unlimited, except
// MaxTransfers which defaults to 1.
type Config struct {
	MemoryLimitBytes   int64 // text, suffix array and k-mer table
	MaxTransfers       int64 // concurrent artifact copies
	IOLimitBytesPerSec int64 // artifact write throughput
}

// Controller enforces a Config. A nil *Controller imposes no limits.
type Controller struct {
	limit int64
	mem   *semaphore.Weighted
	inUse atomic.Int64
	peak  atomic.Int64

	transfers *semaphore.Weighted
	slots     int64

	io    *rate.Limiter
	burst int
}

// NewController returns a Controller for cfg.
func NewController(cfg Config) *Controller {
	c := &Controller{limit: cfg.MemoryLimitBytes, slots: max(cfg.MaxTransfers, 1)}
	c.transfers = semaphore.NewWeighted(c.slots)
	if c.limit > 0 {
		c.mem = semaphore.NewWeighted(c.limit)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.burst = int(min(cfg.IOLimitBytesPerSec, maxIOBurst))
		c.io = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), c.burst)
	}
	return c
}

// Reservation is memory held for one buffer. Release is idempotent.
type Reservation struct {
	c        *Controller
	n        int64
	released atomic.Bool
}

// Reserve accounts n bytes for the buffer named what. It never blocks: a
// build that does not fit fails instead of waiting for memory that no other
// stage will give back.
func (c *Controller) Reserve(what string, n int64) (*Reservation, error) {
	r := &Reservation{c: c, n: max(n, 0)}
	if c == nil || r.n == 0 {
		return r, nil
	}
	if c.mem != nil && !c.mem.TryAcquire(r.n) {
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d of %d in use",
			ErrMemoryLimitExceeded, what, r.n, c.inUse.Load(), c.limit)
	}
	used := c.inUse.Add(r.n)
	for {
		p := c.peak.Load()
		if used <= p || c.peak.CompareAndSwap(p, used) {
			break
		}
	}
	return r, nil
}

// Release returns the reserved bytes.
func (r *Reservation) Release() {
	if r == nil || r.c == nil || r.n == 0 || r.released.Swap(true) {
		return
	}
	if r.c.mem != nil {
		r.c.mem.Release(r.n)
	}
	r.c.inUse.Add(-r.n)
}

// InUse returns the bytes currently reserved.
func (c *Controller) InUse() int64 {
	if c == nil {
		return 0
	}
	return c.inUse.Load()
}

// Peak returns the largest amount ever reserved at once.
func (c *Controller) Peak() int64 {
	if c == nil {
		return 0
	}
	return c.peak.Load()
}

// Limit returns the memory budget, 0 if unlimited.
func (c *Controller) Limit() int64 {
	if c == nil {
		return 0
	}
	return c.limit
}

// Transfers returns the number of transfer slots.
func (c *Controller) Transfers() int {
	if c == nil {
		return 1
	}
	return int(c.slots)
}

// AcquireTransfer blocks until a transfer slot is free or ctx is done. The
// returned func gives the slot back.
func (c *Controller) AcquireTransfer(ctx context.Context) (func(), error) {
	if c == nil {
		return func() {}, nil
	}
	if err := c.transfers.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once atomic.Bool
	return func() {
		if !once.Swap(true) {
			c.transfers.Release(1)
		}
	}, nil
}

// WaitIO blocks until n more bytes may be written. Requests larger than the
// bucket are paid in installments.
func (c *Controller) WaitIO(ctx context.Context, n int) error {
	if c == nil || c.io == nil {
		return nil
	}
	for n > 0 {
		step := min(n, c.burst)
		if err := c.io.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}
