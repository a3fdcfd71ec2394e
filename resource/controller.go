// Package resource provides a process-wide controller for the
// resources distributed vectors consume: buffer memory allocated by
// the in-process engine and the bandwidth/concurrency of snapshot
// transfers performed by the dump package.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for engine-managed vector
	// storage. If 0, usage is tracked but not limited.
	MemoryLimitBytes int64

	// MaxConcurrentTransfers caps the number of dump uploads running
	// at once. If 0, defaults to 1.
	MaxConcurrentTransfers int64

	// TransferLimitBytesPerSec throttles dump transfer throughput.
	// If 0, unlimited.
	TransferLimitBytesPerSec int64
}

// Controller enforces the limits in Config. A nil *Controller is valid
// and grants everything.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	transferSem *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a controller for the given limits.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentTransfers <= 0 {
		cfg.MaxConcurrentTransfers = 1
	}

	c := &Controller{
		cfg:         cfg,
		transferSem: semaphore.NewWeighted(cfg.MaxConcurrentTransfers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.TransferLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.TransferLimitBytesPerSec), int(cfg.TransferLimitBytesPerSec))
	}

	return c
}

// TryAcquireMemory reserves buffer memory without blocking.
// Returns false if the limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved buffer memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the currently reserved buffer memory in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireTransfer reserves a transfer slot, blocking until one is
// free or ctx is canceled.
func (c *Controller) AcquireTransfer(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.transferSem.Acquire(ctx, 1)
}

// ReleaseTransfer releases a transfer slot.
func (c *Controller) ReleaseTransfer() {
	if c == nil {
		return
	}
	c.transferSem.Release(1)
}

// AcquireIO waits until the transfer rate limit admits the given
// number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}
