// Package intake batches newly created folders and prompts for their tags
// on a fixed interval.
package intake

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/foldertags/internal/vaultpath"
)

// Handler is invoked once per drained folder.
type Handler func(ctx context.Context, folder string) error

// Queue is a bounded set of folders awaiting a tag prompt. Pushes are
// ignored until Ready is called, so folders found while the vault is
// first loaded never prompt.
type Queue struct {
	capacity int
	logger   *slog.Logger
	ready    atomic.Bool

	mu    sync.Mutex
	items []string
	seen  map[string]struct{}
}

// New creates a queue holding at most capacity folders.
func New(capacity int, logger *slog.Logger) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	return &Queue{
		capacity: capacity,
		logger:   logger,
		seen:     make(map[string]struct{}),
	}
}

// Ready opens the gate.
func (q *Queue) Ready() {
	if q.ready.CompareAndSwap(false, true) {
		q.logger.Debug("intake: accepting folders")
	}
}

// IsReady reports whether the gate is open.
func (q *Queue) IsReady() bool { return q.ready.Load() }

// Push queues folder. It reports false when the gate is closed, the
// folder is already queued or the queue is full.
func (q *Queue) Push(folder string) bool {
	if !q.ready.Load() {
		return false
	}
	folder = vaultpath.Normalize(folder)
	if folder == "" {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, dup := q.seen[folder]; dup {
		return false
	}
	if len(q.items) >= q.capacity {
		q.logger.Warn("intake: queue full, folder dropped", slog.String("path", folder))
		return false
	}
	q.seen[folder] = struct{}{}
	q.items = append(q.items, folder)
	return true
}

// Len returns the number of queued folders.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain removes and returns every queued folder in arrival order.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	q.seen = make(map[string]struct{})
	return out
}

// Run drains the queue every interval and calls handle for each folder
// until ctx is cancelled. Handler errors are logged.
func (q *Queue) Run(ctx context.Context, interval time.Duration, handle Handler) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, folder := range q.Drain() {
				if err := handle(ctx, folder); err != nil {
					q.logger.Warn("intake: folder not tagged",
						slog.String("path", folder),
						slog.String("error", err.Error()))
				}
			}
		}
	}
}
