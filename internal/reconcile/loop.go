package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/foldertags/internal/events"
)

// Handler processes one event to completion.
type Handler interface {
	Handle(ctx context.Context, ev events.Event) error
}

// Loop feeds events to a Handler from a single goroutine, so no two events
// are ever handled at once. Moves of the same note are debounced: each new
// move resets the note's timer and a chain A→B→C collapses into A→C.
type Loop struct {
	handler  Handler
	debounce time.Duration
	logger   *slog.Logger
	notice   func(err error)

	in chan events.Event
}

// NewLoop creates a loop. notice, when set, receives every handler error.
func NewLoop(handler Handler, debounce time.Duration, logger *slog.Logger, notice func(error)) *Loop {
	return &Loop{
		handler:  handler,
		debounce: debounce,
		logger:   logger,
		notice:   notice,
		in:       make(chan events.Event, 256),
	}
}

// Submit queues ev. It blocks while the queue is full.
func (l *Loop) Submit(ctx context.Context, ev events.Event) {
	select {
	case l.in <- ev:
	case <-ctx.Done():
	}
}

type pendingMove struct {
	ev    events.NoteMoved
	gen   uint64
	timer *time.Timer
}

type firedMove struct {
	key string
	gen uint64
}

// Run consumes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	pending := make(map[string]*pendingMove)
	fired := make(chan firedMove)
	var gen uint64

	defer func() {
		for _, p := range pending {
			p.timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("reconcile: loop stopped")
			return nil

		case f := <-fired:
			p, ok := pending[f.key]
			if !ok || p.gen != f.gen {
				continue
			}
			delete(pending, f.key)
			if p.ev.From == p.ev.To {
				continue
			}
			l.handle(ctx, p.ev)

		case ev := <-l.in:
			mv, ok := ev.(events.NoteMoved)
			if !ok || l.debounce <= 0 {
				l.handle(ctx, ev)
				continue
			}
			if prev, ok := pending[mv.From]; ok {
				prev.timer.Stop()
				delete(pending, mv.From)
				mv.From = prev.ev.From
			}
			if old, ok := pending[mv.To]; ok {
				old.timer.Stop()
			}
			gen++
			p := &pendingMove{ev: mv, gen: gen}
			key, g := mv.To, gen
			p.timer = time.AfterFunc(l.debounce, func() {
				select {
				case fired <- firedMove{key: key, gen: g}:
				case <-ctx.Done():
				}
			})
			pending[key] = p
		}
	}
}

func (l *Loop) handle(ctx context.Context, ev events.Event) {
	if err := l.handler.Handle(ctx, ev); err != nil {
		l.logger.Error("reconcile: event failed",
			slog.String("key", ev.Key()),
			slog.String("error", err.Error()))
		if l.notice != nil {
			l.notice(err)
		}
	}
}
