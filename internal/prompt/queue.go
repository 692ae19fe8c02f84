package prompt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/foldertags/internal/apperr"
)

// Event types passed to the queue's notify callback.
const (
	EventOpened = "prompt.opened"
	EventClosed = "prompt.closed"
)

type pending struct {
	prompt Prompt
	reply  chan Answer
}

// Queue is a Prompter whose prompts are answered out of band, typically
// over HTTP. Open prompts are announced through notify. A prompt left
// unanswered for the timeout is dismissed.
type Queue struct {
	timeout time.Duration
	notify  func(kind string, data any)

	mu      sync.Mutex
	order   []string
	pending map[string]*pending
}

// NewQueue creates a queue. notify may be nil.
func NewQueue(timeout time.Duration, notify func(kind string, data any)) *Queue {
	if notify == nil {
		notify = func(string, any) {}
	}
	return &Queue{
		timeout: timeout,
		notify:  notify,
		pending: make(map[string]*pending),
	}
}

// Ask implements Prompter. Timeout yields a dismissal; cancellation of
// ctx yields a dismissal together with ctx's error.
func (q *Queue) Ask(ctx context.Context, p Prompt) (Answer, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	item := &pending{prompt: p, reply: make(chan Answer, 1)}

	q.mu.Lock()
	q.pending[p.ID] = item
	q.order = append(q.order, p.ID)
	q.mu.Unlock()
	q.notify(EventOpened, p)

	defer func() {
		q.remove(p.ID)
		q.notify(EventClosed, map[string]string{"id": p.ID})
	}()

	var expired <-chan time.Time
	if q.timeout > 0 {
		timer := time.NewTimer(q.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case a := <-item.reply:
		return a, nil
	case <-expired:
		return Dismissed, nil
	case <-ctx.Done():
		return Dismissed, fmt.Errorf("prompt: ask: %w", ctx.Err())
	}
}

func (q *Queue) remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, id)
	for i, v := range q.order {
		if v == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Pending returns the open prompts, oldest first.
func (q *Queue) Pending() []Prompt {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Prompt, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.pending[id].prompt)
	}
	return out
}

// Get returns one open prompt.
func (q *Queue) Get(id string) (Prompt, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.pending[id]
	if !ok {
		return Prompt{}, apperr.ErrPromptNotFound
	}
	return item.prompt, nil
}

// Answer delivers a for the prompt id. Choice answers must name one of
// the prompt's options.
func (q *Queue) Answer(id string, a Answer) error {
	q.mu.Lock()
	item, ok := q.pending[id]
	q.mu.Unlock()
	if !ok {
		return apperr.ErrPromptNotFound
	}
	if !a.Dismissed && item.prompt.Kind == KindChoice && !item.prompt.HasOption(a.Choice) {
		return fmt.Errorf("%w: unknown option %q", apperr.ErrInvalidInput, a.Choice)
	}
	select {
	case item.reply <- a:
		return nil
	default:
		return apperr.ErrPromptClosed
	}
}
