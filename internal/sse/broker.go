// Package sse implements a Server-Sent Events broker for vault, tag and
// prompt notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/foldertags/internal/events"
)

// Event types broadcast by the broker besides the prompt events.
const (
	TypeNoteCreated       = "note.created"
	TypeNoteMoved         = "note.moved"
	TypeNoteModified      = "note.modified"
	TypeNoteTagged        = "note.tagged"
	TypeFolderCreated     = "folder.created"
	TypeFolderDeleted     = "folder.deleted"
	TypeFolderRenamed     = "folder.renamed"
	TypeFolderTagsChanged = "folder.tags_changed"
	TypeIndexUpdated      = "index.updated"
	TypeNotice            = "notice"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + index throttle timestamp). Public methods communicate with this loop
// through channels, so no mutexes are required.
type Broker struct {
	indexMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	vaultEventCh  chan events.Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given index.updated throttle
// interval.
func NewBroker(indexThrottle time.Duration) *Broker {
	if indexThrottle <= 0 {
		indexThrottle = 2 * time.Second
	}

	b := &Broker{
		indexMin:      indexThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		vaultEventCh:  make(chan events.Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastIndex time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		msg := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)
		raw := []byte(msg)

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case ev := <-b.vaultEventCh:
			out, ok := toEvent(ev)
			if !ok {
				continue
			}
			broadcast(out)

			now := time.Now()
			if now.Sub(lastIndex) >= b.indexMin {
				lastIndex = now
				broadcast(Event{Type: TypeIndexUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// Notify publishes data under kind. Its signature matches the prompt
// queue's notify callback.
func (b *Broker) Notify(kind string, data any) {
	b.Publish(Event{Type: kind, Data: data})
}

// PublishVaultEvent publishes a vault change and a throttled index.updated
// event.
func (b *Broker) PublishVaultEvent(ev events.Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.vaultEventCh <- ev:
	case <-b.stopped:
	}
}

// NoteTagged announces a note whose tags were rewritten.
func (b *Broker) NoteTagged(note string, tags []string) {
	b.Publish(Event{Type: TypeNoteTagged, Data: map[string]any{"path": note, "tags": tags}})
}

// Notice surfaces an operation failure to connected clients.
func (b *Broker) Notice(err error) {
	if err == nil {
		return
	}
	b.Publish(Event{Type: TypeNotice, Data: map[string]string{"message": err.Error()}})
}

func toEvent(ev events.Event) (Event, bool) {
	switch e := ev.(type) {
	case events.NoteCreated:
		return Event{Type: TypeNoteCreated, Data: map[string]string{"path": e.Path}}, true
	case events.NoteMoved:
		return Event{Type: TypeNoteMoved, Data: map[string]string{"from": e.From, "to": e.To}}, true
	case events.NoteModified:
		return Event{Type: TypeNoteModified, Data: map[string]string{"path": e.Path}}, true
	case events.FolderCreated:
		return Event{Type: TypeFolderCreated, Data: map[string]string{"path": e.Path}}, true
	case events.FolderDeleted:
		return Event{Type: TypeFolderDeleted, Data: map[string]string{"path": e.Path}}, true
	case events.FolderRenamed:
		return Event{Type: TypeFolderRenamed, Data: map[string]string{"from": e.From, "to": e.To}}, true
	case events.FolderTagsChanged:
		return Event{Type: TypeFolderTagsChanged, Data: map[string]any{"path": e.Path, "old": e.Old, "new": e.New}}, true
	}
	return Event{}, false
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
