// Package sse implements a Server-Sent Events broker that tells tree views
// when to refresh.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Event types sent to clients.
const (
	// TypeTreeChanged follows every completed tree mutation.
	TypeTreeChanged = "tree.changed"
	// TypeTreeRefresh follows changes made to the workspace from outside.
	TypeTreeRefresh = "tree.refresh"
)

type treeEventReq struct {
	op   string
	path string
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, pending refresh paths, refresh timer). Public methods communicate
// with this loop through channels, so no mutexes are required.
type Broker struct {
	refreshMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	treeEventCh   chan treeEventReq
	refreshCh     chan []string
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. At most one tree.refresh event is sent
// per refreshThrottle; paths reported in between are merged into the next one.
func NewBroker(refreshThrottle time.Duration) *Broker {
	if refreshThrottle <= 0 {
		refreshThrottle = time.Second
	}

	b := &Broker{
		refreshMin:    refreshThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		treeEventCh:   make(chan treeEventReq, 256),
		refreshCh:     make(chan []string, 64),
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
	var lastRefresh time.Time
	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

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

	flushRefresh := func() {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		slices.Sort(paths)
		clear(pending)
		lastRefresh = time.Now()
		broadcast(Event{Type: TypeTreeRefresh, Data: map[string][]string{"paths": paths}})
	}

	for {
		select {
		case <-b.stopCh:
			if timer != nil {
				timer.Stop()
			}
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

		case req := <-b.treeEventCh:
			broadcast(Event{Type: TypeTreeChanged, Data: map[string]string{"op": req.op, "path": req.path}})

		case paths := <-b.refreshCh:
			for _, p := range paths {
				pending[p] = struct{}{}
			}
			if timerCh != nil {
				continue
			}
			wait := b.refreshMin - time.Since(lastRefresh)
			if wait <= 0 {
				flushRefresh()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				timer.Reset(wait)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			flushRefresh()

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

// PublishTreeEvent publishes a tree.changed event for a completed mutation.
func (b *Broker) PublishTreeEvent(op, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.treeEventCh <- treeEventReq{op: op, path: path}:
	case <-b.stopped:
	}
}

// PublishRefresh reports paths changed outside the tree engine. Clients get
// a throttled tree.refresh event listing them.
func (b *Broker) PublishRefresh(paths []string) {
	if b.closed.Load() || len(paths) == 0 {
		return
	}
	select {
	case b.refreshCh <- paths:
	case <-b.stopped:
	}
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
