// Package telemetry implements the read-only diagnostics surface's event
// stream (§14): an rto.Sink that fans every outgoing RTO event out to
// Server-Sent-Events clients, adapted from the teacher's per-radio
// internal/telemetry.Hub down to a single Controller's event stream, with
// the same buffered-per-client-channel-plus-heartbeat shape.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/radio-control/rdoctl/internal/rto"
)

// client is one subscribed SSE connection.
type client struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	events chan rto.Event
	lastID int64
	once   sync.Once
}

// Hub is an rto.Sink that also serves an SSE stream of every event it
// receives (§14 GET /events), buffering recent events so a client that
// reconnects with Last-Event-ID can replay what it missed.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client

	buffer   []bufferedEvent
	bufCap   int
	nextID   int64

	heartbeatInterval time.Duration
	heartbeatJitter   time.Duration

	done chan struct{}
	wg   sync.WaitGroup

	heartbeatOnce sync.Once
}

type bufferedEvent struct {
	id int64
	e  rto.Event
}

// NewHub builds a Hub with the given buffer capacity and heartbeat cadence.
func NewHub(bufCap int, heartbeatInterval, heartbeatJitter time.Duration) *Hub {
	if bufCap <= 0 {
		bufCap = 50
	}
	return &Hub{
		clients:           make(map[string]*client),
		bufCap:            bufCap,
		heartbeatInterval: heartbeatInterval,
		heartbeatJitter:   heartbeatJitter,
		done:              make(chan struct{}),
	}
}

// Publish implements rto.Sink: buffer the event and fan it out to every
// connected client, dropping it for any client too slow to keep up rather
// than blocking the Controller's run loop (§5).
func (h *Hub) Publish(ctx context.Context, e rto.Event) error {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.buffer = append(h.buffer, bufferedEvent{id: id, e: e})
	if len(h.buffer) > h.bufCap {
		h.buffer = h.buffer[1:]
	}
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.startHeartbeatOnce()

	for _, c := range clients {
		select {
		case <-c.ctx.Done():
			continue
		case c.events <- e:
		case <-time.After(100 * time.Millisecond):
			// slow client, drop this event rather than block Publish
		}
	}
	return nil
}

// Subscribe serves one SSE connection until the client disconnects (§14).
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx, cancel := context.WithCancel(r.Context())
	c := &client{
		id:     uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
		events: make(chan rto.Event, 100),
	}

	if lastIDStr := r.Header.Get("Last-Event-ID"); lastIDStr != "" {
		if id, err := strconv.ParseInt(lastIDStr, 10, 64); err == nil {
			c.lastID = id
		}
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	defer h.unregister(c.id)

	if err := h.replay(c, w); err != nil {
		return err
	}

	flusher, _ := w.(http.Flusher)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.done:
			return nil
		case e, ok := <-c.events:
			if !ok {
				return nil
			}
			if err := writeSSE(w, 0, "event", e); err != nil {
				return err
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func (h *Hub) replay(c *client, w http.ResponseWriter) error {
	h.mu.RLock()
	toSend := make([]bufferedEvent, 0, len(h.buffer))
	for _, b := range h.buffer {
		if b.id > c.lastID {
			toSend = append(toSend, b)
		}
	}
	h.mu.RUnlock()

	flusher, _ := w.(http.Flusher)
	for _, b := range toSend {
		if err := writeSSE(w, b.id, "event", b.e); err != nil {
			return err
		}
	}
	if flusher != nil {
		flusher.Flush()
	}
	return nil
}

func writeSSE(w http.ResponseWriter, id int64, eventType string, payload any) error {
	if id > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telemetry: marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		c.cancel()
		c.once.Do(func() { close(c.events) })
		delete(h.clients, id)
	}
}

func (h *Hub) startHeartbeatOnce() {
	h.heartbeatOnce.Do(func() {
		interval := h.heartbeatInterval + h.heartbeatJitter/2
		if interval <= 0 {
			interval = 15 * time.Second
		}
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					h.heartbeat()
				case <-h.done:
					return
				}
			}
		}()
	})
}

func (h *Hub) heartbeat() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	hb := rto.Event{Tag: "HEARTBEAT", Timestamp: float64(time.Now().Unix())}
	for _, c := range clients {
		select {
		case <-c.ctx.Done():
		case c.events <- hb:
		default:
		}
	}
}

// Stop shuts the hub down, disconnecting every client.
func (h *Hub) Stop() {
	close(h.done)
	h.mu.Lock()
	for id, c := range h.clients {
		c.cancel()
		c.once.Do(func() { close(c.events) })
		delete(h.clients, id)
	}
	h.mu.Unlock()
	h.wg.Wait()
}

var _ rto.Sink = (*Hub)(nil)
