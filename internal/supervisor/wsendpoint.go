package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// wireReply is the JSON wire form of a Reply, grounded on the same
// encoding/json-over-websocket shape the retrieval pack's ka9q_ubersdr chat
// websocket uses for its ChatMessage frames.
type wireReply struct {
	Kind    ReplyKind `json:"kind"`
	Role    string    `json:"role"`
	Detail1 any       `json:"detail1"`
	Detail2 any       `json:"detail2"`
}

// WSEndpoint is a gorilla/websocket-backed Endpoint: control tokens arrive
// as text frames, replies go out as JSON text frames. One WSEndpoint serves
// exactly one Radio Controller's Supervisor connection.
type WSEndpoint struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// NewWSEndpoint wraps an already-upgraded websocket connection.
func NewWSEndpoint(conn *websocket.Conn) *WSEndpoint {
	return &WSEndpoint{conn: conn}
}

// ReadToken blocks on the next text frame or ctx cancellation. gorilla's
// Conn has no native context support, so cancellation is implemented by
// racing the blocking read against ctx.Done() in a helper goroutine that
// forces the read to unblock via SetReadDeadline.
func (w *WSEndpoint) ReadToken(ctx context.Context) (string, error) {
	type result struct {
		token string
		err   error
	}
	done := make(chan result, 1)

	go func() {
		_, data, err := w.conn.ReadMessage()
		done <- result{token: string(data), err: err}
	}()

	select {
	case r := <-done:
		return r.token, r.err
	case <-ctx.Done():
		_ = w.conn.Close()
		<-done // wait for the reader goroutine to unblock on the now-closed conn
		return "", ctx.Err()
	}
}

// SendReply writes r as a JSON text frame.
func (w *WSEndpoint) SendReply(ctx context.Context, r Reply) error {
	payload, err := json.Marshal(wireReply{Kind: r.Kind, Role: r.Role, Detail1: detailString(r.Detail1), Detail2: detailString(r.Detail2)})
	if err != nil {
		return fmt.Errorf("supervisor: encode reply: %w", err)
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if err := w.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("supervisor: write reply: %w", err)
	}
	return nil
}

func detailString(v any) any {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}

// Close closes the underlying connection. Safe to call more than once and
// tolerates a peer that already closed its side (§5).
func (w *WSEndpoint) Close() error {
	w.closeMu.Lock()
	defer w.closeMu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.conn.Close()
}

var _ Endpoint = (*WSEndpoint)(nil)
