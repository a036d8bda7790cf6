package supervisor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Accept upgrades the HTTP request on conn's path to a websocket, then hands
// back a WSEndpoint wrapping it — the server-side half of the pattern
// WSEndpoint's doc comment describes, grounded on the pack's websocket
// upgrader setup (madpsy-ka9q_ubersdr's Upgrader).
func Accept(w http.ResponseWriter, r *http.Request) (*WSEndpoint, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("supervisor: websocket upgrade: %w", err)
	}
	return NewWSEndpoint(conn), nil
}

// ListenAndAccept blocks on addr until exactly one Supervisor connects on
// path, then returns its Endpoint. One Radio Controller process serves
// exactly one Supervisor connection for its lifetime (§5).
func ListenAndAccept(ctx context.Context, addr, path string) (*WSEndpoint, error) {
	epCh := make(chan *WSEndpoint, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		ep, err := Accept(w, r)
		if err != nil {
			errCh <- err
			return
		}
		epCh <- ep
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()

	select {
	case ep := <-epCh:
		_ = srv.Shutdown(context.Background())
		return ep, nil
	case err := <-errCh:
		_ = srv.Shutdown(context.Background())
		return nil, err
	case <-ctx.Done():
		_ = srv.Shutdown(context.Background())
		return nil, ctx.Err()
	}
}
