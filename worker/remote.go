package worker

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/marben/irpc"

	julia "github.com/Wartets/Julia-Set"
)

// Remote is a Worker backed by a Server in another process. Each request
// is one irpc call; calls run concurrently and results arrive in
// completion order.
type Remote struct {
	ep      *irpc.Endpoint
	client  *julia.RendererIrpcClient
	results chan julia.RenderResult

	mu     sync.Mutex
	closed bool
	calls  sync.WaitGroup
}

var _ julia.Worker = (*Remote)(nil)

// Dial connects to a worker server. addr is a websocket URL such as
// ws://localhost:8080/ws, or tcp://host:port for a raw TCP listener.
func Dial(ctx context.Context, addr string) (*Remote, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", addr, err)
	}

	var conn net.Conn
	switch u.Scheme {
	case "ws", "wss":
		c, _, err := websocket.Dial(ctx, addr, nil)
		if err != nil {
			return nil, fmt.Errorf("websocket.Dial %s: %w", addr, err)
		}
		conn = websocket.NetConn(context.Background(), c, websocket.MessageBinary)
	case "tcp":
		var d net.Dialer
		if conn, err = d.DialContext(ctx, "tcp", u.Host); err != nil {
			return nil, fmt.Errorf("net.Dial %s: %w", u.Host, err)
		}
	default:
		return nil, fmt.Errorf("unsupported worker address %q", addr)
	}

	codec, err := clientCodec()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return newRemote(codec.Wrap(conn))
}

func newRemote(conn net.Conn) (*Remote, error) {
	ep := irpc.NewEndpoint(conn,
		irpc.WithLocalAddress(conn.LocalAddr()),
		irpc.WithRemoteAddress(conn.RemoteAddr()),
	)
	client, err := julia.NewRendererIrpcClient(ep)
	if err != nil {
		ep.Close()
		return nil, err
	}
	r := &Remote{
		ep:      ep,
		client:  client,
		results: make(chan julia.RenderResult, defaultQueue),
	}
	go r.wait()
	return r, nil
}

// Submit starts a render call for req and returns without waiting for it.
// A call the server fails or rejects is logged and yields no result.
func (r *Remote) Submit(_ context.Context, req julia.RenderRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.ep.Context().Err() != nil {
		return ErrClosed
	}
	r.calls.Add(1)
	go r.call(req)
	return nil
}

// Results delivers finished rasters. It is closed when the connection ends.
func (r *Remote) Results() <-chan julia.RenderResult {
	return r.results
}

// Close shuts the connection down. Calls in flight yield no result.
func (r *Remote) Close() error {
	_ = r.ep.Close() // returns the earlier cause if the counterpart closed first
	return nil
}

func (r *Remote) call(req julia.RenderRequest) {
	defer r.calls.Done()

	ctx := r.ep.Context()
	res, err := r.client.Render(ctx, req)
	if err != nil {
		if ctx.Err() == nil {
			julia.Logger().Warn("worker: remote render", "id", req.ID, "err", err)
		}
		return
	}
	select {
	case r.results <- res:
	case <-ctx.Done():
	}
}

// wait closes results once the endpoint is gone and no call can still
// deliver.
func (r *Remote) wait() {
	<-r.ep.Context().Done()
	julia.Logger().Info("worker: remote closed", "remote", r.ep.RemoteAddr(), "cause", context.Cause(r.ep.Context()))

	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.calls.Wait()
	close(r.results)
}
