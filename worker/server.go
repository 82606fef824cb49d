package worker

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/marben/irpc"

	julia "github.com/Wartets/Julia-Set"
	"github.com/Wartets/Julia-Set/render"
)

// Listener implements net.Listener over websocket connections accepted by
// its Handler.
type Listener struct {
	ch     chan *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	addr   wsAddr
}

var _ net.Listener = (*Listener)(nil)

// NewListener returns a listener reporting addr as its address. Closing
// it, or canceling ctx, ends every connection it handed out.
func NewListener(ctx context.Context, addr string) *Listener {
	ctx, cancel := context.WithCancel(ctx)
	return &Listener{
		ch:     make(chan *websocket.Conn),
		ctx:    ctx,
		cancel: cancel,
		addr:   wsAddr{addr: addr},
	}
}

// Handler upgrades requests to websocket connections and passes them on
// to Accept.
func (l *Listener) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // TODO: restrict once the worker is served next to a known UI origin
		})
		if err != nil {
			julia.Logger().Warn("worker: websocket accept", "remote", r.RemoteAddr, "err", err)
			return
		}

		select {
		case l.ch <- c:
		case <-l.ctx.Done():
			c.Close(websocket.StatusGoingAway, "shutting down")
		}
	}
}

// Accept waits for the next connection. Every Write on it becomes one
// binary message.
func (l *Listener) Accept() (net.Conn, error) {
	select {
	case c := <-l.ch:
		return websocket.NetConn(l.ctx, c, websocket.MessageBinary), nil
	case <-l.ctx.Done():
		return nil, net.ErrClosed
	}
}

func (l *Listener) Addr() net.Addr {
	return l.addr
}

func (l *Listener) Close() error {
	l.cancel()
	return nil
}

// wsAddr implements net.Addr
type wsAddr struct {
	addr string
}

func (a wsAddr) Network() string { return "ws" }
func (a wsAddr) String() string  { return a.addr }

// Server serves julia.Renderer over irpc. Every connection gets its own
// renderer and is served strictly sequentially, so a connection behaves
// exactly like a Local worker.
type Server struct {
	// NewRenderer builds the renderer for one connection. Nil means a
	// default render.Renderer.
	NewRenderer func() *render.Renderer
	// Limits bound single requests. The zero value means DefaultLimits.
	Limits Limits

	codec    *Codec
	sessions atomic.Int64
}

// NewServer returns a server with default limits.
func NewServer() (*Server, error) {
	codec, err := NewCodec(maxRequestBytes)
	if err != nil {
		return nil, err
	}
	return &Server{codec: codec}, nil
}

// Sessions returns the number of connected clients.
func (s *Server) Sessions() int {
	return int(s.sessions.Load())
}

// Serve accepts connections from l until l is closed. Sessions end when
// ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		go s.session(ctx, conn)
	}
}

// Close releases the codec. Sessions still running must be stopped via
// their context first.
func (s *Server) Close() error {
	return s.codec.Close()
}

func (s *Server) limits() Limits {
	if s.Limits == (Limits{}) {
		return DefaultLimits
	}
	return s.Limits
}

func (s *Server) session(ctx context.Context, conn net.Conn) {
	r := &render.Renderer{}
	if s.NewRenderer != nil {
		r = s.NewRenderer()
	}
	service := julia.NewRendererIrpcService(limitedRenderer{r: r, limits: s.limits()})

	n := s.sessions.Add(1)
	julia.Logger().Info("worker: session started", "remote", conn.RemoteAddr(), "sessions", n)

	ep := irpc.NewEndpoint(s.codec.Wrap(conn),
		irpc.WithEndpointServices(service),
		irpc.WithParallelWorkers(1), // a render.Renderer is not safe for concurrent use
		irpc.WithLocalAddress(conn.LocalAddr()),
		irpc.WithRemoteAddress(conn.RemoteAddr()),
	)
	select {
	case <-ep.Context().Done():
	case <-ctx.Done():
		ep.Close()
	}
	julia.Logger().Info("worker: session closed",
		"remote", conn.RemoteAddr(), "sessions", s.sessions.Add(-1), "cause", context.Cause(ep.Context()))
}
