package worker

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	julia "github.com/Wartets/Julia-Set"
	"github.com/Wartets/Julia-Set/equation"
	"github.com/Wartets/Julia-Set/render"
)

func testRequest(id uint64, src string) julia.RenderRequest {
	return julia.RenderRequest{
		ID:               id,
		Width:            64,
		Height:           48,
		Viewport:         julia.Viewport{MinX: -1.5, MaxX: 1.5, MinY: -1.2, MaxY: 1.2},
		MaxIterations:    80,
		ResolutionFactor: 2,
		EquationSource:   src,
		FastForm:         equation.AnalyzeSource(src),
		PaletteName:      "vibrant",
	}
}

func receive(t *testing.T, ch <-chan julia.RenderResult) julia.RenderResult {
	t.Helper()
	select {
	case res, ok := <-ch:
		if !ok {
			t.Fatal("results channel closed")
		}
		return res
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for a result")
	}
	return julia.RenderResult{}
}

func TestCompressedConnRoundTrip(t *testing.T) {
	c, err := NewCodec(maxResultBytes)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	a, b := net.Pipe()
	ca, cb := c.Wrap(a), c.Wrap(b)
	defer ca.Close()
	defer cb.Close()

	var r render.Renderer
	want := r.Evaluate(testRequest(42, "z^2-0.8+0.156i")).Pix
	errc := make(chan error, 1)
	go func() {
		if _, err := ca.Write(want[:100]); err != nil {
			errc <- err
			return
		}
		_, err := ca.Write(want[100:])
		errc <- err
	}()

	got := make([]byte, len(want))
	if _, err := io.ReadFull(cb, got); err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("bytes changed in transit")
	}
}

func TestCompressedConnRejectsBadFrames(t *testing.T) {
	c, err := NewCodec(1024)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	frame := func(n uint32, body []byte) []byte {
		return append(binary.BigEndian.AppendUint32(nil, n), body...)
	}
	for name, raw := range map[string][]byte{
		"empty":     frame(0, nil),
		"oversized": frame(4096, nil),
		"garbage":   frame(8, []byte("notzstd!")),
	} {
		a, b := net.Pipe()
		go func() {
			a.Write(raw)
			a.Close()
		}()
		_, err := c.Wrap(b).Read(make([]byte, 16))
		if !errors.Is(err, ErrBadFrame) {
			t.Errorf("%s: err = %v, want ErrBadFrame", name, err)
		}
		b.Close()
	}
}

func TestLimitsCheck(t *testing.T) {
	l := Limits{MaxPixels: 100 * 100, MaxIterations: 1000, MaxEquationLen: 16}
	ok := julia.RenderRequest{
		Width: 200, Height: 200, ResolutionFactor: 2,
		Viewport:       julia.Viewport{MinX: -1, MaxX: 1, MinY: -1, MaxY: 1},
		MaxIterations:  1000,
		EquationSource: "z^2+0.3",
	}
	if err := l.Check(ok); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	for name, mod := range map[string]func(*julia.RenderRequest){
		"raster":      func(r *julia.RenderRequest) { r.ResolutionFactor = 1 },
		"huge canvas": func(r *julia.RenderRequest) { r.Width, r.Height = 1<<40, 1<<40 },
		"no canvas":   func(r *julia.RenderRequest) { r.Width = 0 },
		"inverted":    func(r *julia.RenderRequest) { r.Viewport.MinX = 2 },
		"nan":         func(r *julia.RenderRequest) { r.Viewport.MaxY = math.NaN() },
		"inf":         func(r *julia.RenderRequest) { r.Viewport.MaxX = math.Inf(1) },
		"iterations":  func(r *julia.RenderRequest) { r.MaxIterations = 1001 },
		"equation":    func(r *julia.RenderRequest) { r.EquationSource = strings.Repeat("z", 17) },
	} {
		req := ok
		mod(&req)
		if err := l.Check(req); !errors.Is(err, ErrRejected) {
			t.Errorf("%s: err = %v, want ErrRejected", name, err)
		}
	}
}

func TestLocalSequential(t *testing.T) {
	l := NewLocal(nil)
	defer l.Close()

	ctx := context.Background()
	srcs := []string{"z^2-0.7269+0.1889i", "sin(z)*0.9 + 0.2", "(z^2"}
	for i, src := range srcs {
		if err := l.Submit(ctx, testRequest(uint64(i+1), src)); err != nil {
			t.Fatal(err)
		}
	}

	var ref render.Renderer
	for i, src := range srcs {
		res := receive(t, l.Results())
		if res.ID != uint64(i+1) {
			t.Fatalf("result %d has id %d", i+1, res.ID)
		}
		want := ref.Evaluate(testRequest(uint64(i+1), src))
		if !bytes.Equal(res.Pix, want.Pix) {
			t.Errorf("result %d differs from a direct render", res.ID)
		}
	}
}

func TestLocalClose(t *testing.T) {
	l := NewLocal(nil)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Submit(context.Background(), testRequest(1, "z^2")); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit after Close: err = %v, want ErrClosed", err)
	}
	select {
	case _, ok := <-l.Results():
		if ok {
			t.Error("unexpected result after Close")
		}
	case <-time.After(5 * time.Second):
		t.Error("results channel not closed")
	}
}

// startServer serves srv on an httptest websocket endpoint and returns
// its URL. Sessions end when ctx is done.
func startServer(t *testing.T, ctx context.Context, srv *Server) string {
	t.Helper()
	l := NewListener(ctx, "test")
	t.Cleanup(func() { l.Close() })
	go srv.Serve(ctx, l)

	ts := httptest.NewServer(l.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestRemoteMatchesLocal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := NewServer()
	if err != nil {
		t.Fatal(err)
	}
	remote, err := Dial(ctx, startServer(t, ctx, srv))
	if err != nil {
		t.Fatal(err)
	}
	defer remote.Close()

	var ref render.Renderer
	for i, src := range []string{"z^3-0.5+0.5i", "z^2 + 0.3*sin(z) - 0.6"} {
		req := testRequest(uint64(10+i), src)
		if err := remote.Submit(ctx, req); err != nil {
			t.Fatal(err)
		}
		res := receive(t, remote.Results())
		want := ref.Evaluate(req)
		if res.ID != req.ID || res.Width != want.Width || res.Height != want.Height {
			t.Fatalf("got %d %dx%d, want %d %dx%d", res.ID, res.Width, res.Height, req.ID, want.Width, want.Height)
		}
		if !bytes.Equal(res.Pix, want.Pix) {
			t.Errorf("remote raster for %q differs from local render", src)
		}
	}
	if n := srv.Sessions(); n != 1 {
		t.Errorf("Sessions() = %d, want 1", n)
	}
}

func TestServerRejectsOversizeRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := NewServer()
	if err != nil {
		t.Fatal(err)
	}
	srv.Limits = Limits{MaxPixels: 64 * 64, MaxIterations: 1000, MaxEquationLen: 64}
	remote, err := Dial(ctx, startServer(t, ctx, srv))
	if err != nil {
		t.Fatal(err)
	}
	defer remote.Close()

	huge := testRequest(1, "z^2")
	huge.Width, huge.Height, huge.ResolutionFactor = 1<<20, 1<<20, 1
	if _, err := remote.client.Render(ctx, huge); err == nil || !strings.Contains(err.Error(), ErrRejected.Error()) {
		t.Fatalf("oversize render: err = %v", err)
	}

	// A rejected submission yields nothing; the connection keeps serving.
	bad := testRequest(2, "z^2")
	bad.MaxIterations = 1 << 30
	if err := remote.Submit(ctx, bad); err != nil {
		t.Fatal(err)
	}
	if err := remote.Submit(ctx, testRequest(3, "z^2")); err != nil {
		t.Fatal(err)
	}
	if res := receive(t, remote.Results()); res.ID != 3 {
		t.Fatalf("got result %d, want 3", res.ID)
	}
}

func TestRemoteOverTCP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := NewServer()
	if err != nil {
		t.Fatal(err)
	}
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	go srv.Serve(ctx, l)

	remote, err := Dial(ctx, "tcp://"+l.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer remote.Close()

	req := testRequest(7, "z^2-0.7269+0.1889i")
	if err := remote.Submit(ctx, req); err != nil {
		t.Fatal(err)
	}
	var ref render.Renderer
	if res := receive(t, remote.Results()); !bytes.Equal(res.Pix, ref.Evaluate(req).Pix) {
		t.Error("tcp raster differs from local render")
	}
}

func TestRemoteResultsCloseWithServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv, err := NewServer()
	if err != nil {
		t.Fatal(err)
	}
	remote, err := Dial(context.Background(), startServer(t, ctx, srv))
	if err != nil {
		t.Fatal(err)
	}
	defer remote.Close()

	cancel()
	select {
	case _, ok := <-remote.Results():
		if ok {
			t.Fatal("unexpected result")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("results not closed after the server went away")
	}
	if err := remote.Submit(context.Background(), testRequest(1, "z^2")); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit after close: err = %v, want ErrClosed", err)
	}
}

func TestDialRejectsUnknownScheme(t *testing.T) {
	if _, err := Dial(context.Background(), "http://localhost:1/ws"); err == nil {
		t.Fatal("http URL accepted")
	}
}
