// Package worker provides the contexts that run render requests: an
// in-process goroutine and a remote process reached over irpc.
package worker

import (
	"context"
	"errors"
	"sync"

	julia "github.com/Wartets/Julia-Set"
	"github.com/Wartets/Julia-Set/render"
)

// ErrClosed is returned by Submit after the worker was closed.
var ErrClosed = errors.New("worker closed")

const defaultQueue = 8

// Local renders requests on a single background goroutine, one at a time
// and in submission order.
type Local struct {
	renderer *render.Renderer
	reqs     chan julia.RenderRequest
	results  chan julia.RenderResult

	done      chan struct{}
	closeOnce sync.Once
}

var _ julia.Worker = (*Local)(nil)

// NewLocal starts a worker goroutine. r may be nil for a default renderer.
func NewLocal(r *render.Renderer) *Local {
	if r == nil {
		r = &render.Renderer{}
	}
	l := &Local{
		renderer: r,
		reqs:     make(chan julia.RenderRequest, defaultQueue),
		results:  make(chan julia.RenderResult, defaultQueue),
		done:     make(chan struct{}),
	}
	go l.loop()
	return l
}

// Submit queues req. It blocks while the queue is full.
func (l *Local) Submit(ctx context.Context, req julia.RenderRequest) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.reqs <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
}

// Results delivers finished rasters. It is closed after Close.
func (l *Local) Results() <-chan julia.RenderResult {
	return l.results
}

// Close stops the worker. A request being rendered is finished first but
// its result is dropped.
func (l *Local) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	return nil
}

func (l *Local) loop() {
	defer close(l.results)
	for {
		select {
		case req := <-l.reqs:
			res := l.renderer.Evaluate(req)
			julia.Logger().Debug("worker: rendered", "id", res.ID, "w", res.Width, "h", res.Height)
			select {
			case l.results <- res:
			case <-l.done:
				return
			}
		case <-l.done:
			return
		}
	}
}
