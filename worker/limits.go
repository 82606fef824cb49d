package worker

import (
	"context"
	"errors"
	"fmt"
	"math"

	julia "github.com/Wartets/Julia-Set"
	"github.com/Wartets/Julia-Set/render"
)

// ErrRejected is returned for requests outside a server's Limits.
var ErrRejected = errors.New("request rejected")

// Limits bound the work a server accepts from a single request.
type Limits struct {
	MaxPixels      int // raster pixels after the resolution factor
	MaxIterations  int
	MaxEquationLen int // bytes
}

// DefaultLimits are used by a Server with zero Limits.
var DefaultLimits = Limits{
	MaxPixels:      maxRasterPixels,
	MaxIterations:  100_000,
	MaxEquationLen: 1024,
}

// Check reports why req exceeds l, or nil.
func (l Limits) Check(req julia.RenderRequest) error {
	w, h := req.RasterSize()
	switch {
	case req.Width < 1 || req.Height < 1:
		return fmt.Errorf("%w: canvas %dx%d", ErrRejected, req.Width, req.Height)
	case w > l.MaxPixels || h > l.MaxPixels || w*h > l.MaxPixels:
		return fmt.Errorf("%w: raster %dx%d over %d pixels", ErrRejected, w, h, l.MaxPixels)
	case !finite(req.Viewport) || !req.Viewport.Valid():
		return fmt.Errorf("%w: viewport %s", ErrRejected, req.Viewport)
	case req.MaxIterations > l.MaxIterations:
		return fmt.Errorf("%w: %d iterations over %d", ErrRejected, req.MaxIterations, l.MaxIterations)
	case len(req.EquationSource) > l.MaxEquationLen:
		return fmt.Errorf("%w: equation of %d bytes", ErrRejected, len(req.EquationSource))
	}
	return nil
}

func finite(vp julia.Viewport) bool {
	for _, v := range []float64{vp.MinX, vp.MaxX, vp.MinY, vp.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// limitedRenderer refuses requests outside its limits before any pixel
// work starts.
type limitedRenderer struct {
	r      *render.Renderer
	limits Limits
}

var _ julia.Renderer = limitedRenderer{}

func (l limitedRenderer) Render(ctx context.Context, req julia.RenderRequest) (julia.RenderResult, error) {
	if err := l.limits.Check(req); err != nil {
		julia.Logger().Warn("worker: rejected request", "id", req.ID, "err", err)
		return julia.RenderResult{}, err
	}
	res, err := l.r.Render(ctx, req)
	if err != nil {
		return julia.RenderResult{}, fmt.Errorf("render %d: %w", req.ID, err)
	}
	julia.Logger().Debug("worker: rendered", "id", res.ID, "w", res.Width, "h", res.Height)
	return res, nil
}
