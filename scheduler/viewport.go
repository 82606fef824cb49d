package scheduler

import (
	"fmt"
	"math"

	julia "github.com/Wartets/Julia-Set"
)

// panStep is the keyboard pan distance as a fraction of the visible height.
const panStep = 0.1

// view is the visible region as a center and a vertical extent. The
// horizontal extent follows the canvas aspect ratio.
type view struct {
	centerX, centerY float64
	rangeY           float64
}

func defaultView() view { return view{rangeY: defaultRangeY} }

func (v view) bounds(aspect float64) julia.Viewport {
	halfX, halfY := v.rangeY*aspect/2, v.rangeY/2
	return julia.Viewport{
		MinX: v.centerX - halfX,
		MaxX: v.centerX + halfX,
		MinY: v.centerY - halfY,
		MaxY: v.centerY + halfY,
	}
}

// fit returns the view centered on vp that shows all of it at the given
// aspect ratio.
func fit(vp julia.Viewport, aspect float64) view {
	w, h := vp.MaxX-vp.MinX, vp.MaxY-vp.MinY
	r := h
	if w/aspect > r {
		r = w / aspect
	}
	return view{
		centerX: (vp.MinX + vp.MaxX) / 2,
		centerY: (vp.MinY + vp.MaxY) / 2,
		rangeY:  r,
	}
}

// ViewportUpdate carries a partial viewport change. Nil fields keep their
// current values.
type ViewportUpdate struct {
	MinX, MaxX, MinY, MaxY *float64
	ResolutionFactor       *int
}

func (s *Scheduler) aspectLocked() float64 {
	return float64(s.width) / float64(s.height)
}

// Viewport returns the visible complex-plane bounds.
func (s *Scheduler) Viewport() julia.Viewport {
	s.m.Lock()
	defer s.m.Unlock()
	return s.view.bounds(s.aspectLocked())
}

// SetViewport merges u into the current bounds and refits the view to the
// canvas aspect ratio.
func (s *Scheduler) SetViewport(u ViewportUpdate) error {
	if u.ResolutionFactor != nil && *u.ResolutionFactor < 1 {
		return fmt.Errorf("%w: resolution factor %d", ErrInvalidParam, *u.ResolutionFactor)
	}
	return s.tryMutate(u.ResolutionFactor != nil, func() error {
		vp := s.view.bounds(s.aspectLocked())
		for _, f := range []struct {
			dst *float64
			src *float64
		}{{&vp.MinX, u.MinX}, {&vp.MaxX, u.MaxX}, {&vp.MinY, u.MinY}, {&vp.MaxY, u.MaxY}} {
			if f.src != nil {
				*f.dst = *f.src
			}
		}
		if !vp.Valid() {
			return fmt.Errorf("%w: viewport %s", ErrInvalidParam, vp)
		}
		s.view = fit(vp, s.aspectLocked())
		if u.ResolutionFactor != nil {
			s.params.ResolutionFactor = *u.ResolutionFactor
		}
		return nil
	})
}

// ResetView returns to the default view.
func (s *Scheduler) ResetView() {
	s.mutate(false, func() { s.view = defaultView() })
}

// Resize changes the canvas size. The vertical extent is kept.
func (s *Scheduler) Resize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalidParam, width, height)
	}
	s.mutate(false, func() { s.width, s.height = width, height })
	return nil
}

// CanvasSize returns the canvas size in pixels.
func (s *Scheduler) CanvasSize() (width, height int) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.width, s.height
}

// ScreenToComplex maps canvas pixel coordinates to the complex plane.
// Row 0 is MinY, matching the raster row order.
func (s *Scheduler) ScreenToComplex(sx, sy float64) (x, y float64) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.screenToComplexLocked(sx, sy)
}

func (s *Scheduler) screenToComplexLocked(sx, sy float64) (x, y float64) {
	vp := s.view.bounds(s.aspectLocked())
	x = vp.MinX + sx/float64(s.width)*(vp.MaxX-vp.MinX)
	y = vp.MinY + sy/float64(s.height)*(vp.MaxY-vp.MinY)
	return x, y
}

// Pan drags the view by a pixel delta, as a mouse drag does.
func (s *Scheduler) Pan(dx, dy float64) {
	s.mutate(false, func() {
		scale := s.view.rangeY / float64(s.height)
		s.view.centerX -= dx * scale
		s.view.centerY -= dy * scale
	})
}

// PanBy moves the view by whole keyboard steps along each axis.
// Positive fy moves toward the bottom of the canvas.
func (s *Scheduler) PanBy(fx, fy float64) {
	s.mutate(false, func() {
		step := s.view.rangeY * panStep
		s.view.centerX += fx * step
		s.view.centerY += fy * step
	})
}

// Zoom scales the visible extent around the center. Factors below 1
// zoom in.
func (s *Scheduler) Zoom(factor float64) error {
	if !validFactor(factor) {
		return fmt.Errorf("%w: zoom factor %v", ErrInvalidParam, factor)
	}
	s.mutate(false, func() { s.view.rangeY *= factor })
	return nil
}

// ZoomAt scales the visible extent keeping the point under the given
// pixel fixed, as a mouse wheel does.
func (s *Scheduler) ZoomAt(sx, sy, factor float64) error {
	if !validFactor(factor) {
		return fmt.Errorf("%w: zoom factor %v", ErrInvalidParam, factor)
	}
	s.mutate(false, func() {
		px, py := s.screenToComplexLocked(sx, sy)
		s.view.centerX = px + (s.view.centerX-px)*factor
		s.view.centerY = py + (s.view.centerY-py)*factor
		s.view.rangeY *= factor
	})
	return nil
}

func validFactor(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
