package julia

import (
	"context"
	"fmt"
)

// Viewport is the visible region of the complex plane.
type Viewport struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
}

// Valid reports whether both axes have a positive extent.
func (v Viewport) Valid() bool {
	return v.MaxX > v.MinX && v.MaxY > v.MinY
}

func (v Viewport) String() string {
	return fmt.Sprintf("[%g,%g]x[%g,%g]", v.MinX, v.MaxX, v.MinY, v.MaxY)
}

// FastForm describes the recurrence z <- Coeff*z^Power + (CRe + i*CIm).
type FastForm struct {
	Power int     `json:"power"`
	Coeff int     `json:"coeff"`
	CRe   float64 `json:"cRe"`
	CIm   float64 `json:"cIm"`
}

// RenderRequest is one unit of work sent to a worker.
// Width and Height are canvas dimensions; the worker renders at
// Width/ResolutionFactor x Height/ResolutionFactor.
type RenderRequest struct {
	ID               uint64    `json:"id"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	Viewport         Viewport  `json:"viewport"`
	MaxIterations    int       `json:"maxIter"`
	ResolutionFactor int       `json:"resolutionFactor"`
	EquationSource   string    `json:"equationText"`
	FastForm         *FastForm `json:"fastParams,omitempty"`
	PaletteName      string    `json:"paletteName"`
}

// RasterSize returns the downsampled raster dimensions, never below 1x1.
func (r RenderRequest) RasterSize() (w, h int) {
	f := r.ResolutionFactor
	if f < 1 {
		f = 1
	}
	return max(1, r.Width/f), max(1, r.Height/f)
}

// RenderResult carries an interleaved RGBA raster of Width x Height pixels.
// Whoever receives a result owns Pix.
type RenderResult struct {
	ID     uint64
	Width  int
	Height int
	Pix    []byte
}

// Worker is the asynchronous boundary between the scheduler and the
// context that does the pixel work. Results may arrive in any order.
type Worker interface {
	Submit(ctx context.Context, req RenderRequest) error
	Results() <-chan RenderResult
}
