// Package render turns a render request into an RGBA raster of
// escape-time iteration counts.
//
// Requests carrying a FastForm run a specialized recurrence on plain
// float64 pairs; all others go through the compiled expression.
package render

import (
	"context"
	"image"
	"image/color"
	"runtime"
	"sync"

	julia "github.com/Wartets/Julia-Set"
	"github.com/Wartets/Julia-Set/expr"
	"github.com/Wartets/Julia-Set/palette"
)

const (
	// escapeRadius2 is the squared escape radius.
	escapeRadius2 = 4

	defaultTileSize = 64
)

// Gray fills the frame when the equation cannot be compiled.
var Gray = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// Renderer evaluates requests one at a time, keeping the palette and the
// compiled equation of the previous request for reuse.
// A Renderer must not be used from several goroutines at once.
type Renderer struct {
	// Workers is the number of goroutines sharing the tiles of one frame.
	// Zero means GOMAXPROCS.
	Workers int
	// TileSize is the edge of a square tile in raster pixels. Zero means 64.
	TileSize int
	// OnTileRender, if set, is called once per finished tile.
	OnTileRender func(tile image.Rectangle)

	pal      palette.Palette
	palName  string
	palIters int

	prog    *expr.Program
	progSrc string
	progErr error
}

var _ julia.Renderer = (*Renderer)(nil)

// escapeFunc returns the iteration count for the orbit seeded at (zr, zi):
// the step at which |z|^2 first exceeded 4, or maxIter.
type escapeFunc func(zr, zi float64) int

// Render implements julia.Renderer. The only error it returns is ctx's.
func (r *Renderer) Render(ctx context.Context, req julia.RenderRequest) (julia.RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return julia.RenderResult{}, err
	}
	return r.render(ctx, req)
}

// Evaluate renders req to completion.
func (r *Renderer) Evaluate(req julia.RenderRequest) julia.RenderResult {
	res, _ := r.render(context.Background(), req)
	return res
}

func (r *Renderer) render(ctx context.Context, req julia.RenderRequest) (julia.RenderResult, error) {
	w, h := req.RasterSize()
	maxIter := max(1, req.MaxIterations)
	res := julia.RenderResult{ID: req.ID, Width: w, Height: h, Pix: make([]byte, 4*w*h)}

	var escape escapeFunc
	if supported(req.FastForm) {
		escape = fastEscape(*req.FastForm, maxIter)
	} else {
		prog, err := r.program(req.EquationSource)
		if err != nil {
			julia.Logger().Debug("render: equation does not compile, gray frame",
				"id", req.ID, "equation", req.EquationSource, "err", err)
			fill(res.Pix, Gray)
			return res, nil
		}
		escape = genericEscape(prog, maxIter)
	}

	pal := r.palette(req.PaletteName, maxIter)
	if err := r.renderTiles(ctx, res, req.Viewport, escape, pal); err != nil {
		return julia.RenderResult{}, err
	}
	return res, nil
}

// renderTiles splits the raster into tiles and shares them among the
// worker goroutines. Tiles cover disjoint parts of res.Pix.
func (r *Renderer) renderTiles(ctx context.Context, res julia.RenderResult, vp julia.Viewport, escape escapeFunc, pal palette.Palette) error {
	size := r.TileSize
	if size <= 0 {
		size = defaultTileSize
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	tiles := make(chan image.Rectangle)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tile := range tiles {
				renderTile(res, vp, tile, escape, pal)
				if r.OnTileRender != nil {
					r.OnTileRender(tile)
				}
			}
		}()
	}

	var err error
	for _, tile := range splitRect(image.Rect(0, 0, res.Width, res.Height), size, size) {
		if err = ctx.Err(); err != nil {
			break
		}
		tiles <- tile
	}
	close(tiles)
	wg.Wait()
	return err
}

func renderTile(res julia.RenderResult, vp julia.Viewport, tile image.Rectangle, escape escapeFunc, pal palette.Palette) {
	stepX := (vp.MaxX - vp.MinX) / float64(res.Width)
	stepY := (vp.MaxY - vp.MinY) / float64(res.Height)

	for py := tile.Min.Y; py < tile.Max.Y; py++ {
		y0 := vp.MinY + float64(py)*stepY
		off := 4 * (py*res.Width + tile.Min.X)
		for px := tile.Min.X; px < tile.Max.X; px++ {
			x0 := vp.MinX + float64(px)*stepX
			c := pal[escape(x0, y0)]
			res.Pix[off] = c.R
			res.Pix[off+1] = c.G
			res.Pix[off+2] = c.B
			res.Pix[off+3] = 255
			off += 4
		}
	}
}

// fastEscape runs z <- coeff*z^power + c on float pairs. The comparison
// is written so that NaN and Inf count as escaped.
func fastEscape(ff julia.FastForm, maxIter int) escapeFunc {
	pow := powers[ff.Power]
	neg := ff.Coeff < 0
	cr, ci := ff.CRe, ff.CIm
	return func(zr, zi float64) int {
		iter := 0
		for iter < maxIter && zr*zr+zi*zi <= escapeRadius2 {
			pr, pi := pow(zr, zi)
			if neg {
				pr, pi = -pr, -pi
			}
			zr, zi = pr+cr, pi+ci
			iter++
		}
		return iter
	}
}

func genericEscape(p *expr.Program, maxIter int) escapeFunc {
	return func(zr, zi float64) int {
		z := complex(zr, zi)
		iter := 0
		for iter < maxIter && AbsSquared(z) <= escapeRadius2 {
			z = p.Eval(z)
			iter++
		}
		return iter
	}
}

// AbsSquared is |z|^2. A real value is a complex one with zero imaginary part.
func AbsSquared(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}

// palette returns the cached palette, rebuilding it when the name or the
// iteration count changed.
func (r *Renderer) palette(name string, maxIter int) palette.Palette {
	if r.pal == nil || r.palName != name || r.palIters != maxIter {
		julia.Logger().Debug("render: building palette", "name", name, "maxIter", maxIter)
		r.pal = palette.Generate(name, maxIter)
		r.palName, r.palIters = name, maxIter
	}
	return r.pal
}

// program returns the compiled equation for src, compiling only when src
// differs from the last call. Failures are cached too.
func (r *Renderer) program(src string) (*expr.Program, error) {
	if r.progSrc != src || (r.prog == nil && r.progErr == nil) {
		r.prog, r.progErr = expr.Compile(src)
		r.progSrc = src
	}
	return r.prog, r.progErr
}

func fill(pix []byte, c color.RGBA) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// Orbit returns z0 followed by up to n iterates of step, stopping after
// the first iterate that escapes.
func Orbit(step func(complex128) complex128, z0 complex128, n int) []complex128 {
	out := []complex128{z0}
	z := z0
	for range n {
		if !(AbsSquared(z) <= escapeRadius2) {
			break
		}
		z = step(z)
		out = append(out, z)
	}
	return out
}
