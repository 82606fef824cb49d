package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"math"
	"math/cmplx"
	"testing"

	julia "github.com/Wartets/Julia-Set"
	"github.com/Wartets/Julia-Set/equation"
	"github.com/Wartets/Julia-Set/expr"
	"github.com/Wartets/Julia-Set/palette"
)

func pixel(res julia.RenderResult, x, y int) [4]byte {
	o := 4 * (y*res.Width + x)
	return [4]byte{res.Pix[o], res.Pix[o+1], res.Pix[o+2], res.Pix[o+3]}
}

func entry(pal palette.Palette, i int) [4]byte {
	c := pal[i]
	return [4]byte{c.R, c.G, c.B, c.A}
}

func TestClassicDragonCenter(t *testing.T) {
	const src = "z^2-0.7269+0.1889i"
	ff := equation.AnalyzeSource(src)
	want := julia.FastForm{Power: 2, Coeff: 1, CRe: -0.7269, CIm: 0.1889}
	if ff == nil || *ff != want {
		t.Fatalf("AnalyzeSource = %v, want %+v", ff, want)
	}

	req := julia.RenderRequest{
		ID:               7,
		Width:            100,
		Height:           100,
		Viewport:         julia.Viewport{MinX: -0.8, MaxX: 0.8, MinY: -0.8, MaxY: 0.8},
		MaxIterations:    256,
		ResolutionFactor: 1,
		EquationSource:   src,
		FastForm:         ff,
		PaletteName:      "original",
	}
	var r Renderer
	res := r.Evaluate(req)
	if res.ID != 7 || res.Width != 100 || res.Height != 100 || len(res.Pix) != 4*100*100 {
		t.Fatalf("result header = %d %dx%d len %d", res.ID, res.Width, res.Height, len(res.Pix))
	}

	// Simulate the center pixel by hand.
	step := 1.6 / 100
	z := complex(-0.8+50*step, -0.8+50*step)
	c := complex(-0.7269, 0.1889)
	iter := 0
	for iter < 256 && real(z)*real(z)+imag(z)*imag(z) <= 4 {
		z = z*z + c
		iter++
	}
	pal := palette.Generate("original", 256)
	if got, want := pixel(res, 50, 50), entry(pal, iter); got != want {
		t.Errorf("pixel(50,50) = %v, want palette[%d] = %v", got, iter, want)
	}

	// Same outcome through the generic path.
	req.FastForm = nil
	generic := r.Evaluate(req)
	if got, want := pixel(generic, 50, 50), entry(pal, iter); got != want {
		t.Errorf("generic pixel(50,50) = %v, want palette[%d] = %v", got, iter, want)
	}
}

func TestPowerTable(t *testing.T) {
	z := complex(0.7, -1.1)
	for k := 2; k <= 8; k++ {
		want := z
		for range k - 1 {
			want *= z
		}
		pr, pi := powers[k](real(z), imag(z))
		if cmplx.Abs(complex(pr, pi)-want) > 1e-12*cmplx.Abs(want) {
			t.Errorf("powers[%d](%v) = %v, want %v", k, z, complex(pr, pi), want)
		}
	}
}

func TestFastMatchesGenericOrbit(t *testing.T) {
	cs := []complex128{complex(-0.7269, 0.1889), complex(0.285, 0.01), complex(-0.5, 0.5), complex(0, -0.8)}
	seeds := []complex128{0, complex(0.1, 0.2), complex(-0.6, 0.35), complex(0.9, -0.4), complex(1.3, 1.1)}
	for _, k := range []int{2, 3, 4, 5} {
		for _, coeff := range []int{1, -1} {
			for _, c := range cs {
				ff := julia.FastForm{Power: k, Coeff: coeff, CRe: real(c), CIm: imag(c)}
				prog := compileEquivalent(t, ff)
				for _, z0 := range seeds {
					fast := Orbit(FastStep(ff), z0, 6)
					generic := Orbit(prog.Eval, z0, 6)
					if len(fast) != len(generic) {
						t.Errorf("%s at %v: orbit lengths %d vs %d", prog.Source(), z0, len(fast), len(generic))
						continue
					}
					for i := range fast {
						d := cmplx.Abs(fast[i] - generic[i])
						if d > 1e-6*math.Max(1, cmplx.Abs(generic[i])) {
							t.Errorf("%s at %v: step %d fast %v generic %v", prog.Source(), z0, i, fast[i], generic[i])
							break
						}
					}
				}
			}
		}
	}
}

func compileEquivalent(t *testing.T, ff julia.FastForm) *expr.Program {
	t.Helper()
	sign := ""
	if ff.Coeff < 0 {
		sign = "-"
	}
	src := sign + "z^" + itoa(ff.Power) + " + (" + ftoa(ff.CRe) + ") + (" + ftoa(ff.CIm) + ")i"
	p, err := expr.Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	got := equation.Analyze(p.Tree())
	if got == nil || *got != ff {
		t.Fatalf("Analyze(%q) = %v, want %+v", src, got, ff)
	}
	return p
}

func TestFastMatchesGenericFrame(t *testing.T) {
	for _, src := range []string{"z^2-0.7269+0.1889i", "z^3-0.5+0.5i", "-z^2+0.285+0.01i"} {
		req := julia.RenderRequest{
			Width: 48, Height: 48, ResolutionFactor: 1, MaxIterations: 64,
			Viewport:       julia.Viewport{MinX: -1.5, MaxX: 1.5, MinY: -1.5, MaxY: 1.5},
			EquationSource: src,
			FastForm:       equation.AnalyzeSource(src),
		}
		if req.FastForm == nil {
			t.Fatalf("%q did not match the fast form", src)
		}
		var r Renderer
		fast := r.Evaluate(req)
		req.FastForm = nil
		generic := r.Evaluate(req)

		diff := 0
		for i := 0; i < len(fast.Pix); i += 4 {
			if !bytes.Equal(fast.Pix[i:i+4], generic.Pix[i:i+4]) {
				diff++
			}
		}
		// Boundary pixels may flip by one iteration after rounding.
		if diff > len(fast.Pix)/4/100 {
			t.Errorf("%q: %d of %d pixels differ between paths", src, diff, len(fast.Pix)/4)
		}
	}
}

func TestGrayFrameOnBadEquation(t *testing.T) {
	var r Renderer
	for _, src := range []string{"(z^2", "z^2 + w", ""} {
		res := r.Evaluate(julia.RenderRequest{
			Width: 10, Height: 6, ResolutionFactor: 1, MaxIterations: 20,
			Viewport:       julia.Viewport{MinX: -1, MaxX: 1, MinY: -1, MaxY: 1},
			EquationSource: src,
		})
		if len(res.Pix) != 4*10*6 {
			t.Fatalf("%q: len(Pix) = %d", src, len(res.Pix))
		}
		want := [4]byte{Gray.R, Gray.G, Gray.B, Gray.A}
		for y := range res.Height {
			for x := range res.Width {
				if got := pixel(res, x, y); got != want {
					t.Fatalf("%q: pixel(%d,%d) = %v, want gray", src, x, y, got)
				}
			}
		}
	}
}

func TestNonFiniteEscapes(t *testing.T) {
	vp := julia.Viewport{MinX: -1, MaxX: 1, MinY: -1, MaxY: 1}
	pal := palette.Generate("fire", 30)
	want := entry(pal, 1)

	reqs := []julia.RenderRequest{
		{EquationSource: "1/(z-z)"},
		{EquationSource: "1e308*1e308 + z"},
		{FastForm: &julia.FastForm{Power: 2, Coeff: 1, CRe: math.Inf(1)}},
		{FastForm: &julia.FastForm{Power: 3, Coeff: -1, CIm: math.NaN()}},
	}
	var r Renderer
	for i, req := range reqs {
		req.Width, req.Height, req.ResolutionFactor = 8, 8, 1
		req.MaxIterations, req.PaletteName, req.Viewport = 30, "fire", vp
		res := r.Evaluate(req)
		for y := range res.Height {
			for x := range res.Width {
				if got := pixel(res, x, y); got != want {
					t.Fatalf("request %d: pixel(%d,%d) = %v, want palette[1] %v", i, x, y, got, want)
				}
			}
		}
	}
}

func TestRasterSize(t *testing.T) {
	tests := []struct {
		w, h, factor int
		wantW, wantH int
	}{
		{100, 50, 1, 100, 50},
		{101, 50, 4, 25, 12},
		{3, 3, 4, 1, 1},
		{10, 10, 0, 10, 10},
	}
	var r Renderer
	for _, tt := range tests {
		res := r.Evaluate(julia.RenderRequest{
			Width: tt.w, Height: tt.h, ResolutionFactor: tt.factor, MaxIterations: 4,
			Viewport: julia.Viewport{MinX: -1, MaxX: 1, MinY: -1, MaxY: 1},
			FastForm: &julia.FastForm{Power: 2, Coeff: 1},
		})
		if res.Width != tt.wantW || res.Height != tt.wantH || len(res.Pix) != 4*tt.wantW*tt.wantH {
			t.Errorf("%dx%d /%d: got %dx%d (len %d), want %dx%d",
				tt.w, tt.h, tt.factor, res.Width, res.Height, len(res.Pix), tt.wantW, tt.wantH)
		}
	}
}

func TestTilingDoesNotChangeOutput(t *testing.T) {
	req := julia.RenderRequest{
		Width: 90, Height: 70, ResolutionFactor: 1, MaxIterations: 100,
		Viewport:       julia.Viewport{MinX: -1.6, MaxX: 1.6, MinY: -1.2, MaxY: 1.2},
		EquationSource: "z^2-0.8+0.156i",
		FastForm:       equation.AnalyzeSource("z^2-0.8+0.156i"),
		PaletteName:    "ocean",
	}
	single := (&Renderer{Workers: 1, TileSize: 1000}).Evaluate(req)

	var tiles int
	r := &Renderer{Workers: 1, TileSize: 7, OnTileRender: func(image.Rectangle) { tiles++ }}
	multi := r.Evaluate(req)
	if !bytes.Equal(single.Pix, multi.Pix) {
		t.Error("tiled render differs from single-tile render")
	}
	if want := 13 * 10; tiles != want {
		t.Errorf("tiles = %d, want %d", tiles, want)
	}

	parallel := (&Renderer{Workers: 8, TileSize: 16}).Evaluate(req)
	if !bytes.Equal(single.Pix, parallel.Pix) {
		t.Error("parallel render differs from single-tile render")
	}
}

func TestCaches(t *testing.T) {
	var r Renderer
	p1, err := r.program("z^2+sin(z)")
	if err != nil {
		t.Fatal(err)
	}
	p2, _ := r.program("z^2+sin(z)")
	if p1 != p2 {
		t.Error("same source recompiled")
	}
	p3, _ := r.program("z^3+sin(z)")
	if p3 == p1 {
		t.Error("new source reused old program")
	}

	a := r.palette("cool", 50)
	b := r.palette("cool", 50)
	if &a[0] != &b[0] {
		t.Error("palette rebuilt for identical parameters")
	}
	if c := r.palette("cool", 51); len(c) != 52 {
		t.Errorf("palette len = %d after maxIter change, want 52", len(c))
	}
	if c := r.palette("warm", 51); &c[0] == &a[0] {
		t.Error("palette not rebuilt after name change")
	}
}

func TestUnsupportedFastFormFallsBack(t *testing.T) {
	req := julia.RenderRequest{
		Width: 16, Height: 16, ResolutionFactor: 1, MaxIterations: 40,
		Viewport:       julia.Viewport{MinX: -1, MaxX: 1, MinY: -1, MaxY: 1},
		EquationSource: "z^9 - 0.1",
	}
	var r Renderer
	want := r.Evaluate(req)
	req.FastForm = &julia.FastForm{Power: 9, Coeff: 1, CRe: -0.1}
	got := r.Evaluate(req)
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Error("unsupported fast form did not fall back to the generic path")
	}
}

func TestRenderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var r Renderer
	_, err := r.Render(ctx, julia.RenderRequest{Width: 10, Height: 10, EquationSource: "z^2"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSplitRect(t *testing.T) {
	r := image.Rect(0, 0, 130, 65)
	tiles := splitRect(r, 64, 64)
	if len(tiles) != 6 {
		t.Fatalf("len(tiles) = %d, want 6", len(tiles))
	}
	covered := make(map[image.Point]int)
	for _, tile := range tiles {
		for y := tile.Min.Y; y < tile.Max.Y; y++ {
			for x := tile.Min.X; x < tile.Max.X; x++ {
				covered[image.Pt(x, y)]++
			}
		}
	}
	if len(covered) != 130*65 {
		t.Errorf("covered %d pixels, want %d", len(covered), 130*65)
	}
	for p, n := range covered {
		if n != 1 {
			t.Fatalf("pixel %v covered %d times", p, n)
		}
	}
}
