// Package palette builds the iteration-count to color lookup tables.
//
// A palette for maxIter iterations has maxIter+1 entries. Entry i colors
// a point that escaped after i iterations; entry maxIter is the interior
// color for points that never escaped.
package palette

import (
	"image/color"
	"math"
)

// Palette maps an iteration count to a color.
type Palette []color.RGBA

// Default is used for unknown palette names.
const Default = "original"

type curve func(iter, maxIter int) (r, g, b float64)

type entry struct {
	name    string
	display string
	curve   curve
}

// sqrtT is the normalized iteration with extra resolution at low counts.
func sqrtT(iter, maxIter int) float64 { return math.Sqrt(float64(iter) / float64(maxIter)) }

// logT spreads the ramp logarithmically over [0,1].
func logT(iter, maxIter int) float64 {
	return math.Log(float64(iter)+1) / math.Log(float64(maxIter)+1)
}

var palettes = []entry{
	{Default, "Original", func(iter, maxIter int) (float64, float64, float64) {
		t := logT(iter, maxIter)
		s := float64(iter) / float64(maxIter)
		return 9 * (1 - t) * t * t * t * 255,
			15 * (1 - s) * (1 - s) * s * s * 255,
			8.5 * (1 - t) * (1 - t) * (1 - t) * s * 255
	}},
	{"vibrant", "Vibrant", func(iter, maxIter int) (float64, float64, float64) {
		t := logT(iter, maxIter)
		return (math.Sin(t*6.28*3)*0.5 + 0.5) * 255,
			(math.Sin(t*6.28*3+2.09)*0.5 + 0.5) * 255,
			(math.Sin(t*6.28*3+4.19)*0.5 + 0.5) * 255
	}},
	{"cool", "Cool", func(iter, maxIter int) (float64, float64, float64) {
		t := sqrtT(iter, maxIter)
		return t * 80, t*180 + 75, (1 - t*0.3) * 255
	}},
	{"warm", "Warm", func(iter, maxIter int) (float64, float64, float64) {
		t := sqrtT(iter, maxIter)
		return 255 - t*60, t*180 + 40, t * 120
	}},
	{"dark", "Dark", func(iter, maxIter int) (float64, float64, float64) {
		s := math.Pow(float64(iter)/float64(maxIter), 0.7)
		return s * 180, math.Pow(s, 1.5) * 220, math.Sqrt(s) * 240
	}},
	{"sunset", "Sunset", func(iter, maxIter int) (float64, float64, float64) {
		t := sqrtT(iter, maxIter)
		return 255 - t*20, 140 - t*80, 80 * math.Sin(t*3.14)
	}},
	{"ocean", "Ocean", func(iter, maxIter int) (float64, float64, float64) {
		t := sqrtT(iter, maxIter)
		return 20 + t*80, 80 + t*175, 180 + t*75
	}},
	{"fire", "Fire", func(iter, maxIter int) (float64, float64, float64) {
		t := sqrtT(iter, maxIter)
		return 255 - t*50, t*200 + 55, t * t * 180
	}},
}

func lookup(name string) entry {
	for _, p := range palettes {
		if p.name == name {
			return p
		}
	}
	return palettes[0]
}

// Generate returns the maxIter+1 entry ramp for the named palette.
// Unknown names fall back to Default; maxIter below 1 is treated as 1.
func Generate(name string, maxIter int) Palette {
	maxIter = max(1, maxIter)
	c := lookup(name).curve
	out := make(Palette, maxIter+1)
	for iter := range out {
		r, g, b := c(iter, maxIter)
		out[iter] = color.RGBA{R: channel(r), G: channel(g), B: channel(b), A: 255}
	}
	return out
}

// channel floors v and clamps it into a byte. NaN maps to 0.
func channel(v float64) uint8 {
	v = math.Floor(v)
	switch {
	case !(v > 0):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// Known reports whether name is a defined palette.
func Known(name string) bool {
	for _, p := range palettes {
		if p.name == name {
			return true
		}
	}
	return false
}

// Names lists the palette names, Default first.
func Names() []string {
	out := make([]string, len(palettes))
	for i, p := range palettes {
		out[i] = p.name
	}
	return out
}

// DisplayName returns a human readable label for name.
func DisplayName(name string) string {
	return lookup(name).display
}
