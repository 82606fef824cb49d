package julia

import "errors"

// ErrUnknownPreset is returned when a preset name is not in the catalog.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named starting point: an equation and the region to show it in.
type Preset struct {
	Name             string
	Equation         string
	Viewport         Viewport
	MaxIterations    int
	ResolutionFactor int
}

// Classic Julia sets. Most are z^2+c for a well known c.
var presets = []Preset{
	// Classic Dragon: the canonical dendrite-and-spiral set used as the default example
	{
		Name:             "Classic Dragon",
		Equation:         "z^2-0.7269+0.1889i",
		Viewport:         Viewport{MinX: -0.8, MaxX: 0.8, MinY: -0.8, MaxY: 0.8},
		MaxIterations:    256,
		ResolutionFactor: 2,
	},
	// Spiral Galaxy: long arms winding around a sparse core
	{
		Name:             "Spiral Galaxy",
		Equation:         "z^2-0.162+1.04i",
		Viewport:         Viewport{MinX: -0.8, MaxX: 0.8, MinY: -0.8, MaxY: 0.8},
		MaxIterations:    256,
		ResolutionFactor: 2,
	},
	// Ice Crystal: thin branching filaments
	{
		Name:             "Ice Crystal",
		Equation:         "z^2-0.8+0.156i",
		Viewport:         Viewport{MinX: -1.5, MaxX: 1.5, MinY: -1.5, MaxY: 1.5},
		MaxIterations:    256,
		ResolutionFactor: 2,
	},
	// Twin Spiral: Douady's rabbit neighbourhood with paired spirals
	{
		Name:             "Twin Spiral",
		Equation:         "z^2-0.123+0.745i",
		Viewport:         Viewport{MinX: -0.8, MaxX: 0.8, MinY: -0.8, MaxY: 0.8},
		MaxIterations:    256,
		ResolutionFactor: 2,
	},
	// Seahorse Valley: c taken from the seahorse valley of the Mandelbrot set
	{
		Name:             "Seahorse Valley",
		Equation:         "z^2-0.7435+0.13i",
		Viewport:         Viewport{MinX: -0.748, MaxX: -0.735, MinY: 0.098, MaxY: 0.111},
		MaxIterations:    256,
		ResolutionFactor: 2,
	},
	// Mandelbrot Zoom: real c, a connected set symmetric on both axes
	{
		Name:             "Mandelbrot Zoom",
		Equation:         "z^2-0.7",
		Viewport:         Viewport{MinX: -3, MaxX: 3, MinY: -3, MaxY: 3},
		MaxIterations:    250,
		ResolutionFactor: 2,
	},
	// Purple Nebula: dust-like set just outside the main cardioid
	{
		Name:             "Purple Nebula",
		Equation:         "z^2+0.355+0.355i",
		Viewport:         Viewport{MinX: -2, MaxX: 2, MinY: -2, MaxY: 2},
		MaxIterations:    250,
		ResolutionFactor: 2,
	},
	// Phoenix Flame: cubic recurrence with threefold symmetry
	{
		Name:             "Phoenix Flame",
		Equation:         "z^3-0.5+0.5i",
		Viewport:         Viewport{MinX: -1.5, MaxX: 1.5, MinY: -1.5, MaxY: 1.5},
		MaxIterations:    256,
		ResolutionFactor: 2,
	},
	// Electric Tentacles: c near the boundary between the cardioid and the period-2 bulb
	{
		Name:             "Electric Tentacles",
		Equation:         "z^2-0.75+0.25i",
		Viewport:         Viewport{MinX: -1.5, MaxX: 1.5, MinY: -1.5, MaxY: 1.5},
		MaxIterations:    256,
		ResolutionFactor: 2,
	},
	// Kaleidoscope: the constant is written as one parenthesized complex term
	{
		Name:             "Kaleidoscope",
		Equation:         "z^2+(-0.7+0.27015i)",
		Viewport:         Viewport{MinX: -0.8, MaxX: 0.8, MinY: -0.8, MaxY: 0.8},
		MaxIterations:    256,
		ResolutionFactor: 2,
	},
}

// Presets returns a copy of the catalog in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetNames lists preset names in display order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
	}
	return names
}

// PresetByName looks up a preset by its exact name.
func PresetByName(name string) (Preset, error) {
	for _, p := range presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, ErrUnknownPreset
}
