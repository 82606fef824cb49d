package render

import julia "github.com/Wartets/Julia-Set"

// powFunc returns (zr + i*zi)^k for a fixed k.
type powFunc func(zr, zi float64) (float64, float64)

// powers is indexed by exponent. 2 to 4 are expanded by hand; the rest
// multiply repeatedly.
var powers = [...]powFunc{
	2: pow2,
	3: pow3,
	4: pow4,
	5: powLoop(5),
	6: powLoop(6),
	7: powLoop(7),
	8: powLoop(8),
}

func pow2(zr, zi float64) (float64, float64) {
	return zr*zr - zi*zi, 2 * zr * zi
}

func pow3(zr, zi float64) (float64, float64) {
	tr, ti := zr*zr-zi*zi, 2*zr*zi
	return tr*zr - ti*zi, tr*zi + ti*zr
}

func pow4(zr, zi float64) (float64, float64) {
	tr, ti := zr*zr-zi*zi, 2*zr*zi
	return tr*tr - ti*ti, 2 * tr * ti
}

func powLoop(k int) powFunc {
	return func(zr, zi float64) (float64, float64) {
		pr, pi := zr, zi
		for range k - 1 {
			pr, pi = pr*zr-pi*zi, pr*zi+pi*zr
		}
		return pr, pi
	}
}

// supported reports whether ff can run on the specialized path.
func supported(ff *julia.FastForm) bool {
	return ff != nil &&
		ff.Power >= 0 && ff.Power < len(powers) && powers[ff.Power] != nil &&
		(ff.Coeff == 1 || ff.Coeff == -1)
}

// FastStep returns one step of the fast recurrence as a complex function.
// ff must be supported.
func FastStep(ff julia.FastForm) func(complex128) complex128 {
	pow := powers[ff.Power]
	neg := ff.Coeff < 0
	return func(z complex128) complex128 {
		pr, pi := pow(real(z), imag(z))
		if neg {
			pr, pi = -pr, -pi
		}
		return complex(pr+ff.CRe, pi+ff.CIm)
	}
}
