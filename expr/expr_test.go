package expr

import (
	"errors"
	"math/cmplx"
	"testing"
)

func TestParseStructure(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"z^2+c", "z ^ 2 + c"},
		{"-z^2", "-z ^ 2"},
		{"0.5i", "0.5 i"},
		{"2(z+1)", "2 (z + 1)"},
		{"z^2^3", "z ^ 2 ^ 3"},
		{"pow(z, 3) - 1", "pow(z, 3) - 1"},
		{"1e-3 + 2e", "0.001 + 2 e"},
	}
	for _, tt := range tests {
		n, err := Parse(tt.src)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.src, err)
			continue
		}
		if got := n.String(); got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestParseUnaryBindsLooserThanPower(t *testing.T) {
	n, err := Parse("-z^2")
	if err != nil {
		t.Fatal(err)
	}
	op, ok := n.(*Operator)
	if !ok || !op.IsUnary() || op.Op != "-" {
		t.Fatalf("root = %#v, want unary minus", n)
	}
	if inner, ok := op.Args[0].(*Operator); !ok || !inner.IsBinary("^") {
		t.Fatalf("operand = %#v, want z^2", op.Args[0])
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"", "(z^2", "z^2)", "z^", "z**2", "pow(z,", "z $ 2", "3 +* 4"} {
		_, err := Parse(src)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("Parse(%q) err = %v, want *SyntaxError", src, err)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"z^2 + w", ErrUnknownSymbol},
		{"foo(z)", ErrUnknownFunction},
		{"pow(z)", ErrArity},
		{"sin(z, 2)", ErrArity},
	}
	for _, tt := range tests {
		if _, err := Compile(tt.src); !errors.Is(err, tt.want) {
			t.Errorf("Compile(%q) err = %v, want %v", tt.src, err, tt.want)
		}
	}
}

func TestEval(t *testing.T) {
	z := complex(0.3, -0.4)
	tests := []struct {
		src  string
		want complex128
	}{
		{"z", z},
		{"z^2", z * z},
		{"z*z*z", z * z * z},
		{"z^3 - 0.5 + 0.5i", z*z*z - 0.5 + 0.5i},
		{"-z^2 + 1", -(z * z) + 1},
		{"2z", 2 * z},
		{"z^-1", 1 / z},
		{"pow(z, 2)", z * z},
		{"sin(z) + cos(z)", cmplx.Sin(z) + cmplx.Cos(z)},
		{"exp(i*pi)", cmplx.Exp(1i * 3.141592653589793)},
		{"abs(z)", complex(0.5, 0)},
		{"conj(z)", cmplx.Conj(z)},
		{"z^0.5", cmplx.Pow(z, 0.5)},
		{"z^z", cmplx.Pow(z, z)},
		{"log(8, 2)", 3},
	}
	for _, tt := range tests {
		p, err := Compile(tt.src)
		if err != nil {
			t.Errorf("Compile(%q): %v", tt.src, err)
			continue
		}
		got := p.Eval(z)
		if cmplx.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%q at %v = %v, want %v", tt.src, z, got, tt.want)
		}
	}
}

func TestIntegerPowerMatchesMultiplication(t *testing.T) {
	z := complex(-1.25, 0.75)
	p, err := Compile("z^2")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.Eval(z), z*z; got != want {
		t.Errorf("z^2 = %v, want exactly %v", got, want)
	}
}

func TestEvalConst(t *testing.T) {
	n, err := Parse("-0.7+0.27015i")
	if err != nil {
		t.Fatal(err)
	}
	v, err := EvalConst(n)
	if err != nil {
		t.Fatal(err)
	}
	if v != complex(-0.7, 0.27015) {
		t.Errorf("EvalConst = %v", v)
	}

	n, err = Parse("2*z")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := EvalConst(n); !errors.Is(err, ErrNotConstant) {
		t.Errorf("EvalConst(2*z) err = %v, want ErrNotConstant", err)
	}
}

func TestCallEvalDoesNotAllocate(t *testing.T) {
	p, err := Compile("sin(z) + pow(z, 3) + log(z, 2)")
	if err != nil {
		t.Fatal(err)
	}
	z := complex(0.3, -0.4)
	if n := testing.AllocsPerRun(100, func() { p.Eval(z) }); n != 0 {
		t.Fatalf("Eval allocates %v times per call", n)
	}
}
