package geom

import "math"

// Affine maps (x, y) to (A*x + C*y + E, B*x + D*y + F).
type Affine struct {
	A, B, C, D, E, F float64
}

func shift(dx, dy float64) Affine {
	return Affine{A: 1, D: 1, E: dx, F: dy}
}

func Scale(sx, sy float64) Affine {
	return Affine{A: sx, D: sy}
}

// RotateDegrees turns clockwise on screen, where y grows downwards.
func RotateDegrees(degrees float64) Affine {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	return Affine{A: cos, B: sin, C: -sin, D: cos}
}

// About makes m act around origin instead of (0,0).
func (m Affine) About(origin Point) Affine {
	return shift(-origin.X, -origin.Y).Then(m).Then(shift(origin.X, origin.Y))
}

// Then returns the transform that applies m and then n.
func (m Affine) Then(n Affine) Affine {
	return Affine{
		A: n.A*m.A + n.C*m.B,
		B: n.B*m.A + n.D*m.B,
		C: n.A*m.C + n.C*m.D,
		D: n.B*m.C + n.D*m.D,
		E: n.A*m.E + n.C*m.F + n.E,
		F: n.B*m.E + n.D*m.F + n.F,
	}
}

func (m Affine) Apply(p Point) Point {
	return Point{m.A*p.X + m.C*p.Y + m.E, m.B*p.X + m.D*p.Y + m.F}
}

// ApplyVector transforms an offset, ignoring translation.
func (m Affine) ApplyVector(v Point) Point {
	return Point{m.A*v.X + m.C*v.Y, m.B*v.X + m.D*v.Y}
}
