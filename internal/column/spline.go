// River splines — quadratic curves between chunk centers and nearest-point queries.
package column

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Spline is the quadratic curve B(t) = A·t² + B·t + C for t in [0,1].
type Spline struct {
	A, B, C mgl64.Vec2
}

// At evaluates the curve.
func (s Spline) At(t float64) mgl64.Vec2 {
	return s.A.Mul(t * t).Add(s.B.Mul(t)).Add(s.C)
}

// RiverSplineCoeffs builds the curve leaving chunkPos with tangent derivative
// and ending at downhillPos.
func RiverSplineCoeffs(chunkPos mgl64.Vec2, derivative mgl32.Vec2, downhillPos mgl64.Vec2) Spline {
	d := mgl64.Vec2{float64(derivative[0]), float64(derivative[1])}
	return Spline{
		A: downhillPos.Sub(chunkPos).Sub(d),
		B: d,
		C: chunkPos,
	}
}

// QuadraticNearestPoint returns the parameter, position and distance of the
// curve point closest to p. Interior stationary points of |B(t)-p|² are the
// real roots of a cubic; the endpoints are always considered so a result
// exists even when no root lies in [0,1].
func QuadraticNearestPoint(s Spline, p mgl64.Vec2) (float64, mgl64.Vec2, float64) {
	d := s.C.Sub(p)
	k3 := 2 * s.A.Dot(s.A)
	k2 := 3 * s.A.Dot(s.B)
	k1 := s.B.Dot(s.B) + 2*s.A.Dot(d)
	k0 := s.B.Dot(d)

	bestT := 0.0
	bestPt := s.At(0)
	bestSq := bestPt.Sub(p).Dot(bestPt.Sub(p))
	consider := func(t float64) {
		if !(t > 0 && t <= 1) {
			return
		}
		pt := s.At(t)
		if sq := pt.Sub(p).Dot(pt.Sub(p)); sq < bestSq {
			bestT, bestPt, bestSq = t, pt, sq
		}
	}
	for _, r := range solveCubic(k3, k2, k1, k0) {
		consider(r)
	}
	consider(1)
	return bestT, bestPt, math.Sqrt(bestSq)
}

const cubicEps = 1e-12

// solveCubic returns the real roots of a·t³ + b·t² + c·t + d, each polished
// with one Newton step. Degenerate leading coefficients fall back to the
// quadratic and linear cases; a vanishing discriminant is treated as a
// double root.
func solveCubic(a, b, c, d float64) []float64 {
	scale := math.Max(math.Max(math.Abs(a), math.Abs(b)), math.Max(math.Abs(c), math.Abs(d)))
	if scale == 0 {
		return nil
	}
	if math.Abs(a) <= cubicEps*scale {
		return solveQuadratic(b, c, d, scale)
	}

	bn, cn, dn := b/a, c/a, d/a
	p := cn - bn*bn/3
	q := 2*bn*bn*bn/27 - bn*cn/3 + dn
	shift := bn / 3
	disc := q*q/4 + p*p*p/27

	var roots []float64
	switch {
	case disc > cubicEps:
		sq := math.Sqrt(disc)
		roots = []float64{math.Cbrt(-q/2+sq) + math.Cbrt(-q/2-sq) - shift}
	case disc >= -cubicEps:
		u := math.Cbrt(-q / 2)
		roots = []float64{2*u - shift, -u - shift}
	default:
		r := math.Sqrt(-p / 3)
		phi := math.Acos(math.Max(-1, math.Min(1, -q/(2*r*r*r))))
		for k := 0; k < 3; k++ {
			roots = append(roots, 2*r*math.Cos((phi-2*math.Pi*float64(k))/3)-shift)
		}
	}

	for i, t := range roots {
		f := ((a*t+b)*t+c)*t + d
		df := (3*a*t+2*b)*t + c
		if df != 0 {
			if nt := t - f/df; !math.IsNaN(nt) && !math.IsInf(nt, 0) {
				roots[i] = nt
			}
		}
	}
	return roots
}

func solveQuadratic(a, b, c, scale float64) []float64 {
	if math.Abs(a) <= cubicEps*scale {
		if math.Abs(b) <= cubicEps*scale {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	return []float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)}
}
