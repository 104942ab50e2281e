// Package kepler implements the Keplerian element kernels shared by
// the rest of the campaign simulator: the mean/true anomaly solve,
// the perifocal-to-ECI Cartesian transform, and the J2 secular
// propagation. None of these allocate on the hot path beyond the
// small fixed-size matrices gonum needs to do the rotation.
package kepler

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// anomalyIterations is the fixed number of Newton iterations used to
// solve Kepler's equation. Empirically sufficient for e < ~0.3;
// catalog.Filter only rejects e outside (0, 1), so larger
// eccentricities below 1 are solved with the same five iterations.
const anomalyIterations = 5

// Elements holds the seven Keplerian elements of a single orbiting
// body, angles in radians and A in metres.
//
// Nu is only ever valid as SolveAnomaly(E, M); any caller that
// mutates E or M directly must call Resolve before the state is used
// again (e.g. before the next ToCartesian or Update).
type Elements struct {
	A, E, I, RAAN, ArgPeri, M, Nu float64
}

// Resolve re-derives Nu from the current E and M. Update calls this
// internally; direct mutators of E or M must call it themselves.
func (el *Elements) Resolve() {
	el.Nu = SolveAnomaly(el.E, el.M)
}

// Periapsis returns the periapsis radius.
func (el Elements) Periapsis() float64 {
	return el.A * (1 - el.E)
}

// Apoapsis returns the apoapsis radius.
func (el Elements) Apoapsis() float64 {
	return el.A * (1 + el.E)
}

// Valid reports whether the element set is still a physically bound,
// usable orbit: elliptical (0 <= e < 1) with a positive, non-NaN
// semi-major axis.
func (el Elements) Valid() bool {
	return el.E >= 0 && el.E < 1 && !math.IsNaN(el.A) && !math.IsNaN(el.E) && el.A > 0
}

// SolveAnomaly solves Kepler's equation E - e sin E = M for the
// eccentric anomaly via five fixed Newton iterations starting at
// E = 0, then returns the corresponding true anomaly. Behavior is
// undefined for e >= 1; callers must filter such objects upstream.
func SolveAnomaly(e, M float64) float64 {
	E := 0.0
	for i := 0; i < anomalyIterations; i++ {
		E -= (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
	}
	return 2 * math.Atan(math.Sqrt((1+e)/(1-e))*math.Tan(E/2))
}

// ToCartesian writes the ECI position (m) and velocity (m/s) of el
// into r and v, which must be length-3 slices supplied by the caller.
// No allocation beyond the fixed 3x3/3x1 gonum matrices happens here.
func ToCartesian(el Elements, mu float64, r, v []float64) {
	p := el.A * (1 - el.E*el.E)
	sinNu, cosNu := math.Sincos(el.Nu)
	rNorm := p / (1 + el.E*cosNu)
	h := math.Sqrt(mu * p)

	rPQW := mat.NewVecDense(3, []float64{rNorm * cosNu, rNorm * sinNu, 0})
	vPQW := mat.NewVecDense(3, []float64{-(mu / h) * sinNu, (mu / h) * (el.E + cosNu), 0})

	rot := pqw2eci(el.I, el.ArgPeri, el.RAAN)
	var rECI, vECI mat.VecDense
	rECI.MulVec(rot, rPQW)
	vECI.MulVec(rot, vPQW)

	r[0], r[1], r[2] = rECI.AtVec(0), rECI.AtVec(1), rECI.AtVec(2)
	v[0], v[1], v[2] = vECI.AtVec(0), vECI.AtVec(1), vECI.AtVec(2)
}

// Update applies the J2 secular drift to el in place, advancing it
// from tRef to t. a, e and i are held constant: this is a
// secular-only model, short-periodic terms are deliberately omitted.
func Update(el *Elements, tRef, t, mu, earthRadius, j2 float64) {
	dt := t - tRef
	n := math.Sqrt(mu / (el.A * el.A * el.A))
	factor := n * earthRadius * earthRadius * j2 / (el.A * el.A * (1 - el.E*el.E) * (1 - el.E*el.E))
	sinI := math.Sin(el.I)

	el.RAAN -= 1.5 * factor * math.Cos(el.I) * dt
	el.ArgPeri += 0.75 * factor * (4 - 5*sinI*sinI) * dt
	el.M += n * dt
	el.Resolve()
}

// pqw2eci returns the rotation from the perifocal frame to ECI for
// the given inclination, argument of pericenter and RAAN, built as
// R3(-raan) * R1(-i) * R3(-argp), the standard 3-1-3 Euler sequence.
func pqw2eci(i, argp, raan float64) *mat.Dense {
	var partial, rot mat.Dense
	partial.Mul(r3(-raan), r1(-i))
	rot.Mul(&partial, r3(-argp))
	return &rot
}

func r1(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

func r3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}
