// Package visibility implements the three geometric predicates that
// gate a laser shot (range, incidence angle and field of view) and
// their logical-AND composite, evaluated on the spacecraft-to-debris
// line of sight.
package visibility

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// State is the Cartesian position/velocity of one body at a single
// instant, in ECI metres and metres/second.
type State struct {
	R, V [3]float64
}

// Params bundles the configured thresholds the three predicates test
// against.
type Params struct {
	RangeMax          float64 // m
	IncidenceAngleMax float64 // rad
	FoV               float64 // rad, full cone angle
	EarthRadius       float64 // m
	CollisionAltitude float64 // m
	OffsetAltitude    float64 // m
}

// Range reports whether the fragment is within slant range of the
// spacecraft.
func Range(sc, frag State, p Params) bool {
	return norm(sub(sc.R, frag.R)) < p.RangeMax
}

// Incidence reports whether the angle between the fragment's velocity
// and the fragment-to-spacecraft line of sight is below the
// configured maximum, enforcing near head-on illumination.
func Incidence(sc, frag State, p Params) bool {
	pVec := sub(sc.R, frag.R)
	denom := norm(frag.V) * norm(pVec)
	if scalar.EqualWithinAbs(denom, 0, 1e-12) {
		return false
	}
	cosTheta := dot(frag.V, pVec) / denom
	return math.Acos(clamp(cosTheta)) < p.IncidenceAngleMax
}

// FieldOfView reports whether the fragment falls within the laser's
// pointing cone. The nominal pointing direction is -v_sc rotated by
// acos((Re+hc)/(Re+hc+ho)) about (r_sc x -v_sc)/|...| via Rodrigues'
// formula.
func FieldOfView(sc, frag State, p Params) bool {
	negVsc := neg(sc.V)
	axis := unit(cross(sc.R, negVsc))
	theta := math.Acos(clamp((p.EarthRadius + p.CollisionAltitude) / (p.EarthRadius + p.CollisionAltitude + p.OffsetAltitude)))
	pointing := rodrigues(negVsc, axis, theta)

	negP := sub(frag.R, sc.R)
	denom := norm(pointing) * norm(negP)
	if scalar.EqualWithinAbs(denom, 0, 1e-12) {
		return false
	}
	cosTheta := dot(pointing, negP) / denom
	return math.Acos(clamp(cosTheta)) < p.FoV/2
}

// Composite is the logical AND of Range, Incidence and FieldOfView.
func Composite(sc, frag State, p Params) bool {
	return Range(sc, frag, p) && Incidence(sc, frag, p) && FieldOfView(sc, frag, p)
}

// rodrigues rotates vector v about unit axis k by angle theta.
func rodrigues(v, k [3]float64, theta float64) [3]float64 {
	sinT, cosT := math.Sincos(theta)
	kxv := cross(k, v)
	kdv := dot(k, v)
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = v[i]*cosT + kxv[i]*sinT + k[i]*kdv*(1-cosT)
	}
	return out
}

func clamp(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

func sub(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func neg(a [3]float64) [3]float64    { return [3]float64{-a[0], -a[1], -a[2]} }

func norm(a [3]float64) float64 {
	return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
}

func unit(a [3]float64) [3]float64 {
	n := norm(a)
	if scalar.EqualWithinAbs(n, 0, 1e-12) {
		return [3]float64{0, 0, 0}
	}
	return [3]float64{a[0] / n, a[1] / n, a[2] / n}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
