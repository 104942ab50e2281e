// Package impulse applies a finite delta-v to a Keplerian element set
// via stepped integration of the Gaussian variational equations,
// delivering a single impulsive laser shot as a sequence of
// fixed-size sub-steps.
package impulse

import (
	"math"

	"github.com/eliasboegel/ldr/kepler"
	"gonum.org/v1/gonum/mat"
)

// Apply mutates el as if a total delta-v of magnitude dv, pointed
// along the unit vector dir (ECI), were delivered impulsively. r and
// v are the current Cartesian position and velocity of the body the
// impulse is applied to, used only to build the RTO frame, never
// mutated. maxDV bounds each Gaussian-equation sub-step.
//
// The remaining delta-v counter is decremented by maxDV on every
// sub-step, including the last. Each sub-step is min(remaining,
// maxDV), so the final, shorter sub-step delivers exactly what is
// left and the sub-steps sum to dv.
//
// Nu is left stale after Apply returns: the caller must call
// el.Resolve() before the next propagation or predicate evaluation.
func Apply(el *kepler.Elements, r, v []float64, dir []float64, dv, maxDV, mu float64) {
	fR, fT, fO := rtoComponents(r, v, dir)

	remaining := dv
	for remaining > 0 {
		step := math.Min(remaining, maxDV)
		gaussianStep(el, fR, fT, fO, step, mu)
		remaining -= maxDV
	}
}

// rtoComponents projects dir into the radial/transverse/out-of-plane
// frame built from r and v: R = r/|r|, O = (R x v)/|R x v|, T = O x R.
func rtoComponents(r, v, dir []float64) (fR, fT, fO float64) {
	rVec := mat.NewVecDense(3, r)
	vVec := mat.NewVecDense(3, v)
	dVec := mat.NewVecDense(3, dir)

	rHat := unit(rVec)
	oHat := unit(crossVec(rHat, vVec))
	tHat := crossVec(oHat, rHat)

	fR = mat.Dot(dVec, rHat)
	fT = mat.Dot(dVec, tHat)
	fO = mat.Dot(dVec, oHat)
	return
}

// gaussianStep applies one Gaussian-variational-equation sub-step to
// el given the RTO-frame thrust components and a delta-v magnitude.
// The formulas are reproduced verbatim from the impulsive-Δv form of
// the Gauss planetary equations; ν is not recomputed here.
func gaussianStep(el *kepler.Elements, fR, fT, fO, dv, mu float64) {
	a, e, i, argp, nu := el.A, el.E, el.I, el.ArgPeri, el.Nu
	sinNu, cosNu := math.Sincos(nu)
	oneMinusE2 := 1 - e*e
	sqrtOneMinusE2 := math.Sqrt(oneMinusE2)
	sqrtAOverMu := math.Sqrt(a / mu)
	denom := 1 + e*cosNu
	n := math.Sqrt(mu / (a * a * a))

	da := (2 * a / sqrtOneMinusE2) * sqrtAOverMu * (e*sinNu*fR + denom*fT) * dv
	de := sqrtOneMinusE2 * sqrtAOverMu * (sinNu*fR + ((e+2*cosNu+e*cosNu*cosNu)/denom)*fT) * dv
	di := sqrtOneMinusE2 * sqrtAOverMu * math.Cos(argp+nu) / denom * fO * dv
	dRAAN := sqrtOneMinusE2 * sqrtAOverMu * math.Sin(argp+nu) / (denom * math.Sin(i)) * fO * dv
	dArgPeri := sqrtOneMinusE2*sqrtAOverMu/e*(-cosNu*fR+((2+e*cosNu)/denom)*sinNu*fT)*dv - math.Cos(i)*dRAAN
	// ΔM carries an additive n term: mean motion keeps advancing
	// during the impulse window.
	dM := n + (oneMinusE2/(n*a*e))*((cosNu-2*e/denom)*fR-((2+e*cosNu)/denom)*sinNu*fT)

	el.A += da
	el.E += de
	el.I += di
	el.RAAN += dRAAN
	el.ArgPeri += dArgPeri
	el.M += dM
}

func unit(a *mat.VecDense) *mat.VecDense {
	n := mat.Norm(a, 2)
	out := mat.NewVecDense(3, nil)
	if n < 1e-12 {
		return out
	}
	out.ScaleVec(1/n, a)
	return out
}

func crossVec(a, b *mat.VecDense) *mat.VecDense {
	return mat.NewVecDense(3, []float64{
		a.AtVec(1)*b.AtVec(2) - a.AtVec(2)*b.AtVec(1),
		a.AtVec(2)*b.AtVec(0) - a.AtVec(0)*b.AtVec(2),
		a.AtVec(0)*b.AtVec(1) - a.AtVec(1)*b.AtVec(0),
	})
}
