// Package bisect resolves the precise entry/exit time of a visibility
// window by re-propagating spacecraft and fragment from a cached
// reference epoch, avoiding the error accumulation an incremental
// propagation would introduce.
package bisect

import (
	"github.com/eliasboegel/ldr/kepler"
	"github.com/eliasboegel/ldr/visibility"
)

// Propagate produces the Cartesian state of a body at time t, given
// its Keplerian elements as they stood at tRef. Implementations must
// not mutate the elements passed by reference elsewhere; sim supplies
// a fresh copy per evaluation (see sim.bisectPropagate).
type Propagate func(elAtRef kepler.Elements, tRef, t float64) visibility.State

// Predicate evaluates the composite visibility predicate for a pair
// of already-propagated Cartesian states.
type Predicate func(sc, frag visibility.State) bool

// FindTransition finds the time within [tLeft, tRight] at which pred
// transitions between its values at the two endpoints, to within tol
// seconds. Exactly one of tLeft, tRight must equal tRef.
//
// If the predicate agrees at both endpoints, the transition (if any)
// is narrower than the bracket and is discarded conservatively: the
// outer endpoint (the one that is not tRef) is returned unchanged.
// Otherwise classic bisection narrows the bracket until it is within
// tol, and the final midpoint is returned.
func FindTransition(scElAtRef, fragElAtRef kepler.Elements, propSC, propFrag Propagate, pred Predicate, tRef, tLeft, tRight, tol float64) float64 {
	evalAt := func(t float64) bool {
		sc := propSC(scElAtRef, tRef, t)
		frag := propFrag(fragElAtRef, tRef, t)
		return pred(sc, frag)
	}

	leftVal := evalAt(tLeft)
	rightVal := evalAt(tRight)

	if leftVal == rightVal {
		if tLeft == tRef {
			return tRight
		}
		return tLeft
	}

	for tRight-tLeft > tol {
		mid := 0.5 * (tLeft + tRight)
		midVal := evalAt(mid)
		if midVal == leftVal {
			tLeft = mid
		} else {
			tRight = mid
		}
	}
	return 0.5 * (tLeft + tRight)
}
