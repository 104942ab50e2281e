package sim

import (
	"runtime"
	"sync"

	"github.com/eliasboegel/ldr/kepler"
	"github.com/eliasboegel/ldr/visibility"
)

// propagateOne advances a single body's elements from tRef to t and
// returns the updated elements alongside the resulting Cartesian
// state. Used for the spacecraft, and by the bisection sub-solver's
// per-candidate re-propagation.
func propagateOne(el kepler.Elements, tRef, t float64, p Params) (kepler.Elements, visibility.State) {
	el.Resolve()
	kepler.Update(&el, tRef, t, p.Mu, p.EarthRadius, p.J2)
	var r, v [3]float64
	kepler.ToCartesian(el, p.Mu, r[:], v[:])
	return el, visibility.State{R: r, V: v}
}

// bisectPropagate adapts propagateOne to the bisect.Propagate
// signature for a fixed Params.
func bisectPropagate(p Params) func(kepler.Elements, float64, float64) visibility.State {
	return func(el kepler.Elements, tRef, t float64) visibility.State {
		_, state := propagateOne(el, tRef, t, p)
		return state
	}
}

// propagateFragmentsParallel advances every active fragment's
// elements from tRef to target, computes its Cartesian state and the
// composite visibility predicate against scState, writing all three
// into the fragment's scratch slots. This phase is embarrassingly
// parallel: fragments are independent and each worker only ever
// touches its own contiguous index range, so no synchronisation is
// needed beyond the final join.
func propagateFragmentsParallel(f *Fragments, tRef, target float64, p Params, scState visibility.State) {
	n := f.Len()
	if n == 0 {
		return
	}
	numWorkers := runtime.NumCPU()
	if numWorkers > n {
		numWorkers = n
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	chunk := (n + numWorkers - 1) / numWorkers
	vis := p.visParams()

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				if !f.active(i) {
					continue
				}
				el, state := propagateOne(f.El[i], tRef, target, p)
				f.nextEl[i] = el
				f.nextR[i] = state.R
				f.nextV[i] = state.V
				f.inView[i] = visibility.Composite(scState, state, vis)
			}
		}(start, end)
	}
	wg.Wait()
}

// commitFragmentPropagation folds the scratch next-state produced by
// propagateFragmentsParallel back into the fragment's persistent
// elements for every active fragment except the shot candidate (whose
// caller applies the impulse before committing it separately).
func commitFragmentPropagation(f *Fragments, skip int) {
	for i := range f.El {
		if !f.active(i) || i == skip {
			continue
		}
		f.El[i] = f.nextEl[i]
	}
}
