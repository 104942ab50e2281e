package sim

import (
	kitlog "github.com/go-kit/kit/log"

	"github.com/eliasboegel/ldr/bisect"
	"github.com/eliasboegel/ldr/impulse"
	"github.com/eliasboegel/ldr/kepler"
	"github.com/eliasboegel/ldr/visibility"
)

// Driver owns the fragment population, the spacecraft and the
// simulation clock, and runs the event-driven epoch loop. Callers
// build one with NewDriver and call Run once.
//
// Fragment state machine (only the driver transitions it):
//
//	ACTIVE -> (laser shot) -> SHOT,{REMOVED | ACTIVE-DEGRADED} -> (compacted)
//
// A shot fragment, whether or not the shot actually removed it, is
// retired from further propagation and targeting immediately: it sits
// in its last-known state until the next compaction pass drops it.
type Driver struct {
	Params Params
	Frags  *Fragments
	SC     *Spacecraft

	t, t0  float64
	logger kitlog.Logger

	epoch         int
	lastFilterPct int

	// removedTotal is the cumulative removal count across the whole
	// run. It must be tracked separately from Fragments.RemovedCount:
	// compaction drops shot (and therefore removed) entries, so a
	// recount over the live arrays would fall after every Compact.
	removedTotal int
}

// NewDriver builds a Driver starting at simulation time t0 with the
// given fragment population and spacecraft, already propagated to t0
// by the caller (see catalog.BuildInitialState).
func NewDriver(p Params, frags *Fragments, sc *Spacecraft, t0 float64, logger kitlog.Logger) *Driver {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Driver{Params: p, Frags: frags, SC: sc, t: t0, t0: t0, logger: logger}
}

// Run executes the epoch loop until the removal target or the time
// cap is reached, and returns the two output series: elapsed seconds
// since t0, and cumulative removed fraction, appended exactly once
// per epoch iteration.
func (d *Driver) Run() (elapsed, fraction []float64) {
	total := d.Frags.Len()
	if total == 0 {
		return elapsed, fraction
	}

	propagate := bisectPropagate(d.Params)
	vis := d.Params.visParams()
	predicate := func(sc, frag visibility.State) bool { return visibility.Composite(sc, frag, vis) }

	for {
		frac := float64(d.removedTotal) / float64(total)
		elapsed = append(elapsed, d.t-d.t0)
		fraction = append(fraction, frac)

		if frac >= d.Params.TargetFraction || d.t-d.t0 >= d.Params.TMax {
			d.logger.Log("level", "info", "subsys", "sim", "event", "terminate",
				"epoch", d.epoch, "t", d.t, "removed_fraction", frac)
			break
		}

		d.stepEpoch(propagate, predicate)
		d.maybeCompact(total)
		d.epoch++
	}
	return elapsed, fraction
}

// stepEpoch executes one iteration of the epoch loop: propagate,
// evaluate, scan, decide, advance.
func (d *Driver) stepEpoch(propagate bisect.Propagate, predicate bisect.Predicate) {
	dAdv := d.Params.ScanAblation()
	target := d.t + dAdv

	scElRef := d.SC.El
	newSCEl, scStateAtTarget := propagateOne(scElRef, d.t, target, d.Params)

	propagateFragmentsParallel(d.Frags, d.t, target, d.Params, scStateAtTarget)

	shotIdx := d.scanForShot(scElRef, d.t, dAdv, target, propagate, predicate)

	commitFragmentPropagation(d.Frags, shotIdx)
	d.SC.El = newSCEl
	d.SC.R, d.SC.V = scStateAtTarget.R, scStateAtTarget.V

	ev := scanOnly
	if shotIdx >= 0 {
		d.fire(shotIdx, target)
		ev = shotFired
	}
	d.advanceClock(ev, target)
}

// epochEvent enumerates the outcomes of an epoch's scan. The clock
// advance is event-driven, not a fixed tick: a shot costs a second
// dwell plus the laser cooldown on top of the scan interval.
type epochEvent int

const (
	scanOnly epochEvent = iota
	shotFired
)

func (d *Driver) advanceClock(ev epochEvent, target float64) {
	switch ev {
	case shotFired:
		cooled := target + d.Params.ScanAblation() + d.Params.CooldownTime
		d.advanceSilently(target, cooled)
		d.t = cooled
	default:
		d.t = target
	}
}

// scanForShot performs the strictly-ascending-index sequential scan
// for the first fragment whose visibility window covers the full
// scan+ablation dwell, returning its index, or -1 if none qualifies
// this epoch. At most one shot is ever returned.
func (d *Driver) scanForShot(scElRef kepler.Elements, tRef, dAdv, target float64, propagate bisect.Propagate, predicate bisect.Predicate) int {
	for idx := 0; idx < d.Frags.Len(); idx++ {
		if !d.Frags.active(idx) || !d.Frags.inView[idx] {
			continue
		}
		fragElRef := d.Frags.El[idx]

		tEntry := bisect.FindTransition(scElRef, fragElRef, propagate, propagate, predicate,
			tRef, tRef-dAdv, tRef, d.Params.BisectTol)
		tExit := bisect.FindTransition(scElRef, fragElRef, propagate, propagate, predicate,
			tRef, tRef, target, d.Params.BisectTol)

		duration := tExit - tEntry
		if duration >= dAdv {
			return idx
		}
	}
	return -1
}

// fire applies the laser impulse to fragment idx, whose scratch
// (nextEl/nextR/nextV) already holds its state at `target`, and marks
// it shot and (conditionally) removed.
func (d *Driver) fire(idx int, target float64) {
	el := d.Frags.nextEl[idx]
	r := d.Frags.nextR[idx]
	v := d.Frags.nextV[idx]

	dv := impulseDeltaV(d.Params, d.Frags.AreaToMass[idx])
	dir := negUnit(v)
	impulse.Apply(&el, vec3(r), vec3(v), dir, dv, d.Params.MaxDV, d.Params.Mu)
	el.Resolve()

	d.Frags.El[idx] = el
	d.Frags.Shot[idx] = true
	d.Frags.Removed[idx] = d.Params.removalAltitudeBreached(el)
	if d.Frags.Removed[idx] {
		d.removedTotal++
	}
	d.SC.LastPulseTime = d.t

	d.logger.Log("level", "info", "subsys", "sim", "event", "shot", "epoch", d.epoch,
		"t", d.t, "fragment", idx, "dv", dv, "removed", d.Frags.Removed[idx])
}

// advanceSilently propagates the spacecraft and every still-active
// fragment from `from` to `to` with no predicate evaluation, used for
// the cooldown interval following a shot.
func (d *Driver) advanceSilently(from, to float64) {
	newSCEl, scState := propagateOne(d.SC.El, from, to, d.Params)
	d.SC.El = newSCEl
	d.SC.R, d.SC.V = scState.R, scState.V

	propagateFragmentsParallel(d.Frags, from, to, d.Params, scState)
	commitFragmentPropagation(d.Frags, -1)
}

// maybeCompact triggers Fragments.Compact whenever the integer
// removal percentage crosses into a higher multiple of FilterPercent
// (truncated to an integer stride) than at the last compaction.
func (d *Driver) maybeCompact(total int) {
	pct := int(100 * float64(d.removedTotal) / float64(total))
	stride := int(d.Params.FilterPercent)
	if stride <= 0 {
		stride = 1
	}
	if pct/stride > d.lastFilterPct/stride {
		before := d.Frags.Len()
		after := d.Frags.Compact()
		d.lastFilterPct = pct
		d.logger.Log("level", "debug", "subsys", "sim", "event", "compact",
			"epoch", d.epoch, "before", before, "after", after)
	}
}
