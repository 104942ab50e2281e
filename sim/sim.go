// Package sim implements the simulation driver: the outer epoch loop
// that propagates spacecraft and fragment population, resolves
// visibility, decides on a laser shot, applies the impulse and
// advances the event-driven clock. The driver owns all per-fragment
// arrays; the kernels it calls (kepler, impulse, visibility, bisect)
// allocate at most small fixed-size gonum vectors and matrices on their
// hot path and never mutate state the driver did not hand them
// directly.
package sim

import (
	"math"

	"github.com/eliasboegel/ldr/kepler"
	"github.com/eliasboegel/ldr/visibility"
)

// Params bundles every physical and numerical parameter the driver
// needs, corresponding one-for-one with the campaign's configuration
// options except t0, d_n and fragment_tag, which the catalog/campaign
// layer above sim consumes.
type Params struct {
	EarthRadius float64 // R_e, m
	J2          float64
	Mu          float64 // m^3/s^2

	CollisionAltitude float64 // h_collision, m
	OffsetAltitude    float64 // h_offset, m

	TargetFraction float64 // 0..1
	MaxDV          float64 // impulse sub-step, m/s

	FoV               float64 // full cone angle, rad
	RangeMax          float64 // m
	IncidenceAngleMax float64 // rad

	AblationTime float64 // s
	ScanTime     float64 // s
	CooldownTime float64 // s

	Fluence float64 // J/m^2
	Cm      float64 // N.s/J
	Freq    float64 // Hz

	MinPerigee float64 // m, altitude above R_e
	TMax       float64 // s
	BisectTol  float64 // s

	FilterPercent float64 // integer removal-percentage compaction stride, e.g. 1
}

// ScanAblation returns the combined scan+ablation dwell time, the
// natural epoch step size when no shot fires.
func (p Params) ScanAblation() float64 {
	return p.ScanTime + p.AblationTime
}

func (p Params) visParams() visibility.Params {
	return visibility.Params{
		RangeMax:          p.RangeMax,
		IncidenceAngleMax: p.IncidenceAngleMax,
		FoV:               p.FoV,
		EarthRadius:       p.EarthRadius,
		CollisionAltitude: p.CollisionAltitude,
		OffsetAltitude:    p.OffsetAltitude,
	}
}

// removalAltitudeBreached reports whether an orbit with the given
// elements has decayed (or been driven degenerate) far enough to
// count as removed: perigee or apogee below R_e+MinPerigee, or the
// orbit no longer bound.
func (p Params) removalAltitudeBreached(el kepler.Elements) bool {
	if !el.Valid() {
		return true
	}
	minRadius := p.EarthRadius + p.MinPerigee
	return el.Periapsis() < minRadius || el.Apoapsis() < minRadius
}

// Fragment is one fragment's initial record, built by callers outside
// the package (e.g. catalog construction) and copied into a Fragments
// population by NewFragments; the driver itself
// only ever touches the struct-of-arrays Fragments type below.
type Fragment struct {
	El         kepler.Elements
	Mass       float64
	AreaToMass float64
}

// Fragments is the struct-of-arrays fragment population, indexed by
// fragment index throughout the driver, catalog and campaign
// packages. All slices are preallocated to the same length and never
// grown; compaction rewrites them in place.
type Fragments struct {
	El         []kepler.Elements
	Mass       []float64
	AreaToMass []float64
	Shot       []bool
	Removed    []bool

	// Scratch space for the current epoch's propagation, filled by
	// propagateFragmentsParallel and consumed by the sequential scan
	// before being folded back into El. Never read across epochs.
	nextEl []kepler.Elements
	nextR  [][3]float64
	nextV  [][3]float64
	inView []bool
}

// NewFragments builds a Fragments population from a slice of initial
// fragment records.
func NewFragments(records []Fragment) *Fragments {
	n := len(records)
	f := &Fragments{
		El:         make([]kepler.Elements, n),
		Mass:       make([]float64, n),
		AreaToMass: make([]float64, n),
		Shot:       make([]bool, n),
		Removed:    make([]bool, n),
		nextEl:     make([]kepler.Elements, n),
		nextR:      make([][3]float64, n),
		nextV:      make([][3]float64, n),
		inView:     make([]bool, n),
	}
	for i, r := range records {
		f.El[i] = r.El
		f.Mass[i] = r.Mass
		f.AreaToMass[i] = r.AreaToMass
	}
	return f
}

// Len returns the number of tracked fragment slots (including ones
// already shot or removed but not yet compacted away).
func (f *Fragments) Len() int { return len(f.El) }

// active reports whether fragment i is still eligible for
// propagation, predicate evaluation and targeting: neither removed
// nor already shot this run. A shot fragment is retired from further
// simulation regardless of the outcome of its shot and simply awaits
// compaction; see the fragment state machine in the driver package
// doc comment.
func (f *Fragments) active(i int) bool {
	return !f.Removed[i] && !f.Shot[i]
}

// ActiveCount returns the number of fragments neither removed nor
// shot.
func (f *Fragments) ActiveCount() int {
	n := 0
	for i := range f.El {
		if f.active(i) {
			n++
		}
	}
	return n
}

// RemovedCount returns the number of fragments marked removed.
func (f *Fragments) RemovedCount() int {
	n := 0
	for _, r := range f.Removed {
		if r {
			n++
		}
	}
	return n
}

// Compact drops every fragment for which Shot is true, rewriting all
// slices in place via a boolean mask, and returns the resulting
// count. This shrinks the working set for cache efficiency; it is
// called by the driver whenever the integer removal percentage
// crosses a FilterPercent boundary.
func (f *Fragments) Compact() int {
	w := 0
	for i := range f.El {
		if f.Shot[i] {
			continue
		}
		if w != i {
			f.El[w] = f.El[i]
			f.Mass[w] = f.Mass[i]
			f.AreaToMass[w] = f.AreaToMass[i]
			f.Shot[w] = f.Shot[i]
			f.Removed[w] = f.Removed[i]
		}
		w++
	}
	f.El = f.El[:w]
	f.Mass = f.Mass[:w]
	f.AreaToMass = f.AreaToMass[:w]
	f.Shot = f.Shot[:w]
	f.Removed = f.Removed[:w]
	f.nextEl = f.nextEl[:w]
	f.nextR = f.nextR[:w]
	f.nextV = f.nextV[:w]
	f.inView = f.inView[:w]
	return w
}

// Spacecraft is the laser platform's Keplerian state plus the
// derived Cartesian state cached for the current epoch and the last
// time a pulse was fired.
type Spacecraft struct {
	El            kepler.Elements
	R, V          [3]float64
	LastPulseTime float64
}

// impulseDeltaV computes the standard fluence-coupling ablation
// delta-v model: fluence * Cm * freq * (A/M) * ablation_time.
func impulseDeltaV(p Params, areaToMass float64) float64 {
	return p.Fluence * p.Cm * p.Freq * areaToMass * p.AblationTime
}

func vec3(a [3]float64) []float64 { return []float64{a[0], a[1], a[2]} }

func negUnit(a [3]float64) []float64 {
	n := math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
	if n == 0 {
		return []float64{0, 0, 0}
	}
	return []float64{-a[0] / n, -a[1] / n, -a[2] / n}
}
