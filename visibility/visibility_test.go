package visibility

import "testing"

func baseParams() Params {
	return Params{
		RangeMax:          5000,
		IncidenceAngleMax: 1.0,
		FoV:               0.2,
		EarthRadius:       6378137,
		CollisionAltitude: 800000,
		OffsetAltitude:    5000,
	}
}

func TestRangePredicateMonotonicFlip(t *testing.T) {
	p := baseParams()
	sc := State{R: [3]float64{7178137, 0, 0}, V: [3]float64{0, 7500, 0}}
	frag := State{R: [3]float64{7178137 - 100, 0, 0}, V: [3]float64{0, 7500, 0}}

	flips := 0
	var prev bool
	first := true
	for d := 0.0; d < 10000; d += 50 {
		frag.R[0] = sc.R[0] - d
		in := Range(sc, frag, p)
		if !first && in != prev {
			flips++
		}
		prev = in
		first = false
	}
	if flips != 1 {
		t.Fatalf("expected exactly one flip of the range predicate, got %d", flips)
	}
}

func TestIncidenceHeadOnVersusPerpendicular(t *testing.T) {
	p := baseParams()
	sc := State{R: [3]float64{7178137, 0, 0}, V: [3]float64{0, 7500, 0}}
	frag := State{R: [3]float64{7178137 - 1000, 0, 0}}

	// Fragment flying straight at the spacecraft: velocity parallel to
	// the line of sight, zero incidence angle.
	frag.V = [3]float64{7500, 0, 0}
	if !Incidence(sc, frag, p) {
		t.Fatal("head-on geometry must pass the incidence predicate")
	}

	// Fragment crossing perpendicular to the line of sight: 90 degrees
	// exceeds the configured 1.0 rad maximum.
	frag.V = [3]float64{0, 7500, 0}
	if Incidence(sc, frag, p) {
		t.Fatal("perpendicular geometry must fail the incidence predicate")
	}
}

func TestCompositeRequiresAllThree(t *testing.T) {
	p := baseParams()
	sc := State{R: [3]float64{7178137, 0, 0}, V: [3]float64{0, 7500, 0}}
	farFrag := State{R: [3]float64{0, 0, 0}, V: [3]float64{0, 7500, 0}}
	if Composite(sc, farFrag, p) {
		t.Fatal("composite predicate must be false when range fails")
	}
}
