package catalog

import (
	"strings"
	"testing"

	"github.com/eliasboegel/ldr/kepler"
	"github.com/eliasboegel/ldr/sim"
)

const sampleCSV = `Name,d_eq,a,e,i,long_asc,arg_peri,mean_anom,M,A_M
COSMIC-COLLISION,0.02,7000000,0.01,1.5,0.2,0.1,0.5,2.5,0.08
COSMIC-COLLISION,0.2,7000000,0.01,1.5,0.2,0.1,0.5,2.5,0.08
COSMIC-COLLISION,0.01,7000000,1.5,1.5,0.2,0.1,0.5,2.5,0.08
COSMIC-COLLISION,0.01,6400000,0.0001,1.5,0.2,0.1,0.5,2.5,0.08
OTHER-EVENT,0.01,7000000,0.01,1.5,0.2,0.1,0.5,2.5,0.08
`

func TestParseRequiresAllColumns(t *testing.T) {
	_, err := parse(strings.NewReader("Name,a\nX,1\n"))
	if err == nil {
		t.Fatal("expected an error for a catalogue missing required columns")
	}
}

func TestParseAndFilter(t *testing.T) {
	records, err := parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 parsed rows, got %d", len(records))
	}

	earthRadius := 6378137.0
	minPerigee := 50000.0
	filtered := Filter(records, "COSMIC-COLLISION", earthRadius, minPerigee, 0)
	if len(filtered) != 1 {
		t.Fatalf("expected exactly 1 row to survive tag/diameter/eccentricity/perigee filters, got %d", len(filtered))
	}
}

func TestFilterCapsAtMaxCount(t *testing.T) {
	csv := "Name,d_eq,a,e,i,long_asc,arg_peri,mean_anom,M,A_M\n"
	for i := 0; i < 5; i++ {
		csv += "TAG,0.01,7000000,0.01,1.5,0.2,0.1,0.5,2.5,0.08\n"
	}
	records, err := parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	filtered := Filter(records, "TAG", 6378137, 50000, 3)
	if len(filtered) != 3 {
		t.Fatalf("expected filtered count capped at 3, got %d", len(filtered))
	}
}

func TestBuildInitialStateEmptyRecords(t *testing.T) {
	frags, sc, err := BuildInitialState(nil, sim.Params{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frags.Len() != 0 {
		t.Fatal("expected zero fragments for an empty record set")
	}
	if sc != nil {
		t.Fatal("expected a nil spacecraft for an empty record set")
	}
}

func TestBuildInitialStatePropagatesAndAveragesRAAN(t *testing.T) {
	records := []Record{
		{Name: "T", EquivDiam: 0.01, A: 7000000, E: 0.01, I: 1.0, LongAsc: 1.0, ArgPeri: 0.1, MeanAnomaly: 0.5, Mass: 2, AreaToMass: 0.05},
		{Name: "T", EquivDiam: 0.01, A: 7000000, E: 0.01, I: 1.0, LongAsc: 3.0, ArgPeri: 0.1, MeanAnomaly: 1.5, Mass: 2, AreaToMass: 0.05},
	}
	p := sim.Params{EarthRadius: 6378137, J2: 1.08263e-3, Mu: 3.986004418e14, CollisionAltitude: 800000, OffsetAltitude: 5000}
	frags, sc, err := BuildInitialState(records, p, 3600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frags.Len() != 2 {
		t.Fatalf("expected 2 fragments, got %d", frags.Len())
	}
	if sc == nil {
		t.Fatal("expected a non-nil spacecraft")
	}
	wantA := p.EarthRadius + p.CollisionAltitude + p.OffsetAltitude
	if sc.El.A != wantA {
		t.Fatalf("spacecraft semi-major axis = %f, want %f", sc.El.A, wantA)
	}
	// RAAN starts at the mean of the records' RAAN (2.0) and is then
	// propagated from t=0 to t0.
	wantEl := kepler.Elements{A: wantA, E: 0, I: 1.0, RAAN: 2.0, ArgPeri: 0, M: 1.0}
	wantEl.Resolve()
	kepler.Update(&wantEl, 0, 3600, p.Mu, p.EarthRadius, p.J2)
	if sc.El.RAAN != wantEl.RAAN {
		t.Fatalf("spacecraft RAAN = %f, want %f", sc.El.RAAN, wantEl.RAAN)
	}
}
