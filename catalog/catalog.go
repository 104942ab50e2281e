// Package catalog loads and filters the fragment catalogue and builds
// the initial fragment population and spacecraft state the simulation
// driver starts from.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/eliasboegel/ldr/kepler"
	"github.com/eliasboegel/ldr/sim"
)

// wantHeader is the exact column set the fragment catalogue must
// carry. Order in the file does not matter; Load resolves columns by
// name.
var wantHeader = []string{"Name", "d_eq", "a", "e", "i", "long_asc", "arg_peri", "mean_anom", "M", "A_M"}

// Record is one parsed catalogue row: a fragment's name, physical
// properties and Keplerian elements, in SI units (metres, radians,
// kilograms).
type Record struct {
	Name        string
	EquivDiam   float64 // d_eq, m
	A           float64 // m
	E           float64
	I           float64 // rad
	LongAsc     float64 // rad (RAAN)
	ArgPeri     float64 // rad
	MeanAnomaly float64 // rad (CSV column "mean_anom")
	Mass        float64 // kg (CSV column "M")
	AreaToMass  float64 // m^2/kg (CSV column "A_M")
}

// Load reads and parses the fragment catalogue CSV at path. Column
// order in the file is irrelevant; all ten required columns must be
// present or Load returns an error and no run is attempted.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening %s: %w", path, err)
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, want := range wantHeader {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("catalog: missing required column %q", want)
		}
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: reading row: %w", err)
		}
		rec, err := rowToRecord(row, col)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func rowToRecord(row []string, col map[string]int) (Record, error) {
	f := func(name string) (float64, error) {
		v, err := strconv.ParseFloat(row[col[name]], 64)
		if err != nil {
			return 0, fmt.Errorf("catalog: parsing column %q: %w", name, err)
		}
		return v, nil
	}
	var rec Record
	rec.Name = row[col["Name"]]
	var err error
	if rec.EquivDiam, err = f("d_eq"); err != nil {
		return rec, err
	}
	if rec.A, err = f("a"); err != nil {
		return rec, err
	}
	if rec.E, err = f("e"); err != nil {
		return rec, err
	}
	if rec.I, err = f("i"); err != nil {
		return rec, err
	}
	if rec.LongAsc, err = f("long_asc"); err != nil {
		return rec, err
	}
	if rec.ArgPeri, err = f("arg_peri"); err != nil {
		return rec, err
	}
	if rec.MeanAnomaly, err = f("mean_anom"); err != nil {
		return rec, err
	}
	if rec.Mass, err = f("M"); err != nil {
		return rec, err
	}
	if rec.AreaToMass, err = f("A_M"); err != nil {
		return rec, err
	}
	return rec, nil
}

// Filter keeps rows whose Name matches tag, whose equivalent diameter
// is below 0.1 m, whose eccentricity is in (0, 1), and whose perigee
// and apogee both lie above earthRadius+minPerigee (naturally-decaying
// fragments are dropped upstream rather than simulated to no effect).
// The result is capped at maxCount entries, in file order.
func Filter(records []Record, tag string, earthRadius, minPerigee float64, maxCount int) []Record {
	minRadius := earthRadius + minPerigee
	var out []Record
	for _, r := range records {
		if r.Name != tag {
			continue
		}
		if r.EquivDiam >= 0.1 {
			continue
		}
		if !(r.E > 0 && r.E < 1) {
			continue
		}
		perigee := r.A * (1 - r.E)
		apogee := r.A * (1 + r.E)
		if perigee < minRadius || apogee < minRadius {
			continue
		}
		out = append(out, r)
		if maxCount > 0 && len(out) >= maxCount {
			break
		}
	}
	return out
}

// BuildInitialState propagates every filtered record from t=0 to t0
// (in parallel) and assembles the fragment population plus an
// initial spacecraft state: inclination equal to the mean
// inclination of the filtered records, RAAN and mean anomaly set to the mean of the
// filtered population's RAAN and mean anomaly, circular (e=0),
// argument of pericenter zero, then propagated to t0 and resolved.
func BuildInitialState(records []Record, p sim.Params, t0 float64) (*sim.Fragments, *sim.Spacecraft, error) {
	if len(records) == 0 {
		return sim.NewFragments(nil), nil, nil
	}

	frags := make([]sim.Fragment, len(records))
	var sumRAAN, sumM, sumI float64
	for i, r := range records {
		el := kepler.Elements{A: r.A, E: r.E, I: r.I, RAAN: r.LongAsc, ArgPeri: r.ArgPeri, M: r.MeanAnomaly}
		el.Resolve()
		frags[i] = sim.Fragment{El: el, Mass: r.Mass, AreaToMass: r.AreaToMass}
		sumRAAN += r.LongAsc
		sumM += r.MeanAnomaly
		sumI += r.I
	}
	n := float64(len(records))

	propagateAllTo0To(frags, t0, p)

	scEl := kepler.Elements{
		A:       p.EarthRadius + p.CollisionAltitude + p.OffsetAltitude,
		E:       0,
		I:       sumI / n,
		RAAN:    sumRAAN / n,
		ArgPeri: 0,
		M:       sumM / n,
	}
	scEl.Resolve()
	kepler.Update(&scEl, 0, t0, p.Mu, p.EarthRadius, p.J2)

	r := make([]float64, 3)
	v := make([]float64, 3)
	kepler.ToCartesian(scEl, p.Mu, r, v)
	sc := &sim.Spacecraft{El: scEl}
	copy(sc.R[:], r)
	copy(sc.V[:], v)

	return sim.NewFragments(frags), sc, nil
}

// propagateAllTo0To advances every fragment's elements from t=0 to t0
// in parallel, using a fixed-size worker pool over contiguous index
// ranges, the same pattern the driver uses for its per-epoch
// fragment propagation.
func propagateAllTo0To(frags []sim.Fragment, t0 float64, p sim.Params) {
	n := len(frags)
	numWorkers := runtime.NumCPU()
	if numWorkers > n {
		numWorkers = n
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	chunk := (n + numWorkers - 1) / numWorkers

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
				el := frags[i].El
				kepler.Update(&el, 0, t0, p.Mu, p.EarthRadius, p.J2)
				frags[i].El = el
			}
		}(start, end)
	}
	wg.Wait()
}
