// Package report writes the campaign result table: one row per
// configuration, appended to a CSV file whose header is written once,
// on first write. Day-denominated columns use soniakeys/meeus/julian
// for Julian-date conversion.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/soniakeys/meeus/julian"

	"github.com/eliasboegel/ldr/config"
)

// epoch is the reference instant against which a configuration's `t0`
// (seconds) is interpreted as a Julian date offset.
var epoch = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// Days converts a simulated-seconds offset into Julian days past the
// reference epoch. The campaign harness also uses it when logging run
// boundaries, so the day-denominated log lines and CSV columns agree.
func Days(seconds float64) float64 {
	t := epoch.Add(time.Duration(seconds * float64(time.Second)))
	return julian.TimeToJD(t) - julian.TimeToJD(epoch)
}

var header = []string{
	"collision_altitude_m",
	"fragment_count",
	"t0_days",
	"offset_altitude_m",
	"target_fraction",
	"fov_deg",
	"range_m",
	"incidence_deg",
	"ablation_time_s",
	"scan_time_s",
	"cooldown_time_s",
	"fluence",
	"removal_altitude_m",
	"time_required_days",
	"fraction_removed",
}

// Row is one completed run's result, paired with the configuration
// that produced it.
type Row struct {
	Params          config.Params
	FragmentCount   int
	TimeRequired    float64 // s, elapsed simulated time at termination
	FractionRemoved float64
}

func toFields(r Row) []string {
	p := r.Params
	return []string{
		formatFloat(p.CollisionAltitude),
		strconv.Itoa(r.FragmentCount),
		formatFloat(Days(p.T0)),
		formatFloat(p.OffsetAltitude),
		formatFloat(p.TargetFraction),
		formatFloat(p.FoV * 180 / math.Pi),
		formatFloat(p.Range),
		formatFloat(p.IncidenceAngle * 180 / math.Pi),
		formatFloat(p.AblationTime),
		formatFloat(p.ScanTime),
		formatFloat(p.CooldownTime),
		formatFloat(p.Fluence),
		formatFloat(p.MinPerigee),
		formatFloat(Days(r.TimeRequired)),
		formatFloat(r.FractionRemoved),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Append writes row to the CSV file at path, creating it (with
// header) if it does not already exist, and appending a new row
// otherwise. The file is opened, written and closed on every call:
// result persistence is confined to this boundary, never held open
// across a configuration sweep.
func Append(path string, row Row) error {
	needsHeader := false
	if info, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("report: stat %s: %w", path, err)
		}
		needsHeader = true
	} else if info.Size() == 0 {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("report: opening %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needsHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("report: writing header: %w", err)
		}
	}
	if err := w.Write(toFields(row)); err != nil {
		return fmt.Errorf("report: writing row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// AlreadyRun reports whether path already contains a row whose
// numeric configuration columns (everything except the two result
// columns) match p within a small relative tolerance, meaning this
// configuration has already been simulated and should be skipped.
func AlreadyRun(path string, p config.Params, fragmentCount int) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("report: opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("report: reading header: %w", err)
	}

	want := toFields(Row{Params: p, FragmentCount: fragmentCount})[:13]
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, fmt.Errorf("report: reading row: %w", err)
		}
		if matchesConfig(row, want) {
			return true, nil
		}
	}
	return false, nil
}

func matchesConfig(row, want []string) bool {
	if len(row) < len(want) {
		return false
	}
	for i := range want {
		rv, err1 := strconv.ParseFloat(row[i], 64)
		wv, err2 := strconv.ParseFloat(want[i], 64)
		if err1 != nil || err2 != nil {
			if row[i] != want[i] {
				return false
			}
			continue
		}
		if !approxEqual(rv, wv) {
			return false
		}
	}
	return true
}

func approxEqual(a, b float64) bool {
	const tol = 1e-6
	diff := math.Abs(a - b)
	if diff < tol {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= tol*scale
}
