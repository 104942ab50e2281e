// Package campaign is the run harness: it loads a catalogue once,
// runs every configuration in a sweep matrix against it in sequence,
// and appends each result to the report file, skipping configurations
// already recorded. It accepts a context.Context purely so a caller
// driving many configurations can cancel the whole sweep between runs,
// never mid-epoch: a running simulation has no internal cancellation
// points.
package campaign

import (
	"context"
	"fmt"

	kitlog "github.com/go-kit/kit/log"

	"github.com/eliasboegel/ldr/catalog"
	"github.com/eliasboegel/ldr/config"
	"github.com/eliasboegel/ldr/report"
	"github.com/eliasboegel/ldr/sim"
)

// Result is one configuration's outcome, ready to be appended to the
// report file.
type Result struct {
	Params          config.Params
	FragmentCount   int
	TimeRequired    float64 // s, simulated time elapsed since t0
	FractionRemoved float64
	Elapsed         []float64 // s series, since t0
	Fraction        []float64 // cumulative removed-fraction series
}

// Run executes every configuration in runs against the shared
// catalogue records, in order, logging progress via logger and
// appending each result to reportPath unless AlreadyRun reports a
// match. Returns the in-memory results for configurations actually
// run (skipped ones are omitted). ctx is checked once per
// configuration boundary, never inside a running simulation.
func Run(ctx context.Context, runs []config.Params, records []catalog.Record, reportPath string, logger kitlog.Logger) ([]Result, error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	logger = kitlog.With(logger, "subsys", "campaign")

	var results []Result
	for i, p := range runs {
		select {
		case <-ctx.Done():
			logger.Log("level", "info", "event", "cancelled", "run", i, "of", len(runs))
			return results, ctx.Err()
		default:
		}

		filtered := catalog.Filter(records, p.FragmentTag, p.EarthRadius, p.MinPerigee, p.MaxFragments)
		logger.Log("level", "debug", "event", "run_start", "run", i, "fragment_tag", p.FragmentTag,
			"filtered", len(filtered), "t0_days", report.Days(p.T0))

		if reportPath != "" {
			skip, err := report.AlreadyRun(reportPath, p, len(filtered))
			if err != nil {
				return results, fmt.Errorf("campaign: checking prior results for run %d: %w", i, err)
			}
			if skip {
				logger.Log("level", "info", "event", "skip", "run", i, "fragment_tag", p.FragmentTag)
				continue
			}
		}

		res, err := runOne(p, filtered, logger)
		if err != nil {
			return results, fmt.Errorf("campaign: run %d: %w", i, err)
		}
		results = append(results, res)

		if reportPath != "" {
			row := report.Row{
				Params:          p,
				FragmentCount:   res.FragmentCount,
				TimeRequired:    res.TimeRequired,
				FractionRemoved: res.FractionRemoved,
			}
			if err := report.Append(reportPath, row); err != nil {
				return results, fmt.Errorf("campaign: appending result for run %d: %w", i, err)
			}
		}

		logger.Log("level", "info", "event", "complete", "run", i, "fragment_tag", p.FragmentTag,
			"fragments", res.FragmentCount, "fraction_removed", res.FractionRemoved, "time_required_s", res.TimeRequired)
	}
	return results, nil
}

func runOne(p config.Params, filtered []catalog.Record, logger kitlog.Logger) (Result, error) {
	simParams := p.ToSimParams()

	frags, sc, err := catalog.BuildInitialState(filtered, simParams, p.T0)
	if err != nil {
		return Result{}, fmt.Errorf("building initial state: %w", err)
	}

	fragmentCount := frags.Len()
	if fragmentCount == 0 {
		return Result{Params: p, FragmentCount: 0, Elapsed: nil, Fraction: []float64{0}}, nil
	}

	driver := sim.NewDriver(simParams, frags, sc, p.T0, kitlog.With(logger, "fragment_tag", p.FragmentTag))
	elapsed, fraction := driver.Run()

	var timeRequired, fractionRemoved float64
	if n := len(elapsed); n > 0 {
		timeRequired = elapsed[n-1]
		fractionRemoved = fraction[n-1]
	}

	return Result{
		Params:          p,
		FragmentCount:   fragmentCount,
		TimeRequired:    timeRequired,
		FractionRemoved: fractionRemoved,
		Elapsed:         elapsed,
		Fraction:        fraction,
	}, nil
}
