package campaign

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/eliasboegel/ldr/catalog"
	"github.com/eliasboegel/ldr/config"
)

func baseConfig(tag string) config.Params {
	return config.Params{
		EarthRadius:       6378137,
		J2:                1.08263e-3,
		Mu:                3.986004418e14,
		CollisionAltitude: 800000,
		MaxFragments:      10,
		T0:                0,
		OffsetAltitude:    5000,
		TargetFraction:    0.9,
		MaxDV:             0.01,
		FoV:               0.5,
		Range:             50000,
		IncidenceAngle:    1.4,
		AblationTime:      1,
		ScanTime:          1,
		CooldownTime:      2,
		Fluence:           10000,
		Cm:                1e-5,
		Freq:              10,
		MinPerigee:        50000,
		TMax:              5,
		BisectTol:         0.05,
		FragmentTag:       tag,
		FilterPercent:     1,
	}
}

func TestRunEmptyCatalogueProducesZeroResult(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "results.csv")
	runs := []config.Params{baseConfig("NONEXISTENT")}
	results, err := Run(context.Background(), runs, nil, reportPath, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].FragmentCount != 0 {
		t.Fatalf("expected zero fragments for an empty catalogue, got %d", results[0].FragmentCount)
	}
}

func TestRunSkipsAlreadyRecordedConfiguration(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "results.csv")
	records := []catalog.Record{
		{Name: "TAG", EquivDiam: 0.01, A: 7178137, E: 0.01, I: 0.9, LongAsc: 0, ArgPeri: 0, MeanAnomaly: 0, Mass: 1, AreaToMass: 0.05},
	}
	runs := []config.Params{baseConfig("TAG")}

	first, err := Run(context.Background(), runs, records, reportPath, nil)
	if err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 result on first run, got %d", len(first))
	}

	second, err := Run(context.Background(), runs, records, reportPath, nil)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected the identical configuration to be skipped on replay, got %d results", len(second))
	}
}

func TestRunHonoursCancellationBetweenConfigurations(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "results.csv")
	runs := []config.Params{baseConfig("A"), baseConfig("B")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, runs, nil, reportPath, nil)
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
	if len(results) != 0 {
		t.Fatalf("expected no results once the context is already cancelled, got %d", len(results))
	}
}
