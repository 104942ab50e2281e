package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eliasboegel/ldr/config"
)

func sampleParams() config.Params {
	return config.Params{
		FragmentTag:       "COSMIC-COLLISION",
		CollisionAltitude: 800000,
		T0:                3600,
		OffsetAltitude:    5000,
		TargetFraction:    0.99,
		FoV:               0.5,
		Range:             50000,
		IncidenceAngle:    1.4,
		AblationTime:      1,
		ScanTime:          1,
		CooldownTime:      2,
		Fluence:           10000,
		MinPerigee:        50000,
	}
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	row := Row{Params: sampleParams(), FragmentCount: 100, TimeRequired: 172800, FractionRemoved: 0.99}

	if err := Append(path, row); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := Append(path, row); err != nil {
		t.Fatalf("second append failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading result file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 1 header + 2 data rows, got %d lines: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "collision_altitude_m,") {
		t.Fatalf("expected header row first, got %q", lines[0])
	}
}

func TestAlreadyRunDetectsMatchingConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	p := sampleParams()
	row := Row{Params: p, FragmentCount: 100, TimeRequired: 172800, FractionRemoved: 0.99}
	if err := Append(path, row); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	ran, err := AlreadyRun(path, p, 100)
	if err != nil {
		t.Fatalf("AlreadyRun failed: %v", err)
	}
	if !ran {
		t.Fatal("expected the identical configuration to be detected as already run")
	}

	p.CollisionAltitude = 900000
	ran, err = AlreadyRun(path, p, 100)
	if err != nil {
		t.Fatalf("AlreadyRun failed: %v", err)
	}
	if ran {
		t.Fatal("expected a different configuration not to be detected as already run")
	}
}

func TestAlreadyRunOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	ran, err := AlreadyRun(path, sampleParams(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran {
		t.Fatal("expected a missing result file to report no prior run")
	}
}
