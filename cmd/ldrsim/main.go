// Command ldrsim runs a laser-debris-removal campaign sweep: every
// configuration in a TOML/YAML/JSON file is simulated in turn against
// a shared fragment catalogue, with results appended to a CSV report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	kitlog "github.com/go-kit/kit/log"

	"github.com/eliasboegel/ldr/campaign"
	"github.com/eliasboegel/ldr/catalog"
	"github.com/eliasboegel/ldr/config"
	"github.com/eliasboegel/ldr/telemetry"
)

func main() {
	configPath := flag.String("config", "conf.toml", "campaign configuration file (TOML/YAML/JSON)")
	catalogPath := flag.String("catalog", "catalog.csv", "fragment catalogue CSV")
	reportPath := flag.String("report", "results.csv", "output CSV report, appended to across runs")
	flag.Parse()

	logger := telemetry.WithSubsystem(telemetry.New(os.Stdout), "ldrsim")

	if err := run(*configPath, *catalogPath, *reportPath, logger); err != nil {
		logger.Log("level", "error", "event", "fatal", "err", err)
		os.Exit(1)
	}
}

func run(configPath, catalogPath, reportPath string, logger kitlog.Logger) error {
	runs, err := config.LoadAll(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration %s: %w", configPath, err)
	}
	logger.Log("level", "info", "event", "config_loaded", "path", configPath, "runs", len(runs))

	records, err := catalog.Load(catalogPath)
	if err != nil {
		return fmt.Errorf("loading catalogue %s: %w", catalogPath, err)
	}
	logger.Log("level", "info", "event", "catalog_loaded", "path", catalogPath, "rows", len(records))

	results, err := campaign.Run(context.Background(), runs, records, reportPath, logger)
	if err != nil {
		return fmt.Errorf("running campaign sweep: %w", err)
	}
	logger.Log("level", "info", "event", "sweep_complete", "completed_runs", len(results))
	return nil
}
