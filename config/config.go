// Package config parses one or many campaign run configurations via
// viper, as a pure function returning errors rather than a
// process-global singleton: the harness runs sweeps of many
// configurations and must recover between runs, not abort the whole
// process on the first bad one.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/eliasboegel/ldr/sim"
)

// Params holds one fully-resolved run configuration.
type Params struct {
	EarthRadius float64 `mapstructure:"R_e"`
	J2          float64 `mapstructure:"J2"`
	Mu          float64 `mapstructure:"mu"`

	CollisionAltitude float64 `mapstructure:"h_collision"`
	MaxFragments      int     `mapstructure:"d_n"`
	T0                float64 `mapstructure:"t0"`
	OffsetAltitude    float64 `mapstructure:"h_offset"`
	TargetFraction    float64 `mapstructure:"target_fraction"`
	MaxDV             float64 `mapstructure:"max_dv"`

	FoV            float64 `mapstructure:"FoV"`
	Range          float64 `mapstructure:"range"`
	IncidenceAngle float64 `mapstructure:"incidence_angle"`

	AblationTime float64 `mapstructure:"ablation_time"`
	ScanTime     float64 `mapstructure:"scan_time"`
	CooldownTime float64 `mapstructure:"cooldown_time"`

	Fluence float64 `mapstructure:"fluence"`
	Cm      float64 `mapstructure:"Cm"`
	Freq    float64 `mapstructure:"freq"`

	MinPerigee float64 `mapstructure:"min_perigee"`
	TMax       float64 `mapstructure:"t_max"`
	BisectTol  float64 `mapstructure:"bisect_tol"`

	FragmentTag   string  `mapstructure:"fragment_tag"`
	FilterPercent float64 `mapstructure:"filter_percent"`
}

// defaults mirror the standard Earth-constant defaults plus a 1%
// compaction stride; every other field starts at its zero value and
// takes its value from the configuration file (validate checks only
// some of them).
func defaults() Params {
	return Params{
		EarthRadius:   6378137,
		J2:            1.08263e-3,
		Mu:            3.986004418e14,
		FilterPercent: 1,
	}
}

// LoadAll parses every configuration record in the TOML/YAML/JSON
// file at path into a validated []Params, in file order, supporting a
// sweep matrix under a top-level "runs" list. A single unnested
// configuration document is also accepted, returned as a one-element
// slice.
func LoadAll(path string) ([]Params, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var raw struct {
		Runs []map[string]interface{} `mapstructure:"runs"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("config: unmarshalling %s: %w", path, err)
	}

	if len(raw.Runs) == 0 {
		p := defaults()
		if err := v.Unmarshal(&p); err != nil {
			return nil, fmt.Errorf("config: unmarshalling %s: %w", path, err)
		}
		if err := validate(p); err != nil {
			return nil, err
		}
		return []Params{p}, nil
	}

	out := make([]Params, 0, len(raw.Runs))
	for i, run := range raw.Runs {
		p := defaults()
		if err := decodeRun(run, &p); err != nil {
			return nil, fmt.Errorf("config: run %d: %w", i, err)
		}
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("config: run %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// ToSimParams projects the configuration record onto the physical and
// numerical parameters sim.Driver needs, leaving T0, MaxFragments and
// FragmentTag to the catalog/campaign harness layer above sim.
func (p Params) ToSimParams() sim.Params {
	return sim.Params{
		EarthRadius:       p.EarthRadius,
		J2:                p.J2,
		Mu:                p.Mu,
		CollisionAltitude: p.CollisionAltitude,
		OffsetAltitude:    p.OffsetAltitude,
		TargetFraction:    p.TargetFraction,
		MaxDV:             p.MaxDV,
		FoV:               p.FoV,
		RangeMax:          p.Range,
		IncidenceAngleMax: p.IncidenceAngle,
		AblationTime:      p.AblationTime,
		ScanTime:          p.ScanTime,
		CooldownTime:      p.CooldownTime,
		Fluence:           p.Fluence,
		Cm:                p.Cm,
		Freq:              p.Freq,
		MinPerigee:        p.MinPerigee,
		TMax:              p.TMax,
		BisectTol:         p.BisectTol,
		FilterPercent:     p.FilterPercent,
	}
}

// decodeRun decodes a single sweep entry into p by seeding a fresh
// viper instance with the entry's keys and unmarshalling it with
// viper's mapstructure conventions.
func decodeRun(run map[string]interface{}, p *Params) error {
	rv := viper.New()
	for k, val := range run {
		rv.Set(k, val)
	}
	return rv.Unmarshal(p)
}

// validate rejects configuration errors before any run is attempted:
// a missing fragment_tag, a non-positive d_n, a non-positive duration,
// t_max, bisect_tol or max_dv, and a target_fraction outside (0, 1].
// Other fields are not checked; ill-typed values are rejected earlier,
// by Unmarshal.
func validate(p Params) error {
	if p.FragmentTag == "" {
		return fmt.Errorf("config: fragment_tag is required")
	}
	if p.MaxFragments <= 0 {
		return fmt.Errorf("config: d_n must be positive")
	}
	for name, d := range map[string]float64{
		"ablation_time": p.AblationTime,
		"scan_time":     p.ScanTime,
		"cooldown_time": p.CooldownTime,
		"t_max":         p.TMax,
		"bisect_tol":    p.BisectTol,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive", name)
		}
	}
	if p.TargetFraction <= 0 || p.TargetFraction > 1 {
		return fmt.Errorf("config: target_fraction must be in (0, 1]")
	}
	if p.MaxDV <= 0 {
		return fmt.Errorf("config: max_dv must be positive")
	}
	return nil
}
