package engine

import (
	"maps"

	"gmslr/internal/contrib"
	"gmslr/internal/ensemble"
	"gmslr/internal/projerr"
)

// DefaultMembers is divisible by the method count of every glacier table.
const DefaultMembers = 100800

// Settings are the immutable run options.
type Settings struct {
	Axis    ensemble.YearAxis
	Members int
	Seed    int64
	// Workers bounds the worker pool; zero uses one per CPU.
	Workers int
	// SDScale multiplies input standard deviations in moment form.
	SDScale float64

	Glacier contrib.Variant
	AntDyn  contrib.Variant
	// LevermannMap names the Levermann fit for each scenario; the key "*"
	// applies to every scenario without its own entry.
	LevermannMap    map[string]string
	ExtendedHorizon bool
	Params          contrib.Parameters

	// KeepEnsembles retains every member × year ensemble in the result.
	KeepEnsembles bool
}

// DefaultSettings returns AR5 settings on 2007..2100.
func DefaultSettings() Settings {
	axis, _ := ensemble.NewYearAxis(contrib.EndOfHistory+1, contrib.CalibrationYear)
	return Settings{
		Axis:    axis,
		Members: DefaultMembers,
		SDScale: 1,
		Glacier: contrib.VariantAR5,
		AntDyn:  contrib.VariantAR5,
		Params:  contrib.DefaultParameters(),
	}
}

// Validate checks the settings that do not depend on a scenario.
func (s Settings) Validate() error {
	if s.Axis.Len() == 0 {
		return projerr.Configuration("no year axis configured").ForParam("years")
	}
	if s.Members <= 0 {
		return projerr.Configuration("ensemble size must be positive, got %d", s.Members).ForParam("members")
	}
	if s.Workers < 0 {
		return projerr.Configuration("worker count must not be negative, got %d", s.Workers).ForParam("workers")
	}
	if s.SDScale < 0 {
		return projerr.Domain("sd scale must not be negative, got %g", s.SDScale).ForParam("sd_scale")
	}
	return nil
}

// models resolves the per-scenario model configuration.
func (s Settings) models(scenario string) (contrib.Config, error) {
	cfg := contrib.Config{
		Scenario:        scenario,
		Glacier:         s.Glacier,
		AntDyn:          s.AntDyn,
		ExtendedHorizon: s.ExtendedHorizon,
		Params:          s.Params,
		Workers:         s.Workers,
	}
	if s.AntDyn == contrib.VariantLevermann {
		fit, err := contrib.ResolveLevermann(scenario, s.LevermannMap)
		if err != nil {
			return contrib.Config{}, err
		}
		cfg.LevermannFit = fit
	}
	if err := cfg.Validate(s.Axis); err != nil {
		return contrib.Config{}, err
	}
	return cfg, nil
}

// Clone returns a copy that shares no maps or slices with s.
func (s Settings) Clone() Settings {
	c := s
	c.LevermannMap = maps.Clone(s.LevermannMap)
	c.Params.GlacierMethods = append([]contrib.GlacierMethod(nil), s.Params.GlacierMethods...)
	return c
}
