package contrib

import (
	"math"

	"gmslr/internal/projerr"
)

// GlacierMethod is one glacier model's fit of the AR5 glacier formula.
type GlacierMethod struct {
	Name     string  `yaml:"name" json:"name"`
	Factor   float64 `yaml:"factor" json:"factor"`
	Exponent float64 `yaml:"exponent" json:"exponent"`
	// CV is the coefficient of the random methodological error.
	CV float64 `yaml:"cv" json:"cv"`
}

var glacierTables = map[Variant][]GlacierMethod{
	VariantAR5: {
		{Name: "Marzeion", Factor: 4.96, Exponent: 0.685, CV: 0.20},
		{Name: "Radic", Factor: 5.45, Exponent: 0.676, CV: 0.20},
		{Name: "Slangen", Factor: 3.44, Exponent: 0.742, CV: 0.20},
		{Name: "Giesen", Factor: 3.02, Exponent: 0.733, CV: 0.20},
	},
	// Hock et al. (2019)
	VariantGlacierMIP: {
		{Name: "SLA2012", Factor: 3.39, Exponent: 0.722, CV: 0.15},
		{Name: "MAR2012", Factor: 4.35, Exponent: 0.658, CV: 0.13},
		{Name: "GIE2013", Factor: 3.57, Exponent: 0.665, CV: 0.13},
		{Name: "RAD2014", Factor: 6.21, Exponent: 0.648, CV: 0.17},
		{Name: "GloGEM", Factor: 2.88, Exponent: 0.753, CV: 0.13},
	},
	// Marzeion et al. (2020)
	VariantGlacierMIP2: {
		{Name: "GLIMB", Factor: 3.70, Exponent: 0.662, CV: 0.206},
		{Name: "GloGEM", Factor: 4.08, Exponent: 0.716, CV: 0.161},
		{Name: "JULES", Factor: 5.50, Exponent: 0.564, CV: 0.188},
		{Name: "Mar-12", Factor: 4.89, Exponent: 0.651, CV: 0.141},
		{Name: "OGGM", Factor: 4.26, Exponent: 0.715, CV: 0.164},
		{Name: "RAD2014", Factor: 5.18, Exponent: 0.709, CV: 0.135},
		{Name: "WAL2001", Factor: 2.66, Exponent: 0.730, CV: 0.206},
	},
}

// GlacierTable returns a copy of the calibration table for a glacier variant.
func GlacierTable(v Variant) ([]GlacierMethod, bool) {
	t, ok := glacierTables[v]
	if !ok {
		return nil, false
	}
	return append([]GlacierMethod(nil), t...), true
}

// Parameters are the calibration values a run may override.
type Parameters struct {
	// GlacierVolume bounds the glacier contribution, in m SLE.
	GlacierVolume float64 `yaml:"glacier_volume" json:"glacier_volume"`
	// GlacierMethods replaces the table of the selected glacier variant when set.
	GlacierMethods []GlacierMethod `yaml:"glacier_methods,omitempty" json:"glacier_methods,omitempty"`
	// GreenSMBLogSD is the sd of the log of the Greenland SMB methodological factor.
	GreenSMBLogSD float64 `yaml:"greensmb_log_sd" json:"greensmb_log_sd"`
	// GreenFeedback bounds the uniform SMB elevation feedback factor.
	GreenFeedback [2]float64 `yaml:"greensmb_feedback" json:"greensmb_feedback"`
	// LandWaterNoiseSD adds a per-year Gaussian random walk to land water, mm/yr.
	LandWaterNoiseSD float64 `yaml:"landwater_noise_sd" json:"landwater_noise_sd"`
}

// DefaultParameters returns the AR5 calibration.
func DefaultParameters() Parameters {
	return Parameters{
		GlacierVolume: DefaultGlacierVolume,
		GreenSMBLogSD: 0.4,
		GreenFeedback: [2]float64{1, 1.15},
	}
}

// Validate rejects physically invalid calibration values.
func (p Parameters) Validate() error {
	if !(p.GlacierVolume > 0) || math.IsInf(p.GlacierVolume, 0) {
		return projerr.Domain("glacier volume must be positive, got %g", p.GlacierVolume).
			ForQuantity("glacier").ForParam("glacier_volume")
	}
	if p.GreenSMBLogSD < 0 {
		return projerr.Domain("log sd must be non-negative, got %g", p.GreenSMBLogSD).
			ForQuantity("greensmb").ForParam("greensmb_log_sd")
	}
	if p.GreenFeedback[0] <= 0 || p.GreenFeedback[1] < p.GreenFeedback[0] {
		return projerr.Domain("feedback bounds %v must be positive and ascending", p.GreenFeedback).
			ForQuantity("greensmb").ForParam("greensmb_feedback")
	}
	if p.LandWaterNoiseSD < 0 {
		return projerr.Domain("noise sd must be non-negative, got %g", p.LandWaterNoiseSD).
			ForQuantity("landwater").ForParam("landwater_noise_sd")
	}
	for _, m := range p.GlacierMethods {
		if err := m.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m GlacierMethod) validate() error {
	switch {
	case m.Name == "":
		return projerr.Domain("glacier method has no name").ForQuantity("glacier")
	case m.Factor < 0 || math.IsNaN(m.Factor):
		return projerr.Domain("method %s: factor %g is negative", m.Name, m.Factor).
			ForQuantity("glacier").ForParam("factor")
	case !(m.Exponent > 0):
		return projerr.Domain("method %s: exponent %g must be positive", m.Name, m.Exponent).
			ForQuantity("glacier").ForParam("exponent")
	case m.CV < 0 || math.IsNaN(m.CV):
		return projerr.Domain("method %s: cv %g is negative", m.Name, m.CV).
			ForQuantity("glacier").ForParam("cv")
	}
	return nil
}
