// Package regression checks result tables against reference values.
// Batteries are YAML-defined check suites; the built-in battery holds the
// AR5 likely ranges of the scenario-independent terms at 2100.
package regression

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"gmslr/internal/ensemble"
	"gmslr/internal/result"
)

//go:embed ar5.yaml
var ar5Battery []byte

// Battery is a collection of reference checks.
type Battery struct {
	Version int     `yaml:"version"`
	Checks  []Check `yaml:"checks"`
}

// Check compares one statistic of one quantity in one year.
type Check struct {
	ID       string  `yaml:"id"`
	Quantity string  `yaml:"quantity"`
	Year     int     `yaml:"year"`
	Stat     string  `yaml:"stat"` // median, low, high, mean, min, max
	Want     float64 `yaml:"want"`
	Tol      float64 `yaml:"tol"`
	// Scenarios restricts the check; empty applies to every scenario.
	Scenarios []string `yaml:"scenarios,omitempty"`
	// AntDyn restricts the check to runs with this Antarctic dynamics variant.
	AntDyn string `yaml:"antdyn,omitempty"`
}

// Status is the outcome of a check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Result captures the outcome of one check.
type Result struct {
	CheckID string
	Status  Status
	Got     float64
	Error   string
}

// LoadBattery reads a YAML battery file from disk.
func LoadBattery(path string) (*Battery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseBattery(data)
}

// DefaultBattery returns the built-in AR5 reference battery.
func DefaultBattery() *Battery {
	b, err := parseBattery(ar5Battery)
	if err != nil {
		panic(fmt.Sprintf("built-in battery: %v", err))
	}
	return b
}

func parseBattery(data []byte) (*Battery, error) {
	var b Battery
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse battery YAML: %w", err)
	}
	for i, c := range b.Checks {
		if c.ID == "" {
			return nil, fmt.Errorf("check %d has no id", i)
		}
		if c.Tol < 0 {
			return nil, fmt.Errorf("check %s: negative tolerance", c.ID)
		}
	}
	return &b, nil
}

// RunBattery evaluates every check against t.
func RunBattery(b *Battery, t *result.Table) []Result {
	if b == nil || len(b.Checks) == 0 {
		return nil
	}
	results := make([]Result, 0, len(b.Checks))
	for _, c := range b.Checks {
		results = append(results, runCheck(c, t))
	}
	return results
}

// Failed reports whether any result failed.
func Failed(results []Result) bool {
	return slices.ContainsFunc(results, func(r Result) bool { return r.Status == StatusFail })
}

func runCheck(c Check, t *result.Table) Result {
	res := Result{CheckID: c.ID}
	if len(c.Scenarios) > 0 && !slices.Contains(c.Scenarios, t.Meta.Scenario) {
		res.Status = StatusSkip
		return res
	}
	if c.AntDyn != "" && !strings.EqualFold(c.AntDyn, t.Meta.AntDyn) {
		res.Status = StatusSkip
		return res
	}

	s, ok := t.Get(ensemble.Quantity(c.Quantity))
	if !ok {
		res.Status = StatusFail
		res.Error = fmt.Sprintf("quantity %s not in table", c.Quantity)
		return res
	}
	if s.Len() == 0 {
		res.Status = StatusFail
		res.Error = fmt.Sprintf("quantity %s has no years", c.Quantity)
		return res
	}
	i := c.Year - s.Years[0]
	if i < 0 || i >= s.Len() {
		res.Status = StatusSkip
		res.Error = fmt.Sprintf("year %d not in table", c.Year)
		return res
	}

	var got float64
	switch strings.ToLower(c.Stat) {
	case "median":
		got = s.Median[i]
	case "low":
		got = s.Low[i]
	case "high":
		got = s.High[i]
	case "mean":
		got = s.Mean[i]
	case "min":
		got = s.Min[i]
	case "max":
		got = s.Max[i]
	default:
		res.Status = StatusFail
		res.Error = fmt.Sprintf("unsupported statistic: %s", c.Stat)
		return res
	}

	res.Got = got
	if math.Abs(got-c.Want) <= c.Tol {
		res.Status = StatusPass
	} else {
		res.Status = StatusFail
		res.Error = fmt.Sprintf("%s %s in %d is %.4f, want %.4f ± %.4f", c.Quantity, c.Stat, c.Year, got, c.Want, c.Tol)
	}
	return res
}
