package ncio

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gmslr/internal/ensemble"
	"gmslr/internal/logging"
	"gmslr/internal/projerr"
)

// Input statistics. A driver is read from <scenario>_<quantity>_models.nc
// when present, otherwise from the mean and sd pair.
const (
	statMean   = "mean"
	statSD     = "sd"
	statModels = "models"
)

// modelsAttr is the global attribute listing source names in ensemble files.
const modelsAttr = "models"

// Discover lists the scenarios with input in dir: the distinct prefixes
// before the first underscore of every *_*.nc file, sorted.
func Discover(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*_*.nc"))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, projerr.Configuration("input directory %s: %v", dir, err).ForParam("input_dir")
	}
	var scenarios []string
	for _, m := range matches {
		base := filepath.Base(m)
		name, _, _ := strings.Cut(base, "_")
		if name != "" {
			scenarios = append(scenarios, name)
		}
	}
	slices.Sort(scenarios)
	scenarios = slices.Compact(scenarios)
	if len(scenarios) == 0 {
		return nil, projerr.Configuration("no scenario input files in %s", dir).ForParam("input_dir")
	}
	return scenarios, nil
}

// Loader reads the temperature and expansion drivers of a scenario.
type Loader struct {
	Dir  string
	Axis ensemble.YearAxis
}

// NewLoader returns a loader for files in dir, trimmed to axis.
func NewLoader(dir string, axis ensemble.YearAxis) *Loader {
	return &Loader{Dir: dir, Axis: axis}
}

// Load reads both drivers of scenario.
func (l *Loader) Load(scenario string) (tas, zostoga ensemble.DriverInput, err error) {
	timer := logging.StartTimer(logging.CategoryInput, "Load "+scenario)
	defer timer.Stop()

	tas, err = l.driver(scenario, ensemble.Temperature, ensemble.DriverTAS)
	if err != nil {
		return tas, zostoga, fmt.Errorf("load %s: %w", scenario, err)
	}
	zostoga, err = l.driver(scenario, ensemble.Expansion, ensemble.DriverZOSTOGA)
	if err != nil {
		return tas, zostoga, fmt.Errorf("load %s: %w", scenario, err)
	}
	if tas.Form() != zostoga.Form() {
		return tas, zostoga, projerr.Configuration("scenario %s mixes %s-form temperature with %s-form expansion",
			scenario, tas.Form(), zostoga.Form())
	}
	logging.Get(logging.CategoryInput).Info("loaded %s drivers for %s (%d years)", tas.Form(), scenario, len(tas.Years))
	return tas, zostoga, nil
}

func (l *Loader) path(scenario string, q ensemble.Quantity, stat string) string {
	return filepath.Join(l.Dir, fmt.Sprintf("%s_%s_%s.nc", scenario, q, stat))
}

func (l *Loader) driver(scenario string, q ensemble.Quantity, name string) (ensemble.DriverInput, error) {
	models := l.path(scenario, q, statModels)
	if _, err := os.Stat(models); err == nil {
		return l.ensembleDriver(models, q, name)
	}

	mean, mYears, err := l.series(l.path(scenario, q, statMean), q)
	if err != nil {
		return ensemble.DriverInput{}, err
	}
	sd, sYears, err := l.series(l.path(scenario, q, statSD), q)
	if err != nil {
		return ensemble.DriverInput{}, err
	}
	if !slices.Equal(mYears, sYears) {
		return ensemble.DriverInput{}, projerr.Domain("mean and sd files cover different years").ForQuantity(name)
	}
	if err := checkMissing(mean, mYears, name); err != nil {
		return ensemble.DriverInput{}, err
	}
	if err := checkMissing(sd, sYears, name); err != nil {
		return ensemble.DriverInput{}, err
	}
	return ensemble.MomentInput(name, mYears, mean, sd), nil
}

// series reads a one-dimensional timeseries trimmed to the axis.
func (l *Loader) series(path string, q ensemble.Quantity) ([]float64, []int, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	years, err := f.years()
	if err != nil {
		return nil, nil, projerr.Domain("%v", err).ForQuantity(string(q))
	}
	n, err := l.span(years, path)
	if err != nil {
		return nil, nil, err
	}
	if dims := f.lengths(string(q)); len(dims) != 1 || dims[0] != len(years) {
		return nil, nil, projerr.Domain("%s: %s has shape %v, want [%d]", path, q, dims, len(years)).
			ForQuantity(string(q))
	}
	vals, err := f.floats(string(q))
	if err != nil {
		return nil, nil, err
	}
	return vals[:n], years[:n], nil
}

func (l *Loader) ensembleDriver(path string, q ensemble.Quantity, name string) (ensemble.DriverInput, error) {
	f, err := openInput(path)
	if err != nil {
		return ensemble.DriverInput{}, err
	}
	defer f.Close()

	years, err := f.years()
	if err != nil {
		return ensemble.DriverInput{}, projerr.Domain("%v", err).ForQuantity(name)
	}
	n, err := l.span(years, path)
	if err != nil {
		return ensemble.DriverInput{}, err
	}

	dims := f.lengths(string(q))
	if len(dims) != 2 || dims[1] != len(years) {
		return ensemble.DriverInput{}, projerr.Domain("%s: %s has shape %v, want [model %d]", path, q, dims, len(years)).
			ForQuantity(name)
	}
	list, ok := f.global(modelsAttr)
	if !ok {
		return ensemble.DriverInput{}, projerr.Domain("%s: missing %q attribute", path, modelsAttr).ForQuantity(name)
	}
	sources := strings.Split(list, ",")
	for i := range sources {
		sources[i] = strings.TrimSpace(sources[i])
	}
	if len(sources) != dims[0] {
		return ensemble.DriverInput{}, projerr.Domain("%s names %d models but holds %d", path, len(sources), dims[0]).
			ForQuantity(name)
	}

	vals, err := f.floats(string(q))
	if err != nil {
		return ensemble.DriverInput{}, err
	}
	nt := dims[1]
	values := make([][]float64, len(sources))
	for k := range sources {
		values[k] = vals[k*nt : k*nt+n]
		if err := checkMissing(values[k], years[:n], name); err != nil {
			return ensemble.DriverInput{}, fmt.Errorf("model %s: %w", sources[k], err)
		}
	}
	return ensemble.EnsembleInput(name, years[:n], sources, values), nil
}

// span checks that years is contiguous from the first axis year and covers
// the axis, and returns the axis length.
func (l *Loader) span(years []int, path string) (int, error) {
	if len(years) == 0 || years[0] != l.Axis.First() {
		first := 0
		if len(years) > 0 {
			first = years[0]
		}
		return 0, projerr.Domain("%s starts in %d, want %d", path, first, l.Axis.First()).ForParam("first_year")
	}
	for i := 1; i < len(years); i++ {
		if years[i] != years[i-1]+1 {
			return 0, projerr.Domain("%s: years are not contiguous", path).AtYear(years[i])
		}
	}
	n := l.Axis.Len()
	if len(years) < n {
		return 0, projerr.Domain("%s ends in %d, before %d", path, years[len(years)-1], l.Axis.Last()).
			ForParam("last_year")
	}
	return n, nil
}

func openInput(path string) (*ncFile, error) {
	f, err := open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, projerr.Configuration("input file %s does not exist", path)
	}
	if err != nil {
		return nil, projerr.Domain("%v", err)
	}
	return f, nil
}

func checkMissing(vals []float64, years []int, name string) error {
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return projerr.Domain("missing data").ForQuantity(name).AtYear(years[i])
		}
	}
	return nil
}
