// Package engine runs one Monte Carlo GMSLR projection: it samples the
// drivers, evaluates every contribution model, forms the composites and
// reduces each quantity to per-year statistics.
//
// A run is a pure function of its drivers, settings and seed. Any error
// aborts the run and no table is returned.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus"

	"gmslr/internal/aggregate"
	"gmslr/internal/contrib"
	"gmslr/internal/ensemble"
	"gmslr/internal/logging"
	"gmslr/internal/result"
	"gmslr/internal/stats"
)

// slowModel is the evaluation time above which a contribution model is
// logged as slow.
var slowModel = 30 * time.Second

// Request is one scenario's drivers.
type Request struct {
	Scenario    string
	Temperature ensemble.DriverInput
	Expansion   ensemble.DriverInput
}

// Result is the outcome of a successful run.
type Result struct {
	Table *result.Table
	// Ensembles holds every quantity's member × year values when
	// Settings.KeepEnsembles is set.
	Ensembles map[ensemble.Quantity]*ensemble.Ensemble
}

// Engine runs projections with fixed settings.
type Engine struct {
	settings Settings
	log      *logging.Logger
}

// New validates s and returns an engine that owns a copy of it.
func New(s Settings) (*Engine, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Engine{settings: s.Clone(), log: logging.Get(logging.CategoryEngine)}, nil
}

// Settings returns a copy of the engine's settings.
func (e *Engine) Settings() Settings { return e.settings.Clone() }

// Run projects one scenario.
func (e *Engine) Run(ctx context.Context, req Request) (res *Result, err error) {
	s := e.settings
	ctx, span := otel.Tracer("gmslr/engine").Start(ctx, "engine.Run",
		trace.WithAttributes(
			attribute.String("scenario", req.Scenario),
			attribute.Int("members", s.Members),
			attribute.Int("years", s.Axis.Len()),
			attribute.Int64("seed", s.Seed),
		))
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "run failed")
			runsTotal.WithLabelValues("error").Inc()
			return
		}
		runsTotal.WithLabelValues("ok").Inc()
	}()

	log := e.log.With(zap.String("scenario", req.Scenario))
	log.Info("projecting %d members over %d..%d", s.Members, s.Axis.First(), s.Axis.Last())

	mcfg, err := s.models(req.Scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", req.Scenario, err)
	}
	if mcfg.LevermannFit != "" {
		log.Info("using Levermann %s for antdyn", mcfg.LevermannFit)
	}

	sampler := ensemble.NewSampler(s.Seed)
	drivers, err := phase(ctx, phaseDrivers, func(ctx context.Context) (*ensemble.Drivers, error) {
		b := &ensemble.Builder{
			Axis:    s.Axis,
			Members: s.Members,
			Sampler: sampler,
			SDScale: s.SDScale,
			Workers: s.Workers,
		}
		return b.Build(ctx, req.Temperature, req.Expansion)
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", req.Scenario, err)
	}
	membersSampled.Add(float64(s.Members))
	log.Debug("drivers sampled in %s form", drivers.Form)

	plan := contrib.Plan(mcfg)
	uniform := make(map[ensemble.Quantity]bool, len(plan))
	contributions, err := phase(ctx, phaseModels, func(ctx context.Context) (map[ensemble.Quantity]*ensemble.Ensemble, error) {
		in := contrib.Inputs{Drivers: drivers, Sampler: sampler, Config: mcfg}
		out := make(map[ensemble.Quantity]*ensemble.Ensemble, len(plan))
		for _, m := range plan {
			timer := logging.StartTimer(logging.CategoryModels, m.String())
			ens, err := contrib.Evaluate(ctx, m, in)
			if err != nil {
				return nil, err
			}
			timer.StopWithThreshold(slowModel)
			out[m.Quantity] = ens
			uniform[m.Quantity] = m.Uniform()
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", req.Scenario, err)
	}

	all, err := phase(ctx, phaseAggregate, func(ctx context.Context) (map[ensemble.Quantity]*ensemble.Ensemble, error) {
		return aggregate.Build(ctx, contributions, s.Workers)
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", req.Scenario, err)
	}

	series, err := phase(ctx, phaseReduce, func(ctx context.Context) ([]result.Series, error) {
		ordered := make([]*ensemble.Ensemble, 0, len(ensemble.ReportOrder))
		for _, q := range ensemble.ReportOrder {
			ordered = append(ordered, all[q])
		}
		return stats.ReduceAll(ctx, ordered, func(q ensemble.Quantity) bool { return uniform[q] }, s.Workers)
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", req.Scenario, err)
	}

	meta := result.Meta{
		Scenario:     req.Scenario,
		Seed:         s.Seed,
		Members:      s.Members,
		Glacier:      string(mcfg.Glacier),
		AntDyn:       string(mcfg.AntDyn),
		LevermannFit: mcfg.LevermannFit,
		Form:         drivers.Form.String(),
	}
	table, err := result.NewTable(meta, series)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", req.Scenario, err)
	}

	res = &Result{Table: table}
	if s.KeepEnsembles {
		res.Ensembles = all
	}
	if final, ok := table.Final(ensemble.GMSLR); ok {
		log.Info("GMSLR %d: %.3f [%.3f to %.3f] m", s.Axis.Last(), final.Median, final.Low, final.High)
	}
	return res, nil
}

// phase runs fn inside a child span and records its duration.
func phase[T any](ctx context.Context, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := otel.Tracer("gmslr/engine").Start(ctx, "engine."+name)
	defer span.End()
	timer := prometheus.NewTimer(phaseDuration.WithLabelValues(name))
	defer timer.ObserveDuration()

	v, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
	}
	return v, err
}
