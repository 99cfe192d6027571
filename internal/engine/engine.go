// Package engine runs the projection and forecast pipelines over a loaded
// configuration and collects the results into a report.
package engine

import (
	"fmt"
	"time"

	"github.com/iwvelando/finance-projection/internal/config"
	"github.com/iwvelando/finance-projection/internal/forecast"
	"github.com/iwvelando/finance-projection/internal/insight"
	"github.com/iwvelando/finance-projection/internal/projection"
	"github.com/iwvelando/finance-projection/internal/summary"
	"github.com/iwvelando/finance-projection/pkg/adapters"
	"github.com/iwvelando/finance-projection/pkg/output"
	"go.uber.org/zap"
)

// Engine wires the calculator, generator and insight thresholds together.
type Engine struct {
	logger     *zap.Logger
	calculator *projection.Calculator
	generator  *forecast.Generator
	insights   insight.Options
	runs       *forecast.Registry
	now        func() time.Time
}

// New creates an engine tuned by cfg. Unset tunables keep their defaults.
// If logger is nil, it will use a no-op logger to prevent panics.
func New(logger *zap.Logger, cfg config.EngineConfig) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	var genOpts []forecast.GeneratorOption
	if cfg.DefaultConfidence.Valid {
		genOpts = append(genOpts, forecast.WithDefaultConfidence(cfg.DefaultConfidence.Decimal))
	}

	opts := insight.DefaultOptions()
	if cfg.LowMarginThreshold.Valid {
		opts.LowMarginThreshold = cfg.LowMarginThreshold.Decimal
	}
	if cfg.HealthyMarginThreshold.Valid {
		opts.HealthyMarginThreshold = cfg.HealthyMarginThreshold.Decimal
	}

	return &Engine{
		logger:     logger,
		calculator: projection.NewCalculator(logger),
		generator:  forecast.NewGenerator(logger, genOpts...),
		insights:   opts,
		runs:       forecast.NewRegistry(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// InsightOptions returns the thresholds the engine derives insights with.
func (e *Engine) InsightOptions() insight.Options {
	return e.insights
}

// Runs returns the registry holding the latest run per forecast source.
func (e *Engine) Runs() *forecast.Registry {
	return e.runs
}

// Metrics computes the metrics of an already built scenario.
func (e *Engine) Metrics(scenario projection.Scenario, opts ...projection.Option) (projection.Metrics, error) {
	metrics, err := e.calculator.ComputeMetrics(&scenario, opts...)
	if err != nil {
		return projection.Metrics{}, err
	}
	if warn := metrics.IRRWarning(); warn != nil {
		e.logger.Warn("irr is an approximation",
			zap.String("op", "engine.Metrics"),
			zap.String("scenario", scenario.Name),
			zap.Error(warn),
		)
	}
	return metrics, nil
}

// Scenario builds and evaluates one configured scenario.
func (e *Engine) Scenario(s config.Scenario) (output.ScenarioReport, error) {
	scenario, err := adapters.ScenarioFromConfig(s)
	if err != nil {
		return output.ScenarioReport{}, err
	}
	metrics, err := e.Metrics(scenario, adapters.ProjectionOptions(s)...)
	if err != nil {
		return output.ScenarioReport{}, err
	}
	return output.ScenarioReport{
		Name:           scenario.Name,
		Type:           scenario.Type,
		Metrics:        metrics,
		TotalRevenue:   scenario.Series.TotalRevenue(),
		TotalCost:      scenario.Series.TotalCost(),
		TotalNetProfit: scenario.Series.TotalNetProfit(),
	}, nil
}

// Forecast generates the forecast, derives its insights and summaries and
// records the run as the latest for its source.
func (e *Engine) Forecast(req adapters.ForecastRequest) (output.ForecastReport, error) {
	seq, err := e.generator.Generate(req.Historical, req.Method, req.Horizon)
	if err != nil {
		return output.ForecastReport{}, fmt.Errorf("forecast %q: %w", req.Name, err)
	}

	run := forecast.NewRunAt(req.Name, seq, e.now())
	report, err := e.Describe(run)
	if err != nil {
		return output.ForecastReport{}, fmt.Errorf("forecast %q: %w", req.Name, err)
	}

	if !e.runs.Put(run) {
		e.logger.Debug("discarded stale forecast run",
			zap.String("op", "engine.Forecast"),
			zap.String("source", req.Name),
			zap.String("run", run.ID.String()),
		)
	}
	return report, nil
}

// Describe derives the insights and summaries of a materialized run.
func (e *Engine) Describe(run forecast.Run) (output.ForecastReport, error) {
	historical := run.Historical
	report := output.ForecastReport{
		Name:     run.Source,
		Run:      run,
		Insights: insight.DeriveWithOptions(run.Results, &historical, e.insights),
		Annual:   summary.Annual(run.Results),
	}
	if len(run.Results) == 0 {
		return report, nil
	}

	first := run.Results[0]
	yearly, err := summary.Yearly(run.Results, first.Year, first.Month)
	if err != nil {
		return output.ForecastReport{}, err
	}
	report.Yearly = yearly
	return report, nil
}

// Report evaluates every active scenario and every forecast of the
// configuration. The first failure aborts the run.
func (e *Engine) Report(conf *config.Configuration) (output.Report, error) {
	var report output.Report

	for _, s := range conf.ActiveScenarios() {
		sr, err := e.Scenario(s)
		if err != nil {
			return output.Report{}, err
		}
		report.Scenarios = append(report.Scenarios, sr)
	}

	for _, f := range conf.Forecasts {
		req, err := adapters.ForecastFromConfig(f)
		if err != nil {
			return output.Report{}, err
		}
		fr, err := e.Forecast(req)
		if err != nil {
			return output.Report{}, err
		}
		report.Forecasts = append(report.Forecasts, fr)
	}

	e.logger.Info("report computed",
		zap.String("op", "engine.Report"),
		zap.Int("scenarios", len(report.Scenarios)),
		zap.Int("forecasts", len(report.Forecasts)),
	)
	return report, nil
}
