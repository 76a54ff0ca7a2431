package frontier

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/analysis"
	"github.com/aristath/frontier/internal/modules/history"
)

// maxChartPoints caps the frontier cloud stored per run; the full cloud is
// only needed transiently to locate the named portfolios.
const maxChartPoints = 2000

// PriceProvider supplies aligned price tables
type PriceProvider interface {
	GetPriceTable(symbols []string, lookbackDays int) (*history.PriceTable, error)
}

// Config holds engine defaults applied when a request leaves them unset
type Config struct {
	Symbols            []string
	Trials             int
	Seed               int64
	LookbackDays       int
	TradingDaysPerYear int
}

// Service runs simulations and optimizations against stored price history
type Service struct {
	prices    PriceProvider
	runs      *RunRepository
	optimizer *analysis.Optimizer
	cfg       Config
	log       zerolog.Logger
}

// NewService creates a new frontier service
func NewService(prices PriceProvider, runs *RunRepository, optimizer *analysis.Optimizer, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		prices:    prices,
		runs:      runs,
		optimizer: optimizer,
		cfg:       cfg,
		log:       log.With().Str("service", "frontier").Logger(),
	}
}

// Simulate runs a Monte Carlo frontier simulation and records the run.
// Zero-valued params fall back to the configured defaults; a zero seed draws
// a time-based one so repeated calls explore different clouds.
func (s *Service) Simulate(ctx context.Context, params SimulationParams) (*SimulationSummary, error) {
	s.applySimulationDefaults(&params)

	returns, err := s.loadReturns(ctx, params.Symbols, params.LookbackDays)
	if err != nil {
		return nil, err
	}

	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	started := time.Now()
	result, err := analysis.Sample(returns, params.Trials, s.cfg.TradingDaysPerYear, rng)
	if err != nil {
		return nil, fmt.Errorf("simulation failed: %w", err)
	}

	params.Seed = seed
	summary := buildSimulationSummary(params, returns.PeriodCount(), result)
	summary.RunID = uuid.New().String()

	if err := s.recordRun(summary.RunID, KindSimulate, params.Symbols, params, summary); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("run_id", summary.RunID).
		Int("trials", params.Trials).
		Int64("seed", seed).
		Dur("elapsed", time.Since(started)).
		Float64("max_sharpe", summary.MaxSharpe.Performance.Sharpe).
		Msg("Simulation finished")

	return summary, nil
}

// Optimize runs the max-Sharpe optimizer and records the run.
func (s *Service) Optimize(ctx context.Context, params OptimizationParams) (*OptimizationSummary, error) {
	if len(params.Symbols) == 0 {
		params.Symbols = s.cfg.Symbols
	}
	if params.LookbackDays <= 0 {
		params.LookbackDays = s.cfg.LookbackDays
	}

	returns, err := s.loadReturns(ctx, params.Symbols, params.LookbackDays)
	if err != nil {
		return nil, err
	}

	result, err := s.optimizer.Optimize(returns, s.cfg.TradingDaysPerYear, params.Initial)
	if err != nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}

	summary := &OptimizationSummary{
		RunID:        uuid.New().String(),
		Params:       params,
		Observations: returns.PeriodCount(),
		Result:       result,
	}

	if err := s.recordRun(summary.RunID, KindOptimize, params.Symbols, params, summary); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("run_id", summary.RunID).
		Str("status", string(result.Status)).
		Float64("sharpe", result.Performance.Sharpe).
		Msg("Optimization finished")

	return summary, nil
}

// GetRun returns a stored run, or nil when the ID is unknown.
func (s *Service) GetRun(id string) (*Run, error) {
	return s.runs.Get(id)
}

// ListRuns returns the most recent runs.
func (s *Service) ListRuns(limit int) ([]Run, error) {
	return s.runs.List(limit)
}

func (s *Service) applySimulationDefaults(params *SimulationParams) {
	if len(params.Symbols) == 0 {
		params.Symbols = s.cfg.Symbols
	}
	if params.Trials == 0 {
		params.Trials = s.cfg.Trials
	}
	if params.Seed == 0 {
		params.Seed = s.cfg.Seed
	}
	if params.LookbackDays <= 0 {
		params.LookbackDays = s.cfg.LookbackDays
	}
}

func (s *Service) loadReturns(ctx context.Context, symbols []string, lookbackDays int) (*analysis.ReturnTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prices, err := s.prices.GetPriceTable(symbols, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}

	returns, err := analysis.LogReturns(prices)
	if err != nil {
		return nil, fmt.Errorf("failed to compute returns: %w", err)
	}

	return returns, nil
}

func (s *Service) recordRun(id, kind string, symbols []string, params, result interface{}) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal run params: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal run result: %w", err)
	}

	return s.runs.Save(&Run{
		ID:      id,
		Kind:    kind,
		Symbols: symbols,
		Params:  string(paramsJSON),
		Result:  string(resultJSON),
	})
}

// buildSimulationSummary extracts the named portfolios and a volatility-sorted
// chart cloud from a raw simulation result.
func buildSimulationSummary(params SimulationParams, observations int, result *analysis.SimulationResult) *SimulationSummary {
	summary := &SimulationSummary{
		Params:       params,
		Observations: observations,
	}

	if result.Trials() == 0 {
		summary.Points = []FrontierPoint{}
		return summary
	}

	// Degenerate samples report Sharpe 0 as a placeholder, so they only win
	// the max-Sharpe slot when the whole cloud is degenerate.
	bestSharpe, minVol := 0, 0
	for i, perf := range result.Performances {
		best := result.Performances[bestSharpe]
		if (best.Degenerate && !perf.Degenerate) || (perf.Degenerate == best.Degenerate && perf.Sharpe > best.Sharpe) {
			bestSharpe = i
		}
		if perf.AnnualVolatility < result.Performances[minVol].AnnualVolatility {
			minVol = i
		}
	}

	summary.MaxSharpe = PortfolioPoint{
		Weights:     result.Weights[bestSharpe],
		Performance: result.Performances[bestSharpe],
	}
	summary.MinVolatility = PortfolioPoint{
		Weights:     result.Weights[minVol],
		Performance: result.Performances[minVol],
	}

	points := make([]FrontierPoint, result.Trials())
	for i, perf := range result.Performances {
		points[i] = FrontierPoint{
			Volatility: perf.AnnualVolatility,
			Return:     perf.AnnualReturn,
			Sharpe:     perf.Sharpe,
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Volatility < points[j].Volatility })

	// Downsample evenly, keeping the first and last point
	if len(points) > maxChartPoints {
		step := float64(len(points)-1) / float64(maxChartPoints-1)
		sampled := make([]FrontierPoint, maxChartPoints)
		for i := 0; i < maxChartPoints; i++ {
			sampled[i] = points[int(float64(i)*step)]
		}
		sampled[maxChartPoints-1] = points[len(points)-1]
		points = sampled
	}
	summary.Points = points

	return summary
}
