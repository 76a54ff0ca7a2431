// Package frontier orchestrates the portfolio engine: it assembles price
// tables, runs Monte Carlo frontier simulations and max-Sharpe optimizations,
// and records every run.
package frontier

import (
	"github.com/aristath/frontier/internal/modules/analysis"
)

// Run kinds as stored in the runs table
const (
	KindSimulate = "simulate"
	KindOptimize = "optimize"
)

// Run is one recorded engine invocation
type Run struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Symbols   []string `json:"symbols"`
	Params    string   `json:"params"`
	Result    string   `json:"result"`
	CreatedAt string   `json:"created_at"`
}

// FrontierPoint is one sampled portfolio in risk/return space
type FrontierPoint struct {
	Volatility float64 `json:"volatility"`
	Return     float64 `json:"return"`
	Sharpe     float64 `json:"sharpe"`
}

// PortfolioPoint pairs a weight vector with its performance
type PortfolioPoint struct {
	Weights     []float64            `json:"weights"`
	Performance analysis.Performance `json:"performance"`
}

// SimulationParams are the inputs of a simulation run
type SimulationParams struct {
	Symbols      []string `json:"symbols"`
	Trials       int      `json:"trials"`
	Seed         int64    `json:"seed"`
	LookbackDays int      `json:"lookback_days"`
}

// SimulationSummary is the recorded outcome of a Monte Carlo frontier run.
// Points carries a volatility-sorted, downsampled view of the cloud for
// charting; the two named portfolios are exact.
type SimulationSummary struct {
	RunID         string           `json:"run_id"`
	Params        SimulationParams `json:"params"`
	Observations  int              `json:"observations"`
	MaxSharpe     PortfolioPoint   `json:"max_sharpe"`
	MinVolatility PortfolioPoint   `json:"min_volatility"`
	Points        []FrontierPoint  `json:"points"`
}

// OptimizationParams are the inputs of an optimization run
type OptimizationParams struct {
	Symbols      []string  `json:"symbols"`
	Initial      []float64 `json:"initial,omitempty"`
	LookbackDays int       `json:"lookback_days"`
}

// OptimizationSummary is the recorded outcome of a max-Sharpe run
type OptimizationSummary struct {
	RunID        string                       `json:"run_id"`
	Params       OptimizationParams           `json:"params"`
	Observations int                          `json:"observations"`
	Result       *analysis.OptimizationResult `json:"result"`
}
