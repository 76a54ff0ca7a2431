// Package charts renders PNG charts of simulation and optimization results.
package charts

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vicanso/go-charts/v2"

	"github.com/aristath/frontier/internal/modules/frontier"
	"github.com/aristath/frontier/internal/modules/history"
)

// Service renders charts from engine output
type Service struct {
	log zerolog.Logger
}

// NewService creates a new charts service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "charts").Logger(),
	}
}

// FrontierLine renders the sampled frontier as annual return over annual
// volatility. Points must already be sorted by volatility, as the frontier
// service stores them.
func (s *Service) FrontierLine(summary *frontier.SimulationSummary) ([]byte, error) {
	if summary == nil || len(summary.Points) < 2 {
		return nil, fmt.Errorf("not enough frontier points to chart")
	}

	xLabels := make([]string, len(summary.Points))
	returns := make([]float64, len(summary.Points))
	for i, p := range summary.Points {
		xLabels[i] = fmt.Sprintf("%.3f", p.Volatility)
		returns[i] = p.Return
	}

	subtitle := fmt.Sprintf("%s • max Sharpe %.2f", strings.Join(summary.Params.Symbols, ", "), summary.MaxSharpe.Performance.Sharpe)

	painter, err := charts.LineRender([][]float64{returns},
		charts.TitleTextOptionFunc("Efficient Frontier", subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: 10}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render frontier chart: %w", err)
	}

	return painter.Bytes()
}

// AllocationPie renders the optimal weight vector as a pie chart. Assets with
// a negligible weight are dropped from the legend.
func (s *Service) AllocationPie(symbols []string, weights []float64) ([]byte, error) {
	if len(symbols) == 0 || len(symbols) != len(weights) {
		return nil, fmt.Errorf("%d symbols for %d weights", len(symbols), len(weights))
	}

	var values []float64
	var labels []string
	for i, w := range weights {
		if w < 0.001 {
			continue
		}
		values = append(values, w*100)
		labels = append(labels, fmt.Sprintf("%s: %.1f%%", symbols[i], w*100))
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("all weights are negligible")
	}

	painter, err := charts.PieRender(values,
		charts.TitleTextOptionFunc("Optimal Allocation"),
		charts.LegendOptionFunc(charts.LegendOption{Data: labels, Left: charts.PositionLeft}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render allocation chart: %w", err)
	}

	return painter.Bytes()
}

// PriceLines renders each symbol's closes rebased to 100 at the first date,
// so differently priced assets share one axis.
func (s *Service) PriceLines(table *history.PriceTable) ([]byte, error) {
	if table == nil || table.Rows() < 2 || table.AssetCount() == 0 {
		return nil, fmt.Errorf("not enough price history to chart")
	}

	values := make([][]float64, table.AssetCount())
	for i, col := range table.Columns {
		base := col[0]
		rebased := make([]float64, len(col))
		for j, v := range col {
			rebased[j] = v / base * 100
		}
		values[i] = rebased
	}

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = table.Symbols[i]
	}

	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc("Price History", "rebased to 100"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: table.Dates, BoundaryGap: charts.FalseFlag(), SplitNumber: 10}),
		charts.LegendOptionFunc(charts.LegendOption{Data: table.Symbols}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render price chart: %w", err)
	}

	return painter.Bytes()
}
