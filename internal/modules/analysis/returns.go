package analysis

import (
	"fmt"
	"math"

	"github.com/aristath/frontier/internal/modules/history"
)

// LogReturns converts a price table into a log-return table by differencing
// consecutive rows: ln(p_t / p_{t-1}). The output is one row shorter than
// the input. Pure function of its input.
func LogReturns(prices *history.PriceTable) (*ReturnTable, error) {
	if prices == nil {
		return nil, fmt.Errorf("%w: nil price table", ErrShapeMismatch)
	}
	if prices.Rows() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 price rows to compute a return, got %d", ErrShapeMismatch, prices.Rows())
	}
	if err := prices.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	assets := make([]string, prices.AssetCount())
	copy(assets, prices.Symbols)

	columns := make([][]float64, prices.AssetCount())
	for i, closes := range prices.Columns {
		returns := make([]float64, len(closes)-1)
		for t := 1; t < len(closes); t++ {
			returns[t-1] = math.Log(closes[t] / closes[t-1])
		}
		columns[i] = returns
	}

	return &ReturnTable{Assets: assets, Columns: columns}, nil
}
