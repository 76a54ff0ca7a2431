// Package history manages historical daily closing prices: the sqlite-backed
// price store, the sync service that fills it, and the PriceTable handed to
// the analysis engine.
package history

import "fmt"

// DailyClose represents one closing price observation
type DailyClose struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Close  float64 `json:"close"`
}

// PriceTable is a time-indexed table of closing prices, one column per
// symbol. All columns share the same strictly increasing date index.
// Immutable once produced.
type PriceTable struct {
	Dates   []string
	Symbols []string
	Columns [][]float64 // Columns[i] holds Symbols[i]'s closes, len == len(Dates)
}

// Rows returns the number of time points.
func (pt *PriceTable) Rows() int {
	return len(pt.Dates)
}

// AssetCount returns the number of symbol columns.
func (pt *PriceTable) AssetCount() int {
	return len(pt.Symbols)
}

// Validate checks the table's structural invariants: matching column
// lengths, strictly increasing dates and positive closes.
func (pt *PriceTable) Validate() error {
	if len(pt.Columns) != len(pt.Symbols) {
		return fmt.Errorf("column count %d does not match symbol count %d", len(pt.Columns), len(pt.Symbols))
	}
	for i, col := range pt.Columns {
		if len(col) != len(pt.Dates) {
			return fmt.Errorf("column %s has %d rows, expected %d", pt.Symbols[i], len(col), len(pt.Dates))
		}
		for j, close := range col {
			if close <= 0 {
				return fmt.Errorf("non-positive close %g for %s at %s", close, pt.Symbols[i], pt.Dates[j])
			}
		}
	}
	for i := 1; i < len(pt.Dates); i++ {
		if pt.Dates[i] <= pt.Dates[i-1] {
			return fmt.Errorf("dates not strictly increasing at index %d (%s <= %s)", i, pt.Dates[i], pt.Dates[i-1])
		}
	}
	return nil
}
