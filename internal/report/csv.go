// Package report writes run artifacts: the equity curve CSV, a metrics
// document, an optional chart and the printed summaries.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"collar-backtester/internal/models"
)

// Artifact file names inside the output directory.
const (
	CurveFile   = "equity_curve.csv"
	MetricsFile = "metrics.json"
	ChartFile   = "equity_curve.png"
)

// CurveRow is one line of the equity curve CSV.
type CurveRow struct {
	Date        string `csv:"Date"`
	StockPL     string `csv:"Stock_PL"`
	OptionPL    string `csv:"Option_PL"`
	TotalPL     string `csv:"Total_PL"`
	DailyChange string `csv:"Daily_Change"`
	Equity      string `csv:"Equity"`
}

// WriteCurve writes the curve with columns
// Date,Stock_PL,Option_PL,Total_PL,Daily_Change,Equity.
func WriteCurve(w io.Writer, curve models.EquityCurve) error {
	rows := make([]*CurveRow, len(curve))
	for i, p := range curve {
		rows[i] = &CurveRow{
			Date:        p.Date.Format(models.DateLayout),
			StockPL:     formatAmount(p.StockPL),
			OptionPL:    formatAmount(p.OptionPL),
			TotalPL:     formatAmount(p.TotalPL),
			DailyChange: formatAmount(p.DailyChange),
			Equity:      formatAmount(p.Equity),
		}
	}
	if len(rows) == 0 {
		_, err := io.WriteString(w, "Date,Stock_PL,Option_PL,Total_PL,Daily_Change,Equity\n")
		return err
	}
	return gocsv.Marshal(rows, w)
}

// ReadCurve parses a curve written by WriteCurve.
func ReadCurve(r io.Reader) (models.EquityCurve, error) {
	var rows []*CurveRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decoding equity curve: %w", err)
	}
	curve := make(models.EquityCurve, len(rows))
	for i, row := range rows {
		d, err := models.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		p := models.EquityPoint{Date: d}
		for _, f := range []struct {
			raw string
			dst *float64
		}{
			{row.StockPL, &p.StockPL},
			{row.OptionPL, &p.OptionPL},
			{row.TotalPL, &p.TotalPL},
			{row.DailyChange, &p.DailyChange},
			{row.Equity, &p.Equity},
		} {
			if *f.dst, err = strconv.ParseFloat(f.raw, 64); err != nil {
				return nil, fmt.Errorf("line %d: invalid value %q", i+2, f.raw)
			}
		}
		curve[i] = p
	}
	return curve, nil
}

// WriteCurveFile writes the curve to dir/equity_curve.csv and returns the path.
func WriteCurveFile(dir string, curve models.EquityCurve) (string, error) {
	return writeFile(dir, CurveFile, func(w io.Writer) error {
		return WriteCurve(w, curve)
	})
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
