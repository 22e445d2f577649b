package report

import (
	"fmt"
	"io"

	"github.com/vicanso/go-charts/v2"

	"collar-backtester/internal/models"
)

// RenderChart draws Total, Stock and Option P/L over time as a PNG.
func RenderChart(title string, curve models.EquityCurve) ([]byte, error) {
	if len(curve) == 0 {
		return nil, fmt.Errorf("no data points to chart")
	}

	labels := make([]string, len(curve))
	total := make([]float64, len(curve))
	stock := make([]float64, len(curve))
	option := make([]float64, len(curve))
	for i, p := range curve {
		labels[i] = p.Date.Format("Jan 02 '06")
		total[i] = p.TotalPL
		stock[i] = p.StockPL
		option[i] = p.OptionPL
	}

	splitNum := 6
	if len(labels) <= 30 {
		splitNum = len(labels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		[][]float64{total, stock, option},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.LegendLabelsOptionFunc([]string{"Total P/L", "Stock P/L", "Option P/L"}, charts.PositionRight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(500),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

// WriteChartFile renders the chart to dir/equity_curve.png and returns the path.
func WriteChartFile(dir, title string, curve models.EquityCurve) (string, error) {
	buf, err := RenderChart(title, curve)
	if err != nil {
		return "", err
	}
	return writeFile(dir, ChartFile, func(w io.Writer) error {
		_, err := w.Write(buf)
		return err
	})
}
