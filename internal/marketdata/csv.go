package marketdata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"collar-backtester/internal/errors"
	"collar-backtester/internal/models"
	"collar-backtester/internal/store"
)

// PriceRow is one line of a daily price file. Adj Close wins over Close when present.
type PriceRow struct {
	Date     string `csv:"Date"`
	Close    string `csv:"Close"`
	AdjClose string `csv:"Adj Close"`
}

// DividendRow is one line of a dividend file.
type DividendRow struct {
	Date     string `csv:"Date"`
	Dividend string `csv:"Dividends"`
}

// RateRow is one line of a rate file. Rates are quoted in percent.
type RateRow struct {
	Date string `csv:"Date"`
	Rate string `csv:"Rate"`
}

// ReadPrices decodes a price CSV.
func ReadPrices(r io.Reader) ([]models.Observation, error) {
	var rows []*PriceRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decoding prices: %w", err)
	}
	obs := make([]models.Observation, 0, len(rows))
	for i, row := range rows {
		raw := row.AdjClose
		if strings.TrimSpace(raw) == "" {
			raw = row.Close
		}
		o, ok, err := parseRow(row.Date, raw)
		if err != nil {
			return nil, fmt.Errorf("prices line %d: %w", i+2, err)
		}
		if ok {
			obs = append(obs, o)
		}
	}
	return obs, nil
}

// ReadDividends decodes a dividend CSV.
func ReadDividends(r io.Reader) ([]models.Observation, error) {
	var rows []*DividendRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decoding dividends: %w", err)
	}
	obs := make([]models.Observation, 0, len(rows))
	for i, row := range rows {
		o, ok, err := parseRow(row.Date, row.Dividend)
		if err != nil {
			return nil, fmt.Errorf("dividends line %d: %w", i+2, err)
		}
		if ok {
			obs = append(obs, o)
		}
	}
	return obs, nil
}

// ReadRates decodes a rate CSV and converts percent quotes to fractions.
func ReadRates(r io.Reader) ([]models.Observation, error) {
	var rows []*RateRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decoding rates: %w", err)
	}
	obs := make([]models.Observation, 0, len(rows))
	for i, row := range rows {
		o, ok, err := parseRow(row.Date, row.Rate)
		if err != nil {
			return nil, fmt.Errorf("rates line %d: %w", i+2, err)
		}
		if ok {
			o.Value /= 100
			obs = append(obs, o)
		}
	}
	return obs, nil
}

// parseRow parses a date and value. Blank and "." values (FRED holidays) are skipped.
func parseRow(date, value string) (models.Observation, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "." || strings.EqualFold(value, "null") {
		return models.Observation{}, false, nil
	}
	d, err := models.ParseDate(date)
	if err != nil {
		return models.Observation{}, false, err
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return models.Observation{}, false, fmt.Errorf("invalid value %q", value)
	}
	return models.Observation{Date: d, Value: v}, true, nil
}

// WriteSeries writes observations in the CSV layout ReadPrices, ReadDividends
// or ReadRates accepts for the given kind.
func WriteSeries(w io.Writer, kind string, obs []models.Observation) error {
	switch kind {
	case store.KindPrice:
		rows := make([]*PriceRow, len(obs))
		for i, o := range obs {
			v := formatValue(o.Value)
			rows[i] = &PriceRow{Date: o.Date.Format(models.DateLayout), Close: v, AdjClose: v}
		}
		return gocsv.Marshal(rows, w)
	case store.KindDividend:
		rows := make([]*DividendRow, len(obs))
		for i, o := range obs {
			rows[i] = &DividendRow{Date: o.Date.Format(models.DateLayout), Dividend: formatValue(o.Value)}
		}
		return gocsv.Marshal(rows, w)
	case store.KindRate:
		rows := make([]*RateRow, len(obs))
		for i, o := range obs {
			rows[i] = &RateRow{Date: o.Date.Format(models.DateLayout), Rate: formatValue(o.Value * 100)}
		}
		return gocsv.Marshal(rows, w)
	}
	return fmt.Errorf("unknown series kind %q", kind)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CSVSource reads series from a directory of files:
// TICKER.csv, TICKER_dividends.csv and RATESERIES.csv.
type CSVSource struct {
	dir string
}

// NewCSVSource creates a source over dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Name returns the source name.
func (s *CSVSource) Name() string { return "csv" }

// Path returns the file holding a series.
func (s *CSVSource) Path(kind, symbol string) string {
	name := strings.ToUpper(symbol)
	if kind == store.KindDividend {
		name += "_dividends"
	}
	return filepath.Join(s.dir, name+".csv")
}

// Fetch reads a series and keeps observations dated in [from, to].
// A missing dividend file means no dividends were paid.
func (s *CSVSource) Fetch(ctx context.Context, kind, symbol string, from, to time.Time) ([]models.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(kind, symbol)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && kind == store.KindDividend {
			return nil, nil
		}
		return nil, errors.NewDataError(symbol, time.Time{}, "reading "+path, err)
	}

	var obs []models.Observation
	r := bytes.NewReader(data)
	switch kind {
	case store.KindPrice:
		obs, err = ReadPrices(r)
	case store.KindDividend:
		obs, err = ReadDividends(r)
	case store.KindRate:
		obs, err = ReadRates(r)
	default:
		err = fmt.Errorf("unknown series kind %q", kind)
	}
	if err != nil {
		return nil, errors.NewDataError(symbol, time.Time{}, path, err)
	}
	return clip(obs, from, to), nil
}

// Save writes a series to the file Fetch would read it from.
func (s *CSVSource) Save(kind, symbol string, obs []models.Observation) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	path := s.Path(kind, symbol)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteSeries(f, kind, obs); err != nil {
		return "", err
	}
	return path, f.Close()
}

// clip keeps observations dated in [from, to]. Zero bounds are open.
func clip(obs []models.Observation, from, to time.Time) []models.Observation {
	out := obs[:0:0]
	for _, o := range obs {
		if !from.IsZero() && o.Date.Before(from) {
			continue
		}
		if !to.IsZero() && o.Date.After(to) {
			continue
		}
		out = append(out, o)
	}
	return out
}
