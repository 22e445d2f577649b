// Package portfolio loads and validates portfolio configuration files.
package portfolio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"collar-backtester/internal/errors"
	"collar-backtester/internal/models"
)

// File is the on-disk JSON form of a portfolio.
type File struct {
	Ticker          string           `json:"ticker"`
	ShareQty        int              `json:"share_qty"`
	StartingCapital *decimal.Decimal `json:"starting_capital,omitempty"`
	StartDate       string           `json:"start_date,omitempty"`
	EndDate         string           `json:"end_date,omitempty"`
	Legs            []LegFile        `json:"legs"`
}

// LegFile is the on-disk JSON form of an option leg.
type LegFile struct {
	Side      string          `json:"side"`
	Type      string          `json:"type"`
	Strike    decimal.Decimal `json:"strike"`
	Premium   decimal.Decimal `json:"premium"`
	Quantity  int             `json:"qty"`
	TradeDate string          `json:"trade_date"`
	Expiry    string          `json:"expiry"`
}

// Load reads and validates a portfolio file.
func Load(path string) (models.PortfolioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.PortfolioConfig{}, errors.Wrapf(errors.ErrConfiguration, "failed to read portfolio %s: %v", path, err)
	}
	return Parse(data)
}

// Parse decodes a portfolio document and validates it.
// Every violation found is reported in one ValidationErrors value.
func Parse(data []byte) (models.PortfolioConfig, error) {
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return models.PortfolioConfig{}, err
	}
	return f.Config()
}

// Decode decodes a portfolio document without converting it.
func Decode(r io.Reader) (*File, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "invalid portfolio JSON: %v", err)
	}
	return &f, nil
}

// Config converts the file into a validated PortfolioConfig.
func (f *File) Config() (models.PortfolioConfig, error) {
	var errs errors.ValidationErrors

	cfg := models.PortfolioConfig{
		Ticker:   strings.ToUpper(strings.TrimSpace(f.Ticker)),
		ShareQty: f.ShareQty,
	}
	if f.StartingCapital != nil {
		cfg.StartingCapital = f.StartingCapital.InexactFloat64()
	}
	cfg.StartDate = parseOptionalDate("start_date", f.StartDate, &errs)
	cfg.EndDate = parseOptionalDate("end_date", f.EndDate, &errs)

	for i, lf := range f.Legs {
		field := fmt.Sprintf("legs[%d]", i)
		leg := models.OptionLeg{
			Side:     models.Side(strings.ToLower(strings.TrimSpace(lf.Side))),
			Type:     models.OptionType(strings.ToLower(strings.TrimSpace(lf.Type))),
			Strike:   lf.Strike.InexactFloat64(),
			Premium:  lf.Premium.InexactFloat64(),
			Quantity: lf.Quantity,
		}
		leg.TradeDate = parseRequiredDate(field+".trade_date", lf.TradeDate, &errs)
		leg.ExpiryDate = parseRequiredDate(field+".expiry", lf.Expiry, &errs)
		cfg.Legs = append(cfg.Legs, leg)
	}

	reported := make(map[string]bool, len(errs))
	for _, e := range errs {
		reported[e.Field] = true
	}
	for _, e := range validate(cfg) {
		if !reported[e.Field] {
			errs = append(errs, e)
		}
	}
	if err := errs.OrNil(); err != nil {
		return models.PortfolioConfig{}, err
	}
	return cfg, nil
}

// FromConfig builds the file form of a configuration.
func FromConfig(cfg models.PortfolioConfig) *File {
	f := &File{
		Ticker:   cfg.Ticker,
		ShareQty: cfg.ShareQty,
	}
	if cfg.StartingCapital != 0 {
		c := decimal.NewFromFloat(cfg.StartingCapital)
		f.StartingCapital = &c
	}
	if !cfg.StartDate.IsZero() {
		f.StartDate = cfg.StartDate.Format(models.DateLayout)
	}
	if !cfg.EndDate.IsZero() {
		f.EndDate = cfg.EndDate.Format(models.DateLayout)
	}
	for _, leg := range cfg.Legs {
		f.Legs = append(f.Legs, LegFile{
			Side:      string(leg.Side),
			Type:      string(leg.Type),
			Strike:    decimal.NewFromFloat(leg.Strike),
			Premium:   decimal.NewFromFloat(leg.Premium),
			Quantity:  leg.Quantity,
			TradeDate: leg.TradeDate.Format(models.DateLayout),
			Expiry:    leg.ExpiryDate.Format(models.DateLayout),
		})
	}
	return f
}

// Write encodes the file as indented JSON.
func (f *File) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

func parseOptionalDate(field, value string, errs *errors.ValidationErrors) (t time.Time) {
	if strings.TrimSpace(value) == "" {
		return t
	}
	return parseRequiredDate(field, value, errs)
}

// parseRequiredDate leaves a missing date zero for validate to report.
func parseRequiredDate(field, value string, errs *errors.ValidationErrors) time.Time {
	if strings.TrimSpace(value) == "" {
		return time.Time{}
	}
	d, err := models.ParseDate(value)
	if err != nil {
		*errs = append(*errs, errors.NewValidationError(field, value, "expected YYYY-MM-DD"))
		return time.Time{}
	}
	return d
}
