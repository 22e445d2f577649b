package portfolio

import (
	"fmt"

	"collar-backtester/internal/errors"
	"collar-backtester/internal/models"
)

// Validate checks a portfolio and returns every violation, or nil.
func Validate(cfg models.PortfolioConfig) error {
	return validate(cfg).OrNil()
}

func validate(cfg models.PortfolioConfig) errors.ValidationErrors {
	var errs errors.ValidationErrors
	add := func(field string, value interface{}, msg string) {
		errs = append(errs, errors.NewValidationError(field, value, msg))
	}

	if cfg.Ticker == "" {
		add("ticker", cfg.Ticker, "ticker is required")
	}
	if cfg.ShareQty < 0 {
		add("share_qty", cfg.ShareQty, "share quantity cannot be negative")
	}
	if cfg.StartingCapital < 0 {
		add("starting_capital", cfg.StartingCapital, "starting capital cannot be negative")
	}
	if len(cfg.Legs) == 0 {
		add("legs", 0, "at least one option leg is required")
	}

	for i, leg := range cfg.Legs {
		field := fmt.Sprintf("legs[%d]", i)
		if !leg.Side.Valid() {
			add(field+".side", leg.Side, "must be long or short")
		}
		if !leg.Type.Valid() {
			add(field+".type", leg.Type, "must be call or put")
		}
		if leg.Strike <= 0 {
			add(field+".strike", leg.Strike, "strike must be positive")
		}
		if leg.Quantity <= 0 {
			add(field+".qty", leg.Quantity, "quantity must be positive")
		}
		if leg.TradeDate.IsZero() {
			add(field+".trade_date", "", "trade_date is required")
		}
		if leg.ExpiryDate.IsZero() {
			add(field+".expiry", "", "expiry is required")
		}
		if !leg.TradeDate.IsZero() && !leg.ExpiryDate.IsZero() && leg.ExpiryDate.Before(leg.TradeDate) {
			add(field+".expiry", leg.ExpiryDate.Format(models.DateLayout), "expiry is before trade date")
		}
		if !cfg.StartDate.IsZero() && !leg.TradeDate.IsZero() && leg.TradeDate.Before(cfg.StartDate) {
			add(field+".trade_date", leg.TradeDate.Format(models.DateLayout), "trade date is before start date")
		}
	}

	start, end := cfg.DateRange()
	if !cfg.StartDate.IsZero() && !cfg.EndDate.IsZero() && end.Before(start) {
		add("end_date", cfg.EndDate.Format(models.DateLayout), "end date is before start date")
	}

	return errs
}

// Warnings returns non-fatal findings, such as a premium whose sign
// disagrees with its side. Premiums are always applied unsigned.
func Warnings(cfg models.PortfolioConfig) []string {
	var out []string
	for i, leg := range cfg.Legs {
		switch {
		case leg.Side == models.SideLong && leg.Premium < 0:
			out = append(out, fmt.Sprintf("legs[%d]: long premium %.2f is negative; using %.2f paid", i, leg.Premium, leg.EntryPrice()))
		case leg.Side == models.SideShort && leg.Premium > 0:
			out = append(out, fmt.Sprintf("legs[%d]: short premium %.2f is positive; using %.2f received", i, leg.Premium, leg.EntryPrice()))
		}
		if leg.Premium == 0 {
			out = append(out, fmt.Sprintf("legs[%d]: zero premium", i))
		}
	}
	_, end := cfg.DateRange()
	for i, leg := range cfg.Legs {
		if leg.ExpiryDate.After(end) {
			out = append(out, fmt.Sprintf("legs[%d]: expiry %s is after end date; leg stays open", i, leg.ExpiryDate.Format(models.DateLayout)))
		}
	}
	return out
}
