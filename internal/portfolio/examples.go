package portfolio

import (
	"sort"

	"collar-backtester/internal/models"
)

// Example is a bundled sample portfolio.
type Example struct {
	Name        string
	Description string
	Config      models.PortfolioConfig
}

var examples = map[string]Example{
	"collar": {
		Name:        "collar",
		Description: "100 AAPL shares with a short 150 call and a long 130 put",
		Config: models.PortfolioConfig{
			Ticker:   "AAPL",
			ShareQty: 100,
			Legs: []models.OptionLeg{
				{Side: models.SideShort, Type: models.OptionCall, Strike: 150, Premium: -5.50, Quantity: 1,
					TradeDate: models.Date(2024, 1, 15), ExpiryDate: models.Date(2024, 4, 19)},
				{Side: models.SideLong, Type: models.OptionPut, Strike: 130, Premium: 3.25, Quantity: 1,
					TradeDate: models.Date(2024, 1, 15), ExpiryDate: models.Date(2024, 4, 19)},
			},
		},
	},
	"covered-call": {
		Name:        "covered-call",
		Description: "200 MSFT shares with two short 400 calls",
		Config: models.PortfolioConfig{
			Ticker:   "MSFT",
			ShareQty: 200,
			Legs: []models.OptionLeg{
				{Side: models.SideShort, Type: models.OptionCall, Strike: 400, Premium: -8.20, Quantity: 2,
					TradeDate: models.Date(2024, 1, 2), ExpiryDate: models.Date(2024, 3, 15)},
			},
		},
	},
	"protective-put": {
		Name:        "protective-put",
		Description: "100 SPY shares with a long 460 put",
		Config: models.PortfolioConfig{
			Ticker:   "SPY",
			ShareQty: 100,
			Legs: []models.OptionLeg{
				{Side: models.SideLong, Type: models.OptionPut, Strike: 460, Premium: 6.75, Quantity: 1,
					TradeDate: models.Date(2024, 1, 2), ExpiryDate: models.Date(2024, 6, 21)},
			},
		},
	},
	"synthetic-long": {
		Name:        "synthetic-long",
		Description: "No shares; long 180 call and short 180 put on NVDA",
		Config: models.PortfolioConfig{
			Ticker:          "NVDA",
			ShareQty:        0,
			StartingCapital: 20000,
			Legs: []models.OptionLeg{
				{Side: models.SideLong, Type: models.OptionCall, Strike: 180, Premium: 12.40, Quantity: 1,
					TradeDate: models.Date(2024, 7, 1), ExpiryDate: models.Date(2024, 9, 20)},
				{Side: models.SideShort, Type: models.OptionPut, Strike: 180, Premium: -13.10, Quantity: 1,
					TradeDate: models.Date(2024, 7, 1), ExpiryDate: models.Date(2024, 9, 20)},
			},
		},
	},
}

// Examples returns the bundled portfolios sorted by name.
func Examples() []Example {
	out := make([]Example, 0, len(examples))
	for _, ex := range examples {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupExample returns a bundled portfolio by name.
func LookupExample(name string) (Example, bool) {
	ex, ok := examples[name]
	return ex, ok
}
