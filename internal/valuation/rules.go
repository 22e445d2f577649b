// Package valuation marks option legs to market and resolves them at expiry.
package valuation

import "collar-backtester/internal/models"

// Rule describes how one side/type combination is valued and settled.
type Rule struct {
	// Sign applied to value changes: +1 long, -1 short.
	Sign float64
	// InTheMoney reports whether the contract is exercised at spot.
	InTheMoney func(spot, strike float64) bool
	// ShareDirection is +1 when exercise adds shares to the holding,
	// -1 when it removes them.
	ShareDirection int
}

type ruleKey struct {
	side models.Side
	typ  models.OptionType
}

func callITM(spot, strike float64) bool { return spot > strike }
func putITM(spot, strike float64) bool  { return spot < strike }

var rules = map[ruleKey]Rule{
	// Holder buys shares at the strike.
	{models.SideLong, models.OptionCall}: {Sign: 1, InTheMoney: callITM, ShareDirection: 1},
	// Writer's shares are called away at the strike.
	{models.SideShort, models.OptionCall}: {Sign: -1, InTheMoney: callITM, ShareDirection: -1},
	// Holder sells shares at the strike.
	{models.SideLong, models.OptionPut}: {Sign: 1, InTheMoney: putITM, ShareDirection: -1},
	// Writer is assigned and buys shares at the strike.
	{models.SideShort, models.OptionPut}: {Sign: -1, InTheMoney: putITM, ShareDirection: 1},
}

// RuleFor returns the rule for a side/type combination.
func RuleFor(side models.Side, typ models.OptionType) (Rule, bool) {
	r, ok := rules[ruleKey{side, typ}]
	return r, ok
}
