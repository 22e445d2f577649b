package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Side represents the direction of an option position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// Sign returns +1 for long and -1 for short.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// OptionType represents call or put.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// Valid reports whether t is a known option type.
func (t OptionType) Valid() bool {
	return t == OptionCall || t == OptionPut
}

// OptionLeg represents one option position of the overlay.
type OptionLeg struct {
	Side       Side
	Type       OptionType
	Strike     float64
	Premium    float64 // per share; sign is derived from Side
	Quantity   int     // contracts
	TradeDate  time.Time
	ExpiryDate time.Time
}

// EntryPrice returns the unsigned per-share premium paid or received.
func (l OptionLeg) EntryPrice() float64 {
	return math.Abs(l.Premium)
}

// String returns a human-readable description of the leg.
func (l OptionLeg) String() string {
	return fmt.Sprintf("%s %d %s @ %.2f (Premium: %.2f)",
		title(string(l.Side)), l.Quantity, title(string(l.Type)), l.Strike, l.EntryPrice())
}

// Label returns a compact identifier such as "short-call-150".
func (l OptionLeg) Label() string {
	return fmt.Sprintf("%s-%s-%g", l.Side, l.Type, l.Strike)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// LegState is the lifecycle state of an option leg on a given date.
type LegState int

const (
	LegPending LegState = iota
	LegOpen
	LegExercised
	LegExpired
)

func (s LegState) String() string {
	switch s {
	case LegPending:
		return "pending"
	case LegOpen:
		return "open"
	case LegExercised:
		return "exercised"
	case LegExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s LegState) Terminal() bool {
	return s == LegExercised || s == LegExpired
}
