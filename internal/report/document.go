package report

import (
	"encoding/json"
	"io"
	"time"

	"collar-backtester/internal/engine"
	"collar-backtester/internal/models"
)

// Document is the machine-readable outcome of a run.
type Document struct {
	RunID          string                     `json:"run_id,omitempty"`
	Ticker         string                     `json:"ticker"`
	ShareQty       int                        `json:"share_qty"`
	StartPrice     float64                    `json:"start_price"`
	StartingEquity float64                    `json:"starting_equity"`
	Legs           []LegSummary               `json:"legs"`
	Metrics        *models.PerformanceMetrics `json:"metrics"`
	GeneratedAt    time.Time                  `json:"generated_at"`
}

// LegSummary describes one leg and how it ended.
type LegSummary struct {
	Description string  `json:"description"`
	Side        string  `json:"side"`
	Type        string  `json:"type"`
	Strike      float64 `json:"strike"`
	Premium     float64 `json:"premium"`
	Quantity    int     `json:"qty"`
	TradeDate   string  `json:"trade_date"`
	Expiry      string  `json:"expiry"`
	EntryDelta  float64 `json:"entry_delta"`
	State       string  `json:"state"`
	FinalPL     float64 `json:"final_pl"`

	SpotAtExpiry  float64 `json:"spot_at_expiry,omitempty"`
	SettledShares int     `json:"settled_shares,omitempty"`
}

// NewDocument summarizes a result.
func NewDocument(res *engine.Result) *Document {
	doc := &Document{
		Ticker:         res.Config.Ticker,
		ShareQty:       res.Config.ShareQty,
		StartingEquity: res.StartingEquity,
		Metrics:        res.Metrics,
		GeneratedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if res.State != nil && res.State.Len() > 0 {
		doc.StartPrice = res.State.At(0).Spot
	}
	for _, track := range res.Legs {
		leg := track.Leg
		doc.Legs = append(doc.Legs, LegSummary{
			Description:   leg.String(),
			Side:          string(leg.Side),
			Type:          string(leg.Type),
			Strike:        leg.Strike,
			Premium:       leg.EntryPrice(),
			Quantity:      leg.Quantity,
			TradeDate:     leg.TradeDate.Format(models.DateLayout),
			Expiry:        leg.ExpiryDate.Format(models.DateLayout),
			EntryDelta:    track.EntryDelta,
			State:         track.State.String(),
			FinalPL:       track.FinalPL(),
			SpotAtExpiry:  track.SpotAtExpiry,
			SettledShares: track.SettledShares,
		})
	}
	return doc
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteMetricsFile writes the document to dir/metrics.json and returns the path.
func WriteMetricsFile(dir string, doc *Document) (string, error) {
	return writeFile(dir, MetricsFile, func(w io.Writer) error {
		return WriteJSON(w, doc)
	})
}
