package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"collar-backtester/internal/errors"
	"collar-backtester/internal/models"
	"collar-backtester/internal/store"
	"collar-backtester/pkg/utils"
)

// DefaultYahooURL is the chart API host.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// chart is a decoded daily chart.
type chart struct {
	prices    []models.Observation
	dividends []models.Observation
}

// YahooClient fetches adjusted daily closes and dividend events.
type YahooClient struct {
	baseURL string
	http    *http.Client
	retry   utils.RetryConfig

	mu     sync.Mutex
	charts map[string]*chart
}

// NewYahooClient creates a client. An empty baseURL uses DefaultYahooURL.
func NewYahooClient(baseURL string, timeout time.Duration) *YahooClient {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retry := utils.DefaultRetryConfig()
	retry.Retryable = isRetryable
	return &YahooClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		retry:   retry,
		charts:  make(map[string]*chart),
	}
}

// Name returns the source name.
func (c *YahooClient) Name() string { return "yahoo" }

// Fetch returns prices or dividends for symbol in [from, to].
// Both kinds come from one chart request, which is memoized per range.
func (c *YahooClient) Fetch(ctx context.Context, kind, symbol string, from, to time.Time) ([]models.Observation, error) {
	ch, err := c.chart(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	switch kind {
	case store.KindPrice:
		return ch.prices, nil
	case store.KindDividend:
		return ch.dividends, nil
	}
	return nil, fmt.Errorf("yahoo does not serve %q series", kind)
}

func (c *YahooClient) chart(ctx context.Context, symbol string, from, to time.Time) (*chart, error) {
	key := fmt.Sprintf("%s|%s|%s", strings.ToUpper(symbol), from.Format(models.DateLayout), to.Format(models.DateLayout))
	c.mu.Lock()
	ch, ok := c.charts[key]
	c.mu.Unlock()
	if ok {
		return ch, nil
	}

	ch, err := utils.RetryWithResult(ctx, c.retry, func() (*chart, error) {
		return c.fetchChart(ctx, symbol, from, to)
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.charts[key] = ch
	c.mu.Unlock()
	return ch, nil
}

func (c *YahooClient) fetchChart(ctx context.Context, symbol string, from, to time.Time) (*chart, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", from.Unix()))
	// period2 is exclusive.
	q.Set("period2", fmt.Sprintf("%d", to.AddDate(0, 0, 1).Unix()))
	q.Set("interval", "1d")
	q.Set("events", "div")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(strings.ToUpper(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "curl/8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{url: u, code: resp.StatusCode}
	}

	var yc yahooChartResp
	if err := json.NewDecoder(resp.Body).Decode(&yc); err != nil {
		return nil, errors.NewDataError(symbol, time.Time{}, "decoding chart", err)
	}
	if yc.Chart.Error != nil {
		return nil, errors.NewDataError(symbol, time.Time{}, yc.Chart.Error.Description, nil)
	}
	if len(yc.Chart.Result) == 0 {
		return nil, errors.NewDataError(symbol, time.Time{}, "no chart data", nil)
	}
	return decodeChart(yc, from, to), nil
}

// decodeChart extracts daily adjusted closes and dividends. Bars are keyed by
// their UTC calendar day; null closes are dropped.
func decodeChart(yc yahooChartResp, from, to time.Time) *chart {
	res := yc.Chart.Result[0]

	var closes []*float64
	if len(res.Indicators.AdjClose) > 0 {
		closes = res.Indicators.AdjClose[0].AdjClose
	} else if len(res.Indicators.Quote) > 0 {
		closes = res.Indicators.Quote[0].Close
	}

	ch := &chart{}
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		ch.prices = append(ch.prices, models.Observation{
			Date:  models.NormalizeDate(time.Unix(ts, 0).UTC()),
			Value: *closes[i],
		})
	}

	for _, div := range res.Events.Dividends {
		ch.dividends = append(ch.dividends, models.Observation{
			Date:  models.NormalizeDate(time.Unix(div.Date, 0).UTC()),
			Value: div.Amount,
		})
	}
	sort.Slice(ch.dividends, func(i, j int) bool {
		return ch.dividends[i].Date.Before(ch.dividends[j].Date)
	})

	ch.prices = clip(ch.prices, from, to)
	ch.dividends = clip(ch.dividends, from, to)
	return ch
}

// statusError is a non-200 HTTP response.
type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.url, e.code)
}

// isRetryable retries transport failures, throttling and server errors.
func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var de *errors.DataError
	return !errors.As(err, &de)
}
