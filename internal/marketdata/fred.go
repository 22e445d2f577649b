package marketdata

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"collar-backtester/internal/errors"
	"collar-backtester/internal/models"
	"collar-backtester/internal/store"
	"collar-backtester/pkg/utils"
)

// DefaultFREDURL is the FRED graph host.
const DefaultFREDURL = "https://fred.stlouisfed.org"

// FREDClient fetches daily rate series (percent) from the fredgraph CSV endpoint.
type FREDClient struct {
	baseURL string
	http    *http.Client
	retry   utils.RetryConfig
}

// NewFREDClient creates a client. An empty baseURL uses DefaultFREDURL.
func NewFREDClient(baseURL string, timeout time.Duration) *FREDClient {
	if baseURL == "" {
		baseURL = DefaultFREDURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retry := utils.DefaultRetryConfig()
	retry.Retryable = isRetryable
	return &FREDClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		retry:   retry,
	}
}

// Name returns the source name.
func (c *FREDClient) Name() string { return "fred" }

// Fetch returns the rate series as fractions in [from, to].
func (c *FREDClient) Fetch(ctx context.Context, kind, series string, from, to time.Time) ([]models.Observation, error) {
	if kind != store.KindRate {
		return nil, fmt.Errorf("fred does not serve %q series", kind)
	}
	return utils.RetryWithResult(ctx, c.retry, func() ([]models.Observation, error) {
		return c.fetch(ctx, series, from, to)
	})
}

func (c *FREDClient) fetch(ctx context.Context, series string, from, to time.Time) ([]models.Observation, error) {
	q := url.Values{}
	q.Set("id", series)
	q.Set("cosd", from.Format(models.DateLayout))
	q.Set("coed", to.Format(models.DateLayout))
	u := c.baseURL + "/graph/fredgraph.csv?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{url: u, code: resp.StatusCode}
	}

	body, err := rewriteHeader(resp.Body, "Date,Rate")
	if err != nil {
		return nil, errors.NewDataError(series, time.Time{}, "reading fredgraph csv", err)
	}
	obs, err := ReadRates(body)
	if err != nil {
		return nil, errors.NewDataError(series, time.Time{}, "decoding fredgraph csv", err)
	}
	return clip(obs, from, to), nil
}

// rewriteHeader replaces the first line of a CSV. fredgraph names its columns
// after the series id, so the header is normalized before decoding.
func rewriteHeader(r io.Reader, header string) (io.Reader, error) {
	br := bufio.NewReader(r)
	if _, err := br.ReadString('\n'); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty response")
		}
		return nil, err
	}
	rest, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteByte('\n')
	buf.Write(rest)
	return &buf, nil
}
