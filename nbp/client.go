// Package nbp resolves official NBP (Narodowy Bank Polski) Table A mid
// exchange rates under the T-1 rule: a tax event uses the rate published
// on the business day immediately preceding the event date.
//
// Rates are fetched from the NBP Web API in whole-month batches and cached
// by (currency, year, month), which bounds remote traffic to roughly one
// call per currency per month regardless of transaction volume. The
// backward walk over weekends and holidays almost always stays inside an
// already-cached month.
package nbp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/piotrk/taxlot/date"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Home is the home currency; it always converts at 1.0 without a lookup.
const Home = "PLN"

// DefaultBaseURL is the public NBP Web API endpoint.
const DefaultBaseURL = "https://api.nbp.pl/api"

// MonthRates maps ISO dates to the published mid rate. Dates absent from
// the map had no published rate (weekend or holiday).
type MonthRates map[string]decimal.Decimal

// Client fetches month batches of Table A mid rates from the NBP Web API.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	limiter *rate.Limiter
}

// NewClient returns a client with the public endpoint, a request timeout,
// and a politeness limiter on outbound calls.
func NewClient() *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		BaseURL: DefaultBaseURL,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

// tableA mirrors the NBP exchangerates payload.
type tableA struct {
	Rates []struct {
		EffectiveDate string          `json:"effectiveDate"`
		Mid           decimal.Decimal `json:"mid"`
	} `json:"rates"`
}

// MonthRates fetches all rates published for a currency in one calendar
// month. The range is bounded at today; a month lying entirely in the
// future yields an empty map without any remote call, so callers can
// cache it as "nothing published".
//
// Transient failures (network errors, HTTP 5xx) are retried with bounded
// exponential backoff. HTTP 404 means no rate was published in the range,
// which is a valid empty result, not an error.
func (c *Client) MonthRates(ctx context.Context, currency string, year int, month time.Month) (MonthRates, error) {
	start := date.New(year, month, 1)
	end := start.EndOfMonth()
	today := date.Today()

	if start.After(today) {
		return MonthRates{}, nil
	}
	if end.After(today) {
		end = today
	}

	addr := fmt.Sprintf("%s/exchangerates/rates/a/%s/%s/%s/?format=json",
		c.BaseURL, strings.ToLower(currency), start, end)

	rates := make(MonthRates)
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
		if err != nil {
			return err
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return retry.RetryableError(err)
			}
			var payload tableA
			if err := json.Unmarshal(body, &payload); err != nil {
				return fmt.Errorf("cannot decode NBP response for %s: %w", addr, err)
			}
			for _, r := range payload.Rates {
				rates[r.EffectiveDate] = r.Mid
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			// No rates published in the requested range.
			return nil
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("NBP API %s: %s", addr, resp.Status))
		default:
			return fmt.Errorf("NBP API %s: %s", addr, resp.Status)
		}
	})
	if err != nil {
		return nil, err
	}
	return rates, nil
}
