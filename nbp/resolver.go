package nbp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/piotrk/taxlot/date"
	"github.com/shopspring/decimal"
)

// lookbackLimit bounds the backward walk from the T-1 date. Long holiday
// runs need three or four days; ten is comfortably past any of them.
const lookbackLimit = 10

// ErrNoRate reports that no published rate exists within the lookback
// bound. Callers must surface it rather than substitute a sentinel rate:
// a silent fallback corrupts every figure computed downstream.
var ErrNoRate = errors.New("no published rate within the lookback bound")

// monthFetcher is the remote side of the resolver; *Client implements it.
type monthFetcher interface {
	MonthRates(ctx context.Context, currency string, year int, month time.Month) (MonthRates, error)
}

// Resolver answers "what exchange rate applies to this event date" using
// the T-1 rule over month-batched, cached NBP rates.
type Resolver struct {
	client monthFetcher
	cache  *RateCache
}

// NewResolver creates a resolver over the given client and cache.
func NewResolver(client *Client, cache *RateCache) *Resolver {
	return &Resolver{client: client, cache: cache}
}

// Resolve returns the mid rate applicable to an event on the given date:
// the rate published on the nearest business day strictly before it. The
// context bounds the month fetch a cache miss may trigger.
//
// PLN resolves to 1.0 without any lookup. A network or API failure is
// returned as an error distinct from ErrNoRate, so callers can tell
// "temporarily unavailable" from "definitively nothing published".
func (r *Resolver) Resolve(ctx context.Context, currency string, on date.Date) (decimal.Decimal, error) {
	if currency == Home {
		return decimal.NewFromInt(1), nil
	}

	target := on.Add(-1) // T-1
	for i := 0; i < lookbackLimit; i++ {
		rates, ok := r.cache.Month(currency, target.Year(), target.Month())
		if !ok {
			fetched, err := r.client.MonthRates(ctx, currency, target.Year(), target.Month())
			if err != nil {
				// Left uncached so the next access retries.
				return decimal.Decimal{}, fmt.Errorf("fetching %s rates for %04d-%02d: %w",
					currency, target.Year(), int(target.Month()), err)
			}
			r.cache.PutMonth(currency, target.Year(), target.Month(), fetched)
			rates = fetched
		}
		if rate, ok := rates[target.String()]; ok {
			return rate, nil
		}
		// Weekend or holiday: step back one calendar day. Crossing a
		// month boundary makes the next iteration consult (and possibly
		// fetch) the prior month.
		target = target.Add(-1)
	}
	return decimal.Decimal{}, fmt.Errorf("%s around %s: %w", currency, on, ErrNoRate)
}

// PrefetchYear warms the cache with every publishable month of a year,
// typically ahead of an offline report run.
func (r *Resolver) PrefetchYear(ctx context.Context, currency string, year int) error {
	if currency == Home {
		return nil
	}
	today := date.Today()
	for m := time.January; m <= time.December; m++ {
		if date.New(year, m, 1).After(today) {
			break
		}
		if _, ok := r.cache.Month(currency, year, m); ok {
			continue
		}
		fetched, err := r.client.MonthRates(ctx, currency, year, m)
		if err != nil {
			return fmt.Errorf("prefetching %s %04d-%02d: %w", currency, year, int(m), err)
		}
		r.cache.PutMonth(currency, year, m, fetched)
	}
	return nil
}
