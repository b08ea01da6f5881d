package nbp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/piotrk/taxlot/date"
	"github.com/shopspring/decimal"
)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// fakeFetcher serves month batches from a fixed table and counts remote
// calls, so tests can assert on batching behavior.
type fakeFetcher struct {
	calls  int
	months map[string]MonthRates // "USD/2024-03"
	err    error
}

func (f *fakeFetcher) MonthRates(ctx context.Context, currency string, year int, month time.Month) (MonthRates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rates, ok := f.months[fmt.Sprintf("%s/%04d-%02d", currency, year, int(month))]
	if !ok {
		return MonthRates{}, nil
	}
	return rates, nil
}

func newTestResolver(f *fakeFetcher) *Resolver {
	return &Resolver{client: f, cache: NewRateCache("")}
}

func TestResolve_UsesPreviousDayRate(t *testing.T) {
	fetcher := &fakeFetcher{months: map[string]MonthRates{
		"USD/2024-03": {"2024-03-11": dec(3.98)},
	}}
	r := newTestResolver(fetcher)

	// Tuesday resolves to Monday's published rate.
	got, err := r.Resolve(context.Background(),"USD", date.New(2024, time.March, 12))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !got.Equal(dec(3.98)) {
		t.Errorf("Resolve() = %s, want 3.98", got)
	}
	if fetcher.calls != 1 {
		t.Errorf("remote calls = %d, want 1", fetcher.calls)
	}
}

func TestResolve_WalksBackOverWeekendWithoutRefetch(t *testing.T) {
	fetcher := &fakeFetcher{months: map[string]MonthRates{
		"USD/2024-03": {"2024-03-08": dec(3.95)},
	}}
	r := newTestResolver(fetcher)

	// Monday 2024-03-11: T-1 is Sunday, the walk lands on Friday. The
	// whole walk stays inside one already-fetched month.
	got, err := r.Resolve(context.Background(),"USD", date.New(2024, time.March, 11))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !got.Equal(dec(3.95)) {
		t.Errorf("Resolve() = %s, want Friday's 3.95", got)
	}
	if fetcher.calls != 1 {
		t.Errorf("remote calls = %d, want 1 (weekend walk must not refetch)", fetcher.calls)
	}
}

func TestResolve_CrossesMonthBoundary(t *testing.T) {
	fetcher := &fakeFetcher{months: map[string]MonthRates{
		"USD/2024-04": {},
		"USD/2024-03": {"2024-03-29": dec(4.01)},
	}}
	r := newTestResolver(fetcher)

	// 2024-04-02: the walk starts in April and has to fetch March too.
	got, err := r.Resolve(context.Background(),"USD", date.New(2024, time.April, 2))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !got.Equal(dec(4.01)) {
		t.Errorf("Resolve() = %s, want 4.01", got)
	}
	if fetcher.calls != 2 {
		t.Errorf("remote calls = %d, want 2 (April then March)", fetcher.calls)
	}
}

func TestResolve_HomeCurrencyIsOneWithoutLookup(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := newTestResolver(fetcher)

	got, err := r.Resolve(context.Background(),Home, date.New(2024, time.March, 12))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !got.Equal(dec(1)) {
		t.Errorf("Resolve(PLN) = %s, want 1", got)
	}
	if fetcher.calls != 0 {
		t.Errorf("remote calls = %d, want 0", fetcher.calls)
	}
}

func TestResolve_NoRateWithinLookback(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := newTestResolver(fetcher)

	_, err := r.Resolve(context.Background(),"USD", date.New(2024, time.March, 15))
	if !errors.Is(err, ErrNoRate) {
		t.Fatalf("Resolve() error = %v, want ErrNoRate", err)
	}
	// All ten lookback days fall in March: one fetch serves the whole walk.
	if fetcher.calls != 1 {
		t.Errorf("remote calls = %d, want 1", fetcher.calls)
	}
}

func TestResolve_CachedMonthServesRepeatedLookups(t *testing.T) {
	fetcher := &fakeFetcher{months: map[string]MonthRates{
		"USD/2024-03": {"2024-03-11": dec(3.98)},
	}}
	r := newTestResolver(fetcher)

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(),"USD", date.New(2024, time.March, 12)); err != nil {
			t.Fatalf("Resolve() #%d error = %v", i, err)
		}
	}
	if fetcher.calls != 1 {
		t.Errorf("remote calls = %d, want 1", fetcher.calls)
	}
}

func TestResolve_FetchFailureIsNotCached(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	r := newTestResolver(fetcher)

	_, err := r.Resolve(context.Background(),"USD", date.New(2024, time.March, 12))
	if err == nil {
		t.Fatal("Resolve() succeeded, want a fetch error")
	}
	if errors.Is(err, ErrNoRate) {
		t.Fatalf("Resolve() error = %v, must be distinct from ErrNoRate", err)
	}

	// Once the API recovers the same lookup must succeed: the failure may
	// not have been cached as an empty month.
	fetcher.err = nil
	fetcher.months = map[string]MonthRates{"USD/2024-03": {"2024-03-11": dec(3.98)}}
	got, err := r.Resolve(context.Background(),"USD", date.New(2024, time.March, 12))
	if err != nil {
		t.Fatalf("Resolve() after recovery error = %v", err)
	}
	if !got.Equal(dec(3.98)) {
		t.Errorf("Resolve() = %s, want 3.98", got)
	}
}

func TestResolve_PropagatesContextCancellation(t *testing.T) {
	fetcher := &fakeFetcher{months: map[string]MonthRates{
		"USD/2024-03": {"2024-03-11": dec(3.98)},
	}}
	r := newTestResolver(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "USD", date.New(2024, time.March, 12))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("remote calls = %d, want 0 after cancellation", fetcher.calls)
	}
}

func TestPrefetchYear_FetchesEveryMonthOnce(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := newTestResolver(fetcher)

	if err := r.PrefetchYear(context.Background(), "USD", 2023); err != nil {
		t.Fatalf("PrefetchYear() error = %v", err)
	}
	if fetcher.calls != 12 {
		t.Errorf("remote calls = %d, want 12", fetcher.calls)
	}

	// A second prefetch is a no-op, everything is cached.
	if err := r.PrefetchYear(context.Background(), "USD", 2023); err != nil {
		t.Fatalf("PrefetchYear() #2 error = %v", err)
	}
	if fetcher.calls != 12 {
		t.Errorf("remote calls after second prefetch = %d, want still 12", fetcher.calls)
	}
}

func TestPrefetchYear_SkipsHomeCurrency(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := newTestResolver(fetcher)

	if err := r.PrefetchYear(context.Background(), Home, 2023); err != nil {
		t.Fatalf("PrefetchYear() error = %v", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("remote calls = %d, want 0", fetcher.calls)
	}
}
