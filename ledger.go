package taxlot

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/piotrk/taxlot/date"
	"github.com/shopspring/decimal"
)

// RateResolver converts a currency and an event date into the applicable
// home-currency exchange rate. The nbp package provides the production
// implementation.
type RateResolver interface {
	Resolve(ctx context.Context, currency string, on date.Date) (decimal.Decimal, error)
}

// taxKey groups withholding-tax rows with the dividend they belong to.
// Brokers report the tax as a separate row on the same date and ticker.
type taxKey struct {
	date   string
	ticker string
}

// Ledger replays a stream of trade events against per-ticker FIFO queues
// of open lots and accumulates the realized tax figures.
//
// A Ledger is single-use: construct, optionally load a snapshot, process
// events, read the results. It is not safe for concurrent use.
type Ledger struct {
	resolver  RateResolver
	inventory map[string]*lotQueue
	tickers   []string // insertion order, for deterministic output
	realized  []RealizedDisposal
	dividends []DividendIncome
	warnings  []string
	cutoff    date.Date // events on or before this date are already in the snapshot
}

// NewLedger creates an empty ledger. The resolver may be nil, in which
// case every foreign-currency event without a precomputed rate is flagged
// unresolved.
func NewLedger(resolver RateResolver) *Ledger {
	return &Ledger{
		resolver:  resolver,
		inventory: make(map[string]*lotQueue),
	}
}

// ProcessEvents sorts and replays events. A single bad record never aborts
// the run: problems are recorded as warnings and processing continues.
// When a snapshot was loaded, events on or before its cutoff date are
// skipped as already accounted for. The context bounds the rate lookups
// the replay may have to issue.
func (l *Ledger) ProcessEvents(ctx context.Context, events []TradeEvent) {
	evs := slices.Clone(events)
	SortEvents(evs)

	// Withholding tax rows are aggregated up front so a dividend can be
	// matched with its tax regardless of relative order in the stream.
	taxes := make(map[taxKey]decimal.Decimal)
	for _, e := range evs {
		if e.Type == EventTax {
			k := taxKey{e.Date.String(), e.Ticker}
			taxes[k] = taxes[k].Add(e.Amount.Abs())
		}
	}

	for _, e := range evs {
		if !l.cutoff.IsZero() && !e.Date.After(l.cutoff) {
			continue
		}
		if err := e.Validate(); err != nil {
			l.warnf("skipping event: %v", err)
			continue
		}

		switch e.Type {
		case EventSplit:
			l.applySplit(e)
		case EventDividend:
			l.recordDividend(ctx, e, taxes)
		case EventTax:
			// folded into the matching dividend above
		case EventBuy:
			l.acquire(ctx, e, false)
		case EventTransfer:
			if e.Quantity.IsPositive() {
				l.acquire(ctx, e, false)
			} else {
				l.consume(ctx, e, false)
			}
		case EventStockDividend, EventSpinoff:
			// Shares received without a purchase carry no cost basis
			// unless the ingestion layer supplied one.
			l.acquire(ctx, e, true)
		case EventMerger:
			if e.Quantity.IsPositive() {
				l.acquire(ctx, e, true)
			} else {
				l.consume(ctx, e, false)
			}
		case EventSell:
			l.consume(ctx, e, true)
		}
	}
}

// queue returns the FIFO queue for a ticker, creating it on first use.
func (l *Ledger) queue(ticker string) *lotQueue {
	q, ok := l.inventory[ticker]
	if !ok {
		q = &lotQueue{}
		l.inventory[ticker] = q
		l.tickers = append(l.tickers, ticker)
	}
	return q
}

// eventRate returns the exchange rate for an event: the precomputed rate
// if the ingestion layer supplied one, 1.0 for home-currency events, and
// otherwise the resolver's T-1 rate. The second result is false when the
// rate could not be resolved; the returned 1.0 is then only a placeholder
// and the produced record must be flagged.
func (l *Ledger) eventRate(ctx context.Context, e TradeEvent) (decimal.Decimal, bool) {
	one := decimal.NewFromInt(1)
	if e.Rate.IsPositive() {
		return e.Rate, true
	}
	if e.Currency == "" || e.Currency == HomeCurrency {
		return one, true
	}
	if l.resolver == nil {
		l.warnf("no rate resolver: %s %s on %s left unresolved", e.Type, e.Ticker, e.Date)
		return one, false
	}
	rate, err := l.resolver.Resolve(ctx, e.Currency, e.Date)
	if err != nil {
		l.warnf("exchange rate %s for %s %s on %s: %v", e.Currency, e.Type, e.Ticker, e.Date, err)
		return one, false
	}
	return rate, true
}

// acquire appends a new lot. zeroCost forces a zero unit price for shares
// received through corporate actions.
func (l *Ledger) acquire(ctx context.Context, e TradeEvent, zeroCost bool) {
	rate, resolved := l.eventRate(ctx, e)

	price := e.Price
	if zeroCost {
		price = decimal.Zero
	}

	qty := e.Quantity.Abs()
	cost := homeMoney(price.Mul(qty.Decimal()).Mul(rate).Add(e.Commission.Abs().Mul(rate)))

	q := l.queue(e.Ticker)
	*q = append(*q, &InventoryLot{
		Ticker:         e.Ticker,
		Date:           e.Date,
		Quantity:       qty,
		Price:          price,
		Rate:           rate,
		Cost:           cost,
		Currency:       e.Currency,
		Source:         e.Source,
		RateUnresolved: !resolved,
	})
}

// consume runs the FIFO match for a disposal. Taxable disposals append a
// RealizedDisposal; non-taxable ones (transfers out, merger removals)
// only reduce inventory.
func (l *Ledger) consume(ctx context.Context, e TradeEvent, taxable bool) {
	rate, resolved := l.eventRate(ctx, e)
	qty := e.Quantity.Abs()

	matched, costBasis, short := l.queue(e.Ticker).consume(qty)
	if short.IsPositive() {
		l.warnf("insufficient inventory for %s %s on %s: %s unmatched", e.Ticker, e.Type, e.Date, short)
	}

	if !taxable {
		return
	}

	// Proceeds cover the full disposed quantity even when the queue ran
	// dry: the broker paid for every share sold, only the cost basis is
	// limited to what the matched lots can substantiate.
	proceeds := homeMoney(e.Price.Mul(qty.Decimal()).Mul(rate))
	// The sale's own commission counts fully against the proceeds, it is
	// not apportioned across matched lots.
	costBasis = costBasis.Add(homeMoney(e.Commission.Abs().Mul(rate)))

	for _, lot := range matched {
		if lot.RateUnresolved {
			resolved = false
		}
	}

	l.realized = append(l.realized, RealizedDisposal{
		Ticker:         e.Ticker,
		Date:           e.Date,
		Quantity:       qty,
		Price:          e.Price,
		Rate:           rate,
		Proceeds:       proceeds,
		CostBasis:      costBasis,
		ProfitLoss:     proceeds.Sub(costBasis),
		Currency:       e.Currency,
		MatchedLots:    matched,
		RateUnresolved: !resolved,
	})
}

// applySplit rescales all open lots of the ticker. A zero ratio is a
// data-quality error in the event stream and is skipped with a warning
// rather than crashing the run.
func (l *Ledger) applySplit(e TradeEvent) {
	if e.Ratio.IsZero() {
		l.warnf("ignoring SPLIT %s on %s with zero ratio", e.Ticker, e.Date)
		return
	}
	q, ok := l.inventory[e.Ticker]
	if !ok {
		return
	}
	q.rescale(e.Ratio)
}

// recordDividend converts a cash dividend to home currency and nets in the
// withholding tax reported on the same date and ticker.
func (l *Ledger) recordDividend(ctx context.Context, e TradeEvent, taxes map[taxKey]decimal.Decimal) {
	rate, resolved := l.eventRate(ctx, e)
	tax := taxes[taxKey{e.Date.String(), e.Ticker}]

	l.dividends = append(l.dividends, DividendIncome{
		Ticker:         e.Ticker,
		ExDate:         e.Date,
		Gross:          homeMoney(e.Amount.Mul(rate)),
		TaxWithheld:    homeMoney(tax.Mul(rate)),
		Currency:       e.Currency,
		Rate:           rate,
		RateUnresolved: !resolved,
	})
}

// homeMoney rounds a home-currency amount to money precision.
func homeMoney(d decimal.Decimal) Money {
	return M(d, HomeCurrency).Rounded()
}

func (l *Ledger) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("warning: %s", msg)
	l.warnings = append(l.warnings, msg)
}

// RealizedGains returns all taxable disposals, in replay order.
func (l *Ledger) RealizedGains() []RealizedDisposal {
	return slices.Clone(l.realized)
}

// RealizedGainsIn returns the taxable disposals of one tax year.
func (l *Ledger) RealizedGainsIn(year int) []RealizedDisposal {
	var out []RealizedDisposal
	for _, r := range l.realized {
		if r.Date.Year() == year {
			out = append(out, r)
		}
	}
	return out
}

// Dividends returns all dividend income records, in replay order.
func (l *Ledger) Dividends() []DividendIncome {
	return slices.Clone(l.dividends)
}

// DividendsIn returns the dividend income of one tax year, by ex date.
func (l *Ledger) DividendsIn(year int) []DividendIncome {
	var out []DividendIncome
	for _, d := range l.dividends {
		if d.ExDate.Year() == year {
			out = append(out, d)
		}
	}
	return out
}

// CurrentInventory returns copies of the remaining open lots, tickers in
// first-seen order, lots oldest first.
func (l *Ledger) CurrentInventory() []InventoryLot {
	var out []InventoryLot
	for _, ticker := range l.tickers {
		for _, lot := range *l.inventory[ticker] {
			out = append(out, *lot)
		}
	}
	return out
}

// Position returns the open quantity currently held for a ticker.
func (l *Ledger) Position(ticker string) Quantity {
	q, ok := l.inventory[ticker]
	if !ok {
		return Q(0)
	}
	return q.total()
}

// Warnings returns the data-quality problems encountered during replay.
func (l *Ledger) Warnings() []string {
	return slices.Clone(l.warnings)
}

// Cutoff returns the snapshot cutoff date, zero if no snapshot was loaded.
func (l *Ledger) Cutoff() date.Date { return l.cutoff }
