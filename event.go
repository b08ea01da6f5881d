package taxlot

import (
	"fmt"
	"sort"

	"github.com/piotrk/taxlot/date"
	"github.com/shopspring/decimal"
)

// EventType identifies the kind of a normalized broker event.
//
// The set is closed: the ledger routes by an exhaustive switch, so adding a
// new kind is a compile-time visible change.
type EventType int

const (
	EventBuy EventType = iota
	EventSell
	EventTransfer
	EventSplit
	EventStockDividend
	EventMerger
	EventSpinoff
	EventDividend
	EventTax
)

// eventNames uses the vocabulary of the broker export normalization layer.
var eventNames = map[EventType]string{
	EventBuy:           "BUY",
	EventSell:          "SELL",
	EventTransfer:      "TRANSFER",
	EventSplit:         "SPLIT",
	EventStockDividend: "STOCK_DIV",
	EventMerger:        "MERGER",
	EventSpinoff:       "SPINOFF",
	EventDividend:      "DIVIDEND",
	EventTax:           "TAX",
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// ParseEventType parses the wire name of an event type.
func ParseEventType(s string) (EventType, error) {
	for t, name := range eventNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// MarshalJSON implements the json.Marshaler interface.
func (t EventType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", t.String())), nil
}

// TradeEvent is one normalized, immutable input record.
//
// Quantity is signed: positive means acquisition, negative disposal; it is
// zero only for SPLIT, DIVIDEND and TAX events. Price and Commission are
// expressed in Currency. Rate, when positive, is a precomputed exchange
// rate that bypasses the resolver.
type TradeEvent struct {
	Date       date.Date
	Ticker     string
	Type       EventType
	Quantity   Quantity
	Price      decimal.Decimal // unit price, in Currency
	Commission decimal.Decimal // absolute magnitude, in Currency
	Currency   string
	Ratio      decimal.Decimal // SPLIT only; new shares per old share
	Amount     decimal.Decimal // DIVIDEND/TAX cash amount, in Currency
	Rate       decimal.Decimal // optional precomputed exchange rate
	Source     string
}

// Validate checks a single event for the preconditions the ledger assumes.
// Malformed dates and decimals are the ingestion layer's problem; this only
// guards the fields the accounting core routes on.
func (e TradeEvent) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("event has no date")
	}
	if e.Ticker == "" && e.Type != EventTax {
		return fmt.Errorf("%s event on %s has no ticker", e.Type, e.Date)
	}
	switch e.Type {
	case EventSplit:
		if !e.Quantity.IsZero() {
			return fmt.Errorf("SPLIT %s on %s must have zero quantity, got %s", e.Ticker, e.Date, e.Quantity)
		}
	case EventBuy:
		if !e.Quantity.IsPositive() {
			return fmt.Errorf("BUY %s on %s must have positive quantity, got %s", e.Ticker, e.Date, e.Quantity)
		}
	case EventSell:
		if !e.Quantity.IsNegative() {
			return fmt.Errorf("SELL %s on %s must have negative quantity, got %s", e.Ticker, e.Date, e.Quantity)
		}
	case EventDividend, EventTax:
		if !e.Quantity.IsZero() {
			return fmt.Errorf("%s %s on %s must have zero quantity, got %s", e.Type, e.Ticker, e.Date, e.Quantity)
		}
	}
	return nil
}

// replayPriority orders events sharing a date: corporate actions apply to
// the pre-action position, and same-day acquisitions must be available to
// satisfy same-day disposals.
func (e TradeEvent) replayPriority() int {
	switch e.Type {
	case EventSplit, EventStockDividend, EventMerger, EventSpinoff:
		return 0
	case EventBuy, EventTransfer:
		return 1
	case EventSell:
		return 2
	default: // DIVIDEND, TAX: cash records, never touch inventory
		return 3
	}
}

// SortEvents sorts events chronologically, breaking same-date ties by
// replay priority. The sort is stable: events of the same date and class
// keep their input order.
func SortEvents(events []TradeEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].replayPriority() < events[j].replayPriority()
	})
}
