package taxlot

import (
	"github.com/piotrk/taxlot/date"
	"github.com/shopspring/decimal"
)

// qtyTolerance absorbs rounding drift when deciding whether a disposal
// exhausts a lot exactly.
var qtyTolerance = decimal.New(1, -8) // 1e-8

// InventoryLot is a single open acquisition of a ticker. Lots are owned
// exclusively by the Ledger: quantity and cost basis shrink together on
// partial consumption and are rescaled in place by splits.
type InventoryLot struct {
	Ticker   string
	Date     date.Date       // acquisition date
	Quantity Quantity        // always >= 0, shrinks on partial consumption
	Price    decimal.Decimal // unit price, in Currency
	Rate     decimal.Decimal // exchange rate used at acquisition
	Cost     Money           // home-currency cost basis, commission included
	Currency string
	Source   string
	// RateUnresolved marks a lot whose acquisition rate could not be
	// resolved; its cost basis is not trustworthy.
	RateUnresolved bool
}

// HoldingDays returns the inclusive holding period of the lot when
// disposed of on the given date.
func (l InventoryLot) HoldingDays(disposal date.Date) int {
	return disposal.DaysSince(l.Date)
}

// lotQueue is the FIFO queue of open lots for one ticker, oldest first.
type lotQueue []*InventoryLot

// consume removes quantity from the front of the queue.
//
// It returns an immutable copy of every consumed lot fragment (for audit),
// the summed home-currency cost of the consumed fragments, and any
// quantity left unmatched because the queue ran dry. Each partial
// consumption reduces the surviving lot's quantity and cost basis by the
// same proportion, the fragment cost being rounded to money precision at
// the point of computation.
func (q *lotQueue) consume(qty Quantity) (matched []InventoryLot, cost Money, short Quantity) {
	remaining := qty
	for remaining.IsPositive() {
		if len(*q) == 0 {
			return matched, cost, remaining
		}
		lot := (*q)[0]

		if lot.Quantity.Decimal().Sub(remaining.Decimal()).LessThanOrEqual(qtyTolerance) {
			// The disposal swallows this lot entirely.
			cost = cost.Add(lot.Cost)
			matched = append(matched, *lot)
			remaining = remaining.Sub(lot.Quantity)
			if remaining.Decimal().Abs().LessThanOrEqual(qtyTolerance) {
				remaining = Q(0)
			}
			*q = (*q)[1:]
			continue
		}

		// Partial consumption: split the lot proportionally.
		part := lot.Cost.Mul(remaining).Div(lot.Quantity).Rounded()

		fragment := *lot
		fragment.Quantity = remaining
		fragment.Cost = part
		matched = append(matched, fragment)

		cost = cost.Add(part)
		lot.Quantity = lot.Quantity.Sub(remaining)
		lot.Cost = lot.Cost.Sub(part)
		remaining = Q(0)
	}
	return matched, cost, Q(0)
}

// rescale applies a split ratio to every open lot in place. The cost basis
// is invariant under a split: only the share count and the nominal unit
// price change.
func (q lotQueue) rescale(ratio decimal.Decimal) {
	for _, lot := range q {
		lot.Quantity = Q(lot.Quantity.Decimal().Mul(ratio))
		lot.Price = lot.Price.Div(ratio)
	}
}

// total returns the summed open quantity in the queue.
func (q lotQueue) total() Quantity {
	sum := Q(0)
	for _, lot := range q {
		sum = sum.Add(lot.Quantity)
	}
	return sum
}
