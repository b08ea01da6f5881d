package taxlot

import (
	"github.com/piotrk/taxlot/date"
	"github.com/shopspring/decimal"
)

// RealizedDisposal is the tax outcome of a single taxable sale, in home
// currency. MatchedLots lists the consumed lot fragments in consumption
// order, each carrying its own quantity and cost so the reporting layer
// can audit the match and classify holding periods.
type RealizedDisposal struct {
	Ticker      string
	Date        date.Date // disposal date
	Quantity    Quantity  // disposed quantity (absolute)
	Price       decimal.Decimal
	Rate        decimal.Decimal
	Proceeds    Money // price × quantity × rate
	CostBasis   Money // consumed lots' cost + the sale's own commission
	ProfitLoss  Money // Proceeds − CostBasis
	Currency    string
	MatchedLots []InventoryLot
	// RateUnresolved marks a disposal whose exchange rate could not be
	// resolved within the lookback bound; its monetary figures carry a
	// 1.0 rate and must not be used as-is.
	RateUnresolved bool
}

// DividendIncome is one cash dividend, converted to home currency at the
// T-1 rate of its ex date, with any withholding tax recorded on the same
// date and ticker already netted in.
type DividendIncome struct {
	Ticker         string
	ExDate         date.Date
	Gross          Money // gross dividend, home currency
	TaxWithheld    Money // withholding tax, home currency, absolute
	Currency       string
	Rate           decimal.Decimal
	RateUnresolved bool
}
