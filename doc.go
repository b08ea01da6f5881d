// Package taxlot computes realized capital gains and dividend income for a
// brokerage account in home-currency (PLN) terms.
//
// The core is a FIFO tax-lot ledger: a chronological stream of normalized
// trade and corporate-action events is replayed against per-ticker queues of
// open lots. Acquisitions append lots, disposals consume them oldest-first
// (splitting a lot proportionally when partially consumed), and splits
// rescale open lots in place without touching their cost basis.
//
// Every foreign-currency amount is converted at the official NBP mid rate
// published on the business day before the event (the T-1 rule); rate
// resolution and caching live in the nbp subpackage.
//
// Parsing broker exports, rendering documents and any UI are outside this
// module: events come in already normalized (see DecodeEvents for the file
// format), and results go out as plain slices of RealizedDisposal,
// DividendIncome and InventoryLot values.
package taxlot
