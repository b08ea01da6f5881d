// Package renderer turns ledger results into markdown reports.
package renderer

import (
	"fmt"
	"strings"

	"github.com/piotrk/taxlot"
	"github.com/piotrk/taxlot/date"
)

// RealizedGainsMarkdown renders the tax report of one year: realized
// disposals, dividend income, and any data-quality warnings.
func RealizedGainsMarkdown(year int, disposals []taxlot.RealizedDisposal, dividends []taxlot.DividendIncome, warnings []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Tax Report %d\n\n", year)

	fmt.Fprint(&b, "## Realized Disposals\n\n")
	if len(disposals) == 0 {
		fmt.Fprint(&b, "No taxable disposals.\n")
	} else {
		fmt.Fprintln(&b, "| Ticker | Sold | Quantity | Rate | Proceeds | Cost Basis | P&L | Holding |")
		fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|---:|:---|")

		var proceeds, cost, pnl taxlot.Money
		for _, d := range disposals {
			proceeds = proceeds.Add(d.Proceeds)
			cost = cost.Add(d.CostBasis)
			pnl = pnl.Add(d.ProfitLoss)

			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				flagged(d.Ticker, d.RateUnresolved),
				d.Date,
				d.Quantity,
				d.Rate,
				d.Proceeds,
				d.CostBasis,
				d.ProfitLoss.SignedString(),
				holding(d),
			)
		}
		fmt.Fprintf(&b, "| **Total** | | | | **%s** | **%s** | **%s** | |\n",
			proceeds, cost, pnl.SignedString())
	}

	fmt.Fprint(&b, "\n## Dividend Income\n\n")
	if len(dividends) == 0 {
		fmt.Fprint(&b, "No dividends.\n")
	} else {
		fmt.Fprintln(&b, "| Ticker | Ex Date | Rate | Gross | Tax Withheld |")
		fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|")

		var gross, withheld taxlot.Money
		for _, d := range dividends {
			gross = gross.Add(d.Gross)
			withheld = withheld.Add(d.TaxWithheld)
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				flagged(d.Ticker, d.RateUnresolved), d.ExDate, d.Rate, d.Gross, d.TaxWithheld)
		}
		fmt.Fprintf(&b, "| **Total** | | | **%s** | **%s** |\n", gross, withheld)
	}

	if len(warnings) > 0 {
		fmt.Fprint(&b, "\n## Warnings\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}

// InventoryMarkdown renders the open lots carried into the next year.
func InventoryMarkdown(lots []taxlot.InventoryLot) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Open Inventory\n\n")
	if len(lots) == 0 {
		fmt.Fprint(&b, "No open positions.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Ticker | Acquired | Quantity | Unit Price | Currency | Cost Basis |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|:---|---:|")

	var cost taxlot.Money
	for _, lot := range lots {
		cost = cost.Add(lot.Cost)
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			flagged(lot.Ticker, lot.RateUnresolved),
			lot.Date,
			lot.Quantity,
			lot.Price,
			lot.Currency,
			lot.Cost,
		)
	}
	fmt.Fprintf(&b, "| **Total** | | | | | **%s** |\n", cost)

	return b.String()
}

// holding classifies a disposal by its oldest consumed lot, the one that
// determines the longest holding period of the match.
func holding(d taxlot.RealizedDisposal) string {
	if len(d.MatchedLots) == 0 {
		return "n/a"
	}
	days := d.MatchedLots[0].HoldingDays(d.Date)
	return date.HoldingCategory(days)
}

// flagged marks a row whose exchange rate could not be resolved.
func flagged(ticker string, unresolved bool) string {
	if unresolved {
		return ticker + " ⚠"
	}
	return ticker
}
