package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/piotrk/taxlot"
	"github.com/piotrk/taxlot/date"
	"github.com/shopspring/decimal"
)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }
func pln(f float64) taxlot.Money    { return taxlot.M(dec(f), taxlot.HomeCurrency) }

func TestRealizedGainsMarkdown(t *testing.T) {
	disposals := []taxlot.RealizedDisposal{
		{
			Ticker:     "AAPL",
			Date:       date.New(2024, time.June, 20),
			Quantity:   taxlot.Q(5),
			Price:      dec(150),
			Rate:       dec(4),
			Proceeds:   pln(3000),
			CostBasis:  pln(2030),
			ProfitLoss: pln(970),
			Currency:   "USD",
			MatchedLots: []taxlot.InventoryLot{
				{Ticker: "AAPL", Date: date.New(2023, time.March, 10), Quantity: taxlot.Q(5)},
			},
		},
	}
	dividends := []taxlot.DividendIncome{
		{Ticker: "KO", ExDate: date.New(2024, time.May, 15), Gross: pln(400), TaxWithheld: pln(60), Rate: dec(4)},
	}
	warnings := []string{"insufficient inventory for X SELL on 2024-02-05: 5 unmatched"}

	md := RealizedGainsMarkdown(2024, disposals, dividends, warnings)

	for _, want := range []string{
		"# Tax Report 2024",
		"| AAPL | 2024-06-20 |",
		"Long-Term", // held 2023-03-10 to 2024-06-20
		"| KO | 2024-05-15 |",
		"## Warnings",
		"insufficient inventory",
		"**Total**",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report is missing %q:\n%s", want, md)
		}
	}
}

func TestRealizedGainsMarkdown_Empty(t *testing.T) {
	md := RealizedGainsMarkdown(2024, nil, nil, nil)

	if !strings.Contains(md, "No taxable disposals.") {
		t.Errorf("empty report should say so:\n%s", md)
	}
	if !strings.Contains(md, "No dividends.") {
		t.Errorf("empty report should say so:\n%s", md)
	}
	if strings.Contains(md, "## Warnings") {
		t.Errorf("no warnings section expected:\n%s", md)
	}
}

func TestRealizedGainsMarkdown_FlagsUnresolvedRates(t *testing.T) {
	disposals := []taxlot.RealizedDisposal{
		{Ticker: "AAPL", Date: date.New(2024, time.June, 20), Quantity: taxlot.Q(5), RateUnresolved: true},
	}
	md := RealizedGainsMarkdown(2024, disposals, nil, nil)
	if !strings.Contains(md, "AAPL ⚠") {
		t.Errorf("unresolved-rate row not flagged:\n%s", md)
	}
}

func TestInventoryMarkdown(t *testing.T) {
	lots := []taxlot.InventoryLot{
		{Ticker: "AAPL", Date: date.New(2023, time.March, 10), Quantity: taxlot.Q(5), Price: dec(100), Currency: "USD", Cost: pln(2010)},
		{Ticker: "CDR", Date: date.New(2024, time.April, 1), Quantity: taxlot.Q(2), Price: dec(120), Currency: "PLN", Cost: pln(240)},
	}
	md := InventoryMarkdown(lots)

	for _, want := range []string{"# Open Inventory", "| AAPL | 2023-03-10 |", "| CDR | 2024-04-01 |", "**Total**"} {
		if !strings.Contains(md, want) {
			t.Errorf("inventory is missing %q:\n%s", want, md)
		}
	}
}

func TestInventoryMarkdown_Empty(t *testing.T) {
	md := InventoryMarkdown(nil)
	if !strings.Contains(md, "No open positions.") {
		t.Errorf("empty inventory should say so:\n%s", md)
	}
}
