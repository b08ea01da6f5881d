package taxlot

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/piotrk/taxlot/date"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	src := NewLedger(nil)
	src.ProcessEvents(context.Background(), []TradeEvent{
		{Date: date.New(2023, time.March, 10), Ticker: "AAPL", Type: EventBuy, Quantity: Q(10), Price: dec(100), Commission: dec(5), Currency: "USD", Rate: dec(4)},
		{Date: date.New(2023, time.April, 1), Ticker: "CDR", Type: EventBuy, Quantity: Q(dec(2.5)), Price: dec(120)},
	})

	var buf bytes.Buffer
	cutoff := date.New(2023, time.December, 31)
	if err := src.SaveSnapshot(&buf, cutoff); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	dst := NewLedger(nil)
	got, err := dst.LoadSnapshot(&buf)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if got != cutoff {
		t.Errorf("LoadSnapshot() cutoff = %s, want %s", got, cutoff)
	}

	if !dst.Position("AAPL").Equal(Q(10)) {
		t.Errorf("Position(AAPL) = %s, want 10", dst.Position("AAPL"))
	}
	if !dst.Position("CDR").Equal(Q(dec(2.5))) {
		t.Errorf("Position(CDR) = %s, want 2.5", dst.Position("CDR"))
	}
	inv := dst.CurrentInventory()
	if len(inv) != 2 {
		t.Fatalf("CurrentInventory() = %d lots, want 2", len(inv))
	}
	if !inv[0].Cost.Equal(pln(4020)) {
		t.Errorf("restored AAPL cost = %s, want 4020 PLN", inv[0].Cost.Decimal())
	}
}

func TestSnapshot_CutoffSkipsAlreadyAccountedEvents(t *testing.T) {
	snapshot := `{
  "cutoffDate": "2023-12-31",
  "inventory": {
    "AAPL": [
      {"date": "2023-05-10", "quantity": "10", "price": "100", "rate": "4", "costBasis": "4020", "currency": "USD"}
    ]
  }
}`
	ledger := NewLedger(nil)
	if _, err := ledger.LoadSnapshot(strings.NewReader(snapshot)); err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}

	ledger.ProcessEvents(context.Background(), []TradeEvent{
		// Already inside the snapshot; replaying it would double the lot.
		{Date: date.New(2023, time.May, 10), Ticker: "AAPL", Type: EventBuy, Quantity: Q(10), Price: dec(100), Currency: "USD", Rate: dec(4)},
		{Date: date.New(2024, time.January, 15), Ticker: "AAPL", Type: EventSell, Quantity: Q(-5), Price: dec(150), Currency: "USD", Rate: dec(4)},
	})

	if !ledger.Position("AAPL").Equal(Q(5)) {
		t.Errorf("Position(AAPL) = %s, want 5", ledger.Position("AAPL"))
	}
	gains := ledger.RealizedGains()
	if len(gains) != 1 {
		t.Fatalf("RealizedGains() = %d disposals, want 1", len(gains))
	}
	// Cost basis comes from the snapshot lot: 4020 * 5/10.
	if !gains[0].CostBasis.Equal(pln(2010)) {
		t.Errorf("CostBasis = %s, want 2010 PLN", gains[0].CostBasis.Decimal())
	}
}

func TestLoadSnapshot_RefusesNonEmptyLedger(t *testing.T) {
	ledger := NewLedger(nil)
	ledger.ProcessEvents(context.Background(), []TradeEvent{
		{Date: date.New(2024, time.January, 5), Ticker: "X", Type: EventBuy, Quantity: Q(1), Price: dec(10)},
	})

	_, err := ledger.LoadSnapshot(strings.NewReader(`{"cutoffDate":"2023-12-31","inventory":{}}`))
	if err == nil {
		t.Fatal("LoadSnapshot() into a non-empty ledger succeeded, want error")
	}
}

func TestLoadSnapshot_RejectsMalformedDecimal(t *testing.T) {
	snapshot := `{"cutoffDate":"2023-12-31","inventory":{"X":[{"date":"2023-01-01","quantity":"ten","price":"1","costBasis":"1"}]}}`
	_, err := NewLedger(nil).LoadSnapshot(strings.NewReader(snapshot))
	if err == nil || !strings.Contains(err.Error(), "bad quantity") {
		t.Fatalf("LoadSnapshot() error = %v, want bad quantity", err)
	}
}
