package taxlot

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/piotrk/taxlot/date"
	"github.com/shopspring/decimal"
)

// snapshotLot is one persisted open lot. Numeric fields are exact decimal
// strings so a snapshot round-trips without any binary-float drift.
type snapshotLot struct {
	Date     date.Date `json:"date"`
	Quantity string    `json:"quantity"`
	Price    string    `json:"price"`
	Rate     string    `json:"rate,omitempty"`
	Cost     string    `json:"costBasis"`
	Currency string    `json:"currency,omitempty"`
	Source   string    `json:"source,omitempty"`
}

// snapshotDoc is the carry-forward state of a ledger: the remaining open
// lots per ticker, valid for any event stream starting strictly after the
// cutoff date.
type snapshotDoc struct {
	CutoffDate date.Date                `json:"cutoffDate"`
	Inventory  map[string][]snapshotLot `json:"inventory"`
}

// SaveSnapshot writes the ledger's open-lot state so a later run can pick
// up after cutoff without replaying history.
func (l *Ledger) SaveSnapshot(w io.Writer, cutoff date.Date) error {
	doc := snapshotDoc{
		CutoffDate: cutoff,
		Inventory:  make(map[string][]snapshotLot),
	}
	for _, ticker := range l.tickers {
		queue := *l.inventory[ticker]
		if len(queue) == 0 {
			continue
		}
		lots := make([]snapshotLot, 0, len(queue))
		for _, lot := range queue {
			lots = append(lots, snapshotLot{
				Date:     lot.Date,
				Quantity: lot.Quantity.String(),
				Price:    lot.Price.String(),
				Rate:     lot.Rate.String(),
				Cost:     lot.Cost.Decimal().String(),
				Currency: lot.Currency,
				Source:   lot.Source,
			})
		}
		doc.Inventory[ticker] = lots
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot seeds the ledger's queues from a snapshot and returns its
// cutoff date. ProcessEvents will then skip events on or before the
// cutoff. Loading into a ledger that already holds lots is a mistake.
func (l *Ledger) LoadSnapshot(r io.Reader) (date.Date, error) {
	if len(l.tickers) != 0 {
		return date.Date{}, fmt.Errorf("cannot load a snapshot into a non-empty ledger")
	}

	var doc snapshotDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return date.Date{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	tickers := make([]string, 0, len(doc.Inventory))
	for ticker := range doc.Inventory {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		q := l.queue(ticker)
		for i, sl := range doc.Inventory[ticker] {
			qty, err := decimal.NewFromString(sl.Quantity)
			if err != nil {
				return date.Date{}, fmt.Errorf("snapshot %s lot %d: bad quantity %q: %w", ticker, i, sl.Quantity, err)
			}
			price, err := decimal.NewFromString(sl.Price)
			if err != nil {
				return date.Date{}, fmt.Errorf("snapshot %s lot %d: bad price %q: %w", ticker, i, sl.Price, err)
			}
			cost, err := decimal.NewFromString(sl.Cost)
			if err != nil {
				return date.Date{}, fmt.Errorf("snapshot %s lot %d: bad cost basis %q: %w", ticker, i, sl.Cost, err)
			}
			rate := decimal.Zero
			if sl.Rate != "" {
				rate, err = decimal.NewFromString(sl.Rate)
				if err != nil {
					return date.Date{}, fmt.Errorf("snapshot %s lot %d: bad rate %q: %w", ticker, i, sl.Rate, err)
				}
			}
			*q = append(*q, &InventoryLot{
				Ticker:   ticker,
				Date:     sl.Date,
				Quantity: Q(qty),
				Price:    price,
				Rate:     rate,
				Cost:     M(cost, HomeCurrency),
				Currency: sl.Currency,
				Source:   sl.Source,
			})
		}
	}

	l.cutoff = doc.CutoffDate
	return doc.CutoffDate, nil
}
