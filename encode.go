package taxlot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/piotrk/taxlot/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// eventLine mirrors one JSONL event record. All fields except event, date
// and ticker are optional; absent decimals decode as zero.
type eventLine struct {
	Event      string          `json:"event"`
	Date       date.Date       `json:"date"`
	Ticker     string          `json:"ticker"`
	Quantity   Quantity        `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Commission decimal.Decimal `json:"commission"`
	Currency   string          `json:"currency"`
	Ratio      decimal.Decimal `json:"ratio"`
	Amount     decimal.Decimal `json:"amount"`
	Rate       decimal.Decimal `json:"rate"`
	Source     string          `json:"source"`
}

// DecodeEvents reads normalized trade events from a stream of JSONL data,
// one event object per line, and returns them sorted in replay order.
func DecodeEvents(r io.Reader) ([]TradeEvent, error) {
	var events []TradeEvent
	scanner := bufio.NewScanner(r)

	n := 0
	for scanner.Scan() {
		n++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var line eventLine
		if err := json.Unmarshal(lineBytes, &line); err != nil {
			return nil, fmt.Errorf("line %d: could not decode event %q: %w", n, string(lineBytes), err)
		}
		typ, err := ParseEventType(line.Event)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}

		events = append(events, TradeEvent{
			Date:       line.Date,
			Ticker:     line.Ticker,
			Type:       typ,
			Quantity:   line.Quantity,
			Price:      line.Price,
			Commission: line.Commission,
			Currency:   line.Currency,
			Ratio:      line.Ratio,
			Amount:     line.Amount,
			Rate:       line.Rate,
			Source:     line.Source,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}

	SortEvents(events)
	return events, nil
}

// EncodeEvent marshals a single event to JSON with a stable field order
// and writes it to the writer followed by a newline, in JSONL format.
func EncodeEvent(w io.Writer, e TradeEvent) error {
	decimal.MarshalJSONWithoutQuotes = true

	var obj jsonObjectWriter
	obj.Append("event", e.Type)
	obj.Append("date", e.Date)
	obj.Optional("ticker", e.Ticker)
	if !e.Quantity.IsZero() {
		obj.Append("quantity", e.Quantity)
	}
	if !e.Price.IsZero() {
		obj.Append("price", e.Price)
	}
	if !e.Commission.IsZero() {
		obj.Append("commission", e.Commission)
	}
	obj.Optional("currency", e.Currency)
	if !e.Ratio.IsZero() {
		obj.Append("ratio", e.Ratio)
	}
	if !e.Amount.IsZero() {
		obj.Append("amount", e.Amount)
	}
	if !e.Rate.IsZero() {
		obj.Append("rate", e.Rate)
	}
	obj.Optional("source", e.Source)

	data, err := obj.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// EncodeEvents sorts events into replay order and persists them to an
// io.Writer in JSONL format, one canonical line per event.
func EncodeEvents(w io.Writer, events []TradeEvent) error {
	SortEvents(events)
	for _, e := range events {
		if err := EncodeEvent(w, e); err != nil {
			return err
		}
	}
	return nil
}
