package nbp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// RateCache stores fetched month batches, keyed by (currency, year,
// month). It is an explicit object constructed once per run, never a
// package global, and it is safe for concurrent use so tickers sharing a
// currency may be replayed in parallel.
//
// When a cache directory is set, months are also persisted as one JSON
// file per (currency, year) and reloaded lazily on first access, so rates
// survive process restarts.
type RateCache struct {
	mem *gocache.Cache

	mu     sync.Mutex
	dir    string          // empty disables persistence
	loaded map[string]bool // year files already read from disk
}

// NewRateCache creates a cache. dir may be empty for a purely in-memory
// cache.
func NewRateCache(dir string) *RateCache {
	return &RateCache{
		mem:    gocache.New(gocache.NoExpiration, 0),
		dir:    dir,
		loaded: make(map[string]bool),
	}
}

func monthKey(currency string, year int, month time.Month) string {
	return fmt.Sprintf("%s/%04d-%02d", currency, year, int(month))
}

func yearKey(currency string, year int) string {
	return fmt.Sprintf("%s-%04d", currency, year)
}

// yearFile is the on-disk format: the full year's date→rate map plus the
// list of months actually fetched. The month list matters because an
// absent date inside a fetched month means "no rate published that day",
// while a month never fetched means nothing at all.
type yearFile struct {
	Currency string                     `json:"currency"`
	Year     int                        `json:"year"`
	Months   []int                      `json:"months"`
	Rates    map[string]decimal.Decimal `json:"rates"`
}

// Month returns the cached batch for (currency, year, month) and whether
// that month has been fetched at all. An empty map with ok == true means
// the month was fetched and had no published rates.
func (c *RateCache) Month(currency string, year int, month time.Month) (MonthRates, bool) {
	c.loadYear(currency, year)
	if v, ok := c.mem.Get(monthKey(currency, year, month)); ok {
		return v.(MonthRates), true
	}
	return nil, false
}

// PutMonth stores a fetched month batch and, when persistence is enabled,
// rewrites the (currency, year) file.
func (c *RateCache) PutMonth(currency string, year int, month time.Month, rates MonthRates) {
	if rates == nil {
		rates = MonthRates{}
	}
	c.mem.Set(monthKey(currency, year, month), rates, gocache.NoExpiration)
	c.saveYear(currency, year)
}

// loadYear reads the persisted year file into memory, once.
func (c *RateCache) loadYear(currency string, year int) {
	if c.dir == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := yearKey(currency, year)
	if c.loaded[key] {
		return
	}
	c.loaded[key] = true

	content, err := os.ReadFile(c.yearPath(currency, year))
	if err != nil {
		return // nothing persisted yet
	}
	var yf yearFile
	if err := json.Unmarshal(content, &yf); err != nil {
		return // a corrupt cache file is simply refetched
	}

	byMonth := make(map[int]MonthRates)
	for _, m := range yf.Months {
		byMonth[m] = MonthRates{}
	}
	for day, rate := range yf.Rates {
		var y, m, d int
		if _, err := fmt.Sscanf(day, "%d-%d-%d", &y, &m, &d); err != nil || y != year {
			continue
		}
		if batch, ok := byMonth[m]; ok {
			batch[day] = rate
		}
	}
	for m, batch := range byMonth {
		c.mem.Set(monthKey(currency, year, time.Month(m)), batch, gocache.NoExpiration)
	}
}

// saveYear persists every cached month of (currency, year).
func (c *RateCache) saveYear(currency string, year int) {
	if c.dir == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	yf := yearFile{
		Currency: currency,
		Year:     year,
		Rates:    make(map[string]decimal.Decimal),
	}
	for m := time.January; m <= time.December; m++ {
		v, ok := c.mem.Get(monthKey(currency, year, m))
		if !ok {
			continue
		}
		yf.Months = append(yf.Months, int(m))
		for day, rate := range v.(MonthRates) {
			yf.Rates[day] = rate
		}
	}
	sort.Ints(yf.Months)

	content, err := json.MarshalIndent(yf, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return
	}
	// Best effort: a failed write only costs a refetch next run.
	_ = os.WriteFile(c.yearPath(currency, year), content, 0o644)
}

func (c *RateCache) yearPath(currency string, year int) string {
	return filepath.Join(c.dir, yearKey(currency, year)+".json")
}
