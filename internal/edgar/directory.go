package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bighogz/insider-monitor/internal/httpclient"
	"github.com/bighogz/insider-monitor/internal/storage"
)

const DefaultTickersURL = "https://www.sec.gov/files/company_tickers.json"

// DefaultCIKs seeds the directory before any enrichment.
var DefaultCIKs = map[string]string{
	"TSLA":  "0001318605",
	"PLTR":  "0001321655",
	"RGTI":  "0001810383",
	"IONQ":  "0001733755",
	"MSTR":  "0001050446",
	"LLY":   "0000059478",
	"AAPL":  "0000320193",
	"MSFT":  "0000789019",
	"NVDA":  "0001045810",
	"GOOGL": "0001652044",
	"AMZN":  "0001018724",
	"META":  "0001326801",
}

// CompanyStore caches the enriched directory between runs.
type CompanyStore interface {
	SaveCompanies(ctx context.Context, companies []storage.Company, fetchedAt time.Time) error
	LoadCompanies(ctx context.Context, notBefore time.Time) ([]storage.Company, time.Time, error)
}

// Directory resolves tickers to zero-padded SEC CIKs. Seeded entries always
// win over enriched ones.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]storage.Company
	seeded  map[string]bool

	store      CompanyStore
	http       *httpclient.Client
	TickersURL string
	TTL        time.Duration
	now        func() time.Time
}

// NewDirectory builds a directory from seed (ticker -> CIK). store and hc may
// be nil, in which case Enrich is a no-op.
func NewDirectory(seed map[string]string, store CompanyStore, hc *httpclient.Client) *Directory {
	d := &Directory{
		entries:    make(map[string]storage.Company, len(seed)),
		seeded:     make(map[string]bool, len(seed)),
		store:      store,
		http:       hc,
		TickersURL: DefaultTickersURL,
		TTL:        7 * 24 * time.Hour,
		now:        time.Now,
	}
	for ticker, cik := range seed {
		t := strings.ToUpper(strings.TrimSpace(ticker))
		if t == "" || cik == "" {
			continue
		}
		d.entries[t] = storage.Company{Ticker: t, CIK: padCIK(cik)}
		d.seeded[t] = true
	}
	return d
}

func (d *Directory) Lookup(symbol string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.entries[strings.ToUpper(strings.TrimSpace(symbol))]
	return c.CIK, ok
}

// Name returns the registrant name for symbol, if known.
func (d *Directory) Name(symbol string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.entries[strings.ToUpper(strings.TrimSpace(symbol))].Name
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Enrich merges the SEC ticker list into the directory, using the store when
// its copy is younger than TTL and refreshing it otherwise.
func (d *Directory) Enrich(ctx context.Context) error {
	if d.store != nil {
		cached, fetchedAt, err := d.store.LoadCompanies(ctx, d.now().Add(-d.TTL))
		if err != nil {
			slog.Warn("cik cache unreadable", "error", err)
		} else if len(cached) > 0 {
			d.merge(cached)
			slog.Debug("cik directory loaded from cache", "entries", len(cached), "fetched_at", fetchedAt)
			return nil
		}
	}
	if d.http == nil {
		return nil
	}
	companies, err := d.fetchTickers(ctx)
	if err != nil {
		return err
	}
	d.merge(companies)
	slog.Info("cik directory enriched", "entries", len(companies))
	if d.store != nil {
		if err := d.store.SaveCompanies(ctx, companies, d.now()); err != nil {
			slog.Warn("cik cache not saved", "error", err)
		}
	}
	return nil
}

type tickerEntry struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

func (d *Directory) fetchTickers(ctx context.Context) ([]storage.Company, error) {
	body, err := d.http.Get(ctx, d.TickersURL)
	if err != nil {
		return nil, fmt.Errorf("sec company tickers: %w", err)
	}
	var raw map[string]tickerEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("sec company tickers: decode: %w", err)
	}
	out := make([]storage.Company, 0, len(raw))
	for _, e := range raw {
		t := strings.ToUpper(strings.TrimSpace(e.Ticker))
		if t == "" || e.CIK == "" {
			continue
		}
		out = append(out, storage.Company{Ticker: t, CIK: padCIK(e.CIK.String()), Name: e.Title})
	}
	return out, nil
}

func (d *Directory) merge(companies []storage.Company) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range companies {
		t := strings.ToUpper(c.Ticker)
		if d.seeded[t] {
			cur := d.entries[t]
			if cur.Name == "" {
				cur.Name = c.Name
				d.entries[t] = cur
			}
			continue
		}
		c.Ticker = t
		c.CIK = padCIK(c.CIK)
		d.entries[t] = c
	}
}

// padCIK pads a CIK number to 10 digits with leading zeros.
func padCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}

// trimCIK strips leading zeros, as used in archive paths.
func trimCIK(cik string) string {
	n, err := strconv.ParseInt(cik, 10, 64)
	if err != nil {
		return strings.TrimLeft(cik, "0")
	}
	return strconv.FormatInt(n, 10)
}
