package sp500

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/bighogz/insider-monitor/internal/httpclient"
	"github.com/bighogz/insider-monitor/internal/models"
)

const CSVURL = "https://raw.githubusercontent.com/datasets/s-and-p-500-companies/master/data/constituents.csv"

type Company struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Universe is the S&P 500 constituent list keyed by normalized symbol.
type Universe struct {
	bySymbol map[string]Company
}

// Load downloads and parses the constituents CSV.
func Load(ctx context.Context, hc *httpclient.Client, url string) (*Universe, error) {
	if url == "" {
		url = CSVURL
	}
	body, err := hc.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("sp500 constituents: %w", err)
	}
	return Parse(bytes.NewReader(body))
}

// Parse reads a constituents CSV with Symbol and Security columns. Other
// columns are ignored.
func Parse(r io.Reader) (*Universe, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("sp500 constituents: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sp500 constituents: no rows")
	}
	symIdx, nameIdx := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "symbol":
			symIdx = i
		case "security", "name":
			nameIdx = i
		}
	}
	if symIdx < 0 {
		return nil, fmt.Errorf("sp500 constituents: no Symbol column")
	}
	u := &Universe{bySymbol: make(map[string]Company, len(rows)-1)}
	for _, row := range rows[1:] {
		if symIdx >= len(row) {
			continue
		}
		sym := key(row[symIdx])
		if sym == "" {
			continue
		}
		if _, seen := u.bySymbol[sym]; seen {
			continue
		}
		c := Company{Symbol: strings.TrimSpace(row[symIdx])}
		if nameIdx >= 0 && nameIdx < len(row) {
			c.Name = strings.TrimSpace(row[nameIdx])
		}
		u.bySymbol[sym] = c
	}
	return u, nil
}

func (u *Universe) Len() int { return len(u.bySymbol) }

func (u *Universe) Contains(symbol string) bool {
	_, ok := u.bySymbol[key(symbol)]
	return ok
}

// Name returns the company name for symbol or "".
func (u *Universe) Name(symbol string) string {
	return u.bySymbol[key(symbol)].Name
}

// Filter keeps the transactions whose symbol is a constituent.
func (u *Universe) Filter(txs []models.RawTransaction) []models.RawTransaction {
	out := make([]models.RawTransaction, 0, len(txs))
	for _, tx := range txs {
		if u.Contains(tx.Symbol) {
			out = append(out, tx)
		}
	}
	return out
}

// FillNames sets CompanyName on transactions that lack one.
func (u *Universe) FillNames(txs []models.RawTransaction) {
	for i := range txs {
		if strings.TrimSpace(txs[i].CompanyName) == "" || txs[i].CompanyName == txs[i].Symbol {
			if n := u.Name(txs[i].Symbol); n != "" {
				txs[i].CompanyName = n
			}
		}
	}
}

// key folds share-class separators so "BRK.B" and "BRK-B" match.
func key(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.ReplaceAll(s, "-", ".")
}
