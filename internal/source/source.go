// Package source defines the acquisition interface shared by every insider
// data strategy (REST, filings, HTML scraping, fixtures).
package source

import (
	"context"
	"errors"
	"time"

	"github.com/bighogz/insider-monitor/internal/models"
)

var (
	// ErrNotSupported is returned by strategies that lack a given feed.
	ErrNotSupported = errors.New("not supported by this source")
	// ErrUnknownSymbol is returned when a symbol cannot be resolved upstream.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Source returns normalized insider transactions, either for one ticker or
// from a market-wide latest-trades feed.
type Source interface {
	Name() string
	Symbol(ctx context.Context, symbol string, since time.Time) ([]models.RawTransaction, error)
	Latest(ctx context.Context, limit int) ([]models.RawTransaction, error)
}

// Within drops transactions dated before since. Undated transactions are kept.
func Within(txs []models.RawTransaction, since time.Time) []models.RawTransaction {
	if since.IsZero() {
		return txs
	}
	out := txs[:0:0]
	for _, tx := range txs {
		if !tx.TransactionDate.IsZero() && tx.TransactionDate.Before(since) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// ParseDate reads the leading YYYY-MM-DD of s.
func ParseDate(s string) (time.Time, bool) {
	if len(s) < 10 {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, s[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
