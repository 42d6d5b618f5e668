// Package fixture generates synthetic insider transactions for demos and
// tests. Every record it emits is tagged Source "fixture"; it never talks to
// the network and is only used when explicitly selected.
package fixture

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/bighogz/insider-monitor/internal/models"
	"github.com/bighogz/insider-monitor/internal/normalize"
)

const Name = "fixture"

type company struct{ symbol, name string }

var companies = []company{
	{"AAPL", "Apple Inc."},
	{"MSFT", "Microsoft Corporation"},
	{"GOOGL", "Alphabet Inc."},
	{"AMZN", "Amazon.com Inc."},
	{"NVDA", "NVIDIA Corporation"},
	{"META", "Meta Platforms Inc."},
	{"TSLA", "Tesla Inc."},
	{"BRK.B", "Berkshire Hathaway Inc."},
	{"JPM", "JPMorgan Chase & Co."},
	{"V", "Visa Inc."},
}

var titles = []string{"CEO", "CFO", "Director", "Officer", "10% Owner"}

// Generator is a deterministic source of fake trades for a given seed.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func New(seed uint64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
}

func (g *Generator) Name() string { return Name }

// Symbol returns between 0 and 5 synthetic trades for symbol.
func (g *Generator) Symbol(ctx context.Context, symbol string, since time.Time) ([]models.RawTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slog.Warn("serving synthetic fixture data", "symbol", symbol)
	g.mu.Lock()
	defer g.mu.Unlock()
	sym := strings.ToUpper(symbol)
	name := sym
	for _, c := range companies {
		if c.symbol == sym {
			name = c.name
			break
		}
	}
	n := g.rng.IntN(6)
	out := make([]models.RawTransaction, 0, n)
	for range n {
		out = append(out, g.trade(company{sym, name}, since))
	}
	return out, nil
}

// Latest returns limit synthetic trades spread over the fixed company list.
func (g *Generator) Latest(ctx context.Context, limit int) ([]models.RawTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slog.Warn("serving synthetic fixture data", "feed", "latest", "rows", limit)
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.RawTransaction, 0, limit)
	for range limit {
		out = append(out, g.trade(companies[g.rng.IntN(len(companies))], time.Time{}))
	}
	return out, nil
}

func (g *Generator) trade(c company, since time.Time) models.RawTransaction {
	title := titles[g.rng.IntN(len(titles))]
	shares := float64(10_000 + g.rng.IntN(990_001))
	value := float64(100_000 + g.rng.IntN(49_900_001))
	now := g.now().UTC().Truncate(24 * time.Hour)
	window := 90
	if !since.IsZero() {
		window = max(1, int(now.Sub(since).Hours()/24))
	}
	return models.RawTransaction{
		Symbol:           c.symbol,
		CompanyName:      c.name,
		TransactionValue: value,
		SharesTraded:     shares,
		SharesRatio:      normalize.SharesRatio(shares),
		ExecutiveRole:    normalize.Role(title),
		IsBuy:            g.rng.IntN(2) == 0,
		IsCeoOrCfo:       normalize.IsCeoOrCfo(title),
		InsiderName:      "Synthetic Insider",
		TransactionDate:  now.AddDate(0, 0, -g.rng.IntN(window)),
		Source:           Name,
	}
}
