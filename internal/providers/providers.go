// Package providers builds the configured acquisition strategy together with
// the clients, caches and reference lists it depends on.
package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"

	"github.com/bighogz/insider-monitor/internal/config"
	"github.com/bighogz/insider-monitor/internal/edgar"
	"github.com/bighogz/insider-monitor/internal/finnhub"
	"github.com/bighogz/insider-monitor/internal/fixture"
	"github.com/bighogz/insider-monitor/internal/fmp"
	"github.com/bighogz/insider-monitor/internal/httpclient"
	"github.com/bighogz/insider-monitor/internal/openinsider"
	"github.com/bighogz/insider-monitor/internal/source"
	"github.com/bighogz/insider-monitor/internal/sp500"
	"github.com/bighogz/insider-monitor/internal/storage"
)

// Set is a ready-to-use source. Universe is nil unless
// recommendations.universe is sp500 and the list loaded.
type Set struct {
	Source   source.Source
	Universe *sp500.Universe

	closers []io.Closer
}

// Close releases caches opened for the source.
func (s *Set) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// New wires the strategy named by cfg.Source.Kind.
func New(ctx context.Context, cfg *config.Config) (*Set, error) {
	set := &Set{}

	if cfg.Recommendations.Universe == "sp500" {
		u, err := sp500.Load(ctx, client(cfg, "", 0), sp500.CSVURL)
		if err != nil {
			slog.Warn("S&P 500 list unavailable; recommendations are not filtered", "error", err)
		} else {
			slog.Info("S&P 500 universe loaded", "constituents", u.Len())
			set.Universe = u
		}
	}

	switch cfg.Source.Kind {
	case config.SourceFinnhub:
		c := finnhub.New(cfg.Finnhub.APIKey, cfg.Finnhub.BaseURL, client(cfg, "", cfg.Finnhub.Delay))
		if c.IsDemo() {
			slog.Warn("using the Finnhub demo key; most symbols will return no data. Set FINNHUB_API_KEY for real results")
		}
		if set.Universe != nil {
			c.Names = set.Universe.Name
		}
		set.Source = c

	case config.SourceEDGAR:
		src, closer, err := newEDGAR(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if closer != nil {
			set.closers = append(set.closers, closer)
		}
		set.Source = src

	case config.SourceOpenInsider:
		set.Source = openinsider.New(cfg.OpenInsider.BaseURL, client(cfg, "", cfg.OpenInsider.Delay))

	case config.SourceFMP:
		set.Source = fmp.New(cfg.FMP.APIKey, cfg.FMP.BaseURL, client(cfg, "", 0))

	case config.SourceFixture:
		set.Source = fixture.New(cfg.Fixture.Seed)

	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}

	slog.Debug("source ready", "source", set.Source.Name())
	return set, nil
}

func newEDGAR(ctx context.Context, cfg *config.Config) (source.Source, io.Closer, error) {
	hc := client(cfg, cfg.EDGAR.UserAgent, cfg.EDGAR.Delay)

	seed := maps.Clone(edgar.DefaultCIKs)
	maps.Copy(seed, cfg.EDGAR.CIKs)

	if !cfg.EDGAR.Enrich {
		return edgar.New(hc, edgar.NewDirectory(seed, nil, nil)), nil, nil
	}

	st, err := storage.New(cfg.EDGAR.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("cik cache: %w", err)
	}
	dir := edgar.NewDirectory(seed, st, hc)
	if cfg.EDGAR.CacheTTL > 0 {
		dir.TTL = cfg.EDGAR.CacheTTL
		if n, err := st.Prune(ctx, time.Now().Add(-4*cfg.EDGAR.CacheTTL)); err != nil {
			slog.Warn("cik cache prune failed", "error", err)
		} else if n > 0 {
			slog.Debug("cik cache pruned", "rows", n)
		}
	}
	if err := dir.Enrich(ctx); err != nil {
		slog.Warn("cik directory enrichment failed; using seeded tickers only", "error", err, "seeded", len(seed))
	}
	slog.Debug("cik directory ready", "tickers", dir.Len())
	return edgar.New(hc, dir), st, nil
}

func client(cfg *config.Config, userAgent string, delay time.Duration) *httpclient.Client {
	hc := httpclient.New(cfg.HTTP.Timeout, userAgent, delay)
	hc.RetryAfter = cfg.HTTP.RetryAfter
	return hc
}
