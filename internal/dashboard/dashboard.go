// Package dashboard builds the two published snapshots: per-symbol activity
// for the watchlist and the scored buy/sell recommendations from the latest
// market-wide feed.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bighogz/insider-monitor/internal/aggregator"
	"github.com/bighogz/insider-monitor/internal/models"
	"github.com/bighogz/insider-monitor/internal/scoring"
	"github.com/bighogz/insider-monitor/internal/source"
	"github.com/bighogz/insider-monitor/internal/telemetry"
)

// Universe narrows the latest feed to an index and fills in missing company
// names. *sp500.Universe satisfies it.
type Universe interface {
	Filter(txs []models.RawTransaction) []models.RawTransaction
	FillNames(txs []models.RawTransaction)
}

// SnapshotWriter persists built snapshots. *snapshot.Store satisfies it.
type SnapshotWriter interface {
	WriteStocks(models.StocksSnapshot) error
	WriteRecommendations(models.RecommendationsSnapshot) error
}

type Options struct {
	LookbackMonths int
	Concurrency    int
	LatestLimit    int
	TopN           int
	// Universe is optional. Leave it nil to score every symbol in the feed.
	Universe Universe
	Logger   *slog.Logger
	Now      func() time.Time
}

type Builder struct {
	src    source.Source
	opts   Options
	log    *slog.Logger
	tracer trace.Tracer
}

func New(src source.Source, opts Options) *Builder {
	if opts.LookbackMonths <= 0 {
		opts.LookbackMonths = 3
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.LatestLimit <= 0 {
		opts.LatestLimit = 100
	}
	if opts.TopN <= 0 {
		opts.TopN = scoring.DefaultTopN
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		src:    src,
		opts:   opts,
		log:    log.With("source", src.Name()),
		tracer: telemetry.Tracer(),
	}
}

// BuildStocks counts buys and sells inside the lookback window for each
// symbol. A symbol whose fetch fails is recorded with zero counts; only
// cancellation of ctx is returned as an error.
func (b *Builder) BuildStocks(ctx context.Context, symbols []string) (models.StocksSnapshot, error) {
	ctx, span := b.tracer.Start(ctx, "dashboard.BuildStocks",
		trace.WithAttributes(
			attribute.String("source", b.src.Name()),
			attribute.Int("symbols", len(symbols)),
		))
	defer span.End()

	symbols = uniqueSymbols(symbols)
	now := b.opts.Now().UTC()
	since := now.AddDate(0, -b.opts.LookbackMonths, 0)

	records := make([]models.StockRecord, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			records[i] = b.fetchSymbol(gctx, sym, since, now)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return models.StocksSnapshot{}, err
	}

	snap := models.StocksSnapshot{
		LastUpdate: now,
		Stocks:     make(map[string]models.StockRecord, len(records)),
	}
	for _, r := range records {
		snap.Stocks[r.Symbol] = r
	}
	b.log.Info("stocks snapshot built", "symbols", len(snap.Stocks))
	return snap, nil
}

func (b *Builder) fetchSymbol(ctx context.Context, symbol string, since, now time.Time) models.StockRecord {
	ctx, span := b.tracer.Start(ctx, "dashboard.fetchSymbol",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	rec := models.StockRecord{Symbol: symbol, LastCheck: now}
	txs, err := b.src.Symbol(ctx, symbol, since)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		if ctx.Err() == nil {
			b.log.Warn("symbol fetch failed", "symbol", symbol, "error", err)
		}
		return rec
	}
	rec.BuyCount, rec.SellCount = aggregator.Counts(source.Within(txs, since))
	span.SetAttributes(attribute.Int("buys", rec.BuyCount), attribute.Int("sells", rec.SellCount))
	b.log.Debug("symbol checked", "symbol", symbol, "buys", rec.BuyCount, "sells", rec.SellCount)
	return rec
}

// BuildRecommendations scores the latest feed. A source without a latest feed,
// or a failing one, yields empty lists.
func (b *Builder) BuildRecommendations(ctx context.Context) (models.RecommendationsSnapshot, error) {
	ctx, span := b.tracer.Start(ctx, "dashboard.BuildRecommendations",
		trace.WithAttributes(
			attribute.String("source", b.src.Name()),
			attribute.Int("limit", b.opts.LatestLimit),
		))
	defer span.End()

	snap := models.RecommendationsSnapshot{
		LastUpdate: b.opts.Now().UTC(),
		Recommendations: models.Recommendations{
			Buy:  []models.RecommendationEntry{},
			Sell: []models.RecommendationEntry{},
		},
	}

	txs, err := b.src.Latest(ctx, b.opts.LatestLimit)
	switch {
	case ctx.Err() != nil:
		span.RecordError(ctx.Err())
		return models.RecommendationsSnapshot{}, ctx.Err()
	case errors.Is(err, source.ErrNotSupported):
		b.log.Info("source has no latest-trades feed; recommendations left empty")
		return snap, nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "latest feed failed")
		b.log.Warn("latest feed failed", "error", err)
		return snap, nil
	}

	if b.opts.Universe != nil {
		txs = b.opts.Universe.Filter(txs)
		b.opts.Universe.FillNames(txs)
	}
	aggs := aggregator.Group(txs)
	snap.Recommendations = scoring.Recommend(aggs, b.opts.TopN)

	span.SetAttributes(
		attribute.Int("transactions", len(txs)),
		attribute.Int("symbols", len(aggs)),
		attribute.Int("buy", len(snap.Recommendations.Buy)),
		attribute.Int("sell", len(snap.Recommendations.Sell)),
	)
	b.log.Info("recommendations built",
		"transactions", len(txs),
		"symbols", len(aggs),
		"buy", len(snap.Recommendations.Buy),
		"sell", len(snap.Recommendations.Sell))
	return snap, nil
}

// Refresh builds both snapshots and writes them. Recommendations are written
// even when the stocks write fails.
func (b *Builder) Refresh(ctx context.Context, w SnapshotWriter, symbols []string) (models.StocksSnapshot, models.RecommendationsSnapshot, error) {
	stocks, err := b.BuildStocks(ctx, symbols)
	if err != nil {
		return stocks, models.RecommendationsSnapshot{}, err
	}
	recs, err := b.BuildRecommendations(ctx)
	if err != nil {
		return stocks, recs, err
	}
	return stocks, recs, errors.Join(w.WriteStocks(stocks), w.WriteRecommendations(recs))
}

func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
