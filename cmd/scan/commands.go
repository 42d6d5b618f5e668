package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bighogz/insider-monitor/internal/dashboard"
	"github.com/bighogz/insider-monitor/internal/models"
	"github.com/bighogz/insider-monitor/internal/notify"
	"github.com/bighogz/insider-monitor/internal/providers"
	"github.com/bighogz/insider-monitor/internal/snapshot"
)

func (a *app) stocksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stocks [SYMBOL...]",
		Short: "Refresh buy/sell counts for the watchlist or the given symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := a.cfg.Watchlist.Symbols
			if len(args) > 0 {
				symbols = args
			}
			return a.withBuilder(cmd.Context(), func(b *dashboard.Builder, store *snapshot.Store) error {
				snap, err := b.BuildStocks(cmd.Context(), symbols)
				if err != nil {
					return err
				}
				if err := store.WriteStocks(snap); err != nil {
					return fmt.Errorf("failed to write stocks snapshot: %w", err)
				}
				printStocks(a.out, snap)
				return nil
			})
		},
	}
}

func (a *app) recommendCmd() *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Score the latest insider trades into top buy and sell picks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBuilder(cmd.Context(), func(b *dashboard.Builder, store *snapshot.Store) error {
				snap, err := b.BuildRecommendations(cmd.Context())
				if err != nil {
					return err
				}
				if err := store.WriteRecommendations(snap); err != nil {
					return fmt.Errorf("failed to write recommendations snapshot: %w", err)
				}
				printRecommendations(a.out, snap)
				if csvPath != "" {
					if err := writeCSVFile(csvPath, snap.Recommendations); err != nil {
						return err
					}
					fmt.Fprintf(a.out, "\nWrote %s.\n", csvPath)
				}
				a.notify(cmd.Context(), nil, &snap)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write both lists to this CSV file")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Refresh both snapshots (default)",
		RunE:  a.runRefresh,
	}
}

func (a *app) runRefresh(cmd *cobra.Command, _ []string) error {
	return a.withBuilder(cmd.Context(), func(b *dashboard.Builder, store *snapshot.Store) error {
		start := time.Now()
		stocks, recs, err := b.Refresh(cmd.Context(), store, a.cfg.Watchlist.Symbols)
		if err != nil {
			return err
		}
		printStocks(a.out, stocks)
		fmt.Fprintln(a.out)
		printRecommendations(a.out, recs)
		a.log.Info("refresh complete", "data_dir", store.Dir, "elapsed", time.Since(start).Round(time.Millisecond))
		a.notify(cmd.Context(), &stocks, &recs)
		return nil
	})
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the snapshots currently on disk",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := snapshot.NewStore(a.cfg.Output.DataDir)
			stocks, err := store.ReadStocks()
			switch {
			case errors.Is(err, os.ErrNotExist):
				fmt.Fprintln(a.out, "No stocks snapshot yet. Run 'scan stocks' first.")
			case err != nil:
				return err
			default:
				printStocks(a.out, stocks)
			}
			fmt.Fprintln(a.out)

			recs, err := store.ReadRecommendations()
			switch {
			case errors.Is(err, os.ErrNotExist):
				fmt.Fprintln(a.out, "No recommendations snapshot yet. Run 'scan recommend' first.")
			case err != nil:
				return err
			default:
				printRecommendations(a.out, recs)
			}
			return nil
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "scan %s\n", version)
		},
	}
}

// withBuilder opens the configured source, builds a dashboard.Builder on it
// and hands both to fn.
func (a *app) withBuilder(ctx context.Context, fn func(*dashboard.Builder, *snapshot.Store) error) error {
	set, err := providers.New(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := set.Close(); err != nil {
			a.log.Error("failed to close source", "error", err)
		}
	}()

	opts := dashboard.Options{
		LookbackMonths: a.cfg.Watchlist.LookbackMonths,
		Concurrency:    a.cfg.Watchlist.Concurrency,
		LatestLimit:    a.cfg.Recommendations.LatestLimit,
		TopN:           a.cfg.Recommendations.TopN,
		Logger:         a.log,
	}
	if set.Universe != nil {
		opts.Universe = set.Universe
	}
	return fn(dashboard.New(set.Source, opts), snapshot.NewStore(a.cfg.Output.DataDir))
}

// notify sends the Telegram summary when enabled. Failures are logged only.
func (a *app) notify(ctx context.Context, stocks *models.StocksSnapshot, recs *models.RecommendationsSnapshot) {
	if !a.cfg.Telegram.Enabled {
		return
	}
	tg, err := notify.NewTelegram(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID)
	if err != nil {
		a.log.Warn("telegram unavailable", "error", err)
		return
	}
	if err := tg.SendSummary(ctx, stocks, recs); err != nil {
		a.log.Warn("telegram summary not sent", "error", err)
		return
	}
	a.log.Info("telegram summary sent")
}
