package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bighogz/insider-monitor/internal/config"
	"github.com/bighogz/insider-monitor/internal/logger"
	"github.com/bighogz/insider-monitor/internal/telemetry"
)

var version = "dev"

// app carries state shared by every subcommand once PersistentPreRunE ran.
type app struct {
	configPath string
	sourceKind string
	dataDir    string
	logLevel   string
	logFormat  string

	cfg      *config.Config
	log      *slog.Logger
	shutdown telemetry.Shutdown
	out      io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:   "scan",
		Short: "Fetch insider trades and score buy/sell recommendations",
		Long: `scan pulls insider transactions for a watchlist and from a market-wide
latest-trades feed, scores them, and writes stocks.json and
recommendations.json for the dashboard.

Without a subcommand it runs the full refresh.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		RunE:               a.runRefresh,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default: ./config.yaml or ./configs/config.yaml)")
	pf.StringVar(&a.sourceKind, "source", "", "acquisition source: finnhub, edgar, openinsider, fmp, fixture")
	pf.StringVar(&a.dataDir, "data-dir", "", "directory for stocks.json and recommendations.json")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format (text, json)")

	root.AddCommand(
		a.stocksCmd(),
		a.recommendCmd(),
		a.runCmd(),
		a.showCmd(),
		a.versionCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source.Kind = strings.ToLower(a.sourceKind)
	}
	if flags.Changed("data-dir") {
		cfg.Output.DataDir = a.dataDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = strings.ToLower(a.logLevel)
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = strings.ToLower(a.logFormat)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log = logger.Setup(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()).
		With("run_id", uuid.NewString(), "command", cmd.Name())
	slog.SetDefault(a.log)

	a.shutdown, err = telemetry.Setup(cmd.Context(), cfg.Telemetry.Enabled, cfg.Telemetry.Pretty, cmd.ErrOrStderr())
	return err
}

func (a *app) teardown(cmd *cobra.Command, _ []string) error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown(context.Background())
}
