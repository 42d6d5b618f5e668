package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/bighogz/insider-monitor/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4"))
	buyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#95E1D3"))
	sellStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func printStocks(out io.Writer, snap models.StocksSnapshot) {
	fmt.Fprintln(out, titleStyle.Render("Watchlist insider activity"))
	fmt.Fprintln(out, mutedStyle.Render("updated "+snap.LastUpdate.UTC().Format("2006-01-02 15:04:05 MST")))
	if len(snap.Stocks) == 0 {
		fmt.Fprintln(out, "  (No symbols)")
		return
	}

	symbols := make([]string, 0, len(snap.Stocks))
	for s := range snap.Stocks {
		symbols = append(symbols, s)
	}
	slices.Sort(symbols)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  SYMBOL\tBUYS\tSELLS\tCHECKED")
	for _, s := range symbols {
		r := snap.Stocks[s]
		fmt.Fprintf(w, "  %s\t%d\t%d\t%s\n", s, r.BuyCount, r.SellCount, r.LastCheck.UTC().Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func printRecommendations(out io.Writer, snap models.RecommendationsSnapshot) {
	fmt.Fprintln(out, titleStyle.Render("Insider recommendations"))
	fmt.Fprintln(out, mutedStyle.Render("updated "+snap.LastUpdate.UTC().Format("2006-01-02 15:04:05 MST")))
	printEntries(out, buyStyle.Render("Top buys"), snap.Recommendations.Buy)
	printEntries(out, sellStyle.Render("Top sells"), snap.Recommendations.Sell)
}

func printEntries(out io.Writer, title string, entries []models.RecommendationEntry) {
	fmt.Fprintf(out, "\n%s\n", title)
	if len(entries) == 0 {
		fmt.Fprintln(out, "  None.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tSYMBOL\tNAME\tSCORE\tVALUE\tRATIO\tROLE\tINSIDERS\tCEO/CFO")
	for i, e := range entries {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%d\t$%.0f\t%.2f\t%s\t%d\t%s\n",
			i+1, e.Symbol, truncate(e.CompanyName, 32), e.Score, e.TransactionValue,
			e.SharesRatio, e.ExecutiveType, e.InsiderCount, yesNo(e.IsCeoOrCfo))
	}
	w.Flush()
}

// writeCSV writes both lists, buys first, one row per entry.
func writeCSV(out io.Writer, recs models.Recommendations) error {
	w := csv.NewWriter(out)
	w.Write([]string{"direction", "rank", "symbol", "name", "score", "transaction_value", "shares_ratio", "executive_type", "insider_count", "is_ceo_or_cfo"})
	for _, list := range []struct {
		direction string
		entries   []models.RecommendationEntry
	}{{"buy", recs.Buy}, {"sell", recs.Sell}} {
		for i, e := range list.entries {
			w.Write([]string{
				list.direction,
				strconv.Itoa(i + 1),
				e.Symbol,
				e.CompanyName,
				strconv.Itoa(e.Score),
				fmt.Sprintf("%.2f", e.TransactionValue),
				fmt.Sprintf("%.4f", e.SharesRatio),
				string(e.ExecutiveType),
				strconv.Itoa(e.InsiderCount),
				strconv.FormatBool(e.IsCeoOrCfo),
			})
		}
	}
	w.Flush()
	return w.Error()
}

func writeCSVFile(path string, recs models.Recommendations) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create CSV: %w", err)
	}
	if err := writeCSV(f, recs); err != nil {
		f.Close()
		return fmt.Errorf("could not write CSV: %w", err)
	}
	return f.Close()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
