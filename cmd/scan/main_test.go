package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bighogz/insider-monitor/internal/models"
	"github.com/bighogz/insider-monitor/internal/snapshot"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "scan dev\n", out)
}

func TestRunWithFixture(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "--source", "fixture", "--data-dir", dir, "--log-level", "error", "run")
	require.NoError(t, err)

	assert.Contains(t, out, "Watchlist insider activity")
	assert.Contains(t, out, "Top buys")
	assert.Contains(t, out, "Top sells")

	store := snapshot.NewStore(dir)
	stocks, err := store.ReadStocks()
	require.NoError(t, err)
	assert.Len(t, stocks.Stocks, 6)

	recs, err := store.ReadRecommendations()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(recs.Recommendations.Buy), 10)
	assert.LessOrEqual(t, len(recs.Recommendations.Sell), 10)
	assert.NotEmpty(t, append(recs.Recommendations.Buy, recs.Recommendations.Sell...))
}

func TestDefaultCommandRuns(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "--source", "fixture", "--data-dir", dir, "--log-level", "error")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, snapshot.StocksFile))
	assert.FileExists(t, filepath.Join(dir, snapshot.RecommendationsFile))
}

func TestStocksWithArgs(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "--source", "fixture", "--data-dir", dir, "--log-level", "error", "stocks", "aapl", "msft")
	require.NoError(t, err)
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "MSFT")

	stocks, err := snapshot.NewStore(dir).ReadStocks()
	require.NoError(t, err)
	assert.Len(t, stocks.Stocks, 2)
	assert.NoFileExists(t, filepath.Join(dir, snapshot.RecommendationsFile))
}

func TestRecommendWritesCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "picks.csv")
	out, err := execute(t, "--source", "fixture", "--data-dir", dir, "--log-level", "error", "recommend", "--csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+csvPath)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "direction", rows[0][0])
}

func TestShowWithoutSnapshots(t *testing.T) {
	out, err := execute(t, "--source", "fixture", "--data-dir", t.TempDir(), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No stocks snapshot yet")
	assert.Contains(t, out, "No recommendations snapshot yet")
}

func TestInvalidSourceFlag(t *testing.T) {
	_, err := execute(t, "--source", "bloomberg", "--data-dir", t.TempDir(), "show")
	assert.ErrorContains(t, err, "source.kind")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSV(&buf, models.Recommendations{
		Buy: []models.RecommendationEntry{{
			Symbol: "LLY", CompanyName: "Eli Lilly, Inc.", Score: 93, TransactionValue: 12e6,
			SharesRatio: 1.2, ExecutiveType: models.RoleCEO, InsiderCount: 1, IsCeoOrCfo: true,
		}},
		Sell: []models.RecommendationEntry{{Symbol: "TSLA", CompanyName: "Tesla", Score: 40, ExecutiveType: models.RoleDirector}},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `buy,1,LLY,"Eli Lilly, Inc.",93,12000000.00,1.2000,CEO,1,true`, lines[1])
	assert.Equal(t, `sell,1,TSLA,Tesla,40,0.00,0.0000,Director,0,false`, lines[2])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
