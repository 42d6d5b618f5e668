package snapshot

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bighogz/insider-monitor/internal/models"
)

func TestWriteStocksShape(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "data"))
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	err := s.WriteStocks(models.StocksSnapshot{
		LastUpdate: now,
		Stocks: map[string]models.StockRecord{
			"TSLA": {Symbol: "TSLA", BuyCount: 1, SellCount: 4, LastCheck: now},
		},
	})
	require.NoError(t, err)

	raw, err := s.Raw(StocksFile)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "2024-06-01T12:00:00Z", doc["lastUpdate"])
	stock := doc["stocks"].(map[string]any)["TSLA"].(map[string]any)
	assert.Equal(t, float64(1), stock["buyCount"])
	assert.Equal(t, float64(4), stock["sellCount"])
	assert.Equal(t, "2024-06-01T12:00:00Z", stock["lastCheck"])
}

func TestWriteRecommendationsEmptyListsAreArrays(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.WriteRecommendations(models.RecommendationsSnapshot{LastUpdate: time.Now().UTC()}))

	raw, err := s.Raw(RecommendationsFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"buy": []`)
	assert.Contains(t, string(raw), `"sell": []`)
}

func TestRecommendationKeys(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.WriteRecommendations(models.RecommendationsSnapshot{
		LastUpdate: time.Now().UTC(),
		Recommendations: models.Recommendations{Buy: []models.RecommendationEntry{{
			Symbol: "LLY", CompanyName: "Eli Lilly", Score: 93, TransactionValue: 12e6,
			SharesRatio: 1.2, ExecutiveType: models.RoleCEO, InsiderCount: 1, IsCeoOrCfo: true,
		}}},
	}))
	raw, err := s.Raw(RecommendationsFile)
	require.NoError(t, err)
	for _, key := range []string{`"name"`, `"score"`, `"transactionValue"`, `"sharesRatio"`, `"executiveType"`, `"insiderCount"`, `"isCeoOrCfo"`} {
		assert.Contains(t, string(raw), key)
	}

	got, err := s.ReadRecommendations()
	require.NoError(t, err)
	require.Len(t, got.Recommendations.Buy, 1)
	assert.Equal(t, 93, got.Recommendations.Buy[0].Score)
}

func TestReadMissing(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.ReadStocks()
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.True(t, s.LastUpdate(StocksFile).IsZero())
}

func TestFresh(t *testing.T) {
	s := NewStore(t.TempDir())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, s.Fresh(24*time.Hour, now))

	require.NoError(t, s.WriteStocks(models.StocksSnapshot{LastUpdate: now.Add(-time.Hour)}))
	assert.False(t, s.Fresh(24*time.Hour, now))

	require.NoError(t, s.WriteRecommendations(models.RecommendationsSnapshot{LastUpdate: now.Add(-2 * time.Hour)}))
	assert.True(t, s.Fresh(24*time.Hour, now))
	assert.False(t, s.Fresh(90*time.Minute, now))
}

func TestRawRejectsOtherFiles(t *testing.T) {
	_, err := NewStore(t.TempDir()).Raw("../etc/passwd")
	assert.Error(t, err)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, s.WriteStocks(models.StocksSnapshot{LastUpdate: time.Now().UTC()}))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StocksFile, entries[0].Name())
}
