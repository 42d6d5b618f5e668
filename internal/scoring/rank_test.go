package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bighogz/insider-monitor/internal/aggregator"
	"github.com/bighogz/insider-monitor/internal/models"
)

func TestRankStableOnTies(t *testing.T) {
	entries := []models.RecommendationEntry{
		{Symbol: "A", Score: 50},
		{Symbol: "B", Score: 70},
		{Symbol: "C", Score: 50},
		{Symbol: "D", Score: 70},
		{Symbol: "E", Score: 93},
	}
	got := Rank(entries, DefaultTopN)
	syms := make([]string, len(got))
	for i, e := range got {
		syms[i] = e.Symbol
	}
	assert.Equal(t, []string{"E", "B", "D", "A", "C"}, syms)
}

func TestRankTruncates(t *testing.T) {
	entries := make([]models.RecommendationEntry, 25)
	for i := range entries {
		entries[i] = models.RecommendationEntry{Symbol: fmt.Sprintf("S%02d", i), Score: 20 + i}
	}
	got := Rank(entries, DefaultTopN)
	require.Len(t, got, 10)
	assert.Equal(t, "S24", got[0].Symbol)
	assert.Equal(t, "S15", got[9].Symbol)
}

func TestEntry(t *testing.T) {
	agg := &models.SymbolAggregate{
		Symbol:      "PLTR",
		CompanyName: "Palantir",
		Roles:       []models.ExecutiveRole{models.RoleDirector, models.RoleCFO},
	}
	txs := []models.RawTransaction{
		{TransactionValue: 4_000_000, SharesRatio: 0.2, ExecutiveRole: models.RoleDirector},
		{TransactionValue: 2_000_000, SharesRatio: 0.4, ExecutiveRole: models.RoleCFO, IsCeoOrCfo: true},
	}
	e := Entry(agg, txs)
	assert.Equal(t, "PLTR", e.Symbol)
	assert.Equal(t, "Palantir", e.CompanyName)
	assert.Equal(t, 6_000_000.0, e.TransactionValue)
	assert.InDelta(t, 0.3, e.SharesRatio, 1e-9)
	assert.Equal(t, models.RoleDirector, e.ExecutiveType)
	assert.Equal(t, 2, e.InsiderCount)
	assert.True(t, e.IsCeoOrCfo)
	// 80*.4 + 60*.3 + 70*.2 + 50*.1
	assert.Equal(t, 69, e.Score)
}

func TestEntryFallsBackToSymbolForName(t *testing.T) {
	agg := &models.SymbolAggregate{Symbol: "RGTI", Roles: []models.ExecutiveRole{models.RoleOther}}
	e := Entry(agg, []models.RawTransaction{{TransactionValue: 1}})
	assert.Equal(t, "RGTI", e.CompanyName)
	assert.Equal(t, models.RoleOther, e.ExecutiveType)
	assert.False(t, e.IsCeoOrCfo)
}

func TestRecommendEmptyInput(t *testing.T) {
	recs := Recommend(nil, DefaultTopN)
	assert.NotNil(t, recs.Buy)
	assert.NotNil(t, recs.Sell)
	assert.Empty(t, recs.Buy)
	assert.Empty(t, recs.Sell)
}

func TestRecommendSkipsEmptyDirection(t *testing.T) {
	aggs := aggregator.Group([]models.RawTransaction{
		{Symbol: "LLY", TransactionValue: 12_000_000, SharesRatio: 1.2, ExecutiveRole: models.RoleCEO, IsBuy: true},
	})
	recs := Recommend(aggs, DefaultTopN)
	require.Len(t, recs.Buy, 1)
	assert.Empty(t, recs.Sell)
	assert.Equal(t, 93, recs.Buy[0].Score)
}

func TestRecommendSymbolInBothLists(t *testing.T) {
	aggs := aggregator.Group([]models.RawTransaction{
		{Symbol: "MSTR", TransactionValue: 200_000, ExecutiveRole: models.RoleDirector, IsBuy: true},
		{Symbol: "MSTR", TransactionValue: 20_000_000, ExecutiveRole: models.RoleCEO, IsBuy: false, IsCeoOrCfo: true},
	})
	recs := Recommend(aggs, DefaultTopN)
	require.Len(t, recs.Buy, 1)
	require.Len(t, recs.Sell, 1)
	assert.Equal(t, 2, recs.Buy[0].InsiderCount)
	assert.False(t, recs.Buy[0].IsCeoOrCfo)
	assert.True(t, recs.Sell[0].IsCeoOrCfo)
}

func TestRecommendCapsAndIsDeterministic(t *testing.T) {
	var txs []models.RawTransaction
	for i := range 40 {
		txs = append(txs, models.RawTransaction{
			Symbol:           fmt.Sprintf("SYM%d", i%15),
			TransactionValue: float64((i%7)+1) * 1_500_000,
			SharesRatio:      float64(i%5) * 0.2,
			ExecutiveRole:    []models.ExecutiveRole{models.RoleCEO, models.RoleDirector, models.RoleOfficer}[i%3],
			IsBuy:            i%2 == 0,
		})
	}
	first := Recommend(aggregator.Group(txs), DefaultTopN)
	second := Recommend(aggregator.Group(txs), DefaultTopN)
	assert.LessOrEqual(t, len(first.Buy), 10)
	assert.LessOrEqual(t, len(first.Sell), 10)
	assert.Equal(t, first, second)
	for i := 1; i < len(first.Buy); i++ {
		assert.GreaterOrEqual(t, first.Buy[i-1].Score, first.Buy[i].Score)
	}
}

func TestRecommendClampsN(t *testing.T) {
	var txs []models.RawTransaction
	for i := range 12 {
		txs = append(txs, models.RawTransaction{Symbol: fmt.Sprintf("S%d", i), IsBuy: true})
	}
	aggs := aggregator.Group(txs)
	assert.Len(t, Recommend(aggs, 3).Buy, 3)
	assert.Len(t, Recommend(aggs, 50).Buy, 10)
	assert.Len(t, Recommend(aggs, 0).Buy, 10)
}
