package scoring

import (
	"slices"

	"github.com/bighogz/insider-monitor/internal/models"
)

// DefaultTopN is the maximum length of each recommendation list.
const DefaultTopN = 10

// Entry builds the recommendation for one direction of an aggregate. txs must
// be non-empty.
func Entry(agg *models.SymbolAggregate, txs []models.RawTransaction) models.RecommendationEntry {
	total, avg := totals(txs)
	ceoOrCfo := false
	for _, tx := range txs {
		if tx.IsCeoOrCfo {
			ceoOrCfo = true
			break
		}
	}
	name := agg.CompanyName
	if name == "" {
		name = agg.Symbol
	}
	return models.RecommendationEntry{
		Symbol:           agg.Symbol,
		CompanyName:      name,
		Score:            Score(txs, agg.InsiderCount()),
		TransactionValue: total,
		SharesRatio:      avg,
		ExecutiveType:    executiveType(txs[0].ExecutiveRole),
		InsiderCount:     agg.InsiderCount(),
		IsCeoOrCfo:       ceoOrCfo,
	}
}

// Rank sorts entries by descending score, keeping first-seen order on ties,
// and truncates to n. The input slice is reordered in place.
func Rank(entries []models.RecommendationEntry, n int) []models.RecommendationEntry {
	slices.SortStableFunc(entries, func(a, b models.RecommendationEntry) int {
		return b.Score - a.Score
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Recommend scores every non-empty direction of every aggregate and returns
// the top n buys and sells. n outside 1..DefaultTopN falls back to DefaultTopN.
func Recommend(aggs []*models.SymbolAggregate, n int) models.Recommendations {
	if n <= 0 || n > DefaultTopN {
		n = DefaultTopN
	}
	buys := make([]models.RecommendationEntry, 0)
	sells := make([]models.RecommendationEntry, 0)
	for _, agg := range aggs {
		if len(agg.Buys) > 0 {
			buys = append(buys, Entry(agg, agg.Buys))
		}
		if len(agg.Sells) > 0 {
			sells = append(sells, Entry(agg, agg.Sells))
		}
	}
	return models.Recommendations{
		Buy:  Rank(buys, n),
		Sell: Rank(sells, n),
	}
}

func executiveType(role models.ExecutiveRole) models.ExecutiveRole {
	if role == "" {
		return models.RoleOther
	}
	return role
}
