package aggregator

import (
	"slices"
	"strings"

	"github.com/bighogz/insider-monitor/internal/models"
)

// Group partitions transactions by symbol and direction. Aggregates come back
// in the order each symbol was first seen; transactions keep their input order.
func Group(txs []models.RawTransaction) []*models.SymbolAggregate {
	index := make(map[string]*models.SymbolAggregate)
	out := make([]*models.SymbolAggregate, 0)
	for _, tx := range txs {
		sym := keyFor(tx)
		if sym == "" {
			continue
		}
		agg, ok := index[sym]
		if !ok {
			agg = &models.SymbolAggregate{Symbol: sym}
			index[sym] = agg
			out = append(out, agg)
		}
		if agg.CompanyName == "" {
			agg.CompanyName = strings.TrimSpace(tx.CompanyName)
		}
		if tx.IsBuy {
			agg.Buys = append(agg.Buys, tx)
		} else {
			agg.Sells = append(agg.Sells, tx)
		}
		role := tx.ExecutiveRole
		if role == "" {
			role = models.RoleOther
		}
		if !slices.Contains(agg.Roles, role) {
			agg.Roles = append(agg.Roles, role)
		}
	}
	return out
}

// Counts tallies buys and sells per symbol for the stocks snapshot.
func Counts(txs []models.RawTransaction) (buys, sells int) {
	for _, tx := range txs {
		if tx.IsBuy {
			buys++
		} else {
			sells++
		}
	}
	return buys, sells
}

func keyFor(tx models.RawTransaction) string {
	return strings.ToUpper(strings.TrimSpace(tx.Symbol))
}
