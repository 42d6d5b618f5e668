// Package scoring turns grouped insider transactions into ranked buy and sell
// recommendations using a fixed weighted formula.
package scoring

import "github.com/bighogz/insider-monitor/internal/models"

// Weights in tenths: value 0.4, ratio 0.3, executive 0.2, concentration 0.1.
const (
	valueWeight         = 4
	ratioWeight         = 3
	executiveWeight     = 2
	concentrationWeight = 1
)

func ValueScore(total float64) int {
	switch {
	case total >= 10_000_000:
		return 100
	case total >= 5_000_000:
		return 80
	case total >= 1_000_000:
		return 60
	case total >= 100_000:
		return 40
	default:
		return 20
	}
}

func RatioScore(avg float64) int {
	switch {
	case avg >= 1.0:
		return 100
	case avg >= 0.5:
		return 80
	case avg >= 0.1:
		return 60
	case avg >= 0.05:
		return 40
	default:
		return 20
	}
}

func ExecutiveScore(role models.ExecutiveRole) int {
	switch role {
	case models.RoleCEO:
		return 100
	case models.RoleCFO:
		return 90
	case models.RoleTenPercentOwner:
		return 85
	case models.RoleDirector:
		return 70
	case models.RoleOfficer:
		return 50
	default:
		return 30
	}
}

func ConcentrationScore(insiderCount int) int {
	switch {
	case insiderCount >= 5:
		return 100
	case insiderCount >= 3:
		return 70
	case insiderCount >= 2:
		return 50
	default:
		return 30
	}
}

// Score computes the composite score for one symbol and direction. The
// executive component uses the first transaction's role. Halves round up.
// An empty slice scores 0; callers only pass non-empty groups.
func Score(txs []models.RawTransaction, insiderCount int) int {
	if len(txs) == 0 {
		return 0
	}
	total, avg := totals(txs)
	return combine(
		ValueScore(total),
		RatioScore(avg),
		ExecutiveScore(txs[0].ExecutiveRole),
		ConcentrationScore(insiderCount),
	)
}

func combine(value, ratio, executive, concentration int) int {
	tenths := value*valueWeight + ratio*ratioWeight + executive*executiveWeight + concentration*concentrationWeight
	return (tenths + 5) / 10
}

func totals(txs []models.RawTransaction) (total, avgRatio float64) {
	var ratioSum float64
	for _, tx := range txs {
		total += tx.TransactionValue
		ratioSum += tx.SharesRatio
	}
	return total, ratioSum / float64(len(txs))
}
