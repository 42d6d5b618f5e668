// Package normalize turns the free-text numbers and titles found in insider
// filings into values the scoring engine can use. None of these functions
// fail: bad input maps to 0 or RoleOther.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bighogz/insider-monitor/internal/models"
)

const maxSharesRatio = 2.0

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// Money parses text such as "$1.2M", "500K" or "2,345.50". Suffixes are checked
// in the order M, K, B. Commas are only removed when no suffix is present.
func Money(text string) float64 {
	s := strings.TrimSpace(text)
	if s == "" || s == "-" {
		return 0
	}
	s = keep(strings.ToUpper(s), func(r rune) bool {
		return isDigit(r) || r == '.' || r == ',' || r == 'K' || r == 'M' || r == 'B'
	})
	var (
		numeric string
		mult    decimal.Decimal
	)
	switch {
	case strings.Contains(s, "M"):
		numeric, mult = strings.ReplaceAll(s, "M", ""), million
	case strings.Contains(s, "K"):
		numeric, mult = strings.ReplaceAll(s, "K", ""), thousand
	case strings.Contains(s, "B"):
		numeric, mult = strings.ReplaceAll(s, "B", ""), billion
	default:
		numeric, mult = strings.ReplaceAll(s, ",", ""), decimal.NewFromInt(1)
	}
	if numeric == "" {
		return 0
	}
	d, err := decimal.NewFromString(numeric)
	if err != nil {
		return 0
	}
	f, _ := d.Mul(mult).Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// Shares parses a share count, dropping everything but digits and dots.
func Shares(text string) float64 {
	s := strings.TrimSpace(text)
	if s == "" || s == "-" {
		return 0
	}
	s = keep(s, func(r rune) bool { return isDigit(r) || r == '.' })
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Role maps an insider title to an ExecutiveRole. Checks run in a fixed order
// and the first hit wins.
func Role(text string) models.ExecutiveRole {
	t := strings.ToUpper(text)
	switch {
	case strings.Contains(t, "CEO"):
		return models.RoleCEO
	case strings.Contains(t, "CFO"):
		return models.RoleCFO
	case strings.Contains(t, "DIRECTOR"):
		return models.RoleDirector
	case strings.Contains(t, "10%"), strings.Contains(t, "OWNER"):
		return models.RoleTenPercentOwner
	case strings.Contains(t, "OFFICER"):
		return models.RoleOfficer
	default:
		return models.RoleOther
	}
}

func IsCeoOrCfo(text string) bool {
	t := strings.ToUpper(text)
	return strings.Contains(t, "CEO") || strings.Contains(t, "CFO")
}

// SharesRatio estimates the percentage of outstanding shares a trade
// represents, assuming one billion shares outstanding, capped at 2.
func SharesRatio(shares float64) float64 {
	r := shares / 1e9 * 100
	if r < 0 {
		return 0
	}
	return min(r, maxSharesRatio)
}

func keep(s string, ok func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if ok(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

var longTitles = []struct{ phrase, short string }{
	{"CHIEF EXECUTIVE", "CEO"},
	{"CHIEF FINANCIAL", "CFO"},
}

// Title appends the CEO/CFO abbreviation to spelled-out officer titles so
// that Role and IsCeoOrCfo recognize them.
func Title(text string) string {
	upper := strings.ToUpper(text)
	for _, lt := range longTitles {
		if strings.Contains(upper, lt.phrase) && !strings.Contains(upper, lt.short) {
			text += " (" + lt.short + ")"
			upper += " (" + lt.short + ")"
		}
	}
	return text
}
