package normalize

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bighogz/insider-monitor/internal/models"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$1.2M", 1_200_000},
		{"500K", 500_000},
		{"$2.5B", 2_500_000_000},
		{"-", 0},
		{"", 0},
		{"   ", 0},
		{"2,345.50", 2345.5},
		{"$12,000,000", 12_000_000},
		{"-$1,234,567", 1_234_567},
		{"+$98,765", 98_765},
		{"1.5m", 1_500_000},
		{"n/a", 0},
		{"abc", 0},
		{"1.2.3", 0},
		// M is checked first; the leftover K makes the number malformed.
		{"1.2MK", 0},
		{"$1,200K", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, Money(tt.in), 1e-6)
		})
	}
}

func TestMoneyOverflowIsZero(t *testing.T) {
	digits := strings.Repeat("9", 320)
	for _, in := range []string{"$" + digits, digits + "B", "$" + digits[:310] + "M"} {
		got := Money(in)
		assert.False(t, math.IsInf(got, 0), in)
		assert.Zero(t, got)
	}
	assert.Zero(t, Shares(digits))
}

func TestShares(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1,234", 1234},
		{"+10,000", 10000},
		{"-5,500", 5500},
		{"12.5", 12.5},
		{"-", 0},
		{"", 0},
		{"none", 0},
		{"1.2.3", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Shares(tt.in))
		})
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		in   string
		want models.ExecutiveRole
	}{
		{"Jane Doe, Director", models.RoleDirector},
		{"John Smith (CEO)", models.RoleCEO},
		{"ceo and director", models.RoleCEO},
		{"CFO", models.RoleCFO},
		{"Director, CFO", models.RoleCFO},
		{"10% Owner", models.RoleTenPercentOwner},
		{"Beneficial owner", models.RoleTenPercentOwner},
		{"10%", models.RoleTenPercentOwner},
		{"Chief Accounting Officer", models.RoleOfficer},
		{"Dir", models.RoleOther},
		{"", models.RoleOther},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Role(tt.in))
		})
	}
}

func TestIsCeoOrCfo(t *testing.T) {
	assert.True(t, IsCeoOrCfo("Pres, CEO"))
	assert.True(t, IsCeoOrCfo("cfo"))
	assert.False(t, IsCeoOrCfo("Director"))
	assert.False(t, IsCeoOrCfo(""))
}

func TestSharesRatio(t *testing.T) {
	assert.Equal(t, 0.0, SharesRatio(0))
	assert.Equal(t, 0.0, SharesRatio(-10))
	assert.InDelta(t, 0.1, SharesRatio(1_000_000), 1e-12)
	assert.InDelta(t, 1.0, SharesRatio(10_000_000), 1e-12)
	assert.InDelta(t, 2.0, SharesRatio(20_000_000), 1e-12)
	assert.Equal(t, 2.0, SharesRatio(5_000_000_000))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Chief Executive Officer (CEO)", Title("Chief Executive Officer"))
	assert.Equal(t, "officer: Chief Financial Officer (CFO)", Title("officer: Chief Financial Officer"))
	assert.Equal(t, "CEO, Chief Executive Officer", Title("CEO, Chief Executive Officer"))
	assert.Equal(t, "Director", Title("Director"))
	assert.Equal(t, models.RoleCEO, Role(Title("President and Chief Executive Officer")))
}
