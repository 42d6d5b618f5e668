package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bighogz/insider-monitor/internal/models"
)

func tx(sym string, buy bool, role models.ExecutiveRole, value float64) models.RawTransaction {
	return models.RawTransaction{
		Symbol:           sym,
		CompanyName:      sym + " Inc",
		TransactionValue: value,
		ExecutiveRole:    role,
		IsBuy:            buy,
	}
}

func TestGroupInsertionOrder(t *testing.T) {
	in := []models.RawTransaction{
		tx("MSFT", true, models.RoleCEO, 1),
		tx("AAPL", false, models.RoleCFO, 2),
		tx("msft", false, models.RoleDirector, 3),
		tx("NVDA", true, models.RoleOther, 4),
		tx("AAPL", true, models.RoleCFO, 5),
	}
	got := Group(in)
	require.Len(t, got, 3)
	assert.Equal(t, "MSFT", got[0].Symbol)
	assert.Equal(t, "AAPL", got[1].Symbol)
	assert.Equal(t, "NVDA", got[2].Symbol)

	msft := got[0]
	require.Len(t, msft.Buys, 1)
	require.Len(t, msft.Sells, 1)
	assert.Equal(t, 1.0, msft.Buys[0].TransactionValue)
	assert.Equal(t, 3.0, msft.Sells[0].TransactionValue)
	assert.Equal(t, "MSFT Inc", msft.CompanyName)
}

func TestGroupDistinctRolesAcrossDirections(t *testing.T) {
	in := []models.RawTransaction{
		tx("TSLA", true, models.RoleCEO, 1),
		tx("TSLA", true, models.RoleCEO, 1),
		tx("TSLA", false, models.RoleDirector, 1),
		tx("TSLA", false, "", 1),
	}
	got := Group(in)
	require.Len(t, got, 1)
	assert.Equal(t, []models.ExecutiveRole{models.RoleCEO, models.RoleDirector, models.RoleOther}, got[0].Roles)
	assert.Equal(t, 3, got[0].InsiderCount())
}

func TestGroupSkipsEmptySymbols(t *testing.T) {
	got := Group([]models.RawTransaction{tx("  ", true, models.RoleCEO, 1)})
	assert.Empty(t, got)
	assert.Empty(t, Group(nil))
}

func TestGroupSingleDirection(t *testing.T) {
	got := Group([]models.RawTransaction{tx("IONQ", false, models.RoleOfficer, 1)})
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Buys)
	assert.Len(t, got[0].Sells, 1)
}

func TestCounts(t *testing.T) {
	buys, sells := Counts([]models.RawTransaction{
		tx("A", true, models.RoleCEO, 1),
		tx("A", false, models.RoleCEO, 1),
		tx("A", false, models.RoleCEO, 1),
	})
	assert.Equal(t, 1, buys)
	assert.Equal(t, 2, sells)

	buys, sells = Counts(nil)
	assert.Zero(t, buys)
	assert.Zero(t, sells)
}
