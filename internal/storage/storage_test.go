package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadCompanies(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	err := s.SaveCompanies(ctx, []Company{
		{Ticker: "aapl", CIK: "0000320193", Name: "Apple Inc."},
		{Ticker: "MSFT", CIK: "0000789019", Name: "MICROSOFT CORP"},
		{Ticker: "", CIK: "1"},
		{Ticker: "NOCIK"},
	}, now)
	require.NoError(t, err)

	got, fetchedAt, err := s.LoadCompanies(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0].Ticker)
	assert.Equal(t, "0000320193", got[0].CIK)
	assert.Equal(t, "Apple Inc.", got[0].Name)
	assert.Equal(t, now, fetchedAt)
}

func TestLoadCompaniesStale(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveCompanies(ctx, []Company{{Ticker: "TSLA", CIK: "0001318605"}}, old))

	got, _, err := s.LoadCompanies(ctx, old.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveCompaniesUpserts(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)
	require.NoError(t, s.SaveCompanies(ctx, []Company{{Ticker: "LLY", CIK: "1", Name: "old"}}, t1))
	require.NoError(t, s.SaveCompanies(ctx, []Company{{Ticker: "LLY", CIK: "0000059478", Name: "ELI LILLY"}}, t2))

	got, _, err := s.LoadCompanies(ctx, t2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "0000059478", got[0].CIK)
	assert.Equal(t, "ELI LILLY", got[0].Name)
}

func TestPrune(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveCompanies(ctx, []Company{{Ticker: "A", CIK: "1"}}, t1))
	require.NoError(t, s.SaveCompanies(ctx, []Company{{Ticker: "B", CIK: "2"}}, t1.Add(time.Hour)))

	n, err := s.Prune(ctx, t1.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
