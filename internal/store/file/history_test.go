package file

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerpulse/backend-go/internal/domain"
)

func TestHistoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(filepath.Join(t.TempDir(), "history.json"))

	initial, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, initial)

	want := map[string]domain.HistoryEntry{
		"2800895785": {LastRawSales: 12, Smoothed: 9.5},
		"2795478758": {LastRawSales: 0, Smoothed: 1.25},
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHistoryStore_SaveReplacesWholeMap(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(filepath.Join(t.TempDir(), "history.json"))

	require.NoError(t, s.Save(ctx, map[string]domain.HistoryEntry{
		"a": {LastRawSales: 1, Smoothed: 1},
		"b": {LastRawSales: 2, Smoothed: 2},
	}))
	require.NoError(t, s.Save(ctx, map[string]domain.HistoryEntry{
		"b": {LastRawSales: 3, Smoothed: 3},
	}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 3.0, got["b"].Smoothed)
}
