package tunables

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadMissingFileYieldsDefaults(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "tunables.json"))

	set, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), set)
}

func TestStore_PartialOverrideKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunables.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"forecast":{"smoothing_alpha":0.3}}`), 0644))

	set, err := NewStore(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 0.3, set.Forecast.SmoothingAlpha)
	// Untouched fields keep their defaults.
	assert.Equal(t, Defaults().Forecast.SpikeMultiplier, set.Forecast.SpikeMultiplier)
	assert.Equal(t, Defaults().Funnel, set.Funnel)
	assert.Equal(t, Defaults().Ads, set.Ads)
}

func TestStore_SaveMergesPatchesAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunables.json")
	s := NewStore(path)

	_, err := s.Save([]byte(`{"forecast":{"smoothing_alpha":0.3,"demand_factor":2}}`))
	require.NoError(t, err)

	set, err := s.Save([]byte(`{"funnel":{"ctr_low":0.04}}`))
	require.NoError(t, err)

	// The second patch must not wipe the first.
	assert.Equal(t, 0.3, set.Forecast.SmoothingAlpha)
	assert.Equal(t, 2.0, set.Forecast.DemandFactor)
	assert.Equal(t, 0.04, set.Funnel.CTRLow)
}

func TestStore_SaveRejectsMalformedPatch(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "tunables.json"))

	_, err := s.Save([]byte(`{"forecast":`))
	assert.Error(t, err)
}

func TestNormalize_ClampsOutOfRangeValues(t *testing.T) {
	set := Defaults()
	set.Forecast.SmoothingAlpha = -0.5
	set.Forecast.PackSizeDefault = 0
	set.Funnel.RefundBad = 7
	set.Funnel.CTRLow = -1

	n := set.Normalize()

	assert.Equal(t, 0.0, n.Forecast.SmoothingAlpha)
	assert.GreaterOrEqual(t, n.Forecast.PackSizeDefault, 1)
	assert.LessOrEqual(t, n.Funnel.RefundBad, 1.0)
	assert.GreaterOrEqual(t, n.Funnel.CTRLow, 0.0)
}

func TestSwap_NormalizesAndPublishes(t *testing.T) {
	defer Swap(Defaults())

	bad := Defaults()
	bad.Forecast.SmoothingAlpha = 3

	got := Swap(bad)
	assert.Equal(t, got, Current())
	// α is clamped to the disabled boundary, never above it.
	assert.Equal(t, 1.0, Current().Forecast.SmoothingAlpha)
}

func TestStore_LoadModule(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "tunables.json"))

	mod, err := s.LoadModule("forecast")
	require.NoError(t, err)
	assert.Equal(t, Defaults().Forecast, mod)

	_, err = s.LoadModule("pricing")
	assert.Error(t, err)
}
