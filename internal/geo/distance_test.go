package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
)

func TestDistance_SamePointIsZero(t *testing.T) {
	p := orb.Point{77.5946, 12.9716}

	assert.Equal(t, 0.0, Distance(p, p))
}

func TestDistance_Symmetry(t *testing.T) {
	a := orb.Point{77.5946, 12.9716} // Bengaluru
	b := orb.Point{72.8777, 19.0760} // Mumbai

	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestDistance_KnownValue(t *testing.T) {
	// Bengaluru to Chennai is roughly 290 km great-circle.
	a := orb.Point{77.5946, 12.9716}
	b := orb.Point{80.2707, 13.0827}

	d := Distance(a, b)
	assert.InDelta(t, 290.0, d, 5.0)
}

func TestRankByDistance_SortsAscending(t *testing.T) {
	origin := orb.Point{77.5946, 12.9716}

	// Offsets chosen so the unranked order is [5.0, 1.2, 3.7]-ish km.
	facilities := []*models.Facility{
		{ID: 1, Name: "far", Latitude: 12.9716 + 0.045, Longitude: 77.5946},
		{ID: 2, Name: "near", Latitude: 12.9716 + 0.0108, Longitude: 77.5946},
		{ID: 3, Name: "mid", Latitude: 12.9716 + 0.0332, Longitude: 77.5946},
	}

	require.NoError(t, RankByDistance(origin, facilities))

	assert.Equal(t, "near", facilities[0].Name)
	assert.Equal(t, "mid", facilities[1].Name)
	assert.Equal(t, "far", facilities[2].Name)
	assert.True(t, facilities[0].DistanceKm <= facilities[1].DistanceKm)
	assert.True(t, facilities[1].DistanceKm <= facilities[2].DistanceKm)
}

func TestRankByDistance_StableOnTies(t *testing.T) {
	origin := orb.Point{77.5946, 12.9716}

	// Identical coordinates -> identical distance, input order must survive.
	facilities := []*models.Facility{
		{ID: 10, Name: "first", Latitude: 12.98, Longitude: 77.60},
		{ID: 11, Name: "second", Latitude: 12.98, Longitude: 77.60},
	}

	require.NoError(t, RankByDistance(origin, facilities))

	assert.Equal(t, int64(10), facilities[0].ID)
	assert.Equal(t, int64(11), facilities[1].ID)
}

func TestRankByDistance_RoundsToTwoDecimals(t *testing.T) {
	origin := orb.Point{77.5946, 12.9716}
	facilities := []*models.Facility{
		{ID: 1, Latitude: 12.9816, Longitude: 77.6046},
	}

	require.NoError(t, RankByDistance(origin, facilities))

	rounded := math.Round(facilities[0].DistanceKm*100) / 100
	assert.Equal(t, rounded, facilities[0].DistanceKm)
}

func TestRankByDistance_InvalidOrigin(t *testing.T) {
	err := RankByDistance(orb.Point{200, 12.9}, []*models.Facility{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestRankByDistance_InvalidFacility(t *testing.T) {
	origin := orb.Point{77.5946, 12.9716}
	facilities := []*models.Facility{
		{ID: 7, Latitude: math.NaN(), Longitude: 77.60},
	}

	err := RankByDistance(origin, facilities)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestValidatePoint(t *testing.T) {
	assert.NoError(t, ValidatePoint(orb.Point{0, 0}))
	assert.NoError(t, ValidatePoint(orb.Point{-180, 90}))
	assert.Error(t, ValidatePoint(orb.Point{-180.1, 0}))
	assert.Error(t, ValidatePoint(orb.Point{0, 90.5}))
	assert.Error(t, ValidatePoint(orb.Point{math.NaN(), 0}))
}

func TestBoundAround_ContainsOrigin(t *testing.T) {
	origin := orb.Point{77.5946, 12.9716}

	bound := BoundAround(origin, 5000)

	assert.True(t, bound.Contains(origin))
	assert.Less(t, bound.Min.Lat(), origin.Lat())
	assert.Greater(t, bound.Max.Lat(), origin.Lat())
}
