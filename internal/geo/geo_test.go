package geo

import (
	"math"
	"testing"

	"github.com/Veraticus/geospice/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name  string
		a, b  model.Point
		want  float64
		delta float64
	}{
		{
			name:  "identical points",
			a:     model.Point{Latitude: 48.2082, Longitude: 16.3719},
			b:     model.Point{Latitude: 48.2082, Longitude: 16.3719},
			want:  0,
			delta: 0,
		},
		{
			name:  "0.01 degree latitude at the equator",
			a:     model.Point{Latitude: 0, Longitude: 0},
			b:     model.Point{Latitude: 0.01, Longitude: 0},
			want:  1112,
			delta: 1.5,
		},
		{
			name:  "symmetric",
			a:     model.Point{Latitude: 0.01, Longitude: 0},
			b:     model.Point{Latitude: 0, Longitude: 0},
			want:  1112,
			delta: 1.5,
		},
		{
			name:  "Vienna Stephansplatz to Naschmarkt",
			a:     model.Point{Latitude: 48.2085, Longitude: 16.3731},
			b:     model.Point{Latitude: 48.1986, Longitude: 16.3633},
			want:  1320,
			delta: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), tt.delta)
		})
	}
}

func TestFilterNearby(t *testing.T) {
	origin := model.Point{Latitude: 0, Longitude: 0}

	// 0.001 degree of latitude is about 111 m.
	history := []model.Expense{
		{ID: "same-spot", Category: model.CategoryGroceries, Amount: 12, DateTime: "2024-01-01T10:00:00Z"},
		{ID: "222m", Category: model.CategoryRestaurants, Amount: 30, Latitude: 0.002, DateTime: "2024-01-02T10:00:00Z"},
		{ID: "1112m", Category: model.CategoryHousing, Amount: 900, Latitude: 0.01, DateTime: "2024-01-03T10:00:00Z"},
		{ID: "445m", Category: model.CategoryShopping, Amount: 55, Longitude: -0.004, DateTime: "2024-01-04T10:00:00Z"},
		{ID: "556m", Category: model.CategoryHealth, Amount: 20, Latitude: 0.005, DateTime: "2024-01-05T10:00:00Z"},
	}

	got := FilterNearby(origin, history, 500)
	require.Len(t, got, 3)

	assert.Equal(t, "Groceries", got[0].Category)
	assert.Zero(t, got[0].Distance)
	assert.Equal(t, "Restaurants", got[1].Category)
	assert.InDelta(t, 222.4, got[1].Distance, 0.5)
	assert.Equal(t, "Shopping", got[2].Category)
	assert.InDelta(t, 444.8, got[2].Distance, 0.5)
	assert.Equal(t, 55.0, got[2].Amount)
	assert.Equal(t, "2024-01-04T10:00:00Z", got[2].DateTime)

	for _, n := range got {
		assert.LessOrEqual(t, n.Distance, 500.0)
	}
}

func TestFilterNearby_Edges(t *testing.T) {
	origin := model.Point{Latitude: 48.2, Longitude: 16.37}

	t.Run("empty history", func(t *testing.T) {
		got := FilterNearby(origin, nil, 500)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("default radius", func(t *testing.T) {
		history := []model.Expense{
			{Category: model.CategoryGroceries, Latitude: 48.2, Longitude: 16.37},
			{Category: model.CategoryHousing, Latitude: 48.3, Longitude: 16.37},
		}
		got := FilterNearby(origin, history, 0)
		require.Len(t, got, 1)
		assert.Equal(t, "Groceries", got[0].Category)
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		far := model.Point{Latitude: 48.2, Longitude: 16.375}
		d := Distance(origin, far)
		history := []model.Expense{{Category: model.CategoryOther, Latitude: far.Latitude, Longitude: far.Longitude}}
		assert.Len(t, FilterNearby(origin, history, d), 1)
		assert.Empty(t, FilterNearby(origin, history, d-0.01))
	})
}

func TestDistance_AntipodalPointsStayFinite(t *testing.T) {
	halfCircumference := math.Pi * EarthRadiusKm * 1000

	for lat := -89.0; lat <= 89.0; lat += 0.127 {
		for _, lng := range []float64{-179.9, -90.3, 0, 45.5, 179.9} {
			a := model.Point{Latitude: lat, Longitude: lng}
			antiLng := lng + 180
			if antiLng > 180 {
				antiLng -= 360
			}
			b := model.Point{Latitude: -lat, Longitude: antiLng}

			d := Distance(a, b)
			require.False(t, math.IsNaN(d), "distance between %v and %v", a, b)
			assert.InDelta(t, halfCircumference, d, 1)
		}
	}

	a := model.Point{Latitude: -88.911, Longitude: -179.9}
	b := model.Point{Latitude: 88.911, Longitude: 0.1}
	history := []model.Expense{{Category: model.CategoryHousing, Amount: 900, Latitude: b.Latitude, Longitude: b.Longitude}}
	assert.Empty(t, FilterNearby(a, history, DefaultRadiusMeters))
}
