package history

import (
	"testing"

	"github.com/Veraticus/geospice/internal/geo"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_PlacesExpensesAtDistance(t *testing.T) {
	expenses := NewBuilder(Stephansplatz).
		Near(model.CategoryGroceries, 15, 100).
		Far(model.CategoryHousing, 900).
		Build()
	require.Len(t, expenses, 2)

	assert.InDelta(t, 100, geo.Distance(Stephansplatz, expenses[0].Point()), 1)
	assert.InDelta(t, FarMeters, geo.Distance(Stephansplatz, expenses[1].Point()), 5)
	assert.Equal(t, "2024-01-14T12:00:00Z", expenses[0].DateTime)
	assert.Equal(t, "2024-01-13T12:00:00Z", expenses[1].DateTime)
	assert.NotEqual(t, expenses[0].ID, expenses[1].ID)
}

func TestFixtures_NearbyCounts(t *testing.T) {
	tests := []struct {
		name    string
		fixture Fixture
		nearby  int
	}{
		{name: "lunch district", fixture: LunchDistrict, nearby: 4},
		{name: "commute", fixture: Commute, nearby: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expenses := NewBuilder(Alexanderplatz).WithFixture(tt.fixture).Build()
			nearby := geo.FilterNearby(Alexanderplatz, expenses, geo.DefaultRadiusMeters)
			assert.Len(t, nearby, tt.nearby)
		})
	}
}

func TestBuilder_BuildReturnsCopy(t *testing.T) {
	b := NewBuilder(Stephansplatz).Near(model.CategoryHealth, 8, 10)
	first := b.Build()
	first[0].Category = model.CategoryOther

	assert.Equal(t, model.CategoryHealth, b.Build()[0].Category)
}
