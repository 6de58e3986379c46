package history

import "github.com/Veraticus/geospice/internal/model"

// Entry is one fixture expense positioned north of the builder's origin.
type Entry struct {
	Category    model.Category
	Amount      float64
	MetersNorth float64
}

// Fixture is a named, reusable history layout.
type Fixture []Entry

// Fixtures.
var (
	// LunchDistrict has three nearby meals, one nearby grocery run and a
	// distant rent payment.
	LunchDistrict = Fixture{
		{Category: model.CategoryRestaurants, Amount: 14.5, MetersNorth: 80},
		{Category: model.CategoryRestaurants, Amount: 22, MetersNorth: 150},
		{Category: model.CategoryGroceries, Amount: 31.2, MetersNorth: 300},
		{Category: model.CategoryRestaurants, Amount: 9.9, MetersNorth: 450},
		{Category: model.CategoryHousing, Amount: 950, MetersNorth: FarMeters},
	}

	// Commute has only distant history.
	Commute = Fixture{
		{Category: model.CategoryTransportation, Amount: 2.4, MetersNorth: 1_200},
		{Category: model.CategoryTransportation, Amount: 2.4, MetersNorth: FarMeters},
	}
)
