// Package history builds expense histories laid out around a reference point,
// for tests that depend on what is and is not within the nearby radius.
//
// Example usage:
//
//	expenses := history.NewBuilder(history.Stephansplatz).
//		Near(model.CategoryRestaurants, 18, 120).
//		Far(model.CategoryHousing, 900).
//		Build()
package history

import (
	"fmt"
	"time"

	"github.com/Veraticus/geospice/internal/model"
)

// Reference points.
var (
	Stephansplatz  = model.Point{Latitude: 48.2082, Longitude: 16.3738}
	Alexanderplatz = model.Point{Latitude: 52.5219, Longitude: 13.4132}
)

// metersPerDegreeLatitude approximates one degree of latitude on the
// mean-radius sphere.
const metersPerDegreeLatitude = 111_195.0

// FarMeters is well beyond the default nearby radius.
const FarMeters = 5_000.0

// Builder accumulates expenses relative to an origin. Each added expense is
// one day older than the previous one.
type Builder struct {
	start    time.Time
	origin   model.Point
	expenses []model.Expense
}

// NewBuilder creates a builder around origin. The first expense is dated
// 2024-01-14 12:00 UTC.
func NewBuilder(origin model.Point) *Builder {
	return &Builder{
		origin: origin,
		start:  time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC),
	}
}

// Near adds an expense metersNorth of the origin.
func (b *Builder) Near(category model.Category, amount, metersNorth float64) *Builder {
	return b.add(category, amount, metersNorth)
}

// Far adds an expense FarMeters north of the origin.
func (b *Builder) Far(category model.Category, amount float64) *Builder {
	return b.add(category, amount, FarMeters)
}

// WithFixture adds every entry of a fixture.
func (b *Builder) WithFixture(f Fixture) *Builder {
	for _, e := range f {
		b.add(e.Category, e.Amount, e.MetersNorth)
	}
	return b
}

func (b *Builder) add(category model.Category, amount, metersNorth float64) *Builder {
	n := len(b.expenses)
	b.expenses = append(b.expenses, model.Expense{
		ID:        fmt.Sprintf("hist-%03d", n+1),
		Category:  category,
		Amount:    amount,
		Latitude:  b.origin.Latitude + metersNorth/metersPerDegreeLatitude,
		Longitude: b.origin.Longitude,
		DateTime:  b.start.AddDate(0, 0, -n).Format(time.RFC3339),
	})
	return b
}

// Build returns a copy of the accumulated expenses.
func (b *Builder) Build() []model.Expense {
	out := make([]model.Expense, len(b.expenses))
	copy(out, b.expenses)
	return out
}
