package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidInput marks a malformed suggestion request.
var ErrInvalidInput = errors.New("invalid input")

// Point is a WGS84 coordinate in signed decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that both coordinates are finite and in range.
func (p Point) Validate() error {
	if !finite(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidInput, p.Latitude)
	}
	if !finite(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidInput, p.Longitude)
	}
	return nil
}

// Expense is a previously recorded transaction with the place it happened.
type Expense struct {
	CreatedAt time.Time `json:"-"`
	ID        string    `json:"id,omitempty"`
	Category  Category  `json:"category"`
	Label     string    `json:"label,omitempty"`
	DateTime  string    `json:"datetime"`
	Amount    float64   `json:"amount"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// Point returns the location of the expense.
func (e Expense) Point() Point {
	return Point{Latitude: e.Latitude, Longitude: e.Longitude}
}

// NearbyTransaction summarizes a historical expense close to the query point.
// Category is kept as free text because callers may supply history recorded
// under vocabularies this package does not own.
type NearbyTransaction struct {
	Category string  `json:"category"`
	DateTime string  `json:"datetime"`
	Amount   float64 `json:"amount"`
	Distance float64 `json:"distance"`
}

// TransactionContext is the immutable input of one suggestion request.
type TransactionContext struct {
	DateTime       string              `json:"datetime"`
	NearbyExpenses []NearbyTransaction `json:"nearbyExpenses"`
	Latitude       float64             `json:"latitude"`
	Longitude      float64             `json:"longitude"`
	Amount         float64             `json:"amount"`
}

// Validate rejects contexts the engine must not be invoked with.
func (tc TransactionContext) Validate() error {
	if err := (Point{Latitude: tc.Latitude, Longitude: tc.Longitude}).Validate(); err != nil {
		return err
	}
	if !finite(tc.Amount) || tc.Amount < 0 {
		return fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidInput)
	}
	if tc.NearbyExpenses == nil {
		return fmt.Errorf("%w: nearbyExpenses is required", ErrInvalidInput)
	}
	for i, n := range tc.NearbyExpenses {
		if !finite(n.Amount) || !finite(n.Distance) {
			return fmt.Errorf("%w: nearbyExpenses[%d] must carry finite amount and distance", ErrInvalidInput, i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DateTimeLayout is the timestamp format used when a time is filled in on
// the caller's behalf: UTC with millisecond precision, e.g.
// 2024-01-15T12:00:00.000Z.
const DateTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatDateTime renders t in UTC using DateTimeLayout.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

// Query describes the transaction being entered, before history is filtered.
type Query struct {
	DateTime  string  `json:"datetime"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Amount    float64 `json:"amount"`
}

// Point returns the location of the query.
func (q Query) Point() Point {
	return Point{Latitude: q.Latitude, Longitude: q.Longitude}
}
