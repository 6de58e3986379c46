package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/geospice/internal/common"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testExpense(category model.Category, amount float64, datetime string) model.Expense {
	return model.Expense{
		Category:  category,
		Amount:    amount,
		Latitude:  48.2082,
		Longitude: 16.3738,
		DateTime:  datetime,
	}
}

func TestMigrate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	var indexCount int
	err = store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'index' AND name = 'idx_expenses_location'
	`).Scan(&indexCount)
	require.NoError(t, err)
	assert.Equal(t, 1, indexCount)
}

func TestNewSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	e := testExpense(model.CategoryHealth, 9.5, "2024-01-15T09:30:00Z")
	require.NoError(t, store.SaveExpense(ctx, &e))

	list, err := store.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSaveAndGetExpense(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	e := testExpense(model.CategoryGroceries, 15, "2024-01-14T12:00:00Z")
	e.Label = "Billa"
	require.NoError(t, store.SaveExpense(ctx, &e))
	require.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())

	got, err := store.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, model.CategoryGroceries, got.Category)
	assert.Equal(t, "Billa", got.Label)
	assert.InDelta(t, 15, got.Amount, 1e-9)
	assert.InDelta(t, 48.2082, got.Latitude, 1e-9)
	assert.InDelta(t, 16.3738, got.Longitude, 1e-9)
	assert.Equal(t, "2024-01-14T12:00:00Z", got.DateTime)

	e.Category = model.CategoryRestaurants
	require.NoError(t, store.SaveExpense(ctx, &e))
	got, err = store.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryRestaurants, got.Category)

	_, err = store.GetExpense(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveExpense_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*model.Expense)
		wantErr error
	}{
		{name: "unknown category", mutate: func(e *model.Expense) { e.Category = "Microspends" }, wantErr: ErrInvalidExpense},
		{name: "negative amount", mutate: func(e *model.Expense) { e.Amount = -3 }, wantErr: ErrInvalidExpense},
		{name: "latitude out of range", mutate: func(e *model.Expense) { e.Latitude = 95 }, wantErr: model.ErrInvalidInput},
		{name: "bad datetime", mutate: func(e *model.Expense) { e.DateTime = "yesterday" }, wantErr: ErrInvalidExpense},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testExpense(model.CategoryOther, 1, "2024-01-15T12:00:00Z")
			tt.mutate(&e)
			err := store.SaveExpense(ctx, &e)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.ErrorIs(t, store.SaveExpense(ctx, nil), ErrNilParameter)

	list, err := store.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListExpenses_Order(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	list, err := store.ListExpenses(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for _, e := range []model.Expense{
		testExpense(model.CategoryGroceries, 10, "2024-01-10T12:00:00Z"),
		testExpense(model.CategoryHousing, 900, "2024-01-20T12:00:00Z"),
		testExpense(model.CategoryRestaurants, 25, "2024-01-15T12:00:00Z"),
	} {
		e := e
		require.NoError(t, store.SaveExpense(ctx, &e))
	}

	list, err = store.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, model.CategoryHousing, list[0].Category)
	assert.Equal(t, model.CategoryRestaurants, list[1].Category)
	assert.Equal(t, model.CategoryGroceries, list[2].Category)
}

func TestSaveExpenses(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	t.Run("all or nothing", func(t *testing.T) {
		batch := []model.Expense{
			testExpense(model.CategoryGroceries, 10, "2024-01-10T12:00:00Z"),
			testExpense("Snacks", 3, "2024-01-11T12:00:00Z"),
		}
		err := store.SaveExpenses(ctx, batch, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidExpense)
		assert.Contains(t, err.Error(), "index 1")

		list, err := store.ListExpenses(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("reports progress", func(t *testing.T) {
		batch := []model.Expense{
			testExpense(model.CategoryGroceries, 10, "2024-01-10T12:00:00Z"),
			testExpense(model.CategoryTransportation, 2.4, "2024-01-11T08:00:00+01:00"),
			{ID: "fixed-id", Category: model.CategoryUtilities, Amount: 60, Latitude: 1, Longitude: 2, DateTime: "2024-01-12T00:00:00Z"},
		}

		var seen []int
		require.NoError(t, store.SaveExpenses(ctx, batch, func(done int) { seen = append(seen, done) }))
		assert.Equal(t, []int{1, 2, 3}, seen)
		assert.NotEmpty(t, batch[0].ID)
		assert.Equal(t, "fixed-id", batch[2].ID)

		// Re-importing the same IDs updates in place.
		require.NoError(t, store.SaveExpenses(ctx, batch, nil))
		list, err := store.ListExpenses(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})
}

func TestDeleteExpense(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	e := testExpense(model.CategoryShopping, 49.99, "2024-01-15T16:00:00Z")
	require.NoError(t, store.SaveExpense(ctx, &e))

	require.NoError(t, store.DeleteExpense(ctx, e.ID))
	assert.ErrorIs(t, store.DeleteExpense(ctx, e.ID), common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteExpense(ctx, ""), ErrEmptyString)
}

func TestSaveExpense_AcceptsDefaultedDateTime(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	at := time.Date(2024, 1, 15, 13, 30, 0, 0, time.FixedZone("CET", 3600))
	e := testExpense(model.CategoryGroceries, 9.5, model.FormatDateTime(at))
	require.NoError(t, store.SaveExpense(ctx, &e))

	got, err := store.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15T12:30:00.000Z", got.DateTime)
}
