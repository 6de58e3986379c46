// Package testutil provides test databases seeded with expense history.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/geospice/internal/model"
	"github.com/Veraticus/geospice/internal/storage"
)

// TestDB is a migrated in-memory database closed when the test ends.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	t        *testing.T
	Expenses []model.Expense
}

// SetupTestDB creates an in-memory database holding the given expenses.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		history.NewBuilder(history.Stephansplatz).
//			Near(model.CategoryGroceries, 15, 100).
//			Build(),
//	)
func SetupTestDB(t *testing.T, expenses []model.Expense) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(expenses) > 0 {
		if err := store.SaveExpenses(ctx, expenses, nil); err != nil {
			t.Fatalf("failed to seed expenses: %v", err)
		}
	}

	return &TestDB{
		Storage:  store,
		Expenses: expenses,
		t:        t,
	}
}

// History returns every stored expense, newest first.
func (db *TestDB) History() []model.Expense {
	db.t.Helper()
	expenses, err := db.Storage.ListExpenses(context.Background())
	if err != nil {
		db.t.Fatalf("failed to list expenses: %v", err)
	}
	return expenses
}
