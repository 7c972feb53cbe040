// Package testutil sets up migrated test databases seeded with a small,
// known book of reference data.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/storage"
	"github.com/shopspring/decimal"
)

// TestDB is a migrated database plus the references seeded into it.
type TestDB struct {
	Storage *storage.SQLiteStorage
	Book    Book
	Path    string
	t       *testing.T
}

// Book holds one row of each reference list.
type Book struct {
	Product   model.Product
	Loading   model.Client
	Unloading model.Client
	Vehicle   model.Vehicle
	Driver    model.Driver
}

// Options configures SetupTestDB.
type Options struct {
	// CustomSetup runs after seeding.
	CustomSetup func(context.Context, *storage.SQLiteStorage) error
	// SkipBook leaves the reference lists empty.
	SkipBook bool
}

// SetupTestDB creates a database file in a temp dir, migrates it and seeds
// the standard book. The database is closed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, Options{})
}

// SetupTestDBWithOptions is SetupTestDB with custom options.
func SetupTestDBWithOptions(t *testing.T, opts Options) *TestDB {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "haul.db")
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{Storage: store, Path: path, t: t}
	if !opts.SkipBook {
		db.Book = seedBook(ctx, t, store)
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}
	return db
}

func seedBook(ctx context.Context, t *testing.T, store *storage.SQLiteStorage) Book {
	t.Helper()
	b := Book{
		Product:   model.Product{Name: "Coal", Unit: "MT", Rate: decimal.NewFromInt(1900)},
		Loading:   model.Client{Name: "Jharia Colliery", Type: model.ClientLoadingPoint, Size: model.SizeBig, State: "Jharkhand"},
		Unloading: model.Client{Name: "Raipur Steel", Type: model.ClientUnloadingPoint, Size: model.SizeMedium, State: "Chhattisgarh"},
		Vehicle:   model.Vehicle{Number: "JH10AB1234", Type: "Tipper"},
		Driver:    model.Driver{Name: "Ramesh", Phone: "9800000000", Active: true},
	}
	must(t, "product", store.CreateProduct(ctx, &b.Product))
	must(t, "loading point", store.CreateClient(ctx, &b.Loading))
	must(t, "unloading point", store.CreateClient(ctx, &b.Unloading))
	must(t, "vehicle", store.CreateVehicle(ctx, &b.Vehicle))
	must(t, "driver", store.CreateDriver(ctx, &b.Driver))
	return b
}

// Trip describes a transaction to seed. Unloaded leaves the unloading leg
// off when empty.
type Trip struct {
	Loaded            string
	Unloaded          string
	LoadingQuantity   string
	UnloadingQuantity string
	Sold              bool
}

// AddTrip stores a transaction between the seeded clients and returns it.
// Dates are YYYY-MM-DD.
func (db *TestDB) AddTrip(trip Trip) *model.Transaction {
	db.t.Helper()
	ctx := context.Background()

	if trip.LoadingQuantity == "" {
		trip.LoadingQuantity = "10"
	}
	txn := &model.Transaction{
		Product: db.Book.Product.Ref(),
		Loading: model.Leg{
			Client:   db.Book.Loading.Ref(),
			Vehicle:  db.Book.Vehicle.Ref(),
			Driver:   refPtr(db.Book.Driver.Ref()),
			Date:     db.day(trip.Loaded),
			Quantity: amount(trip.LoadingQuantity),
			Rate:     amount("200"),
		},
		TransportExpense: amount("175"),
	}
	if trip.Unloaded != "" {
		qty := trip.UnloadingQuantity
		if qty == "" {
			qty = trip.LoadingQuantity
		}
		txn.Unloading = &model.Leg{
			Client:   db.Book.Unloading.Ref(),
			Vehicle:  db.Book.Vehicle.Ref(),
			Driver:   refPtr(db.Book.Driver.Ref()),
			Date:     db.day(trip.Unloaded),
			Quantity: amount(qty),
			Rate:     amount("250"),
		}
	}

	must(db.t, "transaction", db.Storage.CreateTransaction(ctx, txn))
	if trip.Sold {
		must(db.t, "sold flag", db.Storage.MarkSold(ctx, txn.ID, true))
		txn.IsSold = true
	}
	return txn
}

func (db *TestDB) day(s string) time.Time {
	db.t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		db.t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func refPtr(r model.Ref) *model.Ref { return &r }

func must(t *testing.T, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("failed to seed %s: %v", what, err)
	}
}
