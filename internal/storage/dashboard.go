package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/service"
	"github.com/shopspring/decimal"
)

const (
	// InactivityWindow is how long a vehicle or driver may go without a
	// trip before the dashboard lists it as inactive.
	InactivityWindow = 30 * 24 * time.Hour
	topPerformers    = 5
)

// GetDashboard summarizes the ledger as of the given day.
func (s *SQLiteStorage) GetDashboard(ctx context.Context, asOf time.Time) (*service.Dashboard, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	d := &service.Dashboard{
		StatusCounts: map[model.Status]int{
			model.StatusInTransit: 0,
			model.StatusUnloaded:  0,
			model.StatusCompleted: 0,
		},
		Discrepancies:    []service.Discrepancy{},
		InactiveVehicles: []model.Vehicle{},
		InactiveDrivers:  []model.Driver{},
	}

	if err := s.countTotals(ctx, &d.Totals); err != nil {
		return nil, err
	}
	if err := s.aggregateTrips(ctx, d); err != nil {
		return nil, err
	}

	since := asOf.Add(-InactivityWindow).Format(dateLayout)
	var err error
	d.InactiveVehicles, err = s.listVehicles(ctx, s.db, `
		SELECT id, number, type, frequency_of_use, created_at FROM vehicles v
		WHERE NOT EXISTS (
			SELECT 1 FROM transactions t
			WHERE (t.loading_vehicle_id = v.id OR t.unloading_vehicle_id = v.id)
			AND t.loading_date >= ?
		)
		ORDER BY number
	`, since)
	if err != nil {
		return nil, err
	}
	d.InactiveDrivers, err = s.listDrivers(ctx, s.db, `
		SELECT id, name, phone, active, created_at FROM drivers dr
		WHERE dr.active = 1 AND NOT EXISTS (
			SELECT 1 FROM transactions t
			WHERE (t.loading_driver_id = dr.id OR t.unloading_driver_id = dr.id)
			AND t.loading_date >= ?
		)
		ORDER BY name
	`, since)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (s *SQLiteStorage) countTotals(ctx context.Context, t *service.Totals) error {
	counts := []struct {
		dest  *int
		query string
	}{
		{&t.Products, `SELECT COUNT(*) FROM products`},
		{&t.LoadingClients, `SELECT COUNT(*) FROM clients WHERE type = 'loading_point'`},
		{&t.UnloadingClients, `SELECT COUNT(*) FROM clients WHERE type = 'unloading_point'`},
		{&t.Vehicles, `SELECT COUNT(*) FROM vehicles`},
		{&t.Drivers, `SELECT COUNT(*) FROM drivers`},
		{&t.Transactions, `SELECT COUNT(*) FROM transactions`},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return fmt.Errorf("failed to count totals: %w", err)
		}
	}
	return nil
}

// tally accumulates trip counts and transport expense for one name.
type tally struct {
	expense decimal.Decimal
	count   int
	priced  int
}

type tallies map[string]*tally

func (ts tallies) add(name string, expense decimal.NullDecimal) {
	if name == "" {
		return
	}
	t, ok := ts[name]
	if !ok {
		t = &tally{}
		ts[name] = t
	}
	t.count++
	if expense.Valid {
		t.expense = t.expense.Add(expense.Decimal)
		t.priced++
	}
}

// top ranks by trip count, then name, and keeps the first n.
func (ts tallies) top(n int) []service.Performer {
	out := make([]service.Performer, 0, len(ts))
	for name, t := range ts {
		avg := decimal.Zero
		if t.priced > 0 {
			avg = t.expense.Div(decimal.NewFromInt(int64(t.priced))).Round(2)
		}
		out = append(out, service.Performer{Name: name, TransactionCount: t.count, AverageExpense: avg})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TransactionCount != out[j].TransactionCount {
			return out[i].TransactionCount > out[j].TransactionCount
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (s *SQLiteStorage) aggregateTrips(ctx context.Context, d *service.Dashboard) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, p.name, lv.number, ld.name, lc.name, uc.name,
			t.loading_quantity, t.unloading_quantity, t.transport_expense, t.is_sold
		FROM transactions t
		JOIN products p ON p.id = t.product_id
		JOIN clients lc ON lc.id = t.loading_point_id
		JOIN vehicles lv ON lv.id = t.loading_vehicle_id
		LEFT JOIN drivers ld ON ld.id = t.loading_driver_id
		LEFT JOIN clients uc ON uc.id = t.unloading_point_id
		ORDER BY t.id
	`)
	if err != nil {
		return fmt.Errorf("failed to query dashboard trips: %w", err)
	}
	defer func() { _ = rows.Close() }()

	vehicles, drivers, routes := tallies{}, tallies{}, tallies{}
	for rows.Next() {
		var (
			id                          int64
			product, vehicle, loadPoint string
			driver, unloadPoint         sql.NullString
			loadQty, unloadQty, expense decimal.NullDecimal
			sold                        bool
		)
		if err := rows.Scan(&id, &product, &vehicle, &driver, &loadPoint, &unloadPoint,
			&loadQty, &unloadQty, &expense, &sold); err != nil {
			return fmt.Errorf("failed to scan dashboard trip: %w", err)
		}

		switch {
		case sold:
			d.StatusCounts[model.StatusCompleted]++
		case unloadQty.Valid:
			d.StatusCounts[model.StatusUnloaded]++
		default:
			d.StatusCounts[model.StatusInTransit]++
		}

		if !sold && loadQty.Valid && unloadQty.Valid {
			if diff := loadQty.Decimal.Sub(unloadQty.Decimal); diff.IsPositive() {
				d.Discrepancies = append(d.Discrepancies, service.Discrepancy{
					TransactionID:     id,
					Product:           product,
					Vehicle:           vehicle,
					LoadingQuantity:   loadQty.Decimal,
					UnloadingQuantity: unloadQty.Decimal,
					Difference:        diff,
				})
			}
		}

		vehicles.add(vehicle, expense)
		drivers.add(driver.String, expense)
		if unloadPoint.Valid {
			routes.add(loadPoint+" → "+unloadPoint.String, expense)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating dashboard trips: %w", err)
	}

	d.TopVehicles = vehicles.top(topPerformers)
	d.TopDrivers = drivers.top(topPerformers)
	d.TopRoutes = routes.top(topPerformers)
	return nil
}
