package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/model"
)

// CreateProduct inserts a product and sets its ID.
func (s *SQLiteStorage) CreateProduct(ctx context.Context, p *model.Product) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProduct(p); err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products (name, unit, description, rate, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, strings.TrimSpace(p.Name), p.Unit, p.Description, p.Rate, p.CreatedAt)
	if err != nil {
		return translateError(err, "failed to create product")
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read product id: %w", err)
	}

	slog.Debug("created product", "id", p.ID, "name", p.Name)
	return nil
}

// GetProduct returns a product by id.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var p model.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, unit, description, rate, frequency_of_use, created_at
		FROM products WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Unit, &p.Description, &p.Rate, &p.FrequencyOfUse, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// ListProducts returns every product, most used first.
func (s *SQLiteStorage) ListProducts(ctx context.Context) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, unit, description, rate, frequency_of_use, created_at
		FROM products
		ORDER BY frequency_of_use DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Unit, &p.Description, &p.Rate, &p.FrequencyOfUse, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

// DeleteProduct removes a product that no transaction refers to.
func (s *SQLiteStorage) DeleteProduct(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "products", "product", id)
}

// CreateClient inserts a client and sets its ID.
func (s *SQLiteStorage) CreateClient(ctx context.Context, c *model.Client) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateClient(c); err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (name, address, state, pin, type, client_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, strings.TrimSpace(c.Name), c.Address, c.State, c.Pin, string(c.Type), string(c.Size), c.CreatedAt)
	if err != nil {
		return translateError(err, "failed to create client")
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read client id: %w", err)
	}
	return nil
}

const clientColumns = `id, name, address, state, pin, type, client_size, frequency_of_use, created_at`

func scanClient(row interface{ Scan(...any) error }) (model.Client, error) {
	var c model.Client
	var typ, size string
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.State, &c.Pin, &typ, &size, &c.FrequencyOfUse, &c.CreatedAt)
	c.Type = model.ClientType(typ)
	c.Size = model.ClientSize(size)
	return c, err
}

// GetClient returns a client by id.
func (s *SQLiteStorage) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	c, err := scanClient(s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

// ListClients returns clients of one type, or every client when clientType is empty.
func (s *SQLiteStorage) ListClients(ctx context.Context, clientType model.ClientType) ([]model.Client, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + clientColumns + ` FROM clients`
	var args []any
	if clientType != "" {
		query += ` WHERE type = ?`
		args = append(args, string(clientType))
	}
	query += ` ORDER BY frequency_of_use DESC, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	clients := []model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}
	return clients, nil
}

// DeleteClient removes a client that no transaction refers to.
func (s *SQLiteStorage) DeleteClient(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "clients", "client", id)
}

// CreateVehicle inserts a vehicle and sets its ID.
func (s *SQLiteStorage) CreateVehicle(ctx context.Context, v *model.Vehicle) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateVehicle(v); err != nil {
		return err
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO vehicles (number, type, created_at) VALUES (?, ?, ?)
	`, strings.ToUpper(strings.TrimSpace(v.Number)), v.Type, v.CreatedAt)
	if err != nil {
		return translateError(err, "failed to create vehicle")
	}
	if v.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read vehicle id: %w", err)
	}
	v.Number = strings.ToUpper(strings.TrimSpace(v.Number))
	return nil
}

// GetVehicle returns a vehicle by id.
func (s *SQLiteStorage) GetVehicle(ctx context.Context, id int64) (*model.Vehicle, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var v model.Vehicle
	err := s.db.QueryRowContext(ctx, `
		SELECT id, number, type, frequency_of_use, created_at FROM vehicles WHERE id = ?
	`, id).Scan(&v.ID, &v.Number, &v.Type, &v.FrequencyOfUse, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vehicle %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return &v, nil
}

// ListVehicles returns every vehicle, most used first.
func (s *SQLiteStorage) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listVehicles(ctx, s.db, `
		SELECT id, number, type, frequency_of_use, created_at
		FROM vehicles
		ORDER BY frequency_of_use DESC, number
	`)
}

func (s *SQLiteStorage) listVehicles(ctx context.Context, q queryable, query string, args ...any) ([]model.Vehicle, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	vehicles := []model.Vehicle{}
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.Number, &v.Type, &v.FrequencyOfUse, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vehicles: %w", err)
	}
	return vehicles, nil
}

// DeleteVehicle removes a vehicle that no transaction refers to.
func (s *SQLiteStorage) DeleteVehicle(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "vehicles", "vehicle", id)
}

// CreateDriver inserts a driver and sets its ID. New drivers are active.
func (s *SQLiteStorage) CreateDriver(ctx context.Context, d *model.Driver) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDriver(d); err != nil {
		return err
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.Active = true

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO drivers (name, phone, active, created_at) VALUES (?, ?, 1, ?)
	`, strings.TrimSpace(d.Name), d.Phone, d.CreatedAt)
	if err != nil {
		return translateError(err, "failed to create driver")
	}
	if d.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read driver id: %w", err)
	}
	return nil
}

// GetDriver returns a driver by id.
func (s *SQLiteStorage) GetDriver(ctx context.Context, id int64) (*model.Driver, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var d model.Driver
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, active, created_at FROM drivers WHERE id = ?
	`, id).Scan(&d.ID, &d.Name, &d.Phone, &d.Active, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("driver %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return &d, nil
}

// ListDrivers returns every driver by name.
func (s *SQLiteStorage) ListDrivers(ctx context.Context) ([]model.Driver, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listDrivers(ctx, s.db, `
		SELECT id, name, phone, active, created_at FROM drivers ORDER BY name, id
	`)
}

func (s *SQLiteStorage) listDrivers(ctx context.Context, q queryable, query string, args ...any) ([]model.Driver, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query drivers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	drivers := []model.Driver{}
	for rows.Next() {
		var d model.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.Active, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drivers: %w", err)
	}
	return drivers, nil
}

// SetDriverActive marks a driver active or inactive.
func (s *SQLiteStorage) SetDriverActive(ctx context.Context, id int64, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE drivers SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update driver: %w", err)
	}
	return expectOneRow(res, "driver", id)
}

// DeleteDriver removes a driver that no transaction refers to.
func (s *SQLiteStorage) DeleteDriver(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "drivers", "driver", id)
}

// deleteByID deletes one row. table is always a constant from this package.
func (s *SQLiteStorage) deleteByID(ctx context.Context, table, what string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, what); err != nil {
		return err
	}

	// #nosec G201 - table is a package constant, never user input
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return translateError(err, "failed to delete "+what)
	}
	return expectOneRow(res, what, id)
}
