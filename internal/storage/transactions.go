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
	"github.com/Veraticus/haulbook/internal/service"
	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	"github.com/shopspring/decimal"
)

const (
	dateLayout  = "2006-01-02"
	maxPageSize = 500
)

const transactionFrom = `
	FROM transactions t
	JOIN products p ON p.id = t.product_id
	JOIN clients lc ON lc.id = t.loading_point_id
	JOIN vehicles lv ON lv.id = t.loading_vehicle_id
	LEFT JOIN drivers ld ON ld.id = t.loading_driver_id
	LEFT JOIN clients uc ON uc.id = t.unloading_point_id
	LEFT JOIN vehicles uv ON uv.id = t.unloading_vehicle_id
	LEFT JOIN drivers ud ON ud.id = t.unloading_driver_id`

const transactionSelect = `
	SELECT
		t.id, t.product_id, p.name, p.unit,
		t.loading_point_id, lc.name, t.loading_vehicle_id, lv.number,
		t.loading_driver_id, ld.name, t.loading_date, t.loading_quantity, t.loading_rate,
		t.unloading_point_id, uc.name, t.unloading_vehicle_id, uv.number,
		t.unloading_driver_id, ud.name, t.unloading_date, t.unloading_quantity, t.unloading_rate,
		t.transport_expense, t.do_number, t.challan_number, t.is_sold,
		t.created_at, t.updated_at` + transactionFrom

// CreateTransaction inserts a transaction, sets its ID and bumps the usage
// counters of the product, clients and vehicles it refers to.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkReferences(ctx, tx, txn); err != nil {
			return err
		}

		now := time.Now()
		if txn.CreatedAt.IsZero() {
			txn.CreatedAt = now
		}
		txn.UpdatedAt = now

		args := append(transactionArgs(txn), txn.CreatedAt, txn.UpdatedAt)
		res, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (
				product_id, loading_point_id, loading_vehicle_id, loading_driver_id,
				loading_date, loading_quantity, loading_rate,
				unloading_point_id, unloading_vehicle_id, unloading_driver_id,
				unloading_date, unloading_quantity, unloading_rate,
				transport_expense, do_number, challan_number, is_sold,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, args...)
		if err != nil {
			return translateError(err, "failed to insert transaction")
		}
		if txn.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read transaction id: %w", err)
		}

		if err := bumpFrequency(ctx, tx, txn); err != nil {
			return err
		}

		slog.Debug("created transaction", "id", txn.ID, "product_id", txn.Product.ID)
		return nil
	})
}

// UpdateTransaction overwrites every column of an existing transaction.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	if err := validateID(txn.ID, "transaction"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkReferences(ctx, tx, txn); err != nil {
			return err
		}

		txn.UpdatedAt = time.Now()
		args := append(transactionArgs(txn), txn.UpdatedAt, txn.ID)
		res, err := tx.ExecContext(ctx, `
			UPDATE transactions SET
				product_id = ?, loading_point_id = ?, loading_vehicle_id = ?, loading_driver_id = ?,
				loading_date = ?, loading_quantity = ?, loading_rate = ?,
				unloading_point_id = ?, unloading_vehicle_id = ?, unloading_driver_id = ?,
				unloading_date = ?, unloading_quantity = ?, unloading_rate = ?,
				transport_expense = ?, do_number = ?, challan_number = ?, is_sold = ?,
				updated_at = ?
			WHERE id = ?
		`, args...)
		if err != nil {
			return translateError(err, "failed to update transaction")
		}
		return expectOneRow(res, "transaction", txn.ID)
	})
}

// GetTransaction returns a transaction with its references resolved.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	txn, err := scanTransaction(s.db.QueryRowContext(ctx, transactionSelect+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// DeleteTransaction removes a transaction.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "transactions", "transaction", id)
}

// MarkSold sets or clears the sold flag.
func (s *SQLiteStorage) MarkSold(ctx context.Context, id int64, sold bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET is_sold = ?, updated_at = ? WHERE id = ?
	`, sold, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction sold: %w", err)
	}
	return expectOneRow(res, "transaction", id)
}

// SearchTransactions returns one page of transactions matching filter,
// newest loading date first.
func (s *SQLiteStorage) SearchTransactions(ctx context.Context, filter service.TransactionFilter, page, pageSize int) (*service.TransactionPage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePage(page, pageSize); err != nil {
		return nil, err
	}

	where, args, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+transactionFrom+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	info := viewmodel.NewPageInfo(page, pageSize, total)
	query := transactionSelect + where + ` ORDER BY t.loading_date DESC, t.id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, pageSize, info.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := &service.TransactionPage{PageInfo: info, Transactions: []model.Transaction{}}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result.Transactions = append(result.Transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return result, nil
}

func buildWhere(f service.TransactionFilter) (string, []any, error) {
	var clauses []string
	var args []any

	in := func(col string, values []any) {
		if len(values) == 0 {
			return
		}
		clauses = append(clauses, col+" IN ("+strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")+")")
		args = append(args, values...)
	}
	dateRange := func(col string, from, to *time.Time) error {
		if from != nil && to != nil && to.Before(*from) {
			return fmt.Errorf("%w: %s", ErrInvalidDateRange, col)
		}
		if from != nil {
			clauses = append(clauses, col+" >= ?")
			args = append(args, from.Format(dateLayout))
		}
		if to != nil {
			clauses = append(clauses, col+" <= ?")
			args = append(args, to.Format(dateLayout))
		}
		return nil
	}

	in("t.product_id", idArgs(f.ProductIDs))
	in("t.loading_vehicle_id", idArgs(f.VehicleIDs))
	in("t.loading_point_id", idArgs(f.LoadingPointIDs))
	in("t.unloading_point_id", idArgs(f.UnloadingPointIDs))
	in("lc.client_size", sizeArgs(f.LoadingClientSizes))
	in("uc.client_size", sizeArgs(f.UnloadingClientSizes))
	if err := dateRange("t.loading_date", f.LoadingFrom, f.LoadingTo); err != nil {
		return "", nil, err
	}
	if err := dateRange("t.unloading_date", f.UnloadingFrom, f.UnloadingTo); err != nil {
		return "", nil, err
	}
	if f.Sold != nil {
		clauses = append(clauses, "t.is_sold = ?")
		args = append(args, *f.Sold)
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func idArgs(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func sizeArgs(sizes []model.ClientSize) []any {
	out := make([]any, len(sizes))
	for i, s := range sizes {
		out[i] = string(s)
	}
	return out
}

func transactionArgs(txn *model.Transaction) []any {
	args := []any{
		txn.Product.ID,
		txn.Loading.Client.ID,
		txn.Loading.Vehicle.ID,
		nullRef(txn.Loading.Driver),
		txn.Loading.Date.Format(dateLayout),
		nullDecimal(txn.Loading.Quantity),
		nullDecimal(txn.Loading.Rate),
	}
	if u := txn.Unloading; u != nil {
		args = append(args,
			nullID(u.Client.ID),
			nullID(u.Vehicle.ID),
			nullRef(u.Driver),
			nullDate(u.Date),
			nullDecimal(u.Quantity),
			nullDecimal(u.Rate),
		)
	} else {
		args = append(args, nil, nil, nil, nil, nil, nil)
	}
	return append(args,
		nullDecimal(txn.TransportExpense),
		strings.TrimSpace(txn.DONumber),
		strings.TrimSpace(txn.ChallanNumber),
		txn.IsSold,
	)
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}

func nullRef(r *model.Ref) sql.NullInt64 {
	if r == nil {
		return sql.NullInt64{}
	}
	return nullID(r.ID)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var (
		txn                                  model.Transaction
		productUnit                          sql.NullString
		loadDriverID, unloadPointID          sql.NullInt64
		unloadVehicleID, unloadDriverID      sql.NullInt64
		loadDriverName, unloadPointName      sql.NullString
		unloadVehicleNumber, unloadDriverNme sql.NullString
		loadDate, unloadDate                 sql.NullString
		loadQty, loadRate                    decimal.NullDecimal
		unloadQty, unloadRate, expense       decimal.NullDecimal
	)

	err := row.Scan(
		&txn.ID, &txn.Product.ID, &txn.Product.Name, &productUnit,
		&txn.Loading.Client.ID, &txn.Loading.Client.Name, &txn.Loading.Vehicle.ID, &txn.Loading.Vehicle.Name,
		&loadDriverID, &loadDriverName, &loadDate, &loadQty, &loadRate,
		&unloadPointID, &unloadPointName, &unloadVehicleID, &unloadVehicleNumber,
		&unloadDriverID, &unloadDriverNme, &unloadDate, &unloadQty, &unloadRate,
		&expense, &txn.DONumber, &txn.ChallanNumber, &txn.IsSold,
		&txn.CreatedAt, &txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.ProductUnit = productUnit.String
	txn.Loading.Driver = refFrom(loadDriverID, loadDriverName)
	txn.Loading.Quantity = decimalFrom(loadQty)
	txn.Loading.Rate = decimalFrom(loadRate)
	txn.TransportExpense = decimalFrom(expense)
	if txn.Loading.Date, err = parseDate(loadDate); err != nil {
		return nil, err
	}

	if unloadPointID.Valid || unloadVehicleID.Valid || unloadDate.Valid || unloadQty.Valid {
		leg := &model.Leg{
			Driver:   refFrom(unloadDriverID, unloadDriverNme),
			Quantity: decimalFrom(unloadQty),
			Rate:     decimalFrom(unloadRate),
		}
		if unloadPointID.Valid {
			leg.Client = model.Ref{ID: unloadPointID.Int64, Name: unloadPointName.String}
		}
		if unloadVehicleID.Valid {
			leg.Vehicle = model.Ref{ID: unloadVehicleID.Int64, Name: unloadVehicleNumber.String}
		}
		if leg.Date, err = parseDate(unloadDate); err != nil {
			return nil, err
		}
		txn.Unloading = leg
	}
	return &txn, nil
}

func refFrom(id sql.NullInt64, name sql.NullString) *model.Ref {
	if !id.Valid {
		return nil
	}
	return &model.Ref{ID: id.Int64, Name: name.String}
}

func decimalFrom(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func parseDate(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored date %q: %w", s.String, err)
	}
	return t, nil
}

// checkReferences verifies every referenced row exists and that the
// clients sit on the right side of the trip.
func checkReferences(ctx context.Context, q queryable, txn *model.Transaction) error {
	if err := rowExists(ctx, q, `SELECT 1 FROM products WHERE id = ?`, txn.Product.ID, "product"); err != nil {
		return err
	}
	if err := clientOfType(ctx, q, txn.Loading.Client.ID, model.ClientLoadingPoint); err != nil {
		return err
	}
	if err := rowExists(ctx, q, `SELECT 1 FROM vehicles WHERE id = ?`, txn.Loading.Vehicle.ID, "loading vehicle"); err != nil {
		return err
	}
	if d := txn.Loading.Driver; d != nil {
		if err := rowExists(ctx, q, `SELECT 1 FROM drivers WHERE id = ?`, d.ID, "loading driver"); err != nil {
			return err
		}
	}

	u := txn.Unloading
	if u == nil {
		return nil
	}
	if u.Client.ID > 0 {
		if err := clientOfType(ctx, q, u.Client.ID, model.ClientUnloadingPoint); err != nil {
			return err
		}
	}
	if u.Vehicle.ID > 0 {
		if err := rowExists(ctx, q, `SELECT 1 FROM vehicles WHERE id = ?`, u.Vehicle.ID, "unloading vehicle"); err != nil {
			return err
		}
	}
	if u.Driver != nil {
		if err := rowExists(ctx, q, `SELECT 1 FROM drivers WHERE id = ?`, u.Driver.ID, "unloading driver"); err != nil {
			return err
		}
	}
	return nil
}

func rowExists(ctx context.Context, q queryable, query string, id int64, what string) error {
	var one int
	err := q.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d does not exist", ErrInvalidReference, what, id)
	}
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", what, err)
	}
	return nil
}

func clientOfType(ctx context.Context, q queryable, id int64, want model.ClientType) error {
	var typ string
	err := q.QueryRowContext(ctx, `SELECT type FROM clients WHERE id = ?`, id).Scan(&typ)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: client %d does not exist", ErrInvalidReference, id)
	}
	if err != nil {
		return fmt.Errorf("failed to check client: %w", err)
	}
	if model.ClientType(typ) != want {
		return fmt.Errorf("%w: client %d is a %s, want %s", ErrInvalidReference, id, typ, want)
	}
	return nil
}

func bumpFrequency(ctx context.Context, q queryable, txn *model.Transaction) error {
	bumps := []struct {
		query string
		id    int64
	}{
		{`UPDATE products SET frequency_of_use = frequency_of_use + 1 WHERE id = ?`, txn.Product.ID},
		{`UPDATE clients SET frequency_of_use = frequency_of_use + 1 WHERE id = ?`, txn.Loading.Client.ID},
		{`UPDATE vehicles SET frequency_of_use = frequency_of_use + 1 WHERE id = ?`, txn.Loading.Vehicle.ID},
	}
	if u := txn.Unloading; u != nil && u.Client.ID > 0 {
		bumps = append(bumps, struct {
			query string
			id    int64
		}{`UPDATE clients SET frequency_of_use = frequency_of_use + 1 WHERE id = ?`, u.Client.ID})
	}

	for _, b := range bumps {
		if _, err := q.ExecContext(ctx, b.query, b.id); err != nil {
			return fmt.Errorf("failed to update usage count: %w", err)
		}
	}
	return nil
}
