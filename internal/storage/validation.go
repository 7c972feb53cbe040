// Package storage provides the SQLite persistence layer for haulbook.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/haulbook/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidReference   = errors.New("invalid reference")
	ErrInvalidPage        = errors.New("invalid page")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64, what string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s id %d", ErrInvalidReference, what, id)
	}
	return nil
}

func validateProduct(p *model.Product) error {
	if p == nil {
		return fmt.Errorf("%w: product", ErrNilParameter)
	}
	if err := validateString(p.Name, "product name"); err != nil {
		return err
	}
	if p.Rate.IsNegative() {
		return fmt.Errorf("%w: product rate cannot be negative", ErrInvalidReference)
	}
	return nil
}

func validateClient(c *model.Client) error {
	if c == nil {
		return fmt.Errorf("%w: client", ErrNilParameter)
	}
	if err := validateString(c.Name, "client name"); err != nil {
		return err
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: client type %q", ErrInvalidReference, c.Type)
	}
	if !c.Size.Valid() {
		return fmt.Errorf("%w: client size %q", ErrInvalidReference, c.Size)
	}
	return nil
}

func validateVehicle(v *model.Vehicle) error {
	if v == nil {
		return fmt.Errorf("%w: vehicle", ErrNilParameter)
	}
	return validateString(v.Number, "vehicle number")
}

func validateDriver(d *model.Driver) error {
	if d == nil {
		return fmt.Errorf("%w: driver", ErrNilParameter)
	}
	return validateString(d.Name, "driver name")
}

// validateTransaction checks the shape of a transaction. Whether its
// references exist is checked against the database separately.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.Product.ID <= 0 {
		return fmt.Errorf("%w: missing product", ErrInvalidTransaction)
	}
	if txn.Loading.Client.ID <= 0 {
		return fmt.Errorf("%w: missing loading point", ErrInvalidTransaction)
	}
	if txn.Loading.Vehicle.ID <= 0 {
		return fmt.Errorf("%w: missing loading vehicle", ErrInvalidTransaction)
	}
	if txn.Loading.Date.IsZero() {
		return fmt.Errorf("%w: missing loading date", ErrInvalidTransaction)
	}
	if err := validateLeg(&txn.Loading, "loading"); err != nil {
		return err
	}
	if txn.TransportExpense != nil && txn.TransportExpense.IsNegative() {
		return fmt.Errorf("%w: transport expense cannot be negative", ErrInvalidTransaction)
	}
	if u := txn.Unloading; u != nil {
		if err := validateLeg(u, "unloading"); err != nil {
			return err
		}
		if !u.Date.IsZero() && u.Date.Before(txn.Loading.Date) {
			return fmt.Errorf("%w: unloading date before loading date", ErrInvalidTransaction)
		}
	}
	return nil
}

func validateLeg(l *model.Leg, side string) error {
	if l.Quantity != nil && l.Quantity.IsNegative() {
		return fmt.Errorf("%w: %s quantity cannot be negative", ErrInvalidTransaction, side)
	}
	if l.Rate != nil && l.Rate.IsNegative() {
		return fmt.Errorf("%w: %s rate cannot be negative", ErrInvalidTransaction, side)
	}
	return nil
}

func validatePage(page, pageSize int) error {
	if page < 1 {
		return fmt.Errorf("%w: page %d", ErrInvalidPage, page)
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return fmt.Errorf("%w: page size %d", ErrInvalidPage, pageSize)
	}
	return nil
}
