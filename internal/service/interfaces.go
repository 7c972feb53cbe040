// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	"github.com/shopspring/decimal"
)

// TransactionFilter narrows a transaction search. Empty fields match
// everything; date bounds are inclusive.
type TransactionFilter struct {
	LoadingFrom          *time.Time         `json:"loading_date_from,omitempty"`
	LoadingTo            *time.Time         `json:"loading_date_to,omitempty"`
	UnloadingFrom        *time.Time         `json:"unloading_date_from,omitempty"`
	UnloadingTo          *time.Time         `json:"unloading_date_to,omitempty"`
	Sold                 *bool              `json:"is_sold,omitempty"`
	ProductIDs           []int64            `json:"product_ids,omitempty"`
	VehicleIDs           []int64            `json:"vehicle_ids,omitempty"`
	LoadingPointIDs      []int64            `json:"loading_point_ids,omitempty"`
	UnloadingPointIDs    []int64            `json:"unloading_point_ids,omitempty"`
	LoadingClientSizes   []model.ClientSize `json:"loading_client_sizes,omitempty"`
	UnloadingClientSizes []model.ClientSize `json:"unloading_client_sizes,omitempty"`
}

// IsEmpty reports whether the filter matches everything.
func (f TransactionFilter) IsEmpty() bool {
	return f.LoadingFrom == nil && f.LoadingTo == nil &&
		f.UnloadingFrom == nil && f.UnloadingTo == nil && f.Sold == nil &&
		len(f.ProductIDs) == 0 && len(f.VehicleIDs) == 0 &&
		len(f.LoadingPointIDs) == 0 && len(f.UnloadingPointIDs) == 0 &&
		len(f.LoadingClientSizes) == 0 && len(f.UnloadingClientSizes) == 0
}

// TransactionPage is one server-side page of transactions.
type TransactionPage struct {
	Transactions []model.Transaction
	viewmodel.PageInfo
}

// ReferenceStore manages the lists transactions refer to.
type ReferenceStore interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	CreateClient(ctx context.Context, c *model.Client) error
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	ListClients(ctx context.Context, clientType model.ClientType) ([]model.Client, error)
	DeleteClient(ctx context.Context, id int64) error

	CreateVehicle(ctx context.Context, v *model.Vehicle) error
	GetVehicle(ctx context.Context, id int64) (*model.Vehicle, error)
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
	DeleteVehicle(ctx context.Context, id int64) error

	CreateDriver(ctx context.Context, d *model.Driver) error
	GetDriver(ctx context.Context, id int64) (*model.Driver, error)
	ListDrivers(ctx context.Context) ([]model.Driver, error)
	DeleteDriver(ctx context.Context, id int64) error
}

// TransactionStore persists transactions.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	MarkSold(ctx context.Context, id int64, sold bool) error
	SearchTransactions(ctx context.Context, filter TransactionFilter, page, pageSize int) (*TransactionPage, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	ReferenceStore
	TransactionStore

	GetDashboard(ctx context.Context, asOf time.Time) (*Dashboard, error)
	Preferences(ctx context.Context) viewmodel.PreferenceStore

	Migrate(ctx context.Context) error
	Close() error
}

// Totals counts the rows of each reference list.
type Totals struct {
	Products         int `json:"total_products"`
	LoadingClients   int `json:"total_loading_clients"`
	UnloadingClients int `json:"total_unloading_clients"`
	Vehicles         int `json:"total_vehicles"`
	Drivers          int `json:"total_drivers"`
	Transactions     int `json:"total_transactions"`
}

// Discrepancy is an unsold transaction that unloaded less than it loaded.
type Discrepancy struct {
	Product           string          `json:"product"`
	Vehicle           string          `json:"vehicle"`
	LoadingQuantity   decimal.Decimal `json:"loading_quantity"`
	UnloadingQuantity decimal.Decimal `json:"unloading_quantity"`
	Difference        decimal.Decimal `json:"difference"`
	TransactionID     int64           `json:"transaction_id"`
}

// Performer ranks a vehicle, driver or route by trips carried.
type Performer struct {
	Name             string          `json:"name"`
	AverageExpense   decimal.Decimal `json:"average_expense"`
	TransactionCount int             `json:"transaction_count"`
}

// Dashboard is the overview shown by the dashboard command and endpoint.
type Dashboard struct {
	StatusCounts     map[model.Status]int `json:"status_counts"`
	Discrepancies    []Discrepancy        `json:"quantity_discrepancies"`
	TopVehicles      []Performer          `json:"top_vehicles"`
	TopDrivers       []Performer          `json:"top_drivers"`
	TopRoutes        []Performer          `json:"top_routes"`
	InactiveVehicles []model.Vehicle      `json:"inactive_vehicles"`
	InactiveDrivers  []model.Driver       `json:"inactive_drivers"`
	Totals           Totals               `json:"totals"`
}
