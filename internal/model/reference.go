// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ref is a resolved reference to another entity: its id and display name.
type Ref struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// ClientType indicates which side of a trip a client sits on.
type ClientType string

const (
	// ClientLoadingPoint is a client the product is loaded at (bought from).
	ClientLoadingPoint ClientType = "loading_point"
	// ClientUnloadingPoint is a client the product is unloaded at (sold to).
	ClientUnloadingPoint ClientType = "unloading_point"
)

// ClientSize buckets clients for filtering.
type ClientSize string

// Client sizes.
const (
	SizeBig    ClientSize = "big"
	SizeMedium ClientSize = "medium"
	SizeSmall  ClientSize = "small"
	SizeMisc   ClientSize = "misc"
)

// ClientSizes lists every client size in display order.
var ClientSizes = []ClientSize{SizeBig, SizeSmall, SizeMedium, SizeMisc}

// Label returns the human name of a client size.
func (s ClientSize) Label() string {
	switch s {
	case SizeBig:
		return "Big Client"
	case SizeMedium:
		return "Medium Client"
	case SizeSmall:
		return "Small Client"
	case SizeMisc:
		return "Miscellaneous Client"
	default:
		return string(s)
	}
}

// Valid reports whether the size is one of the known buckets.
func (s ClientSize) Valid() bool {
	switch s {
	case SizeBig, SizeMedium, SizeSmall, SizeMisc:
		return true
	}
	return false
}

// Valid reports whether the client type is known.
func (t ClientType) Valid() bool {
	return t == ClientLoadingPoint || t == ClientUnloadingPoint
}

// Product is a commodity moved between clients.
type Product struct {
	CreatedAt      time.Time       `json:"created_at"`
	Name           string          `json:"name"`
	Unit           string          `json:"unit"`
	Description    string          `json:"description,omitempty"`
	Rate           decimal.Decimal `json:"rate"`
	ID             int64           `json:"id"`
	FrequencyOfUse int             `json:"frequency_of_use"`
}

// Ref returns the product as a reference.
func (p Product) Ref() Ref { return Ref{ID: p.ID, Name: p.Name} }

// Client is a loading or unloading point.
type Client struct {
	CreatedAt      time.Time  `json:"created_at"`
	Name           string     `json:"name"`
	Address        string     `json:"address,omitempty"`
	State          string     `json:"state,omitempty"`
	Pin            string     `json:"pin,omitempty"`
	Type           ClientType `json:"type"`
	Size           ClientSize `json:"client_size"`
	ID             int64      `json:"id"`
	FrequencyOfUse int        `json:"frequency_of_use"`
}

// Ref returns the client as a reference.
func (c Client) Ref() Ref { return Ref{ID: c.ID, Name: c.Name} }

// Vehicle is a truck or other carrier, identified by its registration number.
type Vehicle struct {
	CreatedAt      time.Time `json:"created_at"`
	Number         string    `json:"number"`
	Type           string    `json:"type,omitempty"`
	ID             int64     `json:"id"`
	FrequencyOfUse int       `json:"frequency_of_use"`
}

// Ref returns the vehicle as a reference, named by its number.
func (v Vehicle) Ref() Ref { return Ref{ID: v.ID, Name: v.Number} }

// Driver is a user who drives a leg of a trip.
type Driver struct {
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	ID        int64     `json:"id"`
	Active    bool      `json:"active"`
}

// Ref returns the driver as a reference.
func (d Driver) Ref() Ref { return Ref{ID: d.ID, Name: d.Name} }
