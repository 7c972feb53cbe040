// Package catalog caches the reference lists transactions are composed from.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/service"
	"github.com/patrickmn/go-cache"
)

// Cache lifetimes.
const (
	DefaultTTL      = 5 * time.Minute
	CleanupInterval = 10 * time.Minute
)

// Kind names one reference list.
type Kind string

// Reference list kinds.
const (
	KindProducts Kind = "products"
	KindClients  Kind = "clients"
	KindVehicles Kind = "vehicles"
	KindDrivers  Kind = "drivers"
)

// Catalog serves reference lists from a TTL cache, loading from the store
// on a miss.
type Catalog struct {
	store service.ReferenceStore
	cache *cache.Cache
}

// New returns a catalog over store. A ttl of zero uses DefaultTTL.
func New(store service.ReferenceStore, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Catalog{store: store, cache: cache.New(ttl, CleanupInterval)}
}

// Products returns every product, most used first.
func (c *Catalog) Products(ctx context.Context) ([]model.Product, error) {
	return cached(c, string(KindProducts), func() ([]model.Product, error) {
		return c.store.ListProducts(ctx)
	})
}

// Clients returns clients of one type, or all clients when clientType is empty.
func (c *Catalog) Clients(ctx context.Context, clientType model.ClientType) ([]model.Client, error) {
	return cached(c, clientKey(clientType), func() ([]model.Client, error) {
		return c.store.ListClients(ctx, clientType)
	})
}

// Vehicles returns every vehicle, most used first.
func (c *Catalog) Vehicles(ctx context.Context) ([]model.Vehicle, error) {
	return cached(c, string(KindVehicles), func() ([]model.Vehicle, error) {
		return c.store.ListVehicles(ctx)
	})
}

// Drivers returns every driver.
func (c *Catalog) Drivers(ctx context.Context) ([]model.Driver, error) {
	return cached(c, string(KindDrivers), func() ([]model.Driver, error) {
		return c.store.ListDrivers(ctx)
	})
}

// Invalidate drops one cached list so the next read reloads it.
func (c *Catalog) Invalidate(kind Kind) {
	if kind == KindClients {
		for _, t := range []model.ClientType{"", model.ClientLoadingPoint, model.ClientUnloadingPoint} {
			c.cache.Delete(clientKey(t))
		}
		return
	}
	c.cache.Delete(string(kind))
}

// InvalidateAll drops every cached list. Saving a transaction changes usage
// counts and therefore list order, so writers call this afterwards.
func (c *Catalog) InvalidateAll() {
	c.cache.Flush()
}

// FindProduct looks a product up by name, ignoring case.
func (c *Catalog) FindProduct(ctx context.Context, name string) (*model.Product, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if strings.EqualFold(products[i].Name, strings.TrimSpace(name)) {
			return &products[i], nil
		}
	}
	return nil, fmt.Errorf("product %q: %w", name, common.ErrNotFound)
}

// FindClient looks a client of the given type up by name, ignoring case.
func (c *Catalog) FindClient(ctx context.Context, clientType model.ClientType, name string) (*model.Client, error) {
	clients, err := c.Clients(ctx, clientType)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		if strings.EqualFold(clients[i].Name, strings.TrimSpace(name)) {
			return &clients[i], nil
		}
	}
	return nil, fmt.Errorf("client %q: %w", name, common.ErrNotFound)
}

// FindVehicle looks a vehicle up by registration number, ignoring case.
func (c *Catalog) FindVehicle(ctx context.Context, number string) (*model.Vehicle, error) {
	vehicles, err := c.Vehicles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range vehicles {
		if strings.EqualFold(vehicles[i].Number, strings.TrimSpace(number)) {
			return &vehicles[i], nil
		}
	}
	return nil, fmt.Errorf("vehicle %q: %w", number, common.ErrNotFound)
}

// FindDriver looks a driver up by name, ignoring case.
func (c *Catalog) FindDriver(ctx context.Context, name string) (*model.Driver, error) {
	drivers, err := c.Drivers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range drivers {
		if strings.EqualFold(drivers[i].Name, strings.TrimSpace(name)) {
			return &drivers[i], nil
		}
	}
	return nil, fmt.Errorf("driver %q: %w", name, common.ErrNotFound)
}

func clientKey(t model.ClientType) string {
	if t == "" {
		return string(KindClients) + ":all"
	}
	return string(KindClients) + ":" + string(t)
}

func cached[T any](c *Catalog, key string, load func() ([]T, error)) ([]T, error) {
	if v, found := c.cache.Get(key); found {
		return v.([]T), nil
	}
	items, err := load()
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, items, cache.DefaultExpiration)
	return items, nil
}
